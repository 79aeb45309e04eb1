package claim_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/claim-management/internal"
	"github.com/frahmantamala/claim-management/internal/claim"
)

var _ = Describe("CanTransition", func() {
	type expectation struct {
		allowed bool
		next    claim.Status
	}

	lifecycle := []claim.Status{claim.StatusInitiated, claim.StatusSubmitted, claim.StatusApproved, claim.StatusRejected}
	actions := []claim.Action{claim.ActionUpdate, claim.ActionSubmit, claim.ActionApprove, claim.ActionReject, claim.ActionCreate}

	legal := map[claim.Status]map[claim.Action]expectation{
		claim.StatusInitiated: {
			claim.ActionUpdate: {true, claim.StatusInitiated},
			claim.ActionSubmit: {true, claim.StatusSubmitted},
		},
		claim.StatusSubmitted: {
			claim.ActionApprove: {true, claim.StatusApproved},
			claim.ActionReject:  {true, claim.StatusRejected},
		},
	}

	It("should allow exactly the legal edges over every status and action", func() {
		for _, status := range lifecycle {
			for _, action := range actions {
				decision := claim.CanTransition(status, action)
				want, ok := legal[status][action]

				if ok {
					Expect(decision.Allowed).To(BeTrue(), "%s on %s", action, status)
					Expect(decision.Next).To(Equal(want.next), "%s on %s", action, status)
					Expect(decision.Err(status, action)).To(Succeed())
					continue
				}

				Expect(decision.Allowed).To(BeFalse(), "%s on %s", action, status)
				Expect(decision.Next).To(Equal(status))
				err := decision.Err(status, action)
				Expect(internal.ErrorTypeOf(err)).To(Equal(internal.ErrorTypeInvalidStatus), "%s on %s", action, status)
			}
		}
	})

	DescribeTable("denied combinations report INVALID_STATUS",
		func(status claim.Status, action claim.Action) {
			decision := claim.CanTransition(status, action)

			Expect(decision.Allowed).To(BeFalse())
			appErr, ok := internal.IsAppError(decision.Err(status, action))
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeInvalidStatus))
			Expect(appErr.Message).To(ContainSubstring(string(action)))
		},
		Entry("approve while Initiated", claim.StatusInitiated, claim.ActionApprove),
		Entry("reject while Initiated", claim.StatusInitiated, claim.ActionReject),
		Entry("update while Submitted", claim.StatusSubmitted, claim.ActionUpdate),
		Entry("submit while Submitted", claim.StatusSubmitted, claim.ActionSubmit),
		Entry("update while Approved", claim.StatusApproved, claim.ActionUpdate),
		Entry("reject while Approved", claim.StatusApproved, claim.ActionReject),
		Entry("approve while Rejected", claim.StatusRejected, claim.ActionApprove),
		Entry("submit while Rejected", claim.StatusRejected, claim.ActionSubmit),
	)

	It("should only allow create on a claim that does not exist yet", func() {
		decision := claim.CanTransition("", claim.ActionCreate)
		Expect(decision.Allowed).To(BeTrue())
		Expect(decision.Next).To(Equal(claim.StatusInitiated))

		for _, action := range []claim.Action{claim.ActionUpdate, claim.ActionSubmit, claim.ActionApprove, claim.ActionReject} {
			Expect(claim.CanTransition("", action).Allowed).To(BeFalse())
		}
	})

	Describe("reserved statuses", func() {
		It("should be valid values", func() {
			for _, status := range claim.ReservedStatuses() {
				Expect(status.IsValid()).To(BeTrue())
			}
			Expect(claim.Status("Archived").IsValid()).To(BeFalse())
		})

		It("should deny every action", func() {
			for _, status := range claim.ReservedStatuses() {
				for _, action := range claim.Actions() {
					Expect(claim.CanTransition(status, action).Allowed).To(BeFalse(), "%s on %s", action, status)
				}
			}
		})

		It("should never be produced by any transition", func() {
			starts := append([]claim.Status{""}, append(claim.ReachableStatuses(), claim.ReservedStatuses()...)...)
			for _, status := range starts {
				for _, action := range claim.Actions() {
					decision := claim.CanTransition(status, action)
					if !decision.Allowed {
						continue
					}
					Expect(claim.ReservedStatuses()).NotTo(ContainElement(decision.Next))
				}
			}
		})
	})
})

var _ = Describe("CanAccessClaim", func() {
	c := &claim.Claim{ID: 1, EmployeeID: employeeID}

	It("should let admins see every claim", func() {
		Expect(claim.CanAccessClaim(c, adminActor)).To(BeTrue())
	})

	It("should let employees see only their own claims", func() {
		Expect(claim.CanAccessClaim(c, employeeActor)).To(BeTrue())
		Expect(claim.CanAccessClaim(c, otherActor)).To(BeFalse())
	})

	It("should deny employees without a linked employee record", func() {
		Expect(claim.CanAccessClaim(c, claim.Actor{UserID: 5, Role: claim.RoleEmployee})).To(BeFalse())
	})

	It("should deny unknown roles", func() {
		Expect(claim.CanAccessClaim(c, claim.Actor{UserID: 5, Role: "auditor", EmployeeID: &employeeID})).To(BeFalse())
	})
})

var _ = Describe("EnsureMutable", func() {
	It("should pass Initiated claims", func() {
		Expect(claim.EnsureMutable(&claim.Claim{Status: claim.StatusInitiated})).To(Succeed())
	})

	DescribeTable("should refuse every other status",
		func(status claim.Status) {
			err := claim.EnsureMutable(&claim.Claim{Status: status, ReferenceID: "202501230000001"})
			Expect(internal.ErrorTypeOf(err)).To(Equal(internal.ErrorTypeInvalidStatus))
		},
		Entry("Submitted", claim.StatusSubmitted),
		Entry("Approved", claim.StatusApproved),
		Entry("Rejected", claim.StatusRejected),
		Entry("Paid", claim.StatusPaid),
	)
})
