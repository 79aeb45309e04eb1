package postgres_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/frahmantamala/claim-management/internal/claim"
	"github.com/frahmantamala/claim-management/internal/claim/postgres"
	claimDatamodel "github.com/frahmantamala/claim-management/internal/core/datamodel/claim"
)

var now = time.Date(2025, time.January, 23, 9, 0, 0, 0, time.UTC)

func newClaim(reference string, employeeID int64) *claim.Claim {
	return &claim.Claim{
		ReferenceID: reference,
		EmployeeID:  employeeID,
		EventTypeID: 1,
		CurrencyID:  1,
		Status:      claim.StatusInitiated,
		TotalAmount: decimal.Zero,
		CreatedBy:   1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func newExpense(claimID int64, amount string) *claim.Expense {
	return &claim.Expense{
		ClaimID:       claimID,
		ExpenseTypeID: 1,
		ExpenseDate:   time.Date(2025, time.January, 20, 0, 0, 0, 0, time.UTC),
		Amount:        decimal.RequireFromString(amount),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

var _ = Describe("Store", func() {
	var (
		ctx   context.Context
		db    *gorm.DB
		store *postgres.Store
	)

	BeforeEach(func() {
		var err error
		ctx = context.Background()

		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger:         logger.Default.LogMode(logger.Silent),
			TranslateError: true,
		})
		Expect(err).NotTo(HaveOccurred())

		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		// one connection, otherwise every connection sees its own empty :memory: database
		sqlDB.SetMaxOpenConns(1)

		Expect(db.AutoMigrate(&claimDatamodel.Claim{}, &claimDatamodel.Expense{}, &claimDatamodel.Attachment{})).To(Succeed())
		store = postgres.NewStore(db)
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		Expect(sqlDB.Close()).To(Succeed())
	})

	Describe("claims", func() {
		It("should create and load a claim", func() {
			c := newClaim("202501230000001", 7)

			Expect(store.Claims().Create(ctx, c)).To(Succeed())
			Expect(c.ID).To(BeNumerically(">", 0))

			loaded, err := store.Claims().GetByID(ctx, c.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.ReferenceID).To(Equal("202501230000001"))
			Expect(loaded.Status).To(Equal(claim.StatusInitiated))
			Expect(loaded.TotalAmount.IsZero()).To(BeTrue())
		})

		It("should map a missing row to ErrClaimNotFound", func() {
			_, err := store.Claims().GetByID(ctx, 999)

			Expect(errors.Is(err, claim.ErrClaimNotFound)).To(BeTrue())
		})

		It("should report a duplicate reference", func() {
			Expect(store.Claims().Create(ctx, newClaim("202501230000001", 7))).To(Succeed())

			err := store.Claims().Create(ctx, newClaim("202501230000001", 8))

			Expect(errors.Is(err, claim.ErrDuplicateReference)).To(BeTrue())
		})

		It("should answer reference lookups by value and by day prefix", func() {
			Expect(store.Claims().Create(ctx, newClaim("202501230000001", 7))).To(Succeed())
			Expect(store.Claims().Create(ctx, newClaim("202501230000002", 7))).To(Succeed())
			Expect(store.Claims().Create(ctx, newClaim("202501220000001", 7))).To(Succeed())

			exists, err := store.Claims().ReferenceExists(ctx, "202501230000002")
			Expect(err).NotTo(HaveOccurred())
			Expect(exists).To(BeTrue())

			exists, err = store.Claims().ReferenceExists(ctx, "202501230000003")
			Expect(err).NotTo(HaveOccurred())
			Expect(exists).To(BeFalse())

			count, err := store.Claims().CountByReferencePrefix(ctx, "20250123")
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(int64(2)))
		})

		It("should filter lists by status and employee", func() {
			first := newClaim("202501230000001", 7)
			Expect(store.Claims().Create(ctx, first)).To(Succeed())
			Expect(store.Claims().Create(ctx, newClaim("202501230000002", 7))).To(Succeed())
			Expect(store.Claims().Create(ctx, newClaim("202501230000003", 8))).To(Succeed())
			Expect(store.Claims().Transition(ctx, first.ID, claim.StatusInitiated, claim.StatusChange{To: claim.StatusSubmitted, At: now})).To(Succeed())

			employee := int64(7)
			mine, err := store.Claims().List(ctx, claim.ListClaimsFilter{EmployeeID: &employee})
			Expect(err).NotTo(HaveOccurred())
			Expect(mine).To(HaveLen(2))

			submitted := claim.StatusSubmitted
			onlySubmitted, err := store.Claims().List(ctx, claim.ListClaimsFilter{Status: &submitted})
			Expect(err).NotTo(HaveOccurred())
			Expect(onlySubmitted).To(HaveLen(1))
			Expect(onlySubmitted[0].ID).To(Equal(first.ID))

			page, err := store.Claims().List(ctx, claim.ListClaimsFilter{Limit: 2, Offset: 2})
			Expect(err).NotTo(HaveOccurred())
			Expect(page).To(HaveLen(1))
		})

		Describe("Transition", func() {
			var c *claim.Claim

			BeforeEach(func() {
				c = newClaim("202501230000001", 7)
				Expect(store.Claims().Create(ctx, c)).To(Succeed())
			})

			It("should stamp the submitted date", func() {
				Expect(store.Claims().Transition(ctx, c.ID, claim.StatusInitiated, claim.StatusChange{To: claim.StatusSubmitted, At: now})).To(Succeed())

				loaded, err := store.Claims().GetByID(ctx, c.ID)
				Expect(err).NotTo(HaveOccurred())
				Expect(loaded.Status).To(Equal(claim.StatusSubmitted))
				Expect(loaded.SubmittedDate).NotTo(BeNil())
			})

			It("should record the approver and reason on rejection", func() {
				approver, reason := int64(100), "Missing receipt"
				Expect(store.Claims().Transition(ctx, c.ID, claim.StatusInitiated, claim.StatusChange{To: claim.StatusSubmitted, At: now})).To(Succeed())

				err := store.Claims().Transition(ctx, c.ID, claim.StatusSubmitted, claim.StatusChange{
					To: claim.StatusRejected, At: now, ApproverID: &approver, RejectionReason: &reason,
				})

				Expect(err).NotTo(HaveOccurred())
				loaded, err := store.Claims().GetByID(ctx, c.ID)
				Expect(err).NotTo(HaveOccurred())
				Expect(loaded.Status).To(Equal(claim.StatusRejected))
				Expect(*loaded.ApproverID).To(Equal(approver))
				Expect(*loaded.RejectionReason).To(Equal(reason))
				Expect(loaded.RejectedDate).NotTo(BeNil())
				Expect(loaded.ApprovedDate).To(BeNil())
			})

			It("should refuse when the expected status no longer holds", func() {
				Expect(store.Claims().Transition(ctx, c.ID, claim.StatusInitiated, claim.StatusChange{To: claim.StatusSubmitted, At: now})).To(Succeed())

				err := store.Claims().Transition(ctx, c.ID, claim.StatusInitiated, claim.StatusChange{To: claim.StatusSubmitted, At: now})

				Expect(errors.Is(err, claim.ErrStatusConflict)).To(BeTrue())
			})

			It("should tell a missing claim apart from a conflict", func() {
				err := store.Claims().Transition(ctx, 999, claim.StatusSubmitted, claim.StatusChange{To: claim.StatusApproved, At: now})

				Expect(errors.Is(err, claim.ErrClaimNotFound)).To(BeTrue())
			})

			It("should only update details while Initiated", func() {
				remarks := "updated"
				c.Remarks = &remarks
				c.CurrencyID = 2
				Expect(store.Claims().UpdateDetails(ctx, c)).To(Succeed())

				loaded, err := store.Claims().GetByID(ctx, c.ID)
				Expect(err).NotTo(HaveOccurred())
				Expect(loaded.CurrencyID).To(Equal(int64(2)))
				Expect(*loaded.Remarks).To(Equal("updated"))

				Expect(store.Claims().Transition(ctx, c.ID, claim.StatusInitiated, claim.StatusChange{To: claim.StatusSubmitted, At: now})).To(Succeed())
				err = store.Claims().UpdateDetails(ctx, c)
				Expect(errors.Is(err, claim.ErrStatusConflict)).To(BeTrue())
			})
		})
	})

	Describe("expenses", func() {
		var c *claim.Claim

		BeforeEach(func() {
			c = newClaim("202501230000001", 7)
			Expect(store.Claims().Create(ctx, c)).To(Succeed())
		})

		It("should keep the ledger exact through the store", func() {
			ledger := claim.NewExpenseLedger(store.Claims(), store.Expenses())
			for _, amount := range []string{"10.10", "20.20", "0.01"} {
				Expect(store.Expenses().Create(ctx, newExpense(c.ID, amount))).To(Succeed())
			}

			total, err := ledger.Recompute(ctx, c.ID)

			Expect(err).NotTo(HaveOccurred())
			Expect(total.StringFixed(2)).To(Equal("30.31"))
			loaded, err := store.Claims().GetByID(ctx, c.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.TotalAmount.StringFixed(2)).To(Equal("30.31"))
		})

		It("should scope reads and writes to the owning claim", func() {
			other := newClaim("202501230000002", 7)
			Expect(store.Claims().Create(ctx, other)).To(Succeed())
			e := newExpense(other.ID, "5.00")
			Expect(store.Expenses().Create(ctx, e)).To(Succeed())

			_, err := store.Expenses().GetByID(ctx, c.ID, e.ID)
			Expect(errors.Is(err, claim.ErrExpenseNotFound)).To(BeTrue())
			Expect(errors.Is(store.Expenses().Delete(ctx, c.ID, e.ID), claim.ErrExpenseNotFound)).To(BeTrue())

			listed, err := store.Expenses().ListByClaimID(ctx, c.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(listed).To(BeEmpty())
		})

		It("should update and delete an expense", func() {
			e := newExpense(c.ID, "5.00")
			Expect(store.Expenses().Create(ctx, e)).To(Succeed())

			e.Amount = decimal.RequireFromString("7.25")
			Expect(store.Expenses().Update(ctx, e)).To(Succeed())
			loaded, err := store.Expenses().GetByID(ctx, c.ID, e.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.Amount.Equal(decimal.RequireFromString("7.25"))).To(BeTrue())

			Expect(store.Expenses().Delete(ctx, c.ID, e.ID)).To(Succeed())
			_, err = store.Expenses().GetByID(ctx, c.ID, e.ID)
			Expect(errors.Is(err, claim.ErrExpenseNotFound)).To(BeTrue())
		})
	})

	Describe("attachments", func() {
		It("should refuse a second row with the same stored filename", func() {
			c := newClaim("202501230000001", 7)
			Expect(store.Claims().Create(ctx, c)).To(Succeed())
			attachment := func() *claim.Attachment {
				return &claim.Attachment{
					ClaimID:          c.ID,
					OriginalFilename: "receipt.pdf",
					StoredFilename:   "0b6c6c4e.pdf",
					FileSize:         42,
					FileType:         "application/pdf",
					FilePath:         "/tmp/0b6c6c4e.pdf",
					CreatedAt:        now,
				}
			}

			Expect(store.Attachments().Create(ctx, attachment())).To(Succeed())
			err := store.Attachments().Create(ctx, attachment())

			Expect(errors.Is(err, claim.ErrDuplicateStoredFilename)).To(BeTrue())
			listed, err := store.Attachments().ListByClaimID(ctx, c.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(listed).To(HaveLen(1))
		})
	})

	Describe("WithinTransaction", func() {
		It("should roll back every write when fn fails", func() {
			c := newClaim("202501230000001", 7)
			Expect(store.Claims().Create(ctx, c)).To(Succeed())
			boom := errors.New("boom")

			err := store.WithinTransaction(ctx, func(tx claim.Repository) error {
				if _, err := tx.Claims().GetByID(ctx, c.ID); err != nil {
					return err
				}
				if err := tx.Expenses().Create(ctx, newExpense(c.ID, "9.99")); err != nil {
					return err
				}
				if _, err := claim.NewExpenseLedger(tx.Claims(), tx.Expenses()).Recompute(ctx, c.ID); err != nil {
					return err
				}
				return boom
			})

			Expect(errors.Is(err, boom)).To(BeTrue())
			loaded, err := store.Claims().GetByID(ctx, c.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.TotalAmount.IsZero()).To(BeTrue())
			expenses, err := store.Expenses().ListByClaimID(ctx, c.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(expenses).To(BeEmpty())
		})
	})
})
