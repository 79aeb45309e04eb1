package claim_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/claim-management/internal"
	"github.com/frahmantamala/claim-management/internal/auth"
	"github.com/frahmantamala/claim-management/internal/claim"
)

type errorEnvelope struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

var _ = Describe("Claim Handler", func() {
	var (
		repo    *memRepository
		router  chi.Router
		caller  *auth.User
		admin   *auth.User
		handler *claim.Handler
	)

	do := func(method, path string, body interface{}, as *auth.User) *httptest.ResponseRecorder {
		GinkgoHelper()
		var reader *bytes.Buffer
		switch b := body.(type) {
		case nil:
			reader = &bytes.Buffer{}
		case string:
			reader = bytes.NewBufferString(b)
		default:
			raw, err := json.Marshal(b)
			Expect(err).NotTo(HaveOccurred())
			reader = bytes.NewBuffer(raw)
		}
		req := httptest.NewRequest(method, path, reader)
		req.Header.Set("Content-Type", "application/json")
		if as != nil {
			req = req.WithContext(auth.ContextWithUser(req.Context(), as))
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	decode := func(rec *httptest.ResponseRecorder, dst interface{}) {
		GinkgoHelper()
		Expect(json.NewDecoder(rec.Body).Decode(dst)).To(Succeed())
	}

	createClaim := func() claim.ClaimResponse {
		GinkgoHelper()
		rec := do(http.MethodPost, "/claims", map[string]interface{}{
			"employeeId": 7, "eventTypeId": 1, "currencyId": 1, "remarks": "client visit",
		}, caller)
		Expect(rec.Code).To(Equal(http.StatusCreated))
		var created claim.ClaimResponse
		decode(rec, &created)
		return created
	}

	BeforeEach(func() {
		repo = newMemRepository()
		service := claim.NewService(repo, newMockLookups(), newMemFiles(), &recordingPublisher{}, discardLogger(), claim.Options{
			Clock: fixedClock,
		})
		handler = claim.NewHandler(service, 0)

		caller = &auth.User{ID: 1, Role: auth.RoleEmployee, EmployeeID: &employeeID}
		admin = &auth.User{ID: 100, Role: auth.RoleAdmin}

		router = chi.NewRouter()
		router.Route("/claims", func(r chi.Router) {
			r.Post("/", handler.CreateClaim)
			r.Get("/", handler.ListClaims)
			r.Get("/{id}", handler.GetClaim)
			r.Put("/{id}", handler.UpdateClaim)
			r.Post("/{id}/submit", handler.SubmitClaim)
			r.Post("/{id}/approve", handler.ApproveClaim)
			r.Post("/{id}/reject", handler.RejectClaim)
			r.Post("/{id}/expenses", handler.AddExpense)
			r.Get("/{id}/expenses", handler.ListExpenses)
			r.Put("/{id}/expenses/{expenseId}", handler.UpdateExpense)
			r.Delete("/{id}/expenses/{expenseId}", handler.DeleteExpense)
			r.Post("/{id}/attachments", handler.AddAttachment)
			r.Get("/{id}/attachments", handler.ListAttachments)
			r.Delete("/{id}/attachments/{attachmentId}", handler.DeleteAttachment)
		})
	})

	It("should create a claim and render money with two decimals", func() {
		created := createClaim()

		Expect(created.Status).To(Equal(claim.StatusInitiated))
		Expect(created.TotalAmount).To(Equal("0.00"))
		Expect(created.ReferenceID).To(MatchRegexp(`^20250123\d{7}$`))
		Expect(*created.Remarks).To(Equal("client visit"))
	})

	It("should answer 401 without an authenticated user", func() {
		rec := do(http.MethodPost, "/claims", map[string]interface{}{"employeeId": 7, "eventTypeId": 1, "currencyId": 1}, nil)

		Expect(rec.Code).To(Equal(http.StatusUnauthorized))
		var env errorEnvelope
		decode(rec, &env)
		Expect(env.Error.Type).To(Equal(string(internal.ErrorTypeUnauthorized)))
	})

	It("should answer 400 with the error envelope for a malformed body", func() {
		rec := do(http.MethodPost, "/claims", "{not json", caller)

		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		Expect(rec.Header().Get("Content-Type")).To(ContainSubstring("application/json"))
		var env errorEnvelope
		decode(rec, &env)
		Expect(env.Error.Type).To(Equal(string(internal.ErrorTypeValidation)))
		Expect(env.Error.Message).To(ContainSubstring("invalid request body"))
	})

	It("should answer 400 for a non-numeric claim id", func() {
		rec := do(http.MethodGet, "/claims/abc", nil, caller)

		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})

	It("should answer 404 for an unknown claim", func() {
		rec := do(http.MethodGet, "/claims/12345", nil, caller)

		Expect(rec.Code).To(Equal(http.StatusNotFound))
		var env errorEnvelope
		decode(rec, &env)
		Expect(env.Error.Code).To(Equal(string(internal.ErrCodeClaimNotFound)))
	})

	It("should run a claim through expenses, submission and approval", func() {
		created := createClaim()
		base := "/claims/" + itoa(created.ID)

		// Given an expense
		rec := do(http.MethodPost, base+"/expenses", map[string]interface{}{
			"expenseTypeId": 1, "expenseDate": "2025-01-20", "amount": "120.5",
		}, caller)
		Expect(rec.Code).To(Equal(http.StatusCreated))
		var expense claim.ExpenseResponse
		decode(rec, &expense)
		Expect(expense.Amount).To(Equal("120.50"))
		Expect(expense.ExpenseDate).To(Equal("2025-01-20"))

		// When submitted
		rec = do(http.MethodPost, base+"/submit", nil, caller)
		Expect(rec.Code).To(Equal(http.StatusOK))
		var submitted claim.ActionResponse
		decode(rec, &submitted)
		Expect(submitted.Message).To(Equal("Claim submitted successfully"))
		Expect(submitted.Claim.Status).To(Equal(claim.StatusSubmitted))
		Expect(submitted.Claim.TotalAmount).To(Equal("120.50"))
		Expect(submitted.Claim.SubmittedDate).NotTo(BeNil())

		// Then the employee cannot approve
		rec = do(http.MethodPost, base+"/approve", nil, caller)
		Expect(rec.Code).To(Equal(http.StatusForbidden))
		var env errorEnvelope
		decode(rec, &env)
		Expect(env.Error.Code).To(Equal(string(internal.ErrCodeAdminRequired)))

		// And expenses are frozen
		rec = do(http.MethodPost, base+"/expenses", map[string]interface{}{
			"expenseTypeId": 1, "expenseDate": "2025-01-20", "amount": "1.00",
		}, caller)
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		decode(rec, &env)
		Expect(env.Error.Type).To(Equal(string(internal.ErrorTypeInvalidStatus)))

		// And an admin can approve
		rec = do(http.MethodPost, base+"/approve", nil, admin)
		Expect(rec.Code).To(Equal(http.StatusOK))
		var approved claim.ActionResponse
		decode(rec, &approved)
		Expect(approved.Claim.Status).To(Equal(claim.StatusApproved))
		Expect(*approved.Claim.ApproverID).To(Equal(admin.ID))
	})

	It("should reject with a reason and refuse an empty one", func() {
		created := createClaim()
		base := "/claims/" + itoa(created.ID)
		repo.seedExpense(created.ID, "10.00")
		Expect(do(http.MethodPost, base+"/submit", nil, caller).Code).To(Equal(http.StatusOK))

		rec := do(http.MethodPost, base+"/reject", map[string]string{"rejectionReason": "  "}, admin)
		Expect(rec.Code).To(Equal(http.StatusBadRequest))

		rec = do(http.MethodPost, base+"/reject", "{", admin)
		Expect(rec.Code).To(Equal(http.StatusBadRequest))

		rec = do(http.MethodPost, base+"/reject", map[string]string{"rejectionReason": "Missing receipt"}, admin)
		Expect(rec.Code).To(Equal(http.StatusOK))
		var rejected claim.ActionResponse
		decode(rec, &rejected)
		Expect(rejected.Claim.Status).To(Equal(claim.StatusRejected))
		Expect(*rejected.Claim.RejectionReason).To(Equal("Missing receipt"))
	})

	It("should list only the caller's claims", func() {
		createClaim()
		other := &auth.User{ID: 2, Role: auth.RoleEmployee, EmployeeID: &otherEmployeeID}

		rec := do(http.MethodGet, "/claims?status=Initiated", nil, other)
		Expect(rec.Code).To(Equal(http.StatusOK))
		var list claim.ClaimsResponse
		decode(rec, &list)
		Expect(list.Claims).To(BeEmpty())
		Expect(list.Limit).To(Equal(claim.DefaultListLimit))

		rec = do(http.MethodGet, "/claims?limit=5", nil, admin)
		decode(rec, &list)
		Expect(list.Claims).To(HaveLen(1))
		Expect(list.Limit).To(Equal(5))
	})

	It("should answer 400 for an unknown status filter", func() {
		rec := do(http.MethodGet, "/claims?status=Lost", nil, admin)

		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})

	It("should accept a multipart upload and list it", func() {
		created := createClaim()
		base := "/claims/" + itoa(created.ID)

		body := &bytes.Buffer{}
		form := multipart.NewWriter(body)
		part, err := form.CreateFormFile("file", "receipt.pdf")
		Expect(err).NotTo(HaveOccurred())
		_, err = part.Write(pdfHeader)
		Expect(err).NotTo(HaveOccurred())
		Expect(form.WriteField("description", "taxi receipt")).To(Succeed())
		Expect(form.Close()).To(Succeed())

		req := httptest.NewRequest(http.MethodPost, base+"/attachments", body)
		req.Header.Set("Content-Type", form.FormDataContentType())
		req = req.WithContext(auth.ContextWithUser(context.Background(), caller))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		Expect(rec.Code).To(Equal(http.StatusCreated))
		var attachment claim.AttachmentResponse
		decode(rec, &attachment)
		Expect(attachment.OriginalFilename).To(Equal("receipt.pdf"))
		Expect(attachment.FileType).To(Equal("application/pdf"))
		Expect(*attachment.Description).To(Equal("taxi receipt"))

		rec = do(http.MethodGet, base+"/attachments", nil, caller)
		Expect(rec.Code).To(Equal(http.StatusOK))
		var list claim.AttachmentsResponse
		decode(rec, &list)
		Expect(list.Attachments).To(HaveLen(1))
	})

	It("should require the file field on upload", func() {
		created := createClaim()

		body := &bytes.Buffer{}
		form := multipart.NewWriter(body)
		Expect(form.WriteField("description", "no file")).To(Succeed())
		Expect(form.Close()).To(Succeed())

		req := httptest.NewRequest(http.MethodPost, "/claims/"+itoa(created.ID)+"/attachments", body)
		req.Header.Set("Content-Type", form.FormDataContentType())
		req = req.WithContext(auth.ContextWithUser(context.Background(), caller))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})
})
