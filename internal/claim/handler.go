package claim

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/frahmantamala/claim-management/internal"
	"github.com/frahmantamala/claim-management/internal/auth"
	"github.com/frahmantamala/claim-management/internal/transport"
	"github.com/frahmantamala/claim-management/pkg/logger"
)

type ServiceAPI interface {
	CreateClaim(ctx context.Context, dto CreateClaimDTO, actor Actor) (*Claim, error)
	UpdateClaim(ctx context.Context, id int64, dto UpdateClaimDTO, actor Actor) (*Claim, error)
	SubmitClaim(ctx context.Context, id int64, actor Actor) (*Claim, error)
	ApproveClaim(ctx context.Context, id int64, actor Actor) (*Claim, error)
	RejectClaim(ctx context.Context, id int64, dto RejectClaimDTO, actor Actor) (*Claim, error)
	GetClaim(ctx context.Context, id int64, actor Actor) (*Claim, error)
	ListClaims(ctx context.Context, filter ListClaimsFilter, actor Actor) ([]*Claim, error)

	AddExpense(ctx context.Context, claimID int64, dto ExpenseDTO, actor Actor) (*Expense, error)
	UpdateExpense(ctx context.Context, claimID, expenseID int64, dto UpdateExpenseDTO, actor Actor) (*Expense, error)
	DeleteExpense(ctx context.Context, claimID, expenseID int64, actor Actor) error
	ListExpenses(ctx context.Context, claimID int64, actor Actor) ([]*Expense, error)

	AddAttachment(ctx context.Context, claimID int64, upload AttachmentUpload, actor Actor) (*Attachment, error)
	DeleteAttachment(ctx context.Context, claimID, attachmentID int64, actor Actor) error
	ListAttachments(ctx context.Context, claimID int64, actor Actor) ([]*Attachment, error)
}

// multipart framing allowance on top of the file limit
const multipartOverhead = 64 << 10

type Handler struct {
	*transport.BaseHandler
	Service        ServiceAPI
	MaxUploadBytes int64
}

func NewHandler(service ServiceAPI, maxUploadBytes int64) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	if maxUploadBytes <= 0 {
		maxUploadBytes = internal.DefaultAttachmentMaxBytes
	}
	return &Handler{
		BaseHandler:    transport.NewBaseHandler(lg),
		Service:        service,
		MaxUploadBytes: maxUploadBytes,
	}
}

type ActionResponse struct {
	Message string        `json:"message"`
	Claim   ClaimResponse `json:"claim"`
}

type ExpensesResponse struct {
	Expenses []ExpenseResponse `json:"expenses"`
}

type AttachmentsResponse struct {
	Attachments []AttachmentResponse `json:"attachments"`
}

// ActorFromUser maps the authenticated user onto the claim core's view of a caller.
func ActorFromUser(u *auth.User) Actor {
	return Actor{UserID: u.ID, Role: Role(u.Role), EmployeeID: u.EmployeeID}
}

func (h *Handler) actor(w http.ResponseWriter, r *http.Request) (Actor, bool) {
	u, ok := auth.UserFromContext(r.Context())
	if !ok || u == nil {
		h.WriteAppError(w, internal.NewUnauthorizedError("unauthorized", internal.ErrCodeInvalidToken))
		return Actor{}, false
	}
	return ActorFromUser(u), true
}

// CreateClaim handles POST /claims
func (h *Handler) CreateClaim(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	var dto CreateClaimDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	c, err := h.Service.CreateClaim(r.Context(), dto, actor)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, c.ToResponse())
}

// ListClaims handles GET /claims
func (h *Handler) ListClaims(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	limit, offset := h.Pagination(r, DefaultListLimit, MaxListLimit)
	filter := ListClaimsFilter{Limit: limit, Offset: offset}
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		status := Status(raw)
		filter.Status = &status
	}
	if raw := r.URL.Query().Get("employeeId"); raw != "" {
		id, ok := h.queryID(w, raw, "employeeId")
		if !ok {
			return
		}
		filter.EmployeeID = &id
	}

	claims, err := h.Service.ListClaims(r.Context(), filter, actor)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	resp := ClaimsResponse{Claims: make([]ClaimResponse, 0, len(claims)), Limit: limit, Offset: offset}
	for _, c := range claims {
		resp.Claims = append(resp.Claims, c.ToResponse())
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

// GetClaim handles GET /claims/{id}
func (h *Handler) GetClaim(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := h.PathID(w, r, "id")
	if !ok {
		return
	}

	c, err := h.Service.GetClaim(r.Context(), id, actor)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, c.ToResponse())
}

// UpdateClaim handles PUT /claims/{id}
func (h *Handler) UpdateClaim(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := h.PathID(w, r, "id")
	if !ok {
		return
	}

	var dto UpdateClaimDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	c, err := h.Service.UpdateClaim(r.Context(), id, dto, actor)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, c.ToResponse())
}

// SubmitClaim handles POST /claims/{id}/submit
func (h *Handler) SubmitClaim(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(ctx context.Context, id int64, actor Actor) (*Claim, error) {
		return h.Service.SubmitClaim(ctx, id, actor)
	}, "Claim submitted successfully")
}

// ApproveClaim handles POST /claims/{id}/approve
func (h *Handler) ApproveClaim(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, func(ctx context.Context, id int64, actor Actor) (*Claim, error) {
		return h.Service.ApproveClaim(ctx, id, actor)
	}, "Claim approved successfully")
}

// RejectClaim handles POST /claims/{id}/reject
func (h *Handler) RejectClaim(w http.ResponseWriter, r *http.Request) {
	var dto RejectClaimDTO
	h.transition(w, r, func(ctx context.Context, id int64, actor Actor) (*Claim, error) {
		if !h.DecodeJSON(w, r, &dto) {
			return nil, errBodyWritten
		}
		return h.Service.RejectClaim(ctx, id, dto, actor)
	}, "Claim rejected successfully")
}

var errBodyWritten = errors.New("response already written")

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, apply func(context.Context, int64, Actor) (*Claim, error), message string) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := h.PathID(w, r, "id")
	if !ok {
		return
	}

	c, err := apply(r.Context(), id, actor)
	if errors.Is(err, errBodyWritten) {
		return
	}
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, ActionResponse{Message: message, Claim: c.ToResponse()})
}

// ----------------- EXPENSES -----------------

// AddExpense handles POST /claims/{id}/expenses
func (h *Handler) AddExpense(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	claimID, ok := h.PathID(w, r, "id")
	if !ok {
		return
	}

	var dto ExpenseDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	e, err := h.Service.AddExpense(r.Context(), claimID, dto, actor)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, e.ToResponse())
}

// ListExpenses handles GET /claims/{id}/expenses
func (h *Handler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	claimID, ok := h.PathID(w, r, "id")
	if !ok {
		return
	}

	expenses, err := h.Service.ListExpenses(r.Context(), claimID, actor)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	resp := ExpensesResponse{Expenses: make([]ExpenseResponse, 0, len(expenses))}
	for _, e := range expenses {
		resp.Expenses = append(resp.Expenses, e.ToResponse())
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

// UpdateExpense handles PUT /claims/{id}/expenses/{expenseId}
func (h *Handler) UpdateExpense(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	claimID, ok := h.PathID(w, r, "id")
	if !ok {
		return
	}
	expenseID, ok := h.PathID(w, r, "expenseId")
	if !ok {
		return
	}

	var dto UpdateExpenseDTO
	if !h.DecodeJSON(w, r, &dto) {
		return
	}

	e, err := h.Service.UpdateExpense(r.Context(), claimID, expenseID, dto, actor)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, e.ToResponse())
}

// DeleteExpense handles DELETE /claims/{id}/expenses/{expenseId}
func (h *Handler) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	claimID, ok := h.PathID(w, r, "id")
	if !ok {
		return
	}
	expenseID, ok := h.PathID(w, r, "expenseId")
	if !ok {
		return
	}

	if err := h.Service.DeleteExpense(r.Context(), claimID, expenseID, actor); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Expense deleted successfully"})
}

// ----------------- ATTACHMENTS -----------------

// AddAttachment handles POST /claims/{id}/attachments (multipart, field "file").
func (h *Handler) AddAttachment(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	claimID, ok := h.PathID(w, r, "id")
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes+multipartOverhead)
	if err := r.ParseMultipartForm(h.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.WriteAppError(w, internal.NewValidationFieldError("file", "file exceeds the upload limit", internal.ErrCodeFileTooLarge))
			return
		}
		h.WriteAppError(w, internal.NewValidationError("invalid multipart form: "+err.Error(), internal.ErrCodeValidationFailed))
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		h.WriteAppError(w, internal.NewValidationFieldError("file", "file is required", internal.ErrCodeValidationFailed))
		return
	}
	defer file.Close()

	// one byte past the limit is enough for the service to reject it
	content, err := io.ReadAll(io.LimitReader(file, h.MaxUploadBytes+1))
	if err != nil {
		h.WriteAppError(w, internal.NewValidationError("failed to read uploaded file", internal.ErrCodeValidationFailed))
		return
	}

	upload := AttachmentUpload{OriginalFilename: header.Filename, Content: content}
	if desc := strings.TrimSpace(r.FormValue("description")); desc != "" {
		upload.Description = &desc
	}

	a, err := h.Service.AddAttachment(r.Context(), claimID, upload, actor)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusCreated, a.ToResponse())
}

// ListAttachments handles GET /claims/{id}/attachments
func (h *Handler) ListAttachments(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	claimID, ok := h.PathID(w, r, "id")
	if !ok {
		return
	}

	attachments, err := h.Service.ListAttachments(r.Context(), claimID, actor)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	resp := AttachmentsResponse{Attachments: make([]AttachmentResponse, 0, len(attachments))}
	for _, a := range attachments {
		resp.Attachments = append(resp.Attachments, a.ToResponse())
	}
	h.WriteJSON(w, http.StatusOK, resp)
}

// DeleteAttachment handles DELETE /claims/{id}/attachments/{attachmentId}
func (h *Handler) DeleteAttachment(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	claimID, ok := h.PathID(w, r, "id")
	if !ok {
		return
	}
	attachmentID, ok := h.PathID(w, r, "attachmentId")
	if !ok {
		return
	}

	if err := h.Service.DeleteAttachment(r.Context(), claimID, attachmentID, actor); err != nil {
		h.HandleServiceError(w, err)
		return
	}
	h.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Attachment deleted successfully"})
}

func (h *Handler) queryID(w http.ResponseWriter, raw, name string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		h.WriteAppError(w, internal.NewValidationFieldError(name, "invalid "+name, internal.ErrCodeValidationFailed))
		return 0, false
	}
	return id, true
}
