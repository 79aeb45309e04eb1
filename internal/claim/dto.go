package claim

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CreateClaimDTO represents the request payload for opening a claim
type CreateClaimDTO struct {
	EmployeeID  int64   `json:"employeeId" validate:"required,gt=0"`
	EventTypeID int64   `json:"eventTypeId" validate:"required,gt=0"`
	CurrencyID  int64   `json:"currencyId" validate:"required,gt=0"`
	Remarks     *string `json:"remarks,omitempty" validate:"omitempty,max=1000"`
}

// UpdateClaimDTO is a partial update; nil fields are left untouched.
type UpdateClaimDTO struct {
	EventTypeID *int64  `json:"eventTypeId,omitempty" validate:"omitempty,gt=0"`
	CurrencyID  *int64  `json:"currencyId,omitempty" validate:"omitempty,gt=0"`
	Remarks     *string `json:"remarks,omitempty" validate:"omitempty,max=1000"`
}

type RejectClaimDTO struct {
	RejectionReason string `json:"rejectionReason"`
}

type ExpenseDTO struct {
	ExpenseTypeID int64           `json:"expenseTypeId" validate:"required,gt=0"`
	ExpenseDate   Date            `json:"expenseDate"`
	Amount        decimal.Decimal `json:"amount"`
	Note          *string         `json:"note,omitempty" validate:"omitempty,max=500"`
}

type UpdateExpenseDTO struct {
	ExpenseTypeID *int64           `json:"expenseTypeId,omitempty" validate:"omitempty,gt=0"`
	ExpenseDate   *Date            `json:"expenseDate,omitempty"`
	Amount        *decimal.Decimal `json:"amount,omitempty"`
	Note          *string          `json:"note,omitempty" validate:"omitempty,max=500"`
}

// AttachmentUpload carries an uploaded file; the binary goes to FileStorage.
type AttachmentUpload struct {
	OriginalFilename string
	Content          []byte
	Description      *string
}

type ListClaimsFilter struct {
	Status     *Status
	EmployeeID *int64
	Limit      int
	Offset     int
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ClaimsResponse struct {
	Claims []ClaimResponse `json:"claims"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

// ClaimResponse is the outward view; money is rendered with two decimals.
type ClaimResponse struct {
	ID              int64                `json:"id"`
	ReferenceID     string               `json:"referenceId"`
	EmployeeID      int64                `json:"employeeId"`
	EventTypeID     int64                `json:"eventTypeId"`
	CurrencyID      int64                `json:"currencyId"`
	Status          Status               `json:"status"`
	Remarks         *string              `json:"remarks,omitempty"`
	TotalAmount     string               `json:"totalAmount"`
	SubmittedDate   *time.Time           `json:"submittedDate,omitempty"`
	ApprovedDate    *time.Time           `json:"approvedDate,omitempty"`
	RejectedDate    *time.Time           `json:"rejectedDate,omitempty"`
	RejectionReason *string              `json:"rejectionReason,omitempty"`
	ApproverID      *int64               `json:"approverId,omitempty"`
	CreatedAt       time.Time            `json:"createdAt"`
	Expenses        []ExpenseResponse    `json:"expenses,omitempty"`
	Attachments     []AttachmentResponse `json:"attachments,omitempty"`
}

type ExpenseResponse struct {
	ID            int64   `json:"id"`
	ClaimID       int64   `json:"claimId"`
	ExpenseTypeID int64   `json:"expenseTypeId"`
	ExpenseDate   string  `json:"expenseDate"`
	Amount        string  `json:"amount"`
	Note          *string `json:"note,omitempty"`
}

type AttachmentResponse struct {
	ID               int64     `json:"id"`
	ClaimID          int64     `json:"claimId"`
	OriginalFilename string    `json:"originalFilename"`
	StoredFilename   string    `json:"storedFilename"`
	FileSize         int64     `json:"fileSize"`
	FileType         string    `json:"fileType"`
	Description      *string   `json:"description,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
}

func (c *Claim) ToResponse() ClaimResponse {
	resp := ClaimResponse{
		ID:              c.ID,
		ReferenceID:     c.ReferenceID,
		EmployeeID:      c.EmployeeID,
		EventTypeID:     c.EventTypeID,
		CurrencyID:      c.CurrencyID,
		Status:          c.Status,
		Remarks:         c.Remarks,
		TotalAmount:     c.TotalAmount.StringFixed(2),
		SubmittedDate:   c.SubmittedDate,
		ApprovedDate:    c.ApprovedDate,
		RejectedDate:    c.RejectedDate,
		RejectionReason: c.RejectionReason,
		ApproverID:      c.ApproverID,
		CreatedAt:       c.CreatedAt,
	}
	for _, e := range c.Expenses {
		resp.Expenses = append(resp.Expenses, e.ToResponse())
	}
	for _, a := range c.Attachments {
		resp.Attachments = append(resp.Attachments, a.ToResponse())
	}
	return resp
}

func (e *Expense) ToResponse() ExpenseResponse {
	return ExpenseResponse{
		ID:            e.ID,
		ClaimID:       e.ClaimID,
		ExpenseTypeID: e.ExpenseTypeID,
		ExpenseDate:   e.ExpenseDate.Format(DateLayout),
		Amount:        e.Amount.StringFixed(2),
		Note:          e.Note,
	}
}

func (a *Attachment) ToResponse() AttachmentResponse {
	return AttachmentResponse{
		ID:               a.ID,
		ClaimID:          a.ClaimID,
		OriginalFilename: a.OriginalFilename,
		StoredFilename:   a.StoredFilename,
		FileSize:         a.FileSize,
		FileType:         a.FileType,
		Description:      a.Description,
		CreatedAt:        a.CreatedAt,
	}
}

const DateLayout = "2006-01-02"

// Date accepts either a calendar date ("2025-01-23") or an RFC 3339 timestamp.
type Date struct {
	time.Time
}

func NewDate(t time.Time) Date {
	return Date{Time: t}
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return errors.New("date must be a string")
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		d.Time = time.Time{}
		return nil
	}
	if t, err := time.Parse(DateLayout, raw); err == nil {
		d.Time = t
		return nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return errors.New("date must be formatted as YYYY-MM-DD")
	}
	d.Time = t
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Format(DateLayout))
}
