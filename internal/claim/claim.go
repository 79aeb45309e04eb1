package claim

import (
	"time"

	claimDatamodel "github.com/frahmantamala/claim-management/internal/core/datamodel/claim"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusInitiated Status = "Initiated"
	StatusSubmitted Status = "Submitted"
	StatusApproved  Status = "Approved"
	StatusRejected  Status = "Rejected"

	// Declared by the schema, never produced by a guarded transition.
	StatusPendingApproval   Status = "Pending Approval"
	StatusPaid              Status = "Paid"
	StatusCancelled         Status = "Cancelled"
	StatusOnHold            Status = "On Hold"
	StatusPartiallyApproved Status = "Partially Approved"
)

// ReachableStatuses are the statuses the lifecycle can actually produce.
func ReachableStatuses() []Status {
	return []Status{StatusInitiated, StatusSubmitted, StatusApproved, StatusRejected}
}

// ReservedStatuses are valid values with no transition leading to them.
func ReservedStatuses() []Status {
	return []Status{StatusPendingApproval, StatusPaid, StatusCancelled, StatusOnHold, StatusPartiallyApproved}
}

func (s Status) IsValid() bool {
	for _, known := range append(ReachableStatuses(), ReservedStatuses()...) {
		if s == known {
			return true
		}
	}
	return false
}

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleEmployee Role = "employee"
)

// Actor is the authenticated caller. EmployeeID is resolved by the directory
// collaborator; the claim core never derives it.
type Actor struct {
	UserID     int64
	Role       Role
	EmployeeID *int64
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

type Claim struct {
	ID              int64
	ReferenceID     string
	EmployeeID      int64
	EventTypeID     int64
	CurrencyID      int64
	Status          Status
	Remarks         *string
	TotalAmount     decimal.Decimal
	SubmittedDate   *time.Time
	ApprovedDate    *time.Time
	RejectedDate    *time.Time
	RejectionReason *string
	ApproverID      *int64
	CreatedBy       int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Expenses        []*Expense
	Attachments     []*Attachment
}

type Expense struct {
	ID            int64
	ClaimID       int64
	ExpenseTypeID int64
	ExpenseDate   time.Time
	Amount        decimal.Decimal
	Note          *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Attachment struct {
	ID               int64
	ClaimID          int64
	OriginalFilename string
	StoredFilename   string
	FileSize         int64
	FileType         string
	Description      *string
	FilePath         string
	UploadedBy       int64
	CreatedAt        time.Time
}

func NewClaim(dto CreateClaimDTO, actor Actor, referenceID string, now time.Time) *Claim {
	return &Claim{
		ReferenceID: referenceID,
		EmployeeID:  dto.EmployeeID,
		EventTypeID: dto.EventTypeID,
		CurrencyID:  dto.CurrencyID,
		Status:      StatusInitiated,
		Remarks:     dto.Remarks,
		TotalAmount: decimal.Zero,
		CreatedBy:   actor.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func NewExpense(claimID int64, dto ExpenseDTO) *Expense {
	return &Expense{
		ClaimID:       claimID,
		ExpenseTypeID: dto.ExpenseTypeID,
		ExpenseDate:   dto.ExpenseDate.Time,
		Amount:        dto.Amount,
		Note:          dto.Note,
	}
}

// ----------------- MAPPING -----------------

func ToDataModel(c *Claim) *claimDatamodel.Claim {
	return &claimDatamodel.Claim{
		ID:              c.ID,
		ReferenceID:     c.ReferenceID,
		EmployeeID:      c.EmployeeID,
		EventTypeID:     c.EventTypeID,
		CurrencyID:      c.CurrencyID,
		Status:          string(c.Status),
		Remarks:         c.Remarks,
		TotalAmount:     c.TotalAmount,
		SubmittedDate:   c.SubmittedDate,
		ApprovedDate:    c.ApprovedDate,
		RejectedDate:    c.RejectedDate,
		RejectionReason: c.RejectionReason,
		ApproverID:      c.ApproverID,
		CreatedBy:       c.CreatedBy,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

func FromDataModel(c *claimDatamodel.Claim) *Claim {
	return &Claim{
		ID:              c.ID,
		ReferenceID:     c.ReferenceID,
		EmployeeID:      c.EmployeeID,
		EventTypeID:     c.EventTypeID,
		CurrencyID:      c.CurrencyID,
		Status:          Status(c.Status),
		Remarks:         c.Remarks,
		TotalAmount:     c.TotalAmount,
		SubmittedDate:   c.SubmittedDate,
		ApprovedDate:    c.ApprovedDate,
		RejectedDate:    c.RejectedDate,
		RejectionReason: c.RejectionReason,
		ApproverID:      c.ApproverID,
		CreatedBy:       c.CreatedBy,
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
}

func ExpenseToDataModel(e *Expense) *claimDatamodel.Expense {
	return &claimDatamodel.Expense{
		ID:            e.ID,
		ClaimID:       e.ClaimID,
		ExpenseTypeID: e.ExpenseTypeID,
		ExpenseDate:   e.ExpenseDate,
		Amount:        e.Amount,
		Note:          e.Note,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}

func ExpenseFromDataModel(e *claimDatamodel.Expense) *Expense {
	return &Expense{
		ID:            e.ID,
		ClaimID:       e.ClaimID,
		ExpenseTypeID: e.ExpenseTypeID,
		ExpenseDate:   e.ExpenseDate,
		Amount:        e.Amount,
		Note:          e.Note,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}

func AttachmentToDataModel(a *Attachment) *claimDatamodel.Attachment {
	return &claimDatamodel.Attachment{
		ID:               a.ID,
		ClaimID:          a.ClaimID,
		OriginalFilename: a.OriginalFilename,
		StoredFilename:   a.StoredFilename,
		FileSize:         a.FileSize,
		FileType:         a.FileType,
		Description:      a.Description,
		FilePath:         a.FilePath,
		UploadedBy:       a.UploadedBy,
		CreatedAt:        a.CreatedAt,
	}
}

func AttachmentFromDataModel(a *claimDatamodel.Attachment) *Attachment {
	return &Attachment{
		ID:               a.ID,
		ClaimID:          a.ClaimID,
		OriginalFilename: a.OriginalFilename,
		StoredFilename:   a.StoredFilename,
		FileSize:         a.FileSize,
		FileType:         a.FileType,
		Description:      a.Description,
		FilePath:         a.FilePath,
		UploadedBy:       a.UploadedBy,
		CreatedAt:        a.CreatedAt,
	}
}
