package claim

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Store level errors; the service translates them into AppErrors.
var (
	ErrClaimNotFound           = errors.New("claim not found")
	ErrExpenseNotFound         = errors.New("expense not found")
	ErrAttachmentNotFound      = errors.New("attachment not found")
	ErrDuplicateReference      = errors.New("duplicate claim reference")
	ErrDuplicateStoredFilename = errors.New("duplicate stored filename")
	ErrStatusConflict          = errors.New("claim status changed concurrently")
)

// StatusChange describes a guarded status write. The store applies it only if
// the row still carries the expected prior status.
type StatusChange struct {
	To              Status
	At              time.Time
	ApproverID      *int64
	RejectionReason *string
}

type ClaimStore interface {
	Create(ctx context.Context, c *Claim) error
	GetByID(ctx context.Context, id int64) (*Claim, error)
	List(ctx context.Context, filter ListClaimsFilter) ([]*Claim, error)
	ReferenceExists(ctx context.Context, referenceID string) (bool, error)
	CountByReferencePrefix(ctx context.Context, prefix string) (int64, error)
	UpdateDetails(ctx context.Context, c *Claim) error
	UpdateTotal(ctx context.Context, id int64, total decimal.Decimal) error
	Transition(ctx context.Context, id int64, from Status, change StatusChange) error
}

type ExpenseStore interface {
	Create(ctx context.Context, e *Expense) error
	GetByID(ctx context.Context, claimID, id int64) (*Expense, error)
	Update(ctx context.Context, e *Expense) error
	Delete(ctx context.Context, claimID, id int64) error
	ListByClaimID(ctx context.Context, claimID int64) ([]*Expense, error)
}

type AttachmentStore interface {
	Create(ctx context.Context, a *Attachment) error
	GetByID(ctx context.Context, claimID, id int64) (*Attachment, error)
	Delete(ctx context.Context, claimID, id int64) error
	ListByClaimID(ctx context.Context, claimID int64) ([]*Attachment, error)
}

// Repository groups the aggregate's stores. Inside WithinTransaction, fn
// receives a Repository bound to the transaction.
type Repository interface {
	Claims() ClaimStore
	Expenses() ExpenseStore
	Attachments() AttachmentStore
	WithinTransaction(ctx context.Context, fn func(tx Repository) error) error
}

// LookupAPI answers existence questions about reference data owned elsewhere.
type LookupAPI interface {
	EmployeeExists(ctx context.Context, id int64) (bool, error)
	EventTypeExists(ctx context.Context, id int64) (bool, error)
	CurrencyExists(ctx context.Context, id int64) (bool, error)
	ExpenseTypeExists(ctx context.Context, id int64) (bool, error)
}

// FileStorage keeps attachment binaries.
type FileStorage interface {
	Save(ctx context.Context, name string, content []byte) (path string, err error)
	Remove(ctx context.Context, path string) error
}

// Apply copies the change onto c, stamping the date column that belongs to
// the target status.
func (ch StatusChange) Apply(c *Claim) {
	at := ch.At
	c.Status = ch.To
	c.UpdatedAt = at
	switch ch.To {
	case StatusSubmitted:
		c.SubmittedDate = &at
	case StatusApproved:
		c.ApprovedDate = &at
		c.ApproverID = ch.ApproverID
	case StatusRejected:
		c.RejectedDate = &at
		c.ApproverID = ch.ApproverID
		c.RejectionReason = ch.RejectionReason
	}
}
