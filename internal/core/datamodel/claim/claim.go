package claim

import (
	"time"

	"github.com/shopspring/decimal"
)

type Claim struct {
	ID              int64           `gorm:"primaryKey"`
	ReferenceID     string          `gorm:"column:reference_id;size:15;uniqueIndex;not null"`
	EmployeeID      int64           `gorm:"column:employee_id;not null;index"`
	EventTypeID     int64           `gorm:"column:event_type_id;not null"`
	CurrencyID      int64           `gorm:"column:currency_id;not null"`
	Status          string          `gorm:"column:status;size:32;not null;index"`
	Remarks         *string         `gorm:"column:remarks"`
	TotalAmount     decimal.Decimal `gorm:"column:total_amount;type:decimal(10,2);not null;default:0"`
	SubmittedDate   *time.Time      `gorm:"column:submitted_date"`
	ApprovedDate    *time.Time      `gorm:"column:approved_date"`
	RejectedDate    *time.Time      `gorm:"column:rejected_date"`
	RejectionReason *string         `gorm:"column:rejection_reason;size:1000"`
	ApproverID      *int64          `gorm:"column:approver_id"`
	CreatedBy       int64           `gorm:"column:created_by"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (Claim) TableName() string {
	return "claims"
}

type Expense struct {
	ID            int64           `gorm:"primaryKey"`
	ClaimID       int64           `gorm:"column:claim_id;not null;index"`
	ExpenseTypeID int64           `gorm:"column:expense_type_id;not null"`
	ExpenseDate   time.Time       `gorm:"column:expense_date;type:date;not null"`
	Amount        decimal.Decimal `gorm:"column:amount;type:decimal(10,2);not null"`
	Note          *string         `gorm:"column:note"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (Expense) TableName() string {
	return "expenses"
}

type Attachment struct {
	ID               int64     `gorm:"primaryKey"`
	ClaimID          int64     `gorm:"column:claim_id;not null;index"`
	OriginalFilename string    `gorm:"column:original_filename;not null"`
	StoredFilename   string    `gorm:"column:stored_filename;uniqueIndex;not null"`
	FileSize         int64     `gorm:"column:file_size;not null"`
	FileType         string    `gorm:"column:file_type;not null"`
	Description      *string   `gorm:"column:description"`
	FilePath         string    `gorm:"column:file_path;not null"`
	UploadedBy       int64     `gorm:"column:uploaded_by"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Attachment) TableName() string {
	return "attachments"
}
