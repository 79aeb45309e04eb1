package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/frahmantamala/claim-management/internal/claim"
	claimDatamodel "github.com/frahmantamala/claim-management/internal/core/datamodel/claim"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store implements claim.Repository on top of GORM. The *gorm.DB should be
// opened with TranslateError so unique violations surface as gorm.ErrDuplicatedKey.
type Store struct {
	db   *gorm.DB
	inTx bool
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Claims() claim.ClaimStore           { return &ClaimRepository{db: s.db, lock: s.inTx} }
func (s *Store) Expenses() claim.ExpenseStore       { return &ExpenseRepository{db: s.db} }
func (s *Store) Attachments() claim.AttachmentStore { return &AttachmentRepository{db: s.db} }

// WithinTransaction runs fn against a Store bound to one database transaction.
// Claim rows read inside it are locked until commit.
func (s *Store) WithinTransaction(ctx context.Context, fn func(tx claim.Repository) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx, inTx: true})
	})
}

// ----------------- CLAIMS -----------------

type ClaimRepository struct {
	db   *gorm.DB
	lock bool
}

func (r *ClaimRepository) Create(ctx context.Context, c *claim.Claim) error {
	model := claim.ToDataModel(c)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return claim.ErrDuplicateReference
		}
		return err
	}
	c.ID = model.ID
	return nil
}

func (r *ClaimRepository) GetByID(ctx context.Context, id int64) (*claim.Claim, error) {
	var model claimDatamodel.Claim
	query := r.db.WithContext(ctx)
	if r.lock {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	err := query.Where("id = ?", id).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, claim.ErrClaimNotFound
		}
		return nil, err
	}
	return claim.FromDataModel(&model), nil
}

func (r *ClaimRepository) List(ctx context.Context, filter claim.ListClaimsFilter) ([]*claim.Claim, error) {
	query := r.db.WithContext(ctx).Model(&claimDatamodel.Claim{})
	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}
	if filter.EmployeeID != nil {
		query = query.Where("employee_id = ?", *filter.EmployeeID)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		query = query.Offset(filter.Offset)
	}

	var models []*claimDatamodel.Claim
	if err := query.Order("created_at DESC").Order("id DESC").Find(&models).Error; err != nil {
		return nil, err
	}

	claims := make([]*claim.Claim, 0, len(models))
	for _, m := range models {
		claims = append(claims, claim.FromDataModel(m))
	}
	return claims, nil
}

func (r *ClaimRepository) ReferenceExists(ctx context.Context, referenceID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&claimDatamodel.Claim{}).
		Where("reference_id = ?", referenceID).
		Count(&count).Error
	return count > 0, err
}

func (r *ClaimRepository) CountByReferencePrefix(ctx context.Context, prefix string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&claimDatamodel.Claim{}).
		Where("reference_id LIKE ?", prefix+"%").
		Count(&count).Error
	return count, err
}

// UpdateDetails writes the editable header fields, only while the row is Initiated.
func (r *ClaimRepository) UpdateDetails(ctx context.Context, c *claim.Claim) error {
	result := r.db.WithContext(ctx).Model(&claimDatamodel.Claim{}).
		Where("id = ? AND status = ?", c.ID, string(claim.StatusInitiated)).
		Updates(map[string]interface{}{
			"event_type_id": c.EventTypeID,
			"currency_id":   c.CurrencyID,
			"remarks":       c.Remarks,
			"updated_at":    c.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return r.missingOrConflict(ctx, c.ID)
	}
	return nil
}

func (r *ClaimRepository) UpdateTotal(ctx context.Context, id int64, total decimal.Decimal) error {
	result := r.db.WithContext(ctx).Model(&claimDatamodel.Claim{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"total_amount": total,
			"updated_at":   time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return claim.ErrClaimNotFound
	}
	return nil
}

// Transition applies change only if the row still has status from.
func (r *ClaimRepository) Transition(ctx context.Context, id int64, from claim.Status, change claim.StatusChange) error {
	updates := map[string]interface{}{
		"status":     string(change.To),
		"updated_at": change.At,
	}
	switch change.To {
	case claim.StatusSubmitted:
		updates["submitted_date"] = change.At
	case claim.StatusApproved:
		updates["approved_date"] = change.At
		updates["approver_id"] = change.ApproverID
	case claim.StatusRejected:
		updates["rejected_date"] = change.At
		updates["approver_id"] = change.ApproverID
		updates["rejection_reason"] = change.RejectionReason
	}

	result := r.db.WithContext(ctx).Model(&claimDatamodel.Claim{}).
		Where("id = ? AND status = ?", id, string(from)).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return r.missingOrConflict(ctx, id)
	}
	return nil
}

func (r *ClaimRepository) missingOrConflict(ctx context.Context, id int64) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&claimDatamodel.Claim{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return claim.ErrClaimNotFound
	}
	return claim.ErrStatusConflict
}

// ----------------- EXPENSES -----------------

type ExpenseRepository struct {
	db *gorm.DB
}

func (r *ExpenseRepository) Create(ctx context.Context, e *claim.Expense) error {
	model := claim.ExpenseToDataModel(e)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	e.ID = model.ID
	return nil
}

func (r *ExpenseRepository) GetByID(ctx context.Context, claimID, id int64) (*claim.Expense, error) {
	var model claimDatamodel.Expense
	err := r.db.WithContext(ctx).Where("id = ? AND claim_id = ?", id, claimID).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, claim.ErrExpenseNotFound
		}
		return nil, err
	}
	return claim.ExpenseFromDataModel(&model), nil
}

func (r *ExpenseRepository) Update(ctx context.Context, e *claim.Expense) error {
	result := r.db.WithContext(ctx).Model(&claimDatamodel.Expense{}).
		Where("id = ? AND claim_id = ?", e.ID, e.ClaimID).
		Updates(map[string]interface{}{
			"expense_type_id": e.ExpenseTypeID,
			"expense_date":    e.ExpenseDate,
			"amount":          e.Amount,
			"note":            e.Note,
			"updated_at":      e.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return claim.ErrExpenseNotFound
	}
	return nil
}

func (r *ExpenseRepository) Delete(ctx context.Context, claimID, id int64) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND claim_id = ?", id, claimID).
		Delete(&claimDatamodel.Expense{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return claim.ErrExpenseNotFound
	}
	return nil
}

func (r *ExpenseRepository) ListByClaimID(ctx context.Context, claimID int64) ([]*claim.Expense, error) {
	var models []*claimDatamodel.Expense
	err := r.db.WithContext(ctx).
		Where("claim_id = ?", claimID).
		Order("expense_date ASC").
		Order("id ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	expenses := make([]*claim.Expense, 0, len(models))
	for _, m := range models {
		expenses = append(expenses, claim.ExpenseFromDataModel(m))
	}
	return expenses, nil
}

// ----------------- ATTACHMENTS -----------------

type AttachmentRepository struct {
	db *gorm.DB
}

func (r *AttachmentRepository) Create(ctx context.Context, a *claim.Attachment) error {
	model := claim.AttachmentToDataModel(a)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return claim.ErrDuplicateStoredFilename
		}
		return err
	}
	a.ID = model.ID
	return nil
}

func (r *AttachmentRepository) GetByID(ctx context.Context, claimID, id int64) (*claim.Attachment, error) {
	var model claimDatamodel.Attachment
	err := r.db.WithContext(ctx).Where("id = ? AND claim_id = ?", id, claimID).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, claim.ErrAttachmentNotFound
		}
		return nil, err
	}
	return claim.AttachmentFromDataModel(&model), nil
}

func (r *AttachmentRepository) Delete(ctx context.Context, claimID, id int64) error {
	result := r.db.WithContext(ctx).
		Where("id = ? AND claim_id = ?", id, claimID).
		Delete(&claimDatamodel.Attachment{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return claim.ErrAttachmentNotFound
	}
	return nil
}

func (r *AttachmentRepository) ListByClaimID(ctx context.Context, claimID int64) ([]*claim.Attachment, error) {
	var models []*claimDatamodel.Attachment
	err := r.db.WithContext(ctx).
		Where("claim_id = ?", claimID).
		Order("id ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	attachments := make([]*claim.Attachment, 0, len(models))
	for _, m := range models {
		attachments = append(attachments, claim.AttachmentFromDataModel(m))
	}
	return attachments, nil
}
