package claim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/frahmantamala/claim-management/internal"
	"github.com/frahmantamala/claim-management/internal/core/common/validation"
	"github.com/frahmantamala/claim-management/internal/core/events"
)

const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

type Options struct {
	ReferenceMaxAttempts int
	AttachmentMaxBytes   int64
	// Clock defaults to time.Now.
	Clock func() time.Time
}

// Service orchestrates the claim lifecycle and the expense and attachment
// paths hanging off it.
type Service struct {
	repo       Repository
	lookups    LookupAPI
	files      FileStorage
	references *ReferenceGenerator
	publisher  events.Publisher
	logger     *slog.Logger

	now                func() time.Time
	attachmentMaxBytes int64
}

func NewService(repo Repository, lookups LookupAPI, files FileStorage, publisher events.Publisher, logger *slog.Logger, opts Options) *Service {
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	maxBytes := opts.AttachmentMaxBytes
	if maxBytes <= 0 {
		maxBytes = internal.DefaultAttachmentMaxBytes
	}
	return &Service{
		repo:               repo,
		lookups:            lookups,
		files:              files,
		references:         NewReferenceGenerator(repo.Claims(), opts.ReferenceMaxAttempts),
		publisher:          publisher,
		logger:             logger,
		now:                clock,
		attachmentMaxBytes: maxBytes,
	}
}

// CreateClaim opens a claim in Initiated with a zero total and a fresh reference.
func (s *Service) CreateClaim(ctx context.Context, dto CreateClaimDTO, actor Actor) (*Claim, error) {
	if err := validation.ValidateStruct(dto); err != nil {
		return nil, err
	}
	if err := s.ensureClaimReferences(ctx, &dto.EmployeeID, &dto.EventTypeID, &dto.CurrencyID); err != nil {
		return nil, err
	}
	if decision := CanTransition("", ActionCreate); !decision.Allowed {
		return nil, decision.Err("", ActionCreate)
	}

	now := s.now()
	claims := s.repo.Claims()

	// Candidate probes and duplicate inserts draw on one budget.
	remaining := s.references.MaxAttempts()
	for attempt := 1; remaining > 0; attempt++ {
		referenceID, used, err := s.references.GenerateWithin(ctx, now, claims.ReferenceExists, remaining)
		remaining -= used
		if err != nil {
			if errors.Is(err, ErrReferenceIDExhausted) {
				s.logger.Error("claim reference space exhausted", "error", err, "employee_id", dto.EmployeeID)
				return nil, internal.NewReferenceIDExhaustedError(err)
			}
			s.logger.Error("failed to generate claim reference", "error", err)
			return nil, internal.NewInternalError("failed to generate claim reference", err)
		}

		c := NewClaim(dto, actor, referenceID, now)
		err = claims.Create(ctx, c)
		if errors.Is(err, ErrDuplicateReference) {
			s.logger.Warn("claim reference taken between check and insert, retrying",
				"reference_id", referenceID,
				"attempt", attempt)
			continue
		}
		if err != nil {
			s.logger.Error("failed to create claim", "error", err, "employee_id", dto.EmployeeID)
			return nil, internal.NewInternalError("failed to create claim", err)
		}

		s.logger.Info("claim created",
			"claim_id", c.ID,
			"reference_id", c.ReferenceID,
			"employee_id", c.EmployeeID,
			"actor_id", actor.UserID)
		s.publish(ctx, events.EventTypeClaimCreated, c, actor)
		return c, nil
	}

	return nil, internal.NewReferenceIDExhaustedError(
		fmt.Errorf("%w: every insert attempt collided", ErrReferenceIDExhausted))
}

// UpdateClaim replaces event type, currency and remarks while the claim is Initiated.
func (s *Service) UpdateClaim(ctx context.Context, id int64, dto UpdateClaimDTO, actor Actor) (*Claim, error) {
	if err := validation.ValidateStruct(dto); err != nil {
		return nil, err
	}

	c, err := s.loadAccessible(ctx, s.repo, id, actor)
	if err != nil {
		return nil, err
	}
	if decision := CanTransition(c.Status, ActionUpdate); !decision.Allowed {
		s.logger.Warn("claim update rejected", "claim_id", id, "status", c.Status)
		return nil, decision.Err(c.Status, ActionUpdate)
	}

	if err := s.ensureClaimReferences(ctx, nil, dto.EventTypeID, dto.CurrencyID); err != nil {
		return nil, err
	}
	if dto.EventTypeID != nil {
		c.EventTypeID = *dto.EventTypeID
	}
	if dto.CurrencyID != nil {
		c.CurrencyID = *dto.CurrencyID
	}
	if dto.Remarks != nil {
		c.Remarks = dto.Remarks
	}
	c.UpdatedAt = s.now()

	if err := s.repo.Claims().UpdateDetails(ctx, c); err != nil {
		return nil, s.storeError(err, "failed to update claim", ActionUpdate)
	}

	s.logger.Info("claim updated", "claim_id", id, "actor_id", actor.UserID)
	return c, nil
}

// SubmitClaim recomputes the total and moves Initiated -> Submitted in one transaction.
func (s *Service) SubmitClaim(ctx context.Context, id int64, actor Actor) (*Claim, error) {
	var submitted *Claim

	err := s.repo.WithinTransaction(ctx, func(tx Repository) error {
		c, err := s.loadAccessible(ctx, tx, id, actor)
		if err != nil {
			return err
		}

		decision := CanTransition(c.Status, ActionSubmit)
		if !decision.Allowed {
			return decision.Err(c.Status, ActionSubmit)
		}

		expenses, err := tx.Expenses().ListByClaimID(ctx, id)
		if err != nil {
			return internal.NewInternalError("failed to load expenses", err)
		}
		if len(expenses) == 0 {
			return internal.NewValidationError("claim must have at least one expense", internal.ErrCodeNoExpenses)
		}

		total, err := NewExpenseLedger(tx.Claims(), tx.Expenses()).Recompute(ctx, id)
		if err != nil {
			return internal.NewInternalError("failed to recompute claim total", err)
		}
		if !total.IsPositive() {
			return internal.NewValidationError("total must be greater than zero", internal.ErrCodeZeroTotal)
		}

		now := s.now()
		if err := tx.Claims().Transition(ctx, id, c.Status, StatusChange{To: decision.Next, At: now}); err != nil {
			return s.storeError(err, "failed to submit claim", ActionSubmit)
		}

		StatusChange{To: decision.Next, At: now}.Apply(c)
		c.TotalAmount = total
		c.Expenses = expenses
		submitted = c
		return nil
	})
	if err != nil {
		s.logger.Warn("claim submission failed", "claim_id", id, "actor_id", actor.UserID, "error", err)
		return nil, err
	}

	s.logger.Info("claim submitted",
		"claim_id", id,
		"reference_id", submitted.ReferenceID,
		"total_amount", submitted.TotalAmount.StringFixed(2))
	s.publish(ctx, events.EventTypeClaimSubmitted, submitted, actor)
	return submitted, nil
}

// ApproveClaim moves Submitted -> Approved. Admin only.
func (s *Service) ApproveClaim(ctx context.Context, id int64, actor Actor) (*Claim, error) {
	if !actor.IsAdmin() {
		s.logger.Warn("approve claim denied: admin role required", "claim_id", id, "actor_id", actor.UserID, "role", actor.Role)
		return nil, internal.NewForbiddenError("only admins can approve claims", internal.ErrCodeAdminRequired)
	}
	return s.decide(ctx, id, actor, ActionApprove, nil)
}

// RejectClaim moves Submitted -> Rejected with a mandatory reason. Admin only.
func (s *Service) RejectClaim(ctx context.Context, id int64, dto RejectClaimDTO, actor Actor) (*Claim, error) {
	if !actor.IsAdmin() {
		s.logger.Warn("reject claim denied: admin role required", "claim_id", id, "actor_id", actor.UserID, "role", actor.Role)
		return nil, internal.NewForbiddenError("only admins can reject claims", internal.ErrCodeAdminRequired)
	}
	if err := validation.ValidateRejectionReason(dto.RejectionReason); err != nil {
		return nil, err
	}
	reason := strings.TrimSpace(dto.RejectionReason)
	return s.decide(ctx, id, actor, ActionReject, &reason)
}

func (s *Service) decide(ctx context.Context, id int64, actor Actor, action Action, reason *string) (*Claim, error) {
	c, err := s.getClaim(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}

	decision := CanTransition(c.Status, action)
	if !decision.Allowed {
		s.logger.Warn("claim decision rejected by guard", "claim_id", id, "status", c.Status, "action", action)
		return nil, decision.Err(c.Status, action)
	}

	now := s.now()
	approverID := actor.UserID
	change := StatusChange{To: decision.Next, At: now, ApproverID: &approverID, RejectionReason: reason}
	if err := s.repo.Claims().Transition(ctx, id, c.Status, change); err != nil {
		return nil, s.storeError(err, fmt.Sprintf("failed to %s claim", action), action)
	}

	change.Apply(c)
	eventType := events.EventTypeClaimApproved
	if action == ActionReject {
		eventType = events.EventTypeClaimRejected
	}

	s.logger.Info("claim decided",
		"claim_id", id,
		"reference_id", c.ReferenceID,
		"status", c.Status,
		"approver_id", approverID)
	s.publish(ctx, eventType, c, actor)
	return c, nil
}

// GetClaim returns the claim with its expenses and attachments.
func (s *Service) GetClaim(ctx context.Context, id int64, actor Actor) (*Claim, error) {
	c, err := s.loadAccessible(ctx, s.repo, id, actor)
	if err != nil {
		return nil, err
	}

	if c.Expenses, err = s.repo.Expenses().ListByClaimID(ctx, id); err != nil {
		return nil, internal.NewInternalError("failed to load expenses", err)
	}
	if c.Attachments, err = s.repo.Attachments().ListByClaimID(ctx, id); err != nil {
		return nil, internal.NewInternalError("failed to load attachments", err)
	}
	return c, nil
}

// ListClaims returns every claim to admins and only their own to employees.
func (s *Service) ListClaims(ctx context.Context, filter ListClaimsFilter, actor Actor) ([]*Claim, error) {
	switch actor.Role {
	case RoleAdmin:
	case RoleEmployee:
		if actor.EmployeeID == nil {
			return []*Claim{}, nil
		}
		filter.EmployeeID = actor.EmployeeID
	default:
		return nil, internal.NewForbiddenError("unauthorized access to claims", internal.ErrCodeUnauthorizedAccess)
	}

	if filter.Status != nil && !filter.Status.IsValid() {
		return nil, internal.NewValidationFieldError("status", fmt.Sprintf("unknown status %q", *filter.Status), internal.ErrCodeValidationFailed)
	}
	if filter.Limit <= 0 || filter.Limit > MaxListLimit {
		filter.Limit = DefaultListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	claims, err := s.repo.Claims().List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list claims", "error", err)
		return nil, internal.NewInternalError("failed to list claims", err)
	}
	return claims, nil
}

// ----------------- HELPERS -----------------

func (s *Service) getClaim(ctx context.Context, repo Repository, id int64) (*Claim, error) {
	c, err := repo.Claims().GetByID(ctx, id)
	if errors.Is(err, ErrClaimNotFound) {
		return nil, internal.NewNotFoundError("Claim not found", internal.ErrCodeClaimNotFound)
	}
	if err != nil {
		s.logger.Error("failed to load claim", "error", err, "claim_id", id)
		return nil, internal.NewInternalError("failed to load claim", err)
	}
	return c, nil
}

func (s *Service) loadAccessible(ctx context.Context, repo Repository, id int64, actor Actor) (*Claim, error) {
	c, err := s.getClaim(ctx, repo, id)
	if err != nil {
		return nil, err
	}
	if !CanAccessClaim(c, actor) {
		s.logger.Warn("unauthorized access to claim", "claim_id", id, "actor_id", actor.UserID, "claim_employee_id", c.EmployeeID)
		return nil, internal.NewForbiddenError("unauthorized access to claim", internal.ErrCodeUnauthorizedAccess)
	}
	return c, nil
}

// ensureClaimReferences checks the referenced lookup rows; nil ids are skipped.
func (s *Service) ensureClaimReferences(ctx context.Context, employeeID, eventTypeID, currencyID *int64) error {
	checks := []struct {
		id     *int64
		exists func(context.Context, int64) (bool, error)
		what   string
		code   internal.ErrorCode
	}{
		{employeeID, s.lookups.EmployeeExists, "Employee", internal.ErrCodeEmployeeNotFound},
		{eventTypeID, s.lookups.EventTypeExists, "Event type", internal.ErrCodeEventTypeNotFound},
		{currencyID, s.lookups.CurrencyExists, "Currency", internal.ErrCodeCurrencyNotFound},
	}

	for _, check := range checks {
		if check.id == nil {
			continue
		}
		ok, err := check.exists(ctx, *check.id)
		if err != nil {
			s.logger.Error("lookup failed", "error", err, "entity", check.what, "id", *check.id)
			return internal.NewInternalError("failed to verify "+strings.ToLower(check.what), err)
		}
		if !ok {
			return internal.NewNotFoundError(check.what+" not found", check.code)
		}
	}
	return nil
}

// storeError maps store sentinels raised by guarded writes.
func (s *Service) storeError(err error, message string, action Action) error {
	if _, ok := internal.IsAppError(err); ok {
		return err
	}
	switch {
	case errors.Is(err, ErrStatusConflict):
		return internal.NewInvalidStatusError(fmt.Sprintf("cannot %s claim: status changed concurrently", action))
	case errors.Is(err, ErrClaimNotFound):
		return internal.NewNotFoundError("Claim not found", internal.ErrCodeClaimNotFound)
	default:
		s.logger.Error(message, "error", err)
		return internal.NewInternalError(message, err)
	}
}

func (s *Service) publish(ctx context.Context, eventType string, c *Claim, actor Actor) {
	if s.publisher == nil {
		return
	}
	event := events.NewClaimLifecycleEvent(eventType, c.ID, c.ReferenceID, string(c.Status), actor.UserID, c.TotalAmount.StringFixed(2))
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("failed to publish claim event", "error", err, "event_type", eventType, "claim_id", c.ID)
	}
}
