package lookup

import (
	"context"
	"errors"
	"log/slog"

	"github.com/frahmantamala/claim-management/internal"
	lookupDatamodel "github.com/frahmantamala/claim-management/internal/core/datamodel/lookup"
)

var ErrEmployeeNotFound = errors.New("employee not found")

// Table identifies a reference table for existence checks.
type Table string

const (
	TableEmployees    Table = "employees"
	TableEventTypes   Table = "event_types"
	TableCurrencies   Table = "currencies"
	TableExpenseTypes Table = "expense_types"
)

type RepositoryAPI interface {
	Exists(ctx context.Context, table Table, id int64) (bool, error)
	GetEmployee(ctx context.Context, id int64) (*lookupDatamodel.Employee, error)
	ListEventTypes(ctx context.Context) ([]*lookupDatamodel.EventType, error)
	ListCurrencies(ctx context.Context) ([]*lookupDatamodel.Currency, error)
	ListExpenseTypes(ctx context.Context) ([]*lookupDatamodel.ExpenseType, error)
}

type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (s *Service) EmployeeExists(ctx context.Context, id int64) (bool, error) {
	return s.exists(ctx, TableEmployees, id)
}

func (s *Service) EventTypeExists(ctx context.Context, id int64) (bool, error) {
	return s.exists(ctx, TableEventTypes, id)
}

func (s *Service) CurrencyExists(ctx context.Context, id int64) (bool, error) {
	return s.exists(ctx, TableCurrencies, id)
}

func (s *Service) ExpenseTypeExists(ctx context.Context, id int64) (bool, error) {
	return s.exists(ctx, TableExpenseTypes, id)
}

func (s *Service) exists(ctx context.Context, table Table, id int64) (bool, error) {
	if id <= 0 {
		return false, nil
	}
	ok, err := s.repo.Exists(ctx, table, id)
	if err != nil {
		s.logger.Error("failed to check reference row", "error", err, "table", table, "id", id)
		return false, err
	}
	return ok, nil
}

func (s *Service) GetEmployee(ctx context.Context, id int64) (*Employee, error) {
	row, err := s.repo.GetEmployee(ctx, id)
	if errors.Is(err, ErrEmployeeNotFound) {
		return nil, internal.NewNotFoundError("Employee not found", internal.ErrCodeEmployeeNotFound)
	}
	if err != nil {
		s.logger.Error("failed to get employee", "error", err, "employee_id", id)
		return nil, internal.NewInternalError("failed to get employee", err)
	}
	return EmployeeFromDataModel(row), nil
}

// ListEventTypes returns the active event types.
func (s *Service) ListEventTypes(ctx context.Context) ([]EventType, error) {
	rows, err := s.repo.ListEventTypes(ctx)
	if err != nil {
		s.logger.Error("failed to list event types", "error", err)
		return nil, internal.NewInternalError("failed to list event types", err)
	}

	out := make([]EventType, 0, len(rows))
	for _, row := range rows {
		if row.IsActive {
			out = append(out, EventTypeFromDataModel(row))
		}
	}
	s.logger.Debug("retrieved event types", "count", len(out))
	return out, nil
}

func (s *Service) ListCurrencies(ctx context.Context) ([]Currency, error) {
	rows, err := s.repo.ListCurrencies(ctx)
	if err != nil {
		s.logger.Error("failed to list currencies", "error", err)
		return nil, internal.NewInternalError("failed to list currencies", err)
	}

	out := make([]Currency, 0, len(rows))
	for _, row := range rows {
		if row.IsActive {
			out = append(out, CurrencyFromDataModel(row))
		}
	}
	return out, nil
}

func (s *Service) ListExpenseTypes(ctx context.Context) ([]ExpenseType, error) {
	rows, err := s.repo.ListExpenseTypes(ctx)
	if err != nil {
		s.logger.Error("failed to list expense types", "error", err)
		return nil, internal.NewInternalError("failed to list expense types", err)
	}

	out := make([]ExpenseType, 0, len(rows))
	for _, row := range rows {
		if row.IsActive {
			out = append(out, ExpenseTypeFromDataModel(row))
		}
	}
	return out, nil
}
