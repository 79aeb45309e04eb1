package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/frahmantamala/claim-management/internal"
	"github.com/frahmantamala/claim-management/internal/lookup"
)

type Repository interface {
	GetByID(ctx context.Context, userID int64) (*User, error)
	GetPermissions(ctx context.Context, userID int64) ([]string, error)
}

// EmployeeDirectory resolves the employee record linked to a login.
type EmployeeDirectory interface {
	GetEmployee(ctx context.Context, id int64) (*lookup.Employee, error)
}

// Profile is the /users/me view: the login plus its employee record, if any.
type Profile struct {
	*User
	Employee *lookup.Employee `json:"employee,omitempty"`
}

type Service struct {
	repo      Repository
	employees EmployeeDirectory
	logger    *slog.Logger
}

func NewService(repo Repository, employees EmployeeDirectory, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		employees: employees,
		logger:    logger,
	}
}

func (s *Service) GetByID(ctx context.Context, userID int64) (*User, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}

	perms, err := s.repo.GetPermissions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user permissions: %w", err)
	}
	u.Permissions = perms

	return u, nil
}

// GetProfile loads the user and, when linked, its employee record. A dangling
// employee link is logged and the profile returned without it.
func (s *Service) GetProfile(ctx context.Context, userID int64) (*Profile, error) {
	u, err := s.GetByID(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return nil, internal.NewNotFoundError("User not found", "USER_NOT_FOUND")
	}
	if err != nil {
		s.logger.Error("failed to load user", "error", err, "user_id", userID)
		return nil, internal.NewInternalError("failed to load user", err)
	}

	profile := &Profile{User: u}
	if u.EmployeeID == nil || s.employees == nil {
		return profile, nil
	}

	employee, err := s.employees.GetEmployee(ctx, *u.EmployeeID)
	if err != nil {
		if internal.ErrorTypeOf(err) == internal.ErrorTypeNotFound {
			s.logger.Warn("user linked to a missing employee", "user_id", userID, "employee_id", *u.EmployeeID)
			return profile, nil
		}
		return nil, err
	}
	profile.Employee = employee
	return profile, nil
}
