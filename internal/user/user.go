package user

import (
	"errors"
	"time"

	userDatamodel "github.com/frahmantamala/claim-management/internal/core/datamodel/user"
)

var ErrNotFound = errors.New("user not found")

// User is a login. Claims are raised for the employee it links to, if any.
type User struct {
	ID          int64     `json:"id"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	Role        string    `json:"role"`
	EmployeeID  *int64    `json:"employeeId,omitempty"`
	IsActive    bool      `json:"isActive"`
	Permissions []string  `json:"permissions"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// FromDataModel drops the password hash; it never leaves the auth package.
func FromDataModel(u *userDatamodel.User, permissions []string) *User {
	if permissions == nil {
		permissions = []string{}
	}
	return &User{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		Role:        u.Role,
		EmployeeID:  u.EmployeeID,
		IsActive:    u.IsActive,
		Permissions: permissions,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}
