package claim

import (
	"fmt"

	"github.com/frahmantamala/claim-management/internal"
)

// EnsureMutable allows expense and attachment changes only while the parent
// claim is still Initiated.
func EnsureMutable(c *Claim) error {
	if CanTransition(c.Status, ActionUpdate).Allowed {
		return nil
	}
	return internal.NewInvalidStatusError(
		fmt.Sprintf("claim %s is %s; expenses and attachments can only change while %s", c.ReferenceID, c.Status, StatusInitiated))
}

// CanAccessClaim: admins see everything, employees only claims raised for
// their own employee record, every other role nothing.
func CanAccessClaim(c *Claim, actor Actor) bool {
	switch actor.Role {
	case RoleAdmin:
		return true
	case RoleEmployee:
		return actor.EmployeeID != nil && *actor.EmployeeID == c.EmployeeID
	default:
		return false
	}
}
