package auth

import (
	"log/slog"
	"net/http"

	"github.com/frahmantamala/claim-management/internal"
	"github.com/frahmantamala/claim-management/internal/transport"
)

const (
	PermissionViewClaims    = "view_claims"
	PermissionCreateClaims  = "create_claims"
	PermissionApproveClaims = "approve_claims"
	PermissionRejectClaims  = "reject_claims"
)

// RBACAuthorization gates routes on the permissions loaded with the caller
// by AuthMiddleware.
type RBACAuthorization struct {
	*transport.BaseHandler
}

func NewRBACAuthorization(logger *slog.Logger) *RBACAuthorization {
	return &RBACAuthorization{BaseHandler: transport.NewBaseHandler(logger)}
}

func (ra *RBACAuthorization) Check(next http.HandlerFunc, permission string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok || user == nil {
			ra.Logger.Warn("authorization check failed: user not found in context")
			ra.WriteAppError(w, internal.NewUnauthorizedError("unauthorized", internal.ErrCodeInvalidToken))
			return
		}

		if !user.HasPermission(permission) {
			ra.Logger.WarnContext(r.Context(), "access denied: insufficient permissions",
				"user_id", user.ID,
				"required_permission", permission,
				"user_permissions", user.Permissions)
			ra.WriteAppError(w, internal.NewForbiddenError("missing permission "+permission, internal.ErrCodeMissingPermission))
			return
		}

		next.ServeHTTP(w, r)
	}
}

func (ra *RBACAuthorization) Middleware(permission string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return ra.Check(next.ServeHTTP, permission)
	}
}
