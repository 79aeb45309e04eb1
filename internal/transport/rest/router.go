package rest

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/frahmantamala/claim-management/internal/auth"
	"github.com/frahmantamala/claim-management/internal/claim"
	"github.com/frahmantamala/claim-management/internal/lookup"
	"github.com/frahmantamala/claim-management/internal/transport/middleware"
	"github.com/frahmantamala/claim-management/internal/transport/swagger"
	"github.com/frahmantamala/claim-management/internal/user"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
	"github.com/go-chi/cors"
)

const APIPrefix = "/api/v1"

// Routes carries everything the router mounts. Nil handlers are skipped.
type Routes struct {
	Health         *HealthHandler
	Auth           *auth.Handler
	User           *user.Handler
	Claim          *claim.Handler
	Lookup         *lookup.Handler
	OpenAPI        http.HandlerFunc
	AllowedOrigins []string
	RequestTimeout time.Duration
}

func RegisterAllRoutes(router *chi.Mux, routes Routes, logger *slog.Logger) {
	origins := routes.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Trace-ID"},
		ExposedHeaders:   []string{"X-Trace-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	router.Use(chiMiddleware.RealIP)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.LoggingMiddleware(logger))
	if routes.RequestTimeout > 0 {
		router.Use(chiMiddleware.Timeout(routes.RequestTimeout))
	}

	if routes.OpenAPI != nil {
		router.Get("/openapi.yml", routes.OpenAPI)
		router.Handle("/swagger/*", swagger.Handler("/openapi.yml"))
	}

	router.Route(APIPrefix, func(r chi.Router) {
		if routes.Health != nil {
			r.Get("/health", routes.Health.Health)
			r.Get("/ping", routes.Health.Ping)
		}

		if routes.Auth == nil {
			return
		}

		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/login", routes.Auth.Login)
			sr.Post("/refresh", routes.Auth.RefreshToken)
		})

		r.Group(func(pr chi.Router) {
			pr.Use(routes.Auth.AuthMiddleware)
			pr.Use(middleware.UserContext)

			if routes.User != nil {
				pr.Get("/users/me", routes.User.GetCurrentUser)
			}

			if routes.Lookup != nil {
				pr.Get("/event-types", routes.Lookup.GetEventTypes)
				pr.Get("/currencies", routes.Lookup.GetCurrencies)
				pr.Get("/expense-types", routes.Lookup.GetExpenseTypes)
			}

			if routes.Claim != nil {
				registerClaimRoutes(pr, routes.Claim, auth.NewRBACAuthorization(logger))
			}
		})
	})
}

func registerClaimRoutes(r chi.Router, h *claim.Handler, rbac *auth.RBACAuthorization) {
	r.Route("/claims", func(cr chi.Router) {
		cr.Post("/", h.CreateClaim)
		cr.Get("/", h.ListClaims)

		cr.Route("/{id}", func(ir chi.Router) {
			ir.Get("/", h.GetClaim)
			ir.Put("/", h.UpdateClaim)
			ir.Post("/submit", h.SubmitClaim)

			ir.Group(func(ar chi.Router) {
				ar.Use(middleware.RequireRole(auth.RoleAdmin))
				ar.With(rbac.Middleware(auth.PermissionApproveClaims)).Post("/approve", h.ApproveClaim)
				ar.With(rbac.Middleware(auth.PermissionRejectClaims)).Post("/reject", h.RejectClaim)
			})

			ir.Get("/expenses", h.ListExpenses)
			ir.Post("/expenses", h.AddExpense)
			ir.Put("/expenses/{expenseId}", h.UpdateExpense)
			ir.Delete("/expenses/{expenseId}", h.DeleteExpense)

			ir.Get("/attachments", h.ListAttachments)
			ir.Post("/attachments", h.AddAttachment)
			ir.Delete("/attachments/{attachmentId}", h.DeleteAttachment)
		})
	})
}
