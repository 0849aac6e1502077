package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/event-service/internal/api/http/handlers"
	"github.com/spec-kit/event-service/internal/auth"
	"github.com/spec-kit/event-service/internal/domain"
)

// RouteConfig bundles the handlers and middlewares used by RegisterRoutes.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Verification   *handlers.VerificationHandler
	Events         *handlers.EventsHandler
	Registrations  *handlers.RegistrationsHandler
	Admin          *handlers.AdminHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes mounts all HTTP endpoints on the app.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)

	authenticated := api.Group("", cfg.AuthMiddleware.Handle)

	verification := authenticated.Group("/verification")
	verification.Post("/requests", auth.RequireRole(domain.RoleOrganisateur), cfg.Verification.Submit)
	verification.Get("/requests", auth.RequireRole(domain.RoleOrganisateur), cfg.Verification.ListOwn)
	verification.Get("/status", auth.RequireAnyRole(), cfg.Verification.Status)

	events := authenticated.Group("/events")
	events.Post("", auth.RequireRole(domain.RoleOrganisateur), cfg.Events.Create)
	events.Get("", cfg.Events.List)
	events.Get("/:id", cfg.Events.Get)
	events.Patch("/:id", auth.RequireRole(domain.RoleOrganisateur, domain.RoleAdmin), cfg.Events.Update)
	events.Post("/:id/status", auth.RequireRole(domain.RoleOrganisateur, domain.RoleAdmin), cfg.Events.ChangeStatus)
	events.Post("/:id/registrations", auth.RequireRole(domain.RoleParticipant), cfg.Registrations.Register)
	events.Get("/:id/registrations", auth.RequireRole(domain.RoleOrganisateur, domain.RoleAdmin), cfg.Registrations.ListForEvent)
	events.Get("/:id/registrations/export", auth.RequireRole(domain.RoleOrganisateur, domain.RoleAdmin), cfg.Registrations.ExportCSV)

	registrations := authenticated.Group("/registrations")
	registrations.Get("", auth.RequireRole(domain.RoleParticipant), cfg.Registrations.ListOwn)
	registrations.Post("/:id/status", cfg.Registrations.UpdateStatus)
	registrations.Get("/:id/attestation", cfg.Registrations.Attestation)

	admin := authenticated.Group("/admin", auth.RequireRole(domain.RoleAdmin))
	admin.Get("/verification/requests", cfg.Admin.ListVerificationRequests)
	admin.Post("/verification/requests/:id/decision", cfg.Admin.DecideVerificationRequest)
	admin.Get("/users", cfg.Admin.ListUsers)
	admin.Post("/users/:id/active", cfg.Admin.SetUserActive)
	admin.Delete("/users/:id", cfg.Admin.DeleteUser)
	admin.Get("/stats", cfg.Admin.Stats)
}
