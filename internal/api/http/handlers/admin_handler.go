package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/event-service/internal/api/dto"
	"github.com/spec-kit/event-service/internal/auth"
	"github.com/spec-kit/event-service/internal/domain"
	"github.com/spec-kit/event-service/internal/repository"
	"github.com/spec-kit/event-service/internal/service"
	apperrors "github.com/spec-kit/event-service/pkg/util"
)

// AdminHandler exposes moderation and review surfaces.
type AdminHandler struct {
	verifications *service.VerificationService
	users         *service.UserService
	reports       *service.ReportService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(verifications *service.VerificationService, users *service.UserService, reports *service.ReportService) *AdminHandler {
	return &AdminHandler{verifications: verifications, users: users, reports: reports}
}

// ListVerificationRequests handles GET /api/admin/verification/requests.
// Defaults to pending requests, the admin review queue.
func (h *AdminHandler) ListVerificationRequests(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}

	status := domain.VerificationRequestStatus(c.Query("statut", string(domain.RequestStatusPending)))
	page, _ := strconv.Atoi(c.Query("page", "1"))
	pageSize, _ := strconv.Atoi(c.Query("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	requests, err := h.verifications.ListRequests(c.UserContext(), principal.User, repository.VerificationRequestFilter{
		Status: &status,
		Limit:  pageSize,
		Offset: (page - 1) * pageSize,
	})
	if err != nil {
		return err
	}

	items := make([]dto.VerificationRequestResponse, 0, len(requests))
	for i := range requests {
		items = append(items, dto.NewVerificationRequestResponse(&requests[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// DecideVerificationRequest handles POST /api/admin/verification/requests/:id/decision.
func (h *AdminHandler) DecideVerificationRequest(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.DecisionRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	request, err := h.verifications.Decide(c.UserContext(), principal.User, c.Params("id"), req.Decision)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewVerificationRequestResponse(request)})
}

// ListUsers handles GET /api/admin/users.
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}

	var role *domain.Role
	if raw := c.Query("role"); raw != "" {
		parsed := domain.Role(raw)
		role = &parsed
	}
	page, _ := strconv.Atoi(c.Query("page", "1"))
	pageSize, _ := strconv.Atoi(c.Query("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	users, err := h.users.List(c.UserContext(), principal.User, role, pageSize, (page-1)*pageSize)
	if err != nil {
		return err
	}
	items := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, dto.NewUserResponse(&users[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// SetUserActive handles POST /api/admin/users/:id/active.
func (h *AdminHandler) SetUserActive(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req struct {
		Active bool `json:"actif"`
	}
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	if err := h.users.SetActive(c.UserContext(), principal.User, c.Params("id"), req.Active); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"id": c.Params("id"), "actif": req.Active}})
}

// DeleteUser handles DELETE /api/admin/users/:id.
func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	if err := h.users.Delete(c.UserContext(), principal.User, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Stats handles GET /api/admin/stats.
func (h *AdminHandler) Stats(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	stats, err := h.reports.DashboardStats(c.UserContext(), principal.User)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": stats})
}
