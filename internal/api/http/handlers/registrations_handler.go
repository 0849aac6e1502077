package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/event-service/internal/api/dto"
	"github.com/spec-kit/event-service/internal/auth"
	"github.com/spec-kit/event-service/internal/service"
	"github.com/spec-kit/event-service/internal/validation"
	apperrors "github.com/spec-kit/event-service/pkg/util"
)

// RegistrationsHandler manages registration, export and attestation endpoints.
type RegistrationsHandler struct {
	registrations *service.RegistrationService
	reports       *service.ReportService
	attestations  *service.AttestationService
}

// NewRegistrationsHandler constructs handler.
func NewRegistrationsHandler(registrations *service.RegistrationService, reports *service.ReportService, attestations *service.AttestationService) *RegistrationsHandler {
	return &RegistrationsHandler{
		registrations: registrations,
		reports:       reports,
		attestations:  attestations,
	}
}

// Register handles POST /api/events/:id/registrations.
func (h *RegistrationsHandler) Register(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	registration, err := h.registrations.Register(c.UserContext(), principal.User, c.Params("id"))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewRegistrationResponse(registration)})
}

// UpdateStatus handles POST /api/registrations/:id/status.
func (h *RegistrationsHandler) UpdateStatus(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.ChangeRegistrationStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := validation.Struct(req); err != nil {
		return err
	}

	registration, err := h.registrations.UpdateStatus(c.UserContext(), principal.User, c.Params("id"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewRegistrationResponse(registration)})
}

// ListOwn handles GET /api/registrations.
func (h *RegistrationsHandler) ListOwn(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	limit, _ := strconv.Atoi(c.Query("page_size", "20"))
	page, _ := strconv.Atoi(c.Query("page", "1"))
	if page < 1 {
		page = 1
	}

	registrations, err := h.registrations.ListOwn(c.UserContext(), principal.User, limit, (page-1)*limit)
	if err != nil {
		return err
	}
	items := make([]dto.RegistrationResponse, 0, len(registrations))
	for i := range registrations {
		items = append(items, dto.NewRegistrationResponse(&registrations[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// ListForEvent handles GET /api/events/:id/registrations.
func (h *RegistrationsHandler) ListForEvent(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	registrations, err := h.registrations.ListForEvent(c.UserContext(), principal.User, c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.RegistrationResponse, 0, len(registrations))
	for i := range registrations {
		items = append(items, dto.NewRegistrationResponse(&registrations[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// ExportCSV handles GET /api/events/:id/registrations/export.
func (h *RegistrationsHandler) ExportCSV(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}

	var buf bytes.Buffer
	if err := h.reports.ExportRegistrationsCSV(c.UserContext(), principal.User, c.Params("id"), &buf); err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=inscriptions-%s.csv", c.Params("id")))
	return c.Send(buf.Bytes())
}

// Attestation handles GET /api/registrations/:id/attestation.
func (h *RegistrationsHandler) Attestation(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}

	var buf bytes.Buffer
	if err := h.attestations.Generate(c.UserContext(), principal.User, c.Params("id"), &buf); err != nil {
		return err
	}

	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=attestation-%s.pdf", c.Params("id")))
	return c.Send(buf.Bytes())
}
