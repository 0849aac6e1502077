package handlers

import (
	"mime/multipart"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/event-service/internal/api/dto"
	"github.com/spec-kit/event-service/internal/auth"
	"github.com/spec-kit/event-service/internal/domain"
	"github.com/spec-kit/event-service/internal/service"
	apperrors "github.com/spec-kit/event-service/pkg/util"
)

// documentFields maps multipart field names to document types, in intake
// order. piece_identite is mandatory, the rest optional.
var documentFields = []struct {
	Field string
	Type  domain.DocumentType
}{
	{"piece_identite", domain.DocumentIdentity},
	{"carte_club", domain.DocumentClubCard},
	{"justificatif_domicile", domain.DocumentAddressProof},
}

// VerificationHandler exposes the organizer verification workflow.
type VerificationHandler struct {
	service *service.VerificationService
}

// NewVerificationHandler constructs handler.
func NewVerificationHandler(verificationService *service.VerificationService) *VerificationHandler {
	return &VerificationHandler{service: verificationService}
}

// Submit handles POST /api/verification/requests (multipart).
func (h *VerificationHandler) Submit(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}

	input := service.SubmissionInput{
		Comment: c.FormValue("commentaire"),
		Supplementary: domain.SupplementaryInfo{
			ClubName:   c.FormValue("nom_club"),
			Phone:      c.FormValue("telephone"),
			Experience: c.FormValue("experience"),
			Motivation: c.FormValue("motivation"),
		},
	}

	var opened []multipart.File
	defer func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}()

	for _, field := range documentFields {
		header, err := c.FormFile(field.Field)
		if err != nil {
			continue
		}
		file, err := header.Open()
		if err != nil {
			return apperrors.NewValidationError("unreadable upload: "+field.Field, nil)
		}
		opened = append(opened, file)
		input.Documents = append(input.Documents, service.DocumentInput{
			Type:     field.Type,
			FileName: header.Filename,
			Size:     header.Size,
			Content:  file,
		})
	}

	result, err := h.service.Submit(c.UserContext(), principal.User, input)
	if err != nil {
		return err
	}

	outcomes := make([]dto.DocumentOutcomeResponse, 0, len(result.Documents))
	for _, outcome := range result.Documents {
		outcomes = append(outcomes, dto.DocumentOutcomeResponse{
			Type:     outcome.Type,
			FileName: outcome.FileName,
			Accepted: outcome.Accepted,
			Reason:   outcome.Reason,
		})
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": fiber.Map{
			"request":   dto.NewVerificationRequestResponse(result.Request),
			"documents": outcomes,
		},
	})
}

// Status handles GET /api/verification/status, the organizer dashboard poll.
func (h *VerificationHandler) Status(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}

	verified, err := h.service.IsVerified(c.UserContext(), principal.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(dto.StatusResponse{Verified: verified})
}

// ListOwn handles GET /api/verification/requests.
func (h *VerificationHandler) ListOwn(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}

	requests, err := h.service.ListOwnRequests(c.UserContext(), principal.User)
	if err != nil {
		return err
	}

	items := make([]dto.VerificationRequestResponse, 0, len(requests))
	for i := range requests {
		items = append(items, dto.NewVerificationRequestResponse(&requests[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}
