package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jung-kurt/gofpdf"

	"github.com/spec-kit/event-service/internal/domain"
	"github.com/spec-kit/event-service/internal/repository"
	apperrors "github.com/spec-kit/event-service/pkg/util"
)

// AttestationService generates participation attestations for confirmed
// registrations to completed events.
type AttestationService struct {
	registrations repository.RegistrationRepository
	eventsRepo    repository.EventRepository
	users         repository.UserRepository
}

// NewAttestationService constructs the service.
func NewAttestationService(registrations repository.RegistrationRepository, eventsRepo repository.EventRepository, users repository.UserRepository) *AttestationService {
	return &AttestationService{
		registrations: registrations,
		eventsRepo:    eventsRepo,
		users:         users,
	}
}

// Generate writes a PDF attestation to w. Only the participant, the event
// organizer or an admin may request it, and only when the event is termine
// and the registration confirmee.
func (s *AttestationService) Generate(ctx context.Context, actor *domain.User, registrationID string, w io.Writer) error {
	if actor == nil {
		return apperrors.NewUnauthorized("authentication required")
	}

	registration, err := s.registrations.GetByID(ctx, registrationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("registration", nil)
		}
		return apperrors.MapError(err)
	}
	event, err := s.eventsRepo.GetByID(ctx, registration.EventID)
	if err != nil {
		return apperrors.MapError(err)
	}

	allowed := actor.Role == domain.RoleAdmin ||
		event.OrganizerID == actor.ID ||
		registration.ParticipantID == actor.ID
	if !allowed {
		return apperrors.NewForbidden("not allowed to access this attestation")
	}
	if !registration.AttestationEligible(event.Status) {
		return apperrors.NewConflict("attestation requires a completed event and a confirmed registration",
			map[string]any{"event_statut": event.Status, "inscription_statut": registration.Status})
	}

	participant, err := s.users.GetByID(ctx, registration.ParticipantID)
	if err != nil {
		return apperrors.MapError(err)
	}

	return writeAttestationPDF(w, participant, event, registration)
}

func writeAttestationPDF(w io.Writer, participant *domain.User, event *domain.Event, registration *domain.Registration) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Attestation de participation", true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 14, "Attestation de participation", "", 1, "C", false, 0, "")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 12)
	body := fmt.Sprintf("Nous certifions que %s a participe a l'evenement \"%s\" (%s).",
		participant.Name, event.Title, event.Key)
	pdf.MultiCell(0, 7, body, "", "L", false)
	pdf.Ln(4)

	pdf.CellFormat(0, 7, fmt.Sprintf("Lieu : %s", event.Location), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 7, fmt.Sprintf("Du %s au %s",
		event.StartsAt.Format("02/01/2006"), event.EndsAt.Format("02/01/2006")), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 7, fmt.Sprintf("Inscription confirmee le %s",
		registration.RegisteredAt.Format("02/01/2006")), "", 1, "L", false, 0, "")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "I", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Document genere le %s", time.Now().Format("02/01/2006")), "", 1, "R", false, 0, "")

	return pdf.Output(w)
}
