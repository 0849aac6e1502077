package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/event-service/internal/domain"
)

// ErrDuplicateRegistration signals a participant registering twice for the
// same event; enforced by a unique index.
var ErrDuplicateRegistration = errors.New("participant already registered for event")

// RegistrationRepository persists event registrations.
type RegistrationRepository interface {
	Create(ctx context.Context, reg *domain.Registration) error
	GetByID(ctx context.Context, id string) (*domain.Registration, error)
	UpdateStatus(ctx context.Context, id string, status domain.RegistrationStatus) error
	ListByEvent(ctx context.Context, eventID string) ([]domain.Registration, error)
	ListByParticipant(ctx context.Context, participantID string, limit, offset int) ([]domain.Registration, error)
	CountActiveByEvent(ctx context.Context, eventID string) (int64, error)
}

type registrationRepository struct {
	pool *pgxpool.Pool
}

// NewRegistrationRepository constructs repository.
func NewRegistrationRepository(pool *pgxpool.Pool) RegistrationRepository {
	return &registrationRepository{pool: pool}
}

func (r *registrationRepository) Create(ctx context.Context, reg *domain.Registration) error {
	const query = `
        INSERT INTO inscriptions (evenement_id, participant_id, statut)
        VALUES ($1,$2,$3)
        RETURNING id, date_inscription`

	err := r.pool.QueryRow(ctx, query,
		reg.EventID,
		reg.ParticipantID,
		reg.Status,
	).Scan(&reg.ID, &reg.RegisteredAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateRegistration
		}
		return err
	}
	return nil
}

func (r *registrationRepository) GetByID(ctx context.Context, id string) (*domain.Registration, error) {
	const query = `
        SELECT id, evenement_id, participant_id, statut, date_inscription
        FROM inscriptions WHERE id=$1`

	var reg domain.Registration
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&reg.ID,
		&reg.EventID,
		&reg.ParticipantID,
		&reg.Status,
		&reg.RegisteredAt,
	); err != nil {
		return nil, err
	}
	return &reg, nil
}

func (r *registrationRepository) UpdateStatus(ctx context.Context, id string, status domain.RegistrationStatus) error {
	const query = `UPDATE inscriptions SET statut=$1 WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, status, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *registrationRepository) ListByEvent(ctx context.Context, eventID string) ([]domain.Registration, error) {
	const query = `
        SELECT id, evenement_id, participant_id, statut, date_inscription
        FROM inscriptions WHERE evenement_id=$1 ORDER BY date_inscription ASC`

	rows, err := r.pool.Query(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRegistrations(rows)
}

func (r *registrationRepository) ListByParticipant(ctx context.Context, participantID string, limit, offset int) ([]domain.Registration, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
        SELECT id, evenement_id, participant_id, statut, date_inscription
        FROM inscriptions WHERE participant_id=$1
        ORDER BY date_inscription DESC LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, participantID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRegistrations(rows)
}

func (r *registrationRepository) CountActiveByEvent(ctx context.Context, eventID string) (int64, error) {
	const query = `
        SELECT COUNT(*) FROM inscriptions
        WHERE evenement_id=$1 AND statut <> $2`

	var count int64
	err := r.pool.QueryRow(ctx, query, eventID, domain.RegistrationCancelled).Scan(&count)
	return count, err
}

func scanRegistrations(rows pgx.Rows) ([]domain.Registration, error) {
	var result []domain.Registration
	for rows.Next() {
		var reg domain.Registration
		if err := rows.Scan(
			&reg.ID,
			&reg.EventID,
			&reg.ParticipantID,
			&reg.Status,
			&reg.RegisteredAt,
		); err != nil {
			return nil, err
		}
		result = append(result, reg)
	}
	return result, rows.Err()
}
