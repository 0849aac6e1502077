package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/event-service/internal/domain"
)

// ErrDuplicatePending signals a second pending request of the same type for
// the same user. Backed by a partial unique index, so a concurrent
// check-then-insert cannot slip a duplicate through.
var ErrDuplicatePending = errors.New("pending verification request already exists")

// ErrAlreadyDecided signals that the request left en_attente before this
// decision was applied. The conditional update makes the first decision win.
var ErrAlreadyDecided = errors.New("verification request already decided")

// VerificationRequestFilter narrows admin listings.
type VerificationRequestFilter struct {
	UserID *string
	Status *domain.VerificationRequestStatus
	Type   *domain.VerificationRequestType
	Limit  int
	Offset int
}

// DecisionInput carries everything a decision mutates.
type DecisionInput struct {
	RequestID string
	AdminID   string
	Decision  domain.Decision
}

// VerificationRepository persists requests and their documents.
type VerificationRepository interface {
	CreateRequest(ctx context.Context, req *domain.VerificationRequest) error
	GetRequestByID(ctx context.Context, id string) (*domain.VerificationRequest, error)
	HasPendingRequest(ctx context.Context, userID string, reqType domain.VerificationRequestType) (bool, error)
	ListRequests(ctx context.Context, filter VerificationRequestFilter) ([]domain.VerificationRequest, error)
	Decide(ctx context.Context, input DecisionInput) (*domain.VerificationRequest, error)
	ListDocuments(ctx context.Context, requestID string) ([]domain.VerificationDocument, error)
	CountPending(ctx context.Context) (int64, error)
}

type verificationRepository struct {
	pool *pgxpool.Pool
}

// NewVerificationRepository returns a Postgres-backed implementation.
func NewVerificationRepository(pool *pgxpool.Pool) VerificationRepository {
	return &verificationRepository{pool: pool}
}

const requestColumns = `id, utilisateur_id, type_demande, statut, commentaire,
       infos_complementaires, admin_id, date_soumission, date_decision`

// CreateRequest inserts the request and its documents in one transaction;
// a failed document insert rolls back the request row as well.
func (r *verificationRepository) CreateRequest(ctx context.Context, req *domain.VerificationRequest) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const requestQuery = `
        INSERT INTO demandes_verification (utilisateur_id, type_demande, statut, commentaire, infos_complementaires)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, date_soumission`

	err = tx.QueryRow(ctx, requestQuery,
		req.UserID,
		req.Type,
		req.Status,
		req.Comment,
		req.Supplementary,
	).Scan(&req.ID, &req.SubmittedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicatePending
		}
		return err
	}

	const documentQuery = `
        INSERT INTO documents_verification (demande_id, type_document, nom_original, nom_stocke)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`

	for i := range req.Documents {
		doc := &req.Documents[i]
		doc.RequestID = req.ID
		if err := tx.QueryRow(ctx, documentQuery,
			doc.RequestID,
			doc.Type,
			doc.OriginalName,
			doc.StoredName,
		).Scan(&doc.ID, &doc.CreatedAt); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *verificationRepository) GetRequestByID(ctx context.Context, id string) (*domain.VerificationRequest, error) {
	const query = `SELECT ` + requestColumns + ` FROM demandes_verification WHERE id=$1`

	req, err := scanRequestRow(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}
	docs, err := r.ListDocuments(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	req.Documents = docs
	return req, nil
}

func (r *verificationRepository) HasPendingRequest(ctx context.Context, userID string, reqType domain.VerificationRequestType) (bool, error) {
	const query = `
        SELECT EXISTS(
            SELECT 1 FROM demandes_verification
            WHERE utilisateur_id=$1 AND type_demande=$2 AND statut=$3)`

	var exists bool
	err := r.pool.QueryRow(ctx, query, userID, reqType, domain.RequestStatusPending).Scan(&exists)
	return exists, err
}

func (r *verificationRepository) ListRequests(ctx context.Context, filter VerificationRequestFilter) ([]domain.VerificationRequest, error) {
	base := `SELECT ` + requestColumns + ` FROM demandes_verification`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		clauses = append(clauses, fmt.Sprintf("utilisateur_id=$%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("statut=$%d", len(args)))
	}
	if filter.Type != nil {
		args = append(args, *filter.Type)
		clauses = append(clauses, fmt.Sprintf("type_demande=$%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf("%s WHERE %s ORDER BY date_soumission ASC LIMIT %d OFFSET %d",
		base, joinAnd(clauses), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.VerificationRequest
	for rows.Next() {
		req, err := scanRequestRow(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *req)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range result {
		docs, err := r.ListDocuments(ctx, result[i].ID)
		if err != nil {
			return nil, err
		}
		result[i].Documents = docs
	}
	return result, nil
}

// Decide applies an admin verdict and the owning user's status change in one
// transaction. The request update is conditional on statut='en_attente';
// zero affected rows means another decision already landed and nothing is
// written.
func (r *verificationRepository) Decide(ctx context.Context, input DecisionInput) (*domain.VerificationRequest, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const decideQuery = `
        UPDATE demandes_verification
        SET statut=$1, admin_id=$2, date_decision=NOW()
        WHERE id=$3 AND statut=$4
        RETURNING ` + requestColumns

	req, err := scanRequestRow(tx.QueryRow(ctx, decideQuery,
		input.Decision.RequestStatus(),
		input.AdminID,
		input.RequestID,
		domain.RequestStatusPending,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Distinguish a missing request from an already decided one.
			var exists bool
			if checkErr := r.pool.QueryRow(ctx,
				`SELECT EXISTS(SELECT 1 FROM demandes_verification WHERE id=$1)`,
				input.RequestID).Scan(&exists); checkErr == nil && exists {
				return nil, ErrAlreadyDecided
			}
			return nil, pgx.ErrNoRows
		}
		return nil, err
	}

	const userQuery = `
        UPDATE utilisateurs
        SET statut_verification=$1, date_verification=NOW(), verifie_par_admin_id=$2, updated_at=NOW()
        WHERE id=$3`

	if _, err := tx.Exec(ctx, userQuery,
		input.Decision.UserStatus(),
		input.AdminID,
		req.UserID,
	); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return req, nil
}

func (r *verificationRepository) ListDocuments(ctx context.Context, requestID string) ([]domain.VerificationDocument, error) {
	const query = `
        SELECT id, demande_id, type_document, nom_original, nom_stocke, created_at
        FROM documents_verification WHERE demande_id=$1 ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.VerificationDocument
	for rows.Next() {
		var doc domain.VerificationDocument
		if err := rows.Scan(
			&doc.ID,
			&doc.RequestID,
			&doc.Type,
			&doc.OriginalName,
			&doc.StoredName,
			&doc.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, doc)
	}
	return result, rows.Err()
}

func (r *verificationRepository) CountPending(ctx context.Context) (int64, error) {
	const query = `SELECT COUNT(*) FROM demandes_verification WHERE statut=$1`
	var count int64
	err := r.pool.QueryRow(ctx, query, domain.RequestStatusPending).Scan(&count)
	return count, err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequestRow(row rowScanner) (*domain.VerificationRequest, error) {
	var req domain.VerificationRequest
	var decidedAt *time.Time
	if err := row.Scan(
		&req.ID,
		&req.UserID,
		&req.Type,
		&req.Status,
		&req.Comment,
		&req.Supplementary,
		&req.AdminID,
		&req.SubmittedAt,
		&decidedAt,
	); err != nil {
		return nil, err
	}
	req.DecidedAt = decidedAt
	return &req, nil
}
