package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/example/reviewsched/pkg/models"
)

type sessionRow struct {
	ID        string `db:"id"`
	LearnerID string `db:"learner_id"`
	ItemIDs   string `db:"item_ids"`
	Status    string `db:"status"`
	CreatedAt int64  `db:"created_at"`
	UpdatedAt int64  `db:"updated_at"`
}

func (r sessionRow) toModel() (models.ReviewSession, error) {
	var itemIDs []string
	if err := json.Unmarshal([]byte(r.ItemIDs), &itemIDs); err != nil {
		return models.ReviewSession{}, errors.Wrap(err, "failed to parse session item ids")
	}
	return models.ReviewSession{
		ID:        r.ID,
		LearnerID: r.LearnerID,
		ItemIDs:   itemIDs,
		Status:    models.SessionStatus(r.Status),
		CreatedAt: fromMillis(r.CreatedAt),
		UpdatedAt: fromMillis(r.UpdatedAt),
	}, nil
}

// SessionRepository handles database operations for review sessions
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository creates a new repository instance
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create inserts a new session
func (r *SessionRepository) Create(ctx context.Context, s models.ReviewSession) error {
	itemIDs, err := json.Marshal(s.ItemIDs)
	if err != nil {
		return errors.Wrap(err, "failed to marshal session item ids")
	}

	_, err = r.db.NamedExecContext(ctx, `
		INSERT INTO review_sessions (id, learner_id, item_ids, status, created_at, updated_at)
		VALUES (:id, :learner_id, :item_ids, :status, :created_at, :updated_at)
	`, sessionRow{
		ID:        s.ID,
		LearnerID: s.LearnerID,
		ItemIDs:   string(itemIDs),
		Status:    string(s.Status),
		CreatedAt: toMillis(s.CreatedAt),
		UpdatedAt: toMillis(s.UpdatedAt),
	})
	if err != nil {
		return errors.Wrap(err, "failed to create review session")
	}
	return nil
}

// GetByID returns a session by id, or models.ErrSessionNotFound.
func (r *SessionRepository) GetByID(ctx context.Context, id string) (models.ReviewSession, error) {
	var row sessionRow
	err := r.db.GetContext(ctx, &row, r.db.Rebind(
		`SELECT id, learner_id, item_ids, status, created_at, updated_at FROM review_sessions WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ReviewSession{}, models.ErrSessionNotFound
	}
	if err != nil {
		return models.ReviewSession{}, errors.Wrap(err, "failed to get review session")
	}
	return row.toModel()
}

// UpdateStatus moves a session from one status to another. It reports false when the
// session was not in the expected status, so concurrent transitions cannot both win.
func (r *SessionRepository) UpdateStatus(ctx context.Context, id string, from, to models.SessionStatus, now time.Time) (bool, error) {
	result, err := r.db.ExecContext(ctx, r.db.Rebind(
		`UPDATE review_sessions SET status = ?, updated_at = ? WHERE id = ? AND status = ?`),
		string(to), toMillis(now), id, string(from))
	if err != nil {
		return false, errors.Wrap(err, "failed to update review session")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "failed to get rows affected")
	}
	return rows > 0, nil
}

// ExpireCreatedBefore marks every active session created before cutoff as expired and
// returns how many were changed.
func (r *SessionRepository) ExpireCreatedBefore(ctx context.Context, cutoff, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, r.db.Rebind(
		`UPDATE review_sessions SET status = ?, updated_at = ? WHERE status = ? AND created_at < ?`),
		string(models.SessionExpired), toMillis(now), string(models.SessionActive), toMillis(cutoff))
	if err != nil {
		return 0, errors.Wrap(err, "failed to expire review sessions")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "failed to get rows affected")
	}
	return rows, nil
}
