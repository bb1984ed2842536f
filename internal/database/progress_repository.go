package database

import (
	"context"
	"database/sql"
	"iter"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/example/reviewsched/pkg/models"
)

// progressRow is the stored form of models.ReviewProgress. Times are Unix milliseconds
// so that ordering and comparisons behave the same on every driver.
type progressRow struct {
	LearnerID       string  `db:"learner_id"`
	ItemID          string  `db:"item_id"`
	Stability       float64 `db:"stability"`
	Difficulty      float64 `db:"difficulty"`
	RepetitionCount int     `db:"repetition_count"`
	LastReviewAt    int64   `db:"last_review_at"`
	NextReviewAt    int64   `db:"next_review_at"`
	State           string  `db:"state"`
	UpdatedAt       int64   `db:"updated_at"`
}

func newProgressRow(p models.ReviewProgress, now time.Time) progressRow {
	return progressRow{
		LearnerID:       p.LearnerID,
		ItemID:          p.ItemID,
		Stability:       p.Stability,
		Difficulty:      p.Difficulty,
		RepetitionCount: p.RepetitionCount,
		LastReviewAt:    toMillis(p.LastReviewAt),
		NextReviewAt:    toMillis(p.NextReviewAt),
		State:           p.State.String(),
		UpdatedAt:       toMillis(now),
	}
}

func (r progressRow) toModel() (models.ReviewProgress, error) {
	state, err := models.ParseState(r.State)
	if err != nil {
		return models.ReviewProgress{}, err
	}
	return models.ReviewProgress{
		LearnerID:       r.LearnerID,
		ItemID:          r.ItemID,
		Stability:       r.Stability,
		Difficulty:      r.Difficulty,
		RepetitionCount: r.RepetitionCount,
		LastReviewAt:    fromMillis(r.LastReviewAt),
		NextReviewAt:    fromMillis(r.NextReviewAt),
		State:           state,
	}, nil
}

const progressColumns = `learner_id, item_id, stability, difficulty, repetition_count,
	last_review_at, next_review_at, state, updated_at`

// The single-statement upsert keyed by the unique pair. Works on sqlite >= 3.24 and postgres.
const upsertProgressQuery = `
	INSERT INTO review_progress (
		learner_id, item_id, stability, difficulty, repetition_count,
		last_review_at, next_review_at, state, created_at, updated_at
	) VALUES (
		:learner_id, :item_id, :stability, :difficulty, :repetition_count,
		:last_review_at, :next_review_at, :state, :updated_at, :updated_at
	)
	ON CONFLICT (learner_id, item_id) DO UPDATE SET
		stability = excluded.stability,
		difficulty = excluded.difficulty,
		repetition_count = excluded.repetition_count,
		last_review_at = excluded.last_review_at,
		next_review_at = excluded.next_review_at,
		state = excluded.state,
		updated_at = excluded.updated_at
`

// ProgressRepository handles database operations for review progress.
type ProgressRepository struct {
	db    *sqlx.DB
	clock func() time.Time
}

// NewProgressRepository creates a new repository instance
func NewProgressRepository(db *sqlx.DB) *ProgressRepository {
	return &ProgressRepository{db: db, clock: time.Now}
}

// Get returns the progress for a learner and item, or nil if the learner never rated it.
func (r *ProgressRepository) Get(ctx context.Context, learnerID, itemID string) (*models.ReviewProgress, error) {
	return r.get(ctx, r.db, learnerID, itemID, false)
}

func (r *ProgressRepository) get(ctx context.Context, q sqlx.QueryerContext, learnerID, itemID string, forUpdate bool) (*models.ReviewProgress, error) {
	query := `SELECT ` + progressColumns + ` FROM review_progress WHERE learner_id = ? AND item_id = ?`
	if forUpdate && r.db.DriverName() == DriverPostgres {
		query += ` FOR UPDATE`
	}

	var row progressRow
	err := sqlx.GetContext(ctx, q, &row, r.db.Rebind(query), learnerID, itemID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get review progress")
	}

	p, err := row.toModel()
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode review progress")
	}
	return &p, nil
}

// Upsert inserts the progress or overwrites every field of the existing row for the pair.
func (r *ProgressRepository) Upsert(ctx context.Context, p models.ReviewProgress) error {
	return r.upsert(ctx, r.db, p)
}

func (r *ProgressRepository) upsert(ctx context.Context, e sqlx.ExtContext, p models.ReviewProgress) error {
	if p.LearnerID == "" || p.ItemID == "" {
		return errors.New("review progress needs both learner and item id")
	}
	if !p.State.IsValid() {
		return errors.Errorf("refusing to store invalid state %d", int(p.State))
	}
	if _, err := sqlx.NamedExecContext(ctx, e, upsertProgressQuery, newProgressRow(p, r.clock())); err != nil {
		return errors.Wrap(err, "failed to upsert review progress")
	}
	return nil
}

// Apply loads the current progress for the pair, passes it to fn and stores what fn returns,
// all in one transaction. On postgres the row is locked with SELECT ... FOR UPDATE, so
// concurrent calls for the same pair run one after the other; sqlite gets the same effect
// from its single writer connection.
func (r *ProgressRepository) Apply(
	ctx context.Context,
	learnerID, itemID string,
	fn func(current *models.ReviewProgress) (models.ReviewProgress, error),
) (models.ReviewProgress, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.ReviewProgress{}, errors.Wrap(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	current, err := r.get(ctx, tx, learnerID, itemID, true)
	if err != nil {
		return models.ReviewProgress{}, err
	}

	next, err := fn(current)
	if err != nil {
		return models.ReviewProgress{}, err
	}
	next.LearnerID, next.ItemID = learnerID, itemID

	if err := r.upsert(ctx, tx, next); err != nil {
		return models.ReviewProgress{}, err
	}
	if err := tx.Commit(); err != nil {
		return models.ReviewProgress{}, errors.Wrap(err, "failed to commit review progress")
	}
	return next, nil
}

// DueItems returns the items of a learner whose next review time is at or before now,
// oldest-due first, at most limit of them. The query runs when the sequence is ranged
// over, so the result reflects the table at that moment rather than at call time.
func (r *ProgressRepository) DueItems(ctx context.Context, learnerID string, now time.Time, limit int) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		if limit <= 0 {
			return
		}

		query := r.db.Rebind(`
			SELECT item_id FROM review_progress
			WHERE learner_id = ? AND next_review_at <= ?
			ORDER BY next_review_at ASC, item_id ASC
			LIMIT ?
		`)
		rows, err := r.db.QueryxContext(ctx, query, learnerID, toMillis(now), limit)
		if err != nil {
			yield("", errors.Wrap(err, "failed to get due items"))
			return
		}
		defer rows.Close()

		for rows.Next() {
			var itemID string
			if err := rows.Scan(&itemID); err != nil {
				yield("", errors.Wrap(err, "failed to scan due item"))
				return
			}
			if !yield(itemID, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield("", errors.Wrap(err, "failed to iterate due items"))
		}
	}
}

// CountDue returns how many items of the learner are due at now.
func (r *ProgressRepository) CountDue(ctx context.Context, learnerID string, now time.Time) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, r.db.Rebind(
		`SELECT COUNT(*) FROM review_progress WHERE learner_id = ? AND next_review_at <= ?`),
		learnerID, toMillis(now))
	if err != nil {
		return 0, errors.Wrap(err, "failed to count due items")
	}
	return count, nil
}

// NextReviewAfter returns the earliest next review time strictly after now, or nil if
// the learner has nothing scheduled in the future.
func (r *ProgressRepository) NextReviewAfter(ctx context.Context, learnerID string, now time.Time) (*time.Time, error) {
	var next sql.NullInt64
	err := r.db.GetContext(ctx, &next, r.db.Rebind(
		`SELECT MIN(next_review_at) FROM review_progress WHERE learner_id = ? AND next_review_at > ?`),
		learnerID, toMillis(now))
	if err != nil {
		return nil, errors.Wrap(err, "failed to get next review date")
	}
	if !next.Valid {
		return nil, nil
	}
	t := fromMillis(next.Int64)
	return &t, nil
}

// ListByLearner returns all progress rows of a learner ordered by next review time.
func (r *ProgressRepository) ListByLearner(ctx context.Context, learnerID string) ([]models.ReviewProgress, error) {
	var rows []progressRow
	err := r.db.SelectContext(ctx, &rows, r.db.Rebind(
		`SELECT `+progressColumns+` FROM review_progress WHERE learner_id = ? ORDER BY next_review_at ASC, item_id ASC`),
		learnerID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list review progress")
	}

	progress := make([]models.ReviewProgress, 0, len(rows))
	for _, row := range rows {
		p, err := row.toModel()
		if err != nil {
			return nil, errors.Wrapf(err, "failed to decode progress for item %s", row.ItemID)
		}
		progress = append(progress, p)
	}
	return progress, nil
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
