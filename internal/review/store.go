package review

import (
	"context"
	"iter"
	"time"

	"github.com/example/reviewsched/pkg/models"
)

// ProgressStore is the durable home of review progress.
// Get returns nil without error when the pair has no progress yet.
type ProgressStore interface {
	Get(ctx context.Context, learnerID, itemID string) (*models.ReviewProgress, error)
	Upsert(ctx context.Context, p models.ReviewProgress) error
	Apply(ctx context.Context, learnerID, itemID string,
		fn func(current *models.ReviewProgress) (models.ReviewProgress, error)) (models.ReviewProgress, error)
}

// DueIndex answers due-set queries over stored progress.
type DueIndex interface {
	DueItems(ctx context.Context, learnerID string, now time.Time, limit int) iter.Seq2[string, error]
	CountDue(ctx context.Context, learnerID string, now time.Time) (int, error)
	NextReviewAfter(ctx context.Context, learnerID string, now time.Time) (*time.Time, error)
}

// SessionStore persists review sessions.
// GetByID returns models.ErrSessionNotFound when no session has the id.
type SessionStore interface {
	Create(ctx context.Context, s models.ReviewSession) error
	GetByID(ctx context.Context, id string) (models.ReviewSession, error)
	UpdateStatus(ctx context.Context, id string, from, to models.SessionStatus, now time.Time) (bool, error)
	ExpireCreatedBefore(ctx context.Context, cutoff, now time.Time) (int64, error)
}
