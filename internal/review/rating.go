package review

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/example/reviewsched/internal/logger"
	"github.com/example/reviewsched/internal/spaced_repetition"
	"github.com/example/reviewsched/pkg/models"
)

// ScheduleResult is what a learner is told after rating an item.
type ScheduleResult struct {
	NextReviewAt time.Time
	IntervalDays float64
}

// RatingService records ratings. It is the only writer of review progress.
type RatingService struct {
	store ProgressStore
	log   *logger.Logger
}

// NewRatingService creates a rating service.
func NewRatingService(store ProgressStore, log *logger.Logger) *RatingService {
	return &RatingService{store: store, log: log}
}

// SubmitRating applies a rating to the learner's progress on the item and returns the new schedule.
// An item the learner never rated starts from the New defaults.
func (s *RatingService) SubmitRating(ctx context.Context, learnerID, itemID string, rating models.Rating, now time.Time) (ScheduleResult, error) {
	if !rating.IsValid() {
		return ScheduleResult{}, errors.Wrapf(ErrInvalidRating, "rating %d", int(rating))
	}
	if learnerID == "" || itemID == "" {
		return ScheduleResult{}, errors.Wrap(ErrInvalidArgument, "learner and item ids are required")
	}

	// the store keeps millisecond precision; schedule from that so the caller sees what is stored
	now = now.Truncate(time.Millisecond)

	var from models.State
	next, err := s.store.Apply(ctx, learnerID, itemID, func(current *models.ReviewProgress) (models.ReviewProgress, error) {
		base := models.NewReviewProgress(learnerID, itemID)
		if current != nil {
			base = *current
		}
		from = base.State
		next := spaced_repetition.ComputeNextSchedule(&base, rating, now)
		next.NextReviewAt = next.NextReviewAt.Truncate(time.Millisecond)
		return next, nil
	})
	if err != nil {
		return ScheduleResult{}, storageError("apply rating", err)
	}

	s.log.Debugf("learner %s item %s: %s %s -> %s, interval %.2fd",
		learnerID, itemID, rating, from, next.State, next.Stability)

	return ScheduleResult{
		NextReviewAt: next.NextReviewAt,
		IntervalDays: next.Stability,
	}, nil
}

// Progress returns the stored progress for the pair, or nil if the item was never rated.
func (s *RatingService) Progress(ctx context.Context, learnerID, itemID string) (*models.ReviewProgress, error) {
	p, err := s.store.Get(ctx, learnerID, itemID)
	if err != nil {
		return nil, storageError("get progress", err)
	}
	return p, nil
}
