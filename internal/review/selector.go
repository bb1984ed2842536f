package review

import (
	"context"
	"iter"
	"time"

	"github.com/pkg/errors"
)

// DueSummary is the answer to "how much is due for this learner".
type DueSummary struct {
	TotalDue int
	// NextReviewDate is the earliest review time strictly after the query time, nil if none.
	NextReviewDate *time.Time
}

// Selector picks the items that are due for a learner. It only reads.
type Selector struct {
	index DueIndex
}

// NewSelector creates a selector over the given due index.
func NewSelector(index DueIndex) *Selector {
	return &Selector{index: index}
}

// SelectDue yields the learner's items due at now, oldest-due first, at most limit of them.
// The sequence is lazy: it reflects the store at the moment it is ranged over,
// not a snapshot. A storage failure is yielded as the error of the last pair.
func (s *Selector) SelectDue(ctx context.Context, learnerID string, now time.Time, limit int) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for itemID, err := range s.index.DueItems(ctx, learnerID, now, limit) {
			if err != nil {
				yield("", storageError("select due items", err))
				return
			}
			if !yield(itemID, nil) {
				return
			}
		}
	}
}

// DueCount returns how many items are due at now and when the next not-yet-due item comes up.
func (s *Selector) DueCount(ctx context.Context, learnerID string, now time.Time) (DueSummary, error) {
	if learnerID == "" {
		return DueSummary{}, errors.Wrap(ErrInvalidArgument, "learner id is required")
	}

	total, err := s.index.CountDue(ctx, learnerID, now)
	if err != nil {
		return DueSummary{}, storageError("count due items", err)
	}
	next, err := s.index.NextReviewAfter(ctx, learnerID, now)
	if err != nil {
		return DueSummary{}, storageError("find next review date", err)
	}
	return DueSummary{TotalDue: total, NextReviewDate: next}, nil
}

// Collect drains a due sequence into a slice, stopping at the first error.
func Collect(seq iter.Seq2[string, error]) ([]string, error) {
	var ids []string
	for id, err := range seq {
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
