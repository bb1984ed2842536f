package models

import "time"

// Defaults for an item the learner has never rated.
const (
	DefaultStability  = 0.0
	DefaultDifficulty = 5.0
)

// ReviewProgress tracks one learner's memory of one item.
// There is at most one record per (LearnerID, ItemID) pair.
type ReviewProgress struct {
	LearnerID       string    `json:"learner_id"`
	ItemID          string    `json:"item_id"`
	Stability       float64   `json:"stability"`  // Current interval in days
	Difficulty      float64   `json:"difficulty"` // 1..10, higher is harder
	RepetitionCount int       `json:"repetition_count"`
	LastReviewAt    time.Time `json:"last_review_at"`
	NextReviewAt    time.Time `json:"next_review_at"`
	State           State     `json:"state"`
}

// NewReviewProgress returns the record used when a pair has no stored progress yet.
func NewReviewProgress(learnerID, itemID string) ReviewProgress {
	return ReviewProgress{
		LearnerID:  learnerID,
		ItemID:     itemID,
		Stability:  DefaultStability,
		Difficulty: DefaultDifficulty,
		State:      StateNew,
	}
}

// IsDue reports whether the item should be reviewed at now.
func (p ReviewProgress) IsDue(now time.Time) bool {
	return !p.NextReviewAt.After(now)
}
