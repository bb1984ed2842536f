// Package spaced_repetition holds the memory model that turns a rating into the next review schedule.
package spaced_repetition

import (
	"math"
	"time"

	"github.com/example/reviewsched/pkg/models"
)

const (
	// LapseStability is the interval, in days, given to an item right after it was forgotten.
	LapseStability = 0.5

	// BaseGrowthFactor is the stability multiplier for an item of average difficulty rated Good.
	BaseGrowthFactor = 2.5
	// DifficultySensitivity is how much each point of difficulty above 5 slows interval growth.
	DifficultySensitivity = 0.2
	// EasyBonus and HardPenalty scale the growth factor for Easy and Hard ratings.
	EasyBonus   = 1.3
	HardPenalty = 0.8
	// MinGrowthFactor guarantees every successful review grows the interval by at least 20%.
	MinGrowthFactor = 1.2

	MinDifficulty = 1.0
	MaxDifficulty = 10.0
)

// MaxReviewTime is the latest review time ever scheduled. Longer intervals saturate here,
// so a next review is never placed before the review that produced it.
var MaxReviewTime = time.Date(9999, 12, 31, 23, 59, 59, 0, time.UTC)

const (
	// maxDurationDays is the largest whole number of days a time.Duration can hold.
	maxDurationDays = 106751
	// maxWholeDays exceeds the distance from year 1 to MaxReviewTime.
	maxWholeDays = 4_000_000
)

// initialStability is the first interval, in days, after a successful rating from New or Relearning.
var initialStability = map[models.Rating]float64{
	models.RatingHard: 1,
	models.RatingGood: 3,
	models.RatingEasy: 5,
}

var difficultyDelta = map[models.Rating]float64{
	models.RatingAgain: 2,
	models.RatingHard:  1,
	models.RatingGood:  -0.5,
	models.RatingEasy:  -1.5,
}

type outcome int

const (
	lapse outcome = iota
	success
)

// stabilityRule computes the new stability from the previous one, the rating,
// and the difficulty already updated for this rating.
type stabilityRule func(prev float64, rating models.Rating, difficulty float64) float64

type transition struct {
	next      models.State
	stability stabilityRule
	resetReps bool
}

var (
	pinLapse stabilityRule = func(float64, models.Rating, float64) float64 {
		return LapseStability
	}
	startInterval stabilityRule = func(_ float64, rating models.Rating, _ float64) float64 {
		return initialStability[rating]
	}
	growInterval stabilityRule = func(prev float64, rating models.Rating, difficulty float64) float64 {
		return prev * GrowthFactor(difficulty, rating)
	}
)

var transitions = map[models.State]map[outcome]transition{
	models.StateNew: {
		lapse:   {next: models.StateRelearning, stability: pinLapse, resetReps: true},
		success: {next: models.StateLearning, stability: startInterval},
	},
	models.StateRelearning: {
		lapse:   {next: models.StateRelearning, stability: pinLapse, resetReps: true},
		success: {next: models.StateLearning, stability: startInterval},
	},
	models.StateLearning: {
		lapse:   {next: models.StateRelearning, stability: pinLapse, resetReps: true},
		success: {next: models.StateReview, stability: growInterval},
	},
	models.StateReview: {
		lapse:   {next: models.StateRelearning, stability: pinLapse, resetReps: true},
		success: {next: models.StateReview, stability: growInterval},
	},
}

// ComputeNextSchedule returns the progress that results from rating the item at now.
// A nil current means the learner has never rated the item. The input is never modified.
// The rating must already be validated; the result for an invalid rating is undefined.
func ComputeNextSchedule(current *models.ReviewProgress, rating models.Rating, now time.Time) models.ReviewProgress {
	var next models.ReviewProgress
	if current == nil {
		next = models.NewReviewProgress("", "")
	} else {
		next = *current
	}
	if !next.State.IsValid() {
		next.State = models.StateNew
	}

	// Difficulty moves first: the growth factor below reads the updated value.
	next.Difficulty = UpdateDifficulty(next.Difficulty, rating)

	o := success
	if rating.IsLapse() {
		o = lapse
	}
	t := transitions[next.State][o]

	next.Stability = t.stability(next.Stability, rating, next.Difficulty)
	if t.resetReps {
		next.RepetitionCount = 0
	} else {
		next.RepetitionCount++
	}
	next.State = t.next
	next.LastReviewAt = now
	next.NextReviewAt = NextReviewTime(now, next.Stability)

	return next
}

// UpdateDifficulty applies the per-rating difficulty delta and clamps the result to [1, 10].
func UpdateDifficulty(difficulty float64, rating models.Rating) float64 {
	return clamp(difficulty+difficultyDelta[rating], MinDifficulty, MaxDifficulty)
}

// GrowthFactor is the stability multiplier for a successful review of a Learning or Review item.
func GrowthFactor(difficulty float64, rating models.Rating) float64 {
	factor := BaseGrowthFactor
	factor -= (difficulty - 5) * DifficultySensitivity
	switch rating {
	case models.RatingEasy:
		factor *= EasyBonus
	case models.RatingHard:
		factor *= HardPenalty
	}
	if factor < MinGrowthFactor {
		factor = MinGrowthFactor
	}
	return factor
}

// Interval converts a stability in fractional days to a duration,
// saturating at the longest representable duration.
func Interval(stabilityDays float64) time.Duration {
	if stabilityDays >= maxDurationDays {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(stabilityDays * float64(24*time.Hour))
}

// NextReviewTime returns from plus stabilityDays, capped at MaxReviewTime.
func NextReviewTime(from time.Time, stabilityDays float64) time.Time {
	var next time.Time
	if stabilityDays < maxDurationDays {
		next = from.Add(Interval(stabilityDays))
	} else {
		// whole days in UTC, where every day is 24h, then the fractional remainder
		whole := math.Min(math.Floor(stabilityDays), maxWholeDays)
		next = from.UTC().AddDate(0, 0, int(whole)).Add(Interval(stabilityDays - whole)).In(from.Location())
	}
	if next.After(MaxReviewTime) {
		return MaxReviewTime.In(from.Location())
	}
	return next
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
