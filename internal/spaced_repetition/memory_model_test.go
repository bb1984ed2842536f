package spaced_repetition

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/reviewsched/pkg/models"
)

var t0 = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

var allRatings = []models.Rating{models.RatingAgain, models.RatingHard, models.RatingGood, models.RatingEasy}

func days(d float64) time.Duration { return Interval(d) }

func TestComputeNextSchedule_FirstSuccess(t *testing.T) {
	tests := []struct {
		name          string
		rating        models.Rating
		wantStability float64
		wantDiff      float64
	}{
		{"hard", models.RatingHard, 1, 6},
		{"good", models.RatingGood, 3, 4.5},
		{"easy", models.RatingEasy, 5, 3.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeNextSchedule(nil, tt.rating, t0)

			assert.Equal(t, tt.wantStability, got.Stability)
			assert.Equal(t, tt.wantDiff, got.Difficulty)
			assert.Equal(t, models.StateLearning, got.State)
			assert.Equal(t, 1, got.RepetitionCount)
			assert.Equal(t, t0, got.LastReviewAt)
			assert.Equal(t, t0.Add(days(tt.wantStability)), got.NextReviewAt)
		})
	}
}

func TestComputeNextSchedule_LapseResetsFromAnyState(t *testing.T) {
	for _, state := range []models.State{models.StateNew, models.StateLearning, models.StateReview, models.StateRelearning} {
		t.Run(state.String(), func(t *testing.T) {
			current := models.ReviewProgress{
				Stability:       12,
				Difficulty:      4,
				RepetitionCount: 6,
				State:           state,
			}
			got := ComputeNextSchedule(&current, models.RatingAgain, t0)

			assert.Equal(t, models.StateRelearning, got.State)
			assert.Equal(t, LapseStability, got.Stability)
			assert.Equal(t, 0, got.RepetitionCount)
			assert.Equal(t, 6.0, got.Difficulty)
			assert.Equal(t, t0.Add(12*time.Hour), got.NextReviewAt)
		})
	}
}

func TestComputeNextSchedule_RelearningSuccessReturnsToLearning(t *testing.T) {
	current := models.ReviewProgress{Stability: LapseStability, Difficulty: 7, State: models.StateRelearning}
	got := ComputeNextSchedule(&current, models.RatingGood, t0)

	assert.Equal(t, models.StateLearning, got.State)
	assert.Equal(t, 3.0, got.Stability)
	assert.Equal(t, 1, got.RepetitionCount)
	assert.Equal(t, 6.5, got.Difficulty)
}

func TestComputeNextSchedule_GrowthUsesUpdatedDifficulty(t *testing.T) {
	current := models.ReviewProgress{Stability: 10, Difficulty: 5, RepetitionCount: 2, State: models.StateReview}

	tests := []struct {
		rating     models.Rating
		wantFactor float64
	}{
		// difficulty 5 -> 6, factor 2.5 - 0.2 = 2.3, then * 0.8
		{models.RatingHard, 2.3 * HardPenalty},
		// difficulty 5 -> 4.5, factor 2.6
		{models.RatingGood, 2.6},
		// difficulty 5 -> 3.5, factor 2.8 * 1.3
		{models.RatingEasy, 2.8 * EasyBonus},
	}
	for _, tt := range tests {
		t.Run(tt.rating.String(), func(t *testing.T) {
			got := ComputeNextSchedule(&current, tt.rating, t0)

			assert.InDelta(t, 10*tt.wantFactor, got.Stability, 1e-9)
			assert.Equal(t, models.StateReview, got.State)
			assert.Equal(t, 3, got.RepetitionCount)
		})
	}
}

func TestComputeNextSchedule_GrowthFloor(t *testing.T) {
	for _, difficulty := range []float64{1, 5, 8, 9.5, 10} {
		for _, rating := range allRatings[1:] {
			current := models.ReviewProgress{Stability: 4, Difficulty: difficulty, State: models.StateReview}
			got := ComputeNextSchedule(&current, rating, t0)
			assert.GreaterOrEqualf(t, got.Stability, current.Stability*MinGrowthFactor,
				"difficulty=%v rating=%v", difficulty, rating)
		}
	}
	// maximum difficulty rated Hard hits the floor exactly
	assert.Equal(t, MinGrowthFactor, GrowthFactor(MaxDifficulty, models.RatingHard))
}

func TestComputeNextSchedule_DifficultyStaysInBounds(t *testing.T) {
	var current *models.ReviewProgress
	now := t0
	// a deterministic but irregular rating sequence
	seq := []int{0, 0, 0, 0, 0, 0, 1, 3, 3, 3, 3, 3, 3, 3, 3, 2, 0, 1, 3, 2, 2, 0, 0, 3}
	for i, idx := range seq {
		next := ComputeNextSchedule(current, allRatings[idx], now)
		require.GreaterOrEqualf(t, next.Difficulty, MinDifficulty, "step %d", i)
		require.LessOrEqualf(t, next.Difficulty, MaxDifficulty, "step %d", i)
		require.GreaterOrEqualf(t, next.Stability, 0.0, "step %d", i)
		current = &next
		now = next.NextReviewAt
	}
	assert.Equal(t, MaxDifficulty, UpdateDifficulty(9.5, models.RatingAgain))
	assert.Equal(t, MinDifficulty, UpdateDifficulty(1.5, models.RatingEasy))
}

func TestComputeNextSchedule_Deterministic(t *testing.T) {
	current := models.ReviewProgress{
		LearnerID:  "learner",
		ItemID:     "item",
		Stability:  3.7,
		Difficulty: 6.2,
		State:      models.StateReview,
	}
	for _, rating := range allRatings {
		first := ComputeNextSchedule(&current, rating, t0)
		for i := 0; i < 5; i++ {
			assert.Equal(t, first, ComputeNextSchedule(&current, rating, t0))
		}
	}
}

func TestComputeNextSchedule_DoesNotMutateInput(t *testing.T) {
	current := models.ReviewProgress{Stability: 3, Difficulty: 5, RepetitionCount: 1, State: models.StateLearning}
	before := current

	_ = ComputeNextSchedule(&current, models.RatingEasy, t0)

	assert.Equal(t, before, current)
}

func TestComputeNextSchedule_KeepsIdentity(t *testing.T) {
	current := models.NewReviewProgress("learner-1", "item-9")
	got := ComputeNextSchedule(&current, models.RatingGood, t0)

	assert.Equal(t, "learner-1", got.LearnerID)
	assert.Equal(t, "item-9", got.ItemID)
}

func TestComputeNextSchedule_FreshItemThreeRatings(t *testing.T) {
	first := ComputeNextSchedule(nil, models.RatingGood, t0)
	require.Equal(t, 3.0, first.Stability)
	require.Equal(t, models.StateLearning, first.State)
	require.Equal(t, t0.Add(72*time.Hour), first.NextReviewAt)
	require.Equal(t, 4.5, first.Difficulty)

	t1 := t0.Add(72 * time.Hour)
	second := ComputeNextSchedule(&first, models.RatingGood, t1)
	// difficulty 4.5 -> 4.0 before growth: factor 2.5 - (4.0-5)*0.2 = 2.7
	assert.Equal(t, 4.0, second.Difficulty)
	assert.InDelta(t, 8.1, second.Stability, 1e-9)
	assert.Equal(t, models.StateReview, second.State)
	assert.Equal(t, 2, second.RepetitionCount)

	third := ComputeNextSchedule(&second, models.RatingAgain, second.NextReviewAt)
	assert.Equal(t, LapseStability, third.Stability)
	assert.Equal(t, models.StateRelearning, third.State)
	assert.Equal(t, 0, third.RepetitionCount)
	assert.Equal(t, second.Difficulty+2, third.Difficulty)
}

func TestInterval_FractionalDays(t *testing.T) {
	assert.Equal(t, 12*time.Hour, Interval(0.5))
	assert.Equal(t, 36*time.Hour, Interval(1.5))
	assert.Equal(t, time.Duration(0), Interval(0))
}

func TestInterval_Saturates(t *testing.T) {
	assert.Equal(t, time.Duration(math.MaxInt64), Interval(125608))
	assert.Equal(t, time.Duration(math.MaxInt64), Interval(math.Inf(1)))
	assert.Positive(t, Interval(106750.9))
}

func TestNextReviewTime(t *testing.T) {
	tests := []struct {
		name      string
		stability float64
		want      time.Time
	}{
		{"fractional", 0.5, t0.Add(12 * time.Hour)},
		{"beyond duration range", 125608, t0.AddDate(0, 0, 125608)},
		{"beyond duration range with remainder", 200000.25, t0.AddDate(0, 0, 200000).Add(6 * time.Hour)},
		{"saturates", 5e6, MaxReviewTime},
		{"infinite", math.Inf(1), MaxReviewTime},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextReviewTime(t0, tt.stability))
		})
	}
}

func TestComputeNextSchedule_EasyStreakNeverGoesBackwards(t *testing.T) {
	now := t0
	var current *models.ReviewProgress
	for i := 1; i <= 40; i++ {
		next := ComputeNextSchedule(current, models.RatingEasy, now)
		require.False(t, next.NextReviewAt.Before(now), "easy #%d: next %s before now %s", i, next.NextReviewAt, now)
		if now.Before(MaxReviewTime) {
			require.True(t, next.NextReviewAt.After(now), "easy #%d: next %s not after now %s", i, next.NextReviewAt, now)
		}
		current, now = &next, next.NextReviewAt
	}
	assert.Equal(t, MaxReviewTime, now)
}
