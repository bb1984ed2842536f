package models

import "fmt"

// Rating is the learner's self-assessment of a single recall attempt.
type Rating int

const (
	RatingAgain Rating = iota + 1 // Forgot the item
	RatingHard                    // Recalled with serious effort
	RatingGood                    // Recalled with some hesitation
	RatingEasy                    // Recalled immediately
)

var ratingNames = [...]string{
	RatingAgain: "Again",
	RatingHard:  "Hard",
	RatingGood:  "Good",
	RatingEasy:  "Easy",
}

// IsValid reports whether r is one of Again, Hard, Good or Easy.
func (r Rating) IsValid() bool {
	return r >= RatingAgain && r <= RatingEasy
}

// IsLapse reports whether the rating means the item was forgotten.
func (r Rating) IsLapse() bool {
	return r == RatingAgain
}

func (r Rating) String() string {
	if r.IsValid() {
		return ratingNames[r]
	}
	return fmt.Sprintf("Rating(%d)", int(r))
}
