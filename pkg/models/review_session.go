package models

import (
	"time"

	"github.com/pkg/errors"
)

// ErrSessionNotFound is returned by session stores when no session has the requested id.
var ErrSessionNotFound = errors.New("review session not found")

// SessionStatus is the lifecycle status of a review session.
type SessionStatus string

const (
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
	SessionExpired   SessionStatus = "expired"
)

// IsTerminal reports whether no further transitions are allowed.
func (s SessionStatus) IsTerminal() bool {
	return s == SessionCompleted || s == SessionExpired
}

// ReviewSession groups the items selected as due for one learner at one point in time.
// It carries no scheduling logic.
type ReviewSession struct {
	ID        string        `json:"session_id"`
	LearnerID string        `json:"learner_id"`
	ItemIDs   []string      `json:"item_ids"`
	Status    SessionStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}
