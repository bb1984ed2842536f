package models

import (
	"fmt"

	"github.com/pkg/errors"
)

// State is the learning stage of a progress record.
type State int

const (
	StateNew State = iota
	StateLearning
	StateReview
	StateRelearning
)

var (
	stateNames = [...]string{
		StateNew:        "new",
		StateLearning:   "learning",
		StateReview:     "review",
		StateRelearning: "relearning",
	}
	stateByName = map[string]State{
		"new":        StateNew,
		"learning":   StateLearning,
		"review":     StateReview,
		"relearning": StateRelearning,
	}
)

// IsValid reports whether s is a known state.
func (s State) IsValid() bool {
	return s >= StateNew && s <= StateRelearning
}

func (s State) String() string {
	if s.IsValid() {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// ParseState converts a stored state name back to a State.
func ParseState(name string) (State, error) {
	s, ok := stateByName[name]
	if !ok {
		return 0, errors.Errorf("invalid state: %q", name)
	}
	return s, nil
}

// MarshalText implements encoding.TextMarshaler, so State serializes as its name in JSON.
func (s State) MarshalText() ([]byte, error) {
	if !s.IsValid() {
		return nil, errors.Errorf("invalid state: %d", int(s))
	}
	return []byte(stateNames[s]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(text []byte) error {
	v, err := ParseState(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}
