// Package review implements the spaced-repetition state machine for
// mistake cards. The transition function is pure: it depends only on the
// card's scheduling state and the review outcome, so it can be tested and
// replayed without storage.
package review

import (
	"encoding"
	"encoding/json"
	"fmt"
)

// State represents the repetition stage of a mistake card.
type State int

const (
	New       State = iota + 1 // Created, never reviewed.
	Learning                   // In initial learning, short intervals.
	Reviewing                  // In the long-term growing-interval cycle.
	Mastered                   // Held the capped interval repeatedly.
	Lapsed                     // Failed out of Reviewing or Mastered.
)

var (
	stateNames = [...]string{
		New: "New", Learning: "Learning", Reviewing: "Reviewing",
		Mastered: "Mastered", Lapsed: "Lapsed",
	}
	stateByName = map[string]State{
		"New":       New,
		"Learning":  Learning,
		"Reviewing": Reviewing,
		"Mastered":  Mastered,
		"Lapsed":    Lapsed,
	}
)

// Compile-time interface checks.
var (
	_ fmt.Stringer             = State(0)
	_ json.Marshaler           = State(0)
	_ json.Unmarshaler         = (*State)(nil)
	_ encoding.TextMarshaler   = State(0)
	_ encoding.TextUnmarshaler = (*State)(nil)
)

// IsValid reports whether s is a defined state.
func (s State) IsValid() bool {
	return s >= New && s <= Lapsed
}

// String returns the name of the state. For invalid values it returns
// "State(n)".
func (s State) String() string {
	if s.IsValid() {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	if !s.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidState, int(s))
	}
	return []byte(stateNames[s]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(text []byte) error {
	v, ok := stateByName[string(text)]
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidState, text)
	}
	*s = v
	return nil
}

// MarshalJSON implements json.Marshaler. State serializes as a JSON string.
func (s State) MarshalJSON() ([]byte, error) {
	text, err := s.MarshalText()
	if err != nil {
		return nil, err
	}
	return json.Marshal(string(text))
}

// UnmarshalJSON implements json.Unmarshaler. Expects a JSON string.
func (s *State) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidState, data)
	}
	return s.UnmarshalText([]byte(str))
}
