package review

import (
	"encoding"
	"encoding/json"
	"fmt"
)

// Outcome is the result of presenting a card for review.
type Outcome int

const (
	Correct   Outcome = iota + 1 // The learner identified the better move.
	Incorrect                    // The learner repeated or missed the mistake.
)

var (
	outcomeNames  = [...]string{Correct: "Correct", Incorrect: "Incorrect"}
	outcomeByName = map[string]Outcome{
		"Correct":   Correct,
		"Incorrect": Incorrect,
	}
)

// Compile-time interface checks.
var (
	_ fmt.Stringer             = Outcome(0)
	_ json.Marshaler           = Outcome(0)
	_ json.Unmarshaler         = (*Outcome)(nil)
	_ encoding.TextMarshaler   = Outcome(0)
	_ encoding.TextUnmarshaler = (*Outcome)(nil)
)

// IsValid reports whether o is a defined outcome.
func (o Outcome) IsValid() bool {
	return o == Correct || o == Incorrect
}

// String returns "Correct" or "Incorrect"; for invalid values it returns
// "Outcome(n)".
func (o Outcome) String() string {
	if o.IsValid() {
		return outcomeNames[o]
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// MarshalText implements encoding.TextMarshaler.
func (o Outcome) MarshalText() ([]byte, error) {
	if !o.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidOutcome, int(o))
	}
	return []byte(outcomeNames[o]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (o *Outcome) UnmarshalText(text []byte) error {
	v, ok := outcomeByName[string(text)]
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidOutcome, text)
	}
	*o = v
	return nil
}

// MarshalJSON implements json.Marshaler. Outcome serializes as a JSON string.
func (o Outcome) MarshalJSON() ([]byte, error) {
	text, err := o.MarshalText()
	if err != nil {
		return nil, err
	}
	return json.Marshal(string(text))
}

// UnmarshalJSON implements json.Unmarshaler. Expects a JSON string.
func (o *Outcome) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidOutcome, data)
	}
	return o.UnmarshalText([]byte(s))
}
