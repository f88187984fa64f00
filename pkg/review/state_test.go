package review

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestStateJSONRoundTrip(t *testing.T) {
	for _, s := range []State{New, Learning, Reviewing, Mastered, Lapsed} {
		data, err := json.Marshal(s)
		if err != nil {
			t.Fatalf("marshal %v: %v", s, err)
		}
		var got State
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("unmarshal %s: %v", data, err)
		}
		if got != s {
			t.Errorf("round trip %v: got %v", s, got)
		}
	}
}

func TestStateInvalid(t *testing.T) {
	if State(0).IsValid() || State(99).IsValid() {
		t.Error("out-of-range states must be invalid")
	}
	if _, err := json.Marshal(State(99)); err == nil {
		t.Error("marshaling an invalid state must fail")
	}
	var s State
	if err := s.UnmarshalText([]byte("Forgotten")); !errors.Is(err, ErrInvalidState) {
		t.Errorf("got %v, want ErrInvalidState", err)
	}
	if got := State(99).String(); got != "State(99)" {
		t.Errorf("String() = %q, want State(99)", got)
	}
}

func TestOutcomeJSONRoundTrip(t *testing.T) {
	for _, o := range []Outcome{Correct, Incorrect} {
		data, err := json.Marshal(o)
		if err != nil {
			t.Fatalf("marshal %v: %v", o, err)
		}
		var got Outcome
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("unmarshal %s: %v", data, err)
		}
		if got != o {
			t.Errorf("round trip %v: got %v", o, got)
		}
	}
}

func TestOutcomeInvalid(t *testing.T) {
	var o Outcome
	if err := o.UnmarshalText([]byte("Maybe")); !errors.Is(err, ErrInvalidOutcome) {
		t.Errorf("got %v, want ErrInvalidOutcome", err)
	}
	if Outcome(0).IsValid() || Outcome(3).IsValid() {
		t.Error("out-of-range outcomes must be invalid")
	}
}
