package review

import (
	"errors"
	"testing"
	"time"
)

// TestTransitionLifecycle walks the canonical card life: two correct
// answers graduate the card, a miss lapses it, and a correct answer after
// the lapse restarts learning at the minimum interval.
func TestTransitionLifecycle(t *testing.T) {
	p := DefaultParams()
	s := NewCardState()

	s, err := p.Next(s, Correct)
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if s.State != Learning || s.Interval != 24*time.Hour || s.Streak != 1 {
		t.Fatalf("after first correct: %+v, want Learning at 24h streak 1", s)
	}

	s, err = p.Next(s, Correct)
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if s.State != Reviewing || s.Interval != 48*time.Hour {
		t.Fatalf("after second correct: %+v, want Reviewing at 48h", s)
	}

	s, err = p.Next(s, Incorrect)
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if s.State != Lapsed || s.Interval != 24*time.Hour || s.Lapses != 1 {
		t.Fatalf("after miss: %+v, want Lapsed at 24h with 1 lapse", s)
	}

	s, err = p.Next(s, Correct)
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if s.State != Learning || s.Interval != 24*time.Hour || s.Streak != 1 {
		t.Fatalf("after recovery: %+v, want Learning at 24h streak 1", s)
	}
	if s.Lapses != 1 {
		t.Errorf("Lapses = %d, recovery must not erase lapse history", s.Lapses)
	}
}

// TestTransitionIntervalMonotonic verifies the interval never shrinks on a
// correct streak and the card eventually masters at the capped interval.
func TestTransitionIntervalMonotonic(t *testing.T) {
	p := DefaultParams()
	s := NewCardState()

	prev := time.Duration(0)
	for i := 0; i < 30; i++ {
		next, err := p.Next(s, Correct)
		if err != nil {
			t.Fatalf("Next failed at step %d: %v", i, err)
		}
		if next.Interval < prev {
			t.Fatalf("interval shrank on correct answer at step %d: %v -> %v", i, prev, next.Interval)
		}
		if next.Interval > p.MaxInterval {
			t.Fatalf("interval exceeded cap at step %d: %v", i, next.Interval)
		}
		prev = next.Interval
		s = next
	}

	if s.State != Mastered {
		t.Errorf("state after long correct streak = %v, want Mastered", s.State)
	}
	if s.Interval != p.MaxInterval {
		t.Errorf("interval after mastery = %v, want %v", s.Interval, p.MaxInterval)
	}
	if s.Lapses != 0 {
		t.Errorf("Lapses = %d, want 0", s.Lapses)
	}
}

// TestTransitionMasteryStreak verifies mastery requires holding the cap
// for MasteryStreak consecutive correct answers.
func TestTransitionMasteryStreak(t *testing.T) {
	p := Params{
		MinInterval:   10 * time.Minute,
		MaxInterval:   40 * time.Minute,
		GrowthFactor:  2.0,
		MasteryStreak: 3,
		LapseCeiling:  8,
	}
	s := NewCardState()

	// 10m learning, 20m on graduation, 40m hits the cap.
	for i := 0; i < 3; i++ {
		var err error
		s, err = p.Next(s, Correct)
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
	}
	if s.State != Reviewing || s.Interval != p.MaxInterval || s.CapStreak != 1 {
		t.Fatalf("at cap: %+v, want Reviewing at cap with CapStreak 1", s)
	}

	s, _ = p.Next(s, Correct)
	if s.State != Reviewing || s.CapStreak != 2 {
		t.Fatalf("second hold: %+v, want Reviewing with CapStreak 2", s)
	}

	s, _ = p.Next(s, Correct)
	if s.State != Mastered || s.CapStreak != 3 {
		t.Fatalf("third hold: %+v, want Mastered", s)
	}

	// Mastered cards stay put on further correct answers.
	s, _ = p.Next(s, Correct)
	if s.State != Mastered || s.Interval != p.MaxInterval {
		t.Fatalf("mastered correct: %+v, want unchanged Mastered at cap", s)
	}
}

// TestTransitionLapseFromMastered verifies a miss drops a mastered card
// back to the minimum interval and counts a lapse.
func TestTransitionLapseFromMastered(t *testing.T) {
	p := DefaultParams()
	s := CardState{State: Mastered, Interval: p.MaxInterval, CapStreak: 3}

	s, err := p.Next(s, Incorrect)
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if s.State != Lapsed || s.Interval != p.MinInterval {
		t.Fatalf("after miss: %+v, want Lapsed at min interval", s)
	}
	if s.Lapses != 1 || s.CapStreak != 0 {
		t.Errorf("Lapses = %d, CapStreak = %d, want 1 and 0", s.Lapses, s.CapStreak)
	}
}

// TestTransitionMissesOutsideReviewing verifies misses in New, Learning,
// and Lapsed do not count lapses.
func TestTransitionMissesOutsideReviewing(t *testing.T) {
	p := DefaultParams()

	s, _ := p.Next(NewCardState(), Incorrect)
	if s.State != Learning || s.Interval != p.MinInterval || s.Lapses != 0 {
		t.Fatalf("New + miss: %+v, want Learning at min with no lapse", s)
	}

	s, _ = p.Next(s, Incorrect)
	if s.State != Learning || s.Lapses != 0 {
		t.Fatalf("Learning + miss: %+v, want Learning with no lapse", s)
	}

	lapsed := CardState{State: Lapsed, Interval: p.MinInterval, Lapses: 2}
	s, _ = p.Next(lapsed, Incorrect)
	if s.State != Lapsed || s.Lapses != 2 {
		t.Fatalf("Lapsed + miss: %+v, want Lapsed with lapse count unchanged", s)
	}
}

// TestShouldArchive verifies the lapse ceiling.
func TestShouldArchive(t *testing.T) {
	p := DefaultParams() // ceiling 8

	if p.ShouldArchive(CardState{Lapses: 8}) {
		t.Error("8 lapses should not archive at ceiling 8")
	}
	if !p.ShouldArchive(CardState{Lapses: 9}) {
		t.Error("9 lapses should archive at ceiling 8")
	}
}

// TestTransitionInvalidInputs tests rejection of undefined states and
// outcomes.
func TestTransitionInvalidInputs(t *testing.T) {
	p := DefaultParams()

	if _, err := p.Next(CardState{State: State(99)}, Correct); !errors.Is(err, ErrInvalidState) {
		t.Errorf("invalid state: got %v, want ErrInvalidState", err)
	}
	if _, err := p.Next(NewCardState(), Outcome(0)); !errors.Is(err, ErrInvalidOutcome) {
		t.Errorf("invalid outcome: got %v, want ErrInvalidOutcome", err)
	}
}

// TestTransitionDoesNotMutateInput verifies Next is pure.
func TestTransitionDoesNotMutateInput(t *testing.T) {
	p := DefaultParams()
	s := NewCardState()
	if _, err := p.Next(s, Correct); err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if s != NewCardState() {
		t.Errorf("input state mutated: %+v", s)
	}
}

// TestReplay verifies a card's state can be rebuilt from its outcome
// history alone.
func TestReplay(t *testing.T) {
	p := DefaultParams()
	outcomes := []Outcome{Correct, Correct, Correct, Incorrect, Correct, Incorrect, Incorrect}

	want := NewCardState()
	var records []Record
	for _, o := range outcomes {
		next, err := p.Next(want, o)
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		want = next
		records = append(records, Record{Outcome: o, NewInterval: next.Interval})
	}

	got, err := p.Replay(records)
	if err != nil {
		t.Fatalf("Replay failed: %v", err)
	}
	if got != want {
		t.Errorf("Replay = %+v, want %+v", got, want)
	}
}

// TestParamsValidate tests parameter consistency checks.
func TestParamsValidate(t *testing.T) {
	if err := DefaultParams().Validate(); err != nil {
		t.Fatalf("defaults must validate: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Params)
	}{
		{"negative min interval", func(p *Params) { p.MinInterval = -time.Hour }},
		{"max below min", func(p *Params) { p.MaxInterval = time.Hour }},
		{"growth factor at 1", func(p *Params) { p.GrowthFactor = 1.0 }},
		{"negative mastery streak", func(p *Params) { p.MasteryStreak = -1 }},
		{"negative lapse ceiling", func(p *Params) { p.LapseCeiling = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.mutate(&p)
			if err := p.Validate(); !errors.Is(err, ErrInvalidParams) {
				t.Errorf("got %v, want ErrInvalidParams", err)
			}
		})
	}
}

// TestParamsWithDefaults verifies zero values fill in while explicit
// values survive.
func TestParamsWithDefaults(t *testing.T) {
	p := Params{MinInterval: time.Hour}.WithDefaults()
	if p.MinInterval != time.Hour {
		t.Errorf("MinInterval = %v, want 1h preserved", p.MinInterval)
	}
	if p.MaxInterval != 180*24*time.Hour {
		t.Errorf("MaxInterval = %v, want 180d default", p.MaxInterval)
	}
	if p.GrowthFactor != 2.0 || p.MasteryStreak != 3 || p.LapseCeiling != 8 {
		t.Errorf("defaults not applied: %+v", p)
	}
}
