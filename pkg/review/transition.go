package review

import "time"

// CardState is the scheduling state carried by one card. It is the full
// input and output of the transition function; no other card data affects
// scheduling.
type CardState struct {
	State     State         `json:"state"`
	Interval  time.Duration `json:"interval"`
	Streak    int           `json:"streak"`     // consecutive Correct outcomes in Learning
	CapStreak int           `json:"cap_streak"` // consecutive Correct outcomes at the capped interval
	Lapses    int           `json:"lapses"`     // lifetime lapse count
}

// NewCardState is the state of a freshly created card: never reviewed,
// due immediately.
func NewCardState() CardState {
	return CardState{State: New}
}

// Next applies one review outcome and returns the resulting state. The
// input is not mutated. Interval only decreases on a lapse or learning
// reset, where it returns to MinInterval.
func (p Params) Next(s CardState, outcome Outcome) (CardState, error) {
	p = p.WithDefaults()
	if !s.State.IsValid() {
		return CardState{}, ErrInvalidState
	}
	if !outcome.IsValid() {
		return CardState{}, ErrInvalidOutcome
	}

	switch outcome {
	case Correct:
		return p.nextCorrect(s), nil
	default:
		return p.nextIncorrect(s), nil
	}
}

func (p Params) nextCorrect(s CardState) CardState {
	switch s.State {
	case New, Lapsed:
		s.State = Learning
		s.Interval = p.MinInterval
		s.Streak = 1

	case Learning:
		if s.Streak >= 1 {
			// Second consecutive Correct graduates the card.
			s.State = Reviewing
			s.Interval = p.grow(s.Interval)
			s.Streak = 0
		} else {
			s.Interval = p.MinInterval
			s.Streak = 1
		}

	case Reviewing:
		s.Interval = p.grow(s.Interval)
		if s.Interval >= p.MaxInterval {
			s.CapStreak++
			if s.CapStreak >= p.MasteryStreak {
				s.State = Mastered
			}
		}

	case Mastered:
		s.Interval = p.MaxInterval
	}
	return s
}

func (p Params) nextIncorrect(s CardState) CardState {
	switch s.State {
	case Reviewing, Mastered:
		s.State = Lapsed
		s.Lapses++
	case New:
		s.State = Learning
	}
	// Lapsed and Learning stay put on a miss.
	s.Interval = p.MinInterval
	s.Streak = 0
	s.CapStreak = 0
	return s
}

// grow multiplies the interval by the growth factor, capped at
// MaxInterval. An interval below the minimum (a card graduating out of
// Learning) grows from the minimum.
func (p Params) grow(interval time.Duration) time.Duration {
	if interval < p.MinInterval {
		interval = p.MinInterval
	}
	grown := time.Duration(float64(interval) * p.GrowthFactor)
	if grown > p.MaxInterval {
		return p.MaxInterval
	}
	return grown
}

// ShouldArchive reports whether a card has lapsed past the configured
// ceiling and should be retired from the due queue.
func (p Params) ShouldArchive(s CardState) bool {
	return s.Lapses > p.WithDefaults().LapseCeiling
}
