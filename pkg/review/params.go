package review

import (
	"fmt"
	"time"
)

// Params configures the repetition schedule.
// Zero values produce defaults; see field comments.
type Params struct {
	MinInterval   time.Duration `json:"min_interval"`   // zero → 24h
	MaxInterval   time.Duration `json:"max_interval"`   // zero → 180 days
	GrowthFactor  float64       `json:"growth_factor"`  // zero → 2.0
	MasteryStreak int           `json:"mastery_streak"` // correct reviews at the cap before Mastered; zero → 3
	LapseCeiling  int           `json:"lapse_ceiling"`  // lapses before a card is archived; zero → 8
}

// DefaultParams returns the default schedule parameters.
func DefaultParams() Params {
	return Params{
		MinInterval:   24 * time.Hour,
		MaxInterval:   180 * 24 * time.Hour,
		GrowthFactor:  2.0,
		MasteryStreak: 3,
		LapseCeiling:  8,
	}
}

// WithDefaults returns a copy of p with zero values replaced by defaults.
func (p Params) WithDefaults() Params {
	d := DefaultParams()
	if p.MinInterval == 0 {
		p.MinInterval = d.MinInterval
	}
	if p.MaxInterval == 0 {
		p.MaxInterval = d.MaxInterval
	}
	if p.GrowthFactor == 0 {
		p.GrowthFactor = d.GrowthFactor
	}
	if p.MasteryStreak == 0 {
		p.MasteryStreak = d.MasteryStreak
	}
	if p.LapseCeiling == 0 {
		p.LapseCeiling = d.LapseCeiling
	}
	return p
}

// Validate checks that the parameters are internally consistent.
func (p Params) Validate() error {
	if p.MinInterval <= 0 {
		return fmt.Errorf("%w: min interval %v must be positive", ErrInvalidParams, p.MinInterval)
	}
	if p.MaxInterval < p.MinInterval {
		return fmt.Errorf("%w: max interval %v below min interval %v", ErrInvalidParams, p.MaxInterval, p.MinInterval)
	}
	if p.GrowthFactor <= 1.0 {
		return fmt.Errorf("%w: growth factor %v must exceed 1.0", ErrInvalidParams, p.GrowthFactor)
	}
	if p.MasteryStreak < 1 {
		return fmt.Errorf("%w: mastery streak %d must be at least 1", ErrInvalidParams, p.MasteryStreak)
	}
	if p.LapseCeiling < 1 {
		return fmt.Errorf("%w: lapse ceiling %d must be at least 1", ErrInvalidParams, p.LapseCeiling)
	}
	return nil
}
