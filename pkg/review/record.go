package review

import "time"

// Record is one entry of a card's append-only review history. History is
// never mutated or truncated, so a card's scheduling state can be rebuilt
// by replaying its records in order.
type Record struct {
	CardID      string        `json:"card_id"`
	ReviewedAt  time.Time     `json:"reviewed_at"`
	PriorState  State         `json:"prior_state"`
	Outcome     Outcome       `json:"outcome"`
	NewInterval time.Duration `json:"new_interval"`
}

// Replay rebuilds a card's scheduling state from its review history,
// starting from a fresh card. Outcomes are applied in slice order.
func (p Params) Replay(records []Record) (CardState, error) {
	s := NewCardState()
	for _, r := range records {
		next, err := p.Next(s, r.Outcome)
		if err != nil {
			return CardState{}, err
		}
		s = next
	}
	return s, nil
}
