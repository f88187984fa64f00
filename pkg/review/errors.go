package review

import "errors"

// Sentinel errors for the review package.
// Use errors.Is to check: errors.Is(err, review.ErrInvalidOutcome)
var (
	ErrInvalidState   = errors.New("review: invalid state")
	ErrInvalidOutcome = errors.New("review: invalid outcome")
	ErrInvalidParams  = errors.New("review: parameters out of bounds")
)
