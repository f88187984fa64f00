// Package explain turns detected mistakes into coach-style explanations,
// backed by a shared content-addressed cache so identical positions across
// games and users are explained once.
package explain

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/KarikariSamuelZachary/praxis-move-explainer/pkg/detect"
)

// ErrFailed indicates explanation generation exhausted its retries. The
// mistake should be kept with a pending explanation and swept later.
var ErrFailed = errors.New("explain: generation failed")

// Provenance records where an explanation came from.
type Provenance string

const (
	ProvenanceCache     Provenance = "cache"     // served from the shared cache
	ProvenanceGenerated Provenance = "generated" // freshly generated this call
)

// Explanation is one cached explanation of a mistake. Entries are immutable
// once written; a change in move context produces a new cache key, never an
// edit.
type Explanation struct {
	Key         string     `json:"key"`          // content address: hash of position key + move context
	PositionKey string     `json:"position_key"` // FEN of the position before the move
	ContextHash string     `json:"context_hash"` // hash of the move context alone
	Text        string     `json:"text"`         // full explanation text as generated
	Category    string     `json:"category"`     // chess concept involved, e.g. "King safety"
	WhyGood     string     `json:"why_good"`     // what the played move seemed to accomplish
	WhyFailed   string     `json:"why_failed"`   // the tactical or strategic problem
	Pattern     string     `json:"pattern"`      // the general pattern to recognize
	Provenance  Provenance `json:"provenance"`
	CreatedAt   time.Time  `json:"created_at"`
}

// MoveContext derives the deterministic move context of a mistake: the
// side, the move played, and the move that should have been played. Two
// mistakes in the same position with the same context share an explanation.
func MoveContext(m detect.Mistake) string {
	return fmt.Sprintf("%s|%s|%s", m.Color, m.MovePlayed, m.BestMove)
}

// CacheKey computes the content address for a (position, move context)
// pair.
func CacheKey(positionKey, moveContext string) string {
	h := sha256.Sum256([]byte(positionKey + "\x00" + moveContext))
	return hex.EncodeToString(h[:])
}

// ContextHash computes the hash of the move context alone.
func ContextHash(moveContext string) string {
	h := sha256.Sum256([]byte(moveContext))
	return hex.EncodeToString(h[:])
}
