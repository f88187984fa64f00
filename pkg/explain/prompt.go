package explain

import (
	"fmt"
	"strings"

	"github.com/KarikariSamuelZachary/praxis-move-explainer/pkg/detect"
)

// systemPrompt frames the model as a coach rather than an engine.
const systemPrompt = "You are an experienced chess coach who explains mistakes clearly and concisely."

// BuildPrompt renders the coach prompt for a mistake. Evaluations are
// converted from centipawns to pawns for readability.
func BuildPrompt(m detect.Mistake) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are a chess coach explaining a mistake to a student.\n\n")
	fmt.Fprintf(&b, "Ply %d (%s to move)\n", m.Ply, m.Color)
	fmt.Fprintf(&b, "Move played: %s\n", m.MovePlayed)
	fmt.Fprintf(&b, "Best move: %s\n", m.BestMove)
	fmt.Fprintf(&b, "Evaluation: %+.1f → %+.1f pawns\n", pawns(m.EvalBefore), pawns(m.EvalAfter))
	fmt.Fprintf(&b, "Drop: %.1f pawns\n\n", pawns(m.DeltaCP))

	b.WriteString(`Explain this mistake concisely using this exact structure:

WHY IT LOOKED GOOD:
[One sentence about what the player was trying to accomplish]

WHY IT FAILED:
[1-2 sentences about the tactical or strategic problem]

CONCEPT:
[One phrase naming the chess principle violated, e.g. 'King safety' or 'Piece coordination']

PATTERN:
[One sentence about the general pattern to recognize in similar positions]

Be direct and educational. Avoid engine terminology.`)

	return b.String()
}

func pawns(cp int) float64 {
	return float64(cp) / 100.0
}
