package praxis

import "time"

// OperationTrace captures timing data for one ingest, review, or due-query
// operation. Stage names are stable:
//   - "evaluate": external engine analysis
//   - "detect": critical moment detection
//   - "explain": explanation resolution (all mistakes of a game)
//   - "write-cards": mistake and card persistence
//   - "transition": card state transition and commit
//   - "due-query": due card lookup
type OperationTrace struct {
	Spans           []Span `json:"spans"`
	TotalDurationMs int64  `json:"totalDurationMs"`
}

// Span represents a single timed stage within an operation.
type Span struct {
	Name       string           `json:"name"`
	DurationMs int64            `json:"durationMs"`
	OK         bool             `json:"ok"`
	Error      string           `json:"error,omitempty"`
	Counters   map[string]int64 `json:"counters,omitempty"`
}

func newTrace() *OperationTrace {
	return &OperationTrace{Spans: make([]Span, 0)}
}

func (t *OperationTrace) addSpan(span Span) {
	t.Spans = append(t.Spans, span)
	t.TotalDurationMs += span.DurationMs
}

// spanTimer is a helper for measuring span duration
type spanTimer struct {
	name  string
	start int64 // Unix time in milliseconds
	trace *OperationTrace
}

func newSpanTimer(name string, trace *OperationTrace) *spanTimer {
	return &spanTimer{name: name, start: timeNowMs(), trace: trace}
}

// finish completes the span and records it to the trace
func (st *spanTimer) finish(ok bool, err error, counters map[string]int64) {
	span := Span{
		Name:       st.name,
		DurationMs: timeNowMs() - st.start,
		OK:         ok,
		Counters:   counters,
	}
	if err != nil {
		span.Error = err.Error()
	}
	st.trace.addSpan(span)
}

func timeNowMs() int64 {
	return time.Now().UnixMilli()
}
