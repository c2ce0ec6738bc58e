package pipeline

import "platescan"

// Trace is the append-only record of one run. Only the goroutine that owns the run writes to it.
type Trace struct {
	entries []platescan.TraceEntry
}

func newTrace(prior []platescan.TraceEntry) *Trace {
	t := &Trace{entries: make([]platescan.TraceEntry, 0, len(prior)+8)}
	t.entries = append(t.entries, prior...)
	return t
}

// Append records an entry and stamps it with the next ordinal.
func (t *Trace) Append(stage string, outcome platescan.Outcome, detail string) {
	t.entries = append(t.entries, platescan.TraceEntry{
		Stage:            stage,
		Outcome:          outcome,
		Detail:           detail,
		TimestampOrdinal: len(t.entries) + 1,
	})
}

// Entries returns a copy, so callers cannot change the run's history.
func (t *Trace) Entries() []platescan.TraceEntry {
	out := make([]platescan.TraceEntry, len(t.entries))
	copy(out, t.entries)
	return out
}

func (t *Trace) Len() int {
	return len(t.entries)
}
