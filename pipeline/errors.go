package pipeline

import "platescan"

// RunError is a failure that ended a run. It unwraps to both its kind
// (e.g. platescan.ErrInvalidQuantity) and the underlying cause.
type RunError struct {
	RunID   string
	Kind    error
	Cause   error
	Message string
	Trace   []platescan.TraceEntry
}

func (e *RunError) Error() string {
	return e.Message
}

func (e *RunError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}
