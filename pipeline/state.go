package pipeline

import "fmt"

type State string

const (
	StateClassifying           State = "CLASSIFYING"
	StateAwaitingClarification State = "AWAITING_CLARIFICATION"
	StateResolving             State = "RESOLVING"
	StateDone                  State = "DONE"
	StatePartialFailure        State = "PARTIAL_FAILURE"
	StateFailed                State = "FAILED"
)

var transitions = map[State][]State{
	StateClassifying:           {StateAwaitingClarification, StateResolving, StateFailed},
	StateAwaitingClarification: {StateResolving, StateFailed},
	StateResolving:             {StateDone, StatePartialFailure},
}

func (s State) canMoveTo(next State) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s State) Terminal() bool {
	return len(transitions[s]) == 0
}

type machine struct {
	state State
}

func (m *machine) advance(next State) error {
	if !m.state.canMoveTo(next) {
		return fmt.Errorf("illegal transition %s -> %s", m.state, next)
	}
	m.state = next
	return nil
}
