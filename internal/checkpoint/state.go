package checkpoint

import "strings"

// State identifies a checkpoint in the pipeline.
type State string

const (
	StateStart            State = "start"
	StateQueriesReady     State = "queries-ready"
	StateShortsReady      State = "shorts-ready"
	StateTranscriptsReady State = "transcripts-ready"
	StateDone             State = "done"
)

var allStates = []State{
	StateStart,
	StateQueriesReady,
	StateShortsReady,
	StateTranscriptsReady,
	StateDone,
}

var nextState = map[State]State{
	StateStart:            StateQueriesReady,
	StateQueriesReady:     StateShortsReady,
	StateShortsReady:      StateTranscriptsReady,
	StateTranscriptsReady: StateDone,
}

// AllStates returns the ordered list of known states.
func AllStates() []State {
	cp := make([]State, len(allStates))
	copy(cp, allStates)
	return cp
}

// ParseState converts a string into a known State. Underscores are accepted
// in place of dashes.
func ParseState(value string) (State, bool) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	normalized = strings.ReplaceAll(normalized, "_", "-")
	if normalized == "" {
		return "", false
	}
	state := State(normalized)
	if _, ok := nextState[state]; ok || state == StateDone {
		return state, true
	}
	return state, false
}

// Next returns the state reached by running the stage for s. Done and
// unknown states have no successor.
func (s State) Next() (State, bool) {
	next, ok := nextState[s]
	return next, ok
}

// Terminal reports whether no further stage can run from s.
func (s State) Terminal() bool {
	return s == StateDone
}

func (s State) String() string {
	return string(s)
}
