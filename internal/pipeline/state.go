package pipeline

// State is a file's position in the renaming pipeline.
type State string

const (
	StateNew           State = "new"
	StateExtracting    State = "extracting"
	StateResolved      State = "resolved"
	StateBuilt         State = "built"
	StatePostprocessed State = "postprocessed"
	StateProposed      State = "proposed"
	StateCommitted     State = "committed"
	StateSkipped       State = "skipped"
	StateFailed        State = "failed"
)

func (s State) String() string { return string(s) }

// Terminal reports whether the pipeline is done with the file.
func (s State) Terminal() bool {
	switch s {
	case StateCommitted, StateSkipped, StateFailed:
		return true
	}
	return false
}

// transitions is the forward edge set; any non-terminal state may also move
// to StateFailed with a classified reason.
var transitions = map[State]State{
	StateNew:           StateExtracting,
	StateExtracting:    StateResolved,
	StateResolved:      StateBuilt,
	StateBuilt:         StatePostprocessed,
	StatePostprocessed: StateProposed,
}

// CanTransition validates a state change.
func CanTransition(from, to State) bool {
	if from.Terminal() {
		return false
	}
	if to == StateFailed {
		return true
	}
	if transitions[from] == to {
		return true
	}
	// A proposal either commits or is skipped; skips may also short-circuit
	// earlier when no rule matches.
	if to == StateSkipped {
		return from == StateProposed || from == StateExtracting
	}
	return from == StateProposed && to == StateCommitted
}
