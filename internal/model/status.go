package model

import "fmt"

const (
	RunStatusPending   = "pending"
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusAborted   = "aborted"
)

var allowedRunTransitions = map[string]map[string]bool{
	RunStatusPending: {
		RunStatusRunning: true,
		// zero-identifier runs complete without entering the loop
		RunStatusCompleted: true,
	},
	RunStatusRunning: {
		RunStatusCompleted: true,
		RunStatusAborted:   true,
	},
	RunStatusCompleted: {},
	RunStatusAborted:   {},
}

func CanTransitionRun(from, to string) bool {
	next, ok := allowedRunTransitions[from]
	if !ok {
		return false
	}
	return next[to]
}

// TransitionRunStatus advances a run status, rejecting anything outside the
// pending -> running -> {completed, aborted} machine.
func TransitionRunStatus(current *string, to string) error {
	if !CanTransitionRun(*current, to) {
		return fmt.Errorf("invalid run status transition: %q -> %q", *current, to)
	}
	*current = to
	return nil
}
