// Package workflow holds the task lifecycle rules: the status transition table
// and the authorization checks. It has no storage or transport dependencies so
// the API server and the board client evaluate exactly the same rules.
package workflow

import (
	"taskflow/domain/apperrors"
)

// transitions is the only definition of which status changes are legal.
// A status absent from the map (or mapped to nothing) is terminal.
var transitions = map[Status][]Status{
	StatusPendingApproval: {StatusToDo, StatusNeedsChanges, StatusRejected},
	StatusNeedsChanges:    {StatusPendingApproval},
	StatusToDo:            {StatusInProgress, StatusOverdue},
	StatusInProgress:      {StatusCompleted, StatusNeedsChanges, StatusOverdue},
	StatusOverdue:         {StatusInProgress, StatusCompleted},
	StatusRejected:        {},
	StatusCompleted:       {},
}

// CanTransition reports whether a task in status from may move to status to.
func CanTransition(from, to Status) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// CheckTransition is CanTransition returning an *apperrors.IllegalTransition on denial.
func CheckTransition(from, to Status) error {
	if !CanTransition(from, to) {
		return &apperrors.IllegalTransition{From: string(from), To: string(to)}
	}
	return nil
}

// AllowedTargets lists the statuses reachable from from in one step.
func AllowedTargets(from Status) []Status {
	targets := transitions[from]
	out := make([]Status, len(targets))
	copy(out, targets)
	return out
}

func IsTerminal(s Status) bool {
	return len(transitions[s]) == 0
}

// Table returns a copy of the whole transition table, keyed by source status.
// It is what GET /api/v1/workflow/transitions serves.
func Table() map[Status][]Status {
	out := make(map[Status][]Status, len(transitions))
	for from := range transitions {
		out[from] = AllowedTargets(from)
	}
	return out
}
