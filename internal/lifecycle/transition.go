// Package lifecycle moves tasks through their statuses by asking the task
// service, then reloading the current view. It never edits local copies.
package lifecycle

import (
	"taskorbit/internal/notice"
	"taskorbit/internal/task"
)

type Action string

const (
	ActionWait     Action = "waiting"
	ActionActivate Action = "activate"
	ActionComplete Action = "complete"
	ActionDelete   Action = "delete"
)

var (
	ErrIllegalTransition = notice.NewCondition(notice.Soft, notice.KeyIllegal, "action not allowed for task status")
	ErrNotConfirmed      = notice.NewCondition(notice.Soft, notice.KeyNotConfirmed, "delete was not confirmed")
)

var transitions = map[task.Status]map[Action]task.Status{
	task.StatusOngoing: {
		ActionWait:     task.StatusWaiting,
		ActionComplete: task.StatusDone,
	},
	task.StatusWaiting: {
		ActionActivate: task.StatusOngoing,
		ActionComplete: task.StatusDone,
	},
}

// Next returns the status a task in from reaches through a. Delete has no
// target status and reports false.
func Next(from task.Status, a Action) (task.Status, bool) {
	to, ok := transitions[from][a]
	return to, ok
}

// Allowed reports whether a may be requested for a task in status from.
// Delete is allowed from any status.
func Allowed(from task.Status, a Action) bool {
	if a == ActionDelete {
		return true
	}
	_, ok := Next(from, a)
	return ok
}

// Actions lists what may be requested for a task in from, in menu order.
func Actions(from task.Status) []Action {
	var out []Action
	for _, a := range []Action{ActionComplete, ActionWait, ActionActivate, ActionDelete} {
		if Allowed(from, a) {
			out = append(out, a)
		}
	}
	return out
}
