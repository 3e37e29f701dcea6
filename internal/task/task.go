// Package task holds the entities the task service owns: tasks, their
// logs and recurring templates. The client only ever holds copies of them
// for the lifetime of one render.
package task

import "slices"

type Status string

const (
	StatusOngoing Status = "ONGOING"
	StatusWaiting Status = "WAITING"
	StatusDone    Status = "DONE"
)

var statuses = []Status{StatusOngoing, StatusWaiting, StatusDone}

func (s Status) Valid() bool {
	return slices.Contains(statuses, s)
}

// Size is the rough effort estimate. The zero value means unset.
type Size string

const (
	SizeUnder10Min Size = "UNDER_10_MIN"
	SizeUnder30Min Size = "UNDER_30_MIN"
	SizeOver1Hour  Size = "OVER_1_HOUR"
)

// Sizes lists the sizes in the order forms offer them.
var Sizes = []Size{SizeUnder10Min, SizeUnder30Min, SizeOver1Hour}

// Valid reports whether s is unset or one of Sizes.
func (s Size) Valid() bool {
	return s == "" || slices.Contains(Sizes, s)
}

type Task struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Category     string    `json:"category,omitempty"`
	Size         Size      `json:"size,omitempty"`
	Status       Status    `json:"status"`
	ScheduleDate Date      `json:"scheduleDate"`
	WorkDate     Date      `json:"workDate"`
	DueDate      Date      `json:"dueDate"`
	CreatedAt    Timestamp `json:"createdAt"`
	UpdatedAt    Timestamp `json:"updatedAt"`
	// NextAction mirrors the latest log entry. The service derives it.
	NextAction string `json:"nextAction,omitempty"`
}

func (t Task) CategoryLabel() string {
	return EffectiveCategory(t.Category)
}

// Draft returns the editable part of t, ready to be changed and resubmitted.
// The service echoes the due date as scheduleDate, so that stands in when
// dueDate is absent.
func (t Task) Draft() TaskDraft {
	due := t.DueDate
	if due.IsZero() {
		due = t.ScheduleDate
	}
	return TaskDraft{
		Title:    t.Title,
		Category: t.Category,
		Size:     t.Size,
		Status:   t.Status,
		DueDate:  due,
	}
}
