package view

import (
	"cmp"
	"slices"
	"time"

	"taskorbit/internal/task"
)

type RangeMode string

const (
	RangeAll    RangeMode = "all"
	RangeToday  RangeMode = "today"
	RangeWeek   RangeMode = "week"
	RangeMonth  RangeMode = "month"
	RangeCustom RangeMode = "custom"
)

var rangeModes = []RangeMode{RangeAll, RangeToday, RangeWeek, RangeMonth, RangeCustom}

// Next returns the mode after m in cycling order.
func (m RangeMode) Next() RangeMode {
	i := slices.Index(rangeModes, m)
	return rangeModes[(i+1)%len(rangeModes)]
}

// DateRange restricts records by the calendar day of their reference field.
// Start and End only matter in custom mode and are both inclusive.
type DateRange struct {
	Mode  RangeMode `json:"mode"`
	Start task.Date `json:"start"`
	End   task.Date `json:"end"`
}

// NoOp reports whether r keeps every record.
func (r DateRange) NoOp() bool {
	switch r.Mode {
	case RangeToday, RangeWeek, RangeMonth:
		return false
	case RangeCustom:
		return r.Start.IsZero() || r.End.IsZero()
	}
	return true
}

// Contains reports whether a record whose reference is ref passes r.
// Unset references pass only a no-op range.
func (r DateRange) Contains(ref, now time.Time) bool {
	if r.NoOp() {
		return true
	}
	if ref.IsZero() {
		return false
	}
	day := task.DateOf(ref).Time
	today := task.DateOf(now).Time
	switch r.Mode {
	case RangeToday:
		return day.Equal(today)
	case RangeWeek:
		return !day.Before(today.AddDate(0, 0, -7))
	case RangeMonth:
		return !day.Before(today.AddDate(0, -1, 0))
	case RangeCustom:
		return !day.Before(r.Start.Time) && !day.After(r.End.Time)
	}
	return true
}

func FilterRange(tasks []task.Task, ref Field, r DateRange, now time.Time) []task.Task {
	if r.NoOp() {
		return tasks
	}
	out := make([]task.Task, 0, len(tasks))
	for _, t := range tasks {
		if r.Contains(ref.Of(t), now) {
			out = append(out, t)
		}
	}
	return out
}

type SortOrder string

const (
	SortDefault    SortOrder = "default"
	SortAscending  SortOrder = "asc"
	SortDescending SortOrder = "desc"
)

// Next cycles default, ascending, descending.
func (s SortOrder) Next() SortOrder {
	switch s {
	case SortAscending:
		return SortDescending
	case SortDescending:
		return SortDefault
	}
	return SortAscending
}

// Sort orders tasks stably by ref. Unset values go last in ascending order
// and first in descending order. The default order returns tasks untouched.
func Sort(tasks []task.Task, ref Field, order SortOrder) []task.Task {
	if order != SortAscending && order != SortDescending {
		return tasks
	}
	out := slices.Clone(tasks)
	slices.SortStableFunc(out, func(a, b task.Task) int {
		c := compareTimes(ref.Of(a), ref.Of(b))
		if order == SortDescending {
			return -c
		}
		return c
	})
	return out
}

func compareTimes(a, b time.Time) int {
	switch {
	case a.IsZero() && b.IsZero():
		return 0
	case a.IsZero():
		return 1
	case b.IsZero():
		return -1
	}
	return cmp.Compare(a.UnixNano(), b.UnixNano())
}

// State is the filter state a user holds for one view.
type State struct {
	Categories Categories `json:"categories"`
	Range      DateRange  `json:"range"`
	Sort       SortOrder  `json:"sort"`
}

// DefaultState filters nothing and keeps service order.
func DefaultState() State {
	return State{Range: DateRange{Mode: RangeAll}, Sort: SortDefault}
}

// Apply runs the category filter, the date filter and the sort, in that order.
func (s State) Apply(tasks []task.Task, ref Field, now time.Time) []task.Task {
	out := FilterCategories(tasks, s.Categories)
	out = FilterRange(out, ref, s.Range, now)
	return Sort(out, ref, s.Sort)
}
