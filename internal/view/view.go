// Package view turns a raw collection fetched from the task service into
// what a screen shows: buckets, filtered and ordered rows, and delays.
// Everything here is pure; callers pass the current time explicitly.
package view

import (
	"fmt"
	"time"

	"taskorbit/internal/task"
)

type ID string

const (
	Today  ID = "today"
	Later  ID = "later"
	Done   ID = "done"
	Record ID = "record"
	Repeat ID = "repeat"
)

// IDs lists the views in tab order.
var IDs = []ID{Today, Later, Done, Record, Repeat}

func (id ID) Valid() bool {
	for _, v := range IDs {
		if v == id {
			return true
		}
	}
	return false
}

func ParseID(s string) (ID, error) {
	id := ID(s)
	if !id.Valid() {
		return "", fmt.Errorf("unknown view %q", s)
	}
	return id, nil
}

// Field names a date-valued task attribute.
type Field int

const (
	FieldNone Field = iota
	FieldCreatedAt
	FieldUpdatedAt
	FieldScheduleDate
	FieldDueDate
)

// Of returns the value of f on t. The zero time means unset.
func (f Field) Of(t task.Task) time.Time {
	switch f {
	case FieldCreatedAt:
		return t.CreatedAt.Time
	case FieldUpdatedAt:
		return t.UpdatedAt.Time
	case FieldScheduleDate:
		return t.ScheduleDate.Time
	case FieldDueDate:
		return t.DueDate.Time
	}
	return time.Time{}
}

// Mapping is the pair of fields a view filters, sorts and measures delay on.
type Mapping struct {
	Reference Field
	Delay     Field
}

var mappings = map[ID]Mapping{
	Today:  {Reference: FieldCreatedAt, Delay: FieldScheduleDate},
	Later:  {Reference: FieldScheduleDate},
	Done:   {Reference: FieldUpdatedAt},
	Record: {Reference: FieldUpdatedAt},
}

// MappingFor returns the fields view id works on. Repeat has none.
func MappingFor(id ID) Mapping {
	return mappings[id]
}

type BucketName string

const (
	BucketActive  BucketName = "active"
	BucketWaiting BucketName = "waiting"
	BucketAll     BucketName = "all"
)

type Bucket struct {
	Name  BucketName
	Tasks []task.Task
}

// Derive partitions tasks into the buckets of view id. Today yields active
// then waiting; every other view yields a single all bucket. Relative order
// is preserved in each bucket.
func Derive(id ID, tasks []task.Task) []Bucket {
	if id != Today {
		return []Bucket{{Name: BucketAll, Tasks: tasks}}
	}
	active := make([]task.Task, 0, len(tasks))
	var waiting []task.Task
	for _, t := range tasks {
		if t.Status == task.StatusWaiting {
			waiting = append(waiting, t)
			continue
		}
		active = append(active, t)
	}
	return []Bucket{
		{Name: BucketActive, Tasks: active},
		{Name: BucketWaiting, Tasks: waiting},
	}
}
