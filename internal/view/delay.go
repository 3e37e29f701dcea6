package view

import (
	"time"

	"taskorbit/internal/task"
)

// Delay returns how many whole calendar days ref lies before now, never
// less than zero. Days are counted on the calendar so a DST shift does not
// change the result.
func Delay(ref, now time.Time) int {
	if ref.IsZero() {
		return 0
	}
	days := dayNumber(task.DateOf(now)) - dayNumber(task.DateOf(ref))
	return max(0, days)
}

func dayNumber(d task.Date) int {
	u := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	return int(u.Unix() / 86400)
}

type Row struct {
	Task  task.Task
	Delay int
}

type Section struct {
	Name BucketName
	Rows []Row
}

// Build derives the sections of view id from tasks under state s.
func Build(id ID, tasks []task.Task, s State, now time.Time) []Section {
	m := MappingFor(id)
	buckets := Derive(id, tasks)
	sections := make([]Section, 0, len(buckets))
	for _, b := range buckets {
		filtered := s.Apply(b.Tasks, m.Reference, now)
		rows := make([]Row, len(filtered))
		for i, t := range filtered {
			rows[i] = Row{Task: t}
			if m.Delay != FieldNone {
				rows[i].Delay = Delay(m.Delay.Of(t), now)
			}
		}
		sections = append(sections, Section{Name: b.Name, Rows: rows})
	}
	return sections
}
