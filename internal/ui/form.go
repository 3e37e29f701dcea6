package ui

import (
	"fmt"
	"strings"

	"taskorbit/internal/api"
	"taskorbit/internal/task"
)

type formKind int

const (
	formTask formKind = iota
	formTemplate
	formLog
	formRange
	formLogin
	formRegister
)

type formField struct {
	label  string
	value  string
	secret bool
}

// formState is the field-by-field editor shared by every form. One text
// input edits the current field; the rest are kept here.
type formState struct {
	kind       formKind
	id         int64
	taskID     int64
	status     task.Status
	fields     []formField
	index      int
	submitting bool
}

func (f formState) currentLabel() string {
	return f.fields[f.index].label
}

func (f formState) currentValue() string {
	return f.fields[f.index].value
}

func (f *formState) setCurrentValue(v string) {
	f.fields[f.index].value = v
}

func (f formState) value(label string) string {
	for _, fld := range f.fields {
		if fld.label == label {
			return strings.TrimSpace(fld.value)
		}
	}
	return ""
}

func (f formState) creating() bool { return f.id == 0 }

func newTaskForm(t *task.Task) *formState {
	f := &formState{kind: formTask, fields: []formField{
		{label: "form.title"},
		{label: "form.category"},
		{label: "form.size"},
		{label: "form.due"},
	}}
	if t != nil {
		d := t.Draft()
		f.id = t.ID
		f.status = d.Status
		f.fields[0].value = d.Title
		f.fields[1].value = d.Category
		f.fields[2].value = string(d.Size)
		f.fields[3].value = d.DueDate.String()
	}
	return f
}

func newTemplateForm(t *task.Template) *formState {
	f := &formState{kind: formTemplate, fields: []formField{
		{label: "form.title"},
		{label: "form.category"},
		{label: "form.size"},
		{label: "form.recurrence", value: string(task.RecurrenceDaily)},
		{label: "form.active", value: "y"},
	}}
	if t != nil {
		d := t.Draft()
		f.id = t.ID
		f.fields[0].value = d.Title
		f.fields[1].value = d.Category
		f.fields[2].value = string(d.Size)
		f.fields[3].value = string(d.RecurrenceType)
		f.fields[4].value = boolToYN(d.IsActive)
	}
	return f
}

func newLogForm(taskID int64, l *task.Log, today task.Date) *formState {
	f := &formState{kind: formLog, taskID: taskID, fields: []formField{
		{label: "form.log_date", value: today.String()},
		{label: "form.content"},
		{label: "form.next_action"},
	}}
	if l != nil {
		d := l.Draft()
		f.id = l.ID
		f.fields[0].value = d.Date.String()
		f.fields[1].value = d.Content
		f.fields[2].value = d.NextAction
	}
	return f
}

func newRangeForm(start, end task.Date) *formState {
	return &formState{kind: formRange, fields: []formField{
		{label: "form.range_start", value: start.String()},
		{label: "form.range_end", value: end.String()},
	}}
}

func newAuthForm(register bool) *formState {
	if register {
		return &formState{kind: formRegister, fields: []formField{
			{label: "form.username"},
			{label: "form.email"},
			{label: "form.password", secret: true},
		}}
	}
	return &formState{kind: formLogin, fields: []formField{
		{label: "form.username"},
		{label: "form.password", secret: true},
	}}
}

func (f formState) taskDraft() (task.TaskDraft, error) {
	due, err := task.ParseDate(f.value("form.due"))
	if err != nil {
		return task.TaskDraft{}, err
	}
	return task.TaskDraft{
		Title:    f.value("form.title"),
		Category: f.value("form.category"),
		Size:     task.Size(strings.ToUpper(f.value("form.size"))),
		Status:   f.status,
		DueDate:  due,
	}, nil
}

func (f formState) templateDraft() task.TemplateDraft {
	return task.TemplateDraft{
		Title:          f.value("form.title"),
		Category:       f.value("form.category"),
		Size:           task.Size(strings.ToUpper(f.value("form.size"))),
		RecurrenceType: task.RecurrenceType(strings.ToUpper(f.value("form.recurrence"))),
		IsActive:       parseYN(f.value("form.active")),
	}
}

func (f formState) logDraft() (task.LogDraft, error) {
	date, err := task.ParseDate(f.value("form.log_date"))
	if err != nil {
		return task.LogDraft{}, err
	}
	return task.LogDraft{
		Date:       date,
		Content:    f.value("form.content"),
		NextAction: f.value("form.next_action"),
	}, nil
}

func (f formState) dateRange() (start, end task.Date, err error) {
	if start, err = task.ParseDate(f.value("form.range_start")); err != nil {
		return
	}
	end, err = task.ParseDate(f.value("form.range_end"))
	if err == nil && !start.IsZero() && !end.IsZero() && end.Before(start.Time) {
		err = fmt.Errorf("end %s is before start %s", end, start)
	}
	return
}

func (f formState) credentials() api.Credentials {
	return api.Credentials{
		Username: f.value("form.username"),
		Email:    f.value("form.email"),
		// Passwords are sent as typed.
		Password: f.fields[len(f.fields)-1].value,
	}
}

func parseYN(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "y" || v == "yes" || v == "true" || v == "1"
}

func boolToYN(b bool) string {
	if b {
		return "y"
	}
	return "n"
}

func wrapIndex(idx, n int) int {
	if n <= 0 {
		return 0
	}
	idx %= n
	if idx < 0 {
		idx += n
	}
	return idx
}

func clampCursor(cur, n int) int {
	if n <= 0 {
		return 0
	}
	if cur < 0 {
		return 0
	}
	if cur >= n {
		return n - 1
	}
	return cur
}
