package task

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// TaskDraft is the body of a task create or update request.
type TaskDraft struct {
	Title    string `json:"title" validate:"required,max=255"`
	Category string `json:"category,omitempty" validate:"max=100"`
	Size     Size   `json:"size,omitempty" validate:"omitempty,oneof=UNDER_10_MIN UNDER_30_MIN OVER_1_HOUR"`
	Status   Status `json:"status,omitempty" validate:"omitempty,oneof=ONGOING WAITING DONE"`
	DueDate  Date   `json:"dueDate" validate:"required"`
}

// TemplateDraft is the body of a recurring template create or update request.
type TemplateDraft struct {
	Title          string         `json:"title" validate:"required,max=255"`
	Category       string         `json:"category,omitempty" validate:"max=100"`
	Size           Size           `json:"size,omitempty" validate:"omitempty,oneof=UNDER_10_MIN UNDER_30_MIN OVER_1_HOUR"`
	RecurrenceType RecurrenceType `json:"recurrenceType" validate:"required,oneof=DAILY WEEKLY MONTHLY YEARLY"`
	IsActive       bool           `json:"isActive"`
}

// LogDraft is the body of a task log create or update request.
type LogDraft struct {
	Date       Date   `json:"date" validate:"required"`
	Content    string `json:"content,omitempty"`
	NextAction string `json:"nextAction,omitempty"`
}

// FieldError names one field that failed client-side validation.
type FieldError struct {
	Field  string
	Reason string
}

// ValidationError is returned before a request is sent when required
// fields are missing or malformed.
type ValidationError struct {
	Entity string
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+" "+f.Reason)
	}
	return fmt.Sprintf("invalid %s: %s", e.Entity, strings.Join(parts, ", "))
}

// Has reports whether field failed validation.
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields under their wire names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	// A zero Date is validated as an empty string, so required rejects it.
	v.RegisterCustomTypeFunc(func(f reflect.Value) any {
		if d, ok := f.Interface().(Date); ok {
			return d.String()
		}
		return nil
	}, Date{})
	return v
}

// check validates d and converts the library's errors into a
// ValidationError for entity.
func check(entity string, d any) error {
	err := validate.Struct(d)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate %s: %w", entity, err)
	}
	verr := &ValidationError{Entity: entity}
	for _, fe := range fieldErrs {
		verr.Fields = append(verr.Fields, FieldError{Field: fe.Field(), Reason: reason(fe)})
	}
	return verr
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of " + strings.Join(strings.Fields(fe.Param()), ", ")
	}
	return "failed " + fe.Tag()
}

// Normalize trims free text fields in place.
func (d *TaskDraft) Normalize() {
	d.Title = strings.TrimSpace(d.Title)
	d.Category = strings.TrimSpace(d.Category)
}

// Validate checks d as it would be sent, after trimming.
func (d TaskDraft) Validate() error {
	d.Normalize()
	return check("task", d)
}

func (d *TemplateDraft) Normalize() {
	d.Title = strings.TrimSpace(d.Title)
	d.Category = strings.TrimSpace(d.Category)
}

func (d TemplateDraft) Validate() error {
	d.Normalize()
	return check("recurring template", d)
}

func (d *LogDraft) Normalize() {
	d.Content = strings.TrimSpace(d.Content)
	d.NextAction = strings.TrimSpace(d.NextAction)
}

func (d LogDraft) Validate() error {
	return check("task log", d)
}
