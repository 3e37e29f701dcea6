package task

import "slices"

type RecurrenceType string

const (
	RecurrenceDaily   RecurrenceType = "DAILY"
	RecurrenceWeekly  RecurrenceType = "WEEKLY"
	RecurrenceMonthly RecurrenceType = "MONTHLY"
	RecurrenceYearly  RecurrenceType = "YEARLY"
)

var RecurrenceTypes = []RecurrenceType{RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly, RecurrenceYearly}

func (r RecurrenceType) Valid() bool {
	return slices.Contains(RecurrenceTypes, r)
}

// Template is a recurring task setting. The service spawns tasks from
// active templates; the client only edits them.
type Template struct {
	ID             int64          `json:"id"`
	Title          string         `json:"title"`
	Category       string         `json:"category,omitempty"`
	Size           Size           `json:"size,omitempty"`
	RecurrenceType RecurrenceType `json:"recurrenceType"`
	IsActive       bool           `json:"isActive"`
	CreatedAt      Timestamp      `json:"createdAt"`
	UpdatedAt      Timestamp      `json:"updatedAt"`
}

func (t Template) CategoryLabel() string {
	return EffectiveCategory(t.Category)
}

func (t Template) Draft() TemplateDraft {
	return TemplateDraft{
		Title:          t.Title,
		Category:       t.Category,
		Size:           t.Size,
		RecurrenceType: t.RecurrenceType,
		IsActive:       t.IsActive,
	}
}
