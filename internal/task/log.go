package task

// Log is one dated history entry of a task.
type Log struct {
	ID         int64     `json:"id"`
	TaskID     int64     `json:"taskId"`
	Date       Date      `json:"date"`
	Content    string    `json:"content,omitempty"`
	NextAction string    `json:"nextAction,omitempty"`
	CreatedAt  Timestamp `json:"createdAt"`
	UpdatedAt  Timestamp `json:"updatedAt"`
}

func (l Log) Draft() LogDraft {
	return LogDraft{Date: l.Date, Content: l.Content, NextAction: l.NextAction}
}
