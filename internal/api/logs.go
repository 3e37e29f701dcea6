package api

import (
	"context"
	"fmt"

	"taskorbit/internal/task"
)

func (c *Client) Logs(ctx context.Context, taskID int64) ([]task.Log, error) {
	var out []task.Log
	if err := c.get(ctx, logsPath(taskID), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// LatestLog returns the newest log of a task. ok is false when the task
// has none.
func (c *Client) LatestLog(ctx context.Context, taskID int64) (l task.Log, ok bool, err error) {
	err = c.get(ctx, logsPath(taskID)+"/latest", &l)
	if IsNotFound(err) {
		return task.Log{}, false, nil
	}
	if err != nil {
		return task.Log{}, false, err
	}
	return l, true, nil
}

func (c *Client) CreateLog(ctx context.Context, taskID int64, d task.LogDraft) (task.Log, error) {
	var out task.Log
	err := c.post(ctx, logsPath(taskID), d, &out)
	return out, err
}

func (c *Client) UpdateLog(ctx context.Context, taskID, logID int64, d task.LogDraft) (task.Log, error) {
	var out task.Log
	err := c.put(ctx, fmt.Sprintf("%s/%d", logsPath(taskID), logID), d, &out)
	return out, err
}

func (c *Client) DeleteLog(ctx context.Context, taskID, logID int64) error {
	return c.delete(ctx, fmt.Sprintf("%s/%d", logsPath(taskID), logID))
}

func logsPath(taskID int64) string {
	return fmt.Sprintf("/tasks/%d/logs", taskID)
}
