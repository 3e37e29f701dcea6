package api

import (
	"context"
	"fmt"
	"net/url"

	"taskorbit/internal/task"
)

// ListTasks fetches the server-side list named list: today, later, done
// or record.
func (c *Client) ListTasks(ctx context.Context, list string) ([]task.Task, error) {
	var out []task.Task
	if err := c.get(ctx, "/tasks/"+url.PathEscape(list), &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Task fetches one task by id.
func (c *Client) Task(ctx context.Context, id int64) (task.Task, error) {
	var out task.Task
	err := c.get(ctx, taskPath(id), &out)
	return out, err
}

func (c *Client) CreateTask(ctx context.Context, d task.TaskDraft) (task.Task, error) {
	var out task.Task
	err := c.post(ctx, "/tasks", d, &out)
	return out, err
}

func (c *Client) UpdateTask(ctx context.Context, id int64, d task.TaskDraft) (task.Task, error) {
	var out task.Task
	err := c.put(ctx, taskPath(id), d, &out)
	return out, err
}

func (c *Client) DeleteTask(ctx context.Context, id int64) error {
	return c.delete(ctx, taskPath(id))
}

func (c *Client) CompleteTask(ctx context.Context, id int64) (task.Task, error) {
	return c.transition(ctx, id, "complete")
}

func (c *Client) WaitTask(ctx context.Context, id int64) (task.Task, error) {
	return c.transition(ctx, id, "waiting")
}

func (c *Client) ActivateTask(ctx context.Context, id int64) (task.Task, error) {
	return c.transition(ctx, id, "activate")
}

func (c *Client) transition(ctx context.Context, id int64, verb string) (task.Task, error) {
	var out task.Task
	err := c.post(ctx, taskPath(id)+"/"+verb, nil, &out)
	return out, err
}

func taskPath(id int64) string {
	return fmt.Sprintf("/tasks/%d", id)
}
