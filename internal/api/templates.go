package api

import (
	"context"
	"fmt"

	"taskorbit/internal/task"
)

// Templates lists recurring templates. With activeOnly set, inactive ones
// are left out.
func (c *Client) Templates(ctx context.Context, activeOnly bool) ([]task.Template, error) {
	path := "/recurring-settings"
	if activeOnly {
		path += "/active"
	}
	var out []task.Template
	if err := c.get(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Template(ctx context.Context, id int64) (task.Template, error) {
	var out task.Template
	err := c.get(ctx, templatePath(id), &out)
	return out, err
}

func (c *Client) CreateTemplate(ctx context.Context, d task.TemplateDraft) (task.Template, error) {
	var out task.Template
	err := c.post(ctx, "/recurring-settings", d, &out)
	return out, err
}

func (c *Client) UpdateTemplate(ctx context.Context, id int64, d task.TemplateDraft) (task.Template, error) {
	var out task.Template
	err := c.put(ctx, templatePath(id), d, &out)
	return out, err
}

func (c *Client) DeleteTemplate(ctx context.Context, id int64) error {
	return c.delete(ctx, templatePath(id))
}

func (c *Client) ToggleTemplate(ctx context.Context, id int64) (task.Template, error) {
	var out task.Template
	err := c.post(ctx, templatePath(id)+"/toggle", nil, &out)
	return out, err
}

func templatePath(id int64) string {
	return fmt.Sprintf("/recurring-settings/%d", id)
}
