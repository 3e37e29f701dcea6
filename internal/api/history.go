package api

import (
	"context"
	"encoding/json"
)

// HistoryResult is the reply to undo and redo. Success is false when there
// was nothing to apply; that is not an error.
type HistoryResult struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Log     json.RawMessage `json:"log,omitempty"`
}

func (c *Client) Undo(ctx context.Context) (HistoryResult, error) {
	var out HistoryResult
	err := c.post(ctx, "/undo-redo/undo", nil, &out)
	return out, err
}

func (c *Client) Redo(ctx context.Context) (HistoryResult, error) {
	var out HistoryResult
	err := c.post(ctx, "/undo-redo/redo", nil, &out)
	return out, err
}
