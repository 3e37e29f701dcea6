package lifecycle

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"taskorbit/internal/notice"
	"taskorbit/internal/task"
)

// Service is the part of the task service the controller drives.
type Service interface {
	Task(ctx context.Context, id int64) (task.Task, error)
	CompleteTask(ctx context.Context, id int64) (task.Task, error)
	WaitTask(ctx context.Context, id int64) (task.Task, error)
	ActivateTask(ctx context.Context, id int64) (task.Task, error)
	DeleteTask(ctx context.Context, id int64) error
	CreateTask(ctx context.Context, d task.TaskDraft) (task.Task, error)
	UpdateTask(ctx context.Context, id int64, d task.TaskDraft) (task.Task, error)
}

// Reloader re-fetches the view the user is looking at.
type Reloader interface {
	Reload(ctx context.Context) error
}

type Controller struct {
	svc    Service
	reload Reloader
	notify notice.Notifier
	flight singleflight.Group
	log    *zap.Logger
}

func New(svc Service, reload Reloader, notify notice.Notifier) *Controller {
	if notify == nil {
		notify = notice.Discard
	}
	return &Controller{svc: svc, reload: reload, notify: notify, log: zap.L().Named("lifecycle")}
}

func (c *Controller) Complete(ctx context.Context, t task.Task) error {
	return c.Apply(ctx, t, ActionComplete)
}

func (c *Controller) Wait(ctx context.Context, t task.Task) error {
	return c.Apply(ctx, t, ActionWait)
}

func (c *Controller) Activate(ctx context.Context, t task.Task) error {
	return c.Apply(ctx, t, ActionActivate)
}

// Get fetches the current server copy of a task, so edits start from
// what the service holds rather than the last render.
func (c *Controller) Get(ctx context.Context, id int64) (task.Task, error) {
	t, err := c.svc.Task(ctx, id)
	if err != nil {
		c.log.Warn("get task", zap.Int64("task_id", id), zap.Error(err))
		return task.Task{}, c.fail(err)
	}
	return t, nil
}

// Delete removes t. Nothing is sent unless confirmed is true.
func (c *Controller) Delete(ctx context.Context, t task.Task, confirmed bool) error {
	if !confirmed {
		return c.fail(ErrNotConfirmed)
	}
	return c.run(ctx, ActionDelete, t.ID, notice.KeyDeleted, func(ctx context.Context) error {
		return c.svc.DeleteTask(ctx, t.ID)
	})
}

// Apply requests status action a for t. Illegal actions are refused
// without contacting the service.
func (c *Controller) Apply(ctx context.Context, t task.Task, a Action) error {
	if a == ActionDelete {
		return c.Delete(ctx, t, false)
	}
	if !Allowed(t.Status, a) {
		return c.fail(fmt.Errorf("%s task %d from %s: %w", a, t.ID, t.Status, ErrIllegalTransition))
	}
	var call func(context.Context, int64) (task.Task, error)
	var key string
	switch a {
	case ActionComplete:
		call, key = c.svc.CompleteTask, notice.KeyCompleted
	case ActionWait:
		call, key = c.svc.WaitTask, notice.KeyWaiting
	case ActionActivate:
		call, key = c.svc.ActivateTask, notice.KeyActivated
	}
	return c.run(ctx, a, t.ID, key, func(ctx context.Context) error {
		_, err := call(ctx, t.ID)
		return err
	})
}

// Create validates d and submits it as a new task.
func (c *Controller) Create(ctx context.Context, d task.TaskDraft) error {
	d.Normalize()
	if err := d.Validate(); err != nil {
		return c.fail(err)
	}
	return c.run(ctx, "create", 0, notice.KeySaved, func(ctx context.Context) error {
		_, err := c.svc.CreateTask(ctx, d)
		return err
	})
}

func (c *Controller) Update(ctx context.Context, id int64, d task.TaskDraft) error {
	d.Normalize()
	if err := d.Validate(); err != nil {
		return c.fail(err)
	}
	return c.run(ctx, "update", id, notice.KeySaved, func(ctx context.Context) error {
		_, err := c.svc.UpdateTask(ctx, id, d)
		return err
	})
}

// run sends one request and reloads on success. A request identical to
// one already in flight joins it instead of being sent again.
func (c *Controller) run(ctx context.Context, a Action, id int64, okKey string, send func(context.Context) error) error {
	// Drafts differ between submissions, so creates and updates are never joined.
	if a == "create" || a == "update" {
		return c.finish(ctx, a, id, okKey, send(ctx))
	}
	_, err, shared := c.flight.Do(fmt.Sprintf("%s:%d", a, id), func() (any, error) {
		return nil, c.finish(ctx, a, id, okKey, send(ctx))
	})
	if shared {
		c.log.Debug("joined in-flight request", zap.String("action", string(a)), zap.Int64("task_id", id))
	}
	return err
}

func (c *Controller) finish(ctx context.Context, a Action, id int64, okKey string, err error) error {
	if err != nil {
		c.log.Warn("task request failed", zap.String("action", string(a)), zap.Int64("task_id", id), zap.Error(err))
		return c.fail(err)
	}
	c.notify.Notify(notice.Info(okKey, nil))
	if c.reload == nil {
		return nil
	}
	if rerr := c.reload.Reload(ctx); rerr != nil {
		c.log.Warn("reload after task request", zap.String("action", string(a)), zap.Error(rerr))
	}
	return nil
}

func (c *Controller) fail(err error) error {
	c.notify.Notify(notice.FromError(err))
	return err
}
