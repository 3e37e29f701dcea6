// Package history drives the service-held undo and redo log. The client
// keeps no model of that history; it only asks and then reloads.
package history

import (
	"context"
	"sync/atomic"

	"go.uber.org/zap"

	"taskorbit/internal/api"
	"taskorbit/internal/notice"
)

var (
	ErrBusy          = notice.NewCondition(notice.Soft, notice.KeyBusy, "undo or redo already in progress")
	ErrNothingToUndo = notice.NewCondition(notice.Soft, notice.KeyNothingToUndo, "nothing to undo")
	ErrNothingToRedo = notice.NewCondition(notice.Soft, notice.KeyNothingToRedo, "nothing to redo")
)

type Service interface {
	Undo(ctx context.Context) (api.HistoryResult, error)
	Redo(ctx context.Context) (api.HistoryResult, error)
}

type Reloader interface {
	Reload(ctx context.Context) error
}

// Coordinator lets at most one undo or redo be outstanding.
type Coordinator struct {
	svc    Service
	reload Reloader
	notify notice.Notifier
	busy   atomic.Bool
	log    *zap.Logger
}

func New(svc Service, reload Reloader, notify notice.Notifier) *Coordinator {
	if notify == nil {
		notify = notice.Discard
	}
	return &Coordinator{svc: svc, reload: reload, notify: notify, log: zap.L().Named("history")}
}

// Busy reports whether a request is outstanding. Undo and redo are both
// disabled while it is true.
func (c *Coordinator) Busy() bool {
	return c.busy.Load()
}

// Undo reverts the latest change server-side. It returns ErrNothingToUndo
// when the service had nothing to revert.
func (c *Coordinator) Undo(ctx context.Context) error {
	return c.run(ctx, "undo", c.svc.Undo, ErrNothingToUndo, notice.KeyUndone)
}

func (c *Coordinator) Redo(ctx context.Context) error {
	return c.run(ctx, "redo", c.svc.Redo, ErrNothingToRedo, notice.KeyRedone)
}

func (c *Coordinator) run(ctx context.Context, op string, call func(context.Context) (api.HistoryResult, error), empty error, okKey string) error {
	if !c.busy.CompareAndSwap(false, true) {
		c.notify.Notify(notice.FromError(ErrBusy))
		return ErrBusy
	}
	defer c.busy.Store(false)

	res, err := call(ctx)
	if err != nil {
		c.log.Error(op+" failed", zap.Error(err))
		c.notify.Notify(notice.FromError(err))
		return err
	}
	c.log.Info(op, zap.Bool("success", res.Success), zap.String("message", res.Message))
	if !res.Success {
		c.notify.Notify(notice.FromError(empty))
		return empty
	}
	c.notify.Notify(notice.Info(okKey, nil))
	if c.reload == nil {
		return nil
	}
	if err := c.reload.Reload(ctx); err != nil {
		c.log.Warn("reload after "+op, zap.Error(err))
	}
	return nil
}
