// Package tasklog manages the dated progress notes attached to a task.
// The newest note's next action is shown on the task itself, so every
// change also reloads the current view.
package tasklog

import (
	"context"

	"go.uber.org/zap"

	"taskorbit/internal/notice"
	"taskorbit/internal/task"
)

var ErrNotConfirmed = notice.NewCondition(notice.Soft, notice.KeyNotConfirmed, "log delete was not confirmed")

type Service interface {
	Logs(ctx context.Context, taskID int64) ([]task.Log, error)
	LatestLog(ctx context.Context, taskID int64) (task.Log, bool, error)
	CreateLog(ctx context.Context, taskID int64, d task.LogDraft) (task.Log, error)
	UpdateLog(ctx context.Context, taskID, logID int64, d task.LogDraft) (task.Log, error)
	DeleteLog(ctx context.Context, taskID, logID int64) error
}

type Reloader interface {
	Reload(ctx context.Context) error
}

type Manager struct {
	svc    Service
	reload Reloader
	notify notice.Notifier
	log    *zap.Logger
}

func New(svc Service, reload Reloader, notify notice.Notifier) *Manager {
	if notify == nil {
		notify = notice.Discard
	}
	return &Manager{svc: svc, reload: reload, notify: notify, log: zap.L().Named("tasklog")}
}

// List returns the logs of a task in service order.
func (m *Manager) List(ctx context.Context, taskID int64) ([]task.Log, error) {
	logs, err := m.svc.Logs(ctx, taskID)
	if err != nil {
		m.log.Warn("list logs", zap.Int64("task_id", taskID), zap.Error(err))
		return nil, err
	}
	return logs, nil
}

// Latest returns the newest log; ok is false when the task has none.
func (m *Manager) Latest(ctx context.Context, taskID int64) (task.Log, bool, error) {
	return m.svc.LatestLog(ctx, taskID)
}

// Create adds a log and returns the task's refreshed log list.
func (m *Manager) Create(ctx context.Context, taskID int64, d task.LogDraft) ([]task.Log, error) {
	d.Normalize()
	if err := d.Validate(); err != nil {
		return nil, m.fail(err)
	}
	_, err := m.svc.CreateLog(ctx, taskID, d)
	return m.finish(ctx, "create", taskID, notice.KeySaved, err)
}

func (m *Manager) Update(ctx context.Context, taskID, logID int64, d task.LogDraft) ([]task.Log, error) {
	d.Normalize()
	if err := d.Validate(); err != nil {
		return nil, m.fail(err)
	}
	_, err := m.svc.UpdateLog(ctx, taskID, logID, d)
	return m.finish(ctx, "update", taskID, notice.KeySaved, err)
}

func (m *Manager) Delete(ctx context.Context, taskID, logID int64, confirmed bool) ([]task.Log, error) {
	if !confirmed {
		return nil, m.fail(ErrNotConfirmed)
	}
	return m.finish(ctx, "delete", taskID, notice.KeyDeleted, m.svc.DeleteLog(ctx, taskID, logID))
}

// finish reports a completed write. The write stands even when the
// follow-up list fails; that failure gets a soft notice and nil logs.
func (m *Manager) finish(ctx context.Context, op string, taskID int64, okKey string, err error) ([]task.Log, error) {
	if err != nil {
		m.log.Warn("log request failed", zap.String("op", op), zap.Int64("task_id", taskID), zap.Error(err))
		return nil, m.fail(err)
	}
	m.notify.Notify(notice.Info(okKey, nil))
	logs, lerr := m.List(ctx, taskID)
	if lerr != nil {
		n := notice.FromError(lerr)
		n.Level = notice.Soft
		m.notify.Notify(n)
	}
	if m.reload != nil {
		if rerr := m.reload.Reload(ctx); rerr != nil {
			m.log.Warn("reload after log request", zap.String("op", op), zap.Error(rerr))
		}
	}
	return logs, nil
}

func (m *Manager) fail(err error) error {
	m.notify.Notify(notice.FromError(err))
	return err
}
