// Package recurring manages recurring task templates. The service turns
// active templates into tasks on its own schedule; this side only edits
// them.
package recurring

import (
	"context"

	"go.uber.org/zap"

	"taskorbit/internal/notice"
	"taskorbit/internal/task"
	"taskorbit/internal/view"
)

var ErrNotConfirmed = notice.NewCondition(notice.Soft, notice.KeyNotConfirmed, "template delete was not confirmed")

type Service interface {
	Templates(ctx context.Context, activeOnly bool) ([]task.Template, error)
	Template(ctx context.Context, id int64) (task.Template, error)
	CreateTemplate(ctx context.Context, d task.TemplateDraft) (task.Template, error)
	UpdateTemplate(ctx context.Context, id int64, d task.TemplateDraft) (task.Template, error)
	DeleteTemplate(ctx context.Context, id int64) error
	ToggleTemplate(ctx context.Context, id int64) (task.Template, error)
}

type Reloader interface {
	Reload(ctx context.Context) error
}

// ReloadFunc adapts a function to Reloader. It lets the manager be built
// before the workspace that lists through it.
type ReloadFunc func(ctx context.Context) error

func (f ReloadFunc) Reload(ctx context.Context) error { return f(ctx) }

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
	return &Manager{svc: svc, reload: reload, notify: notify, log: zap.L().Named("recurring")}
}

// List returns all templates, or only active ones when activeOnly is set.
func (m *Manager) List(ctx context.Context, activeOnly bool) ([]task.Template, error) {
	out, err := m.svc.Templates(ctx, activeOnly)
	if err != nil {
		m.log.Warn("list templates", zap.Bool("active_only", activeOnly), zap.Error(err))
		return nil, err
	}
	return out, nil
}

// Get fetches one template for editing.
func (m *Manager) Get(ctx context.Context, id int64) (task.Template, error) {
	t, err := m.svc.Template(ctx, id)
	if err != nil {
		m.log.Warn("get template", zap.Int64("template_id", id), zap.Error(err))
		return task.Template{}, m.fail(err)
	}
	return t, nil
}

// Filter applies a category selection the way task views do.
func Filter(templates []task.Template, c view.Categories) []task.Template {
	return view.FilterCategories(templates, c)
}

func (m *Manager) Create(ctx context.Context, d task.TemplateDraft) error {
	d.Normalize()
	if err := d.Validate(); err != nil {
		return m.fail(err)
	}
	_, err := m.svc.CreateTemplate(ctx, d)
	return m.finish(ctx, "create", 0, notice.KeySaved, err)
}

func (m *Manager) Update(ctx context.Context, id int64, d task.TemplateDraft) error {
	d.Normalize()
	if err := d.Validate(); err != nil {
		return m.fail(err)
	}
	_, err := m.svc.UpdateTemplate(ctx, id, d)
	return m.finish(ctx, "update", id, notice.KeySaved, err)
}

func (m *Manager) Delete(ctx context.Context, id int64, confirmed bool) error {
	if !confirmed {
		return m.fail(ErrNotConfirmed)
	}
	return m.finish(ctx, "delete", id, notice.KeyDeleted, m.svc.DeleteTemplate(ctx, id))
}

// ToggleActive flips isActive through the dedicated endpoint. No other
// field is sent, so none can change.
func (m *Manager) ToggleActive(ctx context.Context, id int64) error {
	_, err := m.svc.ToggleTemplate(ctx, id)
	return m.finish(ctx, "toggle", id, notice.KeyToggled, err)
}

func (m *Manager) finish(ctx context.Context, op string, id int64, okKey string, err error) error {
	if err != nil {
		m.log.Warn("template request failed", zap.String("op", op), zap.Int64("template_id", id), zap.Error(err))
		return m.fail(err)
	}
	m.notify.Notify(notice.Info(okKey, nil))
	if m.reload != nil {
		if rerr := m.reload.Reload(ctx); rerr != nil {
			m.log.Warn("reload after template request", zap.String("op", op), zap.Error(rerr))
		}
	}
	return nil
}

func (m *Manager) fail(err error) error {
	m.notify.Notify(notice.FromError(err))
	return err
}
