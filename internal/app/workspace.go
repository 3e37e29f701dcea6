// Package app holds what the user is looking at: the current view, the raw
// collection last fetched for each view and the filter state per view.
// Everything shown is re-derived from those on demand.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"taskorbit/internal/api"
	"taskorbit/internal/notice"
	"taskorbit/internal/recurring"
	"taskorbit/internal/session"
	"taskorbit/internal/task"
	"taskorbit/internal/view"
)

// Service is what the workspace fetches tasks from and signs in with.
type Service interface {
	ListTasks(ctx context.Context, list string) ([]task.Task, error)
	Register(ctx context.Context, cred api.Credentials) (api.AuthResult, error)
	Login(ctx context.Context, cred api.Credentials) (api.AuthResult, error)
}

// TemplateLister supplies the Repeat view. *recurring.Manager is one.
type TemplateLister interface {
	List(ctx context.Context, activeOnly bool) ([]task.Template, error)
}

// Snapshot is one render's worth of derived data.
type Snapshot struct {
	View      view.ID
	Sections  []view.Section
	Templates []task.Template
	// Labels are the categories present in the raw collection, for the
	// filter panel.
	Labels   []string
	State    view.State
	Loaded   bool
	LoadedAt time.Time
	Err      error
}

// Empty reports whether there is nothing to show.
func (s Snapshot) Empty() bool {
	if s.View == view.Repeat {
		return len(s.Templates) == 0
	}
	for _, sec := range s.Sections {
		if len(sec.Rows) > 0 {
			return false
		}
	}
	return true
}

type cache struct {
	tasks     []task.Task
	templates []task.Template
	loadedAt  time.Time
	err       error
}

type Workspace struct {
	svc       Service
	templates TemplateLister
	sessions  session.Store
	prefs     session.Prefs
	notify    notice.Notifier
	now       func() time.Time
	log       *zap.Logger

	mu       sync.Mutex
	current  view.ID
	caches   map[view.ID]*cache
	states   map[view.ID]view.State
	onChange func(Snapshot)
}

func New(svc Service, templates TemplateLister, sessions session.Store, prefs session.Prefs, notify notice.Notifier, start view.ID) *Workspace {
	if notify == nil {
		notify = notice.Discard
	}
	if !start.Valid() {
		start = view.Today
	}
	w := &Workspace{
		svc:       svc,
		templates: templates,
		sessions:  sessions,
		prefs:     prefs,
		notify:    notify,
		now:       time.Now,
		log:       zap.L().Named("workspace"),
		current:   start,
		caches:    make(map[view.ID]*cache),
		states:    make(map[view.ID]view.State),
	}
	w.restoreStates()
	return w
}

// OnChange registers fn to receive a snapshot after every refresh of the
// current view. Filter changes do not trigger it; Update returns the new
// snapshot directly. fn runs on the refreshing goroutine.
func (w *Workspace) OnChange(fn func(Snapshot)) {
	w.mu.Lock()
	w.onChange = fn
	w.mu.Unlock()
}

func (w *Workspace) Current() view.ID {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Open switches to view id and refreshes it.
func (w *Workspace) Open(ctx context.Context, id view.ID) error {
	w.mu.Lock()
	w.current = id
	w.mu.Unlock()
	return w.Refresh(ctx, id)
}

// Reload refreshes the current view.
func (w *Workspace) Reload(ctx context.Context) error {
	return w.Refresh(ctx, w.Current())
}

// Refresh re-fetches view id and re-derives it. On failure the view keeps
// the error and nothing else, so stale rows are never shown.
func (w *Workspace) Refresh(ctx context.Context, id view.ID) error {
	c := &cache{}
	var err error
	if id == view.Repeat {
		// Inactive templates stay visible so they can be switched back on.
		c.templates, err = w.templates.List(ctx, false)
	} else {
		c.tasks, err = w.svc.ListTasks(ctx, string(id))
	}
	if err != nil {
		c = &cache{err: err}
		w.log.Warn("refresh failed", zap.String("view", string(id)), zap.Error(err))
	} else {
		c.loadedAt = w.now()
		w.log.Debug("refreshed", zap.String("view", string(id)), zap.Int("tasks", len(c.tasks)), zap.Int("templates", len(c.templates)))
	}

	w.mu.Lock()
	w.caches[id] = c
	w.mu.Unlock()
	w.publish(id)
	return err
}

// Snapshot derives the current view from the last fetch without touching
// the network.
func (w *Workspace) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshotLocked(w.current)
}

func (w *Workspace) snapshotLocked(id view.ID) Snapshot {
	st := w.stateLocked(id)
	snap := Snapshot{View: id, State: st}
	c, ok := w.caches[id]
	if !ok {
		return snap
	}
	snap.Loaded = true
	snap.LoadedAt = c.loadedAt
	snap.Err = c.err
	if c.err != nil {
		return snap
	}
	if id == view.Repeat {
		snap.Labels = view.Labels(c.templates)
		snap.Templates = recurring.Filter(c.templates, st.Categories)
		return snap
	}
	snap.Labels = view.Labels(c.tasks)
	snap.Sections = view.Build(id, c.tasks, st, w.now())
	return snap
}

func (w *Workspace) stateLocked(id view.ID) view.State {
	if st, ok := w.states[id]; ok {
		return st
	}
	return view.DefaultState()
}

// State returns the filter state of view id.
func (w *Workspace) State(id view.ID) view.State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stateLocked(id)
}

// Update changes the filter state of view id, persists it and re-derives.
// No request is sent.
func (w *Workspace) Update(id view.ID, fn func(view.State) view.State) Snapshot {
	w.mu.Lock()
	st := fn(w.stateLocked(id))
	w.states[id] = st
	w.mu.Unlock()

	w.saveState(id, st)
	return w.Snapshot()
}

func (w *Workspace) publish(id view.ID) {
	w.mu.Lock()
	if id != w.current || w.onChange == nil {
		w.mu.Unlock()
		return
	}
	fn := w.onChange
	snap := w.snapshotLocked(id)
	w.mu.Unlock()
	fn(snap)
}

func (w *Workspace) restoreStates() {
	if w.prefs == nil {
		return
	}
	for _, id := range view.IDs {
		data, err := w.prefs.ViewState(string(id))
		if err != nil {
			w.log.Warn("read view state", zap.String("view", string(id)), zap.Error(err))
			continue
		}
		if data == nil {
			continue
		}
		var st view.State
		if err := json.Unmarshal(data, &st); err != nil {
			w.log.Warn("decode view state", zap.String("view", string(id)), zap.Error(err))
			continue
		}
		w.states[id] = st
	}
}

func (w *Workspace) saveState(id view.ID, st view.State) {
	if w.prefs == nil {
		return
	}
	data, err := json.Marshal(st)
	if err == nil {
		err = w.prefs.SaveViewState(string(id), data)
	}
	if err != nil {
		w.log.Warn("save view state", zap.String("view", string(id)), zap.Error(err))
	}
}

// Username returns the signed-in user, or "" without a session.
func (w *Workspace) Username() string {
	sess, err := w.sessions.Load()
	if err != nil {
		return ""
	}
	return sess.Username
}

// Login signs in, stores the credential and reloads the current view.
func (w *Workspace) Login(ctx context.Context, cred api.Credentials) error {
	return w.authenticate(ctx, "login", cred, w.svc.Login)
}

// Register creates an account and signs in with the returned credential.
func (w *Workspace) Register(ctx context.Context, cred api.Credentials) error {
	return w.authenticate(ctx, "register", cred, w.svc.Register)
}

func (w *Workspace) authenticate(ctx context.Context, op string, cred api.Credentials, call func(context.Context, api.Credentials) (api.AuthResult, error)) error {
	res, err := call(ctx, cred)
	if err == nil && res.Token == "" {
		err = errors.New(op + ": service returned no token")
	}
	if err != nil {
		w.log.Warn(op+" failed", zap.String("username", cred.Username), zap.Error(err))
		w.notify.Notify(notice.FromError(err))
		return err
	}
	sess := session.Session{Token: res.Token, Username: res.Username, Email: res.Email, SavedAt: w.now()}
	if sess.Username == "" {
		sess.Username = cred.Username
	}
	if err := w.sessions.Save(sess); err != nil {
		w.log.Error("save session", zap.Error(err))
		w.notify.Notify(notice.FromError(err))
		return err
	}
	w.log.Info(op, zap.String("username", sess.Username))
	w.notify.Notify(notice.Info(notice.KeySignedIn, map[string]any{"Username": sess.Username}))
	return w.Reload(ctx)
}

// Logout forgets the credential and every fetched collection.
func (w *Workspace) Logout() error {
	if err := w.sessions.Clear(); err != nil {
		w.log.Error("clear session", zap.Error(err))
		return err
	}
	w.mu.Lock()
	w.caches = make(map[view.ID]*cache)
	w.caches[w.current] = &cache{err: api.ErrUnauthenticated}
	current := w.current
	w.mu.Unlock()

	w.notify.Notify(notice.Info(notice.KeySignedOut, nil))
	w.publish(current)
	return nil
}
