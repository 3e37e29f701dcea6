package ui

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"taskorbit/internal/api"
	"taskorbit/internal/app"
	"taskorbit/internal/config"
	"taskorbit/internal/history"
	"taskorbit/internal/i18n"
	"taskorbit/internal/lifecycle"
	"taskorbit/internal/notice"
	"taskorbit/internal/recurring"
	"taskorbit/internal/task"
	"taskorbit/internal/tasklog"
	"taskorbit/internal/view"
)

type mode int

const (
	modeList mode = iota
	modeFilter
	modeLogs
	modeLogin
)

// Deps are the collaborators the model drives. Bridge must be the notifier
// of every controller and the workspace listener.
type Deps struct {
	Workspace *app.Workspace
	Tasks     *lifecycle.Controller
	Templates *recurring.Manager
	Logs      *tasklog.Manager
	History   *history.Coordinator
	Catalog   *i18n.Catalog
	Bridge    *Bridge
	Keys      config.Keymap
	SignedIn  bool
}

type deletion struct {
	kind   formKind
	id     int64
	taskID int64
	title  string
	task   task.Task
}

type Model struct {
	deps         Deps
	keys         config.Keymap
	cat          *i18n.Catalog
	snap         app.Snapshot
	user         string
	cursor       int
	mode         mode
	input        textinput.Model
	status       string
	blocking     bool
	confirmDel   bool
	pendingDel   *deletion
	form         *formState
	filterCursor int
	logTask      *task.Task
	logs         []task.Log
	latest       *task.Log
	logCursor    int
	now          func() time.Time
}

func New(deps Deps) Model {
	ti := textinput.New()
	ti.CharLimit = 256
	ti.Width = 40

	m := Model{
		deps:  deps,
		keys:  deps.Keys,
		cat:   deps.Catalog,
		snap:  deps.Workspace.Snapshot(),
		user:  deps.Workspace.Username(),
		input: ti,
		mode:  modeList,
		now:   time.Now,
	}
	if !deps.SignedIn {
		m.mode = modeLogin
		m = m.startForm(newAuthForm(false))
	}
	return m
}

func Run(deps Deps) error {
	program := tea.NewProgram(New(deps), tea.WithAltScreen())
	_, err := program.Run()
	return err
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.deps.Bridge.listen(), textinput.Blink}
	if m.mode != modeLogin {
		cmds = append(cmds, m.openView(m.deps.Workspace.Current()))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case snapshotMsg:
		m = m.applySnapshot(msg.snap)
		return m, m.deps.Bridge.listen()
	case noticeMsg:
		m = m.showNotice(msg.n)
		return m, m.deps.Bridge.listen()
	case logsMsg:
		if m.logTask != nil && m.logTask.ID == msg.taskID && msg.err == nil {
			m.logs = msg.logs
			m.logCursor = clampCursor(m.logCursor, len(m.logs))
		}
		return m, nil
	case latestMsg:
		if m.logTask != nil && m.logTask.ID == msg.taskID {
			m.latest = msg.log
		}
		return m, nil
	case editMsg:
		return m.openEdit(msg), nil
	case formResultMsg:
		m = m.formResult(msg)
		if msg.kind == formLog && msg.err == nil && m.logTask != nil {
			return m, m.loadLatest(m.logTask.ID)
		}
		return m, nil
	case tea.KeyMsg:
		key := msg.String()
		if key == "ctrl+c" {
			return m, tea.Quit
		}
		if m.blocking {
			m.blocking = false
			m.status = ""
		}
		if m.form != nil {
			return m.updateFormMode(key, msg)
		}
		if m.confirmDel {
			return m.updateDeleteConfirm(key)
		}
		switch m.mode {
		case modeFilter:
			return m.updateFilterMode(key)
		case modeLogs:
			return m.updateLogsMode(key)
		case modeLogin:
			return m.startForm(newAuthForm(false)), nil
		}
		return m.updateListMode(key)
	case tea.WindowSizeMsg:
		m.input.Width = msg.Width - 10
	}
	return m, nil
}

// applySnapshot installs a freshly fetched view. A reload discards any
// open form except the sign-in form.
func (m Model) applySnapshot(s app.Snapshot) Model {
	prev := m.snap.View
	m.snap = s
	m.user = m.deps.Workspace.Username()
	if errors.Is(s.Err, api.ErrUnauthenticated) {
		return m.toLogin()
	}
	if m.mode == modeLogin {
		m.mode = modeList
		m.form = nil
		m.input.Blur()
	}
	if m.form != nil && m.form.kind != formRange {
		m.form = nil
		m.input.Blur()
	}
	if s.View != prev {
		m.cursor = 0
		m.filterCursor = 0
	}
	m.cursor = clampCursor(m.cursor, m.rowCount())
	m.filterCursor = clampCursor(m.filterCursor, len(m.snap.Labels))
	return m
}

func (m Model) toLogin() Model {
	if m.mode == modeLogin {
		return m
	}
	m.mode = modeLogin
	m.logTask = nil
	m.logs = nil
	m.latest = nil
	m.confirmDel = false
	m.pendingDel = nil
	return m.startForm(newAuthForm(false))
}

func (m Model) showNotice(n notice.Notice) Model {
	m.status = m.cat.Notice(n)
	m.blocking = n.Level == notice.Blocking
	if n.Key == notice.KeyUnauthenticated {
		m = m.toLogin()
	}
	return m
}

func (m Model) updateListMode(key string) (tea.Model, tea.Cmd) {
	n := m.rowCount()
	switch key {
	case m.keys.Quit:
		return m, tea.Quit
	case m.keys.Down, "down":
		m.cursor = clampCursor(m.cursor+1, n)
		return m, nil
	case m.keys.Up, "up":
		m.cursor = clampCursor(m.cursor-1, n)
		return m, nil
	case "1", "2", "3", "4", "5":
		return m.switchView(view.IDs[int(key[0]-'1')])
	case m.keys.NextView:
		i := slices.Index(view.IDs, m.snap.View)
		return m.switchView(view.IDs[wrapIndex(i+1, len(view.IDs))])
	case m.keys.Reload:
		return m, m.reload()
	case m.keys.Undo:
		if m.deps.History.Busy() {
			return m, nil
		}
		return m, run(m.deps.History.Undo)
	case m.keys.Redo:
		if m.deps.History.Busy() {
			return m, nil
		}
		return m, run(m.deps.History.Redo)
	case m.keys.Filter:
		m.mode = modeFilter
		m.filterCursor = 0
		return m, nil
	case m.keys.Logout:
		ws := m.deps.Workspace
		return m, run(func(context.Context) error { return ws.Logout() })
	}
	if m.snap.View == view.Repeat {
		return m.updateRepeatKeys(key)
	}
	return m.updateTaskKeys(key)
}

func (m Model) switchView(id view.ID) (tea.Model, tea.Cmd) {
	if id == m.snap.View {
		return m, nil
	}
	m.snap = app.Snapshot{View: id, State: m.deps.Workspace.State(id)}
	m.cursor = 0
	m.status = ""
	return m, m.openView(id)
}

func (m Model) updateTaskKeys(key string) (tea.Model, tea.Cmd) {
	ctrl := m.deps.Tasks
	switch key {
	case m.keys.New:
		return m.startForm(newTaskForm(nil)), nil
	case m.keys.DateRange:
		st := m.snap.State
		next := st.Range.Mode.Next()
		if next == view.RangeCustom {
			m.snap = m.deps.Workspace.Update(m.snap.View, func(s view.State) view.State {
				s.Range = view.DateRange{Mode: view.RangeCustom, Start: s.Range.Start, End: s.Range.End}
				return s
			})
			return m.startForm(newRangeForm(st.Range.Start, st.Range.End)), nil
		}
		return m.updateState(func(s view.State) view.State {
			s.Range.Mode = next
			return s
		}), nil
	case m.keys.Sort:
		return m.updateState(func(s view.State) view.State {
			s.Sort = s.Sort.Next()
			return s
		}), nil
	}

	t, ok := m.selectedTask()
	if !ok {
		return m, nil
	}
	switch key {
	case m.keys.Complete:
		return m, run(func(ctx context.Context) error { return ctrl.Complete(ctx, t) })
	case m.keys.Wait:
		return m, run(func(ctx context.Context) error { return ctrl.Wait(ctx, t) })
	case m.keys.Activate:
		return m, run(func(ctx context.Context) error { return ctrl.Activate(ctx, t) })
	case m.keys.Delete:
		return m.askDelete(&deletion{kind: formTask, id: t.ID, title: t.Title, task: t}), nil
	case m.keys.Edit:
		return m, m.editTask(t.ID)
	case m.keys.Logs:
		m.mode = modeLogs
		m.logTask = &t
		m.logs = nil
		m.latest = nil
		m.logCursor = 0
		return m, tea.Batch(m.loadLogs(t.ID), m.loadLatest(t.ID))
	}
	return m, nil
}

func (m Model) updateRepeatKeys(key string) (tea.Model, tea.Cmd) {
	mgr := m.deps.Templates
	if key == m.keys.New {
		return m.startForm(newTemplateForm(nil)), nil
	}
	t, ok := m.selectedTemplate()
	if !ok {
		return m, nil
	}
	switch key {
	case m.keys.Edit:
		return m, m.editTemplate(t.ID)
	case m.keys.Toggle:
		return m, run(func(ctx context.Context) error { return mgr.ToggleActive(ctx, t.ID) })
	case m.keys.Delete:
		return m.askDelete(&deletion{kind: formTemplate, id: t.ID, title: t.Title}), nil
	}
	return m, nil
}

func (m Model) updateState(fn func(view.State) view.State) Model {
	m.snap = m.deps.Workspace.Update(m.snap.View, fn)
	m.cursor = clampCursor(m.cursor, m.rowCount())
	return m
}

func (m Model) updateFilterMode(key string) (tea.Model, tea.Cmd) {
	labels := m.snap.Labels
	switch key {
	case m.keys.Cancel, "esc", m.keys.Filter:
		m.mode = modeList
	case m.keys.Down, "down":
		m.filterCursor = clampCursor(m.filterCursor+1, len(labels))
	case m.keys.Up, "up":
		m.filterCursor = clampCursor(m.filterCursor-1, len(labels))
	case m.keys.Toggle:
		if len(labels) == 0 {
			return m, nil
		}
		label := labels[m.filterCursor]
		m = m.updateState(func(s view.State) view.State {
			s.Categories = s.Categories.Toggle(label)
			return s
		})
	case m.keys.SelectAll:
		m = m.updateState(func(s view.State) view.State {
			s.Categories = s.Categories.ToggleAll(labels)
			return s
		})
	case m.keys.ClearAll:
		m = m.updateState(func(s view.State) view.State {
			s.Categories = s.Categories.Clear()
			return s
		})
	}
	return m, nil
}

func (m Model) updateLogsMode(key string) (tea.Model, tea.Cmd) {
	if m.logTask == nil {
		m.mode = modeList
		return m, nil
	}
	switch key {
	case m.keys.Cancel, "esc":
		m.mode = modeList
		m.logTask = nil
		m.logs = nil
		m.latest = nil
	case m.keys.Down, "down":
		m.logCursor = clampCursor(m.logCursor+1, len(m.logs))
	case m.keys.Up, "up":
		m.logCursor = clampCursor(m.logCursor-1, len(m.logs))
	case m.keys.New:
		return m.startForm(newLogForm(m.logTask.ID, nil, task.DateOf(m.now()))), nil
	case m.keys.Edit:
		if len(m.logs) == 0 {
			return m, nil
		}
		l := m.logs[m.logCursor]
		return m.startForm(newLogForm(m.logTask.ID, &l, task.DateOf(m.now()))), nil
	case m.keys.Delete:
		if len(m.logs) == 0 {
			return m, nil
		}
		l := m.logs[m.logCursor]
		return m.askDelete(&deletion{kind: formLog, id: l.ID, taskID: l.TaskID, title: l.Date.String()}), nil
	}
	return m, nil
}

func (m Model) askDelete(d *deletion) Model {
	m.confirmDel = true
	m.pendingDel = d
	m.status = m.cat.T("confirm.delete", map[string]any{"Title": d.title})
	return m
}

func (m Model) updateDeleteConfirm(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "n", "N", m.keys.Cancel:
		m.status = m.cat.T(notice.KeyNotConfirmed, nil)
		m.confirmDel = false
		m.pendingDel = nil
		return m, nil
	case m.keys.Confirm, "Y":
		d := m.pendingDel
		m.confirmDel = false
		m.pendingDel = nil
		m.status = ""
		if d == nil {
			return m, nil
		}
		switch d.kind {
		case formTemplate:
			mgr := m.deps.Templates
			return m, run(func(ctx context.Context) error { return mgr.Delete(ctx, d.id, true) })
		case formLog:
			logs := m.deps.Logs
			return m, submitLogs(func(ctx context.Context) ([]task.Log, error) {
				return logs.Delete(ctx, d.taskID, d.id, true)
			})
		default:
			ctrl := m.deps.Tasks
			return m, run(func(ctx context.Context) error { return ctrl.Delete(ctx, d.task, true) })
		}
	default:
		return m, nil
	}
}

func (m Model) startForm(f *formState) Model {
	m.form = f
	m = m.loadField()
	m.input.Focus()
	return m
}

func (m Model) loadField() Model {
	fld := m.form.fields[m.form.index]
	m.input.SetValue(fld.value)
	m.input.Placeholder = m.cat.T(fld.label, nil)
	if fld.secret {
		m.input.EchoMode = textinput.EchoPassword
	} else {
		m.input.EchoMode = textinput.EchoNormal
	}
	return m
}

func (m Model) updateFormMode(key string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := m.form
	auth := f.kind == formLogin || f.kind == formRegister
	switch key {
	case m.keys.Cancel, "esc":
		if auth {
			return m, tea.Quit
		}
		m.form = nil
		m.input.Blur()
		m.status = ""
		return m, nil
	case m.keys.SwitchAuth:
		if !auth {
			break
		}
		return m.startForm(newAuthForm(f.kind == formLogin)), nil
	case "tab", "down":
		f.setCurrentValue(m.input.Value())
		f.index = wrapIndex(f.index+1, len(f.fields))
		return m.loadField(), nil
	case "shift+tab", "up":
		f.setCurrentValue(m.input.Value())
		f.index = wrapIndex(f.index-1, len(f.fields))
		return m.loadField(), nil
	case "enter":
		f.setCurrentValue(m.input.Value())
		if f.index >= len(f.fields)-1 {
			return m.submitForm()
		}
		f.index++
		return m.loadField(), nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) submitForm() (tea.Model, tea.Cmd) {
	f := m.form
	if f.submitting {
		return m, nil
	}
	invalid := func(err error) (tea.Model, tea.Cmd) {
		m = m.showNotice(notice.FromError(&task.ValidationError{
			Entity: "form",
			Fields: []task.FieldError{{Field: m.cat.T(f.currentLabel(), nil), Reason: err.Error()}},
		}))
		return m, nil
	}

	ws := m.deps.Workspace
	switch f.kind {
	case formTask:
		d, err := f.taskDraft()
		if err != nil {
			return invalid(err)
		}
		f.submitting = true
		ctrl, id := m.deps.Tasks, f.id
		if f.creating() {
			return m, submit(formTask, func(ctx context.Context) error { return ctrl.Create(ctx, d) })
		}
		return m, submit(formTask, func(ctx context.Context) error { return ctrl.Update(ctx, id, d) })
	case formTemplate:
		d := f.templateDraft()
		f.submitting = true
		mgr, id := m.deps.Templates, f.id
		if f.creating() {
			return m, submit(formTemplate, func(ctx context.Context) error { return mgr.Create(ctx, d) })
		}
		return m, submit(formTemplate, func(ctx context.Context) error { return mgr.Update(ctx, id, d) })
	case formLog:
		d, err := f.logDraft()
		if err != nil {
			return invalid(err)
		}
		f.submitting = true
		logs, taskID, id := m.deps.Logs, f.taskID, f.id
		if f.creating() {
			return m, submitLogs(func(ctx context.Context) ([]task.Log, error) { return logs.Create(ctx, taskID, d) })
		}
		return m, submitLogs(func(ctx context.Context) ([]task.Log, error) { return logs.Update(ctx, taskID, id, d) })
	case formRange:
		start, end, err := f.dateRange()
		if err != nil {
			return invalid(err)
		}
		m.form = nil
		m.input.Blur()
		return m.updateState(func(s view.State) view.State {
			s.Range = view.DateRange{Mode: view.RangeCustom, Start: start, End: end}
			return s
		}), nil
	case formLogin:
		cred := f.credentials()
		f.submitting = true
		return m, submit(formLogin, func(ctx context.Context) error { return ws.Login(ctx, cred) })
	case formRegister:
		cred := f.credentials()
		f.submitting = true
		return m, submit(formRegister, func(ctx context.Context) error { return ws.Register(ctx, cred) })
	}
	return m, nil
}

// openEdit opens the edit form once the server copy has arrived, unless
// the user has moved on in the meantime. Failures were already reported.
func (m Model) openEdit(msg editMsg) Model {
	if msg.err != nil || m.form != nil || m.confirmDel || m.mode != modeList {
		return m
	}
	if msg.kind == formTemplate {
		if m.snap.View != view.Repeat {
			return m
		}
		return m.startForm(newTemplateForm(&msg.template))
	}
	if m.snap.View == view.Repeat {
		return m
	}
	return m.startForm(newTaskForm(&msg.task))
}

func (m Model) formResult(msg formResultMsg) Model {
	// nil logs means the write went through but the list could not be
	// refetched; keep what is shown.
	if msg.kind == formLog && msg.err == nil && m.logTask != nil && msg.logs != nil {
		m.logs = msg.logs
		m.logCursor = clampCursor(m.logCursor, len(m.logs))
	}
	if m.form == nil || m.form.kind != msg.kind {
		return m
	}
	if msg.err != nil {
		m.form.submitting = false
		return m
	}
	m.form = nil
	m.input.Blur()
	if msg.kind == formLogin || msg.kind == formRegister {
		m.mode = modeList
	}
	return m
}

func (m Model) rowCount() int {
	if m.snap.View == view.Repeat {
		return len(m.snap.Templates)
	}
	return len(m.rows())
}

func (m Model) rows() []view.Row {
	var out []view.Row
	for _, s := range m.snap.Sections {
		out = append(out, s.Rows...)
	}
	return out
}

func (m Model) selectedTask() (task.Task, bool) {
	rows := m.rows()
	if len(rows) == 0 {
		return task.Task{}, false
	}
	return rows[clampCursor(m.cursor, len(rows))].Task, true
}

func (m Model) selectedTemplate() (task.Template, bool) {
	if len(m.snap.Templates) == 0 {
		return task.Template{}, false
	}
	return m.snap.Templates[clampCursor(m.cursor, len(m.snap.Templates))], true
}
