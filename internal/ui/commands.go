package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"taskorbit/internal/app"
	"taskorbit/internal/notice"
	"taskorbit/internal/task"
	"taskorbit/internal/view"
)

type snapshotMsg struct{ snap app.Snapshot }

type noticeMsg struct{ n notice.Notice }

type logsMsg struct {
	taskID int64
	logs   []task.Log
	err    error
}

type latestMsg struct {
	taskID int64
	log    *task.Log
}

type editMsg struct {
	kind     formKind
	task     task.Task
	template task.Template
	err      error
}

type formResultMsg struct {
	kind formKind
	err  error
	logs []task.Log
}

// Bridge carries what background work reports into the program loop. It is
// the workspace listener and the notifier of every controller. Notices
// queue and are dropped when the queue is full; snapshots are never
// dropped, but only the latest pending one is kept.
type Bridge struct {
	ch    chan tea.Msg
	snaps chan app.Snapshot
}

var _ notice.Notifier = (*Bridge)(nil)

func NewBridge() *Bridge {
	return &Bridge{ch: make(chan tea.Msg, 64), snaps: make(chan app.Snapshot, 1)}
}

func (b *Bridge) Notify(n notice.Notice) { b.send(noticeMsg{n}) }

// Publish is the workspace's change listener. A snapshot still waiting to
// be delivered is replaced by s.
func (b *Bridge) Publish(s app.Snapshot) {
	for {
		select {
		case b.snaps <- s:
			return
		default:
		}
		select {
		case <-b.snaps:
		default:
		}
	}
}

func (b *Bridge) send(msg tea.Msg) {
	select {
	case b.ch <- msg:
	default:
		zap.L().Warn("ui event dropped", zap.String("type", typeName(msg)))
	}
}

func (b *Bridge) listen() tea.Cmd {
	return func() tea.Msg {
		select {
		case s := <-b.snaps:
			return snapshotMsg{s}
		case msg := <-b.ch:
			return msg
		}
	}
}

func typeName(msg tea.Msg) string {
	switch msg.(type) {
	case snapshotMsg:
		return "snapshot"
	case noticeMsg:
		return "notice"
	}
	return "other"
}

func (m Model) openView(id view.ID) tea.Cmd {
	ws := m.deps.Workspace
	return func() tea.Msg {
		_ = ws.Open(context.Background(), id)
		return nil
	}
}

func (m Model) reload() tea.Cmd {
	ws := m.deps.Workspace
	return func() tea.Msg {
		_ = ws.Reload(context.Background())
		return nil
	}
}

func (m Model) loadLogs(taskID int64) tea.Cmd {
	logs := m.deps.Logs
	return func() tea.Msg {
		l, err := logs.List(context.Background(), taskID)
		return logsMsg{taskID: taskID, logs: l, err: err}
	}
}

// loadLatest fetches the newest log, whose next action heads the panel.
func (m Model) loadLatest(taskID int64) tea.Cmd {
	logs := m.deps.Logs
	return func() tea.Msg {
		l, ok, err := logs.Latest(context.Background(), taskID)
		if err != nil || !ok {
			return latestMsg{taskID: taskID}
		}
		return latestMsg{taskID: taskID, log: &l}
	}
}

func (m Model) editTask(id int64) tea.Cmd {
	ctrl := m.deps.Tasks
	return func() tea.Msg {
		t, err := ctrl.Get(context.Background(), id)
		return editMsg{kind: formTask, task: t, err: err}
	}
}

func (m Model) editTemplate(id int64) tea.Cmd {
	mgr := m.deps.Templates
	return func() tea.Msg {
		t, err := mgr.Get(context.Background(), id)
		return editMsg{kind: formTemplate, template: t, err: err}
	}
}

// run wraps a fire-and-forget call. Its outcome reaches the loop as
// notices and snapshots.
func run(fn func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		_ = fn(context.Background())
		return nil
	}
}

func submit(kind formKind, fn func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return formResultMsg{kind: kind, err: fn(context.Background())}
	}
}

func submitLogs(fn func(context.Context) ([]task.Log, error)) tea.Cmd {
	return func() tea.Msg {
		logs, err := fn(context.Background())
		return formResultMsg{kind: formLog, err: err, logs: logs}
	}
}
