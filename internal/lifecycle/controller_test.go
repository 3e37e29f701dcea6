package lifecycle

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskorbit/internal/api"
	"taskorbit/internal/notice"
	"taskorbit/internal/task"
)

type fakeService struct {
	mu      sync.Mutex
	calls   []string
	err     error
	gate    chan struct{}
	started chan struct{}
}

func (f *fakeService) record(call string) error {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	gate, started := f.gate, f.started
	f.mu.Unlock()
	if started != nil {
		started <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
	return f.err
}

func (f *fakeService) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeService) Task(_ context.Context, id int64) (task.Task, error) {
	if err := f.record("get"); err != nil {
		return task.Task{}, err
	}
	return task.Task{ID: id, Title: "fresh", Status: task.StatusOngoing}, nil
}

func (f *fakeService) CompleteTask(_ context.Context, id int64) (task.Task, error) {
	return task.Task{ID: id, Status: task.StatusDone}, f.record("complete")
}

func (f *fakeService) WaitTask(_ context.Context, id int64) (task.Task, error) {
	return task.Task{ID: id, Status: task.StatusWaiting}, f.record("waiting")
}

func (f *fakeService) ActivateTask(_ context.Context, id int64) (task.Task, error) {
	return task.Task{ID: id, Status: task.StatusOngoing}, f.record("activate")
}

func (f *fakeService) DeleteTask(context.Context, int64) error {
	return f.record("delete")
}

func (f *fakeService) CreateTask(_ context.Context, d task.TaskDraft) (task.Task, error) {
	return task.Task{ID: 1, Title: d.Title}, f.record("create:" + d.Title)
}

func (f *fakeService) UpdateTask(_ context.Context, id int64, d task.TaskDraft) (task.Task, error) {
	return task.Task{ID: id, Title: d.Title}, f.record("update:" + d.Title)
}

type countingReloader struct{ n atomic.Int32 }

func (r *countingReloader) Reload(context.Context) error {
	r.n.Add(1)
	return nil
}

type notices struct {
	mu  sync.Mutex
	got []notice.Notice
}

func (n *notices) Notify(x notice.Notice) {
	n.mu.Lock()
	n.got = append(n.got, x)
	n.mu.Unlock()
}

func (n *notices) last() notice.Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.got[len(n.got)-1]
}

func setup() (*Controller, *fakeService, *countingReloader, *notices) {
	svc := &fakeService{}
	rl := &countingReloader{}
	ns := &notices{}
	return New(svc, rl, ns), svc, rl, ns
}

func TestTransitionTable(t *testing.T) {
	cases := []struct {
		from   task.Status
		action Action
		to     task.Status
		ok     bool
	}{
		{task.StatusOngoing, ActionWait, task.StatusWaiting, true},
		{task.StatusWaiting, ActionActivate, task.StatusOngoing, true},
		{task.StatusOngoing, ActionComplete, task.StatusDone, true},
		{task.StatusWaiting, ActionComplete, task.StatusDone, true},
		{task.StatusOngoing, ActionActivate, "", false},
		{task.StatusWaiting, ActionWait, "", false},
		{task.StatusDone, ActionComplete, "", false},
		{task.StatusDone, ActionActivate, "", false},
		{task.StatusDone, ActionWait, "", false},
	}
	for _, tc := range cases {
		to, ok := Next(tc.from, tc.action)
		assert.Equal(t, tc.ok, ok, "%s --%s-->", tc.from, tc.action)
		assert.Equal(t, tc.to, to)
		assert.Equal(t, tc.ok, Allowed(tc.from, tc.action))
	}
	for _, s := range []task.Status{task.StatusOngoing, task.StatusWaiting, task.StatusDone} {
		assert.True(t, Allowed(s, ActionDelete))
	}
	assert.Equal(t, []Action{ActionComplete, ActionWait, ActionDelete}, Actions(task.StatusOngoing))
	assert.Equal(t, []Action{ActionComplete, ActionActivate, ActionDelete}, Actions(task.StatusWaiting))
	assert.Equal(t, []Action{ActionDelete}, Actions(task.StatusDone))
}

func TestApply_SuccessReloadsOnce(t *testing.T) {
	c, svc, rl, ns := setup()
	require.NoError(t, c.Wait(context.Background(), task.Task{ID: 4, Status: task.StatusOngoing}))
	assert.Equal(t, []string{"waiting"}, svc.Calls())
	assert.Equal(t, int32(1), rl.n.Load())
	assert.Equal(t, notice.KeyWaiting, ns.last().Key)
}

func TestApply_IllegalSendsNothing(t *testing.T) {
	c, svc, rl, ns := setup()
	err := c.Activate(context.Background(), task.Task{ID: 4, Status: task.StatusDone})
	assert.ErrorIs(t, err, ErrIllegalTransition)
	assert.Empty(t, svc.Calls())
	assert.Zero(t, rl.n.Load())
	assert.Equal(t, notice.KeyIllegal, ns.last().Key)
}

func TestApply_FailureLeavesViewAlone(t *testing.T) {
	c, svc, rl, ns := setup()
	svc.err = &api.Error{Status: 500, Message: "boom"}
	err := c.Complete(context.Background(), task.Task{ID: 4, Status: task.StatusWaiting})

	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, []string{"complete"}, svc.Calls(), "no retry")
	assert.Zero(t, rl.n.Load())
	assert.Equal(t, notice.Blocking, ns.last().Level)
}

func TestDelete_RequiresConfirmation(t *testing.T) {
	c, svc, rl, _ := setup()
	tk := task.Task{ID: 8, Status: task.StatusDone}

	assert.ErrorIs(t, c.Delete(context.Background(), tk, false), ErrNotConfirmed)
	assert.ErrorIs(t, c.Apply(context.Background(), tk, ActionDelete), ErrNotConfirmed)
	assert.Empty(t, svc.Calls())

	require.NoError(t, c.Delete(context.Background(), tk, true))
	assert.Equal(t, []string{"delete"}, svc.Calls())
	assert.Equal(t, int32(1), rl.n.Load())
}

func TestCreate_ValidatesBeforeSending(t *testing.T) {
	c, svc, rl, ns := setup()
	err := c.Create(context.Background(), task.TaskDraft{Title: "  "})
	var verr *task.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Empty(t, svc.Calls())
	assert.Equal(t, notice.KeyInvalid, ns.last().Key)

	require.NoError(t, c.Create(context.Background(), task.TaskDraft{Title: " Plan ", DueDate: task.NewDate(2024, 5, 1)}))
	require.NoError(t, c.Update(context.Background(), 3, task.TaskDraft{Title: "Plan v2", DueDate: task.NewDate(2024, 5, 2)}))
	assert.Equal(t, []string{"create:Plan", "update:Plan v2"}, svc.Calls())
	assert.Equal(t, int32(2), rl.n.Load())
}

func TestIdenticalRequestsAreJoined(t *testing.T) {
	c, svc, rl, _ := setup()
	svc.gate = make(chan struct{})
	svc.started = make(chan struct{}, 2)
	tk := task.Task{ID: 5, Status: task.StatusOngoing}

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(1)
	go func() {
		defer wg.Done()
		errs[0] = c.Complete(context.Background(), tk)
	}()
	<-svc.started
	wg.Add(1)
	go func() {
		defer wg.Done()
		errs[1] = c.Complete(context.Background(), tk)
	}()
	time.Sleep(50 * time.Millisecond)
	close(svc.gate)
	wg.Wait()

	assert.NoError(t, errs[0])
	assert.NoError(t, errs[1])
	assert.Equal(t, []string{"complete"}, svc.Calls())
	assert.Equal(t, int32(1), rl.n.Load())
}

func TestGet(t *testing.T) {
	c, svc, rl, ns := setup()

	got, err := c.Get(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, "fresh", got.Title)
	assert.Empty(t, ns.got)

	svc.err = &api.Error{Status: 404}
	_, err = c.Get(context.Background(), 4)
	assert.True(t, api.IsNotFound(err))
	assert.Equal(t, notice.KeyNotFound, ns.last().Key)
	assert.Zero(t, rl.n.Load())
}
