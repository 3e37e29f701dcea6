package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"taskorbit/internal/task"
)

// fakeService mimics the task service closely enough for the client.
type fakeService struct {
	mu       sync.Mutex
	requests []string
	auth     []string
	ids      []string
	bodies   map[string]map[string]any
	undoOK   bool
}

func (f *fakeService) seen() (requests, auth, ids []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.requests...), append([]string(nil), f.auth...), append([]string(nil), f.ids...)
}

func (f *fakeService) body(key string) map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bodies[key]
}

func (f *fakeService) allowUndo() {
	f.mu.Lock()
	f.undoOK = true
	f.mu.Unlock()
}

func newFakeService(t *testing.T) (*fakeService, *httptest.Server) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	f := &fakeService{bodies: map[string]map[string]any{}}
	r := gin.New()
	r.Use(func(c *gin.Context) {
		f.mu.Lock()
		f.requests = append(f.requests, c.Request.Method+" "+c.Request.URL.Path)
		f.auth = append(f.auth, c.GetHeader("Authorization"))
		f.ids = append(f.ids, c.GetHeader("X-Request-ID"))
		f.mu.Unlock()
		c.Next()
	})
	g := r.Group("/api")
	g.GET("/tasks/today", func(c *gin.Context) {
		c.JSON(http.StatusOK, []gin.H{
			{"id": 1, "title": "Write", "status": "ONGOING", "scheduleDate": "2024-03-07", "createdAt": "2024-03-01T09:00:00"},
			{"id": 2, "title": "Wait", "status": "WAITING", "category": "work"},
		})
	})
	g.GET("/tasks/forbidden", func(c *gin.Context) {
		c.JSON(http.StatusForbidden, gin.H{"message": "nope"})
	})
	g.POST("/tasks", func(c *gin.Context) {
		var body map[string]any
		_ = c.ShouldBindJSON(&body)
		f.mu.Lock()
		f.bodies["POST /tasks"] = body
		f.mu.Unlock()
		c.JSON(http.StatusCreated, gin.H{"id": 10, "title": body["title"], "status": "ONGOING"})
	})
	g.POST("/tasks/:id/complete", func(c *gin.Context) {
		if c.Param("id") == "404" {
			c.JSON(http.StatusNotFound, gin.H{"message": "Task not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": 3, "title": "x", "status": "DONE"})
	})
	g.GET("/tasks/:id", func(c *gin.Context) {
		if c.Param("id") != "3" {
			c.JSON(http.StatusNotFound, gin.H{"message": "Task not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": 3, "title": "Write", "status": "WAITING", "scheduleDate": "2024-03-07"})
	})
	g.DELETE("/tasks/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	g.GET("/tasks/:id/logs/latest", func(c *gin.Context) {
		if c.Param("id") == "1" {
			c.Status(http.StatusNotFound)
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": 5, "taskId": 2, "date": "2024-03-02", "nextAction": "call"})
	})
	g.GET("/recurring-settings", func(c *gin.Context) {
		c.JSON(http.StatusOK, []gin.H{{"id": 1, "title": "Stretch", "recurrenceType": "DAILY", "isActive": false}})
	})
	g.GET("/recurring-settings/active", func(c *gin.Context) { c.JSON(http.StatusOK, []gin.H{}) })
	g.GET("/recurring-settings/:id", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": 1, "title": "Stretch", "category": "health", "recurrenceType": "WEEKLY", "isActive": true})
	})
	g.POST("/undo-redo/undo", func(c *gin.Context) {
		f.mu.Lock()
		ok := f.undoOK
		f.mu.Unlock()
		if ok {
			c.JSON(http.StatusOK, gin.H{"success": true, "message": "Undo completed", "log": gin.H{"id": 4}})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": false, "message": "No action to undo"})
	})
	g.POST("/auth/login", func(c *gin.Context) {
		var cred Credentials
		_ = c.ShouldBindJSON(&cred)
		if cred.Password != "secret" {
			c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid password"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"token": "jwt", "username": cred.Username, "email": "a@b.c", "message": "Login successful"})
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return f, srv
}

func newTestClient(t *testing.T, srv *httptest.Server, src oauth2.TokenSource) *Client {
	t.Helper()
	c, err := New(Options{BaseURL: srv.URL + "/api/", Tokens: src, Timeout: 5 * time.Second})
	require.NoError(t, err)
	return c
}

func staticToken() oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "tok", TokenType: "Bearer"})
}

type noSession struct{}

func (noSession) Token() (*oauth2.Token, error) { return nil, errors.New("no session stored") }

func TestListTasks_DecodesAndAuthenticates(t *testing.T) {
	f, srv := newFakeService(t)
	c := newTestClient(t, srv, staticToken())

	tasks, err := c.ListTasks(context.Background(), "today")
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	assert.Equal(t, "2024-03-07", tasks[0].ScheduleDate.String())
	assert.Equal(t, task.StatusWaiting, tasks[1].Status)
	assert.Equal(t, "work", tasks[1].Category)

	_, auth, ids := f.seen()
	require.Len(t, auth, 1)
	assert.Equal(t, "Bearer tok", auth[0])
	assert.Len(t, ids[0], 36)
}

func TestClient_NoSessionSendsNothing(t *testing.T) {
	f, srv := newFakeService(t)
	c := newTestClient(t, srv, noSession{})

	_, err := c.ListTasks(context.Background(), "today")
	assert.ErrorIs(t, err, ErrUnauthenticated)
	requests, _, _ := f.seen()
	assert.Empty(t, requests)
}

func TestClient_ForbiddenMapsToUnauthenticated(t *testing.T) {
	_, srv := newFakeService(t)
	c := newTestClient(t, srv, staticToken())

	_, err := c.ListTasks(context.Background(), "forbidden")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestClient_ErrorCarriesServiceMessage(t *testing.T) {
	_, srv := newFakeService(t)
	c := newTestClient(t, srv, staticToken())

	_, err := c.CompleteTask(context.Background(), 404)
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "Task not found", apiErr.Message)
	assert.True(t, IsNotFound(err))

	done, err := c.CompleteTask(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, task.StatusDone, done.Status)
}

func TestCreateTask_SendsDraft(t *testing.T) {
	f, srv := newFakeService(t)
	c := newTestClient(t, srv, staticToken())

	created, err := c.CreateTask(context.Background(), task.TaskDraft{Title: "Plan", DueDate: task.NewDate(2024, 4, 1)})
	require.NoError(t, err)
	assert.Equal(t, int64(10), created.ID)
	assert.Equal(t, map[string]any{"title": "Plan", "dueDate": "2024-04-01"}, f.body("POST /tasks"))
}

func TestDeleteTask_EmptyBody(t *testing.T) {
	f, srv := newFakeService(t)
	c := newTestClient(t, srv, staticToken())

	require.NoError(t, c.DeleteTask(context.Background(), 7))
	requests, _, _ := f.seen()
	assert.Equal(t, []string{"DELETE /api/tasks/7"}, requests)
}

func TestLatestLog(t *testing.T) {
	_, srv := newFakeService(t)
	c := newTestClient(t, srv, staticToken())

	_, ok, err := c.LatestLog(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, ok)

	l, ok, err := c.LatestLog(context.Background(), 2)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "call", l.NextAction)
}

func TestTask(t *testing.T) {
	f, srv := newFakeService(t)
	c := newTestClient(t, srv, staticToken())

	got, err := c.Task(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "Write", got.Title)
	assert.Equal(t, task.StatusWaiting, got.Status)
	assert.Equal(t, "2024-03-07", got.ScheduleDate.String())

	_, err = c.Task(context.Background(), 8)
	assert.True(t, IsNotFound(err))
	requests, _, _ := f.seen()
	assert.Equal(t, []string{"GET /api/tasks/3", "GET /api/tasks/8"}, requests)
}

func TestTemplate(t *testing.T) {
	f, srv := newFakeService(t)
	c := newTestClient(t, srv, staticToken())

	got, err := c.Template(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, task.RecurrenceWeekly, got.RecurrenceType)
	assert.True(t, got.IsActive)
	requests, _, _ := f.seen()
	assert.Equal(t, []string{"GET /api/recurring-settings/1"}, requests)
}

func TestTemplates_ActiveOnlyPath(t *testing.T) {
	f, srv := newFakeService(t)
	c := newTestClient(t, srv, staticToken())

	all, err := c.Templates(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.False(t, all[0].IsActive)

	active, err := c.Templates(context.Background(), true)
	require.NoError(t, err)
	assert.Empty(t, active)
	requests, _, _ := f.seen()
	assert.Equal(t, []string{"GET /api/recurring-settings", "GET /api/recurring-settings/active"}, requests)
}

func TestUndo(t *testing.T) {
	f, srv := newFakeService(t)
	c := newTestClient(t, srv, staticToken())

	res, err := c.Undo(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "No action to undo", res.Message)

	f.allowUndo()
	res, err = c.Undo(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.JSONEq(t, `{"id":4}`, string(res.Log))
}

func TestLogin_BypassesSession(t *testing.T) {
	f, srv := newFakeService(t)
	c := newTestClient(t, srv, noSession{})

	res, err := c.Login(context.Background(), Credentials{Username: "kim", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "jwt", res.Token)
	_, auth, _ := f.seen()
	assert.Equal(t, "", auth[0])

	_, err = c.Login(context.Background(), Credentials{Username: "kim", Password: "wrong"})
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "Invalid password", apiErr.Message)
	assert.NotErrorIs(t, err, ErrUnauthenticated)
}

func TestNew_RejectsBadBaseURL(t *testing.T) {
	_, err := New(Options{BaseURL: "::not a url", Tokens: staticToken()})
	assert.Error(t, err)
	_, err = New(Options{BaseURL: DefaultBaseURL})
	assert.Error(t, err)
}
