// Package notice carries user-facing outcomes of actions. A notice holds a
// message key rather than text so the front end can localize it.
package notice

import (
	"context"
	"errors"

	"taskorbit/internal/api"
	"taskorbit/internal/session"
	"taskorbit/internal/task"
)

type Level int

const (
	// Soft notices inform and go away on their own.
	Soft Level = iota
	// Blocking notices report a failure and stay until dismissed.
	Blocking
)

func (l Level) String() string {
	if l == Blocking {
		return "blocking"
	}
	return "soft"
}

// Message keys. The catalog in internal/i18n defines each of them.
const (
	KeyRequestFailed   = "notice.request_failed"
	KeyNotFound        = "notice.not_found"
	KeyUnauthenticated = "notice.unauthenticated"
	KeyInvalid         = "notice.invalid"
	KeyTimeout         = "notice.timeout"
	KeyNothingToUndo   = "notice.nothing_to_undo"
	KeyNothingToRedo   = "notice.nothing_to_redo"
	KeyBusy            = "notice.busy"
	KeyIllegal         = "notice.illegal_transition"
	KeyNotConfirmed    = "notice.not_confirmed"
	KeyUndone          = "notice.undone"
	KeyRedone          = "notice.redone"
	KeySaved           = "notice.saved"
	KeyDeleted         = "notice.deleted"
	KeyCompleted       = "notice.completed"
	KeyWaiting         = "notice.waiting"
	KeyActivated       = "notice.activated"
	KeyToggled         = "notice.toggled"
	KeySignedIn        = "notice.signed_in"
	KeySignedOut       = "notice.signed_out"
)

type Notice struct {
	Level Level
	Key   string
	// Data fills placeholders in the message.
	Data map[string]any
	Err  error
}

func Info(key string, data map[string]any) Notice {
	return Notice{Level: Soft, Key: key, Data: data}
}

// Notifier shows notices to the user.
type Notifier interface {
	Notify(Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

// Discard drops every notice.
var Discard Notifier = NotifierFunc(func(Notice) {})

// Classifier lets packages above this one map their own sentinel errors to
// notices without an import cycle.
type Classifier interface {
	Notice() Notice
}

// FromError classifies err. Failures of a service call are blocking; the
// recoverable conditions a Classifier reports may be soft.
func FromError(err error) Notice {
	n := Notice{Level: Blocking, Key: KeyRequestFailed, Err: err}
	var c Classifier
	var apiErr *api.Error
	var verr *task.ValidationError
	switch {
	case err == nil:
		return Notice{}
	case errors.As(err, &c):
		n = c.Notice()
		n.Err = err
	case errors.Is(err, api.ErrUnauthenticated), session.IsSessionEnd(err):
		n.Key = KeyUnauthenticated
	case errors.As(err, &verr):
		n.Key = KeyInvalid
		n.Data = map[string]any{"Detail": verr.Error()}
	case errors.Is(err, context.DeadlineExceeded):
		n.Key = KeyTimeout
	case errors.As(err, &apiErr):
		if apiErr.Status == 404 {
			n.Key = KeyNotFound
		}
		n.Data = map[string]any{"Status": apiErr.Status, "Message": apiErr.Message}
	}
	return n
}

// Condition is a sentinel error that knows how it should be shown.
type Condition struct {
	msg   string
	level Level
	key   string
}

func NewCondition(level Level, key, msg string) *Condition {
	return &Condition{msg: msg, level: level, key: key}
}

func (c *Condition) Error() string { return c.msg }

func (c *Condition) Notice() Notice {
	return Notice{Level: c.level, Key: c.key}
}
