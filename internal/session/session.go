// Package session keeps the signed-in credential and the per-view filter
// preferences on the local machine. Tasks are never stored here.
package session

import (
	"errors"
	"time"
)

var (
	ErrNoSession = errors.New("no session stored")
	ErrExpired   = errors.New("session expired")
)

type Session struct {
	Token    string
	Username string
	Email    string
	SavedAt  time.Time
}

// Store holds at most one session.
type Store interface {
	// Load returns ErrNoSession when nothing is stored.
	Load() (Session, error)
	Save(Session) error
	Clear() error
}

// Prefs persists opaque per-view state blobs.
type Prefs interface {
	// ViewState returns nil when nothing was saved for view.
	ViewState(view string) ([]byte, error)
	SaveViewState(view string, state []byte) error
}
