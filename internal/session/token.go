package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// Expiry reads the exp claim of a JWT without verifying its signature; the
// service does the verifying. A token without exp yields the zero time.
func Expiry(token string) (time.Time, error) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, fmt.Errorf("parse token: %w", err)
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, nil
	}
	return claims.ExpiresAt.Time, nil
}

// TokenSource serves the stored session as a bearer token. An expired
// session is cleared from the store on first use.
type TokenSource struct {
	store Store
	now   func() time.Time
}

var _ oauth2.TokenSource = (*TokenSource)(nil)

func NewTokenSource(store Store) *TokenSource {
	return &TokenSource{store: store, now: time.Now}
}

func (ts *TokenSource) Token() (*oauth2.Token, error) {
	sess, err := ts.store.Load()
	if err != nil {
		return nil, err
	}
	exp, err := Expiry(sess.Token)
	if err != nil {
		// Opaque tokens are passed through; the service decides.
		zap.L().Debug("session token is not a JWT", zap.Error(err))
	}
	if !exp.IsZero() && !ts.now().Before(exp) {
		if cerr := ts.store.Clear(); cerr != nil {
			zap.L().Error("clear expired session", zap.Error(cerr))
		}
		return nil, ErrExpired
	}
	return &oauth2.Token{AccessToken: sess.Token, TokenType: "Bearer", Expiry: exp}, nil
}

// Active reports whether a usable session is stored.
func (ts *TokenSource) Active() bool {
	_, err := ts.Token()
	return err == nil
}

// IsSessionEnd reports whether err means the user has to sign in again.
func IsSessionEnd(err error) bool {
	return errors.Is(err, ErrNoSession) || errors.Is(err, ErrExpired)
}
