// Package api is the HTTP client for the task service. Every call is a
// single request with no retry; failures come back as *Error or as a
// wrapped transport error.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

const DefaultBaseURL = "http://localhost:8080/api"

// ErrUnauthenticated means there is no usable session: none was stored,
// it expired, or the service refused the bearer token.
var ErrUnauthenticated = errors.New("not signed in")

// Error is a non-2xx response from the service.
type Error struct {
	Method  string
	Path    string
	Status  int
	Message string
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, msg)
}

// IsNotFound reports whether err is a 404 from the service.
func IsNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

type Options struct {
	BaseURL string
	// Tokens supplies the bearer credential for every call except
	// register and login.
	Tokens oauth2.TokenSource
	// Timeout bounds each request. Zero means no bound.
	Timeout time.Duration
	// Transport is the underlying round tripper. Nil means
	// http.DefaultTransport.
	Transport http.RoundTripper
	Logger    *zap.Logger
}

type Client struct {
	base   string
	authed *http.Client
	anon   *http.Client
	log    *zap.Logger
}

func New(opts Options) (*Client, error) {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("api base url: %w", err)
	}
	if opts.Tokens == nil {
		return nil, errors.New("api: token source is nil")
	}
	rt := opts.Transport
	if rt == nil {
		rt = http.DefaultTransport
	}
	log := opts.Logger
	if log == nil {
		log = zap.L()
	}
	return &Client{
		base: base,
		authed: &http.Client{
			Timeout:   opts.Timeout,
			Transport: &oauth2.Transport{Source: sessionSource{opts.Tokens}, Base: rt},
		},
		anon: &http.Client{Timeout: opts.Timeout, Transport: rt},
		log:  log.Named("api"),
	}, nil
}

// sessionSource marks every token source failure as ErrUnauthenticated so
// it survives the *url.Error wrapping done by http.Client.
type sessionSource struct {
	src oauth2.TokenSource
}

func (s sessionSource) Token() (*oauth2.Token, error) {
	tok, err := s.src.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	return tok, nil
}

type errorBody struct {
	Message string `json:"message"`
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, c.authed, http.MethodGet, path, nil, out)
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	return c.do(ctx, c.authed, http.MethodPost, path, in, out)
}

func (c *Client) put(ctx context.Context, path string, in, out any) error {
	return c.do(ctx, c.authed, http.MethodPut, path, in, out)
}

func (c *Client) delete(ctx context.Context, path string) error {
	return c.do(ctx, c.authed, http.MethodDelete, path, nil, nil)
}

func (c *Client) do(ctx context.Context, hc *http.Client, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	reqID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		if errors.Is(err, ErrUnauthenticated) {
			c.log.Debug("request skipped without session", zap.String("method", method), zap.String("path", path))
			return ErrUnauthenticated
		}
		c.log.Error("request failed", zap.String("method", method), zap.String("path", path),
			zap.String("request_id", reqID), zap.Error(err))
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	fields := []zap.Field{
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
		zap.String("request_id", reqID),
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		c.log.Error("read response", append(fields, zap.Error(err))...)
		return fmt.Errorf("%s %s: read body: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if hc == c.authed && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			c.log.Warn("session rejected", fields...)
			return ErrUnauthenticated
		}
		var eb errorBody
		_ = json.Unmarshal(raw, &eb)
		c.log.Warn("request rejected", append(fields, zap.String("message", eb.Message))...)
		return &Error{Method: method, Path: path, Status: resp.StatusCode, Message: eb.Message}
	}
	c.log.Debug("request done", fields...)

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
