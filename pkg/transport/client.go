// Package transport issues de-duplicated JSON requests against notebook
// servers, delivering results through success/error continuations.
//
// All methods are safe for concurrent calling.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// SuccessFunc receives the decoded JSON body of a completed request.
type SuccessFunc func(payload any)

// ErrorFunc receives the HTTP status (0 when the request never reached the
// server) and the underlying error.
type ErrorFunc func(status int, err error)

// TokenFunc returns the auth token for a request URL, or "" for none.
type TokenFunc func(rawurl string) string

// Request describes one call. Requests sharing a non-empty Key are
// de-duplicated: while one is in flight, identical issues piggyback on the
// same underlying HTTP call and all continuations fire with the shared
// result.
type Request struct {
	Method string
	URL    string
	Body   any // JSON-encoded when non-nil
	Key    string
}

// Key builds a de-duplication key from its parts. Parts are joined with a
// separator that cannot appear in URLs or paths so distinct tuples never
// collide.
func Key(parts ...string) string {
	return strings.Join(parts, "\x1f")
}

// StatusError is returned for responses outside the 2xx range.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP error %d returned body: %q", e.Code, e.Body)
}

// Client issues requests. One Client is shared across all servers; per-server
// auth is resolved through the token func.
type Client struct {
	httpClient *http.Client
	log        *logrus.Logger
	group      singleflight.Group
	tokenFor   TokenFunc
}

// New creates a Client. A nil httpClient falls back to http.DefaultClient.
func New(httpClient *http.Client, log *logrus.Logger) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if log == nil {
		log = logrus.New()
	}
	return &Client{httpClient: httpClient, log: log}
}

// SetTokenFunc installs the per-URL auth token source. Call before issuing
// requests.
func (c *Client) SetTokenFunc(fn TokenFunc) {
	c.tokenFor = fn
}

// Issue dispatches the request asynchronously. It returns immediately; the
// continuation runs on a separate goroutine once the response resolves.
func (c *Client) Issue(ctx context.Context, req Request, onSuccess SuccessFunc, onError ErrorFunc) {
	go c.dispatch(ctx, req, onSuccess, onError)
}

// IssueSync dispatches the request and blocks until its continuation has
// run. Used by callers written as ordinary sequential recursion.
func (c *Client) IssueSync(ctx context.Context, req Request, onSuccess SuccessFunc, onError ErrorFunc) {
	c.dispatch(ctx, req, onSuccess, onError)
}

func (c *Client) dispatch(ctx context.Context, req Request, onSuccess SuccessFunc, onError ErrorFunc) {
	var payload any
	var err error
	if req.Key != "" {
		payload, err, _ = c.group.Do(req.Key, func() (any, error) {
			return c.roundTrip(ctx, req)
		})
	} else {
		payload, err = c.roundTrip(ctx, req)
	}
	if err != nil {
		status := 0
		if se, ok := err.(*StatusError); ok {
			status = se.Code
		}
		if onError != nil {
			onError(status, err)
		}
		return
	}
	if onSuccess != nil {
		onSuccess(payload)
	}
}

func (c *Client) roundTrip(ctx context.Context, req Request) (any, error) {
	reqID := uuid.NewString()
	fields := logrus.Fields{
		"request_id": reqID,
		"method":     req.Method,
		"url":        req.URL,
	}

	var body io.Reader
	if req.Body != nil {
		encoded, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("X-Request-ID", reqID)
	if req.Body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.tokenFor != nil {
		if token := c.tokenFor(req.URL); token != "" {
			httpReq.Header.Set("Authorization", "token "+token)
		}
	}

	c.log.WithFields(fields).Debug("issuing request")
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, Body: string(raw)}
	}

	var payload any
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &payload); err != nil {
			return nil, fmt.Errorf("decode response body: %w", err)
		}
	}
	c.log.WithFields(fields).WithField("status", resp.StatusCode).Debug("request complete")
	return payload, nil
}
