package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/google/uuid"
	taskverse "github.com/taskverse/client-go"
)

const defaultTimeout = 15 * time.Second

// SessionSource is the slice of the session store the client needs:
// the current identity at send time, and the forced-termination path
// on authorization failure. *taskverse.Store satisfies it.
type SessionSource interface {
	Current() (taskverse.SessionState, *taskverse.Identity)
	Terminate(ctx context.Context, reason string) bool
}

// RequestInterceptor can mutate an outgoing request before it is sent.
type RequestInterceptor func(req *http.Request) error

// ResponseInterceptor observes a response before it reaches the caller.
type ResponseInterceptor func(resp *http.Response) error

// Client talks to the TaskVerse job-board backend. Authentication is
// attached per request through interceptors registered by Bind, never
// cached at construction time.
type Client struct {
	baseURL string
	http    *http.Client
	session SessionSource
	logger  taskverse.Logger
	refetch *taskverse.RefetchSignal

	mu                   sync.Mutex
	requestInterceptors  map[string]RequestInterceptor
	responseInterceptors map[string]ResponseInterceptor
}

// Option customizes client construction.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger overrides the default logger.
func WithLogger(logger taskverse.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRefetchSignal wires the cache-invalidation signal: every
// successful mutation bumps it once so listing surfaces re-fetch.
func WithRefetchSignal(signal *taskverse.RefetchSignal) Option {
	return func(c *Client) {
		c.refetch = signal
	}
}

// New creates a client for the backend at baseURL. The session source
// is consulted on every request; passing nil yields a client that only
// reaches public endpoints.
func New(baseURL string, session SessionSource, opts ...Option) *Client {
	c := &Client{
		baseURL:              strings.TrimRight(baseURL, "/"),
		http:                 &http.Client{Timeout: defaultTimeout},
		session:              session,
		logger:               taskverse.DefaultLogger(),
		requestInterceptors:  map[string]RequestInterceptor{},
		responseInterceptors: map[string]ResponseInterceptor{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	return c
}

// OnRequest registers a request interceptor and returns its handle.
func (c *Client) OnRequest(fn RequestInterceptor) string {
	id := uuid.NewString()
	c.mu.Lock()
	c.requestInterceptors[id] = fn
	c.mu.Unlock()
	return id
}

// OnResponse registers a response interceptor and returns its handle.
func (c *Client) OnResponse(fn ResponseInterceptor) string {
	id := uuid.NewString()
	c.mu.Lock()
	c.responseInterceptors[id] = fn
	c.mu.Unlock()
	return id
}

// Eject removes previously registered interceptors by handle.
func (c *Client) Eject(handles ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range handles {
		delete(c.requestInterceptors, id)
		delete(c.responseInterceptors, id)
	}
}

// Binding is the scoped acquisition of the session interceptors:
// created when a consuming surface mounts, closed when it unmounts.
// Leaving bindings open across remounts accumulates duplicate
// interceptors, which is exactly the leak Close prevents.
type Binding struct {
	client  *Client
	handles []string
	once    sync.Once
}

// Close deregisters the binding's interceptors. Safe to call more
// than once.
func (b *Binding) Close() {
	b.once.Do(func() {
		b.client.Eject(b.handles...)
	})
}

// Bind registers the session interceptors: bearer attachment on every
// request, and forced termination plus one user notification on a 401
// or 403 response. The identity is re-resolved at send time, so a
// request issued after sign-out never carries the previous session's
// credential.
func (c *Client) Bind(notifier taskverse.Notifier) *Binding {
	if notifier == nil {
		notifier = taskverse.NoopNotifier{}
	}

	reqHandle := c.OnRequest(func(req *http.Request) error {
		if c.session == nil {
			return nil
		}
		state, identity := c.session.Current()
		if state == taskverse.StateAuthenticated && identity != nil && identity.Credential.AccessToken != "" {
			req.Header.Set("Authorization", "Bearer "+identity.Credential.AccessToken)
		}
		return nil
	})

	respHandle := c.OnResponse(func(resp *http.Response) error {
		if resp.StatusCode != http.StatusUnauthorized && resp.StatusCode != http.StatusForbidden {
			return nil
		}
		if c.session == nil {
			return nil
		}
		reason := fmt.Sprintf("backend rejected credential with status %d", resp.StatusCode)
		// Terminate reports whether this call performed the
		// transition, so concurrent failures produce one notification.
		if c.session.Terminate(resp.Request.Context(), reason) {
			notifier.Error(taskverse.UserMessage(taskverse.ErrAuthorizationExpired))
		}
		return nil
	})

	return &Binding{client: c, handles: []string{reqHandle, respHandle}}
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to encode request body")
		}
		reader = bytes.NewReader(payload)
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to build request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	for _, intercept := range c.snapshotRequestInterceptors() {
		if err := intercept(req); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "request interceptor failed")
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("request failed", "method", method, "path", path, "error", err)
		return goerrors.Wrap(err, goerrors.CategoryOperation, taskverse.ErrNetwork.Message).
			WithTextCode(taskverse.TextCodeNetwork)
	}
	defer resp.Body.Close()

	for _, intercept := range c.snapshotResponseInterceptors() {
		if err := intercept(resp); err != nil {
			return err
		}
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		// Clone before attaching metadata: the sentinel is shared, and
		// concurrent failing requests must not write into its map.
		return taskverse.ErrAuthorizationExpired.Clone().WithMetadata(map[string]any{
			"status": resp.StatusCode,
			"path":   path,
		})
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.statusError(resp, method, path)
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to decode response body")
	}
	return nil
}

// statusError passes non-auth failures through to the caller with the
// backend's status intact; call sites own their error presentation.
func (c *Client) statusError(resp *http.Response, method, path string) error {
	snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))

	metadata := map[string]any{
		"status": resp.StatusCode,
		"method": method,
		"path":   path,
	}
	if len(snippet) > 0 {
		metadata["body"] = string(snippet)
	}

	c.logger.Warn(
		"backend error response",
		"status", resp.StatusCode,
		"path", path,
		"details", print.MaybePrettyJSON(metadata),
	)

	category := goerrors.CategoryInternal
	if resp.StatusCode < 500 {
		category = goerrors.CategoryBadInput
	}

	return goerrors.New(fmt.Sprintf("request failed with status %d", resp.StatusCode), category).
		WithCode(resp.StatusCode).
		WithMetadata(metadata)
}

func (c *Client) bumpRefetch() {
	if c.refetch != nil {
		c.refetch.Bump()
	}
}

func (c *Client) snapshotRequestInterceptors() []RequestInterceptor {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]RequestInterceptor, 0, len(c.requestInterceptors))
	for _, fn := range c.requestInterceptors {
		out = append(out, fn)
	}
	return out
}

func (c *Client) snapshotResponseInterceptors() []ResponseInterceptor {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]ResponseInterceptor, 0, len(c.responseInterceptors))
	for _, fn := range c.responseInterceptors {
		out = append(out, fn)
	}
	return out
}
