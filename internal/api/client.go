package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/campusql/campusql-go/internal/session"
)

// loginPath is exempt from the session-expiry side effect: a 401 here means
// bad credentials, not an expired session, and must reach the caller.
const loginPath = "/auth/login"

// Client is the typed gateway to the LMS backend. Paths are relative to the
// configured base URL; the bearer token held by the session store is attached
// to every request; response bodies are recursively camelized before
// decoding, bridging the backend's snake_case convention.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	store      session.Store

	// onSessionExpired is invoked after the session has been cleared in
	// response to a 401 on a non-login request. The application uses it to
	// return to its unauthenticated entry point.
	onSessionExpired func()
}

type Option func(*Client)

// WithHTTPClient replaces the transport used for requests. The default is a
// plain http.Client sharing the process-wide transport, which main wraps
// with telemetry.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithSessionExpiredCallback registers the handler invoked when a request
// fails with an expired session.
func WithSessionExpiredCallback(fn func()) Option {
	return func(c *Client) {
		c.onSessionExpired = fn
	}
}

// New creates a client for the backend at baseURL, reading and maintaining
// credentials through the supplied session store.
func New(baseURL string, store session.Store, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("could not parse API base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("API base URL %q must be absolute", baseURL)
	}

	c := &Client{
		baseURL:          u,
		httpClient:       http.DefaultClient,
		store:            store,
		onSessionExpired: func() {},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Get issues a GET request, decoding the camelized response into out.
func (c *Client) Get(ctx context.Context, path string, params Params, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, params, out)
}

// Post issues a POST request with a JSON body. The body is sent as-is;
// callers (or the typed entity helpers) are responsible for matching the
// backend's snake_case field names on the way out.
func (c *Client) Post(ctx context.Context, path string, body any, out any) error {
	return c.do(ctx, http.MethodPost, path, body, nil, out)
}

// Put issues a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body any, out any) error {
	return c.do(ctx, http.MethodPut, path, body, nil, out)
}

// Patch issues a PATCH request with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body any, out any) error {
	return c.do(ctx, http.MethodPatch, path, body, nil, out)
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, path string, params Params, out any) error {
	return c.do(ctx, http.MethodDelete, path, nil, params, out)
}

func (c *Client) do(ctx context.Context, method, path string, body any, params Params, out any) error {
	var payload io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding %s %s request body: %w", method, path, err)
		}
		payload = bytes.NewReader(encoded)
	}

	req, err := c.newRequest(ctx, method, path, params, payload)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.send(req, method, path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return c.decodeResponse(resp, method, path, out)
}

// newRequest builds a request against the base URL with the query string and
// authorization header attached.
func (c *Client) newRequest(ctx context.Context, method, path string, params Params, body io.Reader) (*http.Request, error) {
	target := *c.baseURL
	target.Path = strings.TrimSuffix(target.Path, "/") + "/" + strings.TrimPrefix(path, "/")
	target.RawQuery = params.encode()

	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("building %s %s request: %w", method, path, err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	c.authorize(req)

	return req, nil
}

// authorize attaches the bearer token when the session holds one.
func (c *Client) authorize(req *http.Request) {
	if token := c.store.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

// send executes the request and maps failures into *Error values, applying
// the session-expiry side effect for 401 responses. Successful responses are
// returned with their body unread.
func (c *Client) send(req *http.Request, method, path string) (*http.Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		apiErr := &Error{Method: method, Path: path, Err: err}
		log.Warn().Str("method", method).Str("path", path).Err(err).
			Msg("request transport failure")
		return nil, apiErr
	}

	if resp.StatusCode >= 400 {
		// 5 KB retains enough of the body for validation messages without
		// buffering a runaway error response.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 5<<10))
		resp.Body.Close()

		apiErr := &Error{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       string(snippet),
		}

		if resp.StatusCode == http.StatusUnauthorized {
			c.handleUnauthorized(path)
		}

		log.Warn().Str("method", method).Str("path", path).
			Int("status", resp.StatusCode).
			Msg("request failed")
		return nil, apiErr
	}

	return resp, nil
}

// handleUnauthorized clears the session and notifies the application when a
// request fails with an expired token. The login call is exempt: its 401
// means invalid credentials and must surface to the caller without clearing
// anything, otherwise a failed sign-in loops back to the sign-in screen.
func (c *Client) handleUnauthorized(path string) {
	if strings.TrimPrefix(path, "/") == strings.TrimPrefix(loginPath, "/") {
		return
	}
	if c.store.Token() == "" {
		return
	}

	log.Info().Str("path", path).Msg("session expired, clearing credentials")
	if err := c.store.Clear(); err != nil {
		log.Warn().Err(err).Msg("failed to clear session store")
	}
	c.onSessionExpired()
}

// decodeResponse camelizes the response document and decodes it into out.
// A nil out discards the body (mutations with no interesting response).
func (c *Client) decodeResponse(resp *http.Response, method, path string, out any) error {
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Method: method, Path: path, Err: fmt.Errorf("reading response body: %w", err)}
	}
	if len(data) == 0 {
		return nil
	}

	if err := decodeCamelized(data, out); err != nil {
		return &Error{Method: method, Path: path, Err: err}
	}
	return nil
}

// decodeCamelized converts the raw snake_case JSON document to camelCase
// keys before decoding into out.
func decodeCamelized(data []byte, out any) error {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decoding response body: %w", err)
	}

	converted, err := json.Marshal(CamelizeKeys(doc))
	if err != nil {
		return fmt.Errorf("re-encoding camelized response: %w", err)
	}

	if err := json.Unmarshal(converted, out); err != nil {
		return fmt.Errorf("decoding camelized response: %w", err)
	}
	return nil
}
