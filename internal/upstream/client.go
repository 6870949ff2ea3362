package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	loginPath   = "/api/admin/auth/login"
	refreshPath = "/api/admin/auth/refresh"
	logoutPath  = "/api/admin/auth/logout"
)

// retriedKey marks a request context as already retried once after a refresh,
// so a rejected refreshed token cannot loop.
type retriedKey struct{}

// Client is the authenticated HTTP client for the core attendance API.
// Every request carries the session's current access token; a 401 with code
// INVALID_TOKEN on a non-auth endpoint triggers a single shared refresh and
// exactly one retry of the original request.
type Client struct {
	baseURL    string
	httpClient *http.Client
	store      Store
	refresher  *Refresher
}

// NewClient builds a client over store. onInvalidated is forwarded to the
// refresher and fires when the session can no longer be recovered.
func NewClient(baseURL string, timeout time.Duration, store Store, onInvalidated func()) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		store:      store,
	}
	c.refresher = NewRefresher(store, c.refreshCall, onInvalidated)
	return c
}

type errorEnvelope struct {
	Error *struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"request_id"`
	} `json:"error"`
}

// Get issues an authenticated GET and decodes the JSON body into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out interface{}) error {
	return c.Do(ctx, http.MethodGet, path, query, nil, out)
}

// Post issues an authenticated POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body interface{}, out interface{}) error {
	return c.Do(ctx, http.MethodPost, path, nil, body, out)
}

// Put issues an authenticated PUT with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body interface{}, out interface{}) error {
	return c.Do(ctx, http.MethodPut, path, nil, body, out)
}

// Delete issues an authenticated DELETE.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.Do(ctx, http.MethodDelete, path, nil, nil, nil)
}

// Do executes one request against the core API. body is JSON-encoded when
// non-nil; a 2xx response body is decoded into out when out is non-nil.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body interface{}, out interface{}) error {
	err := c.doOnce(ctx, method, path, query, body, out)
	if err == nil {
		return nil
	}

	if !IsInvalidToken(err) || isAuthPath(path) || ctx.Value(retriedKey{}) != nil {
		return err
	}

	token := c.refresher.Refresh(ctx)
	if token == "" {
		// refresh failed, surface the original 401
		return err
	}

	retryCtx := context.WithValue(ctx, retriedKey{}, true)
	return c.doOnce(retryCtx, method, path, query, body, out)
}

func (c *Client) doOnce(ctx context.Context, method, path string, query url.Values, body interface{}, out interface{}) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Request-ID", uuid.NewString())

	if pair, err := c.store.Load(); err == nil && pair.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response body: %w", err)
		}
		return nil
	}

	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		Code:       "UNKNOWN",
		Message:    http.StatusText(resp.StatusCode),
	}
	var envelope errorEnvelope
	if decodeErr := json.NewDecoder(resp.Body).Decode(&envelope); decodeErr == nil && envelope.Error != nil {
		apiErr.Code = envelope.Error.Code
		apiErr.Message = envelope.Error.Message
		apiErr.RequestID = envelope.Error.RequestID
	}
	return apiErr
}

func isAuthPath(path string) bool {
	switch path {
	case loginPath, refreshPath, logoutPath:
		return true
	}
	return false
}

type tokenResponse struct {
	Data struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	} `json:"data"`
}

// Login exchanges admin credentials for a fresh token pair and seeds the
// store with it.
func (c *Client) Login(ctx context.Context, email, password string) (TokenPair, error) {
	var resp tokenResponse
	err := c.Post(ctx, loginPath, map[string]string{
		"email":    email,
		"password": password,
	}, &resp)
	if err != nil {
		return TokenPair{}, err
	}

	pair := TokenPair{
		AccessToken:  resp.Data.AccessToken,
		RefreshToken: resp.Data.RefreshToken,
	}
	if pair.AccessToken == "" {
		return TokenPair{}, &APIError{StatusCode: http.StatusBadGateway, Code: "MALFORMED_RESPONSE", Message: "login response missing access token"}
	}
	if err := c.store.Save(pair); err != nil {
		return TokenPair{}, fmt.Errorf("failed to persist credentials: %w", err)
	}
	return pair, nil
}

// Logout revokes the pair upstream best-effort and clears the store. A failed
// revoke still ends the local session.
func (c *Client) Logout(ctx context.Context) {
	pair, err := c.store.Load()
	if err == nil && pair.RefreshToken != "" {
		_ = c.Post(ctx, logoutPath, map[string]string{"refresh_token": pair.RefreshToken}, nil)
	}
	_ = c.store.Clear()
}

func (c *Client) refreshCall(ctx context.Context, refreshToken string) (TokenPair, error) {
	var resp tokenResponse
	err := c.Post(ctx, refreshPath, map[string]string{"refresh_token": refreshToken}, &resp)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:  resp.Data.AccessToken,
		RefreshToken: resp.Data.RefreshToken,
	}, nil
}
