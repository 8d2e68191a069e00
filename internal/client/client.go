// Package client talks to the event scheduler REST API and holds the
// list-view helpers a front end applies to fetched events.
package client

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

	"github.com/okian/minisched/internal/domain/model"
)

const defaultTimeout = 10 * time.Second

// Client calls the event endpoints of one server.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// New returns a client for the server at baseURL, e.g. "http://localhost:5000".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// List fetches every event in server order.
func (c *Client) List(ctx context.Context) ([]model.Event, error) {
	var events []model.Event
	if err := c.do(ctx, http.MethodGet, "/events", nil, http.StatusOK, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// Create submits a new event and returns it as stored.
func (c *Client) Create(ctx context.Context, in model.NewEvent) (model.Event, error) {
	var e model.Event
	if err := c.do(ctx, http.MethodPost, "/events", in, http.StatusCreated, &e); err != nil {
		return model.Event{}, err
	}
	return e, nil
}

// Archive marks the event archived and returns the updated record.
func (c *Client) Archive(ctx context.Context, id string) (model.Event, error) {
	var e model.Event
	if err := c.do(ctx, http.MethodPut, eventPath(id), nil, http.StatusOK, &e); err != nil {
		return model.Event{}, err
	}
	return e, nil
}

// Delete removes the event and returns the server's confirmation message.
func (c *Client) Delete(ctx context.Context, id string) (string, error) {
	var resp struct {
		Message string `json:"message"`
	}
	if err := c.do(ctx, http.MethodDelete, eventPath(id), nil, http.StatusCreated, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

func eventPath(id string) string {
	return "/events/" + url.PathEscape(id)
}

// do sends a request and decodes a response with status want into out.
// Any other status is returned as *APIError.
func (c *Client) do(ctx context.Context, method, path string, body any, want int, out any) error {
	var reader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", ErrTransport, method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}

	if resp.StatusCode != want {
		apiErr := &APIError{Status: resp.StatusCode}
		var msg struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(data, &msg) == nil {
			apiErr.Message = msg.Message
		}
		return apiErr
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return nil
}
