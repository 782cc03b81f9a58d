// Package client talks to the tasklist HTTP API.
package client

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

	"tasklist/pkg/task"
)

// ErrNotFound is returned when the server does not know the task id.
var ErrNotFound = errors.New("task not found")

// Item is a task as served by the API, with its due-date label.
type Item struct {
	task.Task
	Due *task.DueStatus `json:"due,omitempty"`
}

// List is one filtered read of the collection.
type List struct {
	Tasks   []Item     `json:"tasks"`
	Stats   task.Stats `json:"stats"`
	Version uint64     `json:"version"`
}

type Client struct {
	base string
	http *http.Client
}

// New returns a client for the API rooted at base. A nil hc uses
// http.DefaultClient.
func New(base string, hc *http.Client) *Client {
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{base: base, http: hc}
}

func (c *Client) List(ctx context.Context, f task.Filter) (List, error) {
	var l List
	err := c.do(ctx, http.MethodGet, "api/tasks?filter="+url.QueryEscape(string(f)), nil, &l)
	return l, err
}

// Create adds a task. A draft the server rejects comes back as
// task.ValidationErrors.
func (c *Client) Create(ctx context.Context, d task.Draft) (Item, error) {
	var it Item
	err := c.do(ctx, http.MethodPost, "api/tasks", d, &it)
	return it, err
}

func (c *Client) Update(ctx context.Context, id string, p task.Patch) (Item, error) {
	var it Item
	err := c.do(ctx, http.MethodPatch, "api/tasks/"+url.PathEscape(id), p, &it)
	return it, err
}

func (c *Client) Toggle(ctx context.Context, id string) (Item, error) {
	var it Item
	err := c.do(ctx, http.MethodPost, "api/tasks/"+url.PathEscape(id)+"/toggle", nil, &it)
	return it, err
}

func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "api/tasks/"+url.PathEscape(id), nil, nil)
}

// ClearCompleted removes every completed task and reports how many went.
func (c *Client) ClearCompleted(ctx context.Context) (int, error) {
	var out struct {
		Removed int `json:"removed"`
	}
	err := c.do(ctx, http.MethodPost, "api/tasks/clear-completed", nil, &out)
	return out.Removed, err
}

func (c *Client) Stats(ctx context.Context) (task.Stats, error) {
	var s task.Stats
	err := c.do(ctx, http.MethodGet, "api/stats", nil, &s)
	return s, err
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode == http.StatusUnprocessableEntity:
		var v struct {
			Errors task.ValidationErrors `json:"errors"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
			return fmt.Errorf("decode validation errors: %w", err)
		}
		return v.Errors
	case resp.StatusCode >= 300:
		var v struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&v)
		return fmt.Errorf("%s %s: %s: %s", method, path, resp.Status, v.Error)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
