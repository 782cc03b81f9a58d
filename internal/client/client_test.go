package client

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"tasklist/internal/api"
	"tasklist/pkg/store"
	"tasklist/pkg/task"
)

func newServer(t *testing.T) *Client {
	t.Helper()
	now := func() time.Time { return time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC) }
	value := store.NewValue(store.New(store.NewMemory(), nil), "tasks", []task.Task{})
	repo := task.NewRepository(context.Background(), value, task.WithClock(now))
	ts := httptest.NewServer(api.New(repo, nil, nil, api.WithClock(now)))
	t.Cleanup(ts.Close)
	return New(ts.URL, ts.Client())
}

func TestClientLifecycle(t *testing.T) {
	c := newServer(t)
	ctx := context.Background()
	due := task.Date{Year: 2026, Month: time.October, Day: 15}

	it, err := c.Create(ctx, task.Draft{Text: "Buy milk", DueDate: &due})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if it.Due == nil || it.Due.Label != "Due today" {
		t.Fatalf("due = %+v", it.Due)
	}

	if it, err = c.Toggle(ctx, it.ID); err != nil || !it.Completed {
		t.Fatalf("Toggle: %+v, %v", it, err)
	}

	text := "Buy oat milk"
	if it, err = c.Update(ctx, it.ID, task.Patch{Text: &text}); err != nil || it.Text != text {
		t.Fatalf("Update: %+v, %v", it, err)
	}

	l, err := c.List(ctx, task.FilterCompleted)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(l.Tasks) != 1 || l.Version != 3 {
		t.Fatalf("list = %+v", l)
	}

	n, err := c.ClearCompleted(ctx)
	if err != nil || n != 1 {
		t.Fatalf("ClearCompleted = %d, %v", n, err)
	}
	s, err := c.Stats(ctx)
	if err != nil || s != (task.Stats{}) {
		t.Fatalf("Stats = %+v, %v", s, err)
	}
}

func TestClientValidationErrors(t *testing.T) {
	c := newServer(t)

	_, err := c.Create(context.Background(), task.Draft{Text: ""})
	var verr task.ValidationErrors
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationErrors", err)
	}
	if verr["text"] != "text is required" {
		t.Fatalf("errors = %v", verr)
	}
}

func TestClientNotFound(t *testing.T) {
	c := newServer(t)
	ctx := context.Background()

	if _, err := c.Toggle(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Toggle err = %v", err)
	}
	if err := c.Delete(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Delete err = %v", err)
	}
}

func TestNewAddsTrailingSlash(t *testing.T) {
	if c := New("http://example.test/app", nil); c.base != "http://example.test/app/" {
		t.Fatalf("base = %q", c.base)
	}
}
