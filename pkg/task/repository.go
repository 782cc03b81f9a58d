package task

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Op names the kind of mutation a Change records.
type Op string

const (
	OpAdd    Op = "add"
	OpToggle Op = "toggle"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
	OpClear  Op = "clear"
)

// Change describes one applied mutation.
type Change struct {
	Version uint64    `json:"version"`
	Op      Op        `json:"op"`
	TaskID  string    `json:"taskId,omitempty"`
	At      time.Time `json:"at"`
}

// Repository owns the ordered task collection. Every mutation runs to
// completion under a lock, then the whole collection is written back to the
// store.
type Repository struct {
	mu      sync.Mutex
	tasks   []Task
	version uint64

	store  Store
	now    func() time.Time
	newID  func() string
	log    *slog.Logger
	notify func(Change)
}

// Option configures a Repository.
type Option func(*Repository)

// WithClock sets the time source used for CreatedAt and CompletedAt.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) { r.now = now }
}

// WithIDGenerator replaces the UUIDv7 generator.
func WithIDGenerator(gen func() string) Option {
	return func(r *Repository) { r.newID = gen }
}

func WithLogger(log *slog.Logger) Option {
	return func(r *Repository) { r.log = log }
}

// WithNotifier registers fn to be called after each applied mutation.
func WithNotifier(fn func(Change)) Option {
	return func(r *Repository) { r.notify = fn }
}

// NewRepository loads the current collection from store.
func NewRepository(ctx context.Context, store Store, opts ...Option) *Repository {
	r := &Repository{
		store: store,
		now:   time.Now,
		newID: newTaskID,
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.tasks = store.Load(ctx)
	if r.tasks == nil {
		r.tasks = []Task{}
	}
	r.log.Debug("task repository loaded", "tasks", len(r.tasks))
	return r
}

func newTaskID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Add appends a task built from d. The draft is assumed to have passed
// ValidateDraft.
func (r *Repository) Add(ctx context.Context, d Draft) Task {
	r.mu.Lock()
	defer r.mu.Unlock()

	t := Task{
		ID:          r.newID(),
		Text:        strings.TrimSpace(d.Text),
		Description: strings.TrimSpace(d.Description),
		Priority:    ParsePriority(string(d.Priority)),
		DueDate:     copyDate(d.DueDate),
		CreatedAt:   r.now(),
	}
	r.tasks = append(r.tasks, t)
	r.commit(ctx, OpAdd, t.ID)
	return cloneTask(t)
}

// Toggle flips the completion state of the task with the given id.
// It reports false, and changes nothing, when no such task exists.
func (r *Repository) Toggle(ctx context.Context, id string) (Task, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return Task{}, false
	}
	r.setCompleted(&r.tasks[i], !r.tasks[i].Completed)
	r.commit(ctx, OpToggle, id)
	return cloneTask(r.tasks[i]), true
}

// Update merges p onto the task with the given id. A blank text in p is
// ignored so the task always keeps a title.
func (r *Repository) Update(ctx context.Context, id string, p Patch) (Task, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return Task{}, false
	}
	t := &r.tasks[i]
	if p.Text != nil {
		if text := strings.TrimSpace(*p.Text); text != "" {
			t.Text = text
		}
	}
	if p.Description != nil {
		t.Description = strings.TrimSpace(*p.Description)
	}
	if p.Priority != nil {
		t.Priority = ParsePriority(string(*p.Priority))
	}
	switch {
	case p.ClearDueDate:
		t.DueDate = nil
	case p.DueDate != nil:
		t.DueDate = copyDate(p.DueDate)
	}
	if p.Completed != nil && *p.Completed != t.Completed {
		r.setCompleted(t, *p.Completed)
	}
	r.commit(ctx, OpUpdate, id)
	return cloneTask(*t), true
}

// Delete removes the task with the given id, reporting whether it existed.
func (r *Repository) Delete(ctx context.Context, id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return false
	}
	r.tasks = append(r.tasks[:i:i], r.tasks[i+1:]...)
	r.commit(ctx, OpDelete, id)
	return true
}

// ClearCompleted drops every completed task and returns how many were
// removed. The remaining tasks keep their order.
func (r *Repository) ClearCompleted(ctx context.Context) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	kept := make([]Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		if !t.Completed {
			kept = append(kept, t)
		}
	}
	removed := len(r.tasks) - len(kept)
	r.tasks = kept
	r.commit(ctx, OpClear, "")
	return removed
}

// Tasks returns a snapshot of the collection in insertion order.
func (r *Repository) Tasks() []Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	return cloneTasks(r.tasks)
}

// Get returns the task with the given id.
func (r *Repository) Get(id string) (Task, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i := r.indexOf(id)
	if i < 0 {
		return Task{}, false
	}
	return cloneTask(r.tasks[i]), true
}

func (r *Repository) Filtered(f Filter) []Task {
	return FilterTasks(r.Tasks(), f)
}

func (r *Repository) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return ComputeStats(r.tasks)
}

// View is a consistent read of the collection taken at one version.
type View struct {
	Tasks   []Task `json:"tasks"`
	Stats   Stats  `json:"stats"`
	Version uint64 `json:"version"`
}

// View returns the filtered tasks together with stats over the whole
// collection, both taken under the same lock.
func (r *Repository) View(f Filter) View {
	r.mu.Lock()
	defer r.mu.Unlock()
	return View{
		Tasks:   FilterTasks(cloneTasks(r.tasks), f),
		Stats:   ComputeStats(r.tasks),
		Version: r.version,
	}
}

// Version increases by one with every applied mutation.
func (r *Repository) Version() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.version
}

func (r *Repository) indexOf(id string) int {
	for i := range r.tasks {
		if r.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func (r *Repository) setCompleted(t *Task, done bool) {
	t.Completed = done
	if done {
		at := r.now()
		t.CompletedAt = &at
	} else {
		t.CompletedAt = nil
	}
}

// commit persists the collection and announces the change. Must be called
// with r.mu held.
func (r *Repository) commit(ctx context.Context, op Op, id string) {
	r.version++
	if !r.store.Save(ctx, cloneTasks(r.tasks)) {
		r.log.Warn("tasks not persisted; changes will be lost on restart",
			"op", op, "task_id", id, "version", r.version)
	}
	if r.notify != nil {
		r.notify(Change{Version: r.version, Op: op, TaskID: id, At: r.now()})
	}
}

func copyDate(d *Date) *Date {
	if d == nil {
		return nil
	}
	cp := *d
	return &cp
}

func cloneTask(t Task) Task {
	t.DueDate = copyDate(t.DueDate)
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		t.CompletedAt = &at
	}
	return t
}

func cloneTasks(tasks []Task) []Task {
	out := make([]Task, len(tasks))
	for i, t := range tasks {
		out[i] = cloneTask(t)
	}
	return out
}
