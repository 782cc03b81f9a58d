package task

import (
	"context"
	"fmt"
	"reflect"
	"testing"
	"time"
)

// --- Mock store ---

type mockStore struct {
	saved  []Task
	saves  int
	fail   bool
	loaded []Task
}

func (s *mockStore) Load(_ context.Context) []Task { return s.loaded }

func (s *mockStore) Save(_ context.Context, tasks []Task) bool {
	s.saves++
	if s.fail {
		return false
	}
	s.saved = tasks
	return true
}

// fixedClock returns a clock that starts at start and can be moved.
type fixedClock struct{ t time.Time }

func (c *fixedClock) now() time.Time          { return c.t }
func (c *fixedClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestRepo(t *testing.T, store *mockStore) (*Repository, *fixedClock) {
	t.Helper()
	clock := &fixedClock{t: time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC)}
	n := 0
	r := NewRepository(context.Background(), store,
		WithClock(clock.now),
		WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("task-%d", n)
		}),
	)
	return r, clock
}

func mustAdd(t *testing.T, r *Repository, text string) Task {
	t.Helper()
	task := r.Add(context.Background(), Draft{Text: text})
	if task.ID == "" {
		t.Fatalf("Add(%q) returned task without id", text)
	}
	return task
}

func TestAddBuyMilkScenario(t *testing.T) {
	store := &mockStore{}
	r, clock := newTestRepo(t, store)
	ctx := context.Background()

	added := r.Add(ctx, Draft{Text: "Buy milk"})

	tasks := r.Tasks()
	if len(tasks) != 1 {
		t.Fatalf("expected 1 task, got %d", len(tasks))
	}
	got := tasks[0]
	if got.Completed {
		t.Fatal("new task should not be completed")
	}
	if got.Priority != PriorityMedium {
		t.Fatalf("priority = %q, want medium", got.Priority)
	}
	if got.DueDate != nil {
		t.Fatalf("dueDate = %v, want nil", got.DueDate)
	}
	if got.CompletedAt != nil {
		t.Fatal("completedAt should be nil")
	}
	if !got.CreatedAt.Equal(clock.now()) {
		t.Fatalf("createdAt = %v, want %v", got.CreatedAt, clock.now())
	}

	toggled, ok := r.Toggle(ctx, added.ID)
	if !ok {
		t.Fatal("toggle should find the task")
	}
	if !toggled.Completed || toggled.CompletedAt == nil {
		t.Fatalf("expected completed with completedAt, got %+v", toggled)
	}

	want := Stats{Total: 1, Completed: 1, Pending: 0}
	if s := r.Stats(); s != want {
		t.Fatalf("stats = %+v, want %+v", s, want)
	}
}

func TestAddTrimsAndDefaults(t *testing.T) {
	r, _ := newTestRepo(t, &mockStore{})
	due := Date{Year: 2026, Month: time.April, Day: 1}

	got := r.Add(context.Background(), Draft{
		Text:        "  Write report \n",
		Description: "  quarterly  ",
		Priority:    Priority("urgent"),
		DueDate:     &due,
	})

	if got.Text != "Write report" {
		t.Errorf("text = %q", got.Text)
	}
	if got.Description != "quarterly" {
		t.Errorf("description = %q", got.Description)
	}
	if got.Priority != PriorityMedium {
		t.Errorf("invalid priority should default to medium, got %q", got.Priority)
	}
	if got.DueDate == nil || *got.DueDate != due {
		t.Errorf("dueDate = %v, want %v", got.DueDate, due)
	}

	due.Day = 20
	if stored, _ := r.Get(got.ID); stored.DueDate.Day != 1 {
		t.Error("repository must not alias the draft's due date")
	}
}

func TestAddKeepsOrderAndUniqueIDs(t *testing.T) {
	store := &mockStore{}
	ctx := context.Background()
	r := NewRepository(ctx, store) // real UUIDv7 generator

	const n = 200
	for i := 0; i < n; i++ {
		r.Add(ctx, Draft{Text: fmt.Sprintf("task %d", i)})
	}

	tasks := r.Tasks()
	if len(tasks) != n {
		t.Fatalf("expected %d tasks, got %d", n, len(tasks))
	}
	seen := make(map[string]bool, n)
	for i, task := range tasks {
		if seen[task.ID] {
			t.Fatalf("duplicate id %s", task.ID)
		}
		seen[task.ID] = true
		if want := fmt.Sprintf("task %d", i); task.Text != want {
			t.Fatalf("tasks[%d].Text = %q, want %q", i, task.Text, want)
		}
	}
	if store.saves != n {
		t.Fatalf("expected %d saves, got %d", n, store.saves)
	}
}

func TestToggleIsItsOwnInverse(t *testing.T) {
	r, clock := newTestRepo(t, &mockStore{})
	ctx := context.Background()
	task := mustAdd(t, r, "Call mom")

	first, _ := r.Toggle(ctx, task.ID)
	if first.CompletedAt == nil || !first.CompletedAt.Equal(clock.now()) {
		t.Fatalf("completedAt = %v, want %v", first.CompletedAt, clock.now())
	}

	clock.advance(time.Hour)
	second, _ := r.Toggle(ctx, task.ID)
	if second.Completed || second.CompletedAt != nil {
		t.Fatalf("expected pending with nil completedAt, got %+v", second)
	}
	if !reflect.DeepEqual(second, task) {
		t.Fatalf("double toggle changed task:\n got %+v\nwant %+v", second, task)
	}

	third, _ := r.Toggle(ctx, task.ID)
	if !third.CompletedAt.Equal(clock.now()) {
		t.Fatalf("re-completion should use the new time, got %v", third.CompletedAt)
	}
}

func TestMutationsOnUnknownIDAreNoOps(t *testing.T) {
	store := &mockStore{}
	r, _ := newTestRepo(t, store)
	ctx := context.Background()
	mustAdd(t, r, "only")
	before := r.Tasks()
	saves := store.saves
	version := r.Version()

	if _, ok := r.Toggle(ctx, "missing"); ok {
		t.Error("Toggle should report false for unknown id")
	}
	text := "x"
	if _, ok := r.Update(ctx, "missing", Patch{Text: &text}); ok {
		t.Error("Update should report false for unknown id")
	}
	if r.Delete(ctx, "missing") {
		t.Error("Delete should report false for unknown id")
	}

	if !reflect.DeepEqual(r.Tasks(), before) {
		t.Fatal("collection changed")
	}
	if store.saves != saves {
		t.Fatalf("no-op mutations should not persist, saves %d -> %d", saves, store.saves)
	}
	if r.Version() != version {
		t.Fatal("no-op mutations should not bump the version")
	}
}

func TestUpdateMergesOnlySetFields(t *testing.T) {
	r, clock := newTestRepo(t, &mockStore{})
	ctx := context.Background()
	due := Date{Year: 2026, Month: time.March, Day: 12}
	task := r.Add(ctx, Draft{Text: "Plan trip", Description: "beach", Priority: PriorityLow, DueDate: &due})

	high := PriorityHigh
	got, ok := r.Update(ctx, task.ID, Patch{Priority: &high})
	if !ok {
		t.Fatal("update should find task")
	}
	if got.Priority != PriorityHigh {
		t.Errorf("priority = %q", got.Priority)
	}
	if got.Text != "Plan trip" || got.Description != "beach" || got.DueDate == nil || *got.DueDate != due {
		t.Errorf("unrelated fields changed: %+v", got)
	}

	blank := "   "
	got, _ = r.Update(ctx, task.ID, Patch{Text: &blank})
	if got.Text != "Plan trip" {
		t.Errorf("blank text should be ignored, got %q", got.Text)
	}

	got, _ = r.Update(ctx, task.ID, Patch{ClearDueDate: true})
	if got.DueDate != nil {
		t.Errorf("due date should be cleared, got %v", got.DueDate)
	}

	done := true
	got, _ = r.Update(ctx, task.ID, Patch{Completed: &done})
	if !got.Completed || got.CompletedAt == nil || !got.CompletedAt.Equal(clock.now()) {
		t.Errorf("completing via patch should set completedAt, got %+v", got)
	}
	undone := false
	got, _ = r.Update(ctx, task.ID, Patch{Completed: &undone})
	if got.Completed || got.CompletedAt != nil {
		t.Errorf("reopening via patch should clear completedAt, got %+v", got)
	}
	if !got.CreatedAt.Equal(task.CreatedAt) || got.ID != task.ID {
		t.Error("id and createdAt are immutable")
	}
}

func TestDelete(t *testing.T) {
	r, _ := newTestRepo(t, &mockStore{})
	ctx := context.Background()
	a := mustAdd(t, r, "a")
	b := mustAdd(t, r, "b")
	c := mustAdd(t, r, "c")

	if !r.Delete(ctx, b.ID) {
		t.Fatal("delete should report true")
	}
	got := r.Tasks()
	if len(got) != 2 || got[0].ID != a.ID || got[1].ID != c.ID {
		t.Fatalf("unexpected tasks after delete: %+v", got)
	}
}

func TestClearCompleted(t *testing.T) {
	r, _ := newTestRepo(t, &mockStore{})
	ctx := context.Background()
	var ids []string
	for _, text := range []string{"one", "two", "three", "four", "five"} {
		ids = append(ids, mustAdd(t, r, text).ID)
	}
	r.Toggle(ctx, ids[1])
	r.Toggle(ctx, ids[3])
	before := r.Tasks()

	if n := r.ClearCompleted(ctx); n != 2 {
		t.Fatalf("removed %d, want 2", n)
	}

	got := r.Tasks()
	want := []Task{before[0], before[2], before[4]}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("remaining tasks changed:\n got %+v\nwant %+v", got, want)
	}
	for _, task := range got {
		if task.Completed {
			t.Fatalf("completed task %s survived", task.ID)
		}
	}
}

func TestClearCompletedWithNoneCompleted(t *testing.T) {
	store := &mockStore{}
	r, _ := newTestRepo(t, store)
	for _, text := range []string{"a", "b", "c"} {
		mustAdd(t, r, text)
	}
	before := r.Tasks()

	if n := r.ClearCompleted(context.Background()); n != 0 {
		t.Fatalf("removed %d, want 0", n)
	}
	if got := r.Tasks(); len(got) != 3 || !reflect.DeepEqual(got, before) {
		t.Fatalf("collection changed: %+v", got)
	}
	if store.saves != 4 {
		t.Fatalf("clear should still persist, saves = %d", store.saves)
	}
}

func TestSaveFailureKeepsInMemoryState(t *testing.T) {
	store := &mockStore{fail: true}
	r, _ := newTestRepo(t, store)

	task := mustAdd(t, r, "survives")

	if store.saves != 1 {
		t.Fatalf("expected one save attempt, got %d", store.saves)
	}
	if got, ok := r.Get(task.ID); !ok || got.Text != "survives" {
		t.Fatalf("in-memory state lost after failed save: %+v", got)
	}
}

func TestRepositoryLoadsFromStore(t *testing.T) {
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	store := &mockStore{loaded: []Task{
		{ID: "a", Text: "first", Priority: PriorityHigh, CreatedAt: created},
		{ID: "b", Text: "second", Priority: PriorityLow, Completed: true, CreatedAt: created, CompletedAt: &created},
	}}

	r := NewRepository(context.Background(), store)

	if got := r.Tasks(); !reflect.DeepEqual(got, store.loaded) {
		t.Fatalf("loaded tasks mismatch:\n got %+v\nwant %+v", got, store.loaded)
	}
	if s := r.Stats(); s.Total != 2 || s.Completed != 1 {
		t.Fatalf("stats = %+v", s)
	}
}

func TestNilLoadBecomesEmpty(t *testing.T) {
	r := NewRepository(context.Background(), &mockStore{})
	if got := r.Tasks(); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}

func TestSnapshotsAreIsolated(t *testing.T) {
	r, _ := newTestRepo(t, &mockStore{})
	ctx := context.Background()
	task := mustAdd(t, r, "original")
	r.Toggle(ctx, task.ID)

	snap := r.Tasks()
	snap[0].Text = "mutated"
	*snap[0].CompletedAt = time.Time{}

	got, _ := r.Get(task.ID)
	if got.Text != "original" || got.CompletedAt.IsZero() {
		t.Fatalf("snapshot mutation leaked into repository: %+v", got)
	}
}

func TestNotifierAndVersion(t *testing.T) {
	var changes []Change
	store := &mockStore{}
	clock := &fixedClock{t: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)}
	r := NewRepository(context.Background(), store,
		WithClock(clock.now),
		WithNotifier(func(c Change) { changes = append(changes, c) }),
	)
	ctx := context.Background()

	task := mustAdd(t, r, "watch me")
	r.Toggle(ctx, task.ID)
	r.Toggle(ctx, "missing")
	r.ClearCompleted(ctx)

	wantOps := []Op{OpAdd, OpToggle, OpClear}
	if len(changes) != len(wantOps) {
		t.Fatalf("got %d changes, want %d: %+v", len(changes), len(wantOps), changes)
	}
	for i, c := range changes {
		if c.Op != wantOps[i] {
			t.Errorf("change %d op = %s, want %s", i, c.Op, wantOps[i])
		}
		if c.Version != uint64(i+1) {
			t.Errorf("change %d version = %d, want %d", i, c.Version, i+1)
		}
	}
	if changes[0].TaskID != task.ID {
		t.Errorf("add change task id = %q", changes[0].TaskID)
	}
	if r.Version() != 3 {
		t.Fatalf("version = %d, want 3", r.Version())
	}
}

func TestView(t *testing.T) {
	r, _ := newTestRepo(t, &mockStore{})
	ctx := context.Background()
	a := mustAdd(t, r, "a")
	mustAdd(t, r, "b")
	r.Toggle(ctx, a.ID)

	v := r.View(FilterPending)
	if len(v.Tasks) != 1 || v.Tasks[0].Text != "b" {
		t.Fatalf("pending view tasks = %+v", v.Tasks)
	}
	if v.Stats != (Stats{Total: 2, Completed: 1, Pending: 1}) {
		t.Fatalf("stats should cover the whole collection, got %+v", v.Stats)
	}
	if v.Version != r.Version() {
		t.Fatalf("version = %d, want %d", v.Version, r.Version())
	}
}
