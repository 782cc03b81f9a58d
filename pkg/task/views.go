package task

import (
	"fmt"
	"time"
)

// Filter selects which tasks a view shows.
type Filter string

const (
	FilterAll       Filter = "all"
	FilterPending   Filter = "pending"
	FilterCompleted Filter = "completed"
)

// ParseFilter maps s onto a filter, defaulting to all.
func ParseFilter(s string) Filter {
	switch f := Filter(s); f {
	case FilterPending, FilterCompleted:
		return f
	default:
		return FilterAll
	}
}

// FilterTasks returns the tasks matching f in their original order.
// The result never aliases tasks.
func FilterTasks(tasks []Task, f Filter) []Task {
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		switch f {
		case FilterPending:
			if t.Completed {
				continue
			}
		case FilterCompleted:
			if !t.Completed {
				continue
			}
		}
		out = append(out, t)
	}
	return out
}

// Stats are aggregate counts over a task collection.
type Stats struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Pending   int `json:"pending"`
}

func ComputeStats(tasks []Task) Stats {
	s := Stats{Total: len(tasks)}
	for _, t := range tasks {
		if t.Completed {
			s.Completed++
		}
	}
	s.Pending = s.Total - s.Completed
	return s
}

// DueKind classifies a due date relative to now.
type DueKind string

const (
	DueOverdue DueKind = "overdue"
	DueToday   DueKind = "today"
	DueSoon    DueKind = "soon"
	DueLater   DueKind = "later"
)

// soonWindow is the number of days ahead that still count as "soon".
const soonWindow = 3

// DueStatus describes when a task is due, ready for display.
type DueStatus struct {
	Kind  DueKind `json:"kind"`
	Days  int     `json:"days"`
	Label string  `json:"label"`
}

// DueDateStatus classifies t's due date against now. The second result is
// false when t has no due date.
//
// The day difference counts calendar days from today in now's location, so
// anything due earlier today is still day 0 and DST shifts do not skew it.
func DueDateStatus(t Task, now time.Time) (DueStatus, bool) {
	if t.DueDate == nil {
		return DueStatus{}, false
	}
	due := t.DueDate.In(now.Location())
	days := daysBetween(DateOf(now), *t.DueDate)

	switch {
	case days < 0:
		n := -days
		return DueStatus{Kind: DueOverdue, Days: n, Label: "Overdue by " + plural(n, "day")}, true
	case days == 0:
		return DueStatus{Kind: DueToday, Label: "Due today"}, true
	case days <= soonWindow:
		return DueStatus{Kind: DueSoon, Days: days, Label: "Due in " + plural(days, "day")}, true
	default:
		return DueStatus{Kind: DueLater, Days: days, Label: "Due on " + due.Format("Jan 2, 2006")}, true
	}
}

// daysBetween counts whole calendar days from a to b.
func daysBetween(a, b Date) int {
	return int(b.In(time.UTC).Sub(a.In(time.UTC)) / (24 * time.Hour))
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
