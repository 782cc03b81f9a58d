package task

import (
	"context"
	"fmt"
	"time"
)

// Priority ranks how urgent a task is.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ParsePriority maps s onto a known priority. Anything unrecognised,
// including the empty string, becomes medium.
func ParsePriority(s string) Priority {
	switch p := Priority(s); p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return p
	default:
		return PriorityMedium
	}
}

// UnmarshalText normalises stored or submitted priorities.
func (p *Priority) UnmarshalText(b []byte) error {
	*p = ParsePriority(string(b))
	return nil
}

// Task is a single item on the list.
type Task struct {
	ID          string     `json:"id"`
	Text        string     `json:"text"`
	Description string     `json:"description"`
	Priority    Priority   `json:"priority"`
	DueDate     *Date      `json:"dueDate"`
	Completed   bool       `json:"completed"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt"`
}

// Draft is the input for creating a task. Only Text is required.
type Draft struct {
	Text        string   `json:"text"`
	Description string   `json:"description,omitempty"`
	Priority    Priority `json:"priority,omitempty"`
	DueDate     *Date    `json:"dueDate,omitempty"`
}

// Patch holds the fields to change on an existing task. Nil fields are left
// untouched; ClearDueDate removes the due date.
type Patch struct {
	Text         *string   `json:"text,omitempty"`
	Description  *string   `json:"description,omitempty"`
	Priority     *Priority `json:"priority,omitempty"`
	DueDate      *Date     `json:"dueDate,omitempty"`
	ClearDueDate bool      `json:"clearDueDate,omitempty"`
	Completed    *bool     `json:"completed,omitempty"`
}

// Empty reports whether the patch would change nothing.
func (p Patch) Empty() bool {
	return p.Text == nil && p.Description == nil && p.Priority == nil &&
		p.DueDate == nil && !p.ClearDueDate && p.Completed == nil
}

// Date is a calendar day without a time of day. It marshals as YYYY-MM-DD.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

const dateLayout = "2006-01-02"

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// In returns midnight at the start of d in loc.
func (d Date) In(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// Before reports whether d falls on an earlier day than o.
func (d Date) Before(o Date) bool {
	if d.Year != o.Year {
		return d.Year < o.Year
	}
	if d.Month != o.Month {
		return d.Month < o.Month
	}
	return d.Day < o.Day
}

func (d Date) String() string {
	return d.In(time.UTC).Format(dateLayout)
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Store is the contract for persisting the whole task collection.
// Load never fails: it falls back to an empty collection. Save reports
// whether the write went through.
type Store interface {
	Load(ctx context.Context) []Task
	Save(ctx context.Context, tasks []Task) bool
}
