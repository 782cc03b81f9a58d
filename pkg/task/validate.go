package task

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

// Field length limits, counted in characters after trimming.
const (
	MaxTextLength        = 100
	MaxDescriptionLength = 300
)

// ValidationErrors maps a field name to what is wrong with it.
// An empty map means the input is valid.
type ValidationErrors map[string]string

func (e ValidationErrors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	msgs := make([]string, 0, len(fields))
	for _, f := range fields {
		msgs = append(msgs, f+": "+e[f])
	}
	return "invalid task: " + strings.Join(msgs, "; ")
}

// ValidateDraft checks creation input. now decides what "today" is; the due
// date is compared by calendar day in now's location.
func ValidateDraft(d Draft, now time.Time) ValidationErrors {
	errs := ValidationErrors{}

	text := strings.TrimSpace(d.Text)
	switch {
	case text == "":
		errs["text"] = "text is required"
	case utf8.RuneCountInString(text) > MaxTextLength:
		errs["text"] = fmt.Sprintf("text must be at most %d characters", MaxTextLength)
	}
	checkDescription(errs, d.Description)
	checkDueDate(errs, d.DueDate, now)
	return errs
}

// ValidatePatch applies the creation rules to the fields a patch sets.
func ValidatePatch(p Patch, now time.Time) ValidationErrors {
	errs := ValidationErrors{}

	if p.Text != nil {
		text := strings.TrimSpace(*p.Text)
		switch {
		case text == "":
			errs["text"] = "text cannot be empty"
		case utf8.RuneCountInString(text) > MaxTextLength:
			errs["text"] = fmt.Sprintf("text must be at most %d characters", MaxTextLength)
		}
	}
	if p.Description != nil {
		checkDescription(errs, *p.Description)
	}
	if p.DueDate != nil && p.ClearDueDate {
		errs["dueDate"] = "cannot both set and clear the due date"
	} else {
		checkDueDate(errs, p.DueDate, now)
	}
	return errs
}

func checkDescription(errs ValidationErrors, desc string) {
	if utf8.RuneCountInString(strings.TrimSpace(desc)) > MaxDescriptionLength {
		errs["description"] = fmt.Sprintf("description must be at most %d characters", MaxDescriptionLength)
	}
}

func checkDueDate(errs ValidationErrors, due *Date, now time.Time) {
	if due != nil && due.Before(DateOf(now)) {
		errs["dueDate"] = "due date cannot be in the past"
	}
}
