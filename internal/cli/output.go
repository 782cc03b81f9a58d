package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"tasklist/pkg/task"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}
	return nil
}

func truncStr(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		return string(r[:n])
	}
	return s
}

func printShortTasks(w io.Writer, tasks []task.Task, now time.Time) {
	for _, t := range tasks {
		mark := "[ ]"
		if t.Completed {
			mark = "[x]"
		}
		due := ""
		if st, ok := task.DueDateStatus(t, now); ok && !t.Completed {
			due = st.Label
		}
		fmt.Fprintf(w, "%s  %s  %-6s  %-50s  %s\n", t.ID, mark, t.Priority, truncStr(t.Text, 50), due)
	}
}
