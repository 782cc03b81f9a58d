package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"tasklist/pkg/task"
)

func (a *app) tasks() Tasks { return a.session.Tasks }

func (a *app) addCmd() *cobra.Command {
	var description, priority, due string
	cmd := &cobra.Command{
		Use:   "add <text>",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d := task.Draft{
				Text:        strings.Join(args, " "),
				Description: description,
				Priority:    task.ParsePriority(priority),
			}
			if due != "" {
				date, err := task.ParseDate(due)
				if err != nil {
					return fmt.Errorf("--due: %w", err)
				}
				d.DueDate = &date
			}
			if errs := task.ValidateDraft(d, time.Now()); len(errs) > 0 {
				return errs
			}
			t, err := a.tasks().Add(cmd.Context(), d)
			if err != nil {
				return err
			}
			return a.printTask(cmd, t)
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "longer description")
	cmd.Flags().StringVarP(&priority, "priority", "p", string(task.PriorityMedium), "low, medium or high")
	cmd.Flags().StringVar(&due, "due", "", "due date (YYYY-MM-DD)")
	return cmd
}

func (a *app) listCmd() *cobra.Command {
	var filter string
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			view, err := a.tasks().View(cmd.Context(), task.ParseFilter(filter))
			if err != nil {
				return err
			}
			if a.format == "json" {
				return printJSON(cmd.OutOrStdout(), view)
			}
			printShortTasks(cmd.OutOrStdout(), view.Tasks, time.Now())
			return nil
		},
	}
	cmd.Flags().StringVarP(&filter, "filter", "f", string(task.FilterAll), "all, pending or completed")
	return cmd
}

func (a *app) toggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id>",
		Short: "Mark a task done, or not done again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := a.resolveID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			t, err := a.tasks().Toggle(cmd.Context(), id)
			if err != nil {
				return err
			}
			return a.printTask(cmd, t)
		},
	}
}

func (a *app) updateCmd() *cobra.Command {
	var (
		text, description, priority, due string
		clearDue                         bool
	)
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Edit a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := a.resolveID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			var p task.Patch
			flags := cmd.Flags()
			if flags.Changed("text") {
				p.Text = &text
			}
			if flags.Changed("description") {
				p.Description = &description
			}
			if flags.Changed("priority") {
				pr := task.ParsePriority(priority)
				p.Priority = &pr
			}
			if flags.Changed("due") {
				date, err := task.ParseDate(due)
				if err != nil {
					return fmt.Errorf("--due: %w", err)
				}
				p.DueDate = &date
			}
			p.ClearDueDate = clearDue
			if p.Empty() {
				return fmt.Errorf("nothing to update")
			}
			if errs := task.ValidatePatch(p, time.Now()); len(errs) > 0 {
				return errs
			}
			t, err := a.tasks().Update(cmd.Context(), id, p)
			if err != nil {
				return err
			}
			return a.printTask(cmd, t)
		},
	}
	cmd.Flags().StringVarP(&text, "text", "t", "", "new title")
	cmd.Flags().StringVarP(&description, "description", "d", "", "new description")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "low, medium or high")
	cmd.Flags().StringVar(&due, "due", "", "new due date (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&clearDue, "clear-due", false, "remove the due date")
	return cmd
}

func (a *app) rmCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := a.resolveID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := a.tasks().Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", id)
			return nil
		},
	}
}

func (a *app) clearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all completed tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, err := a.tasks().ClearCompleted(cmd.Context())
			if err != nil {
				return err
			}
			if a.format == "json" {
				return printJSON(cmd.OutOrStdout(), map[string]int{"removed": n})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d completed task(s)\n", n)
			return nil
		},
	}
}

func (a *app) statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show task counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.tasks().Stats(cmd.Context())
			if err != nil {
				return err
			}
			if a.format == "json" {
				return printJSON(cmd.OutOrStdout(), s)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d total, %d completed, %d pending\n", s.Total, s.Completed, s.Pending)
			return nil
		},
	}
}

// resolveID accepts a full id or any prefix that matches exactly one task.
func (a *app) resolveID(ctx context.Context, ref string) (string, error) {
	view, err := a.tasks().View(ctx, task.FilterAll)
	if err != nil {
		return "", err
	}
	var match string
	for _, t := range view.Tasks {
		if t.ID == ref {
			return ref, nil
		}
		if strings.HasPrefix(t.ID, ref) {
			if match != "" {
				return "", fmt.Errorf("id prefix %q is ambiguous", ref)
			}
			match = t.ID
		}
	}
	if match == "" {
		return "", fmt.Errorf("%w: %s", errNotFound, ref)
	}
	return match, nil
}

func (a *app) printTask(cmd *cobra.Command, t task.Task) error {
	if a.format == "json" {
		return printJSON(cmd.OutOrStdout(), t)
	}
	printShortTasks(cmd.OutOrStdout(), []task.Task{t}, time.Now())
	return nil
}
