// Package cli implements the tasks command line client.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"tasklist/internal/client"
	"tasklist/internal/config"
	"tasklist/internal/storage"
	"tasklist/pkg/task"
)

// Session is an open task list plus whatever must be released afterwards.
type Session struct {
	Tasks Tasks
	Close func() error
}

// Options are the global flags that decide where the task list lives.
type Options struct {
	ConfigPath string
	APIBase    string
}

// Opener opens the task list described by opts.
type Opener func(ctx context.Context, opts Options) (*Session, error)

type app struct {
	open    Opener
	opts    Options
	format  string
	session *Session
}

// NewRootCmd builds the tasks command tree. A nil open uses OpenConfigured.
func NewRootCmd(open Opener) *cobra.Command {
	root, _ := newRoot(open)
	return root
}

func newRoot(open Opener) (*cobra.Command, *app) {
	if open == nil {
		open = OpenConfigured
	}
	a := &app{open: open}

	root := &cobra.Command{
		Use:   "tasks",
		Short: "Manage a personal task list",
		Long: `tasks adds, completes, edits and removes items on your task list.

With --api (or api_base / API_BASE in the config) every command goes through
a running tasklist server, which stays the only writer of its storage.

Without it, tasks opens the configured storage itself (STORAGE_DRIVER and
friends). Do not point it at storage a running server is using: the server
rewrites the whole list on each change and would drop tasks added here.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if a.format != "short" && a.format != "json" {
				return fmt.Errorf("unknown format %q (want short or json)", a.format)
			}
			s, err := a.open(cmd.Context(), a.opts)
			if err != nil {
				return err
			}
			a.session = s
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.opts.ConfigPath, "config", "config.yaml", "configuration file")
	root.PersistentFlags().StringVar(&a.opts.APIBase, "api", "", "tasklist server URL, e.g. http://localhost:8080/")
	root.PersistentFlags().StringVar(&a.format, "format", "short", "output format: short or json")

	root.AddCommand(
		a.addCmd(),
		a.listCmd(),
		a.toggleCmd(),
		a.updateCmd(),
		a.rmCmd(),
		a.clearCmd(),
		a.statsCmd(),
	)
	return root, a
}

// Execute runs the command tree against args, writing to out and errOut.
func Execute(ctx context.Context, open Opener, args []string, out, errOut io.Writer) error {
	root, a := newRoot(open)
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(errOut)
	err := root.ExecuteContext(ctx)
	if cerr := a.close(); err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintln(errOut, "tasks:", err)
	}
	return err
}

func (a *app) close() error {
	if a.session == nil || a.session.Close == nil {
		return nil
	}
	err := a.session.Close()
	a.session = nil
	return err
}

// OpenConfigured loads configuration and talks to the server when an API
// base is set, opening the configured store directly otherwise.
func OpenConfigured(ctx context.Context, opts Options) (*Session, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log := cfg.NewLogger()

	base := opts.APIBase
	if base == "" {
		base = cfg.APIBase
	}
	if base != "" {
		log.Debug("using tasklist server", "api", base)
		return &Session{Tasks: Remote{API: client.New(base, nil)}}, nil
	}

	adapter, err := storage.Open(ctx, cfg.Storage, log)
	if err != nil {
		return nil, err
	}
	repo := task.NewRepository(ctx, storage.TaskStore(adapter, cfg.Storage), task.WithLogger(log))
	return &Session{Tasks: Local{Repo: repo}, Close: adapter.Close}, nil
}
