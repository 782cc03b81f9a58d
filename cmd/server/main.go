package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"net"
	"net/http"
	"os"

	gfshutdown "github.com/gelmium/graceful-shutdown"

	"tasklist/internal/api"
	"tasklist/internal/config"
	"tasklist/internal/storage"
	"tasklist/pkg/changefeed"
	"tasklist/pkg/task"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "config.yaml", "server configuration file")
	flag.Parse()

	cfg := config.MustLoad(configPath)
	log := cfg.NewLogger()
	ctx := context.Background()

	adapter, err := storage.Open(ctx, cfg.Storage, log)
	if err != nil {
		log.Error("cannot open storage", "error", err)
		os.Exit(1)
	}

	changes := changefeed.NewBus[task.Change](0)
	repo := task.NewRepository(ctx, storage.TaskStore(adapter, cfg.Storage),
		task.WithLogger(log),
		task.WithNotifier(changes.Publish),
	)

	server := newHTTPServer(cfg.Address, api.New(repo, changes, log, api.WithStaticDir(cfg.WASMDir)))

	go func() {
		log.Info("tasklist listening", "address", server.Addr, "driver", cfg.Storage.Driver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped unexpectedly", "error", err)
			os.Exit(1)
		}
	}()

	wait := gfshutdown.GracefulShutdown(ctx, cfg.ShutdownTimeout, map[string]gfshutdown.Operation{
		"tasklist": shutdown(server, adapter),
	})

	code := <-wait
	log.Info("tasklist stopped", "exit_code", code)
	os.Exit(code)
}

// newHTTPServer returns a server whose request contexts are cancelled as
// soon as Shutdown starts, so long-lived change streams return.
func newHTTPServer(addr string, h http.Handler) *http.Server {
	base, cancel := context.WithCancel(context.Background())
	srv := &http.Server{
		Addr:        addr,
		Handler:     h,
		BaseContext: func(net.Listener) context.Context { return base },
	}
	srv.RegisterOnShutdown(cancel)
	return srv
}

// shutdown drains the HTTP server and only then closes storage, so the last
// in-flight mutation still reaches the backend.
func shutdown(srv *http.Server, store io.Closer) gfshutdown.Operation {
	return func(ctx context.Context) error {
		err := srv.Shutdown(ctx)
		if cerr := store.Close(); err == nil {
			err = cerr
		}
		return err
	}
}
