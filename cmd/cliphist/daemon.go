package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"go.klb.dev/cliphist/internal/clip"
	"go.klb.dev/cliphist/internal/engine"
	"go.klb.dev/cliphist/internal/hub"
	"go.klb.dev/cliphist/internal/ipc"
	"go.klb.dev/cliphist/internal/persist"
	"go.klb.dev/cliphist/internal/watcher"
)

// newBackend opens the system clipboard; tests swap in a clip.Memory.
var newBackend = clip.New

func newDaemonCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Record clipboard history and serve it to the other commands",
		Long: `Polls the system clipboard, keeps the last 50 distinct texts and saves them
to the history file a moment after each change. The history is restored on
the next start.

Without a usable desktop clipboard (no display, unsupported platform) the
daemon falls back to an in-process clipboard that only "cliphist copy"
writes to.

Precedence (lowest → highest): defaults → config file → CLIPHIST_* env vars → flags`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(cmd *cobra.Command, _ []string) error { return runDaemon(cmd.Context(), v) },
	}

	f := cmd.Flags()
	f.String("history-file", "", "history file (default: per-user data directory)")
	f.Duration("poll-interval", watcher.DefaultInterval, "how often to check the clipboard")
	f.Duration("save-debounce", engine.DefaultSaveDebounce, "delay between a change and the history file write")
	addSocketFlag(cmd)
	addLoggingFlags(cmd)
	addConfigFlag(cmd)

	return cmd
}

func runDaemon(ctx context.Context, v *viper.Viper) error {
	setupLogging(v)

	path := v.GetString("history-file")
	if path == "" {
		var err error
		if path, err = persist.DefaultPath(); err != nil {
			return fmt.Errorf("history file: %w", err)
		}
	}
	sock := socketPath(v)

	ln, err := ipc.Listen(sock)
	if err != nil {
		return err
	}

	backend := newBackend()
	defer backend.Close()

	eng := engine.New(engine.Config{
		PollInterval: v.GetDuration("poll-interval"),
		SaveDebounce: v.GetDuration("save-debounce"),
	}, backend, persist.NewFile(path), hub.New())

	slog.Info("cliphist daemon starting",
		"version", Version,
		"backend", backend.Name(),
		"history_file", path,
		"socket", sock,
	)

	if err := eng.Start(ctx); err != nil {
		_ = ln.Close()
		return err
	}

	// The server drains in-flight requests before it returns; only then is
	// the engine stopped, so the final save sees every acknowledged change.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return ipc.NewServer(eng, Version).Serve(gctx, ln)
	})
	serveErr := g.Wait()

	slog.Info("cliphist daemon stopping")
	if err := eng.Shutdown(); err != nil {
		return errors.Join(serveErr, fmt.Errorf("final save: %w", err))
	}
	return serveErr
}
