package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"

	"github.com/Hanaasagi/patlight/internal"
	"github.com/Hanaasagi/patlight/internal/config"
	"github.com/Hanaasagi/patlight/pkg/patternmatch"
)

func newViewCommand(g *globalOptions) *cobra.Command {
	opts := &selectionOptions{}
	c := &cobra.Command{
		Use:   "view FILE...",
		Short: "Browse files with live highlights",
		Long: "Open each FILE in an interactive viewer. Press h to pick a pattern set, tab to switch\n" +
			"files, n/N to jump between matches, c to clear and q to quit. Files and the configuration\n" +
			"are watched and highlights follow their changes.",
		Example: "  patlight view main.go README.md\n  patlight view -s Default -i notes.md",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			env, err := g.load()
			if err != nil {
				return err
			}
			return runView(c.Context(), g, env, args, *opts)
		},
	}
	opts.bind(c, "")
	return c
}

// watchedConfigFiles returns the configuration files whose directory exists.
func watchedConfigFiles(env *environment) []string {
	var files []string
	for _, path := range []string{env.configPath, env.patternsPath} {
		if path == "" {
			continue
		}
		if info, err := os.Stat(filepath.Dir(path)); err == nil && info.IsDir() {
			files = append(files, path)
		}
	}
	return files
}

func runView(ctx context.Context, g *globalOptions, env *environment, paths []string, opts selectionOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.set != "" {
		if err := checkChoice(opts.set, env.sets); err != nil {
			return err
		}
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	panes := make([]*internal.Pane, 0, len(paths))
	for _, path := range paths {
		pane, err := internal.OpenPane(path)
		if err != nil {
			return err
		}
		panes = append(panes, pane)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("creating screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("initializing screen: %w", err)
	}
	defer screen.Fini()

	configFiles := watchedConfigFiles(env)
	viewer := internal.NewViewer(screen, panes, env.sets, env.settings, internal.ViewerOptions{
		Reload: func() (config.Settings, []patternmatch.PatternSet, error) {
			next, err := g.load()
			if err != nil {
				return config.Settings{}, nil, err
			}
			return next.settings, next.sets, nil
		},
		ConfigFiles: configFiles,
	})
	if opts.set != "" {
		viewer.Session().Select(opts.set, opts.isolate)
	}

	watched := append(append([]string{}, paths...), configFiles...)
	watcher, err := internal.NewWatcher(watched, internal.DefaultDebounce)
	if err != nil {
		slog.Warn("file watching disabled", "error", err)
	} else {
		watchCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go func() {
			if err := watcher.Run(watchCtx); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("file watcher stopped", "error", err)
			}
		}()
		go func() {
			for {
				select {
				case <-watchCtx.Done():
					return
				case path := <-watcher.Events():
					viewer.FileChanged(path)
				}
			}
		}()
	}

	return viewer.Run(ctx)
}
