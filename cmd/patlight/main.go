package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"

	"github.com/adrg/xdg"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Hanaasagi/patlight/cmd"
	"github.com/Hanaasagi/patlight/internal"
	"github.com/Hanaasagi/patlight/internal/config"
	"github.com/Hanaasagi/patlight/internal/highlight"
	"github.com/Hanaasagi/patlight/internal/logger"
	"github.com/Hanaasagi/patlight/internal/patternstore"
	"github.com/Hanaasagi/patlight/pkg/patternmatch"
)

var (
	Version     = "0.1.0"
	CommitSha   = "unknown"
	FullVersion = Version + "-" + CommitSha
)

// globalOptions are the flags shared by every subcommand.
type globalOptions struct {
	configPath   string
	patternsPath string
}

// environment is everything a command needs to highlight documents.
type environment struct {
	settings     config.Settings
	sets         []patternmatch.PatternSet
	configPath   string
	patternsPath string
}

func (o *globalOptions) resolveConfigPath() string {
	if o.configPath != "" {
		return o.configPath
	}
	return config.DefaultPath()
}

// load reads the settings, validates the highlight colours and loads the
// pattern sets, seeding the pattern file when it does not exist yet.
func (o *globalOptions) load() (*environment, error) {
	configPath := o.resolveConfigPath()
	settings, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config %s: %w", configPath, err)
	}
	if o.patternsPath != "" {
		settings.PatternsPath = o.patternsPath
	}
	if _, _, err := internal.ParseStyle(highlight.StyleFor(settings)); err != nil {
		return nil, fmt.Errorf("config %s: %w", configPath, err)
	}

	sets, err := patternstore.LoadOrSeed(settings.PatternsPath)
	if err != nil {
		return nil, err
	}
	slog.Info("loaded pattern sets", "path", settings.PatternsPath, "sets", len(sets))

	return &environment{
		settings:     settings,
		sets:         sets,
		configPath:   configPath,
		patternsPath: settings.PatternsPath,
	}, nil
}

func initLogging() io.Closer {
	closer, err := logger.InitFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: logging disabled: %v\n", config.AppName, err)
		slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
		return io.NopCloser(nil)
	}

	crashFilePath := filepath.Join(xdg.StateHome, config.AppName, "crash")
	if f, err := os.Create(crashFilePath); err == nil {
		_ = debug.SetCrashOutput(f, debug.CrashOptions{})
	}
	return closer
}

func newRootCommand() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   config.AppName,
		Short: "Highlight pattern sets in text files",
		Long: color.New(color.FgHiMagenta).Sprintf(
			"Highlight named sets of words and regular expressions in text, with inline annotations. %s",
			color.New(color.FgBlue).Sprintf("(%s)", FullVersion),
		),
		Version:       FullVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetVersionTemplate(fmt.Sprintf("%s version: {{.Version}}\n", config.AppName))

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Settings file (default $XDG_CONFIG_HOME/patlight/config.toml, or $"+config.EnvConfigPath+")")
	rootCmd.PersistentFlags().StringVarP(&opts.patternsPath, "patterns", "p", "", "Pattern-set file, overriding patterns.path")

	rootCmd.AddCommand(
		newShowCommand(opts),
		newScanCommand(opts),
		newViewCommand(opts),
		newSetsCommand(opts),
	)
	cmd.Apply(rootCmd)
	return rootCmd
}

func main() {
	closer := initLogging()

	err := newRootCommand().Execute()
	if err != nil {
		slog.Error("Error executing command", "error", err)
		fmt.Fprintf(os.Stderr, "%s: %v\n", config.AppName, err)
	}
	_ = closer.Close()
	if err != nil {
		os.Exit(1)
	}
}
