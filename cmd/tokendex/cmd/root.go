// Package cmd provides the CLI commands for tokendex.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tokendex/tokendex/internal/config"
	"github.com/tokendex/tokendex/internal/logging"
	"github.com/tokendex/tokendex/internal/repl"
	"github.com/tokendex/tokendex/internal/store"
	"github.com/tokendex/tokendex/internal/watcher"
	"github.com/tokendex/tokendex/pkg/indexer"
	"github.com/tokendex/tokendex/pkg/version"
)

// NewRootCmd creates the root command for the tokendex CLI.
func NewRootCmd() *cobra.Command {
	var configPath string
	var debugMode bool

	cmd := &cobra.Command{
		Use:   "tokendex",
		Short: "Live token-to-file inverted index with an interactive shell",
		Long: `tokendex maintains an in-memory inverted index over registered files and
directories and keeps it consistent with the filesystem in the background:
modifications reindex, deletions remove, creations add, and paths registered
before they exist are picked up the moment they appear.

Run 'tokendex' to enter the interactive shell.`,
		Version:      version.Version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRepl(configPath, debugMode)
		},
	}

	cmd.SetVersionTemplate("tokendex version {{.Version}}\n")

	cmd.PersistentFlags().StringVar(&configPath, "config", config.DefaultPath(), "Path to config file")
	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")

	cmd.AddCommand(newVersionCmd())

	return cmd
}

// runRepl wires config, logging, and the indexer together and hands control
// to the interactive shell.
func runRepl(configPath string, debug bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.Logging.Level
	if debug {
		logCfg.Level = "debug"
	}
	if cfg.Logging.File != "" {
		logCfg.FilePath = cfg.Logging.File
	}
	cleanup, err := logging.SetupDefault(logCfg)
	if err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}
	defer cleanup()

	idx, err := indexer.New(
		indexer.WithMaxWorkers(cfg.Workers()),
		indexer.WithStoreOptions(store.Options{
			MaxFileSize:   cfg.MaxFileSize(),
			HashCacheSize: cfg.Index.HashCacheSize,
		}),
		indexer.WithWatcherOptions(watcher.Options{
			PollTimeout: cfg.PollTimeout(),
			EventBuffer: cfg.Watcher.EventBuffer,
		}),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "tokendex: %v\n", err)
		return err
	}
	defer func() { _ = idx.Close() }()

	return repl.New(idx, cfg.Repl.HistoryFile, cfg.Repl.Color).Run()
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
