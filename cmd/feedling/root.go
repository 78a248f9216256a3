package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"feedling/internal/config"
	"feedling/internal/debuglog"
)

// databaseFile is the SQLite file inside the data directory.
const databaseFile = "feedling.db"

var (
	flagDataDir  string
	flagLogLevel string

	// Resolved by the root pre-run and used by every verb.
	appDataDir string
	appConfig  *config.Shared
)

var rootCmd = &cobra.Command{
	Use:   "feedling",
	Short: "Background feed aggregation engine",
	Long: `feedling keeps a local database of feed subscriptions in sync.

Every verb runs one engine session: the engine prepares its data
directory, refreshes all subscribed channels, applies the verb's
command and persists the result. Tables go to stdout, progress and
warnings to stderr.`,
	SilenceUsage:      true,
	PersistentPreRunE: setupApp,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "",
		"Data directory (default: user config dir, env FEEDLING_DATA_DIR)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "",
		"Log level: debug, info, warn, error, off (env FEEDLING_LOG_LEVEL)")

	rootCmd.AddCommand(
		refreshCmd,
		itemsCmd,
		channelsCmd,
		addCmd,
		renameCmd,
		unsubscribeCmd,
		dismissCmd,
		restoreCmd,
		importCmd,
		exportCmd,
		configCmd,
		versionCmd,
	)
}

// setupApp resolves the data directory, wires logging and loads the shared
// settings before any verb runs.
func setupApp(cmd *cobra.Command, args []string) error {
	dir := flagDataDir
	if dir == "" {
		dir = os.Getenv("FEEDLING_DATA_DIR")
	}
	if dir == "" {
		var err error
		dir, err = config.DefaultDir()
		if err != nil {
			return fmt.Errorf("resolving data directory: %w", err)
		}
	}
	appDataDir = dir

	level := flagLogLevel
	if level == "" {
		level = os.Getenv("FEEDLING_LOG_LEVEL")
	}
	if lvl := debuglog.ParseLogLevel(level); lvl != debuglog.LevelOff {
		// The engine creates the data directory on startup, but the log
		// file needs it now.
		if err := os.MkdirAll(appDataDir, 0o755); err != nil {
			return fmt.Errorf("creating data directory: %w", err)
		}
		if err := debuglog.Setup(lvl, filepath.Join(appDataDir, "feedling.log")); err != nil {
			return fmt.Errorf("setting up logging: %w", err)
		}
	}

	appConfig = config.Load(filepath.Join(appDataDir, config.FileName))
	return nil
}
