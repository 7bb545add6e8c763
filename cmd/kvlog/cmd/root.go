package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/backbone81/durable-kv/internal/config"
	"github.com/backbone81/durable-kv/pkg/state"
	"github.com/backbone81/durable-kv/pkg/wal"
)

var (
	configPath    string
	logPath       string
	snapshotPath  string
	syncPolicy    string
	directorySync bool
	logLevel      string
	logFormat     string

	// cfg and logger are set up before any command runs.
	cfg    *config.Config
	logger *slog.Logger
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "kvlog",
	Short: "A tool for working with the operation log of a crash-consistent key-value store.",
	Long: `A tool for working with the operation log of a crash-consistent key-value store.

Configuration is read from the file given with --config or the KVLOG_CONFIG environment variable. Flags override
values of the configuration file.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}

		flags := cmd.Flags()
		if flags.Changed("log-path") {
			loaded.LogPath = logPath
		}
		if flags.Changed("snapshot-path") {
			loaded.SnapshotPath = snapshotPath
		}
		if flags.Changed("sync-policy") {
			loaded.SyncPolicy = syncPolicy
		}
		if flags.Changed("directory-sync") {
			loaded.DirectorySync = directorySync
		}
		if flags.Changed("log-level") {
			loaded.LogLevel = logLevel
		}
		if flags.Changed("log-format") {
			loaded.LogFormat = logFormat
		}
		if err := loaded.Validate(); err != nil {
			return err
		}

		newLogger, err := loaded.NewLogger(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		cfg = loaded
		logger = newLogger
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(
		&configPath,
		"config",
		"c",
		"",
		"The YAML configuration file to load.",
	)
	rootCmd.PersistentFlags().StringVarP(
		&logPath,
		"log-path",
		"l",
		config.Default().LogPath,
		"The operation log of the store.",
	)
	rootCmd.PersistentFlags().StringVar(
		&snapshotPath,
		"snapshot-path",
		config.Default().SnapshotPath,
		"The file snapshots of the state are published to.",
	)
	rootCmd.PersistentFlags().StringVar(
		&syncPolicy,
		"sync-policy",
		config.Default().SyncPolicy,
		"The sync policy of the log writer. Valid values are none, immediate.",
	)
	rootCmd.PersistentFlags().BoolVar(
		&directorySync,
		"directory-sync",
		config.Default().DirectorySync,
		"Flush the directory after publishing a file.",
	)
	rootCmd.PersistentFlags().StringVar(
		&logLevel,
		"log-level",
		config.Default().LogLevel,
		"The minimum level of diagnostic output. Valid values are debug, info, warn, error.",
	)
	rootCmd.PersistentFlags().StringVar(
		&logFormat,
		"log-format",
		config.Default().LogFormat,
		"The format of diagnostic output. Valid values are text, json.",
	)
}

// storeOptions returns the store options matching the configuration.
func storeOptions() ([]state.StoreOption, error) {
	syncPolicyType, err := cfg.SyncPolicyType()
	if err != nil {
		return nil, err
	}
	return []state.StoreOption{
		state.WithSyncPolicy(syncPolicyType),
		state.WithObserver(wal.NewSlogObserver(logger)),
		state.WithDirectorySync(cfg.DirectorySync),
	}, nil
}

// openStore opens the store configured for the command. The caller needs to close it.
func openStore() (*state.Store, error) {
	options, err := storeOptions()
	if err != nil {
		return nil, err
	}
	store, err := state.OpenStore(cfg.LogPath, options...)
	if err != nil {
		return nil, err
	}
	if recovery := store.Recovery(); recovery.DiscardedBytes > 0 {
		logger.Warn(
			"discarded the tail of the log",
			slog.String("path", cfg.LogPath),
			slog.Int64("valid_length", recovery.ValidLength),
			slog.Int64("discarded_bytes", recovery.DiscardedBytes),
			slog.String("reason", recovery.StopReason.String()),
		)
	}
	return store, nil
}
