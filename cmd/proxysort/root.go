package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/nao1215/proxysort/internal/category"
	"github.com/nao1215/proxysort/internal/config"
	"github.com/nao1215/proxysort/internal/database"
	"github.com/nao1215/proxysort/internal/log"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for proxysort.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "proxysort",
		Short: "Sort links from chat messages into categories by hosting IP",
		Long: `proxysort extracts links from chat messages and attached text files,
resolves the IP address each link points at and stores the link under the
category mapped to that IP.

Links whose IP has no category yet are queued in the Unknown Bucket.
Use 'proxysort track <ip> <name>' to map the IP and move its queued links.

Data is kept in a SQLite database in the data directory
(default: the XDG data directory, e.g. ~/.local/share/proxysort).`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .proxysort in current or home directory)")
	cmd.PersistentFlags().StringP("data-dir", "D", "",
		"Directory holding the database and report files")
	cmd.PersistentFlags().String("env-file", "",
		"dotenv file to load PROXYSORT_* variables from (default: .env if present)")

	// Add subcommands
	cmd.AddCommand(NewScanCmd())
	cmd.AddCommand(NewTrackCmd())
	cmd.AddCommand(NewGetCmd())
	cmd.AddCommand(NewProxyCmd())
	cmd.AddCommand(NewUnknownCmd())
	cmd.AddCommand(NewResultsCmd())
	cmd.AddCommand(NewImportCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// getGlobalString retrieves a global string flag from the command or its parent.
func getGlobalString(cmd *cobra.Command, name string) string {
	value, err := cmd.Flags().GetString(name)
	if err != nil {
		value, err = cmd.Root().PersistentFlags().GetString(name)
		if err != nil {
			return ""
		}
	}
	return value
}

// loadConfig builds the configuration shared by every command.
// Precedence, lowest first: defaults, configuration file, environment,
// global flags. Command flags are applied by the command itself.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.Verbose = getVerboseFlag(cmd)
	cfg.EnvFile = getGlobalString(cmd, "env-file")
	cfg.ConfigFilePath = getGlobalString(cmd, "config")

	if err := config.LoadEnvFile(cfg.EnvFile); err != nil {
		return nil, err
	}

	// If the user explicitly specified a config file path, error if not found.
	// If no path was specified, run on defaults when no file is found.
	if configPath := config.FindConfigFile(cfg.ConfigFilePath); configPath != "" {
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		file.Apply(cfg)
	} else if cfg.ConfigFilePath != "" {
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	if err := config.ApplyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}

	if dataDir := getGlobalString(cmd, "data-dir"); dataDir != "" {
		cfg.DataDir = dataDir
	}
	return cfg, nil
}

// setupLogger creates the secure structured logger for the given verbosity.
func setupLogger(verbose bool) *slog.Logger {
	return log.NewSecureLogger(os.Stderr, verbose)
}

// openStore opens the database in the data directory and wraps it in a
// category store with the mapping loaded.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*database.LinkDB, *category.Store, error) {
	if err := cfg.ValidateStore(); err != nil {
		return nil, nil, fmt.Errorf("configuration error: %w", err)
	}

	db, err := database.Open(cfg.DataDir, database.DefaultOptions())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	logger.Debug("database opened", "path", db.Path())

	store := category.NewStore(db, category.WithLogger(logger))
	if err := store.Load(ctx); err != nil {
		_ = db.Close() //nolint:errcheck // the load error is reported
		return nil, nil, err
	}
	return db, store, nil
}

// commandSetup loads the configuration, installs the logger and opens the
// store: the common prologue of every command that touches the database.
func commandSetup(cmd *cobra.Command) (*config.Config, *slog.Logger, *database.LinkDB, *category.Store, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	logger := setupLogger(cfg.Verbose)
	slog.SetDefault(logger)

	db, store, err := openStore(commandContext(cmd), cfg, logger)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	return cfg, logger, db, store, nil
}

// commandContext returns the command's context, or Background when the
// command runs outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
