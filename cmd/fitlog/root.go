// ABOUTME: Root Cobra command for fitlog CLI.
// ABOUTME: Opens stores, resolves the plan and builds the router in PersistentPreRunE.
package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/fatih/color"
	"github.com/harperreed/fitlog/internal/config"
	"github.com/harperreed/fitlog/internal/entitlement"
	"github.com/harperreed/fitlog/internal/logging"
	"github.com/harperreed/fitlog/internal/router"
	"github.com/harperreed/fitlog/internal/storage"
	"github.com/spf13/cobra"
)

var (
	flagDataDir  string
	flagUser     string
	flagLogLevel string

	cfg      *config.Config
	logger   *log.Logger
	localDB  *storage.DB
	remote   config.RemoteStore
	resolver *entitlement.Resolver
	rt       *router.Router
)

var rootCmd = &cobra.Command{
	Use:   "fitlog",
	Short: "Workout and body progress log with tiered cloud sync",
	Long: `Fitlog records workout sessions, per-exercise sets and body measurements.

WHERE DATA LIVES:

  Free plan       Everything stays in a SQLite file on this device.
  Pro / Premium   New records go straight to the cloud store. Anything
                  logged on-device before upgrading can be pushed up
                  with 'fitlog sync run'.

QUICK START:

  $ fitlog session add push --rating 4          # Log a session
  $ fitlog exercise add <session-id> bench 1 \
      --set 5x100 --set 5x100 --set 5x100       # Log sets for an exercise
  $ fitlog progress add weight 81.4             # Record body weight
  $ fitlog session list                         # Recent sessions

SYNC:

  $ fitlog plan show      # Current plan and where writes go
  $ fitlog sync status    # Connectivity and unsynced backlog
  $ fitlog sync run       # Upload on-device records (paid plans)

CONFIGURATION:

  ~/.config/fitlog/config.json, overridden by FITLOG_* environment
  variables (a .env file in the working directory is loaded first).

  FITLOG_REMOTE         postgres or charm
  FITLOG_DATABASE_URL   Postgres connection string
  FITLOG_USER_ID        Account id used for plan lookups
  FITLOG_DATA_DIR       Local database directory
  FITLOG_LOG_LEVEL      debug, info, warn or error

MCP INTEGRATION:

  Run 'fitlog mcp' to start the Model Context Protocol server.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if skipSetup(cmd) {
			return nil
		}
		return setup(cmd.Context())
	},
}

// Execute runs the root command.
func Execute() error {
	rootCmd.Version = fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
	return rootCmd.ExecuteContext(context.Background())
}

func skipSetup(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case "help", "version", "completion", "__complete":
		return true
	}
	return false
}

func setup(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if flagDataDir != "" {
		cfg.DataDir = flagDataDir
	}
	if flagUser != "" {
		cfg.UserID = flagUser
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger, err = logging.Stderr(cfg.LogLevel)
	if err != nil {
		return err
	}

	localDB, err = cfg.OpenLocal()
	if err != nil {
		return fmt.Errorf("failed to open local database: %w", err)
	}

	remote, err = cfg.OpenRemote(ctx)
	if err != nil {
		// Free-tier use keeps working without the cloud.
		color.Yellow("⚠ Cloud store unavailable: %v", err)
		logger.Warn("remote unavailable", "remote", cfg.Remote, "err", err)
		remote = nil
	}

	userID, err := cfg.ResolveUserID(remote)
	if err != nil {
		logger.Warn("could not resolve user id", "err", err)
	}

	// A nil interface keeps the resolver's missing-source path.
	var source entitlement.Source
	var store storage.RemoteStore
	if remote != nil {
		source = remote
		store = remote
	}

	resolver = entitlement.NewResolver(source, logger)
	resolver.LoadSubscription(ctx, userID)

	rt = router.New(localDB, store, router.WithLogger(logger))
	return nil
}

// teardown runs after every command, including ones that failed.
func teardown() error {
	var errs []error
	if remote != nil {
		errs = append(errs, remote.Close())
		remote = nil
	}
	if localDB != nil {
		errs = append(errs, localDB.Close())
		localDB = nil
	}
	return errors.Join(errs...)
}

func init() {
	cobra.OnFinalize(func() {
		if err := teardown(); err != nil && logger != nil {
			logger.Warn("failed to close stores", "err", err)
		}
	})

	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "local data directory (default ~/.local/share/fitlog)")
	rootCmd.PersistentFlags().StringVar(&flagUser, "user", "", "user id for plan lookups")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn, error")
}
