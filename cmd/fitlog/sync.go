// ABOUTME: CLI commands for moving on-device records to the cloud store.
// ABOUTME: sync run retries transient row failures with backoff; sync status reports the backlog.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/harperreed/fitlog/internal/migrate"
	"github.com/harperreed/fitlog/internal/models"
	"github.com/harperreed/fitlog/internal/util"
	"github.com/spf13/cobra"
)

const (
	syncBaseDelay = 2 * time.Second
	syncMaxDelay  = 30 * time.Second
)

var (
	syncRetries    int
	syncStatusJSON bool
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync on-device records to the cloud",
	Long: `Move records logged on this device into the cloud store.

Only Pro and Premium plans sync. Each record is uploaded once and then
marked as synced locally; records that fail stay on the device and are
picked up by the next run.

COMMANDS:

  run       Upload every unsynced record
  status    Show plan, connectivity and the unsynced backlog`,
}

var syncRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Upload unsynced on-device records",
	RunE: func(cmd *cobra.Command, args []string) error {
		ent := resolver.Context()
		run := func(ctx context.Context) (migrate.Summary, error) {
			return rt.SyncLocalDataToCloud(ctx, ent)
		}

		total, last, err := syncWithRetries(cmd.Context(), run, syncRetries, syncBaseDelay, func(attempt int, sum migrate.Summary, wait time.Duration) {
			color.Yellow("⚠ %d record(s) failed, retrying in %s (attempt %d/%d)", sum.Failed, wait.Round(time.Second), attempt, syncRetries)
		})
		switch {
		case errors.Is(err, migrate.ErrNotEntitled):
			return fmt.Errorf("syncing needs a Pro or Premium plan (current plan: %s)", ent.Tier)
		case err != nil:
			return err
		}

		color.Green("✓ %d record(s) synced", total)
		if last.Failed == 0 {
			return nil
		}

		color.Red("✗ %d record(s) failed", last.Failed)
		for _, e := range last.Errors {
			fmt.Printf("  %s\n", e.Error())
		}
		return fmt.Errorf("%d record(s) could not be synced", last.Failed)
	},
}

var syncStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show sync status",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := rt.GetSyncStatus(cmd.Context(), resolver.Context())
		if err != nil {
			return err
		}

		if syncStatusJSON {
			data, err := json.MarshalIndent(st, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		}

		fmt.Printf("Plan:          %s\n", st.Tier)
		if st.IsOnline {
			fmt.Printf("Connectivity:  %s\n", color.GreenString("online"))
		} else {
			fmt.Printf("Connectivity:  %s\n", color.YellowString("offline"))
		}
		if st.LocalStorageEnabled {
			fmt.Println("New records:   stored on this device")
		} else {
			fmt.Println("New records:   stored in the cloud")
		}
		fmt.Printf("Can sync:      %t\n", st.CanSyncToCloud)
		fmt.Printf("Unsynced:      %d\n", st.UnsyncedCount)
		for _, f := range models.Families() {
			if n := st.UnsyncedByFamily[f]; n > 0 {
				fmt.Printf("  %-18s %d\n", f, n)
			}
		}
		if st.MigrationRunning {
			color.Yellow("A sync is currently running.")
		}
		return nil
	},
}

// syncWithRetries runs the migration up to 1+retries times, stopping as
// soon as a run leaves nothing retryable. It returns the total synced across
// runs and the summary of the last run.
func syncWithRetries(
	ctx context.Context,
	run func(context.Context) (migrate.Summary, error),
	retries int,
	baseDelay time.Duration,
	onRetry func(attempt int, sum migrate.Summary, wait time.Duration),
) (int, migrate.Summary, error) {
	total := 0
	for attempt := 0; ; attempt++ {
		sum, err := run(ctx)
		total += sum.Synced
		if err != nil {
			return total, sum, err
		}
		if !sum.Retryable() || attempt >= retries {
			return total, sum, nil
		}

		wait := util.CalculateBackoff(baseDelay, syncMaxDelay, attempt+1)
		if onRetry != nil {
			onRetry(attempt+1, sum, wait)
		}
		if err := util.Sleep(ctx, wait); err != nil {
			return total, sum, err
		}
	}
}

func init() {
	syncRunCmd.Flags().IntVar(&syncRetries, "retries", 3, "extra runs while transient failures remain")
	syncStatusCmd.Flags().BoolVar(&syncStatusJSON, "json", false, "print status as JSON")

	syncCmd.AddCommand(syncRunCmd, syncStatusCmd)
	rootCmd.AddCommand(syncCmd)
}
