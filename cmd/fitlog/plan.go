// ABOUTME: CLI commands for the subscription plan.
// ABOUTME: show and refresh read the plan; set writes it on stores that support it.
package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/harperreed/fitlog/internal/models"
	"github.com/spf13/cobra"
)

// tierWriter is implemented by remote stores that keep the plan table.
type tierWriter interface {
	SetTier(ctx context.Context, userID string, tier models.Tier) error
}

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show or change the subscription plan",
}

var planShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current plan",
	RunE: func(cmd *cobra.Command, args []string) error {
		printPlan()
		return nil
	},
}

var planRefreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Re-read the plan from the cloud store",
	RunE: func(cmd *cobra.Command, args []string) error {
		resolver.Refresh(cmd.Context())
		printPlan()
		return nil
	},
}

var planSetCmd = &cobra.Command{
	Use:   "set <" + tierNames("|") + ">",
	Short: "Set the plan for the current user (admin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tier, ok := models.ParseTier(args[0])
		if !ok {
			return fmt.Errorf("unknown plan: %s (use one of %s)", args[0], tierNames(", "))
		}
		w, ok := remote.(tierWriter)
		if !ok {
			return errors.New("no cloud store configured that can change plans")
		}
		userID := resolver.UserID()
		if userID == "" {
			return errors.New("no user id (use --user or FITLOG_USER_ID)")
		}

		if err := w.SetTier(cmd.Context(), userID, tier); err != nil {
			return fmt.Errorf("failed to set plan: %w", err)
		}
		resolver.Refresh(cmd.Context())
		printPlan()
		return nil
	},
}

func tierNames(sep string) string {
	names := make([]string, len(models.AllTiers))
	for i, t := range models.AllTiers {
		names[i] = string(t)
	}
	return strings.Join(names, sep)
}

func printPlan() {
	ent := resolver.Context()
	user := ent.UserID
	if user == "" {
		user = "(anonymous)"
	}
	fmt.Printf("User: %s\n", user)
	fmt.Printf("Plan: %s\n", ent.Tier)
	if ent.ShouldUseCloud() {
		color.Green("New records are stored in the cloud.")
	} else {
		fmt.Println("New records are stored on this device.")
	}
}

func init() {
	planCmd.AddCommand(planShowCmd, planRefreshCmd, planSetCmd)
	rootCmd.AddCommand(planCmd)
}
