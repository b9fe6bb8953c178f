// ABOUTME: CLI commands for body measurements and other progress metrics.
// ABOUTME: Common metric tags get a default unit; custom tags need --unit.
package main

import (
	"fmt"
	"strconv"

	"github.com/fatih/color"
	"github.com/harperreed/fitlog/internal/models"
	"github.com/harperreed/fitlog/internal/storage"
	"github.com/spf13/cobra"
)

var (
	progressDate  string
	progressUnit  string
	progressNotes string

	progressListType  string
	progressListLimit int
)

var progressCmd = &cobra.Command{
	Use:     "progress",
	Aliases: []string{"p"},
	Short:   "Record and list progress measurements",
}

var progressAddCmd = &cobra.Command{
	Use:   "add <metric-type> <value>",
	Short: "Record a progress measurement",
	Long: `Record a measurement. Known metric types and their units:

  weight (kg), body_fat (%), waist, chest, arm, thigh (cm)

Any other tag works too, as long as --unit is given.

Examples:
  fitlog progress add weight 81.4
  fitlog progress add waist 84 --date 2026-02-01
  fitlog progress add vo2max 48 --unit ml/kg/min`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		value, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid value: %s", args[1])
		}

		p := models.NewProgressTracking(args[0], value)
		if progressUnit != "" {
			p.WithUnit(progressUnit)
		}
		if progressDate != "" {
			d, err := models.ParseTimestamp(progressDate)
			if err != nil {
				return err
			}
			p.WithRecordDate(d)
		}
		if progressNotes != "" {
			p.WithNotes(progressNotes)
		}

		id, err := rt.SaveProgressTracking(cmd.Context(), resolver.Context(), p)
		if err != nil {
			return err
		}

		color.Green("✓ Recorded %s", p.MetricType)
		fmt.Printf("  %s %.2f %s\n", color.New(color.Faint).Sprint(id), p.Value, p.Unit)
		return nil
	},
}

var progressListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List progress measurements",
	RunE: func(cmd *cobra.Command, args []string) error {
		points, err := rt.ListProgressTracking(cmd.Context(), resolver.Context(), storage.ProgressListOptions{
			MetricType: progressListType,
			Limit:      progressListLimit,
		})
		if err != nil {
			return err
		}

		if len(points) == 0 {
			fmt.Println("No progress entries found.")
			return nil
		}

		faint := color.New(color.Faint)
		for _, p := range points {
			notes := ""
			if n := derefString(p.Notes); n != "" {
				notes = faint.Sprintf(" (%s)", truncate(n, 30))
			}
			fmt.Printf("%s %s %s %.2f %s%s\n",
				faint.Sprint(shortID(p.ID)),
				faint.Sprint(p.RecordDate.Format("2006-01-02")),
				padRight(p.MetricType, 12),
				p.Value,
				p.Unit,
				notes)
		}
		return nil
	},
}

func init() {
	progressAddCmd.Flags().StringVar(&progressDate, "date", "", "record date (default today)")
	progressAddCmd.Flags().StringVar(&progressUnit, "unit", "", "unit (required for custom metric types)")
	progressAddCmd.Flags().StringVar(&progressNotes, "notes", "", "notes")

	progressListCmd.Flags().StringVarP(&progressListType, "type", "t", "", "filter by metric type")
	progressListCmd.Flags().IntVarP(&progressListLimit, "limit", "n", 20, "max results")

	progressCmd.AddCommand(progressAddCmd, progressListCmd)
	rootCmd.AddCommand(progressCmd)
}
