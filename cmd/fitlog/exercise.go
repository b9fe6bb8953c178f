// ABOUTME: CLI commands for per-exercise logs within a session.
// ABOUTME: Sets are given as repeated --set REPSxKG flags.
package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/harperreed/fitlog/internal/models"
	"github.com/harperreed/fitlog/internal/storage"
	"github.com/spf13/cobra"
)

var (
	exerciseSets    []string
	exerciseRest    []int
	exerciseNotes   string
	exerciseSkipped bool

	exerciseListSession string
	exerciseListLimit   int
)

var exerciseCmd = &cobra.Command{
	Use:     "exercise",
	Aliases: []string{"ex"},
	Short:   "Log and list exercise sets",
}

var exerciseAddCmd = &cobra.Command{
	Use:   "add <session-id> <exercise-id> <order>",
	Short: "Log an exercise performed in a session",
	Long: `Log the sets performed for one exercise.

Examples:
  fitlog exercise add <session-id> squat 1 --set 5x140 --set 5x140 --set 5x140
  fitlog exercise add <session-id> pullup 2 --set 8 --set 7 --rest 90,90
  fitlog exercise add <session-id> dip 3 --skipped`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		order, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("invalid order: %s", args[2])
		}

		l := models.NewExerciseLog(args[0], args[1], order)
		for _, set := range exerciseSets {
			reps, kg, err := parseSet(set)
			if err != nil {
				return err
			}
			l.AddSet(reps, kg)
		}
		if len(exerciseRest) > 0 {
			l.WithRest(exerciseRest)
		}
		if exerciseNotes != "" {
			l.WithNotes(exerciseNotes)
		}
		if exerciseSkipped {
			l.MarkSkipped()
		}

		id, err := rt.SaveExerciseLog(cmd.Context(), resolver.Context(), l)
		if err != nil {
			return err
		}

		color.Green("✓ Logged %s", l.ExerciseID)
		fmt.Printf("  %s %d sets, %.1f kg volume\n",
			color.New(color.Faint).Sprint(id), l.SetsCompleted, l.TotalVolumeKg())
		return nil
	},
}

var exerciseListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List exercise logs",
	RunE: func(cmd *cobra.Command, args []string) error {
		logs, err := rt.ListExerciseLogs(cmd.Context(), resolver.Context(), storage.ExerciseLogListOptions{
			SessionID: exerciseListSession,
			Limit:     exerciseListLimit,
		})
		if err != nil {
			return err
		}

		if len(logs) == 0 {
			fmt.Println("No exercise logs found.")
			return nil
		}

		faint := color.New(color.Faint)
		for _, l := range logs {
			fmt.Printf("%s %s #%d %s %s\n",
				faint.Sprint(shortID(l.ID)),
				faint.Sprint(shortID(l.SessionID)),
				l.OrderPerformed,
				padRight(l.ExerciseID, 16),
				formatSets(l))
		}
		return nil
	},
}

func formatSets(l *models.ExerciseLog) string {
	if l.Skipped {
		return "skipped"
	}
	parts := make([]string, 0, len(l.RepsPerformed))
	for i, reps := range l.RepsPerformed {
		if l.WeightUsedKg[i] == 0 {
			parts = append(parts, strconv.Itoa(reps))
			continue
		}
		parts = append(parts, fmt.Sprintf("%dx%g", reps, l.WeightUsedKg[i]))
	}
	return strings.Join(parts, " ")
}

func init() {
	exerciseAddCmd.Flags().StringArrayVar(&exerciseSets, "set", nil, "set as REPSxKG (repeatable)")
	exerciseAddCmd.Flags().IntSliceVar(&exerciseRest, "rest", nil, "rest seconds after each set, comma separated")
	exerciseAddCmd.Flags().StringVar(&exerciseNotes, "notes", "", "notes")
	exerciseAddCmd.Flags().BoolVar(&exerciseSkipped, "skipped", false, "mark exercise as skipped")

	exerciseListCmd.Flags().StringVarP(&exerciseListSession, "session", "s", "", "filter by session id")
	exerciseListCmd.Flags().IntVarP(&exerciseListLimit, "limit", "n", 20, "max results")

	exerciseCmd.AddCommand(exerciseAddCmd, exerciseListCmd)
	rootCmd.AddCommand(exerciseCmd)
}
