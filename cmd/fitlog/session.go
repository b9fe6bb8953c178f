// ABOUTME: CLI commands for workout sessions.
// ABOUTME: session add records a session; session list shows recent ones.
package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/harperreed/fitlog/internal/models"
	"github.com/harperreed/fitlog/internal/storage"
	"github.com/spf13/cobra"
)

var (
	sessionStart  string
	sessionEnd    string
	sessionNotes  string
	sessionRating int

	sessionListRoutine string
	sessionListLimit   int
)

var sessionCmd = &cobra.Command{
	Use:     "session",
	Aliases: []string{"s"},
	Short:   "Log and list workout sessions",
}

var sessionAddCmd = &cobra.Command{
	Use:   "add <routine-id>",
	Short: "Log a workout session",
	Long: `Log a workout session for a routine.

Examples:
  fitlog session add push
  fitlog session add legs --start "2026-03-01 07:00" --end "2026-03-01 08:05"
  fitlog session add pull --rating 5 --notes "new PR on rows"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s := models.NewWorkoutSession(args[0])

		if sessionStart != "" {
			t, err := models.ParseTimestamp(sessionStart)
			if err != nil {
				return err
			}
			s.WithStartTime(t)
		}
		if sessionEnd != "" {
			t, err := models.ParseTimestamp(sessionEnd)
			if err != nil {
				return err
			}
			s.WithEndTime(t)
		}
		if sessionNotes != "" {
			s.WithNotes(sessionNotes)
		}
		if sessionRating != 0 {
			s.WithRating(sessionRating)
		}

		id, err := rt.SaveWorkoutSession(cmd.Context(), resolver.Context(), s)
		if err != nil {
			return err
		}

		color.Green("✓ Logged %s session", s.RoutineID)
		fmt.Printf("  %s %s\n", color.New(color.Faint).Sprint(id), s.SessionDate.Format("2006-01-02"))
		return nil
	},
}

var sessionListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List recent workout sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		sessions, err := rt.ListWorkoutSessions(cmd.Context(), resolver.Context(), storage.SessionListOptions{
			RoutineID: sessionListRoutine,
			Limit:     sessionListLimit,
		})
		if err != nil {
			return err
		}

		if len(sessions) == 0 {
			fmt.Println("No sessions found.")
			return nil
		}

		faint := color.New(color.Faint)
		for _, s := range sessions {
			extra := ""
			if d := s.Duration(); d > 0 {
				extra += fmt.Sprintf(" %dmin", int(d.Minutes()))
			}
			if s.Rating != nil {
				extra += fmt.Sprintf(" ★%d", *s.Rating)
			}
			if n := derefString(s.Notes); n != "" {
				extra += faint.Sprintf(" (%s)", truncate(n, 30))
			}
			fmt.Printf("%s %s %s%s\n",
				faint.Sprint(shortID(s.ID)),
				faint.Sprint(s.StartTime.Local().Format("2006-01-02 15:04")),
				padRight(s.RoutineID, 16),
				extra)
		}
		return nil
	},
}

func init() {
	sessionAddCmd.Flags().StringVar(&sessionStart, "start", "", "start time (default now)")
	sessionAddCmd.Flags().StringVar(&sessionEnd, "end", "", "end time")
	sessionAddCmd.Flags().StringVar(&sessionNotes, "notes", "", "notes")
	sessionAddCmd.Flags().IntVar(&sessionRating, "rating", 0, "rating 1-5")

	sessionListCmd.Flags().StringVarP(&sessionListRoutine, "routine", "r", "", "filter by routine id")
	sessionListCmd.Flags().IntVarP(&sessionListLimit, "limit", "n", 20, "max results")

	sessionCmd.AddCommand(sessionAddCmd, sessionListCmd)
	rootCmd.AddCommand(sessionCmd)
}
