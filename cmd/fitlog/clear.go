// ABOUTME: CLI command for wiping the on-device database.
// ABOUTME: Free plan only, and asks for confirmation unless --yes is given.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/harperreed/fitlog/internal/router"
	"github.com/spf13/cobra"
)

var clearYes bool

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every record stored on this device",
	Long: `Delete every record in the local database.

Only available on the free plan. On paid plans the device may still hold
records that have not reached the cloud yet; run 'fitlog sync run' instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if !clearYes {
			fmt.Print("Delete all local fitlog data? [y/N] ")
			answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
			if !strings.EqualFold(strings.TrimSpace(answer), "y") {
				fmt.Println("Aborted.")
				return nil
			}
		}

		err := rt.ClearLocalData(cmd.Context(), resolver.Context())
		if errors.Is(err, router.ErrClearRequiresFreeTier) {
			return fmt.Errorf("%w; run 'fitlog sync run' instead", err)
		}
		if err != nil {
			return err
		}

		color.Green("✓ Local data cleared")
		return nil
	},
}

func init() {
	clearCmd.Flags().BoolVarP(&clearYes, "yes", "y", false, "skip confirmation")
	rootCmd.AddCommand(clearCmd)
}
