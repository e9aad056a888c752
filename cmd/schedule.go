package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/synap/internal/spacedrep"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Enable, disable or inspect an item's review schedule",
}

var scheduleEnableCmd = &cobra.Command{
	Use:   "enable <id>",
	Short: "Start reviewing an item (first review tomorrow)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDeps(cmd, logStderr)
		if err != nil {
			return err
		}
		defer d.Close()

		st, err := d.reviews.Enable(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printState(cmd, st)
		return nil
	},
}

var scheduleDisableCmd = &cobra.Command{
	Use:   "disable <id>",
	Short: "Stop reviewing an item and discard its progress",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDeps(cmd, logStderr)
		if err != nil {
			return err
		}
		defer d.Close()

		if err := d.reviews.Disable(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Reviews disabled for %s\n", args[0])
		return nil
	},
}

var scheduleShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show an item's review schedule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDeps(cmd, logStderr)
		if err != nil {
			return err
		}
		defer d.Close()

		status, err := d.reviews.Status(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if !status.Enabled {
			fmt.Fprintf(out, "%s: %s\n", args[0], status.NextReview)
			return nil
		}
		printState(cmd, *status.State)
		fmt.Fprintf(out, "Status:       %s\n", status.NextReview)
		return nil
	},
}

func init() {
	scheduleCmd.AddCommand(scheduleEnableCmd)
	scheduleCmd.AddCommand(scheduleDisableCmd)
	scheduleCmd.AddCommand(scheduleShowCmd)
}

func printState(cmd *cobra.Command, st spacedrep.State) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Item:         %s\n", st.ItemID)
	fmt.Fprintf(out, "Interval:     %d %s\n", st.IntervalDays, days(st.IntervalDays))
	fmt.Fprintf(out, "Ease factor:  %.2f\n", st.EaseFactor)
	fmt.Fprintf(out, "Repetitions:  %d\n", st.Repetitions)
	if st.NextReviewAt != nil {
		fmt.Fprintf(out, "Next review:  %s\n", st.NextReviewAt.Local().Format("Mon Jan 02 2006 15:04"))
	}
}

func days(n int) string {
	if n == 1 {
		return "day"
	}
	return "days"
}
