package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/synap/internal/review"
	"github.com/abhisek/synap/internal/spacedrep"
)

var reviewCmd = &cobra.Command{
	Use:   "review <id> <quality>",
	Short: "Grade a review: 0-4 or forgot|hard|good|easy|very_easy",
	Long: "Grade how well you recalled an item. Quality is a number or a name:\n" +
		qualityHelp(),
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		q, err := spacedrep.ParseQuality(args[1])
		if err != nil {
			return err
		}

		d, err := openDeps(cmd, logStderr)
		if err != nil {
			return err
		}
		defer d.Close()

		st, err := d.reviews.Submit(cmd.Context(), args[0], q)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Graded %s. Next review in %d %s.\n",
			q.Label(), st.IntervalDays, days(st.IntervalDays))
		return nil
	},
}

var dueCmd = &cobra.Command{
	Use:   "due",
	Short: "List items due for review today",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDeps(cmd, logStderr)
		if err != nil {
			return err
		}
		defer d.Close()

		entries, err := d.reviews.Due(cmd.Context())
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "Nothing is due today.")
			return nil
		}
		printEntries(cmd, entries)
		return nil
	},
}

var reviseCmd = &cobra.Command{
	Use:   "revise",
	Short: "Show scheduled items grouped into due, this week and later",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDeps(cmd, logStderr)
		if err != nil {
			return err
		}
		defer d.Close()

		board, err := d.reviews.Revise(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for i, group := range []struct {
			title   string
			entries []review.Entry
		}{
			{"Due", board.Due},
			{"This week", board.Week},
			{"Later", board.Later},
		} {
			if i > 0 {
				fmt.Fprintln(out)
			}
			fmt.Fprintf(out, "%s (%d)\n", group.title, len(group.entries))
			if len(group.entries) > 0 {
				printEntries(cmd, group.entries)
			}
		}
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show review statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDeps(cmd, logStderr)
		if err != nil {
			return err
		}
		defer d.Close()

		stats, err := d.reviews.Stats(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Due today:      %d\n", stats.DueToday)
		fmt.Fprintf(out, "Due tomorrow:   %d\n", stats.DueTomorrow)
		fmt.Fprintf(out, "Due this week:  %d\n", stats.DueThisWeek)
		fmt.Fprintf(out, "Scheduled:      %d\n", stats.Total)
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history <id>",
	Short: "Show an item's review history, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDeps(cmd, logStderr)
		if err != nil {
			return err
		}
		defer d.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		events, err := d.reviews.History(cmd.Context(), args[0], limit)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(events) == 0 {
			fmt.Fprintln(out, "No history.")
			return nil
		}
		fmt.Fprintf(out, "%-5s  %-19s  %-9s  %-9s  %8s  %5s\n",
			"Seq", "Time", "Event", "Quality", "Interval", "Ease")
		fmt.Fprintln(out, strings.Repeat("─", 66))
		for _, e := range events {
			quality, interval, ease := "-", "-", "-"
			if e.Quality != nil {
				quality = e.Quality.String()
			}
			if e.After != nil {
				interval = fmt.Sprintf("%dd", e.After.IntervalDays)
				ease = fmt.Sprintf("%.2f", e.After.EaseFactor)
			}
			fmt.Fprintf(out, "%-5d  %-19s  %-9s  %-9s  %8s  %5s\n",
				e.Sequence, e.OccurredAt.Local().Format("2006-01-02 15:04:05"),
				e.Kind, quality, interval, ease)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().Int("limit", 20, "Maximum number of events (0 for all)")
}

func printEntries(cmd *cobra.Command, entries []review.Entry) {
	out := cmd.OutOrStdout()
	for _, e := range entries {
		fmt.Fprintf(out, "  %-36s  %-40s  %s\n", e.Item.ID, truncate(e.Item.Title, 40), e.NextReview)
	}
}

func qualityHelp() string {
	var b strings.Builder
	for _, q := range spacedrep.AllQualities() {
		fmt.Fprintf(&b, "  %d  %-10s %s\n", int(q), q.String(), q.Description())
	}
	return b.String()
}
