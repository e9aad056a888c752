package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/synap/internal/store"
)

var addCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Save an item to review later",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDeps(cmd, logStderr)
		if err != nil {
			return err
		}
		defer d.Close()

		desc, _ := cmd.Flags().GetString("description")
		link, _ := cmd.Flags().GetString("link")
		schedule, _ := cmd.Flags().GetBool("schedule")

		item, err := d.content.Add(cmd.Context(), strings.Join(args, " "), desc, link)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Added %s  %s\n", item.ID, item.Title)

		if schedule {
			st, err := d.reviews.Enable(cmd.Context(), item.ID)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "First review %s\n", st.NextReviewAt.Local().Format("Mon Jan 02 15:04"))
		}
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved items, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDeps(cmd, logStderr)
		if err != nil {
			return err
		}
		defer d.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		items, err := d.content.List(cmd.Context(), limit)
		if err != nil {
			return err
		}
		printItems(cmd, items)
		return nil
	},
}

var editCmd = &cobra.Command{
	Use:   "edit <id>",
	Short: "Change an item's title, description or link",
	Long:  "Change an item's title, description or link. Fields whose flag is not given keep their value; pass an empty string to clear the description or link.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDeps(cmd, logStderr)
		if err != nil {
			return err
		}
		defer d.Close()

		item, err := d.content.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		flags := cmd.Flags()
		if flags.Changed("title") {
			item.Title, _ = flags.GetString("title")
		}
		if flags.Changed("description") {
			item.Description, _ = flags.GetString("description")
		}
		if flags.Changed("link") {
			item.Link, _ = flags.GetString("link")
		}

		item, err = d.content.Update(cmd.Context(), item.ID, item.Title, item.Description, item.Link)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated %s  %s\n", item.ID, item.Title)
		return nil
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete an item and its review schedule",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDeps(cmd, logStderr)
		if err != nil {
			return err
		}
		defer d.Close()

		if err := d.content.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
		return nil
	},
}

func init() {
	addCmd.Flags().StringP("description", "d", "", "Notes shown when the card is revealed")
	addCmd.Flags().StringP("link", "l", "", "http(s) link to the source")
	addCmd.Flags().Bool("schedule", false, "Enable reviews for the new item")

	editCmd.Flags().StringP("title", "t", "", "New title")
	editCmd.Flags().StringP("description", "d", "", "New notes")
	editCmd.Flags().StringP("link", "l", "", "New http(s) link")

	listCmd.Flags().Int("limit", 0, "Maximum number of items (0 for all)")
}

func printItems(cmd *cobra.Command, items []store.Item) {
	out := cmd.OutOrStdout()
	if len(items) == 0 {
		fmt.Fprintln(out, "No items yet. Add one with: synap add <title>")
		return
	}
	fmt.Fprintf(out, "%-36s  %-16s  %s\n", "ID", "Added", "Title")
	fmt.Fprintln(out, strings.Repeat("─", 90))
	for _, it := range items {
		fmt.Fprintf(out, "%-36s  %-16s  %s\n",
			it.ID, it.CreatedAt.Local().Format("2006-01-02 15:04"), truncate(it.Title, 40))
	}
	fmt.Fprintf(out, "\n%d items\n", len(items))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
