package cmd

import (
	"github.com/spf13/cobra"

	"github.com/abhisek/synap/internal/app"
)

// runApp opens the store, builds dependencies, and launches the TUI.
func runApp(cmd *cobra.Command) error {
	d, err := openDeps(cmd, quietLogs)
	if err != nil {
		return err
	}
	defer d.Close()

	return app.Run(d.content, d.reviews)
}
