package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/synap/internal/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the review API over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := openDeps(cmd, logStderr)
		if err != nil {
			return err
		}
		defer d.Close()

		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			d.cfg.Server.Addr = addr
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		handler := api.NewHandler(d.content, d.reviews, d.logger, d.cfg.Server.AllowedOrigins)
		srv := api.NewServer(d.cfg.Server, handler.Router())
		d.logger.Info("starting api",
			zap.String("driver", d.cfg.Database.Driver),
			zap.Bool("distributed_locks", d.cfg.Redis.URL != ""))
		return api.Serve(ctx, srv, d.logger)
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (overrides server.addr)")
}
