package cmd

import (
	"os/signal"
	"syscall"

	"reasoning_backend/bootstrap"
	"reasoning_backend/pkg/logging"

	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Drain the solve queue",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(background(cmd), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		app, err := bootstrap.NewApp(cfg)
		if err != nil {
			return err
		}
		defer func() {
			if err := app.Shutdown(); err != nil {
				logging.Logger.Error("fail Shutdown", "error", err)
			}
		}()
		return app.Services.NewWorker(cfg, app.Infrastructure).Run(ctx)
	},
}
