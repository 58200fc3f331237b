package cmd

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"reasoning_backend/bootstrap"
	"reasoning_backend/pkg/logging"

	"github.com/spf13/cobra"
)

var (
	withWorker bool

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE:  runServe,
	}
)

func init() {
	serveCmd.Flags().BoolVar(&withWorker, "with-worker", false, "also drain the job queue in this process")
}

func runServe(cmd *cobra.Command, args []string) error {
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

	workerDone := make(chan struct{})
	if withWorker {
		go func() {
			defer close(workerDone)
			_ = app.Services.NewWorker(cfg, app.Infrastructure).Run(ctx)
		}()
	} else {
		close(workerDone)
	}

	server := app.Fiber()
	listenErr := make(chan error, 1)
	go func() {
		logging.Logger.Info("Server running", "port", cfg.HttpPort)
		listenErr <- server.Listen(":" + cfg.HttpPort)
	}()

	select {
	case err := <-listenErr:
		stop()
		<-workerDone
		return err
	case <-ctx.Done():
	}
	logging.Logger.Info("Shutting down")
	if err := server.ShutdownWithTimeout(10 * time.Second); err != nil {
		logging.Logger.Error("fail server shutdown", "error", err)
	}
	<-workerDone
	return nil
}

// background is used when a command runs without a cobra context, as in tests.
func background(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
