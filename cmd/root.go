package cmd

import (
	"reasoning_backend/config"
	"reasoning_backend/pkg/logging"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	cfg *config.Config

	rootCmd = &cobra.Command{
		Use:   "reasoning",
		Short: "Beam-search reasoning over an LLM oracle",
		Long: `reasoning grows a tree of reasoning steps with an LLM, grades every step
with the same LLM acting as a judge, and stops once a proposed solution is
verified. It runs as an HTTP API, as a queue worker, or one-shot from the shell.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// a missing .env is fine; the environment may already be set
			if err := godotenv.Load(); err != nil {
				logging.Logger.Debug("no .env file loaded", "error", err)
			}
			logging.Init()
			cfg = config.LoadConfig()
		},
	}
)

func init() {
	rootCmd.AddCommand(serveCmd, workerCmd, solveCmd)
}

func Execute() error {
	return rootCmd.Execute()
}
