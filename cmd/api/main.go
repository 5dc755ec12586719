package main

import (
	"github.com/spf13/cobra"

	"localmart/pkg/config"
	"localmart/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:   "localmart-chat",
	Short: "Real-time buyer/seller conversations for the marketplace",
	Long: `localmart-chat serves per-product conversations between customers and
shopkeepers over a websocket channel, with a small HTTP API for lookups,
inbox listing, read state and dashboard counts.`,
	SilenceUsage: true,
}

func main() {
	rootCmd.AddCommand(
		NewServeCommand(),
		NewMigrateCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		logger.WithFields(logger.Fields{"error": err}).Fatal("could not execute command")
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger.Init(cfg.Environment)
	return cfg, nil
}
