package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stylecart/shop-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "shop-cli",
	Short: "Product search and ranking across retail search APIs",
	Long:  "Searches shopping and web indexes for requested items, enriches results with variant and description metadata, and ranks them against budget, delivery, and style preferences.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
