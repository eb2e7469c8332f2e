package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/enviro-impact/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "enviro-impact",
	Short: "Electricity, CO2 and cost estimates for Norwegian facilities",
	Long:  "Estimates yearly electricity consumption, CO2 emissions and electricity cost for a facility from its type, size and region, and compares it to a best-practice benchmark.",
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
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
