package cmd

import (
	"fmt"

	"github.com/minculusofia-wq/arbitrage-polymarket/internal/app"
	"github.com/minculusofia-wq/arbitrage-polymarket/pkg/config"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the arbitrage bot",
	Long: `Starts the arbitrage bot, which will:
1. Discover and score markets on every enabled platform
2. Subscribe to order books for the highest-quality markets
3. Detect paired entries where YES ask + NO ask + fees < 1 - margin
4. Size, recheck, and execute both legs as fill-or-kill orders

Paper mode (the default) runs against in-memory sim venues.`,
	RunE: runBot,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(runCmd)
}

func runBot(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := config.NewLogger()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	application, err := app.New(cfg, logger, nil)
	if err != nil {
		return fmt.Errorf("create app: %w", err)
	}

	err = application.Run()
	if err != nil {
		return fmt.Errorf("run app: %w", err)
	}

	return nil
}
