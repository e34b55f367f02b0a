package cmd

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "arbitrage",
	Short: "Prediction-market arbitrage bot",
	Long: `Arbitrage bot for binary prediction markets. It monitors order books
across one or more venues and buys the YES and NO shares of a market
together whenever their combined cost, after fees, falls below one dollar
less the configured margin.

Markets are discovered and scored continuously; execution is paired
fill-or-kill with slippage, cooldown, and risk gates.`,
}

// Execute runs the CLI. Called once from main.main().
func Execute() {
	// A local .env is optional; real deployments set the environment.
	_ = godotenv.Load()

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
