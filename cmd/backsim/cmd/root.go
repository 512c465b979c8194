package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "backsim",
	Short: "Event-driven bar backtester for daily equity strategies",
	Long: `Backsim simulates a trading strategy bar by bar over historical daily
price data, producing order-level fills, portfolio accounting, and
risk/return analytics.

It provides:
  - A deterministic event-driven simulation loop (sells before buys)
  - Average-cost position accounting with commission, tax and slippage
  - Trade logging with win/loss statistics
  - Sharpe, Sortino, Calmar, drawdown and CAGR analytics
  - SQLite and CSV journaling of finished runs`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}
