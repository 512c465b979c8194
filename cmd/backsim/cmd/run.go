package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/backsim/backtest"
	"github.com/rustyeddy/backsim/config"
	"github.com/rustyeddy/backsim/journal"
	"github.com/rustyeddy/backsim/market"
	"github.com/rustyeddy/backsim/pkg/id"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a backtest over bar and signal CSV files",
	Long: `Run loads daily bars (one CSV per ticker, named TICKER.csv) and a
signal CSV (date,ticker,signal), simulates the strategy, prints a summary,
and optionally journals the trades and equity curve.

Example:
  backsim run --config backtest.yaml --data ./data --signals signals.csv --db runs.sqlite`,
	RunE: runBacktest,
}

var (
	runConfigPath  string
	runDataDir     string
	runSignalsPath string
	runDBPath      string
	runTradesCSV   string
	runEquityCSV   string
	runStart       string
	runEnd         string
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "config", "c", "", "path to YAML/JSON backtest config (required)")
	runCmd.Flags().StringVarP(&runDataDir, "data", "d", "", "directory of per-ticker bar CSVs (required)")
	runCmd.Flags().StringVarP(&runSignalsPath, "signals", "s", "", "path to signal CSV (required)")
	runCmd.Flags().StringVar(&runDBPath, "db", "", "journal finished run to this SQLite database")
	runCmd.Flags().StringVar(&runTradesCSV, "trades-csv", "", "journal trades to this CSV file")
	runCmd.Flags().StringVar(&runEquityCSV, "equity-csv", "", "journal equity curve to this CSV file")
	runCmd.Flags().StringVar(&runStart, "start", "", "start date (YYYY-MM-DD, inclusive)")
	runCmd.Flags().StringVar(&runEnd, "end", "", "end date (YYYY-MM-DD, inclusive)")

	runCmd.MarkFlagRequired("config")
	runCmd.MarkFlagRequired("data")
	runCmd.MarkFlagRequired("signals")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(runConfigPath)
	if err != nil {
		return err
	}

	data, err := loadDataDir(runDataDir)
	if err != nil {
		return err
	}

	signals, err := market.LoadSignalsCSV(runSignalsPath)
	if err != nil {
		return err
	}

	in := backtest.Input{Data: data, Signals: signals}
	if in.Start, err = parseDate(runStart); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	if in.End, err = parseDate(runEnd); err != nil {
		return fmt.Errorf("end: %w", err)
	}

	engine, err := backtest.New(cfg)
	if err != nil {
		return err
	}

	result, err := engine.Run(context.Background(), in)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}

	printSummary(result)

	return journalResult(result)
}

func loadDataDir(dir string) (market.Dataset, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read data dir: %w", err)
	}

	data := make(market.Dataset)
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".csv") {
			continue
		}
		ticker := strings.TrimSuffix(e.Name(), ".csv")
		bars, err := market.LoadBarsCSV(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ticker, err)
		}
		data[ticker] = bars
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("no bar CSVs found in %s", dir)
	}
	return data, nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", s)
}

func printSummary(r backtest.Result) {
	m := r.Metrics
	s := r.TradeStats

	fmt.Printf("Backtest Complete! (%.3fs)\n\n", r.ExecutionTime)
	fmt.Printf("  Total Return:      %8.2f%%\n", m.TotalReturnPct*100)
	fmt.Printf("  Annualized Return: %8.2f%%\n", m.AnnualizedReturn*100)
	fmt.Printf("  Volatility:        %8.2f%%\n", m.Volatility*100)
	fmt.Printf("  Sharpe Ratio:      %8.2f\n", m.SharpeRatio)
	fmt.Printf("  Sortino Ratio:     %8.2f\n", m.SortinoRatio)
	fmt.Printf("  Max Drawdown:      %8.2f%%\n", m.MaxDrawdown*100)
	fmt.Printf("  Calmar Ratio:      %8.2f\n", m.CalmarRatio)
	fmt.Printf("  Profit Factor:     %8.2f\n\n", m.ProfitFactor)
	fmt.Printf("  Trades: %d (wins %d / losses %d, win rate %.1f%%)\n",
		s.TotalTrades, s.WinningTrades, s.LosingTrades, s.WinRate*100)
	fmt.Printf("  Avg Win: %.2f  Avg Loss: %.2f  Avg Holding: %.1f days\n",
		s.AvgWin, s.AvgLoss, s.AvgHoldingDays)
	fmt.Printf("  Costs: commission %.2f, tax %.2f\n", s.TotalCommission, s.TotalTax)
}

// journalResult persists the finished run. Journaling happens after the
// simulation so no I/O touches the bar loop.
func journalResult(r backtest.Result) error {
	runID := id.New()

	if runDBPath != "" {
		j, err := journal.NewSQLite(runDBPath)
		if err != nil {
			return fmt.Errorf("open journal db: %w", err)
		}
		defer j.Close()
		if err := journal.Record(j, runID, r.Trades, r.EquityCurve); err != nil {
			return fmt.Errorf("journal sqlite: %w", err)
		}
		fmt.Printf("\n  Journaled run %s to %s\n", runID, runDBPath)
	}

	if runTradesCSV != "" && runEquityCSV != "" {
		j, err := journal.NewCSV(runTradesCSV, runEquityCSV)
		if err != nil {
			return fmt.Errorf("open csv journal: %w", err)
		}
		defer j.Close()
		if err := journal.Record(j, runID, r.Trades, r.EquityCurve); err != nil {
			return fmt.Errorf("journal csv: %w", err)
		}
	}

	return nil
}
