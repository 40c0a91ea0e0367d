// Command backtest replays a strategy configuration over historical bars and
// prints the result as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/evdnx/gospot/backtest"
	"github.com/evdnx/gospot/cmd/internal/cliutil"
	"github.com/evdnx/gospot/logger"
)

func main() {
	var (
		cfgPath = flag.String("config", "", "YAML settings file (defaults when empty)")
		csvPath = flag.String("csv", "", "kline CSV; ClickHouse from infra settings when empty")
		symbol  = flag.String("symbol", "", "override strategy.symbol")
		from    = flag.String("from", "", "ClickHouse range start (RFC 3339 or YYYY-MM-DD)")
		to      = flag.String("to", "", "ClickHouse range end")
		out     = flag.String("out", "", "write the result here instead of stdout")
		trades  = flag.Bool("trades-only", false, "omit the per-transition log")
	)
	flag.Parse()

	if err := run(*cfgPath, cliutil.BarQuery{CSV: *csvPath, Symbol: *symbol, From: *from, To: *to}, *out, *trades); err != nil {
		fmt.Fprintln(os.Stderr, "backtest:", err)
		os.Exit(1)
	}
}

func run(cfgPath string, q cliutil.BarQuery, out string, tradesOnly bool) error {
	log, err := logger.NewZapLogger()
	if err != nil {
		return err
	}
	f, err := cliutil.LoadConfig(cfgPath)
	if err != nil {
		return err
	}
	if q.Symbol != "" {
		f.Strategy.Symbol = q.Symbol
	}
	q.Symbol = f.Strategy.Symbol

	bars, err := cliutil.LoadBars(context.Background(), q, f.Infra.ClickHouse)
	if err != nil {
		return err
	}
	log.Info("bars_loaded", logger.String("symbol", q.Symbol), logger.Int("count", len(bars)))

	res, err := backtest.Run(bars, f.Strategy, f.Backtest, backtest.WithLogger(log))
	if err != nil {
		return err
	}
	if tradesOnly {
		res.Log = nil
	}

	w := os.Stdout
	if out != "" {
		file, err := os.Create(out)
		if err != nil {
			return err
		}
		defer file.Close()
		w = file
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
