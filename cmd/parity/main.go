// Command parity compares the batch RSI and MFI against goti's streaming
// RSI and MFI calculators over the same bars.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/evdnx/gospot/cmd/internal/cliutil"
	"github.com/evdnx/gospot/parity"
)

func main() {
	var (
		cfgPath = flag.String("config", "", "YAML settings file (defaults when empty)")
		csvPath = flag.String("csv", "", "kline CSV; ClickHouse from infra settings when empty")
		symbol  = flag.String("symbol", "", "override strategy.symbol")
		from    = flag.String("from", "", "ClickHouse range start")
		to      = flag.String("to", "", "ClickHouse range end")
		tol     = flag.Float64("tolerance", 1e-6, "absolute match tolerance")
		rows    = flag.Bool("rows", false, "include per-bar rows")
	)
	flag.Parse()

	ok, err := run(*cfgPath, cliutil.BarQuery{CSV: *csvPath, Symbol: *symbol, From: *from, To: *to}, *tol, *rows)
	if err != nil {
		fmt.Fprintln(os.Stderr, "parity:", err)
		os.Exit(1)
	}
	if !ok {
		os.Exit(2)
	}
}

func run(cfgPath string, q cliutil.BarQuery, tol float64, withRows bool) (bool, error) {
	f, err := cliutil.LoadConfig(cfgPath)
	if err != nil {
		return false, err
	}
	if q.Symbol == "" {
		q.Symbol = f.Strategy.Symbol
	}
	bars, err := cliutil.LoadBars(context.Background(), q, f.Infra.ClickHouse)
	if err != nil {
		return false, err
	}
	reports, err := parity.Compare(bars, f.Strategy, tol)
	if err != nil {
		return false, err
	}
	ok := true
	for i := range reports {
		ok = ok && reports[i].OK()
		if !withRows {
			reports[i].Rows = nil
		}
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return ok, enc.Encode(reports)
}
