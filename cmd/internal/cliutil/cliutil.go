// Package cliutil holds the flag handling shared by the command-line tools.
package cliutil

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/evdnx/gospot/config"
	"github.com/evdnx/gospot/marketdata"
	"github.com/evdnx/gospot/types"
)

// LoadConfig reads path, or returns the defaults when path is empty.
func LoadConfig(path string) (*config.File, error) {
	if path == "" {
		return &config.File{
			Strategy: config.Default(),
			Backtest: config.DefaultBacktest(),
			Infra:    config.DefaultInfra(),
		}, nil
	}
	return config.Load(path)
}

// BarQuery selects historical bars from a CSV file or, when CSV is empty,
// from ClickHouse.
type BarQuery struct {
	CSV    string
	Symbol string
	From   string
	To     string
}

// LoadBars runs q against the configured source.
func LoadBars(ctx context.Context, q BarQuery, cfg config.ClickHouse) ([]types.Bar, error) {
	if q.CSV != "" {
		return marketdata.LoadCSV(q.CSV)
	}
	if len(cfg.Addr) == 0 {
		return nil, errors.New("no bar source: pass -csv or configure infra.clickhouse.addr")
	}
	from, err := ParseTime(q.From, time.Unix(0, 0).UTC())
	if err != nil {
		return nil, fmt.Errorf("-from: %w", err)
	}
	to, err := ParseTime(q.To, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("-to: %w", err)
	}
	ch, err := marketdata.OpenClickHouse(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer ch.Close()
	return ch.Load(ctx, q.Symbol, from, to)
}

// ParseTime accepts RFC 3339 or YYYY-MM-DD. An empty string yields def.
func ParseTime(s string, def time.Time) (time.Time, error) {
	if s == "" {
		return def, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, s)
}
