package marketdata

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/evdnx/gospot/config"
	"github.com/evdnx/gospot/types"
)

type querier interface {
	Query(ctx context.Context, query string, args ...any) (driver.Rows, error)
}

// ClickHouse reads klines from a table with the columns symbol, interval,
// open_time_ms, open, high, low, close, volume and close_time_ms.
type ClickHouse struct {
	conn     querier
	close    func() error
	table    string
	interval string
}

// OpenClickHouse connects with the native protocol and pings the server.
func OpenClickHouse(ctx context.Context, cfg config.ClickHouse) (*ClickHouse, error) {
	if len(cfg.Addr) == 0 {
		return nil, errors.New("clickhouse: no address configured")
	}
	conn, err := clickhouse.Open(&clickhouse.Options{
		Addr: cfg.Addr,
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		DialTimeout: 5 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("clickhouse open: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := conn.Ping(pingCtx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("clickhouse ping: %w", err)
	}
	return newClickHouse(conn, conn.Close, cfg), nil
}

func newClickHouse(q querier, closeFn func() error, cfg config.ClickHouse) *ClickHouse {
	return &ClickHouse{
		conn:     q,
		close:    closeFn,
		table:    fmt.Sprintf("%s.%s", cfg.Database, cfg.Table),
		interval: cfg.Interval,
	}
}

const selectColumns = `open_time_ms, open, high, low, close, volume, close_time_ms`

// Load returns the bars of symbol opened within [from, to].
func (c *ClickHouse) Load(ctx context.Context, symbol string, from, to time.Time) ([]types.Bar, error) {
	q := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE symbol = ? AND interval = ? AND open_time_ms >= ? AND open_time_ms <= ?
		ORDER BY open_time_ms ASC`, selectColumns, c.table)
	bars, err := c.query(ctx, q, symbol, c.interval, uint64(from.UnixMilli()), uint64(to.UnixMilli()))
	if err != nil {
		return nil, err
	}
	return bars, ValidateBars(bars)
}

// Recent returns the last n bars of symbol, oldest first.
func (c *ClickHouse) Recent(ctx context.Context, symbol string, n int) ([]types.Bar, error) {
	if n <= 0 {
		return nil, fmt.Errorf("clickhouse: invalid bar count %d", n)
	}
	q := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE symbol = ? AND interval = ?
		ORDER BY open_time_ms DESC
		LIMIT %d`, selectColumns, c.table, n)
	bars, err := c.query(ctx, q, symbol, c.interval)
	if err != nil {
		return nil, err
	}
	slices.Reverse(bars)
	return bars, ValidateBars(bars)
}

func (c *ClickHouse) query(ctx context.Context, q string, args ...any) ([]types.Bar, error) {
	rows, err := c.conn.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("clickhouse query: %w", err)
	}
	defer rows.Close()

	var bars []types.Bar
	for rows.Next() {
		var (
			b               types.Bar
			openMs, closeMs uint64
		)
		if err := rows.Scan(&openMs, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume, &closeMs); err != nil {
			return nil, fmt.Errorf("clickhouse scan: %w", err)
		}
		b.OpenTime, b.CloseTime = int64(openMs), int64(closeMs)
		bars = append(bars, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("clickhouse rows: %w", err)
	}
	return bars, nil
}

// Close releases the connection.
func (c *ClickHouse) Close() error {
	if c.close == nil {
		return nil
	}
	return c.close()
}
