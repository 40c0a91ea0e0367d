// Command trader runs live decision cycles for one or more strategy
// configurations against a paper wallet. Infra settings (ClickHouse, Redis,
// Kafka, cycle interval) are taken from the first configuration file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/evdnx/gospot/cmd/internal/cliutil"
	"github.com/evdnx/gospot/config"
	"github.com/evdnx/gospot/events"
	"github.com/evdnx/gospot/executor"
	"github.com/evdnx/gospot/logger"
	"github.com/evdnx/gospot/marketdata"
	"github.com/evdnx/gospot/metrics"
	"github.com/evdnx/gospot/store"
	"github.com/evdnx/gospot/strategy"
	"github.com/evdnx/gospot/trader"
)

func main() {
	var (
		balance     = flag.Float64("balance", 1000, "starting stable balance of each paper wallet")
		metricsAddr = flag.String("metrics", ":9100", "Prometheus listen address; empty disables")
	)
	flag.Parse()
	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: trader [flags] config.yaml [config.yaml ...]")
		os.Exit(2)
	}

	log, err := logger.NewZapLogger()
	if err != nil {
		fmt.Fprintln(os.Stderr, "trader:", err)
		os.Exit(1)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, flag.Args(), *balance, *metricsAddr, log); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("trader_stopped", logger.Err(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, paths []string, balance float64, metricsAddr string, log logger.Logger) error {
	files := make([]*config.File, len(paths))
	for i, p := range paths {
		f, err := cliutil.LoadConfig(p)
		if err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
		files[i] = f
	}
	infra := files[0].Infra

	src, err := marketdata.OpenClickHouse(ctx, infra.ClickHouse)
	if err != nil {
		return err
	}
	defer src.Close()

	st, closeStore, err := openStore(ctx, infra.Redis)
	if err != nil {
		return err
	}
	defer closeStore()

	pub, err := openPublisher(infra.Kafka)
	if err != nil {
		return err
	}
	defer pub.Close()

	instances := make([]*trader.Instance, 0, len(files))
	for _, f := range files {
		name := f.Strategy.Name + ":" + f.Strategy.Symbol
		step, err := strategy.NewInstance(name, f.Strategy, executor.NewPaperExecutor(balance, log), log)
		if err != nil {
			return err
		}
		instances = append(instances, trader.New(step, st, src, pub, log))
		log.Info("instance_ready",
			logger.String("instance", name),
			logger.String("family", string(f.Strategy.Family)),
		)
	}

	if metricsAddr != "" {
		srv := &http.Server{Addr: metricsAddr, Handler: metrics.Handler(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics_server_failed", logger.Err(err))
			}
		}()
		defer srv.Close()
	}

	return trader.Loop(ctx, instances, infra.CycleInterval, log)
}

func openStore(ctx context.Context, cfg config.Redis) (store.PositionStore, func() error, error) {
	if cfg.Addr == "" {
		return store.NewMemory(), func() error { return nil }, nil
	}
	st, client, err := store.NewRedis(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return st, client.Close, nil
}

func openPublisher(cfg config.Kafka) (events.Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return events.Nop{}, nil
	}
	return events.NewKafkaPublisher(cfg)
}
