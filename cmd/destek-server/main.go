package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"

	"github.com/cognicore/destek/internal/api"
	"github.com/cognicore/destek/internal/logging"
	"github.com/cognicore/destek/internal/metrics"
	"github.com/cognicore/destek/pkg/destek"
	"github.com/cognicore/destek/pkg/destek/config"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	flags := pflag.NewFlagSet("destek-server", pflag.ContinueOnError)
	configPath := flags.StringP("config", "c", "", "YAML config file (default $DESTEK_CONFIG)")
	addr := flags.String("addr", "", "listen address, overrides server.addr")
	accessLog := flags.Bool("access-log", true, "log every HTTP request")
	if err := flags.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	logger := logging.Init(cfg.Log.Format, cfg.Log.Level)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts, err := destek.OptionsFromConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open engine: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec, err := metrics.NewRecorder(reg, opts.Store)
	if err != nil {
		opts.Store.Close()
		return fmt.Errorf("register metrics: %w", err)
	}
	opts.Logger = logger
	opts.Observer = rec

	engine := destek.New(opts)
	defer engine.Close()

	app := api.NewApp(api.NewHandler(engine, logger), api.AppConfig{
		Metrics:   promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		AccessLog: *accessLog,
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(cfg.Server.Addr)
	}()
	logger.Info("server started", "addr", cfg.Server.Addr, "store", cfg.Store.Driver)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	if err := app.Shutdown(); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server exited")
	return nil
}
