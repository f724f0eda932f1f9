package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/edgehealth/internal/app"
	"github.com/hamed0406/edgehealth/internal/check"
	"github.com/hamed0406/edgehealth/internal/config"
	"github.com/hamed0406/edgehealth/internal/logging"
)

func main() {
	cfgPath := flag.String("config", "", "path to YAML config (default: $EDGEHEALTH_CONFIG)")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatal(err)
	}
	logger, err := logging.NewLogger(cfg.LogDir, cfg.Debug)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	a, err := app.New(cfg, logger, nil)
	if err != nil {
		logger.Fatal("agent_init_error", zap.Error(err))
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: a.HTTPHandler()}
	go func() {
		logger.Info("api_listen", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api_serve_error", zap.Error(err))
		}
	}()

	logger.Info("agent_started",
		zap.String("site_id", cfg.SiteID),
		zap.Duration("interval", cfg.Interval.Std()),
		zap.Strings("checks", a.Runner.Names()),
	)

	ticker := time.NewTicker(cfg.Interval.Std())
	defer ticker.Stop()

	runCycle(ctx, a, logger)
	for {
		select {
		case <-ctx.Done():
			logger.Info("agent_shutdown")
			shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			_ = srv.Shutdown(shutCtx)
			cancel()
			return
		case <-ticker.C:
			runCycle(ctx, a, logger)
		}
	}
}

func runCycle(ctx context.Context, a *app.App, logger *zap.Logger) {
	rep, err := a.RunOnce(ctx)
	switch {
	case errors.Is(err, check.ErrNoChecks):
		// A monitor with nothing to monitor is a config defect, not a
		// healthy site.
		logger.Fatal("no_checks_configured", zap.Error(err))
	case err != nil:
		if ctx.Err() == nil {
			logger.Error("cycle_error", zap.Error(err))
		}
	default:
		logger.Info("cycle_done",
			zap.String("overall_status", string(rep.Overall)),
			zap.Int("checks", len(rep.Checks)),
		)
	}
}
