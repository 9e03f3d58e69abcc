package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/awylder/switchsync/internal/config"
	"github.com/awylder/switchsync/internal/device"
	"github.com/awylder/switchsync/internal/event"
	"github.com/awylder/switchsync/internal/history"
	"github.com/awylder/switchsync/internal/monitor"
	"github.com/awylder/switchsync/internal/registry"
	"github.com/awylder/switchsync/internal/server"
	"github.com/awylder/switchsync/internal/store"
	"github.com/awylder/switchsync/internal/version"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Info())
		return
	}

	logger, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("switchsync starting", zap.String("version", version.Short()))

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	db, err := store.New(cfg.GetString("database.path"))
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close()

	bus := event.NewBus(logger.Named("bus"))
	defer bus.Close()

	hist, err := history.NewModule(db, logger.Named("history"))
	if err != nil {
		logger.Fatal("failed to initialize history module", zap.Error(err))
	}

	// One session per configured switch; the registry owns them.
	reg := registry.New(logger.Named("registry"))
	switches, err := cfg.Switches()
	if err != nil {
		logger.Fatal("failed to parse switch list", zap.Error(err))
	}
	if len(switches) == 0 {
		logger.Warn("no switches configured; nothing will be monitored")
	}
	for _, sw := range switches {
		session := device.NewSession(sw.Host, device.Credentials{
			Username: sw.Username,
			Password: sw.Password,
		}, logger.Named("device"))
		if _, err := reg.Add(sw.Name, session); err != nil {
			logger.Fatal("failed to register switch",
				zap.String("host", sw.Host), zap.Error(err))
		}
	}

	promReg := prometheus.NewRegistry()
	metrics := monitor.NewMetrics(promReg)
	prober := monitor.NewICMPProber(cfg.GetDuration("monitor.probe_timeout"), 3)
	mon := monitor.NewModule(reg, bus, prober, metrics, logger.Named("monitor"), monitor.Options{
		PollInterval:     cfg.GetDuration("monitor.poll_interval"),
		MaxBackoff:       cfg.GetDuration("monitor.max_backoff"),
		CableDiagnostics: cfg.GetBool("monitor.cable_diagnostics"),
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := hist.Start(ctx, bus); err != nil {
		logger.Fatal("failed to start history module", zap.Error(err))
	}
	if err := mon.Start(ctx); err != nil {
		logger.Fatal("failed to start monitor module", zap.Error(err))
	}

	addr := cfg.GetString("server.addr")
	srv := server.New(addr, promReg, logger.Named("server"), mon, hist)
	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	logger.Info("switchsync ready",
		zap.String("addr", addr),
		zap.Int("switches", len(switches)),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}

	// Stop the loops before the history module so every in-flight event is
	// recorded, then drop the device sessions.
	mon.Stop()
	hist.Stop()
	reg.CloseAll()

	logger.Info("switchsync stopped")
}
