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

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"atmwatch/internal/config"
	"atmwatch/internal/logger"
	"atmwatch/internal/monitorapi"
	"atmwatch/internal/observability/metrics"
	"atmwatch/internal/retrieval"
	"atmwatch/internal/roster"
	"atmwatch/internal/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "atmwatch: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	once := flag.Bool("once", false, "execute a single retrieval run and exit")
	interval := flag.Duration("interval", 0, "override the continuous-mode poll interval")
	rosterPath := flag.String("roster", "", "override the roster file path")
	flag.Parse()

	cfg, err := config.Parse()
	if err != nil {
		return err
	}
	if *once {
		cfg.Poll.Mode = config.ModeOnce
	}
	if *interval > 0 {
		cfg.Poll.Interval = *interval
	}
	if *rosterPath != "" {
		cfg.Roster.Source = config.RosterSourceFile
		cfg.Roster.Path = *rosterPath
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gateway, err := storage.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer gateway.Close()

	var provider roster.Provider
	switch cfg.Roster.Source {
	case config.RosterSourceDB:
		provider, err = roster.NewDBProvider(gateway.DB())
	default:
		provider, err = roster.FromFile(cfg.Roster.Path)
	}
	if err != nil {
		return err
	}

	metrics.Init(gateway.DB(), log)

	client, err := monitorapi.NewClient(monitorapi.Config{
		BaseURL:        cfg.Monitor.BaseURL,
		Username:       cfg.Monitor.Username,
		Password:       cfg.Monitor.Password,
		IssueState:     cfg.Monitor.IssueState,
		ProbeTimeout:   cfg.Monitor.ProbeTimeout,
		LoginTimeout:   cfg.Monitor.LoginTimeout,
		SessionTTL:     cfg.Monitor.SessionTTL,
		ConnectTimeout: cfg.Fetch.ConnectTimeout,
		ReadTimeout:    cfg.Fetch.ReadTimeout,
		RetryCount:     cfg.Fetch.RetryCount,
		RetryWaitMin:   cfg.Fetch.RetryWaitMin,
		RetryWaitMax:   cfg.Fetch.RetryWaitMax,
	}, log)
	if err != nil {
		return err
	}

	coordinator, err := retrieval.NewCoordinator(client, cfg.Fetch.Workers, log)
	if err != nil {
		return err
	}
	runner, err := retrieval.NewRunner(provider, client, coordinator, gateway, log)
	if err != nil {
		return err
	}

	if cfg.Poll.Mode == config.ModeOnce {
		report, err := runner.Run(ctx)
		if err != nil {
			return err
		}
		log.Info("single run finished",
			zap.String("run_id", report.RunID),
			zap.String("path", report.Path),
			zap.Int("records", report.Records),
			zap.Int("fetch_failures", report.FetchFailures))
		return nil
	}

	var metricsSrv *http.Server
	if cfg.Metrics.Addr != "" {
		metricsSrv = startMetricsServer(cfg.Metrics.Addr, log)
	}

	scheduler, err := retrieval.NewScheduler(runner, cfg.Poll.Interval, log)
	if err != nil {
		return err
	}
	log.Info("starting continuous retrieval",
		zap.Duration("interval", cfg.Poll.Interval),
		zap.String("roster_source", cfg.Roster.Source),
		zap.Int("workers", cfg.Fetch.Workers))
	scheduler.Start(ctx)

	if metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsSrv.Shutdown(shutdownCtx)
	}
	return nil
}

func startMetricsServer(addr string, log *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		log.Info("metrics listener started", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics listener failed", zap.Error(err))
		}
	}()
	return srv
}
