package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"ProfileSentinel/internal/alert"
	"ProfileSentinel/internal/collector"
	"ProfileSentinel/internal/config"
	"ProfileSentinel/internal/confluence"
	"ProfileSentinel/internal/metrics"
	"ProfileSentinel/internal/notifier"
	"ProfileSentinel/internal/recorder"
	"ProfileSentinel/internal/scanner"
	"ProfileSentinel/internal/scheduler"
	"ProfileSentinel/internal/watchlist"
)

func newLogger(level string) (*zap.Logger, error) {
	if level == "debug" {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

func main() {
	boot, _ := zap.NewProduction()
	if err := config.LoadDotEnv(); err != nil {
		boot.Fatal("load .env", zap.Error(err))
	}
	cfg, err := config.Load(config.Path())
	if err != nil {
		boot.Fatal("load config", zap.Error(err))
	}
	if err := cfg.Validate(); err != nil {
		boot.Fatal("config validation", zap.Error(err))
	}

	logger, err := newLogger(cfg.Log.Level)
	if err != nil {
		boot.Fatal("init logger", zap.Error(err))
	}
	defer logger.Sync()
	logger.Info("ProfileSentinel starting")

	fetcher, err := collector.NewFetcher(collector.Source{
		Provider:  cfg.DataSource.Provider,
		BaseURL:   cfg.DataSource.BaseURL,
		APIKey:    cfg.DataSource.APIKey,
		Proxy:     cfg.Proxy,
		MockPrice: cfg.DataSource.MockPrice,
		Timezone:  cfg.DataSource.Timezone,
	})
	if err != nil {
		logger.Fatal("init fetcher", zap.Error(err))
	}
	logger.Info("data source", zap.String("provider", fetcher.Name()))

	col := collector.NewCollector(fetcher, cfg.ProfileOptions(), logger)
	scan := scanner.New(col, logger,
		scanner.WithWorkers(cfg.Scan.Workers),
		scanner.WithWindow(cfg.Scan.Period, cfg.Scan.Interval),
	)
	finder := confluence.NewFinder(fetcher, logger, confluence.WithTolerance(cfg.Confluence.TolerancePct))

	lists, err := watchlist.NewManager(watchlist.NewFileStore(cfg.Watchlist.StateFile), logger)
	if err != nil {
		logger.Fatal("init watchlist manager", zap.Error(err))
	}

	tn := notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, logger)

	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, logger)
		if err != nil {
			logger.Warn("init sqlite recorder failed, using noop", zap.Error(err))
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sched := scheduler.NewScheduler(ctx, scheduler.Deps{
		Analyzer:  col,
		Fetcher:   fetcher,
		Scanner:   scan,
		Finder:    finder,
		Watchlist: lists,
		Monitor:   alert.NewMonitor(logger),
		Notifier:  tn,
		Recorder:  rec,
	}, scheduler.Options{
		Watchlist:  cfg.Scan.Watchlist,
		Period:     cfg.Scan.Period,
		Interval:   cfg.Scan.Interval,
		TopN:       cfg.Scan.TopN,
		Workers:    cfg.Scan.Workers,
		Timeframes: cfg.Confluence.Timeframes,
		Profile:    cfg.ProfileOptions(),
	}, logger)
	if err := sched.RegisterAll(cfg.Schedule.ScanCron, cfg.Schedule.MonitorCron); err != nil {
		logger.Fatal("register cron tasks", zap.Error(err))
	}
	sched.Start()
	defer sched.Stop()

	if cfg.Metrics.Addr != "" {
		srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: metricsMux(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server", zap.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		logger.Info("metrics server listening", zap.String("addr", cfg.Metrics.Addr))
	}

	go tn.StartPolling(ctx, sched.HandleCommand)
	logger.Info("telegram polling started")

	if os.Getenv("RUN_ON_START") == "true" {
		logger.Info("RUN_ON_START enabled, executing scan now")
		go sched.RunScanNow()
	}

	logger.Info("ProfileSentinel is running, press Ctrl+C to stop")
	<-ctx.Done()
	logger.Info("shutdown signal received, stopping")
}

func metricsMux() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}
