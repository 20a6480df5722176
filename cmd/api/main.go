package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	httpadp "loan-master/internal/adapter/http"
	idemp "loan-master/internal/adapter/middleware"
	"loan-master/internal/app"
	"loan-master/internal/config"
	"loan-master/internal/domain/run"
	"loan-master/internal/infrastructure/logger"
	"loan-master/internal/infrastructure/scheduler"
	"loan-master/internal/usecase/build"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	log := logger.NewLogger(cfg.LogLevel)
	defer func() { _ = log.Sync() }()
	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	a, err := app.New(ctx, cfg, log, reg)
	if err != nil {
		log.Fatal("setup failed", zap.Error(err))
	}
	defer a.Close()

	checks := map[string]httpadp.Check{}
	if a.DB != nil {
		checks["db"] = func(ctx context.Context) error {
			sqlDB, err := a.DB.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}
	}
	if a.Redis != nil {
		checks["redis"] = func(ctx context.Context) error { return a.Redis.Ping(ctx).Err() }
	}
	h := httpadp.NewHandler(checks)
	runs := httpadp.NewRunHandler(a.Build, cfg.StrictDates)

	e := echo.New()
	e.HideBanner = true
	e.Validator = httpadp.NewValidator()
	e.Use(middleware.Logger(), middleware.Recover())

	// routes
	e.GET("/health", h.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	g := e.Group("/runs")
	if a.Redis != nil {
		g.Use(idemp.Idempotency(a.Redis, cfg.IdempTTL(), log))
	} else {
		log.Warn("REDIS_ADDR not set: POST /runs is not idempotent")
	}
	g.POST("", runs.TriggerRun)
	g.GET("", runs.ListRuns)
	g.GET("/:run_id", runs.GetRun)

	sched := scheduler.New(log)
	if cfg.RunSchedule != "" {
		id, err := sched.Add("loan_master", cfg.RunSchedule, func(ctx context.Context) error {
			_, err := a.Build.Run(ctx, build.RunInput{AsOf: cfg.AsOf, StrictDates: cfg.StrictDates, Trigger: run.TriggerSchedule})
			if errors.Is(err, build.ErrRunInProgress) {
				log.Info("scheduled run skipped: another run holds the lock")
				return nil
			}
			return err
		})
		if err != nil {
			log.Fatal("invalid RUN_SCHEDULE", zap.Error(err))
		}
		sched.Start()
		log.Info("schedule armed", zap.String("spec", cfg.RunSchedule), zap.Time("next", sched.Next(id)))
	}

	addr := ":" + cfg.AppPort
	go func() {
		log.Info("listening", zap.String("addr", addr))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := sched.Stop(shutdownCtx); err != nil {
		log.Warn("scheduler stop", zap.Error(err))
	}
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
}
