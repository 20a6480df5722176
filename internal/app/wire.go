package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"loan-master/internal/adapter/repository/csvfile"
	"loan-master/internal/adapter/repository/sqlstore"
	"loan-master/internal/config"
	lm "loan-master/internal/domain/loanmaster"
	"loan-master/internal/domain/run"
	"loan-master/internal/infrastructure/cache"
	"loan-master/internal/infrastructure/db"
	"loan-master/internal/infrastructure/metrics"
	"loan-master/internal/usecase/build"
)

// App holds the wired run usecase and the connections behind it.
type App struct {
	Build   *build.Usecase
	DB      *gorm.DB
	Redis   *redis.Client
	Metrics *metrics.Pipeline
}

// Close releases every open connection.
func (a *App) Close() error {
	var errs []error
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			errs = append(errs, sqlDB.Close())
		}
	}
	return errors.Join(errs...)
}

// usesDB reports whether the configuration needs a SQL connection. An
// explicit DB_DSN also turns on run history for a CSV-only setup.
func usesDB(cfg *config.Config) bool {
	return cfg.SourceKind == config.KindSQL || cfg.OutputKind == config.KindSQL || cfg.DBDSN != ""
}

// New wires sources, sink, run history, lock and metrics from cfg.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger, reg prometheus.Registerer) (*App, error) {
	a := &App{Metrics: metrics.NewPipeline(reg)}

	var runs run.Repository
	if usesDB(cfg) {
		gdb, err := db.OpenGorm(cfg.DBDriver, cfg.DSN(), log)
		if err != nil {
			return nil, fmt.Errorf("open db: %w", err)
		}
		a.DB = gdb
		repo := sqlstore.NewRunRepository(gdb)
		if err := repo.Migrate(ctx); err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("migrate run history: %w", err)
		}
		runs = repo
	}

	var lock run.Locker
	if cfg.RedisAddr != "" {
		rdb, err := cache.OpenRedis(ctx, cfg.RedisAddr, cfg.RedisDB, 3*time.Second)
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("open redis: %w", err)
		}
		a.Redis = rdb
		lock = cache.NewRunLock(rdb, holderName())
	}

	var src lm.SourceReader = csvfile.NewSourceReader(cfg.SourceDir)
	if cfg.SourceKind == config.KindSQL {
		src = sqlstore.NewSourceReader(a.DB)
	}
	var out lm.Writer = csvfile.NewWriter(cfg.OutputPath)
	if cfg.OutputKind == config.KindSQL {
		out = sqlstore.NewTableWriter(a.DB, cfg.OutputTable)
	}

	a.Build = build.NewUsecase(build.Deps{
		Source:  src,
		Writer:  out,
		Runs:    runs,
		Lock:    lock,
		Metrics: a.Metrics,
		Log:     log,
		LockTTL: cfg.RunLockTTL(),
	})
	return a, nil
}

func holderName() string {
	host, _ := os.Hostname()
	return fmt.Sprintf("%s:%d", host, os.Getpid())
}
