package main // Entry point package

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/blureserve/seat-reservation/internal/config"
	"github.com/blureserve/seat-reservation/internal/database"
	"github.com/blureserve/seat-reservation/internal/handler"
	"github.com/blureserve/seat-reservation/internal/logger"
	"github.com/blureserve/seat-reservation/internal/middleware"
	"github.com/blureserve/seat-reservation/internal/qr"
	"github.com/blureserve/seat-reservation/internal/queue"
	"github.com/blureserve/seat-reservation/internal/repository"
	"github.com/blureserve/seat-reservation/internal/router"
	"github.com/blureserve/seat-reservation/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	zl, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	if err := run(cfg, zl); err != nil {
		zl.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, zl *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg, zl)
	if err != nil {
		return err
	}
	defer closeStore()

	rdb := config.NewRedisClient(zl)
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	}
	cacheCfg := config.LoadCacheConfig()
	gen := middleware.NewCacheGeneration(rdb, cacheCfg.Prefix)

	qcfg := config.LoadQueueConfig()
	var events service.EventPublisher = queue.NopPublisher{}
	if qcfg.Enabled {
		events = queue.NewPublisher(qcfg.URL, zl)
		consumer := queue.NewConsumer(qcfg.URL, qcfg.LogDir, zl)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				zl.Error("reservation consumer stopped", zap.Error(err))
			}
		}()
	}

	reservations := service.NewReservations(store, service.Options{
		Capacity: cfg.SeatCapacity,
		Rate:     cfg.SlotRate,
		Events:   events,
		Cache:    gen,
		QR:       qr.NewEncoder(256),
		Logger:   zl.Named("reservations"),
	})
	ledger := service.NewLedger(store, zl.Named("ledger"))
	auth := service.NewAuth(store, service.AuthConfig{
		JWTSecret:      cfg.JWTSecret,
		AccessTTLMin:   cfg.AccessTTLMin,
		RefreshTTLDays: cfg.RefreshTTLDays,
	}, zl.Named("auth"))

	e := router.New(router.Deps{
		JWTSecret: cfg.JWTSecret,
		Auth:      handler.NewAuthHandler(auth, zl),
		Seats:     handler.NewSeatHandler(reservations, zl),
		Manager:   handler.NewManagerHandler(ledger, zl),
		RateLimit: middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, zl),
		Cache:     middleware.NewRedisCache(cacheCfg, rdb, gen, zl.Named("cache")),
		Log:       zl.Named("http"),
	})

	addr := ":" + cfg.Port
	zl.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env), zap.String("store", cfg.StoreDriver))

	errCh := make(chan error, 1)
	go func() { errCh <- e.Start(addr) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, cfg config.Config, zl *zap.Logger) (repository.Store, func(), error) {
	if cfg.StoreDriver == config.DriverMemory {
		mem := repository.NewMemoryStore()
		if cfg.DemoSeed {
			if err := repository.SeedDemo(mem, cfg.BcryptCost); err != nil {
				return nil, nil, err
			}
			zl.Info("memory store seeded with demo accounts")
		}
		return mem, func() {}, nil
	}

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return nil, nil, err
	}
	if err := database.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return repository.NewMySQLStore(db), func() { _ = db.Close() }, nil
}
