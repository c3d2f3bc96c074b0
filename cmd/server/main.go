package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/arvindpatil/dairyos/internal/cache"
	"github.com/arvindpatil/dairyos/internal/config"
	"github.com/arvindpatil/dairyos/internal/scheduler"
	"github.com/arvindpatil/dairyos/internal/server/handlers"
	"github.com/arvindpatil/dairyos/internal/server/router"
	billingsvc "github.com/arvindpatil/dairyos/internal/service/billing"
	consumptionsvc "github.com/arvindpatil/dairyos/internal/service/consumption"
	"github.com/arvindpatil/dairyos/pkg/clients/dairy"
	"github.com/arvindpatil/dairyos/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New())
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	var store cache.Store
	if cfg.Cache.RedisAddr != "" {
		redisStore, err := cache.NewRedisStore(context.Background(), cfg.Cache, baseLogger.Named("cache.redis"))
		if err != nil {
			baseLogger.Fatal("failed to init redis cache", zap.Error(err))
		}
		defer func() {
			if err := redisStore.Close(); err != nil {
				baseLogger.Error("failed to close redis connection", zap.Error(err))
			}
		}()
		store = redisStore
		baseLogger.Info("redis read cache enabled", zap.String("addr", cfg.Cache.RedisAddr))
	} else {
		store = cache.NewMemoryStore(cfg.Cache.Freshness, cfg.Cache.Retention)
		baseLogger.Info("in-process read cache enabled")
	}

	dairyClient := dairy.NewClient(cfg.Dairy)

	consumptionSvc := consumptionsvc.NewService(dairyClient, store, baseLogger.Named("svc.consumption"))
	billsSvc := billingsvc.NewService(dairyClient, store, baseLogger.Named("svc.bills"))
	reconciler := billingsvc.NewReconciler(dairyClient, store, baseLogger.Named("svc.reconciler"))
	pdfPoller := billingsvc.NewPDFPoller(dairyClient, cfg.Poller.Interval, cfg.Poller.MaxAttempts, baseLogger.Named("svc.pdfpoller"))

	consumptionHandler := handlers.NewConsumptionHandler(consumptionSvc, baseLogger.Named("handlers.consumption"))
	billingHandler := handlers.NewBillingHandler(billsSvc, reconciler, pdfPoller, baseLogger.Named("handlers.billing"))
	engine := router.New(consumptionHandler, billingHandler, baseLogger.Named("router"))

	sched := scheduler.NewScheduler(cfg.Reconcile, reconciler, baseLogger.Named("scheduler"))
	sched.Start()
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2 * time.Minute, // the PDF wait endpoint holds the request open
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}
