package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"go.uber.org/zap"

	"github.com/Kabre57/progiteck-sub001/internal/config"
	"github.com/Kabre57/progiteck-sub001/internal/repository/mongodb"
	sheetsrepo "github.com/Kabre57/progiteck-sub001/internal/repository/sheets"
	"github.com/Kabre57/progiteck-sub001/internal/scheduler"
	"github.com/Kabre57/progiteck-sub001/internal/server/handlers"
	"github.com/Kabre57/progiteck-sub001/internal/server/router"
	planningsvc "github.com/Kabre57/progiteck-sub001/internal/service/planning"
	reportingsvc "github.com/Kabre57/progiteck-sub001/internal/service/reporting"
	schedulingsvc "github.com/Kabre57/progiteck-sub001/internal/service/scheduling"
	stocksvc "github.com/Kabre57/progiteck-sub001/internal/service/stock"
	"github.com/Kabre57/progiteck-sub001/pkg/clients/notifier"
	"github.com/Kabre57/progiteck-sub001/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New())
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	repo, err := mongodb.NewRepository(context.Background(), cfg.MongoDB.URI, cfg.MongoDB.DBName, baseLogger.Named("repo.mongodb"))
	if err != nil {
		baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
	}
	defer func() {
		if err := repo.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close mongodb connection", zap.Error(err))
		}
	}()

	resolver := schedulingsvc.NewResolver(repo, baseLogger.Named("svc.availability"))
	assignmentScheduler := schedulingsvc.NewScheduler(repo, resolver, baseLogger.Named("svc.scheduler"))
	ledger := stocksvc.NewLedger(repo, baseLogger.Named("svc.stock"))
	coordinator := planningsvc.NewCoordinator(assignmentScheduler, ledger, repo, baseLogger.Named("svc.planning"))

	var sheets sheetsrepo.Repository
	if cfg.Sheets.Enabled() {
		sheets, err = sheetsrepo.NewGoogleSheetRepository(context.Background(), cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
	} else {
		baseLogger.Warn("sheets export disabled, missing configuration")
	}

	reportingService := reportingsvc.NewService(repo, sheets, baseLogger.Named("svc.reporting"))

	var alertClient notifier.Client
	if cfg.Notifier.Enabled() {
		alertClient = notifier.NewClient(cfg.Notifier)
		baseLogger.Info("low stock alert webhook enabled")
	} else {
		baseLogger.Warn("alert webhook missing, low stock notifications disabled")
	}

	planningHandler := handlers.NewPlanningHandler(resolver, assignmentScheduler, coordinator, baseLogger.Named("handlers.planning"))
	stockHandler := handlers.NewStockHandler(ledger, baseLogger.Named("handlers.stock"))
	engine := router.New(planningHandler, stockHandler, baseLogger.Named("router"))

	sched := scheduler.NewScheduler(cfg.StockWatch, ledger, reportingService, alertClient, baseLogger.Named("scheduler"))
	sched.Start()
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
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
