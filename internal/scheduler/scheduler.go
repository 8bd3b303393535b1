package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/Kabre57/progiteck-sub001/internal/config"
	"github.com/Kabre57/progiteck-sub001/internal/service/reporting"
	"github.com/Kabre57/progiteck-sub001/internal/service/stock"
	"github.com/Kabre57/progiteck-sub001/pkg/clients/notifier"
)

// Scheduler manages the periodic stock watch and daily report jobs.
type Scheduler struct {
	cron         *cron.Cron
	ledger       *stock.Ledger
	reportingSvc *reporting.Service
	notifierCli  notifier.Client
	cfg          config.StockWatchConfig
	logger       *zap.Logger
}

// NewScheduler creates a new scheduler instance. notifierCli may be nil, in
// which case low-stock findings are only logged.
func NewScheduler(cfg config.StockWatchConfig, ledger *stock.Ledger, reportingSvc *reporting.Service, notifierCli notifier.Client, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Scheduler{
		cron:         cron.New(),
		ledger:       ledger,
		reportingSvc: reportingSvc,
		notifierCli:  notifierCli,
		cfg:          cfg,
		logger:       logger,
	}
}

// Start registers and starts the cron jobs.
func (s *Scheduler) Start() {
	s.logger.Info("starting scheduler")

	if _, err := s.cron.AddFunc(s.cfg.AlertCronSchedule, s.scanLowStock); err != nil {
		s.logger.Error("failed to schedule low stock scan", zap.Error(err))
	}

	if _, err := s.cron.AddFunc(s.cfg.ReportCronSchedule, s.buildDailyReport); err != nil {
		s.logger.Error("failed to schedule daily report", zap.Error(err))
	}

	s.cron.Start()
}

// Stop stops the scheduler.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	s.cron.Stop()
}

func (s *Scheduler) scanLowStock() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	levels, err := s.ledger.LowStock(ctx)
	if err != nil {
		s.logger.Error("low stock scan failed", zap.Error(err))
		return
	}
	if len(levels) == 0 {
		return
	}

	s.logger.Warn("materials under alert threshold", zap.Int("count", len(levels)))

	if s.notifierCli == nil {
		return
	}

	alert := notifier.LowStockAlert{GeneratedAt: time.Now()}
	for _, lvl := range levels {
		alert.Materials = append(alert.Materials, notifier.MaterialAlert{
			MaterialID: lvl.MaterialID,
			Reference:  lvl.Reference,
			Available:  lvl.QuantiteDisponible,
			Threshold:  lvl.SeuilAlerte,
		})
	}

	if err := s.notifierCli.SendLowStockAlert(ctx, alert); err != nil {
		s.logger.Error("failed to send low stock alert", zap.Error(err))
	}
}

func (s *Scheduler) buildDailyReport() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	report, err := s.reportingSvc.BuildDailyReport(ctx, time.Now())
	if err != nil {
		s.logger.Error("failed to build daily report", zap.Error(err))
		return
	}

	if err := s.reportingSvc.ExportDailyReport(ctx, report); err != nil {
		s.logger.Error("failed to export daily report", zap.Error(err))
	}
}
