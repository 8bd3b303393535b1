package reporting

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Kabre57/progiteck-sub001/internal/domain/models"
	sheetsrepo "github.com/Kabre57/progiteck-sub001/internal/repository/sheets"
)

const (
	dateLayout    = "2006-01-02"
	activityRange = "Activity!A:G"
	lowStockRange = "LowStock!A:E"
)

// Store is the read surface the reporting service aggregates over, plus the
// report sink.
type Store interface {
	CountInterventionsBetween(ctx context.Context, from, to time.Time) (int, error)
	ListMovementsBetween(ctx context.Context, from, to time.Time) ([]models.StockMovement, error)
	ListBelowThreshold(ctx context.Context) ([]models.Material, error)
	SaveDailyReport(ctx context.Context, report models.DailyActivityReport) error
}

// Service aggregates one day of scheduling and stock activity. It reads the
// engine's state only; no scheduling or reservation logic lives here.
type Service struct {
	store  Store
	sheets sheetsrepo.Repository
	logger *zap.Logger
}

// NewService wires a reporting service. sheets may be nil, in which case
// reports are persisted but not exported.
func NewService(store Store, sheets sheetsrepo.Repository, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, sheets: sheets, logger: logger}
}

// BuildDailyReport aggregates the activity of the calendar day containing
// day and persists the result.
func (s *Service) BuildDailyReport(ctx context.Context, day time.Time) (models.DailyActivityReport, error) {
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	to := from.Add(24 * time.Hour)

	scheduled, err := s.store.CountInterventionsBetween(ctx, from, to)
	if err != nil {
		return models.DailyActivityReport{}, fmt.Errorf("count interventions: %w", err)
	}

	movements, err := s.store.ListMovementsBetween(ctx, from, to)
	if err != nil {
		return models.DailyActivityReport{}, fmt.Errorf("load movements: %w", err)
	}

	report := models.DailyActivityReport{
		Date:                   from,
		InterventionsScheduled: scheduled,
		CreatedAt:              time.Now(),
	}
	for _, mv := range movements {
		switch mv.Kind {
		case models.MovementSortie:
			report.Sorties++
			report.QuantityOut += mv.Quantity
		case models.MovementEntree:
			report.Entrees++
			report.QuantityIn += mv.Quantity
		}
	}

	low, err := s.store.ListBelowThreshold(ctx)
	if err != nil {
		return models.DailyActivityReport{}, fmt.Errorf("scan low stock: %w", err)
	}
	for _, m := range low {
		report.LowStock = append(report.LowStock, models.StockLevel{
			MaterialID:         m.ID,
			Reference:          m.Reference,
			QuantiteDisponible: m.QuantiteDisponible,
			QuantiteTotale:     m.QuantiteTotale,
			SeuilAlerte:        m.SeuilAlerte,
		})
	}

	if err := s.store.SaveDailyReport(ctx, report); err != nil {
		return models.DailyActivityReport{}, fmt.Errorf("save daily report: %w", err)
	}

	s.logger.Info("daily report built",
		zap.String("date", from.Format(dateLayout)),
		zap.Int("interventions", report.InterventionsScheduled),
		zap.Int("sorties", report.Sorties),
		zap.Int("low_stock", len(report.LowStock)))

	return report, nil
}

// ExportDailyReport pushes a built report to the activity and low-stock
// sheets. A nil sheets repository makes it a no-op.
func (s *Service) ExportDailyReport(ctx context.Context, report models.DailyActivityReport) error {
	if s.sheets == nil {
		s.logger.Debug("sheets export disabled, skipping")
		return nil
	}

	row := []interface{}{
		report.Date.Format(dateLayout),
		report.InterventionsScheduled,
		report.Sorties,
		report.Entrees,
		report.QuantityOut,
		report.QuantityIn,
		len(report.LowStock),
	}
	if err := s.sheets.AppendRow(ctx, activityRange, row); err != nil {
		return fmt.Errorf("export activity row: %w", err)
	}

	if len(report.LowStock) == 0 {
		return nil
	}

	rows := make([][]interface{}, 0, len(report.LowStock))
	for _, lvl := range report.LowStock {
		rows = append(rows, []interface{}{
			report.Date.Format(dateLayout),
			lvl.Reference,
			lvl.QuantiteDisponible,
			lvl.QuantiteTotale,
			lvl.SeuilAlerte,
		})
	}
	if err := s.sheets.AppendRows(ctx, lowStockRange, rows); err != nil {
		return fmt.Errorf("export low stock rows: %w", err)
	}

	return nil
}
