package reporting_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kabre57/progiteck-sub001/internal/domain/models"
	"github.com/Kabre57/progiteck-sub001/internal/repository/memory"
	"github.com/Kabre57/progiteck-sub001/internal/service/reporting"
)

type fakeSheets struct {
	appended map[string][][]interface{}
}

func newFakeSheets() *fakeSheets {
	return &fakeSheets{appended: map[string][][]interface{}{}}
}

func (f *fakeSheets) AppendRow(ctx context.Context, sheetRange string, values []interface{}) error {
	return f.AppendRows(ctx, sheetRange, [][]interface{}{values})
}

func (f *fakeSheets) AppendRows(ctx context.Context, sheetRange string, rows [][]interface{}) error {
	f.appended[sheetRange] = append(f.appended[sheetRange], rows...)
	return nil
}

func (f *fakeSheets) ReadRange(ctx context.Context, sheetRange string) ([][]interface{}, error) {
	return f.appended[sheetRange], nil
}

func TestBuildDailyReport(t *testing.T) {
	store := memory.NewStore()
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	store.PutMaterial(models.Material{ID: "mat-1", Reference: "CBL-FO-50", QuantiteDisponible: 1, QuantiteTotale: 10, SeuilAlerte: 3})
	require.NoError(t, store.InsertIntervention(context.Background(),
		models.Intervention{ID: "i1", MissionID: "m1", CreatedAt: day.Add(9 * time.Hour)}, nil))
	require.NoError(t, store.AppendMovement(context.Background(),
		models.StockMovement{ID: "mv1", MaterialID: "mat-1", Kind: models.MovementSortie, Quantity: 4, CreatedAt: day.Add(10 * time.Hour)}))
	require.NoError(t, store.AppendMovement(context.Background(),
		models.StockMovement{ID: "mv2", MaterialID: "mat-1", Kind: models.MovementEntree, Quantity: 2, CreatedAt: day.Add(11 * time.Hour)}))
	// Outside the reporting window.
	require.NoError(t, store.AppendMovement(context.Background(),
		models.StockMovement{ID: "mv3", MaterialID: "mat-1", Kind: models.MovementSortie, Quantity: 9, CreatedAt: day.Add(25 * time.Hour)}))

	svc := reporting.NewService(store, nil, nil)

	report, err := svc.BuildDailyReport(context.Background(), day.Add(15*time.Hour))
	require.NoError(t, err)

	assert.Equal(t, 1, report.InterventionsScheduled)
	assert.Equal(t, 1, report.Sorties)
	assert.Equal(t, 1, report.Entrees)
	assert.Equal(t, 4, report.QuantityOut)
	assert.Equal(t, 2, report.QuantityIn)
	require.Len(t, report.LowStock, 1)
	assert.Equal(t, "mat-1", report.LowStock[0].MaterialID)
}

func TestExportDailyReport(t *testing.T) {
	store := memory.NewStore()
	sheets := newFakeSheets()
	svc := reporting.NewService(store, sheets, nil)

	report := models.DailyActivityReport{
		Date:                   time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		InterventionsScheduled: 2,
		Sorties:                3,
		LowStock: []models.StockLevel{
			{MaterialID: "mat-1", Reference: "CBL-FO-50", QuantiteDisponible: 1, QuantiteTotale: 10, SeuilAlerte: 3},
		},
	}

	require.NoError(t, svc.ExportDailyReport(context.Background(), report))
	assert.Len(t, sheets.appended["Activity!A:G"], 1)
	assert.Len(t, sheets.appended["LowStock!A:E"], 1)
}

func TestExportDailyReport_NilSheetsIsNoop(t *testing.T) {
	svc := reporting.NewService(memory.NewStore(), nil, nil)
	require.NoError(t, svc.ExportDailyReport(context.Background(), models.DailyActivityReport{}))
}
