package reporting

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/waterbill/internal/domain/models"
	"github.com/mamadbah2/waterbill/internal/repository"
	"github.com/mamadbah2/waterbill/internal/repository/memory"
)

var operator = models.Subject{UID: "operator-1"}

type recordingSheets struct {
	tabs     []string
	appended map[string][][]interface{}
	replaced map[string][][]interface{}
	err      error
}

func newRecordingSheets() *recordingSheets {
	return &recordingSheets{
		appended: make(map[string][][]interface{}),
		replaced: make(map[string][][]interface{}),
	}
}

func (r *recordingSheets) EnsureTab(_ context.Context, title string) error {
	if r.err != nil {
		return r.err
	}
	r.tabs = append(r.tabs, title)
	return nil
}

func (r *recordingSheets) AppendRows(_ context.Context, sheetRange string, rows [][]interface{}) error {
	if r.err != nil {
		return r.err
	}
	r.appended[sheetRange] = append(r.appended[sheetRange], rows...)
	return nil
}

func (r *recordingSheets) ReplaceRange(_ context.Context, sheetRange string, rows [][]interface{}) error {
	if r.err != nil {
		return r.err
	}
	r.replaced[sheetRange] = rows
	return nil
}

type staticBalances []models.CustomerBalance

func (s staticBalances) ListBalances(context.Context, models.Subject, string) ([]models.CustomerBalance, error) {
	return s, nil
}

func seedDay(t *testing.T, store *memory.Store, at time.Time, bottles int64, amount float64) string {
	t.Helper()
	ctx := context.Background()
	store.SetClock(func() time.Time { return at })

	customer, err := store.InsertCustomer(ctx, operator.UID, models.CustomerRecord{})
	require.NoError(t, err)
	_, err = store.InsertDelivery(ctx, operator.UID, customer.ID, models.DeliveryRecord{Bottles: &bottles})
	require.NoError(t, err)
	_, err = store.InsertPayment(ctx, operator.UID, customer.ID, models.PaymentRecord{Amount: &amount})
	require.NoError(t, err)
	return customer.ID
}

func TestDailyReport_OnlyCountsThatDay(t *testing.T) {
	store := memory.NewStore()
	day := time.Date(2026, 6, 10, 11, 0, 0, 0, time.UTC)

	seedDay(t, store, day, 5, 50)
	seedDay(t, store, day.Add(3*time.Hour), 2, 25.5)
	seedDay(t, store, day.AddDate(0, 0, -1), 9, 90)

	svc := NewService(store, nil, nil, time.UTC, nil)
	report, err := svc.DailyReport(context.Background(), operator, day)
	require.NoError(t, err)

	assert.Equal(t, int64(7), report.BottlesDelivered)
	assert.True(t, report.Income.Equal(decimal.RequireFromString("75.5")), "got %s", report.Income)
	assert.Equal(t, 2, report.Customers)
	assert.Equal(t, time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC), report.Date)
	assert.Equal(t, operator.UID, report.SubjectID)
}

func TestDailyReport_Empty(t *testing.T) {
	svc := NewService(memory.NewStore(), nil, nil, time.UTC, nil)

	report, err := svc.DailyReport(context.Background(), operator, time.Now())
	require.NoError(t, err)

	assert.Zero(t, report.BottlesDelivered)
	assert.True(t, report.Income.IsZero())
}

type flakyPayments struct {
	*memory.Store
}

func (flakyPayments) ListPayments(context.Context, string, string, repository.Window) ([]models.PaymentRecord, error) {
	return nil, errors.New("timeout")
}

func TestDailyReport_DegradesOnChildReadFailure(t *testing.T) {
	store := memory.NewStore()
	day := time.Date(2026, 6, 10, 11, 0, 0, 0, time.UTC)
	seedDay(t, store, day, 4, 40)

	svc := NewService(flakyPayments{store}, nil, nil, time.UTC, nil)
	report, err := svc.DailyReport(context.Background(), operator, day)
	require.NoError(t, err)

	assert.Equal(t, int64(4), report.BottlesDelivered)
	assert.True(t, report.Income.IsZero())
}

func TestSaveDailyReport_PersistsAndAppendsRow(t *testing.T) {
	store := memory.NewStore()
	sheet := newRecordingSheets()
	svc := NewService(store, sheet, nil, time.UTC, nil)
	day := time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC)

	report := models.DailyReport{SubjectID: operator.UID, Date: day, BottlesDelivered: 3, Income: decimal.NewFromInt(30), Customers: 1}
	require.NoError(t, svc.SaveDailyReport(context.Background(), report))

	saved, ok := store.DailyReport(operator.UID, day)
	require.True(t, ok)
	assert.Equal(t, int64(3), saved.BottlesDelivered)

	assert.Equal(t, []string{"Reports-operator-1"}, sheet.tabs)
	require.Len(t, sheet.appended["'Reports-operator-1'!A:E"], 1)
	assert.Equal(t, []interface{}{"2026-06-10", operator.UID, int64(3), "30.00", 1}, sheet.appended["'Reports-operator-1'!A:E"][0])
}

func TestExportDailyReport(t *testing.T) {
	store := memory.NewStore()
	sheet := newRecordingSheets()
	svc := NewService(store, sheet, nil, time.UTC, nil)

	report, err := svc.ExportDailyReport(context.Background(), operator)
	require.NoError(t, err)

	_, ok := store.DailyReport(operator.UID, report.Date)
	assert.True(t, ok)
	assert.Len(t, sheet.appended["'Reports-operator-1'!A:E"], 1)
}

func TestExportDailyReport_Disabled(t *testing.T) {
	store := memory.NewStore()
	svc := NewService(store, nil, nil, time.UTC, nil)

	_, err := svc.ExportDailyReport(context.Background(), operator)
	assert.ErrorIs(t, err, ErrExportDisabled)

	_, ok := store.DailyReport(operator.UID, svc.Today())
	assert.False(t, ok)
}

func TestExportBalances(t *testing.T) {
	created := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)
	balances := staticBalances{{
		Customer: models.Customer{Name: "Ravi", Building: "A", Room: "1", Contact: "9", BottlePrice: decimal.NewFromInt(10), CreatedAt: &created},
		Balance:  models.Balance{TotalBottles: 8, TotalAmount: decimal.NewFromInt(80), TotalPaid: decimal.NewFromInt(100), RemainingDue: decimal.NewFromInt(-20)},
	}}
	sheet := newRecordingSheets()
	svc := NewService(memory.NewStore(), sheet, balances, time.UTC, nil)

	n, err := svc.ExportBalances(context.Background(), operator)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.Equal(t, []string{"Balances-operator-1"}, sheet.tabs)
	rows := sheet.replaced["'Balances-operator-1'!A:J"]
	require.Len(t, rows, 2)
	assert.Equal(t, "Due", rows[0][9])
	assert.Equal(t, "2026-01-05", rows[1][5])
	assert.Equal(t, "-20.00", rows[1][9])
}

func TestExports_SubjectsWriteToOwnTabs(t *testing.T) {
	other := models.Subject{UID: "o'neil"}
	balances := staticBalances{{Customer: models.Customer{Name: "Ravi", BottlePrice: decimal.NewFromInt(10)}}}
	sheet := newRecordingSheets()
	svc := NewService(memory.NewStore(), sheet, balances, time.UTC, nil)
	ctx := context.Background()

	_, err := svc.ExportBalances(ctx, operator)
	require.NoError(t, err)
	_, err = svc.ExportBalances(ctx, other)
	require.NoError(t, err)
	_, err = svc.ExportDailyReport(ctx, other)
	require.NoError(t, err)

	assert.Contains(t, sheet.replaced, "'Balances-operator-1'!A:J")
	assert.Contains(t, sheet.replaced, "'Balances-o''neil'!A:J")
	assert.Len(t, sheet.replaced, 2)

	assert.Contains(t, sheet.appended, "'Reports-o''neil'!A:E")
	assert.NotContains(t, sheet.appended, "'Reports-operator-1'!A:E")
}

func TestExportBalances_Disabled(t *testing.T) {
	svc := NewService(memory.NewStore(), nil, staticBalances{}, time.UTC, nil)

	_, err := svc.ExportBalances(context.Background(), operator)
	assert.ErrorIs(t, err, ErrExportDisabled)
}

func TestFormatDailyReport(t *testing.T) {
	text := FormatDailyReport(models.DailyReport{
		Date:             time.Date(2026, 6, 10, 0, 0, 0, 0, time.UTC),
		BottlesDelivered: 12,
		Income:           decimal.RequireFromString("240.5"),
		Customers:        3,
	})

	assert.Contains(t, text, "2026-06-10")
	assert.Contains(t, text, "Bottles delivered: 12")
	assert.Contains(t, text, "Income: 240.50")
}
