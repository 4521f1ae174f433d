package reporting

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/waterbill/internal/domain/models"
	"github.com/mamadbah2/waterbill/internal/repository"
	"github.com/mamadbah2/waterbill/internal/repository/sheets"
	"github.com/mamadbah2/waterbill/internal/service/ledger"
)

const (
	dateLayout     = "2006-01-02"
	reportsPrefix  = "Reports-"
	balancesPrefix = "Balances-"
)

// reportsTab and balancesTab name the spreadsheet tabs of one subject. Each
// subject writes only to its own tabs.
func reportsTab(subject string) string  { return reportsPrefix + subject }
func balancesTab(subject string) string { return balancesPrefix + subject }

// tabRange returns the A1 range of columns in the tab title.
func tabRange(title, columns string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'!" + columns
}

// ErrExportDisabled is returned by exports when no spreadsheet is configured.
var ErrExportDisabled = errors.New("spreadsheet export is not configured")

// BalanceLister is the part of the billing service the balance export needs.
type BalanceLister interface {
	ListBalances(ctx context.Context, subject models.Subject, query string) ([]models.CustomerBalance, error)
}

// Service builds daily delivery and income reports.
type Service struct {
	store    repository.DocumentStore
	sheets   sheets.Repository
	balances BalanceLister
	loc      *time.Location
	logger   *zap.Logger
	now      func() time.Time
}

// NewService wires a new reporting service instance. sheetsRepo may be nil
// when spreadsheet export is not configured.
func NewService(store repository.DocumentStore, sheetsRepo sheets.Repository, balances BalanceLister, loc *time.Location, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		store:    store,
		sheets:   sheetsRepo,
		balances: balances,
		loc:      loc,
		logger:   logger,
		now:      time.Now,
	}
}

// Today returns the current time in the reporting timezone.
func (s *Service) Today() time.Time {
	return s.now().In(s.loc)
}

// Location returns the reporting timezone.
func (s *Service) Location() *time.Location {
	return s.loc
}

// DailyReport sums the bottles delivered and payments received on the
// calendar day of day. A customer whose records cannot be read is logged and
// counted as empty.
func (s *Service) DailyReport(ctx context.Context, subject models.Subject, day time.Time) (models.DailyReport, error) {
	window := repository.DayWindow(day, s.loc)
	report := models.DailyReport{
		SubjectID: subject.UID,
		Date:      window.From,
		Income:    decimal.Zero,
		CreatedAt: s.now().UTC(),
	}

	customers, err := s.store.ListCustomers(ctx, subject.UID)
	if err != nil {
		return models.DailyReport{}, fmt.Errorf("load customers: %w", err)
	}

	for _, customer := range customers {
		deliveries, err := s.store.ListDeliveries(ctx, subject.UID, customer.ID, window)
		if err != nil {
			s.logger.Warn("skip customer deliveries", zap.String("customer_id", customer.ID), zap.Error(err))
			deliveries = nil
		}

		payments, err := s.store.ListPayments(ctx, subject.UID, customer.ID, window)
		if err != nil {
			s.logger.Warn("skip customer payments", zap.String("customer_id", customer.ID), zap.Error(err))
			payments = nil
		}

		totals := ledger.Summarize(deliveries, payments)
		if totals.Bottles > 0 || !totals.Paid.IsZero() {
			report.Customers++
		}
		report.BottlesDelivered += totals.Bottles
		report.Income = report.Income.Add(totals.Paid)
	}

	return report, nil
}

// SaveDailyReport persists the report and appends it to the report sheet when
// spreadsheet export is enabled.
func (s *Service) SaveDailyReport(ctx context.Context, report models.DailyReport) error {
	if err := s.store.SaveDailyReport(ctx, report); err != nil {
		return fmt.Errorf("save daily report: %w", err)
	}

	if s.sheets == nil {
		return nil
	}

	tab := reportsTab(report.SubjectID)
	if err := s.sheets.EnsureTab(ctx, tab); err != nil {
		return fmt.Errorf("prepare report tab: %w", err)
	}

	row := []interface{}{
		report.Date.Format(dateLayout),
		report.SubjectID,
		report.BottlesDelivered,
		report.Income.StringFixed(2),
		report.Customers,
	}
	if err := s.sheets.AppendRows(ctx, tabRange(tab, "A:E"), [][]interface{}{row}); err != nil {
		return fmt.Errorf("append daily report row: %w", err)
	}
	return nil
}

// ExportDailyReport builds today's report for subject, stores it and appends
// it to the subject's report tab. Without a spreadsheet it returns
// ErrExportDisabled and stores nothing.
func (s *Service) ExportDailyReport(ctx context.Context, subject models.Subject) (models.DailyReport, error) {
	if s.sheets == nil {
		return models.DailyReport{}, ErrExportDisabled
	}

	report, err := s.DailyReport(ctx, subject, s.Today())
	if err != nil {
		return models.DailyReport{}, err
	}
	if err := s.SaveDailyReport(ctx, report); err != nil {
		return models.DailyReport{}, err
	}
	return report, nil
}

// ExportBalances writes the current balance of every customer of subject to
// the subject's balance tab. It returns the number of exported customers.
func (s *Service) ExportBalances(ctx context.Context, subject models.Subject) (int, error) {
	if s.sheets == nil {
		return 0, ErrExportDisabled
	}

	balances, err := s.balances.ListBalances(ctx, subject, "")
	if err != nil {
		return 0, fmt.Errorf("load balances: %w", err)
	}

	rows := make([][]interface{}, 0, len(balances)+1)
	rows = append(rows, []interface{}{"Name", "Building", "Room", "Contact", "Bottle Price", "Added On", "Bottles", "Total Amount", "Paid", "Due"})
	for _, b := range balances {
		added := "N/A"
		if b.CreatedAt != nil {
			added = b.CreatedAt.In(s.loc).Format(dateLayout)
		}
		rows = append(rows, []interface{}{
			b.Name,
			b.Building,
			b.Room,
			b.Contact,
			b.BottlePrice.String(),
			added,
			b.TotalBottles,
			b.TotalAmount.StringFixed(2),
			b.TotalPaid.StringFixed(2),
			b.RemainingDue.StringFixed(2),
		})
	}

	tab := balancesTab(subject.UID)
	if err := s.sheets.EnsureTab(ctx, tab); err != nil {
		return 0, fmt.Errorf("prepare balance tab: %w", err)
	}
	if err := s.sheets.ReplaceRange(ctx, tabRange(tab, "A:J"), rows); err != nil {
		return 0, fmt.Errorf("write balance sheet: %w", err)
	}

	s.logger.Info("balances exported", zap.String("subject", subject.UID), zap.Int("customers", len(balances)))
	return len(balances), nil
}

// FormatDailyReport renders a report as a short text message.
func FormatDailyReport(report models.DailyReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Report for %s\n", report.Date.Format(dateLayout))
	fmt.Fprintf(&b, "Bottles delivered: %d\n", report.BottlesDelivered)
	fmt.Fprintf(&b, "Income: %s\n", report.Income.StringFixed(2))
	fmt.Fprintf(&b, "Active customers: %d", report.Customers)
	return b.String()
}
