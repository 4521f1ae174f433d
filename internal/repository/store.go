// Package repository defines the document store the billing services read
// from and append to.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/mamadbah2/waterbill/internal/domain/models"
)

// ErrNotFound is returned when a customer does not exist under the subject.
var ErrNotFound = errors.New("document not found")

// Window restricts child reads to records dated within [From, To].
// The zero Window matches every record, including undated ones.
type Window struct {
	From time.Time
	To   time.Time
}

// IsZero reports whether the window is unbounded.
func (w Window) IsZero() bool {
	return w.From.IsZero() && w.To.IsZero()
}

// Contains reports whether a record date falls inside the window.
func (w Window) Contains(date *time.Time) bool {
	if w.IsZero() {
		return true
	}
	if date == nil {
		return false
	}
	if !w.From.IsZero() && date.Before(w.From) {
		return false
	}
	if !w.To.IsZero() && date.After(w.To) {
		return false
	}
	return true
}

// DayWindow returns the window covering the calendar day of t in loc.
func DayWindow(t time.Time, loc *time.Location) Window {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return Window{From: start, To: start.AddDate(0, 0, 1).Add(-time.Nanosecond)}
}

// DocumentStore is the subject-scoped store of customers and their
// append-only deliveries and payments. Implementations assign ids and
// timestamps on insert and never enforce referential integrity.
type DocumentStore interface {
	ListCustomers(ctx context.Context, subjectID string) ([]models.CustomerRecord, error)
	GetCustomer(ctx context.Context, subjectID, customerID string) (models.CustomerRecord, error)
	InsertCustomer(ctx context.Context, subjectID string, record models.CustomerRecord) (models.CustomerRecord, error)

	ListDeliveries(ctx context.Context, subjectID, customerID string, window Window) ([]models.DeliveryRecord, error)
	InsertDelivery(ctx context.Context, subjectID, customerID string, record models.DeliveryRecord) (models.DeliveryRecord, error)

	ListPayments(ctx context.Context, subjectID, customerID string, window Window) ([]models.PaymentRecord, error)
	InsertPayment(ctx context.Context, subjectID, customerID string, record models.PaymentRecord) (models.PaymentRecord, error)

	ListSubjects(ctx context.Context) ([]string, error)
	SaveDailyReport(ctx context.Context, report models.DailyReport) error
}
