// Package memory is an in-process DocumentStore used for tests and local runs.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mamadbah2/waterbill/internal/domain/models"
	"github.com/mamadbah2/waterbill/internal/repository"
)

// Store keeps every document in maps guarded by a single RWMutex.
type Store struct {
	mu         sync.RWMutex
	customers  map[string][]models.CustomerRecord
	deliveries map[string][]models.DeliveryRecord
	payments   map[string][]models.PaymentRecord
	reports    map[string]models.DailyReport
	now        func() time.Time
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		customers:  make(map[string][]models.CustomerRecord),
		deliveries: make(map[string][]models.DeliveryRecord),
		payments:   make(map[string][]models.PaymentRecord),
		reports:    make(map[string]models.DailyReport),
		now:        time.Now,
	}
}

// SetClock replaces the clock used for assigned timestamps.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func childKey(subjectID, customerID string) string {
	return subjectID + "/" + customerID
}

// ListCustomers returns the subject's customers in insertion order.
func (s *Store) ListCustomers(ctx context.Context, subjectID string) ([]models.CustomerRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]models.CustomerRecord(nil), s.customers[subjectID]...), nil
}

// GetCustomer returns one customer or repository.ErrNotFound.
func (s *Store) GetCustomer(ctx context.Context, subjectID, customerID string) (models.CustomerRecord, error) {
	if err := ctx.Err(); err != nil {
		return models.CustomerRecord{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.customers[subjectID] {
		if c.ID == customerID {
			return c, nil
		}
	}
	return models.CustomerRecord{}, fmt.Errorf("customer %s: %w", customerID, repository.ErrNotFound)
}

// InsertCustomer stores a customer with a fresh id and creation time.
func (s *Store) InsertCustomer(ctx context.Context, subjectID string, record models.CustomerRecord) (models.CustomerRecord, error) {
	if err := ctx.Err(); err != nil {
		return models.CustomerRecord{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	created := s.now().UTC()
	record.ID = uuid.NewString()
	record.SubjectID = subjectID
	record.CreatedAt = &created
	s.customers[subjectID] = append(s.customers[subjectID], record)
	return record, nil
}

// ListDeliveries returns the customer's deliveries inside the window.
func (s *Store) ListDeliveries(ctx context.Context, subjectID, customerID string, window repository.Window) ([]models.DeliveryRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.DeliveryRecord
	for _, d := range s.deliveries[childKey(subjectID, customerID)] {
		if window.Contains(d.Date) {
			out = append(out, d)
		}
	}
	return out, nil
}

// InsertDelivery appends a delivery dated now.
func (s *Store) InsertDelivery(ctx context.Context, subjectID, customerID string, record models.DeliveryRecord) (models.DeliveryRecord, error) {
	if err := ctx.Err(); err != nil {
		return models.DeliveryRecord{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	date := s.now().UTC()
	record.ID = uuid.NewString()
	record.SubjectID = subjectID
	record.CustomerID = customerID
	record.Date = &date
	key := childKey(subjectID, customerID)
	s.deliveries[key] = append(s.deliveries[key], record)
	return record, nil
}

// ListPayments returns the customer's payments inside the window.
func (s *Store) ListPayments(ctx context.Context, subjectID, customerID string, window repository.Window) ([]models.PaymentRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.PaymentRecord
	for _, p := range s.payments[childKey(subjectID, customerID)] {
		if window.Contains(p.Date) {
			out = append(out, p)
		}
	}
	return out, nil
}

// InsertPayment appends a payment dated now.
func (s *Store) InsertPayment(ctx context.Context, subjectID, customerID string, record models.PaymentRecord) (models.PaymentRecord, error) {
	if err := ctx.Err(); err != nil {
		return models.PaymentRecord{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	date := s.now().UTC()
	record.ID = uuid.NewString()
	record.SubjectID = subjectID
	record.CustomerID = customerID
	record.Date = &date
	key := childKey(subjectID, customerID)
	s.payments[key] = append(s.payments[key], record)
	return record, nil
}

// ListSubjects returns every subject owning at least one customer, sorted.
func (s *Store) ListSubjects(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	subjects := make([]string, 0, len(s.customers))
	for subject, customers := range s.customers {
		if len(customers) > 0 {
			subjects = append(subjects, subject)
		}
	}
	sort.Strings(subjects)
	return subjects, nil
}

// SaveDailyReport keeps the latest report per subject and day.
func (s *Store) SaveDailyReport(ctx context.Context, report models.DailyReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reports[report.SubjectID+"/"+report.Date.Format(time.DateOnly)] = report
	return nil
}

// DailyReport returns a saved report.
func (s *Store) DailyReport(subjectID string, day time.Time) (models.DailyReport, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	report, ok := s.reports[subjectID+"/"+day.Format(time.DateOnly)]
	return report, ok
}

// AddDeliveryRecord stores a raw delivery document as-is, including absent
// fields. It is used to load fixtures and imported data.
func (s *Store) AddDeliveryRecord(subjectID, customerID string, record models.DeliveryRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record.SubjectID = subjectID
	record.CustomerID = customerID
	key := childKey(subjectID, customerID)
	s.deliveries[key] = append(s.deliveries[key], record)
}

// AddPaymentRecord stores a raw payment document as-is.
func (s *Store) AddPaymentRecord(subjectID, customerID string, record models.PaymentRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record.SubjectID = subjectID
	record.CustomerID = customerID
	key := childKey(subjectID, customerID)
	s.payments[key] = append(s.payments[key], record)
}

// Counts returns the number of stored deliveries and payments of a customer.
func (s *Store) Counts(subjectID, customerID string) (deliveries, payments int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key := childKey(subjectID, customerID)
	return len(s.deliveries[key]), len(s.payments[key])
}

var _ repository.DocumentStore = (*Store)(nil)
