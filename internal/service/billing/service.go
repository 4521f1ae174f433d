// Package billing registers customers, appends deliveries and payments and
// serves customer balances for the signed-in operator.
package billing

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mamadbah2/waterbill/internal/domain/models"
	"github.com/mamadbah2/waterbill/internal/repository"
	"github.com/mamadbah2/waterbill/internal/service/ledger"
)

var (
	// ErrInvalidCustomer indicates a registration form with a missing field.
	ErrInvalidCustomer = errors.New("invalid customer")
	// ErrNoSubject indicates an operation attempted without a signed-in operator.
	ErrNoSubject = errors.New("no signed-in operator")
)

// Service implements the operator-facing billing operations.
type Service struct {
	store       repository.DocumentStore
	concurrency int
	logger      *zap.Logger
}

// NewService wires a billing service. concurrency bounds the number of
// customers whose children are read at once.
func NewService(store repository.DocumentStore, concurrency int, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Service{store: store, concurrency: concurrency, logger: logger}
}

// RegisterCustomer validates the form and stores a new customer. Duplicate
// names or contacts are accepted.
func (s *Service) RegisterCustomer(ctx context.Context, subject models.Subject, input models.NewCustomerInput) (models.Customer, error) {
	if subject.IsZero() {
		return models.Customer{}, ErrNoSubject
	}

	fields := map[string]string{
		"name":     strings.TrimSpace(input.Name),
		"building": strings.TrimSpace(input.Building),
		"room":     strings.TrimSpace(input.Room),
		"contact":  strings.TrimSpace(input.Contact),
	}
	for _, key := range []string{"name", "building", "room", "contact"} {
		if fields[key] == "" {
			return models.Customer{}, fmt.Errorf("%w: %s is required", ErrInvalidCustomer, key)
		}
	}

	price, err := ledger.ParsePrice(input.BottlePrice.String())
	if err != nil {
		return models.Customer{}, err
	}

	name, building, room, contact := fields["name"], fields["building"], fields["room"], fields["contact"]
	priceValue := price.InexactFloat64()

	record, err := s.store.InsertCustomer(ctx, subject.UID, models.CustomerRecord{
		Name:        &name,
		Building:    &building,
		Room:        &room,
		Contact:     &contact,
		BottlePrice: &priceValue,
	})
	if err != nil {
		s.logger.Error("failed to add customer", zap.String("subject", subject.UID), zap.Error(err))
		return models.Customer{}, fmt.Errorf("add customer: %w", err)
	}

	s.logger.Info("customer added", zap.String("subject", subject.UID), zap.String("customer_id", record.ID))
	return record.Customer(), nil
}

// RecordDelivery validates the typed bottle count and appends a delivery.
// Nothing is written when the count is invalid or the customer is unknown.
// There is no idempotency key: a retried call appends a second delivery.
func (s *Service) RecordDelivery(ctx context.Context, subject models.Subject, customerID, bottlesText string) (models.Delivery, error) {
	if subject.IsZero() {
		return models.Delivery{}, ErrNoSubject
	}

	bottles, err := ledger.ParseBottles(bottlesText)
	if err != nil {
		return models.Delivery{}, err
	}

	if _, err := s.store.GetCustomer(ctx, subject.UID, customerID); err != nil {
		return models.Delivery{}, err
	}

	record, err := s.store.InsertDelivery(ctx, subject.UID, customerID, models.DeliveryRecord{Bottles: &bottles})
	if err != nil {
		s.logger.Error("failed to add delivery", zap.String("customer_id", customerID), zap.Error(err))
		return models.Delivery{}, fmt.Errorf("add delivery: %w", err)
	}

	s.logger.Info("delivery recorded", zap.String("customer_id", customerID), zap.Int64("bottles", bottles))
	return record.Delivery(), nil
}

// RecordPayment validates the typed amount and appends a payment.
// Like RecordDelivery it is not idempotent.
func (s *Service) RecordPayment(ctx context.Context, subject models.Subject, customerID, amountText string) (models.Payment, error) {
	if subject.IsZero() {
		return models.Payment{}, ErrNoSubject
	}

	amount, err := ledger.ParseAmount(amountText)
	if err != nil {
		return models.Payment{}, err
	}

	if _, err := s.store.GetCustomer(ctx, subject.UID, customerID); err != nil {
		return models.Payment{}, err
	}

	value := amount.InexactFloat64()
	record, err := s.store.InsertPayment(ctx, subject.UID, customerID, models.PaymentRecord{Amount: &value})
	if err != nil {
		s.logger.Error("failed to record payment", zap.String("customer_id", customerID), zap.Error(err))
		return models.Payment{}, fmt.Errorf("record payment: %w", err)
	}

	s.logger.Info("payment recorded", zap.String("customer_id", customerID), zap.String("amount", amount.String()))
	return record.Payment(), nil
}

// ListBalances returns every customer matching query with its balance. The
// children of each customer are read in two separate queries, so a write
// landing between them can make one balance momentarily inconsistent.
func (s *Service) ListBalances(ctx context.Context, subject models.Subject, query string) ([]models.CustomerBalance, error) {
	if subject.IsZero() {
		return nil, ErrNoSubject
	}

	records, err := s.store.ListCustomers(ctx, subject.UID)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}

	matched := make([]models.CustomerRecord, 0, len(records))
	for _, r := range records {
		if r.Customer().Matches(query) {
			matched = append(matched, r)
		}
	}

	out := make([]models.CustomerBalance, len(matched))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, record := range matched {
		g.Go(func() error {
			balance, err := s.balanceOf(gctx, subject.UID, record)
			if err != nil {
				return err
			}
			out[i] = models.CustomerBalance{Customer: record.Customer(), Balance: balance}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return out, nil
}

// CustomerBalance returns one customer with its balance.
func (s *Service) CustomerBalance(ctx context.Context, subject models.Subject, customerID string) (models.CustomerBalance, error) {
	if subject.IsZero() {
		return models.CustomerBalance{}, ErrNoSubject
	}

	record, err := s.store.GetCustomer(ctx, subject.UID, customerID)
	if err != nil {
		return models.CustomerBalance{}, err
	}

	balance, err := s.balanceOf(ctx, subject.UID, record)
	if err != nil {
		return models.CustomerBalance{}, err
	}
	return models.CustomerBalance{Customer: record.Customer(), Balance: balance}, nil
}

// History returns the deliveries, payments and balance of one customer.
func (s *Service) History(ctx context.Context, subject models.Subject, customerID string) (models.History, error) {
	if subject.IsZero() {
		return models.History{}, ErrNoSubject
	}

	record, err := s.store.GetCustomer(ctx, subject.UID, customerID)
	if err != nil {
		return models.History{}, err
	}

	deliveries, payments, err := s.children(ctx, subject.UID, record.ID)
	if err != nil {
		return models.History{}, err
	}

	history := models.History{
		Customer:   record.Customer(),
		Deliveries: make([]models.Delivery, 0, len(deliveries)),
		Payments:   make([]models.Payment, 0, len(payments)),
		Balance:    ledger.Compute(record, deliveries, payments),
	}
	for _, d := range deliveries {
		history.Deliveries = append(history.Deliveries, d.Delivery())
	}
	for _, p := range payments {
		history.Payments = append(history.Payments, p.Payment())
	}
	return history, nil
}

// Snapshots yields a fresh ListBalances result every time the consumer pulls
// the next value. Nothing is read until iteration starts, and ranging over
// the sequence again starts over. Iteration stops when ctx is done.
func (s *Service) Snapshots(ctx context.Context, subject models.Subject, query string) iter.Seq2[[]models.CustomerBalance, error] {
	return func(yield func([]models.CustomerBalance, error) bool) {
		for ctx.Err() == nil {
			balances, err := s.ListBalances(ctx, subject, query)
			if ctx.Err() != nil {
				return
			}
			if !yield(balances, err) {
				return
			}
		}
	}
}

func (s *Service) balanceOf(ctx context.Context, subjectID string, record models.CustomerRecord) (models.Balance, error) {
	deliveries, payments, err := s.children(ctx, subjectID, record.ID)
	if err != nil {
		return models.Balance{}, err
	}
	return ledger.Compute(record, deliveries, payments), nil
}

func (s *Service) children(ctx context.Context, subjectID, customerID string) ([]models.DeliveryRecord, []models.PaymentRecord, error) {
	var (
		deliveries []models.DeliveryRecord
		payments   []models.PaymentRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		deliveries, err = s.store.ListDeliveries(gctx, subjectID, customerID, repository.Window{})
		if err != nil {
			return fmt.Errorf("list deliveries of %s: %w", customerID, err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		payments, err = s.store.ListPayments(gctx, subjectID, customerID, repository.Window{})
		if err != nil {
			return fmt.Errorf("list payments of %s: %w", customerID, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return deliveries, payments, nil
}
