package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/waterbill/internal/domain/models"
	"github.com/mamadbah2/waterbill/internal/repository"
	"github.com/mamadbah2/waterbill/internal/service/ledger"
)

// ErrInvalidArguments indicates the command payload could not be parsed.
var ErrInvalidArguments = errors.New("invalid command arguments")

// ErrUnsupportedCommand indicates we do not yet support the requested command.
var ErrUnsupportedCommand = errors.New("unsupported command")

// HelpText lists the supported operator commands.
const HelpText = "Commands:\n" +
	"/bottles <customer-id> <count> - log a delivery\n" +
	"/pay <customer-id> <amount> - record a payment\n" +
	"/balance <customer-id> - show what the customer owes\n" +
	"/report - today's deliveries and income"

// Billing is the billing behaviour the dispatcher drives.
type Billing interface {
	RecordDelivery(ctx context.Context, subject models.Subject, customerID, bottlesText string) (models.Delivery, error)
	RecordPayment(ctx context.Context, subject models.Subject, customerID, amountText string) (models.Payment, error)
	CustomerBalance(ctx context.Context, subject models.Subject, customerID string) (models.CustomerBalance, error)
}

// ReportingAdapter defines the reporting functions required by the dispatcher.
type ReportingAdapter interface {
	DailyReport(ctx context.Context, subject models.Subject, day time.Time) (models.DailyReport, error)
	Today() time.Time
}

// Service executes parsed commands on behalf of a subject.
type Service struct {
	billing   Billing
	reporting ReportingAdapter
	format    func(models.DailyReport) string
	logger    *zap.Logger
}

// NewService constructs a command dispatcher.
func NewService(billing Billing, reporting ReportingAdapter, format func(models.DailyReport) string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		billing:   billing,
		reporting: reporting,
		format:    format,
		logger:    logger,
	}
}

// HandleCommand runs cmd for subject and returns the reply text. Input
// problems come back as replies rather than errors so the operator is told to
// re-enter the value; only store failures are returned as errors.
func (s *Service) HandleCommand(ctx context.Context, subject models.Subject, cmd models.Command) (string, error) {
	s.logger.Debug("dispatching command", zap.String("command", string(cmd.Type)), zap.String("subject", subject.UID), zap.Strings("args", cmd.Args))

	reply, err := s.dispatch(ctx, subject, cmd)
	switch {
	case err == nil:
		return reply, nil
	case errors.Is(err, ErrInvalidArguments), errors.Is(err, ErrUnsupportedCommand):
		return HelpText, nil
	case errors.Is(err, ledger.ErrInvalidBottles):
		return "Please enter a valid bottle number.", nil
	case errors.Is(err, ledger.ErrInvalidAmount):
		return "Please enter a valid amount.", nil
	case errors.Is(err, repository.ErrNotFound):
		return fmt.Sprintf("No customer with id %s.", cmd.Args[0]), nil
	default:
		return "", err
	}
}

func (s *Service) dispatch(ctx context.Context, subject models.Subject, cmd models.Command) (string, error) {
	switch cmd.Type {
	case models.CommandBottles:
		if len(cmd.Args) != 2 {
			return "", ErrInvalidArguments
		}
		delivery, err := s.billing.RecordDelivery(ctx, subject, cmd.Args[0], cmd.Args[1])
		if err != nil {
			return "", err
		}
		return s.withBalance(ctx, subject, cmd.Args[0], fmt.Sprintf("Delivery of %d bottle(s) saved.", delivery.Bottles)), nil
	case models.CommandPay:
		if len(cmd.Args) != 2 {
			return "", ErrInvalidArguments
		}
		payment, err := s.billing.RecordPayment(ctx, subject, cmd.Args[0], cmd.Args[1])
		if err != nil {
			return "", err
		}
		return s.withBalance(ctx, subject, cmd.Args[0], fmt.Sprintf("Payment of %s recorded.", payment.Amount.StringFixed(2))), nil
	case models.CommandBalance:
		if len(cmd.Args) != 1 {
			return "", ErrInvalidArguments
		}
		balance, err := s.billing.CustomerBalance(ctx, subject, cmd.Args[0])
		if err != nil {
			return "", err
		}
		return formatBalance(balance), nil
	case models.CommandReport:
		if s.reporting == nil || s.format == nil {
			return "", ErrUnsupportedCommand
		}
		report, err := s.reporting.DailyReport(ctx, subject, s.reporting.Today())
		if err != nil {
			return "", err
		}
		return s.format(report), nil
	case models.CommandHelp:
		return HelpText, nil
	default:
		return "", ErrUnsupportedCommand
	}
}

// withBalance appends the fresh balance to a confirmation. A failed re-read
// only drops the balance line; the write itself already succeeded.
func (s *Service) withBalance(ctx context.Context, subject models.Subject, customerID, confirmation string) string {
	balance, err := s.billing.CustomerBalance(ctx, subject, customerID)
	if err != nil {
		s.logger.Debug("balance refresh failed", zap.String("customer_id", customerID), zap.Error(err))
		return confirmation
	}
	return confirmation + "\n" + formatBalance(balance)
}

func formatBalance(b models.CustomerBalance) string {
	return fmt.Sprintf("%s (%s %s): %d bottles, total %s, paid %s, due %s.",
		b.Name, b.Building, b.Room,
		b.TotalBottles,
		b.TotalAmount.StringFixed(2),
		b.TotalPaid.StringFixed(2),
		b.RemainingDue.StringFixed(2))
}
