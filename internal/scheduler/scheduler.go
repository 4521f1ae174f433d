package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/waterbill/internal/domain/models"
	"github.com/mamadbah2/waterbill/internal/service/reporting"
	"github.com/mamadbah2/waterbill/internal/service/whatsapp"
)

// SubjectLister lists the operators that own data.
type SubjectLister interface {
	ListSubjects(ctx context.Context) ([]string, error)
}

// Reporter builds and stores daily reports.
type Reporter interface {
	DailyReport(ctx context.Context, subject models.Subject, day time.Time) (models.DailyReport, error)
	SaveDailyReport(ctx context.Context, report models.DailyReport) error
	Today() time.Time
	Location() *time.Location
}

// Recipient is the WhatsApp number that receives the report of one subject.
type Recipient struct {
	Subject string
	Number  string
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron         *cron.Cron
	spec         string
	subjects     SubjectLister
	reporter     Reporter
	messagingSvc whatsapp.MessagingService
	recipient    Recipient
	logger       *zap.Logger
}

// NewScheduler creates a scheduler that runs the daily report on spec, a
// standard 5-field cron expression evaluated in the reporter's timezone.
// Every subject's report is stored; only the report of recipient.Subject is
// sent, to recipient.Number. messagingSvc may be nil to only store reports.
func NewScheduler(spec string, subjects SubjectLister, reporter Reporter, messagingSvc whatsapp.MessagingService, recipient Recipient, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Scheduler{
		cron:         cron.New(cron.WithLocation(reporter.Location())),
		spec:         spec,
		subjects:     subjects,
		reporter:     reporter,
		messagingSvc: messagingSvc,
		recipient:    recipient,
		logger:       logger,
	}
}

// Start registers the daily report job and starts the scheduler.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler", zap.String("schedule", s.spec))

	if _, err := s.cron.AddFunc(s.spec, s.runDailyReports); err != nil {
		return fmt.Errorf("schedule daily report %q: %w", s.spec, err)
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runDailyReports() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := s.RunDailyReports(ctx); err != nil {
		s.logger.Error("daily report run failed", zap.Error(err))
	}
}

// RunDailyReports builds and saves today's report for every subject and sends
// the recipient's own report. A failure for one subject does not stop the
// others.
func (s *Scheduler) RunDailyReports(ctx context.Context) error {
	subjects, err := s.subjects.ListSubjects(ctx)
	if err != nil {
		return fmt.Errorf("list subjects: %w", err)
	}

	s.logger.Info("generating daily reports", zap.Int("subjects", len(subjects)))
	today := s.reporter.Today()

	var errs []error
	for _, uid := range subjects {
		if err := s.reportFor(ctx, models.Subject{UID: uid}, today); err != nil {
			s.logger.Error("daily report failed", zap.String("subject", uid), zap.Error(err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Scheduler) reportFor(ctx context.Context, subject models.Subject, day time.Time) error {
	report, err := s.reporter.DailyReport(ctx, subject, day)
	if err != nil {
		return fmt.Errorf("build report for %s: %w", subject.UID, err)
	}

	if err := s.reporter.SaveDailyReport(ctx, report); err != nil {
		return fmt.Errorf("save report for %s: %w", subject.UID, err)
	}

	if s.messagingSvc == nil || s.recipient.Number == "" || subject.UID != s.recipient.Subject {
		return nil
	}

	req := models.OutboundMessageRequest{
		To:      s.recipient.Number,
		Message: reporting.FormatDailyReport(report),
	}
	if err := s.messagingSvc.SendOutbound(ctx, req); err != nil {
		return fmt.Errorf("send report for %s: %w", subject.UID, err)
	}

	s.logger.Info("daily report sent", zap.String("subject", subject.UID))
	return nil
}
