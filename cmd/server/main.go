package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/waterbill/internal/auth"
	"github.com/mamadbah2/waterbill/internal/config"
	"github.com/mamadbah2/waterbill/internal/domain/models"
	"github.com/mamadbah2/waterbill/internal/repository"
	"github.com/mamadbah2/waterbill/internal/repository/memory"
	"github.com/mamadbah2/waterbill/internal/repository/mongodb"
	"github.com/mamadbah2/waterbill/internal/repository/sheets"
	"github.com/mamadbah2/waterbill/internal/scheduler"
	"github.com/mamadbah2/waterbill/internal/server/handlers"
	"github.com/mamadbah2/waterbill/internal/server/middleware"
	"github.com/mamadbah2/waterbill/internal/server/router"
	billingsvc "github.com/mamadbah2/waterbill/internal/service/billing"
	commandsvc "github.com/mamadbah2/waterbill/internal/service/commands"
	reportingsvc "github.com/mamadbah2/waterbill/internal/service/reporting"
	whatsappsvc "github.com/mamadbah2/waterbill/internal/service/whatsapp"
	whatsappclient "github.com/mamadbah2/waterbill/pkg/clients/whatsapp"
	"github.com/mamadbah2/waterbill/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Server.LogLevel))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore := openStore(ctx, cfg, baseLogger)
	defer closeStore()

	// Left as a nil interface when export is not configured.
	var sheetsRepo sheets.Repository
	if cfg.Sheets.Enabled() {
		repo, err := sheets.NewGoogleSheetRepository(ctx, cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		sheetsRepo = repo
	} else {
		baseLogger.Warn("google sheets not configured, spreadsheet export disabled")
	}

	verifier := newVerifier(ctx, cfg.Auth, baseLogger)
	sessions := auth.NewSessions()
	sessionLogger := baseLogger.Named("auth.sessions")
	sessions.Subscribe(func(e auth.Event) {
		sessionLogger.Info("auth state changed", zap.String("subject", e.Subject.UID), zap.Bool("signed_in", e.SignedIn))
	})

	loc, err := cfg.Reporting.Location()
	if err != nil {
		baseLogger.Fatal("invalid reporting timezone", zap.Error(err))
	}

	billingSvc := billingsvc.NewService(store, cfg.Store.ListConcurrency, baseLogger.Named("svc.billing"))
	reportingSvc := reportingsvc.NewService(store, sheetsRepo, billingSvc, loc, baseLogger.Named("svc.reporting"))
	commandDispatcher := commandsvc.NewService(billingSvc, reportingSvc, reportingsvc.FormatDailyReport, baseLogger.Named("svc.commands"))

	routes := router.Handlers{
		Billing: handlers.NewBillingHandler(billingSvc, reportingSvc, baseLogger.Named("handlers.billing")),
		Reports: handlers.NewReportHandler(reportingSvc, baseLogger.Named("handlers.reports")),
		Auth:    handlers.NewAuthHandler(verifier, sessions, baseLogger.Named("handlers.auth")),
	}

	var messagingSvc whatsappsvc.MessagingService
	if cfg.WhatsApp.Enabled() {
		messagingSvc = whatsappsvc.NewMetaWhatsAppService(cfg.WhatsApp, whatsappclient.NewClient(cfg.WhatsApp), commandDispatcher, baseLogger.Named("svc.whatsapp"))
		routes.Webhook = handlers.NewWebhookHandler(messagingSvc, baseLogger.Named("handlers.whatsapp"))
		baseLogger.Info("whatsapp integration enabled")
	} else {
		baseLogger.Warn("whatsapp credentials missing, webhook and report messages disabled")
	}

	engine := router.New(routes, router.Guards{
		RequireSubject:   middleware.RequireSubject(verifier, sessions, baseLogger.Named("middleware.auth")),
		WebhookSignature: middleware.RequireMetaSignature(cfg.WhatsApp.AppSecret, baseLogger.Named("middleware.signature")),
	}, baseLogger.Named("router"))

	sched := scheduler.NewScheduler(cfg.Reporting.CronSchedule, store, reportingSvc, messagingSvc, scheduler.Recipient{
		Subject: cfg.WhatsApp.OperatorSubject,
		Number:  cfg.WhatsApp.OperatorNumber,
	}, baseLogger.Named("scheduler"))
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:        ":" + cfg.Server.Port,
		Handler:     engine,
		ReadTimeout: 15 * time.Second,
		// No WriteTimeout: balance streams stay open until the client leaves.
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port), zap.String("store", cfg.Store.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (repository.DocumentStore, func()) {
	if cfg.Store.Driver == config.StoreMemory {
		log.Warn("using in-memory store, data is lost on restart")
		return memory.NewStore(), func() {}
	}

	mongoRepo, err := mongodb.NewMongoDBRepository(ctx, cfg.MongoDB.URI, cfg.MongoDB.DBName, log.Named("repo.mongodb"))
	if err != nil {
		log.Fatal("failed to init mongodb repository", zap.Error(err))
	}
	if err := mongoRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal("failed to create mongodb indexes", zap.Error(err))
	}

	return mongoRepo, func() {
		if err := mongoRepo.Close(context.Background()); err != nil {
			log.Error("failed to close mongodb connection", zap.Error(err))
		}
	}
}

func newVerifier(ctx context.Context, cfg config.AuthConfig, log *zap.Logger) auth.Verifier {
	if cfg.Disabled {
		log.Warn("authentication disabled, every request acts as the dev subject", zap.String("subject", cfg.DevSubject))
		return auth.StaticVerifier{Fallback: &models.Subject{UID: cfg.DevSubject}}
	}

	verifier, err := auth.NewFirebaseVerifier(ctx, cfg)
	if err != nil {
		log.Fatal("failed to init firebase auth", zap.Error(err))
	}
	return verifier
}
