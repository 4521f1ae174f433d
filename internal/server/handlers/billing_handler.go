package handlers

import (
	"context"
	"iter"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/waterbill/internal/domain/models"
	"github.com/mamadbah2/waterbill/internal/server/middleware"
)

const (
	defaultStreamInterval = 5 * time.Second
	minStreamInterval     = 10 * time.Millisecond
)

// BillingService is the billing behaviour exposed over HTTP.
type BillingService interface {
	RegisterCustomer(ctx context.Context, subject models.Subject, input models.NewCustomerInput) (models.Customer, error)
	RecordDelivery(ctx context.Context, subject models.Subject, customerID, bottlesText string) (models.Delivery, error)
	RecordPayment(ctx context.Context, subject models.Subject, customerID, amountText string) (models.Payment, error)
	ListBalances(ctx context.Context, subject models.Subject, query string) ([]models.CustomerBalance, error)
	CustomerBalance(ctx context.Context, subject models.Subject, customerID string) (models.CustomerBalance, error)
	History(ctx context.Context, subject models.Subject, customerID string) (models.History, error)
	Snapshots(ctx context.Context, subject models.Subject, query string) iter.Seq2[[]models.CustomerBalance, error]
}

// BalanceExporter writes every customer balance to the spreadsheet.
type BalanceExporter interface {
	ExportBalances(ctx context.Context, subject models.Subject) (int, error)
}

// BillingHandler serves customers, deliveries, payments and balances.
type BillingHandler struct {
	svc      BillingService
	exporter BalanceExporter
	logger   *zap.Logger
}

// NewBillingHandler constructs the HTTP handler adapter.
func NewBillingHandler(svc BillingService, exporter BalanceExporter, logger *zap.Logger) *BillingHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BillingHandler{svc: svc, exporter: exporter, logger: logger}
}

type deliveryRequest struct {
	Bottles models.FreeText `json:"bottles"`
}

type paymentRequest struct {
	Amount models.FreeText `json:"amount"`
}

// List returns every customer with its balance. A failed read degrades to an
// empty list.
func (h *BillingHandler) List(c *gin.Context) {
	balances, err := h.svc.ListBalances(c.Request.Context(), middleware.SubjectFrom(c), c.Query("q"))
	if err != nil {
		h.logger.Error("failed to load customers", zap.Error(err))
		balances = []models.CustomerBalance{}
	}
	c.JSON(http.StatusOK, balances)
}

// Get returns one customer with its balance.
func (h *BillingHandler) Get(c *gin.Context) {
	balance, err := h.svc.CustomerBalance(c.Request.Context(), middleware.SubjectFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, balance)
}

// History returns the deliveries and payments of one customer.
func (h *BillingHandler) History(c *gin.Context) {
	history, err := h.svc.History(c.Request.Context(), middleware.SubjectFrom(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, history)
}

// Register adds a customer.
func (h *BillingHandler) Register(c *gin.Context) {
	var input models.NewCustomerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		h.logger.Warn("invalid customer payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	customer, err := h.svc.RegisterCustomer(c.Request.Context(), middleware.SubjectFrom(c), input)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, customer)
}

// AddDelivery logs bottles delivered to a customer.
func (h *BillingHandler) AddDelivery(c *gin.Context) {
	var req deliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid delivery payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	delivery, err := h.svc.RecordDelivery(c.Request.Context(), middleware.SubjectFrom(c), c.Param("id"), req.Bottles.String())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, delivery)
}

// AddPayment records a payment made by a customer.
func (h *BillingHandler) AddPayment(c *gin.Context) {
	var req paymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid payment payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	payment, err := h.svc.RecordPayment(c.Request.Context(), middleware.SubjectFrom(c), c.Param("id"), req.Amount.String())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, payment)
}

// Stream pushes a full balance snapshot as a server-sent event every
// interval until the client goes away.
func (h *BillingHandler) Stream(c *gin.Context) {
	interval := defaultStreamInterval
	if raw := c.Query("interval"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d < minStreamInterval {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "interval must be a duration of at least 10ms"})
			return
		}
		interval = d
	}

	ctx := c.Request.Context()
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for balances, err := range h.svc.Snapshots(ctx, middleware.SubjectFrom(c), c.Query("q")) {
		if err != nil {
			h.logger.Warn("snapshot read failed", zap.Error(err))
			c.SSEvent("error", gin.H{"error": "failed to load balances"})
		} else {
			c.SSEvent("snapshot", balances)
		}
		c.Writer.Flush()

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Export writes every balance to the spreadsheet.
func (h *BillingHandler) Export(c *gin.Context) {
	count, err := h.exporter.ExportBalances(c.Request.Context(), middleware.SubjectFrom(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"exported": count})
}
