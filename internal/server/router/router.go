package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/waterbill/internal/server/handlers"
)

// Handlers groups the HTTP adapters served by the engine. Webhook may be nil
// when WhatsApp is not configured.
type Handlers struct {
	Billing *handlers.BillingHandler
	Reports *handlers.ReportHandler
	Auth    *handlers.AuthHandler
	Webhook *handlers.WebhookHandler
}

// Guards are the middlewares protecting the routes. RequireSubject guards
// every /api route and /send-message; WebhookSignature guards POST /webhook.
type Guards struct {
	RequireSubject   gin.HandlerFunc
	WebhookSignature gin.HandlerFunc
}

// New wires the Gin engine.
func New(h Handlers, guards Guards, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	api := r.Group("/api", guards.RequireSubject)
	{
		api.POST("/auth/session", h.Auth.SignIn)
		api.DELETE("/auth/session", h.Auth.SignOut)

		customers := api.Group("/customers")
		customers.GET("", h.Billing.List)
		customers.POST("", h.Billing.Register)
		customers.GET("/stream", h.Billing.Stream)
		customers.POST("/export", h.Billing.Export)
		customers.GET("/:id", h.Billing.Get)
		customers.GET("/:id/history", h.Billing.History)
		customers.POST("/:id/deliveries", h.Billing.AddDelivery)
		customers.POST("/:id/payments", h.Billing.AddPayment)

		api.GET("/reports/daily", h.Reports.Daily)
		api.POST("/reports/daily/export", h.Reports.Export)
	}

	if h.Webhook != nil {
		r.GET("/webhook", h.Webhook.Verify)
		r.POST("/webhook", guards.WebhookSignature, h.Webhook.Receive)
		r.POST("/send-message", guards.RequireSubject, h.Webhook.SendMessage)
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if logger != nil {
		logger.Info("router initialized", zap.Bool("whatsapp", h.Webhook != nil))
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Warn("request completed", fields...)
			return
		}
		logger.Info("request completed", fields...)
	}
}
