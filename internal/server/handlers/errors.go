package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/waterbill/internal/repository"
	"github.com/mamadbah2/waterbill/internal/service/billing"
	"github.com/mamadbah2/waterbill/internal/service/ledger"
	"github.com/mamadbah2/waterbill/internal/service/reporting"
)

var inputErrors = []error{
	ledger.ErrInvalidBottles,
	ledger.ErrInvalidAmount,
	ledger.ErrInvalidPrice,
}

// respondError maps service errors onto HTTP statuses. Anything unknown is
// logged and reported as a generic 500.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	for _, sentinel := range inputErrors {
		if errors.Is(err, sentinel) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": sentinel.Error()})
			return
		}
	}

	switch {
	case errors.Is(err, billing.ErrInvalidCustomer):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "customer not found"})
	case errors.Is(err, billing.ErrNoSubject):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "sign in required"})
	case errors.Is(err, reporting.ErrExportDisabled):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "something went wrong"})
	}
}
