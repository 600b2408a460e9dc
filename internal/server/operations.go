package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tillworkslabs/stripe-gateway/internal/provider/domain"
)

// FetchStatus
// GET /api/orders/:reference/status
func (s *Server) FetchStatus(c *gin.Context) {
	s.runOperation(c, "fetch_status", s.provider.FetchStatus)
}

// Capture
// POST /api/orders/:reference/capture
func (s *Server) Capture(c *gin.Context) {
	s.runOperation(c, "capture", s.provider.Capture)
}

// Refund
// POST /api/orders/:reference/refund
//
// An optional JSON body {"amount": n} limits the refund; omitted or
// non-positive means a full refund.
func (s *Server) Refund(c *gin.Context) {
	var body struct {
		Amount int64 `json:"amount"`
	}
	_ = c.ShouldBindJSON(&body)

	s.runOperation(c, "refund", func(ctx context.Context, settings domain.CheckoutSettings, order *domain.Order) (*domain.TransactionUpdate, error) {
		return s.provider.Refund(ctx, settings, order, body.Amount)
	})
}

// Cancel
// POST /api/orders/:reference/cancel
func (s *Server) Cancel(c *gin.Context) {
	s.runOperation(c, "cancel", s.provider.Cancel)
}

type operationFunc func(ctx context.Context, settings domain.CheckoutSettings, order *domain.Order) (*domain.TransactionUpdate, error)

// runOperation loads the order, runs the provider operation and persists
// the resulting transaction update. A nil update is a no-op, not an
// error; the order simply is not in a state the operation applies to.
func (s *Server) runOperation(c *gin.Context, name string, op operationFunc) {
	reference := c.Param("reference")

	order, err := s.orders.GetByReference(c.Request.Context(), reference)
	if err != nil {
		s.respondOrderError(c, reference, err)
		return
	}

	update, err := op(c.Request.Context(), s.settings(), order)
	if err != nil {
		s.log.Error("payment operation failed",
			zap.String("operation", name),
			zap.String("order_reference", reference),
			zap.Error(err))
		s.metrics.Operations.WithLabelValues(name, "error").Inc()
		c.JSON(http.StatusBadGateway, gin.H{"error": "operation failed"})
		return
	}

	if update == nil {
		s.metrics.Operations.WithLabelValues(name, "noop").Inc()
		c.JSON(http.StatusOK, gin.H{"status": "noop"})
		return
	}

	if err := s.orders.ApplyUpdate(c.Request.Context(), reference, update); err != nil {
		s.log.Error("failed to persist transaction update",
			zap.String("operation", name),
			zap.String("order_reference", reference),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "persistence failed"})
		return
	}

	s.metrics.Operations.WithLabelValues(name, "ok").Inc()
	c.JSON(http.StatusOK, gin.H{
		"transactionId": update.TransactionID,
		"status":        update.Status,
	})
}

func (s *Server) respondOrderError(c *gin.Context, reference string, err error) {
	if errors.Is(err, domain.ErrOrderNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}
	s.log.Error("failed to load order",
		zap.String("order_reference", reference),
		zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "order lookup failed"})
}
