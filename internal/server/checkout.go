package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Checkout
// POST /api/orders/:reference/checkout
//
// Builds a hosted checkout session for the order and hands back the
// redirect URL. The session and customer ids are persisted on the order
// before the storefront sends the shopper to Stripe.
func (s *Server) Checkout(c *gin.Context) {
	reference := c.Param("reference")

	order, err := s.orders.GetByReference(c.Request.Context(), reference)
	if err != nil {
		s.respondOrderError(c, reference, err)
		return
	}

	result, err := s.provider.BuildCheckout(c.Request.Context(), s.settings(), order)
	if err != nil {
		s.log.Error("failed to build checkout session",
			zap.String("order_reference", reference),
			zap.Error(err))
		s.metrics.Operations.WithLabelValues("checkout", "error").Inc()
		c.JSON(http.StatusBadGateway, gin.H{"error": "checkout session creation failed"})
		return
	}

	if err := s.orders.MergeMetadata(c.Request.Context(), reference, result.Metadata); err != nil {
		s.log.Error("failed to persist checkout metadata",
			zap.String("order_reference", reference),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "persistence failed"})
		return
	}

	s.metrics.Operations.WithLabelValues("checkout", "ok").Inc()
	c.JSON(http.StatusOK, gin.H{
		"sessionId":   result.SessionID,
		"customerId":  result.CustomerID,
		"redirectUrl": result.RedirectURL,
		"publicKey":   result.PublicKey,
	})
}
