package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/tillworkslabs/stripe-gateway/internal/provider/domain"
)

// Callback
// POST /api/stripe/callback
//
// Two callers share this endpoint. Stripe posts signed webhook events to
// it, and the storefront's inline payment flow calls it with
// ?create=paymentIntent&reference=<order> to mint a payment intent.
func (s *Server) Callback(c *gin.Context) {
	if c.Query("create") == "paymentIntent" {
		s.createPaymentIntent(c)
		return
	}
	s.handleWebhook(c)
}

func (s *Server) createPaymentIntent(c *gin.Context) {
	reference := c.Query("reference")
	if reference == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing order reference"})
		return
	}

	order, err := s.orders.GetByReference(c.Request.Context(), reference)
	if err != nil {
		s.respondOrderError(c, reference, err)
		return
	}

	result, err := s.provider.CreateIntent(c.Request.Context(), s.settings(), order)
	if err != nil {
		s.log.Error("failed to create payment intent",
			zap.String("order_reference", reference),
			zap.Error(err))
		s.metrics.Operations.WithLabelValues("create_intent", "error").Inc()
		c.JSON(http.StatusBadGateway, gin.H{"error": "payment intent creation failed"})
		return
	}

	s.metrics.Operations.WithLabelValues("create_intent", "ok").Inc()
	c.JSON(http.StatusOK, gin.H{"clientSecret": result.ClientSecret})
}

// handleWebhook verifies, deduplicates and reconciles one delivery.
// Responses steer Stripe's retry behavior: 400 for signature failures,
// 502 when remote state could not be fetched (retry wanted), 200 for
// everything else including events that produce nothing actionable.
func (s *Server) handleWebhook(c *gin.Context) {
	payload, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	ev, err := s.provider.NormalizeEvent(payload, c.GetHeader("Stripe-Signature"), s.settings())
	if err != nil {
		if errors.Is(err, domain.ErrInvalidSignature) || errors.Is(err, domain.ErrInvalidPayload) {
			s.metrics.WebhookEvents.WithLabelValues("rejected").Inc()
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid webhook"})
			return
		}
		s.log.Error("webhook normalization failed", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid webhook"})
		return
	}

	if ev.Kind == domain.EventKindUnknown {
		s.metrics.WebhookEvents.WithLabelValues("ignored").Inc()
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	seen, err := s.events.Seen(c.Request.Context(), ev.ID)
	if err != nil {
		s.log.Warn("duplicate check failed, processing anyway",
			zap.String("event_id", ev.ID),
			zap.Error(err))
	}
	if seen {
		s.metrics.WebhookEvents.WithLabelValues("duplicate").Inc()
		c.JSON(http.StatusOK, gin.H{"status": "duplicate"})
		return
	}

	outcome, err := s.provider.ReconcileEvent(c.Request.Context(), s.settings(), ev)
	if err != nil {
		if errors.Is(err, domain.ErrRemoteFetch) {
			s.metrics.WebhookEvents.WithLabelValues("retry").Inc()
			s.log.Warn("remote fetch failed, asking for redelivery",
				zap.String("event_id", ev.ID),
				zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"error": "remote state unavailable"})
			return
		}
		s.log.Error("reconciliation failed",
			zap.String("event_id", ev.ID),
			zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "reconciliation failed"})
		return
	}

	if outcome == nil {
		s.recordEvent(c, ev, nil)
		s.metrics.WebhookEvents.WithLabelValues("no_outcome").Inc()
		c.JSON(http.StatusOK, gin.H{"status": "no_outcome"})
		return
	}

	if err := s.orders.ApplyOutcome(c.Request.Context(), outcome); err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			// The event references an order this gateway never mirrored.
			// Redelivery will not help, so acknowledge it.
			s.log.Warn("outcome references unknown order",
				zap.String("event_id", ev.ID),
				zap.String("order_reference", outcome.OrderReference))
			s.recordEvent(c, ev, outcome)
			s.metrics.WebhookEvents.WithLabelValues("orphaned").Inc()
			c.JSON(http.StatusOK, gin.H{"status": "order_not_found"})
			return
		}
		s.log.Error("failed to persist outcome",
			zap.String("event_id", ev.ID),
			zap.String("order_reference", outcome.OrderReference),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "persistence failed"})
		return
	}

	s.recordEvent(c, ev, outcome)
	s.metrics.WebhookEvents.WithLabelValues("processed").Inc()
	s.metrics.ReconcileOutcomes.WithLabelValues(string(outcome.Transaction.Status)).Inc()
	c.JSON(http.StatusOK, gin.H{"status": "processed"})
}

func (s *Server) recordEvent(c *gin.Context, ev domain.CanonicalEvent, outcome *domain.Outcome) {
	if err := s.events.Record(c.Request.Context(), ev, outcome); err != nil {
		s.log.Warn("failed to record webhook event",
			zap.String("event_id", ev.ID),
			zap.Error(err))
	}
}
