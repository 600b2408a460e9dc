package stripe

import (
	"go.uber.org/zap"

	"github.com/tillworkslabs/stripe-gateway/internal/provider/domain"
)

// Provider bridges the order system to Stripe hosted checkout: session
// building, webhook reconciliation and the capture/refund/cancel surface.
// It is stateless across requests; every call resolves its own API client
// from the settings it is handed.
type Provider struct {
	log    *zap.Logger
	newAPI func(secretKey string) remoteAPI
}

func NewProvider(log *zap.Logger) *Provider {
	return &Provider{
		log:    log.Named("provider.stripe"),
		newAPI: newAPIClient,
	}
}

// NormalizeEvent verifies the signature and parses the event envelope.
func (p *Provider) NormalizeEvent(payload []byte, signatureHeader string, settings domain.CheckoutSettings) (domain.CanonicalEvent, error) {
	return normalizeEvent(payload, signatureHeader, settings.WebhookSigningSecret())
}

var _ domain.Provider = (*Provider)(nil)
