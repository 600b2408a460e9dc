package domain

import "strings"

// CheckoutSettings mirrors the provider configuration held by the order
// system: per-mode API credentials, checkout behavior flags and the
// property aliases used to source billing address and extra metadata.
type CheckoutSettings struct {
	ContinueURL string
	CancelURL   string
	ErrorURL    string

	BillingAddressLine1PropertyAlias   string
	BillingAddressLine2PropertyAlias   string
	BillingAddressCityPropertyAlias    string
	BillingAddressStatePropertyAlias   string
	BillingAddressZipCodePropertyAlias string

	TestSecretKey            string
	TestPublicKey            string
	TestWebhookSigningSecret string
	LiveSecretKey            string
	LivePublicKey            string
	LiveWebhookSigningSecret string
	TestMode                 bool

	// Capture controls whether payment intents capture immediately
	// (automatic) or are only authorized (manual capture).
	Capture bool

	SendReceipt bool

	// PaymentMethodTypes is a comma-separated allowlist; empty means card.
	PaymentMethodTypes string

	// OrderProperties is a comma-separated list of order property aliases
	// mirrored into Stripe metadata.
	OrderProperties string

	OrderHeading        string
	OrderImage          string
	OneTimeItemsHeading string
}

// SecretKey resolves the API key for the configured mode. Each request
// builds its own client from this value; the key is never installed as
// process-wide state.
func (s CheckoutSettings) SecretKey() string {
	if s.TestMode {
		return s.TestSecretKey
	}
	return s.LiveSecretKey
}

func (s CheckoutSettings) PublicKey() string {
	if s.TestMode {
		return s.TestPublicKey
	}
	return s.LivePublicKey
}

func (s CheckoutSettings) WebhookSigningSecret() string {
	if s.TestMode {
		return s.TestWebhookSigningSecret
	}
	return s.LiveWebhookSigningSecret
}

// PaymentMethodTypeList splits the configured allowlist, defaulting to card.
func (s CheckoutSettings) PaymentMethodTypeList() []string {
	raw := strings.Split(s.PaymentMethodTypes, ",")
	types := make([]string, 0, len(raw))
	for _, t := range raw {
		if t = strings.TrimSpace(t); t != "" {
			types = append(types, t)
		}
	}
	if len(types) == 0 {
		return []string{"card"}
	}
	return types
}

// OrderPropertyAliases splits the configured metadata alias list.
func (s CheckoutSettings) OrderPropertyAliases() []string {
	raw := strings.Split(s.OrderProperties, ",")
	aliases := make([]string, 0, len(raw))
	for _, a := range raw {
		if a = strings.TrimSpace(a); a != "" {
			aliases = append(aliases, a)
		}
	}
	return aliases
}
