package domain

import "context"

// Provider is the payment-provider surface consumed by the HTTP layer.
type Provider interface {
	// NormalizeEvent verifies the webhook signature against the raw body
	// and parses the minimal event envelope. Unrecognized event types
	// yield EventKindUnknown, not an error.
	NormalizeEvent(payload []byte, signatureHeader string, settings CheckoutSettings) (CanonicalEvent, error)

	// ReconcileEvent fetches the referenced object's current remote state
	// and maps it to a canonical outcome. A nil outcome with nil error
	// means nothing actionable.
	ReconcileEvent(ctx context.Context, settings CheckoutSettings, ev CanonicalEvent) (*Outcome, error)

	// BuildCheckout provisions the Stripe customer and creates a hosted
	// checkout session for the order.
	BuildCheckout(ctx context.Context, settings CheckoutSettings, order *Order) (*CheckoutResult, error)

	// CreateIntent provisions the customer and creates a payment intent
	// for client-side completion.
	CreateIntent(ctx context.Context, settings CheckoutSettings, order *Order) (*PaymentIntentResult, error)

	// FetchStatus re-derives the canonical status from the order's payment
	// intent, falling back to its charge. Nil update when neither exists.
	FetchStatus(ctx context.Context, settings CheckoutSettings, order *Order) (*TransactionUpdate, error)

	Capture(ctx context.Context, settings CheckoutSettings, order *Order) (*TransactionUpdate, error)
	Refund(ctx context.Context, settings CheckoutSettings, order *Order, amount int64) (*TransactionUpdate, error)
	Cancel(ctx context.Context, settings CheckoutSettings, order *Order) (*TransactionUpdate, error)
}

// OrderStore is the order-system-facing persistence surface: read-only
// order lookup plus the narrow write path used to hand results back.
type OrderStore interface {
	GetByReference(ctx context.Context, reference string) (*Order, error)
	ApplyOutcome(ctx context.Context, outcome *Outcome) error
	ApplyUpdate(ctx context.Context, reference string, update *TransactionUpdate) error
	MergeMetadata(ctx context.Context, reference string, metadata map[string]string) error
}
