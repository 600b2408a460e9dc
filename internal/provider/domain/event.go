package domain

// EventKind is the canonical classification of an inbound Stripe webhook
// event. Event types the provider does not act on normalize to
// EventKindUnknown rather than failing, so newly introduced Stripe event
// types never break the pipeline.
type EventKind string

const (
	EventKindPaymentSucceeded  EventKind = "payment_succeeded"
	EventKindCheckoutCompleted EventKind = "checkout_completed"
	EventKindReviewClosed      EventKind = "review_closed"
	EventKindUnknown           EventKind = "unknown"
)

// ObjectKind identifies the remote object a webhook event references.
type ObjectKind string

const (
	ObjectKindPaymentIntent   ObjectKind = "payment_intent"
	ObjectKindCharge          ObjectKind = "charge"
	ObjectKindCheckoutSession ObjectKind = "checkout.session"
	ObjectKindSubscription    ObjectKind = "subscription"
	ObjectKindInvoice         ObjectKind = "invoice"
	ObjectKindReview          ObjectKind = "review"
	ObjectKindUnknown         ObjectKind = "unknown"
)

// CanonicalEvent is the minimal envelope parsed from a webhook payload.
// Only the envelope is trusted; nested resource payloads drift across
// Stripe API versions and are always re-fetched via the query API.
type CanonicalEvent struct {
	ID         string
	Kind       EventKind
	ObjectID   string
	ObjectKind ObjectKind
}
