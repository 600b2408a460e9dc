package stripe

import (
	"encoding/json"
	"strings"

	"github.com/stripe/stripe-go/v81/webhook"

	"github.com/tillworkslabs/stripe-gateway/internal/provider/domain"
)

// eventEnvelope is the only part of a webhook payload this provider
// deserializes. Nested resource schemas drift across Stripe API versions;
// business logic always works from a fresh fetch of the referenced object
// at the API version this code is pinned to.
type eventEnvelope struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID     string `json:"id"`
			Object string `json:"object"`
		} `json:"object"`
	} `json:"data"`
}

func normalizeEvent(payload []byte, signatureHeader, signingSecret string) (domain.CanonicalEvent, error) {
	if err := webhook.ValidatePayload(payload, signatureHeader, signingSecret); err != nil {
		return domain.CanonicalEvent{}, domain.ErrInvalidSignature
	}

	var env eventEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return domain.CanonicalEvent{}, domain.ErrInvalidPayload
	}
	if strings.TrimSpace(env.ID) == "" {
		return domain.CanonicalEvent{}, domain.ErrInvalidPayload
	}

	return domain.CanonicalEvent{
		ID:         env.ID,
		Kind:       eventKind(env.Type),
		ObjectID:   env.Data.Object.ID,
		ObjectKind: objectKind(env.Data.Object.Object),
	}, nil
}

func eventKind(eventType string) domain.EventKind {
	switch strings.TrimSpace(eventType) {
	case "payment_intent.succeeded":
		return domain.EventKindPaymentSucceeded
	case "checkout.session.completed":
		return domain.EventKindCheckoutCompleted
	case "review.closed":
		return domain.EventKindReviewClosed
	default:
		return domain.EventKindUnknown
	}
}

func objectKind(object string) domain.ObjectKind {
	switch strings.TrimSpace(object) {
	case "payment_intent":
		return domain.ObjectKindPaymentIntent
	case "charge":
		return domain.ObjectKindCharge
	case "checkout.session":
		return domain.ObjectKindCheckoutSession
	case "subscription":
		return domain.ObjectKindSubscription
	case "invoice":
		return domain.ObjectKindInvoice
	case "review":
		return domain.ObjectKindReview
	default:
		return domain.ObjectKindUnknown
	}
}
