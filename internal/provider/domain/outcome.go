package domain

// Transaction metadata keys persisted by the order system. Keys are stable
// for the provider's lifetime; values are overwritten, never removed.
const (
	MetaSessionID       = "stripeSessionId"
	MetaCustomerID      = "stripeCustomerId"
	MetaPaymentIntentID = "stripePaymentIntentId"
	MetaSubscriptionID  = "stripeSubscriptionId"
	MetaChargeID        = "stripeChargeId"
	MetaCardCountry     = "stripeCardCountry"
)

// TransactionInfo is the canonical transaction state derived from remote
// truth. AmountAuthorized is in minor units.
type TransactionInfo struct {
	TransactionID    string
	AmountAuthorized int64
	Status           TransactionStatus
}

// Outcome is the result of reconciling one webhook event: the order it
// belongs to, the derived transaction info and the metadata to persist.
// A nil Outcome means the event produced nothing actionable.
type Outcome struct {
	OrderReference string
	Transaction    TransactionInfo
	Metadata       map[string]string
}

// TransactionUpdate is the result of a capture/refund/cancel/fetch-status
// operation. A nil update means the operation was a no-op (for example no
// payment intent id exists yet on the order).
type TransactionUpdate struct {
	TransactionID string
	Status        TransactionStatus
	Metadata      map[string]string
}

// CheckoutResult is returned from building a hosted checkout session.
type CheckoutResult struct {
	SessionID   string
	CustomerID  string
	RedirectURL string
	PublicKey   string

	// Metadata to persist on the order (session and customer ids).
	Metadata map[string]string
}

// PaymentIntentResult exposes the client secret for client-side completion
// of an inline payment intent.
type PaymentIntentResult struct {
	ID           string
	ClientSecret string
}
