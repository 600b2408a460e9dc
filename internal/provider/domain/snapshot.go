package domain

// Snapshot types hold the authoritative remote state of a Stripe object at
// the moment it was fetched, reduced to the fields status mapping needs.
// Snapshots live for one reconciliation only and are never cached across
// requests. Amounts are in the currency's minor units.

type ChargeSnapshot struct {
	ID          string
	Paid        bool
	Captured    bool
	Refunded    bool
	Amount      int64
	Currency    string
	CardCountry string
}

type ReviewSnapshot struct {
	ID              string
	Open            bool
	PaymentIntentID string
}

type PaymentIntentSnapshot struct {
	ID             string
	Status         string
	Amount         int64
	Currency       string
	CustomerID     string
	OrderReference string
	LatestCharge   *ChargeSnapshot
	Review         *ReviewSnapshot
}

type CheckoutSessionSnapshot struct {
	ID                string
	Mode              string
	CustomerID        string
	PaymentIntentID   string
	SubscriptionID    string
	ClientReferenceID string
}

type InvoiceSnapshot struct {
	ID            string
	Status        string
	ChargeID      string
	Charge        *ChargeSnapshot
	PaymentIntent *PaymentIntentSnapshot
}

type SubscriptionSnapshot struct {
	ID            string
	LatestInvoice *InvoiceSnapshot
}

type TaxRate struct {
	ID          string
	DisplayName string
	Percentage  float64
	Inclusive   bool
}
