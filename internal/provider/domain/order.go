package domain

// Order is the read-only view of an order consumed from the external
// commerce system. The provider never mutates it; results flow back
// through Outcome / TransactionUpdate values.
type Order struct {
	Reference    string
	OrderNumber  string
	CurrencyCode string
	LanguageCode string

	// TotalAmount is the order's transaction amount in minor units.
	TotalAmount int64

	Customer           CustomerInfo
	BillingCountryCode string

	// Properties is the order's property bag. Persisted transaction
	// metadata (stripeCustomerId etc.) is mirrored into it by the order
	// system, which is how operations find prerequisite remote ids.
	Properties map[string]string

	Lines []OrderLine

	Transaction TransactionState

	// TransactionFee and CanRefundTransactionFee come from the store
	// configuration and only matter for the refund-on-cancel fallback.
	TransactionFee          int64
	CanRefundTransactionFee bool
}

type CustomerInfo struct {
	FirstName string
	LastName  string
	Email     string
}

type OrderLine struct {
	Name             string
	ProductReference string
	Quantity         int64

	// TaxRate is a fraction (0.25 for 25%).
	TaxRate float64

	// Line totals in minor units.
	TotalWithTax    int64
	TotalWithoutTax int64

	Properties map[string]string
}

// TransactionState is the order's current canonical transaction info as
// last persisted by the order system.
type TransactionState struct {
	TransactionID    string
	AmountAuthorized int64
	Status           TransactionStatus
}

// Property returns the named order property, or "" when absent.
func (o *Order) Property(key string) string {
	if o == nil || o.Properties == nil {
		return ""
	}
	return o.Properties[key]
}

// LineProperty returns the named line property, or "" when absent.
func (l OrderLine) Property(key string) string {
	if l.Properties == nil {
		return ""
	}
	return l.Properties[key]
}
