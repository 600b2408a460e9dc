package stripe

import (
	"context"

	"github.com/google/uuid"
	stripe "github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"

	"github.com/tillworkslabs/stripe-gateway/internal/provider/domain"
)

// remoteAPI is the slice of the Stripe API this provider touches. Each
// request constructs its own implementation carrying the key resolved from
// that request's settings, so overlapping test/live requests can never
// clobber each other's credentials.
type remoteAPI interface {
	PaymentIntent(ctx context.Context, id string) (*domain.PaymentIntentSnapshot, error)
	Charge(ctx context.Context, id string) (*domain.ChargeSnapshot, error)
	CheckoutSession(ctx context.Context, id string) (*domain.CheckoutSessionSnapshot, error)
	Subscription(ctx context.Context, id string) (*domain.SubscriptionSnapshot, error)
	Invoice(ctx context.Context, id string) (*domain.InvoiceSnapshot, error)
	Review(ctx context.Context, id string) (*domain.ReviewSnapshot, error)

	CreateCustomer(ctx context.Context, profile customerProfile) (string, error)
	UpdateCustomer(ctx context.Context, id string, profile customerProfile) (string, error)
	ListActiveTaxRates(ctx context.Context) ([]domain.TaxRate, error)
	CreateTaxRate(ctx context.Context, displayName string, percentage float64, inclusive bool) (domain.TaxRate, error)

	CreateCheckoutSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	CreatePaymentIntent(ctx context.Context, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
	CapturePaymentIntent(ctx context.Context, id string, amount int64) (*domain.PaymentIntentSnapshot, error)
	CancelPaymentIntent(ctx context.Context, id string) (*domain.PaymentIntentSnapshot, error)
	CreateRefund(ctx context.Context, chargeID string, amount int64) (*domain.ChargeSnapshot, error)
	CancelSubscription(ctx context.Context, id string) error
}

type apiClient struct {
	sc *client.API
}

func newAPIClient(secretKey string) remoteAPI {
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
		MaxNetworkRetries: stripe.Int64(2),
	})
	sc := &client.API{}
	sc.Init(secretKey, &stripe.Backends{
		API:     backend,
		Connect: stripe.GetBackend(stripe.ConnectBackend),
		Uploads: stripe.GetBackend(stripe.UploadsBackend),
	})
	return &apiClient{sc: sc}
}

// Expand lists per object kind. A payment intent is always fetched with
// its latest charge and fraud review; a subscription with its latest
// invoice down to that invoice's payment intent, review and charge. This
// keeps every reconciliation to exactly one authoritative query.
func (a *apiClient) PaymentIntent(ctx context.Context, id string) (*domain.PaymentIntentSnapshot, error) {
	params := &stripe.PaymentIntentParams{Params: stripe.Params{Context: ctx}}
	params.AddExpand("latest_charge")
	params.AddExpand("review")
	pi, err := a.sc.PaymentIntents.Get(id, params)
	if err != nil {
		return nil, err
	}
	return intentSnapshot(pi), nil
}

func (a *apiClient) Charge(ctx context.Context, id string) (*domain.ChargeSnapshot, error) {
	params := &stripe.ChargeParams{Params: stripe.Params{Context: ctx}}
	ch, err := a.sc.Charges.Get(id, params)
	if err != nil {
		return nil, err
	}
	return chargeSnapshot(ch), nil
}

func (a *apiClient) CheckoutSession(ctx context.Context, id string) (*domain.CheckoutSessionSnapshot, error) {
	params := &stripe.CheckoutSessionParams{Params: stripe.Params{Context: ctx}}
	sess, err := a.sc.CheckoutSessions.Get(id, params)
	if err != nil {
		return nil, err
	}
	return sessionSnapshot(sess), nil
}

func (a *apiClient) Subscription(ctx context.Context, id string) (*domain.SubscriptionSnapshot, error) {
	params := &stripe.SubscriptionParams{Params: stripe.Params{Context: ctx}}
	params.AddExpand("latest_invoice")
	params.AddExpand("latest_invoice.payment_intent")
	params.AddExpand("latest_invoice.payment_intent.review")
	params.AddExpand("latest_invoice.charge")
	sub, err := a.sc.Subscriptions.Get(id, params)
	if err != nil {
		return nil, err
	}
	return subscriptionSnapshot(sub), nil
}

func (a *apiClient) Invoice(ctx context.Context, id string) (*domain.InvoiceSnapshot, error) {
	params := &stripe.InvoiceParams{Params: stripe.Params{Context: ctx}}
	params.AddExpand("payment_intent")
	params.AddExpand("payment_intent.review")
	params.AddExpand("charge")
	inv, err := a.sc.Invoices.Get(id, params)
	if err != nil {
		return nil, err
	}
	return invoiceSnapshot(inv), nil
}

func (a *apiClient) Review(ctx context.Context, id string) (*domain.ReviewSnapshot, error) {
	params := &stripe.ReviewParams{Params: stripe.Params{Context: ctx}}
	rev, err := a.sc.Reviews.Get(id, params)
	if err != nil {
		return nil, err
	}
	return reviewSnapshot(rev), nil
}

func (a *apiClient) CreateCustomer(ctx context.Context, profile customerProfile) (string, error) {
	params := customerParams(ctx, profile)
	params.SetIdempotencyKey(uuid.NewString())
	cust, err := a.sc.Customers.New(params)
	if err != nil {
		return "", err
	}
	return cust.ID, nil
}

func (a *apiClient) UpdateCustomer(ctx context.Context, id string, profile customerProfile) (string, error) {
	cust, err := a.sc.Customers.Update(id, customerParams(ctx, profile))
	if err != nil {
		return "", err
	}
	return cust.ID, nil
}

func (a *apiClient) ListActiveTaxRates(ctx context.Context) ([]domain.TaxRate, error) {
	params := &stripe.TaxRateListParams{
		ListParams: stripe.ListParams{Context: ctx},
		Active:     stripe.Bool(true),
	}
	var rates []domain.TaxRate
	iter := a.sc.TaxRates.List(params)
	for iter.Next() {
		tr := iter.TaxRate()
		rates = append(rates, domain.TaxRate{
			ID:          tr.ID,
			DisplayName: tr.DisplayName,
			Percentage:  tr.Percentage,
			Inclusive:   tr.Inclusive,
		})
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return rates, nil
}

func (a *apiClient) CreateTaxRate(ctx context.Context, displayName string, percentage float64, inclusive bool) (domain.TaxRate, error) {
	params := &stripe.TaxRateParams{
		Params:      stripe.Params{Context: ctx},
		DisplayName: stripe.String(displayName),
		Percentage:  stripe.Float64(percentage),
		Inclusive:   stripe.Bool(inclusive),
	}
	params.SetIdempotencyKey(uuid.NewString())
	tr, err := a.sc.TaxRates.New(params)
	if err != nil {
		return domain.TaxRate{}, err
	}
	return domain.TaxRate{
		ID:          tr.ID,
		DisplayName: tr.DisplayName,
		Percentage:  tr.Percentage,
		Inclusive:   tr.Inclusive,
	}, nil
}

func (a *apiClient) CreateCheckoutSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	params.Context = ctx
	params.SetIdempotencyKey(uuid.NewString())
	return a.sc.CheckoutSessions.New(params)
}

func (a *apiClient) CreatePaymentIntent(ctx context.Context, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	params.Context = ctx
	params.SetIdempotencyKey(uuid.NewString())
	return a.sc.PaymentIntents.New(params)
}

func (a *apiClient) CapturePaymentIntent(ctx context.Context, id string, amount int64) (*domain.PaymentIntentSnapshot, error) {
	params := &stripe.PaymentIntentCaptureParams{
		Params:          stripe.Params{Context: ctx},
		AmountToCapture: stripe.Int64(amount),
	}
	params.AddExpand("latest_charge")
	params.AddExpand("review")
	pi, err := a.sc.PaymentIntents.Capture(id, params)
	if err != nil {
		return nil, err
	}
	return intentSnapshot(pi), nil
}

func (a *apiClient) CancelPaymentIntent(ctx context.Context, id string) (*domain.PaymentIntentSnapshot, error) {
	params := &stripe.PaymentIntentCancelParams{Params: stripe.Params{Context: ctx}}
	pi, err := a.sc.PaymentIntents.Cancel(id, params)
	if err != nil {
		return nil, err
	}
	return intentSnapshot(pi), nil
}

func (a *apiClient) CreateRefund(ctx context.Context, chargeID string, amount int64) (*domain.ChargeSnapshot, error) {
	params := &stripe.RefundParams{
		Params: stripe.Params{Context: ctx},
		Charge: stripe.String(chargeID),
		Amount: stripe.Int64(amount),
	}
	params.AddExpand("charge")
	params.SetIdempotencyKey(uuid.NewString())
	refund, err := a.sc.Refunds.New(params)
	if err != nil {
		return nil, err
	}
	if refund.Charge != nil && refund.Charge.Currency != "" {
		return chargeSnapshot(refund.Charge), nil
	}
	// Expansion can come back as a bare id; fetch the charge for its
	// post-refund flags.
	refreshID := chargeID
	if refund.Charge != nil {
		refreshID = refund.Charge.ID
	}
	return a.Charge(ctx, refreshID)
}

func (a *apiClient) CancelSubscription(ctx context.Context, id string) error {
	params := &stripe.SubscriptionCancelParams{
		Params:     stripe.Params{Context: ctx},
		InvoiceNow: stripe.Bool(false),
		Prorate:    stripe.Bool(false),
	}
	_, err := a.sc.Subscriptions.Cancel(id, params)
	return err
}

func customerParams(ctx context.Context, profile customerProfile) *stripe.CustomerParams {
	params := &stripe.CustomerParams{
		Params:      stripe.Params{Context: ctx},
		Name:        stripe.String(profile.Name),
		Email:       stripe.String(profile.Email),
		Description: stripe.String(profile.Description),
		Address: &stripe.AddressParams{
			Line1:      stripe.String(profile.AddressLine1),
			Line2:      stripe.String(profile.AddressLine2),
			City:       stripe.String(profile.City),
			State:      stripe.String(profile.State),
			PostalCode: stripe.String(profile.PostalCode),
			Country:    stripe.String(profile.Country),
		},
	}
	// Billing country and zip ride along as metadata so Radar rules can
	// compare them against the card country.
	params.AddMetadata("billingCountry", profile.Country)
	params.AddMetadata("billingZipCode", profile.PostalCode)
	return params
}
