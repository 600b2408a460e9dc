package stripe

import (
	"context"
	"fmt"

	stripe "github.com/stripe/stripe-go/v81"
	"go.uber.org/zap"

	"github.com/tillworkslabs/stripe-gateway/internal/provider/domain"
)

// fakeAPI is an in-memory remoteAPI with per-method call counters.
type fakeAPI struct {
	intents       map[string]*domain.PaymentIntentSnapshot
	charges       map[string]*domain.ChargeSnapshot
	sessions      map[string]*domain.CheckoutSessionSnapshot
	subscriptions map[string]*domain.SubscriptionSnapshot
	invoices      map[string]*domain.InvoiceSnapshot
	reviews       map[string]*domain.ReviewSnapshot

	taxRates []domain.TaxRate

	createdSessionParams *stripe.CheckoutSessionParams
	createdIntentParams  *stripe.PaymentIntentParams

	capturedIntentID string
	capturedAmount   int64
	refundedChargeID string
	refundedAmount   int64
	cancelledSubs    []string

	updatedCustomers []string

	calls map[string]int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		intents:       map[string]*domain.PaymentIntentSnapshot{},
		charges:       map[string]*domain.ChargeSnapshot{},
		sessions:      map[string]*domain.CheckoutSessionSnapshot{},
		subscriptions: map[string]*domain.SubscriptionSnapshot{},
		invoices:      map[string]*domain.InvoiceSnapshot{},
		reviews:       map[string]*domain.ReviewSnapshot{},
		calls:         map[string]int{},
	}
}

// testProvider wires a Provider to the fake.
func testProvider(api *fakeAPI) *Provider {
	return &Provider{
		log:    zap.NewNop(),
		newAPI: func(string) remoteAPI { return api },
	}
}

func (f *fakeAPI) count(name string) { f.calls[name]++ }

func (f *fakeAPI) PaymentIntent(_ context.Context, id string) (*domain.PaymentIntentSnapshot, error) {
	f.count("PaymentIntent")
	pi, ok := f.intents[id]
	if !ok {
		return nil, fmt.Errorf("no such intent %s", id)
	}
	return pi, nil
}

func (f *fakeAPI) Charge(_ context.Context, id string) (*domain.ChargeSnapshot, error) {
	f.count("Charge")
	ch, ok := f.charges[id]
	if !ok {
		return nil, fmt.Errorf("no such charge %s", id)
	}
	return ch, nil
}

func (f *fakeAPI) CheckoutSession(_ context.Context, id string) (*domain.CheckoutSessionSnapshot, error) {
	f.count("CheckoutSession")
	sess, ok := f.sessions[id]
	if !ok {
		return nil, fmt.Errorf("no such session %s", id)
	}
	return sess, nil
}

func (f *fakeAPI) Subscription(_ context.Context, id string) (*domain.SubscriptionSnapshot, error) {
	f.count("Subscription")
	sub, ok := f.subscriptions[id]
	if !ok {
		return nil, fmt.Errorf("no such subscription %s", id)
	}
	return sub, nil
}

func (f *fakeAPI) Invoice(_ context.Context, id string) (*domain.InvoiceSnapshot, error) {
	f.count("Invoice")
	inv, ok := f.invoices[id]
	if !ok {
		return nil, fmt.Errorf("no such invoice %s", id)
	}
	return inv, nil
}

func (f *fakeAPI) Review(_ context.Context, id string) (*domain.ReviewSnapshot, error) {
	f.count("Review")
	rev, ok := f.reviews[id]
	if !ok {
		return nil, fmt.Errorf("no such review %s", id)
	}
	return rev, nil
}

func (f *fakeAPI) CreateCustomer(_ context.Context, _ customerProfile) (string, error) {
	f.count("CreateCustomer")
	return fmt.Sprintf("cus_new_%d", f.calls["CreateCustomer"]), nil
}

func (f *fakeAPI) UpdateCustomer(_ context.Context, id string, _ customerProfile) (string, error) {
	f.count("UpdateCustomer")
	f.updatedCustomers = append(f.updatedCustomers, id)
	return id, nil
}

func (f *fakeAPI) ListActiveTaxRates(_ context.Context) ([]domain.TaxRate, error) {
	f.count("ListActiveTaxRates")
	return f.taxRates, nil
}

func (f *fakeAPI) CreateTaxRate(_ context.Context, displayName string, percentage float64, inclusive bool) (domain.TaxRate, error) {
	f.count("CreateTaxRate")
	tr := domain.TaxRate{
		ID:          fmt.Sprintf("txr_%d", f.calls["CreateTaxRate"]),
		DisplayName: displayName,
		Percentage:  percentage,
		Inclusive:   inclusive,
	}
	f.taxRates = append(f.taxRates, tr)
	return tr, nil
}

func (f *fakeAPI) CreateCheckoutSession(_ context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	f.count("CreateCheckoutSession")
	f.createdSessionParams = params
	return &stripe.CheckoutSession{
		ID:       "cs_test_1",
		URL:      "https://checkout.stripe.com/pay/cs_test_1",
		Customer: &stripe.Customer{ID: stripe.StringValue(params.Customer)},
	}, nil
}

func (f *fakeAPI) CreatePaymentIntent(_ context.Context, params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error) {
	f.count("CreatePaymentIntent")
	f.createdIntentParams = params
	return &stripe.PaymentIntent{
		ID:           "pi_new_1",
		ClientSecret: "pi_new_1_secret",
	}, nil
}

func (f *fakeAPI) CapturePaymentIntent(_ context.Context, id string, amount int64) (*domain.PaymentIntentSnapshot, error) {
	f.count("CapturePaymentIntent")
	pi, ok := f.intents[id]
	if !ok {
		return nil, fmt.Errorf("no such intent %s", id)
	}
	f.capturedIntentID = id
	f.capturedAmount = amount

	captured := *pi
	captured.Status = "succeeded"
	if pi.LatestCharge != nil {
		ch := *pi.LatestCharge
		ch.Captured = true
		captured.LatestCharge = &ch
	}
	f.intents[id] = &captured
	return &captured, nil
}

func (f *fakeAPI) CancelPaymentIntent(_ context.Context, id string) (*domain.PaymentIntentSnapshot, error) {
	f.count("CancelPaymentIntent")
	pi, ok := f.intents[id]
	if !ok {
		return nil, fmt.Errorf("no such intent %s", id)
	}
	cancelled := *pi
	cancelled.Status = "canceled"
	f.intents[id] = &cancelled
	return &cancelled, nil
}

func (f *fakeAPI) CreateRefund(_ context.Context, chargeID string, amount int64) (*domain.ChargeSnapshot, error) {
	f.count("CreateRefund")
	ch, ok := f.charges[chargeID]
	if !ok {
		return nil, fmt.Errorf("no such charge %s", chargeID)
	}
	f.refundedChargeID = chargeID
	f.refundedAmount = amount

	refunded := *ch
	refunded.Refunded = true
	f.charges[chargeID] = &refunded
	return &refunded, nil
}

func (f *fakeAPI) CancelSubscription(_ context.Context, id string) error {
	f.count("CancelSubscription")
	f.cancelledSubs = append(f.cancelledSubs, id)
	return nil
}
