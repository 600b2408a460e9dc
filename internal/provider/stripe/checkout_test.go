package stripe

import (
	"context"
	"testing"

	stripe "github.com/stripe/stripe-go/v81"
	"github.com/stretchr/testify/require"

	"github.com/tillworkslabs/stripe-gateway/internal/provider/domain"
)

func simpleOrder() *domain.Order {
	return &domain.Order{
		Reference:    "order-1",
		OrderNumber:  "ORDER-42",
		CurrencyCode: "dkk",
		LanguageCode: "da",
		TotalAmount:  10_000,
		Customer:     domain.CustomerInfo{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"},
		Lines: []domain.OrderLine{
			{Name: "T-shirt", ProductReference: "tshirt", Quantity: 2, TotalWithTax: 10_000, TotalWithoutTax: 8000},
		},
	}
}

func TestBuildCheckoutOneTimeOrder(t *testing.T) {
	api := newFakeAPI()
	p := testProvider(api)

	settings := domain.CheckoutSettings{
		ContinueURL: "https://shop.example/continue",
		CancelURL:   "https://shop.example/cancel",
		Capture:     false,
		SendReceipt: true,
	}

	result, err := p.BuildCheckout(context.Background(), settings, simpleOrder())
	require.NoError(t, err)
	require.Equal(t, "cs_test_1", result.SessionID)
	require.Equal(t, "https://checkout.stripe.com/pay/cs_test_1", result.RedirectURL)
	require.Equal(t, result.SessionID, result.Metadata[domain.MetaSessionID])
	require.Equal(t, result.CustomerID, result.Metadata[domain.MetaCustomerID])

	params := api.createdSessionParams
	require.NotNil(t, params)
	require.Equal(t, string(stripe.CheckoutSessionModePayment), *params.Mode)
	require.Equal(t, "order-1", *params.ClientReferenceID)
	require.Equal(t, "https://shop.example/continue", *params.SuccessURL)
	require.Equal(t, "https://shop.example/cancel", *params.CancelURL)
	require.Equal(t, "da", *params.Locale)
	require.Equal(t, []string{"card"}, stripeStringValues(params.PaymentMethodTypes))
}

func TestBuildCheckoutPaymentIntentData(t *testing.T) {
	api := newFakeAPI()
	p := testProvider(api)

	settings := domain.CheckoutSettings{
		ContinueURL: "https://shop.example/continue",
		CancelURL:   "https://shop.example/cancel",
		Capture:     false,
		SendReceipt: true,
	}

	_, err := p.BuildCheckout(context.Background(), settings, simpleOrder())
	require.NoError(t, err)

	params := api.createdSessionParams
	require.NotNil(t, params.PaymentIntentData)
	require.Nil(t, params.SubscriptionData)
	require.Equal(t, "manual", *params.PaymentIntentData.CaptureMethod)
	require.Equal(t, "ada@example.com", *params.PaymentIntentData.ReceiptEmail)
	require.Equal(t, "order-1", params.PaymentIntentData.Metadata["orderReference"])
	require.Equal(t, "ORDER-42", params.PaymentIntentData.Metadata["orderNumber"])

	// One line item covering the full order total.
	require.Len(t, params.LineItems, 1)
	item := params.LineItems[0]
	require.Equal(t, int64(10_000), *item.PriceData.UnitAmount)
	require.Equal(t, "#ORDER-42", *item.PriceData.ProductData.Name)
}

func TestBuildCheckoutRecurringOrder(t *testing.T) {
	api := newFakeAPI()
	p := testProvider(api)

	order := simpleOrder()
	order.Lines = []domain.OrderLine{
		{
			Name:             "Monthly plan",
			ProductReference: "plan",
			Quantity:         1,
			TaxRate:          0.25,
			TotalWithTax:     6000,
			TotalWithoutTax:  4800,
			Properties: map[string]string{
				"isRecurring":             "1",
				"stripeRecurringInterval": "Month",
			},
		},
		{Name: "Setup", ProductReference: "setup", Quantity: 1, TotalWithTax: 4000, TotalWithoutTax: 3200},
	}

	settings := domain.CheckoutSettings{
		ContinueURL: "https://shop.example/continue",
		CancelURL:   "https://shop.example/cancel",
	}

	_, err := p.BuildCheckout(context.Background(), settings, order)
	require.NoError(t, err)

	params := api.createdSessionParams
	require.Equal(t, string(stripe.CheckoutSessionModeSubscription), *params.Mode)
	require.NotNil(t, params.SubscriptionData)
	require.Nil(t, params.PaymentIntentData)
	require.Equal(t, "order-1", params.SubscriptionData.Metadata["orderReference"])

	require.Len(t, params.LineItems, 2)

	recurring := params.LineItems[0]
	require.Equal(t, int64(4800), *recurring.PriceData.UnitAmount)
	require.Equal(t, "month", *recurring.PriceData.Recurring.Interval)
	require.Equal(t, int64(1), *recurring.PriceData.Recurring.IntervalCount)
	require.Equal(t, "Monthly plan", *recurring.PriceData.ProductData.Name)
	require.Len(t, recurring.TaxRates, 1)

	// Remainder line: order total minus recurring total, tax inclusive.
	remainder := params.LineItems[1]
	require.Equal(t, int64(4000), *remainder.PriceData.UnitAmount)
	require.Equal(t, "One time items (inc Tax)", *remainder.PriceData.ProductData.Name)
	require.Equal(t, "#ORDER-42", *remainder.PriceData.ProductData.Description)

	// Tax rate created once: 25% exclusive.
	require.Equal(t, 1, api.calls["CreateTaxRate"])
	require.Equal(t, float64(25), api.taxRates[0].Percentage)
	require.False(t, api.taxRates[0].Inclusive)
}

func TestBuildCheckoutPredefinedPrice(t *testing.T) {
	api := newFakeAPI()
	p := testProvider(api)

	order := simpleOrder()
	order.TotalAmount = 6000
	order.Lines = []domain.OrderLine{
		{
			Name:         "Yearly plan",
			Quantity:     1,
			TaxRate:      0.25,
			TotalWithTax: 6000,
			Properties: map[string]string{
				"isRecurring":            "true",
				"stripePriceId":          "price_123",
				"stripePriceIncludesTax": "true",
			},
		},
	}

	_, err := p.BuildCheckout(context.Background(), domain.CheckoutSettings{}, order)
	require.NoError(t, err)

	params := api.createdSessionParams
	require.Len(t, params.LineItems, 1)
	item := params.LineItems[0]
	require.Equal(t, "price_123", *item.Price)
	require.Nil(t, item.PriceData)
	require.True(t, api.taxRates[0].Inclusive)
}

func TestBuildCheckoutOrderImage(t *testing.T) {
	api := newFakeAPI()
	p := testProvider(api)

	settings := domain.CheckoutSettings{
		OrderImage: "https://shop.example/order.png",
	}

	_, err := p.BuildCheckout(context.Background(), settings, simpleOrder())
	require.NoError(t, err)

	item := api.createdSessionParams.LineItems[0]
	require.Equal(t, []string{"https://shop.example/order.png"}, stripeStringValues(item.PriceData.ProductData.Images))
}

func TestBestMatchLocale(t *testing.T) {
	require.Equal(t, "da", bestMatchLocale("da"))
	require.Equal(t, "en-GB", bestMatchLocale("en-gb"))
	require.Equal(t, "de", bestMatchLocale("de-AT"))
	require.Equal(t, "auto", bestMatchLocale("xx"))
	require.Equal(t, "auto", bestMatchLocale(""))
}

func stripeStringValues(in []*string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		out = append(out, *s)
	}
	return out
}
