package stripe

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	stripe "github.com/stripe/stripe-go/v81"

	"github.com/tillworkslabs/stripe-gateway/internal/provider/domain"
)

// Order line properties the checkout builder understands.
const (
	propIsRecurring            = "isRecurring"
	propPriceID                = "stripePriceId"
	propPriceIncludesTax       = "stripePriceIncludesTax"
	propProductID              = "stripeProductId"
	propRecurringInterval      = "stripeRecurringInterval"
	propRecurringIntervalCount = "stripeRecurringIntervalCount"
)

const subscriptionTaxName = "Subscription Tax"

// BuildCheckout provisions the Stripe customer and creates a hosted
// checkout session for the order. Recurring order lines become
// subscription line items; whatever part of the order total they do not
// cover is added as a single one-time line item.
func (p *Provider) BuildCheckout(ctx context.Context, settings domain.CheckoutSettings, order *domain.Order) (*domain.CheckoutResult, error) {
	api := p.newAPI(settings.SecretKey())
	state := newRequestState()

	customerID, err := ensureCustomer(ctx, api, settings, order)
	if err != nil {
		return nil, fmt.Errorf("ensure customer: %w", err)
	}

	metadata := orderMetadata(settings, order)

	var (
		lineItems      []*stripe.CheckoutSessionLineItemParams
		hasRecurring   bool
		recurringTotal int64
	)

	for _, line := range order.Lines {
		if !propertyTrue(line.Properties, propIsRecurring) {
			continue
		}

		item, err := p.recurringLineItem(ctx, api, state, order, line)
		if err != nil {
			return nil, err
		}
		lineItems = append(lineItems, item)

		recurringTotal += line.TotalWithTax
		hasRecurring = true
	}

	if recurringTotal < order.TotalAmount {
		lineItems = append(lineItems, oneTimeLineItem(settings, order, hasRecurring, order.TotalAmount-recurringTotal))
	}

	if settings.OrderImage != "" && len(lineItems) > 0 &&
		lineItems[0].PriceData != nil && lineItems[0].PriceData.ProductData != nil {
		lineItems[0].PriceData.ProductData.Images = stripe.StringSlice([]string{settings.OrderImage})
	}

	mode := stripe.CheckoutSessionModePayment
	if hasRecurring {
		mode = stripe.CheckoutSessionModeSubscription
	}

	params := &stripe.CheckoutSessionParams{
		Customer:           stripe.String(customerID),
		PaymentMethodTypes: stripe.StringSlice(settings.PaymentMethodTypeList()),
		LineItems:          lineItems,
		Mode:               stripe.String(string(mode)),
		ClientReferenceID:  stripe.String(order.Reference),
		SuccessURL:         stripe.String(settings.ContinueURL),
		CancelURL:          stripe.String(settings.CancelURL),
		Locale:             stripe.String(bestMatchLocale(order.LanguageCode)),
	}

	if hasRecurring {
		params.SubscriptionData = &stripe.CheckoutSessionSubscriptionDataParams{
			Metadata: metadata,
		}
	} else {
		captureMethod := "manual"
		if settings.Capture {
			captureMethod = "automatic"
		}
		params.PaymentIntentData = &stripe.CheckoutSessionPaymentIntentDataParams{
			CaptureMethod: stripe.String(captureMethod),
			Metadata:      metadata,
		}
		if settings.SendReceipt {
			params.PaymentIntentData.ReceiptEmail = stripe.String(order.Customer.Email)
		}
	}

	sess, err := api.CreateCheckoutSession(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}

	sessionCustomerID := customerID
	if sess.Customer != nil && sess.Customer.ID != "" {
		sessionCustomerID = sess.Customer.ID
	}

	return &domain.CheckoutResult{
		SessionID:   sess.ID,
		CustomerID:  sessionCustomerID,
		RedirectURL: sess.URL,
		PublicKey:   settings.PublicKey(),
		Metadata: map[string]string{
			domain.MetaSessionID:  sess.ID,
			domain.MetaCustomerID: sessionCustomerID,
		},
	}, nil
}

func (p *Provider) recurringLineItem(ctx context.Context, api remoteAPI, state *requestState, order *domain.Order, line domain.OrderLine) (*stripe.CheckoutSessionLineItemParams, error) {
	taxPercentage := line.TaxRate * 100

	if priceID := line.Property(propPriceID); priceID != "" {
		// A pre-defined Stripe price carries its own amount, which may
		// drift from the amount shown on the site. We still own the tax,
		// so a rate matching the price's inclusive flag is attached.
		item := &stripe.CheckoutSessionLineItemParams{
			Price:    stripe.String(priceID),
			Quantity: stripe.Int64(line.Quantity),
		}
		inclusive := propertyTrue(line.Properties, propPriceIncludesTax)
		taxRate, err := ensureTaxRate(ctx, api, state, subscriptionTaxName, taxPercentage, inclusive)
		if err != nil {
			return nil, fmt.Errorf("ensure tax rate: %w", err)
		}
		item.TaxRates = stripe.StringSlice([]string{taxRate.ID})
		return item, nil
	}

	// No pre-defined price: build price_data on the fly from the line's
	// ex-tax unit amount and let Stripe apply the tax rate.
	quantity := line.Quantity
	if quantity <= 0 {
		quantity = 1
	}
	priceData := &stripe.CheckoutSessionLineItemPriceDataParams{
		Currency:   stripe.String(order.CurrencyCode),
		UnitAmount: stripe.Int64(line.TotalWithoutTax / quantity),
		Recurring: &stripe.CheckoutSessionLineItemPriceDataRecurringParams{
			Interval:      stripe.String(strings.ToLower(line.Property(propRecurringInterval))),
			IntervalCount: stripe.Int64(recurringIntervalCount(line)),
		},
	}

	if productID := line.Property(propProductID); productID != "" {
		priceData.Product = stripe.String(productID)
	} else {
		priceData.ProductData = &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(line.Name),
			Metadata: map[string]string{
				"productReference": line.ProductReference,
			},
		}
	}

	item := &stripe.CheckoutSessionLineItemParams{
		PriceData: priceData,
		Quantity:  stripe.Int64(line.Quantity),
	}
	taxRate, err := ensureTaxRate(ctx, api, state, subscriptionTaxName, taxPercentage, false)
	if err != nil {
		return nil, fmt.Errorf("ensure tax rate: %w", err)
	}
	item.TaxRates = stripe.StringSlice([]string{taxRate.ID})
	return item, nil
}

func oneTimeLineItem(settings domain.CheckoutSettings, order *domain.Order, hasRecurring bool, amount int64) *stripe.CheckoutSessionLineItemParams {
	var name string
	switch {
	case hasRecurring && settings.OneTimeItemsHeading != "":
		name = settings.OneTimeItemsHeading
	case hasRecurring:
		name = "One time items (inc Tax)"
	case settings.OrderHeading != "":
		name = settings.OrderHeading
	default:
		name = "#" + order.OrderNumber
	}

	productData := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
		Name: stripe.String(name),
	}
	if hasRecurring || settings.OrderHeading != "" {
		productData.Description = stripe.String("#" + order.OrderNumber)
	}

	return &stripe.CheckoutSessionLineItemParams{
		PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
			Currency:    stripe.String(order.CurrencyCode),
			UnitAmount:  stripe.Int64(amount),
			ProductData: productData,
		},
		Quantity: stripe.Int64(1),
	}
}

// orderMetadata builds the metadata attached to the session's intent or
// subscription: the order reference plus any order properties the
// settings ask to mirror.
func orderMetadata(settings domain.CheckoutSettings, order *domain.Order) map[string]string {
	metadata := map[string]string{
		"orderReference": order.Reference,
		"orderNumber":    order.OrderNumber,
	}
	for _, alias := range settings.OrderPropertyAliases() {
		if value := order.Property(alias); value != "" {
			metadata[alias] = value
		}
	}
	return metadata
}

func propertyTrue(props map[string]string, key string) bool {
	value := strings.TrimSpace(props[key])
	return value == "1" || strings.EqualFold(value, "true")
}

func recurringIntervalCount(line domain.OrderLine) int64 {
	count, err := strconv.ParseInt(line.Property(propRecurringIntervalCount), 10, 64)
	if err != nil || count <= 0 {
		return 1
	}
	return count
}
