package stripe

import (
	"context"
	"fmt"

	stripe "github.com/stripe/stripe-go/v81"
	"go.uber.org/zap"

	"github.com/tillworkslabs/stripe-gateway/internal/provider/domain"
)

// CreateIntent provisions the customer and creates a payment intent for
// client-side completion, bypassing the hosted page.
func (p *Provider) CreateIntent(ctx context.Context, settings domain.CheckoutSettings, order *domain.Order) (*domain.PaymentIntentResult, error) {
	api := p.newAPI(settings.SecretKey())

	customerID, err := ensureCustomer(ctx, api, settings, order)
	if err != nil {
		return nil, fmt.Errorf("ensure customer: %w", err)
	}

	captureMethod := "manual"
	if settings.Capture {
		captureMethod = "automatic"
	}

	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(order.TotalAmount),
		Currency:           stripe.String(order.CurrencyCode),
		Customer:           stripe.String(customerID),
		PaymentMethodTypes: stripe.StringSlice(settings.PaymentMethodTypeList()),
		CaptureMethod:      stripe.String(captureMethod),
	}
	for k, v := range orderMetadata(settings, order) {
		params.AddMetadata(k, v)
	}
	if settings.SendReceipt {
		params.ReceiptEmail = stripe.String(order.Customer.Email)
	}

	intent, err := api.CreatePaymentIntent(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}

	return &domain.PaymentIntentResult{
		ID:           intent.ID,
		ClientSecret: intent.ClientSecret,
	}, nil
}

// FetchStatus re-derives the transaction status from the order's payment
// intent, falling back to its charge. Orders with neither id have no
// remote state to consult, so the result is a nil update.
func (p *Provider) FetchStatus(ctx context.Context, settings domain.CheckoutSettings, order *domain.Order) (*domain.TransactionUpdate, error) {
	api := p.newAPI(settings.SecretKey())

	if intentID := order.Property(domain.MetaPaymentIntentID); intentID != "" {
		intent, err := api.PaymentIntent(ctx, intentID)
		if err != nil {
			return nil, fmt.Errorf("%w: payment intent %s: %v", domain.ErrRemoteFetch, intentID, err)
		}
		return intentUpdate(intent), nil
	}

	if chargeID := order.Property(domain.MetaChargeID); chargeID != "" {
		charge, err := api.Charge(ctx, chargeID)
		if err != nil {
			return nil, fmt.Errorf("%w: charge %s: %v", domain.ErrRemoteFetch, chargeID, err)
		}
		return chargeUpdate(charge), nil
	}

	return nil, nil
}

// Capture settles the authorized hold for the full authorized amount.
func (p *Provider) Capture(ctx context.Context, settings domain.CheckoutSettings, order *domain.Order) (*domain.TransactionUpdate, error) {
	intentID := order.Property(domain.MetaPaymentIntentID)
	if intentID == "" {
		p.log.Warn("capture requested without payment intent id",
			zap.String("order_reference", order.Reference))
		return nil, nil
	}

	api := p.newAPI(settings.SecretKey())
	intent, err := api.CapturePaymentIntent(ctx, intentID, order.Transaction.AmountAuthorized)
	if err != nil {
		return nil, fmt.Errorf("capture payment intent %s: %w", intentID, err)
	}

	update := intentUpdate(intent)
	if intent.LatestCharge != nil {
		update.Metadata = map[string]string{
			domain.MetaChargeID: intent.LatestCharge.ID,
		}
		if intent.LatestCharge.CardCountry != "" {
			update.Metadata[domain.MetaCardCountry] = intent.LatestCharge.CardCountry
		}
	}
	return update, nil
}

// Refund refunds the order's charge. A non-positive amount means a full
// refund of the authorized amount, plus the transaction fee when the
// store allows fees to be refunded. A subscription attached to the order
// is cancelled alongside the refund so it stops billing.
func (p *Provider) Refund(ctx context.Context, settings domain.CheckoutSettings, order *domain.Order, amount int64) (*domain.TransactionUpdate, error) {
	chargeID := order.Property(domain.MetaChargeID)
	if chargeID == "" {
		p.log.Warn("refund requested without charge id",
			zap.String("order_reference", order.Reference))
		return nil, nil
	}

	if amount <= 0 {
		amount = refundableAmount(order)
	}

	api := p.newAPI(settings.SecretKey())
	charge, err := api.CreateRefund(ctx, chargeID, amount)
	if err != nil {
		return nil, fmt.Errorf("refund charge %s: %w", chargeID, err)
	}

	if subID := order.Property(domain.MetaSubscriptionID); subID != "" {
		if err := api.CancelSubscription(ctx, subID); err != nil {
			p.log.Warn("failed to cancel subscription after refund",
				zap.String("order_reference", order.Reference),
				zap.String("subscription_id", subID),
				zap.Error(err))
		}
	}

	return chargeUpdate(charge), nil
}

// Cancel voids an uncaptured payment intent. Once the money has settled
// into a charge there is nothing left to void, so cancellation degrades
// to a full refund of that charge.
func (p *Provider) Cancel(ctx context.Context, settings domain.CheckoutSettings, order *domain.Order) (*domain.TransactionUpdate, error) {
	if intentID := order.Property(domain.MetaPaymentIntentID); intentID != "" {
		api := p.newAPI(settings.SecretKey())
		intent, err := api.CancelPaymentIntent(ctx, intentID)
		if err != nil {
			return nil, fmt.Errorf("cancel payment intent %s: %w", intentID, err)
		}
		return intentUpdate(intent), nil
	}

	if order.Property(domain.MetaChargeID) != "" {
		return p.Refund(ctx, settings, order, refundableAmount(order))
	}

	p.log.Warn("cancel requested without payment intent or charge id",
		zap.String("order_reference", order.Reference))
	return nil, nil
}

func refundableAmount(order *domain.Order) int64 {
	amount := order.Transaction.AmountAuthorized
	if order.CanRefundTransactionFee {
		amount += order.TransactionFee
	}
	return amount
}

func intentUpdate(intent *domain.PaymentIntentSnapshot) *domain.TransactionUpdate {
	return &domain.TransactionUpdate{
		TransactionID: intentTransactionID(intent),
		Status:        intentStatus(intent),
	}
}

func chargeUpdate(charge *domain.ChargeSnapshot) *domain.TransactionUpdate {
	return &domain.TransactionUpdate{
		TransactionID: charge.ID,
		Status:        chargeStatus(charge),
	}
}
