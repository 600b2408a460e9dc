package stripe

import (
	stripe "github.com/stripe/stripe-go/v81"

	"github.com/tillworkslabs/stripe-gateway/internal/provider/domain"
)

// Conversions from stripe-go objects to the minimal snapshot types the
// status mapper consumes. Unexpanded expandable fields arrive as structs
// holding only an id; those are treated as absent where the mapper needs
// real state.

func chargeSnapshot(ch *stripe.Charge) *domain.ChargeSnapshot {
	if ch == nil {
		return nil
	}
	snap := &domain.ChargeSnapshot{
		ID:       ch.ID,
		Paid:     ch.Paid,
		Captured: ch.Captured,
		Refunded: ch.Refunded,
		Amount:   ch.Amount,
		Currency: string(ch.Currency),
	}
	if ch.PaymentMethodDetails != nil && ch.PaymentMethodDetails.Card != nil {
		snap.CardCountry = ch.PaymentMethodDetails.Card.Country
	}
	return snap
}

func reviewSnapshot(rev *stripe.Review) *domain.ReviewSnapshot {
	if rev == nil {
		return nil
	}
	snap := &domain.ReviewSnapshot{
		ID:   rev.ID,
		Open: rev.Open,
	}
	if rev.PaymentIntent != nil {
		snap.PaymentIntentID = rev.PaymentIntent.ID
	}
	return snap
}

func intentSnapshot(pi *stripe.PaymentIntent) *domain.PaymentIntentSnapshot {
	if pi == nil {
		return nil
	}
	snap := &domain.PaymentIntentSnapshot{
		ID:           pi.ID,
		Status:       string(pi.Status),
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
		LatestCharge: chargeSnapshot(pi.LatestCharge),
		Review:       reviewSnapshot(pi.Review),
	}
	if pi.Customer != nil {
		snap.CustomerID = pi.Customer.ID
	}
	if pi.Metadata != nil {
		snap.OrderReference = pi.Metadata["orderReference"]
	}
	return snap
}

func sessionSnapshot(sess *stripe.CheckoutSession) *domain.CheckoutSessionSnapshot {
	if sess == nil {
		return nil
	}
	snap := &domain.CheckoutSessionSnapshot{
		ID:                sess.ID,
		Mode:              string(sess.Mode),
		ClientReferenceID: sess.ClientReferenceID,
	}
	if sess.Customer != nil {
		snap.CustomerID = sess.Customer.ID
	}
	if sess.PaymentIntent != nil {
		snap.PaymentIntentID = sess.PaymentIntent.ID
	}
	if sess.Subscription != nil {
		snap.SubscriptionID = sess.Subscription.ID
	}
	return snap
}

func invoiceSnapshot(inv *stripe.Invoice) *domain.InvoiceSnapshot {
	if inv == nil {
		return nil
	}
	snap := &domain.InvoiceSnapshot{
		ID:     inv.ID,
		Status: string(inv.Status),
	}
	if inv.Charge != nil {
		snap.ChargeID = inv.Charge.ID
		// Only a real expansion carries the paid/captured flags.
		if inv.Charge.Currency != "" {
			snap.Charge = chargeSnapshot(inv.Charge)
		}
	}
	if inv.PaymentIntent != nil && inv.PaymentIntent.Status != "" {
		snap.PaymentIntent = intentSnapshot(inv.PaymentIntent)
	}
	return snap
}

func subscriptionSnapshot(sub *stripe.Subscription) *domain.SubscriptionSnapshot {
	if sub == nil {
		return nil
	}
	return &domain.SubscriptionSnapshot{
		ID:            sub.ID,
		LatestInvoice: invoiceSnapshot(sub.LatestInvoice),
	}
}
