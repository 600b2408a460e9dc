package stripe

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/tillworkslabs/stripe-gateway/internal/provider/domain"
)

// ReconcileEvent maps a normalized webhook event to a canonical outcome by
// fetching the referenced object's current remote state. Duplicate and
// out-of-order deliveries are safe: status is recomputed from remote truth
// on every pass, so reprocessing an event yields the same outcome.
//
// Signature failures never reach this method; remote fetch failures
// propagate as domain.ErrRemoteFetch so the HTTP layer can signal a
// retryable condition. Everything else that cannot produce an outcome is
// logged and returned as (nil, nil).
func (p *Provider) ReconcileEvent(ctx context.Context, settings domain.CheckoutSettings, ev domain.CanonicalEvent) (*domain.Outcome, error) {
	if ev.Kind == domain.EventKindUnknown {
		return nil, nil
	}

	api := p.newAPI(settings.SecretKey())

	switch ev.Kind {
	case domain.EventKindPaymentSucceeded:
		return p.reconcilePaymentIntent(ctx, api, ev)
	case domain.EventKindCheckoutCompleted:
		return p.reconcileCheckoutSession(ctx, api, ev)
	case domain.EventKindReviewClosed:
		return p.reconcileReviewClosed(ctx, api, ev)
	default:
		return nil, nil
	}
}

func (p *Provider) reconcilePaymentIntent(ctx context.Context, api remoteAPI, ev domain.CanonicalEvent) (*domain.Outcome, error) {
	if ev.ObjectKind != domain.ObjectKindPaymentIntent {
		p.log.Warn("payment event references unexpected object kind",
			zap.String("event_id", ev.ID),
			zap.String("object_kind", string(ev.ObjectKind)))
		return nil, nil
	}

	intent, err := api.PaymentIntent(ctx, ev.ObjectID)
	if err != nil {
		return nil, fmt.Errorf("%w: payment intent %s: %v", domain.ErrRemoteFetch, ev.ObjectID, err)
	}

	return &domain.Outcome{
		OrderReference: intent.OrderReference,
		Transaction: domain.TransactionInfo{
			TransactionID:    intentTransactionID(intent),
			AmountAuthorized: intent.Amount,
			Status:           intentStatus(intent),
		},
		Metadata: intentMetadata(intent),
	}, nil
}

func (p *Provider) reconcileCheckoutSession(ctx context.Context, api remoteAPI, ev domain.CanonicalEvent) (*domain.Outcome, error) {
	if ev.ObjectKind != domain.ObjectKindCheckoutSession {
		p.log.Warn("checkout event references unexpected object kind",
			zap.String("event_id", ev.ID),
			zap.String("object_kind", string(ev.ObjectKind)))
		return nil, nil
	}

	sess, err := api.CheckoutSession(ctx, ev.ObjectID)
	if err != nil {
		return nil, fmt.Errorf("%w: checkout session %s: %v", domain.ErrRemoteFetch, ev.ObjectID, err)
	}

	switch sess.Mode {
	case "payment":
		return p.reconcilePaymentSession(ctx, api, sess)
	case "subscription":
		return p.reconcileSubscriptionSession(ctx, api, sess)
	default:
		p.log.Warn("completed session has unsupported mode",
			zap.String("session_id", sess.ID),
			zap.String("mode", sess.Mode))
		return nil, nil
	}
}

func (p *Provider) reconcilePaymentSession(ctx context.Context, api remoteAPI, sess *domain.CheckoutSessionSnapshot) (*domain.Outcome, error) {
	if sess.PaymentIntentID == "" {
		p.log.Warn("completed payment-mode session has no payment intent",
			zap.String("session_id", sess.ID))
		return nil, nil
	}

	intent, err := api.PaymentIntent(ctx, sess.PaymentIntentID)
	if err != nil {
		return nil, fmt.Errorf("%w: payment intent %s: %v", domain.ErrRemoteFetch, sess.PaymentIntentID, err)
	}

	metadata := intentMetadata(intent)
	metadata[domain.MetaSessionID] = sess.ID
	metadata[domain.MetaPaymentIntentID] = sess.PaymentIntentID
	if sess.CustomerID != "" {
		metadata[domain.MetaCustomerID] = sess.CustomerID
	}
	if sess.SubscriptionID != "" {
		metadata[domain.MetaSubscriptionID] = sess.SubscriptionID
	}

	return &domain.Outcome{
		OrderReference: orderReference(sess.ClientReferenceID, intent.OrderReference),
		Transaction: domain.TransactionInfo{
			TransactionID:    intentTransactionID(intent),
			AmountAuthorized: intent.Amount,
			Status:           intentStatus(intent),
		},
		Metadata: metadata,
	}, nil
}

func (p *Provider) reconcileSubscriptionSession(ctx context.Context, api remoteAPI, sess *domain.CheckoutSessionSnapshot) (*domain.Outcome, error) {
	if sess.SubscriptionID == "" {
		p.log.Warn("completed subscription-mode session has no subscription",
			zap.String("session_id", sess.ID))
		return nil, nil
	}

	sub, err := api.Subscription(ctx, sess.SubscriptionID)
	if err != nil {
		return nil, fmt.Errorf("%w: subscription %s: %v", domain.ErrRemoteFetch, sess.SubscriptionID, err)
	}

	invoice := sub.LatestInvoice
	if invoice == nil || (invoice.PaymentIntent == nil && invoice.Charge == nil) {
		// The session completed but no payment attempt has landed on the
		// invoice yet; a later invoice event will carry the money. Not an
		// error, just nothing to persist.
		p.log.Info("subscription session has no resolvable payment yet",
			zap.String("session_id", sess.ID),
			zap.String("subscription_id", sess.SubscriptionID))
		return nil, nil
	}

	metadata := map[string]string{
		domain.MetaSessionID:      sess.ID,
		domain.MetaSubscriptionID: sess.SubscriptionID,
		domain.MetaChargeID:       invoice.ChargeID,
	}
	if sess.CustomerID != "" {
		metadata[domain.MetaCustomerID] = sess.CustomerID
	}

	var amount int64
	if invoice.PaymentIntent != nil {
		amount = invoice.PaymentIntent.Amount
		metadata[domain.MetaPaymentIntentID] = invoice.PaymentIntent.ID
	} else if invoice.Charge != nil {
		amount = invoice.Charge.Amount
	}
	if country := invoiceCardCountry(invoice); country != "" {
		metadata[domain.MetaCardCountry] = country
	}

	return &domain.Outcome{
		OrderReference: sess.ClientReferenceID,
		Transaction: domain.TransactionInfo{
			TransactionID:    invoice.ChargeID,
			AmountAuthorized: amount,
			Status:           invoiceStatus(invoice),
		},
		Metadata: metadata,
	}, nil
}

// reconcileReviewClosed re-fetches the reviewed payment intent and reports
// its live status. Review closure can confirm or release a hold; the
// intent, not the review event, is authoritative. No metadata changes.
func (p *Provider) reconcileReviewClosed(ctx context.Context, api remoteAPI, ev domain.CanonicalEvent) (*domain.Outcome, error) {
	if ev.ObjectKind != domain.ObjectKindReview {
		return nil, nil
	}

	review, err := api.Review(ctx, ev.ObjectID)
	if err != nil {
		return nil, fmt.Errorf("%w: review %s: %v", domain.ErrRemoteFetch, ev.ObjectID, err)
	}
	if review.PaymentIntentID == "" {
		return nil, nil
	}

	intent, err := api.PaymentIntent(ctx, review.PaymentIntentID)
	if err != nil {
		return nil, fmt.Errorf("%w: payment intent %s: %v", domain.ErrRemoteFetch, review.PaymentIntentID, err)
	}

	return &domain.Outcome{
		OrderReference: intent.OrderReference,
		Transaction: domain.TransactionInfo{
			TransactionID:    intentTransactionID(intent),
			AmountAuthorized: intent.Amount,
			Status:           intentStatus(intent),
		},
	}, nil
}

func intentMetadata(intent *domain.PaymentIntentSnapshot) map[string]string {
	metadata := map[string]string{
		domain.MetaPaymentIntentID: intent.ID,
	}
	if intent.CustomerID != "" {
		metadata[domain.MetaCustomerID] = intent.CustomerID
	}
	if id := intentTransactionID(intent); id != "" {
		metadata[domain.MetaChargeID] = id
	}
	if intent.LatestCharge != nil && intent.LatestCharge.CardCountry != "" {
		metadata[domain.MetaCardCountry] = intent.LatestCharge.CardCountry
	}
	return metadata
}

func invoiceCardCountry(invoice *domain.InvoiceSnapshot) string {
	if invoice.Charge != nil && invoice.Charge.CardCountry != "" {
		return invoice.Charge.CardCountry
	}
	if invoice.PaymentIntent != nil && invoice.PaymentIntent.LatestCharge != nil {
		return invoice.PaymentIntent.LatestCharge.CardCountry
	}
	return ""
}

func orderReference(primary, fallback string) string {
	if primary != "" {
		return primary
	}
	return fallback
}
