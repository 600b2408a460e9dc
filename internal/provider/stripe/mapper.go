package stripe

import "github.com/tillworkslabs/stripe-gateway/internal/provider/domain"

// Status mapping is a pure function of a snapshot: the same snapshot
// always yields the same status, which is what makes webhook replay and
// out-of-order delivery safe.

// chargeStatus derives status from a charge's paid/captured/refunded
// flags. A refund of an uncaptured charge is a cancellation, not a
// refund: no capture ever happened.
func chargeStatus(ch *domain.ChargeSnapshot) domain.TransactionStatus {
	if ch == nil || !ch.Paid {
		return domain.StatusInitialized
	}
	if !ch.Captured {
		if ch.Refunded {
			return domain.StatusCancelled
		}
		return domain.StatusAuthorized
	}
	if ch.Refunded {
		return domain.StatusRefunded
	}
	return domain.StatusCaptured
}

func intentStatus(pi *domain.PaymentIntentSnapshot) domain.TransactionStatus {
	if pi == nil {
		return domain.StatusInitialized
	}
	if pi.Status == "canceled" {
		return domain.StatusCancelled
	}

	// An open fraud review wins over everything below: a payment under
	// review must never surface as authorized or captured.
	if pi.Review != nil && pi.Review.Open {
		return domain.StatusPendingExternalSystem
	}

	switch pi.Status {
	case "requires_capture":
		return domain.StatusAuthorized
	case "succeeded":
		if pi.LatestCharge != nil {
			return chargeStatus(pi.LatestCharge)
		}
		return domain.StatusCaptured
	default:
		return domain.StatusInitialized
	}
}

func invoiceStatus(inv *domain.InvoiceSnapshot) domain.TransactionStatus {
	if inv == nil {
		return domain.StatusInitialized
	}
	switch inv.Status {
	case "void":
		return domain.StatusCancelled
	case "open":
		return domain.StatusAuthorized
	case "paid":
		if inv.PaymentIntent != nil {
			return intentStatus(inv.PaymentIntent)
		}
		if inv.Charge != nil {
			return chargeStatus(inv.Charge)
		}
		return domain.StatusCaptured
	case "uncollectible":
		return domain.StatusError
	default:
		return domain.StatusInitialized
	}
}

// transactionID picks the id the order system tracks as "the transaction"
// for each object shape: the intent's latest charge, the invoice's
// charge, or the charge itself.
func intentTransactionID(pi *domain.PaymentIntentSnapshot) string {
	if pi == nil || pi.LatestCharge == nil {
		return ""
	}
	return pi.LatestCharge.ID
}
