package stripe

import (
	"context"
	"strings"

	"github.com/tillworkslabs/stripe-gateway/internal/provider/domain"
)

type customerProfile struct {
	Name         string
	Email        string
	Description  string
	AddressLine1 string
	AddressLine2 string
	City         string
	State        string
	PostalCode   string
	Country      string
}

func buildCustomerProfile(settings domain.CheckoutSettings, order *domain.Order) customerProfile {
	addressProp := func(alias string) string {
		if alias == "" {
			return ""
		}
		return order.Property(alias)
	}
	return customerProfile{
		Name:         strings.TrimSpace(order.Customer.FirstName + " " + order.Customer.LastName),
		Email:        order.Customer.Email,
		Description:  order.OrderNumber,
		AddressLine1: addressProp(settings.BillingAddressLine1PropertyAlias),
		AddressLine2: addressProp(settings.BillingAddressLine2PropertyAlias),
		City:         addressProp(settings.BillingAddressCityPropertyAlias),
		State:        addressProp(settings.BillingAddressStatePropertyAlias),
		PostalCode:   addressProp(settings.BillingAddressZipCodePropertyAlias),
		Country:      order.BillingCountryCode,
	}
}

// ensureCustomer updates the order's existing Stripe customer or creates a
// new one. Both paths push the full profile including the billing
// country/zip metadata: the Radar comparison has to hold for repeat
// customers whose address changed, not just on first contact.
func ensureCustomer(ctx context.Context, api remoteAPI, settings domain.CheckoutSettings, order *domain.Order) (string, error) {
	profile := buildCustomerProfile(settings, order)
	if id := order.Property(domain.MetaCustomerID); id != "" {
		return api.UpdateCustomer(ctx, id, profile)
	}
	return api.CreateCustomer(ctx, profile)
}

// requestState carries the caches owned by a single session-build request.
// Nothing in it survives the request, so no locking is needed.
type requestState struct {
	taxRates       []domain.TaxRate
	taxRatesListed bool
}

func newRequestState() *requestState {
	return &requestState{}
}

func (s *requestState) matchTaxRate(displayName string, percentage float64, inclusive bool) (domain.TaxRate, bool) {
	for _, tr := range s.taxRates {
		if tr.DisplayName == displayName && tr.Percentage == percentage && tr.Inclusive == inclusive {
			return tr, true
		}
	}
	return domain.TaxRate{}, false
}

// ensureTaxRate resolves a Stripe tax rate for (displayName, percentage,
// inclusive), creating it only when no active remote rate matches. The
// active-rate listing happens at most once per request no matter how many
// order lines resolve a rate, and lines sharing a tuple reuse the cached
// result instead of creating duplicates.
func ensureTaxRate(ctx context.Context, api remoteAPI, state *requestState, displayName string, percentage float64, inclusive bool) (domain.TaxRate, error) {
	if tr, ok := state.matchTaxRate(displayName, percentage, inclusive); ok {
		return tr, nil
	}

	if !state.taxRatesListed {
		rates, err := api.ListActiveTaxRates(ctx)
		if err != nil {
			return domain.TaxRate{}, err
		}
		state.taxRates = rates
		state.taxRatesListed = true

		if tr, ok := state.matchTaxRate(displayName, percentage, inclusive); ok {
			return tr, nil
		}
	}

	tr, err := api.CreateTaxRate(ctx, displayName, percentage, inclusive)
	if err != nil {
		return domain.TaxRate{}, err
	}
	state.taxRates = append(state.taxRates, tr)
	return tr, nil
}
