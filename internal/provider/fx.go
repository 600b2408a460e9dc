package provider

import (
	"go.uber.org/fx"

	"github.com/tillworkslabs/stripe-gateway/internal/provider/domain"
	"github.com/tillworkslabs/stripe-gateway/internal/provider/stripe"
)

var Module = fx.Module("provider.stripe",
	fx.Provide(func(p *stripe.Provider) domain.Provider { return p }),
	fx.Provide(stripe.NewProvider),
)
