package orders

import (
	"go.uber.org/fx"

	"github.com/tillworkslabs/stripe-gateway/internal/orders/repository"
)

var Module = fx.Module("orders",
	fx.Provide(repository.Provide),
	fx.Provide(repository.ProvideUpserter),
)
