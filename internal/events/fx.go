package events

import (
	"go.uber.org/fx"

	"github.com/tillworkslabs/stripe-gateway/internal/events/service"
)

var Module = fx.Module("events",
	fx.Provide(service.NewService),
)
