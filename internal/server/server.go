package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/tillworkslabs/stripe-gateway/internal/config"
	"github.com/tillworkslabs/stripe-gateway/internal/events/service"
	"github.com/tillworkslabs/stripe-gateway/internal/observability"
	"github.com/tillworkslabs/stripe-gateway/internal/orders/repository"
	"github.com/tillworkslabs/stripe-gateway/internal/provider/domain"
)

type Server struct {
	log      *zap.Logger
	cfg      config.Config
	provider domain.Provider
	orders   domain.OrderStore
	upserter repository.Upserter
	events   *service.Service
	metrics  *observability.Metrics
}

func NewServer(
	log *zap.Logger,
	cfg config.Config,
	provider domain.Provider,
	orders domain.OrderStore,
	upserter repository.Upserter,
	events *service.Service,
	metrics *observability.Metrics,
) *Server {
	return &Server{
		log:      log.Named("server"),
		cfg:      cfg,
		provider: provider,
		orders:   orders,
		upserter: upserter,
		events:   events,
		metrics:  metrics,
	}
}

func (s *Server) settings() domain.CheckoutSettings {
	return s.cfg.CheckoutSettings()
}

func (s *Server) Router(registry *prometheus.Registry) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	api := r.Group("/api")
	{
		api.POST("/stripe/callback", s.Callback)

		api.PUT("/orders/:reference", s.UpsertOrder)
		api.POST("/orders/:reference/checkout", s.Checkout)
		api.GET("/orders/:reference/status", s.FetchStatus)
		api.POST("/orders/:reference/capture", s.Capture)
		api.POST("/orders/:reference/refund", s.Refund)
		api.POST("/orders/:reference/cancel", s.Cancel)
	}

	return r
}

var Module = fx.Module("server",
	fx.Provide(NewServer),
	fx.Invoke(registerHTTPServer),
)

func registerHTTPServer(lc fx.Lifecycle, s *Server, cfg config.Config, registry *prometheus.Registry, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           s.Router(registry),
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Error("http server exited", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
