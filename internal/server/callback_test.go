package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/tillworkslabs/stripe-gateway/internal/config"
	eventdomain "github.com/tillworkslabs/stripe-gateway/internal/events/domain"
	eventservice "github.com/tillworkslabs/stripe-gateway/internal/events/service"
	"github.com/tillworkslabs/stripe-gateway/internal/observability"
	orderdomain "github.com/tillworkslabs/stripe-gateway/internal/orders/domain"
	"github.com/tillworkslabs/stripe-gateway/internal/orders/repository"
	"github.com/tillworkslabs/stripe-gateway/internal/provider/domain"
)

// mockProvider lets each test program the provider surface directly.
type mockProvider struct {
	normalizeFn func(payload []byte, sig string, settings domain.CheckoutSettings) (domain.CanonicalEvent, error)
	reconcileFn func(ctx context.Context, settings domain.CheckoutSettings, ev domain.CanonicalEvent) (*domain.Outcome, error)
	checkoutFn  func(ctx context.Context, settings domain.CheckoutSettings, order *domain.Order) (*domain.CheckoutResult, error)
	intentFn    func(ctx context.Context, settings domain.CheckoutSettings, order *domain.Order) (*domain.PaymentIntentResult, error)
	statusFn    func(ctx context.Context, settings domain.CheckoutSettings, order *domain.Order) (*domain.TransactionUpdate, error)
	captureFn   func(ctx context.Context, settings domain.CheckoutSettings, order *domain.Order) (*domain.TransactionUpdate, error)
	refundFn    func(ctx context.Context, settings domain.CheckoutSettings, order *domain.Order, amount int64) (*domain.TransactionUpdate, error)
	cancelFn    func(ctx context.Context, settings domain.CheckoutSettings, order *domain.Order) (*domain.TransactionUpdate, error)
}

func (m *mockProvider) NormalizeEvent(payload []byte, sig string, settings domain.CheckoutSettings) (domain.CanonicalEvent, error) {
	return m.normalizeFn(payload, sig, settings)
}

func (m *mockProvider) ReconcileEvent(ctx context.Context, settings domain.CheckoutSettings, ev domain.CanonicalEvent) (*domain.Outcome, error) {
	return m.reconcileFn(ctx, settings, ev)
}

func (m *mockProvider) BuildCheckout(ctx context.Context, settings domain.CheckoutSettings, order *domain.Order) (*domain.CheckoutResult, error) {
	return m.checkoutFn(ctx, settings, order)
}

func (m *mockProvider) CreateIntent(ctx context.Context, settings domain.CheckoutSettings, order *domain.Order) (*domain.PaymentIntentResult, error) {
	return m.intentFn(ctx, settings, order)
}

func (m *mockProvider) FetchStatus(ctx context.Context, settings domain.CheckoutSettings, order *domain.Order) (*domain.TransactionUpdate, error) {
	return m.statusFn(ctx, settings, order)
}

func (m *mockProvider) Capture(ctx context.Context, settings domain.CheckoutSettings, order *domain.Order) (*domain.TransactionUpdate, error) {
	return m.captureFn(ctx, settings, order)
}

func (m *mockProvider) Refund(ctx context.Context, settings domain.CheckoutSettings, order *domain.Order, amount int64) (*domain.TransactionUpdate, error) {
	return m.refundFn(ctx, settings, order, amount)
}

func (m *mockProvider) Cancel(ctx context.Context, settings domain.CheckoutSettings, order *domain.Order) (*domain.TransactionUpdate, error) {
	return m.cancelFn(ctx, settings, order)
}

type testEnv struct {
	router   *gin.Engine
	provider *mockProvider
	orders   domain.OrderStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, gdb.AutoMigrate(&orderdomain.OrderRecord{}, &eventdomain.WebhookEvent{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	store := repository.Provide(gdb, node)
	upserter := repository.ProvideUpserter(store)
	events := eventservice.NewService(gdb, nil, node, zap.NewNop())

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)

	mp := &mockProvider{}
	srv := NewServer(zap.NewNop(), config.Config{}, mp, store, upserter, events, metrics)

	// Seed an order for handlers to find.
	_, err = upserter.Upsert(context.Background(), &orderdomain.OrderRecord{
		Reference:    "order-1",
		OrderNumber:  "ORDER-42",
		CurrencyCode: "DKK",
		TotalAmount:  10_000,
	})
	require.NoError(t, err)

	return &testEnv{
		router:   srv.Router(registry),
		provider: mp,
		orders:   store,
	}
}

func postWebhook(env *testEnv, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/stripe/callback", bytes.NewBufferString(body))
	req.Header.Set("Stripe-Signature", "t=1,v1=sig")
	resp := httptest.NewRecorder()
	env.router.ServeHTTP(resp, req)
	return resp
}

func TestWebhookInvalidSignature(t *testing.T) {
	env := newTestEnv(t)
	env.provider.normalizeFn = func([]byte, string, domain.CheckoutSettings) (domain.CanonicalEvent, error) {
		return domain.CanonicalEvent{}, domain.ErrInvalidSignature
	}

	resp := postWebhook(env, `{}`)
	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestWebhookUnknownEventIgnored(t *testing.T) {
	env := newTestEnv(t)
	env.provider.normalizeFn = func([]byte, string, domain.CheckoutSettings) (domain.CanonicalEvent, error) {
		return domain.CanonicalEvent{ID: "evt_1", Kind: domain.EventKindUnknown}, nil
	}
	env.provider.reconcileFn = func(context.Context, domain.CheckoutSettings, domain.CanonicalEvent) (*domain.Outcome, error) {
		t.Fatal("unknown events must not be reconciled")
		return nil, nil
	}

	resp := postWebhook(env, `{}`)
	require.Equal(t, http.StatusOK, resp.Code)
	require.Contains(t, resp.Body.String(), "ignored")
}

func TestWebhookProcessed(t *testing.T) {
	env := newTestEnv(t)
	ev := domain.CanonicalEvent{
		ID:         "evt_1",
		Kind:       domain.EventKindPaymentSucceeded,
		ObjectID:   "pi_1",
		ObjectKind: domain.ObjectKindPaymentIntent,
	}
	env.provider.normalizeFn = func([]byte, string, domain.CheckoutSettings) (domain.CanonicalEvent, error) {
		return ev, nil
	}
	env.provider.reconcileFn = func(context.Context, domain.CheckoutSettings, domain.CanonicalEvent) (*domain.Outcome, error) {
		return &domain.Outcome{
			OrderReference: "order-1",
			Transaction: domain.TransactionInfo{
				TransactionID:    "ch_1",
				AmountAuthorized: 10_000,
				Status:           domain.StatusCaptured,
			},
			Metadata: map[string]string{domain.MetaChargeID: "ch_1"},
		}, nil
	}

	resp := postWebhook(env, `{}`)
	require.Equal(t, http.StatusOK, resp.Code)
	require.Contains(t, resp.Body.String(), "processed")

	order, err := env.orders.GetByReference(context.Background(), "order-1")
	require.NoError(t, err)
	require.Equal(t, domain.StatusCaptured, order.Transaction.Status)
	require.Equal(t, "ch_1", order.Property(domain.MetaChargeID))

	t.Run("redelivery is a duplicate", func(t *testing.T) {
		env.provider.reconcileFn = func(context.Context, domain.CheckoutSettings, domain.CanonicalEvent) (*domain.Outcome, error) {
			t.Fatal("duplicate events must not be reconciled")
			return nil, nil
		}
		resp := postWebhook(env, `{}`)
		require.Equal(t, http.StatusOK, resp.Code)
		require.Contains(t, resp.Body.String(), "duplicate")
	})
}

func TestWebhookRemoteFetchFailureAsksForRetry(t *testing.T) {
	env := newTestEnv(t)
	env.provider.normalizeFn = func([]byte, string, domain.CheckoutSettings) (domain.CanonicalEvent, error) {
		return domain.CanonicalEvent{ID: "evt_1", Kind: domain.EventKindPaymentSucceeded}, nil
	}
	env.provider.reconcileFn = func(context.Context, domain.CheckoutSettings, domain.CanonicalEvent) (*domain.Outcome, error) {
		return nil, domain.ErrRemoteFetch
	}

	resp := postWebhook(env, `{}`)
	require.Equal(t, http.StatusBadGateway, resp.Code)

	t.Run("redelivery is processed, not deduplicated", func(t *testing.T) {
		env.provider.reconcileFn = func(context.Context, domain.CheckoutSettings, domain.CanonicalEvent) (*domain.Outcome, error) {
			return nil, nil
		}
		resp := postWebhook(env, `{}`)
		require.Equal(t, http.StatusOK, resp.Code)
		require.Contains(t, resp.Body.String(), "no_outcome")
	})
}

func TestWebhookOrphanedOutcomeAcknowledged(t *testing.T) {
	env := newTestEnv(t)
	env.provider.normalizeFn = func([]byte, string, domain.CheckoutSettings) (domain.CanonicalEvent, error) {
		return domain.CanonicalEvent{ID: "evt_1", Kind: domain.EventKindPaymentSucceeded}, nil
	}
	env.provider.reconcileFn = func(context.Context, domain.CheckoutSettings, domain.CanonicalEvent) (*domain.Outcome, error) {
		return &domain.Outcome{OrderReference: "unknown-order"}, nil
	}

	resp := postWebhook(env, `{}`)
	require.Equal(t, http.StatusOK, resp.Code)
	require.Contains(t, resp.Body.String(), "order_not_found")
}

func TestCreatePaymentIntentCallback(t *testing.T) {
	env := newTestEnv(t)
	env.provider.intentFn = func(_ context.Context, _ domain.CheckoutSettings, order *domain.Order) (*domain.PaymentIntentResult, error) {
		require.Equal(t, "order-1", order.Reference)
		return &domain.PaymentIntentResult{ID: "pi_1", ClientSecret: "pi_1_secret"}, nil
	}

	req := httptest.NewRequest(http.MethodPost, "/api/stripe/callback?create=paymentIntent&reference=order-1", nil)
	resp := httptest.NewRecorder()
	env.router.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Equal(t, "pi_1_secret", body["clientSecret"])

	t.Run("missing reference", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/stripe/callback?create=paymentIntent", nil)
		resp := httptest.NewRecorder()
		env.router.ServeHTTP(resp, req)
		require.Equal(t, http.StatusBadRequest, resp.Code)
	})
}
