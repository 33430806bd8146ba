package payments

import (
	"context"
	"testing"

	"marketplace_payments/internal/domain/entities"
	"marketplace_payments/internal/infrastructure/config"
	"marketplace_payments/internal/usecase/interfaces"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewGatewaySet(t *testing.T) {
	t.Run("mock mode serves every gateway name", func(t *testing.T) {
		set, err := NewGatewaySet(config.Gateways{Mock: "true", Mode: config.ModeTest}, "http://localhost:8080", nil, zap.NewNop(), nil)
		require.NoError(t, err)
		require.Equal(t, []string{"mercadopago", "paystack", "razorpay", "yookassa"}, set.Names())

		g, ok := set.Get(GatewayYooKassa)
		require.True(t, ok)
		require.IsType(t, &MockGateway{}, g)
	})

	t.Run("only configured gateways are registered", func(t *testing.T) {
		cfg := config.Gateways{
			Mode:     config.ModeTest,
			YooKassa: config.YooKassa{BaseURL: "https://api.yookassa.ru/v3", ShopIDTest: "shop", SecretKeyTest: "secret"},
			Paystack: config.Paystack{BaseURL: "https://api.paystack.co", SecretKeyLive: "sk_live_only"},
		}
		set, err := NewGatewaySet(cfg, "http://localhost:8080", nil, zap.NewNop(), nil)
		require.NoError(t, err)
		require.Equal(t, []string{"yookassa"}, set.Names())
		require.Len(t, set.All(), 1)

		_, ok := set.Get(GatewayPaystack)
		require.False(t, ok)
	})

	t.Run("invalid allowlist fails startup", func(t *testing.T) {
		cfg := config.Gateways{
			Mode:     config.ModeTest,
			YooKassa: config.YooKassa{ShopIDTest: "shop", SecretKeyTest: "secret", WebhookAllowedIPs: []string{"not-a-cidr/99"}},
		}
		_, err := NewGatewaySet(cfg, "http://localhost:8080", nil, zap.NewNop(), nil)
		require.Error(t, err)
	})
}

func TestMockGateway(t *testing.T) {
	g := NewMockGateway(GatewayPaystack, "http://localhost:8080", zap.NewNop())
	p := entities.PaymentRequest{ID: "pr-1", PaymentAmount: decimal.NewFromInt(10), CurrencyCode: "NGN"}

	res, err := g.Create(context.Background(), p, entities.CreateActionPayment, nil)
	require.NoError(t, err)
	require.Equal(t, "mock_pr-1", res.TransactionID)
	require.Equal(t, "http://localhost:8080/v1/paystack/return?payment_id=pr-1", res.RedirectURL)

	v, err := g.Verify(context.Background(), res.TransactionID)
	require.NoError(t, err)
	require.Equal(t, entities.GatewayStatusSucceeded, v.Status)
	require.Equal(t, "pr-1", v.PaymentRequestID)
	require.Equal(t, "paystack", v.Method)

	_, err = g.Verify(context.Background(), "real_tx")
	require.ErrorIs(t, err, interfaces.ErrGatewayRejected)

	evt, err := g.ParseWebhook([]byte(`{"event":"payment.succeeded","transaction_id":"mock_pr-1"}`))
	require.NoError(t, err)
	require.Equal(t, entities.WebhookEventSucceeded, evt.Type)

	_, err = g.ParseWebhook([]byte(`{"event":"payment.succeeded"}`))
	require.ErrorIs(t, err, interfaces.ErrInvalidPayload)
}
