package payments

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"marketplace_payments/internal/adapter/persistence/memory"
	"marketplace_payments/internal/domain/entities"
	"marketplace_payments/internal/usecase/interfaces"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var fastRetry = HTTPClientConfig{
	ConnectTimeout: time.Second,
	RequestTimeout: 2 * time.Second,
	MaxAttempts:    3,
	MinDelay:       time.Millisecond,
	MaxDelay:       2 * time.Millisecond,
}

func newTestYooKassa(t *testing.T, baseURL string, allowed []string) *YooKassaGateway {
	t.Helper()
	g, err := NewYooKassaGateway(YooKassaOptions{
		BaseURL:       baseURL,
		ShopID:        "shop",
		SecretKey:     "secret",
		PublicBaseURL: "https://shop.example.com/",
		AllowedIPs:    allowed,
		HTTP:          fastRetry,
		Receipts:      NewReceiptBuilder(memory.NewOrderLineRepository(), zap.NewNop()),
		Logger:        zap.NewNop(),
	})
	require.NoError(t, err)
	return g
}

func yooKassaEntry() entities.PaymentRequest {
	return entities.PaymentRequest{
		ID:               "3f2c1f9e-0000-4000-8000-000000000001",
		PaymentAmount:    decimal.RequireFromString("150"),
		CurrencyCode:     "RUB",
		AttributeID:      "42",
		PaymentPlatform:  GatewayYooKassa,
		PayerInformation: entities.PayerInformation{Email: "payer@example.com"},
	}
}

func TestYooKassaGateway_CreateRedirect(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "shop" || pass != "secret" {
			t.Errorf("unexpected basic auth %q/%q", user, pass)
		}
		if r.Method != http.MethodPost || r.URL.Path != "/payments" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Idempotence-Key") == "" {
			t.Errorf("expected Idempotence-Key header")
		}
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		_, _ = w.Write([]byte(`{"id":"pay_abc","status":"pending","confirmation":{"type":"redirect","confirmation_url":"https://yoomoney.ru/checkout/pay_abc"}}`))
	}))
	defer srv.Close()

	res, err := newTestYooKassa(t, srv.URL, nil).Create(context.Background(), yooKassaEntry(), entities.CreateActionPayment, nil)
	require.NoError(t, err)
	require.Equal(t, "pay_abc", res.TransactionID)
	require.Equal(t, entities.ArtifactRedirect, res.Kind)
	require.Equal(t, "https://yoomoney.ru/checkout/pay_abc", res.RedirectURL)
	require.Equal(t, entities.GatewayStatusPending, res.Status)

	require.Equal(t, map[string]any{"value": "150.00", "currency": "RUB"}, got["amount"])
	require.Equal(t, true, got["capture"])
	require.Equal(t, "Order payment #42", got["description"])
	confirmation := got["confirmation"].(map[string]any)
	require.Equal(t, "redirect", confirmation["type"])
	require.Equal(t, "https://shop.example.com/v1/yookassa/return?payment_id=3f2c1f9e-0000-4000-8000-000000000001", confirmation["return_url"])
	metadata := got["metadata"].(map[string]any)
	require.Equal(t, "3f2c1f9e-0000-4000-8000-000000000001", metadata["payment_id"])
	require.Equal(t, "42", metadata["order_id"])

	receipt := got["receipt"].(map[string]any)
	items := receipt["items"].([]any)
	require.Len(t, items, 1)
	require.Equal(t, "Payment for order", items[0].(map[string]any)["description"])
}

func TestYooKassaGateway_CreateEmbeddedWithoutEmail(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		_, _ = w.Write([]byte(`{"id":"pay_emb","status":"pending","confirmation":{"type":"embedded","confirmation_token":"ct-123"}}`))
	}))
	defer srv.Close()

	p := yooKassaEntry()
	p.PayerInformation.Email = ""
	res, err := newTestYooKassa(t, srv.URL, nil).Create(context.Background(), p, entities.CreateActionIndex, nil)
	require.NoError(t, err)
	require.Equal(t, entities.ArtifactEmbedded, res.Kind)
	require.Equal(t, "ct-123", res.Token)
	require.Contains(t, res.Extra["return_url"], "/v1/yookassa/return?payment_id=")

	require.Equal(t, "embedded", got["confirmation"].(map[string]any)["type"])
	_, hasReceipt := got["receipt"]
	require.False(t, hasReceipt)
}

func TestYooKassaGateway_CreateRetriesWithSameIdempotenceKey(t *testing.T) {
	var mu sync.Mutex
	var keys []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		keys = append(keys, r.Header.Get("Idempotence-Key"))
		n := len(keys)
		mu.Unlock()
		if n < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"type":"error","description":"internal"}`))
			return
		}
		_, _ = w.Write([]byte(`{"id":"pay_abc","status":"pending","confirmation":{"type":"redirect","confirmation_url":"https://yoomoney.ru/x"}}`))
	}))
	defer srv.Close()

	res, err := newTestYooKassa(t, srv.URL, nil).Create(context.Background(), yooKassaEntry(), entities.CreateActionPayment, nil)
	require.NoError(t, err)
	require.Equal(t, "pay_abc", res.TransactionID)
	require.Len(t, keys, 3)
	require.Equal(t, keys[0], keys[1])
	require.Equal(t, keys[1], keys[2])
}

func TestYooKassaGateway_CreateErrors(t *testing.T) {
	t.Run("4xx is rejected without retry", func(t *testing.T) {
		var calls int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"type":"error","code":"invalid_credentials","description":"Basic auth failed"}`))
		}))
		defer srv.Close()

		_, err := newTestYooKassa(t, srv.URL, nil).Create(context.Background(), yooKassaEntry(), entities.CreateActionPayment, nil)
		require.ErrorIs(t, err, interfaces.ErrGatewayRejected)
		require.Contains(t, err.Error(), "Basic auth failed")
		require.Equal(t, int32(1), atomic.LoadInt32(&calls))
	})

	t.Run("persistent 5xx is unreachable after max attempts", func(t *testing.T) {
		var calls int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		_, err := newTestYooKassa(t, srv.URL, nil).Create(context.Background(), yooKassaEntry(), entities.CreateActionPayment, nil)
		require.ErrorIs(t, err, interfaces.ErrGatewayUnreachable)
		require.Equal(t, int32(3), atomic.LoadInt32(&calls))
	})

	t.Run("closed server is unreachable", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		_, err := newTestYooKassa(t, url, nil).Create(context.Background(), yooKassaEntry(), entities.CreateActionPayment, nil)
		require.ErrorIs(t, err, interfaces.ErrGatewayUnreachable)
	})
}

func TestYooKassaGateway_Verify(t *testing.T) {
	cases := map[string]entities.GatewayStatus{
		"succeeded":           entities.GatewayStatusSucceeded,
		"canceled":            entities.GatewayStatusCanceled,
		"pending":             entities.GatewayStatusPending,
		"waiting_for_capture": entities.GatewayStatusPending,
	}
	for providerStatus, want := range cases {
		t.Run(providerStatus, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodGet || r.URL.Path != "/payments/pay_abc" {
					t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
				}
				_, _ = w.Write([]byte(`{"id":"pay_abc","status":"` + providerStatus + `","metadata":{"payment_id":"pr-1"}}`))
			}))
			defer srv.Close()

			res, err := newTestYooKassa(t, srv.URL, nil).Verify(context.Background(), "pay_abc")
			require.NoError(t, err)
			require.Equal(t, want, res.Status)
			require.Equal(t, "pay_abc", res.TransactionID)
			require.Equal(t, "pr-1", res.PaymentRequestID)
			require.Equal(t, "yookassa", res.Method)
			require.NotEmpty(t, res.Raw)
		})
	}
}

func TestYooKassaGateway_ParseWebhook(t *testing.T) {
	g := newTestYooKassa(t, "http://unused", nil)

	evt, err := g.ParseWebhook([]byte(`{"type":"notification","event":"payment.succeeded","object":{"id":"pay_abc","status":"succeeded","metadata":{"payment_id":"pr-1"}}}`))
	require.NoError(t, err)
	require.Equal(t, entities.WebhookEventSucceeded, evt.Type)
	require.Equal(t, "pay_abc", evt.TransactionID)
	require.Equal(t, "pr-1", evt.PaymentRequestID)

	evt, err = g.ParseWebhook([]byte(`{"event":"payment.canceled","object":{"id":"pay_abc"}}`))
	require.NoError(t, err)
	require.Equal(t, entities.WebhookEventCanceled, evt.Type)

	evt, err = g.ParseWebhook([]byte(`{"event":"refund.succeeded","object":{"id":"rf_1"}}`))
	require.NoError(t, err)
	require.Equal(t, entities.WebhookEventUnknown, evt.Type)

	for _, body := range []string{`{"object":{"id":"x"}}`, `{"event":"payment.succeeded"}`, `{"event":"payment.succeeded","object":null}`, `not json`} {
		_, err := g.ParseWebhook([]byte(body))
		require.ErrorIs(t, err, interfaces.ErrInvalidPayload, body)
	}
}

func TestYooKassaGateway_VerifyWebhookSignature(t *testing.T) {
	g := newTestYooKassa(t, "http://unused", []string{"185.71.76.0/27", "77.75.156.11", "2a02:5180::/32"})

	require.NoError(t, g.VerifyWebhookSignature(nil, "185.71.76.10", nil))
	require.NoError(t, g.VerifyWebhookSignature(nil, "77.75.156.11", nil))
	require.NoError(t, g.VerifyWebhookSignature(nil, "2a02:5180::1", nil))
	require.ErrorIs(t, g.VerifyWebhookSignature(nil, "10.0.0.1", nil), interfaces.ErrInvalidSignature)
	require.ErrorIs(t, g.VerifyWebhookSignature(nil, "garbage", nil), interfaces.ErrInvalidSignature)

	open := newTestYooKassa(t, "http://unused", nil)
	require.NoError(t, open.VerifyWebhookSignature(nil, "10.0.0.1", nil))
}

func TestNewYooKassaGateway_MissingCredentials(t *testing.T) {
	_, err := NewYooKassaGateway(YooKassaOptions{Logger: zap.NewNop()})
	require.ErrorIs(t, err, ErrMissingYooKassaCredentials)
}
