package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"marketplace_payments/internal/domain/entities"
	"marketplace_payments/internal/usecase/interfaces"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestPaystack(t *testing.T, baseURL string) *PaystackGateway {
	t.Helper()
	g, err := NewPaystackGateway(PaystackOptions{
		BaseURL:       baseURL,
		PublicKey:     "pk_test_1",
		SecretKey:     "sk_test_1",
		PublicBaseURL: "https://shop.example.com",
		HTTP:          fastRetry,
		Logger:        zap.NewNop(),
	})
	require.NoError(t, err)
	return g
}

func paystackEntry() entities.PaymentRequest {
	return entities.PaymentRequest{
		ID:               "pr-ng-1",
		PaymentAmount:    decimal.RequireFromString("150.00"),
		CurrencyCode:     "NGN",
		PaymentPlatform:  GatewayPaystack,
		PayerInformation: entities.PayerInformation{Email: "payer@example.com"},
	}
}

func TestPaystackGateway_Create(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer sk_test_1" {
			t.Errorf("unexpected authorization %q", r.Header.Get("Authorization"))
		}
		if r.URL.Path != "/transaction/initialize" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		ref, _ := got["reference"].(string)
		_, _ = w.Write([]byte(`{"status":true,"message":"Authorization URL created","data":{"authorization_url":"https://checkout.paystack.com/abc","access_code":"abc","reference":"` + ref + `"}}`))
	}))
	defer srv.Close()

	g := newTestPaystack(t, srv.URL)

	res, err := g.Create(context.Background(), paystackEntry(), entities.CreateActionPayment, nil)
	require.NoError(t, err)
	require.Equal(t, entities.ArtifactRedirect, res.Kind)
	require.Equal(t, "https://checkout.paystack.com/abc", res.RedirectURL)
	require.True(t, strings.HasPrefix(res.TransactionID, "pr-ng-1-"))
	require.Equal(t, float64(15000), got["amount"])
	require.Equal(t, "NGN", got["currency"])
	require.Equal(t, "payer@example.com", got["email"])
	require.Equal(t, "https://shop.example.com/v1/paystack/callback?payment_id=pr-ng-1", got["callback_url"])
	require.Equal(t, "pr-ng-1", got["metadata"].(map[string]any)["payment_id"])

	res, err = g.Create(context.Background(), paystackEntry(), entities.CreateActionIndex, nil)
	require.NoError(t, err)
	require.Equal(t, entities.ArtifactCheckout, res.Kind)
	require.Equal(t, "abc", res.Token)
	require.Equal(t, "pk_test_1", res.PublicKey)
}

func TestPaystackGateway_CreateRequiresEmail(t *testing.T) {
	p := paystackEntry()
	p.PayerInformation.Email = ""
	_, err := newTestPaystack(t, "http://unused").Create(context.Background(), p, entities.CreateActionPayment, nil)
	require.ErrorIs(t, err, interfaces.ErrGatewayRejected)
}

func TestPaystackGateway_Verify(t *testing.T) {
	cases := map[string]entities.GatewayStatus{
		"success":   entities.GatewayStatusSucceeded,
		"failed":    entities.GatewayStatusCanceled,
		"reversed":  entities.GatewayStatusCanceled,
		"abandoned": entities.GatewayStatusPending,
		"ongoing":   entities.GatewayStatusPending,
	}
	for providerStatus, want := range cases {
		t.Run(providerStatus, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/transaction/verify/pr-ng-1-aaaa" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				// metadata comes back as a JSON string when set from the dashboard
				_, _ = w.Write([]byte(`{"status":true,"message":"Verification successful","data":{"reference":"pr-ng-1-aaaa","status":"` + providerStatus + `","metadata":"{\"payment_id\":\"pr-ng-1\"}"}}`))
			}))
			defer srv.Close()

			res, err := newTestPaystack(t, srv.URL).Verify(context.Background(), "pr-ng-1-aaaa")
			require.NoError(t, err)
			require.Equal(t, want, res.Status)
			require.Equal(t, "pr-ng-1", res.PaymentRequestID)
			require.Equal(t, "paystack", res.Method)
		})
	}
}

func TestPaystackGateway_Webhook(t *testing.T) {
	g := newTestPaystack(t, "http://unused")
	body := []byte(`{"event":"charge.success","data":{"reference":"pr-ng-1-aaaa","status":"success","metadata":{"payment_id":"pr-ng-1"}}}`)

	mac := hmac.New(sha512.New, []byte("sk_test_1"))
	mac.Write(body)
	headers := http.Header{}
	headers.Set("x-paystack-signature", hex.EncodeToString(mac.Sum(nil)))

	require.NoError(t, g.VerifyWebhookSignature(headers, "", body))
	require.ErrorIs(t, g.VerifyWebhookSignature(http.Header{}, "", body), interfaces.ErrInvalidSignature)
	require.ErrorIs(t, g.VerifyWebhookSignature(headers, "", append(body, ' ')), interfaces.ErrInvalidSignature)

	evt, err := g.ParseWebhook(body)
	require.NoError(t, err)
	require.Equal(t, entities.WebhookEventSucceeded, evt.Type)
	require.Equal(t, "pr-ng-1-aaaa", evt.TransactionID)
	require.Equal(t, "pr-ng-1", evt.PaymentRequestID)

	evt, err = g.ParseWebhook([]byte(`{"event":"charge.failed","data":{"reference":"r"}}`))
	require.NoError(t, err)
	require.Equal(t, entities.WebhookEventCanceled, evt.Type)

	evt, err = g.ParseWebhook([]byte(`{"event":"transfer.success","data":{"reference":"r"}}`))
	require.NoError(t, err)
	require.Equal(t, entities.WebhookEventUnknown, evt.Type)

	_, err = g.ParseWebhook([]byte(`{"event":"charge.success"}`))
	require.ErrorIs(t, err, interfaces.ErrInvalidPayload)
}
