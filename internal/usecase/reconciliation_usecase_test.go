package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"marketplace_payments/internal/adapter/persistence/memory"
	"marketplace_payments/internal/domain/entities"
	"marketplace_payments/internal/infrastructure/metrics"
	"marketplace_payments/internal/infrastructure/payments"
	"marketplace_payments/internal/usecase/interfaces"
	mock_interfaces "marketplace_payments/internal/usecase/interfaces/mocks"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

type gatewayMap map[string]interfaces.IPaymentGateway

func (m gatewayMap) Get(name string) (interfaces.IPaymentGateway, bool) {
	g, ok := m[name]
	return g, ok
}

type hookRecorder struct {
	mu    sync.Mutex
	calls map[string]int
}

func (r *hookRecorder) hook(name string) HookFunc {
	return func(context.Context, entities.PaymentRequest) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.calls[name]++
		return nil
	}
}

func (r *hookRecorder) count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[name]
}

type harness struct {
	ledger  *PaymentLedgerUseCase
	uc      *ReconciliationUseCase
	hooks   *hookRecorder
	metrics *metrics.PaymentMetrics
}

var fastReturn = ReconciliationConfig{
	ReturnVerifyTimeout:     time.Second,
	ReturnVerifyMinInterval: time.Millisecond,
	ReturnVerifyMaxInterval: 5 * time.Millisecond,
}

func newHarness(t *testing.T, gws ...interfaces.IPaymentGateway) *harness {
	return newHarnessWithConfig(t, fastReturn, gws...)
}

func newHarnessWithConfig(t *testing.T, cfg ReconciliationConfig, gws ...interfaces.IPaymentGateway) *harness {
	t.Helper()
	m := metrics.NewPaymentMetrics()
	ledger := NewPaymentLedgerUseCase(memory.NewPaymentRequestRepository(), testPlatforms, zap.NewNop(), m)

	rec := &hookRecorder{calls: map[string]int{}}
	d := NewHookDispatcher(zap.NewNop(), m)
	d.Register("on_success", rec.hook("on_success"))
	d.Register("on_fail", rec.hook("on_fail"))

	set := gatewayMap{}
	for _, g := range gws {
		set[g.Name()] = g
	}
	return &harness{
		ledger:  ledger,
		uc:      NewReconciliationUseCase(ledger, set, d, cfg, zap.NewNop(), m),
		hooks:   rec,
		metrics: m,
	}
}

func (h *harness) entry(t *testing.T, platform string) entities.PaymentRequest {
	t.Helper()
	p, err := h.ledger.Create(context.Background(), CreatePaymentRequestInput{
		Amount:           decimal.RequireFromString("150.00"),
		CurrencyCode:     "RUB",
		AttributeID:      "42",
		PaymentPlatform:  platform,
		PayerInformation: entities.PayerInformation{Email: "payer@example.com"},
		SuccessHook:      "on_success",
		FailureHook:      "on_fail",
	})
	require.NoError(t, err)
	return p
}

func (h *harness) attached(t *testing.T, platform, tx string) entities.PaymentRequest {
	t.Helper()
	p := h.entry(t, platform)
	p, ok, err := h.ledger.AttachTransaction(context.Background(), p.ID, tx)
	require.NoError(t, err)
	require.True(t, ok)
	return p
}

func (h *harness) reload(t *testing.T, id string) entities.PaymentRequest {
	t.Helper()
	p, err := h.ledger.GetByID(context.Background(), id)
	require.NoError(t, err)
	return p
}

func mockGateway(ctrl *gomock.Controller, name string) *mock_interfaces.MockIPaymentGateway {
	g := mock_interfaces.NewMockIPaymentGateway(ctrl)
	g.EXPECT().Name().Return(name).AnyTimes()
	return g
}

func verified(tx, id string, status entities.GatewayStatus) entities.VerifyResult {
	return entities.VerifyResult{TransactionID: tx, Status: status, PaymentRequestID: id, Method: "yookassa"}
}

// yooKassaServer impersonates the YooKassa REST API for one payment.
type yooKassaServer struct {
	mu        sync.Mutex
	paymentID string
	status    string
	verifies  atomic.Int32
}

func (s *yooKassaServer) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/payments":
			var req struct {
				Metadata map[string]string `json:"metadata"`
			}
			body, _ := io.ReadAll(r.Body)
			if err := json.Unmarshal(body, &req); err != nil {
				t.Errorf("decode create body: %v", err)
			}
			s.paymentID = req.Metadata["payment_id"]
			_, _ = w.Write([]byte(`{"id":"pay_abc","status":"pending","confirmation":{"type":"redirect","confirmation_url":"https://yoomoney.ru/checkout/pay_abc"}}`))
		case r.Method == http.MethodGet && r.URL.Path == "/payments/pay_abc":
			s.verifies.Add(1)
			_, _ = fmt.Fprintf(w, `{"id":"pay_abc","status":%q,"paid":true,"metadata":{"payment_id":%q,"order_id":"42"}}`, s.status, s.paymentID)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func TestReconciliation_EndToEnd_YooKassaWebhook(t *testing.T) {
	srv := &yooKassaServer{status: "succeeded"}
	ts := httptest.NewServer(srv.handler(t))
	defer ts.Close()

	gw, err := payments.NewYooKassaGateway(payments.YooKassaOptions{
		BaseURL:       ts.URL,
		ShopID:        "shop",
		SecretKey:     "secret",
		PublicBaseURL: "https://shop.example.com",
		AllowedIPs:    []string{"185.71.76.0/27"},
		HTTP:          payments.HTTPClientConfig{MaxAttempts: 1, MinDelay: time.Millisecond, MaxDelay: time.Millisecond},
		Receipts:      payments.NewReceiptBuilder(memory.NewOrderLineRepository(), zap.NewNop()),
		Logger:        zap.NewNop(),
	})
	require.NoError(t, err)
	h := newHarness(t, gw)
	ctx := context.Background()

	p := h.entry(t, "yookassa")
	require.Equal(t, entities.PaymentStatusPending, p.Status())

	start, err := h.uc.Start(ctx, "yookassa", p.ID, entities.CreateActionPayment, nil)
	require.NoError(t, err)
	require.Equal(t, "pay_abc", start.Artifact.TransactionID)
	require.Equal(t, entities.ArtifactRedirect, start.Artifact.Kind)
	require.Equal(t, entities.PaymentStatusCreated, h.reload(t, p.ID).Status())

	body := []byte(fmt.Sprintf(`{"type":"notification","event":"payment.succeeded","object":{"id":"pay_abc","status":"succeeded","metadata":{"payment_id":%q}}}`, p.ID))

	_, err = h.uc.HandleWebhook(ctx, "yookassa", http.Header{}, "10.0.0.1", body)
	require.ErrorIs(t, err, interfaces.ErrInvalidSignature)
	require.False(t, h.reload(t, p.ID).IsPaid)

	res, err := h.uc.HandleWebhook(ctx, "yookassa", http.Header{}, "185.71.76.10", body)
	require.NoError(t, err)
	require.Equal(t, WebhookProcessed, res.Status)
	require.Equal(t, OutcomeSuccess, res.Outcome)

	settled := h.reload(t, p.ID)
	require.True(t, settled.IsPaid)
	require.Equal(t, "yookassa", settled.PaymentMethod)
	require.Equal(t, "pay_abc", settled.TransactionID)
	require.Equal(t, 1, h.hooks.count("on_success"))

	replay, err := h.uc.HandleWebhook(ctx, "yookassa", http.Header{}, "185.71.76.10", body)
	require.NoError(t, err)
	require.Equal(t, WebhookNoop, replay.Status)
	require.Equal(t, 1, h.hooks.count("on_success"))
	require.Equal(t, float64(1), testutil.ToFloat64(h.metrics.SettlementsTotal.WithLabelValues("yookassa", metrics.ChannelWebhook)))

	verifies := srv.verifies.Load()
	ret, err := h.uc.Return(ctx, "yookassa", p.ID)
	require.NoError(t, err)
	require.Equal(t, OutcomeSuccess, ret.Outcome)
	require.Equal(t, verifies, srv.verifies.Load())
	require.Equal(t, 0, h.hooks.count("on_fail"))
}

func TestReconciliation_Start(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown gateway", func(t *testing.T) {
		h := newHarness(t)
		_, err := h.uc.Start(ctx, "stripe", "pr-1", entities.CreateActionIndex, nil)
		require.ErrorIs(t, err, ErrUnknownGateway)
	})

	t.Run("unknown entry is already processed", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		h := newHarness(t, mockGateway(ctrl, "yookassa"))
		_, err := h.uc.Start(ctx, "yookassa", "missing", entities.CreateActionIndex, nil)
		require.ErrorIs(t, err, ErrAlreadyProcessed)
	})

	t.Run("settled entry is already processed", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		h := newHarness(t, mockGateway(ctrl, "yookassa"))
		p := h.entry(t, "yookassa")
		_, _, err := h.ledger.MarkPaid(ctx, p.ID, "pay_abc", "yookassa")
		require.NoError(t, err)

		res, err := h.uc.Start(ctx, "yookassa", p.ID, entities.CreateActionIndex, nil)
		require.ErrorIs(t, err, ErrAlreadyProcessed)
		require.Equal(t, OutcomeSuccess, res.Outcome)
	})

	t.Run("failed entry keeps its outcome", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		h := newHarness(t, mockGateway(ctrl, "yookassa"))
		p := h.entry(t, "yookassa")
		_, _, err := h.ledger.MarkFailed(ctx, p.ID)
		require.NoError(t, err)

		res, err := h.uc.Start(ctx, "yookassa", p.ID, entities.CreateActionPayment, nil)
		require.ErrorIs(t, err, ErrAlreadyProcessed)
		require.Equal(t, p.ID, res.PaymentRequest.ID)
		require.Equal(t, OutcomeFail, res.Outcome)
	})

	t.Run("gateway mismatch", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		h := newHarness(t, mockGateway(ctrl, "yookassa"), mockGateway(ctrl, "paystack"))
		p := h.entry(t, "yookassa")
		_, err := h.uc.Start(ctx, "paystack", p.ID, entities.CreateActionIndex, nil)
		require.ErrorIs(t, err, ErrGatewayMismatch)
	})

	t.Run("unsupported action", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		h := newHarness(t, mockGateway(ctrl, "yookassa"))
		_, err := h.uc.Start(ctx, "yookassa", "pr-1", entities.CreateAction("refund"), nil)
		require.ErrorIs(t, err, ErrValidation)
	})

	t.Run("create is retryable after a transport failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		gw := mockGateway(ctrl, "yookassa")
		h := newHarness(t, gw)
		p := h.entry(t, "yookassa")

		gomock.InOrder(
			gw.EXPECT().Create(gomock.Any(), gomock.Any(), entities.CreateActionPayment, gomock.Any()).
				Return(entities.CreateResult{}, fmt.Errorf("%w: context deadline exceeded", interfaces.ErrGatewayUnreachable)),
			gw.EXPECT().Create(gomock.Any(), gomock.Any(), entities.CreateActionPayment, gomock.Any()).
				Return(entities.CreateResult{TransactionID: "pay_2", Kind: entities.ArtifactRedirect, RedirectURL: "https://pay.example/2"}, nil),
		)

		_, err := h.uc.Start(ctx, "yookassa", p.ID, entities.CreateActionPayment, nil)
		require.ErrorIs(t, err, interfaces.ErrGatewayUnreachable)
		require.Empty(t, h.reload(t, p.ID).TransactionID)

		res, err := h.uc.Start(ctx, "yookassa", p.ID, entities.CreateActionPayment, nil)
		require.NoError(t, err)
		require.Equal(t, "https://pay.example/2", res.Artifact.RedirectURL)
		require.Equal(t, "pay_2", h.reload(t, p.ID).TransactionID)
		require.False(t, h.reload(t, p.ID).IsPaid)
	})

	t.Run("rejected create leaves the ledger untouched", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		gw := mockGateway(ctrl, "yookassa")
		h := newHarness(t, gw)
		p := h.entry(t, "yookassa")

		gw.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(entities.CreateResult{}, fmt.Errorf("%w: 401 invalid credentials", interfaces.ErrGatewayRejected))

		_, err := h.uc.Start(ctx, "yookassa", p.ID, entities.CreateActionIndex, nil)
		require.ErrorIs(t, err, interfaces.ErrGatewayRejected)
		require.Equal(t, entities.PaymentStatusPending, h.reload(t, p.ID).Status())
	})

	t.Run("checkout artifact without transaction", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		gw := mockGateway(ctrl, "mercadopago")
		h := newHarness(t, gw)
		p := h.entry(t, "mercadopago")

		gw.EXPECT().Create(gomock.Any(), gomock.Any(), entities.CreateActionIndex, gomock.Any()).
			Return(entities.CreateResult{Kind: entities.ArtifactCheckout, PublicKey: "pub"}, nil)

		res, err := h.uc.Start(ctx, "mercadopago", p.ID, entities.CreateActionIndex, nil)
		require.NoError(t, err)
		require.Equal(t, entities.ArtifactCheckout, res.Artifact.Kind)
		require.Equal(t, entities.PaymentStatusPending, h.reload(t, p.ID).Status())
	})

	t.Run("concurrent create keeps the first transaction", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		gw := mockGateway(ctrl, "yookassa")
		h := newHarness(t, gw)
		p := h.entry(t, "yookassa")

		gw.EXPECT().Create(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, _ entities.PaymentRequest, _ entities.CreateAction, _ json.RawMessage) (entities.CreateResult, error) {
				_, _, err := h.ledger.AttachTransaction(ctx, p.ID, "pay_first")
				require.NoError(t, err)
				return entities.CreateResult{TransactionID: "pay_second", Kind: entities.ArtifactRedirect}, nil
			})

		_, err := h.uc.Start(ctx, "yookassa", p.ID, entities.CreateActionPayment, nil)
		require.ErrorIs(t, err, ErrPaymentInProgress)
		require.Equal(t, "pay_first", h.reload(t, p.ID).TransactionID)
	})

	t.Run("existing transaction still pending", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		gw := mockGateway(ctrl, "yookassa")
		h := newHarness(t, gw)
		p := h.attached(t, "yookassa", "pay_abc")

		gw.EXPECT().Verify(gomock.Any(), "pay_abc").Return(verified("pay_abc", p.ID, entities.GatewayStatusPending), nil)

		_, err := h.uc.Start(ctx, "yookassa", p.ID, entities.CreateActionIndex, nil)
		require.ErrorIs(t, err, ErrPaymentInProgress)
	})

	t.Run("existing transaction already succeeded", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		gw := mockGateway(ctrl, "yookassa")
		h := newHarness(t, gw)
		p := h.attached(t, "yookassa", "pay_abc")

		gw.EXPECT().Verify(gomock.Any(), "pay_abc").Return(verified("pay_abc", p.ID, entities.GatewayStatusSucceeded), nil)

		res, err := h.uc.Start(ctx, "yookassa", p.ID, entities.CreateActionIndex, nil)
		require.NoError(t, err)
		require.Equal(t, OutcomeSuccess, res.Outcome)
		require.True(t, h.reload(t, p.ID).IsPaid)
		require.Equal(t, 1, h.hooks.count("on_success"))
	})
}

func TestReconciliation_Return(t *testing.T) {
	ctx := context.Background()

	t.Run("verify retried while pending", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		gw := mockGateway(ctrl, "yookassa")
		h := newHarness(t, gw)
		p := h.attached(t, "yookassa", "pay_abc")

		gomock.InOrder(
			gw.EXPECT().Verify(gomock.Any(), "pay_abc").Return(verified("pay_abc", p.ID, entities.GatewayStatusPending), nil),
			gw.EXPECT().Verify(gomock.Any(), "pay_abc").Return(entities.VerifyResult{}, fmt.Errorf("%w: 503", interfaces.ErrGatewayUnreachable)),
			gw.EXPECT().Verify(gomock.Any(), "pay_abc").Return(verified("pay_abc", p.ID, entities.GatewayStatusSucceeded), nil),
		)

		res, err := h.uc.Return(ctx, "yookassa", p.ID)
		require.NoError(t, err)
		require.Equal(t, OutcomeSuccess, res.Outcome)
		require.True(t, res.PaymentRequest.IsPaid)
		require.Equal(t, 1, h.hooks.count("on_success"))
	})

	t.Run("canceled commits the failure once", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		gw := mockGateway(ctrl, "yookassa")
		h := newHarness(t, gw)
		p := h.attached(t, "yookassa", "pay_abc")

		gw.EXPECT().Verify(gomock.Any(), "pay_abc").Return(verified("pay_abc", p.ID, entities.GatewayStatusCanceled), nil)

		res, err := h.uc.Return(ctx, "yookassa", p.ID)
		require.NoError(t, err)
		require.Equal(t, OutcomeFail, res.Outcome)
		require.True(t, h.reload(t, p.ID).IsFailed)

		res, err = h.uc.Return(ctx, "yookassa", p.ID)
		require.NoError(t, err)
		require.Equal(t, OutcomeFail, res.Outcome)
		require.Equal(t, 1, h.hooks.count("on_fail"))
		require.Equal(t, 0, h.hooks.count("on_success"))
	})

	t.Run("pending at the deadline commits nothing", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		gw := mockGateway(ctrl, "yookassa")
		h := newHarnessWithConfig(t, ReconciliationConfig{
			ReturnVerifyTimeout:     30 * time.Millisecond,
			ReturnVerifyMinInterval: time.Millisecond,
			ReturnVerifyMaxInterval: 5 * time.Millisecond,
		}, gw)
		p := h.attached(t, "yookassa", "pay_abc")

		gw.EXPECT().Verify(gomock.Any(), "pay_abc").Return(verified("pay_abc", p.ID, entities.GatewayStatusPending), nil).MinTimes(1)

		res, err := h.uc.Return(ctx, "yookassa", p.ID)
		require.NoError(t, err)
		require.Equal(t, OutcomeFail, res.Outcome)

		stored := h.reload(t, p.ID)
		require.False(t, stored.IsResolved())
		require.Equal(t, 0, h.hooks.count("on_fail"))
		require.Equal(t, 0, h.hooks.count("on_success"))
	})

	t.Run("rejected verify commits nothing", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		gw := mockGateway(ctrl, "yookassa")
		h := newHarness(t, gw)
		p := h.attached(t, "yookassa", "pay_abc")

		gw.EXPECT().Verify(gomock.Any(), "pay_abc").Return(entities.VerifyResult{}, fmt.Errorf("%w: 404 not found", interfaces.ErrGatewayRejected))

		res, err := h.uc.Return(ctx, "yookassa", p.ID)
		require.NoError(t, err)
		require.Equal(t, OutcomeFail, res.Outcome)
		require.False(t, h.reload(t, p.ID).IsResolved())
	})

	t.Run("unknown entry renders failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		h := newHarness(t, mockGateway(ctrl, "yookassa"))
		res, err := h.uc.Return(ctx, "yookassa", "missing")
		require.NoError(t, err)
		require.Equal(t, OutcomeFail, res.Outcome)
	})

	t.Run("return before create renders failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		h := newHarness(t, mockGateway(ctrl, "yookassa"))
		p := h.entry(t, "yookassa")
		res, err := h.uc.Return(ctx, "yookassa", p.ID)
		require.NoError(t, err)
		require.Equal(t, OutcomeFail, res.Outcome)
		require.Equal(t, entities.PaymentStatusPending, h.reload(t, p.ID).Status())
	})
}

func TestReconciliation_Webhook(t *testing.T) {
	ctx := context.Background()
	body := []byte(`{}`)

	setup := func(t *testing.T) (*harness, *mock_interfaces.MockIPaymentGateway) {
		ctrl := gomock.NewController(t)
		gw := mockGateway(ctrl, "yookassa")
		gw.EXPECT().VerifyWebhookSignature(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
		return newHarness(t, gw), gw
	}

	t.Run("invalid signature", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		gw := mockGateway(ctrl, "yookassa")
		gw.EXPECT().VerifyWebhookSignature(gomock.Any(), gomock.Any(), gomock.Any()).Return(interfaces.ErrInvalidSignature)
		h := newHarness(t, gw)

		_, err := h.uc.HandleWebhook(ctx, "yookassa", http.Header{}, "1.2.3.4", body)
		require.ErrorIs(t, err, interfaces.ErrInvalidSignature)
	})

	t.Run("invalid payload", func(t *testing.T) {
		h, gw := setup(t)
		gw.EXPECT().ParseWebhook(body).Return(entities.WebhookEvent{}, interfaces.ErrInvalidPayload)

		_, err := h.uc.HandleWebhook(ctx, "yookassa", http.Header{}, "", body)
		require.ErrorIs(t, err, interfaces.ErrInvalidPayload)
	})

	t.Run("unknown event is acknowledged", func(t *testing.T) {
		h, gw := setup(t)
		gw.EXPECT().ParseWebhook(body).Return(entities.WebhookEvent{Type: entities.WebhookEventUnknown, ProviderEvent: "refund.succeeded"}, nil)

		res, err := h.uc.HandleWebhook(ctx, "yookassa", http.Header{}, "", body)
		require.NoError(t, err)
		require.Equal(t, WebhookIgnored, res.Status)
	})

	t.Run("unknown entry is acknowledged", func(t *testing.T) {
		h, gw := setup(t)
		gw.EXPECT().ParseWebhook(body).Return(entities.WebhookEvent{Type: entities.WebhookEventSucceeded, TransactionID: "pay_x", PaymentRequestID: "missing"}, nil)

		res, err := h.uc.HandleWebhook(ctx, "yookassa", http.Header{}, "", body)
		require.NoError(t, err)
		require.Equal(t, WebhookIgnored, res.Status)
	})

	t.Run("unreachable verify asks for redelivery", func(t *testing.T) {
		h, gw := setup(t)
		p := h.attached(t, "yookassa", "pay_abc")
		gw.EXPECT().ParseWebhook(body).Return(entities.WebhookEvent{Type: entities.WebhookEventSucceeded, TransactionID: "pay_abc"}, nil)
		gw.EXPECT().Verify(gomock.Any(), "pay_abc").Return(entities.VerifyResult{}, interfaces.ErrGatewayUnreachable)

		_, err := h.uc.HandleWebhook(ctx, "yookassa", http.Header{}, "", body)
		require.ErrorIs(t, err, interfaces.ErrGatewayUnreachable)
		require.False(t, h.reload(t, p.ID).IsPaid)
	})

	t.Run("event is not trusted without verify", func(t *testing.T) {
		h, gw := setup(t)
		p := h.attached(t, "yookassa", "pay_abc")
		gw.EXPECT().ParseWebhook(body).Return(entities.WebhookEvent{Type: entities.WebhookEventSucceeded, TransactionID: "pay_abc"}, nil)
		gw.EXPECT().Verify(gomock.Any(), "pay_abc").Return(verified("pay_abc", p.ID, entities.GatewayStatusPending), nil)

		res, err := h.uc.HandleWebhook(ctx, "yookassa", http.Header{}, "", body)
		require.NoError(t, err)
		require.Equal(t, OutcomePending, res.Outcome)
		require.False(t, h.reload(t, p.ID).IsPaid)
		require.Equal(t, 0, h.hooks.count("on_success"))
	})

	t.Run("verified payment of another entry is ignored", func(t *testing.T) {
		h, gw := setup(t)
		p := h.entry(t, "yookassa")
		gw.EXPECT().ParseWebhook(body).Return(entities.WebhookEvent{Type: entities.WebhookEventSucceeded, TransactionID: "pay_other", PaymentRequestID: p.ID}, nil)
		gw.EXPECT().Verify(gomock.Any(), "pay_other").Return(verified("pay_other", "someone-else", entities.GatewayStatusSucceeded), nil)

		res, err := h.uc.HandleWebhook(ctx, "yookassa", http.Header{}, "", body)
		require.NoError(t, err)
		require.Equal(t, WebhookIgnored, res.Status)
		require.False(t, h.reload(t, p.ID).IsPaid)
	})

	t.Run("settles an entry whose create response was lost", func(t *testing.T) {
		h, gw := setup(t)
		p := h.entry(t, "yookassa")
		gw.EXPECT().ParseWebhook(body).Return(entities.WebhookEvent{Type: entities.WebhookEventSucceeded, TransactionID: "pay_late", PaymentRequestID: p.ID}, nil)
		gw.EXPECT().Verify(gomock.Any(), "pay_late").Return(verified("pay_late", p.ID, entities.GatewayStatusSucceeded), nil)

		res, err := h.uc.HandleWebhook(ctx, "yookassa", http.Header{}, "", body)
		require.NoError(t, err)
		require.Equal(t, WebhookProcessed, res.Status)

		stored := h.reload(t, p.ID)
		require.True(t, stored.IsPaid)
		require.Equal(t, "pay_late", stored.TransactionID)
		require.Equal(t, 1, h.hooks.count("on_success"))
	})

	t.Run("canceled event fires the failure hook", func(t *testing.T) {
		h, gw := setup(t)
		p := h.attached(t, "yookassa", "pay_abc")
		gw.EXPECT().ParseWebhook(body).Return(entities.WebhookEvent{Type: entities.WebhookEventCanceled, TransactionID: "pay_abc"}, nil).Times(2)
		gw.EXPECT().Verify(gomock.Any(), "pay_abc").Return(verified("pay_abc", p.ID, entities.GatewayStatusCanceled), nil)

		res, err := h.uc.HandleWebhook(ctx, "yookassa", http.Header{}, "", body)
		require.NoError(t, err)
		require.Equal(t, OutcomeFail, res.Outcome)

		res, err = h.uc.HandleWebhook(ctx, "yookassa", http.Header{}, "", body)
		require.NoError(t, err)
		require.Equal(t, WebhookNoop, res.Status)
		require.Equal(t, 1, h.hooks.count("on_fail"))
	})
}

func TestReconciliation_PollAndCancel(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	gw := mockGateway(ctrl, "yookassa")
	h := newHarness(t, gw)
	p := h.attached(t, "yookassa", "pay_abc")

	res, err := h.uc.Poll(ctx, p.ID, false)
	require.NoError(t, err)
	require.Equal(t, OutcomePending, res.Outcome)

	gw.EXPECT().Verify(gomock.Any(), "pay_abc").Return(verified("pay_abc", p.ID, entities.GatewayStatusPending), nil)
	res, err = h.uc.Poll(ctx, p.ID, true)
	require.NoError(t, err)
	require.Equal(t, OutcomePending, res.Outcome)

	c, err := h.uc.Cancel(ctx, "yookassa", p.ID)
	require.NoError(t, err)
	require.Equal(t, OutcomeCancel, c.Outcome)
	require.False(t, h.reload(t, p.ID).IsResolved())

	gw.EXPECT().Verify(gomock.Any(), "pay_abc").Return(verified("pay_abc", p.ID, entities.GatewayStatusSucceeded), nil)
	res, err = h.uc.Poll(ctx, p.ID, true)
	require.NoError(t, err)
	require.Equal(t, OutcomeSuccess, res.Outcome)
	require.Equal(t, 1, h.hooks.count("on_success"))
	require.Equal(t, float64(1), testutil.ToFloat64(h.metrics.SettlementsTotal.WithLabelValues("yookassa", metrics.ChannelPoll)))

	c, err = h.uc.Cancel(ctx, "yookassa", p.ID)
	require.NoError(t, err)
	require.Equal(t, OutcomeSuccess, c.Outcome)

	_, err = h.uc.Poll(ctx, "missing", false)
	require.True(t, errors.Is(err, ErrPaymentRequestNotFound))
}

func TestReconciliation_ConcurrentChannelsSettleOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	gw := mockGateway(ctrl, "yookassa")
	h := newHarness(t, gw)
	p := h.attached(t, "yookassa", "pay_abc")

	gw.EXPECT().VerifyWebhookSignature(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	gw.EXPECT().ParseWebhook(gomock.Any()).Return(entities.WebhookEvent{Type: entities.WebhookEventSucceeded, TransactionID: "pay_abc", PaymentRequestID: p.ID}, nil).AnyTimes()
	gw.EXPECT().Verify(gomock.Any(), "pay_abc").Return(verified("pay_abc", p.ID, entities.GatewayStatusSucceeded), nil).AnyTimes()

	const n = 16
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var err error
			switch i % 3 {
			case 0:
				_, err = h.uc.Return(context.Background(), "yookassa", p.ID)
			case 1:
				_, err = h.uc.HandleWebhook(context.Background(), "yookassa", http.Header{}, "", []byte(`{}`))
			default:
				_, err = h.uc.Poll(context.Background(), p.ID, true)
			}
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	require.True(t, h.reload(t, p.ID).IsPaid)
	require.Equal(t, 1, h.hooks.count("on_success"))
	require.Equal(t, 0, h.hooks.count("on_fail"))
}

func TestReconciliation_SuccessAndCancelRace(t *testing.T) {
	h := newHarness(t)
	for i := 0; i < 50; i++ {
		p := h.attached(t, "yookassa", fmt.Sprintf("pay_%d", i))

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := h.uc.reconcile(context.Background(), p, verified(p.TransactionID, p.ID, entities.GatewayStatusSucceeded), metrics.ChannelReturn)
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, err := h.uc.reconcile(context.Background(), p, verified(p.TransactionID, p.ID, entities.GatewayStatusCanceled), metrics.ChannelWebhook)
			assert.NoError(t, err)
		}()
		wg.Wait()

		stored := h.reload(t, p.ID)
		require.True(t, stored.IsPaid != stored.IsFailed, "exactly one terminal state")
	}
	require.Equal(t, 50, h.hooks.count("on_success")+h.hooks.count("on_fail"))

	settled := testutil.ToFloat64(h.metrics.SettlementsTotal.WithLabelValues("yookassa", metrics.ChannelReturn))
	failed := testutil.ToFloat64(h.metrics.FailuresTotal.WithLabelValues("yookassa", metrics.ChannelWebhook))
	require.Equal(t, float64(h.hooks.count("on_success")), settled)
	require.Equal(t, float64(h.hooks.count("on_fail")), failed)
}
