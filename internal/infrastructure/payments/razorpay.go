package payments

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"marketplace_payments/internal/domain/entities"
	"marketplace_payments/internal/infrastructure/metrics"
	"marketplace_payments/internal/usecase/interfaces"

	"go.uber.org/zap"
)

var ErrMissingRazorpayCredentials = errors.New("missing razorpay key id or key secret")

const razorpaySignatureHeader = "X-Razorpay-Signature"

type RazorpayOptions struct {
	BaseURL       string
	KeyID         string
	KeySecret     string
	WebhookSecret string
	PublicBaseURL string
	HTTP          HTTPClientConfig
	Logger        *zap.Logger
	Metrics       *metrics.PaymentMetrics
}

// RazorpayGateway uses Razorpay orders: the order id is the transaction id
// and the hosted checkout collects the payment against it.
type RazorpayGateway struct {
	api           *apiClient
	baseURL       string
	keyID         string
	keySecret     string
	webhookSecret string
	publicBaseURL string
	log           *zap.Logger
}

var _ interfaces.IPaymentGateway = (*RazorpayGateway)(nil)

func NewRazorpayGateway(opts RazorpayOptions) (*RazorpayGateway, error) {
	if opts.KeyID == "" || opts.KeySecret == "" {
		return nil, ErrMissingRazorpayCredentials
	}
	log := opts.Logger.Named("payment.gateway.razorpay")
	if opts.WebhookSecret == "" {
		log.Warn("webhook secret not configured, every webhook will be rejected")
	}
	return &RazorpayGateway{
		api:           newAPIClient(GatewayRazorpay, opts.HTTP, log, opts.Metrics),
		baseURL:       strings.TrimRight(opts.BaseURL, "/"),
		keyID:         opts.KeyID,
		keySecret:     opts.KeySecret,
		webhookSecret: opts.WebhookSecret,
		publicBaseURL: opts.PublicBaseURL,
		log:           log,
	}, nil
}

func (g *RazorpayGateway) Name() string { return GatewayRazorpay }

type razorpayOrderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes"`
}

type razorpayOrder struct {
	ID       string      `json:"id"`
	Status   string      `json:"status"`
	Amount   int64       `json:"amount"`
	Currency string      `json:"currency"`
	Receipt  string      `json:"receipt"`
	Notes    flexibleMap `json:"notes"`
}

// Create opens an order. Orders carry no idempotency key, so the POST is
// sent once; a lost response leaves an unused order behind, which is harmless.
func (g *RazorpayGateway) Create(ctx context.Context, p entities.PaymentRequest, _ entities.CreateAction, _ json.RawMessage) (entities.CreateResult, error) {
	currency := strings.ToUpper(p.CurrencyCode)
	if currency == "" {
		currency = "INR"
	}
	notes := map[string]string{metadataPaymentID: p.ID}
	if p.AttributeID != "" {
		notes[metadataOrderID] = p.AttributeID
	}
	body := razorpayOrderRequest{
		Amount:   toMinorUnits(p.PaymentAmount, currency),
		Currency: currency,
		Receipt:  truncateRunes(p.ID, 40),
		Notes:    notes,
	}
	g.log.Info("create start", zap.String("payment_id", p.ID), zap.Int64("amount_minor", body.Amount))

	var raw json.RawMessage
	err := g.api.do(ctx, apiRequest{
		operation: "create",
		method:    http.MethodPost,
		url:       g.baseURL + "/v1/orders",
		header:    g.header(),
		body:      body,
	}, &raw)
	if err != nil {
		g.log.Error("create failed", zap.String("payment_id", p.ID), zap.Error(err))
		return entities.CreateResult{}, err
	}
	var order razorpayOrder
	if err := json.Unmarshal(raw, &order); err != nil || order.ID == "" {
		return entities.CreateResult{}, fmt.Errorf("%w: create response without order id", interfaces.ErrGatewayRejected)
	}

	extra := map[string]string{
		"order_id":     order.ID,
		"amount":       strconv.FormatInt(body.Amount, 10),
		"currency":     currency,
		"callback_url": returnURL(g.publicBaseURL, GatewayRazorpay, "callback", p.ID),
	}
	if name := p.BusinessName(); name != "" {
		extra["name"] = name
	}
	if p.PayerInformation.Email != "" {
		extra["prefill_email"] = p.PayerInformation.Email
	}
	if p.PayerInformation.Phone != "" {
		extra["prefill_contact"] = p.PayerInformation.Phone
	}
	g.log.Info("create success", zap.String("payment_id", p.ID), zap.String("transaction_id", order.ID))
	return entities.CreateResult{
		TransactionID: order.ID,
		Kind:          entities.ArtifactCheckout,
		Token:         order.ID,
		PublicKey:     g.keyID,
		Extra:         extra,
		Status:        mapRazorpayOrderStatus(order.Status),
		Raw:           raw,
	}, nil
}

// Verify reads the order: only "paid" is terminal. A failed payment leaves
// the order "attempted" and the payer may retry against it.
func (g *RazorpayGateway) Verify(ctx context.Context, transactionID string) (entities.VerifyResult, error) {
	if transactionID == "" {
		return entities.VerifyResult{}, fmt.Errorf("%w: empty transaction id", interfaces.ErrGatewayRejected)
	}
	var raw json.RawMessage
	err := g.api.do(ctx, apiRequest{
		operation: "verify",
		method:    http.MethodGet,
		url:       g.baseURL + "/v1/orders/" + url.PathEscape(transactionID),
		header:    g.header(),
		retryable: true,
	}, &raw)
	if err != nil {
		return entities.VerifyResult{}, err
	}
	var order razorpayOrder
	if err := json.Unmarshal(raw, &order); err != nil {
		return entities.VerifyResult{}, fmt.Errorf("%w: decode verify response: %v", interfaces.ErrGatewayRejected, err)
	}
	paymentID := order.Notes[metadataPaymentID]
	if paymentID == "" {
		paymentID = order.Receipt
	}
	return entities.VerifyResult{
		TransactionID:    order.ID,
		Status:           mapRazorpayOrderStatus(order.Status),
		PaymentRequestID: paymentID,
		Method:           GatewayRazorpay,
		Raw:              raw,
	}, nil
}

type razorpayWebhook struct {
	Event   string `json:"event"`
	Payload *struct {
		Payment *struct {
			Entity struct {
				ID      string      `json:"id"`
				OrderID string      `json:"order_id"`
				Status  string      `json:"status"`
				Notes   flexibleMap `json:"notes"`
			} `json:"entity"`
		} `json:"payment"`
		Order *struct {
			Entity razorpayOrder `json:"entity"`
		} `json:"order"`
	} `json:"payload"`
}

func (g *RazorpayGateway) ParseWebhook(body []byte) (entities.WebhookEvent, error) {
	var n razorpayWebhook
	if err := json.Unmarshal(body, &n); err != nil {
		return entities.WebhookEvent{}, fmt.Errorf("%w: %v", interfaces.ErrInvalidPayload, err)
	}
	if n.Event == "" || n.Payload == nil {
		return entities.WebhookEvent{}, fmt.Errorf("%w: event and payload are required", interfaces.ErrInvalidPayload)
	}

	evt := entities.WebhookEvent{
		Type:          entities.WebhookEventUnknown,
		ProviderEvent: n.Event,
		Metadata:      map[string]string{},
	}
	if o := n.Payload.Order; o != nil {
		evt.TransactionID = o.Entity.ID
		for k, v := range o.Entity.Notes {
			evt.Metadata[k] = v
		}
		if evt.Metadata[metadataPaymentID] == "" && o.Entity.Receipt != "" {
			evt.Metadata[metadataPaymentID] = o.Entity.Receipt
		}
	}
	if pm := n.Payload.Payment; pm != nil {
		if evt.TransactionID == "" {
			evt.TransactionID = pm.Entity.OrderID
		}
		for k, v := range pm.Entity.Notes {
			if _, ok := evt.Metadata[k]; !ok {
				evt.Metadata[k] = v
			}
		}
		evt.Metadata["razorpay_payment_id"] = pm.Entity.ID
	}
	evt.PaymentRequestID = evt.Metadata[metadataPaymentID]

	switch n.Event {
	case "order.paid", "payment.captured":
		evt.Type = entities.WebhookEventSucceeded
	case "payment.failed":
		evt.Type = entities.WebhookEventCanceled
	}
	return evt, nil
}

// VerifyWebhookSignature checks X-Razorpay-Signature, the hex HMAC-SHA256 of
// the raw body keyed with the webhook secret.
func (g *RazorpayGateway) VerifyWebhookSignature(headers http.Header, _ string, body []byte) error {
	if g.webhookSecret == "" {
		return fmt.Errorf("%w: webhook secret not configured", interfaces.ErrInvalidSignature)
	}
	if !validHexMAC(sha256.New, g.webhookSecret, body, headers.Get(razorpaySignatureHeader)) {
		return fmt.Errorf("%w: %s mismatch", interfaces.ErrInvalidSignature, razorpaySignatureHeader)
	}
	return nil
}

func (g *RazorpayGateway) header() http.Header {
	return http.Header{"Authorization": []string{basicAuth(g.keyID, g.keySecret)}}
}

func mapRazorpayOrderStatus(status string) entities.GatewayStatus {
	if status == "paid" {
		return entities.GatewayStatusSucceeded
	}
	// created, attempted
	return entities.GatewayStatusPending
}
