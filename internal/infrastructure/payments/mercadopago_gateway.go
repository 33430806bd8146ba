package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"marketplace_payments/internal/domain/entities"
	"marketplace_payments/internal/infrastructure/metrics"
	"marketplace_payments/internal/usecase/interfaces"

	"github.com/cenkalti/backoff/v4"
	"github.com/mercadopago/sdk-go/pkg/config"
	"github.com/mercadopago/sdk-go/pkg/payment"
	"go.uber.org/zap"
)

var ErrMissingMercadoPagoAccessToken = errors.New("missing mercado pago access token")

const (
	mercadoPagoSignatureHeader = "X-Signature"
	mercadoPagoRequestIDHeader = "X-Request-Id"
)

// mercadoPagoClient is the part of the SDK payment client the gateway uses.
type mercadoPagoClient interface {
	Create(ctx context.Context, request payment.Request) (*payment.Response, error)
	Get(ctx context.Context, id int) (*payment.Response, error)
}

type MercadoPagoOptions struct {
	AccessToken   string
	PublicKey     string
	WebhookSecret string
	PublicBaseURL string
	HTTP          HTTPClientConfig
	Logger        *zap.Logger
	Metrics       *metrics.PaymentMetrics
}

// MercadoPagoGateway charges card tokens produced by the checkout brick
// through the official SDK.
type MercadoPagoGateway struct {
	client        mercadoPagoClient
	publicKey     string
	webhookSecret string
	publicBaseURL string
	http          HTTPClientConfig
	log           *zap.Logger
	metrics       *metrics.PaymentMetrics
}

var _ interfaces.IPaymentGateway = (*MercadoPagoGateway)(nil)

func NewMercadoPagoGateway(opts MercadoPagoOptions) (*MercadoPagoGateway, error) {
	if opts.AccessToken == "" {
		return nil, ErrMissingMercadoPagoAccessToken
	}
	cfg, err := config.New(opts.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("mercado pago sdk config: %w", err)
	}
	g := newMercadoPagoGateway(payment.NewClient(cfg), opts)
	g.log.Info("client initialized")
	return g, nil
}

func newMercadoPagoGateway(client mercadoPagoClient, opts MercadoPagoOptions) *MercadoPagoGateway {
	log := opts.Logger.Named("payment.gateway.mercadopago")
	if opts.WebhookSecret == "" {
		log.Warn("webhook secret not configured, every webhook will be rejected")
	}
	return &MercadoPagoGateway{
		client:        client,
		publicKey:     opts.PublicKey,
		webhookSecret: opts.WebhookSecret,
		publicBaseURL: opts.PublicBaseURL,
		http:          opts.HTTP.withDefaults(),
		log:           log,
		metrics:       opts.Metrics,
	}
}

func (g *MercadoPagoGateway) Name() string { return GatewayMercadoPago }

// Create has two steps. Without a payload it returns the checkout artifact the
// brick needs to tokenize the card. With the brick's payload (token,
// payment_method_id, installments, payer) it charges the card; the payment is
// usually resolved synchronously and the result carries its status.
func (g *MercadoPagoGateway) Create(ctx context.Context, p entities.PaymentRequest, _ entities.CreateAction, payload json.RawMessage) (entities.CreateResult, error) {
	if len(payload) == 0 || strings.TrimSpace(string(payload)) == "null" {
		return entities.CreateResult{
			Kind:      entities.ArtifactCheckout,
			PublicKey: g.publicKey,
			Extra: map[string]string{
				"amount":     formatAmount(p.PaymentAmount),
				"currency":   p.CurrencyCode,
				"payment_id": p.ID,
				"submit_url": returnURL(g.publicBaseURL, GatewayMercadoPago, "payment", p.ID),
			},
		}, nil
	}

	body := map[string]any{}
	if err := json.Unmarshal(payload, &body); err != nil {
		return entities.CreateResult{}, fmt.Errorf("%w: payload is not a json object: %v", interfaces.ErrGatewayRejected, err)
	}
	if !hasNonEmptyString(body, "payment_method_id") {
		return entities.CreateResult{}, fmt.Errorf("%w: payment_method_id is required", interfaces.ErrGatewayRejected)
	}
	// Amount and correlation always come from the ledger, never from the browser.
	body["transaction_amount"] = toFloat(p.PaymentAmount)
	body["external_reference"] = p.ID
	body["metadata"] = map[string]string{metadataPaymentID: p.ID, metadataOrderID: p.AttributeID}
	body["notification_url"] = webhookURL(g.publicBaseURL, GatewayMercadoPago)
	if !hasNonEmptyString(body, "description") {
		body["description"] = "Order payment #" + p.ID
	}
	ensurePayerEmail(body, p.PayerInformation.Email)

	normalized, err := json.Marshal(body)
	if err != nil {
		return entities.CreateResult{}, err
	}
	var req payment.Request
	if err := json.Unmarshal(normalized, &req); err != nil {
		return entities.CreateResult{}, fmt.Errorf("%w: payload does not match a payment request: %v", interfaces.ErrGatewayRejected, err)
	}

	g.log.Info("create start", zap.String("payment_id", p.ID), zap.Int("payload_len", len(payload)))
	start := time.Now()
	callCtx, cancel := context.WithTimeout(ctx, g.http.RequestTimeout)
	resp, err := g.client.Create(callCtx, req)
	cancel()
	err = classifyMercadoPagoError(err)
	g.metrics.ObserveGatewayCall(GatewayMercadoPago, "create", start, err)
	if err != nil {
		g.log.Error("sdk create failed", zap.String("payment_id", p.ID), zap.Error(err))
		return entities.CreateResult{}, err
	}

	raw, err := json.Marshal(resp)
	if err != nil {
		return entities.CreateResult{}, err
	}
	txID := strconv.Itoa(resp.ID)
	g.log.Info("create success", zap.String("payment_id", p.ID), zap.String("transaction_id", txID), zap.String("provider_status", resp.Status))
	return entities.CreateResult{
		TransactionID: txID,
		Kind:          entities.ArtifactRedirect,
		RedirectURL:   returnURL(g.publicBaseURL, GatewayMercadoPago, "return", p.ID),
		PublicKey:     g.publicKey,
		Status:        mapMercadoPagoStatus(resp.Status),
		Extra:         map[string]string{"status_detail": resp.StatusDetail},
		Raw:           raw,
	}, nil
}

// Verify reads the payment by id; transient failures are retried like the
// REST gateways.
func (g *MercadoPagoGateway) Verify(ctx context.Context, transactionID string) (entities.VerifyResult, error) {
	id, err := strconv.Atoi(strings.TrimSpace(transactionID))
	if err != nil {
		return entities.VerifyResult{}, fmt.Errorf("%w: transaction id %q is not numeric", interfaces.ErrGatewayRejected, transactionID)
	}

	start := time.Now()
	var resp *payment.Response
	err = backoff.Retry(func() error {
		callCtx, cancel := context.WithTimeout(ctx, g.http.RequestTimeout)
		defer cancel()
		r, err := g.client.Get(callCtx, id)
		if err = classifyMercadoPagoError(err); err != nil {
			if errors.Is(err, interfaces.ErrGatewayUnreachable) {
				g.log.Warn("sdk get failed", zap.String("transaction_id", transactionID), zap.Error(err))
				return err
			}
			return backoff.Permanent(err)
		}
		resp = r
		return nil
	}, retryPolicy(ctx, g.http, g.http.MaxAttempts))
	g.metrics.ObserveGatewayCall(GatewayMercadoPago, "verify", start, err)
	if err != nil {
		return entities.VerifyResult{}, err
	}
	if resp == nil {
		return entities.VerifyResult{}, fmt.Errorf("%w: empty payment response", interfaces.ErrGatewayRejected)
	}

	raw, _ := json.Marshal(resp)
	paymentID := resp.ExternalReference
	if v, ok := resp.Metadata[metadataPaymentID].(string); ok && v != "" {
		paymentID = v
	}
	return entities.VerifyResult{
		TransactionID:    strconv.Itoa(resp.ID),
		Status:           mapMercadoPagoStatus(resp.Status),
		PaymentRequestID: paymentID,
		Method:           GatewayMercadoPago,
		Raw:              raw,
	}, nil
}

type mercadoPagoNotification struct {
	Action string `json:"action"`
	Type   string `json:"type"`
	Topic  string `json:"topic"`
	Data   *struct {
		ID json.Number `json:"id"`
	} `json:"data"`
}

// ParseWebhook accepts the v2 notification body {action|type, data.id}.
// Notifications carry no outcome, so payment events are "updated" and the
// status is learnt by verifying.
func (g *MercadoPagoGateway) ParseWebhook(body []byte) (entities.WebhookEvent, error) {
	n, err := decodeMercadoPagoNotification(body)
	if err != nil {
		return entities.WebhookEvent{}, err
	}
	kind := n.Type
	if kind == "" {
		kind = n.Topic
	}
	event := n.Action
	if event == "" {
		event = kind
	}
	evt := entities.WebhookEvent{
		Type:          entities.WebhookEventUnknown,
		ProviderEvent: event,
		TransactionID: n.Data.ID.String(),
		Metadata:      map[string]string{},
	}
	if kind == "payment" || strings.HasPrefix(n.Action, "payment.") {
		evt.Type = entities.WebhookEventUpdated
	}
	return evt, nil
}

var mercadoPagoAlnum = regexp.MustCompile(`^[A-Za-z0-9]+$`)

// VerifyWebhookSignature checks x-signature "ts=<ts>,v1=<hex>", where v1 is the
// HMAC-SHA256 of "id:<data.id>;request-id:<x-request-id>;ts:<ts>;".
func (g *MercadoPagoGateway) VerifyWebhookSignature(headers http.Header, _ string, body []byte) error {
	if g.webhookSecret == "" {
		return fmt.Errorf("%w: webhook secret not configured", interfaces.ErrInvalidSignature)
	}
	var ts, v1 string
	for _, part := range strings.Split(headers.Get(mercadoPagoSignatureHeader), ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch strings.TrimSpace(k) {
		case "ts":
			ts = strings.TrimSpace(v)
		case "v1":
			v1 = strings.TrimSpace(v)
		}
	}
	if ts == "" || v1 == "" {
		return fmt.Errorf("%w: malformed %s", interfaces.ErrInvalidSignature, mercadoPagoSignatureHeader)
	}

	var manifest strings.Builder
	if n, err := decodeMercadoPagoNotification(body); err == nil {
		id := n.Data.ID.String()
		if mercadoPagoAlnum.MatchString(id) {
			id = strings.ToLower(id)
		}
		manifest.WriteString("id:" + id + ";")
	}
	if rid := headers.Get(mercadoPagoRequestIDHeader); rid != "" {
		manifest.WriteString("request-id:" + rid + ";")
	}
	manifest.WriteString("ts:" + ts + ";")

	mac := hmac.New(sha256.New, []byte(g.webhookSecret))
	mac.Write([]byte(manifest.String()))
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(v1))) {
		return fmt.Errorf("%w: %s mismatch", interfaces.ErrInvalidSignature, mercadoPagoSignatureHeader)
	}
	return nil
}

func decodeMercadoPagoNotification(body []byte) (mercadoPagoNotification, error) {
	var n mercadoPagoNotification
	dec := json.NewDecoder(strings.NewReader(string(body)))
	dec.UseNumber()
	if err := dec.Decode(&n); err != nil {
		// data.id arrives as a string in v2 bodies and as a number in older ones.
		var alt struct {
			Action string `json:"action"`
			Type   string `json:"type"`
			Topic  string `json:"topic"`
			Data   *struct {
				ID string `json:"id"`
			} `json:"data"`
		}
		if err2 := json.Unmarshal(body, &alt); err2 != nil {
			return n, fmt.Errorf("%w: %v", interfaces.ErrInvalidPayload, err)
		}
		n = mercadoPagoNotification{Action: alt.Action, Type: alt.Type, Topic: alt.Topic}
		if alt.Data != nil {
			n.Data = &struct {
				ID json.Number `json:"id"`
			}{ID: json.Number(alt.Data.ID)}
		}
	}
	if (n.Action == "" && n.Type == "" && n.Topic == "") || n.Data == nil || n.Data.ID.String() == "" {
		return n, fmt.Errorf("%w: type and data.id are required", interfaces.ErrInvalidPayload)
	}
	return n, nil
}

func mapMercadoPagoStatus(status string) entities.GatewayStatus {
	switch status {
	case "approved":
		return entities.GatewayStatusSucceeded
	case "rejected", "cancelled", "refunded", "charged_back":
		return entities.GatewayStatusCanceled
	default:
		// pending, in_process, authorized, in_mediation
		return entities.GatewayStatusPending
	}
}

// classifyMercadoPagoError maps SDK errors onto the gateway taxonomy. The SDK
// reports API errors as text, so 4xx bodies are recognised by their markers.
func classifyMercadoPagoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, interfaces.ErrGatewayRejected) || errors.Is(err, interfaces.ErrGatewayUnreachable) {
		return err
	}
	switch {
	case isGatewayBadRequest(err), isGatewayUnauthorized(err), isGatewayNotFound(err),
		isGatewayInvalidUsers(err), isGatewayCustomerNotFound(err):
		return fmt.Errorf("%w: %v", interfaces.ErrGatewayRejected, err)
	}
	return fmt.Errorf("%w: %v", interfaces.ErrGatewayUnreachable, err)
}

func isGatewayBadRequest(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "\"error\":\"bad_request\"") || strings.Contains(msg, "\"status\":400")
}

func isGatewayUnauthorized(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "\"error\":\"unauthorized\"") || strings.Contains(msg, "\"status\":401") ||
		strings.Contains(msg, "\"status\":403")
}

func isGatewayNotFound(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "\"error\":\"not_found\"") || strings.Contains(msg, "\"status\":404")
}

func isGatewayInvalidUsers(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "invalid users involved") || strings.Contains(msg, "\"code\":2034")
}

func isGatewayCustomerNotFound(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "customer not found") || strings.Contains(msg, "\"code\":2002")
}

func hasNonEmptyString(m map[string]any, key string) bool {
	s, ok := m[key].(string)
	return ok && strings.TrimSpace(s) != ""
}

// ensurePayerEmail fills payer.email from the ledger when the brick sent none.
func ensurePayerEmail(m map[string]any, email string) {
	payer, ok := m["payer"].(map[string]any)
	if !ok {
		payer = map[string]any{}
		m["payer"] = payer
	}
	if !hasNonEmptyString(payer, "email") && email != "" {
		payer["email"] = email
	}
}
