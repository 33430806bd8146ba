package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"

	"marketplace_payments/internal/domain/entities"
	"marketplace_payments/internal/infrastructure/metrics"
	"marketplace_payments/internal/usecase/interfaces"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrMissingYooKassaCredentials = errors.New("missing yookassa shop id or secret key")

type YooKassaOptions struct {
	BaseURL       string
	ShopID        string
	SecretKey     string
	PublicBaseURL string
	// AllowedIPs are CIDRs (or bare IPs) notifications may originate from.
	// Empty disables the source check.
	AllowedIPs []string
	HTTP       HTTPClientConfig
	Receipts   *ReceiptBuilder
	Logger     *zap.Logger
	Metrics    *metrics.PaymentMetrics
}

// YooKassaGateway talks to the YooKassa v3 REST API.
type YooKassaGateway struct {
	api           *apiClient
	baseURL       string
	shopID        string
	secretKey     string
	publicBaseURL string
	allowed       []*net.IPNet
	receipts      *ReceiptBuilder
	log           *zap.Logger
}

var _ interfaces.IPaymentGateway = (*YooKassaGateway)(nil)

func NewYooKassaGateway(opts YooKassaOptions) (*YooKassaGateway, error) {
	if opts.ShopID == "" || opts.SecretKey == "" {
		return nil, ErrMissingYooKassaCredentials
	}
	allowed, err := parseCIDRs(opts.AllowedIPs)
	if err != nil {
		return nil, fmt.Errorf("yookassa webhook allowlist: %w", err)
	}
	log := opts.Logger.Named("payment.gateway.yookassa")
	return &YooKassaGateway{
		api:           newAPIClient(GatewayYooKassa, opts.HTTP, log, opts.Metrics),
		baseURL:       strings.TrimRight(opts.BaseURL, "/"),
		shopID:        opts.ShopID,
		secretKey:     opts.SecretKey,
		publicBaseURL: opts.PublicBaseURL,
		allowed:       allowed,
		receipts:      opts.Receipts,
		log:           log,
	}, nil
}

func (g *YooKassaGateway) Name() string { return GatewayYooKassa }

type yooKassaConfirmation struct {
	Type              string `json:"type"`
	ReturnURL         string `json:"return_url,omitempty"`
	ConfirmationURL   string `json:"confirmation_url,omitempty"`
	ConfirmationToken string `json:"confirmation_token,omitempty"`
}

type yooKassaCreateRequest struct {
	Amount       Amount               `json:"amount"`
	Confirmation yooKassaConfirmation `json:"confirmation"`
	Capture      bool                 `json:"capture"`
	Description  string               `json:"description"`
	Metadata     map[string]string    `json:"metadata"`
	Receipt      *Receipt             `json:"receipt,omitempty"`
}

type yooKassaPayment struct {
	ID            string               `json:"id"`
	Status        string               `json:"status"`
	Paid          bool                 `json:"paid"`
	Confirmation  yooKassaConfirmation `json:"confirmation"`
	Metadata      flexibleMap          `json:"metadata"`
	PaymentMethod struct {
		Type string `json:"type"`
	} `json:"payment_method"`
}

// Create posts a new payment. The index action asks for an embedded
// confirmation token (widget); the payment action asks for a redirect.
func (g *YooKassaGateway) Create(ctx context.Context, p entities.PaymentRequest, action entities.CreateAction, _ json.RawMessage) (entities.CreateResult, error) {
	currency := p.CurrencyCode
	if currency == "" {
		currency = "RUB"
	}
	orderRef := p.AttributeID
	if orderRef == "" {
		orderRef = p.ID
	}

	body := yooKassaCreateRequest{
		Amount:      Amount{Value: formatAmount(p.PaymentAmount), Currency: currency},
		Capture:     true,
		Description: truncateRunes("Order payment #"+orderRef, 128),
		Metadata:    map[string]string{metadataPaymentID: p.ID},
	}
	if p.AttributeID != "" {
		body.Metadata[metadataOrderID] = p.AttributeID
	}
	if action == entities.CreateActionIndex {
		body.Confirmation = yooKassaConfirmation{Type: "embedded"}
	} else {
		body.Confirmation = yooKassaConfirmation{
			Type:      "redirect",
			ReturnURL: returnURL(g.publicBaseURL, GatewayYooKassa, "return", p.ID),
		}
	}
	if g.receipts != nil {
		body.Receipt = g.receipts.Build(ctx, p)
	}

	// One key per create call, shared by its retries, so YooKassa collapses
	// a retried POST into the payment it already created.
	idempotenceKey := uuid.NewString()
	g.log.Info("create start",
		zap.String("payment_id", p.ID), zap.String("confirmation", body.Confirmation.Type),
		zap.Bool("receipt", body.Receipt != nil), zap.String("idempotence_key", idempotenceKey))

	var resp yooKassaPayment
	var raw json.RawMessage
	err := g.api.do(ctx, apiRequest{
		operation: "create",
		method:    http.MethodPost,
		url:       g.baseURL + "/payments",
		header:    g.header(http.Header{"Idempotence-Key": []string{idempotenceKey}}),
		body:      body,
		retryable: true,
	}, &raw)
	if err != nil {
		g.log.Error("create failed", zap.String("payment_id", p.ID), zap.Error(err))
		return entities.CreateResult{}, err
	}
	if err := json.Unmarshal(raw, &resp); err != nil || resp.ID == "" {
		return entities.CreateResult{}, fmt.Errorf("%w: create response without payment id", interfaces.ErrGatewayRejected)
	}

	result := entities.CreateResult{
		TransactionID: resp.ID,
		Status:        mapYooKassaStatus(resp.Status),
		Raw:           raw,
	}
	switch resp.Confirmation.Type {
	case "embedded":
		result.Kind = entities.ArtifactEmbedded
		result.Token = resp.Confirmation.ConfirmationToken
		result.Extra = map[string]string{"return_url": returnURL(g.publicBaseURL, GatewayYooKassa, "return", p.ID)}
	default:
		result.Kind = entities.ArtifactRedirect
		result.RedirectURL = resp.Confirmation.ConfirmationURL
		if result.RedirectURL == "" {
			return entities.CreateResult{}, fmt.Errorf("%w: create response without confirmation url", interfaces.ErrGatewayRejected)
		}
	}
	g.log.Info("create success", zap.String("payment_id", p.ID), zap.String("transaction_id", resp.ID), zap.String("status", resp.Status))
	return result, nil
}

func (g *YooKassaGateway) Verify(ctx context.Context, transactionID string) (entities.VerifyResult, error) {
	if transactionID == "" {
		return entities.VerifyResult{}, fmt.Errorf("%w: empty transaction id", interfaces.ErrGatewayRejected)
	}
	var raw json.RawMessage
	err := g.api.do(ctx, apiRequest{
		operation: "verify",
		method:    http.MethodGet,
		url:       g.baseURL + "/payments/" + url.PathEscape(transactionID),
		header:    g.header(nil),
		retryable: true,
	}, &raw)
	if err != nil {
		return entities.VerifyResult{}, err
	}
	var resp yooKassaPayment
	if err := json.Unmarshal(raw, &resp); err != nil {
		return entities.VerifyResult{}, fmt.Errorf("%w: decode verify response: %v", interfaces.ErrGatewayRejected, err)
	}
	return entities.VerifyResult{
		TransactionID:    resp.ID,
		Status:           mapYooKassaStatus(resp.Status),
		PaymentRequestID: resp.Metadata[metadataPaymentID],
		Method:           GatewayYooKassa,
		Raw:              raw,
	}, nil
}

type yooKassaNotification struct {
	Type   string          `json:"type"`
	Event  string          `json:"event"`
	Object json.RawMessage `json:"object"`
}

// ParseWebhook requires the event and object envelope fields.
func (g *YooKassaGateway) ParseWebhook(body []byte) (entities.WebhookEvent, error) {
	var n yooKassaNotification
	if err := json.Unmarshal(body, &n); err != nil {
		return entities.WebhookEvent{}, fmt.Errorf("%w: %v", interfaces.ErrInvalidPayload, err)
	}
	obj := strings.TrimSpace(string(n.Object))
	if n.Event == "" || obj == "" || obj == "null" {
		return entities.WebhookEvent{}, fmt.Errorf("%w: event and object are required", interfaces.ErrInvalidPayload)
	}
	var payment yooKassaPayment
	if err := json.Unmarshal(n.Object, &payment); err != nil {
		return entities.WebhookEvent{}, fmt.Errorf("%w: object: %v", interfaces.ErrInvalidPayload, err)
	}

	evt := entities.WebhookEvent{
		Type:             entities.WebhookEventUnknown,
		ProviderEvent:    n.Event,
		TransactionID:    payment.ID,
		PaymentRequestID: payment.Metadata[metadataPaymentID],
		Metadata:         payment.Metadata,
	}
	switch n.Event {
	case "payment.succeeded":
		evt.Type = entities.WebhookEventSucceeded
	case "payment.canceled":
		evt.Type = entities.WebhookEventCanceled
	}
	return evt, nil
}

// VerifyWebhookSignature checks the notification source address: YooKassa
// does not sign notification bodies.
func (g *YooKassaGateway) VerifyWebhookSignature(_ http.Header, remoteIP string, _ []byte) error {
	if len(g.allowed) == 0 {
		return nil
	}
	ip := net.ParseIP(strings.TrimSpace(remoteIP))
	if ip == nil {
		return fmt.Errorf("%w: unparseable source address %q", interfaces.ErrInvalidSignature, remoteIP)
	}
	for _, n := range g.allowed {
		if n.Contains(ip) {
			return nil
		}
	}
	return fmt.Errorf("%w: source %s not in allowlist", interfaces.ErrInvalidSignature, ip)
}

func (g *YooKassaGateway) header(extra http.Header) http.Header {
	h := http.Header{}
	for k, v := range extra {
		h[k] = v
	}
	h.Set("Authorization", basicAuth(g.shopID, g.secretKey))
	return h
}

func mapYooKassaStatus(status string) entities.GatewayStatus {
	switch status {
	case "succeeded":
		return entities.GatewayStatusSucceeded
	case "canceled":
		return entities.GatewayStatusCanceled
	default:
		// pending, waiting_for_capture
		return entities.GatewayStatusPending
	}
}

func parseCIDRs(values []string) ([]*net.IPNet, error) {
	var out []*net.IPNet
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if !strings.Contains(v, "/") {
			if ip := net.ParseIP(v); ip != nil && ip.To4() != nil {
				v += "/32"
			} else {
				v += "/128"
			}
		}
		_, n, err := net.ParseCIDR(v)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}
