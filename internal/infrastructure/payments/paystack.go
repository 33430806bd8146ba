package payments

import (
	"context"
	"crypto/sha512"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"marketplace_payments/internal/domain/entities"
	"marketplace_payments/internal/infrastructure/metrics"
	"marketplace_payments/internal/usecase/interfaces"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrMissingPaystackCredentials = errors.New("missing paystack secret key")

const paystackSignatureHeader = "X-Paystack-Signature"

type PaystackOptions struct {
	BaseURL       string
	PublicKey     string
	SecretKey     string
	PublicBaseURL string
	HTTP          HTTPClientConfig
	Logger        *zap.Logger
	Metrics       *metrics.PaymentMetrics
}

// PaystackGateway talks to the Paystack transaction API.
type PaystackGateway struct {
	api           *apiClient
	baseURL       string
	publicKey     string
	secretKey     string
	publicBaseURL string
	log           *zap.Logger
}

var _ interfaces.IPaymentGateway = (*PaystackGateway)(nil)

func NewPaystackGateway(opts PaystackOptions) (*PaystackGateway, error) {
	if opts.SecretKey == "" {
		return nil, ErrMissingPaystackCredentials
	}
	log := opts.Logger.Named("payment.gateway.paystack")
	return &PaystackGateway{
		api:           newAPIClient(GatewayPaystack, opts.HTTP, log, opts.Metrics),
		baseURL:       strings.TrimRight(opts.BaseURL, "/"),
		publicKey:     opts.PublicKey,
		secretKey:     opts.SecretKey,
		publicBaseURL: opts.PublicBaseURL,
		log:           log,
	}, nil
}

func (g *PaystackGateway) Name() string { return GatewayPaystack }

type paystackEnvelope[T any] struct {
	Status  bool   `json:"status"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

type paystackInitializeRequest struct {
	Email       string            `json:"email"`
	Amount      int64             `json:"amount"`
	Currency    string            `json:"currency,omitempty"`
	Reference   string            `json:"reference"`
	CallbackURL string            `json:"callback_url"`
	Metadata    map[string]string `json:"metadata"`
}

type paystackInitializeData struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type paystackTransaction struct {
	Reference string      `json:"reference"`
	Status    string      `json:"status"`
	Amount    int64       `json:"amount"`
	Currency  string      `json:"currency"`
	Channel   string      `json:"channel"`
	Metadata  flexibleMap `json:"metadata"`
}

// Create initializes a transaction. Each call uses a fresh reference derived
// from the ledger id; its retries reuse it, so Paystack refuses a duplicate
// rather than opening a second transaction.
func (g *PaystackGateway) Create(ctx context.Context, p entities.PaymentRequest, action entities.CreateAction, _ json.RawMessage) (entities.CreateResult, error) {
	if p.PayerInformation.Email == "" {
		return entities.CreateResult{}, fmt.Errorf("%w: payer email is required", interfaces.ErrGatewayRejected)
	}
	reference := p.ID + "-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	metadata := map[string]string{metadataPaymentID: p.ID}
	if p.AttributeID != "" {
		metadata[metadataOrderID] = p.AttributeID
	}
	body := paystackInitializeRequest{
		Email:       p.PayerInformation.Email,
		Amount:      toMinorUnits(p.PaymentAmount, p.CurrencyCode),
		Currency:    strings.ToUpper(p.CurrencyCode),
		Reference:   reference,
		CallbackURL: returnURL(g.publicBaseURL, GatewayPaystack, "callback", p.ID),
		Metadata:    metadata,
	}
	g.log.Info("create start", zap.String("payment_id", p.ID), zap.String("reference", reference), zap.Int64("amount_minor", body.Amount))

	var resp paystackEnvelope[paystackInitializeData]
	err := g.api.do(ctx, apiRequest{
		operation: "create",
		method:    http.MethodPost,
		url:       g.baseURL + "/transaction/initialize",
		header:    g.header(),
		body:      body,
		retryable: true,
	}, &resp)
	if err != nil {
		g.log.Error("create failed", zap.String("payment_id", p.ID), zap.Error(err))
		return entities.CreateResult{}, err
	}
	if !resp.Status || resp.Data.AuthorizationURL == "" {
		return entities.CreateResult{}, fmt.Errorf("%w: %s", interfaces.ErrGatewayRejected, resp.Message)
	}
	if resp.Data.Reference != "" {
		reference = resp.Data.Reference
	}

	result := entities.CreateResult{
		TransactionID: reference,
		Kind:          entities.ArtifactRedirect,
		RedirectURL:   resp.Data.AuthorizationURL,
		Status:        entities.GatewayStatusPending,
	}
	if action == entities.CreateActionIndex && g.publicKey != "" {
		// Paystack Inline resumes the initialized transaction by access code.
		result.Kind = entities.ArtifactCheckout
		result.Token = resp.Data.AccessCode
		result.PublicKey = g.publicKey
		result.Extra = map[string]string{
			"email":     p.PayerInformation.Email,
			"reference": reference,
		}
	}
	g.log.Info("create success", zap.String("payment_id", p.ID), zap.String("transaction_id", reference))
	return result, nil
}

func (g *PaystackGateway) Verify(ctx context.Context, transactionID string) (entities.VerifyResult, error) {
	if transactionID == "" {
		return entities.VerifyResult{}, fmt.Errorf("%w: empty transaction id", interfaces.ErrGatewayRejected)
	}
	var raw json.RawMessage
	err := g.api.do(ctx, apiRequest{
		operation: "verify",
		method:    http.MethodGet,
		url:       g.baseURL + "/transaction/verify/" + url.PathEscape(transactionID),
		header:    g.header(),
		retryable: true,
	}, &raw)
	if err != nil {
		return entities.VerifyResult{}, err
	}
	var resp paystackEnvelope[paystackTransaction]
	if err := json.Unmarshal(raw, &resp); err != nil {
		return entities.VerifyResult{}, fmt.Errorf("%w: decode verify response: %v", interfaces.ErrGatewayRejected, err)
	}
	if !resp.Status {
		return entities.VerifyResult{}, fmt.Errorf("%w: %s", interfaces.ErrGatewayRejected, resp.Message)
	}
	txID := resp.Data.Reference
	if txID == "" {
		txID = transactionID
	}
	return entities.VerifyResult{
		TransactionID:    txID,
		Status:           mapPaystackStatus(resp.Data.Status),
		PaymentRequestID: resp.Data.Metadata[metadataPaymentID],
		Method:           GatewayPaystack,
		Raw:              raw,
	}, nil
}

type paystackWebhook struct {
	Event string               `json:"event"`
	Data  *paystackTransaction `json:"data"`
}

func (g *PaystackGateway) ParseWebhook(body []byte) (entities.WebhookEvent, error) {
	var n paystackWebhook
	if err := json.Unmarshal(body, &n); err != nil {
		return entities.WebhookEvent{}, fmt.Errorf("%w: %v", interfaces.ErrInvalidPayload, err)
	}
	if n.Event == "" || n.Data == nil {
		return entities.WebhookEvent{}, fmt.Errorf("%w: event and data are required", interfaces.ErrInvalidPayload)
	}
	evt := entities.WebhookEvent{
		Type:             entities.WebhookEventUnknown,
		ProviderEvent:    n.Event,
		TransactionID:    n.Data.Reference,
		PaymentRequestID: n.Data.Metadata[metadataPaymentID],
		Metadata:         n.Data.Metadata,
	}
	switch n.Event {
	case "charge.success":
		evt.Type = entities.WebhookEventSucceeded
	case "charge.failed":
		evt.Type = entities.WebhookEventCanceled
	}
	return evt, nil
}

// VerifyWebhookSignature checks x-paystack-signature, the hex HMAC-SHA512 of
// the raw body keyed with the secret key.
func (g *PaystackGateway) VerifyWebhookSignature(headers http.Header, _ string, body []byte) error {
	if !validHexMAC(sha512.New, g.secretKey, body, headers.Get(paystackSignatureHeader)) {
		return fmt.Errorf("%w: %s mismatch", interfaces.ErrInvalidSignature, paystackSignatureHeader)
	}
	return nil
}

func (g *PaystackGateway) header() http.Header {
	return http.Header{"Authorization": []string{"Bearer " + g.secretKey}}
}

func mapPaystackStatus(status string) entities.GatewayStatus {
	switch status {
	case "success":
		return entities.GatewayStatusSucceeded
	case "failed", "reversed":
		return entities.GatewayStatusCanceled
	default:
		// abandoned (not completed yet), ongoing, pending, processing, queued
		return entities.GatewayStatusPending
	}
}
