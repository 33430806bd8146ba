package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"marketplace_payments/internal/domain/entities"
	"marketplace_payments/internal/usecase/interfaces"

	"go.uber.org/zap"
)

const mockTransactionPrefix = "mock_"

// MockGateway stands in for a real provider when PAYMENT_GATEWAY_MOCK is on.
// Transactions are derived from the ledger id and always verify as succeeded.
type MockGateway struct {
	name          string
	publicBaseURL string
	log           *zap.Logger
}

var _ interfaces.IPaymentGateway = (*MockGateway)(nil)

func NewMockGateway(name, publicBaseURL string, log *zap.Logger) *MockGateway {
	return &MockGateway{name: name, publicBaseURL: publicBaseURL, log: log.Named("payment.gateway.mock").With(zap.String("gateway", name))}
}

func (g *MockGateway) Name() string { return g.name }

func (g *MockGateway) Create(_ context.Context, p entities.PaymentRequest, action entities.CreateAction, payload json.RawMessage) (entities.CreateResult, error) {
	g.log.Info("mock create start", zap.String("payment_id", p.ID), zap.String("action", string(action)), zap.Int("payload_len", len(payload)))
	txID := mockTransactionPrefix + p.ID
	raw, _ := json.Marshal(map[string]string{"id": txID, "status": "pending"})
	return entities.CreateResult{
		TransactionID: txID,
		Kind:          entities.ArtifactRedirect,
		RedirectURL:   returnURL(g.publicBaseURL, g.name, "return", p.ID),
		Status:        entities.GatewayStatusPending,
		Raw:           raw,
	}, nil
}

func (g *MockGateway) Verify(_ context.Context, transactionID string) (entities.VerifyResult, error) {
	if !strings.HasPrefix(transactionID, mockTransactionPrefix) {
		return entities.VerifyResult{}, fmt.Errorf("%w: unknown mock transaction %q", interfaces.ErrGatewayRejected, transactionID)
	}
	raw, _ := json.Marshal(map[string]string{"id": transactionID, "status": "succeeded"})
	return entities.VerifyResult{
		TransactionID:    transactionID,
		Status:           entities.GatewayStatusSucceeded,
		PaymentRequestID: strings.TrimPrefix(transactionID, mockTransactionPrefix),
		Method:           g.name,
		Raw:              raw,
	}, nil
}

type mockNotification struct {
	Event         string `json:"event"`
	TransactionID string `json:"transaction_id"`
	PaymentID     string `json:"payment_id"`
}

// ParseWebhook accepts {"event":"payment.succeeded|payment.canceled","transaction_id":..,"payment_id":..}.
func (g *MockGateway) ParseWebhook(body []byte) (entities.WebhookEvent, error) {
	var n mockNotification
	if err := json.Unmarshal(body, &n); err != nil {
		return entities.WebhookEvent{}, fmt.Errorf("%w: %v", interfaces.ErrInvalidPayload, err)
	}
	if n.Event == "" || (n.TransactionID == "" && n.PaymentID == "") {
		return entities.WebhookEvent{}, fmt.Errorf("%w: event and transaction_id are required", interfaces.ErrInvalidPayload)
	}
	evt := entities.WebhookEvent{
		Type:             entities.WebhookEventUnknown,
		ProviderEvent:    n.Event,
		TransactionID:    n.TransactionID,
		PaymentRequestID: n.PaymentID,
		Metadata:         map[string]string{metadataPaymentID: n.PaymentID},
	}
	switch n.Event {
	case "payment.succeeded":
		evt.Type = entities.WebhookEventSucceeded
	case "payment.canceled":
		evt.Type = entities.WebhookEventCanceled
	}
	return evt, nil
}

func (g *MockGateway) VerifyWebhookSignature(http.Header, string, []byte) error { return nil }
