package interfaces

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"marketplace_payments/internal/domain/entities"
)

var (
	// ErrGatewayRejected is wrapped with the provider message, which is for logs only.
	ErrGatewayRejected    = errors.New("payment gateway rejected the request")
	ErrGatewayUnreachable = errors.New("payment gateway unreachable")
	ErrInvalidPayload     = errors.New("invalid webhook payload")
	ErrInvalidSignature   = errors.New("invalid webhook signature")
)

// IPaymentGateway abstracts one external payment provider.
//
// Verify must be safe to call any number of times, concurrently, for the same
// transaction id.
type IPaymentGateway interface {
	Name() string
	Create(ctx context.Context, p entities.PaymentRequest, action entities.CreateAction, payload json.RawMessage) (entities.CreateResult, error)
	Verify(ctx context.Context, transactionID string) (entities.VerifyResult, error)
	ParseWebhook(body []byte) (entities.WebhookEvent, error)
	VerifyWebhookSignature(headers http.Header, remoteIP string, body []byte) error
}
