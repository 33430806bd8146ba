package entities

import "encoding/json"

// GatewayStatus is the provider-agnostic payment status reported by verify.
type GatewayStatus string

const (
	GatewayStatusSucceeded GatewayStatus = "succeeded"
	GatewayStatusPending   GatewayStatus = "pending"
	GatewayStatusCanceled  GatewayStatus = "canceled"
)

// ArtifactKind tells the HTTP layer how to hand the create artifact to the payer.
type ArtifactKind string

const (
	ArtifactRedirect ArtifactKind = "redirect"
	ArtifactEmbedded ArtifactKind = "embedded"
	ArtifactCheckout ArtifactKind = "checkout"
)

// CreateAction selects the create flavor: "index" renders an embedded
// widget where the gateway supports it, "payment" redirects.
type CreateAction string

const (
	CreateActionIndex   CreateAction = "index"
	CreateActionPayment CreateAction = "payment"
)

// CreateResult is returned by a gateway create call.
type CreateResult struct {
	TransactionID string            `json:"transaction_id"`
	Kind          ArtifactKind      `json:"kind"`
	RedirectURL   string            `json:"redirect_url,omitempty"`
	Token         string            `json:"confirmation_token,omitempty"`
	PublicKey     string            `json:"public_key,omitempty"`
	Extra         map[string]string `json:"extra,omitempty"`
	// Status is set when the provider resolves the payment synchronously
	// (card payments through MercadoPago).
	Status GatewayStatus   `json:"status,omitempty"`
	Raw    json.RawMessage `json:"-"`
}

// VerifyResult is returned by a gateway verify call.
type VerifyResult struct {
	TransactionID    string
	Status           GatewayStatus
	PaymentRequestID string
	Method           string
	Raw              json.RawMessage
}

// WebhookEventType is the normalized event kind a gateway notification carries.
type WebhookEventType string

const (
	WebhookEventSucceeded WebhookEventType = "succeeded"
	WebhookEventCanceled  WebhookEventType = "canceled"
	// WebhookEventUpdated announces a status change without naming the outcome.
	WebhookEventUpdated WebhookEventType = "updated"
	WebhookEventUnknown WebhookEventType = "unknown"
)

// WebhookEvent is a parsed gateway notification.
type WebhookEvent struct {
	Type             WebhookEventType
	ProviderEvent    string
	TransactionID    string
	PaymentRequestID string
	Metadata         map[string]string
}
