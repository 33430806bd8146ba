package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus is the reconciliation state derived from the ledger flags.
//
//   - PENDING: created, no gateway transaction yet
//   - CREATED: transaction_id attached by the create step
//   - SETTLED: is_paid (terminal)
//   - FAILED:  gateway confirmed cancellation (terminal)

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusCreated PaymentStatus = "CREATED"
	PaymentStatusSettled PaymentStatus = "SETTLED"
	PaymentStatusFailed  PaymentStatus = "FAILED"
)

// PayerInformation is captured at creation and never mutated.
type PayerInformation struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// PaymentRequest is the ledger entry for one payment attempt.
//
// Storage model (DynamoDB):
//   - PK: id
//   - GSI (transaction_id-index): transaction_id
//
// Invariants:
//   - IsPaid only goes false -> true, once.
//   - TransactionID is set once by the create step and never changes.
//   - IsPaid and IsFailed are never both true.
type PaymentRequest struct {
	ID                   string            `json:"id"`
	PaymentAmount        decimal.Decimal   `json:"payment_amount"`
	CurrencyCode         string            `json:"currency_code"`
	PayerID              string            `json:"payer_id,omitempty"`
	ReceiverID           string            `json:"receiver_id,omitempty"`
	PayerInformation     PayerInformation  `json:"payer_information"`
	ReceiverInformation  PayerInformation  `json:"receiver_information"`
	AdditionalData       map[string]string `json:"additional_data,omitempty"`
	Attribute            string            `json:"attribute,omitempty"`
	AttributeID          string            `json:"attribute_id,omitempty"`
	PaymentPlatform      string            `json:"payment_platform"`
	PaymentMethod        string            `json:"payment_method,omitempty"`
	TransactionID        string            `json:"transaction_id,omitempty"`
	IsPaid               bool              `json:"is_paid"`
	IsFailed             bool              `json:"is_failed"`
	SuccessHook          string            `json:"success_hook,omitempty"`
	FailureHook          string            `json:"failure_hook,omitempty"`
	ExternalRedirectLink string            `json:"external_redirect_link,omitempty"`
	CreatedAt            time.Time         `json:"created_at"`
	UpdatedAt            time.Time         `json:"updated_at"`
	SettledAt            *time.Time        `json:"settled_at,omitempty"`
}

// Status derives the reconciliation state from the persisted flags.
func (p PaymentRequest) Status() PaymentStatus {
	switch {
	case p.IsPaid:
		return PaymentStatusSettled
	case p.IsFailed:
		return PaymentStatusFailed
	case p.TransactionID != "":
		return PaymentStatusCreated
	default:
		return PaymentStatusPending
	}
}

// IsResolved reports whether the entry reached a terminal state.
func (p PaymentRequest) IsResolved() bool {
	return p.IsPaid || p.IsFailed
}

// BusinessName reads the display name the receipt and gateway descriptions use.
func (p PaymentRequest) BusinessName() string {
	if p.AdditionalData == nil {
		return ""
	}
	return p.AdditionalData["business_name"]
}
