package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentEventType string

const (
	PaymentEventDigitalPaymentSucceeded PaymentEventType = "digital_payment.succeeded"
	PaymentEventDigitalPaymentFailed    PaymentEventType = "digital_payment.failed"
	PaymentEventWalletTopUpSucceeded    PaymentEventType = "wallet_top_up.succeeded"
	PaymentEventWalletTopUpFailed       PaymentEventType = "wallet_top_up.failed"
)

// PaymentEvent is published once per resolved ledger entry.
type PaymentEvent struct {
	Type            PaymentEventType `json:"type"`
	PaymentID       string           `json:"payment_id"`
	TransactionID   string           `json:"transaction_id,omitempty"`
	PaymentPlatform string           `json:"payment_platform"`
	PaymentMethod   string           `json:"payment_method,omitempty"`
	Amount          decimal.Decimal  `json:"amount"`
	CurrencyCode    string           `json:"currency_code"`
	PayerID         string           `json:"payer_id,omitempty"`
	ReceiverID      string           `json:"receiver_id,omitempty"`
	Attribute       string           `json:"attribute,omitempty"`
	AttributeID     string           `json:"attribute_id,omitempty"`
	OccurredAt      time.Time        `json:"occurred_at"`
}

// NewPaymentEvent snapshots the ledger entry into an event of the given type.
func NewPaymentEvent(t PaymentEventType, p PaymentRequest, now time.Time) PaymentEvent {
	return PaymentEvent{
		Type:            t,
		PaymentID:       p.ID,
		TransactionID:   p.TransactionID,
		PaymentPlatform: p.PaymentPlatform,
		PaymentMethod:   p.PaymentMethod,
		Amount:          p.PaymentAmount,
		CurrencyCode:    p.CurrencyCode,
		PayerID:         p.PayerID,
		ReceiverID:      p.ReceiverID,
		Attribute:       p.Attribute,
		AttributeID:     p.AttributeID,
		OccurredAt:      now.UTC(),
	}
}
