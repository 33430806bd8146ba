package response

import (
	"time"

	"marketplace_payments/internal/domain/entities"
)

type PayerInformationResponse struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

type PaymentRequestResponse struct {
	ID                   string                   `json:"id"`
	PaymentAmount        string                   `json:"payment_amount" example:"150.00"`
	CurrencyCode         string                   `json:"currency_code"`
	PaymentPlatform      string                   `json:"payment_platform"`
	PaymentMethod        string                   `json:"payment_method,omitempty"`
	TransactionID        string                   `json:"transaction_id,omitempty"`
	Status               string                   `json:"status" example:"PENDING"`
	IsPaid               bool                     `json:"is_paid"`
	IsFailed             bool                     `json:"is_failed"`
	PayerID              string                   `json:"payer_id,omitempty"`
	ReceiverID           string                   `json:"receiver_id,omitempty"`
	PayerInformation     PayerInformationResponse `json:"payer_information"`
	Attribute            string                   `json:"attribute,omitempty"`
	AttributeID          string                   `json:"attribute_id,omitempty"`
	ExternalRedirectLink string                   `json:"external_redirect_link,omitempty"`
	CreatedAt            time.Time                `json:"created_at"`
	UpdatedAt            time.Time                `json:"updated_at"`
	SettledAt            *time.Time               `json:"settled_at,omitempty"`
}

func FromPaymentRequest(p entities.PaymentRequest) PaymentRequestResponse {
	return PaymentRequestResponse{
		ID:              p.ID,
		PaymentAmount:   p.PaymentAmount.StringFixed(2),
		CurrencyCode:    p.CurrencyCode,
		PaymentPlatform: p.PaymentPlatform,
		PaymentMethod:   p.PaymentMethod,
		TransactionID:   p.TransactionID,
		Status:          string(p.Status()),
		IsPaid:          p.IsPaid,
		IsFailed:        p.IsFailed,
		PayerID:         p.PayerID,
		ReceiverID:      p.ReceiverID,
		PayerInformation: PayerInformationResponse{
			Name:  p.PayerInformation.Name,
			Email: p.PayerInformation.Email,
			Phone: p.PayerInformation.Phone,
		},
		Attribute:            p.Attribute,
		AttributeID:          p.AttributeID,
		ExternalRedirectLink: p.ExternalRedirectLink,
		CreatedAt:            p.CreatedAt,
		UpdatedAt:            p.UpdatedAt,
		SettledAt:            p.SettledAt,
	}
}

// PaymentStatusResponse is the polling channel answer.
type PaymentStatusResponse struct {
	PaymentID     string `json:"payment_id"`
	Status        string `json:"status" example:"SETTLED"`
	Outcome       string `json:"outcome" example:"success"`
	IsPaid        bool   `json:"is_paid"`
	TransactionID string `json:"transaction_id,omitempty"`
}

func NewPaymentStatusResponse(p entities.PaymentRequest, outcome string) PaymentStatusResponse {
	return PaymentStatusResponse{
		PaymentID:     p.ID,
		Status:        string(p.Status()),
		Outcome:       outcome,
		IsPaid:        p.IsPaid,
		TransactionID: p.TransactionID,
	}
}

// PaymentOutcomeResponse is rendered to the payer when the entry has no
// external redirect link.
type PaymentOutcomeResponse struct {
	Status    string `json:"status" example:"success"`
	PaymentID string `json:"payment_id,omitempty"`
}

// CheckoutResponse hands the create artifact to the payer's client.
type CheckoutResponse struct {
	PaymentID         string            `json:"payment_id"`
	Gateway           string            `json:"gateway"`
	Kind              string            `json:"kind" example:"redirect"`
	TransactionID     string            `json:"transaction_id,omitempty"`
	RedirectURL       string            `json:"redirect_url,omitempty"`
	ConfirmationToken string            `json:"confirmation_token,omitempty"`
	PublicKey         string            `json:"public_key,omitempty"`
	Extra             map[string]string `json:"extra,omitempty"`
}

func NewCheckoutResponse(paymentID, gateway string, res entities.CreateResult) CheckoutResponse {
	return CheckoutResponse{
		PaymentID:         paymentID,
		Gateway:           gateway,
		Kind:              string(res.Kind),
		TransactionID:     res.TransactionID,
		RedirectURL:       res.RedirectURL,
		ConfirmationToken: res.Token,
		PublicKey:         res.PublicKey,
		Extra:             res.Extra,
	}
}

type WebhookAckResponse struct {
	Status string `json:"status" example:"ok"`
}
