package request

import (
	"encoding/json"
	"errors"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidRedirectLink = errors.New("external_redirect_link must be an absolute http(s) url")
	ErrInvalidPayload      = errors.New("request body is not valid json")
)

type PayerInformationRequest struct {
	Name  string `json:"name"`
	Email string `json:"email" binding:"omitempty,email"`
	Phone string `json:"phone"`
}

// PaymentRequestCreateRequest opens a ledger entry. Amount and currency are
// validated by the ledger; the binding tags only reject malformed bodies.
type PaymentRequestCreateRequest struct {
	PaymentAmount        decimal.Decimal         `json:"payment_amount" swaggertype:"string" example:"150.00"`
	CurrencyCode         string                  `json:"currency_code" binding:"required" example:"RUB"`
	PaymentPlatform      string                  `json:"payment_platform" binding:"required" example:"yookassa"`
	PayerID              string                  `json:"payer_id"`
	ReceiverID           string                  `json:"receiver_id"`
	PayerInformation     PayerInformationRequest `json:"payer_information"`
	ReceiverInformation  PayerInformationRequest `json:"receiver_information"`
	AdditionalData       map[string]string       `json:"additional_data"`
	Attribute            string                  `json:"attribute" example:"order"`
	AttributeID          FlexibleID              `json:"attribute_id" swaggertype:"string" example:"42"`
	SuccessHook          string                  `json:"success_hook" example:"digital_payment_success"`
	FailureHook          string                  `json:"failure_hook" example:"digital_payment_fail"`
	ExternalRedirectLink string                  `json:"external_redirect_link" example:"https://shop.example.com/payment-result"`
}

// FlexibleID accepts an identifier sent as a JSON string or number.
type FlexibleID string

func (f *FlexibleID) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*f = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*f = FlexibleID(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = FlexibleID(n.String())
	return nil
}

func (r PaymentRequestCreateRequest) ResolveRedirectLink() (string, error) {
	link := strings.TrimSpace(r.ExternalRedirectLink)
	if link == "" {
		return "", nil
	}
	u, err := url.Parse(link)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", ErrInvalidRedirectLink
	}
	return link, nil
}

// ReadPayload returns the gateway payload of a create call: the raw body, or
// the "payload" member when the body wraps it. An empty body yields nil.
func ReadPayload(raw []byte) (json.RawMessage, error) {
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil, nil
	}
	if !json.Valid(raw) {
		return nil, ErrInvalidPayload
	}
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err == nil {
		if wrapped, ok := envelope["payload"]; ok {
			w := strings.TrimSpace(string(wrapped))
			if w == "" || w == "null" {
				return nil, nil
			}
			return wrapped, nil
		}
	}
	return json.RawMessage(raw), nil
}
