package payments

import (
	"crypto/hmac"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"hash"
	"net/url"
	"strings"
)

// Gateway names, as stored in PaymentRequest.payment_platform and used in routes.
const (
	GatewayYooKassa    = "yookassa"
	GatewayPaystack    = "paystack"
	GatewayRazorpay    = "razorpay"
	GatewayMercadoPago = "mercadopago"
)

// KnownGateways lists every gateway name a ledger entry may select.
var KnownGateways = []string{GatewayYooKassa, GatewayPaystack, GatewayRazorpay, GatewayMercadoPago}

// Metadata keys sent with every create call to correlate provider objects
// back to the ledger.
const (
	metadataPaymentID = "payment_id"
	metadataOrderID   = "order_id"
)

// returnURL builds the browser return URL for a ledger entry.
func returnURL(publicBaseURL, gateway, action, paymentID string) string {
	q := url.Values{}
	q.Set("payment_id", paymentID)
	return fmt.Sprintf("%s/v1/%s/%s?%s", strings.TrimRight(publicBaseURL, "/"), gateway, action, q.Encode())
}

func webhookURL(publicBaseURL, gateway string) string {
	return fmt.Sprintf("%s/v1/%s/webhook", strings.TrimRight(publicBaseURL, "/"), gateway)
}

// validHexMAC compares a hex-encoded MAC of body in constant time.
func validHexMAC(newHash func() hash.Hash, secret string, body []byte, signature string) bool {
	signature = strings.TrimSpace(signature)
	if signature == "" {
		return false
	}
	got, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}
	mac := hmac.New(newHash, []byte(secret))
	mac.Write(body)
	return hmac.Equal(got, mac.Sum(nil))
}

// flexibleMap decodes a provider metadata bag that may arrive as an object,
// a JSON-encoded string, an empty array or null.
type flexibleMap map[string]string

func (m *flexibleMap) UnmarshalJSON(data []byte) error {
	out := flexibleMap{}
	trimmed := strings.TrimSpace(string(data))
	switch {
	case trimmed == "" || trimmed == "null" || trimmed == "[]":
		*m = out
		return nil
	case strings.HasPrefix(trimmed, "\""):
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if strings.TrimSpace(s) == "" {
			*m = out
			return nil
		}
		return m.UnmarshalJSON([]byte(s))
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for k, v := range raw {
		switch tv := v.(type) {
		case nil:
		case string:
			out[k] = tv
		case float64:
			out[k] = strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%f", tv), "0"), ".")
		default:
			out[k] = fmt.Sprintf("%v", tv)
		}
	}
	*m = out
	return nil
}
