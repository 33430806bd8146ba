package payments

import (
	"context"
	"strconv"
	"unicode/utf8"

	"marketplace_payments/internal/domain/entities"
	"marketplace_payments/internal/usecase/interfaces"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	receiptDescriptionMaxRunes = 128
	receiptVATCodeNone         = 1
	receiptPaymentModeFull     = "full_payment"
	receiptSubjectCommodity    = "commodity"
	receiptFallbackDescription = "Payment for order"
	receiptProductPlaceholder  = "Product"
)

type Receipt struct {
	Customer ReceiptCustomer `json:"customer"`
	Items    []ReceiptItem   `json:"items"`
}

type ReceiptCustomer struct {
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

type ReceiptItem struct {
	Description    string `json:"description"`
	Quantity       string `json:"quantity"`
	Amount         Amount `json:"amount"`
	VATCode        int    `json:"vat_code"`
	PaymentMode    string `json:"payment_mode"`
	PaymentSubject string `json:"payment_subject"`
}

// Amount is the {value, currency} pair YooKassa uses for money.
type Amount struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

// ReceiptBuilder derives fiscal receipt lines from the order a payment is for.
type ReceiptBuilder struct {
	orderLines interfaces.IOrderLineRepository
	log        *zap.Logger
}

func NewReceiptBuilder(orderLines interfaces.IOrderLineRepository, log *zap.Logger) *ReceiptBuilder {
	return &ReceiptBuilder{orderLines: orderLines, log: log.Named("payment.receipt")}
}

// Build returns nil when the payer has no email: the provider refuses
// receipts without a customer contact.
func (b *ReceiptBuilder) Build(ctx context.Context, p entities.PaymentRequest) *Receipt {
	if p.PayerInformation.Email == "" {
		return nil
	}
	return &Receipt{
		Customer: ReceiptCustomer{Email: p.PayerInformation.Email, Phone: p.PayerInformation.Phone},
		Items:    b.Items(ctx, p),
	}
}

// Items emits one line per order line. When the order has no resolvable lines,
// or its lines do not add up to the payment amount, a single line for the full
// amount is synthesized instead.
func (b *ReceiptBuilder) Items(ctx context.Context, p entities.PaymentRequest) []ReceiptItem {
	var items []ReceiptItem
	total := decimal.Zero

	if p.AttributeID != "" && b != nil && b.orderLines != nil {
		lines, err := b.orderLines.ListByOrderID(ctx, p.AttributeID)
		if err != nil {
			b.log.Warn("order lines lookup failed, using single line",
				zap.String("payment_id", p.ID), zap.String("order_id", p.AttributeID), zap.Error(err))
			lines = nil
		}
		for _, line := range lines {
			if line.Quantity <= 0 {
				continue
			}
			name := line.ProductName
			if name == "" {
				name = receiptProductPlaceholder
			}
			items = append(items, newReceiptItem(name, line.Quantity, line.UnitPrice, p.CurrencyCode))
			total = total.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
		}
	}

	if len(items) > 0 && !total.Round(2).Equal(p.PaymentAmount.Round(2)) {
		if b != nil {
			b.log.Warn("order lines do not match payment amount, using single line",
				zap.String("payment_id", p.ID), zap.String("lines_total", total.StringFixed(2)),
				zap.String("payment_amount", p.PaymentAmount.StringFixed(2)))
		}
		items = nil
	}

	if len(items) == 0 {
		items = []ReceiptItem{newReceiptItem(receiptFallbackDescription, 1, p.PaymentAmount, p.CurrencyCode)}
	}
	return items
}

func newReceiptItem(description string, quantity int, unitPrice decimal.Decimal, currency string) ReceiptItem {
	return ReceiptItem{
		Description:    truncateRunes(description, receiptDescriptionMaxRunes),
		Quantity:       strconv.Itoa(quantity),
		Amount:         Amount{Value: formatAmount(unitPrice), Currency: currency},
		VATCode:        receiptVATCodeNone,
		PaymentMode:    receiptPaymentModeFull,
		PaymentSubject: receiptSubjectCommodity,
	}
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}
