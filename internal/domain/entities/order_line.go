package entities

import "github.com/shopspring/decimal"

// OrderLine is one line item of an order, read by the receipt builder.
//
// Storage model (DynamoDB):
//   - PK: id
//   - GSI (order_id-index): order_id
//
// The ledger only holds a weak reference to the order (attribute_id);
// order lines are owned by the order service and are never written here.
type OrderLine struct {
	ID          string          `json:"id"`
	OrderID     string          `json:"order_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}
