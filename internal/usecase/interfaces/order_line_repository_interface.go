package interfaces

import (
	"context"

	"marketplace_payments/internal/domain/entities"
)

// IOrderLineRepository reads the line items of an order for fiscal receipts.
// An unknown order yields an empty slice.
type IOrderLineRepository interface {
	ListByOrderID(ctx context.Context, orderID string) ([]entities.OrderLine, error)
}
