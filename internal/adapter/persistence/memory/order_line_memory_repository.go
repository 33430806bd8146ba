package memory

import (
	"context"
	"sync"

	"marketplace_payments/internal/domain/entities"
	"marketplace_payments/internal/usecase/interfaces"
)

type OrderLineRepository struct {
	mu    sync.RWMutex
	lines map[string][]entities.OrderLine // key = order_id
}

var _ interfaces.IOrderLineRepository = (*OrderLineRepository)(nil)

func NewOrderLineRepository() *OrderLineRepository {
	return &OrderLineRepository{lines: make(map[string][]entities.OrderLine)}
}

func (r *OrderLineRepository) Add(lines ...entities.OrderLine) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, l := range lines {
		r.lines[l.OrderID] = append(r.lines[l.OrderID], l)
	}
}

func (r *OrderLineRepository) ListByOrderID(_ context.Context, orderID string) ([]entities.OrderLine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]entities.OrderLine(nil), r.lines[orderID]...), nil
}
