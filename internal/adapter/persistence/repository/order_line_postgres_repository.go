package repository

import (
	"context"

	"marketplace_payments/internal/domain/entities"
	"marketplace_payments/internal/usecase/interfaces"

	"github.com/shopspring/decimal"
)

type OrderLinePostgresRepository struct {
	db PgxQuerier
}

var _ interfaces.IOrderLineRepository = (*OrderLinePostgresRepository)(nil)

func NewOrderLinePostgresRepository(db PgxQuerier) *OrderLinePostgresRepository {
	return &OrderLinePostgresRepository{db: db}
}

func (r *OrderLinePostgresRepository) ListByOrderID(ctx context.Context, orderID string) ([]entities.OrderLine, error) {
	if orderID == "" {
		return nil, nil
	}
	rows, err := r.db.Query(ctx,
		`SELECT id, order_id, product_name, quantity, unit_price::text FROM order_details WHERE order_id = $1 ORDER BY id`,
		orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []entities.OrderLine
	for rows.Next() {
		var (
			l     entities.OrderLine
			price string
		)
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ProductName, &l.Quantity, &price); err != nil {
			return nil, err
		}
		if l.UnitPrice, err = decimal.NewFromString(price); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}
