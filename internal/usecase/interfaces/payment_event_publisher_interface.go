package interfaces

import (
	"context"

	"marketplace_payments/internal/domain/entities"
)

// IPaymentEventPublisher ships settlement/failure events to downstream consumers.
type IPaymentEventPublisher interface {
	Publish(ctx context.Context, event entities.PaymentEvent) error
	Close() error
}
