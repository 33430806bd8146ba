package interfaces

import (
	"context"
	"errors"

	"marketplace_payments/internal/domain/entities"
)

// ErrPaymentRequestExists is returned by Create when the id is already stored.
var ErrPaymentRequestExists = errors.New("payment request already exists")

// IPaymentRequestRepository abstracts persistence of the PaymentRequest ledger.
//
// Lookups return a zero entity and a nil error when nothing matches.
//
// The conditional writes (AttachTransaction, MarkPaid, MarkFailed) must each be a
// single atomic conditional update on the stored row. They return the entry as
// stored after the call and whether this call performed the transition; a caller
// that loses the race gets the current entry and false, never an error.
type IPaymentRequestRepository interface {
	Create(ctx context.Context, p entities.PaymentRequest) (entities.PaymentRequest, error)
	GetByID(ctx context.Context, id string) (entities.PaymentRequest, error)
	GetByTransactionID(ctx context.Context, transactionID string) (entities.PaymentRequest, error)
	AttachTransaction(ctx context.Context, id, transactionID string) (entities.PaymentRequest, bool, error)
	MarkPaid(ctx context.Context, id, transactionID, paymentMethod string) (entities.PaymentRequest, bool, error)
	MarkFailed(ctx context.Context, id string) (entities.PaymentRequest, bool, error)
}
