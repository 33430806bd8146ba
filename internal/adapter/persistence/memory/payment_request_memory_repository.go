package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"marketplace_payments/internal/domain/entities"
	"marketplace_payments/internal/usecase/interfaces"
)

// PaymentRequestRepository keeps the ledger in process memory.
// Used for local runs (STORAGE_DRIVER=memory) and concurrency tests.
type PaymentRequestRepository struct {
	mu      sync.RWMutex
	entries map[string]entities.PaymentRequest
	byTx    map[string]string // transaction_id -> id
}

var _ interfaces.IPaymentRequestRepository = (*PaymentRequestRepository)(nil)

func NewPaymentRequestRepository() *PaymentRequestRepository {
	return &PaymentRequestRepository{
		entries: make(map[string]entities.PaymentRequest),
		byTx:    make(map[string]string),
	}
}

func (r *PaymentRequestRepository) Create(_ context.Context, p entities.PaymentRequest) (entities.PaymentRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[p.ID]; exists {
		return entities.PaymentRequest{}, fmt.Errorf("%w: %s", interfaces.ErrPaymentRequestExists, p.ID)
	}
	r.entries[p.ID] = clone(p)
	if p.TransactionID != "" {
		r.byTx[p.TransactionID] = p.ID
	}
	return p, nil
}

func (r *PaymentRequestRepository) GetByID(_ context.Context, id string) (entities.PaymentRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return clone(r.entries[id]), nil
}

func (r *PaymentRequestRepository) GetByTransactionID(_ context.Context, transactionID string) (entities.PaymentRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byTx[transactionID]
	if !ok {
		return entities.PaymentRequest{}, nil
	}
	return clone(r.entries[id]), nil
}

func (r *PaymentRequestRepository) AttachTransaction(_ context.Context, id, transactionID string) (entities.PaymentRequest, bool, error) {
	if transactionID == "" {
		return entities.PaymentRequest{}, false, errors.New("transaction id is required")
	}
	return r.transition(id, func(p *entities.PaymentRequest) bool {
		if p.IsResolved() || p.TransactionID != "" {
			return false
		}
		if _, taken := r.byTx[transactionID]; taken {
			return false
		}
		p.TransactionID = transactionID
		r.byTx[transactionID] = p.ID
		return true
	})
}

func (r *PaymentRequestRepository) MarkPaid(_ context.Context, id, transactionID, paymentMethod string) (entities.PaymentRequest, bool, error) {
	return r.transition(id, func(p *entities.PaymentRequest) bool {
		if p.IsResolved() {
			return false
		}
		attach := p.TransactionID == "" && transactionID != ""
		if owner, taken := r.byTx[transactionID]; attach && taken && owner != p.ID {
			return false
		}
		now := time.Now().UTC()
		p.IsPaid = true
		p.PaymentMethod = paymentMethod
		p.SettledAt = &now
		if attach {
			p.TransactionID = transactionID
			r.byTx[transactionID] = p.ID
		}
		return true
	})
}

func (r *PaymentRequestRepository) MarkFailed(_ context.Context, id string) (entities.PaymentRequest, bool, error) {
	return r.transition(id, func(p *entities.PaymentRequest) bool {
		if p.IsResolved() {
			return false
		}
		p.IsFailed = true
		return true
	})
}

// transition applies mutate under the write lock, so check and write are one step.
func (r *PaymentRequestRepository) transition(id string, mutate func(p *entities.PaymentRequest) bool) (entities.PaymentRequest, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.entries[id]
	if !ok {
		return entities.PaymentRequest{}, false, nil
	}
	if !mutate(&p) {
		return clone(p), false, nil
	}
	p.UpdatedAt = time.Now().UTC()
	r.entries[id] = p
	return clone(p), true, nil
}

func clone(p entities.PaymentRequest) entities.PaymentRequest {
	if p.AdditionalData != nil {
		data := make(map[string]string, len(p.AdditionalData))
		for k, v := range p.AdditionalData {
			data[k] = v
		}
		p.AdditionalData = data
	}
	if p.SettledAt != nil {
		settledAt := *p.SettledAt
		p.SettledAt = &settledAt
	}
	return p
}
