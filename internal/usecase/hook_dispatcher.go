package usecase

import (
	"context"
	"fmt"
	"sync"

	"marketplace_payments/internal/domain/entities"
	"marketplace_payments/internal/infrastructure/metrics"

	"go.uber.org/zap"
)

// HookFunc runs after a ledger entry resolves. Errors are logged by the
// dispatcher and never reach the payer.
type HookFunc func(ctx context.Context, p entities.PaymentRequest) error

// IHookDispatcher resolves hook ids stored on a ledger entry into functions.
type IHookDispatcher interface {
	Dispatch(ctx context.Context, hookID string, p entities.PaymentRequest)
}

// HookDispatcher is the explicit registry of success/failure hooks. Entries
// only store hook ids; anything not registered here is ignored.
type HookDispatcher struct {
	mu      sync.RWMutex
	hooks   map[string]HookFunc
	log     *zap.Logger
	metrics *metrics.PaymentMetrics
}

var _ IHookDispatcher = (*HookDispatcher)(nil)

func NewHookDispatcher(log *zap.Logger, m *metrics.PaymentMetrics) *HookDispatcher {
	return &HookDispatcher{
		hooks:   make(map[string]HookFunc),
		log:     log.Named("payment.hooks"),
		metrics: m,
	}
}

func (d *HookDispatcher) Register(id string, fn HookFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.hooks[id] = fn
}

func (d *HookDispatcher) Registered(id string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.hooks[id]
	return ok
}

func (d *HookDispatcher) Dispatch(ctx context.Context, hookID string, p entities.PaymentRequest) {
	if hookID == "" {
		return
	}
	d.mu.RLock()
	fn, ok := d.hooks[hookID]
	d.mu.RUnlock()
	if !ok {
		d.log.Warn("unknown hook", zap.String("hook", hookID), zap.String("payment_id", p.ID))
		d.metrics.RecordHook(hookID, "unknown")
		return
	}

	if err := d.run(ctx, fn, p); err != nil {
		d.log.Error("hook failed", zap.String("hook", hookID), zap.String("payment_id", p.ID), zap.Error(err))
		d.metrics.RecordHook(hookID, "error")
		return
	}
	d.log.Info("hook done", zap.String("hook", hookID), zap.String("payment_id", p.ID))
	d.metrics.RecordHook(hookID, "ok")
}

func (d *HookDispatcher) run(ctx context.Context, fn HookFunc, p entities.PaymentRequest) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("hook panic: %v", r)
		}
	}()
	return fn(ctx, p)
}
