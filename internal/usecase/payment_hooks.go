package usecase

import (
	"context"
	"time"

	"marketplace_payments/internal/domain/entities"
	"marketplace_payments/internal/usecase/interfaces"
)

// Hook ids accepted in success_hook / failure_hook.
const (
	HookDigitalPaymentSuccess  = "digital_payment_success"
	HookDigitalPaymentFail     = "digital_payment_fail"
	HookAddFundToWalletSuccess = "add_fund_to_wallet_success"
	HookAddFundToWalletFail    = "add_fund_to_wallet_fail"
)

// RegisterPaymentHooks wires the built-in hooks. Each one hands the resolved
// entry to downstream consumers as a PaymentEvent.
func RegisterPaymentHooks(d *HookDispatcher, publisher interfaces.IPaymentEventPublisher, now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	publish := func(t entities.PaymentEventType) HookFunc {
		return func(ctx context.Context, p entities.PaymentRequest) error {
			return publisher.Publish(ctx, entities.NewPaymentEvent(t, p, now()))
		}
	}
	d.Register(HookDigitalPaymentSuccess, publish(entities.PaymentEventDigitalPaymentSucceeded))
	d.Register(HookDigitalPaymentFail, publish(entities.PaymentEventDigitalPaymentFailed))
	d.Register(HookAddFundToWalletSuccess, publish(entities.PaymentEventWalletTopUpSucceeded))
	d.Register(HookAddFundToWalletFail, publish(entities.PaymentEventWalletTopUpFailed))
}
