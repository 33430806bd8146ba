package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"marketplace_payments/internal/domain/entities"
	"marketplace_payments/internal/infrastructure/metrics"
	"marketplace_payments/internal/usecase/interfaces"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

var (
	// ErrAlreadyProcessed is returned by Start for unknown or resolved entries.
	// Callers render it as a plain "already processed" answer, not a failure.
	ErrAlreadyProcessed  = errors.New("payment already processed or unknown")
	ErrPaymentInProgress = errors.New("payment already in progress")
	ErrUnknownGateway    = errors.New("unknown payment gateway")
	ErrGatewayMismatch   = fmt.Errorf("%w: payment request belongs to another gateway", ErrValidation)
	ErrUnsupportedAction = fmt.Errorf("%w: unsupported create action", ErrValidation)

	errVerifyPending = errors.New("gateway still reports the payment as pending")
)

// Outcome is what the payer-facing channels render.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFail    Outcome = "fail"
	OutcomeCancel  Outcome = "cancel"
	OutcomePending Outcome = "pending"
)

// Webhook handling results, also used as the metric outcome label.
const (
	WebhookProcessed = "processed"
	WebhookNoop      = "noop"
	WebhookIgnored   = "ignored"
)

type StartResult struct {
	PaymentRequest entities.PaymentRequest
	Artifact       entities.CreateResult
	// Outcome is set when Start found an existing transaction that already
	// resolved on the gateway side; there is no artifact then.
	Outcome Outcome
}

type ReturnResult struct {
	PaymentRequest entities.PaymentRequest
	Outcome        Outcome
}

type WebhookResult struct {
	Status           string
	PaymentRequestID string
	Outcome          Outcome
}

type PollResult struct {
	PaymentRequest entities.PaymentRequest
	Outcome        Outcome
}

// GatewayLookup resolves a gateway adapter by its route name.
type GatewayLookup interface {
	Get(name string) (interfaces.IPaymentGateway, bool)
}

type ReconciliationConfig struct {
	ReturnVerifyTimeout     time.Duration
	ReturnVerifyMinInterval time.Duration
	ReturnVerifyMaxInterval time.Duration
}

func (c ReconciliationConfig) withDefaults() ReconciliationConfig {
	if c.ReturnVerifyTimeout <= 0 {
		c.ReturnVerifyTimeout = 8 * time.Second
	}
	if c.ReturnVerifyMinInterval <= 0 {
		c.ReturnVerifyMinInterval = 500 * time.Millisecond
	}
	if c.ReturnVerifyMaxInterval < c.ReturnVerifyMinInterval {
		c.ReturnVerifyMaxInterval = 4 * c.ReturnVerifyMinInterval
	}
	return c
}

// IReconciliationUseCase drives a ledger entry to its terminal state through
// the create, return, webhook and poll channels. Every entry point may run any
// number of times, in any order, concurrently with the others.
type IReconciliationUseCase interface {
	Start(ctx context.Context, gateway, id string, action entities.CreateAction, payload json.RawMessage) (StartResult, error)
	Return(ctx context.Context, gateway, id string) (ReturnResult, error)
	HandleWebhook(ctx context.Context, gateway string, headers http.Header, remoteIP string, body []byte) (WebhookResult, error)
	Poll(ctx context.Context, id string, refresh bool) (PollResult, error)
	Cancel(ctx context.Context, gateway, id string) (ReturnResult, error)
}

type ReconciliationUseCase struct {
	ledger   IPaymentLedgerUseCase
	gateways GatewayLookup
	hooks    IHookDispatcher
	cfg      ReconciliationConfig
	log      *zap.Logger
	metrics  *metrics.PaymentMetrics
}

var _ IReconciliationUseCase = (*ReconciliationUseCase)(nil)

func NewReconciliationUseCase(ledger IPaymentLedgerUseCase, gateways GatewayLookup, hooks IHookDispatcher, cfg ReconciliationConfig, log *zap.Logger, m *metrics.PaymentMetrics) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		ledger:   ledger,
		gateways: gateways,
		hooks:    hooks,
		cfg:      cfg.withDefaults(),
		log:      log.Named("payment.reconciliation"),
		metrics:  m,
	}
}

func (u *ReconciliationUseCase) gateway(name string) (interfaces.IPaymentGateway, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	g, ok := u.gateways.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownGateway, name)
	}
	return g, nil
}

// Start runs the create step. It attaches the gateway transaction id but never
// settles the entry; settlement is left to return, webhook and poll.
func (u *ReconciliationUseCase) Start(ctx context.Context, gatewayName, id string, action entities.CreateAction, payload json.RawMessage) (StartResult, error) {
	gw, err := u.gateway(gatewayName)
	if err != nil {
		return StartResult{}, err
	}
	if action != entities.CreateActionIndex && action != entities.CreateActionPayment {
		return StartResult{}, fmt.Errorf("%w %q", ErrUnsupportedAction, action)
	}

	p, err := u.ledger.FindPending(ctx, id)
	switch {
	case errors.Is(err, ErrPaymentRequestNotFound):
		u.log.Info("start on unknown entry", zap.String("payment_id", id), zap.String("gateway", gw.Name()))
		return StartResult{}, ErrAlreadyProcessed
	case errors.Is(err, ErrPaymentRequestResolved):
		u.log.Info("start on resolved entry", zap.String("payment_id", p.ID), zap.String("status", string(p.Status())))
		return StartResult{PaymentRequest: p, Outcome: outcomeOf(p)}, ErrAlreadyProcessed
	case err != nil:
		return StartResult{}, err
	}
	if p.PaymentPlatform != gw.Name() {
		return StartResult{}, ErrGatewayMismatch
	}

	if p.TransactionID != "" {
		return u.resumeExisting(ctx, gw, p)
	}

	u.log.Info("create start", zap.String("payment_id", p.ID), zap.String("gateway", gw.Name()), zap.String("action", string(action)))
	res, err := gw.Create(ctx, p, action, payload)
	if err != nil {
		// Nothing is persisted, so the payer can simply retry this step.
		u.log.Warn("create failed", zap.String("payment_id", p.ID), zap.String("gateway", gw.Name()), zap.Error(err))
		return StartResult{}, err
	}

	if res.TransactionID != "" {
		stored, attached, err := u.ledger.AttachTransaction(ctx, p.ID, res.TransactionID)
		if err != nil {
			return StartResult{}, err
		}
		if !attached {
			if stored.IsResolved() {
				return StartResult{PaymentRequest: stored, Outcome: outcomeOf(stored)}, ErrAlreadyProcessed
			}
			if stored.TransactionID != res.TransactionID {
				u.log.Warn("concurrent create lost", zap.String("payment_id", p.ID),
					zap.String("transaction_id", res.TransactionID), zap.String("attached", stored.TransactionID))
				return StartResult{PaymentRequest: stored}, ErrPaymentInProgress
			}
		}
		p = stored
	}
	u.log.Info("create success", zap.String("payment_id", p.ID), zap.String("transaction_id", res.TransactionID), zap.String("artifact", string(res.Kind)))
	return StartResult{PaymentRequest: p, Artifact: res}, nil
}

// resumeExisting handles a create call for an entry that already has a
// transaction: the gateway decides whether it resolved or is still running.
func (u *ReconciliationUseCase) resumeExisting(ctx context.Context, gw interfaces.IPaymentGateway, p entities.PaymentRequest) (StartResult, error) {
	v, err := gw.Verify(ctx, p.TransactionID)
	if err != nil {
		return StartResult{}, err
	}
	if v.Status == entities.GatewayStatusPending {
		return StartResult{PaymentRequest: p}, ErrPaymentInProgress
	}
	stored, err := u.reconcile(ctx, p, v, metrics.ChannelCreate)
	if err != nil {
		return StartResult{}, err
	}
	return StartResult{PaymentRequest: stored, Outcome: outcomeOf(stored)}, nil
}

// Return handles the browser coming back from the gateway. The gateway is
// polled with backoff while it still reports pending; an entry that is still
// pending at the deadline renders as failed and stays open for the webhook.
func (u *ReconciliationUseCase) Return(ctx context.Context, gatewayName, id string) (ReturnResult, error) {
	gw, err := u.gateway(gatewayName)
	if err != nil {
		return ReturnResult{}, err
	}
	p, err := u.ledger.GetByID(ctx, id)
	if errors.Is(err, ErrPaymentRequestNotFound) || errors.Is(err, ErrInvalidPaymentRequestID) {
		u.log.Info("return on unknown entry", zap.String("payment_id", id))
		return ReturnResult{Outcome: OutcomeFail}, nil
	}
	if err != nil {
		return ReturnResult{}, err
	}
	if p.IsResolved() {
		u.metrics.RecordNoop(p.PaymentPlatform, metrics.ChannelReturn)
		return ReturnResult{PaymentRequest: p, Outcome: outcomeOf(p)}, nil
	}
	if p.PaymentPlatform != gw.Name() {
		return ReturnResult{}, ErrGatewayMismatch
	}
	if p.TransactionID == "" {
		u.log.Info("return before create", zap.String("payment_id", p.ID))
		return ReturnResult{PaymentRequest: p, Outcome: OutcomeFail}, nil
	}

	stored, err := u.verifyUntilResolved(ctx, gw, p)
	if err != nil {
		return ReturnResult{}, err
	}
	outcome := outcomeOf(stored)
	if outcome == OutcomePending {
		outcome = OutcomeFail
	}
	return ReturnResult{PaymentRequest: stored, Outcome: outcome}, nil
}

func (u *ReconciliationUseCase) verifyUntilResolved(ctx context.Context, gw interfaces.IPaymentGateway, p entities.PaymentRequest) (entities.PaymentRequest, error) {
	vctx, cancel := context.WithTimeout(ctx, u.cfg.ReturnVerifyTimeout)
	defer cancel()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = u.cfg.ReturnVerifyMinInterval
	b.MaxInterval = u.cfg.ReturnVerifyMaxInterval
	b.MaxElapsedTime = u.cfg.ReturnVerifyTimeout
	b.Multiplier = 2

	var (
		last     entities.VerifyResult
		current  = p
		ledgerEr error
	)
	op := func() error {
		fresh, err := u.ledger.GetByID(vctx, p.ID)
		if err != nil {
			ledgerEr = err
			return backoff.Permanent(err)
		}
		current = fresh
		if fresh.IsResolved() {
			return nil
		}
		v, err := gw.Verify(vctx, p.TransactionID)
		if err != nil {
			if errors.Is(err, interfaces.ErrGatewayUnreachable) {
				return err
			}
			return backoff.Permanent(err)
		}
		last = v
		if v.Status == entities.GatewayStatusPending {
			return errVerifyPending
		}
		return nil
	}
	notify := func(err error, next time.Duration) {
		u.log.Debug("return verify retry", zap.String("payment_id", p.ID), zap.Duration("next", next), zap.Error(err))
	}

	if err := backoff.RetryNotify(op, backoff.WithContext(b, vctx), notify); err != nil {
		if ledgerEr != nil && !errors.Is(ledgerEr, context.DeadlineExceeded) {
			return entities.PaymentRequest{}, ledgerEr
		}
		u.log.Warn("return left unresolved", zap.String("payment_id", p.ID), zap.String("transaction_id", p.TransactionID), zap.Error(err))
		return current, nil
	}
	if current.IsResolved() {
		u.metrics.RecordNoop(current.PaymentPlatform, metrics.ChannelReturn)
		return current, nil
	}
	return u.reconcile(ctx, current, last, metrics.ChannelReturn)
}

// HandleWebhook authenticates and applies one gateway notification. The event
// alone is never trusted: the outcome always comes from a fresh Verify.
//
// A nil error means the delivery must be acknowledged.
func (u *ReconciliationUseCase) HandleWebhook(ctx context.Context, gatewayName string, headers http.Header, remoteIP string, body []byte) (WebhookResult, error) {
	gw, err := u.gateway(gatewayName)
	if err != nil {
		return WebhookResult{}, err
	}
	name := gw.Name()

	if err := gw.VerifyWebhookSignature(headers, remoteIP, body); err != nil {
		u.log.Warn("webhook signature rejected", zap.String("gateway", name), zap.String("remote_ip", remoteIP), zap.Error(err))
		u.metrics.RecordWebhook(name, "invalid_signature")
		return WebhookResult{}, err
	}
	evt, err := gw.ParseWebhook(body)
	if err != nil {
		u.log.Warn("webhook payload rejected", zap.String("gateway", name), zap.Error(err))
		u.metrics.RecordWebhook(name, "invalid_payload")
		return WebhookResult{}, err
	}
	if evt.Type == entities.WebhookEventUnknown {
		u.log.Info("webhook event ignored", zap.String("gateway", name), zap.String("event", evt.ProviderEvent))
		return u.webhookDone(name, WebhookResult{Status: WebhookIgnored}), nil
	}

	p, byMetadata, err := u.webhookEntry(ctx, evt)
	if err != nil {
		return WebhookResult{}, err
	}
	if p.ID == "" {
		u.log.Info("webhook for unknown entry", zap.String("gateway", name), zap.String("transaction_id", evt.TransactionID), zap.String("payment_id", evt.PaymentRequestID))
		return u.webhookDone(name, WebhookResult{Status: WebhookIgnored}), nil
	}
	result := WebhookResult{PaymentRequestID: p.ID}
	if p.PaymentPlatform != name {
		u.log.Warn("webhook gateway mismatch", zap.String("gateway", name), zap.String("payment_id", p.ID), zap.String("payment_platform", p.PaymentPlatform))
		result.Status = WebhookIgnored
		return u.webhookDone(name, result), nil
	}
	if p.TransactionID != "" && evt.TransactionID != "" && p.TransactionID != evt.TransactionID {
		u.log.Warn("webhook transaction mismatch", zap.String("payment_id", p.ID), zap.String("transaction_id", evt.TransactionID), zap.String("attached", p.TransactionID))
		result.Status = WebhookIgnored
		return u.webhookDone(name, result), nil
	}
	if p.IsResolved() {
		u.metrics.RecordNoop(name, metrics.ChannelWebhook)
		result.Status, result.Outcome = WebhookNoop, outcomeOf(p)
		return u.webhookDone(name, result), nil
	}

	txID := evt.TransactionID
	if txID == "" {
		txID = p.TransactionID
	}
	v, err := gw.Verify(ctx, txID)
	if err != nil {
		if errors.Is(err, interfaces.ErrGatewayUnreachable) {
			u.metrics.RecordWebhook(name, "error")
			return WebhookResult{}, err
		}
		u.log.Warn("webhook verify rejected", zap.String("payment_id", p.ID), zap.String("transaction_id", txID), zap.Error(err))
		result.Status = WebhookIgnored
		return u.webhookDone(name, result), nil
	}
	if v.PaymentRequestID != p.ID && (byMetadata || v.PaymentRequestID != "") {
		u.log.Warn("webhook verify does not match entry", zap.String("payment_id", p.ID), zap.String("verified_payment_id", v.PaymentRequestID))
		result.Status = WebhookIgnored
		return u.webhookDone(name, result), nil
	}
	if v.TransactionID == "" {
		v.TransactionID = txID
	}

	stored, err := u.reconcile(ctx, p, v, metrics.ChannelWebhook)
	if err != nil {
		u.metrics.RecordWebhook(name, "error")
		return WebhookResult{}, err
	}
	result.Status, result.Outcome = WebhookProcessed, outcomeOf(stored)
	return u.webhookDone(name, result), nil
}

func (u *ReconciliationUseCase) webhookDone(gateway string, r WebhookResult) WebhookResult {
	u.metrics.RecordWebhook(gateway, r.Status)
	return r
}

// webhookEntry finds the entry by transaction id first and falls back to the
// ledger id carried in the event metadata.
func (u *ReconciliationUseCase) webhookEntry(ctx context.Context, evt entities.WebhookEvent) (entities.PaymentRequest, bool, error) {
	if evt.TransactionID != "" {
		p, err := u.ledger.FindByTransactionID(ctx, evt.TransactionID)
		switch {
		case err == nil:
			return p, false, nil
		case !errors.Is(err, ErrPaymentRequestNotFound):
			return entities.PaymentRequest{}, false, err
		}
	}
	id := evt.PaymentRequestID
	if id == "" {
		id = evt.Metadata["payment_id"]
	}
	if strings.TrimSpace(id) == "" {
		return entities.PaymentRequest{}, false, nil
	}
	p, err := u.ledger.GetByID(ctx, id)
	if errors.Is(err, ErrPaymentRequestNotFound) {
		return entities.PaymentRequest{}, false, nil
	}
	if err != nil {
		return entities.PaymentRequest{}, false, err
	}
	return p, true, nil
}

// Poll reports the entry state; with refresh it asks the gateway once and
// applies the answer with the same commit rules as the return channel.
func (u *ReconciliationUseCase) Poll(ctx context.Context, id string, refresh bool) (PollResult, error) {
	p, err := u.ledger.GetByID(ctx, id)
	if err != nil {
		return PollResult{}, err
	}
	if !refresh || p.IsResolved() || p.TransactionID == "" {
		return PollResult{PaymentRequest: p, Outcome: outcomeOf(p)}, nil
	}
	gw, err := u.gateway(p.PaymentPlatform)
	if err != nil {
		return PollResult{}, err
	}
	v, err := gw.Verify(ctx, p.TransactionID)
	if err != nil {
		if errors.Is(err, interfaces.ErrGatewayUnreachable) {
			return PollResult{}, err
		}
		u.log.Warn("poll verify rejected", zap.String("payment_id", p.ID), zap.Error(err))
		return PollResult{PaymentRequest: p, Outcome: outcomeOf(p)}, nil
	}
	stored, err := u.reconcile(ctx, p, v, metrics.ChannelPoll)
	if err != nil {
		return PollResult{}, err
	}
	return PollResult{PaymentRequest: stored, Outcome: outcomeOf(stored)}, nil
}

// Cancel renders the payer's cancel redirect. It commits nothing: a
// transaction the payer abandoned may still settle through the webhook.
func (u *ReconciliationUseCase) Cancel(ctx context.Context, gatewayName, id string) (ReturnResult, error) {
	if _, err := u.gateway(gatewayName); err != nil {
		return ReturnResult{}, err
	}
	p, err := u.ledger.GetByID(ctx, id)
	if errors.Is(err, ErrPaymentRequestNotFound) || errors.Is(err, ErrInvalidPaymentRequestID) {
		return ReturnResult{Outcome: OutcomeCancel}, nil
	}
	if err != nil {
		return ReturnResult{}, err
	}
	if p.IsPaid {
		return ReturnResult{PaymentRequest: p, Outcome: OutcomeSuccess}, nil
	}
	u.log.Info("payer canceled", zap.String("payment_id", p.ID), zap.String("gateway", p.PaymentPlatform))
	return ReturnResult{PaymentRequest: p, Outcome: OutcomeCancel}, nil
}

// reconcile commits a verified gateway status. Hooks fire only for the call
// that performed the transition, and only if the stored entry agrees.
func (u *ReconciliationUseCase) reconcile(ctx context.Context, p entities.PaymentRequest, v entities.VerifyResult, channel string) (entities.PaymentRequest, error) {
	switch v.Status {
	case entities.GatewayStatusSucceeded:
		txID := p.TransactionID
		if txID == "" {
			txID = v.TransactionID
		}
		stored, settled, err := u.ledger.MarkPaid(ctx, p.ID, txID, v.Method)
		if err != nil {
			return entities.PaymentRequest{}, err
		}
		if !settled || !stored.IsPaid {
			u.metrics.RecordNoop(stored.PaymentPlatform, channel)
			return stored, nil
		}
		u.metrics.RecordSettlement(stored.PaymentPlatform, channel)
		u.log.Info("settled", zap.String("payment_id", stored.ID), zap.String("transaction_id", stored.TransactionID), zap.String("channel", channel))
		u.hooks.Dispatch(context.WithoutCancel(ctx), stored.SuccessHook, stored)
		return stored, nil

	case entities.GatewayStatusCanceled:
		stored, failed, err := u.ledger.MarkFailed(ctx, p.ID)
		if err != nil {
			return entities.PaymentRequest{}, err
		}
		if !failed || !stored.IsFailed || stored.IsPaid {
			u.metrics.RecordNoop(stored.PaymentPlatform, channel)
			return stored, nil
		}
		u.metrics.RecordFailure(stored.PaymentPlatform, channel)
		u.log.Info("failed", zap.String("payment_id", stored.ID), zap.String("transaction_id", stored.TransactionID), zap.String("channel", channel))
		u.hooks.Dispatch(context.WithoutCancel(ctx), stored.FailureHook, stored)
		return stored, nil
	}
	return p, nil
}

func outcomeOf(p entities.PaymentRequest) Outcome {
	switch {
	case p.IsPaid:
		return OutcomeSuccess
	case p.IsFailed:
		return OutcomeFail
	default:
		return OutcomePending
	}
}
