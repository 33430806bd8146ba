package usecase

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"marketplace_payments/internal/domain/entities"
	"marketplace_payments/internal/infrastructure/metrics"
	"marketplace_payments/internal/usecase/interfaces"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrValidation              = errors.New("validation error")
	ErrPaymentRequestNotFound  = errors.New("payment request not found")
	ErrPaymentRequestResolved  = errors.New("payment request already resolved")
	ErrInvalidPaymentRequestID = fmt.Errorf("%w: invalid payment request id", ErrValidation)
	ErrInvalidPaymentAmount    = fmt.Errorf("%w: payment amount must be greater than zero", ErrValidation)
	ErrInvalidCurrencyCode     = fmt.Errorf("%w: currency code must be a 3-letter ISO 4217 code", ErrValidation)
	ErrUnknownPaymentPlatform  = fmt.Errorf("%w: unknown payment platform", ErrValidation)
	ErrInvalidTransactionID    = fmt.Errorf("%w: invalid transaction id", ErrValidation)
)

var currencyCodePattern = regexp.MustCompile(`^[A-Z]{3}$`)

// CreatePaymentRequestInput carries everything fixed at creation.
type CreatePaymentRequestInput struct {
	Amount               decimal.Decimal
	CurrencyCode         string
	PayerID              string
	ReceiverID           string
	PayerInformation     entities.PayerInformation
	ReceiverInformation  entities.PayerInformation
	AdditionalData       map[string]string
	Attribute            string
	AttributeID          string
	PaymentPlatform      string
	SuccessHook          string
	FailureHook          string
	ExternalRedirectLink string
}

// IPaymentLedgerUseCase owns the PaymentRequest ledger.
//
// MarkPaid and MarkFailed are compare-and-set: the second return value
// reports whether this call performed the transition. A caller that lost
// the race gets the already resolved entry and false.
type IPaymentLedgerUseCase interface {
	Create(ctx context.Context, in CreatePaymentRequestInput) (entities.PaymentRequest, error)
	GetByID(ctx context.Context, id string) (entities.PaymentRequest, error)
	FindPending(ctx context.Context, id string) (entities.PaymentRequest, error)
	FindByTransactionID(ctx context.Context, transactionID string) (entities.PaymentRequest, error)
	AttachTransaction(ctx context.Context, id, transactionID string) (entities.PaymentRequest, bool, error)
	MarkPaid(ctx context.Context, id, transactionID, paymentMethod string) (entities.PaymentRequest, bool, error)
	MarkFailed(ctx context.Context, id string) (entities.PaymentRequest, bool, error)
}

type PaymentLedgerUseCase struct {
	repo      interfaces.IPaymentRequestRepository
	platforms map[string]struct{}
	log       *zap.Logger
	metrics   *metrics.PaymentMetrics
	now       func() time.Time
}

var _ IPaymentLedgerUseCase = (*PaymentLedgerUseCase)(nil)

// NewPaymentLedgerUseCase accepts entries only for the given platforms.
func NewPaymentLedgerUseCase(repo interfaces.IPaymentRequestRepository, platforms []string, log *zap.Logger, m *metrics.PaymentMetrics) *PaymentLedgerUseCase {
	set := make(map[string]struct{}, len(platforms))
	for _, p := range platforms {
		set[p] = struct{}{}
	}
	return &PaymentLedgerUseCase{
		repo:      repo,
		platforms: set,
		log:       log.Named("payment.ledger"),
		metrics:   m,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (u *PaymentLedgerUseCase) Create(ctx context.Context, in CreatePaymentRequestInput) (entities.PaymentRequest, error) {
	if !in.Amount.IsPositive() {
		return entities.PaymentRequest{}, ErrInvalidPaymentAmount
	}
	currency := strings.ToUpper(strings.TrimSpace(in.CurrencyCode))
	if !currencyCodePattern.MatchString(currency) {
		return entities.PaymentRequest{}, ErrInvalidCurrencyCode
	}
	platform := strings.ToLower(strings.TrimSpace(in.PaymentPlatform))
	if _, ok := u.platforms[platform]; !ok {
		return entities.PaymentRequest{}, fmt.Errorf("%w %q", ErrUnknownPaymentPlatform, in.PaymentPlatform)
	}

	now := u.now()
	p := entities.PaymentRequest{
		ID:                   uuid.NewString(),
		PaymentAmount:        in.Amount,
		CurrencyCode:         currency,
		PayerID:              strings.TrimSpace(in.PayerID),
		ReceiverID:           strings.TrimSpace(in.ReceiverID),
		PayerInformation:     in.PayerInformation,
		ReceiverInformation:  in.ReceiverInformation,
		AdditionalData:       in.AdditionalData,
		Attribute:            strings.TrimSpace(in.Attribute),
		AttributeID:          strings.TrimSpace(in.AttributeID),
		PaymentPlatform:      platform,
		SuccessHook:          strings.TrimSpace(in.SuccessHook),
		FailureHook:          strings.TrimSpace(in.FailureHook),
		ExternalRedirectLink: strings.TrimSpace(in.ExternalRedirectLink),
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	created, err := u.repo.Create(ctx, p)
	if err != nil {
		u.log.Error("create failed", zap.String("payment_id", p.ID), zap.Error(err))
		return entities.PaymentRequest{}, err
	}
	u.metrics.RecordCreated(platform)
	u.log.Info("created", zap.String("payment_id", created.ID), zap.String("gateway", platform),
		zap.String("amount", created.PaymentAmount.StringFixed(2)), zap.String("currency", currency))
	return created, nil
}

func (u *PaymentLedgerUseCase) GetByID(ctx context.Context, id string) (entities.PaymentRequest, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return entities.PaymentRequest{}, ErrInvalidPaymentRequestID
	}
	p, err := u.repo.GetByID(ctx, id)
	if err != nil {
		return entities.PaymentRequest{}, err
	}
	if p.ID == "" {
		return entities.PaymentRequest{}, ErrPaymentRequestNotFound
	}
	return p, nil
}

// FindPending returns the entry while it is unresolved. A resolved entry
// comes back together with ErrPaymentRequestResolved.
func (u *PaymentLedgerUseCase) FindPending(ctx context.Context, id string) (entities.PaymentRequest, error) {
	p, err := u.GetByID(ctx, id)
	if err != nil {
		return entities.PaymentRequest{}, err
	}
	if p.IsResolved() {
		return p, ErrPaymentRequestResolved
	}
	return p, nil
}

func (u *PaymentLedgerUseCase) FindByTransactionID(ctx context.Context, transactionID string) (entities.PaymentRequest, error) {
	transactionID = strings.TrimSpace(transactionID)
	if transactionID == "" {
		return entities.PaymentRequest{}, ErrInvalidTransactionID
	}
	p, err := u.repo.GetByTransactionID(ctx, transactionID)
	if err != nil {
		return entities.PaymentRequest{}, err
	}
	if p.ID == "" {
		return entities.PaymentRequest{}, ErrPaymentRequestNotFound
	}
	return p, nil
}

// AttachTransaction records the gateway transaction id once; it never
// replaces an existing one.
func (u *PaymentLedgerUseCase) AttachTransaction(ctx context.Context, id, transactionID string) (entities.PaymentRequest, bool, error) {
	if strings.TrimSpace(transactionID) == "" {
		return entities.PaymentRequest{}, false, ErrInvalidTransactionID
	}
	p, attached, err := u.repo.AttachTransaction(ctx, id, transactionID)
	if err != nil {
		return entities.PaymentRequest{}, false, err
	}
	if p.ID == "" {
		return entities.PaymentRequest{}, false, ErrPaymentRequestNotFound
	}
	if attached {
		u.log.Info("transaction attached", zap.String("payment_id", id), zap.String("transaction_id", transactionID))
	}
	return p, attached, nil
}

func (u *PaymentLedgerUseCase) MarkPaid(ctx context.Context, id, transactionID, paymentMethod string) (entities.PaymentRequest, bool, error) {
	p, settled, err := u.repo.MarkPaid(ctx, id, transactionID, paymentMethod)
	if err != nil {
		u.log.Error("mark paid failed", zap.String("payment_id", id), zap.Error(err))
		return entities.PaymentRequest{}, false, err
	}
	if p.ID == "" {
		return entities.PaymentRequest{}, false, ErrPaymentRequestNotFound
	}
	if settled {
		u.log.Info("settled", zap.String("payment_id", id), zap.String("transaction_id", p.TransactionID), zap.String("payment_method", paymentMethod))
	} else {
		u.log.Debug("already resolved", zap.String("payment_id", id), zap.String("status", string(p.Status())))
	}
	return p, settled, nil
}

func (u *PaymentLedgerUseCase) MarkFailed(ctx context.Context, id string) (entities.PaymentRequest, bool, error) {
	p, failed, err := u.repo.MarkFailed(ctx, id)
	if err != nil {
		u.log.Error("mark failed failed", zap.String("payment_id", id), zap.Error(err))
		return entities.PaymentRequest{}, false, err
	}
	if p.ID == "" {
		return entities.PaymentRequest{}, false, ErrPaymentRequestNotFound
	}
	if failed {
		u.log.Info("resolved as failed", zap.String("payment_id", id), zap.String("transaction_id", p.TransactionID))
	} else {
		u.log.Debug("already resolved", zap.String("payment_id", id), zap.String("status", string(p.Status())))
	}
	return p, failed, nil
}
