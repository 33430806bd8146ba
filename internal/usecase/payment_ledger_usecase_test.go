package usecase

import (
	"context"
	"errors"
	"testing"

	"marketplace_payments/internal/domain/entities"
	mock_interfaces "marketplace_payments/internal/usecase/interfaces/mocks"

	"github.com/shopspring/decimal"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

var testPlatforms = []string{"yookassa", "paystack", "razorpay", "mercadopago"}

func validCreateInput() CreatePaymentRequestInput {
	return CreatePaymentRequestInput{
		Amount:          decimal.RequireFromString("150.00"),
		CurrencyCode:    " rub ",
		PaymentPlatform: "YooKassa",
		AttributeID:     " 42 ",
		SuccessHook:     HookDigitalPaymentSuccess,
		FailureHook:     HookDigitalPaymentFail,
	}
}

func TestPaymentLedgerUseCase_Create_Validations(t *testing.T) {
	uc := NewPaymentLedgerUseCase(nil, testPlatforms, zap.NewNop(), nil)

	t.Run("zero amount", func(t *testing.T) {
		in := validCreateInput()
		in.Amount = decimal.Zero
		_, err := uc.Create(context.Background(), in)
		if !errors.Is(err, ErrInvalidPaymentAmount) || !errors.Is(err, ErrValidation) {
			t.Fatalf("expected ErrInvalidPaymentAmount, got %v", err)
		}
	})

	t.Run("negative amount", func(t *testing.T) {
		in := validCreateInput()
		in.Amount = decimal.NewFromInt(-1)
		_, err := uc.Create(context.Background(), in)
		if !errors.Is(err, ErrInvalidPaymentAmount) {
			t.Fatalf("expected ErrInvalidPaymentAmount, got %v", err)
		}
	})

	t.Run("missing currency", func(t *testing.T) {
		in := validCreateInput()
		in.CurrencyCode = ""
		_, err := uc.Create(context.Background(), in)
		if !errors.Is(err, ErrInvalidCurrencyCode) {
			t.Fatalf("expected ErrInvalidCurrencyCode, got %v", err)
		}
	})

	t.Run("malformed currency", func(t *testing.T) {
		in := validCreateInput()
		in.CurrencyCode = "RUBL"
		_, err := uc.Create(context.Background(), in)
		if !errors.Is(err, ErrInvalidCurrencyCode) {
			t.Fatalf("expected ErrInvalidCurrencyCode, got %v", err)
		}
	})

	t.Run("unknown platform", func(t *testing.T) {
		in := validCreateInput()
		in.PaymentPlatform = "stripe"
		_, err := uc.Create(context.Background(), in)
		if !errors.Is(err, ErrUnknownPaymentPlatform) || !errors.Is(err, ErrValidation) {
			t.Fatalf("expected ErrUnknownPaymentPlatform, got %v", err)
		}
	})
}

func TestPaymentLedgerUseCase_Create(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	repo := mock_interfaces.NewMockIPaymentRequestRepository(ctrl)
	uc := NewPaymentLedgerUseCase(repo, testPlatforms, zap.NewNop(), nil)

	repo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, p entities.PaymentRequest) (entities.PaymentRequest, error) {
		return p, nil
	})

	got, err := uc.Create(context.Background(), validCreateInput())
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if got.ID == "" {
		t.Fatalf("expected generated id")
	}
	if got.CurrencyCode != "RUB" || got.PaymentPlatform != "yookassa" || got.AttributeID != "42" {
		t.Fatalf("expected normalized fields, got %+v", got)
	}
	if got.Status() != entities.PaymentStatusPending || got.IsPaid || got.TransactionID != "" {
		t.Fatalf("expected pending entry, got %+v", got)
	}
	if got.CreatedAt.IsZero() || !got.CreatedAt.Equal(got.UpdatedAt) {
		t.Fatalf("expected timestamps to be set, got %v/%v", got.CreatedAt, got.UpdatedAt)
	}
}

func TestPaymentLedgerUseCase_Create_RepoError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	repo := mock_interfaces.NewMockIPaymentRequestRepository(ctrl)
	uc := NewPaymentLedgerUseCase(repo, testPlatforms, zap.NewNop(), nil)

	repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(entities.PaymentRequest{}, errors.New("db"))

	_, err := uc.Create(context.Background(), validCreateInput())
	if err == nil || err.Error() != "db" {
		t.Fatalf("expected db error, got %v", err)
	}
}

func TestPaymentLedgerUseCase_Lookups(t *testing.T) {
	t.Run("empty id", func(t *testing.T) {
		uc := NewPaymentLedgerUseCase(nil, testPlatforms, zap.NewNop(), nil)
		_, err := uc.GetByID(context.Background(), "  ")
		if !errors.Is(err, ErrInvalidPaymentRequestID) {
			t.Fatalf("expected ErrInvalidPaymentRequestID, got %v", err)
		}
	})

	t.Run("not found", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		repo := mock_interfaces.NewMockIPaymentRequestRepository(ctrl)
		uc := NewPaymentLedgerUseCase(repo, testPlatforms, zap.NewNop(), nil)

		repo.EXPECT().GetByID(gomock.Any(), "pr-1").Return(entities.PaymentRequest{}, nil)

		_, err := uc.GetByID(context.Background(), " pr-1 ")
		if !errors.Is(err, ErrPaymentRequestNotFound) {
			t.Fatalf("expected ErrPaymentRequestNotFound, got %v", err)
		}
	})

	t.Run("find pending flags resolved entries", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		repo := mock_interfaces.NewMockIPaymentRequestRepository(ctrl)
		uc := NewPaymentLedgerUseCase(repo, testPlatforms, zap.NewNop(), nil)

		repo.EXPECT().GetByID(gomock.Any(), "pr-1").Return(entities.PaymentRequest{ID: "pr-1", IsPaid: true}, nil)
		repo.EXPECT().GetByID(gomock.Any(), "pr-2").Return(entities.PaymentRequest{ID: "pr-2", TransactionID: "tx"}, nil)

		resolved, err := uc.FindPending(context.Background(), "pr-1")
		if !errors.Is(err, ErrPaymentRequestResolved) || !resolved.IsPaid {
			t.Fatalf("expected resolved entry with ErrPaymentRequestResolved, got %+v err=%v", resolved, err)
		}
		got, err := uc.FindPending(context.Background(), "pr-2")
		if err != nil || got.ID != "pr-2" {
			t.Fatalf("expected pending entry, got %+v err=%v", got, err)
		}
	})

	t.Run("find by transaction id", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		repo := mock_interfaces.NewMockIPaymentRequestRepository(ctrl)
		uc := NewPaymentLedgerUseCase(repo, testPlatforms, zap.NewNop(), nil)

		repo.EXPECT().GetByTransactionID(gomock.Any(), "pay_abc").Return(entities.PaymentRequest{ID: "pr-1", TransactionID: "pay_abc"}, nil)
		repo.EXPECT().GetByTransactionID(gomock.Any(), "pay_zzz").Return(entities.PaymentRequest{}, nil)

		got, err := uc.FindByTransactionID(context.Background(), "pay_abc")
		if err != nil || got.ID != "pr-1" {
			t.Fatalf("expected pr-1, got %+v err=%v", got, err)
		}
		if _, err := uc.FindByTransactionID(context.Background(), "pay_zzz"); !errors.Is(err, ErrPaymentRequestNotFound) {
			t.Fatalf("expected ErrPaymentRequestNotFound, got %v", err)
		}
		if _, err := uc.FindByTransactionID(context.Background(), ""); !errors.Is(err, ErrInvalidTransactionID) {
			t.Fatalf("expected ErrInvalidTransactionID, got %v", err)
		}
	})
}

func TestPaymentLedgerUseCase_Transitions(t *testing.T) {
	t.Run("mark paid loser is not an error", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		repo := mock_interfaces.NewMockIPaymentRequestRepository(ctrl)
		uc := NewPaymentLedgerUseCase(repo, testPlatforms, zap.NewNop(), nil)

		paid := entities.PaymentRequest{ID: "pr-1", IsPaid: true, TransactionID: "pay_abc"}
		repo.EXPECT().MarkPaid(gomock.Any(), "pr-1", "pay_abc", "yookassa").Return(paid, true, nil)
		repo.EXPECT().MarkPaid(gomock.Any(), "pr-1", "pay_abc", "yookassa").Return(paid, false, nil)

		if _, settled, err := uc.MarkPaid(context.Background(), "pr-1", "pay_abc", "yookassa"); err != nil || !settled {
			t.Fatalf("expected first call to settle, got settled=%v err=%v", settled, err)
		}
		got, settled, err := uc.MarkPaid(context.Background(), "pr-1", "pay_abc", "yookassa")
		if err != nil || settled || !got.IsPaid {
			t.Fatalf("expected already settled signal, got settled=%v err=%v entry=%+v", settled, err, got)
		}
	})

	t.Run("mark failed on unknown entry", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		repo := mock_interfaces.NewMockIPaymentRequestRepository(ctrl)
		uc := NewPaymentLedgerUseCase(repo, testPlatforms, zap.NewNop(), nil)

		repo.EXPECT().MarkFailed(gomock.Any(), "nope").Return(entities.PaymentRequest{}, false, nil)

		if _, _, err := uc.MarkFailed(context.Background(), "nope"); !errors.Is(err, ErrPaymentRequestNotFound) {
			t.Fatalf("expected ErrPaymentRequestNotFound, got %v", err)
		}
	})

	t.Run("attach requires a transaction id", func(t *testing.T) {
		uc := NewPaymentLedgerUseCase(nil, testPlatforms, zap.NewNop(), nil)
		if _, _, err := uc.AttachTransaction(context.Background(), "pr-1", " "); !errors.Is(err, ErrInvalidTransactionID) {
			t.Fatalf("expected ErrInvalidTransactionID, got %v", err)
		}
	})

	t.Run("attach propagates repo errors", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()
		repo := mock_interfaces.NewMockIPaymentRequestRepository(ctrl)
		uc := NewPaymentLedgerUseCase(repo, testPlatforms, zap.NewNop(), nil)

		repo.EXPECT().AttachTransaction(gomock.Any(), "pr-1", "tx").Return(entities.PaymentRequest{}, false, errors.New("db"))

		if _, _, err := uc.AttachTransaction(context.Background(), "pr-1", "tx"); err == nil || err.Error() != "db" {
			t.Fatalf("expected db error, got %v", err)
		}
	})
}
