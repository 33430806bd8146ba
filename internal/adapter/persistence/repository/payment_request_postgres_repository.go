package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"marketplace_payments/internal/domain/entities"
	"marketplace_payments/internal/usecase/interfaces"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

const pgUniqueViolation = "23505"

const paymentRequestColumns = `id, payment_amount::text, currency_code, COALESCE(payer_id, ''), COALESCE(receiver_id, ''),
	payer_information, receiver_information, additional_data, COALESCE(attribute, ''), COALESCE(attribute_id, ''),
	payment_platform, COALESCE(payment_method, ''), COALESCE(transaction_id, ''), is_paid, is_failed,
	COALESCE(success_hook, ''), COALESCE(failure_hook, ''), COALESCE(external_redirect_link, ''),
	created_at, updated_at, settled_at`

// PgxQuerier is the subset of *pgxpool.Pool the Postgres repositories use.
type PgxQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PaymentRequestPostgresRepository persists the ledger in the payment_requests table.
// Every state transition is one UPDATE ... WHERE <guard> RETURNING statement.
type PaymentRequestPostgresRepository struct {
	db PgxQuerier
}

var _ interfaces.IPaymentRequestRepository = (*PaymentRequestPostgresRepository)(nil)

func NewPaymentRequestPostgresRepository(db PgxQuerier) *PaymentRequestPostgresRepository {
	return &PaymentRequestPostgresRepository{db: db}
}

func (r *PaymentRequestPostgresRepository) Create(ctx context.Context, p entities.PaymentRequest) (entities.PaymentRequest, error) {
	payer, err := json.Marshal(p.PayerInformation)
	if err != nil {
		return entities.PaymentRequest{}, err
	}
	receiver, err := json.Marshal(p.ReceiverInformation)
	if err != nil {
		return entities.PaymentRequest{}, err
	}
	additional := []byte("{}")
	if len(p.AdditionalData) > 0 {
		if additional, err = json.Marshal(p.AdditionalData); err != nil {
			return entities.PaymentRequest{}, err
		}
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO payment_requests (
			id, payment_amount, currency_code, payer_id, receiver_id,
			payer_information, receiver_information, additional_data, attribute, attribute_id,
			payment_platform, transaction_id, success_hook, failure_hook, external_redirect_link,
			created_at, updated_at
		) VALUES ($1, $2::numeric, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		p.ID, p.PaymentAmount.String(), p.CurrencyCode, nullIfEmpty(p.PayerID), nullIfEmpty(p.ReceiverID),
		string(payer), string(receiver), string(additional), nullIfEmpty(p.Attribute), nullIfEmpty(p.AttributeID),
		p.PaymentPlatform, nullIfEmpty(p.TransactionID), nullIfEmpty(p.SuccessHook), nullIfEmpty(p.FailureHook), nullIfEmpty(p.ExternalRedirectLink),
		p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return entities.PaymentRequest{}, fmt.Errorf("%w: %s", interfaces.ErrPaymentRequestExists, p.ID)
		}
		return entities.PaymentRequest{}, err
	}
	return p, nil
}

func (r *PaymentRequestPostgresRepository) GetByID(ctx context.Context, id string) (entities.PaymentRequest, error) {
	return r.queryOne(ctx, `SELECT `+paymentRequestColumns+` FROM payment_requests WHERE id = $1`, id)
}

func (r *PaymentRequestPostgresRepository) GetByTransactionID(ctx context.Context, transactionID string) (entities.PaymentRequest, error) {
	return r.queryOne(ctx, `SELECT `+paymentRequestColumns+` FROM payment_requests WHERE transaction_id = $1`, transactionID)
}

func (r *PaymentRequestPostgresRepository) AttachTransaction(ctx context.Context, id, transactionID string) (entities.PaymentRequest, bool, error) {
	if transactionID == "" {
		return entities.PaymentRequest{}, false, errors.New("transaction id is required")
	}
	return r.transition(ctx, id, `
		UPDATE payment_requests
		SET transaction_id = $2, updated_at = now()
		WHERE id = $1 AND is_paid = FALSE AND is_failed = FALSE AND transaction_id IS NULL
		RETURNING `+paymentRequestColumns, id, transactionID)
}

func (r *PaymentRequestPostgresRepository) MarkPaid(ctx context.Context, id, transactionID, paymentMethod string) (entities.PaymentRequest, bool, error) {
	return r.transition(ctx, id, `
		UPDATE payment_requests
		SET is_paid = TRUE,
		    payment_method = $3,
		    transaction_id = COALESCE(transaction_id, $2),
		    updated_at = now(),
		    settled_at = now()
		WHERE id = $1 AND is_paid = FALSE AND is_failed = FALSE
		RETURNING `+paymentRequestColumns, id, nullIfEmpty(transactionID), paymentMethod)
}

func (r *PaymentRequestPostgresRepository) MarkFailed(ctx context.Context, id string) (entities.PaymentRequest, bool, error) {
	return r.transition(ctx, id, `
		UPDATE payment_requests
		SET is_failed = TRUE, updated_at = now()
		WHERE id = $1 AND is_paid = FALSE AND is_failed = FALSE
		RETURNING `+paymentRequestColumns, id)
}

// transition runs a guarded UPDATE. No returned row means the guard did not
// match; the current row is then read back for the losing caller. A
// transaction id already held by another entry loses the same way.
func (r *PaymentRequestPostgresRepository) transition(ctx context.Context, id, sql string, args ...any) (entities.PaymentRequest, bool, error) {
	p, err := scanPaymentRequest(r.db.QueryRow(ctx, sql, args...))
	if err == nil {
		return p, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) && !isUniqueViolation(err) {
		return entities.PaymentRequest{}, false, err
	}
	current, err := r.GetByID(ctx, id)
	return current, false, err
}

func (r *PaymentRequestPostgresRepository) queryOne(ctx context.Context, sql string, args ...any) (entities.PaymentRequest, error) {
	p, err := scanPaymentRequest(r.db.QueryRow(ctx, sql, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return entities.PaymentRequest{}, nil
	}
	return p, err
}

func scanPaymentRequest(row pgx.Row) (entities.PaymentRequest, error) {
	var p entities.PaymentRequest
	var amount string
	var payer, receiver, additional []byte
	var settledAt *time.Time
	err := row.Scan(
		&p.ID, &amount, &p.CurrencyCode, &p.PayerID, &p.ReceiverID,
		&payer, &receiver, &additional, &p.Attribute, &p.AttributeID,
		&p.PaymentPlatform, &p.PaymentMethod, &p.TransactionID, &p.IsPaid, &p.IsFailed,
		&p.SuccessHook, &p.FailureHook, &p.ExternalRedirectLink,
		&p.CreatedAt, &p.UpdatedAt, &settledAt,
	)
	if err != nil {
		return entities.PaymentRequest{}, err
	}
	if p.PaymentAmount, err = decimal.NewFromString(amount); err != nil {
		return entities.PaymentRequest{}, fmt.Errorf("decode payment_amount %q: %w", amount, err)
	}
	if err := unmarshalColumn("payer_information", payer, &p.PayerInformation); err != nil {
		return entities.PaymentRequest{}, err
	}
	if err := unmarshalColumn("receiver_information", receiver, &p.ReceiverInformation); err != nil {
		return entities.PaymentRequest{}, err
	}
	var data map[string]string
	if err := unmarshalColumn("additional_data", additional, &data); err != nil {
		return entities.PaymentRequest{}, err
	}
	if len(data) > 0 {
		p.AdditionalData = data
	}
	p.SettledAt = settledAt
	return p, nil
}

func unmarshalColumn(column string, raw []byte, v any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode %s: %w", column, err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
