package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"marketplace_payments/internal/domain/entities"
	"marketplace_payments/internal/usecase/interfaces"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"
)

const (
	defaultPaymentRequestsTableName = "payment_requests"
	paymentRequestsTransactionIndex = "transaction_id-index"

	// Only evaluated against an existing, unresolved row.
	unresolvedCondition = "attribute_exists(#id) AND #is_paid = :false AND #is_failed = :false"
)

// DynamoDBAPI is the subset of the DynamoDB client the repositories use.
type DynamoDBAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

type paymentRequestItem struct {
	ID                   string            `dynamodbav:"id"`
	PaymentAmount        string            `dynamodbav:"payment_amount"`
	CurrencyCode         string            `dynamodbav:"currency_code"`
	PayerID              string            `dynamodbav:"payer_id,omitempty"`
	ReceiverID           string            `dynamodbav:"receiver_id,omitempty"`
	PayerInformation     string            `dynamodbav:"payer_information,omitempty"`
	ReceiverInformation  string            `dynamodbav:"receiver_information,omitempty"`
	AdditionalData       map[string]string `dynamodbav:"additional_data,omitempty"`
	Attribute            string            `dynamodbav:"attribute,omitempty"`
	AttributeID          string            `dynamodbav:"attribute_id,omitempty"`
	PaymentPlatform      string            `dynamodbav:"payment_platform"`
	PaymentMethod        string            `dynamodbav:"payment_method,omitempty"`
	TransactionID        string            `dynamodbav:"transaction_id,omitempty"`
	IsPaid               bool              `dynamodbav:"is_paid"`
	IsFailed             bool              `dynamodbav:"is_failed"`
	SuccessHook          string            `dynamodbav:"success_hook,omitempty"`
	FailureHook          string            `dynamodbav:"failure_hook,omitempty"`
	ExternalRedirectLink string            `dynamodbav:"external_redirect_link,omitempty"`
	CreatedAt            string            `dynamodbav:"created_at"`
	UpdatedAt            string            `dynamodbav:"updated_at"`
	SettledAt            string            `dynamodbav:"settled_at,omitempty"`
}

// PaymentRequestDynamoRepository persists the PaymentRequest ledger in DynamoDB.
//
// Table requirements:
//   - PK: id (string)
//   - GSI: transaction_id-index (PK: transaction_id), sparse
//
// transaction_id is omitted until set, since GSI key attributes cannot be empty strings.
type PaymentRequestDynamoRepository struct {
	ddb       DynamoDBAPI
	tableName string
}

var _ interfaces.IPaymentRequestRepository = (*PaymentRequestDynamoRepository)(nil)

func NewPaymentRequestDynamoRepository(ddb DynamoDBAPI, tableName string) *PaymentRequestDynamoRepository {
	if tableName == "" {
		tableName = getenvDefault("PAYMENT_REQUESTS_TABLE", defaultPaymentRequestsTableName)
	}
	return &PaymentRequestDynamoRepository{ddb: ddb, tableName: tableName}
}

func (r *PaymentRequestDynamoRepository) Create(ctx context.Context, p entities.PaymentRequest) (entities.PaymentRequest, error) {
	it, err := toPaymentRequestItem(p)
	if err != nil {
		return entities.PaymentRequest{}, err
	}
	av, err := attributevalue.MarshalMap(it)
	if err != nil {
		return entities.PaymentRequest{}, err
	}

	_, err = r.ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(#id)"),
		ExpressionAttributeNames: map[string]string{
			"#id": "id",
		},
	})
	if err != nil {
		var cfe *types.ConditionalCheckFailedException
		if errors.As(err, &cfe) {
			return entities.PaymentRequest{}, fmt.Errorf("%w: %s", interfaces.ErrPaymentRequestExists, p.ID)
		}
		return entities.PaymentRequest{}, err
	}
	return p, nil
}

func (r *PaymentRequestDynamoRepository) GetByID(ctx context.Context, id string) (entities.PaymentRequest, error) {
	out, err := r.ddb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return entities.PaymentRequest{}, err
	}
	return decodePaymentRequest(out.Item)
}

// GetByTransactionID resolves the id through the GSI, then re-reads the row
// consistently because index reads may lag the base table.
func (r *PaymentRequestDynamoRepository) GetByTransactionID(ctx context.Context, transactionID string) (entities.PaymentRequest, error) {
	out, err := r.ddb.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(paymentRequestsTransactionIndex),
		KeyConditionExpression: aws.String("transaction_id = :tx"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":tx": &types.AttributeValueMemberS{Value: transactionID},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return entities.PaymentRequest{}, err
	}
	if len(out.Items) == 0 {
		return entities.PaymentRequest{}, nil
	}

	var it paymentRequestItem
	if err := attributevalue.UnmarshalMap(out.Items[0], &it); err != nil {
		return entities.PaymentRequest{}, err
	}
	return r.GetByID(ctx, it.ID)
}

func (r *PaymentRequestDynamoRepository) AttachTransaction(ctx context.Context, id, transactionID string) (entities.PaymentRequest, bool, error) {
	if transactionID == "" {
		return entities.PaymentRequest{}, false, errors.New("transaction id is required")
	}
	return r.conditionalUpdate(ctx, id,
		unresolvedCondition+" AND attribute_not_exists(#transaction_id)",
		func(now string) (string, map[string]types.AttributeValue, map[string]string) {
			expr := "SET #transaction_id = :tx, #updated_at = :updated_at"
			vals := map[string]types.AttributeValue{
				":tx":         &types.AttributeValueMemberS{Value: transactionID},
				":updated_at": &types.AttributeValueMemberS{Value: now},
			}
			names := map[string]string{
				"#transaction_id": "transaction_id",
				"#updated_at":     "updated_at",
			}
			return expr, vals, names
		})
}

func (r *PaymentRequestDynamoRepository) MarkPaid(ctx context.Context, id, transactionID, paymentMethod string) (entities.PaymentRequest, bool, error) {
	return r.conditionalUpdate(ctx, id, unresolvedCondition,
		func(now string) (string, map[string]types.AttributeValue, map[string]string) {
			expr := "SET #is_paid = :true, #payment_method = :method, #updated_at = :updated_at, #settled_at = :updated_at"
			vals := map[string]types.AttributeValue{
				":true":       &types.AttributeValueMemberBOOL{Value: true},
				":method":     &types.AttributeValueMemberS{Value: paymentMethod},
				":updated_at": &types.AttributeValueMemberS{Value: now},
			}
			names := map[string]string{
				"#is_paid":        "is_paid",
				"#payment_method": "payment_method",
				"#updated_at":     "updated_at",
				"#settled_at":     "settled_at",
			}
			if transactionID != "" {
				expr += ", #transaction_id = if_not_exists(#transaction_id, :tx)"
				vals[":tx"] = &types.AttributeValueMemberS{Value: transactionID}
				names["#transaction_id"] = "transaction_id"
			}
			return expr, vals, names
		})
}

func (r *PaymentRequestDynamoRepository) MarkFailed(ctx context.Context, id string) (entities.PaymentRequest, bool, error) {
	return r.conditionalUpdate(ctx, id, unresolvedCondition,
		func(now string) (string, map[string]types.AttributeValue, map[string]string) {
			expr := "SET #is_failed = :true, #updated_at = :updated_at"
			vals := map[string]types.AttributeValue{
				":true":       &types.AttributeValueMemberBOOL{Value: true},
				":updated_at": &types.AttributeValueMemberS{Value: now},
			}
			names := map[string]string{
				"#is_failed":  "is_failed",
				"#updated_at": "updated_at",
			}
			return expr, vals, names
		})
}

// conditionalUpdate runs a single UpdateItem guarded by condition. A failed
// condition is not an error: the stored row comes back with transitioned=false.
func (r *PaymentRequestDynamoRepository) conditionalUpdate(
	ctx context.Context,
	id string,
	condition string,
	build func(now string) (updateExpr string, values map[string]types.AttributeValue, names map[string]string),
) (entities.PaymentRequest, bool, error) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	updateExpr, values, names := build(now)
	values[":false"] = &types.AttributeValueMemberBOOL{Value: false}

	out, err := r.ddb.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
		ConditionExpression:       aws.String(condition),
		UpdateExpression:          aws.String(updateExpr),
		ExpressionAttributeValues: values,
		ExpressionAttributeNames: mergeNames(names, map[string]string{
			"#id":        "id",
			"#is_paid":   "is_paid",
			"#is_failed": "is_failed",
		}),
		ReturnValues:                        types.ReturnValueAllNew,
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	})
	if err != nil {
		var cfe *types.ConditionalCheckFailedException
		if errors.As(err, &cfe) {
			current, derr := decodePaymentRequest(cfe.Item)
			return current, false, derr
		}
		return entities.PaymentRequest{}, false, err
	}
	updated, err := decodePaymentRequest(out.Attributes)
	if err != nil {
		return entities.PaymentRequest{}, false, err
	}
	return updated, updated.ID != "", nil
}

func decodePaymentRequest(raw map[string]types.AttributeValue) (entities.PaymentRequest, error) {
	if len(raw) == 0 {
		return entities.PaymentRequest{}, nil
	}
	var it paymentRequestItem
	if err := attributevalue.UnmarshalMap(raw, &it); err != nil {
		return entities.PaymentRequest{}, err
	}
	return fromPaymentRequestItem(it)
}

func toPaymentRequestItem(p entities.PaymentRequest) (paymentRequestItem, error) {
	payer, err := json.Marshal(p.PayerInformation)
	if err != nil {
		return paymentRequestItem{}, fmt.Errorf("encode payer information: %w", err)
	}
	receiver, err := json.Marshal(p.ReceiverInformation)
	if err != nil {
		return paymentRequestItem{}, fmt.Errorf("encode receiver information: %w", err)
	}
	it := paymentRequestItem{
		ID:                   p.ID,
		PaymentAmount:        p.PaymentAmount.String(),
		CurrencyCode:         p.CurrencyCode,
		PayerID:              p.PayerID,
		ReceiverID:           p.ReceiverID,
		PayerInformation:     string(payer),
		ReceiverInformation:  string(receiver),
		AdditionalData:       p.AdditionalData,
		Attribute:            p.Attribute,
		AttributeID:          p.AttributeID,
		PaymentPlatform:      p.PaymentPlatform,
		PaymentMethod:        p.PaymentMethod,
		TransactionID:        p.TransactionID,
		IsPaid:               p.IsPaid,
		IsFailed:             p.IsFailed,
		SuccessHook:          p.SuccessHook,
		FailureHook:          p.FailureHook,
		ExternalRedirectLink: p.ExternalRedirectLink,
		CreatedAt:            p.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:            p.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
	if p.SettledAt != nil {
		it.SettledAt = p.SettledAt.UTC().Format(time.RFC3339Nano)
	}
	return it, nil
}

func fromPaymentRequestItem(it paymentRequestItem) (entities.PaymentRequest, error) {
	amount, err := decimal.NewFromString(it.PaymentAmount)
	if err != nil {
		return entities.PaymentRequest{}, fmt.Errorf("decode payment_amount %q: %w", it.PaymentAmount, err)
	}
	createdAt, _ := time.Parse(time.RFC3339Nano, it.CreatedAt)
	updatedAt, _ := time.Parse(time.RFC3339Nano, it.UpdatedAt)

	p := entities.PaymentRequest{
		ID:                   it.ID,
		PaymentAmount:        amount,
		CurrencyCode:         it.CurrencyCode,
		PayerID:              it.PayerID,
		ReceiverID:           it.ReceiverID,
		AdditionalData:       it.AdditionalData,
		Attribute:            it.Attribute,
		AttributeID:          it.AttributeID,
		PaymentPlatform:      it.PaymentPlatform,
		PaymentMethod:        it.PaymentMethod,
		TransactionID:        it.TransactionID,
		IsPaid:               it.IsPaid,
		IsFailed:             it.IsFailed,
		SuccessHook:          it.SuccessHook,
		FailureHook:          it.FailureHook,
		ExternalRedirectLink: it.ExternalRedirectLink,
		CreatedAt:            createdAt,
		UpdatedAt:            updatedAt,
	}
	if it.PayerInformation != "" {
		if err := json.Unmarshal([]byte(it.PayerInformation), &p.PayerInformation); err != nil {
			return entities.PaymentRequest{}, fmt.Errorf("decode payer_information: %w", err)
		}
	}
	if it.ReceiverInformation != "" {
		if err := json.Unmarshal([]byte(it.ReceiverInformation), &p.ReceiverInformation); err != nil {
			return entities.PaymentRequest{}, fmt.Errorf("decode receiver_information: %w", err)
		}
	}
	if it.SettledAt != "" {
		if settledAt, err := time.Parse(time.RFC3339Nano, it.SettledAt); err == nil {
			p.SettledAt = &settledAt
		}
	}
	return p, nil
}
