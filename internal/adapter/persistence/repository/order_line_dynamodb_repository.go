package repository

import (
	"context"

	"marketplace_payments/internal/domain/entities"
	"marketplace_payments/internal/usecase/interfaces"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"
)

const (
	defaultOrderLinesTableName = "order_details"
	orderLinesOrderIDIndex     = "order_id-index"
)

type orderLineItem struct {
	ID          string                `dynamodbav:"id"`
	OrderID     string                `dynamodbav:"order_id"`
	ProductName string                `dynamodbav:"product_name"`
	Quantity    int                   `dynamodbav:"quantity"`
	UnitPrice   attributevalue.Number `dynamodbav:"unit_price"`
}

// OrderLineDynamoRepository reads order line items owned by the order service.
//
// Table requirements:
//   - PK: id (string)
//   - GSI: order_id-index (PK: order_id)
type OrderLineDynamoRepository struct {
	ddb       DynamoDBAPI
	tableName string
}

var _ interfaces.IOrderLineRepository = (*OrderLineDynamoRepository)(nil)

func NewOrderLineDynamoRepository(ddb DynamoDBAPI, tableName string) *OrderLineDynamoRepository {
	if tableName == "" {
		tableName = getenvDefault("ORDER_LINES_TABLE", defaultOrderLinesTableName)
	}
	return &OrderLineDynamoRepository{ddb: ddb, tableName: tableName}
}

func (r *OrderLineDynamoRepository) ListByOrderID(ctx context.Context, orderID string) ([]entities.OrderLine, error) {
	if orderID == "" {
		return nil, nil
	}

	var (
		lines []entities.OrderLine
		start map[string]types.AttributeValue
	)
	for {
		out, err := r.ddb.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(r.tableName),
			IndexName:              aws.String(orderLinesOrderIDIndex),
			KeyConditionExpression: aws.String("order_id = :oid"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":oid": &types.AttributeValueMemberS{Value: orderID},
			},
			ExclusiveStartKey: start,
		})
		if err != nil {
			return nil, err
		}
		for _, raw := range out.Items {
			var it orderLineItem
			if err := attributevalue.UnmarshalMap(raw, &it); err != nil {
				return nil, err
			}
			lines = append(lines, fromOrderLineItem(it))
		}
		if len(out.LastEvaluatedKey) == 0 {
			return lines, nil
		}
		start = out.LastEvaluatedKey
	}
}

func fromOrderLineItem(it orderLineItem) entities.OrderLine {
	price, err := decimal.NewFromString(string(it.UnitPrice))
	if err != nil {
		price = decimal.Zero
	}
	return entities.OrderLine{
		ID:          it.ID,
		OrderID:     it.OrderID,
		ProductName: it.ProductName,
		Quantity:    it.Quantity,
		UnitPrice:   price,
	}
}
