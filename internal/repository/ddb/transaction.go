package ddb

import (
	"context"

	"divvy-backend/internal/domain"
	"divvy-backend/internal/repository"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// ddbTransaction represents the structure of a personal transaction
// item in DynamoDB. GSI1SK embeds the zero-padded date so recency and
// range queries are single index range scans.
type ddbTransaction struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	GSI1PK     string `dynamodbav:"GSI1PK"`
	GSI1SK     string `dynamodbav:"GSI1SK"`
	EntityType string `dynamodbav:"EntityType"`
	ID         string `dynamodbav:"ID"`
	UserID     string `dynamodbav:"UserID"`
	Location   string `dynamodbav:"Location"`
	Details    string `dynamodbav:"Details"`
	Amount     int64  `dynamodbav:"Amount"`
	Date       int64  `dynamodbav:"Date"`
	Category   string `dynamodbav:"Category"`
}

func newDDBTransaction(txn domain.Transaction) ddbTransaction {
	return ddbTransaction{
		PK:         BuildUserKey(txn.UserID),
		SK:         BuildTransactionSK(txn.ID),
		GSI1PK:     BuildUserKey(txn.UserID),
		GSI1SK:     BuildTransactionDateSK(txn.Date, txn.ID),
		EntityType: entityTypeTransaction,
		ID:         txn.ID,
		UserID:     txn.UserID,
		Location:   txn.Location,
		Details:    txn.Details,
		Amount:     txn.Amount,
		Date:       txn.Date,
		Category:   txn.Category,
	}
}

func (t ddbTransaction) toDomain() domain.Transaction {
	return domain.Transaction{
		ID:       t.ID,
		UserID:   t.UserID,
		Location: t.Location,
		Details:  t.Details,
		Amount:   t.Amount,
		Date:     t.Date,
		Category: t.Category,
	}
}

// CreateTransaction assigns a fresh time-sortable id seeded from the
// transaction date and writes the item, conditioned on the sort key
// not existing as a defense against id collision.
func (r *ddbRepository) CreateTransaction(ctx context.Context, txn domain.Transaction) (*domain.Transaction, error) {
	txn.ID = r.idgen.NewID(txn.Date)

	item, err := attributevalue.MarshalMap(newDDBTransaction(txn))
	if err != nil {
		return nil, r.wrapStoreError(err, "marshal transaction item")
	}

	_, err = r.dbClient.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.config.TableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(SK)"),
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return nil, repository.NewAlreadyExists("transaction", txn.ID)
		}
		return nil, r.wrapStoreError(err, "put transaction item")
	}

	r.logger.Debug("transaction created",
		zap.String("user_id", txn.UserID),
		zap.String("txn_id", txn.ID))
	return &txn, nil
}

// GetTransaction point-reads one transaction; missing yields (nil, nil).
func (r *ddbRepository) GetTransaction(ctx context.Context, userID, txnID string) (*domain.Transaction, error) {
	result, err := r.dbClient.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.config.TableName),
		Key: map[string]types.AttributeValue{
			attrPK: &types.AttributeValueMemberS{Value: BuildUserKey(userID)},
			attrSK: &types.AttributeValueMemberS{Value: BuildTransactionSK(txnID)},
		},
	})
	if err != nil {
		return nil, r.wrapStoreError(err, "get transaction item")
	}
	if result.Item == nil {
		return nil, nil
	}

	var item ddbTransaction
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, r.wrapStoreError(err, "unmarshal transaction item")
	}
	txn := item.toDomain()
	return &txn, nil
}

// UpdateTransaction confirms the item exists and then overwrites it
// whole; partial attribute updates are never performed.
func (r *ddbRepository) UpdateTransaction(ctx context.Context, txn domain.Transaction) error {
	existing, err := r.GetTransaction(ctx, txn.UserID, txn.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return repository.NewNotFound("transaction", txn.ID)
	}

	item, err := attributevalue.MarshalMap(newDDBTransaction(txn))
	if err != nil {
		return r.wrapStoreError(err, "marshal transaction item")
	}
	_, err = r.dbClient.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.config.TableName),
		Item:      item,
	})
	if err != nil {
		return r.wrapStoreError(err, "put transaction item")
	}
	return nil
}

// DeleteTransaction removes the item unconditionally; deleting a
// missing id is a no-op.
func (r *ddbRepository) DeleteTransaction(ctx context.Context, userID, txnID string) error {
	_, err := r.dbClient.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.config.TableName),
		Key: map[string]types.AttributeValue{
			attrPK: &types.AttributeValueMemberS{Value: BuildUserKey(userID)},
			attrSK: &types.AttributeValueMemberS{Value: BuildTransactionSK(txnID)},
		},
	})
	if err != nil {
		return r.wrapStoreError(err, "delete transaction item")
	}
	return nil
}

// GetTransactionsByUser lists a user's transactions most recent first,
// via a reverse scan of the date-embedding index sort key.
func (r *ddbRepository) GetTransactionsByUser(ctx context.Context, userID string) ([]domain.Transaction, error) {
	result, err := r.dbClient.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.config.TableName),
		IndexName:              aws.String(r.config.IndexName),
		KeyConditionExpression: aws.String("GSI1PK = :pk AND begins_with(GSI1SK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: BuildUserKey(userID)},
			":prefix": &types.AttributeValueMemberS{Value: transactionPrefix},
		},
		ScanIndexForward: aws.Bool(false),
	})
	if err != nil {
		return nil, r.wrapStoreError(err, "query transactions by user")
	}
	return unmarshalTransactions(result.Items)
}

// GetTransactionsBetweenDates lists a user's transactions with
// from <= date <= to, most recent first. Both bounds are inclusive.
func (r *ddbRepository) GetTransactionsBetweenDates(ctx context.Context, userID string, from, to int64) ([]domain.Transaction, error) {
	lo, hi := transactionDateRange(from, to)
	keyEx := expression.Key(attrGSI1PK).Equal(expression.Value(BuildUserKey(userID))).
		And(expression.Key(attrGSI1SK).Between(expression.Value(lo), expression.Value(hi)))

	expr, err := expression.NewBuilder().WithKeyCondition(keyEx).Build()
	if err != nil {
		return nil, r.wrapStoreError(err, "build transaction range expression")
	}

	result, err := r.dbClient.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.config.TableName),
		IndexName:                 aws.String(r.config.IndexName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(false),
	})
	if err != nil {
		return nil, r.wrapStoreError(err, "query transactions between dates")
	}
	return unmarshalTransactions(result.Items)
}

func unmarshalTransactions(items []map[string]types.AttributeValue) ([]domain.Transaction, error) {
	txns := make([]domain.Transaction, 0, len(items))
	for _, raw := range items {
		var item ddbTransaction
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			return nil, err
		}
		txns = append(txns, item.toDomain())
	}
	return txns, nil
}
