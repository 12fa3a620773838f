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

// ddbSharedTransaction represents one physical copy of a shared
// transaction. A record with N participants exists as N+1 items: one
// under each participant's partition and one under the tracker's, all
// identical except PK (and the mirrored GSI1PK). Unsettled is stored as
// a presence marker: omitted entirely once settled, so the unsettled
// listing is a filter on the tracker partition, never a table scan.
type ddbSharedTransaction struct {
	PK           string             `dynamodbav:"PK"`
	SK           string             `dynamodbav:"SK"`
	GSI1PK       string             `dynamodbav:"GSI1PK"`
	GSI1SK       string             `dynamodbav:"GSI1SK"`
	EntityType   string             `dynamodbav:"EntityType"`
	ID           string             `dynamodbav:"ID"`
	Tracker      string             `dynamodbav:"Tracker"`
	Location     string             `dynamodbav:"Location"`
	Details      string             `dynamodbav:"Details"`
	Amount       int64              `dynamodbav:"Amount"`
	Date         int64              `dynamodbav:"Date"`
	Category     string             `dynamodbav:"Category"`
	Participants []string           `dynamodbav:"Participants"`
	Payer        string             `dynamodbav:"Payer"`
	Unsettled    bool               `dynamodbav:"Unsettled,omitempty"`
	Split        map[string]float64 `dynamodbav:"Split,omitempty"`
}

// newDDBSharedTransaction builds the copy stored under the given
// partition owner (a user key or the tracker key).
func newDDBSharedTransaction(txn domain.SharedTransaction, ownerKey string) ddbSharedTransaction {
	return ddbSharedTransaction{
		PK:           ownerKey,
		SK:           BuildSharedTransactionSK(txn.ID),
		GSI1PK:       ownerKey,
		GSI1SK:       BuildSharedTransactionDateSK(txn.Date, txn.ID),
		EntityType:   entityTypeSharedTransaction,
		ID:           txn.ID,
		Tracker:      txn.Tracker,
		Location:     txn.Location,
		Details:      txn.Details,
		Amount:       txn.Amount,
		Date:         txn.Date,
		Category:     txn.Category,
		Participants: txn.Participants,
		Payer:        txn.Payer,
		Unsettled:    txn.Unsettled,
		Split:        txn.Split,
	}
}

func (t ddbSharedTransaction) toDomain() domain.SharedTransaction {
	return domain.SharedTransaction{
		ID:           t.ID,
		Tracker:      t.Tracker,
		Location:     t.Location,
		Details:      t.Details,
		Amount:       t.Amount,
		Date:         t.Date,
		Category:     t.Category,
		Participants: t.Participants,
		Payer:        t.Payer,
		Unsettled:    t.Unsettled,
		Split:        t.Split,
	}
}

// sharedTxnOwnerKeys lists the partition keys holding copies of a
// shared transaction: one per participant, then the tracker.
func sharedTxnOwnerKeys(tracker string, participants []string) []string {
	owners := make([]string, 0, len(participants)+1)
	for _, p := range participants {
		owners = append(owners, BuildUserKey(p))
	}
	return append(owners, BuildTrackerKey(tracker))
}

// fanOutPutSharedTransaction writes every copy of the transaction.
// There is no cross-item transaction boundary: a failure partway
// through leaves the already-written copies in place and is reported
// as ErrPartialFanOut with the copy counts.
func (r *ddbRepository) fanOutPutSharedTransaction(ctx context.Context, txn domain.SharedTransaction) error {
	owners := sharedTxnOwnerKeys(txn.Tracker, txn.Participants)
	for i, owner := range owners {
		item, err := attributevalue.MarshalMap(newDDBSharedTransaction(txn, owner))
		if err != nil {
			return r.wrapStoreError(err, "marshal shared transaction item")
		}
		_, err = r.dbClient.PutItem(ctx, &dynamodb.PutItemInput{
			TableName: aws.String(r.config.TableName),
			Item:      item,
		})
		if err != nil {
			fanOut := repository.ErrPartialFanOut{
				Resource: "shared transaction",
				ID:       txn.ID,
				Written:  i,
				Total:    len(owners),
				Err:      err,
			}
			r.logger.Error("shared transaction fan-out write failed",
				zap.String("txn_id", txn.ID),
				zap.String("tracker", txn.Tracker),
				zap.Int("copies_written", i),
				zap.Int("copies_total", len(owners)),
				zap.Error(err))
			return fanOut
		}
	}
	return nil
}

// CreateSharedTransaction assigns a fresh time-sortable id and fans the
// record out across all participant partitions plus the tracker
// partition.
func (r *ddbRepository) CreateSharedTransaction(ctx context.Context, txn domain.SharedTransaction) (*domain.SharedTransaction, error) {
	txn.ID = r.idgen.NewID(txn.Date)
	if err := r.fanOutPutSharedTransaction(ctx, txn); err != nil {
		return nil, err
	}
	r.logger.Debug("shared transaction created",
		zap.String("txn_id", txn.ID),
		zap.String("tracker", txn.Tracker),
		zap.Int("participants", len(txn.Participants)))
	return &txn, nil
}

// UpdateSharedTransaction overwrites every copy with the new body. The
// tracker-scoped canonical copy must already exist.
func (r *ddbRepository) UpdateSharedTransaction(ctx context.Context, txn domain.SharedTransaction) error {
	existing, err := r.getTrackerCopy(ctx, txn.Tracker, txn.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return repository.NewNotFound("shared transaction", txn.ID)
	}
	return r.fanOutPutSharedTransaction(ctx, txn)
}

// DeleteSharedTransaction removes the copies named by the given
// tracker and participants list. Correctness depends on the caller
// passing the exact participant set stored with the transaction.
func (r *ddbRepository) DeleteSharedTransaction(ctx context.Context, tracker, txnID string, participants []string) error {
	owners := sharedTxnOwnerKeys(tracker, participants)
	for i, owner := range owners {
		_, err := r.dbClient.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(r.config.TableName),
			Key: map[string]types.AttributeValue{
				attrPK: &types.AttributeValueMemberS{Value: owner},
				attrSK: &types.AttributeValueMemberS{Value: BuildSharedTransactionSK(txnID)},
			},
		})
		if err != nil {
			fanOut := repository.ErrPartialFanOut{
				Resource: "shared transaction",
				ID:       txnID,
				Written:  i,
				Total:    len(owners),
				Err:      err,
			}
			r.logger.Error("shared transaction fan-out delete failed",
				zap.String("txn_id", txnID),
				zap.Int("copies_deleted", i),
				zap.Int("copies_total", len(owners)),
				zap.Error(err))
			return fanOut
		}
	}
	return nil
}

// getTrackerCopy point-reads the tracker-scoped copy, the one treated
// as canonical for existence checks.
func (r *ddbRepository) getTrackerCopy(ctx context.Context, tracker, txnID string) (*domain.SharedTransaction, error) {
	result, err := r.dbClient.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.config.TableName),
		Key: map[string]types.AttributeValue{
			attrPK: &types.AttributeValueMemberS{Value: BuildTrackerKey(tracker)},
			attrSK: &types.AttributeValueMemberS{Value: BuildSharedTransactionSK(txnID)},
		},
	})
	if err != nil {
		return nil, r.wrapStoreError(err, "get shared transaction item")
	}
	if result.Item == nil {
		return nil, nil
	}
	var item ddbSharedTransaction
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, r.wrapStoreError(err, "unmarshal shared transaction item")
	}
	txn := item.toDomain()
	return &txn, nil
}

// GetTransactionsByTracker lists a tracker's shared transactions most
// recent first.
func (r *ddbRepository) GetTransactionsByTracker(ctx context.Context, trackerID string) ([]domain.SharedTransaction, error) {
	result, err := r.dbClient.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.config.TableName),
		IndexName:              aws.String(r.config.IndexName),
		KeyConditionExpression: aws.String("GSI1PK = :pk AND begins_with(GSI1SK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: BuildTrackerKey(trackerID)},
			":prefix": &types.AttributeValueMemberS{Value: sharedTransactionPrefix},
		},
		ScanIndexForward: aws.Bool(false),
	})
	if err != nil {
		return nil, r.wrapStoreError(err, "query shared transactions by tracker")
	}
	return unmarshalSharedTransactions(result.Items)
}

// GetTransactionsByTrackerBetweenDates lists a tracker's shared
// transactions with from <= date <= to, both bounds inclusive.
func (r *ddbRepository) GetTransactionsByTrackerBetweenDates(ctx context.Context, trackerID string, from, to int64) ([]domain.SharedTransaction, error) {
	return r.querySharedTransactionsBetween(ctx, BuildTrackerKey(trackerID), from, to)
}

// GetSharedTransactionsByUserBetweenDates lists one user's shared
// transactions across every tracker, used for the cross-tracker
// personal ledger.
func (r *ddbRepository) GetSharedTransactionsByUserBetweenDates(ctx context.Context, userID string, from, to int64) ([]domain.SharedTransaction, error) {
	return r.querySharedTransactionsBetween(ctx, BuildUserKey(userID), from, to)
}

func (r *ddbRepository) querySharedTransactionsBetween(ctx context.Context, ownerKey string, from, to int64) ([]domain.SharedTransaction, error) {
	lo, hi := sharedTransactionDateRange(from, to)
	keyEx := expression.Key(attrGSI1PK).Equal(expression.Value(ownerKey)).
		And(expression.Key(attrGSI1SK).Between(expression.Value(lo), expression.Value(hi)))

	expr, err := expression.NewBuilder().WithKeyCondition(keyEx).Build()
	if err != nil {
		return nil, r.wrapStoreError(err, "build shared transaction range expression")
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
		return nil, r.wrapStoreError(err, "query shared transactions between dates")
	}
	return unmarshalSharedTransactions(result.Items)
}

// GetUnsettledTransactionsByTracker narrows the tracker partition query
// to items still carrying the unsettled presence marker.
func (r *ddbRepository) GetUnsettledTransactionsByTracker(ctx context.Context, trackerID string) ([]domain.SharedTransaction, error) {
	keyEx := expression.Key(attrGSI1PK).Equal(expression.Value(BuildTrackerKey(trackerID))).
		And(expression.Key(attrGSI1SK).BeginsWith(sharedTransactionPrefix))
	filter := expression.Name("Unsettled").AttributeExists()

	expr, err := expression.NewBuilder().WithKeyCondition(keyEx).WithFilter(filter).Build()
	if err != nil {
		return nil, r.wrapStoreError(err, "build unsettled filter expression")
	}

	result, err := r.dbClient.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.config.TableName),
		IndexName:                 aws.String(r.config.IndexName),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(false),
	})
	if err != nil {
		return nil, r.wrapStoreError(err, "query unsettled shared transactions")
	}
	return unmarshalSharedTransactions(result.Items)
}

// SettleTransactions clears the unsettled marker on every copy of each
// named transaction, via the same whole-item overwrite used by
// updates. Transactions settle independently: a failure partway leaves
// earlier entries settled, and re-running the batch is safe.
func (r *ddbRepository) SettleTransactions(ctx context.Context, reqs []repository.SettleRequest) error {
	for _, req := range reqs {
		existing, err := r.getTrackerCopy(ctx, req.Tracker, req.ID)
		if err != nil {
			return err
		}
		if existing == nil {
			return repository.NewNotFound("shared transaction", req.ID)
		}

		settled := *existing
		settled.Unsettled = false
		// The stored participant set stays authoritative for the copy
		// fan-out; the request's list is only identification.
		if err := r.fanOutPutSharedTransaction(ctx, settled); err != nil {
			return err
		}
	}
	return nil
}

func unmarshalSharedTransactions(items []map[string]types.AttributeValue) ([]domain.SharedTransaction, error) {
	txns := make([]domain.SharedTransaction, 0, len(items))
	for _, raw := range items {
		var item ddbSharedTransaction
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			return nil, err
		}
		txns = append(txns, item.toDomain())
	}
	return txns, nil
}
