// Package ddb implements the repository interfaces on a single
// DynamoDB table with one global secondary index. Every logical entity
// is an item discriminated by EntityType; denormalized entities
// (trackers, shared transactions) are fanned out as one copy per
// partition that needs to read them.
package ddb

import (
	"context"
	"errors"
	"fmt"

	"divvy-backend/internal/repository"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"
)

// Entity type discriminators stored on every item.
const (
	entityTypeUser              = "User"
	entityTypeTransaction       = "Transaction"
	entityTypeSharedTransaction = "SharedTransaction"
	entityTypeTracker           = "Tracker"
)

// DynamoDBClient is the slice of the SDK client the repositories use.
// Keeping it an interface lets tests substitute an in-memory fake
// without AWS infrastructure.
type DynamoDBClient interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// Verify the real client satisfies the interface.
var _ DynamoDBClient = (*dynamodb.Client)(nil)

// ddbRepository is the concrete implementation for DynamoDB.
type ddbRepository struct {
	dbClient DynamoDBClient
	config   repository.Config
	idgen    repository.IDGenerator
	logger   *zap.Logger
}

// NewRepository creates the DynamoDB-backed repository. The id
// generator is injected so creation order stays deterministic in tests.
func NewRepository(dbClient DynamoDBClient, config repository.Config, idgen repository.IDGenerator, logger *zap.Logger) repository.Repository {
	return &ddbRepository{
		dbClient: dbClient,
		config:   config,
		idgen:    idgen,
		logger:   logger,
	}
}

var _ repository.Repository = (*ddbRepository)(nil)

// isConditionalCheckFailed reports whether the store rejected a write
// because its condition expression did not hold.
func isConditionalCheckFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}

// wrapStoreError surfaces an unexpected store failure unchanged,
// annotated with the failing operation. The service error code is
// logged so throttling and the like stay visible.
func (r *ddbRepository) wrapStoreError(err error, op string) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		r.logger.Error("store call failed",
			zap.String("operation", op),
			zap.String("code", apiErr.ErrorCode()),
			zap.Error(err))
	} else {
		r.logger.Error("store call failed", zap.String("operation", op), zap.Error(err))
	}
	return fmt.Errorf("%s: %w", op, err)
}
