package ddb

import (
	"context"

	"divvy-backend/internal/domain"
	"divvy-backend/internal/repository"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// ddbUser represents the structure of a user item in DynamoDB.
type ddbUser struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	GSI1PK     string `dynamodbav:"GSI1PK"`
	GSI1SK     string `dynamodbav:"GSI1SK"`
	EntityType string `dynamodbav:"EntityType"`
	ID         string `dynamodbav:"ID"`
	Username   string `dynamodbav:"Username"`
	Name       string `dynamodbav:"Name"`
}

func (u ddbUser) toDomain() domain.User {
	return domain.User{ID: u.ID, Username: u.Username, Name: u.Name}
}

// CreateUser writes the user item conditioned on the partition key not
// already existing, so id uniqueness is enforced by the store's atomic
// conditional put rather than a read-then-write.
func (r *ddbRepository) CreateUser(ctx context.Context, user domain.User) error {
	key := BuildUserKey(user.ID)
	item, err := attributevalue.MarshalMap(ddbUser{
		PK:         key,
		SK:         key,
		GSI1PK:     allUsersPartition,
		GSI1SK:     key,
		EntityType: entityTypeUser,
		ID:         user.ID,
		Username:   user.Username,
		Name:       user.Name,
	})
	if err != nil {
		return r.wrapStoreError(err, "marshal user item")
	}

	_, err = r.dbClient.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.config.TableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return repository.NewAlreadyExists("user", user.ID)
		}
		return r.wrapStoreError(err, "put user item")
	}

	r.logger.Debug("user created", zap.String("user_id", user.ID))
	return nil
}

// GetUser point-reads a user. A missing id yields (nil, nil); the
// caller decides how absence surfaces.
func (r *ddbRepository) GetUser(ctx context.Context, id string) (*domain.User, error) {
	key := BuildUserKey(id)
	result, err := r.dbClient.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.config.TableName),
		Key: map[string]types.AttributeValue{
			attrPK: &types.AttributeValueMemberS{Value: key},
			attrSK: &types.AttributeValueMemberS{Value: key},
		},
	})
	if err != nil {
		return nil, r.wrapStoreError(err, "get user item")
	}
	if result.Item == nil {
		return nil, nil
	}

	var item ddbUser
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, r.wrapStoreError(err, "unmarshal user item")
	}
	user := item.toDomain()
	return &user, nil
}

// GetAllUsers queries the constant "users" index partition. The index
// assigns the order; callers must not rely on it.
func (r *ddbRepository) GetAllUsers(ctx context.Context) ([]domain.User, error) {
	result, err := r.dbClient.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.config.TableName),
		IndexName:              aws.String(r.config.IndexName),
		KeyConditionExpression: aws.String("GSI1PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: allUsersPartition},
		},
	})
	if err != nil {
		return nil, r.wrapStoreError(err, "query users")
	}

	users := make([]domain.User, 0, len(result.Items))
	for _, raw := range result.Items {
		var item ddbUser
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			return nil, r.wrapStoreError(err, "unmarshal user item")
		}
		users = append(users, item.toDomain())
	}
	return users, nil
}
