package ddb

import (
	"context"

	"divvy-backend/internal/domain"
	"divvy-backend/internal/repository"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ddbTracker represents one physical copy of a tracker. A tracker with
// N members is N+1 items: the canonical copy keyed tracker#{id} twice
// over, plus one copy under each member's partition for the per-user
// listing. All copies must agree on Name and Users.
type ddbTracker struct {
	PK         string   `dynamodbav:"PK"`
	SK         string   `dynamodbav:"SK"`
	GSI1PK     string   `dynamodbav:"GSI1PK"`
	GSI1SK     string   `dynamodbav:"GSI1SK"`
	EntityType string   `dynamodbav:"EntityType"`
	ID         string   `dynamodbav:"ID"`
	Name       string   `dynamodbav:"Name"`
	Users      []string `dynamodbav:"Users"`
}

func newDDBTracker(tracker domain.Tracker, ownerKey string) ddbTracker {
	return ddbTracker{
		PK:         ownerKey,
		SK:         BuildTrackerKey(tracker.ID),
		GSI1PK:     allTrackersPartition,
		GSI1SK:     BuildTrackerKey(tracker.ID),
		EntityType: entityTypeTracker,
		ID:         tracker.ID,
		Name:       tracker.Name,
		Users:      tracker.Users,
	}
}

func (t ddbTracker) toDomain() domain.Tracker {
	return domain.Tracker{ID: t.ID, Name: t.Name, Users: t.Users}
}

// CreateTracker assigns a fresh id and writes one copy per member plus
// the canonical copy. There is no uniqueness condition beyond the
// generated id; the two-member minimum is enforced by the schema layer
// in front of the API.
func (r *ddbRepository) CreateTracker(ctx context.Context, name string, users []string) (*domain.Tracker, error) {
	tracker := domain.Tracker{
		ID:    uuid.NewString(),
		Name:  name,
		Users: users,
	}

	owners := make([]string, 0, len(users)+1)
	for _, u := range users {
		owners = append(owners, BuildUserKey(u))
	}
	owners = append(owners, BuildTrackerKey(tracker.ID))

	for i, owner := range owners {
		item, err := attributevalue.MarshalMap(newDDBTracker(tracker, owner))
		if err != nil {
			return nil, r.wrapStoreError(err, "marshal tracker item")
		}
		_, err = r.dbClient.PutItem(ctx, &dynamodb.PutItemInput{
			TableName: aws.String(r.config.TableName),
			Item:      item,
		})
		if err != nil {
			fanOut := repository.ErrPartialFanOut{
				Resource: "tracker",
				ID:       tracker.ID,
				Written:  i,
				Total:    len(owners),
				Err:      err,
			}
			r.logger.Error("tracker fan-out write failed",
				zap.String("tracker_id", tracker.ID),
				zap.Int("copies_written", i),
				zap.Int("copies_total", len(owners)),
				zap.Error(err))
			return nil, fanOut
		}
	}

	r.logger.Debug("tracker created",
		zap.String("tracker_id", tracker.ID),
		zap.Int("members", len(users)))
	return &tracker, nil
}

// GetTracker point-reads the canonical copy; missing yields (nil, nil).
func (r *ddbRepository) GetTracker(ctx context.Context, id string) (*domain.Tracker, error) {
	key := BuildTrackerKey(id)
	result, err := r.dbClient.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.config.TableName),
		Key: map[string]types.AttributeValue{
			attrPK: &types.AttributeValueMemberS{Value: key},
			attrSK: &types.AttributeValueMemberS{Value: key},
		},
	})
	if err != nil {
		return nil, r.wrapStoreError(err, "get tracker item")
	}
	if result.Item == nil {
		return nil, nil
	}

	var item ddbTracker
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, r.wrapStoreError(err, "unmarshal tracker item")
	}
	tracker := item.toDomain()
	return &tracker, nil
}

// GetTrackersByUser lists the trackers a user belongs to, straight off
// the user's primary partition.
func (r *ddbRepository) GetTrackersByUser(ctx context.Context, userID string) ([]domain.Tracker, error) {
	result, err := r.dbClient.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.config.TableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: BuildUserKey(userID)},
			":prefix": &types.AttributeValueMemberS{Value: trackerPrefix},
		},
	})
	if err != nil {
		return nil, r.wrapStoreError(err, "query trackers by user")
	}

	trackers := make([]domain.Tracker, 0, len(result.Items))
	for _, raw := range result.Items {
		var item ddbTracker
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			return nil, r.wrapStoreError(err, "unmarshal tracker item")
		}
		trackers = append(trackers, item.toDomain())
	}
	return trackers, nil
}
