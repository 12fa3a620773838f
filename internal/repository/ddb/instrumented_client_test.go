package ddb

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testItem(pk, sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrPK: &types.AttributeValueMemberS{Value: pk},
		attrSK: &types.AttributeValueMemberS{Value: sk},
	}
}

func TestInstrumentedClient_PassesCallsThrough(t *testing.T) {
	// Arrange
	ctx := context.Background()
	fake := newFakeDynamoDB()
	client := NewInstrumentedClient(fake, zap.NewNop(), prometheus.NewRegistry())

	// Act
	_, err := client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String("expenses-test"),
		Item:      testItem("user#u1", "user#u1"),
	})
	require.NoError(t, err)

	out, err := client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String("expenses-test"),
		Key:       testItem("user#u1", "user#u1"),
	})

	// Assert
	require.NoError(t, err)
	assert.NotNil(t, out.Item)
}

func TestInstrumentedClient_BreakerOpensOnConsecutiveFailures(t *testing.T) {
	// Arrange: every put fails at the store.
	ctx := context.Background()
	fake := newFakeDynamoDB()
	fake.failPutAt = 1
	client := NewInstrumentedClient(fake, zap.NewNop(), prometheus.NewRegistry())

	input := &dynamodb.PutItemInput{
		TableName: aws.String("expenses-test"),
		Item:      testItem("user#u1", "user#u1"),
	}

	// Act
	for i := 0; i < 5; i++ {
		_, err := client.PutItem(ctx, input)
		require.ErrorIs(t, err, errInjected)
	}
	_, err := client.PutItem(ctx, input)

	// Assert: the sixth call fails fast without reaching the store.
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 5, fake.putCalls)
}

func TestInstrumentedClient_ConditionalCheckFailuresDoNotTrip(t *testing.T) {
	// Arrange: an existing item makes every conditional create fail.
	ctx := context.Background()
	fake := newFakeDynamoDB()
	client := NewInstrumentedClient(fake, zap.NewNop(), prometheus.NewRegistry())

	input := &dynamodb.PutItemInput{
		TableName:           aws.String("expenses-test"),
		Item:                testItem("user#u1", "user#u1"),
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	}
	_, err := client.PutItem(ctx, input)
	require.NoError(t, err)

	// Act: well past the trip threshold.
	for i := 0; i < 10; i++ {
		_, err = client.PutItem(ctx, input)
		require.Error(t, err)
	}

	// Assert: still the store's rejection, not a fast-failing breaker.
	var ccf *types.ConditionalCheckFailedException
	assert.True(t, errors.As(err, &ccf))
	assert.False(t, errors.Is(err, gobreaker.ErrOpenState))
}
