package ddb

import (
	"testing"

	"divvy-backend/internal/repository"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// newTestRepository wires a repository against the in-memory fake.
func newTestRepository(t *testing.T) (repository.Repository, *fakeDynamoDB) {
	t.Helper()
	fake := newFakeDynamoDB()
	repo := NewRepository(
		fake,
		repository.NewConfig("expenses-test", "GSI1"),
		repository.NewSequencedIDGenerator(),
		zap.NewNop(),
	)
	return repo, fake
}

// mustStringAttr reads a string attribute off a raw item, failing the
// test if it is absent or not a string.
func mustStringAttr(t *testing.T, item map[string]types.AttributeValue, name string) string {
	t.Helper()
	v, ok := stringAttr(item[name])
	if !ok {
		t.Fatalf("attribute %s missing or not a string", name)
	}
	return v
}
