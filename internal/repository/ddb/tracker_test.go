package ddb

import (
	"context"
	"testing"

	"divvy-backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTracker_FansOutOneCopyPerMember(t *testing.T) {
	// Arrange
	ctx := context.Background()
	repo, fake := newTestRepository(t)

	// Act
	tracker, err := repo.CreateTracker(ctx, "Trip", []string{"a", "b"})

	// Assert: one copy per member plus the canonical copy.
	require.NoError(t, err)
	require.NotEmpty(t, tracker.ID)
	assert.Equal(t, "Trip", tracker.Name)
	assert.Equal(t, []string{"a", "b"}, tracker.Users)
	assert.Equal(t, 3, fake.itemCount())

	key := BuildTrackerKey(tracker.ID)
	for _, pk := range []string{"user#a", "user#b", key} {
		raw, ok := fake.rawItem(pk, key)
		require.True(t, ok, "missing copy under %s", pk)
		assert.Equal(t, "trackers", mustStringAttr(t, raw, attrGSI1PK))
		assert.Equal(t, entityTypeTracker, mustStringAttr(t, raw, "EntityType"))
	}
}

func TestGetTracker_ReadsCanonicalCopy(t *testing.T) {
	// Arrange
	ctx := context.Background()
	repo, _ := newTestRepository(t)
	created, err := repo.CreateTracker(ctx, "Trip", []string{"a", "b"})
	require.NoError(t, err)

	// Act
	got, err := repo.GetTracker(ctx, created.ID)

	// Assert
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, *created, *got)
}

func TestGetTracker_MissingYieldsNilNil(t *testing.T) {
	repo, _ := newTestRepository(t)

	got, err := repo.GetTracker(context.Background(), "no-such-id")

	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestGetTrackersByUser_ListsOnlyMemberships(t *testing.T) {
	// Arrange
	ctx := context.Background()
	repo, _ := newTestRepository(t)
	created, err := repo.CreateTracker(ctx, "Trip", []string{"a", "b"})
	require.NoError(t, err)

	// Act
	forA, err := repo.GetTrackersByUser(ctx, "a")
	require.NoError(t, err)
	forB, err := repo.GetTrackersByUser(ctx, "b")
	require.NoError(t, err)
	forC, err := repo.GetTrackersByUser(ctx, "c")
	require.NoError(t, err)

	// Assert
	require.Len(t, forA, 1)
	assert.Equal(t, created.ID, forA[0].ID)
	require.Len(t, forB, 1)
	assert.Equal(t, created.ID, forB[0].ID)
	assert.Empty(t, forC)
}

func TestGetTrackersByUser_MultipleMemberships(t *testing.T) {
	// Arrange
	ctx := context.Background()
	repo, _ := newTestRepository(t)
	_, err := repo.CreateTracker(ctx, "Trip", []string{"a", "b"})
	require.NoError(t, err)
	_, err = repo.CreateTracker(ctx, "Household", []string{"a", "c"})
	require.NoError(t, err)

	// Act
	forA, err := repo.GetTrackersByUser(ctx, "a")

	// Assert
	require.NoError(t, err)
	names := []string{forA[0].Name, forA[1].Name}
	assert.ElementsMatch(t, []string{"Trip", "Household"}, names)
}

func TestCreateTracker_PartialFanOutReported(t *testing.T) {
	// Arrange: the canonical copy write fails after both member copies.
	ctx := context.Background()
	repo, fake := newTestRepository(t)
	fake.failPutAt = 3

	// Act
	_, err := repo.CreateTracker(ctx, "Trip", []string{"a", "b"})

	// Assert
	require.Error(t, err)
	require.True(t, repository.IsPartialFanOut(err))

	var fanOut repository.ErrPartialFanOut
	require.ErrorAs(t, err, &fanOut)
	assert.Equal(t, 2, fanOut.Written)
	assert.Equal(t, 3, fanOut.Total)
	assert.Equal(t, 2, fake.itemCount())
}
