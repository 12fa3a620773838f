package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequencedIDGenerator_SameSeedProducesIncreasingIDs(t *testing.T) {
	gen := NewSequencedIDGenerator()

	first := gen.NewID(1700000000)
	second := gen.NewID(1700000000)
	third := gen.NewID(1700000000)

	require.NotEqual(t, first, second)
	assert.Less(t, first, second)
	assert.Less(t, second, third)
}

func TestSequencedIDGenerator_LaterSeedSortsAfterEarlier(t *testing.T) {
	gen := NewSequencedIDGenerator()

	earlier := gen.NewID(1700000000)
	later := gen.NewID(1700000500)

	assert.Less(t, earlier, later)
}

func TestSequencedIDGenerator_ClampsBackdatedSeeds(t *testing.T) {
	// A backdated record must not produce an id sorting before one
	// already handed out.
	gen := NewSequencedIDGenerator()

	newest := gen.NewID(1700000500)
	backdated := gen.NewID(1600000000)

	assert.Less(t, newest, backdated)
	assert.True(t, backdated[:10] == newest[:10], "clamped seed keeps the newest date prefix")
}

func TestSequencedIDGenerator_SequenceResetsOnNewSeed(t *testing.T) {
	gen := NewSequencedIDGenerator()

	gen.NewID(1700000000)
	gen.NewID(1700000000)
	fresh := gen.NewID(1700000001)

	assert.Contains(t, fresh, "-00000-")
}
