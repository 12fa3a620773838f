package repository

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// IDGenerator produces transaction ids that sort lexicographically by
// the seed date and, within the same second, by creation order. It is
// passed to repositories explicitly so tests can inject a
// deterministic stub.
type IDGenerator interface {
	// NewID returns a fresh id seeded from the given epoch-seconds
	// timestamp. Successive ids from one generator are strictly
	// increasing even for identical seeds.
	NewID(seed int64) string
}

// SequencedIDGenerator is the process-wide IDGenerator: a
// mutex-guarded sequence disambiguates ids created within the same
// second, and a random suffix keeps ids from separate processes from
// colliding.
type SequencedIDGenerator struct {
	mu   sync.Mutex
	last int64
	seq  uint32
}

// NewSequencedIDGenerator creates a generator starting at sequence zero.
func NewSequencedIDGenerator() *SequencedIDGenerator {
	return &SequencedIDGenerator{}
}

// NewID implements IDGenerator. Seeds older than the newest seed seen
// so far are clamped forward so no id ever sorts before one already
// handed out for the same or a later date.
func (g *SequencedIDGenerator) NewID(seed int64) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if seed < g.last {
		seed = g.last
	}
	if seed == g.last {
		g.seq++
	} else {
		g.last = seed
		g.seq = 0
	}

	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%010d-%05d-%s", seed, g.seq, suffix)
}
