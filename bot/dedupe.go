package bot

import (
	"context"
	"sync"
)

// DedupStore remembers the id of the last message the bot successfully replied
// to. Implementations must only be written after a confirmed post so a failed
// post keeps its retry opportunity. The Postgres-backed implementation lives
// in the db package; MemoryDedup covers tests and single-process setups.
type DedupStore interface {
	LastRespondedID(ctx context.Context) (string, error)
	SetLastRespondedID(ctx context.Context, id string) error
}

// ShouldSkip reports whether the match was already answered. An empty stored
// id never skips.
func ShouldSkip(match TriggerMatch, lastRespondedID string) bool {
	return lastRespondedID != "" && match.Message.ID == lastRespondedID
}

// MemoryDedup is an in-memory DedupStore. State is lost on restart, which can
// cause one duplicate reply to a message answered in a prior process lifetime.
type MemoryDedup struct {
	mu sync.Mutex
	id string
}

func (m *MemoryDedup) LastRespondedID(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.id, nil
}

func (m *MemoryDedup) SetLastRespondedID(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.id = id
	return nil
}
