package infrastructure

import (
	"sync"

	"github.com/sglre6355/sgrfleet/internal/modules/music_player/domain"
)

var _ domain.PlaybackContextRepository = (*MemoryRepository)(nil)

// MemoryRepository keeps playback contexts in process memory, keyed by
// worker and guild. Contexts do not survive a restart.
type MemoryRepository struct {
	mu       sync.RWMutex
	contexts map[domain.ContextKey]*domain.PlaybackContext
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{contexts: make(map[domain.ContextKey]*domain.PlaybackContext)}
}

func (r *MemoryRepository) Get(key domain.ContextKey) *domain.PlaybackContext {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.contexts[key]
}

// Save stores pc, replacing any context with the same key.
func (r *MemoryRepository) Save(pc *domain.PlaybackContext) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.contexts[pc.Key()] = pc
}

func (r *MemoryRepository) Delete(key domain.ContextKey) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.contexts, key)
}

func (r *MemoryRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.contexts)
}
