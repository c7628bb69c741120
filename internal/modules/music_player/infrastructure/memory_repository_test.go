package infrastructure

import (
	"sync"
	"testing"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/sgrfleet/internal/modules/music_player/domain"
)

func testKey(worker, guild uint64) domain.ContextKey {
	return domain.ContextKey{WorkerID: snowflake.ID(worker), GuildID: snowflake.ID(guild)}
}

func TestMemoryRepository_Get(t *testing.T) {
	repo := NewMemoryRepository()
	key := testKey(1, 123)

	if repo.Get(key) != nil {
		t.Fatal("expected nil for non-existent context")
	}

	pc := domain.NewPlaybackContext(key, 1, snowflake.ID(100))
	repo.Save(pc)

	if got := repo.Get(key); got != pc {
		t.Error("expected same context instance")
	}

	// Same guild, different worker is a different context
	if repo.Get(testKey(2, 123)) != nil {
		t.Error("expected nil for different worker")
	}
}

func TestMemoryRepository_Save(t *testing.T) {
	repo := NewMemoryRepository()
	key := testKey(1, 123)

	repo.Save(domain.NewPlaybackContext(key, 1, snowflake.ID(100)))

	replacement := domain.NewPlaybackContext(key, 2, snowflake.ID(300))
	repo.Save(replacement)

	if got := repo.Get(key); got != replacement {
		t.Error("expected replacement context after second save")
	}
	if repo.Count() != 1 {
		t.Errorf("expected count 1, got %d", repo.Count())
	}
}

func TestMemoryRepository_Delete(t *testing.T) {
	repo := NewMemoryRepository()
	key := testKey(1, 123)
	repo.Save(domain.NewPlaybackContext(key, 1, snowflake.ID(100)))

	repo.Delete(key)

	if repo.Get(key) != nil {
		t.Error("expected nil after delete")
	}

	// Deleting a missing key is a no-op
	repo.Delete(testKey(9, 9))
}

func TestMemoryRepository_ConcurrentAccess(t *testing.T) {
	repo := NewMemoryRepository()
	var wg sync.WaitGroup

	for i := range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			key := testKey(uint64(i%5), uint64(i))
			repo.Save(domain.NewPlaybackContext(key, uint64(i), 0))
			repo.Get(key)
			repo.Count()
			repo.Delete(key)
		}()
	}

	wg.Wait()

	if repo.Count() != 0 {
		t.Errorf("expected empty repository, got %d", repo.Count())
	}
}
