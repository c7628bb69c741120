package usecases

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/sgrfleet/internal/modules/music_player/domain"
)

// ContextRef identifies one incarnation of a playback context. A ref taken
// before a context was destroyed never matches a context created afterwards.
type ContextRef struct {
	Key        domain.ContextKey
	Generation uint64
}

// EnqueueOutput contains the result of the Enqueue use case.
type EnqueueOutput struct {
	// Position is the 0-indexed tail position. It is meaningless when PlayingNow is true.
	Position   int
	PlayingNow bool
	Entry      domain.QueuedTrack
}

// SkipOutput contains the result of the Skip use case.
type SkipOutput struct {
	SkippedTrack *domain.QueuedTrack
	NextTrack    *domain.QueuedTrack // nil if queue is empty
}

// QueueSnapshot is a read-only copy of a playback context.
type QueueSnapshot struct {
	VoiceChannelID snowflake.ID
	RepeatMode     domain.RepeatMode
	Current        *domain.QueuedTrack
	Upcoming       []domain.QueuedTrack
}

// QueueService owns every mutation of playback contexts. All operations on one
// context run under that context's lock, in the order they acquire it.
type QueueService struct {
	repo domain.PlaybackContextRepository

	locksMu sync.Mutex
	locks   map[domain.ContextKey]*sync.Mutex

	generation atomic.Uint64
}

// NewQueueService creates a new QueueService.
func NewQueueService(repo domain.PlaybackContextRepository) *QueueService {
	return &QueueService{
		repo:  repo,
		locks: make(map[domain.ContextKey]*sync.Mutex),
	}
}

func (q *QueueService) lock(key domain.ContextKey) func() {
	q.locksMu.Lock()
	mu, ok := q.locks[key]
	if !ok {
		mu = &sync.Mutex{}
		q.locks[key] = mu
	}
	q.locksMu.Unlock()

	mu.Lock()
	return mu.Unlock
}

// get must be called with the key's lock held.
func (q *QueueService) get(ref ContextRef) (*domain.PlaybackContext, error) {
	pc := q.repo.Get(ref.Key)
	if pc == nil || pc.Generation() != ref.Generation {
		return nil, ErrContextClosed
	}
	return pc, nil
}

// Open returns the context for the session's worker and guild, creating it if
// none exists. Returns ErrNotConnected unless the session is Connected to voiceChannelID.
func (q *QueueService) Open(session *VoiceSession, voiceChannelID snowflake.ID) (ContextRef, error) {
	key := session.contextKey()
	defer q.lock(key)()

	if !session.IsConnectedTo(voiceChannelID) {
		return ContextRef{}, ErrNotConnected
	}

	pc := q.repo.Get(key)
	if pc == nil {
		pc = domain.NewPlaybackContext(key, q.generation.Add(1), voiceChannelID)
		q.repo.Save(pc)
	}

	return ContextRef{Key: key, Generation: pc.Generation()}, nil
}

// Lookup returns a ref to the live context for the key, if any.
func (q *QueueService) Lookup(key domain.ContextKey) (ContextRef, bool) {
	defer q.lock(key)()

	pc := q.repo.Get(key)
	if pc == nil {
		return ContextRef{}, false
	}
	return ContextRef{Key: key, Generation: pc.Generation()}, true
}

// Release destroys the session's context and disconnects the session.
// Returns false if the session was neither Connected nor Connecting.
func (q *QueueService) Release(ctx context.Context, session *VoiceSession) (bool, error) {
	return q.release(ctx, session, session.beginDisconnect)
}

// ReleaseIfIdle is Release for a referenced context that is still idle.
// Nothing happens if the context is closed or has tracks.
func (q *QueueService) ReleaseIfIdle(
	ctx context.Context,
	ref ContextRef,
	session *VoiceSession,
) (bool, error) {
	return q.release(ctx, session, func() bool {
		pc, err := q.get(ref)
		if err != nil || !pc.IsIdle() {
			return false
		}
		return session.beginDisconnect()
	})
}

// release runs begin under the context's lock and, if it moved the session
// out of Connected, deletes the context before the lock is dropped. Open
// checks the session under the same lock, so no context outlives its session.
func (q *QueueService) release(
	ctx context.Context,
	session *VoiceSession,
	begin func() bool,
) (bool, error) {
	key := session.contextKey()

	unlock := q.lock(key)
	if !begin() {
		unlock()
		return false, nil
	}
	q.repo.Delete(key)
	unlock()

	return true, session.finishDisconnect(ctx)
}

// IsIdle returns true if the referenced context is idle. A closed context is idle.
func (q *QueueService) IsIdle(ref ContextRef) bool {
	defer q.lock(ref.Key)()

	pc, err := q.get(ref)
	return err != nil || pc.IsIdle()
}

// Enqueue appends a resolved track to the referenced context.
// Returns ErrContextClosed if the context was torn down since ref was taken.
func (q *QueueService) Enqueue(
	ref ContextRef,
	track domain.Track,
	metadata domain.RequestMetadata,
) (*EnqueueOutput, error) {
	defer q.lock(ref.Key)()

	pc, err := q.get(ref)
	if err != nil {
		return nil, err
	}

	position, playingNow := pc.Queue().Enqueue(track, metadata)

	var entry domain.QueuedTrack
	if playingNow {
		entry = *pc.Current()
	} else {
		entry = *pc.Queue().GetAt(position)
	}

	return &EnqueueOutput{
		Position:   position,
		PlayingNow: playingNow,
		Entry:      entry,
	}, nil
}

// Advance finishes the current track according to the context's repeat mode.
// Returns the next track to play, or nil if the queue ran out.
func (q *QueueService) Advance(ref ContextRef) (*domain.QueuedTrack, error) {
	defer q.lock(ref.Key)()

	pc, err := q.get(ref)
	if err != nil {
		return nil, err
	}
	return pc.Advance(), nil
}

// Discard drops the current track regardless of repeat mode and returns the next one.
func (q *QueueService) Discard(ref ContextRef) (*domain.QueuedTrack, error) {
	defer q.lock(ref.Key)()

	pc, err := q.get(ref)
	if err != nil {
		return nil, err
	}
	return pc.Queue().Advance(domain.RepeatModeNone), nil
}

// Skip abandons the current track. Repeat-single does not replay it.
func (q *QueueService) Skip(ref ContextRef) (*SkipOutput, error) {
	defer q.lock(ref.Key)()

	pc, err := q.get(ref)
	if err != nil {
		return nil, err
	}

	skipped := pc.Current()
	if skipped == nil {
		return nil, ErrNothingPlaying
	}

	return &SkipOutput{
		SkippedTrack: skipped,
		NextTrack:    pc.Skip(),
	}, nil
}

// Remove removes the upcoming track at the 0-indexed position.
func (q *QueueService) Remove(ref ContextRef, index int) (*domain.QueuedTrack, error) {
	defer q.lock(ref.Key)()

	pc, err := q.get(ref)
	if err != nil {
		return nil, err
	}

	removed := pc.Queue().RemoveAt(index)
	if removed == nil {
		return nil, ErrInvalidPosition
	}
	return removed, nil
}

// Clear removes all upcoming tracks and returns how many were removed.
func (q *QueueService) Clear(ref ContextRef) (int, error) {
	defer q.lock(ref.Key)()

	pc, err := q.get(ref)
	if err != nil {
		return 0, err
	}
	return pc.Queue().Clear(), nil
}

// SetRepeatMode sets the repeat mode of the referenced context.
func (q *QueueService) SetRepeatMode(ref ContextRef, mode domain.RepeatMode) error {
	defer q.lock(ref.Key)()

	pc, err := q.get(ref)
	if err != nil {
		return err
	}
	pc.SetRepeatMode(mode)
	return nil
}

// Snapshot returns a copy of the referenced context.
func (q *QueueService) Snapshot(ref ContextRef) (*QueueSnapshot, error) {
	defer q.lock(ref.Key)()

	pc, err := q.get(ref)
	if err != nil {
		return nil, err
	}

	return &QueueSnapshot{
		VoiceChannelID: pc.VoiceChannelID(),
		RepeatMode:     pc.RepeatMode(),
		Current:        pc.Current(),
		Upcoming:       pc.Queue().Upcoming(),
	}, nil
}
