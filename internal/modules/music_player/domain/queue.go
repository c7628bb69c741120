package domain

// Queue holds the currently playing track and the tracks waiting behind it.
// Entries are kept in submission order; Enqueue only ever appends and Advance is
// the only operation that takes the head. Queue is not safe for concurrent use.
type Queue struct {
	current  *QueuedTrack
	upcoming []QueuedTrack
	nextSeq  uint64
	lastAt   RequestMetadata
}

// NewQueue creates a new empty Queue.
func NewQueue() Queue {
	return Queue{
		upcoming: make([]QueuedTrack, 0),
	}
}

// IsIdle returns true if nothing is playing and nothing is waiting.
func (q *Queue) IsIdle() bool {
	return q.current == nil && len(q.upcoming) == 0
}

// Len returns the number of upcoming tracks (the current track is not counted).
func (q *Queue) Len() int {
	return len(q.upcoming)
}

// Current returns a copy of the currently playing track, or nil if idle.
func (q *Queue) Current() *QueuedTrack {
	if q.current == nil {
		return nil
	}
	current := *q.current
	return &current
}

// Upcoming returns a copy of the tracks waiting behind the current one.
func (q *Queue) Upcoming() []QueuedTrack {
	result := make([]QueuedTrack, len(q.upcoming))
	copy(result, q.upcoming)
	return result
}

// GetAt returns the upcoming track at the given index without removing it.
// Returns nil if the index is out of bounds.
func (q *Queue) GetAt(index int) *QueuedTrack {
	if !q.isValidIndex(index) {
		return nil
	}
	entry := q.upcoming[index]
	return &entry
}

func (q *Queue) isValidIndex(index int) bool {
	return 0 <= index && index < len(q.upcoming)
}

// Enqueue adds a track behind everything already queued.
// When the queue is idle the track becomes current immediately and playingNow is
// true; position is then 0 but means "playing", not "queued at 0". Otherwise
// position is the 0-indexed tail position, equal to the prior Len().
func (q *Queue) Enqueue(track Track, metadata RequestMetadata) (position int, playingNow bool) {
	// Request timestamps never go backwards within one queue's history, even when
	// resolutions complete out of order.
	if metadata.RequestedAt.Before(q.lastAt.RequestedAt) {
		metadata.RequestedAt = q.lastAt.RequestedAt
	}
	q.lastAt = metadata

	entry := QueuedTrack{
		Track:    track,
		Metadata: metadata,
		seq:      q.nextSeq,
	}
	q.nextSeq++

	if q.IsIdle() {
		q.current = &entry
		return 0, true
	}

	position = len(q.upcoming)
	q.upcoming = append(q.upcoming, entry)
	return position, false
}

// Advance finishes the current track and makes the head of the queue current.
// Returns the new current track, or nil if the queue ran out.
//   - RepeatModeNone: the finished track is discarded
//   - RepeatModeSingle: the finished track is put back at the head and plays again
//   - RepeatModeAll: the finished track is moved to the tail
func (q *Queue) Advance(mode RepeatMode) *QueuedTrack {
	finished := q.current
	q.current = nil

	if finished != nil {
		switch mode {
		case RepeatModeSingle:
			q.upcoming = append([]QueuedTrack{*finished}, q.upcoming...)
		case RepeatModeAll:
			q.upcoming = append(q.upcoming, *finished)
		}
	}

	if len(q.upcoming) == 0 {
		return nil
	}

	next := q.upcoming[0]
	q.upcoming = q.upcoming[1:]
	q.current = &next

	result := next
	return &result
}

// RemoveAt removes and returns the upcoming track at the given index.
// Returns nil if the index is out of bounds. The current track cannot be removed.
func (q *Queue) RemoveAt(index int) *QueuedTrack {
	if !q.isValidIndex(index) {
		return nil
	}

	entry := q.upcoming[index]
	q.upcoming = append(q.upcoming[:index], q.upcoming[index+1:]...)
	return &entry
}

// Clear removes all upcoming tracks and returns how many were removed.
// The current track keeps playing.
func (q *Queue) Clear() int {
	count := len(q.upcoming)
	q.upcoming = make([]QueuedTrack, 0)
	return count
}
