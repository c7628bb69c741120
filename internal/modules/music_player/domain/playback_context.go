package domain

import (
	"github.com/disgoorg/snowflake/v2"
)

// ContextKey identifies a playback context. A worker serves at most one voice
// channel per guild, so the pair is unique.
type ContextKey struct {
	WorkerID snowflake.ID
	GuildID  snowflake.ID
}

// PlaybackContext is the queue, repeat mode and voice channel owned by one
// worker in one guild. It exists only while the worker is assigned there.
type PlaybackContext struct {
	key            ContextKey
	generation     uint64
	voiceChannelID snowflake.ID
	queue          Queue
	repeat         RepeatMode
}

// NewPlaybackContext creates an empty PlaybackContext.
// The generation distinguishes this context from earlier ones that used the same key.
func NewPlaybackContext(key ContextKey, generation uint64, voiceChannelID snowflake.ID) *PlaybackContext {
	return &PlaybackContext{
		key:            key,
		generation:     generation,
		voiceChannelID: voiceChannelID,
		queue:          NewQueue(),
		repeat:         RepeatModeNone,
	}
}

func (p *PlaybackContext) Key() ContextKey { return p.key }
func (p *PlaybackContext) Generation() uint64 { return p.generation }
func (p *PlaybackContext) VoiceChannelID() snowflake.ID { return p.voiceChannelID }
func (p *PlaybackContext) RepeatMode() RepeatMode { return p.repeat }

// SetRepeatMode sets the repeat mode applied when the current track ends.
func (p *PlaybackContext) SetRepeatMode(mode RepeatMode) {
	p.repeat = mode
}

// Queue returns the context's queue for mutation.
func (p *PlaybackContext) Queue() *Queue {
	return &p.queue
}

// Current returns the currently playing track, or nil if idle.
func (p *PlaybackContext) Current() *QueuedTrack {
	return p.queue.Current()
}

// IsIdle returns true if nothing is playing or waiting.
func (p *PlaybackContext) IsIdle() bool {
	return p.queue.IsIdle()
}

// Advance moves to the next track using the context's repeat mode.
func (p *PlaybackContext) Advance() *QueuedTrack {
	return p.queue.Advance(p.repeat)
}

// Skip abandons the current track. Repeat-single is ignored so a skipped track
// is not replayed; repeat-all still moves it to the tail.
func (p *PlaybackContext) Skip() *QueuedTrack {
	mode := p.repeat
	if mode == RepeatModeSingle {
		mode = RepeatModeNone
	}
	return p.queue.Advance(mode)
}
