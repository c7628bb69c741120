package usecases

import (
	"github.com/sglre6355/sgrfleet/internal/modules/music_player/domain"
)

// Re-export domain types for presentation layer use.
// This allows presentation to depend only on usecases without importing domain directly.

// Track is an alias for domain.Track.
type Track = domain.Track

// QueuedTrack is an alias for domain.QueuedTrack.
type QueuedTrack = domain.QueuedTrack

// RepeatMode is an alias for domain.RepeatMode.
type RepeatMode = domain.RepeatMode

// VoiceConnectionState is an alias for domain.VoiceConnectionState.
type VoiceConnectionState = domain.VoiceConnectionState

// PlaybackContextRepository is an alias for domain.PlaybackContextRepository.
type PlaybackContextRepository = domain.PlaybackContextRepository
