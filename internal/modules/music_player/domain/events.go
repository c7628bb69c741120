package domain

import (
	"github.com/disgoorg/snowflake/v2"
)

// TrackEndReason is why a worker's player stopped a track.
type TrackEndReason string

const (
	TrackEndFinished   TrackEndReason = "finished"
	TrackEndLoadFailed TrackEndReason = "load_failed"
	TrackEndStopped    TrackEndReason = "stopped"
	TrackEndReplaced   TrackEndReason = "replaced"
	TrackEndCleanup    TrackEndReason = "cleanup"
)

// ShouldAdvanceQueue reports whether the queue moves on after this end.
// Stopped and replaced tracks were ended by us and the caller already chose
// what plays next.
func (r TrackEndReason) ShouldAdvanceQueue() bool {
	switch r {
	case TrackEndFinished, TrackEndLoadFailed:
		return true
	default:
		return false
	}
}

// TrackEndedEvent is published when a worker's player reports the end of a track.
type TrackEndedEvent struct {
	WorkerID snowflake.ID
	GuildID  snowflake.ID
	Reason   TrackEndReason
}

// VoiceDisconnectedEvent is published when a worker leaves a voice channel
// without being asked to (kicked, channel deleted, connection lost).
type VoiceDisconnectedEvent struct {
	WorkerID snowflake.ID
	GuildID  snowflake.ID
}
