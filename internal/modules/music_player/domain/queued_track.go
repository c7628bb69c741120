package domain

import (
	"time"

	"github.com/disgoorg/snowflake/v2"
)

// RequestMetadata records who asked for a track, where to reply and when.
// It is attached when the track is resolved and never modified afterwards.
type RequestMetadata struct {
	RequesterID    snowflake.ID
	ReplyChannelID snowflake.ID
	RequestedAt    time.Time
}

// NewRequestMetadata creates RequestMetadata stamped with the given time in UTC.
func NewRequestMetadata(requesterID, replyChannelID snowflake.ID, at time.Time) RequestMetadata {
	return RequestMetadata{
		RequesterID:    requesterID,
		ReplyChannelID: replyChannelID,
		RequestedAt:    at.UTC(),
	}
}

// QueuedTrack is a resolved track placed in a playback context.
// Values are immutable once created by Queue.Enqueue.
type QueuedTrack struct {
	Track    Track
	Metadata RequestMetadata
	seq      uint64
}

// Seq returns the submission sequence number assigned by the owning queue.
func (q QueuedTrack) Seq() uint64 {
	return q.seq
}
