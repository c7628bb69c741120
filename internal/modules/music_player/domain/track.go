package domain

import (
	"fmt"
	"time"
)

// TrackID is the backend's identifier for a track, e.g. a YouTube video ID.
type TrackID string

// Track is a playable handle returned by the audio backend. Encoded is opaque
// and only meaningful to the backend that produced it.
type Track struct {
	ID         TrackID
	Encoded    string
	Title      string
	Artist     string
	Duration   time.Duration
	URI        string
	SourceName string
	IsStream   bool
}

// IsValid reports whether the track can be handed to a player.
func (t *Track) IsValid() bool {
	return t.Encoded != "" && t.Title != ""
}

// FormattedDuration renders the length as mm:ss, hh:mm:ss, or LIVE for streams.
func (t *Track) FormattedDuration() string {
	if t.IsStream {
		return "LIVE"
	}

	d := t.Duration.Truncate(time.Second)
	h, m, s := int(d.Hours()), int(d.Minutes())%60, int(d.Seconds())%60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
