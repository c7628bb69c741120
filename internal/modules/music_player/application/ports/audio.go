package ports

import (
	"context"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/sgrfleet/internal/modules/music_player/domain"
)

// AudioPlayer controls one worker's player in each guild.
type AudioPlayer interface {
	Play(ctx context.Context, guildID snowflake.ID, track *domain.Track) error
	Stop(ctx context.Context, guildID snowflake.ID) error
	Pause(ctx context.Context, guildID snowflake.ID) error
	Resume(ctx context.Context, guildID snowflake.ID) error
}

// TrackResolver looks queries up on the audio backend.
type TrackResolver interface {
	// LoadTracks reports backend failures as LoadTypeError with ErrorMessage
	// set. The error return is for transport failures only.
	LoadTracks(ctx context.Context, query string) (*LoadResult, error)
}

type LoadType string

const (
	LoadTypeTrack    LoadType = "track"
	LoadTypePlaylist LoadType = "playlist"
	LoadTypeSearch   LoadType = "search"
	LoadTypeEmpty    LoadType = "empty"
	LoadTypeError    LoadType = "error"
)

// LoadResult is the backend's answer to a query.
type LoadResult struct {
	Type   LoadType
	Tracks []*TrackInfo

	PlaylistName  string
	SelectedIndex int // -1 when no track is selected

	ErrorMessage string
}

// TrackInfo is a playable track as the backend describes it.
type TrackInfo struct {
	Identifier string
	Encoded    string
	Title      string
	Artist     string
	Duration   time.Duration
	URI        string
	SourceName string
	IsStream   bool
}
