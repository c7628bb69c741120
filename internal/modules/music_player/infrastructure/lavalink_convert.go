package infrastructure

import (
	"time"

	"github.com/disgoorg/disgolink/v3/lavalink"
	"github.com/sglre6355/sgrfleet/internal/modules/music_player/application/ports"
	"github.com/sglre6355/sgrfleet/internal/modules/music_player/domain"
)

func convertLoadResult(result *lavalink.LoadResult) *ports.LoadResult {
	switch data := result.Data.(type) {
	case lavalink.Track:
		return &ports.LoadResult{
			Type:   ports.LoadTypeTrack,
			Tracks: []*ports.TrackInfo{convertTrack(data)},
		}

	case lavalink.Playlist:
		selected := data.Info.SelectedTrack
		if selected < 0 || selected >= len(data.Tracks) {
			selected = -1
		}
		return &ports.LoadResult{
			Type:          ports.LoadTypePlaylist,
			Tracks:        convertTracks(data.Tracks),
			PlaylistName:  data.Info.Name,
			SelectedIndex: selected,
		}

	case lavalink.Search:
		return &ports.LoadResult{Type: ports.LoadTypeSearch, Tracks: convertTracks(data)}

	case lavalink.Exception:
		// Message is shown to the requester as is.
		return &ports.LoadResult{Type: ports.LoadTypeError, ErrorMessage: data.Message}

	default:
		return &ports.LoadResult{Type: ports.LoadTypeEmpty}
	}
}

func convertTracks(tracks []lavalink.Track) []*ports.TrackInfo {
	out := make([]*ports.TrackInfo, len(tracks))
	for i, track := range tracks {
		out[i] = convertTrack(track)
	}
	return out
}

func convertTrack(track lavalink.Track) *ports.TrackInfo {
	info := track.Info
	uri := ""
	if info.URI != nil {
		uri = *info.URI
	}

	return &ports.TrackInfo{
		Identifier: info.Identifier,
		Encoded:    track.Encoded,
		Title:      info.Title,
		Artist:     info.Author,
		Duration:   time.Duration(info.Length) * time.Millisecond,
		URI:        uri,
		SourceName: info.SourceName,
		IsStream:   info.IsStream,
	}
}

// convertEndReason maps Lavalink end reasons; unknown reasons are treated as a stop.
func convertEndReason(reason lavalink.TrackEndReason) domain.TrackEndReason {
	switch reason {
	case lavalink.TrackEndReasonFinished:
		return domain.TrackEndFinished
	case lavalink.TrackEndReasonLoadFailed:
		return domain.TrackEndLoadFailed
	case lavalink.TrackEndReasonReplaced:
		return domain.TrackEndReplaced
	case lavalink.TrackEndReasonCleanup:
		return domain.TrackEndCleanup
	default:
		return domain.TrackEndStopped
	}
}
