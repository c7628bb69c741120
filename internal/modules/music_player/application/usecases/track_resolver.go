package usecases

import (
	"context"
	"fmt"

	"github.com/sglre6355/sgrfleet/internal/modules/music_player/application/ports"
	"github.com/sglre6355/sgrfleet/internal/modules/music_player/domain"
)

// ResolveInput contains the input for the Resolve use case.
type ResolveInput struct {
	Query    string
	Metadata domain.RequestMetadata
}

// TrackResolverService turns a query into exactly one ResolveOutcome.
type TrackResolverService struct {
	trackResolver ports.TrackResolver
}

// NewTrackResolverService creates a new TrackResolverService.
func NewTrackResolverService(trackResolver ports.TrackResolver) *TrackResolverService {
	return &TrackResolverService{
		trackResolver: trackResolver,
	}
}

// Resolve starts resolving the query and returns immediately.
// The returned channel yields exactly one outcome and is then closed.
func (s *TrackResolverService) Resolve(
	ctx context.Context,
	input ResolveInput,
) <-chan domain.ResolveOutcome {
	out := make(chan domain.ResolveOutcome, 1)

	go func() {
		defer close(out)
		out <- s.resolve(ctx, input)
	}()

	return out
}

func (s *TrackResolverService) resolve(
	ctx context.Context,
	input ResolveInput,
) domain.ResolveOutcome {
	query := domain.NewSearchQuery(input.Query)
	if !query.IsValid() {
		return domain.NoMatches{Query: input.Query}
	}

	result, err := s.trackResolver.LoadTracks(ctx, query.LavalinkQuery())
	if err != nil {
		return domain.ResolutionFailed{Reason: err.Error()}
	}

	switch result.Type {
	case ports.LoadTypeTrack, ports.LoadTypeSearch:
		// Searches are flattened to their best match.
		tracks := playableTracks(result.Tracks)
		if len(tracks) == 0 {
			return domain.NoMatches{Query: input.Query}
		}
		return domain.SingleTrackResolved{Track: tracks[0], Metadata: input.Metadata}

	case ports.LoadTypePlaylist:
		tracks := playableTracks(result.Tracks)
		if len(tracks) == 0 {
			return domain.NoMatches{Query: input.Query}
		}
		selected := result.SelectedIndex
		if len(tracks) != len(result.Tracks) {
			// Indices no longer line up once tracks were dropped.
			selected = -1
		}
		return domain.PlaylistResolved{
			Name:          result.PlaylistName,
			Tracks:        tracks,
			SelectedIndex: selected,
			Metadata:      input.Metadata,
		}

	case ports.LoadTypeEmpty:
		return domain.NoMatches{Query: input.Query}

	case ports.LoadTypeError:
		return domain.ResolutionFailed{Reason: result.ErrorMessage}

	default:
		return domain.ResolutionFailed{
			Reason: fmt.Sprintf("unexpected load result type %q", result.Type),
		}
	}
}

// playableTracks converts backend tracks, dropping any a player could not start.
func playableTracks(infos []*ports.TrackInfo) []domain.Track {
	tracks := make([]domain.Track, 0, len(infos))
	for _, info := range infos {
		track := domain.Track{
			ID:         domain.TrackID(info.Identifier),
			Encoded:    info.Encoded,
			Title:      info.Title,
			Artist:     info.Artist,
			Duration:   info.Duration,
			URI:        info.URI,
			SourceName: info.SourceName,
			IsStream:   info.IsStream,
		}
		if track.IsValid() {
			tracks = append(tracks, track)
		}
	}
	return tracks
}
