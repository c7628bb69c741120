package usecases

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sglre6355/sgrfleet/internal/modules/music_player/application/ports"
	"github.com/sglre6355/sgrfleet/internal/modules/music_player/domain"
)

func TestTrackResolverService_Resolve(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		result  *ports.LoadResult
		loadErr error
		check   func(t *testing.T, outcome domain.ResolveOutcome)
	}{
		{
			name:   "single track",
			query:  "https://youtu.be/a",
			result: singleTrackResult("a"),
			check: func(t *testing.T, outcome domain.ResolveOutcome) {
				o, ok := outcome.(domain.SingleTrackResolved)
				if !ok {
					t.Fatalf("expected SingleTrackResolved, got %T", outcome)
				}
				if o.Track.ID != "a" {
					t.Errorf("expected track a, got %s", o.Track.ID)
				}
				if o.Metadata.RequesterID != testRequesterID {
					t.Error("expected request metadata to be attached")
				}
			},
		},
		{
			name:  "search takes first result",
			query: "song",
			result: &ports.LoadResult{
				Type:   ports.LoadTypeSearch,
				Tracks: []*ports.TrackInfo{mockTrackInfo("first"), mockTrackInfo("second")},
			},
			check: func(t *testing.T, outcome domain.ResolveOutcome) {
				o, ok := outcome.(domain.SingleTrackResolved)
				if !ok {
					t.Fatalf("expected SingleTrackResolved, got %T", outcome)
				}
				if o.Track.ID != "first" {
					t.Errorf("expected first result, got %s", o.Track.ID)
				}
			},
		},
		{
			name:  "playlist with selection",
			query: "https://youtube.com/playlist?list=x",
			result: &ports.LoadResult{
				Type:          ports.LoadTypePlaylist,
				Tracks:        []*ports.TrackInfo{mockTrackInfo("a"), mockTrackInfo("b")},
				PlaylistName:  "mix",
				SelectedIndex: 1,
			},
			check: func(t *testing.T, outcome domain.ResolveOutcome) {
				o, ok := outcome.(domain.PlaylistResolved)
				if !ok {
					t.Fatalf("expected PlaylistResolved, got %T", outcome)
				}
				if o.Name != "mix" || len(o.Tracks) != 2 {
					t.Errorf("unexpected playlist %q with %d tracks", o.Name, len(o.Tracks))
				}
				if o.Selected().ID != "b" {
					t.Errorf("expected selected b, got %s", o.Selected().ID)
				}
			},
		},
		{
			name:  "unplayable tracks are skipped",
			query: "song",
			result: &ports.LoadResult{
				Type:   ports.LoadTypeSearch,
				Tracks: []*ports.TrackInfo{{Identifier: "broken", Title: "No data"}, mockTrackInfo("ok")},
			},
			check: func(t *testing.T, outcome domain.ResolveOutcome) {
				o, ok := outcome.(domain.SingleTrackResolved)
				if !ok {
					t.Fatalf("expected SingleTrackResolved, got %T", outcome)
				}
				if o.Track.ID != "ok" {
					t.Errorf("expected first playable track, got %s", o.Track.ID)
				}
			},
		},
		{
			name:   "empty",
			query:  "zzzz",
			result: &ports.LoadResult{Type: ports.LoadTypeEmpty},
			check: func(t *testing.T, outcome domain.ResolveOutcome) {
				o, ok := outcome.(domain.NoMatches)
				if !ok {
					t.Fatalf("expected NoMatches, got %T", outcome)
				}
				if o.Query != "zzzz" {
					t.Errorf("expected query zzzz, got %q", o.Query)
				}
			},
		},
		{
			name:   "search with no results",
			query:  "zzzz",
			result: &ports.LoadResult{Type: ports.LoadTypeSearch},
			check: func(t *testing.T, outcome domain.ResolveOutcome) {
				if _, ok := outcome.(domain.NoMatches); !ok {
					t.Fatalf("expected NoMatches, got %T", outcome)
				}
			},
		},
		{
			name:  "backend error is verbatim",
			query: "https://example.com/private",
			result: &ports.LoadResult{
				Type:         ports.LoadTypeError,
				ErrorMessage: "This video is private.",
			},
			check: func(t *testing.T, outcome domain.ResolveOutcome) {
				o, ok := outcome.(domain.ResolutionFailed)
				if !ok {
					t.Fatalf("expected ResolutionFailed, got %T", outcome)
				}
				if o.Reason != "This video is private." {
					t.Errorf("expected verbatim reason, got %q", o.Reason)
				}
			},
		},
		{
			name:    "transport error",
			query:   "song",
			loadErr: errors.New("no available Lavalink node"),
			check: func(t *testing.T, outcome domain.ResolveOutcome) {
				o, ok := outcome.(domain.ResolutionFailed)
				if !ok {
					t.Fatalf("expected ResolutionFailed, got %T", outcome)
				}
				if o.Reason != "no available Lavalink node" {
					t.Errorf("unexpected reason %q", o.Reason)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := &mockTrackResolver{loadResult: tt.result, loadErr: tt.loadErr}
			s := NewTrackResolverService(resolver)

			out := s.Resolve(context.Background(), ResolveInput{
				Query:    tt.query,
				Metadata: testMetadata(),
			})

			outcome, ok := <-out
			if !ok {
				t.Fatal("expected an outcome")
			}
			tt.check(t, outcome)

			// Exactly one outcome, then the channel closes.
			if _, ok := <-out; ok {
				t.Error("expected channel to be closed after one outcome")
			}
		})
	}
}

func TestTrackResolverService_ResolveNormalisesQuery(t *testing.T) {
	resolver := &mockTrackResolver{loadResult: singleTrackResult("a")}
	s := NewTrackResolverService(resolver)

	<-s.Resolve(context.Background(), ResolveInput{Query: "never gonna give you up"})
	<-s.Resolve(context.Background(), ResolveInput{Query: "<https://youtu.be/a>"})

	want := []string{"ytsearch:never gonna give you up", "https://youtu.be/a"}
	for i, q := range want {
		if resolver.queries[i] != q {
			t.Errorf("query %d = %q, want %q", i, resolver.queries[i], q)
		}
	}
}

func TestTrackResolverService_ResolveDoesNotBlock(t *testing.T) {
	resolver := &mockTrackResolver{
		loadResult: singleTrackResult("a"),
		gate:       make(chan struct{}),
	}
	s := NewTrackResolverService(resolver)

	returned := make(chan (<-chan domain.ResolveOutcome), 1)
	go func() {
		returned <- s.Resolve(context.Background(), ResolveInput{Query: "song"})
	}()

	var out <-chan domain.ResolveOutcome
	select {
	case out = <-returned:
	case <-time.After(time.Second):
		t.Fatal("Resolve blocked on the backend")
	}

	close(resolver.gate)
	if _, ok := (<-out).(domain.SingleTrackResolved); !ok {
		t.Error("expected SingleTrackResolved after the backend responds")
	}
}
