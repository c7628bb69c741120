package discord

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/sglre6355/sgrfleet/internal/modules/music_player/application/usecases"
	"github.com/sglre6355/sgrfleet/internal/modules/music_player/domain"
)

func TestPlayMessage(t *testing.T) {
	song := domain.Track{Title: "Song", Duration: 3 * time.Minute}

	tests := []struct {
		name string
		out  usecases.PlayOutput
		want string
	}{
		{
			name: "playing now",
			out:  usecases.PlayOutput{Track: song, PlayingNow: true},
			want: "now playing **Song** (`03:00`)",
		},
		{
			name: "queued at head",
			out:  usecases.PlayOutput{Track: song, Position: 0},
			want: "added **Song** (`03:00`) to queue at position 1",
		},
		{
			name: "playlist",
			out: usecases.PlayOutput{
				Track:        song,
				Position:     4,
				PlaylistName: "Mix",
				PlaylistSize: 12,
			},
			want: "added **Song** (`03:00`) to queue at position 5 (from playlist **Mix**, 12 tracks)",
		},
		{
			name: "stream has no duration",
			out:  usecases.PlayOutput{Track: domain.Track{Title: "Radio", IsStream: true}, PlayingNow: true},
			want: "now playing **Radio**",
		},
		{
			name: "markdown is escaped",
			out: usecases.PlayOutput{
				Track:      domain.Track{Title: "*NSYNC_Live", Duration: 61 * time.Minute},
				PlayingNow: true,
			},
			want: "now playing **\\*NSYNC\\_Live** (`01:01:00`)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := playMessage(&tt.out); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		query  string
		want   string
		wantOK bool
	}{
		{
			name:   "no available worker",
			err:    usecases.ErrNoAvailableWorker,
			want:   "no available workers",
			wantOK: true,
		},
		{
			name:   "no matches",
			err:    usecases.ErrNoMatches,
			query:  "zzzz",
			want:   "no matches found for `zzzz`",
			wantOK: true,
		},
		{
			name:   "resolution failed",
			err:    fmt.Errorf("resolve: %w", &usecases.ResolutionFailedError{Reason: "Video unavailable"}),
			want:   "Video unavailable",
			wantOK: true,
		},
		{
			name:   "resolution failed without reason",
			err:    &usecases.ResolutionFailedError{},
			want:   msgLoadFailed,
			wantOK: true,
		},
		{
			name:   "wrapped voice connect",
			err:    fmt.Errorf("%w: %w", usecases.ErrVoiceConnect, errors.New("timeout")),
			want:   msgVoiceConnect,
			wantOK: true,
		},
		{
			name:   "internal",
			err:    errors.New("lavalink exploded"),
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := errorMessage(tt.err, tt.query)
			if ok != tt.wantOK {
				t.Fatalf("expected ok=%v, got %v", tt.wantOK, ok)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestQueueMessage_Truncates(t *testing.T) {
	snap := &usecases.QueueSnapshot{
		Current: &domain.QueuedTrack{Track: domain.Track{Title: "Now", IsStream: true}},
	}
	for i := range maxQueueLines + 3 {
		snap.Upcoming = append(snap.Upcoming, domain.QueuedTrack{
			Track: domain.Track{Title: fmt.Sprintf("T%d", i)},
		})
	}

	got := queueMessage("worker", snap)

	if want := "...and 3 more"; !strings.Contains(got, want) {
		t.Errorf("expected %q in:\n%s", want, got)
	}
	if strings.Contains(got, "(LIVE)") {
		t.Errorf("expected no duration for streams:\n%s", got)
	}
	if queueMessage("worker", &usecases.QueueSnapshot{}) != msgQueueEmpty {
		t.Error("expected empty queue message")
	}
}
