package discord

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/sgrfleet/internal/bot"
	"github.com/sglre6355/sgrfleet/internal/modules/music_player/application/ports"
	"github.com/sglre6355/sgrfleet/internal/modules/music_player/application/usecases"
	"github.com/sglre6355/sgrfleet/internal/modules/music_player/domain"
	"github.com/sglre6355/sgrfleet/internal/modules/music_player/infrastructure"
)

const (
	testGuildID      = snowflake.ID(1000)
	testChannelID    = snowflake.ID(2000)
	testOtherChannel = snowflake.ID(2001)
	testRequesterID  = snowflake.ID(3000)
	testReplyChannel = snowflake.ID(4000)
)

type fakeMembership struct{}

func (fakeMembership) IsMember(guildID snowflake.ID) bool { return guildID == testGuildID }

type fakeVoice struct{}

func (fakeVoice) JoinChannel(context.Context, snowflake.ID, snowflake.ID) error { return nil }
func (fakeVoice) LeaveChannel(context.Context, snowflake.ID) error              { return nil }

type fakeAudio struct {
	mu     sync.Mutex
	played []string
}

func (a *fakeAudio) Play(_ context.Context, _ snowflake.ID, track *domain.Track) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.played = append(a.played, track.Title)
	return nil
}

func (a *fakeAudio) Stop(context.Context, snowflake.ID) error   { return nil }
func (a *fakeAudio) Pause(context.Context, snowflake.ID) error  { return nil }
func (a *fakeAudio) Resume(context.Context, snowflake.ID) error { return nil }

// fakeResolver returns a single track titled after the query unless a result is configured.
type fakeResolver struct {
	results map[string]*ports.LoadResult
}

func (r *fakeResolver) LoadTracks(_ context.Context, query string) (*ports.LoadResult, error) {
	name := strings.TrimPrefix(query, "ytsearch:")
	if result, ok := r.results[name]; ok {
		return result, nil
	}
	return &ports.LoadResult{
		Type:   ports.LoadTypeSearch,
		Tracks: []*ports.TrackInfo{trackInfo(name)},
	}, nil
}

func trackInfo(id string) *ports.TrackInfo {
	return &ports.TrackInfo{
		Identifier: id,
		Encoded:    "encoded-" + id,
		Title:      "Track " + id,
		Artist:     "Artist",
		Duration:   3 * time.Minute,
	}
}

type fakeVoiceState struct {
	mu       sync.Mutex
	channels map[snowflake.ID]snowflake.ID
}

func (v *fakeVoiceState) VoiceChannelOf(_, userID snowflake.ID) (*snowflake.ID, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	ch, ok := v.channels[userID]
	if !ok {
		return nil, nil
	}
	return &ch, nil
}

type fakeNotifier struct{}

func (fakeNotifier) SendMessage(snowflake.ID, string) error { return nil }

type handlerFixture struct {
	handlers   *CommandHandlers
	registry   *usecases.WorkerRegistry
	voiceState *fakeVoiceState
	resolver   *fakeResolver
	audio      map[snowflake.ID]*fakeAudio
}

func newHandlerFixture(t *testing.T, throttle *Throttle, workerIDs ...snowflake.ID) *handlerFixture {
	t.Helper()

	f := &handlerFixture{
		voiceState: &fakeVoiceState{channels: make(map[snowflake.ID]snowflake.ID)},
		resolver:   &fakeResolver{results: make(map[string]*ports.LoadResult)},
		audio:      make(map[snowflake.ID]*fakeAudio),
	}

	workers := make([]*usecases.Worker, len(workerIDs))
	for i, id := range workerIDs {
		f.audio[id] = &fakeAudio{}
		workers[i] = usecases.NewWorker(usecases.WorkerDeps{
			ID:         id,
			Name:       "worker-" + id.String(),
			Membership: fakeMembership{},
			Voice:      fakeVoice{},
			Audio:      f.audio[id],
			Resolver:   f.resolver,
		})
	}
	f.registry = usecases.NewWorkerRegistry(workers...)

	queue := usecases.NewQueueService(infrastructure.NewMemoryRepository())
	playback := usecases.NewPlaybackService(f.registry, queue, fakeNotifier{}, 0)
	t.Cleanup(playback.Close)
	dispatcher := usecases.NewDispatcher(f.registry, f.voiceState, queue, playback)

	f.handlers = NewCommandHandlers(dispatcher, f.registry, queue, playback, throttle)
	return f
}

func (f *handlerFixture) joinVoice(userID, channelID snowflake.ID) {
	f.voiceState.mu.Lock()
	defer f.voiceState.mu.Unlock()
	f.voiceState.channels[userID] = channelID
}

// run invokes the named handler and returns the reply embed description and
// whether it was an error reply.
func (f *handlerFixture) run(t *testing.T, name, args string) (string, bool) {
	t.Helper()

	handler, ok := f.handlers.Handlers()[name]
	if !ok {
		t.Fatalf("no handler for %q", name)
	}

	r := &bot.MockResponder{}
	err := handler(t.Context(), &bot.Command{
		Name:      name,
		Args:      args,
		GuildID:   testGuildID,
		ChannelID: testReplyChannel,
		AuthorID:  testRequesterID,
	}, r)
	if err != nil {
		t.Fatalf("%s returned error: %v", name, err)
	}

	reply := r.LastReply()
	if reply == nil {
		return "", false
	}
	if len(reply.Embeds) != 1 {
		t.Fatalf("expected 1 embed, got %d", len(reply.Embeds))
	}
	return reply.Embeds[0].Description, reply.Embeds[0].Color == colorError
}
