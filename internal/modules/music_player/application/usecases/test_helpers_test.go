package usecases

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/sgrfleet/internal/modules/music_player/application/ports"
	"github.com/sglre6355/sgrfleet/internal/modules/music_player/domain"
)

const (
	testGuildID      = snowflake.ID(1000)
	testChannelID    = snowflake.ID(2000)
	testOtherChannel = snowflake.ID(2001)
	testRequesterID  = snowflake.ID(3000)
	testReplyChannel = snowflake.ID(4000)
)

func mockTrack(id string) domain.Track {
	return domain.Track{
		ID:       domain.TrackID(id),
		Encoded:  "encoded-" + id,
		Title:    "Track " + id,
		Artist:   "Artist",
		Duration: 3 * time.Minute,
	}
}

func mockTrackInfo(id string) *ports.TrackInfo {
	return &ports.TrackInfo{
		Identifier: id,
		Encoded:    "encoded-" + id,
		Title:      "Track " + id,
		Artist:     "Artist",
		Duration:   3 * time.Minute,
	}
}

func testMetadata() domain.RequestMetadata {
	return domain.NewRequestMetadata(testRequesterID, testReplyChannel, time.Now())
}

// mockRepository is a minimal domain.PlaybackContextRepository.
type mockRepository struct {
	mu       sync.Mutex
	contexts map[domain.ContextKey]*domain.PlaybackContext
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		contexts: make(map[domain.ContextKey]*domain.PlaybackContext),
	}
}

func (m *mockRepository) Get(key domain.ContextKey) *domain.PlaybackContext {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.contexts[key]
}

func (m *mockRepository) Save(pc *domain.PlaybackContext) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contexts[pc.Key()] = pc
}

func (m *mockRepository) Delete(key domain.ContextKey) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.contexts, key)
}

func (m *mockRepository) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.contexts)
}

type mockMembership struct {
	guilds map[snowflake.ID]bool
}

func (m *mockMembership) IsMember(guildID snowflake.ID) bool {
	return m.guilds[guildID]
}

type mockAudioPlayer struct {
	mu        sync.Mutex
	played    []string
	stopped   int
	paused    int
	resumed   int
	playErr   error
	stopErr   error
	pauseErr  error
	resumeErr error
}

func (m *mockAudioPlayer) Play(_ context.Context, _ snowflake.ID, track *domain.Track) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.playErr != nil {
		return m.playErr
	}
	m.played = append(m.played, track.Title)
	return nil
}

func (m *mockAudioPlayer) Stop(_ context.Context, _ snowflake.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped++
	return m.stopErr
}

func (m *mockAudioPlayer) Pause(_ context.Context, _ snowflake.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.paused++
	return m.pauseErr
}

func (m *mockAudioPlayer) Resume(_ context.Context, _ snowflake.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resumed++
	return m.resumeErr
}

func (m *mockAudioPlayer) playedTracks() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.played...)
}

// mockVoiceConnection also reports the worker's voice presence the way the
// gateway would see it after each join and leave.
type mockVoiceConnection struct {
	mu       sync.Mutex
	joins    []snowflake.ID
	leaves   int
	joinErr  error
	leaveErr error
	// joinGate, when set, blocks JoinChannel until closed.
	joinGate chan struct{}
	inVoice  map[snowflake.ID]snowflake.ID // guildID -> channelID
}

func (m *mockVoiceConnection) JoinChannel(ctx context.Context, guildID, channelID snowflake.ID) error {
	m.mu.Lock()
	m.joins = append(m.joins, channelID)
	gate := m.joinGate
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.joinErr != nil {
		return m.joinErr
	}
	if m.inVoice == nil {
		m.inVoice = make(map[snowflake.ID]snowflake.ID)
	}
	m.inVoice[guildID] = channelID
	return nil
}

func (m *mockVoiceConnection) LeaveChannel(_ context.Context, guildID snowflake.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leaves++
	delete(m.inVoice, guildID)
	return m.leaveErr
}

func (m *mockVoiceConnection) VoiceChannelOf(guildID, _ snowflake.ID) (*snowflake.ID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	channelID, ok := m.inVoice[guildID]
	if !ok {
		return nil, nil
	}
	return &channelID, nil
}

// kick removes the worker from voice without going through its session.
func (m *mockVoiceConnection) kick(guildID snowflake.ID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.inVoice, guildID)
}

func (m *mockVoiceConnection) joinCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.joins)
}

func (m *mockVoiceConnection) leaveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.leaves
}

type mockTrackResolver struct {
	mu         sync.Mutex
	loadErr    error
	loadResult *ports.LoadResult
	queries    []string
	// gate, when set, blocks LoadTracks until closed.
	gate chan struct{}
}

func (m *mockTrackResolver) LoadTracks(ctx context.Context, query string) (*ports.LoadResult, error) {
	m.mu.Lock()
	m.queries = append(m.queries, query)
	gate := m.gate
	m.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.loadResult, nil
}

func singleTrackResult(id string) *ports.LoadResult {
	return &ports.LoadResult{
		Type:   ports.LoadTypeTrack,
		Tracks: []*ports.TrackInfo{mockTrackInfo(id)},
	}
}

type mockMemberVoiceState struct {
	mu       sync.Mutex
	channels map[snowflake.ID]snowflake.ID // userID -> channelID
	err      error
}

func (m *mockMemberVoiceState) VoiceChannelOf(
	_, userID snowflake.ID,
) (*snowflake.ID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	channelID, ok := m.channels[userID]
	if !ok {
		return nil, nil
	}
	return &channelID, nil
}

type mockNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (m *mockNotifier) SendMessage(_ snowflake.ID, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, content)
	return nil
}

func (m *mockNotifier) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.messages)
}

// testWorker bundles a Worker with the mocks behind it.
type testWorker struct {
	*Worker
	voice    *mockVoiceConnection
	audio    *mockAudioPlayer
	resolver *mockTrackResolver
}

type transition struct {
	from, to domain.VoiceConnectionState
}

// transitionLog records voice session transitions across workers.
type transitionLog struct {
	mu      sync.Mutex
	entries map[snowflake.ID][]transition
}

func newTransitionLog() *transitionLog {
	return &transitionLog{entries: make(map[snowflake.ID][]transition)}
}

func (l *transitionLog) observe(workerID, _ snowflake.ID, from, to domain.VoiceConnectionState) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[workerID] = append(l.entries[workerID], transition{from, to})
}

func (l *transitionLog) of(workerID snowflake.ID) []transition {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]transition(nil), l.entries[workerID]...)
}

func newTestWorker(id snowflake.ID, log *transitionLog, guilds ...snowflake.ID) *testWorker {
	membership := &mockMembership{guilds: make(map[snowflake.ID]bool)}
	for _, g := range guilds {
		membership.guilds[g] = true
	}

	tw := &testWorker{
		voice:    &mockVoiceConnection{},
		audio:    &mockAudioPlayer{},
		resolver: &mockTrackResolver{loadResult: singleTrackResult("x")},
	}

	deps := WorkerDeps{
		ID:             id,
		Name:           "worker-" + id.String(),
		Membership:     membership,
		Voice:          tw.voice,
		Audio:          tw.audio,
		Resolver:       tw.resolver,
		Presence:       tw.voice,
		ConnectTimeout: time.Second,
	}
	if log != nil {
		deps.Observer = log.observe
	}
	tw.Worker = NewWorker(deps)
	return tw
}

// connect drives the session to Connected on channelID. Connecting to the
// channel it is already Connected to is a no-op; a different channel is left first.
func connect(ctx context.Context, s *VoiceSession, channelID snowflake.ID) error {
	s.mu.Lock()
	state, current := s.state, s.channelID
	s.mu.Unlock()

	switch state {
	case domain.VoiceConnected:
		if current == channelID {
			return nil
		}
		if s.beginDisconnect() {
			_ = s.finishDisconnect(ctx)
		}
	case domain.VoiceConnecting:
		return ErrConnectInProgress
	case domain.VoiceDisconnecting:
		return ErrInvalidTransition
	}

	attempt, ok := s.reserve(channelID)
	if !ok {
		return ErrConnectInProgress
	}
	return s.completeConnect(ctx, attempt)
}

// makeBusy connects the worker to a channel in the guild.
func makeBusy(t *testing.T, w *testWorker, guildID, channelID snowflake.ID) {
	t.Helper()
	if err := connect(context.Background(), w.Session(guildID), channelID); err != nil {
		t.Fatalf("failed to connect worker %v: %v", w.ID(), err)
	}
}

// waitFor polls cond until it returns true or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

// testFixture wires the use cases over a set of test workers.
type testFixture struct {
	workers    []*testWorker
	registry   *WorkerRegistry
	repo       *mockRepository
	queue      *QueueService
	playback   *PlaybackService
	dispatcher *Dispatcher
	voiceState *mockMemberVoiceState
	notifier   *mockNotifier
	log        *transitionLog
}

func newTestFixture(idleTimeout time.Duration, workerIDs ...snowflake.ID) *testFixture {
	f := &testFixture{
		repo:       newMockRepository(),
		voiceState: &mockMemberVoiceState{channels: map[snowflake.ID]snowflake.ID{}},
		notifier:   &mockNotifier{},
		log:        newTransitionLog(),
	}

	workers := make([]*Worker, len(workerIDs))
	for i, id := range workerIDs {
		tw := newTestWorker(id, f.log, testGuildID)
		f.workers = append(f.workers, tw)
		workers[i] = tw.Worker
	}

	f.registry = NewWorkerRegistry(workers...)
	f.queue = NewQueueService(f.repo)
	f.playback = NewPlaybackService(f.registry, f.queue, f.notifier, idleTimeout)
	f.dispatcher = NewDispatcher(f.registry, f.voiceState, f.queue, f.playback)
	return f
}

func (f *testFixture) worker(id snowflake.ID) *testWorker {
	for _, w := range f.workers {
		if w.ID() == id {
			return w
		}
	}
	return nil
}

func (f *testFixture) playInput(query string) PlayInput {
	return PlayInput{
		GuildID:        testGuildID,
		RequesterID:    testRequesterID,
		ReplyChannelID: testReplyChannel,
		Query:          query,
	}
}
