package usecases

import (
	"log/slog"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/sgrfleet/internal/modules/music_player/application/ports"
	"github.com/sglre6355/sgrfleet/internal/modules/music_player/domain"
)

// WorkerDeps contains the adapters backing one worker bot.
type WorkerDeps struct {
	ID         snowflake.ID
	Name       string
	Membership ports.GuildMembership
	Voice      ports.VoiceConnection
	Audio      ports.AudioPlayer
	Resolver   ports.TrackResolver
	// Presence reports the worker's own voice state as the gateway last saw
	// it. Optional.
	Presence ports.MemberVoiceState

	// ConnectTimeout bounds how long a voice connection may wait for confirmation.
	ConnectTimeout time.Duration
	// Observer is optional.
	Observer StateObserver
}

// Worker is one bot connection in the pool. Its identity is fixed at startup;
// its per-guild voice sessions are created on first use.
type Worker struct {
	id             snowflake.ID
	name           string
	membership     ports.GuildMembership
	voice          ports.VoiceConnection
	audio          ports.AudioPlayer
	resolver       *TrackResolverService
	presence       ports.MemberVoiceState
	connectTimeout time.Duration
	observer       StateObserver

	mu       sync.Mutex
	sessions map[snowflake.ID]*VoiceSession
}

// NewWorker creates a new Worker.
func NewWorker(deps WorkerDeps) *Worker {
	return &Worker{
		id:             deps.ID,
		name:           deps.Name,
		membership:     deps.Membership,
		voice:          deps.Voice,
		audio:          deps.Audio,
		resolver:       NewTrackResolverService(deps.Resolver),
		presence:       deps.Presence,
		connectTimeout: deps.ConnectTimeout,
		observer:       deps.Observer,
		sessions:       make(map[snowflake.ID]*VoiceSession),
	}
}

func (w *Worker) ID() snowflake.ID { return w.id }
func (w *Worker) Name() string { return w.name }
func (w *Worker) Audio() ports.AudioPlayer { return w.audio }
func (w *Worker) Resolver() *TrackResolverService { return w.resolver }

// IsMember returns true if the worker's account has joined the guild.
func (w *Worker) IsMember(guildID snowflake.ID) bool {
	return w.membership.IsMember(guildID)
}

// InVoice returns true if the gateway shows the worker in a voice channel of
// the guild. It returns false when no presence source is configured.
func (w *Worker) InVoice(guildID snowflake.ID) bool {
	if w.presence == nil {
		return false
	}

	channelID, err := w.presence.VoiceChannelOf(guildID, w.id)
	if err != nil {
		slog.Warn("failed to read worker voice state", "worker", w.id, "guild", guildID, "error", err)
		return false
	}
	return channelID != nil
}

// Session returns the worker's voice session for the guild, creating it if needed.
func (w *Worker) Session(guildID snowflake.ID) *VoiceSession {
	w.mu.Lock()
	defer w.mu.Unlock()

	session, ok := w.sessions[guildID]
	if !ok {
		session = newVoiceSession(w.id, guildID, w.voice, w.connectTimeout, w.observer)
		w.sessions[guildID] = session
	}
	return session
}

// State returns the worker's connection state in the guild without creating a session.
func (w *Worker) State(guildID snowflake.ID) domain.VoiceConnectionState {
	w.mu.Lock()
	session, ok := w.sessions[guildID]
	w.mu.Unlock()

	if !ok {
		return domain.VoiceDisconnected
	}
	return session.State()
}

// WorkerRegistry is the fixed pool of workers and the single place where an
// idle worker is selected and marked busy.
type WorkerRegistry struct {
	workers []*Worker
	byID    map[snowflake.ID]*Worker

	// mu serializes AcquireIdle so concurrent dispatches never select the
	// same idle worker for the same guild.
	mu   sync.Mutex
	intn func(n int) int
}

// NewWorkerRegistry creates a WorkerRegistry over the given workers, in order.
func NewWorkerRegistry(workers ...*Worker) *WorkerRegistry {
	byID := make(map[snowflake.ID]*Worker, len(workers))
	for _, w := range workers {
		byID[w.ID()] = w
	}

	return &WorkerRegistry{
		workers: workers,
		byID:    byID,
		intn:    rand.IntN,
	}
}

// ListWorkers returns all workers in startup order.
func (r *WorkerRegistry) ListWorkers() []*Worker {
	return slices.Clone(r.workers)
}

// Worker returns the worker with the given ID, or nil.
func (r *WorkerRegistry) Worker(id snowflake.ID) *Worker {
	return r.byID[id]
}

// IsBusy returns true if the worker is Connecting or Connected in the guild.
func (r *WorkerRegistry) IsBusy(w *Worker, guildID snowflake.ID) bool {
	return w.State(guildID).IsBusy()
}

// MembersOf returns the workers that have joined the guild.
// An empty result is a valid "no candidates" state.
func (r *WorkerRegistry) MembersOf(guildID snowflake.ID) []*Worker {
	members := make([]*Worker, 0, len(r.workers))
	for _, w := range r.workers {
		if w.IsMember(guildID) {
			members = append(members, w)
		}
	}
	return members
}

// IdleMembersOf returns the members of the guild that are not busy there.
func (r *WorkerRegistry) IdleMembersOf(guildID snowflake.ID) []*Worker {
	members := r.MembersOf(guildID)
	idle := members[:0]
	for _, w := range members {
		if !r.IsBusy(w, guildID) {
			idle = append(idle, w)
		}
	}
	return idle
}

// ConnectedTo returns the worker Connected to the given voice channel, or nil.
func (r *WorkerRegistry) ConnectedTo(guildID, channelID snowflake.ID) *Worker {
	for _, w := range r.workers {
		if w.State(guildID) != domain.VoiceConnected {
			continue
		}
		if w.Session(guildID).IsConnectedTo(channelID) {
			return w
		}
	}
	return nil
}

// AcquireIdle selects an idle member of the guild uniformly at random and moves
// its voice session to Connecting for the given channel, as one step.
// The returned attempt must be passed to the session's completeConnect.
func (r *WorkerRegistry) AcquireIdle(guildID, channelID snowflake.ID) (*Worker, uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	candidates := r.IdleMembersOf(guildID)
	for len(candidates) > 0 {
		i := 0
		if len(candidates) > 1 {
			i = r.intn(len(candidates))
		}
		w := candidates[i]

		if attempt, ok := w.Session(guildID).reserve(channelID); ok {
			return w, attempt, nil
		}

		// Became busy through another path since the snapshot.
		candidates = slices.Delete(candidates, i, i+1)
	}

	return nil, 0, ErrNoAvailableWorker
}
