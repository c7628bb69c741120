package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sglre6355/sgrfleet/internal/modules/music_player/application/ports"
	"github.com/sglre6355/sgrfleet/internal/modules/music_player/domain"
)

// disconnectTimeout bounds voice teardown triggered outside a request.
const disconnectTimeout = 10 * time.Second

// PlaybackService drives each worker's audio player from its playback context
// and releases workers whose context has gone idle.
type PlaybackService struct {
	registry    *WorkerRegistry
	queue       *QueueService
	notifier    ports.NotificationSender
	idleTimeout time.Duration

	mu         sync.Mutex
	idleTimers map[domain.ContextKey]*time.Timer
}

// NewPlaybackService creates a new PlaybackService.
// An idleTimeout of zero disables automatic release of idle workers.
func NewPlaybackService(
	registry *WorkerRegistry,
	queue *QueueService,
	notifier ports.NotificationSender,
	idleTimeout time.Duration,
) *PlaybackService {
	return &PlaybackService{
		registry:    registry,
		queue:       queue,
		notifier:    notifier,
		idleTimeout: idleTimeout,
		idleTimers:  make(map[domain.ContextKey]*time.Timer),
	}
}

// Start plays a track that just became current in an idle context.
// If the player rejects it, the track is dropped and the idle timer armed.
func (p *PlaybackService) Start(
	ctx context.Context,
	w *Worker,
	ref ContextRef,
	entry domain.QueuedTrack,
) error {
	err := p.play(ctx, w, ref, entry)
	if err == nil {
		return nil
	}

	next, discardErr := p.queue.Discard(ref)
	if discardErr == nil && next != nil {
		p.playFrom(ctx, w, ref, next)
	} else if discardErr == nil {
		p.ArmIdle(w, ref)
	}
	return err
}

func (p *PlaybackService) play(
	ctx context.Context,
	w *Worker,
	ref ContextRef,
	entry domain.QueuedTrack,
) error {
	p.CancelIdle(ref.Key)

	if err := w.Audio().Play(ctx, ref.Key.GuildID, &entry.Track); err != nil {
		return fmt.Errorf("failed to play %q: %w", entry.Track.Title, err)
	}

	slog.Info("playing track",
		"worker", w.ID(),
		"guild", ref.Key.GuildID,
		"track", entry.Track.Title,
	)
	return nil
}

// playFrom plays next, moving past tracks the player rejects until one plays
// or the queue runs out.
func (p *PlaybackService) playFrom(
	ctx context.Context,
	w *Worker,
	ref ContextRef,
	next *domain.QueuedTrack,
) {
	for next != nil {
		err := p.play(ctx, w, ref, *next)
		if err == nil {
			return
		}

		slog.Error("failed to play next track",
			"worker", w.ID(),
			"guild", ref.Key.GuildID,
			"error", err,
		)
		p.notify(next.Metadata, fmt.Sprintf("failed to play **%s**, skipping", next.Track.Title))

		next, err = p.queue.Discard(ref)
		if err != nil {
			return
		}
	}

	p.ArmIdle(w, ref)
}

func (p *PlaybackService) notify(meta domain.RequestMetadata, content string) {
	if p.notifier == nil || meta.ReplyChannelID == 0 {
		return
	}
	if err := p.notifier.SendMessage(meta.ReplyChannelID, content); err != nil {
		slog.Warn("failed to send notification", "channel", meta.ReplyChannelID, "error", err)
	}
}

// HandleTrackEnded advances the worker's queue after its player reports the end of a track.
func (p *PlaybackService) HandleTrackEnded(ctx context.Context, event domain.TrackEndedEvent) {
	if !event.Reason.ShouldAdvanceQueue() {
		slog.Debug("track ended but should not advance queue",
			"worker", event.WorkerID,
			"guild", event.GuildID,
			"reason", event.Reason,
		)
		return
	}

	w := p.registry.Worker(event.WorkerID)
	if w == nil {
		return
	}

	ref, ok := p.queue.Lookup(domain.ContextKey{WorkerID: event.WorkerID, GuildID: event.GuildID})
	if !ok {
		slog.Debug("track ended but no playback context",
			"worker", event.WorkerID,
			"guild", event.GuildID,
		)
		return
	}

	var (
		next *domain.QueuedTrack
		err  error
	)
	if event.Reason == domain.TrackEndLoadFailed {
		// A track that failed to load is dropped even under repeat so it cannot loop.
		next, err = p.queue.Discard(ref)
	} else {
		next, err = p.queue.Advance(ref)
	}
	if err != nil {
		return
	}

	p.playFrom(ctx, w, ref, next)
}

// Skip skips the current track and plays the next one, if any.
func (p *PlaybackService) Skip(ctx context.Context, w *Worker, ref ContextRef) (*SkipOutput, error) {
	output, err := p.queue.Skip(ref)
	if err != nil {
		return nil, err
	}

	if output.NextTrack == nil {
		if err := w.Audio().Stop(ctx, ref.Key.GuildID); err != nil {
			return nil, err
		}
		p.ArmIdle(w, ref)
		return output, nil
	}

	if err := p.Start(ctx, w, ref, *output.NextTrack); err != nil {
		return nil, err
	}
	return output, nil
}

// Pause pauses the worker's current track.
func (p *PlaybackService) Pause(ctx context.Context, w *Worker, ref ContextRef) error {
	if p.queue.IsIdle(ref) {
		return ErrNothingPlaying
	}
	return w.Audio().Pause(ctx, ref.Key.GuildID)
}

// Resume resumes the worker's paused track.
func (p *PlaybackService) Resume(ctx context.Context, w *Worker, ref ContextRef) error {
	if p.queue.IsIdle(ref) {
		return ErrNothingPlaying
	}
	return w.Audio().Resume(ctx, ref.Key.GuildID)
}

// Stop destroys the worker's context in the guild, stops audio and leaves voice.
func (p *PlaybackService) Stop(ctx context.Context, w *Worker, key domain.ContextKey) error {
	p.CancelIdle(key)

	if err := w.Audio().Stop(ctx, key.GuildID); err != nil {
		slog.Warn("failed to stop playback", "worker", w.ID(), "guild", key.GuildID, "error", err)
	}

	_, err := p.queue.Release(ctx, w.Session(key.GuildID))
	return err
}

// HandleVoiceDisconnected tears down the context of a worker that was removed
// from its voice channel from outside (kicked, channel deleted).
func (p *PlaybackService) HandleVoiceDisconnected(
	ctx context.Context,
	event domain.VoiceDisconnectedEvent,
) {
	w := p.registry.Worker(event.WorkerID)
	if w == nil {
		return
	}

	// Our own disconnects also produce this event; by then the session has
	// already left Connected.
	session := w.Session(event.GuildID)
	attempt, connected := session.connectedAttempt()
	if !connected {
		return
	}

	// The event may be a late one from an earlier session that this worker has
	// since replaced; the gateway's current view settles it.
	if w.InVoice(event.GuildID) {
		slog.Debug("ignoring stale voice disconnect", "worker", event.WorkerID, "guild", event.GuildID)
		return
	}

	key := domain.ContextKey{WorkerID: event.WorkerID, GuildID: event.GuildID}
	p.CancelIdle(key)

	released, err := p.queue.release(ctx, session, func() bool {
		return session.beginDisconnectOf(attempt)
	})
	if err != nil {
		slog.Warn("failed to clean up after external disconnect",
			"worker", event.WorkerID,
			"guild", event.GuildID,
			"error", err,
		)
	}
	if released {
		slog.Info("worker disconnected externally", "worker", event.WorkerID, "guild", event.GuildID)
	}
}

// ArmIdle schedules the worker's release if its context is still idle after the
// idle timeout. Re-arming replaces any pending timer.
func (p *PlaybackService) ArmIdle(w *Worker, ref ContextRef) {
	if p.idleTimeout <= 0 {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if timer, ok := p.idleTimers[ref.Key]; ok {
		timer.Stop()
	}

	var timer *time.Timer
	timer = time.AfterFunc(p.idleTimeout, func() {
		p.mu.Lock()
		if p.idleTimers[ref.Key] != timer {
			p.mu.Unlock()
			return
		}
		delete(p.idleTimers, ref.Key)
		p.mu.Unlock()

		p.expire(w, ref)
	})
	p.idleTimers[ref.Key] = timer
}

// CancelIdle stops the idle timer for the key, if any.
func (p *PlaybackService) CancelIdle(key domain.ContextKey) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if timer, ok := p.idleTimers[key]; ok {
		timer.Stop()
		delete(p.idleTimers, key)
	}
}

func (p *PlaybackService) expire(w *Worker, ref ContextRef) {
	ctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
	defer cancel()

	released, err := p.queue.ReleaseIfIdle(ctx, ref, w.Session(ref.Key.GuildID))
	if err != nil {
		slog.Warn("failed to release idle worker",
			"worker", w.ID(),
			"guild", ref.Key.GuildID,
			"error", err,
		)
		return
	}
	if released {
		slog.Info("released idle worker", "worker", w.ID(), "guild", ref.Key.GuildID)
	}
}

// Close stops all pending idle timers.
func (p *PlaybackService) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for key, timer := range p.idleTimers {
		timer.Stop()
		delete(p.idleTimers, key)
	}
}
