package usecases

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/sgrfleet/internal/modules/music_player/application/ports"
	"github.com/sglre6355/sgrfleet/internal/modules/music_player/domain"
)

// PlayInput contains the input for the DispatchPlay use case.
type PlayInput struct {
	GuildID        snowflake.ID
	RequesterID    snowflake.ID
	ReplyChannelID snowflake.ID
	Query          string
}

// PlayOutput contains the result of the DispatchPlay use case.
type PlayOutput struct {
	WorkerID       snowflake.ID
	WorkerName     string
	VoiceChannelID snowflake.ID
	Track          domain.Track
	// Position is the 0-indexed tail position. It is meaningless when PlayingNow is true.
	Position   int
	PlayingNow bool

	// Set when the query resolved to a playlist.
	PlaylistName string
	PlaylistSize int
}

// maxAssignAttempts bounds how often a play request retries worker selection.
const maxAssignAttempts = 3

// Dispatcher routes play requests to a worker and drives the worker's voice
// session, resolver and queue on the requester's behalf.
type Dispatcher struct {
	registry   *WorkerRegistry
	voiceState ports.MemberVoiceState
	queue      *QueueService
	playback   *PlaybackService
	now        func() time.Time
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher(
	registry *WorkerRegistry,
	voiceState ports.MemberVoiceState,
	queue *QueueService,
	playback *PlaybackService,
) *Dispatcher {
	return &Dispatcher{
		registry:   registry,
		voiceState: voiceState,
		queue:      queue,
		playback:   playback,
		now:        time.Now,
	}
}

// DispatchPlay handles a play request.
//  1. A worker already Connected to the requester's voice channel takes the request.
//  2. Otherwise an idle member of the guild is selected at random and connected.
//  3. The query is resolved and the result enqueued into that worker's context.
func (d *Dispatcher) DispatchPlay(ctx context.Context, input PlayInput) (*PlayOutput, error) {
	if !domain.NewSearchQuery(input.Query).IsValid() {
		return nil, ErrEmptyQuery
	}

	channelID, err := d.voiceState.VoiceChannelOf(input.GuildID, input.RequesterID)
	if err != nil {
		return nil, err
	}

	worker, ref, err := d.assign(ctx, input.GuildID, channelID)
	if err != nil {
		return nil, err
	}

	metadata := domain.NewRequestMetadata(input.RequesterID, input.ReplyChannelID, d.now())

	var outcome domain.ResolveOutcome
	select {
	case outcome = <-worker.Resolver().Resolve(ctx, ResolveInput{
		Query:    input.Query,
		Metadata: metadata,
	}):
	case <-ctx.Done():
		d.releaseIfIdle(worker, ref)
		return nil, ctx.Err()
	}

	output, err := d.apply(ctx, worker, ref, outcome)
	if err != nil {
		return nil, err
	}
	output.VoiceChannelID = *channelID
	return output, nil
}

// assign picks the worker for the request and opens its context. A worker
// released between selection and opening is given up and selection retried.
func (d *Dispatcher) assign(
	ctx context.Context,
	guildID snowflake.ID,
	channelID *snowflake.ID,
) (*Worker, ContextRef, error) {
	for range maxAssignAttempts {
		worker, err := d.selectWorker(ctx, guildID, channelID)
		if err != nil {
			return nil, ContextRef{}, err
		}

		// Keep the worker from being released while the query resolves.
		d.playback.CancelIdle(domain.ContextKey{WorkerID: worker.ID(), GuildID: guildID})

		ref, err := d.queue.Open(worker.Session(guildID), *channelID)
		if errors.Is(err, ErrNotConnected) {
			slog.Debug("worker released before its context opened",
				"worker", worker.ID(),
				"guild", guildID,
			)
			continue
		}
		if err != nil {
			return nil, ContextRef{}, err
		}
		return worker, ref, nil
	}
	return nil, ContextRef{}, ErrNoAvailableWorker
}

func (d *Dispatcher) selectWorker(
	ctx context.Context,
	guildID snowflake.ID,
	channelID *snowflake.ID,
) (*Worker, error) {
	if channelID != nil {
		if w := d.registry.ConnectedTo(guildID, *channelID); w != nil {
			return w, nil
		}
	}

	if len(d.registry.IdleMembersOf(guildID)) == 0 {
		return nil, ErrNoAvailableWorker
	}
	if channelID == nil {
		return nil, ErrRequesterNotInVoice
	}

	w, attempt, err := d.registry.AcquireIdle(guildID, *channelID)
	if err != nil {
		return nil, err
	}
	if err := w.Session(guildID).completeConnect(ctx, attempt); err != nil {
		slog.Warn("worker failed to connect",
			"worker", w.ID(),
			"guild", guildID,
			"channel", *channelID,
			"error", err,
		)
		return nil, err
	}

	slog.Info("worker assigned", "worker", w.ID(), "guild", guildID, "channel", *channelID)
	return w, nil
}

func (d *Dispatcher) apply(
	ctx context.Context,
	worker *Worker,
	ref ContextRef,
	outcome domain.ResolveOutcome,
) (*PlayOutput, error) {
	output := &PlayOutput{
		WorkerID:   worker.ID(),
		WorkerName: worker.Name(),
	}

	var (
		track    domain.Track
		metadata domain.RequestMetadata
	)
	switch o := outcome.(type) {
	case domain.SingleTrackResolved:
		track, metadata = o.Track, o.Metadata
	case domain.PlaylistResolved:
		track, metadata = o.Selected(), o.Metadata
		output.PlaylistName = o.Name
		output.PlaylistSize = len(o.Tracks)
	case domain.NoMatches:
		d.releaseIfIdle(worker, ref)
		return nil, ErrNoMatches
	case domain.ResolutionFailed:
		d.releaseIfIdle(worker, ref)
		return nil, &ResolutionFailedError{Reason: o.Reason}
	default:
		d.releaseIfIdle(worker, ref)
		return nil, &ResolutionFailedError{Reason: "unknown resolution outcome"}
	}

	enqueued, err := d.queue.Enqueue(ref, track, metadata)
	if errors.Is(err, ErrContextClosed) {
		slog.Debug("dropping resolution outcome for closed context",
			"worker", ref.Key.WorkerID,
			"guild", ref.Key.GuildID,
			"track", track.Title,
		)
		return nil, err
	}
	if err != nil {
		return nil, err
	}

	output.Track = enqueued.Entry.Track
	output.Position = enqueued.Position
	output.PlayingNow = enqueued.PlayingNow

	if enqueued.PlayingNow {
		if err := d.playback.Start(ctx, worker, ref, enqueued.Entry); err != nil {
			return nil, err
		}
	}

	return output, nil
}

func (d *Dispatcher) releaseIfIdle(worker *Worker, ref ContextRef) {
	if d.queue.IsIdle(ref) {
		d.playback.ArmIdle(worker, ref)
	}
}

// ServingWorker returns the worker Connected to the requester's voice channel
// and a ref to its context in the guild.
func (d *Dispatcher) ServingWorker(guildID, requesterID snowflake.ID) (*Worker, ContextRef, error) {
	channelID, err := d.voiceState.VoiceChannelOf(guildID, requesterID)
	if err != nil {
		return nil, ContextRef{}, err
	}
	if channelID == nil {
		return nil, ContextRef{}, ErrRequesterNotInVoice
	}

	worker := d.registry.ConnectedTo(guildID, *channelID)
	if worker == nil {
		return nil, ContextRef{}, ErrNotConnected
	}

	ref, ok := d.queue.Lookup(domain.ContextKey{WorkerID: worker.ID(), GuildID: guildID})
	if !ok {
		return nil, ContextRef{}, ErrNotConnected
	}
	return worker, ref, nil
}
