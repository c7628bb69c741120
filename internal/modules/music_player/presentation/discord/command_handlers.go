package discord

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"github.com/bwmarrin/discordgo"
	"github.com/sglre6355/sgrfleet/internal/bot"
	"github.com/sglre6355/sgrfleet/internal/modules/music_player/application/usecases"
	"github.com/sglre6355/sgrfleet/internal/modules/music_player/domain"
)

// Embed colors.
const (
	colorSuccess = 0x08c404
	colorError   = 0xE74C3C
)

// CommandHandlers holds all the command handlers.
type CommandHandlers struct {
	dispatcher *usecases.Dispatcher
	registry   *usecases.WorkerRegistry
	queue      *usecases.QueueService
	playback   *usecases.PlaybackService
	throttle   *Throttle
}

// NewCommandHandlers creates new CommandHandlers.
func NewCommandHandlers(
	dispatcher *usecases.Dispatcher,
	registry *usecases.WorkerRegistry,
	queue *usecases.QueueService,
	playback *usecases.PlaybackService,
	throttle *Throttle,
) *CommandHandlers {
	return &CommandHandlers{
		dispatcher: dispatcher,
		registry:   registry,
		queue:      queue,
		playback:   playback,
		throttle:   throttle,
	}
}

// Handlers returns the command name to handler mapping.
func (h *CommandHandlers) Handlers() map[string]bot.CommandHandler {
	return map[string]bot.CommandHandler{
		"play":    h.HandlePlay,
		"skip":    h.HandleSkip,
		"remove":  h.HandleRemove,
		"clear":   h.HandleClear,
		"repeat":  h.HandleRepeat,
		"queue":   h.HandleQueue,
		"stop":    h.HandleStop,
		"pause":   h.HandlePause,
		"resume":  h.HandleResume,
		"workers": h.HandleWorkers,
	}
}

// HandlePlay handles the play command.
func (h *CommandHandlers) HandlePlay(ctx context.Context, cmd *bot.Command, r bot.Responder) error {
	if h.throttle != nil && !h.throttle.Allow(cmd.AuthorID) {
		return respondError(r, msgTooFast)
	}

	output, err := h.dispatcher.DispatchPlay(ctx, usecases.PlayInput{
		GuildID:        cmd.GuildID,
		RequesterID:    cmd.AuthorID,
		ReplyChannelID: cmd.ChannelID,
		Query:          cmd.Args,
	})
	if errors.Is(err, usecases.ErrContextClosed) {
		// The worker left before the query resolved; nobody is waiting for this.
		slog.Debug("dropped play reply for closed context", "guild", cmd.GuildID)
		return nil
	}
	if err != nil {
		return h.respondUseCaseError(r, err, cmd.Args)
	}

	return respondSuccess(r, playMessage(output))
}

// HandleSkip handles the skip command.
func (h *CommandHandlers) HandleSkip(ctx context.Context, cmd *bot.Command, r bot.Responder) error {
	worker, ref, err := h.dispatcher.ServingWorker(cmd.GuildID, cmd.AuthorID)
	if err != nil {
		return h.respondUseCaseError(r, err, "")
	}

	output, err := h.playback.Skip(ctx, worker, ref)
	if err != nil {
		return h.respondUseCaseError(r, err, "")
	}

	return respondSuccess(r, skipMessage(output))
}

// HandleRemove handles the remove command. The position is 1-based.
func (h *CommandHandlers) HandleRemove(_ context.Context, cmd *bot.Command, r bot.Responder) error {
	position, err := strconv.Atoi(cmd.Args)
	if err != nil || position < 1 {
		return respondError(r, msgInvalidRemove)
	}

	_, ref, err := h.dispatcher.ServingWorker(cmd.GuildID, cmd.AuthorID)
	if err != nil {
		return h.respondUseCaseError(r, err, "")
	}

	removed, err := h.queue.Remove(ref, position-1)
	if err != nil {
		return h.respondUseCaseError(r, err, "")
	}

	return respondSuccess(r, removeMessage(removed))
}

// HandleClear handles the clear command. The current track keeps playing.
func (h *CommandHandlers) HandleClear(_ context.Context, cmd *bot.Command, r bot.Responder) error {
	_, ref, err := h.dispatcher.ServingWorker(cmd.GuildID, cmd.AuthorID)
	if err != nil {
		return h.respondUseCaseError(r, err, "")
	}

	n, err := h.queue.Clear(ref)
	if err != nil {
		return h.respondUseCaseError(r, err, "")
	}

	return respondSuccess(r, clearMessage(n))
}

// HandleRepeat handles the repeat command.
func (h *CommandHandlers) HandleRepeat(_ context.Context, cmd *bot.Command, r bot.Responder) error {
	mode, ok := domain.ParseRepeatMode(cmd.Args)
	if !ok {
		return respondError(r, msgInvalidRepeat)
	}

	_, ref, err := h.dispatcher.ServingWorker(cmd.GuildID, cmd.AuthorID)
	if err != nil {
		return h.respondUseCaseError(r, err, "")
	}

	if err := h.queue.SetRepeatMode(ref, mode); err != nil {
		return h.respondUseCaseError(r, err, "")
	}

	return respondSuccess(r, repeatMessage(mode))
}

// HandleQueue handles the queue command.
func (h *CommandHandlers) HandleQueue(_ context.Context, cmd *bot.Command, r bot.Responder) error {
	worker, ref, err := h.dispatcher.ServingWorker(cmd.GuildID, cmd.AuthorID)
	if err != nil {
		return h.respondUseCaseError(r, err, "")
	}

	snapshot, err := h.queue.Snapshot(ref)
	if err != nil {
		return h.respondUseCaseError(r, err, "")
	}

	return respondSuccess(r, queueMessage(worker.Name(), snapshot))
}

// HandleStop handles the stop command.
func (h *CommandHandlers) HandleStop(ctx context.Context, cmd *bot.Command, r bot.Responder) error {
	worker, ref, err := h.dispatcher.ServingWorker(cmd.GuildID, cmd.AuthorID)
	if err != nil {
		return h.respondUseCaseError(r, err, "")
	}

	if err := h.playback.Stop(ctx, worker, ref.Key); err != nil {
		return err
	}

	return respondSuccess(r, msgStopped)
}

// HandlePause handles the pause command.
func (h *CommandHandlers) HandlePause(ctx context.Context, cmd *bot.Command, r bot.Responder) error {
	worker, ref, err := h.dispatcher.ServingWorker(cmd.GuildID, cmd.AuthorID)
	if err != nil {
		return h.respondUseCaseError(r, err, "")
	}

	if err := h.playback.Pause(ctx, worker, ref); err != nil {
		return h.respondUseCaseError(r, err, "")
	}

	return respondSuccess(r, msgPaused)
}

// HandleResume handles the resume command.
func (h *CommandHandlers) HandleResume(ctx context.Context, cmd *bot.Command, r bot.Responder) error {
	worker, ref, err := h.dispatcher.ServingWorker(cmd.GuildID, cmd.AuthorID)
	if err != nil {
		return h.respondUseCaseError(r, err, "")
	}

	if err := h.playback.Resume(ctx, worker, ref); err != nil {
		return h.respondUseCaseError(r, err, "")
	}

	return respondSuccess(r, msgResumed)
}

// HandleWorkers handles the workers command.
func (h *CommandHandlers) HandleWorkers(_ context.Context, cmd *bot.Command, r bot.Responder) error {
	return respondSuccess(r, workersMessage(cmd.GuildID, h.registry.ListWorkers()))
}

// respondUseCaseError replies with the user-facing text for err, or returns err
// to the router when it is not meant for users.
func (h *CommandHandlers) respondUseCaseError(r bot.Responder, err error, query string) error {
	if errors.Is(err, usecases.ErrContextClosed) {
		err = usecases.ErrNotConnected
	}
	msg, ok := errorMessage(err, query)
	if !ok {
		return err
	}
	return respondError(r, msg)
}

// Response helpers.

func respondSuccess(r bot.Responder, description string) error {
	return r.Reply(&discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{
			{
				Description: description,
				Color:       colorSuccess,
			},
		},
	})
}

func respondError(r bot.Responder, message string) error {
	return r.Reply(&discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{
			{
				Title:       "Error",
				Description: message,
				Color:       colorError,
			},
		},
	})
}
