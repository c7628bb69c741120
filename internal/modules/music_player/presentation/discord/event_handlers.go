package discord

import (
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/sgrfleet/internal/modules/music_player/application/ports"
	"github.com/sglre6355/sgrfleet/internal/modules/music_player/domain"
)

// VoiceEventForwarder receives the raw voice events a worker's audio backend needs.
type VoiceEventForwarder interface {
	OnVoiceStateUpdate(event *discordgo.VoiceStateUpdate)
	OnVoiceServerUpdate(event *discordgo.VoiceServerUpdate)
}

// WorkerEventHandlers handles Discord gateway events on one worker session.
type WorkerEventHandlers struct {
	workerID  snowflake.ID
	forwarder VoiceEventForwarder
	publisher ports.EventPublisher
}

// NewWorkerEventHandlers creates a new WorkerEventHandlers.
func NewWorkerEventHandlers(
	workerID snowflake.ID,
	forwarder VoiceEventForwarder,
	publisher ports.EventPublisher,
) *WorkerEventHandlers {
	return &WorkerEventHandlers{
		workerID:  workerID,
		forwarder: forwarder,
		publisher: publisher,
	}
}

// HandleVoiceServerUpdate handles VoiceServerUpdate events for the worker.
func (h *WorkerEventHandlers) HandleVoiceServerUpdate(
	_ *discordgo.Session,
	event *discordgo.VoiceServerUpdate,
) {
	h.forwarder.OnVoiceServerUpdate(event)
}

// HandleVoiceStateUpdate handles VoiceStateUpdate events for the worker.
// Leaving voice is reported as a VoiceDisconnectedEvent; the playback driver
// ignores the ones caused by our own disconnects and late ones from a session
// the worker has since replaced.
func (h *WorkerEventHandlers) HandleVoiceStateUpdate(
	_ *discordgo.Session,
	event *discordgo.VoiceStateUpdate,
) {
	if event.VoiceState == nil || event.UserID != h.workerID.String() {
		return
	}

	h.forwarder.OnVoiceStateUpdate(event)

	if event.ChannelID != "" {
		return
	}

	guildID, err := snowflake.Parse(event.GuildID)
	if err != nil {
		slog.Error("failed to parse guild ID in voice state update", "error", err)
		return
	}

	h.publisher.PublishVoiceDisconnected(domain.VoiceDisconnectedEvent{
		WorkerID: h.workerID,
		GuildID:  guildID,
	})
}
