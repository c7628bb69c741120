package infrastructure

import (
	"context"
	"log/slog"

	"github.com/sglre6355/sgrfleet/internal/modules/music_player/application/ports"
	"github.com/sglre6355/sgrfleet/internal/modules/music_player/domain"
)

// PlaybackEvents reacts to worker events. The playback service implements it.
type PlaybackEvents interface {
	HandleTrackEnded(ctx context.Context, event domain.TrackEndedEvent)
	HandleVoiceDisconnected(ctx context.Context, event domain.VoiceDisconnectedEvent)
}

// SubscribePlayback routes the subscriber's events to target.
func SubscribePlayback(subscriber ports.EventSubscriber, target PlaybackEvents) {
	subscriber.OnTrackEnded(func(ctx context.Context, event domain.TrackEndedEvent) {
		slog.Debug("handling track end",
			"worker", event.WorkerID,
			"guild", event.GuildID,
			"reason", event.Reason,
		)
		target.HandleTrackEnded(ctx, event)
	})

	subscriber.OnVoiceDisconnected(func(ctx context.Context, event domain.VoiceDisconnectedEvent) {
		slog.Debug("handling voice disconnect", "worker", event.WorkerID, "guild", event.GuildID)
		target.HandleVoiceDisconnected(ctx, event)
	})
}
