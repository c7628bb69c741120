package ports

import (
	"context"

	"github.com/sglre6355/sgrfleet/internal/modules/music_player/domain"
)

// EventPublisher hands events to their subscribers without waiting for them.
type EventPublisher interface {
	PublishTrackEnded(event domain.TrackEndedEvent)
	PublishVoiceDisconnected(event domain.VoiceDisconnectedEvent)
}

// EventSubscriber registers handlers for published events.
type EventSubscriber interface {
	OnTrackEnded(handler func(context.Context, domain.TrackEndedEvent))
	OnVoiceDisconnected(handler func(context.Context, domain.VoiceDisconnectedEvent))
}
