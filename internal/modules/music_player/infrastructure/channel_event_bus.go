package infrastructure

import (
	"context"
	"log/slog"
	"sync"

	"github.com/sglre6355/sgrfleet/internal/modules/music_player/application/ports"
	"github.com/sglre6355/sgrfleet/internal/modules/music_player/domain"
)

// DefaultEventBufferSize is the number of events per type that may wait for delivery.
const DefaultEventBufferSize = 100

var (
	_ ports.EventPublisher  = (*ChannelEventBus)(nil)
	_ ports.EventSubscriber = (*ChannelEventBus)(nil)
)

// topic is one event type's queue and subscribers. A single goroutine drains
// it, so handlers see events in publish order.
type topic[E any] struct {
	name     string
	events   chan E
	mu       sync.RWMutex
	handlers []func(context.Context, E)
}

func newTopic[E any](name string, size int) *topic[E] {
	return &topic[E]{name: name, events: make(chan E, size)}
}

func (t *topic[E]) subscribe(handler func(context.Context, E)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handlers = append(t.handlers, handler)
}

func (t *topic[E]) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-t.events:
			if !ok {
				return
			}
			t.mu.RLock()
			handlers := t.handlers
			t.mu.RUnlock()

			for _, handler := range handlers {
				handler(ctx, event)
			}
		}
	}
}

// offer queues event without blocking and reports whether there was room.
func (t *topic[E]) offer(event E) bool {
	select {
	case t.events <- event:
		return true
	default:
		return false
	}
}

// ChannelEventBus delivers worker events to subscribers on background goroutines.
// Publishing never blocks: when a topic's buffer is full the event is dropped.
type ChannelEventBus struct {
	trackEnded        *topic[domain.TrackEndedEvent]
	voiceDisconnected *topic[domain.VoiceDisconnectedEvent]

	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.RWMutex
	closed bool
}

// NewChannelEventBus starts a bus whose topics each hold bufferSize events.
// A non-positive size means DefaultEventBufferSize.
func NewChannelEventBus(bufferSize int) *ChannelEventBus {
	if bufferSize <= 0 {
		bufferSize = DefaultEventBufferSize
	}

	ctx, cancel := context.WithCancel(context.Background())
	b := &ChannelEventBus{
		trackEnded:        newTopic[domain.TrackEndedEvent]("TrackEnded", bufferSize),
		voiceDisconnected: newTopic[domain.VoiceDisconnectedEvent]("VoiceDisconnected", bufferSize),
		cancel:            cancel,
	}

	b.wg.Go(func() { b.trackEnded.run(ctx) })
	b.wg.Go(func() { b.voiceDisconnected.run(ctx) })
	return b
}

func publish[E any](b *ChannelEventBus, t *topic[E], event E, attrs ...any) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	attrs = append([]any{"type", t.name}, attrs...)
	switch {
	case b.closed:
		slog.Warn("dropping event published after close", attrs...)
	case !t.offer(event):
		slog.Warn("event buffer full, dropping event", attrs...)
	default:
		slog.Debug("published event", attrs...)
	}
}

func (b *ChannelEventBus) PublishTrackEnded(event domain.TrackEndedEvent) {
	publish(b, b.trackEnded, event, "worker", event.WorkerID, "guild", event.GuildID)
}

func (b *ChannelEventBus) PublishVoiceDisconnected(event domain.VoiceDisconnectedEvent) {
	publish(b, b.voiceDisconnected, event, "worker", event.WorkerID, "guild", event.GuildID)
}

func (b *ChannelEventBus) OnTrackEnded(handler func(context.Context, domain.TrackEndedEvent)) {
	b.trackEnded.subscribe(handler)
}

func (b *ChannelEventBus) OnVoiceDisconnected(handler func(context.Context, domain.VoiceDisconnectedEvent)) {
	b.voiceDisconnected.subscribe(handler)
}

// Close stops delivery and waits for running handlers to return. Events still
// buffered are discarded. Close is idempotent.
func (b *ChannelEventBus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.mu.Unlock()

	b.cancel()
	close(b.trackEnded.events)
	close(b.voiceDisconnected.events)
	b.wg.Wait()

	slog.Debug("channel event bus closed")
}
