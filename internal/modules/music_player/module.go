package music_player

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/caarlos0/env/v11"
	"github.com/sglre6355/sgrfleet/internal/bot"
	"github.com/sglre6355/sgrfleet/internal/modules/music_player/application/usecases"
	"github.com/sglre6355/sgrfleet/internal/modules/music_player/infrastructure"
	"github.com/sglre6355/sgrfleet/internal/modules/music_player/presentation/discord"
	"golang.org/x/sync/errgroup"
)

func init() {
	bot.Register(&MusicPlayerModule{})
}

// Compile-time interface checks.
var _ bot.ConfigurableModule = (*MusicPlayerModule)(nil)

// MusicPlayerModule provides music playback commands backed by a pool of worker bots.
type MusicPlayerModule struct {
	config          *Config
	commandHandlers *discord.CommandHandlers
	adapters        []*infrastructure.LavalinkAdapter

	eventBus *infrastructure.ChannelEventBus
	contexts *infrastructure.MemoryRepository
	playback *usecases.PlaybackService
}

// Name returns the module name.
func (m *MusicPlayerModule) Name() string {
	return "music_player"
}

// CommandHandlers returns the command handlers for this module.
func (m *MusicPlayerModule) CommandHandlers() map[string]bot.CommandHandler {
	return m.commandHandlers.Handlers()
}

// EventHandlers returns the front session event handlers for this module.
// Worker sessions get their handlers during Init.
func (m *MusicPlayerModule) EventHandlers() []bot.EventHandler {
	return nil
}

// LoadConfig loads module-specific configuration from environment variables.
func (m *MusicPlayerModule) LoadConfig() error {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return err
	}
	m.config = cfg
	return nil
}

// Init initializes the module.
func (m *MusicPlayerModule) Init(ctx context.Context, deps bot.ModuleDependencies) error {
	if deps.Session == nil || len(deps.Workers) == 0 {
		return errors.New("music_player needs a front session and at least one worker")
	}
	if m.config == nil {
		if err := m.LoadConfig(); err != nil {
			return err
		}
	}

	// Create event bus (needed by Lavalink adapters for publishing events)
	m.eventBus = infrastructure.NewChannelEventBus(infrastructure.DefaultEventBufferSize)

	adapters, err := m.connectWorkers(ctx, deps.Workers)
	if err != nil {
		m.eventBus.Close()
		return err
	}
	m.adapters = adapters

	workers := make([]*usecases.Worker, len(adapters))
	for i, adapter := range adapters {
		session := deps.Workers[i]
		workers[i] = usecases.NewWorker(usecases.WorkerDeps{
			ID:             adapter.WorkerID(),
			Name:           session.State.User.Username,
			Membership:     infrastructure.NewSessionMembership(session),
			Voice:          adapter,
			Audio:          adapter,
			Resolver:       adapter,
			Presence:       infrastructure.NewSessionVoiceState(session),
			ConnectTimeout: m.config.VoiceConnectTimeout,
		})

		handlers := discord.NewWorkerEventHandlers(adapter.WorkerID(), adapter, m.eventBus)
		session.AddHandler(handlers.HandleVoiceServerUpdate)
		session.AddHandler(handlers.HandleVoiceStateUpdate)
	}

	// Create services
	registry := usecases.NewWorkerRegistry(workers...)
	m.contexts = infrastructure.NewMemoryRepository()
	queue := usecases.NewQueueService(m.contexts)
	m.playback = usecases.NewPlaybackService(
		registry,
		queue,
		infrastructure.NewNotifier(deps.Session),
		m.config.IdleTimeout,
	)
	dispatcher := usecases.NewDispatcher(
		registry,
		infrastructure.NewSessionVoiceState(deps.Session),
		queue,
		m.playback,
	)

	infrastructure.SubscribePlayback(m.eventBus, m.playback)

	// Create presentation handlers
	m.commandHandlers = discord.NewCommandHandlers(
		dispatcher,
		registry,
		queue,
		m.playback,
		discord.NewThrottle(m.config.PlayRateInterval, m.config.PlayRateBurst),
	)

	slog.Info("music_player module initialized", "workers", len(workers))

	return nil
}

// connectWorkers creates one Lavalink adapter per worker session, concurrently.
func (m *MusicPlayerModule) connectWorkers(
	ctx context.Context,
	sessions []*discordgo.Session,
) ([]*infrastructure.LavalinkAdapter, error) {
	adapters := make([]*infrastructure.LavalinkAdapter, len(sessions))

	g, gctx := errgroup.WithContext(ctx)
	for i, session := range sessions {
		g.Go(func() error {
			adapter, err := infrastructure.NewLavalinkAdapter(gctx, session, infrastructure.LavalinkConfig{
				NodeName: fmt.Sprintf("worker-%d", i),
				Address:  m.config.LavalinkAddress,
				Password: m.config.LavalinkPassword,
				Secure:   m.config.LavalinkSecure,
			}, m.eventBus)
			if err != nil {
				return fmt.Errorf("worker %d: %w", i, err)
			}
			adapters[i] = adapter
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		for _, adapter := range adapters {
			if adapter != nil {
				adapter.Close()
			}
		}
		return nil, err
	}
	return adapters, nil
}

// Shutdown stops idle timers, then event delivery, then the Lavalink clients.
// Playback contexts still open are dropped; workers leave voice when their
// sessions close.
func (m *MusicPlayerModule) Shutdown() error {
	if m.contexts != nil {
		slog.Info("shutting down music_player", "open_contexts", m.contexts.Count())
	}
	if m.playback != nil {
		m.playback.Close()
	}
	if m.eventBus != nil {
		m.eventBus.Close()
	}
	for _, adapter := range m.adapters {
		adapter.Close()
	}
	return nil
}
