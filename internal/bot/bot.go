package bot

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
)

// commandTimeout bounds the handling of a single command, including track resolution.
const commandTimeout = 30 * time.Second

// Bot manages the front and worker sessions and module coordination.
type Bot struct {
	config   *Config
	session  *discordgo.Session
	workers  []*discordgo.Session
	modules  []Module
	handlers map[string]CommandHandler

	newResponder func(s *discordgo.Session, m *discordgo.Message) Responder
}

// NewBot creates a new Bot instance with the given configuration.
func NewBot(cfg *Config) *Bot {
	return &Bot{
		config:   cfg,
		modules:  make([]Module, 0),
		handlers: make(map[string]CommandHandler),
		newResponder: func(s *discordgo.Session, m *discordgo.Message) Responder {
			return NewDiscordResponder(s, m)
		},
	}
}

// LoadModules loads modules from the global registry.
func (b *Bot) LoadModules() {
	b.modules = Modules()
}

// Start connects the front bot and every worker to Discord and initializes modules.
func (b *Bot) Start(ctx context.Context) error {
	if err := b.loadModuleConfigs(); err != nil {
		return err
	}

	session, err := newSession(b.config.DiscordToken, frontIntents)
	if err != nil {
		return fmt.Errorf("failed to create Discord session: %w", err)
	}

	workers := make([]*discordgo.Session, len(b.config.WorkerTokens))
	for i, token := range b.config.WorkerTokens {
		workers[i], err = newWorkerSession(token)
		if err != nil {
			return fmt.Errorf("failed to create worker session %d: %w", i, err)
		}
	}

	// Open all connections
	if err := openSessions(ctx, append([]*discordgo.Session{session}, workers...)); err != nil {
		return fmt.Errorf("failed to open Discord connections: %w", err)
	}
	b.session = session
	b.workers = workers

	// Initialize modules
	if err := b.initModules(ctx); err != nil {
		_ = closeSessions(b.sessions())
		return fmt.Errorf("failed to initialize modules: %w", err)
	}

	// Build handler map
	b.buildHandlerMap()

	// Register message handler
	b.session.AddHandler(b.handleMessage)

	// Register module event handlers
	b.registerEventHandlers()

	slog.Info("started bot",
		"user_id", b.session.State.User.ID,
		"username", b.session.State.User.Username,
		"workers", len(b.workers),
	)

	return nil
}

// Stop gracefully shuts down the bot.
func (b *Bot) Stop() error {
	// Shutdown modules
	for _, mod := range b.modules {
		if err := mod.Shutdown(); err != nil {
			slog.Warn("failed to shutdown module", "module", mod.Name(), "error", err)
		}
	}

	// Close Discord sessions
	return closeSessions(b.sessions())
}

func (b *Bot) sessions() []*discordgo.Session {
	return append([]*discordgo.Session{b.session}, b.workers...)
}

// loadModuleConfigs loads configuration for modules that need it.
func (b *Bot) loadModuleConfigs() error {
	for _, mod := range b.modules {
		configurable, ok := mod.(ConfigurableModule)
		if !ok {
			continue
		}
		if err := configurable.LoadConfig(); err != nil {
			return fmt.Errorf("failed to load %s module config: %w", mod.Name(), err)
		}
	}
	return nil
}

// initModules initializes all loaded modules.
func (b *Bot) initModules(ctx context.Context) error {
	deps := ModuleDependencies{
		Session: b.session,
		Workers: b.workers,
	}

	for _, mod := range b.modules {
		if err := mod.Init(ctx, deps); err != nil {
			return fmt.Errorf("failed to initialize %s module: %w", mod.Name(), err)
		}
		slog.Debug("initialized module", "module", mod.Name())
	}

	moduleNames := make([]string, len(b.modules))
	for i, mod := range b.modules {
		moduleNames[i] = mod.Name()
	}
	slog.Info("initialized modules", "modules", moduleNames)

	return nil
}

// buildHandlerMap builds the command name to handler mapping.
func (b *Bot) buildHandlerMap() {
	for _, mod := range b.modules {
		maps.Copy(b.handlers, mod.CommandHandlers())
	}
}

// registerEventHandlers registers all module event handlers with the front session.
func (b *Bot) registerEventHandlers() {
	for _, mod := range b.modules {
		for _, handler := range mod.EventHandlers() {
			b.session.AddHandler(handler)
		}
	}
}

// Embed colors for responses.
const (
	colorRed = 0xFF0000
)

// parseCommand splits "<prefix><name> <args>" into a lower-cased name and trimmed args.
func parseCommand(prefix, content string) (name, args string, ok bool) {
	rest, found := strings.CutPrefix(strings.TrimSpace(content), prefix)
	if !found || rest == "" {
		return "", "", false
	}

	name, args, _ = strings.Cut(rest, " ")
	if name == "" {
		return "", "", false
	}
	return strings.ToLower(name), strings.TrimSpace(args), true
}

// handleMessage routes incoming command messages to the appropriate handler.
func (b *Bot) handleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.GuildID == "" {
		return
	}

	name, args, ok := parseCommand(b.config.CommandPrefix, m.Content)
	if !ok {
		return
	}

	handler, ok := b.handlers[name]
	if !ok {
		slog.Debug("found no handler for command", "command", name)
		return
	}

	cmd, err := newCommand(name, args, m.Message)
	if err != nil {
		slog.Warn("failed to parse command message", "command", name, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	responder := b.newResponder(s, m.Message)
	if err := handler(ctx, cmd, responder); err != nil {
		slog.Error("failed to handle command",
			"command", name,
			"guild", cmd.GuildID,
			"error", err,
		)
		b.respondWithEmbed(responder, "Error", "An error occurred while processing your command.",
			colorRed)
	}
}

func newCommand(name, args string, m *discordgo.Message) (*Command, error) {
	guildID, err := snowflake.Parse(m.GuildID)
	if err != nil {
		return nil, fmt.Errorf("invalid guild ID: %w", err)
	}
	channelID, err := snowflake.Parse(m.ChannelID)
	if err != nil {
		return nil, fmt.Errorf("invalid channel ID: %w", err)
	}
	authorID, err := snowflake.Parse(m.Author.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid author ID: %w", err)
	}

	return &Command{
		Name:      name,
		Args:      args,
		GuildID:   guildID,
		ChannelID: channelID,
		AuthorID:  authorID,
	}, nil
}

// respondWithEmbed sends an embed reply.
func (b *Bot) respondWithEmbed(r Responder, title, description string, color int) {
	err := r.Reply(&discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{
			{
				Title:       title,
				Description: description,
				Color:       color,
			},
		},
	})
	if err != nil {
		slog.Error("failed to send embed response", "error", err)
	}
}
