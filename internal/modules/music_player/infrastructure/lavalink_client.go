package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/disgolink/v3/disgolink"
	"github.com/disgoorg/disgolink/v3/lavalink"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/sgrfleet/internal/modules/music_player/application/ports"
	"github.com/sglre6355/sgrfleet/internal/modules/music_player/domain"
)

var errNoLavalinkNode = errors.New("no available Lavalink node")

// LavalinkConfig contains Lavalink connection configuration.
type LavalinkConfig struct {
	NodeName string
	Address  string
	Password string
	Secure   bool
}

// LavalinkAdapter drives one worker bot: its voice gateway state on Discord and
// its player on Lavalink. Lavalink keys players by bot user, so every worker
// owns a separate adapter.
type LavalinkAdapter struct {
	link       disgolink.Client
	session    *discordgo.Session
	botID      snowflake.ID
	handshakes *voiceHandshakes
	publisher  ports.EventPublisher
}

// NewLavalinkAdapter creates an adapter for the worker logged in on session and
// registers a node for it. The session must be open so that its user is known.
func NewLavalinkAdapter(
	ctx context.Context,
	session *discordgo.Session,
	config LavalinkConfig,
	publisher ports.EventPublisher,
) (*LavalinkAdapter, error) {
	botID, err := snowflake.Parse(session.State.User.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse bot ID: %w", err)
	}

	a := &LavalinkAdapter{
		session:    session,
		botID:      botID,
		handshakes: newVoiceHandshakes(),
		publisher:  publisher,
	}
	a.link = disgolink.New(botID,
		disgolink.WithListenerFunc(a.onTrackStart),
		disgolink.WithListenerFunc(a.onTrackEnd),
		disgolink.WithListenerFunc(a.onTrackException),
		disgolink.WithListenerFunc(a.onTrackStuck),
	)

	node, err := a.link.AddNode(ctx, disgolink.NodeConfig{
		Name:     config.NodeName,
		Address:  config.Address,
		Password: config.Password,
		Secure:   config.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add Lavalink node: %w", err)
	}

	slog.Info("worker connected to Lavalink",
		"worker", botID,
		"node", node.Config().Name,
		"address", config.Address,
	)
	return a, nil
}

// WorkerID returns the user ID of the worker bot this adapter drives.
func (a *LavalinkAdapter) WorkerID() snowflake.ID {
	return a.botID
}

// Close closes the underlying DisGoLink client.
func (a *LavalinkAdapter) Close() {
	a.link.Close()
}

// JoinChannel asks the gateway to move the worker into channelID and blocks
// until Lavalink has received the full voice handshake or ctx is done.
func (a *LavalinkAdapter) JoinChannel(ctx context.Context, guildID, channelID snowflake.ID) error {
	a.handshakes.reset(guildID)
	ready, cancel := a.handshakes.wait(guildID)
	defer cancel()

	if err := a.updateVoiceState(guildID, channelID.String()); err != nil {
		return fmt.Errorf("failed to join voice channel: %w", err)
	}

	select {
	case <-ready:
		return nil
	case <-ctx.Done():
		if err := a.updateVoiceState(guildID, ""); err != nil {
			slog.Warn("failed to abort voice join", "worker", a.botID, "guild", guildID, "error", err)
		}
		return fmt.Errorf("waiting for voice connection: %w", ctx.Err())
	}
}

// LeaveChannel destroys the guild's player and leaves its voice channel.
func (a *LavalinkAdapter) LeaveChannel(ctx context.Context, guildID snowflake.ID) error {
	if player := a.link.ExistingPlayer(guildID); player != nil {
		if err := player.Destroy(ctx); err != nil {
			slog.Warn("failed to destroy player", "worker", a.botID, "guild", guildID, "error", err)
		}
	}

	if err := a.updateVoiceState(guildID, ""); err != nil {
		return fmt.Errorf("failed to leave voice channel: %w", err)
	}
	return nil
}

func (a *LavalinkAdapter) updateVoiceState(guildID snowflake.ID, channelID string) error {
	return a.session.ChannelVoiceJoinManual(guildID.String(), channelID, false, false)
}

// Play starts track on the guild's player, replacing whatever is playing.
func (a *LavalinkAdapter) Play(ctx context.Context, guildID snowflake.ID, track *domain.Track) error {
	// An encoded track avoids sending userData: null, which Lavalink rejects.
	return a.updatePlayer(ctx, guildID, "play track", lavalink.WithEncodedTrack(track.Encoded))
}

// Stop clears the guild's current track.
func (a *LavalinkAdapter) Stop(ctx context.Context, guildID snowflake.ID) error {
	return a.updatePlayer(ctx, guildID, "stop playback", lavalink.WithNullTrack())
}

// Pause pauses the guild's player.
func (a *LavalinkAdapter) Pause(ctx context.Context, guildID snowflake.ID) error {
	return a.updatePlayer(ctx, guildID, "pause playback", lavalink.WithPaused(true))
}

// Resume unpauses the guild's player.
func (a *LavalinkAdapter) Resume(ctx context.Context, guildID snowflake.ID) error {
	return a.updatePlayer(ctx, guildID, "resume playback", lavalink.WithPaused(false))
}

func (a *LavalinkAdapter) updatePlayer(
	ctx context.Context,
	guildID snowflake.ID,
	action string,
	opt lavalink.PlayerUpdateOpt,
) error {
	if err := a.link.Player(guildID).Update(ctx, opt); err != nil {
		return fmt.Errorf("failed to %s: %w", action, err)
	}
	return nil
}

// LoadTracks resolves query on the least loaded node.
func (a *LavalinkAdapter) LoadTracks(ctx context.Context, query string) (*ports.LoadResult, error) {
	node := a.link.BestNode()
	if node == nil {
		return nil, errNoLavalinkNode
	}

	result, err := node.LoadTracks(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to load tracks: %w", err)
	}
	return convertLoadResult(result), nil
}

// OnVoiceStateUpdate feeds the state half of the worker's voice handshake.
// Updates for other users are ignored.
func (a *LavalinkAdapter) OnVoiceStateUpdate(event *discordgo.VoiceStateUpdate) {
	if event.UserID != a.botID.String() {
		return
	}

	guildID, err := snowflake.Parse(event.GuildID)
	if err != nil {
		slog.Error("failed to parse guild ID in voice state update", "worker", a.botID, "error", err)
		return
	}

	// Leaving needs no server half.
	if event.ChannelID == "" {
		a.handshakes.reset(guildID)
		a.link.OnVoiceStateUpdate(context.Background(), guildID, nil, event.SessionID)
		return
	}

	channelID, err := snowflake.Parse(event.ChannelID)
	if err != nil {
		slog.Error("failed to parse channel ID in voice state update", "worker", a.botID, "error", err)
		return
	}

	if update, ok := a.handshakes.setState(guildID, &channelID, event.SessionID); ok {
		a.forward(guildID, update)
	}
}

// OnVoiceServerUpdate feeds the server half of the worker's voice handshake.
func (a *LavalinkAdapter) OnVoiceServerUpdate(event *discordgo.VoiceServerUpdate) {
	guildID, err := snowflake.Parse(event.GuildID)
	if err != nil {
		slog.Error("failed to parse guild ID in voice server update", "worker", a.botID, "error", err)
		return
	}

	if update, ok := a.handshakes.setServer(guildID, event.Token, event.Endpoint); ok {
		a.forward(guildID, update)
	}
}

func (a *LavalinkAdapter) forward(guildID snowflake.ID, update voiceUpdate) {
	slog.Debug("forwarding voice handshake to Lavalink",
		"worker", a.botID,
		"guild", guildID,
		"channel", update.channelID,
	)

	a.link.OnVoiceStateUpdate(context.Background(), guildID, update.channelID, update.sessionID)
	a.link.OnVoiceServerUpdate(context.Background(), guildID, update.token, update.endpoint)
}

func (a *LavalinkAdapter) onTrackStart(player disgolink.Player, event lavalink.TrackStartEvent) {
	slog.Debug("track started",
		"worker", a.botID,
		"guild", player.GuildID(),
		"track", event.Track.Info.Title,
	)
}

func (a *LavalinkAdapter) onTrackEnd(player disgolink.Player, event lavalink.TrackEndEvent) {
	slog.Debug("track ended", "worker", a.botID, "guild", player.GuildID(), "reason", event.Reason)

	if a.publisher == nil {
		return
	}
	a.publisher.PublishTrackEnded(domain.TrackEndedEvent{
		WorkerID: a.botID,
		GuildID:  player.GuildID(),
		Reason:   convertEndReason(event.Reason),
	})
}

func (a *LavalinkAdapter) onTrackException(player disgolink.Player, event lavalink.TrackExceptionEvent) {
	slog.Warn("track exception",
		"worker", a.botID,
		"guild", player.GuildID(),
		"error", event.Exception.Message,
	)
}

func (a *LavalinkAdapter) onTrackStuck(player disgolink.Player, event lavalink.TrackStuckEvent) {
	slog.Warn("track stuck",
		"worker", a.botID,
		"guild", player.GuildID(),
		"threshold", event.Threshold,
	)
}

var (
	_ ports.AudioPlayer     = (*LavalinkAdapter)(nil)
	_ ports.VoiceConnection = (*LavalinkAdapter)(nil)
	_ ports.TrackResolver   = (*LavalinkAdapter)(nil)
)
