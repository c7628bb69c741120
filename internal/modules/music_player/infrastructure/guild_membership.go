package infrastructure

import (
	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/sgrfleet/internal/modules/music_player/application/ports"
)

// SessionMembership reports a worker's guilds from its session's state cache,
// which discordgo keeps current from GUILD_CREATE/GUILD_DELETE.
type SessionMembership struct {
	session *discordgo.Session
}

// NewSessionMembership creates a new SessionMembership.
func NewSessionMembership(session *discordgo.Session) *SessionMembership {
	return &SessionMembership{session: session}
}

// IsMember returns true if the session's account is in the guild.
func (m *SessionMembership) IsMember(guildID snowflake.ID) bool {
	guild, err := m.session.State.Guild(guildID.String())
	return err == nil && !guild.Unavailable
}

var _ ports.GuildMembership = (*SessionMembership)(nil)
