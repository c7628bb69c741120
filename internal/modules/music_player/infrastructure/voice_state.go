package infrastructure

import (
	"errors"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/sgrfleet/internal/modules/music_player/application/ports"
)

// SessionVoiceState answers "which voice channel is this member in" from the
// front bot's gateway cache. It needs the GuildVoiceStates intent.
type SessionVoiceState struct {
	state *discordgo.State
}

func NewSessionVoiceState(session *discordgo.Session) *SessionVoiceState {
	return &SessionVoiceState{state: session.State}
}

func (s *SessionVoiceState) VoiceChannelOf(guildID, userID snowflake.ID) (*snowflake.ID, error) {
	vs, err := s.state.VoiceState(guildID.String(), userID.String())
	switch {
	case errors.Is(err, discordgo.ErrStateNotFound):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("failed to read voice state: %w", err)
	case vs.ChannelID == "":
		return nil, nil
	}

	channelID, err := snowflake.Parse(vs.ChannelID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse voice channel ID: %w", err)
	}
	return &channelID, nil
}

var _ ports.MemberVoiceState = (*SessionVoiceState)(nil)
