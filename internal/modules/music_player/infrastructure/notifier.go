package infrastructure

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/sgrfleet/internal/modules/music_player/application/ports"
)

var _ ports.NotificationSender = (*Notifier)(nil)

// Notifier posts unsolicited messages as the front bot. Mentions in content
// are never resolved, since track titles are user-controlled.
type Notifier struct {
	session *discordgo.Session
}

func NewNotifier(session *discordgo.Session) *Notifier {
	return &Notifier{session: session}
}

func (n *Notifier) SendMessage(channelID snowflake.ID, content string) error {
	msg := &discordgo.MessageSend{
		Content:         content,
		AllowedMentions: &discordgo.MessageAllowedMentions{},
		Flags:           discordgo.MessageFlagsSuppressEmbeds,
	}
	if _, err := n.session.ChannelMessageSendComplex(channelID.String(), msg); err != nil {
		return fmt.Errorf("failed to send message to %s: %w", channelID, err)
	}
	return nil
}
