package bot

import (
	"sync"

	"github.com/bwmarrin/discordgo"
)

// Responder provides an abstraction for replying to a command message.
// This interface enables testing handlers without a live Discord connection.
type Responder interface {
	// Reply sends a message to the channel the command came from.
	Reply(message *discordgo.MessageSend) error
}

// DiscordResponder implements Responder using a live Discord session.
type DiscordResponder struct {
	session *discordgo.Session
	message *discordgo.Message
}

// NewDiscordResponder creates a new DiscordResponder.
func NewDiscordResponder(s *discordgo.Session, m *discordgo.Message) *DiscordResponder {
	return &DiscordResponder{
		session: s,
		message: m,
	}
}

// Reply sends the message as a reply to the command without pinging anyone.
func (r *DiscordResponder) Reply(message *discordgo.MessageSend) error {
	if message.Reference == nil {
		message.Reference = r.message.Reference()
	}
	if message.AllowedMentions == nil {
		message.AllowedMentions = &discordgo.MessageAllowedMentions{}
	}
	_, err := r.session.ChannelMessageSendComplex(r.message.ChannelID, message)
	return err
}

// MockResponder is a test double for Responder.
type MockResponder struct {
	mu      sync.Mutex
	Replies []*discordgo.MessageSend
	Err     error
}

// Reply records the message for testing.
func (m *MockResponder) Reply(message *discordgo.MessageSend) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Replies = append(m.Replies, message)
	return m.Err
}

// LastReply returns the most recent reply, or nil if none was sent.
func (m *MockResponder) LastReply() *discordgo.MessageSend {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Replies) == 0 {
		return nil
	}
	return m.Replies[len(m.Replies)-1]
}
