package ports

import (
	"context"

	"github.com/disgoorg/snowflake/v2"
)

// VoiceConnection moves one worker in and out of voice channels.
type VoiceConnection interface {
	// JoinChannel returns once the worker's voice connection is usable, or
	// with an error if ctx ends first.
	JoinChannel(ctx context.Context, guildID, channelID snowflake.ID) error
	LeaveChannel(ctx context.Context, guildID snowflake.ID) error
}

// MemberVoiceState locates guild members in voice.
type MemberVoiceState interface {
	// VoiceChannelOf returns nil when the member is not in voice.
	VoiceChannelOf(guildID, userID snowflake.ID) (*snowflake.ID, error)
}

// GuildMembership reports which guilds a worker's account has joined.
type GuildMembership interface {
	IsMember(guildID snowflake.ID) bool
}

// NotificationSender posts to a text channel outside a command reply, e.g. when
// a queued track fails long after its play request was answered.
type NotificationSender interface {
	SendMessage(channelID snowflake.ID, content string) error
}
