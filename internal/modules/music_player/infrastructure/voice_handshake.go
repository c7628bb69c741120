package infrastructure

import (
	"slices"
	"sync"

	"github.com/disgoorg/snowflake/v2"
)

// voiceUpdate is a complete pair of voice events for one guild, ready for Lavalink.
type voiceUpdate struct {
	channelID *snowflake.ID
	sessionID string
	token     string
	endpoint  string
}

// voiceHandshake is the partial state of one guild's voice handshake.
type voiceHandshake struct {
	update    voiceUpdate
	hasState  bool
	hasServer bool
	waiters   []chan struct{}
}

// voiceHandshakes pairs VoiceStateUpdate and VoiceServerUpdate events per guild.
// Discord delivers them in either order but Lavalink needs the state first,
// otherwise it rejects the connection as a partial voice state.
type voiceHandshakes struct {
	mu      sync.Mutex
	byGuild map[snowflake.ID]*voiceHandshake
}

func newVoiceHandshakes() *voiceHandshakes {
	return &voiceHandshakes{byGuild: make(map[snowflake.ID]*voiceHandshake)}
}

func (v *voiceHandshakes) get(guildID snowflake.ID) *voiceHandshake {
	h, ok := v.byGuild[guildID]
	if !ok {
		h = &voiceHandshake{}
		v.byGuild[guildID] = h
	}
	return h
}

// wait returns a channel that is closed when the guild's next handshake completes.
// The returned func unregisters the waiter.
func (v *voiceHandshakes) wait(guildID snowflake.ID) (<-chan struct{}, func()) {
	v.mu.Lock()
	defer v.mu.Unlock()

	ch := make(chan struct{})
	h := v.get(guildID)
	h.waiters = append(h.waiters, ch)

	return ch, func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		if h, ok := v.byGuild[guildID]; ok {
			h.waiters = slices.DeleteFunc(h.waiters, func(w chan struct{}) bool { return w == ch })
		}
	}
}

// setState records the state half and returns the complete update if the server half is present.
func (v *voiceHandshakes) setState(
	guildID snowflake.ID,
	channelID *snowflake.ID,
	sessionID string,
) (voiceUpdate, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	h := v.get(guildID)
	h.update.channelID = channelID
	h.update.sessionID = sessionID
	h.hasState = true
	return v.complete(guildID, h)
}

// setServer records the server half and returns the complete update if the state half is present.
func (v *voiceHandshakes) setServer(guildID snowflake.ID, token, endpoint string) (voiceUpdate, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	h := v.get(guildID)
	h.update.token = token
	h.update.endpoint = endpoint
	h.hasServer = true
	return v.complete(guildID, h)
}

// complete releases waiters and forgets the handshake once both halves are present.
// Callers hold v.mu.
func (v *voiceHandshakes) complete(guildID snowflake.ID, h *voiceHandshake) (voiceUpdate, bool) {
	if !h.hasState || !h.hasServer {
		return voiceUpdate{}, false
	}

	for _, ch := range h.waiters {
		close(ch)
	}
	delete(v.byGuild, guildID)
	return h.update, true
}

// reset drops any partial handshake for the guild. Waiters stay registered.
func (v *voiceHandshakes) reset(guildID snowflake.ID) {
	v.mu.Lock()
	defer v.mu.Unlock()

	h, ok := v.byGuild[guildID]
	if !ok {
		return
	}
	v.byGuild[guildID] = &voiceHandshake{waiters: h.waiters}
}
