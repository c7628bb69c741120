package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/sgrfleet/internal/modules/music_player/application/ports"
	"github.com/sglre6355/sgrfleet/internal/modules/music_player/domain"
)

// StateObserver is notified of every voice session transition.
type StateObserver func(workerID, guildID snowflake.ID, from, to domain.VoiceConnectionState)

// VoiceSession is the voice connection state machine of one worker in one guild.
type VoiceSession struct {
	workerID snowflake.ID
	guildID  snowflake.ID
	conn     ports.VoiceConnection
	timeout  time.Duration
	observer StateObserver

	mu        sync.Mutex
	state     domain.VoiceConnectionState
	channelID snowflake.ID
	// attempt is bumped on every reservation and every disconnect so a
	// confirmation that arrives for an abandoned attempt can be recognised.
	attempt uint64
}

func newVoiceSession(
	workerID, guildID snowflake.ID,
	conn ports.VoiceConnection,
	timeout time.Duration,
	observer StateObserver,
) *VoiceSession {
	return &VoiceSession{
		workerID: workerID,
		guildID:  guildID,
		conn:     conn,
		timeout:  timeout,
		observer: observer,
		state:    domain.VoiceDisconnected,
	}
}

// State returns the current connection state.
func (s *VoiceSession) State() domain.VoiceConnectionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// ChannelID returns the voice channel the session is connecting or connected to, or 0.
func (s *VoiceSession) ChannelID() snowflake.ID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.channelID
}

// IsBusy returns true while the session is Connecting or Connected.
func (s *VoiceSession) IsBusy() bool {
	return s.State().IsBusy()
}

// IsConnectedTo returns true if the session is Connected to the given channel.
func (s *VoiceSession) IsConnectedTo(channelID snowflake.ID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == domain.VoiceConnected && s.channelID == channelID
}

func (s *VoiceSession) contextKey() domain.ContextKey {
	return domain.ContextKey{WorkerID: s.workerID, GuildID: s.guildID}
}

// setState must be called with mu held.
func (s *VoiceSession) setState(to domain.VoiceConnectionState) {
	from := s.state
	s.state = to

	slog.Debug("voice session transition",
		"worker", s.workerID,
		"guild", s.guildID,
		"from", from.String(),
		"to", to.String(),
	)

	if s.observer != nil {
		s.observer(s.workerID, s.guildID, from, to)
	}
}

// reserve moves a Disconnected session to Connecting in one step.
// It returns false if the session was not Disconnected.
func (s *VoiceSession) reserve(channelID snowflake.ID) (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != domain.VoiceDisconnected {
		return 0, false
	}

	s.attempt++
	s.channelID = channelID
	s.setState(domain.VoiceConnecting)
	return s.attempt, true
}

// completeConnect opens the transport for a reserved attempt and waits for confirmation.
// On failure the session reverts to Disconnected and the error wraps ErrVoiceConnect.
func (s *VoiceSession) completeConnect(ctx context.Context, attempt uint64) error {
	s.mu.Lock()
	channelID := s.channelID
	s.mu.Unlock()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	joinErr := s.conn.JoinChannel(ctx, s.guildID, channelID)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.attempt != attempt || s.state != domain.VoiceConnecting {
		// Disconnected while the join was pending.
		return fmt.Errorf("%w: connection attempt abandoned", ErrVoiceConnect)
	}

	if joinErr != nil {
		s.channelID = 0
		s.setState(domain.VoiceDisconnected)
		return fmt.Errorf("%w: %w", ErrVoiceConnect, joinErr)
	}

	s.setState(domain.VoiceConnected)
	return nil
}

// connectedAttempt returns the current attempt if the session is Connected.
func (s *VoiceSession) connectedAttempt() (uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempt, s.state == domain.VoiceConnected
}

// beginDisconnect moves a Connected or Connecting session to Disconnecting.
// It returns false if the session was in neither state.
func (s *VoiceSession) beginDisconnect() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.leave()
}

// beginDisconnectOf is beginDisconnect restricted to one Connected attempt.
func (s *VoiceSession) beginDisconnectOf(attempt uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != domain.VoiceConnected || s.attempt != attempt {
		return false
	}
	return s.leave()
}

// leave must be called with mu held.
func (s *VoiceSession) leave() bool {
	if s.state != domain.VoiceConnected && s.state != domain.VoiceConnecting {
		return false
	}
	s.attempt++
	s.setState(domain.VoiceDisconnecting)
	return true
}

// finishDisconnect closes the transport of a Disconnecting session.
// The session ends Disconnected even if the transport reports an error.
func (s *VoiceSession) finishDisconnect(ctx context.Context) error {
	err := s.conn.LeaveChannel(ctx, s.guildID)

	s.mu.Lock()
	s.channelID = 0
	s.setState(domain.VoiceDisconnected)
	s.mu.Unlock()

	if err != nil {
		return fmt.Errorf("failed to leave voice channel: %w", err)
	}
	return nil
}
