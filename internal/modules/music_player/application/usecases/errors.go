package usecases

import "errors"

// Domain errors for the music player module.
var (
	// ErrNoAvailableWorker is returned when every worker in the guild is busy or
	// no worker is a member of the guild.
	ErrNoAvailableWorker = errors.New("no available workers")

	// ErrRequesterNotInVoice is returned when the requester is not in a voice channel.
	ErrRequesterNotInVoice = errors.New("you must be in a voice channel")

	// ErrVoiceConnect is returned when a worker fails to join a voice channel.
	ErrVoiceConnect = errors.New("failed to connect to voice channel")

	// ErrNoMatches is returned when a query resolves to nothing.
	ErrNoMatches = errors.New("no matches found")

	// ErrEmptyQuery is returned when a play request carries no query.
	ErrEmptyQuery = errors.New("please provide a song title or URL")

	// ErrContextClosed is returned when an operation targets a playback context
	// that has been torn down (or replaced) since it was opened.
	ErrContextClosed = errors.New("playback context closed")

	// ErrInvalidPosition is returned when an invalid queue position is specified.
	ErrInvalidPosition = errors.New("invalid queue position")

	// ErrNotConnected is returned when no worker serves the requester's voice channel.
	ErrNotConnected = errors.New("you must be in a voice channel with a worker")

	// ErrNothingPlaying is returned when no track is currently playing.
	ErrNothingPlaying = errors.New("nothing is currently playing")

	// ErrInvalidTransition is returned when a voice session is asked to make a
	// transition its current state does not allow.
	ErrInvalidTransition = errors.New("invalid voice session transition")

	// ErrConnectInProgress is returned when connect is called while a connection
	// attempt is still pending.
	ErrConnectInProgress = errors.New("voice connection already in progress")
)

// ResolutionFailedError carries the audio backend's failure message verbatim.
type ResolutionFailedError struct {
	Reason string
}

func (e *ResolutionFailedError) Error() string {
	return e.Reason
}
