package domain

// VoiceConnectionState is the connection state of a worker in one guild.
//
//	Disconnected -> Connecting -> Connected -> Disconnecting -> Disconnected
//	Connecting -> Disconnected (failure)
type VoiceConnectionState int

const (
	VoiceDisconnected VoiceConnectionState = iota
	VoiceConnecting
	VoiceConnected
	VoiceDisconnecting
)

// String returns the string representation of the VoiceConnectionState.
func (s VoiceConnectionState) String() string {
	switch s {
	case VoiceDisconnected:
		return "disconnected"
	case VoiceConnecting:
		return "connecting"
	case VoiceConnected:
		return "connected"
	case VoiceDisconnecting:
		return "disconnecting"
	default:
		return "unknown"
	}
}

// IsBusy returns true while Connecting or Connected.
func (s VoiceConnectionState) IsBusy() bool {
	return s == VoiceConnecting || s == VoiceConnected
}
