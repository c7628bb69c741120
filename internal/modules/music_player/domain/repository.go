package domain

// PlaybackContextRepository defines the interface for storing and retrieving
// playback contexts.
type PlaybackContextRepository interface {
	// Get returns the PlaybackContext for the given key, or nil if not exists.
	Get(key ContextKey) *PlaybackContext

	// Save stores the PlaybackContext.
	Save(ctx *PlaybackContext)

	// Delete removes the PlaybackContext for the given key.
	Delete(key ContextKey)
}
