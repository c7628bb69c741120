package domain

// RepeatMode controls what happens to a finished track when the queue advances.
type RepeatMode int

const (
	RepeatModeNone   RepeatMode = iota // Default: finished track is discarded
	RepeatModeSingle                   // Finished track plays again
	RepeatModeAll                      // Finished track moves to the tail
)

// String returns a human-readable representation of the repeat mode.
func (m RepeatMode) String() string {
	switch m {
	case RepeatModeSingle:
		return "single"
	case RepeatModeAll:
		return "all"
	default:
		return "none"
	}
}

// ParseRepeatMode converts user input to a RepeatMode.
// The second return value is false if the input is not recognised.
func ParseRepeatMode(s string) (RepeatMode, bool) {
	switch s {
	case "none", "off":
		return RepeatModeNone, true
	case "single", "one", "track":
		return RepeatModeSingle, true
	case "all", "queue":
		return RepeatModeAll, true
	default:
		return RepeatModeNone, false
	}
}
