package domain

// ResolveOutcome is the single result of resolving a query.
// It is one of SingleTrackResolved, PlaylistResolved, NoMatches or ResolutionFailed.
type ResolveOutcome interface {
	isResolveOutcome()
}

// SingleTrackResolved means the query produced one track.
type SingleTrackResolved struct {
	Track    Track
	Metadata RequestMetadata
}

// PlaylistResolved means the query produced a playlist. Tracks is never empty.
type PlaylistResolved struct {
	Name          string
	Tracks        []Track
	SelectedIndex int // -1 when the playlist has no selected track
	Metadata      RequestMetadata
}

// NoMatches means the query was understood but nothing was found.
type NoMatches struct {
	Query string
}

// ResolutionFailed means the backend reported an error. Reason is shown to the user verbatim.
type ResolutionFailed struct {
	Reason string
}

func (SingleTrackResolved) isResolveOutcome() {}
func (PlaylistResolved) isResolveOutcome() {}
func (NoMatches) isResolveOutcome() {}
func (ResolutionFailed) isResolveOutcome() {}

// Selected returns the playlist's selected track, or its first track when none
// is selected or the selection is out of range.
func (p PlaylistResolved) Selected() Track {
	if 0 <= p.SelectedIndex && p.SelectedIndex < len(p.Tracks) {
		return p.Tracks[p.SelectedIndex]
	}
	return p.Tracks[0]
}
