package discord

import (
	"errors"
	"fmt"
	"strings"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/sgrfleet/internal/modules/music_player/application/usecases"
	"github.com/sglre6355/sgrfleet/internal/modules/music_player/domain"
)

const (
	msgTooFast       = "you're sending requests too quickly"
	msgVoiceConnect  = "failed to join your voice channel"
	msgInvalidRemove = "please provide a queue position, e.g. `remove 2`"
	msgInvalidRepeat = "repeat mode must be one of `none`, `single` or `all`"
	msgQueueEmpty    = "the queue is empty"
	msgStopped       = "stopped playback and left the channel"
	msgPaused        = "paused playback"
	msgResumed       = "resumed playback"
	msgLoadFailed    = "could not load track"
	maxQueueLines    = 10
)

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"*", `\*`,
	"_", `\_`,
	"~", `\~`,
	"`", "\\`",
	"|", `\|`,
)

// bold renders s in bold with its own markdown escaped.
func bold(s string) string {
	return "**" + markdownEscaper.Replace(s) + "**"
}

// playMessage describes the outcome of a successful play request.
func playMessage(out *usecases.PlayOutput) string {
	title := bold(out.Track.Title)
	if !out.Track.IsStream {
		title += fmt.Sprintf(" (`%s`)", out.Track.FormattedDuration())
	}

	var sb strings.Builder
	if out.PlayingNow {
		fmt.Fprintf(&sb, "now playing %s", title)
	} else {
		// Position 0 is the next track to play.
		fmt.Fprintf(&sb, "added %s to queue at position %d", title, out.Position+1)
	}
	if out.PlaylistName != "" {
		fmt.Fprintf(&sb, " (from playlist %s, %d tracks)", bold(out.PlaylistName), out.PlaylistSize)
	}
	return sb.String()
}

// errorMessage maps a use case error to the text shown to the requester.
// The second return value is false for errors that are not meant for users.
func errorMessage(err error, query string) (string, bool) {
	var failed *usecases.ResolutionFailedError
	switch {
	case errors.As(err, &failed):
		if strings.TrimSpace(failed.Reason) == "" {
			return msgLoadFailed, true
		}
		return failed.Reason, true
	case errors.Is(err, usecases.ErrNoMatches):
		return fmt.Sprintf("no matches found for `%s`", strings.ReplaceAll(query, "`", "'")), true
	case errors.Is(err, usecases.ErrVoiceConnect):
		return msgVoiceConnect, true
	case errors.Is(err, usecases.ErrNoAvailableWorker),
		errors.Is(err, usecases.ErrRequesterNotInVoice),
		errors.Is(err, usecases.ErrEmptyQuery),
		errors.Is(err, usecases.ErrNotConnected),
		errors.Is(err, usecases.ErrNothingPlaying),
		errors.Is(err, usecases.ErrInvalidPosition),
		errors.Is(err, usecases.ErrConnectInProgress):
		return err.Error(), true
	default:
		return "", false
	}
}

func skipMessage(out *usecases.SkipOutput) string {
	msg := "skipped " + bold(out.SkippedTrack.Track.Title)
	if out.NextTrack != nil {
		msg += ", now playing " + bold(out.NextTrack.Track.Title)
	}
	return msg
}

func removeMessage(removed *domain.QueuedTrack) string {
	return "removed " + bold(removed.Track.Title)
}

func clearMessage(n int) string {
	if n == 1 {
		return "cleared 1 track from the queue"
	}
	return fmt.Sprintf("cleared %d tracks from the queue", n)
}

func repeatMessage(mode domain.RepeatMode) string {
	return fmt.Sprintf("repeat mode set to `%s`", mode)
}

// queueMessage lists the current track and the first upcoming entries.
// List numbers escape their period so Discord does not renumber them.
func queueMessage(workerName string, snap *usecases.QueueSnapshot) string {
	if snap.Current == nil && len(snap.Upcoming) == 0 {
		return msgQueueEmpty
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s in <#%d>, repeat `%s`\n", bold(workerName), snap.VoiceChannelID, snap.RepeatMode)
	if snap.Current != nil {
		fmt.Fprintf(&sb, "now playing: %s", bold(snap.Current.Track.Title))
		if !snap.Current.Track.IsStream {
			fmt.Fprintf(&sb, " (%s)", snap.Current.Track.FormattedDuration())
		}
		sb.WriteString("\n")
	}
	for i, entry := range snap.Upcoming {
		if i == maxQueueLines {
			fmt.Fprintf(&sb, "...and %d more\n", len(snap.Upcoming)-maxQueueLines)
			break
		}
		fmt.Fprintf(&sb, "%d\\. %s - %s\n", i+1, bold(entry.Track.Title), markdownEscaper.Replace(entry.Track.Artist))
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

// workersMessage lists every worker with its voice state in the guild.
func workersMessage(guildID snowflake.ID, workers []*usecases.Worker) string {
	if len(workers) == 0 {
		return "no workers are configured"
	}

	var sb strings.Builder
	for _, w := range workers {
		fmt.Fprintf(&sb, "%s: %s\n", bold(w.Name()), workerState(guildID, w))
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

func workerState(guildID snowflake.ID, w *usecases.Worker) string {
	if !w.IsMember(guildID) {
		return "not in this server"
	}

	switch state := w.State(guildID); state {
	case domain.VoiceDisconnected:
		return "idle"
	case domain.VoiceConnected:
		return fmt.Sprintf("connected to <#%d>", w.Session(guildID).ChannelID())
	default:
		return state.String()
	}
}
