package bot

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/sync/errgroup"
)

const (
	frontIntents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsMessageContent |
		discordgo.IntentsGuildVoiceStates

	workerIntents = discordgo.IntentsGuilds | discordgo.IntentsGuildVoiceStates
)

// newSession creates an unopened session for token with the given intents.
func newSession(token string, intents discordgo.Intent) (*discordgo.Session, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}
	session.Identify.Intents = intents
	return session, nil
}

// newWorkerSession creates an unopened worker session. Its event handlers run
// in gateway order so voice updates reach the audio backend as Discord sent them.
func newWorkerSession(token string) (*discordgo.Session, error) {
	session, err := newSession(token, workerIntents)
	if err != nil {
		return nil, err
	}
	session.SyncEvents = true
	return session, nil
}

// openSessions opens all sessions concurrently.
// If any session fails to open, the ones that did open are closed again.
func openSessions(ctx context.Context, sessions []*discordgo.Session) error {
	g, ctx := errgroup.WithContext(ctx)

	opened := make([]bool, len(sessions))
	for i, session := range sessions {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := session.Open(); err != nil {
				return fmt.Errorf("failed to open session %d: %w", i, err)
			}
			opened[i] = true
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		for i, session := range sessions {
			if opened[i] {
				_ = session.Close()
			}
		}
		return err
	}
	return nil
}

// closeSessions closes all sessions concurrently and returns the first error.
func closeSessions(sessions []*discordgo.Session) error {
	var g errgroup.Group
	for _, session := range sessions {
		if session == nil {
			continue
		}
		g.Go(func() error {
			if err := session.Close(); err != nil {
				slog.Warn("failed to close session", "error", err)
				return err
			}
			return nil
		})
	}
	return g.Wait()
}
