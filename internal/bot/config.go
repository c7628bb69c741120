package bot

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the bot configuration loaded from environment variables.
type Config struct {
	DiscordToken  string     `env:"DISCORD_TOKEN,notEmpty"`
	WorkerTokens  []string   `env:"WORKER_TOKENS,notEmpty" envSeparator:","`
	CommandPrefix string     `env:"COMMAND_PREFIX" envDefault:"!"`
	LogLevel      slog.Level `env:"LOG_LEVEL" envDefault:"info"`
}

// LoadDotEnv loads variables from a .env file in the working directory.
// A missing file is not an error. Variables already set in the environment win.
func LoadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

// LoadConfig loads configuration from environment variables.
// Returns an error if required fields are missing.
func LoadConfig() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	tokens := make([]string, 0, len(cfg.WorkerTokens))
	for _, token := range cfg.WorkerTokens {
		if token = strings.TrimSpace(token); token != "" {
			tokens = append(tokens, token)
		}
	}
	if len(tokens) == 0 {
		return nil, errors.New("WORKER_TOKENS must contain at least one token")
	}
	cfg.WorkerTokens = tokens

	if strings.TrimSpace(cfg.CommandPrefix) == "" {
		return nil, errors.New("COMMAND_PREFIX must not be blank")
	}

	return cfg, nil
}
