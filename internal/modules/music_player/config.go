package music_player

import "time"

// Config holds the music player module configuration.
type Config struct {
	LavalinkAddress  string `env:"LAVALINK_ADDRESS,notEmpty"`
	LavalinkPassword string `env:"LAVALINK_PASSWORD,notEmpty"`
	LavalinkSecure   bool   `env:"LAVALINK_SECURE" envDefault:"false"`

	VoiceConnectTimeout time.Duration `env:"VOICE_CONNECT_TIMEOUT" envDefault:"10s"`
	IdleTimeout         time.Duration `env:"IDLE_TIMEOUT" envDefault:"3m"`

	PlayRateInterval time.Duration `env:"PLAY_RATE_INTERVAL" envDefault:"2s"`
	PlayRateBurst    int           `env:"PLAY_RATE_BURST" envDefault:"3"`
}
