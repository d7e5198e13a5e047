package music_player

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/sglre6355/jukebot/internal/modules/music_player/domain"
)

// Track resolvers selectable with MUSIC_RESOLVER.
const (
	ResolverLavalink = "lavalink"
	ResolverYtdlp    = "ytdlp"
)

// Config holds the music player module configuration.
type Config struct {
	LavalinkAddress  string `env:"LAVALINK_ADDRESS,notEmpty"`
	LavalinkPassword string `env:"LAVALINK_PASSWORD,notEmpty"`
	LavalinkSecure   bool   `env:"LAVALINK_SECURE" envDefault:"false"`

	Resolver     string `env:"MUSIC_RESOLVER" envDefault:"lavalink"`
	SearchSource string `env:"MUSIC_SEARCH_SOURCE" envDefault:"youtube"`
	YoutubeProxy string `env:"YOUTUBE_PROXY"`

	CommandPrefix     string        `env:"MUSIC_COMMAND_PREFIX" envDefault:"!"`
	IdleTimeout       time.Duration `env:"MUSIC_IDLE_TIMEOUT" envDefault:"5m"`
	DefaultLoop       bool          `env:"MUSIC_DEFAULT_LOOP" envDefault:"true"`
	ShuffleOnCreate   bool          `env:"MUSIC_SHUFFLE_ON_CREATE" envDefault:"true"`
	ExclusivePlaylist bool          `env:"MUSIC_EXCLUSIVE_PLAYLIST" envDefault:"false"`
	PlaylistLimit     int           `env:"MUSIC_PLAYLIST_LIMIT" envDefault:"200"`
	PanelEditsPerSec  float64       `env:"MUSIC_PANEL_EDITS_PER_SECOND" envDefault:"1"`

	// StatusAddr is where the status API listens; empty disables it.
	StatusAddr string `env:"MUSIC_STATUS_ADDR"`
}

// LoadConfig parses the music player configuration from environment variables.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	switch cfg.Resolver {
	case ResolverLavalink, ResolverYtdlp:
	default:
		return nil, fmt.Errorf("unknown MUSIC_RESOLVER %q", cfg.Resolver)
	}
	if cfg.IdleTimeout <= 0 {
		return nil, fmt.Errorf("MUSIC_IDLE_TIMEOUT must be positive, got %s", cfg.IdleTimeout)
	}
	if cfg.PlaylistLimit < 0 {
		return nil, fmt.Errorf("MUSIC_PLAYLIST_LIMIT must not be negative, got %d", cfg.PlaylistLimit)
	}

	return cfg, nil
}

// Source returns the configured free-text search source.
func (c *Config) Source() domain.SearchSource {
	return domain.ParseSearchSource(c.SearchSource)
}
