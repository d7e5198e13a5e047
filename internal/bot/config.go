package bot

import (
	"log/slog"

	"github.com/caarlos0/env/v11"
)

// Config is the process-wide configuration. Module settings live with each module.
type Config struct {
	DiscordToken string     `env:"DISCORD_TOKEN,notEmpty"`
	LogLevel     slog.Level `env:"LOG_LEVEL" envDefault:"info"`

	// CommandGuildID scopes slash commands to one guild, where updates apply
	// immediately. Empty registers them globally.
	CommandGuildID string `env:"DISCORD_COMMAND_GUILD_ID"`
}

func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
