package bot

import (
	"log/slog"

	"github.com/caarlos0/env/v11"
)

// Config holds the core bot configuration, read from the environment.
type Config struct {
	DiscordToken string `env:"DISCORD_TOKEN,notEmpty"`

	// CommandGuildID scopes slash command registration to a single guild,
	// which Discord applies instantly. Empty registers commands globally;
	// global propagation can take up to an hour.
	CommandGuildID string `env:"DISCORD_COMMAND_GUILD_ID"`

	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"info"`
}

// LoadConfig reads the bot configuration from environment variables and fails
// when a required value is missing.
func LoadConfig() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
