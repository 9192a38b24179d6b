package infrastructure

import (
	"github.com/disgoorg/snowflake/v2"

	"github.com/ottersound/melobot/internal/modules/music_player/application/ports"
	"github.com/ottersound/melobot/internal/modules/music_player/domain"
)

// Ensure StaticSettingsProvider implements ports.SettingsProvider.
var _ ports.SettingsProvider = (*StaticSettingsProvider)(nil)

// StaticSettingsProvider serves the same configured defaults to every guild.
type StaticSettingsProvider struct {
	defaults ports.GuildSettings
}

// NewStaticSettingsProvider creates a provider with the given defaults. An
// unknown loop mode name falls back to none.
func NewStaticSettingsProvider(defaultVolume float64, defaultLoopMode string) *StaticSettingsProvider {
	return &StaticSettingsProvider{
		defaults: ports.GuildSettings{
			DefaultVolume:   defaultVolume,
			DefaultLoopMode: domain.ParseLoopMode(defaultLoopMode),
		},
	}
}

// GuildSettings returns the configured defaults.
func (p *StaticSettingsProvider) GuildSettings(snowflake.ID) ports.GuildSettings {
	return p.defaults
}
