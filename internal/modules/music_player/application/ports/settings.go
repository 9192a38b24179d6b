package ports

import (
	"github.com/disgoorg/snowflake/v2"

	"github.com/ottersound/melobot/internal/modules/music_player/domain"
)

// GuildSettings are the per-guild defaults read once at session creation.
// Persistence of these values is an external collaborator's concern.
type GuildSettings struct {
	DefaultVolume   float64
	DefaultLoopMode domain.LoopMode
}

// SettingsProvider supplies guild defaults.
type SettingsProvider interface {
	GuildSettings(guildID snowflake.ID) GuildSettings
}
