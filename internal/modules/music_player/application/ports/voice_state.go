package ports

import (
	"github.com/disgoorg/snowflake/v2"
)

// VoiceStateProvider looks up gateway voice state.
type VoiceStateProvider interface {
	// UserVoiceChannel returns the voice channel the user currently occupies,
	// or zero when they are not in one.
	UserVoiceChannel(guildID, userID snowflake.ID) (snowflake.ID, error)
}
