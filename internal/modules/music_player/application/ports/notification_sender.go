package ports

import (
	"github.com/disgoorg/snowflake/v2"

	"github.com/ottersound/melobot/internal/modules/music_player/domain"
)

// NotificationSender delivers playback announcements to text channels.
type NotificationSender interface {
	SendNowPlaying(channelID snowflake.ID, track *domain.Track) error
	SendQueueAdded(channelID snowflake.ID, track *domain.Track, position int) error
	SendQueueFinished(channelID snowflake.ID) error
	SendError(channelID snowflake.ID, message string) error
}
