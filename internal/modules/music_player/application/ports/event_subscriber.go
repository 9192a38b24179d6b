package ports

import (
	"context"

	"github.com/ottersound/melobot/internal/modules/music_player/domain"
)

// EventSubscriber registers handlers for playback events. Handlers run on
// the bus's dispatcher goroutines, never on a guild worker.
type EventSubscriber interface {
	OnTrackEnqueued(handler func(context.Context, domain.TrackEnqueuedEvent))
	OnTrackStarted(handler func(context.Context, domain.TrackStartedEvent))
	OnTrackEnded(handler func(context.Context, domain.TrackEndedEvent))
	OnQueueEmptied(handler func(context.Context, domain.QueueEmptiedEvent))
	OnPlaybackError(handler func(context.Context, domain.PlaybackErrorEvent))
	OnVoiceDisconnected(handler func(context.Context, domain.VoiceDisconnectedEvent))
}
