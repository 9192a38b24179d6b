package ports

import "github.com/ottersound/melobot/internal/modules/music_player/domain"

// EventPublisher publishes playback events asynchronously. Publishing never
// blocks the guild worker; implementations drop on overflow.
type EventPublisher interface {
	PublishTrackEnqueued(event domain.TrackEnqueuedEvent)
	PublishTrackStarted(event domain.TrackStartedEvent)
	PublishTrackEnded(event domain.TrackEndedEvent)
	PublishQueueEmptied(event domain.QueueEmptiedEvent)
	PublishPlaybackError(event domain.PlaybackErrorEvent)
	PublishVoiceDisconnected(event domain.VoiceDisconnectedEvent)
}
