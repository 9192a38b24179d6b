package domain

import (
	"github.com/disgoorg/snowflake/v2"
)

// TrackEndReason describes why a track stopped occupying the session.
type TrackEndReason string

const (
	// TrackEndFinished means the stream ended naturally.
	TrackEndFinished TrackEndReason = "finished"
	// TrackEndSkipped means a skip command interrupted the track.
	TrackEndSkipped TrackEndReason = "skipped"
	// TrackEndStopped means a stop command interrupted the track.
	TrackEndStopped TrackEndReason = "stopped"
	// TrackEndFailed means the stream ended with an error.
	TrackEndFailed TrackEndReason = "failed"
)

// TrackEnqueuedEvent is published when a track is admitted to a queue.
type TrackEnqueuedEvent struct {
	GuildID               snowflake.ID
	Track                 *Track
	Position              int // 1-indexed position in the queue at admission
	NotificationChannelID snowflake.ID
}

// TrackStartedEvent is published when a track begins playing.
type TrackStartedEvent struct {
	GuildID               snowflake.ID
	Track                 *Track
	NotificationChannelID snowflake.ID
}

// TrackEndedEvent is published when the current track is released.
type TrackEndedEvent struct {
	GuildID               snowflake.ID
	Track                 *Track
	Reason                TrackEndReason
	NotificationChannelID snowflake.ID
}

// QueueEmptiedEvent is published when an advance finds the queue empty.
type QueueEmptiedEvent struct {
	GuildID               snowflake.ID
	NotificationChannelID snowflake.ID
}

// PlaybackErrorEvent is published when a resolver or transport failure is
// absorbed during active playback. The failed track is dropped, never
// re-enqueued.
type PlaybackErrorEvent struct {
	GuildID               snowflake.ID
	Track                 *Track // may be nil when the failure precedes a track
	Reason                string
	NotificationChannelID snowflake.ID
}

// VoiceDisconnectedEvent is published when the voice link drops, whether
// requested or unexpected.
type VoiceDisconnectedEvent struct {
	GuildID               snowflake.ID
	Reason                string
	NotificationChannelID snowflake.ID
}
