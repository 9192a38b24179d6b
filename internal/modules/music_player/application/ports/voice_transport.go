package ports

import (
	"context"

	"github.com/disgoorg/snowflake/v2"
)

// VoiceEventKind classifies asynchronous transport status changes.
type VoiceEventKind int

const (
	VoiceEventConnected VoiceEventKind = iota
	VoiceEventReconnecting
	VoiceEventDisconnected
)

// VoiceEvent reports a status change of an established voice session.
type VoiceEvent struct {
	Kind   VoiceEventKind
	Reason string
}

// VoiceSession is an established link to one guild's voice channel.
type VoiceSession interface {
	// WriteFrame submits one 20ms frame of 48kHz stereo s16le PCM. It blocks
	// while the transport buffer is full; that backpressure is flow control
	// for the caller, not a playback state change.
	WriteFrame(ctx context.Context, pcm []int16) error

	// Events delivers connection status changes. The channel is closed after
	// the session disconnects for good.
	Events() <-chan VoiceEvent

	// Disconnect tears the link down and releases transport resources.
	// Idempotent: disconnecting an already closed session is a no-op.
	Disconnect(ctx context.Context) error
}

// VoiceTransport establishes voice sessions. Connect is asynchronous under
// the hood; it returns once the link is usable or fails with a
// domain.ErrVoiceConnectFailed-wrapped error (permission denied, channel
// full, network timeout).
type VoiceTransport interface {
	Connect(ctx context.Context, guildID, channelID snowflake.ID) (VoiceSession, error)
}
