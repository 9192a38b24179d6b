package domain

import "errors"

// Named failures of the playback engine. Command handlers branch on these
// with errors.Is; infrastructure wraps its own failures around them.
var (
	// ErrInvalidTrack is returned when a track without a playable source is
	// offered to the queue.
	ErrInvalidTrack = errors.New("track has no playable source")

	// ErrIndexOutOfRange is returned by queue operations on an invalid index.
	ErrIndexOutOfRange = errors.New("queue index out of range")

	// ErrVolumeOutOfRange is returned when a volume outside [0.0, 2.0] is set.
	ErrVolumeOutOfRange = errors.New("volume must be between 0.0 and 2.0")

	// ErrVoiceConnectFailed is returned when the voice transport could not be
	// established (permissions, capacity, network, timeout).
	ErrVoiceConnectFailed = errors.New("failed to connect to voice channel")

	// ErrNoPriorChannel is returned when a connection is requested but no
	// voice channel has ever been recorded for the guild.
	ErrNoPriorChannel = errors.New("no previously joined voice channel")

	// ErrResolveTimeout is returned when track resolution exceeds its bounded
	// timeout.
	ErrResolveTimeout = errors.New("track resolution timed out")

	// ErrTransportWriteFailure is returned when an audio frame could not be
	// delivered to the voice transport.
	ErrTransportWriteFailure = errors.New("failed to write audio to voice transport")

	// ErrNotPlaying is returned when a playback control requires an active
	// track and there is none.
	ErrNotPlaying = errors.New("nothing is currently playing")

	// ErrAlreadyPaused is returned when pausing an already paused session.
	ErrAlreadyPaused = errors.New("playback is already paused")

	// ErrAlreadyPlaying is returned when a track is started while another is
	// still held by the session.
	ErrAlreadyPlaying = errors.New("a track is already playing")

	// ErrNotPaused is returned when resuming a session that is not paused.
	ErrNotPaused = errors.New("playback is not paused")
)
