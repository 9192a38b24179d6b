package domain

import (
	"context"
	"strconv"
	"time"

	"github.com/disgoorg/snowflake/v2"
)

// TrackID is a unique identifier for a resolved track.
type TrackID string

// AudioStream delivers interleaved 48kHz stereo s16le PCM, one 20ms frame
// (960 samples per channel) per ReadFrame call. ReadFrame returns io.EOF
// when the source ends naturally.
type AudioStream interface {
	ReadFrame() ([]int16, error)
	Close() error
}

// AudioSource is the playable handle attached to a resolved track. Open may
// perform I/O and must honor ctx cancellation.
type AudioSource interface {
	Open(ctx context.Context) (AudioStream, error)

	// Seekable reports whether the source can resume from an arbitrary
	// position. Pausing keeps the open stream in place, so resume normally
	// continues where it left off; a non-seekable source whose stream has
	// been invalidated can only be reopened from the beginning.
	Seekable() bool
}

// Track represents a playable audio item. Immutable once enqueued; ownership
// moves from the queue to the playback session when it becomes current.
type Track struct {
	ID            TrackID
	Title         string
	Artist        string
	Duration      time.Duration // zero when unknown
	URI           string
	ArtworkURL    string
	IsStream      bool
	Source        AudioSource
	RequestedBy   snowflake.ID
	RequesterName string
	EnqueuedAt    time.Time
}

// NewTrack creates a Track stamped with the current time.
func NewTrack(
	id TrackID,
	title string,
	artist string,
	duration time.Duration,
	uri string,
	artworkURL string,
	isStream bool,
	source AudioSource,
	requestedBy snowflake.ID,
	requesterName string,
) *Track {
	return &Track{
		ID:            id,
		Title:         title,
		Artist:        artist,
		Duration:      duration,
		URI:           uri,
		ArtworkURL:    artworkURL,
		IsStream:      isStream,
		Source:        source,
		RequestedBy:   requestedBy,
		RequesterName: requesterName,
		EnqueuedAt:    time.Now().UTC(),
	}
}

// IsValid reports whether the track carries the minimum required fields,
// most importantly a resolved audio source.
func (t *Track) IsValid() bool {
	return t != nil && t.Title != "" && t.Source != nil
}

// FormattedDuration returns the duration as mm:ss or hh:mm:ss, or "LIVE" for
// live streams.
func (t *Track) FormattedDuration() string {
	if t.IsStream {
		return "LIVE"
	}

	totalSeconds := int(t.Duration.Seconds())
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60

	if hours > 0 {
		return pad(hours) + ":" + pad(minutes) + ":" + pad(seconds)
	}
	return pad(minutes) + ":" + pad(seconds)
}

func pad(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}
