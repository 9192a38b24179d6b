package usecases

import (
	"github.com/ottersound/melobot/internal/modules/music_player/domain"
)

// Re-export domain types for presentation layer use. This allows
// presentation to depend only on usecases without importing domain directly.

// Track is an alias for domain.Track.
type Track = domain.Track

// TrackID is an alias for domain.TrackID.
type TrackID = domain.TrackID

// LoopMode is an alias for domain.LoopMode.
type LoopMode = domain.LoopMode

// PlaybackState is an alias for domain.PlaybackState.
type PlaybackState = domain.PlaybackState
