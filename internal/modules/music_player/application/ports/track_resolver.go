package ports

import (
	"context"
	"time"

	"github.com/ottersound/melobot/internal/modules/music_player/domain"
)

// TrackInfo describes a resolved, playable track before it is bound to a
// requester and admitted to a queue.
type TrackInfo struct {
	Identifier string
	Title      string
	Artist     string
	Duration   time.Duration
	URI        string
	ArtworkURL string
	IsStream   bool
	Source     domain.AudioSource
}

// TrackResolver turns a search query or URL into a playable track
// descriptor. Resolution may take arbitrary time and must honor ctx
// cancellation; callers bound it with a timeout.
type TrackResolver interface {
	Resolve(ctx context.Context, query string) (*TrackInfo, error)
}
