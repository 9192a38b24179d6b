package domain

// LoopMode is the policy for re-enqueuing tracks on natural completion.
type LoopMode int

const (
	LoopModeNone  LoopMode = iota // Default: no looping
	LoopModeTrack                 // Replay the current track indefinitely
	LoopModeQueue                 // Append finished tracks back to the queue tail
)

// String returns a human-readable representation of the loop mode.
func (m LoopMode) String() string {
	switch m {
	case LoopModeTrack:
		return "track"
	case LoopModeQueue:
		return "queue"
	default:
		return "none"
	}
}

// ParseLoopMode converts a string to a LoopMode. Unknown values map to
// LoopModeNone.
func ParseLoopMode(s string) LoopMode {
	switch s {
	case "track":
		return LoopModeTrack
	case "queue":
		return LoopModeQueue
	default:
		return LoopModeNone
	}
}
