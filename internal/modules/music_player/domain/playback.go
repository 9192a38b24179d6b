package domain

// PlaybackState is the state of a guild's playback session.
type PlaybackState int

const (
	StateIdle     PlaybackState = iota // no current track; queue may be non-empty
	StatePlaying                       // frames are being delivered
	StatePaused                        // frame delivery suspended, connection kept
	StateStopping                      // transient while resources are released
)

// String returns a human-readable representation of the state.
func (s PlaybackState) String() string {
	switch s {
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	case StateStopping:
		return "stopping"
	default:
		return "idle"
	}
}

// PlaybackSession holds the single active playback session for one guild.
// Created lazily, mutated only by the guild worker. Initial state is Idle;
// Idle is re-entered after every track.
type PlaybackSession struct {
	state    PlaybackState
	current  *Track
	volume   float64
	loopMode LoopMode
}

// NewPlaybackSession creates an Idle session with the given defaults. An out
// of range default volume is clamped into [0, 2].
func NewPlaybackSession(defaultVolume float64, defaultLoop LoopMode) *PlaybackSession {
	return &PlaybackSession{
		state:    StateIdle,
		volume:   clampVolume(defaultVolume),
		loopMode: defaultLoop,
	}
}

// State returns the current playback state.
func (p *PlaybackSession) State() PlaybackState {
	return p.state
}

// Current returns the currently held track, or nil when Idle.
func (p *PlaybackSession) Current() *Track {
	return p.current
}

// Volume returns the current volume in [0.0, 2.0].
func (p *PlaybackSession) Volume() float64 {
	return p.volume
}

// SetVolume sets the volume. Returns ErrVolumeOutOfRange outside [0.0, 2.0].
func (p *PlaybackSession) SetVolume(v float64) error {
	if v < 0.0 || v > 2.0 {
		return ErrVolumeOutOfRange
	}
	p.volume = v
	return nil
}

// LoopMode returns the current loop mode.
func (p *PlaybackSession) LoopMode() LoopMode {
	return p.loopMode
}

// SetLoopMode sets the loop mode.
func (p *PlaybackSession) SetLoopMode(mode LoopMode) {
	p.loopMode = mode
}

// CycleLoopMode cycles none -> track -> queue -> none and returns the new
// mode.
func (p *PlaybackSession) CycleLoopMode() LoopMode {
	switch p.loopMode {
	case LoopModeNone:
		p.loopMode = LoopModeTrack
	case LoopModeTrack:
		p.loopMode = LoopModeQueue
	default:
		p.loopMode = LoopModeNone
	}
	return p.loopMode
}

// Start transitions Idle -> Playing with the given track. Returns
// ErrNotPlaying-adjacent failures for invalid transitions: starting while a
// track is already held is a programming error surfaced as ErrAlreadyPlaying.
func (p *PlaybackSession) Start(t *Track) error {
	if !t.IsValid() {
		return ErrInvalidTrack
	}
	if p.state != StateIdle {
		return ErrAlreadyPlaying
	}
	p.current = t
	p.state = StatePlaying
	return nil
}

// Pause transitions Playing -> Paused.
func (p *PlaybackSession) Pause() error {
	switch p.state {
	case StatePaused:
		return ErrAlreadyPaused
	case StatePlaying:
		p.state = StatePaused
		return nil
	default:
		return ErrNotPlaying
	}
}

// Resume transitions Paused -> Playing.
func (p *PlaybackSession) Resume() error {
	switch p.state {
	case StatePlaying:
		return ErrNotPaused
	case StatePaused:
		p.state = StatePlaying
		return nil
	default:
		return ErrNotPlaying
	}
}

// BeginStop transitions Playing or Paused -> Stopping. The current track is
// kept until FinishStop so callers can report what was interrupted.
func (p *PlaybackSession) BeginStop() error {
	if p.state != StatePlaying && p.state != StatePaused {
		return ErrNotPlaying
	}
	p.state = StateStopping
	return nil
}

// FinishStop completes Stopping -> Idle and returns the released track.
func (p *PlaybackSession) FinishStop() *Track {
	t := p.current
	p.current = nil
	p.state = StateIdle
	return t
}

// FinishTrack transitions Playing or Paused -> Idle when the stream ends,
// naturally or with an error, and returns the finished track.
func (p *PlaybackSession) FinishTrack() *Track {
	t := p.current
	p.current = nil
	p.state = StateIdle
	return t
}

// ForceIdle drops the current track and enters Idle from any state. Used
// when the voice connection is lost: the track is abandoned, not re-queued.
func (p *PlaybackSession) ForceIdle() *Track {
	t := p.current
	p.current = nil
	p.state = StateIdle
	return t
}

func clampVolume(v float64) float64 {
	if v < 0.0 {
		return 0.0
	}
	if v > 2.0 {
		return 2.0
	}
	return v
}
