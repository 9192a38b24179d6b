package usecases

import (
	"context"

	"github.com/disgoorg/snowflake/v2"

	"github.com/ottersound/melobot/internal/modules/music_player/domain"
)

// PlayerService is the command surface of the music player. Each method
// targets one guild's session through the registry; the session's worker
// serializes the actual state changes.
type PlayerService struct {
	registry *SessionRegistry
}

// NewPlayerService creates a PlayerService backed by the given registry.
func NewPlayerService(registry *SessionRegistry) *PlayerService {
	return &PlayerService{registry: registry}
}

// session returns the guild's existing session or ErrNoSession. Commands that
// only make sense against live state never create a session as a side effect.
func (p *PlayerService) session(guildID snowflake.ID) (*GuildSession, error) {
	session := p.registry.Get(guildID)
	if session == nil {
		return nil, ErrNoSession
	}
	return session, nil
}

// PlayInput identifies the request to resolve and enqueue a track.
type PlayInput struct {
	GuildID       snowflake.ID
	Query         string
	RequestedBy   snowflake.ID
	RequesterName string
	// VoiceChannelID is the channel to join when not yet connected. Zero
	// reuses the last known channel; with no prior channel either, play
	// fails with domain.ErrNoPriorChannel.
	VoiceChannelID        snowflake.ID
	NotificationChannelID snowflake.ID
}

// PlayOutput reports the admitted track and its queue position.
type PlayOutput struct {
	Track    *domain.Track
	Position int
}

// Play resolves the query and appends the result to the guild's queue,
// starting playback when the session is idle. A play against an active
// session enqueues behind the current track, it never replaces it.
func (p *PlayerService) Play(ctx context.Context, input PlayInput) (*PlayOutput, error) {
	session := p.registry.GetOrCreate(input.GuildID)
	return session.play(ctx, input)
}

// PauseInput identifies the guild to pause.
type PauseInput struct {
	GuildID snowflake.ID
}

// Pause suspends frame delivery, keeping track, position and connection.
func (p *PlayerService) Pause(ctx context.Context, input PauseInput) error {
	session, err := p.session(input.GuildID)
	if err != nil {
		return err
	}
	return session.pause(ctx)
}

// ResumeInput identifies the guild to resume.
type ResumeInput struct {
	GuildID snowflake.ID
}

// Resume continues a paused session from where it left off.
func (p *PlayerService) Resume(ctx context.Context, input ResumeInput) error {
	session, err := p.session(input.GuildID)
	if err != nil {
		return err
	}
	return session.resume(ctx)
}

// SkipInput identifies the guild to skip in.
type SkipInput struct {
	GuildID snowflake.ID
}

// SkipOutput reports the interrupted track and what plays next, if anything.
type SkipOutput struct {
	Skipped *domain.Track
	Next    *domain.Track
}

// Skip discards the current track and advances to the next queued one.
func (p *PlayerService) Skip(ctx context.Context, input SkipInput) (*SkipOutput, error) {
	session, err := p.session(input.GuildID)
	if err != nil {
		return nil, err
	}
	return session.skip(ctx)
}

// StopInput identifies the guild to stop.
type StopInput struct {
	GuildID snowflake.ID
}

// StopOutput reports the interrupted track and the untouched queue length.
type StopOutput struct {
	Stopped     *domain.Track
	QueueLength int
}

// Stop halts playback and cancels pending resolutions. The queue is left
// intact for a later play.
func (p *PlayerService) Stop(ctx context.Context, input StopInput) (*StopOutput, error) {
	session, err := p.session(input.GuildID)
	if err != nil {
		return nil, err
	}
	return session.stop(ctx)
}

// SetVolumeInput carries the target volume for a guild.
type SetVolumeInput struct {
	GuildID snowflake.ID
	Level   float64 // 0.0 to 2.0; 1.0 is unity gain
}

// SetVolume changes the playback volume, effective immediately.
func (p *PlayerService) SetVolume(ctx context.Context, input SetVolumeInput) error {
	session, err := p.session(input.GuildID)
	if err != nil {
		return err
	}
	return session.setVolume(ctx, input.Level)
}

// SetLoopModeInput carries the target loop mode for a guild.
type SetLoopModeInput struct {
	GuildID snowflake.ID
	Mode    domain.LoopMode
}

// SetLoopMode sets the loop mode for subsequent track completions.
func (p *PlayerService) SetLoopMode(ctx context.Context, input SetLoopModeInput) error {
	session, err := p.session(input.GuildID)
	if err != nil {
		return err
	}
	return session.setLoopMode(ctx, input.Mode)
}

// CycleLoopModeInput identifies the guild whose loop mode to cycle.
type CycleLoopModeInput struct {
	GuildID snowflake.ID
}

// CycleLoopModeOutput reports the newly active loop mode.
type CycleLoopModeOutput struct {
	Mode domain.LoopMode
}

// CycleLoopMode advances the loop mode none -> track -> queue -> none.
func (p *PlayerService) CycleLoopMode(ctx context.Context, input CycleLoopModeInput) (*CycleLoopModeOutput, error) {
	session, err := p.session(input.GuildID)
	if err != nil {
		return nil, err
	}
	mode, err := session.cycleLoopMode(ctx)
	if err != nil {
		return nil, err
	}
	return &CycleLoopModeOutput{Mode: mode}, nil
}

// QueueListInput selects one page of a guild's queue.
type QueueListInput struct {
	GuildID  snowflake.ID
	Page     int // 1-indexed; values below 1 are treated as 1
	PageSize int // defaults to 10 when not positive
}

// QueueListOutput is one page of the queue plus the session's headline state.
type QueueListOutput struct {
	State       domain.PlaybackState
	Current     *domain.Track
	Tracks      []domain.Track
	TotalTracks int
	Page        int
	TotalPages  int
	Volume      float64
	LoopMode    domain.LoopMode
}

// QueueList returns a paginated snapshot of the guild's queue.
func (p *PlayerService) QueueList(ctx context.Context, input QueueListInput) (*QueueListOutput, error) {
	session, err := p.session(input.GuildID)
	if err != nil {
		return nil, err
	}
	snap, err := session.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	pageSize := input.PageSize
	if pageSize <= 0 {
		pageSize = 10
	}
	total := len(snap.Upcoming)
	totalPages := (total + pageSize - 1) / pageSize
	if totalPages == 0 {
		totalPages = 1
	}
	page := input.Page
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * pageSize
	end := min(start+pageSize, total)
	var tracks []domain.Track
	if start < total {
		tracks = snap.Upcoming[start:end]
	}

	return &QueueListOutput{
		State:       snap.State,
		Current:     snap.Current,
		Tracks:      tracks,
		TotalTracks: total,
		Page:        page,
		TotalPages:  totalPages,
		Volume:      snap.Volume,
		LoopMode:    snap.LoopMode,
	}, nil
}

// NowPlayingInput identifies the guild to inspect.
type NowPlayingInput struct {
	GuildID snowflake.ID
}

// NowPlayingOutput reports the session's current track and headline state.
type NowPlayingOutput struct {
	State       domain.PlaybackState
	Track       *domain.Track
	Volume      float64
	LoopMode    domain.LoopMode
	VoiceStatus domain.VoiceStatus
}

// NowPlaying returns the current track, or domain.ErrNotPlaying when idle.
func (p *PlayerService) NowPlaying(ctx context.Context, input NowPlayingInput) (*NowPlayingOutput, error) {
	session, err := p.session(input.GuildID)
	if err != nil {
		return nil, err
	}
	snap, err := session.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	if snap.Current == nil {
		return nil, domain.ErrNotPlaying
	}
	return &NowPlayingOutput{
		State:       snap.State,
		Track:       snap.Current,
		Volume:      snap.Volume,
		LoopMode:    snap.LoopMode,
		VoiceStatus: snap.VoiceStatus,
	}, nil
}

// ShuffleInput identifies the guild whose queue to shuffle.
type ShuffleInput struct {
	GuildID snowflake.ID
}

// Shuffle randomly permutes the pending queue. The current track is not part
// of the queue and is unaffected.
func (p *PlayerService) Shuffle(ctx context.Context, input ShuffleInput) error {
	session, err := p.session(input.GuildID)
	if err != nil {
		return err
	}
	return session.shuffle(ctx)
}

// RemoveInput selects one queued track by its 1-indexed position.
type RemoveInput struct {
	GuildID  snowflake.ID
	Position int
}

// RemoveOutput reports the removed track.
type RemoveOutput struct {
	Removed *domain.Track
}

// Remove deletes the track at the given position without affecting playback.
func (p *PlayerService) Remove(ctx context.Context, input RemoveInput) (*RemoveOutput, error) {
	session, err := p.session(input.GuildID)
	if err != nil {
		return nil, err
	}
	removed, err := session.removeAt(ctx, input.Position-1)
	if err != nil {
		return nil, err
	}
	return &RemoveOutput{Removed: removed}, nil
}

// MoveInput relocates one queued track between 1-indexed positions.
type MoveInput struct {
	GuildID snowflake.ID
	From    int
	To      int
}

// MoveOutput reports the relocated track and its new position.
type MoveOutput struct {
	Moved *domain.Track
	To    int
}

// Move relocates a queued track to a new position without affecting playback.
func (p *PlayerService) Move(ctx context.Context, input MoveInput) (*MoveOutput, error) {
	session, err := p.session(input.GuildID)
	if err != nil {
		return nil, err
	}
	moved, err := session.moveTrack(ctx, input.From-1, input.To-1)
	if err != nil {
		return nil, err
	}
	return &MoveOutput{Moved: moved, To: input.To}, nil
}

// ClearInput identifies the guild whose queue to clear.
type ClearInput struct {
	GuildID snowflake.ID
}

// ClearOutput reports how many tracks were discarded.
type ClearOutput struct {
	Cleared int
}

// Clear empties the pending queue. The current track keeps playing.
func (p *PlayerService) Clear(ctx context.Context, input ClearInput) (*ClearOutput, error) {
	session, err := p.session(input.GuildID)
	if err != nil {
		return nil, err
	}
	cleared, err := session.clearQueue(ctx)
	if err != nil {
		return nil, err
	}
	return &ClearOutput{Cleared: cleared}, nil
}

// LeaveInput identifies the guild whose session to tear down.
type LeaveInput struct {
	GuildID snowflake.ID
}

// Leave tears the guild's session down entirely: playback stops, the queue is
// discarded and the voice channel is left.
func (p *PlayerService) Leave(ctx context.Context, input LeaveInput) error {
	return p.registry.Teardown(ctx, input.GuildID, "leave requested")
}
