package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync/atomic"
	"time"

	"github.com/disgoorg/snowflake/v2"

	"github.com/ottersound/melobot/internal/modules/music_player/application/ports"
	"github.com/ottersound/melobot/internal/modules/music_player/domain"
)

// SessionConfig bounds the I/O a guild session performs.
type SessionConfig struct {
	ResolveTimeout      time.Duration
	VoiceConnectTimeout time.Duration
}

// sessionDeps are the collaborators a guild session needs.
type sessionDeps struct {
	resolver  ports.TrackResolver
	transport ports.VoiceTransport
	publisher ports.EventPublisher
	logger    *slog.Logger
	config    SessionConfig
}

// GuildSession owns the queue, playback session and voice connection for one
// guild. All state is mutated on a single worker goroutine that consumes
// commands and transport completions in strict arrival order, so no locking
// is needed on the domain objects. Sessions of different guilds are fully
// independent.
type GuildSession struct {
	guildID snowflake.ID
	deps    sessionDeps

	queue    *domain.Queue
	playback *domain.PlaybackSession
	voice    *domain.VoiceConnection

	cmds   chan func()
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	// Worker-owned; never touched off the worker goroutine.
	sink            ports.VoiceSession
	pump            *framePump
	gen             int                // playback op generation; bumping it discards stale completions
	cancelOp        context.CancelFunc // cancels the in-flight playback op
	preparing       bool
	preparingTrack  *domain.Track
	resolves        map[int]context.CancelFunc
	nextResolveID   int
	notifyChannelID snowflake.ID

	// Read by the registry sweeper without entering the worker.
	lastActive atomic.Int64 // unix nanos of the last command or state change
	reapable   atomic.Bool  // Idle playback and empty queue
}

func newGuildSession(guildID snowflake.ID, deps sessionDeps, settings ports.GuildSettings) *GuildSession {
	ctx, cancel := context.WithCancel(context.Background())
	s := &GuildSession{
		guildID:  guildID,
		deps:     deps,
		queue:    domain.NewQueue(),
		playback: domain.NewPlaybackSession(settings.DefaultVolume, settings.DefaultLoopMode),
		voice:    domain.NewVoiceConnection(guildID),
		cmds:     make(chan func(), 64),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
		resolves: make(map[int]context.CancelFunc),
	}
	s.touch()
	s.reapable.Store(true)
	go s.run()
	return s
}

// GuildID returns the guild this session belongs to.
func (s *GuildSession) GuildID() snowflake.ID {
	return s.guildID
}

// Reapable reports whether the session holds no track and no pending queue.
// Safe from any goroutine.
func (s *GuildSession) Reapable() bool {
	return s.reapable.Load()
}

// IdleFor returns how long ago the session last saw activity. Safe from any
// goroutine.
func (s *GuildSession) IdleFor(now time.Time) time.Duration {
	return now.Sub(time.Unix(0, s.lastActive.Load()))
}

func (s *GuildSession) run() {
	defer close(s.done)
	for {
		select {
		case <-s.ctx.Done():
			return
		case fn := <-s.cmds:
			fn()
		}
	}
}

// dispatch runs fn on the worker goroutine and waits for it to finish.
func (s *GuildSession) dispatch(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	wrapped := func() {
		fn()
		close(finished)
	}
	select {
	case s.cmds <- wrapped:
	case <-ctx.Done():
		return ctx.Err()
	case <-s.ctx.Done():
		return ErrSessionClosed
	}
	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-s.done:
		return ErrSessionClosed
	}
}

// post submits fn to the worker without waiting. Used by completion
// goroutines; a post racing teardown is dropped.
func (s *GuildSession) post(fn func()) {
	select {
	case s.cmds <- fn:
	case <-s.ctx.Done():
	}
}

// close shuts the session down: cancels pending resolves, releases the
// current track, clears the queue and disconnects the voice link.
func (s *GuildSession) close(ctx context.Context, reason string) error {
	err := s.dispatch(ctx, func() { s.shutdown(reason) })
	if err != nil && !errors.Is(err, ErrSessionClosed) {
		return err
	}
	s.cancel()
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type playReply struct {
	track    *domain.Track
	position int
	err      error
}

// play resolves the query, enqueues the result and starts playback when the
// session is idle. The caller goroutine blocks until the track is admitted or
// resolution fails; the worker itself never blocks on resolution.
func (s *GuildSession) play(ctx context.Context, in PlayInput) (*PlayOutput, error) {
	reply := make(chan playReply, 1)
	if err := s.dispatch(ctx, func() { s.beginPlay(in, reply) }); err != nil {
		return nil, err
	}
	select {
	case r := <-reply:
		if r.err != nil {
			return nil, r.err
		}
		return &PlayOutput{Track: r.track, Position: r.position}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-s.done:
		return nil, ErrSessionClosed
	}
}

func (s *GuildSession) beginPlay(in PlayInput, reply chan<- playReply) {
	s.touch()
	if in.NotificationChannelID != 0 {
		s.notifyChannelID = in.NotificationChannelID
	}
	if in.VoiceChannelID != 0 {
		s.voice.ChannelID = in.VoiceChannelID
	}
	if !s.voice.HasPriorChannel() {
		reply <- playReply{err: domain.ErrNoPriorChannel}
		return
	}

	id := s.nextResolveID
	s.nextResolveID++
	rctx, cancel := context.WithTimeout(s.ctx, s.deps.config.ResolveTimeout)
	s.resolves[id] = cancel

	go func() {
		info, err := s.deps.resolver.Resolve(rctx, in.Query)
		cancel()
		s.post(func() { s.finishResolve(id, in, info, err, reply) })
	}()
}

func (s *GuildSession) finishResolve(id int, in PlayInput, info *ports.TrackInfo, err error, reply chan<- playReply) {
	if _, pending := s.resolves[id]; !pending {
		// A stop or teardown canceled this resolve; discard the result.
		reply <- playReply{err: ErrResolveCanceled}
		return
	}
	delete(s.resolves, id)
	s.touch()

	if err != nil {
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			err = fmt.Errorf("%w: %q", domain.ErrResolveTimeout, in.Query)
		case errors.Is(err, context.Canceled):
			err = ErrResolveCanceled
		}
		reply <- playReply{err: err}
		return
	}

	track := domain.NewTrack(
		domain.TrackID(info.Identifier),
		info.Title,
		info.Artist,
		info.Duration,
		info.URI,
		info.ArtworkURL,
		info.IsStream,
		info.Source,
		in.RequestedBy,
		in.RequesterName,
	)
	if err := s.queue.Enqueue(track); err != nil {
		reply <- playReply{err: err}
		return
	}

	position := s.queue.Len()
	s.deps.publisher.PublishTrackEnqueued(domain.TrackEnqueuedEvent{
		GuildID:               s.guildID,
		Track:                 track,
		Position:              position,
		NotificationChannelID: s.notifyChannelID,
	})
	reply <- playReply{track: track, position: position}

	// Auto-advance only from a fully idle session; an active or starting
	// track keeps the new one queued behind it.
	if s.playback.State() == domain.StateIdle && !s.preparing {
		s.advance()
	}
	s.updateReapable()
}

// advance dequeues the next track and starts it, or settles into idle when
// the queue is exhausted.
func (s *GuildSession) advance() {
	next, ok := s.queue.DequeueNext()
	if !ok {
		s.deps.publisher.PublishQueueEmptied(domain.QueueEmptiedEvent{
			GuildID:               s.guildID,
			NotificationChannelID: s.notifyChannelID,
		})
		s.markIdle()
		return
	}
	s.startTrack(next)
}

// startTrack kicks off the async connect+open for the given track. The
// worker stays responsive while the preparation goroutine does the I/O.
func (s *GuildSession) startTrack(track *domain.Track) {
	s.gen++
	gen := s.gen
	opCtx, cancel := context.WithCancel(s.ctx)
	s.cancelOp = cancel
	s.preparing = true
	s.preparingTrack = track
	s.updateReapable()

	sink := s.sink
	if sink == nil {
		s.voice.Status = domain.VoiceConnecting
	}
	go s.prepare(opCtx, gen, track, sink, s.voice.ChannelID)
}

func (s *GuildSession) prepare(ctx context.Context, gen int, track *domain.Track, sink ports.VoiceSession, channelID snowflake.ID) {
	if sink == nil {
		cctx, cancel := context.WithTimeout(ctx, s.deps.config.VoiceConnectTimeout)
		vs, err := s.deps.transport.Connect(cctx, s.guildID, channelID)
		cancel()
		if err != nil {
			if !errors.Is(err, domain.ErrVoiceConnectFailed) {
				err = fmt.Errorf("%w: %v", domain.ErrVoiceConnectFailed, err)
			}
			s.post(func() { s.finishPrepare(ctx, gen, track, nil, nil, err) })
			return
		}
		sink = vs
	}

	stream, err := track.Source.Open(ctx)
	if err != nil {
		s.post(func() { s.finishPrepare(ctx, gen, track, sink, nil, err) })
		return
	}
	s.post(func() { s.finishPrepare(ctx, gen, track, sink, stream, nil) })
}

func (s *GuildSession) finishPrepare(opCtx context.Context, gen int, track *domain.Track, sink ports.VoiceSession, stream domain.AudioStream, err error) {
	if gen != s.gen {
		// A skip, stop or disconnect superseded this op; release whatever the
		// stale preparation produced.
		if stream != nil {
			_ = stream.Close()
		}
		if sink != nil && sink != s.sink {
			go func() { _ = sink.Disconnect(context.Background()) }()
		}
		return
	}

	s.preparing = false
	s.preparingTrack = nil

	if err != nil {
		s.handlePrepareFailure(track, sink, err)
		return
	}

	if sink != s.sink {
		s.adoptSink(sink)
	}
	s.voice.Status = domain.VoiceConnected

	if startErr := s.playback.Start(track); startErr != nil {
		s.deps.logger.Error("refusing to start track in non-idle state",
			slog.String("guild_id", s.guildID.String()),
			slog.String("state", s.playback.State().String()),
			slog.String("error", startErr.Error()))
		_ = stream.Close()
		return
	}

	pump := newFramePump(stream, sink, s.playback.Volume())
	s.pump = pump
	go pump.run(opCtx, func(pumpErr error) {
		s.post(func() { s.handleStreamEnd(gen, pumpErr) })
	})

	s.deps.publisher.PublishTrackStarted(domain.TrackStartedEvent{
		GuildID:               s.guildID,
		Track:                 track,
		NotificationChannelID: s.notifyChannelID,
	})
	s.touch()
}

func (s *GuildSession) handlePrepareFailure(track *domain.Track, sink ports.VoiceSession, err error) {
	s.deps.publisher.PublishPlaybackError(domain.PlaybackErrorEvent{
		GuildID:               s.guildID,
		Track:                 track,
		Reason:                err.Error(),
		NotificationChannelID: s.notifyChannelID,
	})

	if errors.Is(err, domain.ErrVoiceConnectFailed) {
		// The track never got a chance; put it back at the head so a later
		// play picks it up first, and settle into idle.
		s.voice.Status = domain.VoiceDisconnected
		if qerr := s.queue.EnqueueFront(track); qerr != nil {
			s.deps.logger.Error("failed to restore track after connect failure",
				slog.String("guild_id", s.guildID.String()),
				slog.String("error", qerr.Error()))
		}
		s.markIdle()
		return
	}

	// The source failed to open: keep the connection, drop the track and try
	// the next one.
	if sink != nil && sink != s.sink {
		s.adoptSink(sink)
		s.voice.Status = domain.VoiceConnected
	}
	s.advance()
}

// adoptSink installs a freshly connected voice session and starts forwarding
// its status events onto the worker.
func (s *GuildSession) adoptSink(sink ports.VoiceSession) {
	s.sink = sink
	go s.forwardVoiceEvents(sink)
}

func (s *GuildSession) forwardVoiceEvents(sink ports.VoiceSession) {
	for event := range sink.Events() {
		event := event
		s.post(func() {
			// Events from a replaced sink are stale; only the current link
			// drives the state machine.
			if s.sink == sink {
				s.handleVoiceEvent(event)
			}
		})
	}
}

func (s *GuildSession) handleVoiceEvent(event ports.VoiceEvent) {
	switch event.Kind {
	case ports.VoiceEventReconnecting:
		s.voice.Status = domain.VoiceReconnecting
	case ports.VoiceEventConnected:
		s.voice.Status = domain.VoiceConnected
	case ports.VoiceEventDisconnected:
		s.handleVoiceDrop(event.Reason)
	}
}

// handleVoiceDrop reacts to an unrequested loss of the voice link: the
// current track is abandoned, the queue is preserved for a later reconnect.
func (s *GuildSession) handleVoiceDrop(reason string) {
	s.gen++
	if s.cancelOp != nil {
		s.cancelOp()
		s.cancelOp = nil
	}
	s.pump = nil
	s.preparing = false
	s.preparingTrack = nil
	s.sink = nil
	s.voice.Status = domain.VoiceDisconnected
	s.playback.ForceIdle()

	s.deps.publisher.PublishVoiceDisconnected(domain.VoiceDisconnectedEvent{
		GuildID:               s.guildID,
		Reason:                reason,
		NotificationChannelID: s.notifyChannelID,
	})
	s.markIdle()
}

func (s *GuildSession) handleStreamEnd(gen int, err error) {
	if gen != s.gen {
		// Superseded by a skip, stop or disconnect; the interrupting command
		// already settled the state machine.
		return
	}
	s.pump = nil
	if s.cancelOp != nil {
		s.cancelOp()
		s.cancelOp = nil
	}

	finished := s.playback.FinishTrack()
	if finished == nil {
		return
	}
	s.touch()

	if err != nil {
		// Absorb the failure: report it, drop the track and keep the session
		// advancing. A failed track is never re-enqueued, loop mode included.
		s.deps.publisher.PublishPlaybackError(domain.PlaybackErrorEvent{
			GuildID:               s.guildID,
			Track:                 finished,
			Reason:                err.Error(),
			NotificationChannelID: s.notifyChannelID,
		})
		s.deps.publisher.PublishTrackEnded(domain.TrackEndedEvent{
			GuildID:               s.guildID,
			Track:                 finished,
			Reason:                domain.TrackEndFailed,
			NotificationChannelID: s.notifyChannelID,
		})
		s.advance()
		return
	}

	s.deps.publisher.PublishTrackEnded(domain.TrackEndedEvent{
		GuildID:               s.guildID,
		Track:                 finished,
		Reason:                domain.TrackEndFinished,
		NotificationChannelID: s.notifyChannelID,
	})

	switch s.playback.LoopMode() {
	case domain.LoopModeTrack:
		_ = s.queue.EnqueueFront(finished)
	case domain.LoopModeQueue:
		_ = s.queue.Enqueue(finished)
	}
	s.advance()
}

// interruptPlayback cancels the in-flight playback op, settles the state
// machine into idle and reports the interrupted track, if any.
func (s *GuildSession) interruptPlayback(reason domain.TrackEndReason) *domain.Track {
	s.gen++
	if s.cancelOp != nil {
		s.cancelOp()
		s.cancelOp = nil
	}
	s.pump = nil

	interrupted := s.preparingTrack
	s.preparing = false
	s.preparingTrack = nil

	if s.playback.BeginStop() == nil {
		interrupted = s.playback.FinishStop()
	}
	if interrupted != nil {
		s.deps.publisher.PublishTrackEnded(domain.TrackEndedEvent{
			GuildID:               s.guildID,
			Track:                 interrupted,
			Reason:                reason,
			NotificationChannelID: s.notifyChannelID,
		})
	}
	return interrupted
}

func (s *GuildSession) skip(ctx context.Context) (*SkipOutput, error) {
	var out *SkipOutput
	var cmdErr error
	err := s.dispatch(ctx, func() {
		s.touch()
		if s.playback.Current() == nil && !s.preparing {
			cmdErr = domain.ErrNotPlaying
			return
		}
		skipped := s.interruptPlayback(domain.TrackEndSkipped)
		s.advance()
		out = &SkipOutput{Skipped: skipped, Next: s.currentOrPreparing()}
	})
	if err != nil {
		return nil, err
	}
	if cmdErr != nil {
		return nil, cmdErr
	}
	return out, nil
}

func (s *GuildSession) stop(ctx context.Context) (*StopOutput, error) {
	var out *StopOutput
	var cmdErr error
	err := s.dispatch(ctx, func() {
		s.touch()
		// Stop abandons everything in flight, resolutions included.
		for id, cancel := range s.resolves {
			cancel()
			delete(s.resolves, id)
		}
		if s.playback.Current() == nil && !s.preparing {
			cmdErr = domain.ErrNotPlaying
			return
		}
		stopped := s.interruptPlayback(domain.TrackEndStopped)
		out = &StopOutput{Stopped: stopped, QueueLength: s.queue.Len()}
		s.markIdle()
	})
	if err != nil {
		return nil, err
	}
	if cmdErr != nil {
		return nil, cmdErr
	}
	return out, nil
}

func (s *GuildSession) pause(ctx context.Context) error {
	var cmdErr error
	err := s.dispatch(ctx, func() {
		s.touch()
		if cmdErr = s.playback.Pause(); cmdErr != nil {
			return
		}
		if s.pump != nil {
			s.pump.setPaused(true)
		}
	})
	if err != nil {
		return err
	}
	return cmdErr
}

func (s *GuildSession) resume(ctx context.Context) error {
	var cmdErr error
	err := s.dispatch(ctx, func() {
		s.touch()
		if cmdErr = s.playback.Resume(); cmdErr != nil {
			return
		}
		if s.pump != nil {
			s.pump.setPaused(false)
		}
	})
	if err != nil {
		return err
	}
	return cmdErr
}

func (s *GuildSession) setVolume(ctx context.Context, level float64) error {
	var cmdErr error
	err := s.dispatch(ctx, func() {
		s.touch()
		if cmdErr = s.playback.SetVolume(level); cmdErr != nil {
			return
		}
		if s.pump != nil {
			s.pump.setVolume(level)
		}
	})
	if err != nil {
		return err
	}
	return cmdErr
}

func (s *GuildSession) setLoopMode(ctx context.Context, mode domain.LoopMode) error {
	return s.dispatch(ctx, func() {
		s.touch()
		s.playback.SetLoopMode(mode)
	})
}

func (s *GuildSession) cycleLoopMode(ctx context.Context) (domain.LoopMode, error) {
	var mode domain.LoopMode
	err := s.dispatch(ctx, func() {
		s.touch()
		mode = s.playback.CycleLoopMode()
	})
	return mode, err
}

func (s *GuildSession) shuffle(ctx context.Context) error {
	var cmdErr error
	err := s.dispatch(ctx, func() {
		s.touch()
		if s.queue.IsEmpty() {
			cmdErr = ErrQueueEmpty
			return
		}
		s.queue.Shuffle()
	})
	if err != nil {
		return err
	}
	return cmdErr
}

func (s *GuildSession) removeAt(ctx context.Context, index int) (*domain.Track, error) {
	var removed *domain.Track
	var cmdErr error
	err := s.dispatch(ctx, func() {
		s.touch()
		removed, cmdErr = s.queue.RemoveAt(index)
		s.updateReapable()
	})
	if err != nil {
		return nil, err
	}
	return removed, cmdErr
}

func (s *GuildSession) moveTrack(ctx context.Context, from, to int) (*domain.Track, error) {
	var moved *domain.Track
	var cmdErr error
	err := s.dispatch(ctx, func() {
		s.touch()
		moved, cmdErr = s.queue.Move(from, to)
	})
	if err != nil {
		return nil, err
	}
	return moved, cmdErr
}

func (s *GuildSession) clearQueue(ctx context.Context) (int, error) {
	var cleared int
	err := s.dispatch(ctx, func() {
		s.touch()
		cleared = s.queue.Clear()
		s.updateReapable()
	})
	return cleared, err
}

// QueueSnapshot is a point-in-time copy of the session's visible state.
type QueueSnapshot struct {
	State       domain.PlaybackState
	Current     *domain.Track
	Upcoming    []domain.Track
	Volume      float64
	LoopMode    domain.LoopMode
	VoiceStatus domain.VoiceStatus
}

func (s *GuildSession) snapshot(ctx context.Context) (*QueueSnapshot, error) {
	var snap QueueSnapshot
	err := s.dispatch(ctx, func() {
		snap = QueueSnapshot{
			State:       s.playback.State(),
			Current:     s.currentOrPreparing(),
			Upcoming:    slices.Collect(s.queue.Peek(s.queue.Len())),
			Volume:      s.playback.Volume(),
			LoopMode:    s.playback.LoopMode(),
			VoiceStatus: s.voice.Status,
		}
	})
	if err != nil {
		return nil, err
	}
	return &snap, nil
}

// currentOrPreparing returns the track occupying the session, whether already
// playing or still connecting/opening.
func (s *GuildSession) currentOrPreparing() *domain.Track {
	if t := s.playback.Current(); t != nil {
		return t
	}
	return s.preparingTrack
}

// shutdown runs on the worker as the final command before the loop exits.
func (s *GuildSession) shutdown(reason string) {
	for id, cancel := range s.resolves {
		cancel()
		delete(s.resolves, id)
	}
	s.interruptPlayback(domain.TrackEndStopped)
	s.queue.Clear()

	if s.sink != nil {
		sink := s.sink
		s.sink = nil
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := sink.Disconnect(dctx); err != nil {
			s.deps.logger.Warn("voice disconnect during session teardown failed",
				slog.String("guild_id", s.guildID.String()),
				slog.String("error", err.Error()))
		}
		s.voice.Status = domain.VoiceDisconnected
		s.deps.publisher.PublishVoiceDisconnected(domain.VoiceDisconnectedEvent{
			GuildID:               s.guildID,
			Reason:                reason,
			NotificationChannelID: s.notifyChannelID,
		})
	}
	s.markIdle()
}

func (s *GuildSession) touch() {
	s.lastActive.Store(time.Now().UnixNano())
	s.updateReapable()
}

func (s *GuildSession) markIdle() {
	s.voice.MarkIdle(time.Now().UTC())
	s.lastActive.Store(time.Now().UnixNano())
	s.updateReapable()
}

func (s *GuildSession) updateReapable() {
	s.reapable.Store(s.playback.State() == domain.StateIdle && !s.preparing && s.queue.IsEmpty())
}
