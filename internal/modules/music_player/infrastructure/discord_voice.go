package infrastructure

import (
	"context"
	"fmt"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"layeh.com/gopus"

	"github.com/ottersound/melobot/internal/modules/music_player/application/ports"
	"github.com/ottersound/melobot/internal/modules/music_player/domain"
)

// maxOpusBytes bounds one encoded opus frame.
const maxOpusBytes = (pcmFrameSize * 2) * 2

// Compile-time check that DiscordVoiceTransport implements ports.VoiceTransport.
var _ ports.VoiceTransport = (*DiscordVoiceTransport)(nil)

// DiscordVoiceTransport establishes voice sessions over the Discord gateway.
// It tracks live sessions per guild so gateway voice state updates can be
// routed to the affected session.
type DiscordVoiceTransport struct {
	session *discordgo.Session

	mu       sync.Mutex
	sessions map[snowflake.ID]*discordVoiceSession
}

// NewDiscordVoiceTransport creates a transport bound to the gateway session
// and registers the voice state hook that detects involuntary disconnects.
func NewDiscordVoiceTransport(session *discordgo.Session) *DiscordVoiceTransport {
	t := &DiscordVoiceTransport{
		session:  session,
		sessions: make(map[snowflake.ID]*discordVoiceSession),
	}
	session.AddHandler(t.handleVoiceStateUpdate)
	return t
}

// Connect joins the voice channel and returns a usable session. discordgo's
// join is synchronous with its own internal timeout; ctx adds the caller's
// bound on top, abandoning (and cleaning up) a join that outlives it.
func (t *DiscordVoiceTransport) Connect(ctx context.Context, guildID, channelID snowflake.ID) (ports.VoiceSession, error) {
	type joinResult struct {
		vc  *discordgo.VoiceConnection
		err error
	}
	joined := make(chan joinResult, 1)
	go func() {
		vc, err := t.session.ChannelVoiceJoin(guildID.String(), channelID.String(), false, true)
		joined <- joinResult{vc: vc, err: err}
	}()

	select {
	case result := <-joined:
		if result.err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrVoiceConnectFailed, result.err)
		}
		encoder, err := gopus.NewEncoder(pcmSampleRate, pcmChannels, gopus.Audio)
		if err != nil {
			_ = result.vc.Disconnect()
			return nil, fmt.Errorf("%w: opus encoder: %v", domain.ErrVoiceConnectFailed, err)
		}
		vs := &discordVoiceSession{
			vc:      result.vc,
			encoder: encoder,
			events:  make(chan ports.VoiceEvent, 4),
		}
		vs.untrack = func() { t.forget(guildID, vs) }
		t.mu.Lock()
		prev := t.sessions[guildID]
		t.sessions[guildID] = vs
		t.mu.Unlock()
		if prev != nil {
			// A superseded session was never disconnected; retire it so its
			// deferred teardown cannot race the new registration.
			go func() { _ = prev.Disconnect(context.Background()) }()
		}
		return vs, nil
	case <-ctx.Done():
		go func() {
			if result := <-joined; result.err == nil {
				_ = result.vc.Disconnect()
			}
		}()
		return nil, fmt.Errorf("%w: %v", domain.ErrVoiceConnectFailed, ctx.Err())
	}
}

// forget drops the guild's registration only when it still points at vs. A
// stale session's late teardown must not evict a newer registration.
func (t *DiscordVoiceTransport) forget(guildID snowflake.ID, vs *discordVoiceSession) {
	t.mu.Lock()
	if t.sessions[guildID] == vs {
		delete(t.sessions, guildID)
	}
	t.mu.Unlock()
}

// handleVoiceStateUpdate watches for the bot being removed from a voice
// channel by something other than its own Disconnect call.
func (t *DiscordVoiceTransport) handleVoiceStateUpdate(s *discordgo.Session, update *discordgo.VoiceStateUpdate) {
	if s.State.User == nil || update.UserID != s.State.User.ID {
		return
	}
	if update.ChannelID != "" {
		return
	}
	guildID, err := snowflake.Parse(update.GuildID)
	if err != nil {
		return
	}

	t.mu.Lock()
	vs := t.sessions[guildID]
	delete(t.sessions, guildID)
	t.mu.Unlock()

	if vs != nil {
		vs.markDropped("removed from voice channel")
	}
}

// Compile-time check that discordVoiceSession implements ports.VoiceSession.
var _ ports.VoiceSession = (*discordVoiceSession)(nil)

// discordVoiceSession wraps one discordgo voice connection. The opus encoder
// is only ever used by the single frame-writing goroutine.
type discordVoiceSession struct {
	vc      *discordgo.VoiceConnection
	encoder *gopus.Encoder
	events  chan ports.VoiceEvent
	untrack func()

	speakOnce sync.Once
	closeOnce sync.Once
}

// WriteFrame encodes one PCM frame to opus and submits it to the gateway.
// Blocks while discordgo's send buffer is full; that backpressure paces the
// caller.
func (s *discordVoiceSession) WriteFrame(ctx context.Context, pcm []int16) error {
	s.speakOnce.Do(func() { _ = s.vc.Speaking(true) })

	opus, err := s.encoder.Encode(pcm, pcmFrameSize, maxOpusBytes)
	if err != nil {
		return fmt.Errorf("%w: opus encode: %v", domain.ErrTransportWriteFailure, err)
	}
	if !s.vc.Ready || s.vc.OpusSend == nil {
		return fmt.Errorf("%w: voice connection not ready", domain.ErrTransportWriteFailure)
	}

	select {
	case s.vc.OpusSend <- opus:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Events delivers connection status changes. Only involuntary disconnects
// are reported; discordgo absorbs transient gateway reconnects internally.
func (s *discordVoiceSession) Events() <-chan ports.VoiceEvent {
	return s.events
}

// Disconnect leaves the voice channel. Idempotent; a no-op after the link
// already dropped.
func (s *discordVoiceSession) Disconnect(ctx context.Context) error {
	var err error
	s.closeOnce.Do(func() {
		s.untrack()
		_ = s.vc.Speaking(false)
		err = s.vc.Disconnect()
		close(s.events)
	})
	return err
}

// markDropped reports an involuntary disconnect and retires the session.
func (s *discordVoiceSession) markDropped(reason string) {
	s.closeOnce.Do(func() {
		s.events <- ports.VoiceEvent{Kind: ports.VoiceEventDisconnected, Reason: reason}
		close(s.events)
	})
}
