package usecases

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"

	"github.com/ottersound/melobot/internal/modules/music_player/application/ports"
	"github.com/ottersound/melobot/internal/modules/music_player/domain"
)

// fakeStream yields a fixed number of silent frames and then ends with endErr,
// or io.EOF when endErr is nil.
type fakeStream struct {
	mu     sync.Mutex
	frames int
	endErr error
	closed bool
}

func (s *fakeStream) ReadFrame() ([]int16, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.frames > 0 {
		s.frames--
		return make([]int16, 960*2), nil
	}
	if s.endErr != nil {
		return nil, s.endErr
	}
	return nil, io.EOF
}

func (s *fakeStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// fakeSource produces a fresh fakeStream per Open so looped tracks can replay.
type fakeSource struct {
	mu      sync.Mutex
	frames  int
	endErr  error
	openErr error
	opened  int
}

func (s *fakeSource) Open(_ context.Context) (domain.AudioStream, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opened++
	if s.openErr != nil {
		return nil, s.openErr
	}
	return &fakeStream{frames: s.frames, endErr: s.endErr}, nil
}

func (s *fakeSource) Seekable() bool { return false }

// longTrack is enough frames to keep a track playing for the whole test.
const longTrack = 1 << 20

func testInfo(id string, frames int) *ports.TrackInfo {
	return &ports.TrackInfo{
		Identifier: id,
		Title:      "Track " + id,
		Artist:     "Artist",
		Duration:   3 * time.Minute,
		URI:        "https://example.com/" + id,
		Source:     &fakeSource{frames: frames},
	}
}

type mockResolver struct {
	mu       sync.Mutex
	infos    map[string]*ports.TrackInfo
	err      error
	blocking bool
	release  chan struct{}
	calls    int
}

func newMockResolver() *mockResolver {
	return &mockResolver{infos: make(map[string]*ports.TrackInfo)}
}

func (m *mockResolver) add(info *ports.TrackInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infos[info.Identifier] = info
}

func (m *mockResolver) Resolve(ctx context.Context, query string) (*ports.TrackInfo, error) {
	m.mu.Lock()
	m.calls++
	blocking := m.blocking
	release := m.release
	err := m.err
	info := m.infos[query]
	m.mu.Unlock()

	if blocking {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-release:
		}
	}
	if err != nil {
		return nil, err
	}
	if info == nil {
		info = testInfo(query, longTrack)
	}
	return info, nil
}

// beginBlocking makes subsequent resolves wait until releaseBlocked or their
// context is canceled.
func (m *mockResolver) beginBlocking() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blocking = true
	m.release = make(chan struct{})
}

func (m *mockResolver) releaseBlocked() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blocking = false
	close(m.release)
}

func (m *mockResolver) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type mockVoiceSession struct {
	mu          sync.Mutex
	frames      int
	disconnects int
	events      chan ports.VoiceEvent
	closeOnce   sync.Once
}

func newMockVoiceSession() *mockVoiceSession {
	return &mockVoiceSession{events: make(chan ports.VoiceEvent, 4)}
}

func (m *mockVoiceSession) WriteFrame(ctx context.Context, _ []int16) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	m.frames++
	m.mu.Unlock()
	return nil
}

func (m *mockVoiceSession) Events() <-chan ports.VoiceEvent {
	return m.events
}

func (m *mockVoiceSession) Disconnect(_ context.Context) error {
	m.mu.Lock()
	m.disconnects++
	m.mu.Unlock()
	m.closeOnce.Do(func() { close(m.events) })
	return nil
}

// dropConnection simulates the transport losing the link without a Disconnect
// being requested.
func (m *mockVoiceSession) dropConnection(reason string) {
	m.events <- ports.VoiceEvent{Kind: ports.VoiceEventDisconnected, Reason: reason}
	m.closeOnce.Do(func() { close(m.events) })
}

type mockVoiceTransport struct {
	mu         sync.Mutex
	connectErr error
	sessions   []*mockVoiceSession
}

func (m *mockVoiceTransport) Connect(_ context.Context, _, _ snowflake.ID) (ports.VoiceSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.connectErr != nil {
		return nil, m.connectErr
	}
	session := newMockVoiceSession()
	m.sessions = append(m.sessions, session)
	return session, nil
}

func (m *mockVoiceTransport) setConnectErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connectErr = err
}

func (m *mockVoiceTransport) lastSession() *mockVoiceSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sessions) == 0 {
		return nil
	}
	return m.sessions[len(m.sessions)-1]
}

func (m *mockVoiceTransport) sessionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

type mockEventPublisher struct {
	mu                sync.Mutex
	trackEnqueued     []domain.TrackEnqueuedEvent
	trackStarted      []domain.TrackStartedEvent
	trackEnded        []domain.TrackEndedEvent
	queueEmptied      []domain.QueueEmptiedEvent
	playbackErrors    []domain.PlaybackErrorEvent
	voiceDisconnected []domain.VoiceDisconnectedEvent
}

func (m *mockEventPublisher) PublishTrackEnqueued(event domain.TrackEnqueuedEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trackEnqueued = append(m.trackEnqueued, event)
}

func (m *mockEventPublisher) PublishTrackStarted(event domain.TrackStartedEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trackStarted = append(m.trackStarted, event)
}

func (m *mockEventPublisher) PublishTrackEnded(event domain.TrackEndedEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trackEnded = append(m.trackEnded, event)
}

func (m *mockEventPublisher) PublishQueueEmptied(event domain.QueueEmptiedEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queueEmptied = append(m.queueEmptied, event)
}

func (m *mockEventPublisher) PublishPlaybackError(event domain.PlaybackErrorEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.playbackErrors = append(m.playbackErrors, event)
}

func (m *mockEventPublisher) PublishVoiceDisconnected(event domain.VoiceDisconnectedEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.voiceDisconnected = append(m.voiceDisconnected, event)
}

func (m *mockEventPublisher) startedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.trackStarted)
}

func (m *mockEventPublisher) errorCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.playbackErrors)
}

func (m *mockEventPublisher) disconnectCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.voiceDisconnected)
}

func (m *mockEventPublisher) startedEvents() []domain.TrackStartedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.trackStarted)
}

func (m *mockEventPublisher) endedEvents() []domain.TrackEndedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.trackEnded)
}

func (m *mockEventPublisher) emptiedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queueEmptied)
}

type staticTestSettings struct {
	settings ports.GuildSettings
}

func (s staticTestSettings) GuildSettings(_ snowflake.ID) ports.GuildSettings {
	return s.settings
}

type fixture struct {
	registry  *SessionRegistry
	player    *PlayerService
	resolver  *mockResolver
	transport *mockVoiceTransport
	publisher *mockEventPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	resolver := newMockResolver()
	transport := &mockVoiceTransport{}
	publisher := &mockEventPublisher{}
	registry := NewSessionRegistry(
		resolver,
		transport,
		publisher,
		staticTestSettings{ports.GuildSettings{DefaultVolume: 1.0, DefaultLoopMode: domain.LoopModeNone}},
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		SessionConfig{ResolveTimeout: 2 * time.Second, VoiceConnectTimeout: 2 * time.Second},
	)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = registry.Close(ctx)
	})
	return &fixture{
		registry:  registry,
		player:    NewPlayerService(registry),
		resolver:  resolver,
		transport: transport,
		publisher: publisher,
	}
}

// play issues a standard play command and fails the test on error.
func (f *fixture) play(t *testing.T, guildID snowflake.ID, query string) *PlayOutput {
	t.Helper()
	out, err := f.player.Play(context.Background(), PlayInput{
		GuildID:               guildID,
		Query:                 query,
		RequestedBy:           snowflake.ID(7),
		RequesterName:         "tester",
		VoiceChannelID:        snowflake.ID(100),
		NotificationChannelID: snowflake.ID(200),
	})
	if err != nil {
		t.Fatalf("play %q: %v", query, err)
	}
	return out
}

func waitUntil(t *testing.T, condition func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", msg)
}
