package usecases

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/disgoorg/snowflake/v2"

	"github.com/ottersound/melobot/internal/modules/music_player/application/ports"
)

// SessionRegistry maps guild IDs to their sessions. Creation is atomic: two
// concurrent commands for the same guild always land on the same session.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[snowflake.ID]*GuildSession

	settings ports.SettingsProvider
	deps     sessionDeps

	sweepCancel context.CancelFunc
	sweepDone   chan struct{}
}

// NewSessionRegistry creates an empty registry. Call StartSweeper to enable
// inactivity-based teardown and Close to drain everything on shutdown.
func NewSessionRegistry(
	resolver ports.TrackResolver,
	transport ports.VoiceTransport,
	publisher ports.EventPublisher,
	settings ports.SettingsProvider,
	logger *slog.Logger,
	config SessionConfig,
) *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[snowflake.ID]*GuildSession),
		settings: settings,
		deps: sessionDeps{
			resolver:  resolver,
			transport: transport,
			publisher: publisher,
			logger:    logger,
			config:    config,
		},
	}
}

// GetOrCreate returns the guild's session, creating it on first use.
func (r *SessionRegistry) GetOrCreate(guildID snowflake.ID) *GuildSession {
	r.mu.RLock()
	session := r.sessions[guildID]
	r.mu.RUnlock()
	if session != nil {
		return session
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if session := r.sessions[guildID]; session != nil {
		return session
	}
	session = newGuildSession(guildID, r.deps, r.settings.GuildSettings(guildID))
	r.sessions[guildID] = session
	return session
}

// Get returns the guild's session, or nil when none exists.
func (r *SessionRegistry) Get(guildID snowflake.ID) *GuildSession {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[guildID]
}

// Count returns the number of live sessions.
func (r *SessionRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Teardown removes and shuts down the guild's session. Returns ErrNoSession
// when none exists. The entry leaves the map before shutdown begins, so a
// command arriving mid-teardown gets a fresh session instead of a dying one.
func (r *SessionRegistry) Teardown(ctx context.Context, guildID snowflake.ID, reason string) error {
	r.mu.Lock()
	session := r.sessions[guildID]
	delete(r.sessions, guildID)
	r.mu.Unlock()

	if session == nil {
		return ErrNoSession
	}
	return session.close(ctx, reason)
}

// StartSweeper periodically tears down sessions that have been idle with an
// empty queue for longer than timeout.
func (r *SessionRegistry) StartSweeper(interval, timeout time.Duration) {
	ctx, cancel := context.WithCancel(context.Background())
	r.sweepCancel = cancel
	r.sweepDone = make(chan struct{})

	go func() {
		defer close(r.sweepDone)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.sweep(ctx, timeout)
			}
		}
	}()
}

func (r *SessionRegistry) sweep(ctx context.Context, timeout time.Duration) {
	now := time.Now()

	r.mu.RLock()
	var stale []*GuildSession
	for _, session := range r.sessions {
		if session.Reapable() && session.IdleFor(now) > timeout {
			stale = append(stale, session)
		}
	}
	r.mu.RUnlock()

	for _, session := range stale {
		tctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err := r.Teardown(tctx, session.GuildID(), "inactivity timeout")
		cancel()
		if err != nil && err != ErrNoSession {
			r.deps.logger.Warn("failed to reap inactive session",
				slog.String("guild_id", session.GuildID().String()),
				slog.String("error", err.Error()))
			continue
		}
		if err == nil {
			r.deps.logger.Info("reaped inactive session",
				slog.String("guild_id", session.GuildID().String()))
		}
	}
}

// Close stops the sweeper and tears down all remaining sessions.
func (r *SessionRegistry) Close(ctx context.Context) error {
	if r.sweepCancel != nil {
		r.sweepCancel()
		<-r.sweepDone
	}

	r.mu.Lock()
	remaining := make([]*GuildSession, 0, len(r.sessions))
	for _, session := range r.sessions {
		remaining = append(remaining, session)
	}
	r.sessions = make(map[snowflake.ID]*GuildSession)
	r.mu.Unlock()

	var firstErr error
	for _, session := range remaining {
		if err := session.close(ctx, "bot shutting down"); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
