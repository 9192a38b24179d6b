package usecases

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
)

func TestRegistry_GetOrCreate(t *testing.T) {
	f := newFixture(t)

	first := f.registry.GetOrCreate(testGuild)
	second := f.registry.GetOrCreate(testGuild)
	if first != second {
		t.Error("expected the same session for repeated calls")
	}
	if f.registry.Count() != 1 {
		t.Errorf("expected one session, got %d", f.registry.Count())
	}

	other := f.registry.GetOrCreate(snowflake.ID(2))
	if other == first {
		t.Error("expected distinct sessions per guild")
	}
}

func TestRegistry_GetOrCreateConcurrent(t *testing.T) {
	f := newFixture(t)

	var wg sync.WaitGroup
	sessions := make([]*GuildSession, 16)
	for i := range sessions {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sessions[i] = f.registry.GetOrCreate(testGuild)
		}()
	}
	wg.Wait()

	for i, session := range sessions {
		if session != sessions[0] {
			t.Fatalf("goroutine %d got a different session", i)
		}
	}
	if f.registry.Count() != 1 {
		t.Errorf("expected one session, got %d", f.registry.Count())
	}
}

func TestRegistry_Get(t *testing.T) {
	f := newFixture(t)

	if f.registry.Get(testGuild) != nil {
		t.Error("expected nil before creation")
	}
	created := f.registry.GetOrCreate(testGuild)
	if f.registry.Get(testGuild) != created {
		t.Error("expected the created session")
	}
}

func TestRegistry_Teardown(t *testing.T) {
	f := newFixture(t)

	err := f.registry.Teardown(context.Background(), testGuild, "test")
	if !errors.Is(err, ErrNoSession) {
		t.Errorf("expected ErrNoSession, got %v", err)
	}

	f.registry.GetOrCreate(testGuild)
	if err := f.registry.Teardown(context.Background(), testGuild, "test"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.registry.Get(testGuild) != nil {
		t.Error("expected session removed after teardown")
	}
}

func TestRegistry_TeardownDisconnectsVoice(t *testing.T) {
	f := newFixture(t)

	f.play(t, testGuild, "a")
	waitUntil(t, func() bool { return f.publisher.startedCount() == 1 }, "track start")

	if err := f.registry.Teardown(context.Background(), testGuild, "leave requested"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	session := f.transport.lastSession()
	session.mu.Lock()
	disconnects := session.disconnects
	session.mu.Unlock()
	if disconnects != 1 {
		t.Errorf("expected one voice disconnect, got %d", disconnects)
	}
	if f.publisher.disconnectCount() != 1 {
		t.Errorf("expected disconnect event, got %d", f.publisher.disconnectCount())
	}
}

func TestRegistry_SweeperReapsIdleSessions(t *testing.T) {
	f := newFixture(t)

	// Fresh session: idle playback, empty queue
	f.registry.GetOrCreate(testGuild)
	f.registry.StartSweeper(10*time.Millisecond, time.Nanosecond)

	waitUntil(t, func() bool { return f.registry.Count() == 0 }, "idle session reaped")
}

func TestRegistry_SweeperSparesActiveSessions(t *testing.T) {
	f := newFixture(t)

	f.play(t, testGuild, "a")
	waitUntil(t, func() bool { return f.publisher.startedCount() == 1 }, "track start")
	f.registry.StartSweeper(10*time.Millisecond, time.Nanosecond)

	time.Sleep(100 * time.Millisecond)
	if f.registry.Count() != 1 {
		t.Errorf("active session must survive the sweep, got %d sessions", f.registry.Count())
	}
}

func TestRegistry_Close(t *testing.T) {
	f := newFixture(t)

	f.registry.GetOrCreate(testGuild)
	f.registry.GetOrCreate(snowflake.ID(2))
	f.registry.StartSweeper(time.Minute, time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := f.registry.Close(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.registry.Count() != 0 {
		t.Errorf("expected no sessions after close, got %d", f.registry.Count())
	}
}
