package usecases

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/ottersound/melobot/internal/modules/music_player/domain"
)

func TestPlayer_NoSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.player.Pause(ctx, PauseInput{GuildID: testGuild}); !errors.Is(err, ErrNoSession) {
		t.Errorf("Pause: expected ErrNoSession, got %v", err)
	}
	if err := f.player.Resume(ctx, ResumeInput{GuildID: testGuild}); !errors.Is(err, ErrNoSession) {
		t.Errorf("Resume: expected ErrNoSession, got %v", err)
	}
	if _, err := f.player.Skip(ctx, SkipInput{GuildID: testGuild}); !errors.Is(err, ErrNoSession) {
		t.Errorf("Skip: expected ErrNoSession, got %v", err)
	}
	if _, err := f.player.Stop(ctx, StopInput{GuildID: testGuild}); !errors.Is(err, ErrNoSession) {
		t.Errorf("Stop: expected ErrNoSession, got %v", err)
	}
	if _, err := f.player.NowPlaying(ctx, NowPlayingInput{GuildID: testGuild}); !errors.Is(err, ErrNoSession) {
		t.Errorf("NowPlaying: expected ErrNoSession, got %v", err)
	}
	if _, err := f.player.QueueList(ctx, QueueListInput{GuildID: testGuild}); !errors.Is(err, ErrNoSession) {
		t.Errorf("QueueList: expected ErrNoSession, got %v", err)
	}
	if _, err := f.player.Move(ctx, MoveInput{GuildID: testGuild, From: 1, To: 2}); !errors.Is(err, ErrNoSession) {
		t.Errorf("Move: expected ErrNoSession, got %v", err)
	}
	if err := f.player.Leave(ctx, LeaveInput{GuildID: testGuild}); !errors.Is(err, ErrNoSession) {
		t.Errorf("Leave: expected ErrNoSession, got %v", err)
	}
}

func TestPlayer_QueueListPagination(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.play(t, testGuild, "a")
	waitUntil(t, func() bool { return f.publisher.startedCount() == 1 }, "track start")
	for i := 1; i <= 24; i++ {
		f.play(t, testGuild, fmt.Sprintf("q%02d", i))
	}

	out, err := f.player.QueueList(ctx, QueueListInput{GuildID: testGuild})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Current == nil || out.Current.Title != "Track a" {
		t.Errorf("expected Track a current, got %v", out.Current)
	}
	if out.TotalTracks != 24 || out.TotalPages != 3 {
		t.Errorf("expected 24 tracks over 3 pages, got %d/%d", out.TotalTracks, out.TotalPages)
	}
	if len(out.Tracks) != 10 || out.Tracks[0].Title != "Track q01" {
		t.Errorf("unexpected first page: %v", out.Tracks)
	}

	// Page below range clamps to the first page
	out, err = f.player.QueueList(ctx, QueueListInput{GuildID: testGuild, Page: -3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Page != 1 {
		t.Errorf("expected page 1, got %d", out.Page)
	}

	// Page above range clamps to the last page
	out, err = f.player.QueueList(ctx, QueueListInput{GuildID: testGuild, Page: 99})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Page != 3 || len(out.Tracks) != 4 {
		t.Errorf("expected 4 tracks on page 3, got %d on page %d", len(out.Tracks), out.Page)
	}
	if out.Tracks[0].Title != "Track q21" {
		t.Errorf("unexpected last page start: %q", out.Tracks[0].Title)
	}

	// Custom page size
	out, err = f.player.QueueList(ctx, QueueListInput{GuildID: testGuild, Page: 2, PageSize: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.TotalPages != 5 || len(out.Tracks) != 5 || out.Tracks[0].Title != "Track q06" {
		t.Errorf("unexpected page 2 of size 5: %v", out.Tracks)
	}
}

func TestPlayer_QueueListEmpty(t *testing.T) {
	f := newFixture(t)
	f.registry.GetOrCreate(testGuild)

	out, err := f.player.QueueList(context.Background(), QueueListInput{GuildID: testGuild})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.TotalTracks != 0 || out.TotalPages != 1 || out.Page != 1 {
		t.Errorf("unexpected empty listing: %+v", out)
	}
	if len(out.Tracks) != 0 {
		t.Errorf("expected no tracks, got %v", out.Tracks)
	}
}

func TestPlayer_Remove(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.play(t, testGuild, "a")
	waitUntil(t, func() bool { return f.publisher.startedCount() == 1 }, "track start")
	f.play(t, testGuild, "b")
	f.play(t, testGuild, "c")

	out, err := f.player.Remove(ctx, RemoveInput{GuildID: testGuild, Position: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Removed.Title != "Track b" {
		t.Errorf("expected Track b removed, got %q", out.Removed.Title)
	}

	if _, err := f.player.Remove(ctx, RemoveInput{GuildID: testGuild, Position: 5}); !errors.Is(err, domain.ErrIndexOutOfRange) {
		t.Errorf("expected ErrIndexOutOfRange, got %v", err)
	}

	queue, err := f.player.QueueList(ctx, QueueListInput{GuildID: testGuild})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if queue.TotalTracks != 1 || queue.Tracks[0].Title != "Track c" {
		t.Errorf("expected only Track c left, got %v", queue.Tracks)
	}
}

func TestPlayer_Move(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.play(t, testGuild, "a")
	waitUntil(t, func() bool { return f.publisher.startedCount() == 1 }, "track start")
	f.play(t, testGuild, "b")
	f.play(t, testGuild, "c")
	f.play(t, testGuild, "d")

	out, err := f.player.Move(ctx, MoveInput{GuildID: testGuild, From: 3, To: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Moved.Title != "Track d" || out.To != 1 {
		t.Errorf("expected Track d moved to 1, got %q to %d", out.Moved.Title, out.To)
	}

	if _, err := f.player.Move(ctx, MoveInput{GuildID: testGuild, From: 9, To: 1}); !errors.Is(err, domain.ErrIndexOutOfRange) {
		t.Errorf("expected ErrIndexOutOfRange, got %v", err)
	}

	queue, err := f.player.QueueList(ctx, QueueListInput{GuildID: testGuild})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"Track d", "Track b", "Track c"}
	for i, title := range want {
		if queue.Tracks[i].Title != title {
			t.Errorf("expected order %v, got %v", want, queue.Tracks)
			break
		}
	}
}

func TestPlayer_Clear(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.play(t, testGuild, "a")
	waitUntil(t, func() bool { return f.publisher.startedCount() == 1 }, "track start")
	f.play(t, testGuild, "b")
	f.play(t, testGuild, "c")

	out, err := f.player.Clear(ctx, ClearInput{GuildID: testGuild})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Cleared != 2 {
		t.Errorf("expected 2 cleared, got %d", out.Cleared)
	}

	// The current track keeps playing
	np, err := f.player.NowPlaying(ctx, NowPlayingInput{GuildID: testGuild})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if np.Track.Title != "Track a" {
		t.Errorf("clear must not touch the current track, got %q", np.Track.Title)
	}
}

func TestPlayer_Leave(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.play(t, testGuild, "a")
	waitUntil(t, func() bool { return f.publisher.startedCount() == 1 }, "track start")

	if err := f.player.Leave(ctx, LeaveInput{GuildID: testGuild}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.registry.Get(testGuild) != nil {
		t.Error("expected session gone after leave")
	}
}
