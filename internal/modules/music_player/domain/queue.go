package domain

import (
	"iter"
	"math/rand/v2"
)

// Queue owns the ordered pending tracks for one guild. Insertion order is
// play order unless shuffled. The currently playing track is never a member;
// it is held by the playback session. The queue has no internal locking: all
// access goes through the owning guild's worker goroutine.
type Queue struct {
	tracks []*Track
}

// NewQueue creates an empty Queue.
func NewQueue() *Queue {
	return &Queue{tracks: make([]*Track, 0)}
}

// Len returns the number of pending tracks.
func (q *Queue) Len() int {
	return len(q.tracks)
}

// IsEmpty reports whether no tracks are pending.
func (q *Queue) IsEmpty() bool {
	return len(q.tracks) == 0
}

// Enqueue appends a track. Returns ErrInvalidTrack if the track has no
// resolved audio source.
func (q *Queue) Enqueue(t *Track) error {
	if !t.IsValid() {
		return ErrInvalidTrack
	}
	q.tracks = append(q.tracks, t)
	return nil
}

// EnqueueFront inserts a track at the head, so it plays next. Used for
// track-loop replay.
func (q *Queue) EnqueueFront(t *Track) error {
	if !t.IsValid() {
		return ErrInvalidTrack
	}
	q.tracks = append([]*Track{t}, q.tracks...)
	return nil
}

// DequeueNext removes and returns the head track. The second return value is
// false when the queue is empty; that is a normal outcome, not an error.
func (q *Queue) DequeueNext() (*Track, bool) {
	if len(q.tracks) == 0 {
		return nil, false
	}
	t := q.tracks[0]
	q.tracks[0] = nil
	q.tracks = q.tracks[1:]
	return t, true
}

// RemoveAt removes and returns the track at index. Returns ErrIndexOutOfRange
// if the index is invalid.
func (q *Queue) RemoveAt(index int) (*Track, error) {
	if index < 0 || index >= len(q.tracks) {
		return nil, ErrIndexOutOfRange
	}
	t := q.tracks[index]
	q.tracks = append(q.tracks[:index], q.tracks[index+1:]...)
	return t, nil
}

// Move relocates the track at from to position to, shifting everything in
// between. Returns ErrIndexOutOfRange if either index is invalid.
func (q *Queue) Move(from, to int) (*Track, error) {
	if from < 0 || from >= len(q.tracks) || to < 0 || to >= len(q.tracks) {
		return nil, ErrIndexOutOfRange
	}
	t := q.tracks[from]
	q.tracks = append(q.tracks[:from], q.tracks[from+1:]...)
	q.tracks = append(q.tracks, nil)
	copy(q.tracks[to+1:], q.tracks[to:])
	q.tracks[to] = t
	return t, nil
}

// Clear empties the queue unconditionally and returns the number of tracks
// removed.
func (q *Queue) Clear() int {
	n := len(q.tracks)
	q.tracks = make([]*Track, 0)
	return n
}

// Shuffle performs a uniform in-place permutation. No ordering guarantee
// survives it.
func (q *Queue) Shuffle() {
	rand.Shuffle(len(q.tracks), func(i, j int) {
		q.tracks[i], q.tracks[j] = q.tracks[j], q.tracks[i]
	})
}

// Peek returns a read-only, restartable sequence of up to n upcoming tracks
// in play order. Iterating does not mutate the queue; each range starts over
// from the head. Tracks are yielded by value.
func (q *Queue) Peek(n int) iter.Seq[Track] {
	return func(yield func(Track) bool) {
		limit := min(n, len(q.tracks))
		for i := 0; i < limit; i++ {
			if !yield(*q.tracks[i]) {
				return
			}
		}
	}
}

// List returns a copy of the pending tracks in play order.
func (q *Queue) List() []*Track {
	out := make([]*Track, len(q.tracks))
	copy(out, q.tracks)
	return out
}
