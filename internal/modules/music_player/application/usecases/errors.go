package usecases

import "errors"

// Command-surface errors of the player services.
var (
	// ErrNoSession is returned when a command targets a guild with no active
	// session.
	ErrNoSession = errors.New("no active session for this guild")

	// ErrSessionClosed is returned when a command races session teardown.
	ErrSessionClosed = errors.New("session is shutting down")

	// ErrResolveCanceled is returned to a play caller whose in-flight
	// resolution was canceled by a stop or teardown.
	ErrResolveCanceled = errors.New("track resolution canceled")

	// ErrQueueEmpty is returned by queue commands that need pending tracks.
	ErrQueueEmpty = errors.New("the queue is empty")
)
