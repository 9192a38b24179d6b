package infrastructure

import (
	"context"
	"log/slog"
	"sync"

	"github.com/ottersound/melobot/internal/modules/music_player/application/ports"
	"github.com/ottersound/melobot/internal/modules/music_player/domain"
)

// DefaultEventBufferSize is the default buffer size for event channels.
const DefaultEventBufferSize = 100

// Compile-time checks that ChannelEventBus implements ports interfaces.
var (
	_ ports.EventPublisher  = (*ChannelEventBus)(nil)
	_ ports.EventSubscriber = (*ChannelEventBus)(nil)
)

// ChannelEventBus provides a channel-based event bus for async event
// handling. It implements both EventPublisher and EventSubscriber interfaces.
// Publishing never blocks: a full buffer drops the event with a warning, so
// the guild workers are insulated from slow handlers.
type ChannelEventBus struct {
	// Channels for event delivery
	trackEnqueued     chan domain.TrackEnqueuedEvent
	trackStarted      chan domain.TrackStartedEvent
	trackEnded        chan domain.TrackEndedEvent
	queueEmptied      chan domain.QueueEmptiedEvent
	playbackError     chan domain.PlaybackErrorEvent
	voiceDisconnected chan domain.VoiceDisconnectedEvent

	// Handler slices for callback-based subscription
	trackEnqueuedHandlers     []func(context.Context, domain.TrackEnqueuedEvent)
	trackStartedHandlers      []func(context.Context, domain.TrackStartedEvent)
	trackEndedHandlers        []func(context.Context, domain.TrackEndedEvent)
	queueEmptiedHandlers      []func(context.Context, domain.QueueEmptiedEvent)
	playbackErrorHandlers     []func(context.Context, domain.PlaybackErrorEvent)
	voiceDisconnectedHandlers []func(context.Context, domain.VoiceDisconnectedEvent)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed bool
	mu     sync.RWMutex
}

// NewChannelEventBus creates a new ChannelEventBus with the given buffer size.
func NewChannelEventBus(bufferSize int) *ChannelEventBus {
	if bufferSize <= 0 {
		bufferSize = DefaultEventBufferSize
	}

	ctx, cancel := context.WithCancel(context.Background())

	bus := &ChannelEventBus{
		trackEnqueued:     make(chan domain.TrackEnqueuedEvent, bufferSize),
		trackStarted:      make(chan domain.TrackStartedEvent, bufferSize),
		trackEnded:        make(chan domain.TrackEndedEvent, bufferSize),
		queueEmptied:      make(chan domain.QueueEmptiedEvent, bufferSize),
		playbackError:     make(chan domain.PlaybackErrorEvent, bufferSize),
		voiceDisconnected: make(chan domain.VoiceDisconnectedEvent, bufferSize),
		ctx:               ctx,
		cancel:            cancel,
	}

	bus.startDispatchers()

	return bus
}

// startDispatchers starts goroutines that dispatch events to registered handlers.
func (b *ChannelEventBus) startDispatchers() {
	b.wg.Add(6)

	go b.dispatchTrackEnqueued()
	go b.dispatchTrackStarted()
	go b.dispatchTrackEnded()
	go b.dispatchQueueEmptied()
	go b.dispatchPlaybackError()
	go b.dispatchVoiceDisconnected()
}

func (b *ChannelEventBus) dispatchTrackEnqueued() {
	defer b.wg.Done()
	for {
		select {
		case <-b.ctx.Done():
			return
		case event, ok := <-b.trackEnqueued:
			if !ok {
				return
			}
			b.mu.RLock()
			handlers := b.trackEnqueuedHandlers
			b.mu.RUnlock()
			for _, handler := range handlers {
				handler(b.ctx, event)
			}
		}
	}
}

func (b *ChannelEventBus) dispatchTrackStarted() {
	defer b.wg.Done()
	for {
		select {
		case <-b.ctx.Done():
			return
		case event, ok := <-b.trackStarted:
			if !ok {
				return
			}
			b.mu.RLock()
			handlers := b.trackStartedHandlers
			b.mu.RUnlock()
			for _, handler := range handlers {
				handler(b.ctx, event)
			}
		}
	}
}

func (b *ChannelEventBus) dispatchTrackEnded() {
	defer b.wg.Done()
	for {
		select {
		case <-b.ctx.Done():
			return
		case event, ok := <-b.trackEnded:
			if !ok {
				return
			}
			b.mu.RLock()
			handlers := b.trackEndedHandlers
			b.mu.RUnlock()
			for _, handler := range handlers {
				handler(b.ctx, event)
			}
		}
	}
}

func (b *ChannelEventBus) dispatchQueueEmptied() {
	defer b.wg.Done()
	for {
		select {
		case <-b.ctx.Done():
			return
		case event, ok := <-b.queueEmptied:
			if !ok {
				return
			}
			b.mu.RLock()
			handlers := b.queueEmptiedHandlers
			b.mu.RUnlock()
			for _, handler := range handlers {
				handler(b.ctx, event)
			}
		}
	}
}

func (b *ChannelEventBus) dispatchPlaybackError() {
	defer b.wg.Done()
	for {
		select {
		case <-b.ctx.Done():
			return
		case event, ok := <-b.playbackError:
			if !ok {
				return
			}
			b.mu.RLock()
			handlers := b.playbackErrorHandlers
			b.mu.RUnlock()
			for _, handler := range handlers {
				handler(b.ctx, event)
			}
		}
	}
}

func (b *ChannelEventBus) dispatchVoiceDisconnected() {
	defer b.wg.Done()
	for {
		select {
		case <-b.ctx.Done():
			return
		case event, ok := <-b.voiceDisconnected:
			if !ok {
				return
			}
			b.mu.RLock()
			handlers := b.voiceDisconnectedHandlers
			b.mu.RUnlock()
			for _, handler := range handlers {
				handler(b.ctx, event)
			}
		}
	}
}

// --- EventPublisher interface ---

// PublishTrackEnqueued publishes a TrackEnqueuedEvent.
// Non-blocking: if the channel buffer is full, the event is dropped with a warning.
func (b *ChannelEventBus) PublishTrackEnqueued(event domain.TrackEnqueuedEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		slog.Warn("attempted to publish to closed event bus", "type", "TrackEnqueued")
		return
	}

	select {
	case b.trackEnqueued <- event:
		slog.Debug("published event", "type", "TrackEnqueued", "guild", event.GuildID)
	default:
		slog.Warn("event buffer full, dropping event", "type", "TrackEnqueued")
	}
}

// PublishTrackStarted publishes a TrackStartedEvent.
// Non-blocking: if the channel buffer is full, the event is dropped with a warning.
func (b *ChannelEventBus) PublishTrackStarted(event domain.TrackStartedEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		slog.Warn("attempted to publish to closed event bus", "type", "TrackStarted")
		return
	}

	select {
	case b.trackStarted <- event:
		slog.Debug("published event", "type", "TrackStarted", "guild", event.GuildID)
	default:
		slog.Warn("event buffer full, dropping event", "type", "TrackStarted")
	}
}

// PublishTrackEnded publishes a TrackEndedEvent.
// Non-blocking: if the channel buffer is full, the event is dropped with a warning.
func (b *ChannelEventBus) PublishTrackEnded(event domain.TrackEndedEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		slog.Warn("attempted to publish to closed event bus", "type", "TrackEnded")
		return
	}

	select {
	case b.trackEnded <- event:
		slog.Debug("published event", "type", "TrackEnded", "guild", event.GuildID)
	default:
		slog.Warn("event buffer full, dropping event", "type", "TrackEnded")
	}
}

// PublishQueueEmptied publishes a QueueEmptiedEvent.
// Non-blocking: if the channel buffer is full, the event is dropped with a warning.
func (b *ChannelEventBus) PublishQueueEmptied(event domain.QueueEmptiedEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		slog.Warn("attempted to publish to closed event bus", "type", "QueueEmptied")
		return
	}

	select {
	case b.queueEmptied <- event:
		slog.Debug("published event", "type", "QueueEmptied", "guild", event.GuildID)
	default:
		slog.Warn("event buffer full, dropping event", "type", "QueueEmptied")
	}
}

// PublishPlaybackError publishes a PlaybackErrorEvent.
// Non-blocking: if the channel buffer is full, the event is dropped with a warning.
func (b *ChannelEventBus) PublishPlaybackError(event domain.PlaybackErrorEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		slog.Warn("attempted to publish to closed event bus", "type", "PlaybackError")
		return
	}

	select {
	case b.playbackError <- event:
		slog.Debug("published event", "type", "PlaybackError", "guild", event.GuildID)
	default:
		slog.Warn("event buffer full, dropping event", "type", "PlaybackError")
	}
}

// PublishVoiceDisconnected publishes a VoiceDisconnectedEvent.
// Non-blocking: if the channel buffer is full, the event is dropped with a warning.
func (b *ChannelEventBus) PublishVoiceDisconnected(event domain.VoiceDisconnectedEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		slog.Warn("attempted to publish to closed event bus", "type", "VoiceDisconnected")
		return
	}

	select {
	case b.voiceDisconnected <- event:
		slog.Debug("published event", "type", "VoiceDisconnected", "guild", event.GuildID)
	default:
		slog.Warn("event buffer full, dropping event", "type", "VoiceDisconnected")
	}
}

// --- EventSubscriber interface ---

// OnTrackEnqueued registers a handler for TrackEnqueuedEvent.
func (b *ChannelEventBus) OnTrackEnqueued(
	handler func(context.Context, domain.TrackEnqueuedEvent),
) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.trackEnqueuedHandlers = append(b.trackEnqueuedHandlers, handler)
}

// OnTrackStarted registers a handler for TrackStartedEvent.
func (b *ChannelEventBus) OnTrackStarted(
	handler func(context.Context, domain.TrackStartedEvent),
) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.trackStartedHandlers = append(b.trackStartedHandlers, handler)
}

// OnTrackEnded registers a handler for TrackEndedEvent.
func (b *ChannelEventBus) OnTrackEnded(handler func(context.Context, domain.TrackEndedEvent)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.trackEndedHandlers = append(b.trackEndedHandlers, handler)
}

// OnQueueEmptied registers a handler for QueueEmptiedEvent.
func (b *ChannelEventBus) OnQueueEmptied(handler func(context.Context, domain.QueueEmptiedEvent)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.queueEmptiedHandlers = append(b.queueEmptiedHandlers, handler)
}

// OnPlaybackError registers a handler for PlaybackErrorEvent.
func (b *ChannelEventBus) OnPlaybackError(handler func(context.Context, domain.PlaybackErrorEvent)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.playbackErrorHandlers = append(b.playbackErrorHandlers, handler)
}

// OnVoiceDisconnected registers a handler for VoiceDisconnectedEvent.
func (b *ChannelEventBus) OnVoiceDisconnected(
	handler func(context.Context, domain.VoiceDisconnectedEvent),
) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.voiceDisconnectedHandlers = append(b.voiceDisconnectedHandlers, handler)
}

// Close closes all event channels and stops dispatchers.
// After calling Close, publishing will no longer send events.
func (b *ChannelEventBus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.mu.Unlock()

	// Cancel context to stop dispatchers
	b.cancel()

	// Close channels to unblock any pending reads
	close(b.trackEnqueued)
	close(b.trackStarted)
	close(b.trackEnded)
	close(b.queueEmptied)
	close(b.playbackError)
	close(b.voiceDisconnected)

	// Wait for dispatchers to finish
	b.wg.Wait()

	slog.Debug("channel event bus closed")
}
