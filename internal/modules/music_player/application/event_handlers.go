package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ottersound/melobot/internal/modules/music_player/application/ports"
	"github.com/ottersound/melobot/internal/modules/music_player/domain"
)

// NotificationEventHandler turns playback events into channel announcements.
// It runs entirely on the event bus's dispatcher goroutines, so a slow or
// failing Discord API call never touches a guild worker.
type NotificationEventHandler struct {
	subscriber ports.EventSubscriber
	notifier   ports.NotificationSender
}

// NewNotificationEventHandler creates a new NotificationEventHandler.
func NewNotificationEventHandler(
	subscriber ports.EventSubscriber,
	notifier ports.NotificationSender,
) *NotificationEventHandler {
	return &NotificationEventHandler{
		subscriber: subscriber,
		notifier:   notifier,
	}
}

// Start registers event handlers with the subscriber.
func (h *NotificationEventHandler) Start() {
	h.subscriber.OnTrackEnqueued(h.handleTrackEnqueued)
	h.subscriber.OnTrackStarted(h.handleTrackStarted)
	h.subscriber.OnQueueEmptied(h.handleQueueEmptied)
	h.subscriber.OnPlaybackError(h.handlePlaybackError)
	h.subscriber.OnVoiceDisconnected(h.handleVoiceDisconnected)

	slog.Debug("notification event handlers registered")
}

func (h *NotificationEventHandler) handleTrackEnqueued(
	_ context.Context,
	event domain.TrackEnqueuedEvent,
) {
	if event.NotificationChannelID == 0 {
		return
	}
	// Position 1 means the track starts immediately; the now playing
	// announcement covers it.
	if event.Position <= 1 {
		return
	}
	err := h.notifier.SendQueueAdded(event.NotificationChannelID, event.Track, event.Position)
	if err != nil {
		slog.Warn(
			"failed to send queue added notification",
			"guild", event.GuildID,
			"error", err,
		)
	}
}

func (h *NotificationEventHandler) handleTrackStarted(
	_ context.Context,
	event domain.TrackStartedEvent,
) {
	if event.NotificationChannelID == 0 {
		return
	}
	if err := h.notifier.SendNowPlaying(event.NotificationChannelID, event.Track); err != nil {
		slog.Warn(
			"failed to send now playing notification",
			"guild", event.GuildID,
			"error", err,
		)
	}
}

func (h *NotificationEventHandler) handleQueueEmptied(
	_ context.Context,
	event domain.QueueEmptiedEvent,
) {
	if event.NotificationChannelID == 0 {
		return
	}
	if err := h.notifier.SendQueueFinished(event.NotificationChannelID); err != nil {
		slog.Warn(
			"failed to send queue finished notification",
			"guild", event.GuildID,
			"error", err,
		)
	}
}

func (h *NotificationEventHandler) handlePlaybackError(
	_ context.Context,
	event domain.PlaybackErrorEvent,
) {
	if event.NotificationChannelID == 0 {
		return
	}
	message := fmt.Sprintf("Playback error: %s", event.Reason)
	if event.Track != nil {
		message = fmt.Sprintf("Failed to play **%s**: %s", event.Track.Title, event.Reason)
	}
	if err := h.notifier.SendError(event.NotificationChannelID, message); err != nil {
		slog.Warn(
			"failed to send playback error notification",
			"guild", event.GuildID,
			"error", err,
		)
	}
}

func (h *NotificationEventHandler) handleVoiceDisconnected(
	_ context.Context,
	event domain.VoiceDisconnectedEvent,
) {
	if event.NotificationChannelID == 0 {
		return
	}
	message := fmt.Sprintf("Disconnected from voice: %s", event.Reason)
	if err := h.notifier.SendError(event.NotificationChannelID, message); err != nil {
		slog.Warn(
			"failed to send voice disconnect notification",
			"guild", event.GuildID,
			"error", err,
		)
	}
}
