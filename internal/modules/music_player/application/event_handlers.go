package application

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/sglre6355/jukebot/internal/modules/music_player/application/ports"
	"github.com/sglre6355/jukebot/internal/modules/music_player/application/usecases"
	"github.com/sglre6355/jukebot/internal/modules/music_player/domain"
)

// PlaybackEventHandler feeds idle notifications from the audio node into the controller.
type PlaybackEventHandler struct {
	controller *usecases.PlaybackController
	subscriber ports.EventSubscriber
}

// NewPlaybackEventHandler creates a new PlaybackEventHandler.
func NewPlaybackEventHandler(
	controller *usecases.PlaybackController,
	subscriber ports.EventSubscriber,
) *PlaybackEventHandler {
	return &PlaybackEventHandler{
		controller: controller,
		subscriber: subscriber,
	}
}

// Start registers event handlers with the subscriber.
func (h *PlaybackEventHandler) Start() error {
	err := h.subscriber.Subscribe(
		reflect.TypeFor[domain.TrackEndedEvent](),
		func(ctx context.Context, e domain.Event) {
			h.handleTrackEnded(ctx, e.(domain.TrackEndedEvent))
		},
	)
	if err != nil {
		return err
	}

	slog.Debug("playback event handlers properly registered")

	return nil
}

func (h *PlaybackEventHandler) handleTrackEnded(ctx context.Context, event domain.TrackEndedEvent) {
	slog.Debug(
		"track ended",
		"event", event,
	)
	h.controller.HandleTrackEnded(ctx, event)
}

// NotificationEventHandler posts plain notices for skipped tracks and finished queues.
type NotificationEventHandler struct {
	subscriber ports.EventSubscriber
	notifier   ports.Notifier
}

// NewNotificationEventHandler creates a new NotificationEventHandler.
func NewNotificationEventHandler(
	subscriber ports.EventSubscriber,
	notifier ports.Notifier,
) *NotificationEventHandler {
	return &NotificationEventHandler{
		subscriber: subscriber,
		notifier:   notifier,
	}
}

// Start registers event handlers with the subscriber.
func (h *NotificationEventHandler) Start() error {
	err := h.subscriber.Subscribe(
		reflect.TypeFor[domain.TrackSkippedEvent](),
		func(ctx context.Context, e domain.Event) {
			h.handleTrackSkipped(ctx, e.(domain.TrackSkippedEvent))
		},
	)
	if err != nil {
		return err
	}

	err = h.subscriber.Subscribe(
		reflect.TypeFor[domain.QueueDestroyedEvent](),
		func(ctx context.Context, e domain.Event) {
			h.handleQueueDestroyed(ctx, e.(domain.QueueDestroyedEvent))
		},
	)
	if err != nil {
		return err
	}

	slog.Debug("notification event handlers properly registered")

	return nil
}

func (h *NotificationEventHandler) handleTrackSkipped(
	ctx context.Context,
	event domain.TrackSkippedEvent,
) {
	if event.TextChannelID == 0 {
		return
	}

	message := fmt.Sprintf("Error playing **%s**. Skipping.", event.Track.Title)
	if err := h.notifier.Notify(ctx, event.TextChannelID, message); err != nil {
		slog.Warn(
			"failed to send skip notice",
			"event", event,
			"error", err,
		)
	}
}

func (h *NotificationEventHandler) handleQueueDestroyed(
	ctx context.Context,
	event domain.QueueDestroyedEvent,
) {
	// Only the idle timeout happens without anyone asking for it.
	if event.Reason != domain.DestroyReasonIdle || event.TextChannelID == 0 {
		return
	}

	message := "Queue finished. Leaving the voice channel."
	if err := h.notifier.Notify(ctx, event.TextChannelID, message); err != nil {
		slog.Warn(
			"failed to send queue finished notice",
			"event", event,
			"error", err,
		)
	}
}
