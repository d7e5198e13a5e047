package application

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/jukebot/internal/modules/music_player/domain"
)

// mockSubscriber records handlers and lets tests deliver events synchronously.
type mockSubscriber struct {
	handlers map[reflect.Type][]func(context.Context, domain.Event)
	err      error
}

func newMockSubscriber() *mockSubscriber {
	return &mockSubscriber{handlers: make(map[reflect.Type][]func(context.Context, domain.Event))}
}

func (m *mockSubscriber) Subscribe(
	eventType reflect.Type,
	handler func(context.Context, domain.Event),
) error {
	if m.err != nil {
		return m.err
	}
	m.handlers[eventType] = append(m.handlers[eventType], handler)
	return nil
}

func (m *mockSubscriber) deliver(event domain.Event) {
	for _, h := range m.handlers[reflect.TypeOf(event)] {
		h(context.Background(), event)
	}
}

type sentNotice struct {
	channelID snowflake.ID
	message   string
}

type mockNotifier struct {
	mu   sync.Mutex
	sent []sentNotice
	err  error
}

func (m *mockNotifier) Notify(_ context.Context, channelID snowflake.ID, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentNotice{channelID: channelID, message: message})
	return nil
}

func TestNotificationEventHandler_Start(t *testing.T) {
	subscriber := newMockSubscriber()
	handler := NewNotificationEventHandler(subscriber, &mockNotifier{})

	if err := handler.Start(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, typ := range []reflect.Type{
		reflect.TypeFor[domain.TrackSkippedEvent](),
		reflect.TypeFor[domain.QueueDestroyedEvent](),
	} {
		if len(subscriber.handlers[typ]) != 1 {
			t.Errorf("expected one handler for %v, got %d", typ, len(subscriber.handlers[typ]))
		}
	}

	failing := newMockSubscriber()
	failing.err = errors.New("closed")
	if err := NewNotificationEventHandler(failing, &mockNotifier{}).Start(); err == nil {
		t.Error("expected subscribe error to be returned")
	}
}

func TestNotificationEventHandler_Notices(t *testing.T) {
	tests := []struct {
		name        string
		event       domain.Event
		wantMessage string
	}{
		{
			name: "skipped track",
			event: domain.TrackSkippedEvent{
				GuildID:       1,
				TextChannelID: 3,
				Track:         domain.Track{Title: "Broken Song"},
			},
			wantMessage: "Error playing **Broken Song**. Skipping.",
		},
		{
			name: "idle timeout",
			event: domain.QueueDestroyedEvent{
				GuildID:       1,
				TextChannelID: 3,
				Reason:        domain.DestroyReasonIdle,
			},
			wantMessage: "Queue finished. Leaving the voice channel.",
		},
		{
			name: "user stop is silent",
			event: domain.QueueDestroyedEvent{
				GuildID:       1,
				TextChannelID: 3,
				Reason:        domain.DestroyReasonStopped,
			},
		},
		{
			name: "disconnect is silent",
			event: domain.QueueDestroyedEvent{
				GuildID:       1,
				TextChannelID: 3,
				Reason:        domain.DestroyReasonDisconnected,
			},
		},
		{
			name: "skip without channel is silent",
			event: domain.TrackSkippedEvent{
				GuildID: 1,
				Track:   domain.Track{Title: "Broken Song"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subscriber := newMockSubscriber()
			notifier := &mockNotifier{}
			if err := NewNotificationEventHandler(subscriber, notifier).Start(); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			subscriber.deliver(tt.event)

			if tt.wantMessage == "" {
				if len(notifier.sent) != 0 {
					t.Errorf("expected no notice, got %v", notifier.sent)
				}
				return
			}
			if len(notifier.sent) != 1 {
				t.Fatalf("expected one notice, got %v", notifier.sent)
			}
			if notifier.sent[0].channelID != 3 || notifier.sent[0].message != tt.wantMessage {
				t.Errorf("expected %q in channel 3, got %+v", tt.wantMessage, notifier.sent[0])
			}
		})
	}
}

func TestPlaybackEventHandler_Start(t *testing.T) {
	subscriber := newMockSubscriber()
	handler := NewPlaybackEventHandler(nil, subscriber)

	if err := handler.Start(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(subscriber.handlers[reflect.TypeFor[domain.TrackEndedEvent]()]) != 1 {
		t.Error("expected a TrackEndedEvent handler")
	}
}
