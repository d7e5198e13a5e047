package ports

import (
	"context"
	"reflect"

	"github.com/sglre6355/jukebot/internal/modules/music_player/domain"
)

// EventPublisher hands playback events to the event bus.
// Publish must not block on subscribers; the Lavalink listener calls it.
type EventPublisher interface {
	Publish(event domain.Event) error
}

// EventSubscriber registers a handler for one concrete event type,
// e.g. reflect.TypeFor[domain.TrackEndedEvent]().
type EventSubscriber interface {
	Subscribe(eventType reflect.Type, handler func(context.Context, domain.Event)) error
}
