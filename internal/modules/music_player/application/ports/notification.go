package ports

import (
	"context"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/jukebot/internal/modules/music_player/domain"
)

// Notifier posts plain notices to a guild's text channel.
type Notifier interface {
	Notify(ctx context.Context, channelID snowflake.ID, message string) error
}

// PanelPublisher renders and publishes the now-playing panel.
type PanelPublisher interface {
	// PublishPanel edits the existing panel message when possible, otherwise sends a new one.
	PublishPanel(
		ctx context.Context,
		channelID snowflake.ID,
		existing *domain.PanelMessage,
		view domain.PanelView,
	) (domain.PanelMessage, error)

	// DeletePanel removes a panel message. Already deleted messages are not an error.
	DeletePanel(ctx context.Context, panel domain.PanelMessage) error
}
