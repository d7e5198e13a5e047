package usecases

import (
	"context"

	"github.com/sglre6355/jukebot/internal/modules/music_player/application/ports"
	"github.com/sglre6355/jukebot/internal/modules/music_player/domain"
)

// NotificationChannelService moves a guild's notices and panel to another text channel.
type NotificationChannelService struct {
	registry domain.QueueRegistry
	panels   *PanelSync
}

// NewNotificationChannelService creates a new NotificationChannelService.
func NewNotificationChannelService(
	registry domain.QueueRegistry,
	panels *PanelSync,
) *NotificationChannelService {
	return &NotificationChannelService{
		registry: registry,
		panels:   panels,
	}
}

// Set makes the channel the action came from the guild's notification channel.
func (s *NotificationChannelService) Set(ctx context.Context, actor ports.ActionContext) error {
	err := s.registry.Update(actor.GuildID(), func(q *domain.GuildQueue) error {
		q.SetTextChannelID(actor.ChannelID())
		return nil
	})
	if err != nil {
		return notFoundAsNoQueue(err)
	}

	s.panels.Refresh(ctx, actor.GuildID())
	return nil
}
