package usecases

import (
	"context"
	"errors"
	"log/slog"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/jukebot/internal/modules/music_player/domain"
)

// BotVoiceStateChangeInput contains the input for the HandleBotVoiceStateChange use case.
type BotVoiceStateChangeInput struct {
	GuildID      snowflake.ID
	NewChannelID *snowflake.ID // nil if the bot was disconnected
}

// VoiceChannelService reacts to the bot's own voice state.
type VoiceChannelService struct {
	registry   domain.QueueRegistry
	controller *PlaybackController
}

// NewVoiceChannelService creates a new VoiceChannelService.
func NewVoiceChannelService(
	registry domain.QueueRegistry,
	controller *PlaybackController,
) *VoiceChannelService {
	return &VoiceChannelService{
		registry:   registry,
		controller: controller,
	}
}

// HandleBotVoiceStateChange destroys the queue when the bot is disconnected
// and follows the bot when it is moved to another channel. A disconnect seen
// while a new queue is still joining belongs to the previous connection.
func (s *VoiceChannelService) HandleBotVoiceStateChange(
	ctx context.Context,
	input BotVoiceStateChangeInput,
) error {
	if input.NewChannelID == nil {
		if s.controller.DestroyConnected(ctx, input.GuildID, domain.DestroyReasonDisconnected) {
			slog.Info("bot disconnected from voice, queue dropped", "guild", input.GuildID)
		}
		return nil
	}

	err := s.registry.Update(input.GuildID, func(q *domain.GuildQueue) error {
		q.SetVoiceChannelID(*input.NewChannelID)
		return nil
	})
	if errors.Is(err, domain.ErrQueueNotFound) {
		return nil
	}
	return err
}
