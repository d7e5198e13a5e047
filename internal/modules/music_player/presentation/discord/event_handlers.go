package discord

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/jukebot/internal/modules/music_player/application/usecases"
)

// EventHandlers follows the bot's own voice connection so a kick or a move
// made from the Discord client is reflected in the guild queue.
type EventHandlers struct {
	botID        snowflake.ID
	voiceChannel *usecases.VoiceChannelService
}

func NewEventHandlers(botID snowflake.ID, voiceChannel *usecases.VoiceChannelService) *EventHandlers {
	return &EventHandlers{botID: botID, voiceChannel: voiceChannel}
}

// HandleVoiceStateUpdate ignores updates for anyone but the bot.
func (h *EventHandlers) HandleVoiceStateUpdate(_ *discordgo.Session, event *discordgo.VoiceStateUpdate) {
	if event.VoiceState == nil || event.UserID != h.botID.String() {
		return
	}

	input, err := botVoiceChange(event.VoiceState)
	if err != nil {
		slog.Error("ignoring malformed voice state update", "error", err)
		return
	}

	if err := h.voiceChannel.HandleBotVoiceStateChange(context.Background(), input); err != nil {
		slog.Error("failed to follow bot voice state", "guild", input.GuildID, "error", err)
	}
}

// botVoiceChange maps a voice state to the service input. An empty channel ID
// means the bot left voice.
func botVoiceChange(state *discordgo.VoiceState) (usecases.BotVoiceStateChangeInput, error) {
	guildID, err := snowflake.Parse(state.GuildID)
	if err != nil {
		return usecases.BotVoiceStateChangeInput{}, fmt.Errorf("guild ID %q: %w", state.GuildID, err)
	}

	input := usecases.BotVoiceStateChangeInput{GuildID: guildID}
	if state.ChannelID == "" {
		return input, nil
	}

	channelID, err := snowflake.Parse(state.ChannelID)
	if err != nil {
		return input, fmt.Errorf("channel ID %q: %w", state.ChannelID, err)
	}
	input.NewChannelID = &channelID
	return input, nil
}
