package ports

import (
	"context"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/jukebot/internal/modules/music_player/domain"
)

// SessionOpener joins a voice channel and returns the session that owns the connection.
type SessionOpener interface {
	Open(ctx context.Context, guildID, voiceChannelID snowflake.ID) (domain.AudioSession, error)
}

// VoiceStateProvider defines the interface for getting Discord voice state information.
type VoiceStateProvider interface {
	// GetUserVoiceChannel returns the voice channel ID the user is currently in.
	// Returns 0 if the user is not in a voice channel.
	GetUserVoiceChannel(guildID, userID snowflake.ID) (snowflake.ID, error)

	// CanConnectAndSpeak reports whether the bot may join and speak in the channel.
	CanConnectAndSpeak(guildID, voiceChannelID snowflake.ID) (bool, error)
}
