package ports

import (
	"context"

	"github.com/disgoorg/snowflake/v2"
)

// Member identifies the user acting on a queue.
type Member struct {
	ID          snowflake.ID
	DisplayName string
}

// ActionContext is the surface an action was triggered from: a slash command,
// a text command, a button, a select menu or a modal.
type ActionContext interface {
	GuildID() snowflake.ID
	// ChannelID is the text channel the action came from.
	ChannelID() snowflake.ID
	ActingMember() Member
	// VoiceChannelOf returns the member's voice channel, or 0 if not connected.
	VoiceChannelOf(member Member) (snowflake.ID, error)
	Reply(ctx context.Context, content string) error
}
