package discord

import (
	"context"
	"log/slog"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/sglre6355/jukebot/internal/modules/music_player/application/ports"
	"github.com/sglre6355/jukebot/internal/modules/music_player/application/usecases"
)

// DefaultCommandPrefix starts a text command when no prefix is configured.
const DefaultCommandPrefix = "!"

// TextCommandHandler handles prefix commands such as "!play <query>".
type TextCommandHandler struct {
	prefix     string
	commands   *musicCommands
	voiceState ports.VoiceStateProvider
}

// NewTextCommandHandler creates a new TextCommandHandler.
func NewTextCommandHandler(
	prefix string,
	ingestion *usecases.IngestionService,
	actions *usecases.QueueActions,
	notification *usecases.NotificationChannelService,
	voiceState ports.VoiceStateProvider,
) *TextCommandHandler {
	if prefix == "" {
		prefix = DefaultCommandPrefix
	}
	return &TextCommandHandler{
		prefix: prefix,
		commands: &musicCommands{
			ingestion:    ingestion,
			actions:      actions,
			notification: notification,
		},
		voiceState: voiceState,
	}
}

// HandleMessage is the discordgo event handler for MessageCreate events.
func (h *TextCommandHandler) HandleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	// Ignore bots, including ourselves, and direct messages
	if m.Author == nil || m.Author.Bot || m.GuildID == "" {
		return
	}

	name, args, ok := parseTextCommand(m.Content, h.prefix)
	if !ok {
		return
	}
	fn, ok := h.commands.lookup(name)
	if !ok {
		return
	}

	actx, err := newMessageContext(s, m, h.voiceState)
	if err != nil {
		slog.Error("failed to build text command context", "message", m.ID, "error", err)
		return
	}

	if err := h.commands.execute(context.Background(), actx, name, fn, args); err != nil {
		slog.Error(
			"failed to reply to text command",
			"command", name,
			"channel", m.ChannelID,
			"error", err,
		)
	}
}

// parseTextCommand splits "!name args" into a lower-case name and the raw arguments.
func parseTextCommand(content, prefix string) (name, args string, ok bool) {
	rest, found := strings.CutPrefix(strings.TrimSpace(content), prefix)
	if !found || rest == "" {
		return "", "", false
	}

	fields := strings.Fields(rest)
	if len(fields) == 0 || !strings.HasPrefix(rest, fields[0]) {
		// "! play" is not a command
		return "", "", false
	}

	name = strings.ToLower(fields[0])
	args = strings.TrimSpace(strings.TrimPrefix(rest, fields[0]))
	return name, args, true
}
