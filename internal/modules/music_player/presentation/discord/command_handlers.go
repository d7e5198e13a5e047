package discord

import (
	"context"
	"strconv"

	"github.com/bwmarrin/discordgo"
	"github.com/sglre6355/jukebot/internal/bot"
	"github.com/sglre6355/jukebot/internal/modules/music_player/application/ports"
	"github.com/sglre6355/jukebot/internal/modules/music_player/application/usecases"
)

// CommandHandlers holds all the slash command handlers.
type CommandHandlers struct {
	commands   *musicCommands
	voiceState ports.VoiceStateProvider
}

// NewCommandHandlers creates new CommandHandlers.
func NewCommandHandlers(
	ingestion *usecases.IngestionService,
	actions *usecases.QueueActions,
	notification *usecases.NotificationChannelService,
	voiceState ports.VoiceStateProvider,
) *CommandHandlers {
	return &CommandHandlers{
		commands: &musicCommands{
			ingestion:    ingestion,
			actions:      actions,
			notification: notification,
		},
		voiceState: voiceState,
	}
}

// Handlers returns the slash command handlers keyed by command name.
func (h *CommandHandlers) Handlers() map[string]bot.InteractionHandler {
	return map[string]bot.InteractionHandler{
		"play":     h.HandlePlay,
		"skip":     h.handle("skip"),
		"previous": h.handle("previous"),
		"stop":     h.handle("stop"),
		"toggle":   h.handle("toggle"),
		"shuffle":  h.HandleShuffle,
		"loop":     h.handle("loop"),
		"jump":     h.HandleJump,
		"queue":    h.HandleQueue,
		"panel":    h.handle("panel"),
	}
}

// handle returns a handler for a command without options.
func (h *CommandHandlers) handle(name string) bot.InteractionHandler {
	return func(_ *discordgo.Session, i *discordgo.InteractionCreate, r bot.Responder) error {
		return h.run(i, r, name, "")
	}
}

// HandlePlay handles the /play command.
func (h *CommandHandlers) HandlePlay(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	var query string
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "query" {
			query = opt.StringValue()
		}
	}
	return h.run(i, r, "play", query)
}

// HandleShuffle handles the /shuffle command.
func (h *CommandHandlers) HandleShuffle(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	name := "shuffle"
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "mode" && opt.BoolValue() {
			name = "shufflemode"
		}
	}
	return h.run(i, r, name, "")
}

// HandleJump handles the /jump command.
func (h *CommandHandlers) HandleJump(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	var position string
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "position" {
			position = strconv.FormatInt(opt.IntValue(), 10)
		}
	}
	return h.run(i, r, "jump", position)
}

// HandleQueue handles the /queue command.
func (h *CommandHandlers) HandleQueue(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	var page string
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "page" {
			page = strconv.FormatInt(opt.IntValue(), 10)
		}
	}
	return h.run(i, r, "queue", page)
}

func (h *CommandHandlers) run(
	i *discordgo.InteractionCreate,
	r bot.Responder,
	name, args string,
) error {
	actx, err := newInteractionContext(i, h.voiceState, r)
	if err != nil {
		return err
	}

	fn, _ := h.commands.lookup(name)
	return h.commands.execute(context.Background(), actx, name, fn, args)
}
