package discord

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/sglre6355/jukebot/internal/bot"
	"github.com/sglre6355/jukebot/internal/modules/music_player/application/ports"
	"github.com/sglre6355/jukebot/internal/modules/music_player/application/usecases"
	"github.com/sglre6355/jukebot/internal/modules/music_player/domain"
)

// ComponentHandlers handles the panel's buttons, its jump select menu and the jump modal.
type ComponentHandlers struct {
	actions    *usecases.QueueActions
	voiceState ports.VoiceStateProvider
}

// NewComponentHandlers creates new ComponentHandlers.
func NewComponentHandlers(
	actions *usecases.QueueActions,
	voiceState ports.VoiceStateProvider,
) *ComponentHandlers {
	return &ComponentHandlers{
		actions:    actions,
		voiceState: voiceState,
	}
}

// Handlers returns the component handlers keyed by custom ID.
func (h *ComponentHandlers) Handlers() map[string]bot.InteractionHandler {
	controls := []domain.PanelControl{
		domain.ControlSkip,
		domain.ControlTogglePlayback,
		domain.ControlStop,
		domain.ControlShuffle,
		domain.ControlShuffleMode,
		domain.ControlLoop,
		domain.ControlPrevious,
		domain.ControlJumpModal,
		domain.ControlPagePrev,
		domain.ControlPageNext,
		domain.ControlJumpSelect,
	}

	handlers := make(map[string]bot.InteractionHandler, len(controls))
	for _, control := range controls {
		handlers[string(control)] = h.HandleComponent
	}
	return handlers
}

// ModalHandlers returns the modal handlers keyed by custom ID.
func (h *ComponentHandlers) ModalHandlers() map[string]bot.InteractionHandler {
	return map[string]bot.InteractionHandler{
		string(domain.ControlJumpSubmit): h.HandleModalSubmit,
	}
}

// HandleComponent handles button presses and select menu choices on the panel.
func (h *ComponentHandlers) HandleComponent(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	data := i.MessageComponentData()
	control := domain.PanelControl(data.CustomID)

	switch control {
	case domain.ControlJumpModal:
		return r.Respond(jumpModal())
	case domain.ControlJumpSelect:
		if len(data.Values) == 0 {
			return nil
		}
		return h.jump(i, r, data.Values[0])
	}

	actx, err := newInteractionContext(i, h.voiceState, r)
	if err != nil {
		return err
	}

	// Buttons only acknowledge; the panel itself shows the outcome.
	if err := actx.deferUpdate(); err != nil {
		return err
	}

	ctx := context.Background()
	if err := h.press(ctx, actx, control); err != nil {
		if _, ok := userMessage(err); ok {
			slog.Debug(
				"ignored panel button",
				"control", control,
				"guild", actx.GuildID(),
				"reason", err,
			)
			return nil
		}
		slog.Error(
			"failed to handle panel button",
			"control", control,
			"guild", actx.GuildID(),
			"error", err,
		)
	}
	return nil
}

func (h *ComponentHandlers) press(
	ctx context.Context,
	actx ports.ActionContext,
	control domain.PanelControl,
) error {
	var err error
	switch control {
	case domain.ControlSkip:
		_, err = h.actions.Skip(ctx, actx)
	case domain.ControlTogglePlayback:
		_, err = h.actions.TogglePause(ctx, actx)
	case domain.ControlStop:
		_, err = h.actions.Stop(ctx, actx)
	case domain.ControlShuffle:
		err = h.actions.Shuffle(ctx, actx)
	case domain.ControlShuffleMode:
		_, err = h.actions.ToggleShuffleMode(ctx, actx)
	case domain.ControlLoop:
		_, err = h.actions.ToggleLoop(ctx, actx)
	case domain.ControlPrevious:
		_, err = h.actions.Previous(ctx, actx)
	case domain.ControlPagePrev:
		err = h.actions.Paginate(ctx, actx, usecases.PaginateInput{Delta: -1})
	case domain.ControlPageNext:
		err = h.actions.Paginate(ctx, actx, usecases.PaginateInput{Delta: 1})
	default:
		slog.Warn("found no handler for panel control", "control", control)
	}
	return err
}

// HandleModalSubmit handles the jump modal.
func (h *ComponentHandlers) HandleModalSubmit(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	data := i.ModalSubmitData()
	if domain.PanelControl(data.CustomID) != domain.ControlJumpSubmit {
		slog.Warn("found no handler for modal", "custom_id", data.CustomID)
		return nil
	}

	return h.jump(i, r, textInputValue(data.Components, domain.ControlSongNumber))
}

// jump runs a jump from the select menu or the modal. Failures are shown only to the member.
func (h *ComponentHandlers) jump(i *discordgo.InteractionCreate, r bot.Responder, value string) error {
	actx, err := newInteractionContext(i, h.voiceState, r)
	if err != nil {
		return err
	}
	actx.ephemeral = true

	ctx := context.Background()
	index, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return actx.ReplyError(ctx, asSentence(errInvalidSongNumber.Error()))
	}

	if _, err := h.actions.Jump(ctx, actx, usecases.JumpInput{Index: index}); err != nil {
		if msg, ok := userMessage(err); ok {
			return actx.ReplyError(ctx, msg)
		}
		slog.Error("failed to jump", "guild", actx.GuildID(), "index", index, "error", err)
		return actx.ReplyError(ctx, genericErrorMessage)
	}

	return actx.deferUpdate()
}

func jumpModal() *discordgo.InteractionResponse {
	return &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: string(domain.ControlJumpSubmit),
			Title:    "Jump to Song",
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.TextInput{
						CustomID:    string(domain.ControlSongNumber),
						Label:       "Song number",
						Style:       discordgo.TextInputShort,
						Placeholder: "1",
						Required:    true,
						MinLength:   1,
						MaxLength:   4,
					},
				}},
			},
		},
	}
}

// textInputValue finds a text input in submitted modal components.
func textInputValue(components []discordgo.MessageComponent, control domain.PanelControl) string {
	for _, component := range components {
		var children []discordgo.MessageComponent
		switch row := component.(type) {
		case *discordgo.ActionsRow:
			children = row.Components
		case discordgo.ActionsRow:
			children = row.Components
		}
		for _, child := range children {
			switch input := child.(type) {
			case *discordgo.TextInput:
				if input.CustomID == string(control) {
					return input.Value
				}
			case discordgo.TextInput:
				if input.CustomID == string(control) {
					return input.Value
				}
			}
		}
	}
	return ""
}
