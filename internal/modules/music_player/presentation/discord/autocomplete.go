package discord

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/jukebot/internal/bot"
	"github.com/sglre6355/jukebot/internal/modules/music_player/application/usecases"
)

// maxChoiceLength is the longest name or value Discord accepts for a choice.
const maxChoiceLength = 100

// autocompleteTimeout keeps suggestions inside Discord's three second window.
const autocompleteTimeout = 2500 * time.Millisecond

// AutocompleteHandler handles autocomplete requests.
type AutocompleteHandler struct {
	autocomplete *usecases.AutocompleteService
}

// NewAutocompleteHandler creates a new AutocompleteHandler.
func NewAutocompleteHandler(autocomplete *usecases.AutocompleteService) *AutocompleteHandler {
	return &AutocompleteHandler{
		autocomplete: autocomplete,
	}
}

// Handlers returns the autocomplete handlers keyed by command name.
func (h *AutocompleteHandler) Handlers() map[string]bot.InteractionHandler {
	return map[string]bot.InteractionHandler{
		"play": h.HandleAutocomplete,
		"jump": h.HandleAutocomplete,
	}
}

// HandleAutocomplete routes an autocomplete request by command name.
func (h *AutocompleteHandler) HandleAutocomplete(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	switch i.ApplicationCommandData().Name {
	case "play":
		return h.handlePlay(i, r)
	case "jump":
		return h.handleJump(i, r)
	}
	return respondChoices(r, nil)
}

// handlePlay suggests search results for the play query.
func (h *AutocompleteHandler) handlePlay(i *discordgo.InteractionCreate, r bot.Responder) error {
	query := focusedValue(i, "query")

	// Don't search for very short queries
	if len(query) < 2 {
		return respondChoices(r, nil)
	}

	ctx, cancel := context.WithTimeout(context.Background(), autocompleteTimeout)
	defer cancel()

	suggestions, err := h.autocomplete.SearchTracks(ctx, query)
	if err != nil {
		slog.Warn("failed to search tracks for autocomplete", "query", query, "error", err)
		return respondChoices(r, nil)
	}

	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(suggestions))
	for _, s := range suggestions {
		// A truncated URL would no longer resolve
		if len(s.Value) > maxChoiceLength {
			continue
		}
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  truncate(s.Name, maxChoiceLength),
			Value: s.Value,
		})
	}
	return respondChoices(r, choices)
}

// handleJump suggests upcoming songs for the jump position.
func (h *AutocompleteHandler) handleJump(i *discordgo.InteractionCreate, r bot.Responder) error {
	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		slog.Warn("failed to parse guild ID in autocomplete", "error", err, "guildID", i.GuildID)
		return respondChoices(r, nil)
	}

	suggestions := h.autocomplete.UpcomingTracks(guildID, focusedValue(i, "position"))

	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(suggestions))
	for _, s := range suggestions {
		position, err := strconv.Atoi(s.Value)
		if err != nil {
			continue
		}
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  truncate(s.Name, maxChoiceLength),
			Value: position,
		})
	}
	return respondChoices(r, choices)
}

// focusedValue returns the raw text typed into the named option.
func focusedValue(i *discordgo.InteractionCreate, name string) string {
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == name && opt.Focused {
			// Integer options hold whatever was typed so far, which may not be a number.
			if s, ok := opt.Value.(string); ok {
				return s
			}
			if f, ok := opt.Value.(float64); ok {
				return strconv.FormatFloat(f, 'f', -1, 64)
			}
		}
	}
	return ""
}

func respondChoices(r bot.Responder, choices []*discordgo.ApplicationCommandOptionChoice) error {
	if choices == nil {
		choices = []*discordgo.ApplicationCommandOptionChoice{}
	}
	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionApplicationCommandAutocompleteResult,
		Data: &discordgo.InteractionResponseData{
			Choices: choices,
		},
	})
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}
