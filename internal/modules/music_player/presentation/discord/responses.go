package discord

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
	"github.com/sglre6355/jukebot/internal/modules/music_player/application/usecases"
	"github.com/sglre6355/jukebot/internal/modules/music_player/domain"
)

// Embed colors.
const (
	colorSuccess = 0x08c404
	colorError   = 0xE74C3C
)

const genericErrorMessage = "An error occurred while processing your command."

var errInvalidSongNumber = errors.New("please provide a valid song number")

// userErrors are shown to the user as they are; anything else is logged.
var userErrors = []error{
	usecases.ErrUserNotInVoice,
	usecases.ErrMissingVoicePermissions,
	usecases.ErrQueueAlreadyActive,
	usecases.ErrEmptyQuery,
	usecases.ErrNoQueue,
	usecases.ErrNotEnoughTracks,
	usecases.ErrNotPlaying,
	usecases.ErrNoResults,
	usecases.ErrResolutionFailed,
	usecases.ErrConnectFailed,
	errInvalidSongNumber,
}

// userMessage returns the message to show for err, or false if err is not the user's doing.
func userMessage(err error) (string, bool) {
	var songErr *usecases.SongNumberError
	if errors.As(err, &songErr) {
		return asSentence(songErr.Error()), true
	}
	for _, target := range userErrors {
		if errors.Is(err, target) {
			return asSentence(target.Error()), true
		}
	}
	return "", false
}

func asSentence(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:] + "."
}

func successEmbed(description string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Description: description,
		Color:       colorSuccess,
	}
}

func errorEmbed(message string) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       "Error",
		Description: message,
		Color:       colorError,
	}
}

func trackLink(track domain.Track) string {
	if track.URI == "" {
		return fmt.Sprintf("**%s**", track.Title)
	}
	return fmt.Sprintf("[%s](%s)", track.Title, track.URI)
}

func formatPlayOutput(output *usecases.RequestPlayOutput) string {
	if output.Kind == domain.QueryKindPlaylist {
		name := output.PlaylistName
		if name == "" {
			name = "playlist"
		}
		return fmt.Sprintf("Added %d songs from **%s** to the queue.", len(output.Tracks), name)
	}
	return fmt.Sprintf("Added %s to the queue.", trackLink(output.Tracks[0]))
}

func enabledDisabled(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}

// formatQueue renders one page of the queue as an embed description.
func formatQueue(view domain.PanelView) string {
	var sb strings.Builder

	if view.NowPlaying != nil {
		sb.WriteString("### Now Playing\n")
		sb.WriteString(trackLink(*view.NowPlaying))
		if view.Paused {
			sb.WriteString(" (paused)")
		}
		sb.WriteString("\n")
	}

	sb.WriteString("### Up Next\n")
	if len(view.Page) == 0 {
		sb.WriteString("No more songs in the queue.\n")
	}
	for i, track := range view.Page {
		// Escape the period to prevent Discord markdown list formatting
		fmt.Fprintf(&sb, "%d\\. %s", view.PageStart+i, trackLink(track))
		if track.Artist != "" {
			fmt.Fprintf(&sb, " - %s", track.Artist)
		}
		sb.WriteString("\n")
	}

	fmt.Fprintf(
		&sb,
		"\nPage %d of %d | %d songs total | Loop: %s | Shuffle: %s",
		view.PageIndex+1,
		view.TotalPages,
		view.TotalTracks,
		enabledDisabled(view.Loop),
		enabledDisabled(view.Shuffle),
	)

	return sb.String()
}
