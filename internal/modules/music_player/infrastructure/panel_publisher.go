package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/jukebot/internal/modules/music_player/application/ports"
	"github.com/sglre6355/jukebot/internal/modules/music_player/domain"
)

// Discord limits that shape the panel.
const (
	maxFieldValueLength  = 1024
	maxSelectLabelLength = 100
)

// PanelContent is a rendered panel, ready to be sent or edited into a message.
type PanelContent struct {
	Embed      *discordgo.MessageEmbed
	Components []discordgo.MessageComponent
}

// RenderPanel renders the now-playing panel for a queue view.
func RenderPanel(view domain.PanelView) PanelContent {
	embed := &discordgo.MessageEmbed{
		Title: "Now Playing",
		Color: colorInfo,
	}

	if view.NowPlaying != nil {
		track := view.NowPlaying
		embed.Description = fmt.Sprintf(
			"**%s**\n*Requested by: %s*",
			trackLink(*track),
			track.RequesterName,
		)
		if view.Paused {
			embed.Title = "Paused"
		}
		if track.ArtworkURL != "" {
			embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: track.ArtworkURL}
		}
	} else {
		embed.Description = "Nothing is playing. Add songs with /play."
	}

	embed.Fields = []*discordgo.MessageEmbedField{
		{
			Name:  "Up Next",
			Value: upNext(view),
		},
	}

	embed.Footer = &discordgo.MessageEmbedFooter{
		Text: fmt.Sprintf(
			"Page %d of %d | %d songs total | Loop: %s | Shuffle: %s",
			view.PageIndex+1,
			view.TotalPages,
			view.TotalTracks,
			onOff(view.Loop),
			onOff(view.Shuffle),
		),
	}

	return PanelContent{
		Embed:      embed,
		Components: panelComponents(view),
	}
}

func upNext(view domain.PanelView) string {
	if len(view.Page) == 0 {
		return "No more songs in the queue."
	}

	var sb strings.Builder
	for i, track := range view.Page {
		line := fmt.Sprintf("%d. %s\n", view.PageStart+i, trackLink(track))
		if sb.Len()+len(line) > maxFieldValueLength {
			break
		}
		sb.WriteString(line)
	}
	if sb.Len() == 0 {
		// A single oversized title still gets a line.
		return truncate(fmt.Sprintf("%d. %s", view.PageStart, view.Page[0].Title), maxFieldValueLength)
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

func panelComponents(view domain.PanelView) []discordgo.MessageComponent {
	cannotSkip := !view.CanSkip()
	idle := view.NowPlaying == nil

	toggleLabel := "Pause"
	if view.Paused {
		toggleLabel = "Resume"
	}

	rows := []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			button(domain.ControlPrevious, "Previous", discordgo.SecondaryButton, cannotSkip),
			button(domain.ControlTogglePlayback, toggleLabel, discordgo.PrimaryButton, idle),
			button(domain.ControlSkip, "Skip", discordgo.SecondaryButton, cannotSkip),
			button(domain.ControlStop, "Stop", discordgo.DangerButton, false),
		}},
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			button(domain.ControlShuffle, "Shuffle", discordgo.SecondaryButton, cannotSkip),
			button(domain.ControlShuffleMode, "Shuffle Mode", modeStyle(view.Shuffle), false),
			button(domain.ControlLoop, "Loop", modeStyle(view.Loop), false),
			button(domain.ControlJumpModal, "Jump", discordgo.SecondaryButton, cannotSkip),
		}},
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			button(domain.ControlPagePrev, "Back", discordgo.SecondaryButton, view.PageIndex == 0),
			button(
				domain.ControlPageNext,
				"Next",
				discordgo.SecondaryButton,
				view.PageIndex >= view.TotalPages-1,
			),
		}},
	}

	// Discord rejects select menus without options.
	if len(view.JumpOptions) > 0 {
		options := make([]discordgo.SelectMenuOption, len(view.JumpOptions))
		for i, track := range view.JumpOptions {
			n := strconv.Itoa(i + 1)
			options[i] = discordgo.SelectMenuOption{
				Label: truncate(n+". "+track.Title, maxSelectLabelLength),
				Value: n,
			}
		}
		rows = append(rows, discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.SelectMenu{
				MenuType:    discordgo.StringSelectMenu,
				CustomID:    string(domain.ControlJumpSelect),
				Placeholder: "Jump to a song",
				Options:     options,
			},
		}})
	}

	return rows
}

func button(
	control domain.PanelControl,
	label string,
	style discordgo.ButtonStyle,
	disabled bool,
) discordgo.Button {
	return discordgo.Button{
		CustomID: string(control),
		Label:    label,
		Style:    style,
		Disabled: disabled,
	}
}

func modeStyle(enabled bool) discordgo.ButtonStyle {
	if enabled {
		return discordgo.SuccessButton
	}
	return discordgo.SecondaryButton
}

func trackLink(track domain.Track) string {
	if track.URI == "" {
		return track.Title
	}
	return fmt.Sprintf("[%s](%s)", track.Title, track.URI)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	return string(runes[:maxLen-3]) + "..."
}

// PanelPublisher sends and edits panel messages.
type PanelPublisher struct {
	session    *discordgo.Session
	thumbnails *thumbnailResolver
}

// NewPanelPublisher creates a new PanelPublisher.
func NewPanelPublisher(session *discordgo.Session) *PanelPublisher {
	return &PanelPublisher{
		session:    session,
		thumbnails: newThumbnailResolver(),
	}
}

// PublishPanel edits the existing panel in place, or sends a new one when there is none,
// it lives in another channel, or it was deleted.
func (p *PanelPublisher) PublishPanel(
	ctx context.Context,
	channelID snowflake.ID,
	existing *domain.PanelMessage,
	view domain.PanelView,
) (domain.PanelMessage, error) {
	content := RenderPanel(view)
	if view.NowPlaying != nil {
		thumbnail := p.thumbnails.resolve(
			ctx,
			youtubeVideoID(view.NowPlaying.URI),
			view.NowPlaying.ArtworkURL,
		)
		if thumbnail != "" {
			content.Embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: thumbnail}
		}
	}

	if existing != nil {
		if existing.ChannelID == channelID {
			err := p.editPanel(ctx, *existing, content)
			if err == nil {
				return *existing, nil
			}
			if !isUnknownMessage(err) {
				return domain.PanelMessage{}, err
			}
			slog.Debug("panel message was deleted, sending a new one", "channel", channelID)
		} else if err := p.DeletePanel(ctx, *existing); err != nil {
			slog.Warn("failed to delete panel in previous channel", "panel", *existing, "error", err)
		}
	}

	msg, err := p.session.ChannelMessageSendComplex(
		channelID.String(),
		&discordgo.MessageSend{
			Embeds:     []*discordgo.MessageEmbed{content.Embed},
			Components: content.Components,
		},
		discordgo.WithContext(ctx),
	)
	if err != nil {
		return domain.PanelMessage{}, err
	}

	messageID, err := snowflake.Parse(msg.ID)
	if err != nil {
		return domain.PanelMessage{}, err
	}
	return domain.PanelMessage{ChannelID: channelID, MessageID: messageID}, nil
}

func (p *PanelPublisher) editPanel(
	ctx context.Context,
	panel domain.PanelMessage,
	content PanelContent,
) error {
	embeds := []*discordgo.MessageEmbed{content.Embed}
	_, err := p.session.ChannelMessageEditComplex(
		&discordgo.MessageEdit{
			Channel:    panel.ChannelID.String(),
			ID:         panel.MessageID.String(),
			Embeds:     &embeds,
			Components: &content.Components,
		},
		discordgo.WithContext(ctx),
	)
	return err
}

// DeletePanel deletes a panel message. Messages that are already gone are ignored.
func (p *PanelPublisher) DeletePanel(ctx context.Context, panel domain.PanelMessage) error {
	err := p.session.ChannelMessageDelete(
		panel.ChannelID.String(),
		panel.MessageID.String(),
		discordgo.WithContext(ctx),
	)
	if err != nil && !isUnknownMessage(err) {
		return err
	}
	return nil
}

// isUnknownMessage reports whether Discord rejected a request because the message no longer exists.
func isUnknownMessage(err error) bool {
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) || restErr.Message == nil {
		return false
	}
	return restErr.Message.Code == discordgo.ErrCodeUnknownMessage
}

// Ensure PanelPublisher implements ports.PanelPublisher.
var _ ports.PanelPublisher = (*PanelPublisher)(nil)
