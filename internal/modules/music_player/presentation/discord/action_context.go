package discord

import (
	"context"
	"errors"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/jukebot/internal/bot"
	"github.com/sglre6355/jukebot/internal/modules/music_player/application/ports"
)

var errNotInGuild = errors.New("interaction did not come from a guild member")

// acknowledger is implemented by contexts that can show progress before the final reply.
type acknowledger interface {
	Acknowledge(ctx context.Context, content string) error
}

// interactionContext is the ActionContext of slash commands, buttons, select menus and modals.
// The first reply responds to the interaction, later replies edit that response.
type interactionContext struct {
	guildID   snowflake.ID
	channelID snowflake.ID
	member    ports.Member
	voice     ports.VoiceStateProvider
	responder bot.Responder
	ephemeral bool

	mu        sync.Mutex
	responded bool
}

func newInteractionContext(
	i *discordgo.InteractionCreate,
	voice ports.VoiceStateProvider,
	r bot.Responder,
) (*interactionContext, error) {
	if i.Member == nil || i.Member.User == nil {
		return nil, errNotInGuild
	}

	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return nil, err
	}
	channelID, err := snowflake.Parse(i.ChannelID)
	if err != nil {
		return nil, err
	}
	userID, err := snowflake.Parse(i.Member.User.ID)
	if err != nil {
		return nil, err
	}

	return &interactionContext{
		guildID:   guildID,
		channelID: channelID,
		member: ports.Member{
			ID:          userID,
			DisplayName: getDisplayName(i.Member),
		},
		voice:     voice,
		responder: r,
	}, nil
}

func (c *interactionContext) GuildID() snowflake.ID      { return c.guildID }
func (c *interactionContext) ChannelID() snowflake.ID    { return c.channelID }
func (c *interactionContext) ActingMember() ports.Member { return c.member }

func (c *interactionContext) VoiceChannelOf(member ports.Member) (snowflake.ID, error) {
	return c.voice.GetUserVoiceChannel(c.guildID, member.ID)
}

// Reply sends a success embed.
func (c *interactionContext) Reply(_ context.Context, content string) error {
	return c.send(successEmbed(content))
}

// ReplyError sends an error embed.
func (c *interactionContext) ReplyError(_ context.Context, message string) error {
	return c.send(errorEmbed(message))
}

// Acknowledge shows content right away; the next reply replaces it.
func (c *interactionContext) Acknowledge(ctx context.Context, content string) error {
	return c.Reply(ctx, content)
}

func (c *interactionContext) send(embed *discordgo.MessageEmbed) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.responded {
		embeds := []*discordgo.MessageEmbed{embed}
		return c.responder.Edit(&discordgo.WebhookEdit{Embeds: &embeds})
	}

	data := &discordgo.InteractionResponseData{
		Embeds: []*discordgo.MessageEmbed{embed},
	}
	if c.ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	err := c.responder.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
	if err == nil {
		c.responded = true
	}
	return err
}

// deferUpdate acknowledges a component interaction without changing its message.
func (c *interactionContext) deferUpdate() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.responded {
		return nil
	}
	err := c.responder.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	})
	if err == nil {
		c.responded = true
	}
	return err
}

// messageSender is the part of the Discord session text commands reply through.
type messageSender interface {
	ChannelMessageSendComplex(
		channelID string,
		data *discordgo.MessageSend,
		options ...discordgo.RequestOption,
	) (*discordgo.Message, error)
}

// messageContext is the ActionContext of prefix text commands.
type messageContext struct {
	sender    messageSender
	guildID   snowflake.ID
	channelID snowflake.ID
	messageID string
	member    ports.Member
	voice     ports.VoiceStateProvider
}

func newMessageContext(
	sender messageSender,
	m *discordgo.MessageCreate,
	voice ports.VoiceStateProvider,
) (*messageContext, error) {
	guildID, err := snowflake.Parse(m.GuildID)
	if err != nil {
		return nil, err
	}
	channelID, err := snowflake.Parse(m.ChannelID)
	if err != nil {
		return nil, err
	}
	userID, err := snowflake.Parse(m.Author.ID)
	if err != nil {
		return nil, err
	}

	name := m.Author.GlobalName
	if m.Member != nil {
		// Members attached to messages carry no user, only the guild profile.
		member := *m.Member
		member.User = m.Author
		name = getDisplayName(&member)
	}
	if name == "" {
		name = m.Author.Username
	}

	return &messageContext{
		sender:    sender,
		guildID:   guildID,
		channelID: channelID,
		messageID: m.ID,
		member:    ports.Member{ID: userID, DisplayName: name},
		voice:     voice,
	}, nil
}

func (c *messageContext) GuildID() snowflake.ID      { return c.guildID }
func (c *messageContext) ChannelID() snowflake.ID    { return c.channelID }
func (c *messageContext) ActingMember() ports.Member { return c.member }

func (c *messageContext) VoiceChannelOf(member ports.Member) (snowflake.ID, error) {
	return c.voice.GetUserVoiceChannel(c.guildID, member.ID)
}

// Reply answers the command message with a success embed.
func (c *messageContext) Reply(ctx context.Context, content string) error {
	return c.send(ctx, successEmbed(content))
}

// ReplyError answers the command message with an error embed.
func (c *messageContext) ReplyError(ctx context.Context, message string) error {
	return c.send(ctx, errorEmbed(message))
}

// Acknowledge posts a progress message ahead of the final reply.
func (c *messageContext) Acknowledge(ctx context.Context, content string) error {
	return c.Reply(ctx, content)
}

func (c *messageContext) send(ctx context.Context, embed *discordgo.MessageEmbed) error {
	_, err := c.sender.ChannelMessageSendComplex(
		c.channelID.String(),
		&discordgo.MessageSend{
			Embeds: []*discordgo.MessageEmbed{embed},
			Reference: &discordgo.MessageReference{
				MessageID: c.messageID,
				ChannelID: c.channelID.String(),
				GuildID:   c.guildID.String(),
			},
			AllowedMentions: &discordgo.MessageAllowedMentions{},
		},
		discordgo.WithContext(ctx),
	)
	return err
}

// getDisplayName returns the effective display name for a guild member.
// Priority: guild nickname > global display name > username.
func getDisplayName(member *discordgo.Member) string {
	if member.Nick != "" {
		return member.Nick
	}
	if member.User.GlobalName != "" {
		return member.User.GlobalName
	}
	return member.User.Username
}

var (
	_ ports.ActionContext = (*interactionContext)(nil)
	_ ports.ActionContext = (*messageContext)(nil)
	_ acknowledger        = (*interactionContext)(nil)
	_ acknowledger        = (*messageContext)(nil)
)
