package discord

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/sglre6355/jukebot/internal/modules/music_player/application/ports"
	"github.com/sglre6355/jukebot/internal/modules/music_player/application/usecases"
)

// replier is an ActionContext that can also report failures.
type replier interface {
	ports.ActionContext
	ReplyError(ctx context.Context, message string) error
}

// commandFunc runs one music command and returns the text to reply with.
type commandFunc func(ctx context.Context, actx replier, args string) (string, error)

// musicCommands holds the commands shared by slash and text commands.
type musicCommands struct {
	ingestion    *usecases.IngestionService
	actions      *usecases.QueueActions
	notification *usecases.NotificationChannelService
}

func (c *musicCommands) lookup(name string) (commandFunc, bool) {
	switch name {
	case "play", "p":
		return c.play, true
	case "skip", "next":
		return c.skip, true
	case "previous", "prev", "back":
		return c.previous, true
	case "stop", "leave":
		return c.stop, true
	case "toggle", "pause", "resume":
		return c.toggle, true
	case "shuffle":
		return c.shuffle, true
	case "shufflemode":
		return c.shuffleMode, true
	case "loop":
		return c.loop, true
	case "jump":
		return c.jump, true
	case "queue", "q":
		return c.queue, true
	case "panel":
		return c.panel, true
	}
	return nil, false
}

// execute runs fn and replies with its result. User errors are shown as they are,
// anything else is logged and reported generically.
func (c *musicCommands) execute(
	ctx context.Context,
	actx replier,
	name string,
	fn commandFunc,
	args string,
) error {
	reply, err := fn(ctx, actx, args)
	if err != nil {
		if msg, ok := userMessage(err); ok {
			return actx.ReplyError(ctx, msg)
		}
		slog.Error(
			"failed to run music command",
			"command", name,
			"guild", actx.GuildID(),
			"error", err,
		)
		return actx.ReplyError(ctx, genericErrorMessage)
	}
	return actx.Reply(ctx, reply)
}

func (c *musicCommands) play(ctx context.Context, actx replier, args string) (string, error) {
	query := strings.TrimSpace(args)
	if query == "" {
		return "", usecases.ErrEmptyQuery
	}

	if a, ok := actx.(acknowledger); ok {
		if err := a.Acknowledge(ctx, fmt.Sprintf("Searching for **%s**...", query)); err != nil {
			slog.Warn("failed to acknowledge play request", "guild", actx.GuildID(), "error", err)
		}
	}

	output, err := c.ingestion.RequestPlay(ctx, usecases.RequestPlayInput{
		Actor: actx,
		Query: query,
	})
	if err != nil {
		return "", err
	}
	return formatPlayOutput(output), nil
}

func (c *musicCommands) skip(ctx context.Context, actx replier, _ string) (string, error) {
	output, err := c.actions.Skip(ctx, actx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Skipped %s.", trackLink(output.Skipped)), nil
}

func (c *musicCommands) previous(ctx context.Context, actx replier, _ string) (string, error) {
	output, err := c.actions.Previous(ctx, actx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Playing %s again.", trackLink(output.Track)), nil
}

func (c *musicCommands) stop(ctx context.Context, actx replier, _ string) (string, error) {
	output, err := c.actions.Stop(ctx, actx)
	if err != nil {
		return "", err
	}
	if !output.Stopped {
		return "Nothing is playing.", nil
	}
	return "Stopped playback and left the voice channel.", nil
}

func (c *musicCommands) toggle(ctx context.Context, actx replier, _ string) (string, error) {
	output, err := c.actions.TogglePause(ctx, actx)
	if err != nil {
		return "", err
	}
	if output.Paused {
		return "Paused playback.", nil
	}
	return "Resumed playback.", nil
}

func (c *musicCommands) shuffle(ctx context.Context, actx replier, _ string) (string, error) {
	if err := c.actions.Shuffle(ctx, actx); err != nil {
		return "", err
	}
	return "Shuffled the queue.", nil
}

func (c *musicCommands) shuffleMode(ctx context.Context, actx replier, _ string) (string, error) {
	output, err := c.actions.ToggleShuffleMode(ctx, actx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Shuffle mode %s.", enabledDisabled(output.Enabled)), nil
}

func (c *musicCommands) loop(ctx context.Context, actx replier, _ string) (string, error) {
	output, err := c.actions.ToggleLoop(ctx, actx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Loop %s.", enabledDisabled(output.Enabled)), nil
}

func (c *musicCommands) jump(ctx context.Context, actx replier, args string) (string, error) {
	index, err := strconv.Atoi(strings.TrimSpace(args))
	if err != nil {
		return "", errInvalidSongNumber
	}

	output, err := c.actions.Jump(ctx, actx, usecases.JumpInput{Index: index})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Jumped to %s.", trackLink(output.Track)), nil
}

func (c *musicCommands) queue(_ context.Context, actx replier, args string) (string, error) {
	page := 0
	if n, err := strconv.Atoi(strings.TrimSpace(args)); err == nil && n > 0 {
		page = n - 1
	}

	output, err := c.actions.List(usecases.QueueListInput{
		GuildID: actx.GuildID(),
		Page:    page,
	})
	if err != nil {
		return "", err
	}
	return formatQueue(output.View), nil
}

func (c *musicCommands) panel(ctx context.Context, actx replier, _ string) (string, error) {
	if err := c.notification.Set(ctx, actx); err != nil {
		return "", err
	}
	return "The now playing panel will be shown in this channel.", nil
}
