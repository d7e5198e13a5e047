package usecases

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/jukebot/internal/modules/music_player/application/ports"
	"github.com/sglre6355/jukebot/internal/modules/music_player/domain"
)

// DefaultIdleTimeout is how long an exhausted queue keeps its voice connection.
const DefaultIdleTimeout = 5 * time.Minute

var (
	// errStaleEvent marks an idle notification that does not belong to the current play.
	errStaleEvent = errors.New("stale track end event")

	// errSessionPending is returned while a new queue is still joining its voice channel.
	errSessionPending = errors.New("session pending")
)

// PlaybackController drives sequential playback of each guild's queue.
// At most one advance runs per guild at a time.
type PlaybackController struct {
	registry    domain.QueueRegistry
	streams     ports.StreamResolver
	panels      *PanelSync
	publisher   ports.EventPublisher
	scheduler   ports.Scheduler
	rng         domain.RandomSource
	idleTimeout time.Duration
	lanes       *guildLocks
}

// NewPlaybackController creates a new PlaybackController.
func NewPlaybackController(
	registry domain.QueueRegistry,
	streams ports.StreamResolver,
	panels *PanelSync,
	publisher ports.EventPublisher,
	scheduler ports.Scheduler,
	rng domain.RandomSource,
	idleTimeout time.Duration,
) *PlaybackController {
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}
	return &PlaybackController{
		registry:    registry,
		streams:     streams,
		panels:      panels,
		publisher:   publisher,
		scheduler:   scheduler,
		rng:         rng,
		idleTimeout: idleTimeout,
		lanes:       newGuildLocks(),
	}
}

// Advance starts playback of the guild's head track, skipping tracks whose
// stream cannot be opened. An empty queue starts the idle countdown instead.
func (c *PlaybackController) Advance(ctx context.Context, guildID snowflake.ID) {
	unlock := c.lanes.lock(guildID)
	defer unlock()

	c.advance(ctx, guildID)
}

// advance requires the guild lane to be held.
func (c *PlaybackController) advance(ctx context.Context, guildID snowflake.ID) {
	// Every failing track is dropped, so the loop ends once the queue runs dry.
	// Tracks appended while a load fails are picked up by the next turn.
	for {
		var (
			head     domain.Track
			session  domain.AudioSession
			drainSeq uint64
			draining bool
		)

		err := c.registry.Update(guildID, func(q *domain.GuildQueue) error {
			if q.Session() == nil {
				return errSessionPending
			}
			h, ok := q.Head()
			if !ok {
				drainSeq = q.BeginDraining()
				draining = true
				return nil
			}
			q.BeginLoading()
			head, session = h, q.Session()
			return nil
		})
		switch {
		case errors.Is(err, domain.ErrQueueNotFound):
			slog.Debug("queue gone before advance", "guild", guildID)
			return
		case errors.Is(err, errSessionPending):
			slog.Debug("session not attached yet, deferring advance", "guild", guildID)
			return
		case err != nil:
			slog.Error("failed to prepare advance", "guild", guildID, "error", err)
			return
		}

		if draining {
			c.scheduleDrain(guildID, drainSeq)
			c.panels.Refresh(ctx, guildID)
			return
		}

		stream, err := c.streams.ResolveStream(ctx, head)
		if err == nil {
			err = session.Play(ctx, stream)
		}
		if err != nil {
			slog.Warn("failed to start track, skipping",
				"guild", guildID,
				"track", head.Title,
				"error", err,
			)
			if !c.dropFailedHead(guildID, head) {
				return
			}
			continue
		}

		err = c.registry.Update(guildID, func(q *domain.GuildQueue) error {
			q.MarkPlaying(stream.Ref)
			q.ResetPage()
			return nil
		})
		if errors.Is(err, domain.ErrQueueNotFound) {
			slog.Debug("queue destroyed while track was starting", "guild", guildID)
			return
		}

		slog.Debug("started track", "guild", guildID, "track", head.Title)
		c.panels.Refresh(ctx, guildID)
		return
	}
}

// dropFailedHead removes a track that could not be started and announces it.
// Returns false if the queue no longer exists.
func (c *PlaybackController) dropFailedHead(guildID snowflake.ID, failed domain.Track) bool {
	var textChannelID snowflake.ID
	err := c.registry.Update(guildID, func(q *domain.GuildQueue) error {
		if h, ok := q.Head(); ok && h.ID == failed.ID {
			q.DropHead()
		}
		q.AbortLoading()
		textChannelID = q.TextChannelID()
		return nil
	})
	if errors.Is(err, domain.ErrQueueNotFound) {
		return false
	}

	c.publish(domain.TrackSkippedEvent{
		GuildID:       guildID,
		TextChannelID: textChannelID,
		Track:         failed,
	})
	return true
}

// HandleTrackEnded consumes an idle notification and moves on to the next track.
// Notifications for streams other than the one last started are ignored.
func (c *PlaybackController) HandleTrackEnded(ctx context.Context, event domain.TrackEndedEvent) {
	if !event.Reason.ShouldAdvanceQueue() {
		slog.Debug("ignoring track end", "guild", event.GuildID, "reason", event.Reason)
		return
	}

	unlock := c.lanes.lock(event.GuildID)
	defer unlock()

	var (
		failed        domain.Track
		loadFailed    bool
		textChannelID snowflake.ID
	)
	err := c.registry.Update(event.GuildID, func(q *domain.GuildQueue) error {
		if !q.ConsumeIdle(event.StreamRef) {
			return errStaleEvent
		}
		textChannelID = q.TextChannelID()
		if event.Reason == domain.TrackEndLoadFailed {
			failed, loadFailed = q.DropHead()
			return nil
		}
		q.CompleteHead(c.rng)
		return nil
	})
	switch {
	case errors.Is(err, domain.ErrQueueNotFound):
		slog.Debug("track ended after queue was destroyed", "guild", event.GuildID)
		return
	case errors.Is(err, errStaleEvent):
		slog.Debug("ignoring stale track end", "guild", event.GuildID, "reason", event.Reason)
		return
	case err != nil:
		slog.Error("failed to handle track end", "guild", event.GuildID, "error", err)
		return
	}

	if loadFailed {
		c.publish(domain.TrackSkippedEvent{
			GuildID:       event.GuildID,
			TextChannelID: textChannelID,
			Track:         failed,
		})
	}

	c.advance(ctx, event.GuildID)
}

// Destroy tears down the guild's queue: registry entry, panel and session.
// Destroying a guild without a queue is a no-op and returns false.
func (c *PlaybackController) Destroy(
	ctx context.Context,
	guildID snowflake.ID,
	reason domain.DestroyReason,
) bool {
	return c.destroyUnless(ctx, guildID, reason, nil)
}

// DestroyConnected is Destroy for a queue that has finished joining voice.
// A queue still waiting for its session is kept.
func (c *PlaybackController) DestroyConnected(
	ctx context.Context,
	guildID snowflake.ID,
	reason domain.DestroyReason,
) bool {
	return c.destroyUnless(ctx, guildID, reason, func(q *domain.GuildQueue) bool {
		return q.Session() == nil
	})
}

func (c *PlaybackController) destroyUnless(
	ctx context.Context,
	guildID snowflake.ID,
	reason domain.DestroyReason,
	keep func(q *domain.GuildQueue) bool,
) bool {
	unlock := c.lanes.lock(guildID)
	defer unlock()

	removed, ok := c.registry.Delete(guildID, keep)
	if !ok {
		return false
	}
	c.teardown(ctx, removed, reason)
	return true
}

// DestroyAll tears down every queue, used on shutdown.
func (c *PlaybackController) DestroyAll(ctx context.Context) {
	for _, guildID := range c.registry.GuildIDs() {
		c.Destroy(ctx, guildID, domain.DestroyReasonShutdown)
	}
}

func (c *PlaybackController) teardown(
	ctx context.Context,
	removed *domain.GuildQueue,
	reason domain.DestroyReason,
) {
	removed.MarkDestroyed()
	c.panels.Remove(ctx, removed.Panel())
	c.panels.Forget(removed.GuildID())

	if session := removed.Session(); session != nil {
		if err := session.Destroy(ctx); err != nil {
			slog.Warn("failed to destroy audio session", "guild", removed.GuildID(), "error", err)
		}
	}

	slog.Info("destroyed queue", "guild", removed.GuildID(), "reason", reason)

	c.publish(domain.QueueDestroyedEvent{
		GuildID:       removed.GuildID(),
		TextChannelID: removed.TextChannelID(),
		Reason:        reason,
	})
}

func (c *PlaybackController) scheduleDrain(guildID snowflake.ID, seq uint64) {
	slog.Debug("queue exhausted, waiting before leaving",
		"guild", guildID,
		"timeout", c.idleTimeout,
	)
	c.scheduler.AfterFunc(c.idleTimeout, func() {
		c.expireDrain(context.Background(), guildID, seq)
	})
}

// expireDrain destroys the queue only if it is still draining under the same generation.
func (c *PlaybackController) expireDrain(ctx context.Context, guildID snowflake.ID, seq uint64) {
	unlock := c.lanes.lock(guildID)
	defer unlock()

	removed, ok := c.registry.Delete(guildID, func(q *domain.GuildQueue) bool {
		return !q.IsDrainingAt(seq)
	})
	if !ok {
		slog.Debug("idle timeout no longer applies", "guild", guildID)
		return
	}
	c.teardown(ctx, removed, domain.DestroyReasonIdle)
}

func (c *PlaybackController) publish(event domain.Event) {
	if c.publisher == nil {
		return
	}
	if err := c.publisher.Publish(event); err != nil {
		slog.Warn("failed to publish event", "guild", event.EventGuildID(), "error", err)
	}
}
