package usecases

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/jukebot/internal/modules/music_player/application/ports"
	"github.com/sglre6355/jukebot/internal/modules/music_player/domain"
	"golang.org/x/time/rate"
)

// panelBurst lets a burst of button presses through before edits are spaced out.
const panelBurst = 2

// PanelSync keeps each guild's panel message in step with its queue.
// Refreshes of one guild are serialized and rate limited.
type PanelSync struct {
	registry  domain.QueueRegistry
	publisher ports.PanelPublisher
	lanes     *guildLocks
	limit     rate.Limit

	limitersMu sync.Mutex
	limiters   map[snowflake.ID]*rate.Limiter
}

// NewPanelSync creates a new PanelSync. editsPerSecond <= 0 disables rate limiting.
func NewPanelSync(
	registry domain.QueueRegistry,
	publisher ports.PanelPublisher,
	editsPerSecond float64,
) *PanelSync {
	limit := rate.Inf
	if editsPerSecond > 0 {
		limit = rate.Limit(editsPerSecond)
	}
	return &PanelSync{
		registry:  registry,
		publisher: publisher,
		lanes:     newGuildLocks(),
		limit:     limit,
		limiters:  make(map[snowflake.ID]*rate.Limiter),
	}
}

// Refresh renders the guild's current queue into its panel, sending a new message if needed.
func (p *PanelSync) Refresh(ctx context.Context, guildID snowflake.ID) {
	unlock := p.lanes.lock(guildID)
	defer unlock()

	if err := p.limiter(guildID).Wait(ctx); err != nil {
		slog.Debug("panel refresh cancelled", "guild", guildID, "error", err)
		return
	}

	queue, ok := p.registry.Get(guildID)
	if !ok {
		return
	}

	channelID := queue.TextChannelID()
	existing := queue.Panel()
	if existing != nil && existing.ChannelID != channelID {
		// Notices moved to another channel; the panel follows them.
		p.Remove(ctx, existing)
		existing = nil
	}

	panel, err := p.publisher.PublishPanel(ctx, channelID, existing, queue.View())
	if err != nil {
		slog.Warn("failed to publish panel", "guild", guildID, "error", err)
		return
	}

	err = p.registry.Update(guildID, func(q *domain.GuildQueue) error {
		q.SetPanel(&panel)
		return nil
	})
	if errors.Is(err, domain.ErrQueueNotFound) {
		// Torn down while the message was in flight.
		p.Remove(ctx, &panel)
	}
}

// Remove deletes a panel message, if any.
func (p *PanelSync) Remove(ctx context.Context, panel *domain.PanelMessage) {
	if panel == nil {
		return
	}
	if err := p.publisher.DeletePanel(ctx, *panel); err != nil {
		slog.Warn("failed to delete panel", "channel", panel.ChannelID, "error", err)
	}
}

// Forget drops per-guild refresh state after a queue is destroyed.
func (p *PanelSync) Forget(guildID snowflake.ID) {
	p.limitersMu.Lock()
	defer p.limitersMu.Unlock()
	delete(p.limiters, guildID)
}

func (p *PanelSync) limiter(guildID snowflake.ID) *rate.Limiter {
	p.limitersMu.Lock()
	defer p.limitersMu.Unlock()

	l, ok := p.limiters[guildID]
	if !ok {
		l = rate.NewLimiter(p.limit, panelBurst)
		p.limiters[guildID] = l
	}
	return l
}
