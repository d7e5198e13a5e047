package usecases

import (
	"context"
	"errors"
	"fmt"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/jukebot/internal/modules/music_player/application/ports"
	"github.com/sglre6355/jukebot/internal/modules/music_player/domain"
)

// SkipOutput contains the result of the Skip use case.
type SkipOutput struct {
	Skipped domain.Track
}

// PreviousOutput contains the result of the Previous use case.
type PreviousOutput struct {
	Track domain.Track
}

// StopOutput contains the result of the Stop use case.
type StopOutput struct {
	// Stopped is false when there was nothing to stop.
	Stopped bool
}

// JumpInput contains the input for the Jump use case.
type JumpInput struct {
	// Index is the queue position to play next; 1 is the first upcoming track.
	Index int
}

// JumpOutput contains the result of the Jump use case.
type JumpOutput struct {
	Track domain.Track
}

// TogglePauseOutput contains the result of the TogglePause use case.
type TogglePauseOutput struct {
	Paused bool
}

// ToggleOutput reports the new value of a toggled mode.
type ToggleOutput struct {
	Enabled bool
}

// PaginateInput contains the input for the Paginate use case.
type PaginateInput struct {
	Delta int // -1 for the previous page, +1 for the next
}

// QueueListInput contains the input for the List use case.
type QueueListInput struct {
	GuildID snowflake.ID
	Page    int // zero-based
}

// QueueListOutput contains the result of the List use case.
type QueueListOutput struct {
	View domain.PanelView
}

// QueueActions holds the externally triggered queue mutators.
// Every action requires the acting member to be in a voice channel
// and works on the queue as it exists when the action runs.
type QueueActions struct {
	registry   domain.QueueRegistry
	controller *PlaybackController
	panels     *PanelSync
	rng        domain.RandomSource
}

// NewQueueActions creates a new QueueActions.
func NewQueueActions(
	registry domain.QueueRegistry,
	controller *PlaybackController,
	panels *PanelSync,
	rng domain.RandomSource,
) *QueueActions {
	return &QueueActions{
		registry:   registry,
		controller: controller,
		panels:     panels,
		rng:        rng,
	}
}

// requireVoice checks that the acting member is connected to voice.
func requireVoice(actor ports.ActionContext) error {
	channelID, err := actor.VoiceChannelOf(actor.ActingMember())
	if err != nil {
		return fmt.Errorf("failed to look up voice state: %w", err)
	}
	if channelID == 0 {
		return ErrUserNotInVoice
	}
	return nil
}

func notFoundAsNoQueue(err error) error {
	if errors.Is(err, domain.ErrQueueNotFound) {
		return ErrNoQueue
	}
	return err
}

// Skip stops the current track; the idle notification advances the queue.
// A skip pressed while a track is loading waits for the load to settle.
func (a *QueueActions) Skip(ctx context.Context, actor ports.ActionContext) (*SkipOutput, error) {
	if err := requireVoice(actor); err != nil {
		return nil, err
	}

	guildID := actor.GuildID()
	unlock := a.controller.lanes.lock(guildID)
	defer unlock()

	queue, ok := a.registry.Get(guildID)
	if !ok {
		return nil, ErrNoQueue
	}
	head, ok := queue.Head()
	if !ok || queue.Session() == nil || !queue.Status().IsActive() {
		return nil, ErrNotPlaying
	}

	if err := queue.Session().Stop(ctx); err != nil {
		return nil, err
	}

	return &SkipOutput{Skipped: head}, nil
}

// Previous moves the last track to the head and plays it immediately.
func (a *QueueActions) Previous(
	ctx context.Context,
	actor ports.ActionContext,
) (*PreviousOutput, error) {
	if err := requireVoice(actor); err != nil {
		return nil, err
	}

	guildID := actor.GuildID()
	unlock := a.controller.lanes.lock(guildID)
	defer unlock()

	var moved domain.Track
	err := a.registry.Update(guildID, func(q *domain.GuildQueue) error {
		if q.Len() < 2 {
			return ErrNotEnoughTracks
		}
		moved, _ = q.Previous()
		return nil
	})
	if err != nil {
		return nil, notFoundAsNoQueue(err)
	}

	a.controller.advance(ctx, guildID)

	return &PreviousOutput{Track: moved}, nil
}

// Stop destroys the guild's queue. Stopping twice is not an error.
func (a *QueueActions) Stop(ctx context.Context, actor ports.ActionContext) (*StopOutput, error) {
	if err := requireVoice(actor); err != nil {
		return nil, err
	}

	stopped := a.controller.Destroy(ctx, actor.GuildID(), domain.DestroyReasonStopped)
	return &StopOutput{Stopped: stopped}, nil
}

// Shuffle randomizes the upcoming tracks once, leaving the current track in place.
func (a *QueueActions) Shuffle(ctx context.Context, actor ports.ActionContext) error {
	if err := requireVoice(actor); err != nil {
		return err
	}

	err := a.registry.Update(actor.GuildID(), func(q *domain.GuildQueue) error {
		if q.Len() < 2 {
			return ErrNotEnoughTracks
		}
		q.ShuffleUpcoming(a.rng)
		return nil
	})
	if err != nil {
		return notFoundAsNoQueue(err)
	}

	a.panels.Refresh(ctx, actor.GuildID())
	return nil
}

// Jump makes the track at input.Index play next by rotating the tracks before it
// to the tail, then stops the current track.
func (a *QueueActions) Jump(
	ctx context.Context,
	actor ports.ActionContext,
	input JumpInput,
) (*JumpOutput, error) {
	if err := requireVoice(actor); err != nil {
		return nil, err
	}

	guildID := actor.GuildID()
	unlock := a.controller.lanes.lock(guildID)
	defer unlock()

	var (
		target  domain.Track
		session domain.AudioSession
	)
	err := a.registry.Update(guildID, func(q *domain.GuildQueue) error {
		t, err := q.Jump(input.Index)
		if err != nil {
			return &SongNumberError{Max: q.Len() - 1}
		}
		target, session = t, q.Session()
		return nil
	})
	if err != nil {
		return nil, notFoundAsNoQueue(err)
	}

	if session != nil {
		if err := session.Stop(ctx); err != nil {
			return nil, err
		}
	}

	return &JumpOutput{Track: target}, nil
}

// TogglePause pauses a playing track or resumes a paused one.
func (a *QueueActions) TogglePause(
	ctx context.Context,
	actor ports.ActionContext,
) (*TogglePauseOutput, error) {
	if err := requireVoice(actor); err != nil {
		return nil, err
	}

	guildID := actor.GuildID()
	unlock := a.controller.lanes.lock(guildID)
	defer unlock()

	queue, ok := a.registry.Get(guildID)
	if !ok {
		return nil, ErrNoQueue
	}
	session := queue.Session()
	if session == nil || !queue.Status().IsActive() {
		return nil, ErrNotPlaying
	}

	pause := queue.Status() == domain.StatusPlaying
	var err error
	if pause {
		err = session.Pause(ctx)
	} else {
		err = session.Resume(ctx)
	}
	if err != nil {
		return nil, err
	}

	err = a.registry.Update(guildID, func(q *domain.GuildQueue) error {
		if pause {
			q.MarkPaused()
		} else {
			q.MarkResumed()
		}
		return nil
	})
	if err != nil {
		return nil, notFoundAsNoQueue(err)
	}

	a.panels.Refresh(ctx, guildID)
	return &TogglePauseOutput{Paused: pause}, nil
}

// ToggleLoop flips whether finished tracks return to the tail of the queue.
func (a *QueueActions) ToggleLoop(ctx context.Context, actor ports.ActionContext) (*ToggleOutput, error) {
	return a.toggle(ctx, actor, (*domain.GuildQueue).ToggleLoop)
}

// ToggleShuffleMode flips whether each advance picks a random next track.
func (a *QueueActions) ToggleShuffleMode(
	ctx context.Context,
	actor ports.ActionContext,
) (*ToggleOutput, error) {
	return a.toggle(ctx, actor, (*domain.GuildQueue).ToggleShuffleMode)
}

func (a *QueueActions) toggle(
	ctx context.Context,
	actor ports.ActionContext,
	flip func(*domain.GuildQueue) bool,
) (*ToggleOutput, error) {
	if err := requireVoice(actor); err != nil {
		return nil, err
	}

	var enabled bool
	err := a.registry.Update(actor.GuildID(), func(q *domain.GuildQueue) error {
		enabled = flip(q)
		return nil
	})
	if err != nil {
		return nil, notFoundAsNoQueue(err)
	}

	a.panels.Refresh(ctx, actor.GuildID())
	return &ToggleOutput{Enabled: enabled}, nil
}

// Paginate moves the panel's page cursor.
func (a *QueueActions) Paginate(
	ctx context.Context,
	actor ports.ActionContext,
	input PaginateInput,
) error {
	if err := requireVoice(actor); err != nil {
		return err
	}

	err := a.registry.Update(actor.GuildID(), func(q *domain.GuildQueue) error {
		q.Paginate(input.Delta)
		return nil
	})
	if err != nil {
		return notFoundAsNoQueue(err)
	}

	a.panels.Refresh(ctx, actor.GuildID())
	return nil
}

// List returns one page of the queue without touching the panel.
func (a *QueueActions) List(input QueueListInput) (*QueueListOutput, error) {
	queue, ok := a.registry.Get(input.GuildID)
	if !ok {
		return nil, ErrNoQueue
	}
	return &QueueListOutput{View: queue.ViewPage(input.Page)}, nil
}
