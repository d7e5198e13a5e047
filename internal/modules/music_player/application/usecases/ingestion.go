package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/jukebot/internal/modules/music_player/application/ports"
	"github.com/sglre6355/jukebot/internal/modules/music_player/domain"
)

// IngestionConfig holds the play-request policy switches.
type IngestionConfig struct {
	SearchSource    domain.SearchSource
	DefaultLoop     bool
	ShuffleOnCreate bool
	// PlaylistLimit caps how many tracks one request may add; 0 means unlimited.
	PlaylistLimit int
	// ExclusivePlaylist rejects requests while a queue still has tracks instead of appending.
	ExclusivePlaylist bool
}

// RequestPlayInput contains the input for the RequestPlay use case.
type RequestPlayInput struct {
	Actor ports.ActionContext
	Query string
}

// RequestPlayOutput contains the result of the RequestPlay use case.
type RequestPlayOutput struct {
	Kind         domain.QueryKind
	PlaylistName string
	Tracks       []domain.Track
	// CreatedQueue is true when the request started a new queue.
	CreatedQueue bool
}

// IngestionService turns play requests into queued tracks.
type IngestionService struct {
	registry   domain.QueueRegistry
	resolver   ports.QueryResolver
	sessions   ports.SessionOpener
	voiceState ports.VoiceStateProvider
	controller *PlaybackController
	panels     *PanelSync
	rng        domain.RandomSource
	config     IngestionConfig
	now        func() time.Time
}

// NewIngestionService creates a new IngestionService.
func NewIngestionService(
	registry domain.QueueRegistry,
	resolver ports.QueryResolver,
	sessions ports.SessionOpener,
	voiceState ports.VoiceStateProvider,
	controller *PlaybackController,
	panels *PanelSync,
	rng domain.RandomSource,
	config IngestionConfig,
) *IngestionService {
	return &IngestionService{
		registry:   registry,
		resolver:   resolver,
		sessions:   sessions,
		voiceState: voiceState,
		controller: controller,
		panels:     panels,
		rng:        rng,
		config:     config,
		now:        time.Now,
	}
}

// RequestPlay resolves the query and enqueues the result, creating the guild's
// queue and joining voice when none exists yet.
func (s *IngestionService) RequestPlay(
	ctx context.Context,
	input RequestPlayInput,
) (*RequestPlayOutput, error) {
	actor := input.Actor
	guildID := actor.GuildID()

	if s.config.ExclusivePlaylist {
		if queue, ok := s.registry.Get(guildID); ok && !queue.IsEmpty() {
			return nil, ErrQueueAlreadyActive
		}
	}

	member := actor.ActingMember()
	voiceChannelID, err := actor.VoiceChannelOf(member)
	if err != nil {
		return nil, fmt.Errorf("failed to look up voice state: %w", err)
	}
	if voiceChannelID == 0 {
		return nil, ErrUserNotInVoice
	}

	allowed, err := s.voiceState.CanConnectAndSpeak(guildID, voiceChannelID)
	if err != nil {
		return nil, fmt.Errorf("failed to check voice permissions: %w", err)
	}
	if !allowed {
		return nil, ErrMissingVoicePermissions
	}

	query := domain.NewSearchQueryWithSource(input.Query, s.config.SearchSource)
	if !query.IsValid() {
		return nil, ErrEmptyQuery
	}

	result, err := s.resolver.ResolveQuery(ctx, query)
	if errors.Is(err, ports.ErrNoMatches) {
		return nil, ErrNoResults
	}
	if err != nil {
		slog.Warn("failed to resolve query", "guild", guildID, "query", query.Query, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrResolutionFailed, err)
	}

	now := s.now()
	tracks := make([]domain.Track, 0, len(result.Tracks))
	for _, t := range result.Tracks {
		if !t.IsValid() {
			continue
		}
		if s.config.PlaylistLimit > 0 && len(tracks) == s.config.PlaylistLimit {
			slog.Info("playlist truncated", "guild", guildID, "limit", s.config.PlaylistLimit)
			break
		}
		tracks = append(tracks, t.RequestedBy(member.ID, member.DisplayName, now))
	}
	if len(tracks) == 0 {
		return nil, ErrNoResults
	}

	output := &RequestPlayOutput{
		Kind:         result.Kind,
		PlaylistName: result.PlaylistName,
		Tracks:       tracks,
	}

	// A queue created concurrently by another request turns Create into an append.
	for range 2 {
		appended, err := s.appendToExisting(ctx, actor, tracks)
		if err != nil {
			return nil, err
		}
		if appended {
			return output, nil
		}

		created, err := s.createQueue(ctx, actor, voiceChannelID, tracks)
		if err != nil {
			return nil, err
		}
		if created {
			output.CreatedQueue = true
			return output, nil
		}
	}

	return nil, domain.ErrQueueExists
}

// appendToExisting adds tracks to the guild's queue. Returns false if there is none.
func (s *IngestionService) appendToExisting(
	ctx context.Context,
	actor ports.ActionContext,
	tracks []domain.Track,
) (bool, error) {
	guildID := actor.GuildID()

	var wasStopped bool
	err := s.registry.Update(guildID, func(q *domain.GuildQueue) error {
		if s.config.ExclusivePlaylist && !q.IsEmpty() {
			return ErrQueueAlreadyActive
		}
		wasStopped = q.Status().AcceptsAdvance()
		q.SetTextChannelID(actor.ChannelID())
		q.Append(tracks...)
		return nil
	})
	if errors.Is(err, domain.ErrQueueNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	slog.Debug("appended tracks", "guild", guildID, "count", len(tracks))

	if wasStopped {
		s.controller.Advance(ctx, guildID)
	} else {
		s.panels.Refresh(ctx, guildID)
	}
	return true, nil
}

// createQueue claims the guild, joins voice and starts playback.
// Returns false if another request claimed the guild first.
func (s *IngestionService) createQueue(
	ctx context.Context,
	actor ports.ActionContext,
	voiceChannelID snowflake.ID,
	tracks []domain.Track,
) (bool, error) {
	guildID := actor.GuildID()

	initial := make([]domain.Track, len(tracks))
	copy(initial, tracks)
	if s.config.ShuffleOnCreate && len(initial) > 1 {
		domain.ShuffleTracks(initial, s.rng)
	}

	queue := domain.NewGuildQueue(
		guildID,
		voiceChannelID,
		actor.ChannelID(),
		initial,
		s.config.DefaultLoop,
	)
	if err := s.registry.Create(queue); err != nil {
		if errors.Is(err, domain.ErrQueueExists) {
			return false, nil
		}
		return false, err
	}

	session, err := s.sessions.Open(ctx, guildID, voiceChannelID)
	if err != nil {
		slog.Warn("failed to join voice channel", "guild", guildID, "error", err)
		s.controller.Destroy(ctx, guildID, domain.DestroyReasonStopped)
		return false, fmt.Errorf("%w: %w", ErrConnectFailed, err)
	}

	err = s.registry.Update(guildID, func(q *domain.GuildQueue) error {
		q.AttachSession(session)
		return nil
	})
	if errors.Is(err, domain.ErrQueueNotFound) {
		// Stopped while joining; the new connection has no owner.
		if err := session.Destroy(ctx); err != nil {
			slog.Warn("failed to release orphaned session", "guild", guildID, "error", err)
		}
		return true, nil
	}

	slog.Info("created queue",
		"guild", guildID,
		"voice_channel", voiceChannelID,
		"tracks", len(initial),
	)

	s.controller.Advance(ctx, guildID)
	return true, nil
}
