package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/disgolink/v3/disgolink"
	"github.com/disgoorg/disgolink/v3/lavalink"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/jukebot/internal/modules/music_player/application/ports"
	"github.com/sglre6355/jukebot/internal/modules/music_player/domain"
)

// voiceConnectionTimeout is the maximum time to wait for voice connection to be established.
const voiceConnectionTimeout = 10 * time.Second

// errNoNode is returned when no Lavalink node is available.
var errNoNode = errors.New("no available Lavalink node")

// LavalinkConfig contains Lavalink connection configuration.
type LavalinkConfig struct {
	Address  string
	Password string
	Secure   bool
}

// LavalinkAdapter wraps DisGoLink. It opens voice sessions, resolves queries and
// streams, and turns node events into domain events.
type LavalinkAdapter struct {
	link    disgolink.Client
	session *discordgo.Session
	botID   snowflake.ID

	pendingMu sync.Mutex
	pending   map[snowflake.ID]*pendingVoiceConnection

	voiceBufferMu sync.Mutex
	voiceBuffers  map[snowflake.ID]*voiceEventBuffer

	publisher ports.EventPublisher
}

// NewLavalinkAdapter creates a new LavalinkAdapter and connects to the node.
func NewLavalinkAdapter(
	ctx context.Context,
	session *discordgo.Session,
	config LavalinkConfig,
) (*LavalinkAdapter, error) {
	botID, err := snowflake.Parse(session.State.User.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse bot ID: %w", err)
	}

	adapter := &LavalinkAdapter{
		session:      session,
		botID:        botID,
		pending:      make(map[snowflake.ID]*pendingVoiceConnection),
		voiceBuffers: make(map[snowflake.ID]*voiceEventBuffer),
	}

	link := disgolink.New(botID,
		disgolink.WithListenerFunc(adapter.onTrackStart),
		disgolink.WithListenerFunc(adapter.onTrackEnd),
		disgolink.WithListenerFunc(adapter.onTrackException),
		disgolink.WithListenerFunc(adapter.onTrackStuck),
	)
	adapter.link = link

	node, err := link.AddNode(ctx, disgolink.NodeConfig{
		Name:     "main",
		Address:  config.Address,
		Password: config.Password,
		Secure:   config.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add Lavalink node: %w", err)
	}

	slog.Info("connected to Lavalink", "node", node.Config().Name, "address", config.Address)

	return adapter, nil
}

// SetEventPublisher sets where TrackEndedEvents are published.
func (c *LavalinkAdapter) SetEventPublisher(publisher ports.EventPublisher) {
	c.publisher = publisher
}

// Close shuts down the DisGoLink client.
func (c *LavalinkAdapter) Close() {
	c.link.Close()
}

// Open joins the voice channel and returns a session bound to the guild's player.
// It waits for both VoiceStateUpdate and VoiceServerUpdate events before returning.
func (c *LavalinkAdapter) Open(
	ctx context.Context,
	guildID, channelID snowflake.ID,
) (domain.AudioSession, error) {
	pending := newPendingVoiceConnection()

	c.pendingMu.Lock()
	c.pending[guildID] = pending
	c.pendingMu.Unlock()

	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, guildID)
		c.pendingMu.Unlock()
	}()

	err := c.session.ChannelVoiceJoinManual(guildID.String(), channelID.String(), false, true)
	if err != nil {
		return nil, fmt.Errorf("failed to join voice channel: %w", err)
	}

	select {
	case <-pending.ready:
		slog.Debug("voice connection established", "guild", guildID, "channel", channelID)
		return &lavalinkSession{adapter: c, guildID: guildID}, nil
	case <-ctx.Done():
		c.leaveChannel(context.Background(), guildID)
		return nil, fmt.Errorf("context cancelled while waiting for voice connection: %w", ctx.Err())
	case <-time.After(voiceConnectionTimeout):
		c.leaveChannel(context.Background(), guildID)
		return nil, fmt.Errorf("timeout waiting for voice connection")
	}
}

// leaveChannel destroys the player and disconnects from voice.
func (c *LavalinkAdapter) leaveChannel(ctx context.Context, guildID snowflake.ID) {
	if player := c.link.ExistingPlayer(guildID); player != nil {
		if err := player.Destroy(ctx); err != nil {
			slog.Warn("failed to destroy player", "guild", guildID, "error", err)
		}
	}

	if err := c.session.ChannelVoiceJoinManual(guildID.String(), "", false, false); err != nil {
		slog.Warn("failed to leave voice channel", "guild", guildID, "error", err)
	}
	c.clearVoiceBuffer(guildID)
}

// ResolveQuery loads a URL or search through the node.
// Searches and single URLs yield their first track only.
func (c *LavalinkAdapter) ResolveQuery(
	ctx context.Context,
	query *domain.SearchQuery,
) (*ports.ResolveResult, error) {
	result, err := c.loadTracks(ctx, query.LavalinkQuery())
	if err != nil {
		return nil, err
	}

	switch data := result.Data.(type) {
	case lavalink.Track:
		return &ports.ResolveResult{
			Kind:   domain.QueryKindSingle,
			Tracks: []domain.Track{convertTrack(data)},
		}, nil

	case lavalink.Playlist:
		if len(data.Tracks) == 0 {
			return nil, ports.ErrNoMatches
		}
		if query.Kind != domain.QueryKindPlaylist {
			// A watch URL pointing into a list plays the selected video only.
			selected := data.Tracks[0]
			if i := data.Info.SelectedTrack; i >= 0 && i < len(data.Tracks) {
				selected = data.Tracks[i]
			}
			return &ports.ResolveResult{
				Kind:   domain.QueryKindSingle,
				Tracks: []domain.Track{convertTrack(selected)},
			}, nil
		}
		return &ports.ResolveResult{
			Kind:         domain.QueryKindPlaylist,
			PlaylistName: data.Info.Name,
			Tracks:       convertTracks(data.Tracks),
		}, nil

	case lavalink.Search:
		if len(data) == 0 {
			return nil, ports.ErrNoMatches
		}
		return &ports.ResolveResult{
			Kind:   domain.QueryKindSearch,
			Tracks: []domain.Track{convertTrack(data[0])},
		}, nil

	case lavalink.Empty:
		return nil, ports.ErrNoMatches

	case lavalink.Exception:
		return nil, fmt.Errorf("lavalink failed to load %q: %s", query.Query, data.Message)

	default:
		return nil, ports.ErrNoMatches
	}
}

// SearchTracks returns up to limit search results.
func (c *LavalinkAdapter) SearchTracks(
	ctx context.Context,
	query *domain.SearchQuery,
	limit int,
) ([]domain.Track, error) {
	result, err := c.loadTracks(ctx, query.LavalinkQuery())
	if err != nil {
		return nil, err
	}

	var tracks []lavalink.Track
	switch data := result.Data.(type) {
	case lavalink.Search:
		tracks = data
	case lavalink.Track:
		tracks = []lavalink.Track{data}
	case lavalink.Playlist:
		tracks = data.Tracks
	}

	if len(tracks) > limit {
		tracks = tracks[:limit]
	}
	return convertTracks(tracks), nil
}

// ResolveStream returns the encoded track Lavalink plays. Tracks that were resolved
// elsewhere are loaded from their URI first.
func (c *LavalinkAdapter) ResolveStream(
	ctx context.Context,
	track domain.Track,
) (domain.Stream, error) {
	if track.Encoded != "" {
		return domain.Stream{Ref: track.Encoded, Track: track}, nil
	}
	if track.URI == "" {
		return domain.Stream{}, fmt.Errorf("track %q has no URI", track.Title)
	}

	result, err := c.loadTracks(ctx, track.URI)
	if err != nil {
		return domain.Stream{}, err
	}

	var loaded *lavalink.Track
	switch data := result.Data.(type) {
	case lavalink.Track:
		loaded = &data
	case lavalink.Search:
		if len(data) > 0 {
			loaded = &data[0]
		}
	case lavalink.Playlist:
		if len(data.Tracks) > 0 {
			loaded = &data.Tracks[0]
		}
	case lavalink.Exception:
		return domain.Stream{}, fmt.Errorf("lavalink failed to load %q: %s", track.URI, data.Message)
	}
	if loaded == nil {
		return domain.Stream{}, fmt.Errorf("no stream for %q", track.URI)
	}

	return domain.Stream{Ref: loaded.Encoded, Track: track}, nil
}

func (c *LavalinkAdapter) loadTracks(ctx context.Context, identifier string) (*lavalink.LoadResult, error) {
	node := c.link.BestNode()
	if node == nil {
		return nil, errNoNode
	}

	result, err := node.LoadTracks(ctx, identifier)
	if err != nil {
		return nil, fmt.Errorf("failed to load tracks: %w", err)
	}
	return result, nil
}

func convertTracks(tracks []lavalink.Track) []domain.Track {
	converted := make([]domain.Track, len(tracks))
	for i, track := range tracks {
		converted[i] = convertTrack(track)
	}
	return converted
}

// convertTrack converts a Lavalink track to a domain track.
func convertTrack(track lavalink.Track) domain.Track {
	info := track.Info
	return domain.Track{
		ID:         domain.NewTrackID(),
		Encoded:    track.Encoded,
		Title:      info.Title,
		Artist:     info.Author,
		Duration:   time.Duration(info.Length) * time.Millisecond,
		URI:        stringOrEmpty(info.URI),
		ArtworkURL: stringOrEmpty(info.ArtworkURL),
		IsStream:   info.IsStream,
	}
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// OnVoiceServerUpdate handles Discord voice server updates.
// This must be called from the Discord event handler.
func (c *LavalinkAdapter) OnVoiceServerUpdate(event *discordgo.VoiceServerUpdate) {
	guildID, err := snowflake.Parse(event.GuildID)
	if err != nil {
		slog.Error("failed to parse guild ID in voice server update", "error", err)
		return
	}

	buffer := c.getOrCreateVoiceBuffer(guildID)
	if buffer.setVoiceServer(event.Token, event.Endpoint) {
		c.forwardVoiceUpdate(guildID, buffer.take())
	}

	c.signalPending(guildID, false)
}

// OnVoiceStateUpdate handles Discord voice state updates for the bot itself.
// This must be called from the Discord event handler.
func (c *LavalinkAdapter) OnVoiceStateUpdate(event *discordgo.VoiceStateUpdate) {
	if event.UserID != c.botID.String() {
		return
	}

	guildID, err := snowflake.Parse(event.GuildID)
	if err != nil {
		slog.Error("failed to parse guild ID in voice state update", "error", err)
		return
	}

	var channelID *snowflake.ID
	if event.ChannelID != "" {
		id, err := snowflake.Parse(event.ChannelID)
		if err != nil {
			slog.Error("failed to parse channel ID in voice state update", "error", err)
			return
		}
		channelID = &id
	}

	// A disconnect needs no server update.
	if channelID == nil {
		c.link.OnVoiceStateUpdate(context.Background(), guildID, nil, event.SessionID)
		c.clearVoiceBuffer(guildID)
		return
	}

	buffer := c.getOrCreateVoiceBuffer(guildID)
	if buffer.setVoiceState(channelID, event.SessionID) {
		c.forwardVoiceUpdate(guildID, buffer.take())
	}

	c.signalPending(guildID, true)
}

func (c *LavalinkAdapter) signalPending(guildID snowflake.ID, isVoiceState bool) {
	c.pendingMu.Lock()
	pending := c.pending[guildID]
	c.pendingMu.Unlock()

	if pending != nil {
		pending.onEvent(isVoiceState)
	}
}

func (c *LavalinkAdapter) getOrCreateVoiceBuffer(guildID snowflake.ID) *voiceEventBuffer {
	c.voiceBufferMu.Lock()
	defer c.voiceBufferMu.Unlock()

	buffer, exists := c.voiceBuffers[guildID]
	if !exists {
		buffer = &voiceEventBuffer{}
		c.voiceBuffers[guildID] = buffer
	}
	return buffer
}

func (c *LavalinkAdapter) clearVoiceBuffer(guildID snowflake.ID) {
	c.voiceBufferMu.Lock()
	defer c.voiceBufferMu.Unlock()
	delete(c.voiceBuffers, guildID)
}

// forwardVoiceUpdate sends a complete voice update to Lavalink, state first.
func (c *LavalinkAdapter) forwardVoiceUpdate(guildID snowflake.ID, update voiceUpdate) {
	slog.Debug("forwarding buffered voice events to Lavalink",
		"guild", guildID,
		"channel", update.channelID,
		"hasSessionID", update.sessionID != "",
	)

	c.link.OnVoiceStateUpdate(context.Background(), guildID, update.channelID, update.sessionID)
	c.link.OnVoiceServerUpdate(context.Background(), guildID, update.token, update.endpoint)
}

func (c *LavalinkAdapter) onTrackStart(player disgolink.Player, event lavalink.TrackStartEvent) {
	slog.Debug("track started", "guild", player.GuildID(), "track", event.Track.Info.Title)
}

func (c *LavalinkAdapter) onTrackEnd(player disgolink.Player, event lavalink.TrackEndEvent) {
	slog.Debug("track ended", "guild", player.GuildID(), "reason", event.Reason)

	if c.publisher == nil {
		return
	}
	err := c.publisher.Publish(domain.TrackEndedEvent{
		GuildID:   player.GuildID(),
		StreamRef: event.Track.Encoded,
		Reason:    convertEndReason(event.Reason),
	})
	if err != nil {
		slog.Warn("failed to publish track end", "guild", player.GuildID(), "error", err)
	}
}

func (c *LavalinkAdapter) onTrackException(
	player disgolink.Player,
	event lavalink.TrackExceptionEvent,
) {
	slog.Warn("track exception", "guild", player.GuildID(), "error", event.Exception.Message)
}

// onTrackStuck stops the player; the resulting end event advances the queue.
func (c *LavalinkAdapter) onTrackStuck(player disgolink.Player, event lavalink.TrackStuckEvent) {
	slog.Warn("track stuck", "guild", player.GuildID(), "threshold", event.Threshold)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := player.Update(ctx, lavalink.WithNullTrack()); err != nil {
		slog.Warn("failed to stop stuck track", "guild", player.GuildID(), "error", err)
	}
}

func convertEndReason(reason lavalink.TrackEndReason) domain.TrackEndReason {
	switch reason {
	case lavalink.TrackEndReasonFinished:
		return domain.TrackEndFinished
	case lavalink.TrackEndReasonLoadFailed:
		return domain.TrackEndLoadFailed
	case lavalink.TrackEndReasonStopped:
		return domain.TrackEndStopped
	case lavalink.TrackEndReasonReplaced:
		return domain.TrackEndReplaced
	case lavalink.TrackEndReasonCleanup:
		return domain.TrackEndCleanup
	default:
		return domain.TrackEndStopped
	}
}

// lavalinkSession is one guild's voice connection and Lavalink player.
type lavalinkSession struct {
	adapter   *LavalinkAdapter
	guildID   snowflake.ID
	destroyed atomic.Bool
}

func (s *lavalinkSession) update(ctx context.Context, opts ...lavalink.PlayerUpdateOpt) error {
	if s.destroyed.Load() {
		return errSessionDestroyed
	}
	return s.adapter.link.Player(s.guildID).Update(ctx, opts...)
}

// Play replaces whatever is playing with the stream.
func (s *lavalinkSession) Play(ctx context.Context, stream domain.Stream) error {
	// Use WithEncodedTrack to avoid userData:null issue
	if err := s.update(ctx, lavalink.WithEncodedTrack(stream.Ref), lavalink.WithPaused(false)); err != nil {
		return fmt.Errorf("failed to play track: %w", err)
	}
	return nil
}

func (s *lavalinkSession) Pause(ctx context.Context) error {
	if err := s.update(ctx, lavalink.WithPaused(true)); err != nil {
		return fmt.Errorf("failed to pause playback: %w", err)
	}
	return nil
}

func (s *lavalinkSession) Resume(ctx context.Context) error {
	if err := s.update(ctx, lavalink.WithPaused(false)); err != nil {
		return fmt.Errorf("failed to resume playback: %w", err)
	}
	return nil
}

// Stop ends the current track, which makes the node report it as stopped.
func (s *lavalinkSession) Stop(ctx context.Context) error {
	if err := s.update(ctx, lavalink.WithNullTrack()); err != nil {
		return fmt.Errorf("failed to stop playback: %w", err)
	}
	return nil
}

// Destroy leaves the voice channel. Only the first call has an effect.
func (s *lavalinkSession) Destroy(ctx context.Context) error {
	if !s.destroyed.CompareAndSwap(false, true) {
		return nil
	}
	s.adapter.leaveChannel(ctx, s.guildID)
	return nil
}

var errSessionDestroyed = errors.New("audio session destroyed")

// Ensure LavalinkAdapter implements port interfaces.
var (
	_ ports.SessionOpener  = (*LavalinkAdapter)(nil)
	_ ports.QueryResolver  = (*LavalinkAdapter)(nil)
	_ ports.TrackSearcher  = (*LavalinkAdapter)(nil)
	_ ports.StreamResolver = (*LavalinkAdapter)(nil)
	_ domain.AudioSession  = (*lavalinkSession)(nil)
)
