package music_player

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/jukebot/internal/bot"
	"github.com/sglre6355/jukebot/internal/modules/music_player/application"
	"github.com/sglre6355/jukebot/internal/modules/music_player/application/ports"
	"github.com/sglre6355/jukebot/internal/modules/music_player/application/usecases"
	"github.com/sglre6355/jukebot/internal/modules/music_player/infrastructure"
	"github.com/sglre6355/jukebot/internal/modules/music_player/presentation/discord"
	"github.com/sglre6355/jukebot/internal/modules/music_player/presentation/rest"
)

const (
	lavalinkConnectTimeout = 15 * time.Second
	ytdlpInstallTimeout    = 2 * time.Minute
	shutdownTimeout        = 10 * time.Second
)

var errNoSession = errors.New("music_player requires a Discord session")

func init() {
	bot.Register(&MusicPlayerModule{})
}

// Compile-time interface checks.
var (
	_ bot.ConfigurableModule = (*MusicPlayerModule)(nil)
	_ bot.InteractiveModule  = (*MusicPlayerModule)(nil)
)

// trackResolver resolves play requests and suggests tracks for autocomplete.
type trackResolver interface {
	ports.QueryResolver
	ports.TrackSearcher
}

// MusicPlayerModule provides the guild music queue: slash and text commands,
// the now playing panel and playback through Lavalink.
type MusicPlayerModule struct {
	config *Config

	commandHandlers   *discord.CommandHandlers
	componentHandlers *discord.ComponentHandlers
	textCommands      *discord.TextCommandHandler
	autocomplete      *discord.AutocompleteHandler
	eventHandlers     *discord.EventHandlers

	lavalinkAdapter *infrastructure.LavalinkAdapter
	controller      *usecases.PlaybackController
	statusServer    *rest.Server

	// Event-driven components
	eventBus            *infrastructure.ChannelEventBus
	playbackHandler     *application.PlaybackEventHandler
	notificationHandler *application.NotificationEventHandler
}

// Name returns the module name.
func (m *MusicPlayerModule) Name() string {
	return "music_player"
}

// Commands returns the slash commands for this module.
func (m *MusicPlayerModule) Commands() []*discordgo.ApplicationCommand {
	return discord.Commands()
}

// CommandHandlers returns the command handlers for this module.
func (m *MusicPlayerModule) CommandHandlers() map[string]bot.InteractionHandler {
	if m.commandHandlers == nil {
		return nil
	}
	return m.commandHandlers.Handlers()
}

// EventHandlers returns the event handlers for this module.
func (m *MusicPlayerModule) EventHandlers() []bot.EventHandler {
	return []bot.EventHandler{
		m.handleVoiceServerUpdate,
		m.handleVoiceStateUpdate,
		m.handleMessageCreate,
	}
}

// ComponentHandlers returns the panel's button and select menu handlers.
func (m *MusicPlayerModule) ComponentHandlers() map[string]bot.InteractionHandler {
	if m.componentHandlers == nil {
		return nil
	}
	return m.componentHandlers.Handlers()
}

// ModalHandlers returns the jump modal handler.
func (m *MusicPlayerModule) ModalHandlers() map[string]bot.InteractionHandler {
	if m.componentHandlers == nil {
		return nil
	}
	return m.componentHandlers.ModalHandlers()
}

// AutocompleteHandlers returns the /play and /jump autocomplete handlers.
func (m *MusicPlayerModule) AutocompleteHandlers() map[string]bot.InteractionHandler {
	if m.autocomplete == nil {
		return nil
	}
	return m.autocomplete.Handlers()
}

// LoadConfig loads module-specific configuration from environment variables.
func (m *MusicPlayerModule) LoadConfig() error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	m.config = cfg
	return nil
}

// Init wires the module. It needs an open session because Lavalink is keyed by the bot's user ID.
func (m *MusicPlayerModule) Init(deps bot.ModuleDependencies) error {
	if deps.Session == nil || deps.Session.State == nil || deps.Session.State.User == nil {
		return errNoSession
	}
	session := deps.Session

	botID, err := snowflake.Parse(session.State.User.ID)
	if err != nil {
		return err
	}

	// Create event bus (needed by Lavalink adapter for publishing events)
	m.eventBus = infrastructure.NewChannelEventBus(infrastructure.DefaultEventBufferSize)

	connectCtx, cancel := context.WithTimeout(context.Background(), lavalinkConnectTimeout)
	defer cancel()
	lavalinkAdapter, err := infrastructure.NewLavalinkAdapter(
		connectCtx,
		session,
		infrastructure.LavalinkConfig{
			Address:  m.config.LavalinkAddress,
			Password: m.config.LavalinkPassword,
			Secure:   m.config.LavalinkSecure,
		},
	)
	if err != nil {
		m.eventBus.Close()
		return err
	}
	lavalinkAdapter.SetEventPublisher(m.eventBus)
	m.lavalinkAdapter = lavalinkAdapter

	resolver, err := m.newResolver()
	if err != nil {
		m.Shutdown()
		return err
	}

	// Create infrastructure
	registry := infrastructure.NewMemoryRegistry()
	voiceState := infrastructure.NewVoiceStateProvider(session)
	notifier := infrastructure.NewNotifier(session)
	panelPublisher := infrastructure.NewPanelPublisher(session)
	rng := usecases.NewRandomSource()

	// Create services
	panels := usecases.NewPanelSync(registry, panelPublisher, m.config.PanelEditsPerSec)
	m.controller = usecases.NewPlaybackController(
		registry,
		lavalinkAdapter,
		panels,
		m.eventBus,
		infrastructure.NewTimeScheduler(),
		rng,
		m.config.IdleTimeout,
	)
	ingestion := usecases.NewIngestionService(
		registry,
		resolver,
		lavalinkAdapter,
		voiceState,
		m.controller,
		panels,
		rng,
		usecases.IngestionConfig{
			SearchSource:      m.config.Source(),
			DefaultLoop:       m.config.DefaultLoop,
			ShuffleOnCreate:   m.config.ShuffleOnCreate,
			PlaylistLimit:     m.config.PlaylistLimit,
			ExclusivePlaylist: m.config.ExclusivePlaylist,
		},
	)
	actions := usecases.NewQueueActions(registry, m.controller, panels, rng)
	voiceChannel := usecases.NewVoiceChannelService(registry, m.controller)
	notificationChannel := usecases.NewNotificationChannelService(registry, panels)
	autocomplete := usecases.NewAutocompleteService(registry, resolver, m.config.Source())

	// Create application event handlers
	m.playbackHandler = application.NewPlaybackEventHandler(m.controller, m.eventBus)
	m.notificationHandler = application.NewNotificationEventHandler(m.eventBus, notifier)

	// Register event handlers
	if err := m.playbackHandler.Start(); err != nil {
		m.Shutdown()
		return err
	}
	if err := m.notificationHandler.Start(); err != nil {
		m.Shutdown()
		return err
	}

	// Create presentation handlers
	m.commandHandlers = discord.NewCommandHandlers(ingestion, actions, notificationChannel, voiceState)
	m.componentHandlers = discord.NewComponentHandlers(actions, voiceState)
	m.textCommands = discord.NewTextCommandHandler(
		m.config.CommandPrefix,
		ingestion,
		actions,
		notificationChannel,
		voiceState,
	)
	m.autocomplete = discord.NewAutocompleteHandler(autocomplete)
	m.eventHandlers = discord.NewEventHandlers(botID, voiceChannel)

	if m.config.StatusAddr != "" {
		m.statusServer = rest.NewServer(m.config.StatusAddr, registry)
		m.statusServer.Start()
	}

	slog.Info(
		"music_player module initialized",
		"resolver", m.config.Resolver,
		"search_source", m.config.Source(),
	)

	return nil
}

func (m *MusicPlayerModule) newResolver() (trackResolver, error) {
	if m.config.Resolver != ResolverYtdlp {
		return m.lavalinkAdapter, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), ytdlpInstallTimeout)
	defer cancel()
	if err := infrastructure.EnsureYtdlp(ctx); err != nil {
		return nil, err
	}

	return infrastructure.NewYtdlpResolver(infrastructure.YtdlpConfig{
		Source:        m.config.Source(),
		PlaylistLimit: m.config.PlaylistLimit,
		Proxy:         m.config.YoutubeProxy,
	}), nil
}

// Shutdown cleans up module resources.
func (m *MusicPlayerModule) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error

	if m.statusServer != nil {
		errs = append(errs, m.statusServer.Shutdown())
	}

	// Leave every voice channel while Lavalink is still reachable
	if m.controller != nil {
		m.controller.DestroyAll(ctx)
	}

	// Close event bus
	if m.eventBus != nil {
		m.eventBus.Close()
	}

	// Close Lavalink connection
	if m.lavalinkAdapter != nil {
		m.lavalinkAdapter.Close()
	}

	return errors.Join(errs...)
}

// Event handlers.

func (m *MusicPlayerModule) handleVoiceServerUpdate(
	_ *discordgo.Session,
	event *discordgo.VoiceServerUpdate,
) {
	if m.lavalinkAdapter != nil {
		m.lavalinkAdapter.OnVoiceServerUpdate(event)
	}
}

func (m *MusicPlayerModule) handleVoiceStateUpdate(
	s *discordgo.Session,
	event *discordgo.VoiceStateUpdate,
) {
	if m.lavalinkAdapter != nil {
		m.lavalinkAdapter.OnVoiceStateUpdate(event)
	}
	if m.eventHandlers != nil {
		m.eventHandlers.HandleVoiceStateUpdate(s, event)
	}
}

func (m *MusicPlayerModule) handleMessageCreate(s *discordgo.Session, event *discordgo.MessageCreate) {
	if m.textCommands != nil {
		m.textCommands.HandleMessage(s, event)
	}
}
