package bot

import (
	"fmt"
	"log/slog"
	"maps"

	"github.com/bwmarrin/discordgo"
)

// routes holds interaction handlers by interaction kind.
type routes struct {
	commands     map[string]InteractionHandler // by command name
	autocomplete map[string]InteractionHandler // by command name
	components   map[string]InteractionHandler // by custom ID
	modals       map[string]InteractionHandler // by custom ID
}

func newRoutes() routes {
	return routes{
		commands:     make(map[string]InteractionHandler),
		autocomplete: make(map[string]InteractionHandler),
		components:   make(map[string]InteractionHandler),
		modals:       make(map[string]InteractionHandler),
	}
}

// Bot manages the Discord bot lifecycle and module coordination.
type Bot struct {
	config  *Config
	session *discordgo.Session
	modules []Module
	routes  routes
}

// NewBot creates a new Bot instance with the given configuration.
func NewBot(cfg *Config) *Bot {
	return &Bot{
		config:  cfg,
		modules: make([]Module, 0),
		routes:  newRoutes(),
	}
}

// LoadModules loads modules from the global registry.
func (b *Bot) LoadModules() {
	b.modules = Modules()
}

// Start connects to Discord, initializes the modules, and registers commands.
func (b *Bot) Start() error {
	// Create Discord session
	session, err := discordgo.New("Bot " + b.config.DiscordToken)
	if err != nil {
		return fmt.Errorf("failed to create Discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildVoiceStates |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsMessageContent
	b.session = session

	// Load module configuration before connecting
	if err := b.loadModuleConfigs(); err != nil {
		return fmt.Errorf("failed to load module configuration: %w", err)
	}

	// Open connection; modules need the bot user from the ready state
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}

	// Initialize modules
	if err := b.initModules(); err != nil {
		return fmt.Errorf("failed to initialize modules: %w", err)
	}

	// Build interaction routes
	b.buildRoutes()

	// Register interaction handler
	b.session.AddHandler(b.handleInteraction)

	// Register module event handlers
	b.registerEventHandlers()

	// Register commands
	if err := b.registerCommands(); err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}

	slog.Info("started bot",
		"user_id", b.session.State.User.ID,
		"username", b.session.State.User.Username,
	)

	return nil
}

// Stop gracefully shuts down the bot.
func (b *Bot) Stop() error {
	// Shutdown modules
	for _, mod := range b.modules {
		if err := mod.Shutdown(); err != nil {
			slog.Warn("failed to shutdown module", "module", mod.Name(), "error", err)
		}
	}

	// Close Discord session
	if b.session != nil {
		return b.session.Close()
	}

	return nil
}

// loadModuleConfigs loads the configuration of every module that has one.
func (b *Bot) loadModuleConfigs() error {
	for _, mod := range b.modules {
		configurable, ok := mod.(ConfigurableModule)
		if !ok {
			continue
		}
		if err := configurable.LoadConfig(); err != nil {
			return fmt.Errorf("failed to load %s module configuration: %w", mod.Name(), err)
		}
	}
	return nil
}

// initModules initializes all loaded modules.
func (b *Bot) initModules() error {
	deps := ModuleDependencies{
		Session: b.session,
	}

	for _, mod := range b.modules {
		if err := mod.Init(deps); err != nil {
			return fmt.Errorf("failed to initialize %s module: %w", mod.Name(), err)
		}
		slog.Debug("initialized module", "module", mod.Name())
	}

	moduleNames := make([]string, len(b.modules))
	for i, mod := range b.modules {
		moduleNames[i] = mod.Name()
	}
	slog.Info("initialized modules", "modules", moduleNames)

	return nil
}

// buildRoutes collects the interaction handlers of every module.
// A key claimed by two modules goes to the later one.
func (b *Bot) buildRoutes() {
	for _, mod := range b.modules {
		addRoutes(b.routes.commands, mod, "command", mod.CommandHandlers())

		interactive, ok := mod.(InteractiveModule)
		if !ok {
			continue
		}
		addRoutes(b.routes.components, mod, "component", interactive.ComponentHandlers())
		addRoutes(b.routes.modals, mod, "modal", interactive.ModalHandlers())
		addRoutes(b.routes.autocomplete, mod, "autocomplete", interactive.AutocompleteHandlers())
	}
}

func addRoutes(table map[string]InteractionHandler, mod Module, kind string, handlers map[string]InteractionHandler) {
	for key := range handlers {
		if _, dup := table[key]; dup {
			slog.Warn("interaction handler overridden", "kind", kind, "key", key, "module", mod.Name())
		}
	}
	maps.Copy(table, handlers)
}

// registerEventHandlers registers all module event handlers with the session.
func (b *Bot) registerEventHandlers() {
	for _, mod := range b.modules {
		for _, handler := range mod.EventHandlers() {
			b.session.AddHandler(handler)
		}
	}
}

// collectCommands gathers all commands from loaded modules.
func (b *Bot) collectCommands() []*discordgo.ApplicationCommand {
	var commands []*discordgo.ApplicationCommand
	for _, mod := range b.modules {
		commands = append(commands, mod.Commands()...)
	}
	return commands
}

// registerCommands replaces the application's commands with the modules' set,
// so commands dropped from a module disappear from Discord too.
func (b *Bot) registerCommands() error {
	commands := b.collectCommands()

	registered, err := b.session.ApplicationCommandBulkOverwrite(
		b.session.State.User.ID,
		b.config.CommandGuildID,
		commands,
	)
	if err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}

	for _, cmd := range registered {
		slog.Debug("registered command", "command", cmd.Name, "guild", b.config.CommandGuildID)
	}

	return nil
}

// Embed colors for responses.
const (
	colorYellow = 0xFFFF00
	colorRed    = 0xFF0000
)

// handleInteraction routes incoming interactions to the appropriate handler.
func (b *Bot) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	b.dispatch(s, i, NewDiscordResponder(s, i.Interaction))
}

// dispatch looks up the handler for the interaction's kind and key.
// Only slash commands get a fallback reply; components, modals and autocomplete
// requests may already have been answered by the time a handler fails.
func (b *Bot) dispatch(s *discordgo.Session, i *discordgo.InteractionCreate, r Responder) {
	var (
		kind  string
		key   string
		table map[string]InteractionHandler
	)
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		kind, key, table = "command", i.ApplicationCommandData().Name, b.routes.commands
	case discordgo.InteractionApplicationCommandAutocomplete:
		kind, key, table = "autocomplete", i.ApplicationCommandData().Name, b.routes.autocomplete
	case discordgo.InteractionMessageComponent:
		kind, key, table = "component", i.MessageComponentData().CustomID, b.routes.components
	case discordgo.InteractionModalSubmit:
		kind, key, table = "modal", i.ModalSubmitData().CustomID, b.routes.modals
	default:
		return
	}
	isCommand := i.Type == discordgo.InteractionApplicationCommand

	handler, ok := table[key]
	if !ok {
		slog.Warn("found no handler for interaction", "kind", kind, "key", key)
		if isCommand {
			respondWithEmbed(r, "Unknown Command", "This command is not recognized.", colorYellow)
		}
		return
	}

	if err := handler(s, i, r); err != nil {
		slog.Error("failed to handle interaction",
			"kind", kind,
			"key", key,
			"guild", i.GuildID,
			"error", err,
		)
		if isCommand {
			respondWithEmbed(r, "Error", "An error occurred while processing your command.", colorRed)
		}
	}
}

// respondWithEmbed sends an embed response to an interaction.
func respondWithEmbed(r Responder, title, description string, color int) {
	err := r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{
				{
					Title:       title,
					Description: description,
					Color:       color,
				},
			},
		},
	})
	if err != nil {
		slog.Error("failed to send embed response", "error", err)
	}
}
