package music_player

import (
	"context"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/caarlos0/env/v11"

	"github.com/ottersound/melobot/internal/bot"
	"github.com/ottersound/melobot/internal/modules/music_player/application"
	"github.com/ottersound/melobot/internal/modules/music_player/application/usecases"
	"github.com/ottersound/melobot/internal/modules/music_player/infrastructure"
	"github.com/ottersound/melobot/internal/modules/music_player/presentation"
)

func init() {
	bot.Register(&MusicPlayerModule{})
}

// Compile-time interface checks.
var _ bot.ConfigurableModule = (*MusicPlayerModule)(nil)

// MusicPlayerModule provides music playback commands.
type MusicPlayerModule struct {
	config   *Config
	handlers *presentation.Handlers

	registry            *usecases.SessionRegistry
	eventBus            *infrastructure.ChannelEventBus
	notificationHandler *application.NotificationEventHandler
}

// Name returns the module name.
func (m *MusicPlayerModule) Name() string {
	return "music_player"
}

// Commands returns the slash commands for this module.
func (m *MusicPlayerModule) Commands() []*discordgo.ApplicationCommand {
	return presentation.Commands()
}

// CommandHandlers returns the command handlers for this module.
func (m *MusicPlayerModule) CommandHandlers() map[string]bot.InteractionHandler {
	return map[string]bot.InteractionHandler{
		"play":       m.handlers.HandlePlay,
		"pause":      m.handlers.HandlePause,
		"resume":     m.handlers.HandleResume,
		"skip":       m.handlers.HandleSkip,
		"stop":       m.handlers.HandleStop,
		"nowplaying": m.handlers.HandleNowPlaying,
		"queue":      m.handlers.HandleQueue,
		"volume":     m.handlers.HandleVolume,
		"loop":       m.handlers.HandleLoop,
		"leave":      m.handlers.HandleLeave,
	}
}

// EventHandlers returns the event handlers for this module. Voice state
// tracking is registered by the voice transport itself during Init.
func (m *MusicPlayerModule) EventHandlers() []bot.EventHandler {
	return nil
}

// LoadConfig loads module-specific configuration from environment variables.
func (m *MusicPlayerModule) LoadConfig() error {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return err
	}
	m.config = cfg
	return nil
}

// Init initializes the module.
func (m *MusicPlayerModule) Init(deps bot.ModuleDependencies) error {
	m.eventBus = infrastructure.NewChannelEventBus(m.config.EventBufferSize)

	resolver := infrastructure.NewYouTubeResolver()
	transport := infrastructure.NewDiscordVoiceTransport(deps.Session)
	settings := infrastructure.NewStaticSettingsProvider(
		m.config.DefaultVolume,
		m.config.DefaultLoopMode,
	)
	voiceState := infrastructure.NewVoiceStateProvider(deps.Session)
	notifier := infrastructure.NewNotifier(deps.Session)

	m.registry = usecases.NewSessionRegistry(
		resolver,
		transport,
		m.eventBus,
		settings,
		slog.Default(),
		usecases.SessionConfig{
			ResolveTimeout:      m.config.ResolveTimeout,
			VoiceConnectTimeout: m.config.VoiceConnectTimeout,
		},
	)
	m.registry.StartSweeper(m.config.SweepInterval, m.config.InactivityTimeout)

	m.notificationHandler = application.NewNotificationEventHandler(m.eventBus, notifier)
	m.notificationHandler.Start()

	player := usecases.NewPlayerService(m.registry)
	m.handlers = presentation.NewHandlers(player, voiceState)

	slog.Info("music_player module initialized")

	return nil
}

// Shutdown cleans up module resources.
func (m *MusicPlayerModule) Shutdown() error {
	if m.registry != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := m.registry.Close(ctx); err != nil {
			slog.Warn("failed to drain music sessions", "error", err)
		}
	}

	if m.eventBus != nil {
		m.eventBus.Close()
	}

	return nil
}
