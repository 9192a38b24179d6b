package bot

import "github.com/bwmarrin/discordgo"

// InteractionHandler processes one slash command interaction, replying
// through the Responder.
type InteractionHandler func(s *discordgo.Session, i *discordgo.InteractionCreate, r Responder) error

// EventHandler is a discordgo gateway handler. Each value must match one of
// discordgo's handler signatures, e.g.
// func(s *discordgo.Session, u *discordgo.VoiceStateUpdate).
type EventHandler any

// ModuleDependencies carries the shared collaborators handed to every module
// at Init time.
type ModuleDependencies struct {
	Session *discordgo.Session
}

// Module is one self-contained feature of the bot. A module declares its
// slash commands, owns their handlers and manages its own lifecycle.
type Module interface {
	// Name returns the unique identifier for this module.
	Name() string

	// Commands returns the slash commands this module registers.
	Commands() []*discordgo.ApplicationCommand

	// CommandHandlers maps command names to their handlers.
	CommandHandlers() map[string]InteractionHandler

	// EventHandlers returns the module's gateway event handlers.
	EventHandlers() []EventHandler

	// Init wires the module up with its dependencies. Called once, after
	// LoadConfig but before the gateway connection opens.
	Init(deps ModuleDependencies) error

	// Shutdown releases the module's resources.
	Shutdown() error
}

// ConfigurableModule is implemented by modules that read configuration from
// the environment. LoadConfig runs before Init and before anything touches
// Discord, so a misconfigured module fails the whole startup early.
type ConfigurableModule interface {
	LoadConfig() error
}
