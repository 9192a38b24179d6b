package domain

import (
	"time"

	"github.com/disgoorg/snowflake/v2"
)

// VoiceStatus is the lifecycle state of a guild's voice transport link.
type VoiceStatus int

const (
	VoiceDisconnected VoiceStatus = iota
	VoiceConnecting
	VoiceConnected
	VoiceReconnecting
)

// String returns a human-readable representation of the status.
func (s VoiceStatus) String() string {
	switch s {
	case VoiceConnecting:
		return "connecting"
	case VoiceConnected:
		return "connected"
	case VoiceReconnecting:
		return "reconnecting"
	default:
		return "disconnected"
	}
}

// VoiceConnection records the state of the link to a guild's voice channel.
// Owned by the voice controller path inside the guild worker; the playback
// state machine only issues connect/disconnect intents against it.
type VoiceConnection struct {
	GuildID   snowflake.ID
	ChannelID snowflake.ID // last known channel; zero when never joined
	Status    VoiceStatus
	IdleSince time.Time
}

// NewVoiceConnection creates a Disconnected record for the guild.
func NewVoiceConnection(guildID snowflake.ID) *VoiceConnection {
	return &VoiceConnection{
		GuildID:   guildID,
		Status:    VoiceDisconnected,
		IdleSince: time.Now().UTC(),
	}
}

// HasPriorChannel reports whether a voice channel has ever been recorded.
func (v *VoiceConnection) HasPriorChannel() bool {
	return v.ChannelID != 0
}

// MarkIdle stamps the start of an idle period.
func (v *VoiceConnection) MarkIdle(now time.Time) {
	v.IdleSince = now
}

// IdleFor returns how long the connection has been idle.
func (v *VoiceConnection) IdleFor(now time.Time) time.Duration {
	return now.Sub(v.IdleSince)
}
