package music_player

import "time"

// Config holds the music player module configuration.
type Config struct {
	ResolveTimeout      time.Duration `env:"MUSIC_RESOLVE_TIMEOUT"       envDefault:"15s"`
	VoiceConnectTimeout time.Duration `env:"MUSIC_VOICE_CONNECT_TIMEOUT" envDefault:"10s"`
	InactivityTimeout   time.Duration `env:"MUSIC_INACTIVITY_TIMEOUT"    envDefault:"5m"`
	SweepInterval       time.Duration `env:"MUSIC_SWEEP_INTERVAL"        envDefault:"1m"`
	DefaultVolume       float64       `env:"MUSIC_DEFAULT_VOLUME"        envDefault:"1.0"`
	DefaultLoopMode     string        `env:"MUSIC_DEFAULT_LOOP_MODE"     envDefault:"none"`
	EventBufferSize     int           `env:"MUSIC_EVENT_BUFFER_SIZE"     envDefault:"100"`
}
