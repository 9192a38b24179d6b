package usecases

import (
	"context"
	"errors"
	"io"
	"sync"

	"golang.org/x/time/rate"

	"github.com/ottersound/melobot/internal/modules/music_player/application/ports"
	"github.com/ottersound/melobot/internal/modules/music_player/domain"
)

// frameRate is how many 20ms PCM frames one second of audio holds.
const frameRate = 50

// framePump moves frames from an audio stream into a voice session on its own
// goroutine. It owns pacing, volume scaling and the pause gate; the guild
// worker only flips flags on it and learns the outcome through the done
// callback.
type framePump struct {
	stream  domain.AudioStream
	sink    ports.VoiceSession
	limiter *rate.Limiter

	mu     sync.Mutex
	paused bool
	resume chan struct{}
	volume float64
}

func newFramePump(stream domain.AudioStream, sink ports.VoiceSession, volume float64) *framePump {
	return &framePump{
		stream:  stream,
		sink:    sink,
		limiter: rate.NewLimiter(rate.Limit(frameRate), frameRate/2),
		resume:  make(chan struct{}),
		volume:  volume,
	}
}

// setPaused suspends or resumes frame delivery. Safe from any goroutine.
func (p *framePump) setPaused(paused bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.paused == paused {
		return
	}
	p.paused = paused
	if !paused {
		close(p.resume)
		p.resume = make(chan struct{})
	}
}

// setVolume applies to all frames written after the call.
func (p *framePump) setVolume(v float64) {
	p.mu.Lock()
	p.volume = v
	p.mu.Unlock()
}

// run reads until EOF, cancellation or a write failure, then reports once via
// done. A nil error means the stream ended naturally.
func (p *framePump) run(ctx context.Context, done func(error)) {
	defer p.stream.Close()

	for {
		if err := p.waitResumed(ctx); err != nil {
			done(err)
			return
		}
		if err := p.limiter.Wait(ctx); err != nil {
			done(err)
			return
		}

		frame, err := p.stream.ReadFrame()
		if err != nil {
			if errors.Is(err, io.EOF) {
				done(nil)
			} else {
				done(err)
			}
			return
		}

		p.scale(frame)
		if err := p.sink.WriteFrame(ctx, frame); err != nil {
			done(err)
			return
		}
	}
}

// waitResumed blocks while the pump is paused.
func (p *framePump) waitResumed(ctx context.Context) error {
	for {
		p.mu.Lock()
		paused := p.paused
		resume := p.resume
		p.mu.Unlock()
		if !paused {
			return nil
		}
		select {
		case <-resume:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// scale multiplies samples by the current volume, clamping to the s16 range.
func (p *framePump) scale(frame []int16) {
	p.mu.Lock()
	v := p.volume
	p.mu.Unlock()
	if v == 1.0 {
		return
	}
	for i, sample := range frame {
		scaled := float64(sample) * v
		switch {
		case scaled > 32767:
			frame[i] = 32767
		case scaled < -32768:
			frame[i] = -32768
		default:
			frame[i] = int16(scaled)
		}
	}
}
