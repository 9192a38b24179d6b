package infrastructure

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os/exec"

	"github.com/ottersound/melobot/internal/modules/music_player/domain"
)

// PCM frame geometry shared by the decode pipeline and the voice transport.
const (
	pcmChannels   = 2
	pcmSampleRate = 48000
	pcmFrameSize  = 960 // samples per channel per 20ms frame
)

// Compile-time check that pcmStream implements domain.AudioStream.
var _ domain.AudioStream = (*pcmStream)(nil)

// pcmStream frames the s16le output of a decode pipeline into fixed 20ms
// chunks. The final short read is zero-padded so the consumer always gets a
// full frame.
type pcmStream struct {
	reader  *bufio.Reader
	cleanup func()
	closed  bool
}

func newPCMStream(r io.Reader, cleanup func()) *pcmStream {
	return &pcmStream{
		reader:  bufio.NewReaderSize(r, pcmFrameSize*pcmChannels*4),
		cleanup: cleanup,
	}
}

// ReadFrame returns the next interleaved stereo frame, or io.EOF when the
// pipeline output is exhausted.
func (s *pcmStream) ReadFrame() ([]int16, error) {
	buf := make([]byte, pcmFrameSize*pcmChannels*2)
	n, err := io.ReadFull(s.reader, buf)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		if !errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("read pcm frame: %w", err)
		}
		// Partial trailing frame; the zeroed tail plays as silence.
		clear(buf[n:])
	}

	frame := make([]int16, pcmFrameSize*pcmChannels)
	for i := range frame {
		frame[i] = int16(binary.LittleEndian.Uint16(buf[2*i:]))
	}
	return frame, nil
}

func (s *pcmStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.cleanup != nil {
		s.cleanup()
	}
	return nil
}

// newFFmpegDecoder starts ffmpeg decoding from stdin to 48kHz stereo s16le on
// stdout. The returned cleanup kills the process and closes the input.
func newFFmpegDecoder(input io.ReadCloser) (io.Reader, func(), error) {
	ffmpeg := exec.Command("ffmpeg",
		"-i", "pipe:0",
		"-f", "s16le",
		"-ar", fmt.Sprintf("%d", pcmSampleRate),
		"-ac", fmt.Sprintf("%d", pcmChannels),
		"-loglevel", "warning",
		"pipe:1",
	)

	ffmpeg.Stdin = input
	stdout, err := ffmpeg.StdoutPipe()
	if err != nil {
		_ = input.Close()
		return nil, nil, fmt.Errorf("ffmpeg stdout pipe: %w", err)
	}
	if err := ffmpeg.Start(); err != nil {
		_ = input.Close()
		return nil, nil, fmt.Errorf("ffmpeg start: %w", err)
	}

	cleanup := func() {
		_ = input.Close()
		_ = ffmpeg.Process.Kill()
		_ = ffmpeg.Wait()
	}
	return stdout, cleanup, nil
}
