package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"vocabtalk/internal/domain"
	"vocabtalk/internal/ports"
)

// ErrRecordingTooLarge is returned when a recording exceeds the upload limit.
var ErrRecordingTooLarge = errors.New("recording exceeds the upload limit")

// ErrEmptyRecording is returned when capture stopped before any audio arrived.
var ErrEmptyRecording = fmt.Errorf("%w: no audio captured", domain.ErrNoSpeech)

// ErrCaptureCancelled is returned when the controller closed while the
// microphone was still opening.
var ErrCaptureCancelled = errors.New("capture cancelled before it started")

// activeRecording is one push-to-talk capture in flight. ready closes once
// the device open has resolved; audio and done are only valid when live.
type activeRecording struct {
	cancel context.CancelFunc
	audio  ports.AudioSession
	pcm    *pcmBuffer
	done   chan error
	ready  chan struct{}
	live   bool
}

// pcmBuffer accumulates captured PCM up to limit bytes.
type pcmBuffer struct {
	mu       sync.Mutex
	data     []byte
	limit    int
	overflow bool
}

func newPCMBuffer(limit int) *pcmBuffer {
	return &pcmBuffer{limit: limit}
}

func (b *pcmBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	room := b.limit - len(b.data)
	if len(p) > room {
		b.overflow = true
		if room > 0 {
			b.data = append(b.data, p[:room]...)
		}
		return len(p), nil
	}
	b.data = append(b.data, p...)
	return len(p), nil
}

// Snapshot returns the captured bytes and whether the limit was hit.
func (b *pcmBuffer) Snapshot() ([]byte, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]byte, len(b.data))
	copy(out, b.data)
	return out, b.overflow
}

// pumpAudioChunks drains audio into sink until the session ends. A read error
// other than end-of-stream is delivered on done before it closes.
func pumpAudioChunks(audio ports.AudioSession, sink io.Writer, chunkSize int, done chan<- error) {
	defer close(done)

	if chunkSize < 256 {
		chunkSize = defaultChunkSize
	}

	buf := make([]byte, chunkSize)
	for {
		n, err := audio.Read(buf)
		if n > 0 {
			_, _ = sink.Write(buf[:n])
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, os.ErrClosed) {
				done <- fmt.Errorf("audio capture error: %w", err)
			}
			return
		}
	}
}
