package transcribe

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/go-audio/wav"
)

// Source delivers audio as a stream of PCM16 chunks.
type Source interface {
	// Start begins delivering chunks on the Stream channel.
	Start(ctx context.Context) error

	// Stop halts delivery. It is safe to call Stop multiple times.
	Stop() error

	// Stream returns the channel receiving audio chunks.
	// The channel is closed when the source is exhausted or stopped.
	Stream() <-chan AudioChunk

	// Name returns the backend name (e.g., "wav-file", "mock").
	Name() string

	// Close releases all resources.
	io.Closer
}

// FileSource streams a WAV file as timed audio chunks, standing in for a
// microphone during development and tests.
type FileSource struct {
	path     string
	chunkDur time.Duration

	mu      sync.Mutex
	out     chan AudioChunk
	stop    chan struct{}
	started bool
}

// NewFileSource creates a source over the WAV file at path.
// chunkDur controls how much audio each emitted chunk carries.
func NewFileSource(path string, chunkDur time.Duration) *FileSource {
	if chunkDur <= 0 {
		chunkDur = 5 * time.Second
	}
	return &FileSource{
		path:     path,
		chunkDur: chunkDur,
		out:      make(chan AudioChunk, 4),
		stop:     make(chan struct{}),
	}
}

// Start decodes the file and begins emitting chunks.
func (f *FileSource) Start(ctx context.Context) error {
	f.mu.Lock()
	if f.started {
		f.mu.Unlock()
		return nil
	}
	f.started = true
	f.mu.Unlock()

	file, err := os.Open(f.path)
	if err != nil {
		return fmt.Errorf("transcribe: failed to open audio file: %w", err)
	}

	dec := wav.NewDecoder(file)
	if !dec.IsValidFile() {
		file.Close()
		return fmt.Errorf("transcribe: %s is not a valid WAV file", f.path)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		file.Close()
		return fmt.Errorf("transcribe: failed to decode audio file: %w", err)
	}
	file.Close()

	sampleRate := buf.Format.SampleRate
	samples := downmix(buf.Data, buf.Format.NumChannels)
	chunkSize := int(float64(sampleRate) * f.chunkDur.Seconds())
	if chunkSize <= 0 {
		chunkSize = sampleRate
	}

	go func() {
		defer close(f.out)
		for start := 0; start < len(samples); start += chunkSize {
			end := start + chunkSize
			if end > len(samples) {
				end = len(samples)
			}
			chunk := AudioChunk{
				Samples:    samples[start:end],
				SampleRate: sampleRate,
			}
			select {
			case f.out <- chunk:
			case <-f.stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop halts chunk delivery.
func (f *FileSource) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	select {
	case <-f.stop:
	default:
		close(f.stop)
	}
	return nil
}

// Stream returns the chunk channel.
func (f *FileSource) Stream() <-chan AudioChunk {
	return f.out
}

// Name returns the backend name.
func (f *FileSource) Name() string {
	return "wav-file"
}

// Close releases the source.
func (f *FileSource) Close() error {
	return f.Stop()
}

// downmix averages interleaved channels into mono PCM16.
func downmix(data []int, channels int) []int16 {
	if channels <= 1 {
		out := make([]int16, len(data))
		for i, v := range data {
			out[i] = clamp16(v)
		}
		return out
	}

	frames := len(data) / channels
	out := make([]int16, frames)
	for i := 0; i < frames; i++ {
		sum := 0
		for ch := 0; ch < channels; ch++ {
			sum += data[i*channels+ch]
		}
		out[i] = clamp16(sum / channels)
	}
	return out
}

func clamp16(v int) int16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}

// MockSource is an in-memory Source for tests.
type MockSource struct {
	out    chan AudioChunk
	closed sync.Once
}

// NewMockSource creates a mock source with a buffered stream.
func NewMockSource() *MockSource {
	return &MockSource{out: make(chan AudioChunk, 16)}
}

// Push queues a chunk for delivery.
func (m *MockSource) Push(chunk AudioChunk) {
	m.out <- chunk
}

// Finish closes the stream, signalling end of audio.
func (m *MockSource) Finish() {
	m.closed.Do(func() { close(m.out) })
}

// Start implements Source.
func (m *MockSource) Start(ctx context.Context) error { return nil }

// Stop implements Source.
func (m *MockSource) Stop() error {
	m.Finish()
	return nil
}

// Stream implements Source.
func (m *MockSource) Stream() <-chan AudioChunk { return m.out }

// Name implements Source.
func (m *MockSource) Name() string { return "mock" }

// Close implements Source.
func (m *MockSource) Close() error {
	m.Finish()
	return nil
}
