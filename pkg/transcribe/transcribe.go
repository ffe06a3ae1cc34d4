// Package transcribe provides chunked speech-to-text over pluggable audio
// sources and transcription backends.
//
// Audio is consumed from a Source as PCM16 chunks, accumulated until a
// configurable duration, then handed to a Transcriber. The OpenAI Whisper
// API backend batches chunks; the streaming backend keeps a websocket open
// and emits transcripts as they arrive.
package transcribe

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for the transcribe package.
var (
	// ErrMissingAPIKey indicates the API key was not provided.
	ErrMissingAPIKey = errors.New("transcribe: API key is required")

	// ErrSourceClosed indicates the audio source has been closed.
	ErrSourceClosed = errors.New("transcribe: audio source closed")

	// ErrNotConnected indicates the streaming backend is not connected.
	ErrNotConnected = errors.New("transcribe: not connected")
)

// Segment is a fragment of transcribed speech with a confidence score.
type Segment struct {
	// Text is the transcribed text.
	Text string

	// Confidence is the model's confidence in the segment (0.0-1.0).
	Confidence float64
}

// Result is the outcome of transcribing one audio chunk.
type Result struct {
	// Text is the full transcript, segments joined in order.
	Text string

	// Segments are the individual transcript fragments.
	Segments []Segment

	// Duration is the audio duration covered by this result.
	Duration time.Duration
}

// Transcriber converts an audio chunk into text.
type Transcriber interface {
	// Transcribe converts the chunk to text. An empty Result.Text with a nil
	// error means the chunk contained no recognizable speech.
	Transcribe(ctx context.Context, chunk AudioChunk) (Result, error)
}

// Config holds the shared transcription settings.
type Config struct {
	// SampleRate is the PCM sample rate in Hz.
	SampleRate int

	// ChunkDuration is how much audio to accumulate before each transcription.
	ChunkDuration time.Duration

	// Model is the speech model identifier (backend specific).
	Model string

	// Language is the ISO-639-1 hint; empty means auto-detect.
	Language string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		SampleRate:    16000,
		ChunkDuration: 5 * time.Second,
	}
}
