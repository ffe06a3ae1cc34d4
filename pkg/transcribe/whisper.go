package transcribe

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// WhisperTranscriber sends audio chunks to the OpenAI Whisper API.
type WhisperTranscriber struct {
	client   *openai.Client
	model    string
	language string
	baseURL  string
}

// WhisperOption customizes a WhisperTranscriber.
type WhisperOption func(*WhisperTranscriber)

// WithWhisperModel overrides the default whisper-1 model.
func WithWhisperModel(model string) WhisperOption {
	return func(w *WhisperTranscriber) {
		w.model = model
	}
}

// WithWhisperLanguage hints the spoken language (ISO 639-1).
func WithWhisperLanguage(lang string) WhisperOption {
	return func(w *WhisperTranscriber) {
		w.language = lang
	}
}

// WithWhisperBaseURL targets an OpenAI-compatible server, mainly for tests.
func WithWhisperBaseURL(url string) WhisperOption {
	return func(w *WhisperTranscriber) {
		w.baseURL = url
	}
}

// NewWhisperTranscriber creates a transcriber backed by the OpenAI API.
// The API key is read from OPENAI_API_KEY when apiKey is empty.
func NewWhisperTranscriber(apiKey string, opts ...WhisperOption) (*WhisperTranscriber, error) {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	w := &WhisperTranscriber{model: openai.Whisper1}
	for _, opt := range opts {
		opt(w)
	}

	cfg := openai.DefaultConfig(apiKey)
	if w.baseURL != "" {
		cfg.BaseURL = w.baseURL
	}
	w.client = openai.NewClientWithConfig(cfg)
	return w, nil
}

// Transcribe converts one audio chunk to text.
func (w *WhisperTranscriber) Transcribe(ctx context.Context, chunk AudioChunk) (Result, error) {
	wavData, err := chunk.WAV()
	if err != nil {
		return Result{}, fmt.Errorf("transcribe: failed to encode chunk: %w", err)
	}

	req := openai.AudioRequest{
		Model:    w.model,
		Reader:   bytes.NewReader(wavData),
		FilePath: "chunk.wav",
	}
	if w.language != "" {
		req.Language = w.language
	}

	resp, err := w.client.CreateTranscription(ctx, req)
	if err != nil {
		return Result{}, fmt.Errorf("transcribe: whisper request failed: %w", err)
	}

	text := strings.TrimSpace(resp.Text)
	result := Result{
		Text:     text,
		Duration: chunk.Duration(),
	}
	if text != "" {
		result.Segments = []Segment{{Text: text, Confidence: 1.0}}
	}
	return result, nil
}
