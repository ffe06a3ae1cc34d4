package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/helixworks/go-agents/internal/log"
)

// DefaultStreamEndpoint is the Deepgram live transcription endpoint.
const DefaultStreamEndpoint = "wss://api.deepgram.com/v1/listen"

// streamMessage mirrors the JSON frames Deepgram pushes over the socket.
type streamMessage struct {
	IsFinal bool `json:"is_final"`
	Channel struct {
		Alternatives []struct {
			Transcript string  `json:"transcript"`
			Confidence float64 `json:"confidence"`
		} `json:"alternatives"`
	} `json:"channel"`
}

// StreamTranscriber keeps a websocket open to a live transcription service
// and reports finalized utterances through a channel.
type StreamTranscriber struct {
	endpoint string
	apiKey   string
	model    string
	language string

	mu      sync.Mutex
	conn    *websocket.Conn
	results chan Result
	done    chan struct{}
}

// StreamOption customizes a StreamTranscriber.
type StreamOption func(*StreamTranscriber)

// WithStreamEndpoint overrides the websocket endpoint, mainly for tests.
func WithStreamEndpoint(url string) StreamOption {
	return func(s *StreamTranscriber) {
		s.endpoint = url
	}
}

// WithStreamModel sets the transcription model.
func WithStreamModel(model string) StreamOption {
	return func(s *StreamTranscriber) {
		s.model = model
	}
}

// WithStreamLanguage sets the expected spoken language.
func WithStreamLanguage(lang string) StreamOption {
	return func(s *StreamTranscriber) {
		s.language = lang
	}
}

// NewStreamTranscriber creates a streaming transcriber. The API key falls
// back to DEEPGRAM_API_KEY when empty.
func NewStreamTranscriber(apiKey string, cfg Config, opts ...StreamOption) (*StreamTranscriber, error) {
	if apiKey == "" {
		apiKey = os.Getenv("DEEPGRAM_API_KEY")
	}
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	s := &StreamTranscriber{
		endpoint: DefaultStreamEndpoint,
		apiKey:   apiKey,
		model:    cfg.Model,
		language: cfg.Language,
		results:  make(chan Result, 8),
		done:     make(chan struct{}),
	}
	if s.model == "" {
		s.model = "nova-2"
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Connect dials the transcription service and starts reading responses.
func (s *StreamTranscriber) Connect(ctx context.Context, sampleRate int) error {
	url := fmt.Sprintf("%s?model=%s&encoding=linear16&sample_rate=%d&channels=1&punctuate=true",
		s.endpoint, s.model, sampleRate)
	if s.language != "" {
		url += "&language=" + s.language
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, map[string][]string{
		"Authorization": {"Token " + s.apiKey},
	})
	if err != nil {
		return fmt.Errorf("transcribe: failed to connect to stream endpoint: %w", err)
	}

	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()

	go s.readLoop(conn)
	return nil
}

// Send writes one audio chunk to the stream.
func (s *StreamTranscriber) Send(chunk AudioChunk) error {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}
	if len(chunk.Samples) == 0 {
		return nil
	}
	return conn.WriteMessage(websocket.BinaryMessage, chunk.Bytes())
}

// Transcribe implements Transcriber over the live stream. The chunk is
// written to the socket and any utterances finalized so far are returned;
// an empty Result means nothing has been finalized yet.
func (s *StreamTranscriber) Transcribe(ctx context.Context, chunk AudioChunk) (Result, error) {
	s.mu.Lock()
	connected := s.conn != nil
	s.mu.Unlock()
	if !connected {
		if err := s.Connect(ctx, chunk.SampleRate); err != nil {
			return Result{}, err
		}
	}
	if err := s.Send(chunk); err != nil {
		return Result{}, err
	}

	result := Result{Duration: chunk.Duration()}
	for {
		select {
		case res, ok := <-s.results:
			if !ok {
				return result, nil
			}
			if result.Text != "" {
				result.Text += " "
			}
			result.Text += res.Text
			result.Segments = append(result.Segments, res.Segments...)
		case <-ctx.Done():
			return Result{}, ctx.Err()
		default:
			return result, nil
		}
	}
}

// Drain signals the end of the audio and collects the utterances the
// service finalizes after the last chunk, until the stream closes or the
// timeout elapses.
func (s *StreamTranscriber) Drain(ctx context.Context) ([]Result, error) {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return nil, nil
	}

	// The service holds the tail of the audio until told no more is coming.
	if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"CloseStream"}`)); err != nil {
		return nil, fmt.Errorf("transcribe: failed to close stream: %w", err)
	}

	timeout := time.NewTimer(10 * time.Second)
	defer timeout.Stop()

	var out []Result
	for {
		select {
		case res, ok := <-s.results:
			if !ok {
				return out, nil
			}
			out = append(out, res)
		case <-timeout.C:
			log.Warn("timed out waiting for final transcripts", "collected", len(out))
			return out, nil
		case <-ctx.Done():
			return out, ctx.Err()
		}
	}
}

// Results returns finalized transcription results. The channel is closed
// when the connection ends.
func (s *StreamTranscriber) Results() <-chan Result {
	return s.results
}

func (s *StreamTranscriber) readLoop(conn *websocket.Conn) {
	defer close(s.results)
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-s.done:
			default:
				log.Debug("stream transcriber read ended", "error", err)
			}
			return
		}

		var msg streamMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Warn("failed to parse transcription frame", "error", err)
			continue
		}
		if !msg.IsFinal || len(msg.Channel.Alternatives) == 0 {
			continue
		}

		alt := msg.Channel.Alternatives[0]
		if alt.Transcript == "" {
			continue
		}
		result := Result{
			Text:     alt.Transcript,
			Segments: []Segment{{Text: alt.Transcript, Confidence: alt.Confidence}},
		}
		select {
		case s.results <- result:
		case <-s.done:
			return
		}
	}
}

// Close shuts down the websocket connection.
func (s *StreamTranscriber) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.done:
	default:
		close(s.done)
	}
	if s.conn == nil {
		return nil
	}
	_ = s.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"))
	err := s.conn.Close()
	s.conn = nil
	return err
}
