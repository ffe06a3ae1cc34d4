package transcribe

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestAudioChunkBytesRoundTrip(t *testing.T) {
	chunk := AudioChunk{
		Samples:    []int16{0, 1, -1, 32767, -32768, 1000},
		SampleRate: 16000,
	}

	restored := FromBytes(chunk.Bytes(), chunk.SampleRate)
	if len(restored.Samples) != len(chunk.Samples) {
		t.Fatalf("expected %d samples, got %d", len(chunk.Samples), len(restored.Samples))
	}
	for i, want := range chunk.Samples {
		if restored.Samples[i] != want {
			t.Errorf("sample %d: expected %d, got %d", i, want, restored.Samples[i])
		}
	}
}

func TestAudioChunkDuration(t *testing.T) {
	chunk := AudioChunk{
		Samples:    make([]int16, 16000),
		SampleRate: 16000,
	}
	if d := chunk.Duration(); d != time.Second {
		t.Errorf("expected 1s, got %v", d)
	}

	empty := AudioChunk{SampleRate: 0}
	if d := empty.Duration(); d != 0 {
		t.Errorf("expected 0 duration for empty chunk, got %v", d)
	}
}

func TestAudioChunkWAV(t *testing.T) {
	chunk := AudioChunk{
		Samples:    []int16{0, 100, -100, 5000},
		SampleRate: 16000,
	}
	data, err := chunk.WAV()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected non-empty WAV data")
	}
	if !bytes.HasPrefix(data, []byte("RIFF")) {
		t.Errorf("expected RIFF header, got %q", data[:4])
	}
	if !bytes.Equal(data[8:12], []byte("WAVE")) {
		t.Errorf("expected WAVE marker, got %q", data[8:12])
	}
}

func TestDownmix(t *testing.T) {
	tests := []struct {
		name     string
		data     []int
		channels int
		want     []int16
	}{
		{
			name:     "mono passthrough",
			data:     []int{1, 2, 3},
			channels: 1,
			want:     []int16{1, 2, 3},
		},
		{
			name:     "stereo average",
			data:     []int{100, 200, -100, 100},
			channels: 2,
			want:     []int16{150, 0},
		},
		{
			name:     "clamps overflow",
			data:     []int{40000},
			channels: 1,
			want:     []int16{32767},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := downmix(tt.data, tt.channels)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d samples, got %d", len(tt.want), len(got))
			}
			for i, want := range tt.want {
				if got[i] != want {
					t.Errorf("sample %d: expected %d, got %d", i, want, got[i])
				}
			}
		})
	}
}

type fakeTranscriber struct {
	results []Result
	calls   []int
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, chunk AudioChunk) (Result, error) {
	f.calls = append(f.calls, len(chunk.Samples))
	if len(f.results) == 0 {
		return Result{Text: "hello"}, nil
	}
	result := f.results[0]
	f.results = f.results[1:]
	return result, nil
}

func TestPipelineBatchesWindows(t *testing.T) {
	source := NewMockSource()
	transcriber := &fakeTranscriber{}

	cfg := Config{SampleRate: 100, ChunkDuration: time.Second}
	pipeline := NewPipeline(source, transcriber, cfg)

	// Two windows plus a partial tail.
	source.Push(AudioChunk{Samples: make([]int16, 150), SampleRate: 100})
	source.Push(AudioChunk{Samples: make([]int16, 100), SampleRate: 100})
	source.Finish()

	var results []Result
	err := pipeline.Run(context.Background(), func(r Result) {
		results = append(results, r)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(transcriber.calls) != 3 {
		t.Fatalf("expected 3 transcription calls, got %d", len(transcriber.calls))
	}
	if transcriber.calls[0] != 100 || transcriber.calls[1] != 100 {
		t.Errorf("expected full windows of 100 samples, got %v", transcriber.calls)
	}
	if transcriber.calls[2] != 50 {
		t.Errorf("expected partial flush of 50 samples, got %d", transcriber.calls[2])
	}
	if len(results) != 3 {
		t.Errorf("expected 3 results, got %d", len(results))
	}
}

func TestPipelineSkipsEmptyResults(t *testing.T) {
	source := NewMockSource()
	transcriber := &fakeTranscriber{results: []Result{{Text: ""}}}

	cfg := Config{SampleRate: 10, ChunkDuration: time.Second}
	pipeline := NewPipeline(source, transcriber, cfg)

	source.Push(AudioChunk{Samples: make([]int16, 10), SampleRate: 10})
	source.Finish()

	called := 0
	err := pipeline.Run(context.Background(), func(r Result) { called++ })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if called != 0 {
		t.Errorf("expected no callbacks for empty text, got %d", called)
	}
}

func TestPipelineContextCancel(t *testing.T) {
	source := NewMockSource()
	transcriber := &fakeTranscriber{}
	pipeline := NewPipeline(source, transcriber, DefaultConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := pipeline.Run(ctx, func(r Result) {})
	if err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestNewWhisperTranscriberRequiresKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	if _, err := NewWhisperTranscriber(""); err != ErrMissingAPIKey {
		t.Errorf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestNewStreamTranscriberRequiresKey(t *testing.T) {
	t.Setenv("DEEPGRAM_API_KEY", "")
	if _, err := NewStreamTranscriber("", DefaultConfig()); err != ErrMissingAPIKey {
		t.Errorf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestStreamTranscriberRoundTrip(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Token key" {
			t.Errorf("expected token auth header, got %q", got)
		}
		if got := r.URL.Query().Get("encoding"); got != "linear16" {
			t.Errorf("expected linear16 encoding, got %q", got)
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		defer conn.Close()
		for {
			mt, _, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if mt != websocket.BinaryMessage {
				continue
			}
			frame := `{"is_final":true,"channel":{"alternatives":[{"transcript":"hello there","confidence":0.9}]}}`
			if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	endpoint := "ws" + strings.TrimPrefix(srv.URL, "http")
	s, err := NewStreamTranscriber("key", DefaultConfig(), WithStreamEndpoint(endpoint))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer s.Close()

	chunk := AudioChunk{Samples: make([]int16, 1600), SampleRate: 16000}
	deadline := time.Now().Add(2 * time.Second)

	var got Result
	for got.Text == "" {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for a finalized transcript")
		}
		got, err = s.Transcribe(context.Background(), chunk)
		if err != nil {
			t.Fatalf("transcribe failed: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}
	if got.Text != "hello there" {
		t.Errorf("expected transcript %q, got %q", "hello there", got.Text)
	}
	if len(got.Segments) == 0 || got.Segments[0].Confidence != 0.9 {
		t.Errorf("expected a segment with confidence 0.9, got %+v", got.Segments)
	}
}

func TestStreamPipelineDeliversLateFinals(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		defer conn.Close()
		for {
			mt, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if mt == websocket.BinaryMessage {
				// Finalization lags behind the audio, like a real service.
				time.Sleep(50 * time.Millisecond)
				frame := `{"is_final":true,"channel":{"alternatives":[{"transcript":"line","confidence":0.9}]}}`
				if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
					return
				}
				continue
			}
			if strings.Contains(string(msg), "CloseStream") {
				return
			}
		}
	}))
	defer srv.Close()

	endpoint := "ws" + strings.TrimPrefix(srv.URL, "http")
	cfg := Config{SampleRate: 100, ChunkDuration: time.Second}
	s, err := NewStreamTranscriber("key", cfg, WithStreamEndpoint(endpoint))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer s.Close()

	source := NewMockSource()
	for i := 0; i < 3; i++ {
		source.Push(AudioChunk{Samples: make([]int16, 100), SampleRate: 100})
	}
	source.Finish()

	var texts []string
	pipeline := NewPipeline(source, s, cfg)
	if err := pipeline.Run(context.Background(), func(r Result) {
		texts = append(texts, r.Text)
	}); err != nil {
		t.Fatalf("pipeline failed: %v", err)
	}

	all := strings.Join(texts, " ")
	if got := strings.Count(all, "line"); got != 3 {
		t.Errorf("expected 3 finalized utterances, got %d (%q)", got, all)
	}
}

func TestStreamTranscriberCloseUnblocksReadLoop(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		defer conn.Close()
		// Flood more finals than the results buffer holds.
		frame := `{"is_final":true,"channel":{"alternatives":[{"transcript":"flood","confidence":0.5}]}}`
		for i := 0; i < 20; i++ {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
				return
			}
		}
		conn.ReadMessage()
	}))
	defer srv.Close()

	endpoint := "ws" + strings.TrimPrefix(srv.URL, "http")
	s, err := NewStreamTranscriber("key", DefaultConfig(), WithStreamEndpoint(endpoint))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Connect(context.Background(), 16000); err != nil {
		t.Fatalf("connect failed: %v", err)
	}

	// Let the read loop fill the buffer and block, then close without
	// ever draining.
	time.Sleep(100 * time.Millisecond)
	s.Close()

	timeout := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-s.Results():
			if !ok {
				return
			}
		case <-timeout:
			t.Fatal("results channel never closed after Close")
		}
	}
}

func TestWhisperTranscribeReportsAudioDuration(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text":"hello world"}`))
	}))
	defer srv.Close()

	tr, err := NewWhisperTranscriber("key", WithWhisperBaseURL(srv.URL+"/v1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	chunk := AudioChunk{Samples: make([]int16, 8000), SampleRate: 16000}
	result, err := tr.Transcribe(context.Background(), chunk)
	if err != nil {
		t.Fatalf("transcribe failed: %v", err)
	}
	if result.Text != "hello world" {
		t.Errorf("unexpected text %q", result.Text)
	}
	if result.Duration != 500*time.Millisecond {
		t.Errorf("expected 500ms audio duration, got %v", result.Duration)
	}
}

func TestStreamTranscriberSendNotConnected(t *testing.T) {
	s, err := NewStreamTranscriber("key", DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err = s.Send(AudioChunk{Samples: []int16{1}, SampleRate: 16000})
	if err != ErrNotConnected {
		t.Errorf("expected ErrNotConnected, got %v", err)
	}
}
