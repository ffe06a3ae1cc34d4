package lyricshow

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/helixworks/go-agents/pkg/transcribe"
)

type fakeLyrics struct {
	lines []string
	err   error
}

func (f *fakeLyrics) Fetch(ctx context.Context, artist, title string) ([]string, error) {
	return f.lines, f.err
}

type fakeTranslator struct {
	err error
}

func (f *fakeTranslator) TranslateLines(ctx context.Context, lines []string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = "[es] " + line
	}
	return out, nil
}

type scriptedTranscriber struct {
	texts []string
	next  int
}

func (s *scriptedTranscriber) Transcribe(ctx context.Context, chunk transcribe.AudioChunk) (transcribe.Result, error) {
	if s.next >= len(s.texts) {
		return transcribe.Result{}, nil
	}
	text := s.texts[s.next]
	s.next++
	return transcribe.Result{Text: text}, nil
}

func newTestApp(t *testing.T, lines, transcripts []string) *App {
	t.Helper()

	source := transcribe.NewMockSource()
	// One window of audio per scripted transcript.
	for range transcripts {
		source.Push(transcribe.AudioChunk{Samples: make([]int16, 16000), SampleRate: 16000})
	}
	source.Finish()

	cfg := Config{
		Artist:         "Artist",
		Title:          "Song",
		TargetLanguage: "es",
		ChunkDuration:  time.Second,
	}
	return New(cfg, &fakeLyrics{lines: lines}, &fakeTranslator{}, source, &scriptedTranscriber{texts: transcripts})
}

func TestAppMatchesAndTranslates(t *testing.T) {
	lines := []string{
		"hello darkness my old friend",
		"i have come to talk with you again",
	}
	app := newTestApp(t, lines, []string{
		"hello darkness my old friend",
		"i have come to talk with you again",
	})

	done := make(chan error, 1)
	go func() { done <- app.Run(context.Background()) }()

	var updates []Update
	for u := range app.Updates() {
		updates = append(updates, u)
	}
	if err := <-done; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(updates) != 2 {
		t.Fatalf("expected 2 updates, got %d", len(updates))
	}
	if updates[0].Index != 0 || updates[1].Index != 1 {
		t.Errorf("expected indexes 0,1, got %d,%d", updates[0].Index, updates[1].Index)
	}
	if updates[0].Translated != "[es] hello darkness my old friend" {
		t.Errorf("unexpected translation: %q", updates[0].Translated)
	}
}

func TestAppSkipsNoise(t *testing.T) {
	lines := []string{"hello darkness my old friend"}
	app := newTestApp(t, lines, []string{
		"completely unrelated chatter about the weather",
		"hello darkness my old friend",
	})

	done := make(chan error, 1)
	go func() { done <- app.Run(context.Background()) }()

	var updates []Update
	for u := range app.Updates() {
		updates = append(updates, u)
	}
	if err := <-done; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(updates) != 1 {
		t.Fatalf("expected 1 update, got %d", len(updates))
	}
	if updates[0].Index != 0 {
		t.Errorf("expected index 0, got %d", updates[0].Index)
	}
}

func TestAppTranslationFailure(t *testing.T) {
	source := transcribe.NewMockSource()
	source.Finish()

	cfg := Config{Artist: "a", Title: "b", TargetLanguage: "es"}
	app := New(cfg, &fakeLyrics{lines: []string{"line"}},
		&fakeTranslator{err: errors.New("service down")},
		source, &scriptedTranscriber{})

	if err := app.Run(context.Background()); err == nil {
		t.Fatal("expected error, got nil")
	}
	// Channel must still be closed on error.
	if _, ok := <-app.Updates(); ok {
		t.Error("expected closed updates channel")
	}
}

func TestAppRequiresArtistAndTitle(t *testing.T) {
	source := transcribe.NewMockSource()
	source.Finish()

	app := New(Config{TargetLanguage: "es"}, &fakeLyrics{}, &fakeTranslator{}, source, &scriptedTranscriber{})
	if err := app.Run(context.Background()); err == nil {
		t.Fatal("expected error for missing artist/title")
	}
}

func TestAppLyricsFile(t *testing.T) {
	source := transcribe.NewMockSource()
	source.Finish()

	cfg := Config{LyricsFile: "song.txt", TargetLanguage: "es"}
	app := New(cfg, &fakeLyrics{err: errors.New("should not be called")}, &fakeTranslator{}, source, &scriptedTranscriber{})
	app.SetFileLoader(func(path string) ([]string, error) {
		if path != "song.txt" {
			t.Errorf("unexpected path %q", path)
		}
		return []string{"from file"}, nil
	})

	if err := app.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDashboardEndpoints(t *testing.T) {
	d := NewDashboard("0")
	d.Publish(Update{Index: 0, Original: "hola", Translated: "hello"})

	req := httptest.NewRequest("GET", "/healthz", nil)
	resp, err := d.App().Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}

	req = httptest.NewRequest("GET", "/api/lines", nil)
	resp, err = d.App().Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "hola") {
		t.Errorf("expected published line in response, got %s", body)
	}
}
