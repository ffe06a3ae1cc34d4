// Package lyricshow orchestrates the live lyrics translation pipeline:
// fetch lyrics, translate them, then match incoming speech transcripts
// against the lyric lines and emit translated updates in real time.
package lyricshow

import (
	"context"
	"fmt"
	"time"

	"github.com/helixworks/go-agents/internal/log"
	"github.com/helixworks/go-agents/pkg/align"
	"github.com/helixworks/go-agents/pkg/lyrics"
	"github.com/helixworks/go-agents/pkg/transcribe"
)

// Update is one matched lyric line delivered to consumers.
type Update struct {
	Index      int    `json:"index"`
	Original   string `json:"original"`
	Translated string `json:"translated"`
	Transcript string `json:"transcript"`
}

// LyricsSource resolves the lyric lines for a song.
type LyricsSource interface {
	Fetch(ctx context.Context, artist, title string) ([]string, error)
}

// Translator converts lyric lines into the target language.
type Translator interface {
	TranslateLines(ctx context.Context, lines []string) ([]string, error)
}

// Config holds the settings for one show.
type Config struct {
	Artist         string
	Title          string
	TargetLanguage string

	// LyricsFile, when set, bypasses the lyrics API and reads lines
	// from a local file.
	LyricsFile string

	// MinRatio is the minimum similarity for a transcript to match a
	// lyric line. Zero means the aligner default.
	MinRatio float64

	ChunkDuration time.Duration

	// DashboardPort enables the live dashboard when non-empty.
	DashboardPort string
}

// App wires lyrics, translation, transcription and alignment together.
type App struct {
	cfg         Config
	source      LyricsSource
	translator  Translator
	audio       transcribe.Source
	transcriber transcribe.Transcriber
	loadFile    func(path string) ([]string, error)

	updates   chan Update
	dashboard *Dashboard
}

// New creates an App. All collaborators are required except the dashboard,
// which is attached lazily when DashboardPort is set.
func New(cfg Config, source LyricsSource, translator Translator, audio transcribe.Source, transcriber transcribe.Transcriber) *App {
	if cfg.ChunkDuration <= 0 {
		cfg.ChunkDuration = transcribe.DefaultConfig().ChunkDuration
	}
	return &App{
		cfg:         cfg,
		source:      source,
		translator:  translator,
		audio:       audio,
		transcriber: transcriber,
		loadFile:    defaultFileLoader,
		updates:     make(chan Update, 32),
	}
}

// SetFileLoader overrides how LyricsFile is read, mainly for tests.
func (a *App) SetFileLoader(fn func(path string) ([]string, error)) {
	a.loadFile = fn
}

// Updates returns the channel delivering matched lines. It is closed when
// Run returns.
func (a *App) Updates() <-chan Update {
	return a.updates
}

// Run executes the full pipeline until the audio source is exhausted or the
// context is cancelled.
func (a *App) Run(ctx context.Context) error {
	defer close(a.updates)

	lines, err := a.resolveLyrics(ctx)
	if err != nil {
		return err
	}
	log.Info("lyrics resolved", "artist", a.cfg.Artist, "title", a.cfg.Title, "lines", len(lines))

	translations, err := a.translator.TranslateLines(ctx, lines)
	if err != nil {
		return fmt.Errorf("lyricshow: translation failed: %w", err)
	}
	log.Info("lyrics translated", "target", a.cfg.TargetLanguage, "lines", len(translations))

	var opts []align.Option
	if a.cfg.MinRatio > 0 {
		opts = append(opts, align.WithMinRatio(a.cfg.MinRatio))
	}
	aligner := align.New(lines, translations, opts...)

	if a.cfg.DashboardPort != "" {
		a.dashboard = NewDashboard(a.cfg.DashboardPort)
		a.dashboard.StartAsync()
		defer a.dashboard.Shutdown()
	}

	cfg := transcribe.Config{
		SampleRate:    transcribe.DefaultConfig().SampleRate,
		ChunkDuration: a.cfg.ChunkDuration,
	}
	pipeline := transcribe.NewPipeline(a.audio, a.transcriber, cfg)

	return pipeline.Run(ctx, func(result transcribe.Result) {
		matched := aligner.Process(result.Text)
		if matched == nil {
			log.Debug("transcript did not match any line", "transcript", result.Text)
			return
		}
		update := Update{
			Index:      matched.Index,
			Original:   matched.Original,
			Translated: matched.Translation,
			Transcript: result.Text,
		}
		a.emit(update)
	})
}

func (a *App) emit(update Update) {
	log.Info("matched line",
		"index", update.Index,
		"original", update.Original,
		"translated", update.Translated)

	select {
	case a.updates <- update:
	default:
		log.Warn("updates channel full, dropping update", "index", update.Index)
	}

	if a.dashboard != nil {
		a.dashboard.Publish(update)
	}
}

func (a *App) resolveLyrics(ctx context.Context) ([]string, error) {
	if a.cfg.LyricsFile != "" {
		return a.loadFile(a.cfg.LyricsFile)
	}
	if a.cfg.Artist == "" || a.cfg.Title == "" {
		return nil, fmt.Errorf("lyricshow: artist and title are required")
	}
	return a.source.Fetch(ctx, a.cfg.Artist, a.cfg.Title)
}

func defaultFileLoader(path string) ([]string, error) {
	return lyrics.NewProvider(lyrics.Config{}).LoadFile(path)
}
