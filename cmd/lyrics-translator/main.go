// Live lyrics translator: listen to a song, match what is sung against
// the official lyrics and print each line with its translation.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/helixworks/go-agents/internal/env"
	"github.com/helixworks/go-agents/internal/log"
	"github.com/helixworks/go-agents/pkg/lyrics"
	"github.com/helixworks/go-agents/pkg/lyricshow"
	"github.com/helixworks/go-agents/pkg/transcribe"
	"github.com/helixworks/go-agents/pkg/translate"
)

func main() {
	artist := flag.String("artist", "", "Artist name for the lyrics lookup")
	title := flag.String("title", "", "Song title for the lyrics lookup")
	target := flag.String("target", "en", "Target language code for the translation")
	lyricsFile := flag.String("lyrics-file", "", "Read lyrics from a local file instead of the lyrics API")
	audioFile := flag.String("audio", "", "WAV file to transcribe (stands in for a microphone)")
	chunkDur := flag.Duration("chunk", 5*time.Second, "Audio window size per transcription request")
	minRatio := flag.Float64("min-ratio", 0, "Minimum similarity for a transcript to match a lyric line")
	sttBackend := flag.String("stt", "whisper", "Transcription backend: whisper or stream")
	sttModel := flag.String("model", "", "Transcription model override (backend default when empty)")
	dashboardPort := flag.String("dashboard", "", "Serve the live dashboard on this port (empty disables it)")
	debug := flag.Bool("debug", false, "Enable verbose debug logging")
	flag.Parse()

	level := "info"
	if *debug {
		level = "debug"
	}
	log.Init(level)
	env.Load()

	if *audioFile == "" {
		fmt.Fprintln(os.Stderr, "an -audio WAV file is required")
		flag.Usage()
		os.Exit(1)
	}
	if *lyricsFile == "" && (*artist == "" || *title == "") {
		fmt.Fprintln(os.Stderr, "either -lyrics-file or both -artist and -title are required")
		flag.Usage()
		os.Exit(1)
	}

	translator, err := translate.NewClient(translate.Config{TargetLanguage: *target})
	if err != nil {
		log.Error("failed to create translator", "error", err)
		os.Exit(1)
	}

	var transcriber transcribe.Transcriber
	switch *sttBackend {
	case "whisper":
		var opts []transcribe.WhisperOption
		if *sttModel != "" {
			opts = append(opts, transcribe.WithWhisperModel(*sttModel))
		}
		transcriber, err = transcribe.NewWhisperTranscriber("", opts...)
	case "stream":
		cfg := transcribe.DefaultConfig()
		cfg.ChunkDuration = *chunkDur
		cfg.Model = *sttModel
		var stream *transcribe.StreamTranscriber
		stream, err = transcribe.NewStreamTranscriber("", cfg)
		if err == nil {
			defer stream.Close()
			transcriber = stream
		}
	default:
		err = fmt.Errorf("unknown stt backend %q", *sttBackend)
	}
	if err != nil {
		log.Error("failed to create transcriber", "error", err)
		os.Exit(1)
	}

	app := lyricshow.New(
		lyricshow.Config{
			Artist:         *artist,
			Title:          *title,
			TargetLanguage: *target,
			LyricsFile:     *lyricsFile,
			ChunkDuration:  *chunkDur,
			MinRatio:       *minRatio,
			DashboardPort:  *dashboardPort,
		},
		lyrics.NewProvider(lyrics.Config{}),
		translator,
		transcribe.NewFileSource(*audioFile, *chunkDur),
		transcriber,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- app.Run(ctx) }()

	for update := range app.Updates() {
		fmt.Printf("[ORIGINAL]   %s\n", update.Original)
		fmt.Printf("[TRANSLATED] %s\n\n", update.Translated)
	}

	if err := <-done; err != nil && err != context.Canceled {
		log.Error("pipeline failed", "error", err)
		os.Exit(1)
	}
}
