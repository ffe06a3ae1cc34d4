package transcribe

import (
	"context"
	"time"

	"github.com/helixworks/go-agents/internal/log"
)

// ResultFunc receives each transcription result as it becomes available.
type ResultFunc func(Result)

// Pipeline pulls audio from a Source, batches it into fixed-duration windows
// and runs each window through a Transcriber.
type Pipeline struct {
	source      Source
	transcriber Transcriber
	cfg         Config
}

// NewPipeline wires a source to a transcriber.
func NewPipeline(source Source, transcriber Transcriber, cfg Config) *Pipeline {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = DefaultConfig().SampleRate
	}
	if cfg.ChunkDuration <= 0 {
		cfg.ChunkDuration = DefaultConfig().ChunkDuration
	}
	return &Pipeline{
		source:      source,
		transcriber: transcriber,
		cfg:         cfg,
	}
}

// drainer is implemented by transcribers that keep producing results after
// the last chunk has been submitted.
type drainer interface {
	Drain(ctx context.Context) ([]Result, error)
}

// drain collects the results a streaming transcriber finalizes after the
// audio ends. Batch transcribers have nothing buffered and are skipped.
func (p *Pipeline) drain(ctx context.Context, fn ResultFunc) error {
	d, ok := p.transcriber.(drainer)
	if !ok {
		return nil
	}
	results, err := d.Drain(ctx)
	for _, res := range results {
		if res.Text != "" {
			fn(res)
		}
	}
	return err
}

// Run consumes the source until it is exhausted or the context is cancelled,
// invoking fn for every non-empty transcription. Run flushes any buffered
// partial window and drains late streaming results before returning.
func (p *Pipeline) Run(ctx context.Context, fn ResultFunc) error {
	if err := p.source.Start(ctx); err != nil {
		return err
	}
	defer p.source.Stop()

	window := int(p.cfg.ChunkDuration.Seconds() * float64(p.cfg.SampleRate))
	buffer := make([]int16, 0, window)
	sampleRate := p.cfg.SampleRate

	flush := func() error {
		if len(buffer) == 0 {
			return nil
		}
		chunk := AudioChunk{Samples: buffer, SampleRate: sampleRate}
		start := time.Now()
		result, err := p.transcriber.Transcribe(ctx, chunk)
		if err != nil {
			return err
		}
		log.Debug("transcribed window",
			"samples", len(buffer),
			"duration", time.Since(start),
			"text_len", len(result.Text))
		if result.Text != "" {
			fn(result)
		}
		buffer = make([]int16, 0, window)
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case chunk, ok := <-p.source.Stream():
			if !ok {
				if err := flush(); err != nil {
					return err
				}
				return p.drain(ctx, fn)
			}
			if chunk.SampleRate > 0 {
				sampleRate = chunk.SampleRate
			}
			buffer = append(buffer, chunk.Samples...)
			for len(buffer) >= window {
				full := buffer[:window]
				rest := buffer[window:]
				buffer = full
				if err := flush(); err != nil {
					return err
				}
				buffer = append(buffer, rest...)
			}
		}
	}
}
