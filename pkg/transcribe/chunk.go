package transcribe

import (
	"fmt"
	"io"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// AudioChunk represents a chunk of audio data.
type AudioChunk struct {
	// Samples contains PCM16 audio samples (little-endian).
	Samples []int16

	// SampleRate is the sample rate of this chunk.
	SampleRate int
}

// Bytes returns the raw bytes of the audio chunk.
func (c *AudioChunk) Bytes() []byte {
	buf := make([]byte, len(c.Samples)*2)
	for i, s := range c.Samples {
		buf[i*2] = byte(s)
		buf[i*2+1] = byte(s >> 8)
	}
	return buf
}

// FromBytes builds a chunk from raw PCM16 bytes.
func FromBytes(data []byte, sampleRate int) AudioChunk {
	c := AudioChunk{
		SampleRate: sampleRate,
		Samples:    make([]int16, len(data)/2),
	}
	for i := range c.Samples {
		c.Samples[i] = int16(data[i*2]) | int16(data[i*2+1])<<8
	}
	return c
}

// Duration returns the audio duration covered by the chunk.
func (c *AudioChunk) Duration() time.Duration {
	if c.SampleRate == 0 {
		return 0
	}
	return time.Duration(len(c.Samples)) * time.Second / time.Duration(c.SampleRate)
}

// WAV encodes the chunk as a mono 16-bit WAV file.
// Batch transcription APIs expect a container format, not raw PCM.
func (c *AudioChunk) WAV() ([]byte, error) {
	ws := &seekBuffer{}
	enc := wav.NewEncoder(ws, c.SampleRate, 16, 1, 1)

	ints := make([]int, len(c.Samples))
	for i, s := range c.Samples {
		ints[i] = int(s)
	}
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: c.SampleRate},
		Data:           ints,
		SourceBitDepth: 16,
	}

	if err := enc.Write(buf); err != nil {
		return nil, fmt.Errorf("transcribe: WAV encode failed: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("transcribe: WAV finalize failed: %w", err)
	}
	return ws.data, nil
}

// seekBuffer is an in-memory io.WriteSeeker for the WAV encoder, which
// rewinds to patch the RIFF header on Close.
type seekBuffer struct {
	data []byte
	pos  int
}

func (b *seekBuffer) Write(p []byte) (int, error) {
	if need := b.pos + len(p); need > len(b.data) {
		grown := make([]byte, need)
		copy(grown, b.data)
		b.data = grown
	}
	copy(b.data[b.pos:], p)
	b.pos += len(p)
	return len(p), nil
}

func (b *seekBuffer) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = int64(b.pos) + offset
	case io.SeekEnd:
		abs = int64(len(b.data)) + offset
	default:
		return 0, fmt.Errorf("transcribe: invalid seek whence %d", whence)
	}
	if abs < 0 {
		return 0, fmt.Errorf("transcribe: negative seek position %d", abs)
	}
	b.pos = int(abs)
	return abs, nil
}
