// Package audiofile reads and writes the audio files the offline renderer
// works on. Sources decode to planar float64 blocks, sinks encode them.
package audiofile

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/cwbudde/algo-multifx/dsp/buffer"
	"github.com/cwbudde/algo-multifx/dsp/dither"
)

var (
	// ErrUnsupportedFormat is returned for file extensions or encodings
	// without a decoder or encoder.
	ErrUnsupportedFormat = errors.New("unsupported audio format")
	// ErrInvalidFile is returned when a file does not parse as its format.
	ErrInvalidFile = errors.New("invalid audio file")
	// ErrInvalidLayout is returned for sinks with a bad rate or channel count.
	ErrInvalidLayout = errors.New("invalid audio layout")
)

// Format identifies a container by extension.
type Format string

// Supported formats.
const (
	FormatUnknown Format = ""
	FormatWAV     Format = "wav"
	FormatMP3     Format = "mp3"
	FormatOgg     Format = "ogg"
)

// FormatOf maps a path to its format by extension.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav", ".wave":
		return FormatWAV
	case ".mp3":
		return FormatMP3
	case ".ogg", ".oga":
		return FormatOgg
	default:
		return FormatUnknown
	}
}

// Source is a decoded audio stream.
type Source interface {
	// Read decodes up to block.NumFrames() frames into the start of block
	// and returns how many it wrote. Block channels beyond Channels() are
	// silenced; file channels beyond the block are dropped. At the end of
	// the stream Read returns 0, io.EOF.
	Read(block *buffer.Block) (int, error)
	SampleRate() int
	Channels() int
	Close() error
}

// Sink is an encoded audio stream.
type Sink interface {
	// Write encodes every frame of block. Block channels beyond the sink's
	// channel count are dropped, missing ones are written as silence.
	Write(block *buffer.Block) error
	Close() error
}

// Open decodes path according to its extension.
func Open(path string) (Source, error) {
	switch FormatOf(path) {
	case FormatWAV:
		return openWAV(path)
	case FormatMP3:
		return openMP3(path)
	case FormatOgg:
		return openOgg(path)
	default:
		return nil, fmt.Errorf("audiofile: %q: %w", path, ErrUnsupportedFormat)
	}
}

// SinkOption configures Create.
type SinkOption func(*sinkConfig)

type sinkConfig struct {
	bitDepth int
	bitrate  int
	quality  int
	dither   dither.Type
	shaping  dither.Shaping
}

// WithBitDepth sets the PCM bit depth of WAV sinks: 16, 24 or 32.
func WithBitDepth(bits int) SinkOption {
	return func(c *sinkConfig) {
		switch bits {
		case 16, 24, 32:
			c.bitDepth = bits
		}
	}
}

// WithDither sets the noise added when reducing to integer PCM. The default
// is triangular.
func WithDither(t dither.Type) SinkOption {
	return func(c *sinkConfig) {
		if t.Valid() {
			c.dither = t
		}
	}
}

// WithNoiseShaping sets the requantization noise shaping curve.
func WithNoiseShaping(s dither.Shaping) SinkOption {
	return func(c *sinkConfig) {
		if s.Valid() {
			c.shaping = s
		}
	}
}

// WithBitrate sets the MP3 bitrate in kbit/s.
func WithBitrate(kbps int) SinkOption {
	return func(c *sinkConfig) {
		if kbps > 0 {
			c.bitrate = kbps
		}
	}
}

// WithQuality sets the MP3 encoder quality, 0 (best) to 9 (fastest).
func WithQuality(q int) SinkOption {
	return func(c *sinkConfig) {
		if q >= 0 && q <= 9 {
			c.quality = q
		}
	}
}

// Create opens a sink at path according to its extension.
func Create(path string, sampleRate, channels int, opts ...SinkOption) (Sink, error) {
	if sampleRate <= 0 || channels < 1 || channels > 2 {
		return nil, fmt.Errorf("audiofile: %w: %d Hz, %d channels", ErrInvalidLayout, sampleRate, channels)
	}

	cfg := sinkConfig{bitDepth: 16, bitrate: 192, quality: 2, dither: dither.Triangular}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	switch FormatOf(path) {
	case FormatWAV:
		return createWAV(path, sampleRate, channels, cfg)
	case FormatMP3:
		return createMP3(path, sampleRate, channels, cfg)
	default:
		return nil, fmt.Errorf("audiofile: %q: %w", path, ErrUnsupportedFormat)
	}
}

// quantizers builds one quantizer per output channel.
func (c sinkConfig) quantizers(bits, channels int) ([]*dither.Quantizer, error) {
	qs := make([]*dither.Quantizer, channels)
	for ch := range qs {
		q, err := dither.NewQuantizer(bits, dither.WithType(c.dither), dither.WithShaping(c.shaping))
		if err != nil {
			return nil, fmt.Errorf("audiofile: %w", err)
		}

		qs[ch] = q
	}

	return qs, nil
}

func grow[T any](s []T, n int) []T {
	if cap(s) < n {
		return make([]T, n)
	}

	return s[:n]
}
