package audiofile

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/cwbudde/algo-multifx/dsp/buffer"
	"github.com/cwbudde/algo-multifx/dsp/dither"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const wavFormatPCM = 1

type wavSource struct {
	file       *os.File
	dec        *wav.Decoder
	ib         *audio.IntBuffer
	scratch    []float64
	sampleRate int
	channels   int
	scale      float64
	offset     float64
}

func openWAV(path string) (Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("audiofile: %w", err)
	}

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		_ = f.Close()
		return nil, fmt.Errorf("audiofile: %q: %w", path, ErrInvalidFile)
	}

	if dec.WavAudioFormat != wavFormatPCM {
		_ = f.Close()
		return nil, fmt.Errorf("audiofile: %q: wav format %d: %w", path, dec.WavAudioFormat, ErrUnsupportedFormat)
	}

	format := dec.Format()
	bits := int(dec.BitDepth)
	if format.NumChannels < 1 || bits < 8 {
		_ = f.Close()
		return nil, fmt.Errorf("audiofile: %q: %w", path, ErrInvalidFile)
	}

	s := &wavSource{
		file:       f,
		dec:        dec,
		sampleRate: format.SampleRate,
		channels:   format.NumChannels,
		scale:      1 / math.Ldexp(1, bits-1),
		ib: &audio.IntBuffer{
			Format:         format,
			SourceBitDepth: bits,
		},
	}

	// 8-bit PCM is unsigned.
	if bits == 8 {
		s.offset = 128
	}

	return s, nil
}

func (s *wavSource) SampleRate() int { return s.sampleRate }
func (s *wavSource) Channels() int   { return s.channels }

func (s *wavSource) Read(block *buffer.Block) (int, error) {
	want := block.NumFrames() * s.channels
	if want == 0 {
		return 0, nil
	}

	s.ib.Data = grow(s.ib.Data, want)

	n, err := s.dec.PCMBuffer(s.ib)
	if err != nil && !errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("audiofile: wav: %w", err)
	}

	n -= n % s.channels
	if n == 0 {
		return 0, io.EOF
	}

	s.scratch = grow(s.scratch, n)
	for i, v := range s.ib.Data[:n] {
		s.scratch[i] = (float64(v) - s.offset) * s.scale
	}

	return block.Deinterleave64(s.scratch, s.channels), nil
}

func (s *wavSource) Close() error {
	return s.file.Close()
}

type wavSink struct {
	file     *os.File
	enc      *wav.Encoder
	ib       *audio.IntBuffer
	quant    []*dither.Quantizer
	scratch  []float64
	channels int
}

func createWAV(path string, sampleRate, channels int, cfg sinkConfig) (Sink, error) {
	bits := cfg.bitDepth

	quant, err := cfg.quantizers(bits, channels)
	if err != nil {
		return nil, err
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("audiofile: %w", err)
	}

	return &wavSink{
		file:     f,
		enc:      wav.NewEncoder(f, sampleRate, bits, channels, wavFormatPCM),
		quant:    quant,
		channels: channels,
		ib: &audio.IntBuffer{
			Format: &audio.Format{
				NumChannels: channels,
				SampleRate:  sampleRate,
			},
			SourceBitDepth: bits,
		},
	}, nil
}

func (s *wavSink) Write(block *buffer.Block) error {
	n := block.NumFrames() * s.channels
	if n == 0 {
		return nil
	}

	s.scratch = grow(s.scratch, n)
	block.Interleave64(s.scratch, s.channels)

	s.ib.Data = grow(s.ib.Data, n)
	for i, v := range s.scratch {
		s.ib.Data[i] = s.quant[i%s.channels].Quantize(v)
	}

	if err := s.enc.Write(s.ib); err != nil {
		return fmt.Errorf("audiofile: wav: %w", err)
	}

	return nil
}

func (s *wavSink) Close() error {
	return errors.Join(s.enc.Close(), s.file.Close())
}
