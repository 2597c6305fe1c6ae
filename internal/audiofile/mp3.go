package audiofile

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/cwbudde/algo-multifx/dsp/buffer"
	"github.com/cwbudde/algo-multifx/dsp/dither"
	gomp3 "github.com/hajimehoshi/go-mp3"
	"github.com/viert/lame"
)

// go-mp3 always decodes to interleaved stereo 16-bit little endian.
const (
	mp3Channels    = 2
	mp3FrameBytes  = mp3Channels * 2
	int16FullScale = 32768.0
)

type mp3Source struct {
	file    *os.File
	dec     *gomp3.Decoder
	raw     []byte
	scratch []float64
}

func openMP3(path string) (Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("audiofile: %w", err)
	}

	dec, err := gomp3.NewDecoder(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("audiofile: %q: %w: %w", path, ErrInvalidFile, err)
	}

	return &mp3Source{file: f, dec: dec}, nil
}

func (s *mp3Source) SampleRate() int { return s.dec.SampleRate() }
func (s *mp3Source) Channels() int   { return mp3Channels }

func (s *mp3Source) Read(block *buffer.Block) (int, error) {
	frames := block.NumFrames()
	if frames == 0 {
		return 0, nil
	}

	s.raw = grow(s.raw, frames*mp3FrameBytes)

	n, err := io.ReadFull(s.dec, s.raw)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return 0, fmt.Errorf("audiofile: mp3: %w", err)
	}

	frames = n / mp3FrameBytes
	if frames == 0 {
		return 0, io.EOF
	}

	samples := frames * mp3Channels
	s.scratch = grow(s.scratch, samples)
	for i := range samples {
		v := int16(binary.LittleEndian.Uint16(s.raw[2*i:]))
		s.scratch[i] = float64(v) / int16FullScale
	}

	return block.Deinterleave64(s.scratch, mp3Channels), nil
}

func (s *mp3Source) Close() error {
	return s.file.Close()
}

type mp3Sink struct {
	file     *os.File
	wr       *lame.LameWriter
	quant    []*dither.Quantizer
	scratch  []float64
	raw      []byte
	channels int
}

func createMP3(path string, sampleRate, channels int, cfg sinkConfig) (Sink, error) {
	// lame takes 16-bit PCM.
	quant, err := cfg.quantizers(16, channels)
	if err != nil {
		return nil, err
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("audiofile: %w", err)
	}

	wr := lame.NewWriter(f)
	wr.Encoder.SetBitrate(cfg.bitrate)
	wr.Encoder.SetQuality(cfg.quality)
	wr.Encoder.SetNumChannels(channels)
	wr.Encoder.SetInSamplerate(sampleRate)
	if channels == 1 {
		wr.Encoder.SetMode(lame.MONO)
	} else {
		wr.Encoder.SetMode(lame.JOINT_STEREO)
	}
	wr.Encoder.SetVBR(lame.VBR_RH)
	wr.Encoder.InitParams()

	return &mp3Sink{file: f, wr: wr, quant: quant, channels: channels}, nil
}

func (s *mp3Sink) Write(block *buffer.Block) error {
	n := block.NumFrames() * s.channels
	if n == 0 {
		return nil
	}

	s.scratch = grow(s.scratch, n)
	block.Interleave64(s.scratch, s.channels)

	s.raw = grow(s.raw, 2*n)
	for i, v := range s.scratch {
		q := int16(s.quant[i%s.channels].Quantize(v))
		binary.LittleEndian.PutUint16(s.raw[2*i:], uint16(q))
	}

	if _, err := s.wr.Write(s.raw); err != nil {
		return fmt.Errorf("audiofile: mp3: %w", err)
	}

	return nil
}

func (s *mp3Sink) Close() error {
	return errors.Join(s.wr.Close(), s.file.Close())
}
