package audiofile

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/cwbudde/algo-multifx/dsp/buffer"
	"github.com/jfreymuth/oggvorbis"
)

type oggSource struct {
	file *os.File
	dec  *oggvorbis.Reader
	buf  []float32
}

func openOgg(path string) (Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("audiofile: %w", err)
	}

	dec, err := oggvorbis.NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("audiofile: %q: %w: %w", path, ErrInvalidFile, err)
	}

	if dec.Channels() < 1 {
		_ = f.Close()
		return nil, fmt.Errorf("audiofile: %q: %w", path, ErrInvalidFile)
	}

	return &oggSource{file: f, dec: dec}, nil
}

func (s *oggSource) SampleRate() int { return s.dec.SampleRate() }
func (s *oggSource) Channels() int   { return s.dec.Channels() }

func (s *oggSource) Read(block *buffer.Block) (int, error) {
	ch := s.dec.Channels()
	want := block.NumFrames() * ch
	if want == 0 {
		return 0, nil
	}

	s.buf = grow(s.buf, want)

	// Read yields interleaved samples, not frames.
	n, err := s.dec.Read(s.buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("audiofile: ogg: %w", err)
	}

	if n < ch {
		return 0, io.EOF
	}

	return block.Deinterleave32(s.buf[:n-n%ch], ch), nil
}

func (s *oggSource) Close() error {
	return s.file.Close()
}
