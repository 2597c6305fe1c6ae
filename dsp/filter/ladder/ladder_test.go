package ladder

import (
	"math"
	"testing"
)

func TestNewValidation(t *testing.T) {
	if _, err := New(0); err == nil {
		t.Fatal("expected error for invalid sample rate")
	}

	if _, err := New(48000, WithCutoffHz(0)); err == nil {
		t.Fatal("expected error for zero cutoff")
	}

	if _, err := New(48000, WithResonance(1.5)); err == nil {
		t.Fatal("expected error for resonance out of range")
	}

	if _, err := New(48000, WithDrive(0.5)); err == nil {
		t.Fatal("expected error for drive below 1")
	}

	if _, err := New(48000, WithMode(Mode(42))); err == nil {
		t.Fatal("expected error for invalid mode")
	}
}

func TestProcessInPlaceMatchesSample(t *testing.T) {
	opts := []Option{
		WithMode(ModeBPF24),
		WithCutoffHz(2400),
		WithResonance(0.6),
		WithDrive(4),
	}

	f1, err := New(48000, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	f2, err := New(48000, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	in := make([]float64, 384)
	for i := range in {
		in[i] = 0.65*math.Sin(2*math.Pi*float64(i)/47) + 0.12*math.Sin(2*math.Pi*float64(i)/11)
	}

	want := make([]float64, len(in))
	for i, x := range in {
		want[i] = f1.ProcessSample(x)
	}

	got := append([]float64(nil), in...)
	f2.ProcessInPlace(got)

	for i := range got {
		if d := math.Abs(got[i] - want[i]); d > 1e-12 {
			t.Fatalf("sample %d mismatch: got=%g want=%g", i, got[i], want[i])
		}
	}
}

func TestStateRoundTrip(t *testing.T) {
	f, err := New(48000, WithCutoffHz(800), WithResonance(0.8))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	for i := range 100 {
		f.ProcessSample(math.Sin(float64(i) * 0.1))
	}

	saved := f.State()

	want := make([]float64, 64)
	for i := range want {
		want[i] = f.ProcessSample(0.3)
	}

	if err := f.SetState(saved); err != nil {
		t.Fatalf("SetState() error = %v", err)
	}

	for i := range want {
		if got := f.ProcessSample(0.3); math.Abs(got-want[i]) > 1e-12 {
			t.Fatalf("sample %d after restore: got=%g want=%g", i, got, want[i])
		}
	}

	if err := f.SetState(State{Stage: [5]float64{math.NaN()}}); err == nil {
		t.Fatal("expected error for non-finite state")
	}
}

func TestSilenceInSilenceOutAllModes(t *testing.T) {
	for m := range NumModes {
		f, err := New(44100, WithMode(Mode(m)), WithResonance(1), WithDrive(100))
		if err != nil {
			t.Fatalf("New(%v) error = %v", Mode(m), err)
		}

		for i := range 512 {
			if y := f.ProcessSample(0); y != 0 {
				t.Fatalf("mode %v sample %d = %v, want 0", Mode(m), i, y)
			}
		}
	}
}

func TestDCResponseByMode(t *testing.T) {
	for m := range NumModes {
		mode := Mode(m)

		f, err := New(48000, WithMode(mode), WithCutoffHz(1000), WithResonance(0))
		if err != nil {
			t.Fatalf("New(%v) error = %v", mode, err)
		}

		var y float64
		for range 48000 {
			y = f.ProcessSample(0.5)
		}

		switch mode {
		case ModeLPF12, ModeLPF24:
			if y < 0.2 {
				t.Fatalf("%v should pass DC: got %g", mode, y)
			}
		default:
			if math.Abs(y) > 1e-3 {
				t.Fatalf("%v should reject DC: got %g", mode, y)
			}
		}
	}
}

func TestCutoffTrackingLowAndHighPass(t *testing.T) {
	const (
		sr     = 48000.0
		cutoff = 1000.0
	)

	low, err := New(sr, WithMode(ModeLPF24), WithCutoffHz(cutoff), WithResonance(0))
	if err != nil {
		t.Fatalf("New(LPF24) error = %v", err)
	}

	lowPass := steadyToneRMS(low, sr, cutoff/4, 8192, 2048)
	low.Reset()
	lowStop := steadyToneRMS(low, sr, cutoff*8, 8192, 2048)

	if lowPass <= lowStop*10 {
		t.Fatalf("LPF24 tracking failed: pass=%g stop=%g", lowPass, lowStop)
	}

	high, err := New(sr, WithMode(ModeHPF24), WithCutoffHz(cutoff), WithResonance(0))
	if err != nil {
		t.Fatalf("New(HPF24) error = %v", err)
	}

	highStop := steadyToneRMS(high, sr, cutoff/8, 8192, 2048)
	high.Reset()
	highPass := steadyToneRMS(high, sr, cutoff*4, 8192, 2048)

	if highPass <= highStop*10 {
		t.Fatalf("HPF24 tracking failed: pass=%g stop=%g", highPass, highStop)
	}
}

func TestSaturationSymmetry(t *testing.T) {
	f, err := New(48000, WithMode(ModeLPF24), WithCutoffHz(16000), WithDrive(30))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	for _, x := range []float64{0.1, 0.25, 0.5, 0.8, 1.0} {
		f.Reset()
		pos := f.ProcessSample(x)

		f.Reset()
		neg := f.ProcessSample(-x)

		if d := math.Abs(pos + neg); d > 1e-12 {
			t.Fatalf("symmetry mismatch for x=%g: pos=%g neg=%g", x, pos, neg)
		}
	}
}

func TestHighResonanceSustainsLongerTail(t *testing.T) {
	const sr = 48000.0

	lowRes, err := New(sr, WithMode(ModeLPF24), WithCutoffHz(900), WithResonance(0))
	if err != nil {
		t.Fatalf("New(lowRes) error = %v", err)
	}

	highRes, err := New(sr, WithMode(ModeLPF24), WithCutoffHz(900), WithResonance(1))
	if err != nil {
		t.Fatalf("New(highRes) error = %v", err)
	}

	lowTail := impulseTailEnergy(lowRes, 4096)

	highTail := impulseTailEnergy(highRes, 4096)
	if highTail <= lowTail*4 {
		t.Fatalf("expected longer tail at high resonance: low=%g high=%g", lowTail, highTail)
	}
}

func TestSetModeKeepsState(t *testing.T) {
	f, err := New(48000, WithCutoffHz(500))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	for range 64 {
		f.ProcessSample(0.7)
	}

	before := f.State()

	if err := f.SetMode(ModeHPF24); err != nil {
		t.Fatalf("SetMode() error = %v", err)
	}

	if f.State() != before {
		t.Fatal("SetMode must not reset state")
	}

	if f.Mode() != ModeHPF24 {
		t.Fatalf("Mode() = %v, want HPF24", f.Mode())
	}
}

func TestCutoffAboveNyquistStaysFinite(t *testing.T) {
	f, err := New(32000, WithCutoffHz(20000), WithResonance(1), WithDrive(50))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	for i := range 32000 {
		x := 0.9 * math.Sin(2*math.Pi*440*float64(i)/32000)
		if y := f.ProcessSample(x); !isFinite(y) {
			t.Fatalf("non-finite output at sample %d", i)
		}
	}
}

func TestParseMode(t *testing.T) {
	for i, name := range ModeNames() {
		m, err := ParseMode(name)
		if err != nil {
			t.Fatalf("ParseMode(%q) error = %v", name, err)
		}

		if m != Mode(i) {
			t.Fatalf("ParseMode(%q) = %v, want %v", name, m, Mode(i))
		}
	}

	if m, err := ParseMode(" hpf12 "); err != nil || m != ModeHPF12 {
		t.Fatalf("ParseMode(hpf12) = %v, %v", m, err)
	}

	if _, err := ParseMode("notch"); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func impulseTailEnergy(f *Filter, n int) float64 {
	var sum float64

	for i := range n {
		x := 0.0
		if i == 0 {
			x = 1
		}

		y := f.ProcessSample(x)
		if !isFinite(y) {
			return math.Inf(1)
		}

		if i >= n/4 {
			sum += y * y
		}
	}

	return sum
}

func steadyToneRMS(f *Filter, sampleRate, freq float64, n, warmup int) float64 {
	var sum float64

	for i := range n {
		x := 0.2 * math.Sin(2*math.Pi*freq*float64(i)/sampleRate)

		y := f.ProcessSample(x)
		if i >= warmup {
			sum += y * y
		}
	}

	return math.Sqrt(sum / float64(n-warmup))
}
