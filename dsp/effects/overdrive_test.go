package effects

import (
	"math"
	"testing"
)

func TestOverdriveValidation(t *testing.T) {
	if _, err := NewOverdrive(0); err == nil {
		t.Fatal("expected error for invalid sample rate")
	}

	if _, err := NewOverdrive(48000, WithOverdriveDrive(100)); err == nil {
		t.Fatal("expected error for invalid drive")
	}

	if _, err := NewOverdrive(48000, WithOverdriveCurve(OverdriveCurve(99))); err == nil {
		t.Fatal("expected error for invalid curve")
	}

	if _, err := NewOverdrive(48000, WithOverdriveMix(-0.1)); err == nil {
		t.Fatal("expected error for invalid mix")
	}

	o, err := NewOverdrive(48000)
	if err != nil {
		t.Fatalf("NewOverdrive() error = %v", err)
	}

	if err := o.SetOutputLevel(5); err == nil {
		t.Fatal("expected error for invalid output level")
	}
}

func TestOverdriveSilenceInSilenceOut(t *testing.T) {
	for _, curve := range []OverdriveCurve{OverdriveCurveTanh, OverdriveCurveSoftClip, OverdriveCurvePolynomial} {
		o, err := NewOverdrive(48000, WithOverdriveCurve(curve), WithOverdriveDrive(maxOverdriveDrive))
		if err != nil {
			t.Fatalf("NewOverdrive() error = %v", err)
		}

		buf := make([]float64, 256)
		o.ProcessInPlace(buf)

		for i, v := range buf {
			if v != 0 {
				t.Fatalf("curve %d sample %d = %v, want 0", curve, i, v)
			}
		}
	}
}

func TestOverdriveFullScaleIsNormalised(t *testing.T) {
	for _, drive := range []float64{1, 2, 8, 40} {
		o, err := NewOverdrive(48000, WithOverdriveDrive(drive))
		if err != nil {
			t.Fatalf("NewOverdrive() error = %v", err)
		}

		if got := o.ProcessSample(1); math.Abs(got-1) > 1e-9 {
			t.Fatalf("drive %v: ProcessSample(1) = %v, want 1", drive, got)
		}

		if got := o.ProcessSample(-1); math.Abs(got+1) > 1e-9 {
			t.Fatalf("drive %v: ProcessSample(-1) = %v, want -1", drive, got)
		}
	}
}

func TestOverdriveOddSymmetricAndMonotonic(t *testing.T) {
	o, err := NewOverdrive(48000, WithOverdriveDrive(6))
	if err != nil {
		t.Fatalf("NewOverdrive() error = %v", err)
	}

	prev := math.Inf(-1)
	for x := -1.0; x <= 1.0; x += 0.01 {
		y := o.ProcessSample(x)
		if y < prev {
			t.Fatalf("transfer curve not monotonic at x=%v", x)
		}
		prev = y

		if diff := math.Abs(y + o.ProcessSample(-x)); diff > 1e-12 {
			t.Fatalf("transfer curve not odd at x=%v: diff=%g", x, diff)
		}
	}
}

func TestOverdriveMixZeroPassthrough(t *testing.T) {
	o, err := NewOverdrive(48000, WithOverdriveDrive(30), WithOverdriveMix(0))
	if err != nil {
		t.Fatalf("NewOverdrive() error = %v", err)
	}

	for _, in := range []float64{-1.2, -0.5, 0, 0.4, 1.3} {
		out := o.ProcessSample(in)
		if math.Abs(out-in) > 1e-12 {
			t.Fatalf("mix=0 passthrough mismatch: in=%g out=%g", in, out)
		}
	}
}

func TestOverdrivePolynomialCloseToTanh(t *testing.T) {
	exact, err := NewOverdrive(48000, WithOverdriveDrive(2))
	if err != nil {
		t.Fatalf("NewOverdrive() error = %v", err)
	}

	poly, err := NewOverdrive(48000, WithOverdriveDrive(2), WithOverdriveCurve(OverdriveCurvePolynomial))
	if err != nil {
		t.Fatalf("NewOverdrive() error = %v", err)
	}

	for x := -1.0; x <= 1.0; x += 0.05 {
		if diff := math.Abs(exact.ProcessSample(x) - poly.ProcessSample(x)); diff > 0.05 {
			t.Fatalf("x=%v: polynomial deviates by %v", x, diff)
		}
	}
}
