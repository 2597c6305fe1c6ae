package modulation

import (
	"fmt"
	"math"
)

func checkSampleRate(name string, sampleRate float64) error {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return fmt.Errorf("%s sample rate must be > 0 and finite: %f", name, sampleRate)
	}

	return nil
}

func checkUnit(name string, v float64) error {
	if v < 0 || v > 1 || math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%s must be in [0, 1]: %f", name, v)
	}

	return nil
}

func checkFeedback(name string, feedback float64) error {
	if feedback < -maxPhaserFeedback || feedback > maxPhaserFeedback || math.IsNaN(feedback) || math.IsInf(feedback, 0) {
		return fmt.Errorf("%s feedback must be in [-%.2f, %.2f]: %f", name, maxPhaserFeedback, maxPhaserFeedback, feedback)
	}

	return nil
}

func flushDenormal(x float64) float64 {
	const epsilon = 1e-30
	if x > -epsilon && x < epsilon {
		return 0
	}

	return x
}
