package modulation

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-multifx/dsp/interp"
)

const (
	defaultChorusSampleRate   = 44100.0
	defaultChorusSpeedHz      = 0.35
	defaultChorusDepthSeconds = 0.003
	defaultChorusBaseSeconds  = 0.018
	defaultChorusFeedback     = 0.0
	defaultChorusMix          = 0.18
	defaultChorusStages       = 3
	minChorusDelaySeconds     = 0.001
)

// Chorus is a standard multi-voice modulated-delay chorus effect.
//
// Delay time follows:
//
//	d(t) = baseDelay + depth * 0.5 * (1 + sin(phase + voiceOffset))
//
// with independent base delay, depth, and LFO rate controls. The averaged
// wet signal is fed back into the delay line scaled by feedback.
type Chorus struct {
	sampleRate       float64
	speedHz          float64
	depthSeconds     float64
	baseDelaySeconds float64
	feedback         float64
	mix              float64
	stages           int

	lfoPhase float64
	lastWet  float64

	delayLine []float64
	write     int
	maxDelay  int
}

// NewChorus creates a chorus effect with tuned musical defaults.
func NewChorus() (*Chorus, error) {
	c := &Chorus{
		sampleRate:       defaultChorusSampleRate,
		speedHz:          defaultChorusSpeedHz,
		depthSeconds:     defaultChorusDepthSeconds,
		baseDelaySeconds: defaultChorusBaseSeconds,
		feedback:         defaultChorusFeedback,
		mix:              defaultChorusMix,
		stages:           defaultChorusStages,
	}
	if err := c.reconfigureDelayLine(); err != nil {
		return nil, err
	}
	return c, nil
}

// SetSampleRate updates sample rate.
func (c *Chorus) SetSampleRate(sampleRate float64) error {
	if err := checkSampleRate("chorus", sampleRate); err != nil {
		return err
	}
	c.sampleRate = sampleRate
	return c.reconfigureDelayLine()
}

// Reserve sizes the delay line for base delays and depths summing to at most
// maxSeconds at the current sample rate. Later Set calls within that bound do
// not allocate.
func (c *Chorus) Reserve(maxSeconds float64) error {
	if maxSeconds < minChorusDelaySeconds || math.IsNaN(maxSeconds) || math.IsInf(maxSeconds, 0) {
		return fmt.Errorf("chorus reserve must be >= %f: %f", minChorusDelaySeconds, maxSeconds)
	}
	needed := int(math.Ceil(maxSeconds*c.sampleRate)) + 3
	if needed > len(c.delayLine) {
		c.resizeDelayLine(needed)
	}
	return nil
}

// SetSpeedHz updates LFO modulation rate.
func (c *Chorus) SetSpeedHz(speedHz float64) error {
	if speedHz <= 0 || math.IsNaN(speedHz) || math.IsInf(speedHz, 0) {
		return fmt.Errorf("chorus speed must be > 0: %f", speedHz)
	}
	c.speedHz = speedHz
	return nil
}

// SetDepth updates modulation depth in seconds.
func (c *Chorus) SetDepth(depth float64) error {
	if depth < 0 || math.IsNaN(depth) || math.IsInf(depth, 0) {
		return fmt.Errorf("chorus depth must be >= 0 and finite: %f", depth)
	}
	c.depthSeconds = depth
	return c.reconfigureDelayLine()
}

// SetBaseDelay sets the base delay in seconds.
func (c *Chorus) SetBaseDelay(baseDelay float64) error {
	if baseDelay < minChorusDelaySeconds || math.IsNaN(baseDelay) || math.IsInf(baseDelay, 0) {
		return fmt.Errorf("chorus base delay must be >= %f: %f", minChorusDelaySeconds, baseDelay)
	}
	c.baseDelaySeconds = baseDelay
	return c.reconfigureDelayLine()
}

// SetFeedback sets the wet feedback amount in [-0.99, 0.99].
func (c *Chorus) SetFeedback(feedback float64) error {
	if err := checkFeedback("chorus", feedback); err != nil {
		return err
	}
	c.feedback = feedback
	return nil
}

// SetStages updates the number of chorus voices.
func (c *Chorus) SetStages(stages int) error {
	if stages <= 0 {
		return fmt.Errorf("chorus stages must be > 0: %d", stages)
	}
	c.stages = stages
	return nil
}

// SetMix updates wet amount in range [0, 1].
func (c *Chorus) SetMix(mix float64) error {
	if err := checkUnit("chorus mix", mix); err != nil {
		return err
	}
	c.mix = mix
	return nil
}

// Reset clears delay state and modulation phase.
func (c *Chorus) Reset() {
	clear(c.delayLine)
	c.write = 0
	c.lfoPhase = 0
	c.lastWet = 0
}

// ProcessSample processes one sample.
func (c *Chorus) ProcessSample(input float64) float64 {
	c.delayLine[c.write] = input + c.feedback*c.lastWet
	c.write++
	if c.write >= len(c.delayLine) {
		c.write = 0
	}

	baseDelaySamples := c.baseDelaySeconds * c.sampleRate
	depthSamples := c.depthSeconds * c.sampleRate

	wetSum := 0.0
	stageCount := float64(c.stages)
	for i := 0; i < c.stages; i++ {
		phaseOffset := (2 * math.Pi * float64(i)) / stageCount
		mod := 0.5 * (1 + math.Sin(c.lfoPhase+phaseOffset)) // 0..1
		delay := baseDelaySamples + depthSamples*mod
		wetSum += c.sampleFractionalDelay(delay)
	}
	wet := wetSum / stageCount
	c.lastWet = flushDenormal(wet)

	c.lfoPhase += 2 * math.Pi * c.speedHz / c.sampleRate
	if c.lfoPhase >= 2*math.Pi {
		c.lfoPhase -= 2 * math.Pi
	}

	return input*(1-c.mix) + wet*c.mix
}

// ProcessInPlace applies chorus to buf in place.
func (c *Chorus) ProcessInPlace(buf []float64) {
	for i := range buf {
		buf[i] = c.ProcessSample(buf[i])
	}
}

// SampleRate returns sample rate in Hz.
func (c *Chorus) SampleRate() float64 { return c.sampleRate }

// SpeedHz returns modulation speed in Hz.
func (c *Chorus) SpeedHz() float64 { return c.speedHz }

// Depth returns modulation depth in seconds.
func (c *Chorus) Depth() float64 { return c.depthSeconds }

// BaseDelay returns the base delay in seconds.
func (c *Chorus) BaseDelay() float64 { return c.baseDelaySeconds }

// Feedback returns the wet feedback amount.
func (c *Chorus) Feedback() float64 { return c.feedback }

// Mix returns wet mix amount in [0, 1].
func (c *Chorus) Mix() float64 { return c.mix }

// Stages returns number of chorus voices.
func (c *Chorus) Stages() int { return c.stages }

// LFOPhase returns the current modulation phase in radians.
func (c *Chorus) LFOPhase() float64 { return c.lfoPhase }

func (c *Chorus) reconfigureDelayLine() error {
	if c.sampleRate <= 0 {
		return fmt.Errorf("chorus sample rate must be > 0: %f", c.sampleRate)
	}
	if c.baseDelaySeconds < minChorusDelaySeconds {
		return fmt.Errorf("chorus base delay must be >= %f: %f", minChorusDelaySeconds, c.baseDelaySeconds)
	}
	if c.depthSeconds < 0 {
		return fmt.Errorf("chorus depth must be >= 0: %f", c.depthSeconds)
	}

	neededMax := int(math.Ceil((c.baseDelaySeconds+c.depthSeconds)*c.sampleRate)) + 3
	if neededMax < 4 {
		neededMax = 4
	}
	if neededMax > len(c.delayLine) {
		c.resizeDelayLine(neededMax)
	}
	c.maxDelay = neededMax - 3

	return nil
}

func (c *Chorus) resizeDelayLine(size int) {
	old := c.delayLine
	oldWrite := c.write
	c.delayLine = make([]float64, size)
	c.write = 0

	// Preserve as much recent delay history as possible when resizing.
	copyCount := min(len(old), len(c.delayLine))
	for i := 0; i < copyCount; i++ {
		src := oldWrite - 1 - i
		if src < 0 {
			src += len(old)
		}
		dst := c.write - 1 - i
		if dst < 0 {
			dst += len(c.delayLine)
		}
		c.delayLine[dst] = old[src]
	}
}

func (c *Chorus) sampleFractionalDelay(delay float64) float64 {
	delay = min(delay, float64(c.maxDelay))

	newest := c.write - 1
	if newest < 0 {
		newest += len(c.delayLine)
	}

	return interp.RingHermite(c.delayLine, newest, delay)
}
