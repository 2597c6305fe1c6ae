// Package interp provides the fractional-delay reads of the modulated delay
// effects.
package interp

// Hermite4 computes cubic 4-point interpolation.
// It interpolates from x0 to x1 using neighbor points xm1 and x2.
func Hermite4(t, xm1, x0, x1, x2 float64) float64 {
	c0 := x0
	c1 := 0.5 * (x1 - xm1)
	c2 := xm1 - 2.5*x0 + 2*x1 - 0.5*x2
	c3 := 0.5*(x2-xm1) + 1.5*(x0-x1)

	return ((c3*t+c2)*t+c1)*t + c0
}

// RingHermite reads ring delay samples behind its newest entry with Hermite
// interpolation. Taps outside the ring read as silence; negative delays
// read the newest sample.
func RingHermite(ring []float64, newest int, delay float64) float64 {
	if len(ring) == 0 {
		return 0
	}

	delay = max(delay, 0)
	p := int(delay)
	t := delay - float64(p)

	return Hermite4(t,
		ringTap(ring, newest, max(0, p-1)),
		ringTap(ring, newest, p),
		ringTap(ring, newest, p+1),
		ringTap(ring, newest, p+2),
	)
}

func ringTap(ring []float64, newest, delay int) float64 {
	if delay >= len(ring) {
		return 0
	}

	idx := newest - delay
	if idx < 0 {
		idx += len(ring)
	}

	return ring[idx]
}
