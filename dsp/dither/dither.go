// Package dither reduces float samples to integer PCM with optional dither
// noise and error-feedback noise shaping.
package dither

import "fmt"

// Type selects the probability distribution of the dither noise.
type Type int

const (
	// None rounds without noise.
	None Type = iota
	// Rectangular adds uniform noise one LSB wide.
	Rectangular
	// Triangular adds TPDF noise, the usual choice for final output.
	Triangular

	typeCount
)

var typeNames = [typeCount]string{"none", "rectangular", "triangular"}

func (t Type) String() string {
	if t >= 0 && t < typeCount {
		return typeNames[t]
	}

	return fmt.Sprintf("Type(%d)", int(t))
}

// Valid reports whether t is a known dither type.
func (t Type) Valid() bool {
	return t >= 0 && t < typeCount
}

// Shaping selects an error-feedback filter.
type Shaping int

const (
	// Flat leaves the requantization noise white.
	Flat Shaping = iota
	// FirstOrder feeds back the previous error once.
	FirstOrder
	// SecondOrder is a gentle 2nd-order highpass.
	SecondOrder
	// FWeighted is a 9th-order F-weighted curve that moves noise out of
	// the ear's most sensitive band.
	FWeighted

	shapingCount
)

var shapingNames = [shapingCount]string{"flat", "first-order", "second-order", "f-weighted"}

var shapingCoeffs = [shapingCount][]float64{
	Flat:        nil,
	FirstOrder:  {1},
	SecondOrder: {1.0, -0.5},
	FWeighted: {
		2.412, -3.370, 3.937, -4.174, 3.353,
		-2.205, 1.281, -0.569, 0.0847,
	},
}

func (s Shaping) String() string {
	if s >= 0 && s < shapingCount {
		return shapingNames[s]
	}

	return fmt.Sprintf("Shaping(%d)", int(s))
}

// Valid reports whether s is a known shaping curve.
func (s Shaping) Valid() bool {
	return s >= 0 && s < shapingCount
}
