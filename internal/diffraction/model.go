// Package diffraction holds the single-slit Fraunhofer intensity model with a
// finite slit-screen distance correction, and its parameter metadata.
package diffraction

import "math"

// Intensity returns the predicted intensity at position x:
//
//	arg = pi * d * (x - x0) / sqrt((x - x0)^2 + L^2) / lambda
//	I   = bkg + norm * sin(arg)^2 / arg^2
//
// The sinc^2 term takes its limit 1 at arg == 0.
func Intensity(x float64, v Values) float64 {
	d, x0, l, lambda := v[SlitWidth], v[Shift], v[ScreenDistance], v[Wavelength]
	norm, bkg := v[Norm], v[Background]

	dx := x - x0
	arg := math.Pi * d * dx / math.Sqrt(dx*dx+l*l) / lambda
	if arg == 0 || dx == 0 {
		return bkg + norm
	}
	s := math.Sin(arg) / arg
	return bkg + norm*s*s
}

// Curve binds v to the model for plotting.
func Curve(v Values) func(float64) float64 {
	return func(x float64) float64 {
		return Intensity(x, v)
	}
}

// DefaultSpan is the range the model is drawn over when no data is attached.
func DefaultSpan(v Values) (float64, float64) {
	return v[Shift] - 0.03, v[Shift] + 0.03
}
