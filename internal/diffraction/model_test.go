package diffraction

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntensityAtCenterIsBackgroundPlusNorm(t *testing.T) {
	v := Defaults().Values()
	assert.Equal(t, v[Background]+v[Norm], Intensity(v[Shift], v))

	// Degenerate geometry still takes the limit instead of 0/0.
	v[ScreenDistance] = 0
	assert.Equal(t, v[Background]+v[Norm], Intensity(v[Shift], v))
}

func TestIntensityFiniteAndNonNegative(t *testing.T) {
	v := Defaults().Values()
	lo, hi := DefaultSpan(v)
	for i := 0; i <= 2000; i++ {
		x := lo + (hi-lo)*float64(i)/2000
		if x == v[Shift] {
			continue
		}
		y := Intensity(x, v)
		require.False(t, math.IsNaN(y) || math.IsInf(y, 0), "x=%g", x)
		require.GreaterOrEqual(t, y, 0.0, "x=%g", x)
		require.LessOrEqual(t, y, v[Background]+v[Norm]+1e-9, "x=%g", x)
	}
}

func TestIntensityFirstMinimum(t *testing.T) {
	v := Defaults().Values()
	v[Background] = 0

	// arg == pi where sin(theta) = lambda/d.
	sinTheta := v[Wavelength] / v[SlitWidth]
	dx := v[ScreenDistance] * sinTheta / math.Sqrt(1-sinTheta*sinTheta)
	assert.InDelta(t, 0, Intensity(v[Shift]+dx, v), 1e-9)
	assert.InDelta(t, 0, Intensity(v[Shift]-dx, v), 1e-9)
}

func TestIntensityIsSymmetric(t *testing.T) {
	v := Defaults().Values()
	for _, dx := range []float64{1e-4, 2e-3, 7e-3, 0.02} {
		assert.InDelta(t, Intensity(v[Shift]+dx, v), Intensity(v[Shift]-dx, v), 1e-9)
	}
}

func TestCurveMatchesIntensity(t *testing.T) {
	v := Defaults().Values()
	f := Curve(v)
	for _, x := range []float64{0.05, 0.057, 0.06} {
		assert.Equal(t, Intensity(x, v), f(x))
	}
	lo, hi := DefaultSpan(v)
	assert.InDelta(t, 0.027, lo, 1e-12)
	assert.InDelta(t, 0.087, hi, 1e-12)
}

func TestLookup(t *testing.T) {
	for i := Index(0); i < NumParams; i++ {
		got, ok := Lookup(i.Symbol())
		require.True(t, ok)
		assert.Equal(t, i, got)
	}
	got, ok := Lookup(" LAMBDA ")
	require.True(t, ok)
	assert.Equal(t, Wavelength, got)

	_, ok = Lookup("sigma")
	assert.False(t, ok)
}

func TestDefaultsFixSlitWidthAndDistance(t *testing.T) {
	p := Defaults()
	assert.Equal(t, []Index{Shift, Wavelength, Norm, Background}, p.Free())

	p.Release(SlitWidth)
	p.Fix(Norm)
	assert.Equal(t, []Index{SlitWidth, Shift, Wavelength, Background}, p.Free())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(p *Params)
		index  Index
	}{
		{
			name:   "zero wavelength",
			modify: func(p *Params) { p.Set(Wavelength, 0) },
			index:  Wavelength,
		},
		{
			name:   "nan value",
			modify: func(p *Params) { p.Set(Norm, math.NaN()) },
			index:  Norm,
		},
		{
			name:   "inverted bounds",
			modify: func(p *Params) { p.Limit(Shift, 0.06, 0.05) },
			index:  Shift,
		},
		{
			name:   "value outside bounds",
			modify: func(p *Params) { p.Limit(Background, 5, 10) },
			index:  Background,
		},
		{
			name:   "fixed value outside bounds",
			modify: func(p *Params) { p.Limit(SlitWidth, 1, 2) },
			index:  SlitWidth,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Defaults()
			tt.modify(&p)
			err := p.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidParameter))

			var pe *ParamError
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, tt.index, pe.Index)
		})
	}

	p := Defaults()
	p.Limit(Shift, 0.056, 0.058)
	assert.NoError(t, p.Validate())
}
