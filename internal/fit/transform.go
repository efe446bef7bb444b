package fit

import (
	"math"

	"github.com/HamletTheHamster/diffraction-fit/internal/diffraction"
)

// transform maps the solver's internal coordinates to parameter values.
// Unbounded parameters are divided by their starting magnitude so every
// coordinate is of order one and the finite-difference step is relative.
// Bounded parameters use ext = lo + (hi-lo)(sin(u)+1)/2, which cannot leave
// [lo, hi].
type transform struct {
	base  diffraction.Values
	free  []diffraction.Index
	pars  diffraction.Params
	scale []float64
}

// boundEdge keeps a start value that sits on a bound just inside it. At
// sin(u) = +-1 the slope is zero and the solver could never move it.
const boundEdge = 1 - 1e-3

func newTransform(params diffraction.Params, free []diffraction.Index) *transform {
	t := &transform{
		base:  params.Values(),
		free:  free,
		pars:  params,
		scale: make([]float64, len(free)),
	}
	for j, idx := range free {
		t.scale[j] = scaleOf(params[idx].Value)
	}
	return t
}

func scaleOf(v float64) float64 {
	if v == 0 {
		return 1
	}
	return math.Abs(v)
}

func (t *transform) internal(params diffraction.Params) []float64 {
	u := make([]float64, len(t.free))
	for j, idx := range t.free {
		p := params[idx]
		if p.Bounded {
			s := 2*(p.Value-p.Lower)/(p.Upper-p.Lower) - 1
			u[j] = math.Asin(math.Max(-boundEdge, math.Min(boundEdge, s)))
			continue
		}
		u[j] = p.Value / t.scale[j]
	}
	return u
}

// external returns a fresh vector; it is called concurrently by the
// finite-difference Jacobian.
func (t *transform) external(u []float64) diffraction.Values {
	v := t.base
	for j, idx := range t.free {
		p := t.pars[idx]
		if p.Bounded {
			v[idx] = p.Lower + (p.Upper-p.Lower)*(math.Sin(u[j])+1)/2
			continue
		}
		v[idx] = u[j] * t.scale[j]
	}
	return v
}
