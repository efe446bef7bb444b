package diffraction

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Index identifies one of the model parameters. The order is fixed:
// d, x0, L, lambda, norm, bkg.
type Index int

const (
	SlitWidth Index = iota
	Shift
	ScreenDistance
	Wavelength
	Norm
	Background

	NumParams = 6
)

var symbols = [NumParams]string{"d", "x0", "L", "lambda", "norm", "bkg"}

var names = [NumParams]string{
	"slit width",
	"x shift",
	"slit-screen distance",
	"wavelength",
	"normalization",
	"background",
}

// Symbol is the short name used on the command line and in the registry.
func (i Index) Symbol() string {
	if i < 0 || int(i) >= NumParams {
		return fmt.Sprintf("p%d", int(i))
	}
	return symbols[i]
}

// Name is the human readable name used in reports.
func (i Index) Name() string {
	if i < 0 || int(i) >= NumParams {
		return fmt.Sprintf("parameter %d", int(i))
	}
	return names[i]
}

func (i Index) String() string { return i.Symbol() }

// Lookup resolves a parameter symbol, ignoring case.
func Lookup(symbol string) (Index, bool) {
	for i, s := range symbols {
		if strings.EqualFold(s, strings.TrimSpace(symbol)) {
			return Index(i), true
		}
	}
	return 0, false
}

// Values is the plain numeric parameter vector the model is evaluated with.
type Values [NumParams]float64

// Parameter is a value plus its fitting policy. Bounds only constrain a free
// parameter.
type Parameter struct {
	Value   float64
	Fixed   bool
	Bounded bool
	Lower   float64
	Upper   float64
}

// Params is the full parameter vector in canonical order.
type Params [NumParams]Parameter

// Defaults returns the visible-light slit regime the lab fits start from.
// Slit width and slit-screen distance are measured, so they come fixed.
func Defaults() Params {
	var p Params
	p[SlitWidth] = Parameter{Value: 1e-4, Fixed: true}
	p[Shift] = Parameter{Value: 0.057}
	p[ScreenDistance] = Parameter{Value: 1.0, Fixed: true}
	p[Wavelength] = Parameter{Value: 632.8e-9}
	p[Norm] = Parameter{Value: 500}
	p[Background] = Parameter{Value: 2}
	return p
}

// Values returns the numeric values only.
func (p Params) Values() Values {
	var v Values
	for i := range p {
		v[i] = p[i].Value
	}
	return v
}

// Set overrides a value and keeps the fitting policy.
func (p *Params) Set(i Index, v float64) {
	p[i].Value = v
}

// Fix marks the given parameters as fixed.
func (p *Params) Fix(idx ...Index) {
	for _, i := range idx {
		p[i].Fixed = true
	}
}

// Release marks the given parameters as free.
func (p *Params) Release(idx ...Index) {
	for _, i := range idx {
		p[i].Fixed = false
	}
}

// Limit sets bounds on a parameter.
func (p *Params) Limit(i Index, lower, upper float64) {
	p[i].Bounded = true
	p[i].Lower = lower
	p[i].Upper = upper
}

// Free lists the indices of the parameters the solver is allowed to move.
func (p Params) Free() []Index {
	var free []Index
	for i := range p {
		if !p[i].Fixed {
			free = append(free, Index(i))
		}
	}
	return free
}

// ErrInvalidParameter is the root of every parameter validation failure.
var ErrInvalidParameter = errors.New("invalid parameter")

// ParamError reports which parameter failed validation.
type ParamError struct {
	Index  Index
	Reason string
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("%s: %s (%s): %s", ErrInvalidParameter, e.Index.Name(), e.Index.Symbol(), e.Reason)
}

func (e *ParamError) Unwrap() error { return ErrInvalidParameter }

// Validate checks the vector can be evaluated and fitted.
func (p Params) Validate() error {
	for i := range p {
		idx := Index(i)
		par := p[i]
		if math.IsNaN(par.Value) || math.IsInf(par.Value, 0) {
			return &ParamError{Index: idx, Reason: "value is not finite"}
		}
		if !par.Bounded {
			continue
		}
		if math.IsNaN(par.Lower) || math.IsNaN(par.Upper) || par.Lower >= par.Upper {
			return &ParamError{Index: idx, Reason: fmt.Sprintf("bounds [%g, %g] are empty", par.Lower, par.Upper)}
		}
		if par.Value < par.Lower || par.Value > par.Upper {
			reason := fmt.Sprintf("value %g outside bounds [%g, %g]", par.Value, par.Lower, par.Upper)
			if par.Fixed {
				reason = "fixed " + reason
			}
			return &ParamError{Index: idx, Reason: reason}
		}
	}
	if p[Wavelength].Value == 0 {
		return &ParamError{Index: Wavelength, Reason: "must be non-zero"}
	}
	return nil
}
