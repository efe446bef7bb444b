package app

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/HamletTheHamster/diffraction-fit/internal/diffraction"
	"github.com/HamletTheHamster/diffraction-fit/internal/fit"
)

// RegisterParamFlags adds one flag per model parameter, named by its symbol,
// plus --fix and --limit.
func RegisterParamFlags(fs *flag.FlagSet) {
	def := diffraction.Defaults()
	for i := 0; i < diffraction.NumParams; i++ {
		idx := diffraction.Index(i)
		fs.Float64(idx.Symbol(), def[idx].Value, idx.Name())
	}

	var fixed []string
	for i := 0; i < diffraction.NumParams; i++ {
		if def[i].Fixed {
			fixed = append(fixed, diffraction.Index(i).Symbol())
		}
	}
	fs.StringSlice("fix", fixed, "parameters held constant, by symbol (empty frees all)")
	fs.StringArray("limit", nil, "bounds as symbol=lower:upper, repeatable")
}

// RegisterRangeFlags adds --xmin and --xmax.
func RegisterRangeFlags(fs *flag.FlagSet) {
	fs.Float64("xmin", 0, "lower end of the fit range (default: start of the data)")
	fs.Float64("xmax", 0, "upper end of the fit range (default: end of the data)")
}

// ParamsFromFlags builds the starting vector from flags registered with
// RegisterParamFlags.
func ParamsFromFlags(fs *flag.FlagSet) (diffraction.Params, error) {
	p := diffraction.Defaults()

	for i := 0; i < diffraction.NumParams; i++ {
		idx := diffraction.Index(i)
		v, err := fs.GetFloat64(idx.Symbol())
		if err != nil {
			return p, err
		}
		p.Set(idx, v)
	}

	fixed, err := fs.GetStringSlice("fix")
	if err != nil {
		return p, err
	}
	for i := 0; i < diffraction.NumParams; i++ {
		p.Release(diffraction.Index(i))
	}
	for _, symbol := range fixed {
		if strings.TrimSpace(symbol) == "" {
			continue
		}
		idx, ok := diffraction.Lookup(symbol)
		if !ok {
			return p, fmt.Errorf("%w: --fix: unknown parameter %q", diffraction.ErrInvalidParameter, symbol)
		}
		p.Fix(idx)
	}

	limits, err := fs.GetStringArray("limit")
	if err != nil {
		return p, err
	}
	for _, l := range limits {
		idx, lo, hi, err := parseLimit(l)
		if err != nil {
			return p, err
		}
		p.Limit(idx, lo, hi)
	}

	return p, p.Validate()
}

// RangeFromFlags returns the fit range, or nil when neither end was given.
// A missing end is left open and falls back to the data span.
func RangeFromFlags(fs *flag.FlagSet) (*fit.Range, error) {
	if !fs.Changed("xmin") && !fs.Changed("xmax") {
		return nil, nil
	}

	rng := &fit.Range{Min: math.Inf(-1), Max: math.Inf(1)}
	if fs.Changed("xmin") {
		lo, err := fs.GetFloat64("xmin")
		if err != nil {
			return nil, err
		}
		rng.Min = lo
	}
	if fs.Changed("xmax") {
		hi, err := fs.GetFloat64("xmax")
		if err != nil {
			return nil, err
		}
		rng.Max = hi
	}
	if rng.Min > rng.Max {
		return nil, fmt.Errorf("%w: fit range [%g, %g] is empty", diffraction.ErrInvalidParameter, rng.Min, rng.Max)
	}
	return rng, nil
}

// parseLimit reads "x0=0.05:0.06".
func parseLimit(s string) (diffraction.Index, float64, float64, error) {
	symbol, bounds, ok := strings.Cut(s, "=")
	if !ok {
		return 0, 0, 0, fmt.Errorf("%w: --limit %q: want symbol=lower:upper", diffraction.ErrInvalidParameter, s)
	}
	idx, ok := diffraction.Lookup(symbol)
	if !ok {
		return 0, 0, 0, fmt.Errorf("%w: --limit: unknown parameter %q", diffraction.ErrInvalidParameter, symbol)
	}
	loText, hiText, ok := strings.Cut(bounds, ":")
	if !ok {
		return 0, 0, 0, fmt.Errorf("%w: --limit %q: want symbol=lower:upper", diffraction.ErrInvalidParameter, s)
	}
	lo, err := strconv.ParseFloat(strings.TrimSpace(loText), 64)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("%w: --limit %q: %v", diffraction.ErrInvalidParameter, s, err)
	}
	hi, err := strconv.ParseFloat(strings.TrimSpace(hiText), 64)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("%w: --limit %q: %v", diffraction.ErrInvalidParameter, s, err)
	}
	return idx, lo, hi, nil
}
