package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/HamletTheHamster/diffraction-fit/internal/diffraction"
	"github.com/HamletTheHamster/diffraction-fit/internal/fit"
)

//go:embed registry.yaml
var defaultRegistry []byte

// Experiment is one measurement series: its data file and the starting
// geometry of the fit.
type Experiment struct {
	Name   string               `yaml:"name"`
	File   string               `yaml:"file"`
	Params map[string]float64   `yaml:"params"`
	Fixed  []string             `yaml:"fixed"`
	Limits map[string][]float64 `yaml:"limits,omitempty"`
	Range  []float64            `yaml:"range,omitempty"`
}

// Registry lists the experiments a batch run goes through, in order.
type Registry struct {
	Experiments []Experiment `yaml:"experiments"`
}

// DefaultRegistry returns the three series of the slit experiment.
func DefaultRegistry() (*Registry, error) {
	return ReadRegistry(bytes.NewReader(defaultRegistry))
}

// LoadRegistry reads a registry file. An empty path selects the default
// registry.
func LoadRegistry(path string) (*Registry, error) {
	if path == "" {
		return DefaultRegistry()
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("registry %s not found: %w", path, err)
		}
		return nil, fmt.Errorf("open registry: %w", err)
	}
	defer f.Close()

	return ReadRegistry(f)
}

// ReadRegistry decodes and validates a registry. Unknown keys are rejected.
func ReadRegistry(r io.Reader) (*Registry, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var reg Registry
	if err := dec.Decode(&reg); err != nil {
		return nil, fmt.Errorf("decode registry: %w", err)
	}

	seen := make(map[string]bool)
	for _, e := range reg.Experiments {
		if e.Name == "" {
			return nil, errors.New("registry: experiment without a name")
		}
		if seen[e.Name] {
			return nil, fmt.Errorf("registry: duplicate experiment %q", e.Name)
		}
		seen[e.Name] = true
		if e.File == "" {
			return nil, fmt.Errorf("registry: experiment %q has no data file", e.Name)
		}
		if _, err := e.Parameters(); err != nil {
			return nil, fmt.Errorf("registry: experiment %q: %w", e.Name, err)
		}
		if _, err := e.FitRange(); err != nil {
			return nil, fmt.Errorf("registry: experiment %q: %w", e.Name, err)
		}
	}
	return &reg, nil
}

// Lookup finds an experiment by name.
func (r *Registry) Lookup(name string) (Experiment, bool) {
	for _, e := range r.Experiments {
		if e.Name == name {
			return e, true
		}
	}
	return Experiment{}, false
}

// Parameters builds the starting vector: defaults, overridden by the
// experiment's values. When Fixed is given it replaces the default fixed set.
func (e Experiment) Parameters() (diffraction.Params, error) {
	p := diffraction.Defaults()

	for symbol, v := range e.Params {
		idx, ok := diffraction.Lookup(symbol)
		if !ok {
			return p, fmt.Errorf("%w: unknown parameter %q", diffraction.ErrInvalidParameter, symbol)
		}
		p.Set(idx, v)
	}

	if e.Fixed != nil {
		for i := 0; i < diffraction.NumParams; i++ {
			p.Release(diffraction.Index(i))
		}
		for _, symbol := range e.Fixed {
			idx, ok := diffraction.Lookup(symbol)
			if !ok {
				return p, fmt.Errorf("%w: unknown parameter %q", diffraction.ErrInvalidParameter, symbol)
			}
			p.Fix(idx)
		}
	}

	for symbol, bounds := range e.Limits {
		idx, ok := diffraction.Lookup(symbol)
		if !ok {
			return p, fmt.Errorf("%w: unknown parameter %q", diffraction.ErrInvalidParameter, symbol)
		}
		if len(bounds) != 2 {
			return p, fmt.Errorf("%w: limits for %s need [lower, upper]", diffraction.ErrInvalidParameter, symbol)
		}
		p.Limit(idx, bounds[0], bounds[1])
	}

	return p, p.Validate()
}

// FitRange returns the configured range, or nil for the data span.
func (e Experiment) FitRange() (*fit.Range, error) {
	if e.Range == nil {
		return nil, nil
	}
	if len(e.Range) != 2 || e.Range[0] > e.Range[1] {
		return nil, fmt.Errorf("%w: range must be [min, max], got %v", diffraction.ErrInvalidParameter, e.Range)
	}
	return &fit.Range{Min: e.Range[0], Max: e.Range[1]}, nil
}
