package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	flag "github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HamletTheHamster/diffraction-fit/internal/diffraction"
	"github.com/HamletTheHamster/diffraction-fit/internal/fit"
)

func TestLoad_Defaults(t *testing.T) {
	s, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "plots", s.Plots)
	assert.Equal(t, fit.WeightErrors, s.Weighting)
	assert.Equal(t, 1000, s.Iterations)
	assert.Empty(t, s.Registry)
	assert.False(t, s.Preview)
	assert.False(t, s.Abort)
	assert.False(t, s.GIF)
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "settings.yaml")
	require.NoError(t, os.WriteFile(file, []byte("weighting: none\niterations: 50\nplots: from-file\n"), 0644))

	t.Setenv("DIFFRACTION_ITERATIONS", "75")

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"--config", file, "--plots", "from-flag"}))

	s, err := Load(fs)
	require.NoError(t, err)

	assert.Equal(t, fit.WeightNone, s.Weighting, "file beats default")
	assert.Equal(t, 75, s.Iterations, "env beats file")
	assert.Equal(t, "from-flag", s.Plots, "flag beats file")
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("DIFFRACTION_WEIGHTING", "poisson")
	_, err := Load(nil)
	assert.Error(t, err)

	t.Setenv("DIFFRACTION_WEIGHTING", "errors")
	t.Setenv("DIFFRACTION_ITERATIONS", "0")
	_, err = Load(nil)
	assert.Error(t, err)

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")}))
	_, err = Load(fs)
	assert.Error(t, err)
}

func TestDefaultRegistry(t *testing.T) {
	reg, err := DefaultRegistry()
	require.NoError(t, err)

	var names []string
	for _, e := range reg.Experiments {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"monofessura", "doppia_fessura", "doppia_fessura_2"}, names)

	mono, ok := reg.Lookup("monofessura")
	require.True(t, ok)
	assert.Equal(t, "./data/monofessura.meters.dat", mono.File)

	p, err := mono.Parameters()
	require.NoError(t, err)
	assert.Equal(t, 0.15e-3, p[diffraction.SlitWidth].Value)
	assert.Equal(t, 0.058, p[diffraction.Shift].Value)
	assert.Equal(t, 0.419, p[diffraction.ScreenDistance].Value)
	assert.Equal(t, []diffraction.Index{diffraction.Shift, diffraction.Wavelength, diffraction.Norm, diffraction.Background}, p.Free())

	rng, err := mono.FitRange()
	require.NoError(t, err)
	assert.Nil(t, rng)

	_, ok = reg.Lookup("triple")
	assert.False(t, ok)
}

func TestReadRegistry(t *testing.T) {
	in := `
experiments:
  - name: narrow
    file: narrow.dat
    params: {d: 2.0e-4, x0: 0.06, norm: 300}
    fixed: [d, L, lambda]
    limits:
      x0: [0.059, 0.061]
    range: [0.05, 0.07]
`
	reg, err := ReadRegistry(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, reg.Experiments, 1)

	e := reg.Experiments[0]
	p, err := e.Parameters()
	require.NoError(t, err)
	assert.Equal(t, 2.0e-4, p[diffraction.SlitWidth].Value)
	assert.Equal(t, 632.8e-9, p[diffraction.Wavelength].Value, "defaults fill the gaps")
	assert.True(t, p[diffraction.Wavelength].Fixed)
	assert.True(t, p[diffraction.Shift].Bounded)
	assert.Equal(t, 0.059, p[diffraction.Shift].Lower)

	rng, err := e.FitRange()
	require.NoError(t, err)
	assert.Equal(t, &fit.Range{Min: 0.05, Max: 0.07}, rng)
}

func TestReadRegistry_Errors(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		invalid bool
	}{
		{name: "unknown key", in: "experiments:\n  - name: a\n    file: a.dat\n    colour: red\n"},
		{name: "missing name", in: "experiments:\n  - file: a.dat\n"},
		{name: "missing file", in: "experiments:\n  - name: a\n"},
		{name: "duplicate", in: "experiments:\n  - {name: a, file: a.dat}\n  - {name: a, file: b.dat}\n"},
		{name: "unknown parameter", in: "experiments:\n  - {name: a, file: a.dat, params: {sigma: 1}}\n", invalid: true},
		{name: "zero wavelength", in: "experiments:\n  - {name: a, file: a.dat, params: {lambda: 0}}\n", invalid: true},
		{name: "bad limits", in: "experiments:\n  - {name: a, file: a.dat, limits: {x0: [1]}}\n", invalid: true},
		{name: "inverted range", in: "experiments:\n  - {name: a, file: a.dat, range: [2, 1]}\n", invalid: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadRegistry(strings.NewReader(tt.in))
			require.Error(t, err)
			assert.Equal(t, tt.invalid, errors.Is(err, diffraction.ErrInvalidParameter))
		})
	}
}

func TestLoadRegistry(t *testing.T) {
	reg, err := LoadRegistry("")
	require.NoError(t, err)
	assert.Len(t, reg.Experiments, 3)

	path := filepath.Join(t.TempDir(), "registry.yaml")
	require.NoError(t, os.WriteFile(path, []byte("experiments:\n  - {name: a, file: a.dat}\n"), 0644))
	reg, err = LoadRegistry(path)
	require.NoError(t, err)
	assert.Len(t, reg.Experiments, 1)

	_, err = LoadRegistry(filepath.Join(t.TempDir(), "none.yaml"))
	assert.Error(t, err)
}
