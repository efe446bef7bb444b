package dataset

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeFile(t, "monofessura.meters.dat",
		"0.050000000\t0.9\t0.01\n"+
			"0.057000000\t1.0\t0.01\n"+
			"  0.06   0.85 1e-2  \n")

	ds, err := Load(path)
	require.NoError(t, err)

	want := []Sample{
		{Position: 0.05, Intensity: 0.9, IntensityError: 0.01},
		{Position: 0.057, Intensity: 1.0, IntensityError: 0.01},
		{Position: 0.06, Intensity: 0.85, IntensityError: 0.01},
	}
	if diff := cmp.Diff(want, ds.Samples); diff != "" {
		t.Errorf("samples mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 3, ds.Len())
	assert.Equal(t, "monofessura.meters", ds.Name)
}

func TestReadSkipsBlankAndCommentLines(t *testing.T) {
	in := "# position intensity error\n\n1 2 3\n   \n# trailing\n4 5 6\n"
	ds, err := Read(strings.NewReader(in), "inline")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 4}, ds.Positions())
	assert.Equal(t, []float64{2, 5}, ds.Intensities())
	assert.Equal(t, []float64{3, 6}, ds.Errors())
}

func TestReadMalformed(t *testing.T) {
	tests := []struct {
		name string
		in   string
		line int
	}{
		{name: "two columns", in: "1 2 3\n4 5\n", line: 2},
		{name: "four columns", in: "1 2 3 4\n", line: 1},
		{name: "not a number", in: "1 2 3\n1 two 3\n", line: 2},
		{name: "nan", in: "NaN 2 3\n", line: 1},
		{name: "empty", in: "\n# only comments\n", line: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds, err := Read(strings.NewReader(tt.in), "bad.dat")
			require.Error(t, err)
			assert.Nil(t, ds)
			assert.True(t, errors.Is(err, ErrDataFormat))

			var fe *FormatError
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, tt.line, fe.Line)
			assert.Equal(t, "bad.dat", fe.Name)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	ds, err := Load(filepath.Join(t.TempDir(), "missing.dat"))
	require.Error(t, err)
	assert.Nil(t, ds)
	assert.True(t, errors.Is(err, ErrFileNotFound))
	assert.False(t, errors.Is(err, ErrDataFormat))
}

func TestSpanAndWithin(t *testing.T) {
	ds := &DataSet{Samples: []Sample{
		{Position: 0.06}, {Position: 0.05}, {Position: 0.057}, {Position: 0.07},
	}}
	lo, hi := ds.Span()
	assert.Equal(t, 0.05, lo)
	assert.Equal(t, 0.07, hi)

	in := ds.Within(0.05, 0.06)
	assert.Equal(t, []Sample{{Position: 0.06}, {Position: 0.05}, {Position: 0.057}}, in)

	in[0].Position = 1
	assert.Equal(t, 0.06, ds.Samples[0].Position)

	assert.Empty(t, ds.Within(0.08, 0.09))
}

func TestConvert(t *testing.T) {
	raw := "58000\t0.801\t15\n58050\t0.799\t15\r\n\n"
	var out strings.Builder

	n, err := Convert(strings.NewReader(raw), &out, "mono", MicrometreStep)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "0.058000000\t0.801\t0.000015000\n0.058050000\t0.799\t0.000015000\n", out.String())

	ds, err := Read(strings.NewReader(out.String()), "mono")
	require.NoError(t, err)
	assert.InDelta(t, 0.05805, ds.Samples[1].Position, 1e-12)
}

func TestConvertWritesNothingOnError(t *testing.T) {
	var out strings.Builder
	_, err := Convert(strings.NewReader("58000\t0.801\t15\n58050\tbright\t15\n"), &out, "mono", MicrometreStep)

	var fe *FormatError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, 2, fe.Line)
	assert.Empty(t, out.String())
}

func TestConvertFile(t *testing.T) {
	in := writeFile(t, "raw.dat", "1000\t2\t3\n")
	out := filepath.Join(t.TempDir(), "raw.meters.dat")

	n, err := ConvertFile(in, out, MicrometreStep)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	ds, err := Load(out)
	require.NoError(t, err)
	assert.InDelta(t, 1e-3, ds.Samples[0].Position, 1e-12)
	assert.Equal(t, 2.0, ds.Samples[0].Intensity)

	bad := writeFile(t, "bad.dat", "1000\t2\t3\n1000 2 3\n")
	never := filepath.Join(t.TempDir(), "never.dat")
	_, err = ConvertFile(bad, never, MicrometreStep)
	assert.True(t, errors.Is(err, ErrDataFormat))
	assert.NoFileExists(t, never)

	_, err = ConvertFile(filepath.Join(t.TempDir(), "nope.dat"), out, MicrometreStep)
	assert.True(t, errors.Is(err, ErrFileNotFound))
}

func TestMetresName(t *testing.T) {
	assert.Equal(t, filepath.Join("data", "monofessura.meters.dat"), MetresName(filepath.Join("data", "monofessura.dat")))
	assert.Equal(t, "run.meters.dat", MetresName("run"))
}
