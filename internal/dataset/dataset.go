// Package dataset reads intensity-vs-position measurements from plain text
// files of three whitespace separated columns: position, intensity and
// intensity error.
package dataset

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

var (
	// ErrFileNotFound is returned when the data file does not exist.
	ErrFileNotFound = errors.New("data file not found")
	// ErrDataFormat is the root of every parse failure.
	ErrDataFormat = errors.New("malformed data")
)

// FormatError locates a parse failure.
type FormatError struct {
	Name   string
	Line   int
	Text   string
	Reason string
}

func (e *FormatError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("%s: %s: %s", ErrDataFormat, e.Name, e.Reason)
	}
	return fmt.Sprintf("%s: %s:%d: %s (%q)", ErrDataFormat, e.Name, e.Line, e.Reason, e.Text)
}

func (e *FormatError) Unwrap() error { return ErrDataFormat }

// Sample is one measured point.
type Sample struct {
	Position       float64
	Intensity      float64
	IntensityError float64
}

// DataSet is an ordered series of samples, in file order.
type DataSet struct {
	Name    string
	Samples []Sample
}

// Load reads the file at path. The file is fully consumed and closed before
// returning.
func Load(
	path string,
) (
	*DataSet, error,
) {

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("open data file: %w", err)
	}
	defer f.Close()

	ds, err := Read(f, path)
	if err != nil {
		return nil, err
	}
	ds.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return ds, nil
}

// Read parses samples from r. Blank lines and lines starting with '#' are
// skipped; every other line must hold exactly three numbers.
func Read(
	r io.Reader,
	name string,
) (
	*DataSet, error,
) {

	var samples []Sample

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		columns := strings.Fields(text)
		if len(columns) != 3 {
			return nil, &FormatError{
				Name: name, Line: line, Text: text,
				Reason: fmt.Sprintf("expected 3 columns, found %d", len(columns)),
			}
		}

		var values [3]float64
		for i, column := range columns {
			v, err := strconv.ParseFloat(column, 64)
			if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, &FormatError{
					Name: name, Line: line, Text: text,
					Reason: fmt.Sprintf("column %d is not a finite number", i+1),
				}
			}
			values[i] = v
		}

		samples = append(samples, Sample{
			Position:       values[0],
			Intensity:      values[1],
			IntensityError: values[2],
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	if len(samples) == 0 {
		return nil, &FormatError{Name: name, Reason: "no samples"}
	}

	return &DataSet{Name: name, Samples: samples}, nil
}

// Len is the number of samples.
func (ds *DataSet) Len() int { return len(ds.Samples) }

// Span returns the smallest and largest position.
func (ds *DataSet) Span() (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, s := range ds.Samples {
		lo = math.Min(lo, s.Position)
		hi = math.Max(hi, s.Position)
	}
	return lo, hi
}

// Within returns the samples with lo <= position <= hi, in order. The
// returned slice does not alias the data set.
func (ds *DataSet) Within(lo, hi float64) []Sample {
	var in []Sample
	for _, s := range ds.Samples {
		if s.Position >= lo && s.Position <= hi {
			in = append(in, s)
		}
	}
	return in
}

// Positions, Intensities and Errors return the columns for plotting.
func (ds *DataSet) Positions() []float64 {
	return column(ds.Samples, func(s Sample) float64 { return s.Position })
}

func (ds *DataSet) Intensities() []float64 {
	return column(ds.Samples, func(s Sample) float64 { return s.Intensity })
}

func (ds *DataSet) Errors() []float64 {
	return column(ds.Samples, func(s Sample) float64 { return s.IntensityError })
}

func column(samples []Sample, get func(Sample) float64) []float64 {
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = get(s)
	}
	return out
}
