package dataset

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// MicrometreStep converts the stage readout of the raw lab files to metres.
const MicrometreStep = 1e-6

// rawRow is one parsed line of a raw lab file. The intensity keeps its
// original text.
type rawRow struct {
	position  float64
	intensity string
	errX      float64
}

// Convert rewrites raw tab separated lab data into the three column format
// Load expects. Position and the third column are multiplied by scale; the
// intensity column is copied verbatim. Nothing is written to w unless the
// whole input parses.
func Convert(
	r io.Reader,
	w io.Writer,
	name string,
	scale float64,
) (
	int, error,
) {

	rows, err := parseRaw(r, name)
	if err != nil {
		return 0, err
	}
	if err := writeRows(w, rows, scale); err != nil {
		return 0, fmt.Errorf("write converted %s: %w", name, err)
	}
	return len(rows), nil
}

// ConvertFile converts in to out. out is only created once in is parsed
// successfully.
func ConvertFile(
	in, out string,
	scale float64,
) (
	int, error,
) {

	f, err := os.Open(in)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, fmt.Errorf("%w: %s", ErrFileNotFound, in)
		}
		return 0, fmt.Errorf("open raw data: %w", err)
	}
	defer f.Close()

	rows, err := parseRaw(f, in)
	if err != nil {
		return 0, err
	}

	dst, err := os.Create(out)
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", out, err)
	}
	if err := writeRows(dst, rows, scale); err != nil {
		dst.Close()
		return 0, fmt.Errorf("write %s: %w", out, err)
	}
	if err := dst.Close(); err != nil {
		return 0, fmt.Errorf("write %s: %w", out, err)
	}
	return len(rows), nil
}

func parseRaw(r io.Reader, name string) ([]rawRow, error) {
	var rows []rawRow

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(text) == "" {
			continue
		}

		columns := strings.Split(text, "\t")
		if len(columns) < 3 {
			return nil, &FormatError{
				Name: name, Line: line, Text: text,
				Reason: fmt.Sprintf("expected 3 tab separated columns, found %d", len(columns)),
			}
		}

		x, err := strconv.ParseFloat(strings.TrimSpace(columns[0]), 64)
		if err != nil {
			return nil, &FormatError{Name: name, Line: line, Text: text, Reason: "position is not a number"}
		}
		intensity := strings.TrimSpace(columns[1])
		if _, err := strconv.ParseFloat(intensity, 64); err != nil {
			return nil, &FormatError{Name: name, Line: line, Text: text, Reason: "intensity is not a number"}
		}
		errX, err := strconv.ParseFloat(strings.TrimSpace(columns[2]), 64)
		if err != nil {
			return nil, &FormatError{Name: name, Line: line, Text: text, Reason: "error column is not a number"}
		}

		rows = append(rows, rawRow{position: x, intensity: intensity, errX: errX})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return rows, nil
}

func writeRows(w io.Writer, rows []rawRow, scale float64) error {
	bw := bufio.NewWriter(w)
	for _, row := range rows {
		if _, err := fmt.Fprintf(bw, "%9.9f\t%s\t%9.9f\n", row.position*scale, row.intensity, row.errX*scale); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// MetresName is the default output path for a converted file:
// data/run.dat becomes data/run.meters.dat.
func MetresName(in string) string {
	return strings.TrimSuffix(in, filepath.Ext(in)) + ".meters.dat"
}
