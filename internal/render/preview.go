package render

import (
	"fmt"

	"github.com/Arafatk/glot"

	"github.com/HamletTheHamster/diffraction-fit/internal/dataset"
	"github.com/HamletTheHamster/diffraction-fit/internal/fit"
)

// previewSamples is the resolution of the fitted line in the gnuplot window.
const previewSamples = 500

// Preview opens a persistent gnuplot window with the samples and, when res is
// not nil, the fitted curve. It needs gnuplot on PATH.
func (f Figure) Preview(
	ds *dataset.DataSet,
	label string,
	res *fit.Result,
) error {

	dimensions := 2
	persist := true
	debug := false
	plot, err := glot.NewPlot(dimensions, persist, debug)
	if err != nil {
		return fmt.Errorf("gnuplot preview: %w", err)
	}

	groups := previewData(ds, res)
	if err := plot.AddPointGroup(label, "points", groups[0]); err != nil {
		return fmt.Errorf("gnuplot preview: %w", err)
	}
	if len(groups) > 1 {
		if err := plot.AddPointGroup("fit", "lines", groups[1]); err != nil {
			return fmt.Errorf("gnuplot preview: %w", err)
		}
	}

	title := f.Title
	if title == "" {
		title = "Diffraction pattern"
	}
	if err := plot.SetTitle(title); err != nil {
		return fmt.Errorf("gnuplot preview: %w", err)
	}
	if err := plot.SetXLabel(XLabel); err != nil {
		return fmt.Errorf("gnuplot preview: %w", err)
	}
	if err := plot.SetYLabel(YLabel); err != nil {
		return fmt.Errorf("gnuplot preview: %w", err)
	}
	return nil
}

// previewData returns the point group of the samples and, when res is not
// nil, the fitted line sampled over the fit range.
func previewData(
	ds *dataset.DataSet,
	res *fit.Result,
) (
	[][][]float64,
) {

	groups := [][][]float64{{ds.Positions(), ds.Intensities()}}
	if res == nil {
		return groups
	}

	curve := res.Curve()
	xs := make([]float64, previewSamples)
	ys := make([]float64, previewSamples)
	step := (res.Range.Max - res.Range.Min) / float64(previewSamples-1)
	for i := range xs {
		xs[i] = res.Range.Min + float64(i)*step
		ys[i] = curve(xs[i])
	}
	return append(groups, [][]float64{xs, ys})
}
