// Package render draws diffraction data, fitted curves and model curves with
// gonum/plot, and opens an optional gnuplot preview.
package render

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/font"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/HamletTheHamster/diffraction-fit/internal/dataset"
	"github.com/HamletTheHamster/diffraction-fit/internal/diffraction"
	"github.com/HamletTheHamster/diffraction-fit/internal/fit"
)

const (
	XLabel = "Position, m"
	YLabel = "Luminous intensity, arb. units"

	// curveSamples is the number of points a model curve is drawn with.
	curveSamples = 1000
)

// Formats written by Save.
var Formats = []string{"png", "svg", "pdf"}

// Figure holds the presentation options shared by every plot of a run.
type Figure struct {
	Title string
	Slide bool
}

type errorPoints struct {
	plotter.XYs
	plotter.YErrors
}

// Label is the legend entry of a measured series.
func Label(v diffraction.Values) string {
	return fmt.Sprintf(
		"L= %.4g m, d=%.4g mm",
		v[diffraction.ScreenDistance], v[diffraction.SlitWidth]*1e3,
	)
}

// DataPlot draws the samples with their intensity errors.
func (f Figure) DataPlot(
	ds *dataset.DataSet,
	label string,
) (
	*plot.Plot, error,
) {

	if ds == nil || ds.Len() == 0 {
		return nil, errors.New("render: empty data set")
	}

	xmin, xmax := ds.Span()
	if xmin == xmax {
		xmin, xmax = xmin-1e-3, xmax+1e-3
	}
	ymax := 0.
	for _, s := range ds.Samples {
		ymax = math.Max(ymax, s.Intensity+math.Abs(s.IntensityError))
	}

	p, err := f.prepPlot([]float64{xmin, xmax}, []float64{0, yTop(ymax)})
	if err != nil {
		return nil, err
	}

	pts := buildData(ds.Positions(), ds.Intensities())
	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, err
	}
	scatter.GlyphStyle.Color = palette(0, false)
	scatter.GlyphStyle.Radius = vg.Points(f.size(3, 5))
	scatter.GlyphStyle.Shape = draw.CircleGlyph{}

	bars, err := plotter.NewYErrorBars(errorPoints{
		XYs:     pts,
		YErrors: buildErrors(ds.Errors()),
	})
	if err != nil {
		return nil, err
	}
	bars.LineStyle.Color = palette(0, true)
	bars.LineStyle.Width = vg.Points(f.size(1.5, 2.5))

	p.Add(bars, scatter)
	p.Legend.Add(label, scatter)

	return p, nil
}

// FitPlot draws the samples and the fitted curve over the fit range.
func (f Figure) FitPlot(
	ds *dataset.DataSet,
	label string,
	res *fit.Result,
) (
	*plot.Plot, error,
) {

	p, err := f.DataPlot(ds, label)
	if err != nil {
		return nil, err
	}

	curve := plotter.NewFunction(res.Curve())
	curve.XMin = res.Range.Min
	curve.XMax = res.Range.Max
	curve.Samples = curveSamples
	curve.Color = palette(1, false)
	curve.Width = vg.Points(f.size(3, 5))

	p.Add(curve)
	p.Legend.Add("fit", curve)

	return p, nil
}

// ModelPlot draws the model over x0 +- 0.03 m.
func (f Figure) ModelPlot(
	v diffraction.Values,
) (
	*plot.Plot, error,
) {

	lo, hi := diffraction.DefaultSpan(v)
	model := diffraction.Curve(v)

	ymax := 0.
	step := (hi - lo) / curveSamples
	for x := lo; x <= hi; x += step {
		ymax = math.Max(ymax, model(x))
	}

	p, err := f.prepPlot([]float64{lo, hi}, []float64{0, yTop(ymax)})
	if err != nil {
		return nil, err
	}

	curve := plotter.NewFunction(model)
	curve.XMin = lo
	curve.XMax = hi
	curve.Samples = curveSamples
	curve.Color = palette(1, false)
	curve.Width = vg.Points(f.size(3, 5))

	p.Add(curve)
	p.Legend.Add(Label(v), curve)

	return p, nil
}

// Save writes the plot as <dir>/<name>.png, .svg and .pdf.
func Save(
	p *plot.Plot,
	dir, name string,
) error {

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("make plot folder: %w", err)
	}

	path := filepath.Join(dir, name)
	for _, ext := range Formats {
		if err := p.Save(15*vg.Inch, 15*vg.Inch, path+"."+ext); err != nil {
			return fmt.Errorf("save %s.%s: %w", name, ext, err)
		}
	}
	return nil
}

func (f Figure) prepPlot(
	xrange, yrange []float64,
) (
	*plot.Plot, error,
) {

	p := plot.New()
	p.BackgroundColor = color.RGBA{A: 0}
	p.Title.Text = f.Title
	p.Title.TextStyle.Font.Variant = "Sans"

	p.X.Label.Text = XLabel
	p.X.Label.TextStyle.Font.Variant = "Sans"
	p.X.LineStyle.Width = vg.Points(1.5)
	p.X.Min = xrange[0]
	p.X.Max = xrange[1]
	p.X.Tick.LineStyle.Width = vg.Points(1.5)
	p.X.Tick.Label.Font.Variant = "Sans"

	p.Y.Label.Text = YLabel
	p.Y.Label.TextStyle.Font.Variant = "Sans"
	p.Y.LineStyle.Width = vg.Points(1.5)
	p.Y.Min = yrange[0]
	p.Y.Max = yrange[1]
	p.Y.Tick.LineStyle.Width = vg.Points(1.5)
	p.Y.Tick.Label.Font.Variant = "Sans"

	p.Legend.TextStyle.Font.Variant = "Sans"
	p.Legend.Top = true
	p.Legend.XOffs = vg.Points(-25)
	p.Legend.YOffs = vg.Points(-25)
	p.Legend.Padding = vg.Points(10)
	p.Legend.ThumbnailWidth = vg.Points(50)

	if f.Slide {
		p.Title.TextStyle.Font.Size = 80
		p.Title.Padding = font.Length(80)
		p.X.Label.TextStyle.Font.Size = 56
		p.X.Label.Padding = font.Length(40)
		p.X.Tick.Label.Font.Size = 56
		p.Y.Label.TextStyle.Font.Size = 56
		p.Y.Label.Padding = font.Length(40)
		p.Y.Tick.Label.Font.Size = 56
		p.Legend.TextStyle.Font.Size = 56
	} else {
		p.Title.TextStyle.Font.Size = 50
		p.Title.Padding = font.Length(50)
		p.X.Label.TextStyle.Font.Size = 36
		p.X.Label.Padding = font.Length(20)
		p.X.Tick.Label.Font.Size = 36
		p.Y.Label.TextStyle.Font.Size = 36
		p.Y.Label.Padding = font.Length(20)
		p.Y.Tick.Label.Font.Size = 36
		p.Legend.TextStyle.Font.Size = 28
	}

	// Enclose plot
	top, err := plotter.NewLine(plotter.XYs{
		{X: xrange[0], Y: yrange[1]},
		{X: xrange[1], Y: yrange[1]},
	})
	if err != nil {
		return nil, err
	}
	top.LineStyle.Width = vg.Points(1.5)

	right, err := plotter.NewLine(plotter.XYs{
		{X: xrange[1], Y: yrange[0]},
		{X: xrange[1], Y: yrange[1]},
	})
	if err != nil {
		return nil, err
	}
	right.LineStyle.Width = vg.Points(1.5)

	p.Add(top, right)
	return p, nil
}

func (f Figure) size(paper, slide float64) float64 {
	if f.Slide {
		return slide
	}
	return paper
}

func yTop(ymax float64) float64 {
	if ymax <= 0 || math.IsInf(ymax, 0) || math.IsNaN(ymax) {
		return 1
	}
	return 1.1 * ymax
}

func palette(
	brush int,
	dark bool,
) (
	color.RGBA,
) {

	if dark {
		darkColor := []color.RGBA{
			{R: 27, G: 170, B: 139, A: 255},
			{R: 201, G: 104, B: 146, A: 255},
			{R: 99, G: 124, B: 198, A: 255},
		}
		return darkColor[brush%len(darkColor)]
	}

	col := []color.RGBA{
		{R: 31, G: 211, B: 172, A: 255},
		{R: 255, G: 122, B: 180, A: 255},
		{R: 122, G: 156, B: 255, A: 255},
	}
	return col[brush%len(col)]
}

func buildData(
	xs, ys []float64,
) (
	plotter.XYs,
) {

	xy := make(plotter.XYs, len(xs))
	for i := range xy {
		xy[i].X = xs[i]
		xy[i].Y = ys[i]
	}
	return xy
}

func buildErrors(
	σ []float64,
) (
	plotter.YErrors,
) {

	errs := make(plotter.YErrors, len(σ))
	for i := range errs {
		errs[i].Low, errs[i].High = σ[i], σ[i]
	}
	return errs
}
