// Package app runs the diffraction commands: plotting data and model curves,
// fitting one data file, fitting the experiment registry, and converting raw
// bench files.
package app

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/HamletTheHamster/diffraction-fit/internal/config"
	"github.com/HamletTheHamster/diffraction-fit/internal/dataset"
	"github.com/HamletTheHamster/diffraction-fit/internal/diffraction"
	"github.com/HamletTheHamster/diffraction-fit/internal/fit"
	"github.com/HamletTheHamster/diffraction-fit/internal/render"
	"github.com/HamletTheHamster/diffraction-fit/internal/report"
)

const (
	// BatchGIF is the animation of the batch fit figures.
	BatchGIF = "batch.gif"

	gifDelay = 150
)

// ErrBatchFailed is returned by Batch when at least one experiment failed.
var ErrBatchFailed = errors.New("batch: some experiments failed")

// App carries the settings, logger and output folder of one run.
type App struct {
	Settings *config.Settings
	Log      *zap.SugaredLogger
	Out      io.Writer
	Dir      string
}

func (a *App) figure(title string) render.Figure {
	return render.Figure{Title: title, Slide: a.Settings.Slide}
}

func (a *App) options(rng *fit.Range) fit.Options {
	return fit.Options{
		Range:      rng,
		Weighting:  a.Settings.Weighting,
		Iterations: a.Settings.Iterations,
		Logger:     a.Log,
	}
}

// Data loads a data file and saves its plot as <name>-data.
func (a *App) Data(path string, label string) (*dataset.DataSet, error) {
	ds, err := dataset.Load(path)
	if err != nil {
		return nil, err
	}
	a.Log.Infow("data loaded", "file", path, "samples", ds.Len())
	if label == "" {
		label = ds.Name
	}

	fig := a.figure(ds.Name)
	p, err := fig.DataPlot(ds, label)
	if err != nil {
		return nil, err
	}
	if err := render.Save(p, a.Dir, ds.Name+"-data"); err != nil {
		return nil, err
	}
	a.preview(fig, ds, label, nil)
	return ds, nil
}

// Model saves the model curve for v as "model".
func (a *App) Model(v diffraction.Values) error {
	p, err := a.figure("Diffraction model").ModelPlot(v)
	if err != nil {
		return err
	}
	if err := render.Save(p, a.Dir, "model"); err != nil {
		return err
	}
	a.Log.Infow("model plotted", "params", render.Label(v))
	return nil
}

// Fit loads a data file, fits it and, on success, prints the report and
// saves the fit plot as <name>-fit. Nothing is plotted for a failed fit.
func (a *App) Fit(
	name, path string,
	params diffraction.Params,
	rng *fit.Range,
) (
	*fit.Result, error,
) {

	ds, err := dataset.Load(path)
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = ds.Name
	}

	res, err := fit.Fit(ds, diffraction.Intensity, params, a.options(rng))
	if err != nil {
		return nil, fmt.Errorf("fit %s: %w", name, err)
	}

	fmt.Fprint(a.Out, report.Fit(name, res))
	a.Log.Infow(report.Line(name, res))

	label := render.Label(res.Params.Values())
	fig := a.figure(name)
	p, err := fig.FitPlot(ds, label, res)
	if err != nil {
		return nil, err
	}
	if err := render.Save(p, a.Dir, name+"-fit"); err != nil {
		return nil, err
	}
	a.preview(fig, ds, label, res)
	return res, nil
}

// Batch fits every experiment of the registry in order. A failed experiment
// is logged and skipped, or ends the run when Settings.Abort is set.
func (a *App) Batch(reg *config.Registry) ([]report.Outcome, error) {
	var outcomes []report.Outcome
	failed := false

	for _, e := range reg.Experiments {
		o := report.Outcome{Name: e.Name}
		o.Result, o.Err = a.experiment(e)
		outcomes = append(outcomes, o)

		if o.Err != nil {
			failed = true
			a.Log.Warnw("experiment failed", "experiment", e.Name, "error", o.Err)
			if a.Settings.Abort {
				break
			}
		}
	}

	fmt.Fprint(a.Out, report.Summary(outcomes))

	if a.Settings.GIF {
		var frames []string
		for _, o := range outcomes {
			if o.Err == nil {
				frames = append(frames, filepath.Join(a.Dir, o.Name+"-fit.png"))
			}
		}
		if len(frames) > 0 {
			if err := render.Animate(frames, filepath.Join(a.Dir, BatchGIF), gifDelay); err != nil {
				a.Log.Warnw("batch animation failed", "error", err)
			}
		}
	}

	if failed {
		return outcomes, ErrBatchFailed
	}
	return outcomes, nil
}

func (a *App) experiment(e config.Experiment) (*fit.Result, error) {
	params, err := e.Parameters()
	if err != nil {
		return nil, err
	}
	rng, err := e.FitRange()
	if err != nil {
		return nil, err
	}
	return a.Fit(e.Name, e.File, params, rng)
}

// Convert rewrites a raw bench file in metres.
func (a *App) Convert(in, out string, scale float64) error {
	n, err := dataset.ConvertFile(in, out, scale)
	if err != nil {
		return err
	}
	a.Log.Infow("converted", "from", in, "to", out, "rows", n, "scale", scale)
	return nil
}

func (a *App) preview(
	fig render.Figure,
	ds *dataset.DataSet,
	label string,
	res *fit.Result,
) {

	if !a.Settings.Preview {
		return
	}
	if err := fig.Preview(ds, label, res); err != nil {
		a.Log.Warnw("preview unavailable", "error", err)
	}
}
