package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/HamletTheHamster/diffraction-fit/internal/app"
	"github.com/HamletTheHamster/diffraction-fit/internal/config"
	"github.com/HamletTheHamster/diffraction-fit/internal/dataset"
	"github.com/HamletTheHamster/diffraction-fit/internal/logging"
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: diffraction <command> [options] [files]\n\n")
	fmt.Fprintf(os.Stderr, "Fits single-slit diffraction patterns and plots data, fits and model curves.\n\n")
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  data <file>          plot a data file\n")
	fmt.Fprintf(os.Stderr, "  model                plot the model for the given parameters\n")
	fmt.Fprintf(os.Stderr, "  fit <file>           fit a data file\n")
	fmt.Fprintf(os.Stderr, "  batch                fit every experiment of the registry\n")
	fmt.Fprintf(os.Stderr, "  convert <raw> [out]  rewrite a raw bench file in metres\n")
	fmt.Fprintf(os.Stderr, "\nRun 'diffraction <command> --help' for the options of a command.\n")
	fmt.Fprintf(os.Stderr, "\nExamples:\n")
	fmt.Fprintf(os.Stderr, "  diffraction fit data/monofessura.meters.dat --x0 0.058 --L 0.419 --d 0.15e-3\n")
	fmt.Fprintf(os.Stderr, "  diffraction fit run.dat --fix d,L --limit x0=0.057:0.059 --xmin 0.04 --xmax 0.08\n")
	fmt.Fprintf(os.Stderr, "  diffraction batch --note \"second series\"\n")
	fmt.Fprintf(os.Stderr, "  diffraction convert data/monofessura.dat\n")
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		usage()
		return 2
	}

	cmd := args[0]
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	config.RegisterFlags(fs)

	switch cmd {
	case "data":
		fs.String("label", "", "legend entry of the series (default: file name)")
	case "model":
		app.RegisterParamFlags(fs)
	case "fit":
		app.RegisterParamFlags(fs)
		app.RegisterRangeFlags(fs)
		fs.String("name", "", "name of the fit in reports and plot files (default: file name)")
	case "batch":
	case "convert":
		fs.Float64("scale", dataset.MicrometreStep, "factor applied to the position and position error columns")
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmd)
		usage()
		return 2
	}

	if err := fs.Parse(args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	settings, err := config.Load(fs)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	// convert writes next to its input and leaves no run folder behind
	dir := ""
	if cmd != "convert" {
		dir = logging.RunDir(settings.Plots, settings.Note, time.Now())
	}

	log, done, err := logging.New(settings.Verbose, dir)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer done()

	a := &app.App{
		Settings: settings,
		Log:      log,
		Out:      os.Stdout,
		Dir:      dir,
	}
	log.Debugw("run", "command", cmd, "folder", dir, "weighting", settings.Weighting, "iterations", settings.Iterations)

	if err := dispatch(a, cmd, fs); err != nil {
		log.Errorw("command failed", "command", cmd, "error", err)
		return 1
	}
	return 0
}

func dispatch(a *app.App, cmd string, fs *flag.FlagSet) error {
	switch cmd {
	case "data":
		if fs.NArg() != 1 {
			return errors.New("data: want exactly one data file")
		}
		label, _ := fs.GetString("label")
		_, err := a.Data(fs.Arg(0), label)
		return err

	case "model":
		params, err := app.ParamsFromFlags(fs)
		if err != nil {
			return err
		}
		return a.Model(params.Values())

	case "fit":
		if fs.NArg() != 1 {
			return errors.New("fit: want exactly one data file")
		}
		params, err := app.ParamsFromFlags(fs)
		if err != nil {
			return err
		}
		rng, err := app.RangeFromFlags(fs)
		if err != nil {
			return err
		}
		name, _ := fs.GetString("name")
		_, err = a.Fit(name, fs.Arg(0), params, rng)
		return err

	case "batch":
		reg, err := config.LoadRegistry(a.Settings.Registry)
		if err != nil {
			return err
		}
		_, err = a.Batch(reg)
		return err

	case "convert":
		if fs.NArg() < 1 || fs.NArg() > 2 {
			return errors.New("convert: want <raw> [out]")
		}
		in := fs.Arg(0)
		out := fs.Arg(1)
		if out == "" {
			out = dataset.MetresName(in)
		}
		scale, _ := fs.GetFloat64("scale")
		return a.Convert(in, out, scale)
	}
	return fmt.Errorf("unknown command %q", cmd)
}
