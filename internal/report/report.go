// Package report formats fit results for the terminal and the run log.
package report

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/HamletTheHamster/diffraction-fit/internal/diffraction"
	"github.com/HamletTheHamster/diffraction-fit/internal/fit"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	failStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("208")) // Orange
)

// Outcome is one experiment of a batch run. Err is set when the fit failed.
type Outcome struct {
	Name   string
	Result *fit.Result
	Err    error
}

// Fit renders the parameter table and goodness of fit of one result.
func Fit(name string, res *fit.Result) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("parameter", "symbol", "value", "error", "")

	for i := 0; i < diffraction.NumParams; i++ {
		idx := diffraction.Index(i)
		p := res.Params[idx]

		state, sigma := "free", fmt.Sprintf("%.3g", res.Errors[idx])
		if p.Fixed {
			state, sigma = "fixed", "-"
		} else if p.Bounded {
			state = fmt.Sprintf("[%g, %g]", p.Lower, p.Upper)
		}
		t.Row(idx.Name(), idx.Symbol(), fmt.Sprintf("%.6g", p.Value), sigma, state)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(name))
	b.WriteString("\n")
	b.WriteString(t.String())
	b.WriteString("\n")
	fmt.Fprintf(&b, "chi2 = %.4g  ndf = %d  chi2/ndf = %.4g  (%d points in [%g, %g], weighting %s)\n",
		res.ChiSquare, res.NDF, res.ReducedChiSquare(),
		res.Points, res.Range.Min, res.Range.Max, res.Weighting,
	)
	return b.String()
}

// Line is a one-line summary for the run log.
func Line(name string, res *fit.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s:", name)
	for i := 0; i < diffraction.NumParams; i++ {
		idx := diffraction.Index(i)
		p := res.Params[idx]
		if p.Fixed {
			fmt.Fprintf(&b, " %s=%.6g (fixed)", idx.Symbol(), p.Value)
			continue
		}
		fmt.Fprintf(&b, " %s=%.6g±%.3g", idx.Symbol(), p.Value, res.Errors[idx])
	}
	fmt.Fprintf(&b, " chi2=%.4g ndf=%d chi2/ndf=%.4g", res.ChiSquare, res.NDF, res.ReducedChiSquare())
	return b.String()
}

// Summary renders one row per batch experiment.
func Summary(outcomes []Outcome) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("experiment", "chi2/ndf", "ndf", "status")

	failed := 0
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
			t.Row(o.Name, "-", "-", failStyle.Render(o.Err.Error()))
			continue
		}
		t.Row(o.Name, fmt.Sprintf("%.4g", o.Result.ReducedChiSquare()), fmt.Sprint(o.Result.NDF), "ok")
	}

	return fmt.Sprintf("%s\n%d of %d experiments fitted\n", t.String(), len(outcomes)-failed, len(outcomes))
}
