// Package fit estimates the free parameters of the diffraction model against
// a data set with Levenberg-Marquardt least squares.
package fit

import (
	"fmt"
	"math"

	"github.com/maorshutman/lm"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"github.com/HamletTheHamster/diffraction-fit/internal/dataset"
	"github.com/HamletTheHamster/diffraction-fit/internal/diffraction"
)

// Model predicts the intensity at x.
type Model func(x float64, v diffraction.Values) float64

// Result is the outcome of one fit. Fixed parameters keep their input value
// and report a zero error.
type Result struct {
	Params    diffraction.Params
	Errors    [diffraction.NumParams]float64
	ChiSquare float64
	NDF       int
	Points    int
	Range     Range
	Weighting Weighting
	Status    optimize.Status

	model Model
}

// ReducedChiSquare is ChiSquare / NDF.
func (r *Result) ReducedChiSquare() float64 {
	return r.ChiSquare / float64(r.NDF)
}

// Curve binds the model to the fitted values.
func (r *Result) Curve() func(float64) float64 {
	v := r.Params.Values()
	return func(x float64) float64 {
		return r.model(x, v)
	}
}

// maxCondition bounds the condition number of J^T J in scaled coordinates
// before the covariance is considered singular.
const maxCondition = 1e14

// Fit runs the solver. Neither ds nor params are modified.
func Fit(
	ds *dataset.DataSet,
	model Model,
	params diffraction.Params,
	opts Options,
) (
	*Result, error,
) {

	log := opts.logger()

	if err := params.Validate(); err != nil {
		return nil, err
	}
	if ds == nil || ds.Len() == 0 {
		return nil, fmt.Errorf("%w: empty data set", ErrInsufficientData)
	}

	rng := Range{}
	rng.Min, rng.Max = ds.Span()
	if opts.Range != nil {
		lo, hi := rng.Min, rng.Max
		rng = *opts.Range
		if math.IsInf(rng.Min, -1) {
			rng.Min = lo
		}
		if math.IsInf(rng.Max, 1) {
			rng.Max = hi
		}
	}
	if math.IsNaN(rng.Min) || math.IsNaN(rng.Max) || rng.Min > rng.Max {
		return nil, fmt.Errorf("%w: fit range [%g, %g] is empty", diffraction.ErrInvalidParameter, rng.Min, rng.Max)
	}

	samples := ds.Within(rng.Min, rng.Max)
	free := params.Free()
	ndf := len(samples) - len(free)
	if ndf <= 0 {
		return nil, fmt.Errorf(
			"%w: %d samples in [%g, %g] for %d free parameters",
			ErrInsufficientData, len(samples), rng.Min, rng.Max, len(free),
		)
	}

	res := &Result{
		Params:    params,
		NDF:       ndf,
		Points:    len(samples),
		Range:     rng,
		Weighting: opts.Weighting,
		Status:    optimize.Success,
		model:     model,
	}

	r := make([]float64, len(samples))

	if len(free) == 0 {
		residuals(r, samples, model, params.Values(), opts.Weighting)
		res.ChiSquare = floats.Dot(r, r)
		log.Debugw("all parameters fixed, evaluated chi-square only", "dataset", ds.Name, "chi2", res.ChiSquare)
		return res, nil
	}

	tr := newTransform(params, free)

	f := func(dst, u []float64) {
		residuals(dst, samples, model, tr.external(u), opts.Weighting)
	}

	jacobian := lm.NumJac{Func: f}

	toBeSolved := lm.LMProblem{
		Dim:        len(free),
		Size:       len(samples),
		Func:       f,
		Jac:        jacobian.Jac,
		InitParams: tr.internal(params),
		Tau:        1e-6,
		Eps1:       1e-8,
		Eps2:       1e-8,
	}

	results, err := solve(toBeSolved, &lm.Settings{Iterations: opts.iterations(), ObjectiveTol: 1e-16})
	if err != nil {
		return nil, err
	}
	if results.Status == optimize.IterationLimit {
		return nil, &ConvergenceError{
			Status: results.Status,
			Reason: fmt.Sprintf("iteration budget of %d exhausted", opts.iterations()),
		}
	}
	res.Status = results.Status

	v := tr.external(results.X)
	for _, idx := range free {
		if math.IsNaN(v[idx]) || math.IsInf(v[idx], 0) {
			return nil, &ConvergenceError{
				Status: optimize.Failure,
				Reason: fmt.Sprintf("%s is not finite", idx.Name()),
			}
		}
		res.Params[idx].Value = v[idx]
	}

	residuals(r, samples, model, v, opts.Weighting)
	res.ChiSquare = floats.Dot(r, r)

	sigma, err := standardErrors(samples, model, v, free, opts.Weighting)
	if err != nil {
		return nil, err
	}
	scale := 1.0
	if opts.Weighting == WeightNone {
		scale = math.Sqrt(res.ChiSquare / float64(ndf))
	}
	for j, idx := range free {
		res.Errors[idx] = sigma[j] * scale
	}

	log.Debugw("fit converged",
		"dataset", ds.Name,
		"status", res.Status.String(),
		"chi2", res.ChiSquare,
		"ndf", res.NDF,
		"points", res.Points,
	)

	return res, nil
}

// solve turns the solver's panic on a singular damped normal matrix into an
// error.
func solve(
	problem lm.LMProblem,
	settings *lm.Settings,
) (
	results *lm.Result, err error,
) {

	defer func() {
		if rec := recover(); rec != nil {
			results = nil
			err = &ConvergenceError{
				Status: optimize.Failure,
				Reason: fmt.Sprintf("solver stopped: %v", rec),
			}
		}
	}()

	results, err = lm.LM(problem, settings)
	if err != nil {
		return nil, &ConvergenceError{Status: optimize.Failure, Reason: err.Error()}
	}
	return results, nil
}

// residuals writes (y - f(x)) / sigma for every sample, or y - f(x) without
// weighting.
func residuals(
	dst []float64,
	samples []dataset.Sample,
	model Model,
	v diffraction.Values,
	w Weighting,
) {

	for i, s := range samples {
		r := s.Intensity - model(s.Position, v)
		if w == WeightErrors && s.IntensityError > 0 {
			r /= s.IntensityError
		}
		dst[i] = r
	}
}

// standardErrors returns sqrt(diag((J^T J)^-1)) for the free parameters, with
// J taken at v in physical units.
func standardErrors(
	samples []dataset.Sample,
	model Model,
	v diffraction.Values,
	free []diffraction.Index,
	w Weighting,
) (
	[]float64, error,
) {

	scale := make([]float64, len(free))
	u0 := make([]float64, len(free))
	for j, idx := range free {
		scale[j] = scaleOf(v[idx])
		u0[j] = v[idx] / scale[j]
	}

	f := func(dst, u []float64) {
		x := v
		for j, idx := range free {
			x[idx] = u[j] * scale[j]
		}
		residuals(dst, samples, model, x, w)
	}

	jac := mat.NewDense(len(samples), len(free), nil)
	fd.Jacobian(jac, f, u0, &fd.JacobianSettings{
		Formula:    fd.Central,
		Concurrent: true,
	})

	var jtj mat.SymDense
	jtj.SymOuterK(1, jac.T())

	var chol mat.Cholesky
	if ok := chol.Factorize(&jtj); !ok || chol.Cond() > maxCondition {
		return nil, &ConvergenceError{
			Status: optimize.Failure,
			Reason: "singular jacobian at the solution",
		}
	}

	var cov mat.SymDense
	if err := chol.InverseTo(&cov); err != nil {
		return nil, &ConvergenceError{Status: optimize.Failure, Reason: err.Error()}
	}

	sigma := make([]float64, len(free))
	for j := range free {
		c := cov.At(j, j)
		if c < 0 || math.IsNaN(c) || math.IsInf(c, 0) {
			return nil, &ConvergenceError{
				Status: optimize.Failure,
				Reason: fmt.Sprintf("singular covariance for %s", free[j].Name()),
			}
		}
		sigma[j] = math.Sqrt(c) * scale[j]
	}
	return sigma, nil
}
