package fit

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Weighting selects how residuals are weighted.
type Weighting int

const (
	// WeightErrors divides each residual by the sample's intensity error.
	// Samples with a zero or negative error get weight 1.
	WeightErrors Weighting = iota
	// WeightNone uses plain residuals.
	WeightNone
)

func (w Weighting) String() string {
	switch w {
	case WeightErrors:
		return "errors"
	case WeightNone:
		return "none"
	}
	return fmt.Sprintf("weighting(%d)", int(w))
}

// ParseWeighting accepts the names printed by String.
func ParseWeighting(s string) (Weighting, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "errors", "weighted":
		return WeightErrors, nil
	case "none", "unweighted":
		return WeightNone, nil
	}
	return 0, fmt.Errorf("unknown weighting %q (want errors or none)", s)
}

// Range restricts the fit to samples with Min <= position <= Max. An infinite
// end (-Inf for Min, +Inf for Max) stands for that end of the data span.
type Range struct {
	Min, Max float64
}

const defaultIterations = 1000

// Options tune a single fit. The zero value fits the whole data set with
// error weighting.
type Options struct {
	Range      *Range
	Weighting  Weighting
	Iterations int
	Logger     *zap.SugaredLogger
}

func (o Options) iterations() int {
	if o.Iterations <= 0 {
		return defaultIterations
	}
	return o.Iterations
}

func (o Options) logger() *zap.SugaredLogger {
	if o.Logger == nil {
		return zap.NewNop().Sugar()
	}
	return o.Logger
}
