// Package config resolves run settings and the experiment registry.
//
// Settings precedence: flags > DIFFRACTION_* environment > config file > defaults.
package config

import (
	"fmt"

	flag "github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/HamletTheHamster/diffraction-fit/internal/fit"
)

const envPrefix = "DIFFRACTION"

// Settings holds everything a run needs besides the per-command parameters.
type Settings struct {
	Plots      string
	Note       string
	Weighting  fit.Weighting
	Iterations int
	Registry   string
	Preview    bool
	Slide      bool
	Verbose    bool
	Abort      bool
	GIF        bool
}

// keys bound to same-named flags when the flag set defines them.
var keys = []string{
	"plots",
	"note",
	"weighting",
	"iterations",
	"registry",
	"preview",
	"slide",
	"verbose",
	"abort",
	"gif",
}

// RegisterFlags adds the global flags to fs.
func RegisterFlags(fs *flag.FlagSet) {
	fs.String("config", "", "settings file (yaml)")
	fs.String("plots", "plots", "output root for figures and run logs")
	fs.String("note", "", "note appended to the run folder name")
	fs.String("weighting", "errors", "residual weighting: errors (1/sigma^2) or none")
	fs.Int("iterations", 1000, "solver iteration budget")
	fs.String("registry", "", "experiment registry (yaml); built-in registry when empty")
	fs.Bool("preview", false, "open a gnuplot preview window")
	fs.Bool("slide", false, "format figures for slide presentation")
	fs.BoolP("verbose", "v", false, "debug logging")
	fs.Bool("abort", false, "batch: stop at the first failed experiment")
	fs.Bool("gif", false, "batch: animate the fit figures into batch.gif")
}

// Load resolves the settings. flagSet may be nil.
func Load(flagSet *flag.FlagSet) (*Settings, error) {
	v := viper.New()

	v.SetDefault("plots", "plots")
	v.SetDefault("note", "")
	v.SetDefault("weighting", "errors")
	v.SetDefault("iterations", 1000)
	v.SetDefault("registry", "")
	v.SetDefault("preview", false)
	v.SetDefault("slide", false)
	v.SetDefault("verbose", false)
	v.SetDefault("abort", false)
	v.SetDefault("gif", false)

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	if flagSet != nil {
		for _, key := range keys {
			if f := flagSet.Lookup(key); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", key, err)
				}
			}
		}

		if f := flagSet.Lookup("config"); f != nil && f.Value.String() != "" {
			v.SetConfigFile(f.Value.String())
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read settings %s: %w", f.Value.String(), err)
			}
		}
	}

	weighting, err := fit.ParseWeighting(v.GetString("weighting"))
	if err != nil {
		return nil, fmt.Errorf("settings: %w", err)
	}

	s := &Settings{
		Plots:      v.GetString("plots"),
		Note:       v.GetString("note"),
		Weighting:  weighting,
		Iterations: v.GetInt("iterations"),
		Registry:   v.GetString("registry"),
		Preview:    v.GetBool("preview"),
		Slide:      v.GetBool("slide"),
		Verbose:    v.GetBool("verbose"),
		Abort:      v.GetBool("abort"),
		GIF:        v.GetBool("gif"),
	}
	if s.Iterations <= 0 {
		return nil, fmt.Errorf("settings: iterations must be positive, got %d", s.Iterations)
	}
	if s.Plots == "" {
		return nil, fmt.Errorf("settings: plots directory is empty")
	}
	return s, nil
}
