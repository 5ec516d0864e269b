package dataset

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Options are a Dataset's constructor parameters (spec.md §6 "Dataset
// constructor options (all optional): sr_work, sr_fallback, sr_forced
// ..., analyse_transformation ..., allow_none_geometry ...,
// allow_interpolation ..., max_active ..., debug_observers ...").
//
// SR conversion itself is an out-of-scope external collaborator (spec.md
// §1 "Spatial-reference conversion (exposed as an opaque coordinate
// transform function)"); SRWork/SRFallback/SRForced are therefore carried
// as opaque strings: New checks that SRForced is not combined with the
// other two, and nothing else reads them.
type Options struct {
	SRWork                string
	SRFallback            string
	SRForced              string
	AnalyseTransformation bool
	AllowNoneGeometry     bool
	AllowInterpolation    bool
	MaxActive             int
	DebugObservers        []interface{}

	// PollInterval bounds the scheduler's sleep phase (spec.md §4.4's tick
	// "sleeps until the next event or a poll deadline"); not a source
	// constructor option, but every Dataset needs one.
	PollInterval time.Duration

	// Logger receives the Dataset's log lines (the Dataset logs its
	// shutdown through it, tagged component=dataset). Defaults to a
	// logrus.Logger with its standard text formatter if nil.
	Logger *logrus.Logger
}

// DefaultOptions returns the zero-configuration Dataset (spec.md §6: every
// constructor option is optional).
func DefaultOptions() Options {
	return Options{
		AllowInterpolation: true,
		MaxActive:          8,
		PollInterval:       10 * time.Millisecond,
		Logger:             logrus.StandardLogger(),
	}
}

// OptionsFromViper overlays process-wide defaults read from v onto
// DefaultOptions, for callers that want one config file/environment to
// drive every Dataset a process constructs (spec.md §6's constructor
// options are named, but nothing in the source prevents sourcing their
// defaults from outside the call site — the common idiom this pack's
// config-capable repos use is a struct-of-knobs loaded once at startup).
func OptionsFromViper(v *viper.Viper) Options {
	opts := DefaultOptions()
	v.SetDefault("sr_work", opts.SRWork)
	v.SetDefault("sr_fallback", opts.SRFallback)
	v.SetDefault("sr_forced", opts.SRForced)
	v.SetDefault("analyse_transformation", opts.AnalyseTransformation)
	v.SetDefault("allow_none_geometry", opts.AllowNoneGeometry)
	v.SetDefault("allow_interpolation", opts.AllowInterpolation)
	v.SetDefault("max_active", opts.MaxActive)
	v.SetDefault("poll_interval_ms", opts.PollInterval.Milliseconds())

	opts.SRWork = v.GetString("sr_work")
	opts.SRFallback = v.GetString("sr_fallback")
	opts.SRForced = v.GetString("sr_forced")
	opts.AnalyseTransformation = v.GetBool("analyse_transformation")
	opts.AllowNoneGeometry = v.GetBool("allow_none_geometry")
	opts.AllowInterpolation = v.GetBool("allow_interpolation")
	opts.MaxActive = v.GetInt("max_active")
	opts.PollInterval = time.Duration(v.GetInt64("poll_interval_ms")) * time.Millisecond
	return opts
}

// validate checks the synchronous ConfigError cases spec.md §7 assigns to
// construction ("max_active<1 ... incompatible SR modes").
func (o Options) validate() error {
	if o.MaxActive < 1 {
		return &ErrConfig{Reason: "max_active must be >= 1"}
	}
	if o.SRForced != "" && (o.SRWork != "" || o.SRFallback != "") {
		return &ErrConfig{Reason: "sr_forced is mutually exclusive with sr_work/sr_fallback"}
	}
	return nil
}
