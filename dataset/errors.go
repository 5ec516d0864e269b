package dataset

import "fmt"

// ErrConfig reports a bad construction parameter, raised synchronously at
// construction or raster registration (spec.md §7 "ConfigError: bad
// construction parameters (scale=0, empty extent, incompatible SR modes,
// max_active<1). Raised synchronously at construction").
type ErrConfig struct {
	Reason string
}

func (e *ErrConfig) Error() string { return fmt.Sprintf("dataset: config error: %s", e.Reason) }

// ErrCyclicPrimitive reports a recipe whose primitive bindings would close
// a dependency cycle (spec.md §9 "recipes may only depend on
// already-constructed rasters ... detect and reject cycles at
// registration").
type ErrCyclicPrimitive struct {
	Key string
}

func (e *ErrCyclicPrimitive) Error() string {
	return fmt.Sprintf("dataset: primitive %q would close a dependency cycle", e.Key)
}

// ErrSchedulerDead reports that the Dataset's scheduler has already been
// stopped, so any call requiring it fails (spec.md §7 "SchedulerDead:
// after any fatal scheduler error; subsequent API calls that require the
// scheduler fail with this kind").
type ErrSchedulerDead struct{}

func (e *ErrSchedulerDead) Error() string { return "dataset: scheduler is dead" }

// ErrUnknownKey reports a lookup against a key that was never registered.
type ErrUnknownKey struct {
	Key string
}

func (e *ErrUnknownKey) Error() string { return fmt.Sprintf("dataset: unknown key %q", e.Key) }
