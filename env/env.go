// Package env holds the process-wide, scope-able configuration knobs that
// the rest of the module reads at call time: the floating point comparison
// precision, the default index dtype, and whether non-orthogonal footprints
// are tolerated.
//
// The original implementation (buzzard) keeps these on a thread-local stack
// that Env.__enter__/__exit__ push and pop. Go has no equivalent of
// thread-locals, and the idiomatic replacement for "a value scoped to the
// current call chain" is context.Context. Scope is therefore carried on a
// context.Context value: Push returns a derived context and leaves the
// parent untouched, so the outer scope still applies wherever the parent
// is used. The func Push returns does nothing and exists so call sites
// read like the original's enter/exit pair, e.g.:
//
//	ctx, restore, err := env.Push(ctx, env.Options{Significant: 6})
//	if err != nil {
//		return err
//	}
//	defer restore()
package env

import (
	"context"
	"fmt"
)

// IndexDtype enumerates the supported integer dtypes for raster-index
// arithmetic (pixel coordinates, shapes).
type IndexDtype int

const (
	// Int32 is the default index dtype: signed, to allow negative indices.
	Int32 IndexDtype = iota
	Int64
	Uint32
	Uint64
)

func (d IndexDtype) String() string {
	switch d {
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Uint32:
		return "uint32"
	case Uint64:
		return "uint64"
	default:
		return fmt.Sprintf("IndexDtype(%d)", int(d))
	}
}

// Options is the set of scope-able knobs. Zero value is not valid on its
// own; use Defaults() as a base and override only the fields that matter.
type Options struct {
	// Significant is the number of significant decimal digits used when
	// comparing floating point coordinates (same_grid, equals). Must be > 0.
	Significant float64
	// DefaultIndexDtype is the dtype used for index-valued outputs
	// (meshgrid_raster, spatial_to_raster) when the caller does not name one.
	DefaultIndexDtype IndexDtype
	// AllowComplexFootprint allows non north-up / non axis-aligned Footprints
	// when true. Most of the fast paths in remap assume axis-aligned grids;
	// enabling this opts into the slower general code paths.
	AllowComplexFootprint bool
}

// Defaults returns buzzard's documented bottom-of-stack values:
// significant=9.0, default_index_dtype=int32, allow_complex_footprint=false.
func Defaults() Options {
	return Options{
		Significant:           9.0,
		DefaultIndexDtype:     Int32,
		AllowComplexFootprint: false,
	}
}

func (o Options) validate() error {
	if o.Significant <= 0 {
		return fmt.Errorf("env: significant must be > 0, got %v", o.Significant)
	}
	return nil
}

type ctxKey struct{}

// Of returns the Options in effect for ctx, or Defaults() if none were ever
// pushed (equivalent to reading the bottom of buzzard's option stack).
func Of(ctx context.Context) Options {
	if ctx == nil {
		return Defaults()
	}
	if v, ok := ctx.Value(ctxKey{}).(Options); ok {
		return v
	}
	return Defaults()
}

// Push layers partial overrides on top of the Options currently in effect
// for ctx and returns a derived context plus a restore func. Fields left at
// their Go zero value in overrides are NOT treated as "explicitly set to
// zero" — callers that want to override with a zero must start from Of(ctx)
// and mutate the struct themselves, then call PushOptions.
func Push(ctx context.Context, overrides Options) (context.Context, func(), error) {
	cur := Of(ctx)
	next := cur
	if overrides.Significant != 0 {
		next.Significant = overrides.Significant
	}
	if overrides.DefaultIndexDtype != 0 {
		next.DefaultIndexDtype = overrides.DefaultIndexDtype
	}
	if overrides.AllowComplexFootprint {
		next.AllowComplexFootprint = overrides.AllowComplexFootprint
	}
	return PushOptions(ctx, next)
}

// PushOptions installs next verbatim as the scope in effect for the
// returned context, validating it first.
func PushOptions(ctx context.Context, next Options) (context.Context, func(), error) {
	if err := next.validate(); err != nil {
		return ctx, func() {}, err
	}
	child := context.WithValue(ctx, ctxKey{}, next)
	return child, func() {}, nil
}
