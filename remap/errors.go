package remap

import "fmt"

// ErrInterpolationForbidden is returned when a resample is required (the
// footprints don't share a grid) but interpolation was disabled by the
// caller (spec.md §7 InterpolationForbidden).
type ErrInterpolationForbidden struct {
	SrcFP, DstFP fmt.Stringer
}

func (e *ErrInterpolationForbidden) Error() string {
	return fmt.Sprintf("remap: interpolation required (%s -> %s) but allow_interpolation is false", e.SrcFP, e.DstFP)
}
