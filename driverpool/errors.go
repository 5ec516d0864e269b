package driverpool

import "fmt"

// ErrPoolExhausted is returned by Activate/Acquire when max_active is
// reached and no idle handle is available to evict (spec.md §4.2, §7).
type ErrPoolExhausted struct {
	MaxActive int
}

func (e *ErrPoolExhausted) Error() string {
	return fmt.Sprintf("driverpool: max_active=%d reached, no idle handle to evict", e.MaxActive)
}

// ErrInUse is returned by Deactivate when uid still has handles checked out.
type ErrInUse struct {
	UID UID
}

func (e *ErrInUse) Error() string {
	return fmt.Sprintf("driverpool: cannot deactivate %s: still in use", e.UID)
}
