package service

import (
	"errors"
	"fmt"
)

var (
	// ErrCapacityExceeded is matched by *CapacityError.
	ErrCapacityExceeded = errors.New("sub-goal capacity exceeded")
	// ErrInvalidInput marks missing required fields and out-of-range values.
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidRole is returned for roles other than admin and user.
	ErrInvalidRole = errors.New("invalid role")
	// ErrNoSession is returned by creating operations without a signed-in user.
	ErrNoSession = errors.New("no session")
	// ErrGoalNotLoaded is returned when adding a sub-goal to a goal absent
	// from the local goal list.
	ErrGoalNotLoaded = errors.New("goal not loaded")
)

// CapacityError reports a sub-goal addition rejected by the current cap.
type CapacityError struct {
	GoalID string
	Max    int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("goal %s already has %d sub-goals", e.GoalID, e.Max)
}

// Is makes errors.Is(err, ErrCapacityExceeded) hold.
func (e *CapacityError) Is(target error) bool {
	return target == ErrCapacityExceeded
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
