package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrInvalidBone indicates a bone that cannot be simulated.
	ErrInvalidBone = errors.New("dynamo: invalid bone configuration")

	// ErrMissingParent indicates a leaf bone with no parent to extend from.
	ErrMissingParent = errors.New("dynamo: leaf bone has no parent")

	// ErrZeroLength indicates a bone that coincides with its child.
	ErrZeroLength = errors.New("dynamo: bone has zero length")

	// ErrUnknownNode indicates a node reference that is not in the hierarchy.
	ErrUnknownNode = errors.New("dynamo: unknown node")

	// ErrInvalidConfig indicates a configuration value outside its valid range.
	ErrInvalidConfig = errors.New("dynamo: invalid configuration")

	// ErrInvalidState indicates NaN or Inf in the simulated state.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrContextCanceled indicates the simulation was interrupted.
	ErrContextCanceled = errors.New("dynamo: simulation canceled by context")
)

// BoneError wraps an error with the bone it was raised for.
type BoneError struct {
	Node    NodeID
	Name    string
	Wrapped error
}

func (e *BoneError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("bone %q (node %d): %v", e.Name, e.Node, e.Wrapped)
	}
	return fmt.Sprintf("bone node %d: %v", e.Node, e.Wrapped)
}

// Unwrap exposes the cause so callers can match on the sentinels above.
// Every BoneError also matches ErrInvalidBone.
func (e *BoneError) Unwrap() []error {
	return []error{ErrInvalidBone, e.Wrapped}
}

type SimError struct {
	Time    float64
	Step    int
	Message string
}

func (e SimError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %s", e.Step, e.Time, e.Message)
}

func (e SimError) Unwrap() error {
	return ErrInvalidState
}
