package dispatch

import "github.com/pkg/errors"

// Error taxonomy for a run. All of these are handled internally and folded
// into the final Result; none aborts a job on its own. Use errors.Is against
// Result.Err (the aggregate unwraps to its individual causes).
var (
	// ErrAllocation: resource acquisition for a device failed before
	// execution began; that device never starts and its functor goes straight
	// to the retry queue.
	ErrAllocation = errors.New("device resource allocation failed")

	// ErrExecution: MainFunctor reported failure; triggers a remap attempt.
	ErrExecution = errors.New("main functor execution failed")

	// ErrRemapExhausted: a failed functor could not be retried, either
	// because no idle device remained or because its retry budget ran out.
	// The functor is permanently failed.
	ErrRemapExhausted = errors.New("no idle device available for remap")
)
