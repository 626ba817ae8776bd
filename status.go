package dispatch

import (
	"sort"

	"github.com/google/uuid"
)

// Status is the aggregate outcome of a Run.
type Status int

//go:generate go tool enumer -type=Status status.go

const (
	// Success: every functor completed, on its original device or after remap.
	Success Status = iota

	// PartialFailure: some functors completed and some were permanently
	// failed (no idle device was available to retry them).
	PartialFailure

	// TotalFailure: zero functors completed.
	TotalFailure
)

// Result is the aggregate outcome returned by Run.
//
// Individual device errors are never propagated as panics; they are folded
// into Err and reflected in Status and FailedFunctors.
type Result struct {
	// JobID identifies the run, for correlating logs.
	JobID uuid.UUID

	// Status is Success, PartialFailure or TotalFailure.
	Status Status

	// FailedFunctors lists, in increasing order, the functor indices that
	// never completed. Empty on Success.
	FailedFunctors []int

	// RemapTable maps each remapped functor index to the device that actually
	// executed it last. Empty when no remap happened.
	RemapTable map[int]int

	// Attempts counts MainFunctor invocations per functor index.
	Attempts []int

	// Err aggregates the causes of all permanent failures (and a PostRun
	// error, if any). Nil on Success with a clean PostRun.
	Err error
}

// Completed returns the number of functors that reached a successful terminal
// state.
func (r *Result) Completed() int {
	return len(r.Attempts) - len(r.FailedFunctors)
}

// newResult assembles a Result from the remap state after all controller
// goroutines joined.
func newResult(jobID uuid.UUID, rs *remapState) *Result {
	r := &Result{
		JobID:          jobID,
		FailedFunctors: rs.permanentlyFailed(),
		RemapTable:     make(map[int]int, len(rs.remapTable)),
		Attempts:       append([]int(nil), rs.attempts...),
		Err:            rs.err(),
	}
	sort.Ints(r.FailedFunctors)
	for f, d := range rs.remapTable {
		r.RemapTable[f] = d
	}
	switch {
	case len(r.FailedFunctors) == 0:
		r.Status = Success
	case len(r.FailedFunctors) == len(r.Attempts):
		r.Status = TotalFailure
	default:
		r.Status = PartialFailure
	}
	return r
}
