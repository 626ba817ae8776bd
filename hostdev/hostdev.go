// Package hostdev implements a device back-end that emulates a number of
// accelerator lanes on the host CPU. It is the reference implementation of
// the dispatch.Functor contract and is registered as the "host" back-end.
//
// Each lane owns a scratch buffer standing in for device memory; the actual
// computation is supplied as a Kernel. A FaultPlan can inject allocation and
// execution failures, which makes the back-end usable to exercise the
// dispatcher's remap paths in tests and demos.
package hostdev

import (
	"context"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/avast/retry-go"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/emagsim/dispatch"
	"github.com/emagsim/dispatch/dtypes"
)

func init() {
	if err := dispatch.RegisterBackend("host", func() dispatch.Functor { return New() }); err != nil {
		klog.Fatalf("Failed to register the host device back-end: %+v", err)
	}
}

// Sized is the minimal dataset contract: a row count the partitioner splits
// across lanes.
type Sized interface {
	Len() int
}

// Kernel processes rows [lo, hi) of the bound dataset on one lane. Distinct
// lanes receive disjoint row ranges, so a kernel may write to per-row output
// without synchronization.
type Kernel func(lane *Lane, data any, lo, hi int) error

// Lane emulates one accelerator device.
type Lane struct {
	// ID is the device index of this lane.
	ID int

	// Scratch stands in for device memory; sized at AllocateResources time
	// and nil outside the allocated window.
	Scratch []byte

	allocated    bool
	execFailures int // injected executions left to fail on this lane
}

// FaultPlan injects failures for tests and demos.
type FaultPlan struct {
	// ExecFailures makes the first n executions on a lane fail.
	ExecFailures map[int]int
	// AllocFailures makes the first n allocation attempts for a lane fail.
	// Allocation is retried a few times, so small counts are transparently
	// absorbed while larger ones keep the lane from ever starting.
	AllocFailures map[int]int
}

type span struct{ lo, hi int }

// Backend emulates len(lanes) accelerator devices on the host. It satisfies
// dispatch.Functor; see New for construction.
type Backend struct {
	kernel       Kernel
	nLanes       int
	scratchElems int
	dtype        dtypes.DType
	faults       FaultPlan

	data  any
	size  int
	spans []span
	lanes []*Lane

	globalFail bool
	failed     []bool
	done       atomic.Int64
	started    time.Time
}

// Option configures a Backend.
type Option func(*Backend)

// WithKernel sets the computation run on each lane. Without a kernel the
// back-end executes work units as no-ops, which is handy for smoke runs.
func WithKernel(k Kernel) Option {
	return func(b *Backend) { b.kernel = k }
}

// WithLanes sets the number of emulated devices. Defaults to runtime.NumCPU.
func WithLanes(n int) Option {
	return func(b *Backend) { b.nLanes = n }
}

// WithScratch sets the per-lane scratch buffer as a number of elements of the
// given element type. Defaults to 4096 elements of Float32.
func WithScratch(elems int, dt dtypes.DType) Option {
	return func(b *Backend) { b.scratchElems, b.dtype = elems, dt }
}

// WithFaults installs a fault-injection plan.
func WithFaults(plan FaultPlan) Option {
	return func(b *Backend) { b.faults = plan }
}

// New creates a host back-end. Configure it with options here or later with
// Configure, before handing it to dispatch.Run.
func New(opts ...Option) *Backend {
	b := &Backend{
		nLanes:       runtime.NumCPU(),
		scratchElems: 4096,
		dtype:        dtypes.Float32,
	}
	b.Configure(opts...)
	return b
}

// Configure applies options to the backend. Only valid before the run starts.
func (b *Backend) Configure(opts ...Option) {
	for _, opt := range opts {
		opt(b)
	}
}

// Lanes returns the number of emulated devices, the nDevices to pass to
// dispatch.Run.
func (b *Backend) Lanes() int { return b.nLanes }

// DType returns the element type the scratch buffers are sized for.
func (b *Backend) DType() dtypes.DType { return b.dtype }

// BindData attaches the dataset. It must implement Sized.
func (b *Backend) BindData(data any) error {
	sized, ok := data.(Sized)
	if !ok {
		b.globalFail = true
		return errors.Errorf("dataset of type %T does not implement hostdev.Sized", data)
	}
	b.data = data
	b.size = sized.Len()
	b.globalFail = false
	return nil
}

// AllocateResources brings up every lane's scratch buffer. Transient
// allocation failures are retried; a lane that stays down is reported through
// Fail/FailOnFunctor while the remaining lanes come up normally.
func (b *Backend) AllocateResources() error {
	b.lanes = make([]*Lane, b.nLanes)
	b.failed = make([]bool, b.nLanes)
	var anyFailed bool
	for i := range b.lanes {
		lane := &Lane{ID: i, execFailures: b.faults.ExecFailures[i]}
		b.lanes[i] = lane
		allocFailures := b.faults.AllocFailures[i]
		err := retry.Do(
			func() error {
				if allocFailures > 0 {
					allocFailures--
					return errors.Errorf("lane %d: simulated allocation failure", i)
				}
				lane.Scratch = make([]byte, b.scratchElems*b.dtype.Size())
				return nil
			},
			retry.Attempts(3),
			retry.Delay(time.Millisecond),
			retry.LastErrorOnly(true),
		)
		if err != nil {
			klog.Warningf("lane %d failed to allocate resources: %v", i, err)
			b.failed[i] = true
			anyFailed = true
			continue
		}
		lane.allocated = true
	}
	if anyFailed {
		b.globalFail = true
		return errors.WithMessage(dispatch.ErrAllocation, "some lanes failed to allocate")
	}
	return nil
}

// ReleaseResources drops every lane's scratch buffer. Safe to call after a
// partial allocation failure, and idempotent.
func (b *Backend) ReleaseResources() error {
	for _, lane := range b.lanes {
		if lane == nil {
			continue
		}
		lane.Scratch = nil
		lane.allocated = false
	}
	return nil
}

// GenerateParameterList splits the bound dataset into nDevices contiguous,
// non-overlapping row ranges covering all rows. nDevices must match the
// configured lane count.
func (b *Backend) GenerateParameterList(nDevices int) error {
	if nDevices != b.nLanes {
		b.globalFail = true
		return errors.Errorf("asked to split for %d devices, but back-end has %d lanes", nDevices, b.nLanes)
	}
	b.spans = make([]span, nDevices)
	per := b.size / nDevices
	rem := b.size % nDevices
	lo := 0
	for i := range b.spans {
		hi := lo + per
		if i < rem {
			hi++
		}
		b.spans[i] = span{lo: lo, hi: hi}
		lo = hi
	}
	b.started = time.Now()
	return nil
}

// MainFunctor runs work unit functorIndex on lane deviceIndex. Any unit can
// run on any lane; a remapped unit just reads its own span.
func (b *Backend) MainFunctor(functorIndex, deviceIndex int) error {
	if functorIndex < 0 || functorIndex >= len(b.spans) || deviceIndex < 0 || deviceIndex >= len(b.lanes) {
		return errors.Errorf("functor %d / device %d out of range", functorIndex, deviceIndex)
	}
	lane := b.lanes[deviceIndex]
	if !lane.allocated {
		b.failed[functorIndex] = true
		return errors.WithMessagef(dispatch.ErrAllocation, "lane %d has no resources", deviceIndex)
	}
	if lane.execFailures > 0 {
		lane.execFailures--
		b.failed[functorIndex] = true
		return errors.WithMessagef(dispatch.ErrExecution, "functor %d on lane %d: simulated fault", functorIndex, deviceIndex)
	}
	if b.kernel != nil {
		s := b.spans[functorIndex]
		if err := b.kernel(lane, b.data, s.lo, s.hi); err != nil {
			b.failed[functorIndex] = true
			return errors.WithMessagef(err, "functor %d on lane %d", functorIndex, deviceIndex)
		}
	}
	b.failed[functorIndex] = false
	b.done.Add(1)
	return nil
}

// AuxFunctor periodically logs progress until cancelled.
func (b *Backend) AuxFunctor(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			klog.V(1).Infof("host back-end: %d/%d work units done", b.done.Load(), len(b.spans))
		}
	}
}

// PostRun logs the final accounting.
func (b *Backend) PostRun() error {
	klog.V(1).Infof("host back-end: finished %d/%d work units in %s", b.done.Load(), len(b.spans), time.Since(b.started))
	return nil
}

// Fail reports whether the last global operation failed.
func (b *Backend) Fail() bool { return b.globalFail }

// FailOnFunctor reports whether the last operation on the given functor
// failed; true for out-of-range indices.
func (b *Backend) FailOnFunctor(functorIndex int) bool {
	if functorIndex < 0 || functorIndex >= len(b.failed) {
		return true
	}
	return b.failed[functorIndex]
}

// Done returns how many work units have completed so far.
func (b *Backend) Done() int { return int(b.done.Load()) }

var _ dispatch.Functor = (*Backend)(nil)
