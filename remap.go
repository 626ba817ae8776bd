package dispatch

import (
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// remapState is the shared bookkeeping of one run: the per-device slot
// states, the idle-device and failed-functor registries, and the remap table.
//
// Every field is only observed or mutated while holding mu. The same critical
// section also covers the resource-ownership handoff of a claimed idle device
// from its previous (successful) controller to the remapping controller.
type remapState struct {
	mu sync.Mutex

	functor    Functor
	maxRetries int

	slots      []DeviceState // indexed by device
	idle       []int         // devices available for remap, FIFO in order of becoming idle
	pending    []int         // failed functors awaiting a device, FIFO in order of failure
	exhausted  []int         // functors whose retry budget is spent, in detection order
	remapTable map[int]int   // functor -> device that last executed it after a remap
	attempts   []int         // MainFunctor invocations per functor
	lastErr    []error       // last failure cause per functor
}

func newRemapState(f Functor, nDevices, maxRetries int) *remapState {
	return &remapState{
		functor:    f,
		maxRetries: maxRetries,
		slots:      make([]DeviceState, nDevices),
		remapTable: make(map[int]int),
		attempts:   make([]int, nDevices),
		lastErr:    make([]error, nDevices),
	}
}

// markLaunched records that functor fi starts on its home device. Called
// before the controller goroutines exist, so no locking is required.
func (rs *remapState) markLaunched(fi int) {
	rs.slots[fi] = DeviceBusy
	rs.attempts[fi] = 1
}

// markAllocFailed records that device fi never starts because its resource
// allocation failed; its functor goes straight to the retry queue, unless
// remapping is disabled, in which case it is permanently failed. Called
// before the controller goroutines exist.
func (rs *remapState) markAllocFailed(fi int, cause error) {
	rs.slots[fi] = DeviceFailed
	if rs.maxRetries > 0 {
		rs.pending = append(rs.pending, fi)
	} else {
		rs.exhausted = append(rs.exhausted, fi)
	}
	rs.lastErr[fi] = cause
	metricDevicesFailed.Inc()
}

// finish records the outcome of one MainFunctor execution of functor fi on
// device di, and atomically decides what the calling controller does next.
//
// On failure, device di is marked failed and fi is queued for retry (or
// permanently failed once its retry budget is spent). On success, di joins
// the idle registry, claimable until Run releases resources after the join.
// Either way finish then tries to pair the oldest pending functor with the
// oldest idle device; when it can, the pair is returned and the calling
// controller executes it, reusing the goroutine that detected the outcome.
// ok=false means the controller should exit.
func (rs *remapState) finish(fi, di int, execErr error) (nextF, nextD int, ok bool) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	failed := execErr != nil || rs.functor.FailOnFunctor(fi)
	if failed {
		if execErr == nil {
			execErr = errors.WithMessagef(ErrExecution, "functor %d on device %d", fi, di)
		}
		rs.slots[di] = DeviceFailed
		rs.lastErr[fi] = execErr
		metricDevicesFailed.Inc()
		if rs.attempts[fi] > rs.maxRetries {
			rs.exhausted = append(rs.exhausted, fi)
			klog.V(1).Infof("functor %d failed on device %d, retry budget spent after %d attempts", fi, di, rs.attempts[fi])
		} else {
			rs.pending = append(rs.pending, fi)
			klog.V(1).Infof("functor %d failed on device %d, queued for remap", fi, di)
		}
	} else {
		rs.slots[di] = DeviceFree
		rs.idle = append(rs.idle, di)
	}
	return rs.claimLocked()
}

// claimLocked pairs the first pending functor with the first idle device.
// Caller must hold mu.
func (rs *remapState) claimLocked() (nextF, nextD int, ok bool) {
	if len(rs.pending) == 0 || len(rs.idle) == 0 {
		return 0, 0, false
	}
	nextF, rs.pending = rs.pending[0], rs.pending[1:]
	nextD, rs.idle = rs.idle[0], rs.idle[1:]
	rs.slots[nextD] = DeviceBusy
	rs.remapTable[nextF] = nextD
	rs.attempts[nextF]++
	metricRemaps.Inc()
	klog.V(1).Infof("functor %d remapped to idle device %d", nextF, nextD)
	return nextF, nextD, true
}

// permanentlyFailed returns the functor indices that never completed, in
// detection order. Only valid after all controllers have joined.
func (rs *remapState) permanentlyFailed() []int {
	failed := append([]int(nil), rs.exhausted...)
	return append(failed, rs.pending...)
}

// err aggregates the permanent failures. Each element wraps
// ErrRemapExhausted; execution errors that were recovered by a successful
// remap are deliberately not surfaced. Only valid after all controllers have
// joined.
func (rs *remapState) err() error {
	var merr *multierror.Error
	for _, fi := range rs.permanentlyFailed() {
		merr = multierror.Append(merr, errors.WithMessagef(ErrRemapExhausted,
			"functor %d permanently failed after %d attempts (last error: %v)", fi, rs.attempts[fi], rs.lastErr[fi]))
	}
	return merr.ErrorOrNil()
}
