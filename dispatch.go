// Package dispatch distributes one computational job across an arbitrary
// number of independent compute devices, each driven by its own controller
// goroutine, and tolerates individual device failures by reassigning their
// share of the work to devices that are still available.
//
// A device back-end satisfies the Functor interface; Run partitions the bound
// dataset, starts one controller goroutine per device, runs a best-effort
// monitoring goroutine alongside, and remaps failed work units to idle
// devices until every unit reaches a terminal state. The caller receives an
// aggregate Result; individual device errors never abort the job.
package dispatch

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// Run executes one job: it binds data to the functor, allocates device
// resources, splits the work into nDevices units and dispatches them, one
// controller goroutine per device, with functor index equal to device index
// initially. When a unit fails, it is retried on the first device that
// finished its own work successfully and still holds resources, in FIFO
// order of devices becoming idle. Units that cannot be retried are reported
// in the Result as permanently failed, not as a fatal abort.
//
// The returned Result is non-nil whenever the arguments were valid; the
// returned error is non-nil only when the run could not reach the dispatch
// phase (invalid arguments, data binding or partitioning failure). Device
// resources are released on every exit path.
func Run(f Functor, data any, nDevices int, opts ...Option) (*Result, error) {
	j, err := NewJob(f, nDevices, opts...)
	if err != nil {
		return nil, err
	}
	return j.Run(data)
}

// Run executes the job. See the package-level Run for the lifecycle.
func (j *Job) Run(data any) (*Result, error) {
	metricJobsStarted.Inc()
	j.setState(JobStateInit)
	if err := j.functor.BindData(data); err != nil || j.functor.Fail() {
		return j.fatal(errors.WithMessage(orFailed(err), "binding dataset"))
	}

	allocErr := j.functor.AllocateResources()
	// Snapshot the allocation outcome now: Fail() keeps reporting true after a
	// recoverable allocation failure, and must not be mistaken for a
	// partitioning failure below.
	allocFailed := allocErr != nil || j.functor.Fail()
	defer func() {
		// Release must run on every exit path, and must be safe even after a
		// partial allocation failure.
		if err := j.functor.ReleaseResources(); err != nil {
			klog.Errorf("job %s: releasing device resources: %v", j.id, err)
		}
	}()

	j.setState(JobStatePartitioned)
	if err := j.functor.GenerateParameterList(j.nDevices); err != nil || (!allocFailed && j.functor.Fail()) {
		return j.fatal(errors.WithMessagef(orFailed(err), "partitioning dataset for %d devices", j.nDevices))
	}

	// Devices whose resources did not come up never start; their work units
	// go straight to the retry queue and are picked up by whichever device
	// goes idle first.
	if allocFailed {
		named := false
		for i := 0; i < j.nDevices; i++ {
			if j.functor.FailOnFunctor(i) {
				j.rs.markAllocFailed(i, errors.WithMessagef(ErrAllocation, "device %d", i))
				named = true
			}
		}
		if !named {
			// The back-end reported a global allocation failure without
			// naming devices: nothing can start.
			for i := 0; i < j.nDevices; i++ {
				j.rs.markAllocFailed(i, errors.WithMessagef(ErrAllocation, "device %d: %v", i, orFailed(allocErr)))
			}
		}
	}
	for i := 0; i < j.nDevices; i++ {
		if j.rs.slots[i] != DeviceFailed {
			j.rs.markLaunched(i)
		}
	}

	j.setState(JobStateDispatching)
	for i := 0; i < j.nDevices; i++ {
		if j.rs.slots[i] != DeviceBusy {
			continue
		}
		j.wg.Add(1)
		go j.controller(i, i)
	}

	// The aux functor starts only after all controllers are launched. It has
	// no completion guarantee: once the main work joins, it is cancelled and,
	// past the grace period, abandoned.
	var auxDone chan struct{}
	var cancelAux context.CancelFunc
	if j.opts.runAux {
		var ctx context.Context
		ctx, cancelAux = context.WithCancel(context.Background())
		defer cancelAux()
		auxDone = make(chan struct{})
		go func() {
			defer close(auxDone)
			if err := j.functor.AuxFunctor(ctx); err != nil && !errors.Is(err, context.Canceled) {
				klog.Warningf("job %s: aux functor: %v", j.id, err)
			}
		}()
	}

	j.wg.Wait()
	j.setState(JobStateJoined)
	if j.opts.runAux {
		cancelAux()
		select {
		case <-auxDone:
		case <-time.After(j.opts.auxGrace):
			metricMonitorsAbandoned.Inc()
			klog.Warningf("job %s: aux functor still running %s after main work finished, abandoning it", j.id, j.opts.auxGrace)
		}
	}

	j.setState(JobStatePostRun)
	postErr := j.functor.PostRun()

	res := newResult(j.id, j.rs)
	if postErr != nil {
		res.Err = appendErr(res.Err, errors.WithMessage(postErr, "post-run"))
	}
	metricFunctorsFailed.Add(float64(len(res.FailedFunctors)))
	metricJobsCompleted.WithLabelValues(res.Status.String()).Inc()
	if res.Status == TotalFailure {
		j.setState(JobStateFailed)
	} else {
		j.setState(JobStateDone)
	}
	return res, nil
}

// controller drives one device. It executes its work unit and, on any
// outcome, consults the remap state: a failed unit is queued for retry, a
// successful device becomes claimable, and if a pending unit can be paired
// with an idle device the same goroutine executes the pair next. The
// controller exits only when no work can be claimed, so the dispatcher's
// join above observes every unit in a terminal state.
func (j *Job) controller(functorIndex, deviceIndex int) {
	defer j.wg.Done()
	fi, di := functorIndex, deviceIndex
	for {
		err := j.functor.MainFunctor(fi, di)
		next, dev, ok := j.rs.finish(fi, di, err)
		if !ok {
			return
		}
		fi, di = next, dev
	}
}

// fatal handles failures before the dispatch phase: the caller still gets an
// aggregate status naming every work unit as failed, plus the fatal error.
func (j *Job) fatal(err error) (*Result, error) {
	j.setState(JobStateFailed)
	res := &Result{
		JobID:          j.id,
		Status:         TotalFailure,
		FailedFunctors: make([]int, j.nDevices),
		RemapTable:     map[int]int{},
		Attempts:       make([]int, j.nDevices),
		Err:            err,
	}
	for i := range res.FailedFunctors {
		res.FailedFunctors[i] = i
	}
	metricJobsCompleted.WithLabelValues(res.Status.String()).Inc()
	return res, err
}

// orFailed substitutes a generic error when the functor reported failure via
// Fail() while returning a nil error.
func orFailed(err error) error {
	if err != nil {
		return err
	}
	return errors.New("functor reported failure")
}
