package dispatch

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// JobState is the lifecycle state of one job, from creation on Run entry to
// its terminal state on Run return.
type JobState int

//go:generate go tool enumer -type=JobState -trimprefix=JobState job.go

const (
	JobStateInit JobState = iota
	JobStatePartitioned
	JobStateDispatching
	JobStateJoined
	JobStatePostRun
	JobStateDone
	JobStateFailed
)

const (
	defaultMaxRetries     = 1
	defaultAuxGracePeriod = time.Second
)

type options struct {
	maxRetries int
	auxGrace   time.Duration
	runAux     bool
}

// Option configures a Run.
type Option func(*options)

// WithMaxRetries sets how many times a failed functor may be remapped to an
// idle device before it is declared permanently failed. The default is 1:
// one remap per functor beyond its original execution. n <= 0 disables
// remapping entirely.
func WithMaxRetries(n int) Option {
	return func(o *options) { o.maxRetries = max(n, 0) }
}

// WithAuxGracePeriod sets how long Run waits for the aux functor to honor
// cancellation after all main work finished, before abandoning it. The
// default is one second.
func WithAuxGracePeriod(d time.Duration) Option {
	return func(o *options) { o.auxGrace = d }
}

// WithoutAux disables the aux functor goroutine for this run.
func WithoutAux() Option {
	return func(o *options) { o.runAux = false }
}

// Job is one invocation of the orchestrator. It owns the dataset reference
// and the requested device count for the duration of Run. A Job is
// single-use: create one per run with NewJob, or use the package-level Run.
type Job struct {
	id       uuid.UUID
	functor  Functor
	nDevices int
	opts     options
	state    JobState

	rs *remapState
	wg sync.WaitGroup
}

// NewJob creates a job dispatching across nDevices devices of the given
// functor. Call Run exactly once on it.
func NewJob(f Functor, nDevices int, opts ...Option) (*Job, error) {
	if f == nil {
		return nil, errors.New("nil functor")
	}
	if nDevices < 1 {
		return nil, errors.Errorf("nDevices must be >= 1, got %d", nDevices)
	}
	return newJob(f, nDevices, opts...), nil
}

// ID identifies the job, for correlating logs and results.
func (j *Job) ID() uuid.UUID { return j.id }

// State returns the job's lifecycle state. It is not synchronized with a
// concurrent Run; read it before or after, not during.
func (j *Job) State() JobState { return j.state }

func newJob(f Functor, nDevices int, opts ...Option) *Job {
	o := options{
		maxRetries: defaultMaxRetries,
		auxGrace:   defaultAuxGracePeriod,
		runAux:     true,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Job{
		id:       uuid.New(),
		functor:  f,
		nDevices: nDevices,
		opts:     o,
		rs:       newRemapState(f, nDevices, o.maxRetries),
	}
}

func (j *Job) setState(s JobState) {
	klog.V(2).Infof("job %s: %s -> %s", j.id, j.state, s)
	j.state = s
}
