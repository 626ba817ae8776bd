package dispatch

import "context"

// Functor is the capability set a device back-end must provide to be driven
// by this package.
//
// A Functor should be interpreted as a set of functions that performs a given
// task on one or more compute devices -- typically a numeric computation split
// across accelerator cards. The implementation organizes the bound data into
// whatever layout makes sense for its device family; this package only cares
// about the contract below.
//
// One controller goroutine is assigned per device. If a device fails to
// complete its share of the work, that share is reassigned to a device that
// finished successfully and still has resources allocated (see Run).
type Functor interface {
	// BindData attaches the dataset to be processed. It must be called before
	// any other operation on the functor; Run does this first.
	BindData(data any) error

	// AllocateResources acquires device-side resources (memory, contexts) for
	// all devices. ReleaseResources must be safe to call even if
	// AllocateResources failed partway through, and is invoked on every exit
	// path of Run, including failure.
	AllocateResources() error
	ReleaseResources() error

	// GenerateParameterList decides how the bound dataset is split among
	// nDevices devices. It must produce exactly nDevices non-overlapping work
	// units that together cover the full dataset. The units are later executed
	// concurrently, one controller goroutine each.
	GenerateParameterList(nDevices int) error

	// MainFunctor executes work unit functorIndex on device deviceIndex.
	//
	// Under normal circumstances functorIndex and deviceIndex are equal.
	// However, if execution failed on the originally assigned device, the
	// work unit is remapped to the first idle device. Implementations must
	// make sure any functor can run on any device, even if at reduced
	// performance.
	MainFunctor(functorIndex, deviceIndex int) error

	// AuxFunctor runs concurrently with the main work in its own goroutine,
	// for monitoring or progress reporting. It has no completion guarantee:
	// ctx is cancelled once all main work finishes, and if AuxFunctor does
	// not return within a grace period its result is abandoned. It must not
	// hold any resource whose release is required for correctness.
	AuxFunctor(ctx context.Context) error

	// PostRun performs final bookkeeping once after all main work has
	// completed, successfully or not.
	PostRun() error

	// Fail reports whether the most recent global operation failed.
	Fail() bool

	// FailOnFunctor reports whether the most recent operation on the given
	// functor failed. It also reports true for an out-of-range index.
	//
	// Neither Fail nor FailOnFunctor is required to be internally
	// thread-safe: this package only calls them while holding its remap lock
	// or before/after the controller goroutines run.
	FailOnFunctor(functorIndex int) bool
}
