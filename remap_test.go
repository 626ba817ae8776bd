package dispatch

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

// checkRegistries asserts the registry invariants: no device appears in the
// idle registry twice, and every idle device's slot is DeviceFree.
func checkRegistries(t *testing.T, rs *remapState) {
	t.Helper()
	seen := map[int]bool{}
	for _, d := range rs.idle {
		require.False(t, seen[d], "device %d appears in the idle registry twice", d)
		seen[d] = true
		require.Equal(t, DeviceFree, rs.slots[d], "idle device %d is not free", d)
	}
	for d, state := range rs.slots {
		if state == DeviceBusy {
			require.False(t, seen[d], "device %d is both busy and idle", d)
		}
	}
}

func launchedState(f Functor, nDevices, maxRetries int) *remapState {
	rs := newRemapState(f, nDevices, maxRetries)
	for i := 0; i < nDevices; i++ {
		rs.markLaunched(i)
	}
	return rs
}

func TestRemapFIFOOrder(t *testing.T) {
	s := newScripted(4)
	rs := launchedState(s, 4, 1)
	boom := errors.New("boom")

	// Functors 2 then 3 fail while no device is idle yet.
	_, _, ok := rs.finish(2, 2, boom)
	require.False(t, ok)
	_, _, ok = rs.finish(3, 3, boom)
	require.False(t, ok)
	require.Equal(t, []int{2, 3}, rs.pending)
	checkRegistries(t, rs)

	// Devices 0 then 1 go idle: the first failed functor claims the first
	// idle device, the second claims the second.
	nf, nd, ok := rs.finish(0, 0, nil)
	require.True(t, ok)
	require.Equal(t, 2, nf)
	require.Equal(t, 0, nd)
	nf, nd, ok = rs.finish(1, 1, nil)
	require.True(t, ok)
	require.Equal(t, 3, nf)
	require.Equal(t, 1, nd)
	require.Equal(t, DeviceBusy, rs.slots[0])
	require.Equal(t, DeviceBusy, rs.slots[1])
	checkRegistries(t, rs)

	// The retries succeed; both devices return to the idle registry.
	_, _, ok = rs.finish(2, 0, nil)
	require.False(t, ok)
	_, _, ok = rs.finish(3, 1, nil)
	require.False(t, ok)
	require.Empty(t, rs.permanentlyFailed())
	require.NoError(t, rs.err())
	require.Equal(t, map[int]int{2: 0, 3: 1}, rs.remapTable)
	checkRegistries(t, rs)
}

func TestRemapSameThreadReuse(t *testing.T) {
	// A controller that detects a failure while a device is already idle
	// receives the retry assignment itself.
	s := newScripted(2)
	rs := launchedState(s, 2, 1)

	_, _, ok := rs.finish(0, 0, nil)
	require.False(t, ok)
	nf, nd, ok := rs.finish(1, 1, errors.New("boom"))
	require.True(t, ok)
	require.Equal(t, 1, nf)
	require.Equal(t, 0, nd)
	checkRegistries(t, rs)
}

func TestRemapBudgetSpent(t *testing.T) {
	// With a budget of zero a failed functor is permanently failed even when
	// an idle device is available.
	s := newScripted(2)
	rs := launchedState(s, 2, 0)

	_, _, ok := rs.finish(0, 0, nil)
	require.False(t, ok)
	_, _, ok = rs.finish(1, 1, errors.New("boom"))
	require.False(t, ok)
	require.Equal(t, []int{1}, rs.permanentlyFailed())
	require.ErrorIs(t, rs.err(), ErrRemapExhausted)
	require.Len(t, rs.idle, 1, "the idle device stays claimable")
	checkRegistries(t, rs)
}

func TestRemapAllocFailedHonorsBudget(t *testing.T) {
	s := newScripted(2)

	// With a budget, an allocation-failed unit queues for remap.
	rs := newRemapState(s, 2, 1)
	rs.markAllocFailed(0, errors.New("no memory"))
	require.Equal(t, []int{0}, rs.pending)
	require.Empty(t, rs.exhausted)

	// Without one, it is permanently failed and never claimable.
	rs = newRemapState(s, 2, 0)
	rs.markAllocFailed(0, errors.New("no memory"))
	rs.markLaunched(1)
	require.Empty(t, rs.pending)
	require.Equal(t, []int{0}, rs.exhausted)
	_, _, ok := rs.finish(1, 1, nil)
	require.False(t, ok)
	require.Equal(t, []int{0}, rs.permanentlyFailed())
	require.ErrorIs(t, rs.err(), ErrRemapExhausted)
}

func TestRemapFailedDeviceNeverIdles(t *testing.T) {
	s := newScripted(3)
	rs := launchedState(s, 3, 1)

	_, _, ok := rs.finish(1, 1, errors.New("boom"))
	require.False(t, ok)
	require.Equal(t, DeviceFailed, rs.slots[1])

	// Successes on the other devices never hand out device 1.
	nf, nd, ok := rs.finish(0, 0, nil)
	require.True(t, ok)
	require.Equal(t, 1, nf)
	require.Equal(t, 0, nd)
	_, _, ok = rs.finish(2, 2, nil)
	require.False(t, ok)
	require.NotContains(t, rs.idle, 1)
	checkRegistries(t, rs)
}

func TestRemapErrAggregation(t *testing.T) {
	s := newScripted(2)
	rs := launchedState(s, 2, 0)
	_, _, _ = rs.finish(0, 0, errors.New("first cause"))
	_, _, _ = rs.finish(1, 1, errors.New("second cause"))

	err := rs.err()
	require.ErrorIs(t, err, ErrRemapExhausted)
	require.Contains(t, err.Error(), "functor 0")
	require.Contains(t, err.Error(), "functor 1")
	require.Contains(t, err.Error(), "first cause")
	require.Contains(t, err.Error(), "second cause")
}

func TestRemapFailOnFunctorConsulted(t *testing.T) {
	// A nil execution error still counts as a failure when the functor
	// reports one through FailOnFunctor.
	s := newScripted(2)
	s.lastFailed[1] = true
	rs := launchedState(s, 2, 1)

	_, _, ok := rs.finish(1, 1, nil)
	require.False(t, ok)
	require.Equal(t, []int{1}, rs.pending)
	require.ErrorIs(t, rs.lastErr[1], ErrExecution)
}
