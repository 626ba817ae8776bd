package hostdev

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/emagsim/dispatch"
	"github.com/emagsim/dispatch/dtypes"
)

type rows struct{ n int }

func (r rows) Len() int { return r.n }

// markingKernel ticks off every row it processes. Partitions are disjoint,
// so no synchronization is needed.
func markingKernel(marks []int) Kernel {
	return func(lane *Lane, data any, lo, hi int) error {
		for i := lo; i < hi; i++ {
			marks[i]++
		}
		return nil
	}
}

func TestBackendContract(t *testing.T) {
	marks := make([]int, 10)
	b := New(WithLanes(4), WithKernel(markingKernel(marks)), WithScratch(128, dtypes.Float64))

	require.NoError(t, b.BindData(rows{n: 10}))
	require.NoError(t, b.AllocateResources())
	require.NoError(t, b.GenerateParameterList(4))
	require.False(t, b.Fail())

	for i := 0; i < 4; i++ {
		require.NoError(t, b.MainFunctor(i, i))
		require.False(t, b.FailOnFunctor(i))
	}
	for i, m := range marks {
		require.Equal(t, 1, m, "row %d processed %d times", i, m)
	}
	require.Equal(t, 4, b.Done())
	require.True(t, b.FailOnFunctor(-1))
	require.True(t, b.FailOnFunctor(4))

	require.Equal(t, 128*dtypes.Float64.Size(), len(b.lanes[0].Scratch))
	require.NoError(t, b.PostRun())
	require.NoError(t, b.ReleaseResources())
	require.NoError(t, b.ReleaseResources(), "release is idempotent")
	require.Nil(t, b.lanes[0].Scratch)
}

func TestBackendRejectsBadDataset(t *testing.T) {
	b := New(WithLanes(2))
	require.Error(t, b.BindData(42))
	require.True(t, b.Fail())
}

func TestBackendLaneCountMismatch(t *testing.T) {
	b := New(WithLanes(4))
	require.NoError(t, b.BindData(rows{n: 8}))
	require.NoError(t, b.AllocateResources())
	require.Error(t, b.GenerateParameterList(3))
	require.True(t, b.Fail())
}

func TestBackendThroughDispatch(t *testing.T) {
	// Exercise the registered back-end end to end through the dispatcher.
	f, err := dispatch.New("host")
	require.NoError(t, err)
	b, ok := f.(*Backend)
	require.True(t, ok)

	marks := make([]int, 100)
	b.Configure(WithLanes(4), WithKernel(markingKernel(marks)))

	res, err := dispatch.Run(b, rows{n: 100}, b.Lanes(), dispatch.WithoutAux())
	require.NoError(t, err)
	require.Equal(t, dispatch.Success, res.Status)
	for i, m := range marks {
		require.Equal(t, 1, m, "row %d processed %d times", i, m)
	}
}

func TestBackendExecFaultTriggersRemap(t *testing.T) {
	marks := make([]int, 40)
	b := New(
		WithLanes(4),
		WithKernel(markingKernel(marks)),
		WithFaults(FaultPlan{ExecFailures: map[int]int{1: 1}}),
	)
	res, err := dispatch.Run(b, rows{n: 40}, 4)
	require.NoError(t, err)
	require.Equal(t, dispatch.Success, res.Status)
	d, found := res.RemapTable[1]
	require.True(t, found)
	require.NotEqual(t, 1, d)
	for i, m := range marks {
		require.Equal(t, 1, m, "row %d processed %d times", i, m)
	}
}

func TestBackendAllocFaultAbsorbedByRetry(t *testing.T) {
	b := New(WithLanes(2), WithFaults(FaultPlan{AllocFailures: map[int]int{1: 2}}))
	require.NoError(t, b.BindData(rows{n: 4}))
	require.NoError(t, b.AllocateResources())
	require.False(t, b.Fail())
	require.NoError(t, b.ReleaseResources())
}

func TestBackendAllocFaultPermanent(t *testing.T) {
	marks := make([]int, 16)
	b := New(
		WithLanes(4),
		WithKernel(markingKernel(marks)),
		WithFaults(FaultPlan{AllocFailures: map[int]int{2: 100}}),
	)
	res, err := dispatch.Run(b, rows{n: 16}, 4, dispatch.WithoutAux())
	require.NoError(t, err)
	require.Equal(t, dispatch.Success, res.Status, "the dead lane's share runs on an idle lane")
	require.Contains(t, res.RemapTable, 2)
	for i, m := range marks {
		require.Equal(t, 1, m, "row %d processed %d times", i, m)
	}
}

func TestBackendAuxHonorsCancel(t *testing.T) {
	b := New(WithLanes(1))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.AuxFunctor(ctx) }()
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("aux functor did not honor cancellation")
	}
}
