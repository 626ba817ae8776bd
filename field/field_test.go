package field

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/emagsim/dispatch"
	"github.com/emagsim/dispatch/hostdev"
)

func TestEFieldSingleCharge(t *testing.T) {
	charges := []PointCharge{{Pos: Vec3{}, Charge: 1e-9}}
	e := EField(charges, Vec3{X: 1})
	require.InDelta(t, 8.9875517923, float64(e.X), 1e-3, "E = k*q/d² along x")
	require.Zero(t, e.Y)
	require.Zero(t, e.Z)

	// Twice the distance, a quarter of the magnitude.
	e2 := EField(charges, Vec3{X: 2})
	require.InDelta(t, float64(e.X)/4, float64(e2.X), 1e-3)
}

func TestEFieldSuperposition(t *testing.T) {
	a := []PointCharge{{Pos: Vec3{X: -1}, Charge: 2e-9}}
	b := []PointCharge{{Pos: Vec3{Y: 1}, Charge: -1e-9}}
	p := Vec3{X: 0.5, Y: -0.5, Z: 0.25}

	both := EField(append(append([]PointCharge{}, a...), b...), p)
	sum := EField(a, p).Add(EField(b, p))
	require.InDelta(t, float64(sum.X), float64(both.X), 1e-3)
	require.InDelta(t, float64(sum.Y), float64(both.Y), 1e-3)
	require.InDelta(t, float64(sum.Z), float64(both.Z), 1e-3)
}

func TestEFieldSingularitySkipped(t *testing.T) {
	charges := []PointCharge{{Pos: Vec3{X: 1}, Charge: 1e-9}}
	e := EField(charges, Vec3{X: 1})
	require.Zero(t, e.Norm(), "the field at a charge's own position is clamped to zero")
}

func TestTraceLineFromPositiveCharge(t *testing.T) {
	charges := []PointCharge{{Pos: Vec3{}, Charge: 1e-9}}
	line := TraceLine(charges, Vec3{X: 0.1}, 100, 0.01)
	require.Len(t, line, 101)

	// The line leaves a positive charge radially: x strictly increases.
	for i := 1; i < len(line); i++ {
		require.Greater(t, line[i].X, line[i-1].X)
		require.Zero(t, line[i].Y)
		require.Zero(t, line[i].Z)
	}
	require.InDelta(t, 1.1, float64(line[len(line)-1].X), 1e-3)
}

func TestKernelValidatesData(t *testing.T) {
	require.Error(t, Kernel(nil, 42, 0, 0))
	unprepared := &Problem{Starts: make([]Vec3, 3)}
	require.Error(t, Kernel(nil, unprepared, 0, 3))
}

func TestProblemThroughDispatch(t *testing.T) {
	charges := []PointCharge{
		{Pos: Vec3{X: -1}, Charge: 1e-9},
		{Pos: Vec3{X: 1}, Charge: -1e-9},
	}
	starts := make([]Vec3, 9)
	for i := range starts {
		starts[i] = Vec3{X: -0.9, Y: float32(i-4) * 0.2}
	}
	problem := NewProblem(charges, starts, 200, 0.01)

	backend := hostdev.New(hostdev.WithLanes(3), hostdev.WithKernel(Kernel))
	res, err := dispatch.Run(backend, problem, backend.Lanes(), dispatch.WithoutAux())
	require.NoError(t, err)
	require.Equal(t, dispatch.Success, res.Status)
	for i, line := range problem.Lines {
		require.NotEmpty(t, line, "line %d was not traced", i)
		require.Equal(t, starts[i], line[0])
	}
}
