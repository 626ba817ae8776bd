// Package field computes electrostatic field lines over a set of point
// charges. It provides the numeric workload for the host device back-end:
// tracing a field line is independent per starting point, so a line set
// partitions cleanly across devices.
package field

import (
	"github.com/chewxy/math32"
	"github.com/pkg/errors"

	"github.com/emagsim/dispatch/hostdev"
)

// CoulombConstant in N·m²/C².
const CoulombConstant float32 = 8.9875517923e9

// minDistance clamps the singularity at a charge's position.
const minDistance float32 = 1e-6

// Vec3 is a 3-component float32 vector.
type Vec3 struct {
	X, Y, Z float32
}

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }

// Scale returns v scaled by s.
func (v Vec3) Scale(s float32) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }

// Norm returns the Euclidean length of v.
func (v Vec3) Norm() float32 {
	return math32.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// PointCharge is a static charge, in SI units.
type PointCharge struct {
	Pos    Vec3
	Charge float32 // Coulombs
}

// EField returns the electric field at p as the superposition of the fields
// of all charges. Points closer than minDistance to a charge are skipped to
// avoid the singularity.
func EField(charges []PointCharge, p Vec3) Vec3 {
	var e Vec3
	for _, c := range charges {
		r := p.Sub(c.Pos)
		d := r.Norm()
		if d < minDistance {
			continue
		}
		// E = k*q/d² along r̂, i.e. k*q/d³ * r.
		e = e.Add(r.Scale(CoulombConstant * c.Charge / (d * d * d)))
	}
	return e
}

// TraceLine advects a field line from start, stepping resolution along the
// normalized field direction each step. Tracing stops early where the field
// vanishes (at equilibrium points or inside the minDistance clamp).
func TraceLine(charges []PointCharge, start Vec3, steps int, resolution float32) []Vec3 {
	line := make([]Vec3, 1, steps+1)
	line[0] = start
	p := start
	for i := 0; i < steps; i++ {
		e := EField(charges, p)
		n := e.Norm()
		if n == 0 || math32.IsNaN(n) || math32.IsInf(n, 0) {
			break
		}
		p = p.Add(e.Scale(resolution / n))
		line = append(line, p)
	}
	return line
}

// Problem is a field-line dataset: one line is traced per start point.
// It implements hostdev.Sized, so it can be bound to the host back-end.
type Problem struct {
	Charges    []PointCharge
	Starts     []Vec3
	Steps      int
	Resolution float32

	// Lines receives the traced field lines, one per start point; filled in
	// by Kernel. Partitions write disjoint index ranges.
	Lines [][]Vec3
}

// NewProblem builds a Problem with the Lines output preallocated.
func NewProblem(charges []PointCharge, starts []Vec3, steps int, resolution float32) *Problem {
	return &Problem{
		Charges:    charges,
		Starts:     starts,
		Steps:      steps,
		Resolution: resolution,
		Lines:      make([][]Vec3, len(starts)),
	}
}

// Len returns the number of field lines to trace.
func (p *Problem) Len() int { return len(p.Starts) }

// Kernel is a hostdev.Kernel tracing field lines [lo, hi) of the bound
// Problem.
func Kernel(_ *hostdev.Lane, data any, lo, hi int) error {
	p, ok := data.(*Problem)
	if !ok {
		return errors.Errorf("expected a *field.Problem dataset, got %T", data)
	}
	if len(p.Lines) != len(p.Starts) {
		return errors.New("problem not prepared: Lines not preallocated (use NewProblem)")
	}
	for i := lo; i < hi; i++ {
		p.Lines[i] = TraceLine(p.Charges, p.Starts[i], p.Steps, p.Resolution)
	}
	return nil
}
