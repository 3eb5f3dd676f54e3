package integrators

import (
	"math"
	"testing"

	"github.com/san-kum/flightdyn/internal/dynamo"
)

type oscillator struct{}

func (o *oscillator) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	return dynamo.State{x[1], -x[0]}
}

func (o *oscillator) StateDim() int   { return 2 }
func (o *oscillator) ControlDim() int { return 0 }

func TestRK4Accuracy(t *testing.T) {
	dyn := &oscillator{}
	integ := NewRK4()

	x := dynamo.State{1.0, 0.0}
	dt := 0.01
	steps := 100

	for i := 0; i < steps; i++ {
		x = integ.Step(dyn, x, nil, float64(i)*dt, dt)
	}

	expectedX := math.Cos(float64(steps) * dt)
	expectedV := -math.Sin(float64(steps) * dt)

	if math.Abs(x[0]-expectedX) > 1e-8 {
		t.Errorf("position error too large: got %.10f, expected %.10f", x[0], expectedX)
	}
	if math.Abs(x[1]-expectedV) > 1e-8 {
		t.Errorf("velocity error too large: got %.10f, expected %.10f", x[1], expectedV)
	}
}

func TestRK4FourthOrderConvergence(t *testing.T) {
	dyn := &oscillator{}
	errAt := func(dt float64) float64 {
		integ := NewRK4()
		x := dynamo.State{1.0, 0.0}
		steps := int(math.Round(1.0 / dt))
		for i := 0; i < steps; i++ {
			x = integ.Step(dyn, x, nil, float64(i)*dt, dt)
		}
		return math.Abs(x[0] - math.Cos(1.0))
	}

	ratio := errAt(0.1) / errAt(0.05)
	// halving dt should cut the global error by ~2^4
	if ratio < 12 || ratio > 20 {
		t.Errorf("error ratio %.2f not consistent with a 4th-order method", ratio)
	}
}

func TestRK4Deterministic(t *testing.T) {
	dyn := &oscillator{}
	integ := NewRK4()
	x := dynamo.State{0.3, -0.7}

	a := integ.Step(dyn, x, nil, 0, 0.05)
	b := integ.Step(dyn, x, nil, 0, 0.05)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("slot %d differs: %v vs %v", i, a[i], b[i])
		}
	}
	if x[0] != 0.3 || x[1] != -0.7 {
		t.Error("Step mutated its input state")
	}
}

func TestEulerFirstOrder(t *testing.T) {
	dyn := &oscillator{}
	x := NewEuler().Step(dyn, dynamo.State{1, 0}, nil, 0, 0.1)
	if x[0] != 1 || math.Abs(x[1]+0.1) > 1e-15 {
		t.Errorf("unexpected euler step: %v", x)
	}
}

func TestRegistry(t *testing.T) {
	for _, name := range Names() {
		if _, err := New(name); err != nil {
			t.Errorf("New(%q): %v", name, err)
		}
	}
	if _, err := New("verlet"); err == nil {
		t.Error("expected error for unknown integrator")
	}
}
