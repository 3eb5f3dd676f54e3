package integrators

import "github.com/san-kum/flightdyn/internal/dynamo"

// Euler is the explicit first-order method, kept for comparison runs.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t float64, dt float64) dynamo.State {
	dx := dyn.Derive(x, u, t)
	next := make(dynamo.State, len(x))
	axpy(next, x, dx, dt)
	return next
}
