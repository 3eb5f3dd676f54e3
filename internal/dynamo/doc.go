// Package dynamo provides the core primitives of the flight dynamics model.
//
// The package defines the numerical contract between the aircraft equations
// of motion and the fixed-step integrators:
//
//   - [State]: the 12-element rigid-body state vector
//   - [System]: interface for ODE systems (dX/dt = f(X, u, t))
//   - [Integrator]: fixed-step numerical integrator interface
//   - [Metric]: per-tick run statistics
//
// # State layout
//
// Index constants name the slots of [State]: body velocities (U, V, W),
// body rates (P, Q, R), Euler angles (Phi, Theta, Psi) and NED position
// (North, East, Down). SI units and radians throughout.
//
// # Thread Safety
//
// Nothing in this package is synchronized. A State is owned by a single
// integrator; consumers receive clones.
package dynamo
