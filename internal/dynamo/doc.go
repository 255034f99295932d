// Package dynamo provides the core primitives for compartmental simulation.
//
// The package defines the types shared by every rate model and integrator:
//
//   - [State]: compartment vector, one value per named compartment
//   - [System]: rate model interface (dX/dt = f(X))
//   - [Integrator]: fixed-step numerical integrator interface
//   - [Grid]: evenly spaced time grid
//   - [Simulator]: advances a state across a grid and assembles the trajectory
//
// # Example
//
//	model, _ := epidemic.NewSEIR(epidemic.BaseParams{Alpha: 0.2, Beta: 1.75, Gamma: 0.5})
//	sim := dynamo.New(model, integrators.NewEuler())
//	result, _ := sim.Run(ctx, x0, dynamo.NewGrid(100, 0.1))
//
// # Thread Safety
//
// Simulator instances are NOT thread-safe. For parallel runs use [Ensemble],
// which gives every job its own simulator, state and trajectory.
package dynamo
