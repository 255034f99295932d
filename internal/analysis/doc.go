// Package analysis inspects finished trajectories.
//
// Explicit Euler does not correct itself: a step that is too large for the
// rates shows up as compartments leaving [0, N] or as drift in the total.
// The simulator never clamps such values; [Inspect] reports them so callers
// and tests can decide what to do.
package analysis
