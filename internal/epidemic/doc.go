// Package epidemic implements compartmental epidemic rate models.
//
// Every model is a [Network] of named fluxes. A flux moves population from
// exactly one source compartment to exactly one target compartment at a
// rate computed from the current state, so the rates of a network always sum
// to zero and the population is closed by construction.
//
// Three variants are provided, each with a fixed compartment ordering:
//
//	NewSEIR            S, E, I, R
//	NewDistancingSEIR  S, E, I, R
//	NewDetentionSEIR   P, S, E, I, Q, R, D
//
// Models are immutable after construction and safe for concurrent use.
package epidemic
