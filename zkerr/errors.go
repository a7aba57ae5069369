// Package zkerr defines the named, recoverable error kinds every
// precondition violation in zklocus-core maps to. Nothing in this
// module panics for an expected failure mode; callers are expected to
// branch on errors.Is against these sentinels.
package zkerr

import "errors"

var (
	// InvalidCoordinateDomain signals latitude, longitude, or factor out of range.
	InvalidCoordinateDomain = errors.New("zklocus: invalid coordinate domain")

	// FactorMismatch signals a query point and a triangle's vertices disagree on factor.
	FactorMismatch = errors.New("zklocus: coordinate factor mismatch")

	// DegenerateTriangle signals a triangle with zero signed area.
	DegenerateTriangle = errors.New("zklocus: degenerate triangle")

	// Unauthenticated signals an operation that requires a prior oracle attestation.
	Unauthenticated = errors.New("zklocus: unauthenticated coordinate")

	// MissingProofSet signals a rollup requested with an empty inside or outside list.
	MissingProofSet = errors.New("zklocus: missing proof set")

	// InsufficientProofs signals a combine requested with fewer than two inputs.
	InsufficientProofs = errors.New("zklocus: insufficient proofs to combine")

	// DuplicatePolygon signals AND/OR/combine given two proofs over the same polygon commitment.
	DuplicatePolygon = errors.New("zklocus: duplicate polygon commitment")

	// PolarityMismatch signals AND given two proofs with differing isInside bits.
	PolarityMismatch = errors.New("zklocus: polarity mismatch")

	// CoordinateMismatch signals two proofs that do not share a coordinate commitment.
	CoordinateMismatch = errors.New("zklocus: coordinate commitment mismatch")

	// DuplicateAccumulator signals a rollup combine given two identical accumulators.
	DuplicateAccumulator = errors.New("zklocus: duplicate accumulator")

	// SignatureInvalid signals an oracle attestation that fails in-circuit.
	SignatureInvalid = errors.New("zklocus: signature invalid")

	// ProverFailure signals the SNARK backend refused to produce or verify a proof.
	ProverFailure = errors.New("zklocus: prover failure")
)
