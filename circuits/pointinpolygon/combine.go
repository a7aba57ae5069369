package pointinpolygon

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark/frontend"

	"github.com/zklocus/zklocus-core/internal/circuitsetup"
	"github.com/zklocus/zklocus-core/internal/nativehash"
	"github.com/zklocus/zklocus-core/zkerr"
)

// assertCombinable asserts the two preconditions every AND/OR combine
// shares (spec.md §4.3): same query coordinate, distinct polygons. It
// returns the combined polygon commitment.
func assertCombinable(api frontend.API, p1Coord, p1Poly, p2Coord, p2Poly frontend.Variable) (frontend.Variable, error) {
	api.AssertIsEqual(p1Coord, p2Coord)

	diff := api.Sub(p1Poly, p2Poly)
	api.AssertIsEqual(api.IsZero(diff), 0)

	h, err := newPoseidon(api)
	if err != nil {
		return nil, err
	}
	h.Write(p1Poly, p2Poly)
	return h.Sum(), nil
}

// ANDCircuit is C3's AND combiner: both input proofs must agree on
// isInside; the shared value is output (spec.md §4.3, §9
// "polarity-equal AND"). A prover handed mismatched proofs simply
// cannot satisfy AssertIsEqual below; andAssignment turns that failure
// into zkerr.PolarityMismatch via a preflight check before proving.
type ANDCircuit struct {
	P1CoordinateCommitment frontend.Variable
	P1PolygonCommitment    frontend.Variable
	P1IsInside             frontend.Variable
	P2CoordinateCommitment frontend.Variable
	P2PolygonCommitment    frontend.Variable
	P2IsInside             frontend.Variable

	CoordinateCommitment frontend.Variable `gnark:",public"`
	PolygonCommitment    frontend.Variable `gnark:",public"`
	IsInside             frontend.Variable `gnark:",public"`
}

// Define implements frontend.Circuit.
func (c *ANDCircuit) Define(api frontend.API) error {
	poly, err := assertCombinable(api, c.P1CoordinateCommitment, c.P1PolygonCommitment, c.P2CoordinateCommitment, c.P2PolygonCommitment)
	if err != nil {
		return err
	}
	api.AssertIsEqual(c.P1IsInside, c.P2IsInside)

	api.AssertIsEqual(c.P1CoordinateCommitment, c.CoordinateCommitment)
	api.AssertIsEqual(poly, c.PolygonCommitment)
	api.AssertIsEqual(c.P1IsInside, c.IsInside)
	return nil
}

// ORCircuit is C3's OR combiner: the output isInside is the boolean OR
// of the two inputs (spec.md §4.3).
type ORCircuit struct {
	P1CoordinateCommitment frontend.Variable
	P1PolygonCommitment    frontend.Variable
	P1IsInside             frontend.Variable
	P2CoordinateCommitment frontend.Variable
	P2PolygonCommitment    frontend.Variable
	P2IsInside             frontend.Variable

	CoordinateCommitment frontend.Variable `gnark:",public"`
	PolygonCommitment    frontend.Variable `gnark:",public"`
	IsInside             frontend.Variable `gnark:",public"`
}

// Define implements frontend.Circuit.
func (c *ORCircuit) Define(api frontend.API) error {
	poly, err := assertCombinable(api, c.P1CoordinateCommitment, c.P1PolygonCommitment, c.P2CoordinateCommitment, c.P2PolygonCommitment)
	if err != nil {
		return err
	}

	api.AssertIsEqual(c.P1CoordinateCommitment, c.CoordinateCommitment)
	api.AssertIsEqual(poly, c.PolygonCommitment)
	api.AssertIsEqual(api.Or(c.P1IsInside, c.P2IsInside), c.IsInside)
	return nil
}

// PairWitness is the native-value witness shared by AND and OR: two
// upstream C3 results, already verified by the caller (session.go)
// before this witness is built.
type PairWitness struct {
	P1 Result
	P2 Result
}

func (w PairWitness) combinedPolygonCommitment() (*big.Int, error) {
	h, err := nativehash.Poseidon2BN254([]*big.Int{w.P1.PolygonCommitment, w.P2.PolygonCommitment})
	if err != nil {
		return nil, fmt.Errorf("pointinpolygon: combine polygon commitment: %w", err)
	}
	return h, nil
}

// andAssignment / orAssignment build the circuit assignment for their
// respective combiner, each validating the precondition its circuit
// will otherwise fail to prove.
func (w PairWitness) andAssignment() (*ANDCircuit, error) {
	if w.P1.PolygonCommitment.Cmp(w.P2.PolygonCommitment) == 0 {
		return nil, fmt.Errorf("%w", zkerr.DuplicatePolygon)
	}
	if w.P1.IsInside != w.P2.IsInside {
		return nil, fmt.Errorf("%w", zkerr.PolarityMismatch)
	}
	poly, err := w.combinedPolygonCommitment()
	if err != nil {
		return nil, err
	}
	return &ANDCircuit{
		P1CoordinateCommitment: w.P1.CoordinateCommitment,
		P1PolygonCommitment:    w.P1.PolygonCommitment,
		P1IsInside:             boolVar(w.P1.IsInside),
		P2CoordinateCommitment: w.P2.CoordinateCommitment,
		P2PolygonCommitment:    w.P2.PolygonCommitment,
		P2IsInside:             boolVar(w.P2.IsInside),
		CoordinateCommitment:   w.P1.CoordinateCommitment,
		PolygonCommitment:      poly,
		IsInside:               boolVar(w.P1.IsInside),
	}, nil
}

func (w PairWitness) orAssignment() (*ORCircuit, error) {
	if w.P1.PolygonCommitment.Cmp(w.P2.PolygonCommitment) == 0 {
		return nil, fmt.Errorf("%w", zkerr.DuplicatePolygon)
	}
	poly, err := w.combinedPolygonCommitment()
	if err != nil {
		return nil, err
	}
	return &ORCircuit{
		P1CoordinateCommitment: w.P1.CoordinateCommitment,
		P1PolygonCommitment:    w.P1.PolygonCommitment,
		P1IsInside:             boolVar(w.P1.IsInside),
		P2CoordinateCommitment: w.P2.CoordinateCommitment,
		P2PolygonCommitment:    w.P2.PolygonCommitment,
		P2IsInside:             boolVar(w.P2.IsInside),
		CoordinateCommitment:   w.P1.CoordinateCommitment,
		PolygonCommitment:      poly,
		IsInside:               boolVar(w.P1.IsInside || w.P2.IsInside),
	}, nil
}

// CompileAND / CompileOR lazily compile and set up the AND/OR
// combiners' constraint systems and keys.
func CompileAND() (*circuitsetup.Compiled, error) {
	var placeholder ANDCircuit
	return circuitsetup.Compile(NameAND, Curve, &placeholder)
}

func CompileOR() (*circuitsetup.Compiled, error) {
	var placeholder ORCircuit
	return circuitsetup.Compile(NameOR, Curve, &placeholder)
}

// ProveAND requires w.P1 and w.P2 to share coordinateCommitment,
// differ in polygonCommitment, and agree on isInside. A duplicate
// polygon or differing isInside fails fast with zkerr.DuplicatePolygon
// or zkerr.PolarityMismatch without ever invoking the prover; a
// coordinate mismatch is not checked natively and surfaces as a prover
// error.
func ProveAND(w PairWitness) (*Proof, error) {
	compiled, err := CompileAND()
	if err != nil {
		return nil, err
	}
	assignment, err := w.andAssignment()
	if err != nil {
		return nil, err
	}
	poly, err := w.combinedPolygonCommitment()
	if err != nil {
		return nil, err
	}
	proof, public, err := compiled.Prove(assignment)
	if err != nil {
		return nil, err
	}
	return &Proof{
		Compiled: compiled,
		Proof:    proof,
		Public:   public,
		Result: Result{
			CoordinateCommitment: w.P1.CoordinateCommitment,
			PolygonCommitment:    poly,
			IsInside:             w.P1.IsInside,
		},
	}, nil
}

// ProveOR requires w.P1 and w.P2 to share coordinateCommitment and
// differ in polygonCommitment. A duplicate polygon fails fast with
// zkerr.DuplicatePolygon; a coordinate mismatch is not checked natively
// and surfaces as a prover error.
func ProveOR(w PairWitness) (*Proof, error) {
	compiled, err := CompileOR()
	if err != nil {
		return nil, err
	}
	assignment, err := w.orAssignment()
	if err != nil {
		return nil, err
	}
	poly, err := w.combinedPolygonCommitment()
	if err != nil {
		return nil, err
	}
	proof, public, err := compiled.Prove(assignment)
	if err != nil {
		return nil, err
	}
	return &Proof{
		Compiled: compiled,
		Proof:    proof,
		Public:   public,
		Result: Result{
			CoordinateCommitment: w.P1.CoordinateCommitment,
			PolygonCommitment:    poly,
			IsInside:             w.P1.IsInside || w.P2.IsInside,
		},
	}, nil
}
