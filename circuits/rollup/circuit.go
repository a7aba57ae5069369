// Package rollup implements C4 (InOrOutRollup): lifting a single
// PointInPolygon proof into a two-sided accumulator, and combining two
// accumulators while keeping each side's fold independent (spec.md
// §4.4 and §9 — the source's combine-rollup typo, where the final
// assignment reused the inside fold's variable for the outside slot,
// is fixed here by running combineSide twice against distinct
// operand pairs rather than once).
//
// Both circuits are compiled over BN254 and, like circuits/pointinpolygon,
// consume their upstream proof's revealed public output as a private
// input under the module's sequential-trust discipline (see DESIGN.md).
package rollup

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/backend/witness"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/hash"
	"github.com/consensys/gnark/std/permutation/poseidon2"

	"github.com/zklocus/zklocus-core/internal/circuitsetup"
	"github.com/zklocus/zklocus-core/internal/nativehash"
	"github.com/zklocus/zklocus-core/zkerr"
)

// Curve is the curve every circuit in this package is compiled over.
const Curve = ecc.BN254

// NameLift/NameCombine are the registered circuit-cache names.
const (
	NameLift    = "rollup.lift.v1"
	NameCombine = "rollup.combine.v1"
)

func newPoseidon(api frontend.API) (hash.FieldHasher, error) {
	p, err := poseidon2.NewPoseidon2FromParameters(api, 2, 6, 50)
	if err != nil {
		return nil, fmt.Errorf("rollup: poseidon2 init: %w", err)
	}
	return hash.NewMerkleDamgardHasher(api, p, 0), nil
}

// combineSide implements §4.4's per-side fold: zero if both sides are
// zero, the non-zero operand if exactly one is, otherwise their
// Poseidon fold.
func combineSide(api frontend.API, a, b frontend.Variable) (frontend.Variable, error) {
	aZero := api.IsZero(a)
	bZero := api.IsZero(b)
	bothZero := api.And(aZero, bZero)

	h, err := newPoseidon(api)
	if err != nil {
		return nil, err
	}
	h.Write(a, b)
	fold := h.Sum()

	result := api.Select(bZero, a, fold)
	result = api.Select(aZero, b, result)
	result = api.Select(bothZero, 0, result)
	return result, nil
}

// LiftCircuit lifts a single point-in-polygon result into an
// accumulator with exactly one non-zero side.
type LiftCircuit struct {
	CoordinateCommitment frontend.Variable
	PolygonCommitment    frontend.Variable
	IsInside             frontend.Variable

	CoordinateCommitmentOut frontend.Variable `gnark:",public"`
	InsideCommitment        frontend.Variable `gnark:",public"`
	OutsideCommitment       frontend.Variable `gnark:",public"`
}

// Define implements frontend.Circuit.
func (c *LiftCircuit) Define(api frontend.API) error {
	api.AssertIsBoolean(c.IsInside)

	inside := api.Select(c.IsInside, c.PolygonCommitment, 0)
	outside := api.Select(c.IsInside, 0, c.PolygonCommitment)

	api.AssertIsEqual(c.CoordinateCommitment, c.CoordinateCommitmentOut)
	api.AssertIsEqual(inside, c.InsideCommitment)
	api.AssertIsEqual(outside, c.OutsideCommitment)
	return nil
}

// CombineCircuit combines two accumulators for the same coordinate,
// rejecting a no-op combination where neither side changes.
type CombineCircuit struct {
	A1CoordinateCommitment frontend.Variable
	A1InsideCommitment     frontend.Variable
	A1OutsideCommitment    frontend.Variable
	A2CoordinateCommitment frontend.Variable
	A2InsideCommitment     frontend.Variable
	A2OutsideCommitment    frontend.Variable

	CoordinateCommitment frontend.Variable `gnark:",public"`
	InsideCommitment     frontend.Variable `gnark:",public"`
	OutsideCommitment    frontend.Variable `gnark:",public"`
}

// Define implements frontend.Circuit.
func (c *CombineCircuit) Define(api frontend.API) error {
	api.AssertIsEqual(c.A1CoordinateCommitment, c.A2CoordinateCommitment)

	sameInside := api.IsZero(api.Sub(c.A1InsideCommitment, c.A2InsideCommitment))
	sameOutside := api.IsZero(api.Sub(c.A1OutsideCommitment, c.A2OutsideCommitment))
	api.AssertIsEqual(api.And(sameInside, sameOutside), 0)

	inside, err := combineSide(api, c.A1InsideCommitment, c.A2InsideCommitment)
	if err != nil {
		return err
	}
	outside, err := combineSide(api, c.A1OutsideCommitment, c.A2OutsideCommitment)
	if err != nil {
		return err
	}

	api.AssertIsEqual(c.A1CoordinateCommitment, c.CoordinateCommitment)
	api.AssertIsEqual(inside, c.InsideCommitment)
	api.AssertIsEqual(outside, c.OutsideCommitment)
	return nil
}

// Result is the decoded public output shared by both circuits.
type Result struct {
	CoordinateCommitment *big.Int
	InsideCommitment     *big.Int
	OutsideCommitment    *big.Int
}

// Proof bundles a produced lift/combine proof with its decoded result.
type Proof struct {
	Compiled *circuitsetup.Compiled
	Proof    groth16.Proof
	Public   witness.Witness
	Result   Result
}

// LiftWitness is the native-value witness for LiftCircuit, built from
// an upstream pointinpolygon.Result already verified by the caller.
type LiftWitness struct {
	CoordinateCommitment *big.Int
	PolygonCommitment    *big.Int
	IsInside             bool
}

func boolVar(b bool) *big.Int {
	if b {
		return big.NewInt(1)
	}
	return big.NewInt(0)
}

func (w LiftWitness) assignment() *LiftCircuit {
	var inside, outside *big.Int
	if w.IsInside {
		inside, outside = w.PolygonCommitment, big.NewInt(0)
	} else {
		inside, outside = big.NewInt(0), w.PolygonCommitment
	}
	return &LiftCircuit{
		CoordinateCommitment:    w.CoordinateCommitment,
		PolygonCommitment:       w.PolygonCommitment,
		IsInside:                boolVar(w.IsInside),
		CoordinateCommitmentOut: w.CoordinateCommitment,
		InsideCommitment:        inside,
		OutsideCommitment:       outside,
	}
}

// CompileLift lazily compiles and sets up the lift circuit.
func CompileLift() (*circuitsetup.Compiled, error) {
	var placeholder LiftCircuit
	return circuitsetup.Compile(NameLift, Curve, &placeholder)
}

// Lift proves a single-proof accumulator for w.
func Lift(w LiftWitness) (*Proof, error) {
	compiled, err := CompileLift()
	if err != nil {
		return nil, err
	}
	assignment := w.assignment()
	proof, public, err := compiled.Prove(assignment)
	if err != nil {
		return nil, err
	}

	inside, outside := big.NewInt(0), w.PolygonCommitment
	if w.IsInside {
		inside, outside = w.PolygonCommitment, big.NewInt(0)
	}
	return &Proof{
		Compiled: compiled,
		Proof:    proof,
		Public:   public,
		Result: Result{
			CoordinateCommitment: w.CoordinateCommitment,
			InsideCommitment:     inside,
			OutsideCommitment:    outside,
		},
	}, nil
}

// CombineWitness is the native-value witness for CombineCircuit.
type CombineWitness struct {
	A1, A2 Result
}

func combineSideNative(a, b *big.Int) (*big.Int, error) {
	aZero := a.Sign() == 0
	bZero := b.Sign() == 0
	switch {
	case aZero && bZero:
		return big.NewInt(0), nil
	case bZero:
		return a, nil
	case aZero:
		return b, nil
	default:
		h, err := nativehash.Poseidon2BN254([]*big.Int{a, b})
		if err != nil {
			return nil, fmt.Errorf("rollup: combine side: %w", err)
		}
		return h, nil
	}
}

func (w CombineWitness) assignment() (*CombineCircuit, Result, error) {
	if w.A1.CoordinateCommitment.Cmp(w.A2.CoordinateCommitment) != 0 {
		return nil, Result{}, fmt.Errorf("%w: accumulators disagree on coordinate", zkerr.CoordinateMismatch)
	}
	if w.A1.InsideCommitment.Cmp(w.A2.InsideCommitment) == 0 && w.A1.OutsideCommitment.Cmp(w.A2.OutsideCommitment) == 0 {
		return nil, Result{}, fmt.Errorf("%w", zkerr.DuplicateAccumulator)
	}

	inside, err := combineSideNative(w.A1.InsideCommitment, w.A2.InsideCommitment)
	if err != nil {
		return nil, Result{}, err
	}
	outside, err := combineSideNative(w.A1.OutsideCommitment, w.A2.OutsideCommitment)
	if err != nil {
		return nil, Result{}, err
	}

	result := Result{
		CoordinateCommitment: w.A1.CoordinateCommitment,
		InsideCommitment:     inside,
		OutsideCommitment:    outside,
	}
	return &CombineCircuit{
		A1CoordinateCommitment: w.A1.CoordinateCommitment,
		A1InsideCommitment:     w.A1.InsideCommitment,
		A1OutsideCommitment:    w.A1.OutsideCommitment,
		A2CoordinateCommitment: w.A2.CoordinateCommitment,
		A2InsideCommitment:     w.A2.InsideCommitment,
		A2OutsideCommitment:    w.A2.OutsideCommitment,
		CoordinateCommitment:   result.CoordinateCommitment,
		InsideCommitment:       result.InsideCommitment,
		OutsideCommitment:      result.OutsideCommitment,
	}, result, nil
}

// CompileCombine lazily compiles and sets up the combine circuit.
func CompileCombine() (*circuitsetup.Compiled, error) {
	var placeholder CombineCircuit
	return circuitsetup.Compile(NameCombine, Curve, &placeholder)
}

// Combine requires w.A1 and w.A2 to share coordinateCommitment and not
// be a no-op combination; otherwise it fails fast with
// zkerr.CoordinateMismatch or zkerr.DuplicateAccumulator.
func Combine(w CombineWitness) (*Proof, error) {
	compiled, err := CompileCombine()
	if err != nil {
		return nil, err
	}
	assignment, result, err := w.assignment()
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
		Result:   result,
	}, nil
}

// Verify checks p against its circuit's verification key.
func Verify(p *Proof) error {
	return p.Compiled.Verify(p.Proof, p.Public)
}
