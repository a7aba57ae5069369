// Package provider implements C2 (CoordinateProvider): normalizing a
// coordinate from an accepted authentication source into the
// canonical provider proof every downstream circuit accepts.
//
// Today the only source is circuits/oracle (C1); the source is
// nonetheless carried as a tagged enum in the public output so a
// future source never requires downstream circuits to change shape
// (spec.md §9, "dynamic dispatch over authentication source").
//
// C2 is the one circuit in this module that performs genuine in-circuit
// recursive verification of a prior proof: it is compiled over BW6-761
// and recursively verifies C1's BLS12-377 proof via gnark's
// std/recursion/groth16 verifier, mirroring the aggregation pattern in
// vocdoni-davinci-node/aggregator.go (there: a BW6-761-native outer
// circuit batch-verifying BLS12-377 vote proofs; here: a single
// fixed-arity inner verification, since a provider proof only ever
// wraps exactly one upstream attestation). See DESIGN.md for why the
// AND/OR/rollup combiners downstream of this package do not repeat
// this pattern at every fold step.
package provider

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	bn "github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/backend/witness"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/algebra/native/sw_bls12377"
	"github.com/consensys/gnark/std/hash"
	"github.com/consensys/gnark/std/math/emulated"
	"github.com/consensys/gnark/std/permutation/poseidon2"
	"github.com/consensys/gnark/std/recursion/groth16"

	"github.com/zklocus/zklocus-core/circuits/oracle"
	"github.com/zklocus/zklocus-core/internal/circuitsetup"
	"github.com/zklocus/zklocus-core/internal/nativehash"
	"github.com/zklocus/zklocus-core/zkerr"
)

// Curve is the curve this circuit is compiled over.
const Curve = ecc.BW6_761

// Name is the registered circuit-cache name.
const Name = "provider.coordinate.v1"

// Source tags which authentication source produced a provider proof.
type Source int

// SourceOracle is the only source implemented today (spec.md §9).
const SourceOracle Source = 0

// Circuit is C2. It recursively verifies one C1 proof and re-derives a
// native (BW6-761-field) coordinate commitment from the same private
// coordinate values the upstream C1 witness used, exposing both the
// exact coordinate and the commitment as public outputs for every
// downstream circuit to consume without recursing any further.
type Circuit struct {
	// Private: the inner oracle proof being wrapped.
	InnerProof          groth16.Proof[sw_bls12377.G1Affine, sw_bls12377.G2Affine]
	InnerVerifyingKey   groth16.VerifyingKey[sw_bls12377.G1Affine, sw_bls12377.G2Affine, sw_bls12377.GT] `gnark:"-"`
	InnerPublicWitness  groth16.Witness[sw_bls12377.ScalarField]

	// Private: the coordinate used to build both the inner proof and
	// this one.
	Latitude  frontend.Variable
	Longitude frontend.Variable
	Factor    frontend.Variable
	Nonce     frontend.Variable

	// Public outputs.
	Source                frontend.Variable                        `gnark:",public"`
	PublicKeyCommitment    emulated.Element[sw_bls12377.ScalarField] `gnark:",public"`
	CoordinateCommitment   frontend.Variable                        `gnark:",public"`
	LatitudeOut            frontend.Variable                        `gnark:",public"`
	LongitudeOut           frontend.Variable                        `gnark:",public"`
	FactorOut              frontend.Variable                        `gnark:",public"`
}

// Define implements frontend.Circuit.
func (c *Circuit) Define(api frontend.API) error {
	verifier, err := groth16.NewVerifier[sw_bls12377.ScalarField, sw_bls12377.G1Affine, sw_bls12377.G2Affine, sw_bls12377.GT](api)
	if err != nil {
		return fmt.Errorf("provider: new verifier: %w", err)
	}
	if err := verifier.AssertProof(c.InnerVerifyingKey, c.InnerProof, c.InnerPublicWitness, groth16.WithCompleteArithmetic()); err != nil {
		return fmt.Errorf("provider: assert inner proof: %w", err)
	}

	frField, err := emulated.NewField[sw_bls12377.ScalarField](api)
	if err != nil {
		return fmt.Errorf("provider: new field: %w", err)
	}
	// InnerPublicWitness.Public is declared in the same order as
	// oracle.Circuit's public outputs: [PublicKeyCommitment, CoordinateCommitment].
	frField.AssertIsEqual(&c.PublicKeyCommitment, &c.InnerPublicWitness.Public[0])

	// Only one source exists today; a future source would widen this
	// to a range check instead of a single equality.
	api.AssertIsEqual(c.Source, SourceOracle)

	p, err := poseidon2.NewPoseidon2FromParameters(api, 2, 6, 50)
	if err != nil {
		return fmt.Errorf("provider: poseidon2 init: %w", err)
	}
	coordHasher := hash.NewMerkleDamgardHasher(api, p, 0)
	coordHasher.Write(c.Latitude, c.Longitude, c.Factor)
	coordHash := coordHasher.Sum()

	commitHasher := hash.NewMerkleDamgardHasher(api, p, 0)
	commitHasher.Write(coordHash, c.Nonce)
	coordCommitment := commitHasher.Sum()
	api.AssertIsEqual(coordCommitment, c.CoordinateCommitment)

	api.AssertIsEqual(c.Latitude, c.LatitudeOut)
	api.AssertIsEqual(c.Longitude, c.LongitudeOut)
	api.AssertIsEqual(c.Factor, c.FactorOut)

	return nil
}

// Witness is the native-value assignment for Circuit.
//
// CoordinateCommitment must be the BW6-761-native commitment
// (NativeCoordinateCommitment below) Circuit.Define itself recomputes
// and asserts equal in-circuit — it is not the same value as the
// upstream oracle proof's own (BLS12-377-native) coordinate
// commitment, nor the BN254-native one downstream circuits consume.
type Witness struct {
	Inner *oracle.Proof

	Latitude, Longitude *big.Int
	Factor               uint8
	Nonce                *big.Int

	CoordinateCommitment *big.Int
}

// NativeCoordinateCommitment computes H(H(lat, lon, factor), nonce)
// over BW6-761, matching Circuit.Define's coordHasher/commitHasher
// pair, so a caller can precompute Witness.CoordinateCommitment.
func NativeCoordinateCommitment(lat, lon *big.Int, factor uint8, nonce *big.Int) (*big.Int, error) {
	coordHash, err := nativehash.Poseidon2BW6761([]*big.Int{lat, lon, new(big.Int).SetUint64(uint64(factor))})
	if err != nil {
		return nil, fmt.Errorf("provider: coordinate hash: %w", err)
	}
	h, err := nativehash.Poseidon2BW6761([]*big.Int{coordHash, nonce})
	if err != nil {
		return nil, fmt.Errorf("provider: coordinate commitment: %w", err)
	}
	return h, nil
}

// Assignment converts w into the circuit assignment Compile/Prove
// expects, bridging the native C1 proof into its in-circuit
// recursive-verifier representation.
func (w Witness) Assignment() (*Circuit, error) {
	innerVK, err := groth16.ValueOfVerifyingKey[sw_bls12377.G1Affine, sw_bls12377.G2Affine, sw_bls12377.GT](w.Inner.Compiled.VK)
	if err != nil {
		return nil, fmt.Errorf("provider: value of inner vk: %w", err)
	}
	innerProof, err := groth16.ValueOfProof[sw_bls12377.G1Affine, sw_bls12377.G2Affine](w.Inner.Proof)
	if err != nil {
		return nil, fmt.Errorf("provider: value of inner proof: %w", err)
	}
	innerWitness, err := groth16.ValueOfWitness[sw_bls12377.ScalarField](w.Inner.Public)
	if err != nil {
		return nil, fmt.Errorf("provider: value of inner witness: %w", err)
	}

	factor := new(big.Int).SetUint64(uint64(w.Factor))

	return &Circuit{
		InnerProof:           innerProof,
		InnerVerifyingKey:    innerVK,
		InnerPublicWitness:   innerWitness,
		Latitude:             w.Latitude,
		Longitude:            w.Longitude,
		Factor:               factor,
		Nonce:                w.Nonce,
		Source:               big.NewInt(int64(SourceOracle)),
		PublicKeyCommitment:  emulated.ValueOf[sw_bls12377.ScalarField](w.Inner.Result.PublicKeyCommitment),
		CoordinateCommitment: w.CoordinateCommitment,
		LatitudeOut:          w.Latitude,
		LongitudeOut:         w.Longitude,
		FactorOut:            factor,
	}, nil
}

// Compile lazily compiles and sets up C2's constraint system and keys.
// The recursive-verifier fields of the placeholder circuit must be
// sized from the inner oracle circuit's own compiled constraint
// system before this outer circuit can itself be compiled; an empty
// placeholder leaves them as zero-value structs with nil slices, which
// frontend.Compile accepts but cannot actually constrain.
func Compile() (*circuitsetup.Compiled, error) {
	innerCompiled, err := oracle.Compile()
	if err != nil {
		return nil, fmt.Errorf("provider: compile inner oracle circuit: %w", err)
	}

	innerProof := groth16.PlaceholderProof[sw_bls12377.G1Affine, sw_bls12377.G2Affine](innerCompiled.CCS)
	innerVK := groth16.PlaceholderVerifyingKey[sw_bls12377.G1Affine, sw_bls12377.G2Affine, sw_bls12377.GT](innerCompiled.CCS)
	innerWitness := groth16.PlaceholderWitness[sw_bls12377.ScalarField](innerCompiled.CCS)

	placeholder := Circuit{
		InnerProof:         innerProof,
		InnerVerifyingKey:  innerVK,
		InnerPublicWitness: innerWitness,
	}
	return circuitsetup.Compile(Name, Curve, &placeholder)
}

// Result is the decoded public output of a proved C2 circuit, plus the
// Nonce the driver needs (but no circuit exposes publicly) to rebuild
// a downstream witness.
//
// CoordinateCommitment here is the same BW6-761-native value Witness
// carried in; it is meaningful only as evidence this proof's own
// in-circuit check passed, not as an input to any other circuit. A
// caller building a downstream (BN254) witness must derive a fresh
// BN254-native commitment from Latitude/Longitude/Factor/Nonce via
// package coordinate instead of reusing this field — see
// session.AuthenticateFromOracle.
type Result struct {
	Source               Source
	PublicKeyCommitment  *big.Int
	CoordinateCommitment *big.Int
	Latitude             *big.Int
	Longitude            *big.Int
	Factor               uint8
	Nonce                *big.Int
}

// Proof bundles a produced C2 proof with its decoded result.
type Proof struct {
	Compiled *circuitsetup.Compiled
	Proof    bn.Proof
	Public   witness.Witness
	Result   Result
}

// Prove compiles (if needed) and proves C2 for witness w.
func Prove(w Witness) (*Proof, error) {
	compiled, err := Compile()
	if err != nil {
		return nil, err
	}

	assignment, err := w.Assignment()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", zkerr.ProverFailure, err)
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
			Source:               SourceOracle,
			PublicKeyCommitment:  w.Inner.Result.PublicKeyCommitment,
			CoordinateCommitment: w.CoordinateCommitment,
			Latitude:             w.Latitude,
			Longitude:            w.Longitude,
			Factor:               w.Factor,
			Nonce:                w.Nonce,
		},
	}, nil
}

// Verify checks p against C2's verification key.
func Verify(p *Proof) error {
	return p.Compiled.Verify(p.Proof, p.Public)
}
