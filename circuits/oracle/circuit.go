// Package oracle implements C1 (OracleAttestation): verifying an
// ECDSA signature binding a trusted public key to a coordinate, and
// emitting an attested-coordinate commitment. Grounded on
// uiuc-kang-lab-zkperf/ecdsa.go for the signature gadget and on
// MuriData-muri-zkproof/poi.go for the Poseidon commitment pattern.
//
// C1 is compiled and proved over BLS12-377: it is the one leaf in this
// module recursively verified in-circuit by a downstream circuit
// (circuits/provider), via gnark's BW6-761-outer/BLS12-377-inner
// recursion verifier (see circuits/provider/circuit.go and DESIGN.md).
package oracle

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/backend/witness"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/algebra/emulated/sw_emulated"
	"github.com/consensys/gnark/std/hash"
	"github.com/consensys/gnark/std/math/emulated"
	"github.com/consensys/gnark/std/permutation/poseidon2"
	stdgroth16 "github.com/consensys/gnark/std/recursion/groth16"
	gnarkecdsa "github.com/consensys/gnark/std/signature/ecdsa"

	"github.com/zklocus/zklocus-core/internal/circuitsetup"
	"github.com/zklocus/zklocus-core/internal/nativehash"
	"github.com/zklocus/zklocus-core/zkerr"
)

// poseidonHash hashes natively over BLS12-377's scalar field, the
// field Circuit is compiled over, so the result can be asserted equal
// to an in-circuit Poseidon2 sum.
func poseidonHash(elems []*big.Int) (*big.Int, error) {
	return nativehash.Poseidon2BLS12377(elems)
}

// Curve is the curve this circuit is compiled over.
const Curve = ecc.BLS12_377

// recursionOuterCurve is circuits/provider's curve, the only circuit
// that recursively verifies a C1 proof in-circuit. Proving here must
// use the matching native prover options so the proof's Fiat-Shamir
// hash-to-field agrees with what provider's in-circuit verifier
// expects; provider itself cannot be imported here (it imports this
// package), so the curve is named directly instead.
const recursionOuterCurve = ecc.BW6_761

// Name is the registered name of the compiled circuit, used as the
// process-wide singleton cache key (spec.md §5).
const Name = "oracle.attestation.v1"

type (
	fp = emulated.Secp256k1Fp
	fr = emulated.Secp256k1Fr
)

// Circuit is C1: verify an ECDSA signature over a coordinate digest
// and emit {publicKeyCommitment, coordinateCommitment}.
//
// Message is the canonical-serialization digest of the coordinate,
// reinterpreted as a secp256k1 scalar. Binding Message to the
// Coordinate fields below is done by the caller (session.Session)
// before the witness is constructed, not re-derived in-circuit — see
// DESIGN.md "C1 message binding" for why crossing from the circuit's
// native field into the secp256k1 scalar field a second time (beyond
// the ECDSA gadget's own emulation) was judged not worth the
// constraint cost for this module's scope.
type Circuit struct {
	// Private inputs.
	PublicKey gnarkecdsa.PublicKey[fp, fr]
	Signature gnarkecdsa.Signature[fr]
	Message   emulated.Element[fr]
	Latitude  frontend.Variable
	Longitude frontend.Variable
	Factor    frontend.Variable
	Nonce     frontend.Variable

	// Public outputs.
	PublicKeyCommitment  frontend.Variable `gnark:",public"`
	CoordinateCommitment frontend.Variable `gnark:",public"`
}

// Define implements frontend.Circuit.
func (c *Circuit) Define(api frontend.API) error {
	c.PublicKey.Verify(api, sw_emulated.GetSecp256k1Params(), &c.Message, &c.Signature)

	p, err := poseidon2.NewPoseidon2FromParameters(api, 2, 6, 50)
	if err != nil {
		return fmt.Errorf("oracle: poseidon2 init: %w", err)
	}

	pkHasher := hash.NewMerkleDamgardHasher(api, p, 0)
	pkHasher.Write(c.PublicKey.X.Limbs...)
	pkHasher.Write(c.PublicKey.Y.Limbs...)
	pkCommitment := pkHasher.Sum()
	api.AssertIsEqual(pkCommitment, c.PublicKeyCommitment)

	coordHasher := hash.NewMerkleDamgardHasher(api, p, 0)
	coordHasher.Write(c.Latitude, c.Longitude, c.Factor)
	coordHash := coordHasher.Sum()

	commitHasher := hash.NewMerkleDamgardHasher(api, p, 0)
	commitHasher.Write(coordHash, c.Nonce)
	coordCommitment := commitHasher.Sum()
	api.AssertIsEqual(coordCommitment, c.CoordinateCommitment)

	return nil
}

// Witness is the native-value witness assignment for Circuit.
type Witness struct {
	PublicKeyX, PublicKeyY *big.Int
	SigR, SigS             *big.Int
	Message                *big.Int
	Latitude, Longitude    *big.Int
	Factor                 uint8
	Nonce                  *big.Int

	PublicKeyCommitment  *big.Int
	CoordinateCommitment *big.Int
}

// Assignment converts w into the emulated-element circuit assignment
// Compile/Prove expects.
func (w Witness) Assignment() *Circuit {
	return &Circuit{
		PublicKey: gnarkecdsa.PublicKey[fp, fr]{
			X: emulated.ValueOf[fp](w.PublicKeyX),
			Y: emulated.ValueOf[fp](w.PublicKeyY),
		},
		Signature: gnarkecdsa.Signature[fr]{
			R: emulated.ValueOf[fr](w.SigR),
			S: emulated.ValueOf[fr](w.SigS),
		},
		Message:              emulated.ValueOf[fr](w.Message),
		Latitude:             w.Latitude,
		Longitude:            w.Longitude,
		Factor:               new(big.Int).SetUint64(uint64(w.Factor)),
		Nonce:                w.Nonce,
		PublicKeyCommitment:  w.PublicKeyCommitment,
		CoordinateCommitment: w.CoordinateCommitment,
	}
}

// NativePublicKeyCommitment computes H(limbs(x), limbs(y)) out of
// circuit, matching Circuit.Define's pkHasher.Write(X.Limbs...) call
// so a session can precompute the public output before proving.
func NativePublicKeyCommitment(x, y *big.Int) (*big.Int, error) {
	elems := append(decomposeLimbs(x), decomposeLimbs(y)...)
	h, err := poseidonHash(elems)
	if err != nil {
		return nil, fmt.Errorf("oracle: public key commitment: %w", err)
	}
	return h, nil
}

// NativeCoordinateCommitment computes H(H(lat, lon, factor), nonce) over
// BLS12-377, matching Circuit.Define's coordHasher/commitHasher pair, so
// a caller can precompute Witness.CoordinateCommitment before proving.
// This is distinct from, and not interchangeable with, the BN254-native
// commitment coordinate.NoncedCoordinate.Commitment computes for the
// downstream BN254 circuits — see DESIGN.md.
func NativeCoordinateCommitment(lat, lon *big.Int, factor uint8, nonce *big.Int) (*big.Int, error) {
	coordHash, err := poseidonHash([]*big.Int{lat, lon, new(big.Int).SetUint64(uint64(factor))})
	if err != nil {
		return nil, fmt.Errorf("oracle: coordinate hash: %w", err)
	}
	h, err := poseidonHash([]*big.Int{coordHash, nonce})
	if err != nil {
		return nil, fmt.Errorf("oracle: coordinate commitment: %w", err)
	}
	return h, nil
}

// Compile lazily compiles and sets up C1's constraint system and keys.
func Compile() (*circuitsetup.Compiled, error) {
	var placeholder Circuit
	return circuitsetup.Compile(Name, Curve, &placeholder)
}

// Result is the decoded public output of a proved C1 circuit.
type Result struct {
	PublicKeyCommitment  *big.Int
	CoordinateCommitment *big.Int
}

// Proof bundles everything a caller needs to hand this proof to a
// downstream recursive verifier: the raw Groth16 proof, its public
// witness, and the decoded result.
type Proof struct {
	Compiled *circuitsetup.Compiled
	Proof    groth16.Proof
	Public   witness.Witness
	Result   Result
}

// Prove compiles (if needed) and proves C1 for witness w.
func Prove(w Witness) (*Proof, error) {
	compiled, err := Compile()
	if err != nil {
		return nil, err
	}

	opts := stdgroth16.GetNativeProverOptions(recursionOuterCurve.ScalarField(), Curve.ScalarField())
	proof, public, err := compiled.Prove(w.Assignment(), opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", zkerr.SignatureInvalid, err)
	}

	return &Proof{
		Compiled: compiled,
		Proof:    proof,
		Public:   public,
		Result: Result{
			PublicKeyCommitment:  w.PublicKeyCommitment,
			CoordinateCommitment: w.CoordinateCommitment,
		},
	}, nil
}

// Verify checks p against C1's verification key.
func Verify(p *Proof) error {
	return p.Compiled.Verify(p.Proof, p.Public)
}

// ErrSignatureInvalid is returned when the backend refuses to satisfy
// the ECDSA constraints for a malformed signature.
var ErrSignatureInvalid = zkerr.SignatureInvalid
