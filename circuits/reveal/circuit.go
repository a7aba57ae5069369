// Package reveal implements C5: ExactGeoPoint (publishing a coordinate
// in the clear once its provenance is established) and MetadataBound
// (binding an arbitrary metadata digest to a coordinate commitment).
// Both circuits are compiled over BN254 and consume a provider proof's
// revealed output under the module's sequential-trust discipline (see
// DESIGN.md); SHA3-512 itself is computed out of circuit, per spec.md
// §4.6 and §1's explicit out-of-scope note — golang.org/x/crypto/sha3
// supplies it.
package reveal

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/backend/witness"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/hash"
	"github.com/consensys/gnark/std/permutation/poseidon2"
	"golang.org/x/crypto/sha3"

	"github.com/zklocus/zklocus-core/internal/circuitsetup"
	"github.com/zklocus/zklocus-core/internal/nativehash"
)

// Curve is the curve every circuit in this package is compiled over.
const Curve = ecc.BN254

// NameExact/NameMetadata are the registered circuit-cache names.
const (
	NameExact    = "reveal.exactgeopoint.v1"
	NameMetadata = "reveal.metadatabound.v1"
)

func newPoseidon(api frontend.API) (hash.FieldHasher, error) {
	p, err := poseidon2.NewPoseidon2FromParameters(api, 2, 6, 50)
	if err != nil {
		return nil, fmt.Errorf("reveal: poseidon2 init: %w", err)
	}
	return hash.NewMerkleDamgardHasher(api, p, 0), nil
}

// ExactCircuit reveals the exact coordinate behind a coordinate
// commitment, recomputing the commitment in-circuit to bind the
// revealed values to it.
type ExactCircuit struct {
	Latitude  frontend.Variable
	Longitude frontend.Variable
	Factor    frontend.Variable
	Nonce     frontend.Variable

	CoordinateCommitment frontend.Variable `gnark:",public"`
	LatitudeOut           frontend.Variable `gnark:",public"`
	LongitudeOut          frontend.Variable `gnark:",public"`
	FactorOut              frontend.Variable `gnark:",public"`
}

// Define implements frontend.Circuit.
func (c *ExactCircuit) Define(api frontend.API) error {
	coordHasher, err := newPoseidon(api)
	if err != nil {
		return err
	}
	coordHasher.Write(c.Latitude, c.Longitude, c.Factor)
	coordHash := coordHasher.Sum()

	commitHasher, err := newPoseidon(api)
	if err != nil {
		return err
	}
	commitHasher.Write(coordHash, c.Nonce)
	api.AssertIsEqual(commitHasher.Sum(), c.CoordinateCommitment)

	api.AssertIsEqual(c.Latitude, c.LatitudeOut)
	api.AssertIsEqual(c.Longitude, c.LongitudeOut)
	api.AssertIsEqual(c.Factor, c.FactorOut)
	return nil
}

// MetadataCircuit binds a coordinate commitment to a metadata digest
// computed out of circuit.
type MetadataCircuit struct {
	CoordinateCommitment frontend.Variable
	MetadataHi           frontend.Variable
	MetadataLo           frontend.Variable

	CoordinateCommitmentOut frontend.Variable `gnark:",public"`
	MetadataCommitment      frontend.Variable `gnark:",public"`
}

// Define implements frontend.Circuit.
func (c *MetadataCircuit) Define(api frontend.API) error {
	h, err := newPoseidon(api)
	if err != nil {
		return err
	}
	h.Write(c.MetadataHi, c.MetadataLo)

	api.AssertIsEqual(c.CoordinateCommitment, c.CoordinateCommitmentOut)
	api.AssertIsEqual(h.Sum(), c.MetadataCommitment)
	return nil
}

// SplitDigest splits a SHA3-512 digest into its two 32-byte halves,
// each interpreted big-endian and reduced mod the circuit's scalar
// field by virtue of being assigned into a frontend.Variable.
func SplitDigest(digest [64]byte) (hi, lo *big.Int) {
	hi = new(big.Int).SetBytes(digest[:32])
	lo = new(big.Int).SetBytes(digest[32:])
	return hi, lo
}

// HashMetadata computes SHA3-512(metadata) and splits it per
// SplitDigest, matching spec.md §4.6's metadata-commitment recipe.
func HashMetadata(metadata []byte) (hi, lo *big.Int) {
	digest := sha3.Sum512(metadata)
	return SplitDigest(digest)
}

// Result is the decoded public output of a proved reveal circuit.
type Result struct {
	CoordinateCommitment *big.Int

	// Populated by ExactCircuit proofs.
	Latitude, Longitude *big.Int
	Factor               uint8

	// Populated by MetadataCircuit proofs.
	MetadataCommitment *big.Int
}

// Proof bundles a produced reveal proof with its decoded result.
type Proof struct {
	Compiled *circuitsetup.Compiled
	Proof    groth16.Proof
	Public   witness.Witness
	Result   Result
}

// ExactWitness is the native-value witness for ExactCircuit.
type ExactWitness struct {
	Latitude, Longitude *big.Int
	Factor               uint8
	Nonce                *big.Int
	CoordinateCommitment *big.Int
}

func (w ExactWitness) assignment() *ExactCircuit {
	factor := new(big.Int).SetUint64(uint64(w.Factor))
	return &ExactCircuit{
		Latitude:             w.Latitude,
		Longitude:            w.Longitude,
		Factor:               factor,
		Nonce:                w.Nonce,
		CoordinateCommitment: w.CoordinateCommitment,
		LatitudeOut:          w.Latitude,
		LongitudeOut:         w.Longitude,
		FactorOut:            factor,
	}
}

// CompileExact lazily compiles and sets up the exact-reveal circuit.
func CompileExact() (*circuitsetup.Compiled, error) {
	var placeholder ExactCircuit
	return circuitsetup.Compile(NameExact, Curve, &placeholder)
}

// Exact proves an exact-coordinate reveal for w.
func Exact(w ExactWitness) (*Proof, error) {
	compiled, err := CompileExact()
	if err != nil {
		return nil, err
	}
	proof, public, err := compiled.Prove(w.assignment())
	if err != nil {
		return nil, err
	}
	return &Proof{
		Compiled: compiled,
		Proof:    proof,
		Public:   public,
		Result: Result{
			CoordinateCommitment: w.CoordinateCommitment,
			Latitude:             w.Latitude,
			Longitude:            w.Longitude,
			Factor:               w.Factor,
		},
	}, nil
}

// MetadataWitness is the native-value witness for MetadataCircuit.
type MetadataWitness struct {
	CoordinateCommitment *big.Int
	Metadata              []byte
}

func (w MetadataWitness) assignment() (*MetadataCircuit, *big.Int, error) {
	hi, lo := HashMetadata(w.Metadata)
	h, err := nativehash.Poseidon2BN254([]*big.Int{hi, lo})
	if err != nil {
		return nil, nil, fmt.Errorf("reveal: metadata commitment: %w", err)
	}
	return &MetadataCircuit{
		CoordinateCommitment:    w.CoordinateCommitment,
		MetadataHi:              hi,
		MetadataLo:              lo,
		CoordinateCommitmentOut: w.CoordinateCommitment,
		MetadataCommitment:      h,
	}, h, nil
}

// CompileMetadata lazily compiles and sets up the metadata-binding
// circuit.
func CompileMetadata() (*circuitsetup.Compiled, error) {
	var placeholder MetadataCircuit
	return circuitsetup.Compile(NameMetadata, Curve, &placeholder)
}

// Metadata proves a metadata binding for w.
func Metadata(w MetadataWitness) (*Proof, error) {
	compiled, err := CompileMetadata()
	if err != nil {
		return nil, err
	}
	assignment, metadataCommitment, err := w.assignment()
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
			CoordinateCommitment: w.CoordinateCommitment,
			MetadataCommitment:   metadataCommitment,
		},
	}, nil
}

// Verify checks p against its circuit's verification key.
func Verify(p *Proof) error {
	return p.Compiled.Verify(p.Proof, p.Public)
}
