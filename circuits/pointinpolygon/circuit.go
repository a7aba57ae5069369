// Package pointinpolygon implements C3 (PointInPolygon): the core
// predicate of this module. A leaf circuit tests a coordinate against
// a triangle via exact-integer edge-membership and ray casting, and
// two recursive combiners (AND/OR) fold same-coordinate proofs over
// distinct polygons into one.
//
// All three circuits in this package are compiled over BN254 and, per
// the "sequential trust" design recorded in DESIGN.md, do not
// recursively verify their upstream proofs in-circuit: the driver
// (package session) is responsible for calling groth16.Verify on an
// upstream proof before copying its revealed public output into a
// downstream witness as a private input. The geometry and combinator
// logic below is grounded on spec.md §4.2-4.3; the Poseidon commitment
// style follows circuits/oracle.
package pointinpolygon

import (
	"fmt"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/backend/witness"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/hash"
	"github.com/consensys/gnark/std/math/cmp"
	"github.com/consensys/gnark/std/permutation/poseidon2"

	"github.com/zklocus/zklocus-core/internal/circuitsetup"
)

// Curve is the curve every circuit in this package is compiled over.
const Curve = ecc.BN254

// Name/NameAND/NameOR are the registered circuit-cache names.
const (
	Name    = "pointinpolygon.v1"
	NameAND = "pointinpolygon.and.v1"
	NameOR  = "pointinpolygon.or.v1"
)

// bias shifts bounded signed values (coordinates, their products and
// quotients, magnitude well under 2^96) into a nonnegative range before
// an ordering comparison, so cmp.IsLess compares true signed order
// rather than field-embedded two's complement order.
var bias = new(big.Int).Lsh(big.NewInt(1), 96)

func signedLess(api frontend.API, a, b frontend.Variable) frontend.Variable {
	return cmp.IsLess(api, api.Add(a, bias), api.Add(b, bias))
}

// vertex is one triangle corner as circuit variables.
type vertex struct {
	Lat, Lon frontend.Variable
}

func newPoseidon(api frontend.API) (hash.FieldHasher, error) {
	p, err := poseidon2.NewPoseidon2FromParameters(api, 2, 6, 50)
	if err != nil {
		return nil, fmt.Errorf("pointinpolygon: poseidon2 init: %w", err)
	}
	return hash.NewMerkleDamgardHasher(api, p, 0), nil
}

func hashCoordinate(api frontend.API, lat, lon, factor frontend.Variable) (frontend.Variable, error) {
	h, err := newPoseidon(api)
	if err != nil {
		return nil, err
	}
	h.Write(lat, lon, factor)
	return h.Sum(), nil
}

// truncDiv returns the truncating-toward-zero quotient of num/den,
// asserting num = den*q + r with |r| < |den| via a witness hint (see
// hint.go); den must be nonzero.
func truncDiv(api frontend.API, num, den frontend.Variable) (frontend.Variable, error) {
	outs, err := api.Compiler().NewHint(truncDivModHint, 2, num, den)
	if err != nil {
		return nil, fmt.Errorf("pointinpolygon: truncdiv hint: %w", err)
	}
	q, r := outs[0], outs[1]
	api.AssertIsEqual(num, api.Add(api.Mul(den, q), r))

	// |r| < |den|, matching same sign as num or zero: check via the
	// biased comparator on |r| and |den| using the identity
	// |v| = select(v negative, -v, v), detected from v's sign bit
	// through the same biased-less-than trick used elsewhere.
	absDen := absSigned(api, den)
	absR := absSigned(api, r)
	api.AssertIsEqual(cmp.IsLess(api, api.Add(absR, bias), api.Add(absDen, bias)), 1)

	// num = den*q + r and |r| < |den| alone leave q free to shift by one
	// (e.g. num=7, den=3 admits q=2,r=1 and q=3,r=-2): pin r's sign to
	// num's, or require r == 0, which is what QuoRem in the hint above
	// actually returns and is the only truncation-toward-zero solution.
	rIsZero := api.IsZero(r)
	sameSign := api.IsZero(api.Sub(signedLess(api, num, 0), signedLess(api, r, 0)))
	api.AssertIsEqual(api.Or(rIsZero, sameSign), 1)

	return q, nil
}

func absSigned(api frontend.API, v frontend.Variable) frontend.Variable {
	neg := signedLess(api, v, 0)
	return api.Select(neg, api.Sub(0, v), v)
}

// edgeMember reports whether point (x,y) lies on segment (x1,y1)-(x2,y2).
func edgeMember(api frontend.API, x, y, x1, y1, x2, y2 frontend.Variable) frontend.Variable {
	minX := api.Select(signedLess(api, x1, x2), x1, x2)
	maxX := api.Select(signedLess(api, x1, x2), x2, x1)
	minY := api.Select(signedLess(api, y1, y2), y1, y2)
	maxY := api.Select(signedLess(api, y1, y2), y2, y1)

	inRangeX := api.And(api.Sub(1, signedLess(api, x, minX)), api.Sub(1, signedLess(api, maxX, x)))
	inRangeY := api.And(api.Sub(1, signedLess(api, y, minY)), api.Sub(1, signedLess(api, maxY, y)))

	lhs := api.Mul(api.Sub(x2, x1), api.Sub(y, y1))
	rhs := api.Mul(api.Sub(x, x1), api.Sub(y2, y1))
	collinear := api.IsZero(api.Sub(lhs, rhs))

	return api.And(api.And(inRangeX, inRangeY), collinear)
}

// rayFlip reports whether the horizontal ray from (x,y) toward +x
// crosses edge (xi,yi)-(xj,yj), per spec.md §4.2(b).
func rayFlip(api frontend.API, x, y, xi, yi, xj, yj frontend.Variable) (frontend.Variable, error) {
	straddle := api.Xor(signedLess(api, y, yi), signedLess(api, y, yj))
	// straddle above computes (y<yi) XOR (y<yj); spec phrases the test
	// as (yi>y) XOR (yj>y), which is the same predicate.

	denom := api.Sub(yj, yi)
	denomIsZero := api.IsZero(denom)
	safeDenom := api.Select(denomIsZero, 1, denom)
	numer := api.Mul(api.Sub(xj, xi), api.Sub(y, yi))
	safeNumer := api.Select(denomIsZero, 0, numer)

	q, err := truncDiv(api, safeNumer, safeDenom)
	if err != nil {
		return nil, err
	}
	intersectX := api.Add(xi, q)
	rayCond := signedLess(api, x, intersectX)

	flip := api.And(straddle, api.And(rayCond, api.Sub(1, denomIsZero)))
	return flip, nil
}

// Circuit is the C3 leaf: test NoncedCoordinate p against Triangle T.
type Circuit struct {
	// Private: the query point.
	Latitude  frontend.Variable
	Longitude frontend.Variable
	Factor    frontend.Variable
	Nonce     frontend.Variable

	// Private: the triangle, sharing Factor with the query point.
	V1Lat, V1Lon frontend.Variable
	V2Lat, V2Lon frontend.Variable
	V3Lat, V3Lon frontend.Variable

	// Public outputs.
	CoordinateCommitment frontend.Variable `gnark:",public"`
	PolygonCommitment    frontend.Variable `gnark:",public"`
	IsInside             frontend.Variable `gnark:",public"`
}

// Define implements frontend.Circuit.
func (c *Circuit) Define(api frontend.API) error {
	coordHash, err := hashCoordinate(api, c.Latitude, c.Longitude, c.Factor)
	if err != nil {
		return err
	}
	commitHasher, err := newPoseidon(api)
	if err != nil {
		return err
	}
	commitHasher.Write(coordHash, c.Nonce)
	api.AssertIsEqual(commitHasher.Sum(), c.CoordinateCommitment)

	h1, err := hashCoordinate(api, c.V1Lat, c.V1Lon, c.Factor)
	if err != nil {
		return err
	}
	h2, err := hashCoordinate(api, c.V2Lat, c.V2Lon, c.Factor)
	if err != nil {
		return err
	}
	h3, err := hashCoordinate(api, c.V3Lat, c.V3Lon, c.Factor)
	if err != nil {
		return err
	}
	polyHasher, err := newPoseidon(api)
	if err != nil {
		return err
	}
	polyHasher.Write(h1, h2, h3)
	api.AssertIsEqual(polyHasher.Sum(), c.PolygonCommitment)

	// Reject degenerate triangles: twice the signed area,
	// (x2-x1)(y3-y1) - (x3-x1)(y2-y1) with x = lon and y = lat, as in
	// coordinate.SignedArea2, must be nonzero.
	area2 := api.Sub(
		api.Mul(api.Sub(c.V2Lon, c.V1Lon), api.Sub(c.V3Lat, c.V1Lat)),
		api.Mul(api.Sub(c.V3Lon, c.V1Lon), api.Sub(c.V2Lat, c.V1Lat)),
	)
	api.AssertIsDifferent(area2, 0)

	verts := [3]vertex{
		{Lat: c.V1Lat, Lon: c.V1Lon},
		{Lat: c.V2Lat, Lon: c.V2Lon},
		{Lat: c.V3Lat, Lon: c.V3Lon},
	}

	onEdge := frontend.Variable(0)
	inside := frontend.Variable(0)
	for i := 0; i < 3; i++ {
		j := (i + 2) % 3 // (i-1) mod 3
		vi, vj := verts[i], verts[j]

		onEdge = api.Or(onEdge, edgeMember(api, c.Longitude, c.Latitude, vi.Lon, vi.Lat, vj.Lon, vj.Lat))

		flip, err := rayFlip(api, c.Longitude, c.Latitude, vi.Lon, vi.Lat, vj.Lon, vj.Lat)
		if err != nil {
			return err
		}
		inside = api.Xor(inside, flip)
	}

	isInside := api.Or(onEdge, inside)
	api.AssertIsEqual(isInside, c.IsInside)

	return nil
}

// Witness is the native-value witness assignment for Circuit.
type Witness struct {
	Latitude, Longitude *big.Int
	Factor               uint8
	Nonce                *big.Int

	V1Lat, V1Lon *big.Int
	V2Lat, V2Lon *big.Int
	V3Lat, V3Lon *big.Int

	CoordinateCommitment *big.Int
	PolygonCommitment    *big.Int
	IsInside             bool
}

// Assignment converts w into the circuit assignment Compile/Prove
// expects.
func (w Witness) Assignment() *Circuit {
	factor := new(big.Int).SetUint64(uint64(w.Factor))
	return &Circuit{
		Latitude:             w.Latitude,
		Longitude:            w.Longitude,
		Factor:               factor,
		Nonce:                w.Nonce,
		V1Lat:                w.V1Lat,
		V1Lon:                w.V1Lon,
		V2Lat:                w.V2Lat,
		V2Lon:                w.V2Lon,
		V3Lat:                w.V3Lat,
		V3Lon:                w.V3Lon,
		CoordinateCommitment: w.CoordinateCommitment,
		PolygonCommitment:    w.PolygonCommitment,
		IsInside:             boolVar(w.IsInside),
	}
}

func boolVar(b bool) *big.Int {
	if b {
		return big.NewInt(1)
	}
	return big.NewInt(0)
}

// Compile lazily compiles and sets up C3's constraint system and keys.
func Compile() (*circuitsetup.Compiled, error) {
	var placeholder Circuit
	return circuitsetup.Compile(Name, Curve, &placeholder)
}

// Result is the decoded public output of a proved C3 circuit.
type Result struct {
	CoordinateCommitment *big.Int
	PolygonCommitment    *big.Int
	IsInside             bool
}

// Proof bundles a produced C3 proof with its decoded result.
type Proof struct {
	Compiled *circuitsetup.Compiled
	Proof    groth16.Proof
	Public   witness.Witness
	Result   Result
}

// Prove compiles (if needed) and proves C3 for witness w.
func Prove(w Witness) (*Proof, error) {
	compiled, err := Compile()
	if err != nil {
		return nil, err
	}
	proof, public, err := compiled.Prove(w.Assignment())
	if err != nil {
		return nil, err
	}
	return &Proof{
		Compiled: compiled,
		Proof:    proof,
		Public:   public,
		Result: Result{
			CoordinateCommitment: w.CoordinateCommitment,
			PolygonCommitment:    w.PolygonCommitment,
			IsInside:             w.IsInside,
		},
	}, nil
}

// Verify checks p against C3's verification key.
func Verify(p *Proof) error {
	return p.Compiled.Verify(p.Proof, p.Public)
}
