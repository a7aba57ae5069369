// Package coordinate implements the geospatial data model shared by
// every circuit in zklocus-core: Coordinate, NoncedCoordinate and
// Triangle, together with their Poseidon2 commitments.
//
// Hash/Commitment below compute natively over BN254's scalar field,
// matching circuits/pointinpolygon, circuits/rollup and
// circuits/reveal, the three BN254-compiled packages that consume
// these commitments directly. circuits/oracle (BLS12-377) and
// circuits/provider (BW6-761) are compiled over different fields and
// define their own curve-native commitment helpers rather than reuse
// these — a Poseidon2 digest computed mod one curve's scalar field
// cannot satisfy an in-circuit AssertIsEqual compiled over another.
package coordinate

import (
	"fmt"
	"math/big"

	"github.com/zklocus/zklocus-core/fixedpoint"
	"github.com/zklocus/zklocus-core/internal/nativehash"
	"github.com/zklocus/zklocus-core/zkerr"
)

// Coordinate is a latitude/longitude pair sharing a single decimal
// factor. Invariants: |lat|/10^f ≤ 90, |lon|/10^f ≤ 180, f ≤ 7.
type Coordinate struct {
	Latitude  fixedpoint.Int
	Longitude fixedpoint.Int
	Factor    uint8
}

// New builds a Coordinate and validates it immediately so malformed
// values never escape into circuit witnesses.
func New(lat, lon fixedpoint.Int, factor uint8) (Coordinate, error) {
	c := Coordinate{Latitude: lat, Longitude: lon, Factor: factor}
	if err := c.Validate(); err != nil {
		return Coordinate{}, err
	}
	return c, nil
}

// Validate asserts the domain invariants from spec §3/§4.1.
func (c Coordinate) Validate() error {
	if c.Factor > fixedpoint.MaxFactor {
		return fmt.Errorf("%w: factor %d exceeds max %d", zkerr.InvalidCoordinateDomain, c.Factor, fixedpoint.MaxFactor)
	}
	scale := pow10(uint64(c.Factor))
	if c.Latitude.Magnitude > 90*scale {
		return fmt.Errorf("%w: latitude magnitude %d exceeds 90e%d", zkerr.InvalidCoordinateDomain, c.Latitude.Magnitude, c.Factor)
	}
	if c.Longitude.Magnitude > 180*scale {
		return fmt.Errorf("%w: longitude magnitude %d exceeds 180e%d", zkerr.InvalidCoordinateDomain, c.Longitude.Magnitude, c.Factor)
	}
	return nil
}

// Hash computes H(lat, lon, factor) natively (out of circuit) over
// BN254 using the same Poseidon2 parameters the in-circuit gadget
// uses. This is the building block for every commitment in §6.
func (c Coordinate) Hash() (*big.Int, error) {
	h, err := nativehash.Poseidon2BN254([]*big.Int{
		c.Latitude.FieldElement(),
		c.Longitude.FieldElement(),
		new(big.Int).SetUint64(uint64(c.Factor)),
	})
	if err != nil {
		return nil, fmt.Errorf("coordinate: hash: %w", err)
	}
	return h, nil
}

// NoncedCoordinate binds a Coordinate to a single-use nonce, preventing
// commitment grinding. Commitment = H(H(coord), nonce).
type NoncedCoordinate struct {
	Coordinate Coordinate
	Nonce      *big.Int
}

// NewNonced builds a NoncedCoordinate, validating the inner coordinate.
func NewNonced(c Coordinate, nonce *big.Int) (NoncedCoordinate, error) {
	if err := c.Validate(); err != nil {
		return NoncedCoordinate{}, err
	}
	if nonce == nil {
		return NoncedCoordinate{}, fmt.Errorf("coordinate: nonce must not be nil")
	}
	return NoncedCoordinate{Coordinate: c, Nonce: nonce}, nil
}

// Commitment computes H(H(coord), nonce).
func (nc NoncedCoordinate) Commitment() (*big.Int, error) {
	inner, err := nc.Coordinate.Hash()
	if err != nil {
		return nil, err
	}
	h, err := nativehash.Poseidon2BN254([]*big.Int{inner, nc.Nonce})
	if err != nil {
		return nil, fmt.Errorf("coordinate: commitment: %w", err)
	}
	return h, nil
}

// Triangle is a three-vertex polygon. Per spec.md §9, vertex ordering
// is not validated (ray casting is orientation-independent for simple
// polygons), but degenerate zero-area triangles are rejected here,
// following the spec's own supplemented recommendation.
type Triangle struct {
	V1, V2, V3 Coordinate
}

// NewTriangle validates that all three vertices share a factor and
// that the triangle has non-zero signed area.
func NewTriangle(v1, v2, v3 Coordinate) (Triangle, error) {
	t := Triangle{V1: v1, V2: v2, V3: v3}
	if err := t.Validate(); err != nil {
		return Triangle{}, err
	}
	return t, nil
}

// Validate asserts each vertex is individually valid, all three share
// a factor, and the triangle is non-degenerate.
func (t Triangle) Validate() error {
	for _, v := range []Coordinate{t.V1, t.V2, t.V3} {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	if t.V1.Factor != t.V2.Factor || t.V1.Factor != t.V3.Factor {
		return fmt.Errorf("%w: triangle vertices disagree on factor", zkerr.FactorMismatch)
	}
	if SignedArea2(t) == 0 {
		return fmt.Errorf("%w", zkerr.DegenerateTriangle)
	}
	return nil
}

// SignedArea2 returns twice the signed area of the triangle, computed
// with exact signed-integer arithmetic: (x2-x1)(y3-y1) - (x3-x1)(y2-y1).
// Zero means the three vertices are collinear.
func SignedArea2(t Triangle) int64 {
	x1, y1 := t.V1.Longitude.Signed(), t.V1.Latitude.Signed()
	x2, y2 := t.V2.Longitude.Signed(), t.V2.Latitude.Signed()
	x3, y3 := t.V3.Longitude.Signed(), t.V3.Latitude.Signed()
	return (x2-x1)*(y3-y1) - (x3-x1)*(y2-y1)
}

// Commitment computes H(H(v1), H(v2), H(v3)).
func (t Triangle) Commitment() (*big.Int, error) {
	h1, err := t.V1.Hash()
	if err != nil {
		return nil, err
	}
	h2, err := t.V2.Hash()
	if err != nil {
		return nil, err
	}
	h3, err := t.V3.Hash()
	if err != nil {
		return nil, err
	}
	h, err := nativehash.Poseidon2BN254([]*big.Int{h1, h2, h3})
	if err != nil {
		return nil, fmt.Errorf("coordinate: triangle commitment: %w", err)
	}
	return h, nil
}

// RequireSameFactor enforces the preflight rule of §4.1: a query point
// and a triangle's vertices must share one decimal factor.
func RequireSameFactor(p Coordinate, t Triangle) error {
	if p.Factor != t.V1.Factor {
		return fmt.Errorf("%w: point factor %d, triangle factor %d", zkerr.FactorMismatch, p.Factor, t.V1.Factor)
	}
	return nil
}

func pow10(n uint64) uint64 {
	v := uint64(1)
	for ; n > 0; n-- {
		v *= 10
	}
	return v
}
