package pointinpolygon

import (
	"math/big"

	"github.com/zklocus/zklocus-core/coordinate"
)

// Evaluate computes isInside for query against tri using exact
// big.Int arithmetic, mirroring Circuit.Define's edge-membership and
// ray-casting logic bit for bit (modulo the hint-based truncating
// division, which big.Int.QuoRem already implements natively). It is
// the reference the driver uses to decide a witness's IsInside value
// before proving, and the oracle for this package's property tests
// (spec.md §8).
func Evaluate(query coordinate.Coordinate, tri coordinate.Triangle) bool {
	x := query.Longitude.FieldElement()
	y := query.Latitude.FieldElement()

	verts := [3][2]*big.Int{
		{tri.V1.Longitude.FieldElement(), tri.V1.Latitude.FieldElement()},
		{tri.V2.Longitude.FieldElement(), tri.V2.Latitude.FieldElement()},
		{tri.V3.Longitude.FieldElement(), tri.V3.Latitude.FieldElement()},
	}

	onEdge := false
	inside := false
	for i := 0; i < 3; i++ {
		j := (i + 2) % 3
		xi, yi := verts[i][0], verts[i][1]
		xj, yj := verts[j][0], verts[j][1]

		if edgeMemberNative(x, y, xi, yi, xj, yj) {
			onEdge = true
		}
		if rayFlipNative(x, y, xi, yi, xj, yj) {
			inside = !inside
		}
	}

	return onEdge || inside
}

func edgeMemberNative(x, y, x1, y1, x2, y2 *big.Int) bool {
	minX, maxX := x1, x2
	if minX.Cmp(maxX) > 0 {
		minX, maxX = maxX, minX
	}
	minY, maxY := y1, y2
	if minY.Cmp(maxY) > 0 {
		minY, maxY = maxY, minY
	}
	if x.Cmp(minX) < 0 || x.Cmp(maxX) > 0 {
		return false
	}
	if y.Cmp(minY) < 0 || y.Cmp(maxY) > 0 {
		return false
	}

	lhs := new(big.Int).Mul(new(big.Int).Sub(x2, x1), new(big.Int).Sub(y, y1))
	rhs := new(big.Int).Mul(new(big.Int).Sub(x, x1), new(big.Int).Sub(y2, y1))
	return lhs.Cmp(rhs) == 0
}

func rayFlipNative(x, y, xi, yi, xj, yj *big.Int) bool {
	straddle := (y.Cmp(yi) < 0) != (y.Cmp(yj) < 0)
	if !straddle {
		return false
	}

	denom := new(big.Int).Sub(yj, yi)
	if denom.Sign() == 0 {
		return false
	}
	numer := new(big.Int).Mul(new(big.Int).Sub(xj, xi), new(big.Int).Sub(y, yi))

	q := new(big.Int).Quo(numer, denom)
	intersectX := new(big.Int).Add(xi, q)

	return x.Cmp(intersectX) < 0
}
