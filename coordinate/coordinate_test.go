package coordinate

import (
	"math/big"
	"testing"

	"github.com/zklocus/zklocus-core/fixedpoint"
)

func mustCoord(t *testing.T, lat, lon int64, factor uint8) Coordinate {
	c, err := New(fixedpoint.FromSigned(lat), fixedpoint.FromSigned(lon), factor)
	if err != nil {
		t.Fatalf("New(%d, %d, %d): %v", lat, lon, factor, err)
	}
	return c
}

func TestValidateRejectsOutOfRangeLatitude(t *testing.T) {
	if _, err := New(fixedpoint.FromSigned(91), fixedpoint.FromSigned(0), 0); err == nil {
		t.Fatal("expected error for |lat| > 90")
	}
}

func TestValidateRejectsOutOfRangeLongitude(t *testing.T) {
	if _, err := New(fixedpoint.FromSigned(0), fixedpoint.FromSigned(181), 0); err == nil {
		t.Fatal("expected error for |lon| > 180")
	}
}

func TestValidateRejectsExcessiveFactor(t *testing.T) {
	if _, err := New(fixedpoint.FromSigned(0), fixedpoint.FromSigned(0), 8); err == nil {
		t.Fatal("expected error for factor > 7")
	}
}

func TestHashIsDeterministic(t *testing.T) {
	c := mustCoord(t, 10, 20, 0)
	h1, err := c.Hash()
	if err != nil {
		t.Fatal(err)
	}
	h2, err := c.Hash()
	if err != nil {
		t.Fatal(err)
	}
	if h1.Cmp(h2) != 0 {
		t.Fatal("Hash is not deterministic")
	}

	other := mustCoord(t, 10, 21, 0)
	h3, err := other.Hash()
	if err != nil {
		t.Fatal(err)
	}
	if h1.Cmp(h3) == 0 {
		t.Fatal("distinct coordinates hashed to the same value")
	}
}

func TestNoncedCommitmentBindsNonce(t *testing.T) {
	c := mustCoord(t, 10, 20, 0)
	nc1, err := NewNonced(c, big.NewInt(1))
	if err != nil {
		t.Fatal(err)
	}
	nc2, err := NewNonced(c, big.NewInt(2))
	if err != nil {
		t.Fatal(err)
	}

	c1, err := nc1.Commitment()
	if err != nil {
		t.Fatal(err)
	}
	c2, err := nc2.Commitment()
	if err != nil {
		t.Fatal(err)
	}
	if c1.Cmp(c2) == 0 {
		t.Fatal("commitments for distinct nonces collided")
	}
}

func TestNewNoncedRejectsNilNonce(t *testing.T) {
	c := mustCoord(t, 10, 20, 0)
	if _, err := NewNonced(c, nil); err == nil {
		t.Fatal("expected error for nil nonce")
	}
}

func TestNewTriangleRejectsDegenerate(t *testing.T) {
	v1 := mustCoord(t, 0, 0, 0)
	v2 := mustCoord(t, 0, 1, 0)
	v3 := mustCoord(t, 0, 2, 0)
	if _, err := NewTriangle(v1, v2, v3); err == nil {
		t.Fatal("expected error for collinear (degenerate) triangle")
	}
}

func TestNewTriangleRejectsFactorMismatch(t *testing.T) {
	v1 := mustCoord(t, 0, 0, 0)
	v2 := mustCoord(t, 0, 1, 0)
	v3, err := New(fixedpoint.FromSigned(10), fixedpoint.FromSigned(0), 2)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewTriangle(v1, v2, v3); err == nil {
		t.Fatal("expected error for mismatched factors")
	}
}

func TestSignedArea2NonZeroForNonDegenerate(t *testing.T) {
	v1 := mustCoord(t, 0, 0, 0)
	v2 := mustCoord(t, 0, 10, 0)
	v3 := mustCoord(t, 10, 0, 0)
	tri, err := NewTriangle(v1, v2, v3)
	if err != nil {
		t.Fatal(err)
	}
	if SignedArea2(tri) == 0 {
		t.Fatal("expected non-zero signed area")
	}
}

func TestTriangleCommitmentOrderSensitive(t *testing.T) {
	v1 := mustCoord(t, 0, 0, 0)
	v2 := mustCoord(t, 0, 10, 0)
	v3 := mustCoord(t, 10, 0, 0)

	tri1, err := NewTriangle(v1, v2, v3)
	if err != nil {
		t.Fatal(err)
	}
	tri2, err := NewTriangle(v2, v1, v3)
	if err != nil {
		t.Fatal(err)
	}

	c1, err := tri1.Commitment()
	if err != nil {
		t.Fatal(err)
	}
	c2, err := tri2.Commitment()
	if err != nil {
		t.Fatal(err)
	}
	if c1.Cmp(c2) == 0 {
		t.Fatal("commitment should depend on vertex order")
	}
}

func TestRequireSameFactor(t *testing.T) {
	p := mustCoord(t, 5, 5, 0)
	v1 := mustCoord(t, 0, 0, 0)
	v2 := mustCoord(t, 0, 10, 0)
	v3 := mustCoord(t, 10, 0, 0)
	tri, err := NewTriangle(v1, v2, v3)
	if err != nil {
		t.Fatal(err)
	}
	if err := RequireSameFactor(p, tri); err != nil {
		t.Fatal(err)
	}

	mismatched, err := New(fixedpoint.FromSigned(5), fixedpoint.FromSigned(5), 2)
	if err != nil {
		t.Fatal(err)
	}
	if err := RequireSameFactor(mismatched, tri); err == nil {
		t.Fatal("expected factor mismatch error")
	}
}
