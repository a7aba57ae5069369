package session

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"math/big"
	"os"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/secp256k1/ecdsa"

	"github.com/zklocus/zklocus-core/coordinate"
	"github.com/zklocus/zklocus-core/fixedpoint"
	"github.com/zklocus/zklocus-core/zkerr"
)

func TestUnauthenticatedOperationsFail(t *testing.T) {
	s := New()
	tri := mustTriangle(t, 0, 0, 0, 10, 10, 0)

	if _, err := s.InPolygon(tri); err == nil {
		t.Fatal("expected InPolygon to fail before authentication")
	} else if !errors.Is(err, zkerr.Unauthenticated) {
		t.Fatalf("expected Unauthenticated, got %v", err)
	}

	if _, err := s.ExactGeoPoint(); err == nil {
		t.Fatal("expected ExactGeoPoint to fail before authentication")
	}

	if _, err := s.AttachMetadata([]byte("x")); err == nil {
		t.Fatal("expected AttachMetadata to fail before authentication")
	}
}

func TestCombineProofsRequiresAtLeastTwo(t *testing.T) {
	s := New()
	if _, err := s.CombineProofs([]Handle{0}); err == nil {
		t.Fatal("expected InsufficientProofs error")
	} else if !errors.Is(err, zkerr.InsufficientProofs) {
		t.Fatalf("expected InsufficientProofs, got %v", err)
	}
}

func TestCombinePointInPolygonProofsRequiresBothSides(t *testing.T) {
	s := New()
	if _, err := s.CombinePointInPolygonProofs(); err == nil {
		t.Fatal("expected MissingProofSet error")
	} else if !errors.Is(err, zkerr.MissingProofSet) {
		t.Fatalf("expected MissingProofSet, got %v", err)
	}
}

// TestFullSessionFlow exercises AuthenticateFromOracle through
// CombinePointInPolygonProofs end to end. Like provider's own
// recursive-circuit test, it compiles and proves seven distinct Groth16
// circuits (one of them over BW6-761), so it only runs when
// RUN_CIRCUIT_TESTS is set.
func TestFullSessionFlow(t *testing.T) {
	if os.Getenv("RUN_CIRCUIT_TESTS") == "" {
		t.Skip("skipping expensive end-to-end circuit test; set RUN_CIRCUIT_TESTS=1 to run")
	}

	s := New()

	privKey, err := ecdsa.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}

	c, err := coordinate.New(fixedpoint.FromSigned(37), fixedpoint.FromSigned(-123), 0)
	if err != nil {
		t.Fatal(err)
	}
	nonce := big.NewInt(42)
	nc, err := coordinate.NewNonced(c, nonce)
	if err != nil {
		t.Fatal(err)
	}
	coordCommitment, err := nc.Commitment()
	if err != nil {
		t.Fatal(err)
	}

	msg := coordCommitment.Bytes()
	sigBytes, err := privKey.Sign(msg, sha256.New())
	if err != nil {
		t.Fatal(err)
	}
	var sig ecdsa.Signature
	if _, err := sig.SetBytes(sigBytes); err != nil {
		t.Fatal(err)
	}
	r := new(big.Int).SetBytes(sig.R[:32])
	sVal := new(big.Int).SetBytes(sig.S[:32])
	digest := sha256.Sum256(msg)
	message := new(big.Int).SetBytes(digest[:])

	pkX, pkY := new(big.Int), new(big.Int)
	privKey.PublicKey.A.X.BigInt(pkX)
	privKey.PublicKey.A.Y.BigInt(pkY)

	if err := s.AuthenticateFromOracle(OracleAttestationInput{
		PublicKeyX: pkX,
		PublicKeyY: pkY,
		SigR:       r,
		SigS:       sVal,
		Message:    message,
		Coordinate: nc,
	}); err != nil {
		t.Fatal(err)
	}

	// The authenticated query point (37,-123) sits strictly inside the
	// first triangle and strictly outside the second.
	inside := mustTriangle(t, 36, -124, 36, -120, 40, -124)
	outside := mustTriangle(t, 0, 0, 0, 1, 1, 0)

	hIn, err := s.InPolygon(inside)
	if err != nil {
		t.Fatal(err)
	}
	hOut, err := s.InPolygon(outside)
	if err != nil {
		t.Fatal(err)
	}
	if !s.arena[hIn].Result.IsInside {
		t.Fatal("expected the first triangle to be classified inside")
	}
	if s.arena[hOut].Result.IsInside {
		t.Fatal("expected the second triangle to be classified outside")
	}

	if _, err := s.CombinePointInPolygonProofs(); err != nil {
		t.Fatal(err)
	}

	if _, err := s.ExactGeoPoint(); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AttachMetadata([]byte("parcel-42")); err != nil {
		t.Fatal(err)
	}
}

func mustTriangle(t *testing.T, v1lat, v1lon, v2lat, v2lon, v3lat, v3lon int64) coordinate.Triangle {
	v1, err := coordinate.New(fixedpoint.FromSigned(v1lat), fixedpoint.FromSigned(v1lon), 0)
	if err != nil {
		t.Fatal(err)
	}
	v2, err := coordinate.New(fixedpoint.FromSigned(v2lat), fixedpoint.FromSigned(v2lon), 0)
	if err != nil {
		t.Fatal(err)
	}
	v3, err := coordinate.New(fixedpoint.FromSigned(v3lat), fixedpoint.FromSigned(v3lon), 0)
	if err != nil {
		t.Fatal(err)
	}
	tri, err := coordinate.NewTriangle(v1, v2, v3)
	if err != nil {
		t.Fatal(err)
	}
	return tri
}
