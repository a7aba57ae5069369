package oracle

import (
	"crypto/rand"
	"crypto/sha256"
	"math/big"
	"testing"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark-crypto/ecc/secp256k1/ecdsa"
	"github.com/consensys/gnark/backend"
	"github.com/consensys/gnark/test"

	"github.com/zklocus/zklocus-core/coordinate"
	"github.com/zklocus/zklocus-core/fixedpoint"
)

// signedWitness produces a Witness whose signature genuinely verifies:
// a fresh secp256k1 keypair signs the coordinate commitment's digest,
// mirroring the PrivateKey.Sign/Signature.SetBytes pattern gnark-crypto
// ships for exactly this purpose.
func signedWitness(t *testing.T) Witness {
	privKey, err := ecdsa.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}

	c, err := coordinate.New(fixedpoint.FromSigned(377749), fixedpoint.FromSigned(-1224194), 4)
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
	s := new(big.Int).SetBytes(sig.S[:32])

	digest := sha256.Sum256(msg)
	message := new(big.Int).SetBytes(digest[:])

	pkX, pkY := new(big.Int), new(big.Int)
	privKey.PublicKey.A.X.BigInt(pkX)
	privKey.PublicKey.A.Y.BigInt(pkY)

	pkCommitment, err := NativePublicKeyCommitment(pkX, pkY)
	if err != nil {
		t.Fatal(err)
	}
	// The circuit is compiled over BLS12-377, so its public coordinate
	// commitment is the BLS12-377-native one, not the BN254 value signed above.
	oracleCoordCommitment, err := NativeCoordinateCommitment(c.Latitude.FieldElement(), c.Longitude.FieldElement(), c.Factor, nonce)
	if err != nil {
		t.Fatal(err)
	}

	return Witness{
		PublicKeyX:           pkX,
		PublicKeyY:           pkY,
		SigR:                 r,
		SigS:                 s,
		Message:              message,
		Latitude:             c.Latitude.FieldElement(),
		Longitude:            c.Longitude.FieldElement(),
		Factor:               c.Factor,
		Nonce:                nonce,
		PublicKeyCommitment:  pkCommitment,
		CoordinateCommitment: oracleCoordCommitment,
	}
}

func TestCircuitProverSucceedsOnValidSignature(t *testing.T) {
	assert := test.NewAssert(t)
	w := signedWitness(t)
	assert.ProverSucceeded(&Circuit{}, w.Assignment(),
		test.WithCurves(ecc.BLS12_377), test.WithBackends(backend.GROTH16))
}

func TestCircuitProverFailsOnTamperedMessage(t *testing.T) {
	assert := test.NewAssert(t)
	w := signedWitness(t)
	w.Message = new(big.Int).Add(w.Message, big.NewInt(1))
	assert.ProverFailed(&Circuit{}, w.Assignment(),
		test.WithCurves(ecc.BLS12_377), test.WithBackends(backend.GROTH16))
}

func TestCircuitProverFailsOnWrongCoordinateCommitment(t *testing.T) {
	assert := test.NewAssert(t)
	w := signedWitness(t)
	w.CoordinateCommitment = new(big.Int).Add(w.CoordinateCommitment, big.NewInt(1))
	assert.ProverFailed(&Circuit{}, w.Assignment(),
		test.WithCurves(ecc.BLS12_377), test.WithBackends(backend.GROTH16))
}

func TestNativePublicKeyCommitmentDeterministic(t *testing.T) {
	x, y := big.NewInt(123), big.NewInt(456)
	h1, err := NativePublicKeyCommitment(x, y)
	if err != nil {
		t.Fatal(err)
	}
	h2, err := NativePublicKeyCommitment(x, y)
	if err != nil {
		t.Fatal(err)
	}
	if h1.Cmp(h2) != 0 {
		t.Fatal("NativePublicKeyCommitment is not deterministic")
	}

	h3, err := NativePublicKeyCommitment(y, x)
	if err != nil {
		t.Fatal(err)
	}
	if h1.Cmp(h3) == 0 {
		t.Fatal("NativePublicKeyCommitment should depend on argument order")
	}
}
