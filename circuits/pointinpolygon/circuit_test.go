package pointinpolygon

import (
	"math/big"
	"testing"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend"
	"github.com/consensys/gnark/test"

	"github.com/zklocus/zklocus-core/coordinate"
	"github.com/zklocus/zklocus-core/fixedpoint"
)

func testWitness(t *testing.T, lat, lon int64, inside bool) Witness {
	query := coord(t, lat, lon, 0)
	tri := rightTriangle(t)

	coordHash, err := query.Hash()
	if err != nil {
		t.Fatal(err)
	}
	nonce := big.NewInt(7)
	coordCommitment, err := coordinate.NoncedCoordinate{Coordinate: query, Nonce: nonce}.Commitment()
	if err != nil {
		t.Fatal(err)
	}
	_ = coordHash
	polyCommitment, err := tri.Commitment()
	if err != nil {
		t.Fatal(err)
	}

	return Witness{
		Latitude:             fixedpoint.FromSigned(lat).FieldElement(),
		Longitude:            fixedpoint.FromSigned(lon).FieldElement(),
		Factor:               0,
		Nonce:                nonce,
		V1Lat:                big.NewInt(0),
		V1Lon:                big.NewInt(0),
		V2Lat:                big.NewInt(0),
		V2Lon:                big.NewInt(10),
		V3Lat:                big.NewInt(10),
		V3Lon:                big.NewInt(0),
		CoordinateCommitment: coordCommitment,
		PolygonCommitment:    polyCommitment,
		IsInside:             inside,
	}
}

func TestCircuitProverSucceedsInterior(t *testing.T) {
	assert := test.NewAssert(t)
	w := testWitness(t, 1, 1, true)
	assert.ProverSucceeded(&Circuit{}, w.Assignment(),
		test.WithCurves(ecc.BN254), test.WithBackends(backend.GROTH16))
}

func TestCircuitProverSucceedsExterior(t *testing.T) {
	assert := test.NewAssert(t)
	w := testWitness(t, 20, 20, false)
	assert.ProverSucceeded(&Circuit{}, w.Assignment(),
		test.WithCurves(ecc.BN254), test.WithBackends(backend.GROTH16))
}

func TestCircuitProverFailsOnWrongIsInside(t *testing.T) {
	assert := test.NewAssert(t)
	w := testWitness(t, 1, 1, false) // actually inside, claimed outside
	assert.ProverFailed(&Circuit{}, w.Assignment(),
		test.WithCurves(ecc.BN254), test.WithBackends(backend.GROTH16))
}
