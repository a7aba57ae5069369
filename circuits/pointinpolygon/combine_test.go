package pointinpolygon

import (
	"math/big"
	"testing"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend"
	"github.com/consensys/gnark/test"
)

func pairWitness(t *testing.T, p1Inside, p2Inside bool) PairWitness {
	return PairWitness{
		P1: Result{
			CoordinateCommitment: big.NewInt(100),
			PolygonCommitment:    big.NewInt(1),
			IsInside:             p1Inside,
		},
		P2: Result{
			CoordinateCommitment: big.NewInt(100),
			PolygonCommitment:    big.NewInt(2),
			IsInside:             p2Inside,
		},
	}
}

func TestANDAssignmentRejectsPolarityMismatch(t *testing.T) {
	w := pairWitness(t, true, false)
	if _, err := w.andAssignment(); err == nil {
		t.Fatal("expected PolarityMismatch error")
	}
}

func TestANDAssignmentRejectsDuplicatePolygon(t *testing.T) {
	w := pairWitness(t, true, true)
	w.P2.PolygonCommitment = w.P1.PolygonCommitment
	if _, err := w.andAssignment(); err == nil {
		t.Fatal("expected DuplicatePolygon error")
	}
}

func TestORAssignmentRejectsDuplicatePolygon(t *testing.T) {
	w := pairWitness(t, true, false)
	w.P2.PolygonCommitment = w.P1.PolygonCommitment
	if _, err := w.orAssignment(); err == nil {
		t.Fatal("expected DuplicatePolygon error")
	}
}

func TestANDCircuitProverSucceeds(t *testing.T) {
	assert := test.NewAssert(t)
	w := pairWitness(t, true, true)
	assignment, err := w.andAssignment()
	if err != nil {
		t.Fatal(err)
	}
	assert.ProverSucceeded(&ANDCircuit{}, assignment,
		test.WithCurves(ecc.BN254), test.WithBackends(backend.GROTH16))
}

func TestORCircuitProverSucceeds(t *testing.T) {
	assert := test.NewAssert(t)
	w := pairWitness(t, true, false)
	assignment, err := w.orAssignment()
	if err != nil {
		t.Fatal(err)
	}
	assert.ProverSucceeded(&ORCircuit{}, assignment,
		test.WithCurves(ecc.BN254), test.WithBackends(backend.GROTH16))
}

func TestORCircuitProverFailsOnWrongOutput(t *testing.T) {
	assert := test.NewAssert(t)
	w := pairWitness(t, true, false)
	assignment, err := w.orAssignment()
	if err != nil {
		t.Fatal(err)
	}
	assignment.IsInside = boolVar(false) // true OR false must be true
	assert.ProverFailed(&ORCircuit{}, assignment,
		test.WithCurves(ecc.BN254), test.WithBackends(backend.GROTH16))
}
