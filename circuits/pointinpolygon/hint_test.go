package pointinpolygon

import (
	"math/big"
	"testing"
)

func TestTruncDivModHintPositive(t *testing.T) {
	field := new(big.Int).Lsh(big.NewInt(1), 254)
	outputs := make([]*big.Int, 2)
	outputs[0], outputs[1] = new(big.Int), new(big.Int)
	if err := truncDivModHint(field, []*big.Int{big.NewInt(7), big.NewInt(2)}, outputs); err != nil {
		t.Fatal(err)
	}
	if outputs[0].Cmp(big.NewInt(3)) != 0 || outputs[1].Cmp(big.NewInt(1)) != 0 {
		t.Fatalf("7/2 = (%s, %s), want (3, 1)", outputs[0], outputs[1])
	}
}

func TestTruncDivModHintTruncatesTowardZero(t *testing.T) {
	field := new(big.Int).Lsh(big.NewInt(1), 254)
	num := new(big.Int).Sub(field, big.NewInt(7)) // centered(-7)
	den := big.NewInt(2)
	outputs := make([]*big.Int, 2)
	outputs[0], outputs[1] = new(big.Int), new(big.Int)
	if err := truncDivModHint(field, []*big.Int{num, den}, outputs); err != nil {
		t.Fatal(err)
	}
	q := centered(field, outputs[0])
	r := centered(field, outputs[1])
	// Go's QuoRem truncates toward zero: -7/2 = -3 remainder -1.
	if q.Cmp(big.NewInt(-3)) != 0 || r.Cmp(big.NewInt(-1)) != 0 {
		t.Fatalf("-7/2 = (%s, %s), want (-3, -1)", q, r)
	}
}

func TestCenteredRoundTrip(t *testing.T) {
	field := new(big.Int).Lsh(big.NewInt(1), 254)
	for _, v := range []int64{0, 1, -1, 1000, -1000} {
		reduced := new(big.Int).Mod(big.NewInt(v), field)
		got := centered(field, reduced)
		if got.Cmp(big.NewInt(v)) != 0 {
			t.Errorf("centered(mod(%d)) = %s, want %d", v, got, v)
		}
	}
}
