package fixedpoint

import (
	"math/big"
	"testing"
)

func TestParseDecimal(t *testing.T) {
	cases := []struct {
		in        string
		magnitude uint64
		negative  bool
		factor    uint8
	}{
		{"37.7749", 377749, false, 4},
		{"-122.4194", 1224194, true, 4},
		{"90", 90, false, 0},
		{"-7", 7, true, 0},
		{"0.0000001", 1, false, 7},
	}
	for _, c := range cases {
		got, factor, err := ParseDecimal(c.in)
		if err != nil {
			t.Fatalf("ParseDecimal(%q): %v", c.in, err)
		}
		if got.Magnitude != c.magnitude || got.Negative != c.negative || factor != c.factor {
			t.Errorf("ParseDecimal(%q) = (%d, %v, %d), want (%d, %v, %d)",
				c.in, got.Magnitude, got.Negative, factor, c.magnitude, c.negative, c.factor)
		}
	}
}

func TestParseDecimalRejectsExcessiveFactor(t *testing.T) {
	if _, _, err := ParseDecimal("1.12345678"); err == nil {
		t.Fatal("expected error for factor > MaxFactor")
	}
}

func TestSignedRoundTrip(t *testing.T) {
	for _, v := range []int64{0, 1, -1, 1800000000, -1800000000} {
		if got := FromSigned(v).Signed(); got != v {
			t.Errorf("FromSigned(%d).Signed() = %d", v, got)
		}
	}
}

func TestFromBigIntRoundTrip(t *testing.T) {
	for _, v := range []int64{0, 42, -42} {
		got := FromBigInt(big.NewInt(v))
		if got.Signed() != v {
			t.Errorf("FromBigInt(%d).Signed() = %d", v, got.Signed())
		}
	}
}

func TestFieldElement(t *testing.T) {
	neg := New(5, true)
	if neg.FieldElement().Sign() >= 0 {
		t.Errorf("FieldElement of negative value should stay negative before field reduction")
	}
}

func TestRescale(t *testing.T) {
	v := New(5, false) // 5 at factor 0
	got, err := Rescale(v, 0, 2)
	if err != nil {
		t.Fatal(err)
	}
	if got.Magnitude != 500 {
		t.Errorf("Rescale(5, 0->2) = %d, want 500", got.Magnitude)
	}
	if _, err := Rescale(v, 2, 0); err == nil {
		t.Fatal("expected error rescaling down")
	}
}
