// Package fixedpoint implements FixedPointInt (FPI): a signed integer
// representing value × 10⁻f for a shared decimal factor f, 0 ≤ f ≤ 7.
// Coordinates are stored this way so every downstream circuit does
// exact signed-integer arithmetic instead of floating point.
package fixedpoint

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// MaxFactor is the largest decimal factor this module accepts, per
// the coordinate domain invariant f ≤ 7.
const MaxFactor uint8 = 7

// Int is a signed fixed-point integer: Magnitude scaled by 10⁻factor,
// negated when Negative is set. The factor itself is tracked by the
// caller (Coordinate carries one factor shared by latitude, longitude
// and every triangle vertex), not inside Int, since mixing factors
// within a single value never occurs in this domain.
type Int struct {
	Magnitude uint64
	Negative  bool
}

// Zero is the additive identity.
var Zero = Int{}

// New builds an Int from a magnitude and sign. A zero magnitude is
// always treated as non-negative.
func New(magnitude uint64, negative bool) Int {
	if magnitude == 0 {
		negative = false
	}
	return Int{Magnitude: magnitude, Negative: negative}
}

// Signed returns the value as a signed int64. The domain's overflow
// budget (§4.2: magnitudes ≤ 180·10⁷) keeps this safely within range.
func (i Int) Signed() int64 {
	v := int64(i.Magnitude)
	if i.Negative {
		return -v
	}
	return v
}

// FromSigned builds an Int from a signed int64.
func FromSigned(v int64) Int {
	if v < 0 {
		return New(uint64(-v), true)
	}
	return New(uint64(v), false)
}

// FromBigInt builds an Int from a signed *big.Int, such as a circuit's
// decoded public output. The domain's overflow budget keeps the
// magnitude well within uint64.
func FromBigInt(v *big.Int) Int {
	if v.Sign() < 0 {
		return New(new(big.Int).Neg(v).Uint64(), true)
	}
	return New(v.Uint64(), false)
}

// FieldElement returns the value as a *big.Int suitable for assignment
// into a gnark witness; gnark reduces negative values mod the scalar
// field automatically, so no explicit two's-complement step is needed
// here.
func (i Int) FieldElement() *big.Int {
	v := new(big.Int).SetUint64(i.Magnitude)
	if i.Negative {
		v.Neg(v)
	}
	return v
}

// ParseDecimal parses a decimal string ("37.7749", "-122.4194", "90",
// "-7") into a magnitude/sign pair plus the inferred decimal factor
// (the number of digits after the point), rejecting anything with
// more than MaxFactor fractional digits.
func ParseDecimal(s string) (Int, uint8, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Int{}, 0, fmt.Errorf("fixedpoint: empty literal")
	}

	negative := false
	switch s[0] {
	case '-':
		negative = true
		s = s[1:]
	case '+':
		s = s[1:]
	}

	whole, frac, hasFrac := strings.Cut(s, ".")
	if whole == "" {
		whole = "0"
	}
	factor := 0
	if hasFrac {
		factor = len(frac)
	}
	if factor > int(MaxFactor) {
		return Int{}, 0, fmt.Errorf("fixedpoint: factor %d exceeds max %d", factor, MaxFactor)
	}

	digits := whole + frac
	magnitude, err := strconv.ParseUint(digits, 10, 64)
	if err != nil {
		return Int{}, 0, fmt.Errorf("fixedpoint: invalid literal %q: %w", s, err)
	}

	return New(magnitude, negative), uint8(factor), nil
}

// Rescale returns i scaled from factor `from` up to factor `to` (to ≥
// from), preserving the represented decimal value. It is used to bring
// a literal entered at a lower factor up to the factor shared by the
// rest of a coordinate or triangle.
func Rescale(i Int, from, to uint8) (Int, error) {
	if to < from {
		return Int{}, fmt.Errorf("fixedpoint: cannot rescale down from factor %d to %d", from, to)
	}
	scale := pow10(uint64(to - from))
	return New(i.Magnitude*scale, i.Negative), nil
}

func pow10(n uint64) uint64 {
	v := uint64(1)
	for ; n > 0; n-- {
		v *= 10
	}
	return v
}
