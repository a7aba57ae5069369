package pointinpolygon

import (
	"math/big"

	"github.com/consensys/gnark/constraint/solver"
)

func init() {
	solver.RegisterHint(truncDivModHint)
}

// centered reinterprets a field element as a signed integer, assuming
// its true magnitude is far smaller than half the field: any value
// past the field's midpoint is treated as the negative residue it
// reduces from. This lets the truncDivMod hint recover the signed
// operands gnark's witness solver otherwise only exposes as field
// elements.
func centered(field, v *big.Int) *big.Int {
	half := new(big.Int).Rsh(field, 1)
	if v.Cmp(half) > 0 {
		return new(big.Int).Sub(v, field)
	}
	return new(big.Int).Set(v)
}

// truncDivModHint computes num/den truncated toward zero and its
// remainder, matching Go's (*big.Int).QuoRem semantics, which is the
// truncation rule the ray-casting intersection test requires. Inputs
// and outputs are field elements; signed values are recovered via
// centered and re-reduced via Mod before being written back.
func truncDivModHint(field *big.Int, inputs []*big.Int, outputs []*big.Int) error {
	num := centered(field, inputs[0])
	den := centered(field, inputs[1])

	q, r := new(big.Int), new(big.Int)
	q.QuoRem(num, den, r)

	outputs[0].Mod(q, field)
	outputs[1].Mod(r, field)
	return nil
}
