package oracle

import "math/big"

// secp256k1 field elements are emulated in-circuit as 4 limbs of 64
// bits each (256-bit Fp over a 64-bit-limb non-native field), the
// default gnark std/math/emulated parameterization for
// emulated.Secp256k1Fp. NativePublicKeyCommitment must decompose a
// public key coordinate into limbs the same way to reproduce
// Circuit.Define's pkHasher.Write(c.PublicKey.X.Limbs...) call
// natively.
const (
	limbBits  = 64
	limbCount = 4
)

func decomposeLimbs(v *big.Int) []*big.Int {
	limbs := make([]*big.Int, limbCount)
	mask := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), limbBits), big.NewInt(1))
	rem := new(big.Int).Set(v)
	for i := 0; i < limbCount; i++ {
		limbs[i] = new(big.Int).And(rem, mask)
		rem = new(big.Int).Rsh(rem, limbBits)
	}
	return limbs
}
