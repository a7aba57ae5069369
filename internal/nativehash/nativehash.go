// Package nativehash computes, out of circuit, the same Poseidon2
// Merkle-Damgard sum every circuit in this module asserts in-circuit
// via std/permutation/poseidon2 + std/hash.NewMerkleDamgardHasher.
//
// A digest is only useful here if it can be asserted equal to an
// in-circuit sum, and that sum lives in the field the consuming
// circuit is compiled over — so there is one function per curve this
// module actually compiles a circuit over, each built from that
// curve's own gnark-crypto fr/poseidon2 package rather than a single
// curve-agnostic hash. Using one field's Poseidon2 permutation to
// stand in for another's, or a differently-specified permutation
// (classic Poseidon, different round counts) entirely, produces a
// digest AssertIsEqual can never match.
//
// Every call site uses the same (width, full rounds, partial rounds)
// = (2, 6, 50) parameterization std/permutation/poseidon2 is given in
// this module's circuits. std.NewMerkleDamgardHasher's Sum is not a
// sponge that carries a capacity lane across absorbs — it is a
// Merkle-Damgard chain of single-block compressions: starting from an
// IV of zero, each written element is folded in one at a time via
// state = Compress(state, elem), where Compress(l, r) permutes the
// pair [l, r] and feeds the pre-permutation right (message) lane back
// into the permuted right lane, discarding the permuted left lane
// entirely before the next absorb. Carrying the capacity lane across
// absorbs, or omitting the feed-forward, computes a different
// function that never agrees with the in-circuit Sum().
package nativehash

import (
	"fmt"
	"math/big"

	bls12377fr "github.com/consensys/gnark-crypto/ecc/bls12-377/fr"
	bls12377poseidon2 "github.com/consensys/gnark-crypto/ecc/bls12-377/fr/poseidon2"
	bn254fr "github.com/consensys/gnark-crypto/ecc/bn254/fr"
	bn254poseidon2 "github.com/consensys/gnark-crypto/ecc/bn254/fr/poseidon2"
	bw6761fr "github.com/consensys/gnark-crypto/ecc/bw6-761/fr"
	bw6761poseidon2 "github.com/consensys/gnark-crypto/ecc/bw6-761/fr/poseidon2"
)

const (
	width         = 2
	fullRounds    = 6
	partialRounds = 50
)

// Poseidon2BN254 hashes elems over BN254's scalar field, matching every
// pointinpolygon, rollup, reveal and coordinate in-circuit commitment.
func Poseidon2BN254(elems []*big.Int) (*big.Int, error) {
	perm := bn254poseidon2.NewPermutation(width, fullRounds, partialRounds)

	var state bn254fr.Element
	for _, e := range elems {
		var msg bn254fr.Element
		msg.SetBigInt(e)

		lane := []bn254fr.Element{state, msg}
		if err := perm.Permutation(lane); err != nil {
			return nil, fmt.Errorf("nativehash: bn254 permutation: %w", err)
		}
		state.Add(&lane[1], &msg)
	}

	var out big.Int
	state.BigInt(&out)
	return &out, nil
}

// Poseidon2BLS12377 hashes elems over BLS12-377's scalar field,
// matching circuits/oracle's in-circuit commitments.
func Poseidon2BLS12377(elems []*big.Int) (*big.Int, error) {
	perm := bls12377poseidon2.NewPermutation(width, fullRounds, partialRounds)

	var state bls12377fr.Element
	for _, e := range elems {
		var msg bls12377fr.Element
		msg.SetBigInt(e)

		lane := []bls12377fr.Element{state, msg}
		if err := perm.Permutation(lane); err != nil {
			return nil, fmt.Errorf("nativehash: bls12-377 permutation: %w", err)
		}
		state.Add(&lane[1], &msg)
	}

	var out big.Int
	state.BigInt(&out)
	return &out, nil
}

// Poseidon2BW6761 hashes elems over BW6-761's scalar field, matching
// circuits/provider's own in-circuit coordinate-commitment check.
func Poseidon2BW6761(elems []*big.Int) (*big.Int, error) {
	perm := bw6761poseidon2.NewPermutation(width, fullRounds, partialRounds)

	var state bw6761fr.Element
	for _, e := range elems {
		var msg bw6761fr.Element
		msg.SetBigInt(e)

		lane := []bw6761fr.Element{state, msg}
		if err := perm.Permutation(lane); err != nil {
			return nil, fmt.Errorf("nativehash: bw6-761 permutation: %w", err)
		}
		state.Add(&lane[1], &msg)
	}

	var out big.Int
	state.BigInt(&out)
	return &out, nil
}
