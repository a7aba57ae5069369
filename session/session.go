// Package session implements the non-circuit proof-session driver of
// spec.md §4.7: an owned, single-threaded builder that tracks optional
// oracle authentication and per-side lists of point-in-polygon proofs,
// and orchestrates the recursive composition circuits into rollups,
// reveals and metadata bindings.
//
// Per spec.md §9, proof values are stored in a flat arena (Session.arena)
// and referenced by integer Handle rather than by pointer, so the
// inside/outside lists never form the mutually-recursive object graph
// the source exhibited. Every operation here either succeeds and
// records new state, or fails with a zkerr sentinel and leaves Session
// untouched (spec.md §5, §7).
package session

import (
	"crypto/sha256"
	"fmt"
	"math/big"

	"github.com/zklocus/zklocus-core/circuits/oracle"
	"github.com/zklocus/zklocus-core/circuits/pointinpolygon"
	"github.com/zklocus/zklocus-core/circuits/reveal"
	"github.com/zklocus/zklocus-core/circuits/rollup"
	"github.com/zklocus/zklocus-core/circuits/provider"
	"github.com/zklocus/zklocus-core/coordinate"
	"github.com/zklocus/zklocus-core/fixedpoint"
	"github.com/zklocus/zklocus-core/zkerr"
)

// Handle indexes a proof stored in a Session's arena.
type Handle int

// Session is a single logical caller's proof-building state. It is not
// safe for concurrent use; a caller sharing one across goroutines must
// impose its own mutual exclusion (spec.md §5 "Locking").
type Session struct {
	oracle *oracleState

	arena   []*pointinpolygon.Proof
	inside  []Handle
	outside []Handle
}

type oracleState struct {
	provider *provider.Proof
	// coordinateCommitment is the BN254-native commitment of the
	// authenticated coordinate, computed once via package coordinate
	// and reused by every downstream BN254 circuit (pointinpolygon,
	// rollup, reveal). It is distinct from provider.Result's own
	// BW6-761-native commitment, which is meaningful only inside C2's
	// own in-circuit check — see circuits/provider.Result.
	coordinateCommitment *big.Int
}

// New returns an unauthenticated Session.
func New() *Session {
	return &Session{}
}

// OracleAttestationInput is the native-value input to
// AuthenticateFromOracle: a signature over a coordinate, verifiable
// against a known public key.
type OracleAttestationInput struct {
	PublicKeyX, PublicKeyY *big.Int
	SigR, SigS             *big.Int
	Message                *big.Int
	Coordinate             coordinate.NoncedCoordinate
}

// AuthenticateFromOracle proves and verifies a C1 attestation, then
// proves and verifies the C2 provider proof that wraps it, storing the
// result as this Session's authentication state. It is the only place
// in this module where a fresh recursive (pairing-based) verification
// actually happens in-circuit; every proof produced afterward consumes
// s.oracle.provider's already-verified output as sequential trust.
func (s *Session) AuthenticateFromOracle(in OracleAttestationInput) error {
	// coordCommitment is the BN254-native commitment every downstream
	// BN254 circuit (pointinpolygon, rollup, reveal) will consume. It
	// is never fed into oracle or provider's own witnesses: those
	// circuits are compiled over BLS12-377 and BW6-761 respectively,
	// so each recomputes and asserts its own curve-native commitment
	// from the same (lat, lon, factor, nonce) tuple instead.
	coordCommitment, err := in.Coordinate.Commitment()
	if err != nil {
		return fmt.Errorf("%w: %v", zkerr.SignatureInvalid, err)
	}
	// The signed message must be the SHA-256 digest of coordCommitment,
	// which is what binds the signature to this coordinate.
	digest := sha256.Sum256(coordCommitment.Bytes())
	if in.Message == nil || new(big.Int).SetBytes(digest[:]).Cmp(in.Message) != 0 {
		return fmt.Errorf("%w: message is not the digest of the coordinate commitment", zkerr.SignatureInvalid)
	}
	pkCommitment, err := oracle.NativePublicKeyCommitment(in.PublicKeyX, in.PublicKeyY)
	if err != nil {
		return fmt.Errorf("%w: %v", zkerr.SignatureInvalid, err)
	}

	c := in.Coordinate.Coordinate
	oracleCoordCommitment, err := oracle.NativeCoordinateCommitment(c.Latitude.FieldElement(), c.Longitude.FieldElement(), c.Factor, in.Coordinate.Nonce)
	if err != nil {
		return fmt.Errorf("%w: %v", zkerr.SignatureInvalid, err)
	}
	oProof, err := oracle.Prove(oracle.Witness{
		PublicKeyX:           in.PublicKeyX,
		PublicKeyY:           in.PublicKeyY,
		SigR:                 in.SigR,
		SigS:                 in.SigS,
		Message:              in.Message,
		Latitude:             c.Latitude.FieldElement(),
		Longitude:            c.Longitude.FieldElement(),
		Factor:               c.Factor,
		Nonce:                in.Coordinate.Nonce,
		PublicKeyCommitment:  pkCommitment,
		CoordinateCommitment: oracleCoordCommitment,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", zkerr.SignatureInvalid, err)
	}
	if err := oracle.Verify(oProof); err != nil {
		return fmt.Errorf("%w: %v", zkerr.SignatureInvalid, err)
	}

	providerCoordCommitment, err := provider.NativeCoordinateCommitment(c.Latitude.FieldElement(), c.Longitude.FieldElement(), c.Factor, in.Coordinate.Nonce)
	if err != nil {
		return err
	}
	pProof, err := provider.Prove(provider.Witness{
		Inner:                oProof,
		Latitude:             c.Latitude.FieldElement(),
		Longitude:            c.Longitude.FieldElement(),
		Factor:               c.Factor,
		Nonce:                in.Coordinate.Nonce,
		CoordinateCommitment: providerCoordCommitment,
	})
	if err != nil {
		return err
	}
	if err := provider.Verify(pProof); err != nil {
		return err
	}

	s.oracle = &oracleState{provider: pProof, coordinateCommitment: coordCommitment}
	return nil
}

func (s *Session) authenticatedCoordinate() (*provider.Proof, error) {
	if s.oracle == nil {
		return nil, fmt.Errorf("%w", zkerr.Unauthenticated)
	}
	return s.oracle.provider, nil
}

// coordinateCommitment returns the BN254-native coordinate commitment
// every downstream BN254 circuit asserts against, as computed once by
// AuthenticateFromOracle. It must never be confused with
// provider.Result.CoordinateCommitment, which is BW6-761-native and
// meaningful only inside C2's own in-circuit check.
func (s *Session) coordinateCommitment() (*big.Int, error) {
	if s.oracle == nil {
		return nil, fmt.Errorf("%w", zkerr.Unauthenticated)
	}
	return s.oracle.coordinateCommitment, nil
}

func (s *Session) record(p *pointinpolygon.Proof) Handle {
	s.arena = append(s.arena, p)
	h := Handle(len(s.arena) - 1)
	if p.Result.IsInside {
		s.inside = append(s.inside, h)
	} else {
		s.outside = append(s.outside, h)
	}
	return h
}

// InPolygon requires prior authentication, proves a C3 leaf proof for
// tri against the authenticated coordinate, and records it on the
// corresponding inside/outside list in call order.
func (s *Session) InPolygon(tri coordinate.Triangle) (Handle, error) {
	pp, err := s.authenticatedCoordinate()
	if err != nil {
		return 0, err
	}
	coordCommitment, err := s.coordinateCommitment()
	if err != nil {
		return 0, err
	}

	query := coordinate.Coordinate{
		Latitude:  fixedpoint.FromBigInt(pp.Result.Latitude),
		Longitude: fixedpoint.FromBigInt(pp.Result.Longitude),
		Factor:    pp.Result.Factor,
	}
	if err := coordinate.RequireSameFactor(query, tri); err != nil {
		return 0, err
	}

	isInside := pointinpolygon.Evaluate(query, tri)

	polyCommitment, err := tri.Commitment()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", zkerr.ProverFailure, err)
	}

	proof, err := pointinpolygon.Prove(pointinpolygon.Witness{
		Latitude:             pp.Result.Latitude,
		Longitude:            pp.Result.Longitude,
		Factor:               pp.Result.Factor,
		Nonce:                pp.Result.Nonce,
		V1Lat:                tri.V1.Latitude.FieldElement(),
		V1Lon:                tri.V1.Longitude.FieldElement(),
		V2Lat:                tri.V2.Latitude.FieldElement(),
		V2Lon:                tri.V2.Longitude.FieldElement(),
		V3Lat:                tri.V3.Latitude.FieldElement(),
		V3Lon:                tri.V3.Longitude.FieldElement(),
		CoordinateCommitment: coordCommitment,
		PolygonCommitment:    polyCommitment,
		IsInside:             isInside,
	})
	if err != nil {
		return 0, err
	}
	if err := pointinpolygon.Verify(proof); err != nil {
		return 0, err
	}

	return s.record(proof), nil
}

// InPolygons calls InPolygon for each triangle in order, stopping at
// the first error.
func (s *Session) InPolygons(tris []coordinate.Triangle) ([]Handle, error) {
	handles := make([]Handle, 0, len(tris))
	for _, tri := range tris {
		h, err := s.InPolygon(tri)
		if err != nil {
			return nil, err
		}
		handles = append(handles, h)
	}
	return handles, nil
}

// CombineProofs folds handles left-to-right with C3 AND, requiring at
// least two. The canonical fold order is insertion order: combine(h[0],
// h[1]) first, then combine(result, h[2]), and so on.
func (s *Session) CombineProofs(handles []Handle) (Handle, error) {
	if len(handles) < 2 {
		return 0, fmt.Errorf("%w", zkerr.InsufficientProofs)
	}

	acc := s.arena[handles[0]]
	for _, h := range handles[1:] {
		next := s.arena[h]
		combined, err := pointinpolygon.ProveAND(pointinpolygon.PairWitness{P1: acc.Result, P2: next.Result})
		if err != nil {
			return 0, err
		}
		if err := pointinpolygon.Verify(combined); err != nil {
			return 0, err
		}
		acc = combined
	}

	return s.record(acc), nil
}

// ExactGeoPoint requires prior authentication and emits a C5 reveal
// proof disclosing the authenticated coordinate in the clear.
func (s *Session) ExactGeoPoint() (*reveal.Proof, error) {
	pp, err := s.authenticatedCoordinate()
	if err != nil {
		return nil, err
	}
	coordCommitment, err := s.coordinateCommitment()
	if err != nil {
		return nil, err
	}

	proof, err := reveal.Exact(reveal.ExactWitness{
		Latitude:             pp.Result.Latitude,
		Longitude:            pp.Result.Longitude,
		Factor:               pp.Result.Factor,
		Nonce:                pp.Result.Nonce,
		CoordinateCommitment: coordCommitment,
	})
	if err != nil {
		return nil, err
	}
	if err := reveal.Verify(proof); err != nil {
		return nil, err
	}
	return proof, nil
}

// AttachMetadata requires prior authentication and emits a C5
// metadata-binding proof over metadata.
func (s *Session) AttachMetadata(metadata []byte) (*reveal.Proof, error) {
	if _, err := s.authenticatedCoordinate(); err != nil {
		return nil, err
	}
	coordCommitment, err := s.coordinateCommitment()
	if err != nil {
		return nil, err
	}

	proof, err := reveal.Metadata(reveal.MetadataWitness{
		CoordinateCommitment: coordCommitment,
		Metadata:             metadata,
	})
	if err != nil {
		return nil, err
	}
	if err := reveal.Verify(proof); err != nil {
		return nil, err
	}
	return proof, nil
}

// CombinePointInPolygonProofs requires both the inside and outside
// lists to be non-empty, folds each side independently via C3 AND
// (left-to-right, insertion order), lifts each fold into a C4
// accumulator, and combines the two accumulators into the final
// rollup.
func (s *Session) CombinePointInPolygonProofs() (*rollup.Proof, error) {
	if len(s.inside) == 0 || len(s.outside) == 0 {
		return nil, fmt.Errorf("%w", zkerr.MissingProofSet)
	}

	insideFold, err := s.foldSide(s.inside)
	if err != nil {
		return nil, err
	}
	outsideFold, err := s.foldSide(s.outside)
	if err != nil {
		return nil, err
	}

	insideAcc, err := rollup.Lift(rollup.LiftWitness{
		CoordinateCommitment: insideFold.Result.CoordinateCommitment,
		PolygonCommitment:    insideFold.Result.PolygonCommitment,
		IsInside:             insideFold.Result.IsInside,
	})
	if err != nil {
		return nil, err
	}
	if err := rollup.Verify(insideAcc); err != nil {
		return nil, err
	}

	outsideAcc, err := rollup.Lift(rollup.LiftWitness{
		CoordinateCommitment: outsideFold.Result.CoordinateCommitment,
		PolygonCommitment:    outsideFold.Result.PolygonCommitment,
		IsInside:             outsideFold.Result.IsInside,
	})
	if err != nil {
		return nil, err
	}
	if err := rollup.Verify(outsideAcc); err != nil {
		return nil, err
	}

	combined, err := rollup.Combine(rollup.CombineWitness{A1: insideAcc.Result, A2: outsideAcc.Result})
	if err != nil {
		return nil, err
	}
	if err := rollup.Verify(combined); err != nil {
		return nil, err
	}
	return combined, nil
}

// foldSide left-to-right ANDs every proof on one side into a single
// proof, matching the canonical order spec.md §8 requires be
// documented: insertion (call) order, earliest first.
func (s *Session) foldSide(handles []Handle) (*pointinpolygon.Proof, error) {
	acc := s.arena[handles[0]]
	for _, h := range handles[1:] {
		next := s.arena[h]
		combined, err := pointinpolygon.ProveAND(pointinpolygon.PairWitness{P1: acc.Result, P2: next.Result})
		if err != nil {
			return nil, err
		}
		if err := pointinpolygon.Verify(combined); err != nil {
			return nil, err
		}
		acc = combined
	}
	return acc, nil
}
