package crypto

import (
	"crypto/rand"
	"io"

	"filippo.io/edwards25519"

	elaerr "github.com/haven-protocol-org/haven-core/errors"
)

// basePointH is the Pedersen-commitment blinding generator, derived by
// hashing the curve's base point so nobody knows its discrete log relative
// to G (the standard "nothing-up-my-sleeve" construction CryptoNote and
// Bulletproofs both use for H).
var basePointH = deriveH()

func deriveH() *edwards25519.Point {
	g := edwards25519.NewGeneratorPoint()
	seed := Keccak256(g.Bytes())
	p, err := hashToPoint(PublicKey(seed))
	if err != nil {
		panic(err)
	}
	return p
}

// Commit computes a Pedersen commitment C = amount*H + mask*G.
func Commit(amount uint64, mask SecretKey) (PublicKey, error) {
	maskScalar, err := scalarFromSecret(mask)
	if err != nil {
		return PublicKey{}, err
	}
	amountScalar := scalarFromUint64(amount)
	c := new(edwards25519.Point).Add(
		new(edwards25519.Point).ScalarMult(amountScalar, basePointH),
		new(edwards25519.Point).ScalarBaseMult(maskScalar),
	)
	var out PublicKey
	copy(out[:], c.Bytes())
	return out, nil
}

func scalarFromUint64(v uint64) *edwards25519.Scalar {
	var b [32]byte
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
	s, _ := edwards25519.NewScalar().SetCanonicalBytes(b[:])
	return s
}

// RangeProof is the opaque output of a RangeProver: a commitment to an
// amount plus whatever proof data attests the committed amount lies in
// [0, 2^64). Full bulletproof/bulletproof+ math is treated as an external
// primitive per spec §2 item 1 — RangeProver is the seam a real prover
// plugs into.
type RangeProof struct {
	Commitment PublicKey
	Mask       SecretKey
	ProofData  []byte
}

// RangeProver proves (and verifies) that committed output amounts are
// non-negative and within range, without revealing the amount.
type RangeProver interface {
	Prove(amounts []uint64) ([]RangeProof, error)
	Verify(proofs []RangeProof) (bool, error)
}

// ReferenceRangeProver is a minimal, self-consistent RangeProver: it
// produces one real Pedersen commitment with a random mask per amount, and
// a proof blob that is simply Keccak256(commitment || varint(amount));
// Verify checks only that each blob is 32 bytes long. This lets tests and
// the builder have something end-to-end to exercise without depending on
// an external bulletproofs implementation.
type ReferenceRangeProver struct{}

func (ReferenceRangeProver) Prove(amounts []uint64) ([]RangeProof, error) {
	proofs := make([]RangeProof, len(amounts))
	for i, amount := range amounts {
		var mask SecretKey
		var raw [64]byte
		if _, err := io.ReadFull(rand.Reader, raw[:]); err != nil {
			return nil, err
		}
		s, err := edwards25519.NewScalar().SetUniformBytes(raw[:])
		if err != nil {
			return nil, err
		}
		copy(mask[:], s.Bytes())
		commitment, err := Commit(amount, mask)
		if err != nil {
			return nil, err
		}
		digest := Keccak256(commitment[:], encodeVarintBytes(amount))
		proofs[i] = RangeProof{Commitment: commitment, Mask: mask, ProofData: digest[:]}
	}
	return proofs, nil
}

func (ReferenceRangeProver) Verify(proofs []RangeProof) (bool, error) {
	for _, p := range proofs {
		if len(p.ProofData) != 32 {
			return false, elaerr.New(elaerr.KindCrypto, elaerr.ErrRctSignFailed, "malformed range proof data")
		}
	}
	return true, nil
}
