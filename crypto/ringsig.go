package crypto

import (
	"crypto/rand"
	"io"

	"filippo.io/edwards25519"

	elaerr "github.com/haven-protocol-org/haven-core/errors"
)

// RingSignature is a classic CryptoNote borromean-style ring signature: one
// (c, r) challenge/response scalar pair per ring member.
type RingSignature struct {
	C []Signature32
	R []Signature32
}

type Signature32 [32]byte

// GenerateRingSignature produces a ring signature proving knowledge of the
// secret key for exactly one of pubs (at secretIndex), binding the key
// image ki to that secret, without revealing which member signed.
//
// This is the traditional CryptoNote construction (not CLSAG/MLSAG): each
// non-signer index gets a random challenge and response, the signer index
// closes the ring so all challenges sum to Hs(prefixHash || the ring's L/R
// commitments).
func GenerateRingSignature(prefixHash [32]byte, ki KeyImage, pubs []PublicKey, sec SecretKey, secretIndex int) (*RingSignature, error) {
	n := len(pubs)
	if secretIndex < 0 || secretIndex >= n {
		return nil, elaerr.New(elaerr.KindCrypto, elaerr.ErrRingSignatureFailed, "secret index out of range")
	}
	hp, err := hashToPoint(pubs[secretIndex])
	if err != nil {
		return nil, err
	}
	kiPoint, err := new(edwards25519.Point).SetBytes(ki[:])
	if err != nil {
		return nil, elaerr.Wrap(elaerr.KindCrypto, elaerr.ErrRingSignatureFailed, err, "invalid key image point")
	}

	cs := make([]*edwards25519.Scalar, n)
	rs := make([]*edwards25519.Scalar, n)
	Ls := make([]*edwards25519.Point, n)
	Rs := make([]*edwards25519.Point, n)

	k, err := randomScalar()
	if err != nil {
		return nil, err
	}
	Ls[secretIndex] = new(edwards25519.Point).ScalarBaseMult(k)
	Rs[secretIndex] = new(edwards25519.Point).ScalarMult(k, hp)

	sum := edwards25519.NewScalar()
	for i := 0; i < n; i++ {
		if i == secretIndex {
			continue
		}
		ci, err := randomScalar()
		if err != nil {
			return nil, err
		}
		ri, err := randomScalar()
		if err != nil {
			return nil, err
		}
		cs[i] = ci
		rs[i] = ri

		pubPoint, err := pointFromPublic(pubs[i])
		if err != nil {
			return nil, err
		}
		hpi, err := hashToPoint(pubs[i])
		if err != nil {
			return nil, err
		}
		// L_i = r_i*G + c_i*P_i ; R_i = r_i*Hp(P_i) + c_i*I
		Ls[i] = new(edwards25519.Point).Add(
			new(edwards25519.Point).ScalarBaseMult(ri),
			new(edwards25519.Point).ScalarMult(ci, pubPoint),
		)
		Rs[i] = new(edwards25519.Point).Add(
			new(edwards25519.Point).ScalarMult(ri, hpi),
			new(edwards25519.Point).ScalarMult(ci, kiPoint),
		)
		sum = edwards25519.NewScalar().Add(sum, ci)
	}

	buf := make([]byte, 0, 32+64*n)
	buf = append(buf, prefixHash[:]...)
	for i := 0; i < n; i++ {
		buf = append(buf, Ls[i].Bytes()...)
		buf = append(buf, Rs[i].Bytes()...)
	}
	challenge, err := HashToScalar(buf)
	if err != nil {
		return nil, err
	}
	cSecret := edwards25519.NewScalar().Subtract(challenge, sum)
	secScalar, err := scalarFromSecret(sec)
	if err != nil {
		return nil, err
	}
	rSecret := edwards25519.NewScalar().Subtract(k, edwards25519.NewScalar().Multiply(cSecret, secScalar))
	cs[secretIndex] = cSecret
	rs[secretIndex] = rSecret

	sig := &RingSignature{C: make([]Signature32, n), R: make([]Signature32, n)}
	for i := 0; i < n; i++ {
		copy(sig.C[i][:], cs[i].Bytes())
		copy(sig.R[i][:], rs[i].Bytes())
	}
	return sig, nil
}

// VerifyRingSignature checks that sig proves knowledge of one of pubs'
// secret keys bound to ki, re-deriving the same challenge/response ledger
// GenerateRingSignature produced.
func VerifyRingSignature(prefixHash [32]byte, ki KeyImage, pubs []PublicKey, sig *RingSignature) (bool, error) {
	n := len(pubs)
	if len(sig.C) != n || len(sig.R) != n {
		return false, elaerr.New(elaerr.KindCrypto, elaerr.ErrRingSignatureFailed, "ring signature size mismatch")
	}
	kiPoint, err := new(edwards25519.Point).SetBytes(ki[:])
	if err != nil {
		return false, elaerr.Wrap(elaerr.KindCrypto, elaerr.ErrRingSignatureFailed, err, "invalid key image point")
	}

	sum := edwards25519.NewScalar()
	buf := make([]byte, 0, 32+64*n)
	buf = append(buf, prefixHash[:]...)

	Ls := make([]*edwards25519.Point, n)
	Rs := make([]*edwards25519.Point, n)
	for i := 0; i < n; i++ {
		ci, err := edwards25519.NewScalar().SetCanonicalBytes(sig.C[i][:])
		if err != nil {
			return false, elaerr.Wrap(elaerr.KindCrypto, elaerr.ErrRingSignatureFailed, err, "bad challenge scalar")
		}
		ri, err := edwards25519.NewScalar().SetCanonicalBytes(sig.R[i][:])
		if err != nil {
			return false, elaerr.Wrap(elaerr.KindCrypto, elaerr.ErrRingSignatureFailed, err, "bad response scalar")
		}
		pubPoint, err := pointFromPublic(pubs[i])
		if err != nil {
			return false, err
		}
		hpi, err := hashToPoint(pubs[i])
		if err != nil {
			return false, err
		}
		Ls[i] = new(edwards25519.Point).Add(
			new(edwards25519.Point).ScalarBaseMult(ri),
			new(edwards25519.Point).ScalarMult(ci, pubPoint),
		)
		Rs[i] = new(edwards25519.Point).Add(
			new(edwards25519.Point).ScalarMult(ri, hpi),
			new(edwards25519.Point).ScalarMult(ci, kiPoint),
		)
		sum = edwards25519.NewScalar().Add(sum, ci)
	}
	for i := 0; i < n; i++ {
		buf = append(buf, Ls[i].Bytes()...)
		buf = append(buf, Rs[i].Bytes()...)
	}
	challenge, err := HashToScalar(buf)
	if err != nil {
		return false, err
	}
	return challenge.Equal(sum) == 1, nil
}

func randomScalar() (*edwards25519.Scalar, error) {
	var raw [64]byte
	if _, err := io.ReadFull(rand.Reader, raw[:]); err != nil {
		return nil, err
	}
	return edwards25519.NewScalar().SetUniformBytes(raw[:])
}
