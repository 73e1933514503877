// Copyright (c) 2017-2020 The Elastos Foundation
// Use of this source code is governed by an MIT
// license that can be found in the LICENSE file.
//

// Package crypto is the narrow interface onto the elliptic-curve primitives
// this core treats as external (spec §2 item 1): hashing, key derivation,
// view-tag derivation, key-image generation, ring signatures and range
// proofs. Everything here is a thin wrapper over filippo.io/edwards25519
// scalar/point arithmetic and golang.org/x/crypto/sha3 Keccak hashing — the
// low-level curve math itself is assumed present as a primitive, per spec.
package crypto

import (
	"crypto/rand"
	"io"

	"filippo.io/edwards25519"
	"golang.org/x/crypto/sha3"

	elaerr "github.com/haven-protocol-org/haven-core/errors"
)

const KeyLength = 32

// PublicKey, SecretKey and KeyImage are raw 32-byte curve encodings. They
// are kept as plain byte arrays (not *edwards25519.Point/Scalar) so that
// wire types built on top of this package stay trivially comparable and
// serializable; the point/scalar form is reconstructed on demand.
type PublicKey [KeyLength]byte
type SecretKey [KeyLength]byte
type KeyImage [KeyLength]byte
type KeyDerivation [KeyLength]byte
type Signature [64]byte

var ZeroSecretKey SecretKey

// IsZero reports whether sec is the all-zero secret key, the watch-only
// wallet sentinel used by the builder (spec §4.6 step 10).
func (sec SecretKey) IsZero() bool {
	return sec == ZeroSecretKey
}

// Keccak256 is the hash function used throughout key derivation, view tags
// and prefix hashing on this chain (not NIST SHA3, the original Keccak
// padding).
func Keccak256(parts ...[]byte) [32]byte {
	h := sha3.NewLegacyKeccak256()
	for _, p := range parts {
		h.Write(p)
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}

// HashToScalar reduces the Keccak256 digest of data modulo the group order,
// i.e. CryptoNote's Hs().
func HashToScalar(data ...[]byte) (*edwards25519.Scalar, error) {
	digest := Keccak256(data...)
	wide := make([]byte, 64)
	copy(wide, digest[:])
	s, err := edwards25519.NewScalar().SetUniformBytes(wide)
	if err != nil {
		return nil, elaerr.Wrap(elaerr.KindCrypto, elaerr.ErrKeyImageMismatch, err, "hash to scalar")
	}
	return s, nil
}

func scalarFromSecret(sec SecretKey) (*edwards25519.Scalar, error) {
	s, err := edwards25519.NewScalar().SetCanonicalBytes(sec[:])
	if err != nil {
		return nil, elaerr.Wrap(elaerr.KindCrypto, elaerr.ErrKeyImageMismatch, err, "invalid secret key scalar")
	}
	return s, nil
}

func pointFromPublic(pub PublicKey) (*edwards25519.Point, error) {
	p, err := new(edwards25519.Point).SetBytes(pub[:])
	if err != nil {
		return nil, elaerr.Wrap(elaerr.KindCrypto, elaerr.ErrKeyImageMismatch, err, "invalid public key point")
	}
	return p, nil
}

// GenerateKeypair draws a fresh random secret key and its base-point public.
func GenerateKeypair() (SecretKey, PublicKey, error) {
	var raw [64]byte
	if _, err := io.ReadFull(rand.Reader, raw[:]); err != nil {
		return SecretKey{}, PublicKey{}, err
	}
	s, err := edwards25519.NewScalar().SetUniformBytes(raw[:])
	if err != nil {
		return SecretKey{}, PublicKey{}, err
	}
	var sec SecretKey
	copy(sec[:], s.Bytes())
	pub, err := SecretToPublic(sec)
	return sec, pub, err
}

// SecretToPublic computes P = s*G.
func SecretToPublic(sec SecretKey) (PublicKey, error) {
	s, err := scalarFromSecret(sec)
	if err != nil {
		return PublicKey{}, err
	}
	p := new(edwards25519.Point).ScalarBaseMult(s)
	var pub PublicKey
	copy(pub[:], p.Bytes())
	return pub, nil
}

// scalarEight is the curve cofactor, used in every ECDH derivation on this
// chain to clear small-subgroup contamination (the "8*a*R" pattern).
func scalarEight() *edwards25519.Scalar {
	var b [32]byte
	b[0] = 8
	s, _ := edwards25519.NewScalar().SetCanonicalBytes(b[:])
	return s
}

// GenerateKeyDerivation computes D = 8 * sec * pub, the shared secret used
// to derive one-time output keys, amount masks and view tags.
func GenerateKeyDerivation(pub PublicKey, sec SecretKey) (KeyDerivation, error) {
	s, err := scalarFromSecret(sec)
	if err != nil {
		return KeyDerivation{}, err
	}
	p, err := pointFromPublic(pub)
	if err != nil {
		return KeyDerivation{}, err
	}
	eightS := new(edwards25519.Scalar).Multiply(scalarEight(), s)
	d := new(edwards25519.Point).ScalarMult(eightS, p)
	var out KeyDerivation
	copy(out[:], d.Bytes())
	return out, nil
}

// DerivationToScalar is Hs(D || varint(index)).
func DerivationToScalar(d KeyDerivation, index uint64) (*edwards25519.Scalar, error) {
	return HashToScalar(d[:], encodeVarintBytes(index))
}

// DerivePublicKey computes the recipient's one-time output key
// P = Hs(D||i)*G + base.
func DerivePublicKey(d KeyDerivation, index uint64, base PublicKey) (PublicKey, error) {
	scalar, err := DerivationToScalar(d, index)
	if err != nil {
		return PublicKey{}, err
	}
	basePoint, err := pointFromPublic(base)
	if err != nil {
		return PublicKey{}, err
	}
	sg := new(edwards25519.Point).ScalarBaseMult(scalar)
	out := new(edwards25519.Point).Add(sg, basePoint)
	var pub PublicKey
	copy(pub[:], out.Bytes())
	return pub, nil
}

// DeriveSecretKey computes the recipient's one-time spend secret
// x = Hs(D||i) + base.
func DeriveSecretKey(d KeyDerivation, index uint64, base SecretKey) (SecretKey, error) {
	scalar, err := DerivationToScalar(d, index)
	if err != nil {
		return SecretKey{}, err
	}
	baseScalar, err := scalarFromSecret(base)
	if err != nil {
		return SecretKey{}, err
	}
	sum := edwards25519.NewScalar().Add(scalar, baseScalar)
	var sec SecretKey
	copy(sec[:], sum.Bytes())
	return sec, nil
}

// GenerateKeyImage computes I = x * Hp(P), the double-spend guard unique to
// the spent one-time output. Hp, the hash-to-point function, is implemented
// here by deterministic try-and-increment over Keccak256(P) — a standard
// simplification of CryptoNote's Elligator-based hash_to_ec when full
// constant-time hash-to-curve isn't available as a primitive. The decoded
// point is multiplied by the cofactor 8, so Hp lies in the prime-order
// subgroup, as hash_to_ec's result does.
func GenerateKeyImage(pub PublicKey, sec SecretKey) (KeyImage, error) {
	hp, err := hashToPoint(pub)
	if err != nil {
		return KeyImage{}, err
	}
	x, err := scalarFromSecret(sec)
	if err != nil {
		return KeyImage{}, err
	}
	img := new(edwards25519.Point).ScalarMult(x, hp)
	var ki KeyImage
	copy(ki[:], img.Bytes())
	return ki, nil
}

func hashToPoint(pub PublicKey) (*edwards25519.Point, error) {
	seed := Keccak256(pub[:])
	for i := 0; i < 256; i++ {
		candidate := seed
		candidate[31] ^= byte(i)
		if p, err := new(edwards25519.Point).SetBytes(candidate[:]); err == nil {
			p8 := new(edwards25519.Point).Add(p, p)
			p8.Add(p8, p8)
			p8.Add(p8, p8)
			return p8, nil
		}
		seed = Keccak256(seed[:])
	}
	return nil, elaerr.New(elaerr.KindCrypto, elaerr.ErrKeyImageMismatch, "hash to point did not converge")
}

// DeriveViewTag computes the 1-byte fast-reject hint added at the view-tag
// fork: H("view_tag" || D || varint(i))[0].
func DeriveViewTag(d KeyDerivation, index uint64) byte {
	digest := Keccak256([]byte("view_tag"), d[:], encodeVarintBytes(index))
	return digest[0]
}

// EncryptAmount masks an rct output amount with Keccak256("amount" || Hs(D||i)).
func EncryptAmount(amount uint64, d KeyDerivation, index uint64) (uint64, error) {
	scalar, err := DerivationToScalar(d, index)
	if err != nil {
		return 0, err
	}
	mask := Keccak256([]byte("amount"), scalar.Bytes())
	return xorAmount(amount, mask), nil
}

// DecryptAmount is EncryptAmount's inverse (XOR is self-inverse).
func DecryptAmount(encrypted uint64, d KeyDerivation, index uint64) (uint64, error) {
	scalar, err := DerivationToScalar(d, index)
	if err != nil {
		return 0, err
	}
	mask := Keccak256([]byte("amount"), scalar.Bytes())
	return xorAmount(encrypted, mask), nil
}

// ScalarMultKey computes sec*pub, the plain scalar multiplication used for
// a subaddress's view public key (C = a*D) and a subaddress-destination tx
// public key (R = s*D) — unlike GenerateKeyDerivation, no cofactor clearing
// is applied since both sides of these products are already full-order.
func ScalarMultKey(sec SecretKey, pub PublicKey) (PublicKey, error) {
	s, err := scalarFromSecret(sec)
	if err != nil {
		return PublicKey{}, err
	}
	p, err := pointFromPublic(pub)
	if err != nil {
		return PublicKey{}, err
	}
	out := new(edwards25519.Point).ScalarMult(s, p)
	var pub2 PublicKey
	copy(pub2[:], out.Bytes())
	return pub2, nil
}

// ScalarMultBaseScalar computes s*G for a scalar not already wrapped as a
// SecretKey, used for the subaddress spend-key offset m*G.
func ScalarMultBaseScalar(s *edwards25519.Scalar) PublicKey {
	p := new(edwards25519.Point).ScalarBaseMult(s)
	var pub PublicKey
	copy(pub[:], p.Bytes())
	return pub
}

// AddPublicKeys computes a+b as curve points, used to build a subaddress
// spend public key D = B + m*G.
func AddPublicKeys(a, b PublicKey) (PublicKey, error) {
	pa, err := pointFromPublic(a)
	if err != nil {
		return PublicKey{}, err
	}
	pb, err := pointFromPublic(b)
	if err != nil {
		return PublicKey{}, err
	}
	sum := new(edwards25519.Point).Add(pa, pb)
	var out PublicKey
	copy(out[:], sum.Bytes())
	return out, nil
}

// DeriveSubaddressPublicKey computes a subaddress destination's one-time
// output key P = Hs(D||i)*G + base, where base is the subaddress spend
// public key — the same form as DerivePublicKey, so DeriveSecretKey with the
// subaddress spend secret (b+m) yields P's secret Hs(D||i) + b + m.
func DeriveSubaddressPublicKey(d KeyDerivation, index uint64, base PublicKey) (PublicKey, error) {
	scalar, err := DerivationToScalar(d, index)
	if err != nil {
		return PublicKey{}, err
	}
	basePoint, err := pointFromPublic(base)
	if err != nil {
		return PublicKey{}, err
	}
	sb := new(edwards25519.Point).ScalarBaseMult(scalar)
	out := new(edwards25519.Point).Add(sb, basePoint)
	var pub PublicKey
	copy(pub[:], out.Bytes())
	return pub, nil
}

// RandomSecretKey draws a fresh uniformly-random scalar, used for rct
// pseudo-out and output blinding masks.
func RandomSecretKey() (SecretKey, error) {
	var raw [64]byte
	if _, err := io.ReadFull(rand.Reader, raw[:]); err != nil {
		return SecretKey{}, err
	}
	s, err := edwards25519.NewScalar().SetUniformBytes(raw[:])
	if err != nil {
		return SecretKey{}, err
	}
	var out SecretKey
	copy(out[:], s.Bytes())
	return out, nil
}

// AddSecretKeys computes a+b as scalars mod the group order, used to
// balance rct pseudo-out masks against output masks.
func AddSecretKeys(a, b SecretKey) (SecretKey, error) {
	sa, err := scalarFromSecret(a)
	if err != nil {
		return SecretKey{}, err
	}
	sb, err := scalarFromSecret(b)
	if err != nil {
		return SecretKey{}, err
	}
	sum := edwards25519.NewScalar().Add(sa, sb)
	var out SecretKey
	copy(out[:], sum.Bytes())
	return out, nil
}

// NegateSecretKey computes -sec mod the group order.
func NegateSecretKey(sec SecretKey) (SecretKey, error) {
	s, err := scalarFromSecret(sec)
	if err != nil {
		return SecretKey{}, err
	}
	neg := edwards25519.NewScalar().Negate(s)
	var out SecretKey
	copy(out[:], neg.Bytes())
	return out, nil
}

// AddSecretScalar computes sec+m as scalars mod the group order, used to
// derive a subaddress's private spend key (b+m) from its domain-separated
// offset.
func AddSecretScalar(sec SecretKey, m *edwards25519.Scalar) (SecretKey, error) {
	s, err := scalarFromSecret(sec)
	if err != nil {
		return SecretKey{}, err
	}
	sum := edwards25519.NewScalar().Add(s, m)
	var out SecretKey
	copy(out[:], sum.Bytes())
	return out, nil
}

// EncryptPaymentID8 masks an 8-byte short payment id with
// Keccak256("payment_id" || D), D = 8*txSec*viewPub — the sender's side of the
// same shared secret the recipient recomputes as 8*viewSec*txPub (spec.md
// §4.6 step 2). XOR is self-inverse, so this function also decrypts.
func EncryptPaymentID8(id [8]byte, viewPub PublicKey, txSec SecretKey) ([8]byte, error) {
	d, err := GenerateKeyDerivation(viewPub, txSec)
	if err != nil {
		return [8]byte{}, err
	}
	mask := Keccak256([]byte("payment_id"), d[:])
	var out [8]byte
	for i := 0; i < 8; i++ {
		out[i] = id[i] ^ mask[i]
	}
	return out, nil
}

func xorAmount(amount uint64, mask [32]byte) uint64 {
	var maskLE uint64
	for i := 0; i < 8; i++ {
		maskLE |= uint64(mask[i]) << (8 * i)
	}
	return amount ^ maskLE
}

func encodeVarintBytes(x uint64) []byte {
	var buf [10]byte
	n := 0
	for x >= 0x80 {
		buf[n] = byte(x) | 0x80
		x >>= 7
		n++
	}
	buf[n] = byte(x)
	n++
	return buf[:n]
}
