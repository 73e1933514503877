package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecretToPublicRoundTrip(t *testing.T) {
	sec, pub, err := GenerateKeypair()
	require.NoError(t, err)

	derived, err := SecretToPublic(sec)
	require.NoError(t, err)
	assert.Equal(t, pub, derived)
}

func TestDeriveOneTimeKeyRoundTrip(t *testing.T) {
	recipientSpendSec, recipientSpendPub, err := GenerateKeypair()
	require.NoError(t, err)
	recipientViewSec, recipientViewPub, err := GenerateKeypair()
	require.NoError(t, err)
	txSec, txPub, err := GenerateKeypair()
	require.NoError(t, err)

	// sender side: derivation from the recipient's view key and the tx secret key
	senderDerivation, err := GenerateKeyDerivation(recipientViewPub, txSec)
	require.NoError(t, err)
	outKey, err := DerivePublicKey(senderDerivation, 0, recipientSpendPub)
	require.NoError(t, err)

	// receiver side: same shared secret from the tx public key and the view secret
	receiverDerivation, err := GenerateKeyDerivation(txPub, recipientViewSec)
	require.NoError(t, err)
	assert.Equal(t, senderDerivation, receiverDerivation)

	recoveredSec, err := DeriveSecretKey(receiverDerivation, 0, recipientSpendSec)
	require.NoError(t, err)
	recoveredPub, err := SecretToPublic(recoveredSec)
	require.NoError(t, err)
	assert.Equal(t, outKey, recoveredPub)
}

func TestGenerateKeyImageDeterministic(t *testing.T) {
	sec, pub, err := GenerateKeypair()
	require.NoError(t, err)

	img1, err := GenerateKeyImage(pub, sec)
	require.NoError(t, err)
	img2, err := GenerateKeyImage(pub, sec)
	require.NoError(t, err)
	assert.Equal(t, img1, img2)
}

func TestDeriveViewTagDeterministic(t *testing.T) {
	_, pub, err := GenerateKeypair()
	require.NoError(t, err)
	sec, _, err := GenerateKeypair()
	require.NoError(t, err)

	d, err := GenerateKeyDerivation(pub, sec)
	require.NoError(t, err)
	tag1 := DeriveViewTag(d, 3)
	tag2 := DeriveViewTag(d, 3)
	assert.Equal(t, tag1, tag2)

	otherTag := DeriveViewTag(d, 4)
	assert.NotEqual(t, tag1, otherTag, "different output index should (overwhelmingly likely) change the view tag")
}

func TestEncryptDecryptAmountRoundTrip(t *testing.T) {
	_, pub, err := GenerateKeypair()
	require.NoError(t, err)
	sec, _, err := GenerateKeypair()
	require.NoError(t, err)
	d, err := GenerateKeyDerivation(pub, sec)
	require.NoError(t, err)

	const amount = uint64(123456789)
	encrypted, err := EncryptAmount(amount, d, 1)
	require.NoError(t, err)
	decrypted, err := DecryptAmount(encrypted, d, 1)
	require.NoError(t, err)
	assert.Equal(t, amount, decrypted)
}

func TestRingSignatureRoundTrip(t *testing.T) {
	const ringSize = 5
	const secretIndex = 2

	pubs := make([]PublicKey, ringSize)
	var secretKey SecretKey
	for i := range pubs {
		sec, pub, err := GenerateKeypair()
		require.NoError(t, err)
		pubs[i] = pub
		if i == secretIndex {
			secretKey = sec
		}
	}

	ki, err := GenerateKeyImage(pubs[secretIndex], secretKey)
	require.NoError(t, err)

	prefixHash := Keccak256([]byte("test prefix"))

	sig, err := GenerateRingSignature(prefixHash, ki, pubs, secretKey, secretIndex)
	require.NoError(t, err)

	ok, err := VerifyRingSignature(prefixHash, ki, pubs, sig)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRingSignatureRejectsTamperedRing(t *testing.T) {
	const ringSize = 3
	const secretIndex = 0

	pubs := make([]PublicKey, ringSize)
	var secretKey SecretKey
	for i := range pubs {
		sec, pub, err := GenerateKeypair()
		require.NoError(t, err)
		pubs[i] = pub
		if i == secretIndex {
			secretKey = sec
		}
	}
	ki, err := GenerateKeyImage(pubs[secretIndex], secretKey)
	require.NoError(t, err)

	prefixHash := Keccak256([]byte("another prefix"))

	sig, err := GenerateRingSignature(prefixHash, ki, pubs, secretKey, secretIndex)
	require.NoError(t, err)

	tamperedHash := Keccak256([]byte("tampered"))
	ok, err := VerifyRingSignature(tamperedHash, ki, pubs, sig)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReferenceRangeProver(t *testing.T) {
	var prover ReferenceRangeProver
	proofs, err := prover.Prove([]uint64{100, 200, 0})
	require.NoError(t, err)
	require.Len(t, proofs, 3)

	ok, err := prover.Verify(proofs)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCommitDeterministic(t *testing.T) {
	var mask SecretKey
	mask[0] = 7
	c1, err := Commit(1000, mask)
	require.NoError(t, err)
	c2, err := Commit(1000, mask)
	require.NoError(t, err)
	assert.Equal(t, c1, c2)

	c3, err := Commit(1001, mask)
	require.NoError(t, err)
	assert.NotEqual(t, c1, c3)
}
