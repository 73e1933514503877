package wire

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/haven-protocol-org/haven-core/crypto"
)

func TestAppendPubKeyStripsPrior(t *testing.T) {
	_, pub1, err := crypto.GenerateKeypair()
	require.NoError(t, err)
	_, pub2, err := crypto.GenerateKeypair()
	require.NoError(t, err)

	extra, err := AppendPubKey(nil, pub1)
	require.NoError(t, err)
	extra, err = AppendPubKey(extra, pub2)
	require.NoError(t, err)

	got, ok, err := FindPubKey(extra)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, pub2, got)
}

func TestAppendAdditionalPubKeysRoundTrip(t *testing.T) {
	_, pub1, err := crypto.GenerateKeypair()
	require.NoError(t, err)
	_, pub2, err := crypto.GenerateKeypair()
	require.NoError(t, err)

	extra, err := AppendAdditionalPubKeys(nil, []crypto.PublicKey{pub1, pub2})
	require.NoError(t, err)

	got, ok, err := FindAdditionalPubKeys(extra)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []crypto.PublicKey{pub1, pub2}, got)
}

func TestEncryptedPaymentIDNonceRoundTrip(t *testing.T) {
	var id [8]byte
	copy(id[:], []byte("deadbeef"))

	extra, err := AppendNonce(nil, EncryptedPaymentIDToNonce(id))
	require.NoError(t, err)

	nonce, ok, err := FindNonce(extra)
	require.NoError(t, err)
	require.True(t, ok)

	got, ok := EncryptedPaymentIDFromNonce(nonce)
	require.True(t, ok)
	require.Equal(t, id, got)
}

func TestSortExtraOrdersByTag(t *testing.T) {
	_, pub, err := crypto.GenerateKeypair()
	require.NoError(t, err)

	extra, err := AppendNonce(nil, EncryptedPaymentIDToNonce([8]byte{}))
	require.NoError(t, err)
	extra, err = AppendPubKey(extra, pub)
	require.NoError(t, err)

	sorted, err := SortExtra(extra)
	require.NoError(t, err)

	fields, err := ParseExtra(sorted)
	require.NoError(t, err)
	require.Len(t, fields, 2)
	require.Equal(t, byte(extraTagPubKey), fields[0].Tag)
	require.Equal(t, byte(extraTagNonce), fields[1].Tag)
}

func TestRemoveFieldsByTagDropsOnlyMatching(t *testing.T) {
	_, pub, err := crypto.GenerateKeypair()
	require.NoError(t, err)
	extra, err := AppendPubKey(nil, pub)
	require.NoError(t, err)
	extra, err = AppendNonce(extra, EncryptedPaymentIDToNonce([8]byte{}))
	require.NoError(t, err)

	stripped, err := RemoveFieldsByTag(extra, extraTagNonce)
	require.NoError(t, err)

	_, ok, err := FindNonce(stripped)
	require.NoError(t, err)
	require.False(t, ok)

	got, ok, err := FindPubKey(stripped)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, pub, got)
}
