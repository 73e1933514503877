package account

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/haven-protocol-org/haven-core/crypto"
)

func sampleKeys(t *testing.T) Keys {
	t.Helper()
	spendSec, spendPub, err := crypto.GenerateKeypair()
	require.NoError(t, err)
	viewSec, viewPub, err := crypto.GenerateKeypair()
	require.NoError(t, err)
	return Keys{
		Address:  Address{SpendPub: spendPub, ViewPub: viewPub},
		SpendSec: spendSec,
		ViewSec:  viewSec,
	}
}

func TestDeriveSubaddressMainIndexIsIdentity(t *testing.T) {
	keys := sampleKeys(t)
	addr, err := DeriveSubaddress(keys, SubaddressIndex{})
	require.NoError(t, err)
	require.Equal(t, keys.Address, addr)
}

func TestDeriveSubaddressIsDeterministicAndDistinct(t *testing.T) {
	keys := sampleKeys(t)

	a1, err := DeriveSubaddress(keys, SubaddressIndex{Major: 0, Minor: 1})
	require.NoError(t, err)
	a1Again, err := DeriveSubaddress(keys, SubaddressIndex{Major: 0, Minor: 1})
	require.NoError(t, err)
	require.Equal(t, a1, a1Again)

	a2, err := DeriveSubaddress(keys, SubaddressIndex{Major: 0, Minor: 2})
	require.NoError(t, err)
	require.NotEqual(t, a1.SpendPub, a2.SpendPub)
	require.NotEqual(t, keys.Address.SpendPub, a1.SpendPub)
}

func TestSubaddressTableRoundTrip(t *testing.T) {
	keys := sampleKeys(t)
	table, err := BuildSubaddressTable(keys, 0, 3)
	require.NoError(t, err)

	target, err := DeriveSubaddress(keys, SubaddressIndex{Major: 0, Minor: 2})
	require.NoError(t, err)

	got, ok := table.Lookup(target.SpendPub)
	require.True(t, ok)
	require.Equal(t, SubaddressIndex{Major: 0, Minor: 2}, got)

	_, ok = table.Lookup(crypto.PublicKey{0xff})
	require.False(t, ok)
}

func TestKeysIsWatchOnly(t *testing.T) {
	keys := sampleKeys(t)
	require.False(t, keys.IsWatchOnly())

	keys.SpendSec = crypto.ZeroSecretKey
	require.True(t, keys.IsWatchOnly())
}
