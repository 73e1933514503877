// Package account holds wallet address and subaddress derivation: the
// piece of spec.md §3's data model ("sender account keys, subaddress
// lookup table") that the transaction builder consumes but that the
// original distillation left as an opaque input type. It generalizes the
// teacher's key/address handling into the stealth-address scheme this
// chain's builder and wallet both derive against (spec.md §4.6 steps 3,
// 5-7; SPEC_FULL.md §5.5).
package account

import (
	"encoding/binary"

	"github.com/haven-protocol-org/haven-core/crypto"
)

// subaddressDomain is the domain-separation prefix CryptoNote-family
// chains prepend to the subaddress scalar derivation, distinguishing it
// from every other Hs(...) use in this module.
var subaddressDomain = []byte("SubAddr\x00")

// Address is the public half of an account: the two public keys anyone
// sending to it needs (spec.md §3).
type Address struct {
	SpendPub crypto.PublicKey
	ViewPub  crypto.PublicKey
}

// Keypair is a bare public/secret pair, used for the per-output ephemeral
// keys the builder derives (spec.md §4.6 step 3) and for tx keys.
type Keypair struct {
	Pub crypto.PublicKey
	Sec crypto.SecretKey
}

// Keys is the full account: the address others send to, plus both secret
// keys needed to scan for and spend received outputs.
type Keys struct {
	Address  Address
	SpendSec crypto.SecretKey
	ViewSec  crypto.SecretKey
}

// IsWatchOnly reports whether this account can scan for outputs but not
// spend them, the case for which txbuilder.Construct skips version-1
// ring-signature signing; rct signing is not skipped.
func (k Keys) IsWatchOnly() bool {
	return k.SpendSec.IsZero()
}

// SubaddressIndex is a (major, minor) account index pair; (0,0) denotes
// the main address itself.
type SubaddressIndex struct {
	Major uint32
	Minor uint32
}

func (i SubaddressIndex) IsMain() bool {
	return i.Major == 0 && i.Minor == 0
}

func encodeUint32LE(v uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return b[:]
}

// DeriveSubaddress computes the subaddress at index from an account's full
// keys. Index (0,0) returns the main address unmodified; every other index
// derives m = Hs("SubAddr\0" || a || major || minor), the spend public key
// D = B + m*G, and the view public key C = a*D.
func DeriveSubaddress(keys Keys, index SubaddressIndex) (Address, error) {
	if index.IsMain() {
		return keys.Address, nil
	}
	m, err := crypto.HashToScalar(subaddressDomain, keys.ViewSec[:], encodeUint32LE(index.Major), encodeUint32LE(index.Minor))
	if err != nil {
		return Address{}, err
	}
	mG := crypto.ScalarMultBaseScalar(m)
	spendPub, err := crypto.AddPublicKeys(keys.Address.SpendPub, mG)
	if err != nil {
		return Address{}, err
	}
	viewPub, err := crypto.ScalarMultKey(keys.ViewSec, spendPub)
	if err != nil {
		return Address{}, err
	}
	return Address{SpendPub: spendPub, ViewPub: viewPub}, nil
}

// SubaddressTable is the reverse lookup the builder needs at step 3 (map a
// real output's spend public key back to the (major, minor) index that
// owns it) and the wallet needs while scanning.
type SubaddressTable struct {
	byPub map[crypto.PublicKey]SubaddressIndex
}

// BuildSubaddressTable derives every subaddress in [0,maxMajor]x[0,maxMinor]
// and indexes them by spend public key, including the main address at (0,0).
func BuildSubaddressTable(keys Keys, maxMajor, maxMinor uint32) (*SubaddressTable, error) {
	t := &SubaddressTable{byPub: make(map[crypto.PublicKey]SubaddressIndex)}
	for major := uint32(0); major <= maxMajor; major++ {
		for minor := uint32(0); minor <= maxMinor; minor++ {
			idx := SubaddressIndex{Major: major, Minor: minor}
			addr, err := DeriveSubaddress(keys, idx)
			if err != nil {
				return nil, err
			}
			t.byPub[addr.SpendPub] = idx
		}
	}
	return t, nil
}

// Lookup returns the subaddress index owning spendPub, if any.
func (t *SubaddressTable) Lookup(spendPub crypto.PublicKey) (SubaddressIndex, bool) {
	idx, ok := t.byPub[spendPub]
	return idx, ok
}

// Entries returns every (spend pubkey -> index) pair this table knows,
// for the builder's brute-force ownership search over ring/derivation
// combinations (spec.md §4.6 step 3).
func (t *SubaddressTable) Entries() map[crypto.PublicKey]SubaddressIndex {
	out := make(map[crypto.PublicKey]SubaddressIndex, len(t.byPub))
	for k, v := range t.byPub {
		out[k] = v
	}
	return out
}

// DeriveSubaddressSpendSecret computes the private spend scalar for a
// subaddress index: b for the main address, b+m for any other index,
// where m is the same domain-separated scalar DeriveSubaddress uses to
// offset the public spend key.
func DeriveSubaddressSpendSecret(keys Keys, index SubaddressIndex) (crypto.SecretKey, error) {
	if index.IsMain() {
		return keys.SpendSec, nil
	}
	m, err := crypto.HashToScalar(subaddressDomain, keys.ViewSec[:], encodeUint32LE(index.Major), encodeUint32LE(index.Minor))
	if err != nil {
		return crypto.SecretKey{}, err
	}
	return crypto.AddSecretScalar(keys.SpendSec, m)
}
