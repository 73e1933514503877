// Package wallet implements the receiver side of the stealth-address
// scheme the builder (txbuilder/) exercises from the sender side: given a
// transaction's tx pubkey and an account's keys, recompute the shared
// secret, reject non-owned outputs cheaply via the view tag when present,
// and derive the spendable one-time keypair for every output that is
// actually owned. This is not a wallet UI or persistence layer (spec.md §1
// Non-goals) — it exists to prove the same derivation primitives
// txbuilder/device.go uses round-trip correctly from the other direction.
package wallet

import (
	"github.com/haven-protocol-org/haven-core/account"
	"github.com/haven-protocol-org/haven-core/asset"
	"github.com/haven-protocol-org/haven-core/crypto"
	"github.com/haven-protocol-org/haven-core/wire"
)

// Owned describes one output a scan determined belongs to the scanning
// account, with everything needed to later spend it as a txbuilder.Source.
type Owned struct {
	OutputIndex uint64
	AssetType   asset.Tag
	Amount      uint64
	Ephemeral   account.Keypair
	Subaddress  account.SubaddressIndex
	KeyImage    crypto.KeyImage
}

// ScanTransaction walks every haven_key/haven_tagged_key output of tx and
// returns the ones keys (optionally via its known subaddresses) can spend.
// txPub is the transaction's tx_pubkey (wire/extra.go's FindPubKey); when
// additional tx keys are present (needed for subaddress destinations)
// additionalTxPubs must carry one entry per output, in output order.
func ScanTransaction(tx *wire.Transaction, keys account.Keys, subaddresses *account.SubaddressTable, txPub crypto.PublicKey, additionalTxPubs []crypto.PublicKey, useViewTags bool) ([]Owned, error) {
	mainDerivation, err := crypto.GenerateKeyDerivation(txPub, keys.ViewSec)
	if err != nil {
		return nil, err
	}

	var owned []Owned
	for i, out := range tx.Vout {
		if out.Target.Kind != wire.TxOutHavenKey && out.Target.Kind != wire.TxOutHavenTaggedKey {
			continue
		}

		d := mainDerivation
		if i < len(additionalTxPubs) && additionalTxPubs[i] != (crypto.PublicKey{}) {
			d, err = crypto.GenerateKeyDerivation(additionalTxPubs[i], keys.ViewSec)
			if err != nil {
				return nil, err
			}
		}

		if useViewTags && out.Target.Kind == wire.TxOutHavenTaggedKey {
			if crypto.DeriveViewTag(d, uint64(i)) != out.Target.ViewTag {
				continue
			}
		}

		if o, ok, err := tryOwn(d, uint64(i), out, keys, keys.Address, account.SubaddressIndex{}); err != nil {
			return nil, err
		} else if ok {
			owned = append(owned, o)
			continue
		}

		if subaddresses == nil {
			continue
		}
		for spendPub, idx := range subaddresses.Entries() {
			if idx.IsMain() {
				continue
			}
			candidateAddr := account.Address{SpendPub: spendPub, ViewPub: keys.Address.ViewPub}
			if o, ok, err := tryOwn(d, uint64(i), out, keys, candidateAddr, idx); err != nil {
				return nil, err
			} else if ok {
				owned = append(owned, o)
				break
			}
		}
	}
	return owned, nil
}

// tryOwn attempts to re-derive out's one-time public key against candidate
// and, on a match, its spend secret and key image (spec.md's implicit
// mirror of txbuilder's GenerateKeyImage, run forward instead of by search).
func tryOwn(d crypto.KeyDerivation, index uint64, out wire.Output, keys account.Keys, candidate account.Address, idx account.SubaddressIndex) (Owned, bool, error) {
	var derived crypto.PublicKey
	var err error
	if idx.IsMain() {
		derived, err = crypto.DerivePublicKey(d, index, candidate.SpendPub)
	} else {
		derived, err = crypto.DeriveSubaddressPublicKey(d, index, candidate.SpendPub)
	}
	if err != nil || derived != out.Target.Key {
		return Owned{}, false, err
	}

	spendSec := keys.SpendSec
	if !idx.IsMain() {
		spendSec, err = account.DeriveSubaddressSpendSecret(keys, idx)
		if err != nil {
			return Owned{}, false, err
		}
	}

	sec, err := crypto.DeriveSecretKey(d, index, spendSec)
	if err != nil {
		return Owned{}, false, err
	}
	img, err := crypto.GenerateKeyImage(out.Target.Key, sec)
	if err != nil {
		return Owned{}, false, err
	}

	return Owned{
		OutputIndex: index,
		AssetType:   out.Target.AssetType,
		Amount:      out.Amount,
		Ephemeral:   account.Keypair{Pub: out.Target.Key, Sec: sec},
		Subaddress:  idx,
		KeyImage:    img,
	}, true, nil
}
