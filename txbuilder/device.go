package txbuilder

import (
	"github.com/haven-protocol-org/haven-core/account"
	"github.com/haven-protocol-org/haven-core/crypto"
	elaerr "github.com/haven-protocol-org/haven-core/errors"
)

// Device is the scoped key-handling session the builder drives at every
// step that touches a secret scalar (spec.md §4.6 step 1, §5): opening it
// stands in for establishing a hardware-wallet session; every derivation
// and signing primitive is requested through it rather than used
// directly, so a real hardware device can be substituted without the
// builder itself changing. SoftwareDevice is the in-process default.
type Device interface {
	OpenSession() error
	CloseSession() error

	// GenerateKeyImage re-derives the real spend's ephemeral keypair and
	// key image by searching the known derivations (main and additional
	// tx pubkeys) against every subaddress this account owns, matching
	// outPub against each candidate one-time key (spec.md §4.6 step 3).
	GenerateKeyImage(keys account.Keys, subaddresses *account.SubaddressTable, outPub crypto.PublicKey, realTxPubKey crypto.PublicKey, realAdditionalTxPubKeys []crypto.PublicKey, outputIndex uint64) (account.Keypair, crypto.KeyImage, error)

	// GenerateOutputEphemeralKey derives one destination's stealth output
	// key, using r (the caller passes the main tx secret, or the
	// destination's own additional tx secret when additional keys are in
	// use) as the derivation
	// scalar (spec.md §4.6 step 7).
	GenerateOutputEphemeralKey(dst Destination, r crypto.SecretKey, outputIndex uint64, useViewTags bool) (outPub crypto.PublicKey, amountKeyDerivation crypto.KeyDerivation, viewTag byte, err error)

	// EncryptPaymentID masks an 8-byte short payment id for the unique
	// non-change destination (spec.md §4.6 step 2).
	EncryptPaymentID(id [8]byte, viewPub crypto.PublicKey, txSec crypto.SecretKey) ([8]byte, error)
}

// SoftwareDevice is a pure in-process Device: every derivation runs
// directly against crypto/, with no session state to actually scope
// (OpenSession/CloseSession are no-ops kept only to satisfy the
// interface a real hardware device would need).
type SoftwareDevice struct{}

func (SoftwareDevice) OpenSession() error  { return nil }
func (SoftwareDevice) CloseSession() error { return nil }

func (SoftwareDevice) GenerateKeyImage(keys account.Keys, subaddresses *account.SubaddressTable, outPub crypto.PublicKey, realTxPubKey crypto.PublicKey, realAdditionalTxPubKeys []crypto.PublicKey, outputIndex uint64) (account.Keypair, crypto.KeyImage, error) {
	derivations := make([]crypto.KeyDerivation, 0, 1+len(realAdditionalTxPubKeys))
	mainDerivation, err := crypto.GenerateKeyDerivation(realTxPubKey, keys.ViewSec)
	if err != nil {
		return account.Keypair{}, crypto.KeyImage{}, err
	}
	derivations = append(derivations, mainDerivation)
	for _, add := range realAdditionalTxPubKeys {
		d, err := crypto.GenerateKeyDerivation(add, keys.ViewSec)
		if err != nil {
			return account.Keypair{}, crypto.KeyImage{}, err
		}
		derivations = append(derivations, d)
	}

	// Main address first, against the primary derivation only — matches
	// the common case without a subaddress table walk.
	if candidate, err := crypto.DerivePublicKey(mainDerivation, outputIndex, keys.Address.SpendPub); err == nil && candidate == outPub {
		sec, err := crypto.DeriveSecretKey(mainDerivation, outputIndex, keys.SpendSec)
		if err != nil {
			return account.Keypair{}, crypto.KeyImage{}, err
		}
		img, err := crypto.GenerateKeyImage(outPub, sec)
		if err != nil {
			return account.Keypair{}, crypto.KeyImage{}, err
		}
		return account.Keypair{Pub: outPub, Sec: sec}, img, nil
	}

	if subaddresses != nil {
		for _, d := range derivations {
			for spendPub, idx := range subaddresses.Entries() {
				if idx.IsMain() {
					continue
				}
				candidate, err := crypto.DeriveSubaddressPublicKey(d, outputIndex, spendPub)
				if err != nil || candidate != outPub {
					continue
				}
				subSec, err := account.DeriveSubaddressSpendSecret(keys, idx)
				if err != nil {
					return account.Keypair{}, crypto.KeyImage{}, err
				}
				sec, err := crypto.DeriveSecretKey(d, outputIndex, subSec)
				if err != nil {
					return account.Keypair{}, crypto.KeyImage{}, err
				}
				img, err := crypto.GenerateKeyImage(outPub, sec)
				if err != nil {
					return account.Keypair{}, crypto.KeyImage{}, err
				}
				return account.Keypair{Pub: outPub, Sec: sec}, img, nil
			}
		}
	}

	return account.Keypair{}, crypto.KeyImage{}, elaerr.New(elaerr.KindCrypto, elaerr.ErrKeyImageMismatch, "derived public key matches no known spend for real output")
}

func (SoftwareDevice) GenerateOutputEphemeralKey(dst Destination, r crypto.SecretKey, outputIndex uint64, useViewTags bool) (crypto.PublicKey, crypto.KeyDerivation, byte, error) {
	d, err := crypto.GenerateKeyDerivation(dst.Address.ViewPub, r)
	if err != nil {
		return crypto.PublicKey{}, crypto.KeyDerivation{}, 0, err
	}

	var outPub crypto.PublicKey
	if dst.IsSubaddress {
		outPub, err = crypto.DeriveSubaddressPublicKey(d, outputIndex, dst.Address.SpendPub)
	} else {
		outPub, err = crypto.DerivePublicKey(d, outputIndex, dst.Address.SpendPub)
	}
	if err != nil {
		return crypto.PublicKey{}, crypto.KeyDerivation{}, 0, err
	}

	var viewTag byte
	if useViewTags {
		viewTag = crypto.DeriveViewTag(d, outputIndex)
	}
	return outPub, d, viewTag, nil
}

func (SoftwareDevice) EncryptPaymentID(id [8]byte, viewPub crypto.PublicKey, txSec crypto.SecretKey) ([8]byte, error) {
	return crypto.EncryptPaymentID8(id, viewPub, txSec)
}
