package wire

import (
	"github.com/haven-protocol-org/haven-core/asset"
	"github.com/haven-protocol-org/haven-core/crypto"
)

// TxOutKind is both the Go discriminant and the wire variant byte (spec §6).
type TxOutKind byte

const (
	TxOutToScript       TxOutKind = 0x00
	TxOutToScriptHash   TxOutKind = 0x01
	TxOutToKey          TxOutKind = 0x02
	TxOutOffshore       TxOutKind = 0x03
	TxOutXAsset         TxOutKind = 0x05
	TxOutHavenKey       TxOutKind = 0x06
	TxOutHavenTaggedKey TxOutKind = 0x07
)

func (k TxOutKind) String() string {
	switch k {
	case TxOutToScript:
		return "to_script"
	case TxOutToScriptHash:
		return "to_scripthash"
	case TxOutToKey:
		return "key"
	case TxOutOffshore:
		return "offshore"
	case TxOutXAsset:
		return "xasset"
	case TxOutHavenKey:
		return "haven_key"
	case TxOutHavenTaggedKey:
		return "haven_tagged_key"
	default:
		return "unknown"
	}
}

// OutTarget is a single tagged-union output target. After normalization,
// every spendable output in memory is TxOutHavenKey or TxOutHavenTaggedKey
// (the latter iff a view tag was derived for it).
type OutTarget struct {
	Kind TxOutKind

	Key          crypto.PublicKey // ToKey, Offshore, XAsset, HavenKey, HavenTaggedKey
	AssetType    asset.Tag        // implied XHV for ToKey, XUSD for Offshore; explicit for XAsset/HavenKey/HavenTaggedKey
	UnlockTime   uint64           // HavenKey/HavenTaggedKey only (folded form of per-version output_unlock_times)
	IsCollateral bool             // HavenKey/HavenTaggedKey only (folded form of per-version collateral_indices)
	ViewTag      byte             // HavenTaggedKey only
}

// Output pairs a cleartext amount with its target. Once a transaction is
// rct-signed (version >= 2), Amount is zeroed and the true amount lives
// only in the rct commitment (spec §4.6 step 10).
type Output struct {
	Amount uint64
	Target OutTarget
}

// IsSpendable reports whether this output variant is ever scannable by a
// wallet (as opposed to to_script/to_scripthash, legacy and unused on
// mainnet per spec §3).
func (o *OutTarget) IsSpendable() bool {
	switch o.Kind {
	case TxOutToKey, TxOutOffshore, TxOutXAsset, TxOutHavenKey, TxOutHavenTaggedKey:
		return true
	default:
		return false
	}
}
