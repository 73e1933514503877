// Package wire holds the tagged-union transaction/block model and the
// versioned binary codec that translates between the three historical wire
// formats and a single haven-normalized in-memory shape (spec.md §3, §4.1).
// It generalizes the teacher's `core/types.Transaction`/`GetPayload`
// dispatch-table pattern: where the teacher picks one `Payload` per
// transaction type, this package picks one variant per input/output,
// expressed as an explicit discriminant field rather than an interface —
// "boost-variant visitor patterns reduce to exhaustive match on the tagged
// union" (spec.md §9).
package wire

import (
	"github.com/haven-protocol-org/haven-core/asset"
	"github.com/haven-protocol-org/haven-core/crypto"
)

// TxInKind is both the Go discriminant and the wire variant byte (spec §6).
type TxInKind byte

const (
	TxInGen          TxInKind = 0xff
	TxInToScript     TxInKind = 0x00
	TxInToScriptHash TxInKind = 0x01
	TxInToKey        TxInKind = 0x02
	TxInOffshore     TxInKind = 0x03
	TxInOnshore      TxInKind = 0x04
	TxInXAsset       TxInKind = 0x05
	TxInHavenKey     TxInKind = 0x06
)

func (k TxInKind) String() string {
	switch k {
	case TxInGen:
		return "gen"
	case TxInToScript:
		return "to_script"
	case TxInToScriptHash:
		return "to_scripthash"
	case TxInToKey:
		return "key"
	case TxInOffshore:
		return "offshore"
	case TxInOnshore:
		return "onshore"
	case TxInXAsset:
		return "xasset"
	case TxInHavenKey:
		return "haven_key"
	default:
		return "unknown"
	}
}

// TxInV is a single tagged-union input. Only the fields relevant to Kind
// are meaningful; after normalization (wire/normalize.go) every spendable
// input in memory is TxInHavenKey regardless of the wire era it came from.
type TxInV struct {
	Kind TxInKind

	// Gen
	Height uint64

	// ToKey, Offshore, Onshore, XAsset, HavenKey
	Amount     uint64
	AssetType  asset.Tag // implied XHV for ToKey, XUSD for Offshore/Onshore; explicit for XAsset/HavenKey
	KeyOffsets []uint64  // relative deltas on the wire; first entry absolute
	KeyImage   crypto.KeyImage
}

// IsSpendable reports whether this input variant actually spends an
// existing output (as opposed to gen/to_script/to_scripthash, which don't
// carry a key image).
func (in *TxInV) IsSpendable() bool {
	switch in.Kind {
	case TxInToKey, TxInOffshore, TxInOnshore, TxInXAsset, TxInHavenKey:
		return true
	default:
		return false
	}
}

// AbsoluteKeyOffsets expands the relative-delta key_offsets encoding (spec
// §3: "first is absolute") back into absolute global output indices.
func (in *TxInV) AbsoluteKeyOffsets() []uint64 {
	out := make([]uint64, len(in.KeyOffsets))
	var running uint64
	for i, delta := range in.KeyOffsets {
		if i == 0 {
			running = delta
		} else {
			running += delta
		}
		out[i] = running
	}
	return out
}

// RelativeKeyOffsets is the inverse of AbsoluteKeyOffsets, used by the
// builder when assembling a freshly-built input (spec §4.6 step 3).
func RelativeKeyOffsets(absolute []uint64) []uint64 {
	out := make([]uint64, len(absolute))
	var prev uint64
	for i, a := range absolute {
		if i == 0 {
			out[i] = a
		} else {
			out[i] = a - prev
		}
		prev = a
	}
	return out
}
