package wire

import (
	"bytes"

	"github.com/haven-protocol-org/haven-core/common"
	"github.com/haven-protocol-org/haven-core/crypto"
)

// Transaction versions. The legacy OFFSHORE/POU/COLLATERAL era spans
// VersionOffshore..VersionCollateral; HAVEN_TYPES begins at VersionHavenTypes
// (spec.md §4.1 names the eras but leaves the exact version numbers
// implementation-defined beyond "v2..v6" for the legacy span — resolved
// here and recorded in DESIGN.md).
const (
	VersionPreOffshore = 1
	VersionOffshore    = 2 // adds pricing_record_height, amount_burnt, amount_minted
	VersionPOU         = 3 // adds output_unlock_times
	VersionCollateral  = 4 // adds collateral_indices
	VersionHavenTypes  = 7 // haven_key/haven_tagged_key only; unlock/collateral folded per-output
	CurrentVersion     = VersionHavenTypes
)

// TransactionPrefix is always held in the haven-normalized shape in memory,
// regardless of which wire era it was decoded from (spec §3, §4.1): legacy
// per-output unlock times and collateral indices are folded into each
// Output at load time and reconstructed at save time by wire/normalize.go.
type TransactionPrefix struct {
	Version             uint64
	UnlockTime          uint64
	Vin                 []TxInV
	Vout                []Output
	Extra               []byte
	PricingRecordHeight uint64
	OffshoreData        []byte
	AmountBurnt         uint64
	AmountMinted        uint64
}

// Transaction extends TransactionPrefix with its signature data and the
// three lazily-computed caches spec §5/§9 describe: each guarded by an
// atomic validity flag with release/acquire semantics so mutation through
// any path is safe to observe from another goroutine holding a reference.
type Transaction struct {
	TransactionPrefix

	Signatures    []crypto.RingSignature // version 1, one ring signature per input; empty for watch-only signing
	RctSignatures *RctSignature            // version >= 2
	Pruned        bool

	hash         cache[common.Hash]
	prunableHash cache[common.Hash]
	blobSize     cache[int]
}

// Invalidate clears all three caches. Callers must invoke this before any
// mutated state becomes visible to other holders of the same Transaction
// pointer (spec §5).
func (tx *Transaction) Invalidate() {
	tx.hash.Invalidate()
	tx.prunableHash.Invalidate()
	tx.blobSize.Invalidate()
}

// Hash returns the prefix hash (Keccak256 of the unsigned serialized
// prefix), computing and caching it on first use.
func (tx *Transaction) Hash() common.Hash {
	return tx.hash.Get(func() common.Hash {
		buf := new(bytes.Buffer)
		// SerializeUnsigned errors are impossible against a bytes.Buffer;
		// a non-nil error here would mean the in-memory transaction is
		// malformed in a way construction should already have rejected.
		_ = tx.SerializeUnsigned(buf)
		return crypto.Keccak256(buf.Bytes())
	})
}

// PrunableHash hashes the signature/rct data not covered by the prefix
// hash: the part a pruned node is allowed to discard.
func (tx *Transaction) PrunableHash() common.Hash {
	return tx.prunableHash.Get(func() common.Hash {
		buf := new(bytes.Buffer)
		_ = tx.serializeSignatures(buf)
		return crypto.Keccak256(buf.Bytes())
	})
}

// BlobSize returns the full serialized size in bytes, computing and
// caching it on first use.
func (tx *Transaction) BlobSize() int {
	return tx.blobSize.Get(func() int {
		buf := new(bytes.Buffer)
		if err := tx.Serialize(buf); err != nil {
			return 0
		}
		return buf.Len()
	})
}

// Clone makes a deep copy whose caches start invalid, matching spec §9's
// requirement that cloning copy the payload before publishing any cache
// flag in the clone (a fresh, unpublished cache trivially satisfies this).
func (tx *Transaction) Clone() *Transaction {
	clone := &Transaction{TransactionPrefix: tx.TransactionPrefix}
	clone.Vin = append([]TxInV(nil), tx.Vin...)
	clone.Vout = append([]Output(nil), tx.Vout...)
	clone.Extra = append([]byte(nil), tx.Extra...)
	clone.OffshoreData = append([]byte(nil), tx.OffshoreData...)
	clone.Signatures = append([]crypto.RingSignature(nil), tx.Signatures...)
	if tx.RctSignatures != nil {
		rct := *tx.RctSignatures
		clone.RctSignatures = &rct
	}
	clone.Pruned = tx.Pruned
	return clone
}

// IsMinerTx reports whether this transaction is a coinbase: its single
// input is a gen{height} variant, legal only in that position (spec §4.2).
func (tx *Transaction) IsMinerTx() bool {
	return len(tx.Vin) == 1 && tx.Vin[0].Kind == TxInGen
}
