package wire

import "github.com/haven-protocol-org/haven-core/crypto"

// RctType distinguishes the confidential-transaction signature layout, the
// shape the other_examples/0xAF4-go-monero__tx.go RctSignature/
// RctSigPrunable split is grounded on: a "base" part committing to fee and
// per-output amount masks, and a "prunable" part carrying the bulk range
// proof and ring signature data that full nodes may discard for pruned
// transactions.
type RctType byte

const (
	RctTypeNull            RctType = 0
	RctTypeFull            RctType = 1 // single-input layout without pseudo-outs; one ring signature
	RctTypeSimple          RctType = 2 // one ring signature per input (pseudo-outs)
	RctTypeBulletproof     RctType = 3
	RctTypeBulletproofPlus RctType = 6
)

// EcdhInfo carries the per-output ECDH-masked amount and blinding mask, as
// derived by crypto.EncryptAmount and the commitment mask derivation.
type EcdhInfo struct {
	Mask            crypto.SecretKey
	EncryptedAmount uint64
}

// RctSignature is the confidential-transaction signature bundle attached to
// version >= 2 transactions (spec §4.6 step 10, §3 "rct_signatures").
type RctSignature struct {
	Type RctType

	// Base
	TxnFee     uint64
	PseudoOuts []crypto.PublicKey // per-input commitments, simple rct only
	EcdhInfo   []EcdhInfo
	OutPk      []crypto.PublicKey // per-output commitments

	// Prunable
	RangeProofs []crypto.RangeProof
	RingSigs    []crypto.RingSignature // one per input, over the ring's one-time public keys
}
