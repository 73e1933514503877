package txbuilder

import (
	"github.com/haven-protocol-org/haven-core/account"
	"github.com/haven-protocol-org/haven-core/asset"
	"github.com/haven-protocol-org/haven-core/crypto"
)

// RingMember is one decoy (or the real spend) in a source's ring: its
// global output index, one-time public key, and — for a confidential
// input — the Pedersen commitment that output was created with.
type RingMember struct {
	GlobalIndex uint64
	Pub         crypto.PublicKey
	Commitment  crypto.PublicKey
}

// Source is one input the builder is asked to spend (spec.md §4.6's
// vector of source entries): the real output's amount, its position
// within the ring, the full ring, and everything needed to re-derive the
// real output's ephemeral keypair.
type Source struct {
	Amount    uint64
	AssetType asset.Tag

	Outputs             []RingMember
	RealOutputIndex     int // index into Outputs of the real spend
	RealOutputInTxIndex uint64 // the real output's index within its origin tx, for key derivation
	RealOutTxPubKey     crypto.PublicKey
	RealOutAdditionalTxPubKeys []crypto.PublicKey

	// Mask is the real output's own blinding mask. Zero for a
	// non-confidential (version 1) spend. Construct does not read it:
	// genRctSimple draws the pseudo-out masks at random and balances them
	// against the output masks.
	Mask crypto.SecretKey
}

// Destination is one payment the builder is asked to make (spec.md
// §4.6's destination entries): recipient address, amount, and the
// subaddress/collateral flags that steer tx-key and output-variant
// selection.
type Destination struct {
	Address      account.Address
	Amount       uint64
	AssetType    asset.Tag
	IsSubaddress bool
	IsCollateral bool

	// SecondaryAmount is the pre-fee amount of the *source* asset this
	// destination's conversion leg consumes (spec.md §4.6's "secondary
	// amounts for conversions"); zero for a plain transfer or a
	// collateral/change output that doesn't itself represent a
	// conversion. Construct sums this across destinations to get the
	// convertedAmount classify.GetFee/GetCollateralRequirements price.
	SecondaryAmount uint64
}
