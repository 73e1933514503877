// Package classify derives a transaction's semantic asset-conversion type
// from its input/output asset tags and computes the conversion economics
// (fees, collateral, converted amounts) that depend on a signed pricing
// record and the current hard-fork epoch.
package classify

import (
	"github.com/haven-protocol-org/haven-core/asset"
	"github.com/haven-protocol-org/haven-core/common"
)

// Hard-fork epoch numbers gate which fee/collateral/conversion rule applies
// (spec.md §4.3-§4.5). Centralized here, mirroring the teacher's
// common/config height-constant centralization, so fees.go/collateral.go/
// convert.go all read from one schedule. wire's codec does not read these;
// it gates on its own transaction-version constants (wire.Version*).
const (
	HFPOU             = 3
	HFCollateral      = 4
	HFPerOutputUnlock = 5
	HFXAssetFeesV2    = 5
	HFUseCollateral   = 6
	HFHavenTypes      = 7
	HFViewTags        = 7
)

// CryptonoteMinedMoneyUnlockWindow is added to a coinbase's creation height
// to produce its unlock_time (spec.md §4.7).
const CryptonoteMinedMoneyUnlockWindow = 60

// BaseRewardClampThreshold is the rounding granularity applied to the block
// reward for hf in [2,4) (spec.md §4.7).
const BaseRewardClampThreshold = 10000000

// xjpyExploitTxHashes is the hard-coded allow-list of three historical
// transactions that converted XJPY to XBTC and whose destination asset must
// still decode as XJPY for chain-compatibility with a past exploit
// (spec.md §4.2, §8 scenario 6).
var xjpyExploitTxHashes = []string{
	"4c87e7245142cb33a8ed4f039b7f33d4e4dd6b541a42a55992fd88efeefc40d1",
	"7089a8faf5bddf8640a3cb41338f1ec2cdd063b1622e3b27923e2c1c31c55418",
	"ad5d15085594b8f2643f058b05931c3e60966128b4c33298206e70bdf9d41c22",
}

var xjpyExploitHashes = mustParseHashSet(xjpyExploitTxHashes)

// pricingRecordExceptionHash is the one grandfathered transaction whose
// pricing record predates the freshness window (spec.md §8 scenario 4).
const pricingRecordExceptionHash = "3e61439c9f751a56777a1df1479ce70311755b9d42db5bcbbd873c6f09a020a6"

func init() {
	asset.SetHistoricalException(mustParseHash(pricingRecordExceptionHash))
}

func mustParseHash(hexHash string) common.Hash {
	b, err := common.HexStringToBytes(hexHash)
	if err != nil || len(b) != len(common.Hash{}) {
		panic("classify: malformed historical hash constant " + hexHash)
	}
	var h common.Hash
	copy(h[:], b)
	return h
}

func mustParseHashSet(hexHashes []string) map[common.Hash]struct{} {
	set := make(map[common.Hash]struct{}, len(hexHashes))
	for _, hh := range hexHashes {
		set[mustParseHash(hh)] = struct{}{}
	}
	return set
}

// IsXJPYExploitTx reports whether h is one of the three historical
// exploit transactions that force destination=XJPY regardless of output
// tags.
func IsXJPYExploitTx(h common.Hash) bool {
	_, ok := xjpyExploitHashes[h]
	return ok
}
