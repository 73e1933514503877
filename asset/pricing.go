package asset

import "github.com/haven-protocol-org/haven-core/common"

// PricingRecord is an immutable, externally-signed snapshot of exchange
// rates for one block height. Signer verification (who is allowed to emit
// a pricing record) is outside this core, per spec §6 — this type only
// carries the rates and the freshness check.
//
// SpotRate and MovingAverageRate hold the two XHV<->XUSD rates that coexist
// so conversion code can pick a direction-safe rate (min for offshore, max
// for onshore) and remove arbitrage; MovingAverageRate is the historical
// "unused1" field on the wire, kept under its economic name here.
type PricingRecord struct {
	Height            uint64
	SpotRate          uint64
	MovingAverageRate uint64
	XAssetRates       map[Tag]uint64
}

// RateFor returns the single-valued rate for an xAsset tag. XHV and XUSD
// rates are not looked up here — callers use SpotRate/MovingAverageRate
// directly since those are two-valued.
func (pr *PricingRecord) RateFor(t Tag) (uint64, bool) {
	r, ok := pr.XAssetRates[t]
	return r, ok
}

// OffshoreRate is the XHV->XUSD rate used for offshore conversions: the
// lower of spot and moving-average, so a converter can never arbitrage the
// two feeds by picking whichever favors them.
func (pr *PricingRecord) OffshoreRate() uint64 {
	if pr.SpotRate < pr.MovingAverageRate {
		return pr.SpotRate
	}
	return pr.MovingAverageRate
}

// OnshoreRate is the XUSD->XHV rate used for onshore conversions: the
// higher of spot and moving-average.
func (pr *PricingRecord) OnshoreRate() uint64 {
	if pr.SpotRate > pr.MovingAverageRate {
		return pr.SpotRate
	}
	return pr.MovingAverageRate
}

// PricingRecordValidBlocks is the freshness window a pricing record must
// fall within to be usable by a transaction at a given height.
const PricingRecordValidBlocks = 10

// historicalException is the one documented pre-existing transaction whose
// pricing record falls outside the freshness window but must still
// validate for chain compatibility (spec §3, §8 scenario 4).
var historicalException common.Hash

// SetHistoricalException registers the one grandfathered transaction hash.
// Exposed as a setter (rather than a bare package var) so classify/hardfork.go
// owns the actual historical constant and asset stays a leaf package.
func SetHistoricalException(h common.Hash) {
	historicalException = h
}

// ValidForHeight reports whether pr may be used by a transaction being
// built/validated at currentHeight, given the transaction's own hash (for
// the historical exception carve-out).
func (pr *PricingRecord) ValidForHeight(currentHeight uint64, txHash common.Hash) bool {
	if historicalException != (common.Hash{}) && txHash.IsEqual(historicalException) {
		return true
	}
	if pr.Height >= currentHeight {
		return false
	}
	return currentHeight-pr.Height <= PricingRecordValidBlocks
}
