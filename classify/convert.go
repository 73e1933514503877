package classify

import (
	"math"

	"github.com/holiman/uint256"

	"github.com/haven-protocol-org/haven-core/asset"
	"github.com/haven-protocol-org/haven-core/common"
	elaerr "github.com/haven-protocol-org/haven-core/errors"
)

// xhvToXUSDRate picks the arbitrage-safe XHV<->XUSD rate for a conversion
// direction: at hf >= HFPerOutputUnlock the MA/spot advantage is eliminated
// by picking max for ONSHORE and min for OFFSHORE; older forks always use
// the raw moving-average rate (spec.md §4.5).
func xhvToXUSDRate(pr *asset.PricingRecord, txType TxType, hf int) uint64 {
	if hf < HFPerOutputUnlock {
		return pr.MovingAverageRate
	}
	if txType == TxTypeOnshore {
		return pr.OnshoreRate()
	}
	return pr.OffshoreRate()
}

// GetXUSDAmount converts amount (tagged with assetType) into its XUSD
// equivalent under pr, using the directional rate rule for XHV and a plain
// division for every other xAsset (spec.md §4.5).
func GetXUSDAmount(amount uint64, assetType asset.Tag, pr *asset.PricingRecord, txType TxType, hf int) (uint64, error) {
	if assetType == asset.XUSD {
		return amount, nil
	}

	if assetType == asset.XHV {
		rate := xhvToXUSDRate(pr, txType, hf)
		return scaleDown(amount, rate, common.COIN), nil
	}

	rate, ok := pr.RateFor(assetType)
	if !ok {
		return 0, elaerr.Newf(elaerr.KindEconomic, elaerr.ErrPricingRecordStale, "pricing record carries no rate for %q", assetType)
	}
	return scaleDown(amount, common.COIN, rate), nil
}

// GetXAssetAmount converts an XUSD amount into toAsset's units by
// multiplying by its pricing-record rate (the inverse of GetXUSDAmount's
// xAsset branch).
func GetXAssetAmount(xusdAmount uint64, toAsset asset.Tag, pr *asset.PricingRecord) (uint64, error) {
	rate, ok := pr.RateFor(toAsset)
	if !ok {
		return 0, elaerr.Newf(elaerr.KindEconomic, elaerr.ErrPricingRecordStale, "pricing record carries no rate for %q", toAsset)
	}
	return scaleDown(xusdAmount, rate, common.COIN), nil
}

// GetXHVAmount converts an XUSD amount into XHV using the same directional
// rate-selection rule as GetXUSDAmount's XHV branch, inverted.
func GetXHVAmount(xusdAmount uint64, pr *asset.PricingRecord, txType TxType, hf int) uint64 {
	rate := pr.MovingAverageRate
	if hf >= HFPerOutputUnlock {
		if txType == TxTypeOnshore {
			rate = pr.OnshoreRate()
		} else {
			rate = pr.OffshoreRate()
		}
	}
	return scaleDown(xusdAmount, common.COIN, rate)
}

// scaleDown computes floor(amount*numerator/denominator) in 128-bit
// arithmetic, avoiding overflow for amounts near the uint64 range
// (spec.md §4.3, §4.5) — same concern as fees.go's applyBasisPoints, same
// library.
func scaleDown(amount, numerator, denominator uint64) uint64 {
	product := new(uint256.Int).Mul(uint256.NewInt(amount), uint256.NewInt(numerator))
	product.Div(product, uint256.NewInt(denominator))
	return product.Uint64()
}

// GetBlockCap computes the conversion-throughput cap for a block, in XHV
// atomic units: `(mcap_xhv*3000)^0.42 + 0.5% of xhv supply`, scaled by COIN
// (spec.md §4.5).
func GetBlockCap(pr *asset.PricingRecord, xhvSupply uint64) uint64 {
	priceXHV := pr.OffshoreRate() // min(ma,spot), per spec.md §4.5
	xhvSupplyWhole := xhvSupply / common.COIN
	price := float64(priceXHV) / float64(common.COIN)
	marketCap := float64(xhvSupplyWhole) * price

	cap := math.Pow(marketCap*3000, 0.42) + float64(xhvSupplyWhole)*5/1000
	return uint64(cap) * common.COIN
}
