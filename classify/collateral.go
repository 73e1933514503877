package classify

import (
	"math/big"

	"github.com/haven-protocol-org/haven-core/asset"
	"github.com/haven-protocol-org/haven-core/common"
	elaerr "github.com/haven-protocol-org/haven-core/errors"
)

// Supply is the circulating-supply snapshot GetCollateralRequirements and
// GetBlockCap price against: XHV plus every non-XHV asset that contributes
// to the xAsset market cap, including XUSD (priced 1:1 against itself).
type Supply struct {
	XHV      uint64
	NonXHV   map[asset.Tag]uint64
}

// rateForMcap returns the rate used to convert a non-XHV asset's supply
// into its XUSD-equivalent market cap contribution: XUSD is priced 1:1
// against itself, every other xAsset uses its pricing-record rate.
func rateForMcap(pr *asset.PricingRecord, tag asset.Tag) (uint64, error) {
	if tag == asset.XUSD {
		return common.COIN, nil
	}
	rate, ok := pr.RateFor(tag)
	if !ok {
		return 0, elaerr.Newf(elaerr.KindEconomic, elaerr.ErrPricingRecordStale, "pricing record carries no rate for %q", tag)
	}
	return rate, nil
}

// marketCaps computes mcap_xassets (the XUSD-equivalent sum of every
// non-XHV asset's supply) and mcap_xhv (XHV supply priced at priceXHV),
// mirroring the original get_collateral_requirements loop.
func marketCaps(pr *asset.PricingRecord, supply Supply, priceXHV uint64) (mcapXAssets, mcapXHV *big.Float, err error) {
	mcapXAssets = newBigFloat(0)
	for tag, amount := range supply.NonXHV {
		rate, rerr := rateForMcap(pr, tag)
		if rerr != nil {
			return nil, nil, rerr
		}
		contribution := new(big.Float).SetPrec(bigPrecision).Mul(bigFromUint64(amount), bigFromUint64(common.COIN))
		contribution.Quo(contribution, bigFromUint64(rate))
		mcapXAssets.Add(mcapXAssets, contribution)
	}

	mcapXHV = new(big.Float).SetPrec(bigPrecision).Mul(bigFromUint64(supply.XHV), bigFromUint64(priceXHV))
	mcapXHV.Quo(mcapXHV, bigFromUint64(common.COIN))
	return mcapXAssets, mcapXHV, nil
}

// GetCollateralRequirements computes the XHV collateral an OFFSHORE or
// ONSHORE conversion must lock, per spec.md §4.4. amount is the amount
// actually being converted (XHV for OFFSHORE, XUSD for ONSHORE). Every
// other transaction type requires zero collateral.
func GetCollateralRequirements(txType TxType, amount uint64, pr *asset.PricingRecord, supply Supply) (uint64, error) {
	switch txType {
	case TxTypeTransfer, TxTypeOffshoreTransfer, TxTypeXAssetTransfer, TxTypeXUSDToXAsset, TxTypeXAssetToXUSD:
		return 0, nil
	case TxTypeOffshore, TxTypeOnshore:
		// fall through
	default:
		return 0, elaerr.Newf(elaerr.KindSemantic, elaerr.ErrConflictingAssetSets, "no collateral rule for tx type %s", txType)
	}

	var priceXHV uint64
	if txType == TxTypeOffshore {
		priceXHV = pr.OffshoreRate()
	} else {
		priceXHV = pr.OnshoreRate()
	}
	if priceXHV == 0 {
		return 0, elaerr.New(elaerr.KindEconomic, elaerr.ErrPricingRecordStale, "zero XHV price in pricing record")
	}

	mcapXAssets, mcapXHV, err := marketCaps(pr, supply, priceXHV)
	if err != nil {
		return 0, err
	}
	if mcapXHV.Sign() <= 0 {
		return 0, elaerr.New(elaerr.KindEconomic, elaerr.ErrPricingRecordStale, "zero or negative XHV market cap")
	}

	r := new(big.Float).SetPrec(bigPrecision).Quo(mcapXAssets, mcapXHV)
	rFloat, _ := r.Float64()

	s := newBigFloat(0)
	if rFloat < 1.0 {
		s = new(big.Float).SetPrec(bigPrecision).Sub(newBigFloat(1), r)
	}

	rateMcvbs := newBigFloat(0)
	if rFloat != 0 {
		if rFloat < 0.9 {
			inner := new(big.Float).SetPrec(bigPrecision).Add(r, bigSqrt(r))
			inner.Mul(inner, newBigFloat(2))
			rateMcvbs = new(big.Float).SetPrec(bigPrecision).Sub(bigExp(inner), newBigFloat(0.5))
		} else {
			rateMcvbs = new(big.Float).SetPrec(bigPrecision).Mul(bigSqrt(r), newBigFloat(40))
		}
	}

	rateSrvbs := new(big.Float).SetPrec(bigPrecision).Add(newBigFloat(1), bigSqrt(s))
	rateSrvbs = bigExp(rateSrvbs)
	rateSrvbs.Add(rateSrvbs, rateMcvbs)
	rateSrvbs.Add(rateSrvbs, newBigFloat(1.5))

	amountBig := bigFromUint64(amount)
	var vbs *big.Float

	if txType == TxTypeOffshore {
		amountUSD := new(big.Float).SetPrec(bigPrecision).Mul(amountBig, bigFromUint64(priceXHV))
		amountUSD.Quo(amountUSD, bigFromUint64(common.COIN))

		numerator := new(big.Float).SetPrec(bigPrecision).Add(amountUSD, mcapXAssets)
		denominator := new(big.Float).SetPrec(bigPrecision).Sub(mcapXHV, amountUSD)
		rNew := new(big.Float).SetPrec(bigPrecision).Quo(numerator, denominator)
		rNewFloat, _ := rNew.Float64()

		var mcri *big.Float
		if rFloat == 0 {
			mcri = rNew
		} else {
			mcri = new(big.Float).SetPrec(bigPrecision).Quo(rNew, r)
			mcri.Sub(mcri, newBigFloat(1))
		}
		mcri = bigAbs(mcri)

		slippageMult := newBigFloat(10)
		if rNewFloat <= 0.1 {
			slippageMult = newBigFloat(3)
		}
		offsVbs := new(big.Float).SetPrec(bigPrecision).Mul(bigSqrt(mcri), slippageMult)

		vbs = new(big.Float).SetPrec(bigPrecision).Add(rateMcvbs, offsVbs)
	} else {
		numerator := new(big.Float).SetPrec(bigPrecision).Sub(mcapXAssets, amountBig)
		denominator := new(big.Float).SetPrec(bigPrecision).Add(mcapXHV, amountBig)
		rNew := new(big.Float).SetPrec(bigPrecision).Quo(numerator, denominator)

		var sri *big.Float
		if rFloat == 0 {
			sri = new(big.Float).SetPrec(bigPrecision).Neg(rNew)
		} else {
			oneMinusRNew := new(big.Float).SetPrec(bigPrecision).Sub(newBigFloat(1), rNew)
			oneMinusR := new(big.Float).SetPrec(bigPrecision).Sub(newBigFloat(1), r)
			sri = new(big.Float).SetPrec(bigPrecision).Quo(oneMinusRNew, oneMinusR)
			sri.Sub(sri, newBigFloat(1))
		}
		sri = bigMax(sri, newBigFloat(0))

		onsVbs := new(big.Float).SetPrec(bigPrecision).Mul(bigSqrt(sri), newBigFloat(3))
		vbs = bigMax(rateMcvbs, rateSrvbs)
		vbs.Add(vbs, onsVbs)
	}

	vbs = bigMax(vbs, newBigFloat(1))
	vbs.Mul(vbs, bigFromUint64(common.COIN))
	vbsScaled := bigToUint64(vbs)

	if txType == TxTypeOffshore {
		collateral := new(big.Float).SetPrec(bigPrecision).Mul(bigFromUint64(vbsScaled), amountBig)
		collateral.Quo(collateral, bigFromUint64(common.COIN))
		return bigToUint64(collateral), nil
	}

	collateral := new(big.Float).SetPrec(bigPrecision).Mul(bigFromUint64(vbsScaled), amountBig)
	collateral.Quo(collateral, bigFromUint64(priceXHV))
	return bigToUint64(collateral), nil
}
