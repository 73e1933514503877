package classify

import "github.com/holiman/uint256"

// feeBasisPoints is a fee rate expressed in ten-thousandths (basis
// points), so 1.5% is 150 and 0.3% is 30.
type feeBasisPoints uint64

const feeDenominator = 10000

// GetFee computes the conversion fee owed on convertedAmount (the amount
// actually being converted, excluding change and collateral outputs), per
// the hard-fork-epoch schedule in spec.md §4.3. unlockTime is only consulted
// for the pre-PER_OUTPUT_UNLOCK tiered schedule.
func GetFee(convertedAmount uint64, txType TxType, hf int, unlockTime uint64) uint64 {
	if convertedAmount == 0 {
		return 0
	}
	if txType != TxTypeOffshore && txType != TxTypeOnshore &&
		txType != TxTypeXUSDToXAsset && txType != TxTypeXAssetToXUSD {
		return 0
	}

	isXAsset := txType == TxTypeXUSDToXAsset || txType == TxTypeXAssetToXUSD

	var rate feeBasisPoints
	switch {
	case hf >= HFUseCollateral:
		rate = 150
	case isXAsset && hf >= HFXAssetFeesV2:
		rate = 50
	case !isXAsset && hf >= HFPerOutputUnlock:
		rate = 50
	case isXAsset:
		rate = 30
	default:
		rate = tieredLegacyRate(unlockTime)
	}

	return applyBasisPoints(convertedAmount, rate)
}

// tieredLegacyRate is the pre-PER_OUTPUT_UNLOCK OFFSHORE/ONSHORE schedule,
// keyed by the output's unlock_time (spec.md §4.3).
func tieredLegacyRate(unlockTime uint64) feeBasisPoints {
	switch {
	case unlockTime >= 5040:
		return 20
	case unlockTime >= 1440:
		return 500
	case unlockTime >= 720:
		return 1000
	default:
		return 2000
	}
}

// applyBasisPoints computes amount*rate/feeDenominator in 128-bit arithmetic
// to avoid overflow on large amounts, truncating to 64 bits on return
// (spec.md §4.3).
func applyBasisPoints(amount uint64, rate feeBasisPoints) uint64 {
	product := new(uint256.Int).Mul(uint256.NewInt(amount), uint256.NewInt(uint64(rate)))
	product.Div(product, uint256.NewInt(feeDenominator))
	return product.Uint64()
}
