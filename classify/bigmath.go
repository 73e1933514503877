package classify

import "math/big"

// bigPrecision is the mantissa width used for every big.Float value in
// collateral math: spec.md §9 calls for at least a 113-bit (quad) mantissa
// since the market-cap ratio terms can exceed double precision when
// mcap_xassets >> mcap_xhv.
const bigPrecision = 128

func newBigFloat(v float64) *big.Float {
	return new(big.Float).SetPrec(bigPrecision).SetFloat64(v)
}

func bigFromUint64(v uint64) *big.Float {
	return new(big.Float).SetPrec(bigPrecision).SetUint64(v)
}

// bigSqrt wraps big.Float's native square root (available since Go 1.10),
// retaining full bigPrecision.
func bigSqrt(x *big.Float) *big.Float {
	z := new(big.Float).SetPrec(bigPrecision)
	if x.Sign() <= 0 {
		return z.SetFloat64(0)
	}
	return z.Sqrt(x)
}

// bigExp computes e^x at bigPrecision via a Taylor series. big.Float has no
// native Exp; the series converges quickly for the small (<40) arguments
// this module's collateral formulas ever produce, so no range reduction is
// needed.
func bigExp(x *big.Float) *big.Float {
	result := new(big.Float).SetPrec(bigPrecision).SetFloat64(1)
	term := new(big.Float).SetPrec(bigPrecision).SetFloat64(1)
	for n := 1; n <= 120; n++ {
		term = new(big.Float).SetPrec(bigPrecision).Mul(term, x)
		term = new(big.Float).SetPrec(bigPrecision).Quo(term, bigFromUint64(uint64(n)))
		result = new(big.Float).SetPrec(bigPrecision).Add(result, term)
	}
	return result
}

// bigToUint64 truncates x (already scaled by the caller, e.g. by COIN) to a
// uint64, matching the "convert to 64-bit integer after scaling" rule in
// spec.md §4.4.
func bigToUint64(x *big.Float) uint64 {
	if x.Sign() <= 0 {
		return 0
	}
	u, _ := x.Uint64()
	return u
}

func bigMax(a, b *big.Float) *big.Float {
	if a.Cmp(b) >= 0 {
		return a
	}
	return b
}

func bigAbs(x *big.Float) *big.Float {
	z := new(big.Float).SetPrec(bigPrecision)
	return z.Abs(x)
}
