package issuance

import (
	"errors"
	"math"
	"math/big"
)

// PriceScale is the shared fixed-point scale for oracle rates. Both the
// collateral and issued tokens use nine decimal places, so a rate of 1.0 is
// stored as 1_000_000_000 scaled units.
const PriceScale = 1_000_000_000

// ErrInvalidCalculation indicates a conversion floored to zero or overflowed
// the unsigned 64-bit amount space. Dust deposits that would mint nothing are
// rejected with this error rather than silently consuming collateral.
var ErrInvalidCalculation = errors.New("issuance: invalid calculation")

var (
	priceScaleInt = big.NewInt(PriceScale)
	maxUint64     = new(big.Int).SetUint64(math.MaxUint64)
)

// ScaleRate converts an oracle rate into PriceScale fixed-point units,
// flooring toward zero. Rates that floor to zero or exceed the uint64 range
// are rejected.
func ScaleRate(rate *big.Rat) (uint64, error) {
	if rate == nil || rate.Sign() <= 0 {
		return 0, ErrInvalidCalculation
	}
	scaled := new(big.Int).Mul(rate.Num(), priceScaleInt)
	scaled.Quo(scaled, rate.Denom())
	if scaled.Sign() <= 0 || scaled.Cmp(maxUint64) > 0 {
		return 0, ErrInvalidCalculation
	}
	return scaled.Uint64(), nil
}

// TokensOut computes floor(deposit * PriceScale / rateScaled): the token
// quantity minted for a collateral deposit. Flooring ensures the engine never
// over-issues tokens relative to deposited collateral.
func TokensOut(deposit, rateScaled uint64) (uint64, error) {
	if rateScaled == 0 {
		return 0, ErrInvalidCalculation
	}
	out := new(big.Int).SetUint64(deposit)
	out.Mul(out, priceScaleInt)
	out.Quo(out, new(big.Int).SetUint64(rateScaled))
	if out.Sign() == 0 || out.Cmp(maxUint64) > 0 {
		return 0, ErrInvalidCalculation
	}
	return out.Uint64(), nil
}

// CollateralOut computes floor(tokens * rateScaled / PriceScale): the
// collateral released when redeeming tokens. Flooring favours the treasury so
// accumulated rounding can never under-collateralize the pool.
func CollateralOut(tokens, rateScaled uint64) (uint64, error) {
	if rateScaled == 0 {
		return 0, ErrInvalidCalculation
	}
	out := new(big.Int).SetUint64(tokens)
	out.Mul(out, new(big.Int).SetUint64(rateScaled))
	out.Quo(out, priceScaleInt)
	if out.Sign() == 0 || out.Cmp(maxUint64) > 0 {
		return 0, ErrInvalidCalculation
	}
	return out.Uint64(), nil
}

func addChecked(a, b uint64) (uint64, error) {
	if a > math.MaxUint64-b {
		return 0, ErrInvalidCalculation
	}
	return a + b, nil
}
