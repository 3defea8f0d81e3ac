package issuance

import (
	"errors"
	"math"
	"math/big"
	"testing"
)

func TestScaleRate(t *testing.T) {
	scaled, err := ScaleRate(big.NewRat(5, 4))
	if err != nil {
		t.Fatalf("scale rate: %v", err)
	}
	if scaled != 1_250_000_000 {
		t.Fatalf("unexpected scaled rate %d", scaled)
	}
	// Floors toward zero.
	scaled, err = ScaleRate(big.NewRat(1, 3))
	if err != nil {
		t.Fatalf("scale rate: %v", err)
	}
	if scaled != 333_333_333 {
		t.Fatalf("unexpected scaled rate %d", scaled)
	}
	if _, err := ScaleRate(nil); !errors.Is(err, ErrInvalidCalculation) {
		t.Fatalf("expected ErrInvalidCalculation, got %v", err)
	}
	if _, err := ScaleRate(big.NewRat(0, 1)); !errors.Is(err, ErrInvalidCalculation) {
		t.Fatalf("expected ErrInvalidCalculation, got %v", err)
	}
	if _, err := ScaleRate(new(big.Rat).SetFrac64(1, 10_000_000_000)); !errors.Is(err, ErrInvalidCalculation) {
		t.Fatalf("expected rejection of rate flooring to zero, got %v", err)
	}
}

func TestTokensOutFloors(t *testing.T) {
	out, err := TokensOut(1000, 1_250_000_000)
	if err != nil {
		t.Fatalf("tokens out: %v", err)
	}
	if out != 800 {
		t.Fatalf("expected 800 tokens, got %d", out)
	}
	out, err = TokensOut(1000, 3_000_000_000)
	if err != nil {
		t.Fatalf("tokens out: %v", err)
	}
	if out != 333 {
		t.Fatalf("expected 333 tokens, got %d", out)
	}
}

func TestTokensOutDustRejected(t *testing.T) {
	if _, err := TokensOut(1, 2_000_000_000); !errors.Is(err, ErrInvalidCalculation) {
		t.Fatalf("expected dust rejection, got %v", err)
	}
	if _, err := TokensOut(100, 0); !errors.Is(err, ErrInvalidCalculation) {
		t.Fatalf("expected zero rate rejection, got %v", err)
	}
}

func TestCollateralOutFloors(t *testing.T) {
	out, err := CollateralOut(800, 1_250_000_000)
	if err != nil {
		t.Fatalf("collateral out: %v", err)
	}
	if out != 1000 {
		t.Fatalf("expected 1000 collateral, got %d", out)
	}
	out, err = CollateralOut(333, 3_000_000_000)
	if err != nil {
		t.Fatalf("collateral out: %v", err)
	}
	if out != 999 {
		t.Fatalf("expected 999 collateral, got %d", out)
	}
}

func TestRoundTripNeverExceedsDeposit(t *testing.T) {
	rates := []uint64{333_333_333, 1_000_000_000, 1_250_000_000, 3_141_592_653}
	deposits := []uint64{7, 999, 1_000_000, 123_456_789}
	for _, rate := range rates {
		for _, deposit := range deposits {
			tokens, err := TokensOut(deposit, rate)
			if err != nil {
				continue
			}
			collateral, err := CollateralOut(tokens, rate)
			if err != nil {
				continue
			}
			if collateral > deposit {
				t.Fatalf("round trip gained value: deposit %d rate %d -> %d", deposit, rate, collateral)
			}
		}
	}
}

func TestAddCheckedOverflow(t *testing.T) {
	if _, err := addChecked(math.MaxUint64, 1); !errors.Is(err, ErrInvalidCalculation) {
		t.Fatalf("expected overflow rejection, got %v", err)
	}
	sum, err := addChecked(math.MaxUint64-1, 1)
	if err != nil {
		t.Fatalf("add checked: %v", err)
	}
	if sum != math.MaxUint64 {
		t.Fatalf("unexpected sum %d", sum)
	}
}
