package issuance

import (
	"errors"
	"strings"
	"testing"
)

func validParams() CoinParams {
	return CoinParams{
		Name:        "US Dollar Coin",
		Symbol:      "USDC",
		Currency:    "USD",
		CoinType:    CoinTypeFiat,
		Decimals:    6,
		URI:         "https://example.com/usdc.json",
		ImageURL:    "https://example.com/usdc.png",
		Description: "Bond collateralized dollar stablecoin",
	}
}

func TestValidateAccepts(t *testing.T) {
	if err := validParams().Normalise().Validate(); err != nil {
		t.Fatalf("expected valid params, got %v", err)
	}
}

func TestNormaliseCanonicalises(t *testing.T) {
	params := validParams()
	params.Symbol = "  usdc "
	params.Currency = " usd"
	params.CoinType = " FIAT "
	normalised := params.Normalise()
	if normalised.Symbol != "USDC" {
		t.Fatalf("expected upper symbol, got %q", normalised.Symbol)
	}
	if normalised.Currency != "USD" {
		t.Fatalf("expected upper currency, got %q", normalised.Currency)
	}
	if normalised.CoinType != CoinTypeFiat {
		t.Fatalf("expected fiat coin type, got %q", normalised.CoinType)
	}
}

func TestValidateSymbol(t *testing.T) {
	cases := []struct {
		symbol string
		want   error
	}{
		{"", ErrInvalidSymbol},
		{"TOOLONG", ErrSymbolTooLong},
		{"AB!", ErrSymbolNotAlphanumeric},
		{"A B", ErrSymbolNotAlphanumeric},
		{"usd1", nil},
		{"Z", nil},
	}
	for _, tc := range cases {
		params := validParams()
		params.Symbol = tc.symbol
		err := params.Normalise().Validate()
		if tc.want == nil {
			if err != nil {
				t.Fatalf("symbol %q: unexpected error %v", tc.symbol, err)
			}
			continue
		}
		if !errors.Is(err, tc.want) {
			t.Fatalf("symbol %q: expected %v, got %v", tc.symbol, tc.want, err)
		}
	}
}

func TestValidateName(t *testing.T) {
	params := validParams()
	params.Name = ""
	if err := params.Normalise().Validate(); !errors.Is(err, ErrInvalidName) {
		t.Fatalf("expected ErrInvalidName, got %v", err)
	}
	params.Name = strings.Repeat("x", maxNameLength+1)
	if err := params.Normalise().Validate(); !errors.Is(err, ErrInvalidName) {
		t.Fatalf("expected ErrInvalidName, got %v", err)
	}
}

func TestValidateCoinType(t *testing.T) {
	params := validParams()
	params.CoinType = "algorithmic"
	if err := params.Normalise().Validate(); !errors.Is(err, ErrInvalidCoinType) {
		t.Fatalf("expected ErrInvalidCoinType, got %v", err)
	}
	params.CoinType = CoinTypeSynthetic
	if err := params.Normalise().Validate(); err != nil {
		t.Fatalf("expected synthetic accepted, got %v", err)
	}
}

func TestValidateImageURL(t *testing.T) {
	params := validParams()
	params.ImageURL = "ftp://example.com/usdc.png"
	if err := params.Normalise().Validate(); !errors.Is(err, ErrInvalidImage) {
		t.Fatalf("expected ErrInvalidImage, got %v", err)
	}
	params.ImageURL = "https://"
	if err := params.Normalise().Validate(); !errors.Is(err, ErrInvalidImage) {
		t.Fatalf("expected ErrInvalidImage for missing host, got %v", err)
	}
}

func TestValidateDecimals(t *testing.T) {
	params := validParams()
	params.Decimals = 10
	if err := params.Normalise().Validate(); !errors.Is(err, ErrInvalidDecimals) {
		t.Fatalf("expected ErrInvalidDecimals, got %v", err)
	}
	params.Decimals = 9
	if err := params.Normalise().Validate(); err != nil {
		t.Fatalf("expected nine decimals accepted, got %v", err)
	}
	params.Decimals = 0
	if err := params.Normalise().Validate(); err != nil {
		t.Fatalf("expected zero decimals accepted, got %v", err)
	}
}

func TestValidateDescription(t *testing.T) {
	params := validParams()
	params.Description = strings.Repeat("d", maxDescriptionLength+1)
	if err := params.Normalise().Validate(); !errors.Is(err, ErrInvalidDescription) {
		t.Fatalf("expected ErrInvalidDescription, got %v", err)
	}
}
