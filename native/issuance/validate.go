package issuance

import (
	"errors"
	"net/url"
	"strings"
)

const (
	maxSymbolLength      = 4
	maxNameLength        = 32
	maxCurrencyLength    = 5
	maxDescriptionLength = 500
	maxDecimals          = 9
)

var (
	// ErrInvalidSymbol indicates an empty or otherwise unusable symbol.
	ErrInvalidSymbol = errors.New("issuance: invalid symbol")
	// ErrSymbolTooLong indicates the symbol exceeds four characters.
	ErrSymbolTooLong = errors.New("issuance: symbol too long")
	// ErrSymbolNotAlphanumeric indicates the symbol contains characters outside [A-Za-z0-9].
	ErrSymbolNotAlphanumeric = errors.New("issuance: symbol not alphanumeric")
	// ErrInvalidName indicates an empty or oversized display name.
	ErrInvalidName = errors.New("issuance: invalid name")
	// ErrInvalidCurrency indicates an empty or oversized target currency code.
	ErrInvalidCurrency = errors.New("issuance: invalid currency")
	// ErrInvalidCoinType indicates an unknown coin type tag.
	ErrInvalidCoinType = errors.New("issuance: invalid coin type")
	// ErrInvalidImage indicates the image field is not a parseable http(s) URL.
	ErrInvalidImage = errors.New("issuance: invalid image url")
	// ErrInvalidDescription indicates the description is empty or exceeds 500 characters.
	ErrInvalidDescription = errors.New("issuance: invalid description")
	// ErrInvalidDecimals indicates a decimals value above nine.
	ErrInvalidDecimals = errors.New("issuance: invalid decimals")
)

// Normalise trims the caller supplied fields and applies canonical casing to
// the symbol and currency code.
func (p CoinParams) Normalise() CoinParams {
	return CoinParams{
		Name:        strings.TrimSpace(p.Name),
		Symbol:      strings.ToUpper(strings.TrimSpace(p.Symbol)),
		Currency:    strings.ToUpper(strings.TrimSpace(p.Currency)),
		CoinType:    CoinType(strings.ToLower(strings.TrimSpace(string(p.CoinType)))),
		Decimals:    p.Decimals,
		URI:         strings.TrimSpace(p.URI),
		ImageURL:    strings.TrimSpace(p.ImageURL),
		Description: strings.TrimSpace(p.Description),
	}
}

// Validate checks the normalised params against the registry bounds. Input
// errors are rejected before any storage or oracle access so the caller can
// always correct and retry.
func (p CoinParams) Validate() error {
	if err := validateSymbol(p.Symbol); err != nil {
		return err
	}
	if p.Name == "" || len(p.Name) > maxNameLength {
		return ErrInvalidName
	}
	if p.Currency == "" || len(p.Currency) > maxCurrencyLength {
		return ErrInvalidCurrency
	}
	switch p.CoinType {
	case CoinTypeFiat, CoinTypeSynthetic:
	default:
		return ErrInvalidCoinType
	}
	if p.Decimals > maxDecimals {
		return ErrInvalidDecimals
	}
	if p.Description == "" || len(p.Description) > maxDescriptionLength {
		return ErrInvalidDescription
	}
	if err := validateImageURL(p.ImageURL); err != nil {
		return err
	}
	return nil
}

func validateSymbol(symbol string) error {
	if symbol == "" {
		return ErrInvalidSymbol
	}
	if len(symbol) > maxSymbolLength {
		return ErrSymbolTooLong
	}
	for _, r := range symbol {
		switch {
		case r >= 'A' && r <= 'Z':
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		default:
			return ErrSymbolNotAlphanumeric
		}
	}
	return nil
}

func validateImageURL(raw string) error {
	if raw == "" {
		return ErrInvalidImage
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return ErrInvalidImage
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return ErrInvalidImage
	}
	if parsed.Host == "" {
		return ErrInvalidImage
	}
	return nil
}
