package issuance

import (
	"strconv"

	"bondmint/core/events"
	"bondmint/native/oracle"
)

const (
	// TypeCoinCreated is emitted when a new stablecoin record is registered.
	TypeCoinCreated = "issuance.coin_created"
	// TypeMinted is emitted after a mint settles on both ledgers.
	TypeMinted = "issuance.minted"
	// TypeRedeemed is emitted after a redemption settles on both ledgers.
	TypeRedeemed = "issuance.redeemed"
)

// CoinCreatedEvent describes a freshly registered coin.
func CoinCreatedEvent(record *CoinRecord) events.Event {
	return events.Event{
		Type: TypeCoinCreated,
		Attributes: map[string]string{
			"mint":     record.Mint.String(),
			"address":  record.Address.String(),
			"symbol":   record.Symbol,
			"currency": record.Currency,
			"coinType": string(record.CoinType),
		},
	}
}

// MintedEvent describes a settled mint, including the quoted rate so events
// alone can reconstruct the conversion.
func MintedEvent(coin *CoinRecord, reading oracle.Reading, deposit, tokensOut, treasuryBalance uint64) events.Event {
	return events.Event{
		Type: TypeMinted,
		Attributes: map[string]string{
			"mint":            coin.Mint.String(),
			"symbol":          coin.Symbol,
			"currency":        reading.Currency,
			"rate":            reading.Rate.FloatString(9),
			"deposit":         strconv.FormatUint(deposit, 10),
			"tokensOut":       strconv.FormatUint(tokensOut, 10),
			"treasuryBalance": strconv.FormatUint(treasuryBalance, 10),
			"coinSupply":      strconv.FormatUint(coin.Supply, 10),
		},
	}
}

// RedeemedEvent describes a settled redemption.
func RedeemedEvent(coin *CoinRecord, reading oracle.Reading, tokensIn, collateralOut, treasuryBalance uint64) events.Event {
	return events.Event{
		Type: TypeRedeemed,
		Attributes: map[string]string{
			"mint":            coin.Mint.String(),
			"symbol":          coin.Symbol,
			"currency":        reading.Currency,
			"rate":            reading.Rate.FloatString(9),
			"tokensIn":        strconv.FormatUint(tokensIn, 10),
			"collateralOut":   strconv.FormatUint(collateralOut, 10),
			"treasuryBalance": strconv.FormatUint(treasuryBalance, 10),
			"coinSupply":      strconv.FormatUint(coin.Supply, 10),
		},
	}
}
