package issuance

import "bondmint/crypto"

// CoinType tags the flavour of peg a stablecoin tracks.
type CoinType string

const (
	// CoinTypeFiat marks coins pegged to a fiat currency.
	CoinTypeFiat CoinType = "fiat"
	// CoinTypeSynthetic marks coins tracking a synthetic or index target.
	CoinTypeSynthetic CoinType = "synthetic"
)

// TreasuryRecord is the singleton pool custodying bond-token collateral for
// every issued stablecoin. Balance only moves through engine operations that
// update a CoinRecord in the same atomic commit.
type TreasuryRecord struct {
	Address           crypto.Address
	Bump              uint8
	CollateralMint    crypto.Address
	CollateralAccount crypto.Address
	Balance           uint64
	Version           uint64
}

// Clone returns a copy so callers cannot mutate cached state.
func (t *TreasuryRecord) Clone() *TreasuryRecord {
	if t == nil {
		return nil
	}
	clone := *t
	return &clone
}

// CoinRecord holds per-stablecoin metadata and the outstanding supply.
// Supply mirrors the sum of user balances on the external token ledger.
type CoinRecord struct {
	Mint        crypto.Address
	Address     crypto.Address
	Bump        uint8
	Supply      uint64
	Decimals    uint8
	Symbol      string
	Name        string
	CoinType    CoinType
	Currency    string
	URI         string
	ImageURL    string
	Description string
	CreatedAt   int64
}

// Clone returns a copy so callers cannot mutate cached state.
func (c *CoinRecord) Clone() *CoinRecord {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}

// CoinParams carries the caller supplied fields for a create operation.
// Decimals is display metadata: all engine amounts are base units.
type CoinParams struct {
	Name        string
	Symbol      string
	Currency    string
	CoinType    CoinType
	Decimals    uint8
	URI         string
	ImageURL    string
	Description string
}

// MintResult reports the realized amounts after a completed mint.
type MintResult struct {
	TokensOut       uint64
	TreasuryBalance uint64
	CoinSupply      uint64
}

// RedeemResult reports the realized amounts after a completed redeem.
type RedeemResult struct {
	CollateralOut   uint64
	TreasuryBalance uint64
	CoinSupply      uint64
}
