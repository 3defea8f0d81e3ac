package issuance

import (
	"context"
	"fmt"
	"strings"

	"bondmint/crypto"
)

// Storage abstracts the subset of state manager functionality required by the
// issuance engine. KVWrite applies every entry atomically so the paired
// treasury and coin updates of a settle either both persist or neither does.
type Storage interface {
	KVGet(key []byte, out interface{}) (bool, error)
	KVPut(key []byte, value interface{}) error
	KVWrite(ctx context.Context, entries ...KV) error
}

// KV is a single key/value entry scheduled for an atomic commit.
type KV struct {
	Key   []byte
	Value interface{}
}

var (
	treasuryRecordKey = []byte("issuance/treasury")
	coinRecordPrefix  = []byte("issuance/coin/")
	coinSymbolPrefix  = []byte("issuance/symbol/")
)

// Seed labels fed into the address deriver. Stable by construction: changing
// them would relocate every persisted record.
var (
	treasurySeed = []byte("treasury")
	custodySeed  = []byte("custody")
)

func coinKey(mint crypto.Address) []byte {
	hexed := mint.Hex()
	buf := make([]byte, len(coinRecordPrefix)+len(hexed))
	copy(buf, coinRecordPrefix)
	copy(buf[len(coinRecordPrefix):], hexed)
	return buf
}

func symbolKey(symbol string) []byte {
	canonical := strings.ToUpper(strings.TrimSpace(symbol))
	buf := make([]byte, len(coinSymbolPrefix)+len(canonical))
	copy(buf, coinSymbolPrefix)
	copy(buf[len(coinSymbolPrefix):], canonical)
	return buf
}

// storedTreasuryRecord mirrors TreasuryRecord with RLP friendly fields. The
// leading discriminator byte guards against decoding a foreign record type.
type storedTreasuryRecord struct {
	Discriminator     uint8
	Bump              uint8
	Address           [32]byte
	CollateralMint    [32]byte
	CollateralAccount [32]byte
	Balance           uint64
	Version           uint64
}

type storedCoinRecord struct {
	Discriminator uint8
	Bump          uint8
	Mint          [32]byte
	Address       [32]byte
	Supply        uint64
	Decimals      uint8
	Symbol        string
	Name          string
	CoinType      string
	Currency      string
	URI           string
	ImageURL      string
	Description   string
	CreatedAt     uint64
}

type storedSymbolIndex struct {
	Mint [32]byte
}

const (
	discriminatorTreasury uint8 = 0x01
	discriminatorCoin     uint8 = 0x02
)

func toStoredTreasury(record *TreasuryRecord) storedTreasuryRecord {
	if record == nil {
		return storedTreasuryRecord{Discriminator: discriminatorTreasury}
	}
	return storedTreasuryRecord{
		Discriminator:     discriminatorTreasury,
		Bump:              record.Bump,
		Address:           record.Address,
		CollateralMint:    record.CollateralMint,
		CollateralAccount: record.CollateralAccount,
		Balance:           record.Balance,
		Version:           record.Version,
	}
}

func fromStoredTreasury(stored *storedTreasuryRecord) (*TreasuryRecord, error) {
	if stored == nil {
		return nil, fmt.Errorf("issuance: nil stored treasury record")
	}
	if stored.Discriminator != discriminatorTreasury {
		return nil, fmt.Errorf("issuance: unexpected treasury discriminator %#x", stored.Discriminator)
	}
	return &TreasuryRecord{
		Address:           stored.Address,
		Bump:              stored.Bump,
		CollateralMint:    stored.CollateralMint,
		CollateralAccount: stored.CollateralAccount,
		Balance:           stored.Balance,
		Version:           stored.Version,
	}, nil
}

func toStoredCoin(record *CoinRecord) storedCoinRecord {
	if record == nil {
		return storedCoinRecord{Discriminator: discriminatorCoin}
	}
	stored := storedCoinRecord{
		Discriminator: discriminatorCoin,
		Bump:          record.Bump,
		Mint:          record.Mint,
		Address:       record.Address,
		Supply:        record.Supply,
		Decimals:      record.Decimals,
		Symbol:        strings.TrimSpace(record.Symbol),
		Name:          strings.TrimSpace(record.Name),
		CoinType:      string(record.CoinType),
		Currency:      strings.TrimSpace(record.Currency),
		URI:           strings.TrimSpace(record.URI),
		ImageURL:      strings.TrimSpace(record.ImageURL),
		Description:   strings.TrimSpace(record.Description),
	}
	if record.CreatedAt > 0 {
		stored.CreatedAt = uint64(record.CreatedAt)
	}
	return stored
}

func fromStoredCoin(stored *storedCoinRecord) (*CoinRecord, error) {
	if stored == nil {
		return nil, fmt.Errorf("issuance: nil stored coin record")
	}
	if stored.Discriminator != discriminatorCoin {
		return nil, fmt.Errorf("issuance: unexpected coin discriminator %#x", stored.Discriminator)
	}
	createdAt, err := uint64ToInt64(stored.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("issuance: created at overflow: %w", err)
	}
	return &CoinRecord{
		Mint:        stored.Mint,
		Address:     stored.Address,
		Bump:        stored.Bump,
		Supply:      stored.Supply,
		Decimals:    stored.Decimals,
		Symbol:      stored.Symbol,
		Name:        stored.Name,
		CoinType:    CoinType(stored.CoinType),
		Currency:    stored.Currency,
		URI:         stored.URI,
		ImageURL:    stored.ImageURL,
		Description: stored.Description,
		CreatedAt:   createdAt,
	}, nil
}

func uint64ToInt64(value uint64) (int64, error) {
	if value > 1<<63-1 {
		return 0, fmt.Errorf("value %d exceeds int64 range", value)
	}
	return int64(value), nil
}
