package issuance

import (
	"context"
	"errors"
	"fmt"

	"bondmint/crypto"
)

var (
	// ErrAlreadyInitialized indicates the treasury record already exists at its derived address.
	ErrAlreadyInitialized = errors.New("issuance: treasury already initialized")
	// ErrInsufficientCollateral indicates a debit larger than the pooled balance.
	ErrInsufficientCollateral = errors.New("issuance: insufficient collateral")
)

// TreasuryLedger manages the singleton collateral pool record. Balance
// changes triggered by mint/redeem are written by the engine in the same
// atomic commit as the paired coin update; the standalone Credit and Debit
// entry points exist for operator tooling and re-use the same checks.
type TreasuryLedger struct {
	store Storage
}

// NewTreasuryLedger constructs a ledger bound to the provided storage backend.
func NewTreasuryLedger(store Storage) *TreasuryLedger {
	return &TreasuryLedger{store: store}
}

// Initialize creates the treasury record at its derived address. The custody
// account address is derived from the collateral mint so a different mint can
// never alias the same custody location.
func (l *TreasuryLedger) Initialize(ctx context.Context, collateralMint crypto.Address) (*TreasuryRecord, error) {
	if l == nil || l.store == nil {
		return nil, fmt.Errorf("issuance: treasury ledger not initialised")
	}
	if collateralMint.IsZero() {
		return nil, fmt.Errorf("issuance: collateral mint required")
	}
	var existing storedTreasuryRecord
	ok, err := l.store.KVGet(treasuryRecordKey, &existing)
	if err != nil {
		return nil, err
	}
	if ok {
		return nil, ErrAlreadyInitialized
	}
	addr, bump, err := crypto.Derive(crypto.PurposeTreasury, treasurySeed)
	if err != nil {
		return nil, err
	}
	custody, _, err := crypto.Derive(crypto.PurposeTreasury, custodySeed, collateralMint.Bytes())
	if err != nil {
		return nil, err
	}
	record := &TreasuryRecord{
		Address:           addr,
		Bump:              bump,
		CollateralMint:    collateralMint,
		CollateralAccount: custody,
		Balance:           0,
		Version:           0,
	}
	if err := l.store.KVWrite(ctx, KV{Key: treasuryRecordKey, Value: toStoredTreasury(record)}); err != nil {
		return nil, err
	}
	return record, nil
}

// Load retrieves the treasury record, verifying its address still re-derives
// from the stored bump.
func (l *TreasuryLedger) Load() (*TreasuryRecord, bool, error) {
	if l == nil || l.store == nil {
		return nil, false, fmt.Errorf("issuance: treasury ledger not initialised")
	}
	var stored storedTreasuryRecord
	ok, err := l.store.KVGet(treasuryRecordKey, &stored)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	record, err := fromStoredTreasury(&stored)
	if err != nil {
		return nil, false, err
	}
	if !crypto.Verify(record.Address, crypto.PurposeTreasury, record.Bump, treasurySeed) {
		return nil, false, fmt.Errorf("issuance: treasury record failed derivation check")
	}
	return record, true, nil
}

// Credit adds collateral to the pool and persists the record on its own.
func (l *TreasuryLedger) Credit(ctx context.Context, amount uint64) (*TreasuryRecord, error) {
	return l.adjust(ctx, amount, creditTreasury)
}

// Debit removes collateral from the pool and persists the record on its own.
// The insufficient-collateral check is a hard precondition: callers must
// re-read the balance inside the same atomic scope, not retry blindly.
func (l *TreasuryLedger) Debit(ctx context.Context, amount uint64) (*TreasuryRecord, error) {
	return l.adjust(ctx, amount, debitTreasury)
}

func (l *TreasuryLedger) adjust(ctx context.Context, amount uint64, apply func(*TreasuryRecord, uint64) error) (*TreasuryRecord, error) {
	record, ok, err := l.Load()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrRecordNotFound
	}
	if err := apply(record, amount); err != nil {
		return nil, err
	}
	record.Version++
	if err := l.store.KVWrite(ctx, treasuryEntry(record)); err != nil {
		return nil, err
	}
	return record, nil
}

func creditTreasury(record *TreasuryRecord, amount uint64) error {
	balance, err := addChecked(record.Balance, amount)
	if err != nil {
		return err
	}
	record.Balance = balance
	return nil
}

func debitTreasury(record *TreasuryRecord, amount uint64) error {
	if amount > record.Balance {
		return ErrInsufficientCollateral
	}
	record.Balance -= amount
	return nil
}

func treasuryEntry(record *TreasuryRecord) KV {
	return KV{Key: treasuryRecordKey, Value: toStoredTreasury(record)}
}
