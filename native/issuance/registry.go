package issuance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bondmint/core/events"
	"bondmint/crypto"
)

var (
	// ErrCoinExists indicates a coin with the same symbol is already registered.
	ErrCoinExists = errors.New("issuance: coin already exists")
	// ErrInsufficientSupply indicates a supply decrease larger than the outstanding supply.
	ErrInsufficientSupply = errors.New("issuance: insufficient supply")
)

// CoinRegistry manages per-stablecoin records keyed by their derived
// addresses, plus a symbol index for lookups from the request layer.
type CoinRegistry struct {
	store   Storage
	emitter events.Emitter
	clock   func() time.Time
}

// NewCoinRegistry constructs a registry bound to the provided storage backend.
func NewCoinRegistry(store Storage) *CoinRegistry {
	return &CoinRegistry{store: store, emitter: events.NoopEmitter{}, clock: time.Now}
}

// SetEmitter configures the event emitter used by the registry.
func (r *CoinRegistry) SetEmitter(emitter events.Emitter) {
	if r == nil {
		return
	}
	if emitter == nil {
		r.emitter = events.NoopEmitter{}
		return
	}
	r.emitter = emitter
}

// SetClock overrides the time source, primarily for deterministic testing.
func (r *CoinRegistry) SetClock(clock func() time.Time) {
	if r == nil || clock == nil {
		return
	}
	r.clock = clock
}

// Create validates the supplied params, derives the coin mint and registry
// addresses, and persists a zero-supply record together with the symbol
// index in one atomic commit.
func (r *CoinRegistry) Create(ctx context.Context, params CoinParams) (*CoinRecord, error) {
	if r == nil || r.store == nil {
		return nil, fmt.Errorf("issuance: coin registry not initialised")
	}
	params = params.Normalise()
	if err := params.Validate(); err != nil {
		return nil, err
	}
	var existing storedSymbolIndex
	ok, err := r.store.KVGet(symbolKey(params.Symbol), &existing)
	if err != nil {
		return nil, err
	}
	if ok {
		return nil, ErrCoinExists
	}
	mint, _, err := crypto.Derive(crypto.PurposeCoinMint, []byte(params.Symbol), []byte(params.Currency))
	if err != nil {
		return nil, err
	}
	addr, bump, err := crypto.Derive(crypto.PurposeCoinAccount, mint.Bytes())
	if err != nil {
		return nil, err
	}
	record := &CoinRecord{
		Mint:        mint,
		Address:     addr,
		Bump:        bump,
		Supply:      0,
		Decimals:    params.Decimals,
		Symbol:      params.Symbol,
		Name:        params.Name,
		CoinType:    params.CoinType,
		Currency:    params.Currency,
		URI:         params.URI,
		ImageURL:    params.ImageURL,
		Description: params.Description,
		CreatedAt:   r.clock().UTC().Unix(),
	}
	err = r.store.KVWrite(ctx,
		KV{Key: coinKey(record.Mint), Value: toStoredCoin(record)},
		KV{Key: symbolKey(record.Symbol), Value: storedSymbolIndex{Mint: record.Mint}},
	)
	if err != nil {
		return nil, err
	}
	r.emit(CoinCreatedEvent(record))
	return record.Clone(), nil
}

// Get retrieves a coin record by its mint identifier.
func (r *CoinRegistry) Get(mint crypto.Address) (*CoinRecord, bool, error) {
	if r == nil || r.store == nil {
		return nil, false, fmt.Errorf("issuance: coin registry not initialised")
	}
	var stored storedCoinRecord
	ok, err := r.store.KVGet(coinKey(mint), &stored)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	record, err := fromStoredCoin(&stored)
	if err != nil {
		return nil, false, err
	}
	if !crypto.Verify(record.Address, crypto.PurposeCoinAccount, record.Bump, record.Mint.Bytes()) {
		return nil, false, fmt.Errorf("issuance: coin record %s failed derivation check", record.Symbol)
	}
	return record, true, nil
}

// GetBySymbol resolves the symbol index and loads the coin record.
func (r *CoinRegistry) GetBySymbol(symbol string) (*CoinRecord, bool, error) {
	if r == nil || r.store == nil {
		return nil, false, fmt.Errorf("issuance: coin registry not initialised")
	}
	var index storedSymbolIndex
	ok, err := r.store.KVGet(symbolKey(symbol), &index)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}
	return r.Get(index.Mint)
}

// IncreaseSupply raises the outstanding supply and persists the record on
// its own. Mint operations go through the engine instead so the treasury
// update lands in the same commit.
func (r *CoinRegistry) IncreaseSupply(ctx context.Context, mint crypto.Address, amount uint64) (*CoinRecord, error) {
	return r.adjust(ctx, mint, amount, increaseSupply)
}

// DecreaseSupply lowers the outstanding supply and persists the record on its own.
func (r *CoinRegistry) DecreaseSupply(ctx context.Context, mint crypto.Address, amount uint64) (*CoinRecord, error) {
	return r.adjust(ctx, mint, amount, decreaseSupply)
}

func (r *CoinRegistry) adjust(ctx context.Context, mint crypto.Address, amount uint64, apply func(*CoinRecord, uint64) error) (*CoinRecord, error) {
	record, ok, err := r.Get(mint)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrRecordNotFound
	}
	if err := apply(record, amount); err != nil {
		return nil, err
	}
	if err := r.store.KVWrite(ctx, coinEntry(record)); err != nil {
		return nil, err
	}
	return record, nil
}

func (r *CoinRegistry) emit(evt events.Event) {
	if r == nil || r.emitter == nil {
		return
	}
	r.emitter.Emit(evt)
}

func increaseSupply(record *CoinRecord, amount uint64) error {
	supply, err := addChecked(record.Supply, amount)
	if err != nil {
		return err
	}
	record.Supply = supply
	return nil
}

func decreaseSupply(record *CoinRecord, amount uint64) error {
	if amount > record.Supply {
		return ErrInsufficientSupply
	}
	record.Supply -= amount
	return nil
}

func coinEntry(record *CoinRecord) KV {
	return KV{Key: coinKey(record.Mint), Value: toStoredCoin(record)}
}
