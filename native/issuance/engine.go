package issuance

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"bondmint/core/events"
	"bondmint/crypto"
	"bondmint/native/oracle"
)

var (
	// ErrInvalidQuantity indicates a zero amount was supplied to mint or redeem.
	ErrInvalidQuantity = errors.New("issuance: quantity must be positive")
	// ErrRecordNotFound indicates the treasury or coin record is missing at its derived address.
	ErrRecordNotFound = errors.New("issuance: record not found")
	// ErrInsufficientFunds indicates a redemption would release more collateral than the treasury holds.
	ErrInsufficientFunds = errors.New("issuance: insufficient treasury funds")
	// ErrLedgerRejected indicates the external value ledger refused a settle
	// instruction; the engine compensated its own commit. Operators should be
	// alerted since it signals divergence between engine and ledger state.
	ErrLedgerRejected = errors.New("issuance: ledger rejected instruction")
	// ErrSlippageExceeded indicates the quoted conversion came in below the
	// caller supplied minimum output bound.
	ErrSlippageExceeded = errors.New("issuance: slippage limit exceeded")
	// ErrSettlementTimeout indicates the storage commit exceeded its deadline.
	// The operation is not retried internally: retrying a commit that may have
	// partially succeeded risks double settlement.
	ErrSettlementTimeout = errors.New("issuance: settlement timed out")

	errNotConfigured = errors.New("issuance: engine not configured")
)

// RateSource resolves a validated exchange-rate reading for a currency code.
// Implementations surface staleness and availability failures as typed errors
// and never retry silently.
type RateSource interface {
	GetRate(ctx context.Context, currency string) (oracle.Reading, error)
}

// TokenLedger is the external value ledger the engine instructs after its own
// commit succeeds. A rejection triggers a compensating commit.
type TokenLedger interface {
	Mint(mint crypto.Address, destination crypto.Address, amount uint64) error
	Burn(mint crypto.Address, source crypto.Address, amount uint64) error
	TransferCollateral(from crypto.Address, to crypto.Address, amount uint64) error
}

// Engine orchestrates mint and redeem operations across the treasury and
// coin records. Each operation moves Validating -> PricingQuoted -> Settling
// -> Completed; all oracle latency is absorbed before the settle lock is
// taken and the paired record updates land in one atomic storage commit, so
// no partially applied state is ever externally visible.
type Engine struct {
	store    Storage
	rates    RateSource
	treasury *TreasuryLedger
	registry *CoinRegistry
	ledger   TokenLedger
	emitter  events.Emitter

	// settleMu serializes the Settling phase across every coin: the treasury
	// record is a single shared resource.
	settleMu sync.Mutex
}

// NewEngine constructs an issuance engine with default dependencies.
func NewEngine(store Storage, rates RateSource, ledger TokenLedger) *Engine {
	return &Engine{
		store:    store,
		rates:    rates,
		treasury: NewTreasuryLedger(store),
		registry: NewCoinRegistry(store),
		ledger:   ledger,
		emitter:  events.NoopEmitter{},
	}
}

// SetEmitter configures the event emitter used by the engine and registry.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if e == nil {
		return
	}
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	e.emitter = emitter
	e.registry.SetEmitter(emitter)
}

// Registry exposes the coin registry for read paths and create operations.
func (e *Engine) Registry() *CoinRegistry {
	if e == nil {
		return nil
	}
	return e.registry
}

// Treasury exposes the treasury ledger for initialization and read paths.
func (e *Engine) Treasury() *TreasuryLedger {
	if e == nil {
		return nil
	}
	return e.treasury
}

// CreateCoin registers a new stablecoin with zero supply.
func (e *Engine) CreateCoin(ctx context.Context, params CoinParams) (*CoinRecord, error) {
	if e == nil || e.registry == nil {
		return nil, errNotConfigured
	}
	return e.registry.Create(ctx, params)
}

// InitializeTreasury performs the one-time treasury creation.
func (e *Engine) InitializeTreasury(ctx context.Context, collateralMint crypto.Address) (*TreasuryRecord, error) {
	if e == nil || e.treasury == nil {
		return nil, errNotConfigured
	}
	return e.treasury.Initialize(ctx, collateralMint)
}

// Mint deposits collateral and issues floor(deposit / rate) tokens to the
// recipient. The price is read exactly once and used for the whole
// computation. A non-zero minTokensOut bounds the acceptable conversion:
// quotes below it are rejected with ErrSlippageExceeded before any state
// changes.
func (e *Engine) Mint(ctx context.Context, coinID crypto.Address, deposit, minTokensOut uint64, recipient crypto.Address) (*MintResult, error) {
	if e == nil || e.store == nil || e.rates == nil || e.ledger == nil {
		return nil, errNotConfigured
	}
	// Validating
	if deposit == 0 {
		return nil, ErrInvalidQuantity
	}
	coin, ok, err := e.registry.Get(coinID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrRecordNotFound
	}
	if _, ok, err := e.treasury.Load(); err != nil {
		return nil, err
	} else if !ok {
		return nil, ErrRecordNotFound
	}
	// PricingQuoted: the oracle round trip happens before the settle lock so
	// feed latency never extends the treasury critical section.
	reading, err := e.rates.GetRate(ctx, coin.Currency)
	if err != nil {
		return nil, err
	}
	rateScaled, err := ScaleRate(reading.Rate)
	if err != nil {
		return nil, err
	}
	tokensOut, err := TokensOut(deposit, rateScaled)
	if err != nil {
		return nil, err
	}
	if minTokensOut > 0 && tokensOut < minTokensOut {
		return nil, ErrSlippageExceeded
	}
	// Settling
	e.settleMu.Lock()
	defer e.settleMu.Unlock()
	treasury, coin, err := e.loadForSettle(coinID)
	if err != nil {
		return nil, err
	}
	prevBalance, prevSupply := treasury.Balance, coin.Supply
	if err := creditTreasury(treasury, deposit); err != nil {
		return nil, err
	}
	if err := increaseSupply(coin, tokensOut); err != nil {
		return nil, err
	}
	treasury.Version++
	if err := e.commit(ctx, treasury, coin); err != nil {
		return nil, err
	}
	if err := e.instructMint(treasury, coin, recipient, deposit, tokensOut); err != nil {
		treasury.Balance, coin.Supply = prevBalance, prevSupply
		treasury.Version++
		if compErr := e.commit(context.Background(), treasury, coin); compErr != nil {
			return nil, fmt.Errorf("%w: compensation failed: %v", ErrLedgerRejected, compErr)
		}
		return nil, fmt.Errorf("%w: %v", ErrLedgerRejected, err)
	}
	e.emit(MintedEvent(coin, reading, deposit, tokensOut, treasury.Balance))
	return &MintResult{
		TokensOut:       tokensOut,
		TreasuryBalance: treasury.Balance,
		CoinSupply:      coin.Supply,
	}, nil
}

// Redeem burns tokens and releases floor(tokens * rate) collateral to the
// caller. A non-zero minCollateralOut bounds the acceptable conversion the
// same way minTokensOut does for Mint.
func (e *Engine) Redeem(ctx context.Context, coinID crypto.Address, tokenAmount, minCollateralOut uint64, caller crypto.Address) (*RedeemResult, error) {
	if e == nil || e.store == nil || e.rates == nil || e.ledger == nil {
		return nil, errNotConfigured
	}
	// Validating
	if tokenAmount == 0 {
		return nil, ErrInvalidQuantity
	}
	coin, ok, err := e.registry.Get(coinID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrRecordNotFound
	}
	if tokenAmount > coin.Supply {
		return nil, ErrInsufficientSupply
	}
	if _, ok, err := e.treasury.Load(); err != nil {
		return nil, err
	} else if !ok {
		return nil, ErrRecordNotFound
	}
	// PricingQuoted
	reading, err := e.rates.GetRate(ctx, coin.Currency)
	if err != nil {
		return nil, err
	}
	rateScaled, err := ScaleRate(reading.Rate)
	if err != nil {
		return nil, err
	}
	collateralOut, err := CollateralOut(tokenAmount, rateScaled)
	if err != nil {
		return nil, err
	}
	if minCollateralOut > 0 && collateralOut < minCollateralOut {
		return nil, ErrSlippageExceeded
	}
	// Settling
	e.settleMu.Lock()
	defer e.settleMu.Unlock()
	treasury, coin, err := e.loadForSettle(coinID)
	if err != nil {
		return nil, err
	}
	if tokenAmount > coin.Supply {
		return nil, ErrInsufficientSupply
	}
	if collateralOut > treasury.Balance {
		return nil, ErrInsufficientFunds
	}
	prevBalance, prevSupply := treasury.Balance, coin.Supply
	if err := debitTreasury(treasury, collateralOut); err != nil {
		return nil, err
	}
	if err := decreaseSupply(coin, tokenAmount); err != nil {
		return nil, err
	}
	treasury.Version++
	if err := e.commit(ctx, treasury, coin); err != nil {
		return nil, err
	}
	if err := e.instructRedeem(treasury, coin, caller, tokenAmount, collateralOut); err != nil {
		treasury.Balance, coin.Supply = prevBalance, prevSupply
		treasury.Version++
		if compErr := e.commit(context.Background(), treasury, coin); compErr != nil {
			return nil, fmt.Errorf("%w: compensation failed: %v", ErrLedgerRejected, compErr)
		}
		return nil, fmt.Errorf("%w: %v", ErrLedgerRejected, err)
	}
	e.emit(RedeemedEvent(coin, reading, tokenAmount, collateralOut, treasury.Balance))
	return &RedeemResult{
		CollateralOut:   collateralOut,
		TreasuryBalance: treasury.Balance,
		CoinSupply:      coin.Supply,
	}, nil
}

// loadForSettle re-reads both records inside the settle lock so the balance
// checks and the commit observe the same state.
func (e *Engine) loadForSettle(coinID crypto.Address) (*TreasuryRecord, *CoinRecord, error) {
	treasury, ok, err := e.treasury.Load()
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, ErrRecordNotFound
	}
	coin, ok, err := e.registry.Get(coinID)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, ErrRecordNotFound
	}
	return treasury, coin, nil
}

func (e *Engine) commit(ctx context.Context, treasury *TreasuryRecord, coin *CoinRecord) error {
	err := e.store.KVWrite(ctx, treasuryEntry(treasury), coinEntry(coin))
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrSettlementTimeout, err)
	}
	return err
}

// instructMint issues the two mint-side ledger instructions. If the token
// mint is refused after the collateral transfer already executed, the
// collateral is returned to the recipient so the rejection never strands
// user funds in custody.
func (e *Engine) instructMint(treasury *TreasuryRecord, coin *CoinRecord, recipient crypto.Address, deposit, tokensOut uint64) error {
	if err := e.ledger.TransferCollateral(recipient, treasury.CollateralAccount, deposit); err != nil {
		return err
	}
	if err := e.ledger.Mint(coin.Mint, recipient, tokensOut); err != nil {
		if revErr := e.ledger.TransferCollateral(treasury.CollateralAccount, recipient, deposit); revErr != nil {
			return fmt.Errorf("token mint refused: %v; collateral return failed: %v", err, revErr)
		}
		return err
	}
	return nil
}

// instructRedeem issues the two redeem-side ledger instructions. If the
// collateral release is refused after the burn already executed, the burned
// tokens are re-minted to the caller.
func (e *Engine) instructRedeem(treasury *TreasuryRecord, coin *CoinRecord, caller crypto.Address, tokenAmount, collateralOut uint64) error {
	if err := e.ledger.Burn(coin.Mint, caller, tokenAmount); err != nil {
		return err
	}
	if err := e.ledger.TransferCollateral(treasury.CollateralAccount, caller, collateralOut); err != nil {
		if revErr := e.ledger.Mint(coin.Mint, caller, tokenAmount); revErr != nil {
			return fmt.Errorf("collateral release refused: %v; token restore failed: %v", err, revErr)
		}
		return err
	}
	return nil
}

func (e *Engine) emit(evt events.Event) {
	if e == nil || e.emitter == nil {
		return
	}
	e.emitter.Emit(evt)
}
