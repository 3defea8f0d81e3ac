package crypto

import (
	"encoding/binary"
	"errors"
	"math/big"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"lukechampine.com/blake3"
)

// Purpose scopes a derived address to a single record family so that records
// of different kinds can never collide even when their seeds match.
type Purpose uint8

const (
	// PurposeTreasury addresses the singleton collateral treasury record.
	PurposeTreasury Purpose = iota + 1
	// PurposeCoinAccount addresses a per-stablecoin registry record.
	PurposeCoinAccount
	// PurposeCoinMint addresses a stablecoin token mint.
	PurposeCoinMint
	// PurposeMetadata addresses auxiliary display metadata.
	PurposeMetadata
)

// ErrAddressSpaceExhausted indicates that no bump byte in 0-255 produced an
// off-curve address for the supplied seeds. The probability is negligible but
// callers must treat it as fatal rather than assume it impossible.
var ErrAddressSpaceExhausted = errors.New("crypto: derived address space exhausted")

const deriveDomain = "bondmint/derive/v1"

var (
	secpP = ethcrypto.S256().Params().P
	secpB = ethcrypto.S256().Params().B
	three = big.NewInt(3)
)

// Derive deterministically maps (purpose, seeds) onto a program-controlled
// address. A single-byte discriminator ("bump") is appended to the seed set
// and the candidate hash is rejected while it corresponds to a valid
// secp256k1 public key coordinate; the surviving address therefore has no
// private key an adversary could hold. The search starts at 255 and walks
// down so re-derivation with the stored bump is stable.
func Derive(purpose Purpose, seeds ...[]byte) (Address, uint8, error) {
	for bump := 255; bump >= 0; bump-- {
		candidate := deriveCandidate(purpose, seeds, uint8(bump))
		if onCurve(candidate) {
			continue
		}
		return candidate, uint8(bump), nil
	}
	return Address{}, 0, ErrAddressSpaceExhausted
}

// Verify re-derives the candidate for the stored bump and reports whether it
// matches the supplied address. Records persist their bump precisely so this
// check stays a single hash rather than a full search.
func Verify(addr Address, purpose Purpose, bump uint8, seeds ...[]byte) bool {
	candidate := deriveCandidate(purpose, seeds, bump)
	if onCurve(candidate) {
		return false
	}
	return candidate == addr
}

func deriveCandidate(purpose Purpose, seeds [][]byte, bump uint8) Address {
	h := blake3.New(32, nil)
	_, _ = h.Write([]byte(deriveDomain))
	_, _ = h.Write([]byte{byte(purpose)})
	var lenBuf [4]byte
	for _, seed := range seeds {
		binary.BigEndian.PutUint32(lenBuf[:], uint32(len(seed)))
		_, _ = h.Write(lenBuf[:])
		_, _ = h.Write(seed)
	}
	_, _ = h.Write([]byte{bump})
	var out Address
	copy(out[:], h.Sum(nil))
	return out
}

// onCurve reports whether the candidate, read as a big-endian integer, is a
// valid secp256k1 x coordinate (x^3+7 is a quadratic residue mod p). Such a
// value could be the public key of some private key and is disallowed.
func onCurve(candidate Address) bool {
	x := new(big.Int).SetBytes(candidate[:])
	if x.Cmp(secpP) >= 0 {
		return false
	}
	y2 := new(big.Int).Exp(x, three, secpP)
	y2.Add(y2, secpB)
	y2.Mod(y2, secpP)
	return new(big.Int).ModSqrt(y2, secpP) != nil
}
