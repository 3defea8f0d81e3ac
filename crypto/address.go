package crypto

import (
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcutil/bech32"
)

// AddressPrefix is the human-readable part used when rendering derived
// addresses as bech32 strings.
const AddressPrefix = "bond"

// Address is a 32-byte program-controlled storage location produced by
// Derive. It is never a freely choosable key.
type Address [32]byte

// Bytes returns the raw address bytes.
func (a Address) Bytes() []byte {
	return a[:]
}

// Hex renders the address as a plain hex string, used for storage keys.
func (a Address) Hex() string {
	return hex.EncodeToString(a[:])
}

// String renders the address in bech32 form with the bond prefix.
func (a Address) String() string {
	conv, err := bech32.ConvertBits(a[:], 8, 5, true)
	if err != nil {
		panic(err)
	}
	encoded, err := bech32.Encode(AddressPrefix, conv)
	if err != nil {
		panic(err)
	}
	return encoded
}

// IsZero reports whether the address is the all-zero value.
func (a Address) IsZero() bool {
	return a == Address{}
}

// DecodeAddress parses a bech32 encoded derived address.
func DecodeAddress(addrStr string) (Address, error) {
	prefix, decoded, err := bech32.Decode(addrStr)
	if err != nil {
		return Address{}, fmt.Errorf("invalid bech32 string: %w", err)
	}
	if prefix != AddressPrefix {
		return Address{}, fmt.Errorf("unexpected address prefix %q", prefix)
	}
	conv, err := bech32.ConvertBits(decoded, 5, 8, false)
	if err != nil {
		return Address{}, fmt.Errorf("error converting bits: %w", err)
	}
	if len(conv) != 32 {
		return Address{}, fmt.Errorf("derived address must be 32 bytes, got %d", len(conv))
	}
	var addr Address
	copy(addr[:], conv)
	return addr, nil
}
