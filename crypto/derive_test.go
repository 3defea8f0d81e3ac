package crypto

import (
	"strings"
	"testing"
)

func TestDeriveDeterministic(t *testing.T) {
	mint := []byte("collateral-mint-0001")
	first, bump1, err := Derive(PurposeCoinAccount, mint)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	second, bump2, err := Derive(PurposeCoinAccount, mint)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if first != second || bump1 != bump2 {
		t.Fatalf("derivation not deterministic: %s/%d vs %s/%d", first, bump1, second, bump2)
	}
}

func TestDerivePurposeSeparation(t *testing.T) {
	seed := []byte("shared-seed")
	account, _, err := Derive(PurposeCoinAccount, seed)
	if err != nil {
		t.Fatalf("derive account: %v", err)
	}
	mint, _, err := Derive(PurposeCoinMint, seed)
	if err != nil {
		t.Fatalf("derive mint: %v", err)
	}
	if account == mint {
		t.Fatalf("purposes must not collide: %s", account)
	}
}

func TestDeriveSeedBoundaries(t *testing.T) {
	// ["ab", "c"] and ["a", "bc"] must not hash to the same candidate.
	left, _, err := Derive(PurposeMetadata, []byte("ab"), []byte("c"))
	if err != nil {
		t.Fatalf("derive left: %v", err)
	}
	right, _, err := Derive(PurposeMetadata, []byte("a"), []byte("bc"))
	if err != nil {
		t.Fatalf("derive right: %v", err)
	}
	if left == right {
		t.Fatalf("seed boundaries ignored: %s", left)
	}
}

func TestVerifyRoundTrip(t *testing.T) {
	seed := []byte("treasury")
	addr, bump, err := Derive(PurposeTreasury, seed)
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	if !Verify(addr, PurposeTreasury, bump, seed) {
		t.Fatalf("verify failed for derived address %s bump %d", addr, bump)
	}
	if Verify(addr, PurposeCoinAccount, bump, seed) {
		t.Fatal("verify must fail for the wrong purpose")
	}
	if bump > 0 && Verify(addr, PurposeTreasury, bump-1, seed) {
		t.Fatal("verify must fail for the wrong bump")
	}
}

func TestAddressOffCurve(t *testing.T) {
	for _, seed := range []string{"alpha", "beta", "gamma", "delta"} {
		addr, _, err := Derive(PurposeCoinAccount, []byte(seed))
		if err != nil {
			t.Fatalf("derive %q: %v", seed, err)
		}
		if onCurve(addr) {
			t.Fatalf("derived address %s for seed %q lies on the curve", addr, seed)
		}
	}
}

func TestAddressEncoding(t *testing.T) {
	addr, _, err := Derive(PurposeTreasury, []byte("encode"))
	if err != nil {
		t.Fatalf("derive: %v", err)
	}
	encoded := addr.String()
	if !strings.HasPrefix(encoded, AddressPrefix+"1") {
		t.Fatalf("unexpected bech32 prefix: %s", encoded)
	}
	decoded, err := DecodeAddress(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded != addr {
		t.Fatalf("round trip mismatch: %s vs %s", decoded, addr)
	}
}
