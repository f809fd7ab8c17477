package linktoken

import (
	"errors"
	"testing"
	"time"
)

func TestLinkToken(t *testing.T) {
	Configure("test-secret-key", time.Hour)

	t.Run("Validate returns token for valid string", func(t *testing.T) {
		token := Generate("asset-abc")
		tok, err := Validate(token)
		if err != nil {
			t.Fatalf("expected valid token, got error: %v", err)
		}
		if tok.AssetID != "asset-abc" {
			t.Errorf("expected AssetID asset-abc, got %s", tok.AssetID)
		}
		if tok.ExpiresAt <= time.Now().Unix() {
			t.Error("expected ExpiresAt to be in the future")
		}
	})

	t.Run("Validate rejects token without dot", func(t *testing.T) {
		if _, err := Validate("nodotinthisstring"); !errors.Is(err, ErrInvalidFormat) {
			t.Fatalf("expected ErrInvalidFormat, got %v", err)
		}
	})

	t.Run("Validate rejects tampered signature", func(t *testing.T) {
		token := Generate("asset-sig")
		if _, err := Validate(token + "00"); !errors.Is(err, ErrInvalidSignature) {
			t.Fatalf("expected ErrInvalidSignature, got %v", err)
		}
	})

	t.Run("Validate rejects token signed with another secret", func(t *testing.T) {
		token := Generate("asset-rotate")
		Configure("rotated-secret", time.Hour)
		t.Cleanup(func() { Configure("test-secret-key", time.Hour) })

		if _, err := Validate(token); !errors.Is(err, ErrInvalidSignature) {
			t.Fatalf("expected ErrInvalidSignature, got %v", err)
		}
	})

	t.Run("ValidFor rejects token for another asset", func(t *testing.T) {
		token := Generate("asset-one")
		if err := ValidFor(token, "asset-one"); err != nil {
			t.Fatalf("expected token to be valid for its asset, got %v", err)
		}
		if err := ValidFor(token, "asset-two"); !errors.Is(err, ErrAssetMismatch) {
			t.Fatalf("expected ErrAssetMismatch, got %v", err)
		}
	})

	t.Run("tokens are unique per call", func(t *testing.T) {
		if Generate("asset-same") == Generate("asset-same") {
			t.Fatal("expected distinct tokens for repeated generation")
		}
	})
}
