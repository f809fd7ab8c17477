// Package linktoken signs short-lived view links for stored assets so a
// gallery page can embed them without forwarding the bearer token.
package linktoken

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

const defaultTokenExpiry = 24 * time.Hour

var (
	ErrInvalidFormat    = errors.New("invalid token format")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrExpired          = errors.New("token expired")
	ErrAssetMismatch    = errors.New("token issued for another asset")
)

var (
	mu     sync.RWMutex
	secret []byte
	expiry = defaultTokenExpiry
)

type LinkToken struct {
	AssetID   string `json:"aid"`
	ExpiresAt int64  `json:"exp"`
	Nonce     string `json:"nce"`
}

func Configure(s string, ttl time.Duration) {
	mu.Lock()
	defer mu.Unlock()
	secret = []byte(s)
	if ttl > 0 {
		expiry = ttl
	}
}

func Generate(assetID string) string {
	nonce := make([]byte, 8)
	if _, err := rand.Read(nonce); err != nil {
		return ""
	}

	mu.RLock()
	ttl := expiry
	mu.RUnlock()

	tok := LinkToken{
		AssetID:   assetID,
		ExpiresAt: time.Now().Add(ttl).Unix(),
		Nonce:     hex.EncodeToString(nonce),
	}

	data, err := json.Marshal(tok)
	if err != nil {
		return ""
	}

	return base64.RawURLEncoding.EncodeToString(data) + "." + sign(data)
}

func Validate(tokenString string) (*LinkToken, error) {
	dataPart, sigPart, ok := strings.Cut(tokenString, ".")
	if !ok || dataPart == "" || sigPart == "" {
		return nil, ErrInvalidFormat
	}

	decoded, err := base64.RawURLEncoding.DecodeString(dataPart)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	if !hmac.Equal([]byte(sign(decoded)), []byte(sigPart)) {
		return nil, ErrInvalidSignature
	}

	var tok LinkToken
	if err := json.Unmarshal(decoded, &tok); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	if time.Now().Unix() > tok.ExpiresAt {
		return nil, ErrExpired
	}

	return &tok, nil
}

// ValidFor checks the token and that it was issued for assetID.
func ValidFor(tokenString, assetID string) error {
	tok, err := Validate(tokenString)
	if err != nil {
		return err
	}
	if tok.AssetID != assetID {
		return ErrAssetMismatch
	}
	return nil
}

func sign(data []byte) string {
	mu.RLock()
	key := secret
	mu.RUnlock()
	if len(key) == 0 {
		key = []byte("qrwedding-link-token-fallback")
	}
	mac := hmac.New(sha256.New, key)
	mac.Write(data)
	return hex.EncodeToString(mac.Sum(nil))
}
