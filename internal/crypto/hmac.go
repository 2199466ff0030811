package crypto

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// ConsoleKey derives the value of the console session cookie from the
// backend bearer token. The key is HMAC-SHA256(secret, token) encoded as
// unpadded base64url, so the cookie never carries the token itself and a
// restored session keeps the same key as long as the secret is stable.
func ConsoleKey(secret []byte, token string) string {
	if token == "" {
		return ""
	}
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(token))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// RandomSecret returns n random bytes for use as a ConsoleKey secret when
// none is configured.
func RandomSecret(n int) ([]byte, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("crypto: generating secret: %w", err)
	}
	return b, nil
}

// Equal compares two keys in constant time.
func Equal(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return hmac.Equal([]byte(a), []byte(b))
}
