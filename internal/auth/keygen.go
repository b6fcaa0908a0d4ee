package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

const (
	// keySecretBytes is the entropy of a generated key (hex encodes to 64 chars).
	keySecretBytes = 32

	// MinClientKeyLength is the length a client-supplied key must exceed to
	// be used verbatim. Shorter candidates are discarded and a key is
	// generated instead.
	MinClientKeyLength = 10
)

// GenerateKey creates a new random API key, hex encoded.
func GenerateKey() (string, error) {
	buf := make([]byte, keySecretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate key: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// SelectKey chooses the key for a new user: a client-supplied candidate
// longer than MinClientKeyLength is used verbatim, anything else is
// replaced by a freshly generated key.
func SelectKey(clientKey string) (string, error) {
	if len(clientKey) > MinClientKeyLength {
		return clientKey, nil
	}
	return GenerateKey()
}
