package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"
)

// OpaqueTokenBytes gives 256 bits of entropy per token.
const OpaqueTokenBytes = 32

func GenerateOpaqueToken() (string, error) {
	return GenerateRandomToken(OpaqueTokenBytes)
}

func GenerateRandomToken(size int) (string, error) {
	if size < 16 {
		return "", fmt.Errorf("token size %d is below 128 bits", size)
	}
	buffer := make([]byte, size)
	if _, err := rand.Read(buffer); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buffer), nil
}

// HashToken is the storage key for an opaque token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
