package auth

import (
	"crypto/rand"
	"encoding/hex"
)

// GenerateVerificationToken produces the opaque secret issued to guest
// submissions. 32 random bytes, hex encoded; issued once and never rotated.
func GenerateVerificationToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
