package invite

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

const tokenBytes = 32

// newToken returns a cryptographically random invite secret.
func newToken() (string, error) {
	raw := make([]byte, tokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("invite.newToken: %w", err)
	}
	return hex.EncodeToString(raw), nil
}
