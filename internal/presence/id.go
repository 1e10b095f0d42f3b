package presence

import (
	"crypto/rand"
	"fmt"
)

// GenerateConnectionId returns a fresh connection identifier for sessions
// that did not supply their own.
func GenerateConnectionId() (string, error) {
	bytes := make([]byte, 16)
	_, err := rand.Read(bytes)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%x", bytes), nil
}
