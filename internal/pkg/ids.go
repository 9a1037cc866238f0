package pkg

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

const (
	gameIDBytes    = 4
	sessionIDBytes = 16
)

// GenerateGameID returns a short random hex id for a game.
func GenerateGameID() (string, error) {
	return randomHex(gameIDBytes)
}

// GenerateNewSessionID returns a random hex id used for players.
func GenerateNewSessionID() (string, error) {
	return randomHex(sessionIDBytes)
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}

	return hex.EncodeToString(buf), nil
}
