package core

import (
	"crypto/rand"
	"fmt"
)

const (
	idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	idLength   = 12
)

// GenerateID creates an opaque id with the given prefix, e.g. "job_x9y8z7w6q1r2".
func GenerateID(prefix string) (string, error) {
	buf := make([]byte, idLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}

	id := make([]byte, idLength)
	for i := 0; i < idLength; i++ {
		id[i] = idAlphabet[int(buf[i])%len(idAlphabet)]
	}

	return fmt.Sprintf("%s_%s", prefix, string(id)), nil
}
