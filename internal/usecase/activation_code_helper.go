package usecase

import (
	"crypto/rand"
	"io"
	"strings"
)

const (
	codeGroups    = 4
	codeGroupSize = 4
)

// generateActivationCode creates a random, human-readable activation code.
// Format: xxxx-xxxx-xxxx-xxxx
func generateActivationCode() (string, error) {
	// Avoids ambiguous characters like o/0, i/1, l.
	const chars = "abcdefghjkmnpqrstuvwxyz23456789"

	buffer := make([]byte, codeGroups*codeGroupSize)
	if _, err := io.ReadFull(rand.Reader, buffer); err != nil {
		return "", err
	}
	for i := range buffer {
		buffer[i] = chars[int(buffer[i])%len(chars)]
	}

	groups := make([]string, 0, codeGroups)
	for i := 0; i < len(buffer); i += codeGroupSize {
		groups = append(groups, string(buffer[i:i+codeGroupSize]))
	}
	return strings.Join(groups, "-"), nil
}
