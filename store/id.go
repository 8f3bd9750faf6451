package store

import (
	"crypto/rand"
	"encoding/hex"
)

// idBytes is widened from the teacher's 8-byte/16-hex-char request id
// (atomicbase api/tools/middleware.go generateRequestID) to 12 bytes /
// 24 hex characters, per this engine's document-id invariant (I2: ids
// must be opaque, collision-resistant strings with no ordering
// guarantee implied by their text).
const idBytes = 12

// GenerateID returns a fresh, opaque document id: 24 lowercase hex
// characters from 12 bytes of crypto/rand.
func GenerateID() (string, error) {
	b := make([]byte, idBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
