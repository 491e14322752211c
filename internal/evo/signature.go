package evo

import (
	"crypto/sha256"
	"encoding/hex"

	"keyforge/internal/keyboard"
)

// Fingerprint identifies a layout by the hash of its token text. Equal
// layouts share a fingerprint.
func Fingerprint(layout *keyboard.Layout) string {
	sum := sha256.Sum256([]byte(layout.String()))
	return hex.EncodeToString(sum[:8])
}
