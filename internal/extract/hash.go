package extract

// Input hashes are used by the render cache to decide whether a header
// must be converted again.
//
// Hash Format: 64 hex chars, sha256 over the header bytes followed by
// every output-relevant setting, each NUL-terminated.

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"strings"
)

// HashLength is the number of hex characters in a short hash.
const HashLength = 8

// InputHash computes the cache key of a header: its content plus the
// settings that influence the rendered output. Changing any setting, or
// their order, changes the hash.
func InputHash(content []byte, settings ...string) string {
	h := sha256.New()
	h.Write(content)
	h.Write([]byte{0})
	for _, s := range settings {
		writeField(h, s)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// ComputeFileHash computes a short hash of file content for display.
func ComputeFileHash(content []byte) string {
	return ShortHash(hashBytes(content))
}

// ShortHash truncates a hash string to HashLength characters.
func ShortHash(hash string) string {
	if len(hash) <= HashLength {
		return hash
	}
	return hash[:HashLength]
}

// SettingsKey joins a list setting into one hash field.
func SettingsKey(values []string) string {
	return strings.Join(values, "\x1f")
}

func writeField(h hash.Hash, s string) {
	h.Write([]byte(s))
	h.Write([]byte{0})
}

// hashBytes computes SHA-256 hash of bytes and returns hex string.
func hashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
