// Package hash provides hashing utilities.
package hash

import (
	"crypto/sha256"
	"encoding/hex"
)

// SHA256 computes the SHA256 hash of data and returns it as a hex string.
func SHA256(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// SHA256String computes the SHA256 hash of a string.
func SHA256String(s string) string {
	return SHA256([]byte(s))
}

// SHA256Short returns the first n characters of a SHA256 hash.
func SHA256Short(data []byte, n int) string {
	h := SHA256(data)
	if n > len(h) {
		return h
	}
	return h[:n]
}

// CacheKey generates a deterministic cache key for an LLM completion
// request. Provider and model are part of the key so the same prompt sent
// to different models never collides.
func CacheKey(provider, model, prompt string) string {
	return SHA256String(provider + ":" + model + ":" + prompt)
}

// PointUUID derives a stable UUID-shaped identifier from a standard code.
// Qdrant point IDs must be UUIDs or unsigned integers; hashing the code
// keeps upserts idempotent across runs.
func PointUUID(code string) string {
	h := SHA256String(code)
	return h[0:8] + "-" + h[8:12] + "-" + h[12:16] + "-" + h[16:20] + "-" + h[20:32]
}
