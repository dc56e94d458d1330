// Package secret implements the one-way transform applied to the shared
// instance secret.  The digest is an unsalted, lowercase hex SHA-256 of
// the plaintext: the stored credential and every validation lookup
// compare digests, never plaintext.  There is no per-instance randomness
// because exactly one instance exists per deployment.
package secret

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hash returns the hex SHA-256 digest of s.  Deterministic; same input
// always yields the same digest.
func Hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
