// Package fairness implements the commit-reveal outcome protocol used by
// wagering games. The server commits to a secret seed before a round,
// derives outcomes from an HMAC over the seed material, and reveals the
// seed at round end so players can verify the result independently.
package fairness

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/binary"
	"encoding/hex"
	"fmt"
)

const (
	serverSeedBytes = 32

	// houseEdge is applied to the crash point curve.
	houseEdge = 0.01

	// maxCrashPoint caps the multiplier a round can reach.
	maxCrashPoint = 100.0
)

// NewServerSeed returns a fresh random server seed, hex-encoded.
func NewServerSeed() (string, error) {
	buf := make([]byte, serverSeedBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate server seed: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// Commitment returns the SHA-256 commitment for a server seed. It is
// published before the round so the seed cannot be changed afterwards.
func Commitment(serverSeed string) string {
	sum := sha256.Sum256([]byte(serverSeed))
	return hex.EncodeToString(sum[:])
}

// Verify reports whether serverSeed matches a previously published commitment.
func Verify(commitment, serverSeed string) bool {
	want := Commitment(serverSeed)
	return subtle.ConstantTimeCompare([]byte(want), []byte(commitment)) == 1
}

// Outcome derives a value in [0, 1) from the seed material. Identical
// input always yields the identical outcome.
func Outcome(serverSeed, clientSeed string, nonce uint64) float64 {
	mac := hmac.New(sha256.New, []byte(serverSeed))
	fmt.Fprintf(mac, "%s:%d", clientSeed, nonce)
	digest := mac.Sum(nil)

	// Use the first 52 bits so the value fits a float64 mantissa exactly.
	bits := binary.BigEndian.Uint64(digest[:8]) >> 12
	return float64(bits) / float64(uint64(1)<<52)
}

// CrashPoint maps an outcome to a crash multiplier in [1.0, maxCrashPoint].
func CrashPoint(outcome float64) float64 {
	point := (1.0 - houseEdge) / (1.0 - outcome)
	if point < 1.0 {
		return 1.0
	}
	if point > maxCrashPoint {
		return maxCrashPoint
	}
	return point
}
