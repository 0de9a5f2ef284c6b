// Package crypto implements password hashing and verification for stored users.
package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"

	"golang.org/x/crypto/argon2"
)

// SaltLen is the per-user salt size in bytes.
const SaltLen = 16

// Hasher holds Argon2id cost parameters.
type Hasher struct {
	Time    uint32 // iterations
	Memory  uint32 // KiB
	Threads uint8
	KeyLen  uint32
}

// DefaultHasher is tuned for interactive logins.
var DefaultHasher = Hasher{Time: 3, Memory: 64 * 1024, Threads: 1, KeyLen: 32}

// RandBytes returns n cryptographically secure random bytes.
func RandBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	return b, err
}

func (h Hasher) key(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, h.Time, h.Memory, h.Threads, h.KeyLen)
}

// Hash derives a key from password with a fresh random salt. Both results are hex.
func (h Hasher) Hash(password string) (hashHex, saltHex string, err error) {
	salt, err := RandBytes(SaltLen)
	if err != nil {
		return "", "", err
	}
	return hex.EncodeToString(h.key(password, salt)), hex.EncodeToString(salt), nil
}

// Verify checks password against a stored hash. An empty saltHex marks a
// legacy record holding an unsalted SHA-256 digest; legacy reports that case.
func (h Hasher) Verify(password, hashHex, saltHex string) (ok, legacy bool) {
	want, err := hex.DecodeString(hashHex)
	if err != nil || len(want) == 0 {
		return false, saltHex == ""
	}
	if saltHex == "" {
		got := sha256.Sum256([]byte(password))
		return subtle.ConstantTimeCompare(got[:], want) == 1, true
	}
	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return false, false
	}
	return subtle.ConstantTimeCompare(h.key(password, salt), want) == 1, false
}

// LegacyDigest returns the unsalted SHA-256 hex digest used by old records.
func LegacyDigest(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}
