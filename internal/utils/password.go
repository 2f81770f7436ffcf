package utils // package utils provides helper functions for password hashing and token creation

import (
	"crypto/rand"   // secure random salt generation
	"crypto/sha512" // SHA-512 core for the key derivation
	"crypto/subtle" // constant-time comparison of derived keys
	"encoding/hex"  // hex encoding of salt and key
	"strings"       // splitting the encoded hash

	"golang.org/x/crypto/pbkdf2" // PBKDF2 key derivation
)

// Password hashing parameters. The encoded form is
// "HEX(salt):HEX(key)" with upper-case hex, a 64-byte random salt
// and a 64-byte derived key over 350,000 PBKDF2-SHA512 rounds.
const (
	pbkdf2KeySize    = 64
	pbkdf2Iterations = 350000
)

// HashPassword derives a key from the plaintext with a fresh random
// salt and returns the encoded salt:key pair. Two calls with the
// same plaintext yield different encodings.
func HashPassword(plain string) (string, error) {
	salt := make([]byte, pbkdf2KeySize)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	key := pbkdf2.Key([]byte(plain), salt, pbkdf2Iterations, pbkdf2KeySize, sha512.New)
	return strings.ToUpper(hex.EncodeToString(salt)) + ":" + strings.ToUpper(hex.EncodeToString(key)), nil
}

// VerifyPassword re-derives the key from the plaintext using the
// stored salt and compares it to the stored key in constant time.
// Any encoding that is not exactly two hex parts separated by ':'
// verifies as false.
func VerifyPassword(plain, encoded string) bool {
	parts := strings.Split(encoded, ":")
	if len(parts) != 2 {
		return false
	}
	salt, err := hex.DecodeString(parts[0])
	if err != nil {
		return false
	}
	key, err := hex.DecodeString(parts[1])
	if err != nil {
		return false
	}
	derived := pbkdf2.Key([]byte(plain), salt, pbkdf2Iterations, pbkdf2KeySize, sha512.New)
	return subtle.ConstantTimeCompare(derived, key) == 1
}
