package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"math/big"
)

// RandomToken returns n random bytes encoded as hex.
func RandomToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// NumericCode returns a zero-padded random code with the given number of digits.
func NumericCode(digits int) (string, error) {
	code := make([]byte, digits)
	ten := big.NewInt(10)
	for i := range code {
		d, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		code[i] = byte('0' + d.Int64())
	}
	return string(code), nil
}

// HashToken returns the hex sha256 of a token. Only hashes are stored.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
