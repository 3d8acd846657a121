package openid

import (
	"crypto/rand"
	"math/big"
)

const passwordAlphabet = "qazxswedcvfrtgbnhyujmkiolp1234567890QAZXSWEDCVFRTGBNHYUJMKIOLP"

// DefaultPasswordLength is used when configuration leaves it unset.
const DefaultPasswordLength = 8

// GeneratePassword returns n characters drawn uniformly, with repeats, from
// the alphanumeric alphabet.
func GeneratePassword(n int) (string, error) {
	if n <= 0 {
		return "", nil
	}
	max := big.NewInt(int64(len(passwordAlphabet)))
	out := make([]byte, n)
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = passwordAlphabet[idx.Int64()]
	}
	return string(out), nil
}
