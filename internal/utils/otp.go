package utils

import (
	"crypto/rand"
	"math/big"
	"strconv"
)

// GenerateOTPCode returns a uniformly random 6-digit verification code
// in the range 100000–999999 inclusive.  Keeping the first digit
// non-zero removes any leading-zero ambiguity when users type the code
// back in.  The randomness source is crypto/rand.
func GenerateOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+100000, 10), nil
}
