package pool

import (
	"crypto/rand"
	"math/big"
)

const (
	passwordLength = 16

	lowerChars   = "abcdefghijkmnopqrstuvwxyz"
	upperChars   = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	digitChars   = "23456789"
	specialChars = "!#$%-_=+"
)

// GeneratePassword returns a random password satisfying the org password
// policy: one of each character class, ambiguous glyphs excluded.
func GeneratePassword() (string, error) {
	classes := []string{lowerChars, upperChars, digitChars, specialChars}
	all := lowerChars + upperChars + digitChars + specialChars

	buf := make([]byte, passwordLength)
	for i := range buf {
		var src string
		if i < len(classes) {
			src = classes[i]
		} else {
			src = all
		}
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(src))))
		if err != nil {
			return "", err
		}
		buf[i] = src[n.Int64()]
	}

	// The first four positions are one-per-class; shuffle so the class
	// ordering is not predictable.
	for i := len(buf) - 1; i > 0; i-- {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", err
		}
		j := n.Int64()
		buf[i], buf[j] = buf[j], buf[i]
	}
	return string(buf), nil
}
