package utils

import (
	"crypto/rand"
	"math/big"

	"golang.org/x/crypto/bcrypt"
)

// RandomOTP returns a random code of n decimal digits, left-padded
// with zeroes.
func RandomOTP(n int) (string, error) {
	digits := make([]byte, n)
	for i := range digits {
		v, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		digits[i] = byte('0' + v.Int64())
	}
	return string(digits), nil
}

// HashOTP returns the bcrypt hash of an OTP code using the given
// cost. Codes rest hashed in the store so a leaked cache dump does
// not hand out valid logins.
func HashOTP(code string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(code), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyOTP safely compares a bcrypt hash and a plain OTP code.
func VerifyOTP(hash, code string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)) == nil
}
