package keygen

import (
	"crypto/rand"
	"math/big"
	"strconv"

	"github.com/google/uuid"
)

// OTP codes are drawn from [otpMin, otpMax] inclusive. The range starts at
// 100000 so every code has exactly six digits without zero padding.
const (
	otpMin = 100000
	otpMax = 999999
)

// OTPCode generates a uniformly random 6-digit one-time code.
func OTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(otpMax-otpMin+1))
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(n.Int64()+otpMin, 10), nil
}

// SessionID generates a new opaque session identifier.
func SessionID() string {
	return uuid.New().String()
}
