package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"parkeasy/internal/models"
)

// NewOTP returns a uniformly random 6-digit code.
func NewOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func OTPExpired(issuedAt *time.Time, ttl time.Duration, now time.Time) bool {
	if issuedAt == nil {
		return true
	}
	return now.After(issuedAt.Add(ttl))
}

// CheckOTP accepts code only on an exact match within ttl of issuance.
// An expired code is reported as expired whether or not it matches.
func CheckOTP(stored *string, issuedAt *time.Time, code string, ttl time.Duration, now time.Time) error {
	if stored != nil && *stored == code && !OTPExpired(issuedAt, ttl, now) {
		return nil
	}
	if stored != nil && OTPExpired(issuedAt, ttl, now) {
		return models.ErrOTPExpired
	}
	return models.ErrOTPInvalid
}
