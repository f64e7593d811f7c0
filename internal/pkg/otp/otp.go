package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// NewCode generates a 6-digit numeric one-time code in [100000, 999999],
// so the code never needs zero-padding on display.
func NewCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%d", n.Int64()+100000), nil
}
