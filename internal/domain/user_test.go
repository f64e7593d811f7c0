package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var probeTime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestHasActiveOTP(t *testing.T) {
	tests := []struct {
		name string
		user User
		want bool
	}{
		{"live code", User{OTP: "123456", OTPExpires: probeTime.Add(time.Minute).Unix()}, true},
		{"expired code", User{OTP: "123456", OTPExpires: probeTime.Add(-time.Minute).Unix()}, false},
		{"no code", User{OTP: "", OTPExpires: 0}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.user.HasActiveOTP(probeTime))
		})
	}
}

func TestReapable(t *testing.T) {
	tests := []struct {
		name string
		user User
		want bool
	}{
		{
			"unverified with expired code",
			User{Verified: false, OTP: "123456", OTPExpires: probeTime.Add(-time.Minute).Unix()},
			true,
		},
		{
			"unverified with live code",
			User{Verified: false, OTP: "123456", OTPExpires: probeTime.Add(time.Minute).Unix()},
			false,
		},
		{
			// Verification is permanent: a verified user whose reset code
			// lapsed must never be deleted.
			"verified with expired code",
			User{Verified: true, OTP: "123456", OTPExpires: probeTime.Add(-time.Minute).Unix()},
			false,
		},
		{
			"verified without code",
			User{Verified: true, OTP: "", OTPExpires: 0},
			false,
		},
		{
			"unverified without code",
			User{Verified: false, OTP: "", OTPExpires: 0},
			false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.user.Reapable(probeTime))
		})
	}
}
