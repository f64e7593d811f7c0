package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/whisperly-api/internal/domain"
	"github.com/whisperly-api/internal/infrastructure/smtp"
	"github.com/whisperly-api/internal/pkg/id"
	"github.com/whisperly-api/internal/pkg/otp"
	"golang.org/x/crypto/bcrypt"
)

// otpTTL is the validity window of every issued code.
const otpTTL = 5 * time.Minute

// DynamoDB attribute names used in partial update maps.
const (
	fieldOTP          = "otp"
	fieldOTPExpires   = "otp_expires"
	fieldVerified     = "verified"
	fieldPasswordHash = "password_hash"
)

// Service drives the OTP identity lifecycle:
// unregistered -> otp pending -> verified -> reset pending -> verified.
type Service interface {
	// SendOTP issues a fresh code for the address, creating the identity if
	// it does not exist yet, and clears the verified flag.
	SendOTP(ctx context.Context, email string) error
	// ResendOTP reissues a code for an existing identity. While the current
	// code is still live it fails with a cooldown error carrying the
	// remaining seconds.
	ResendOTP(ctx context.Context, email string) error
	// VerifyOTP consumes a matching, non-expired code, stores the hashed
	// password, marks the identity verified and returns a bearer token.
	VerifyOTP(ctx context.Context, email, code, password string) (string, error)
	// SendResetOTP issues a reset code; only verified identities qualify.
	SendResetOTP(ctx context.Context, email string) error
	// ResetPassword consumes a matching, non-expired reset code and replaces
	// the password hash.
	ResetPassword(ctx context.Context, email, code, newPassword string) error
	// Login exchanges verified credentials for a bearer token.
	Login(ctx context.Context, email, password string) (string, error)
}

type userStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Put(ctx context.Context, u *domain.User) error
	Update(ctx context.Context, userID string, updates map[string]interface{}) error
	// ConsumeOTP clears the code atomically, conditional on it still matching.
	ConsumeOTP(ctx context.Context, userID, code string, extra map[string]interface{}) error
}

type tokenSigner interface {
	Sign(userID, email, role string) (string, error)
}

type service struct {
	repo        userStore
	mailer      smtp.Mailer
	jwtProvider tokenSigner
	now         func() time.Time
}

type ServiceDeps struct {
	UserRepo    userStore
	Mailer      smtp.Mailer
	JWTProvider tokenSigner
	// Now overrides the clock; nil means time.Now. Tests use it to cross the
	// OTP expiry without waiting.
	Now func() time.Time
}

func NewService(deps ServiceDeps) Service {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:        deps.UserRepo,
		mailer:      deps.Mailer,
		jwtProvider: deps.JWTProvider,
		now:         now,
	}
}

func (s *service) SendOTP(ctx context.Context, email string) error {
	code, err := otp.NewCode()
	if err != nil {
		return err
	}
	now := s.now()
	expires := now.Add(otpTTL).Unix()

	u, err := s.repo.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		// First OTP request for an unseen address creates the identity.
		u = &domain.User{
			UserID:     id.New(),
			Email:      email,
			OTP:        code,
			OTPExpires: expires,
			Verified:   false,
			Role:       domain.RoleUser,
			CreatedAt:  now.UTC(),
			UpdatedAt:  now.UTC(),
		}
		if err := s.repo.Put(ctx, u); err != nil {
			return err
		}
	case err != nil:
		return err
	default:
		if err := s.repo.Update(ctx, u.UserID, map[string]interface{}{
			fieldOTP:        code,
			fieldOTPExpires: expires,
			fieldVerified:   false,
		}); err != nil {
			return err
		}
	}

	return s.mailer.SendEmail(email, smtp.OTPSubject(), smtp.OTPBody(code))
}

func (s *service) ResendOTP(ctx context.Context, email string) error {
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}

	now := s.now()
	if u.HasActiveOTP(now) {
		remaining := u.OTPExpires - now.Unix()
		if remaining < 1 {
			remaining = 1
		}
		return fmt.Errorf("please wait %ds before requesting a new OTP: %w", remaining, domain.ErrCooldown)
	}

	code, err := otp.NewCode()
	if err != nil {
		return err
	}
	if err := s.repo.Update(ctx, u.UserID, map[string]interface{}{
		fieldOTP:        code,
		fieldOTPExpires: now.Add(otpTTL).Unix(),
	}); err != nil {
		return err
	}
	return s.mailer.SendEmail(email, smtp.OTPSubject(), smtp.OTPBody(code))
}

func (s *service) VerifyOTP(ctx context.Context, email, code, password string) (string, error) {
	u, err := s.repo.GetByEmail(ctx, email)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		// Verifying against an unknown address is a caller mistake, not a
		// missing resource.
		return "", fmt.Errorf("no such user: %w", domain.ErrBadRequest)
	case err != nil:
		return "", err
	}
	if u.OTP == "" || u.OTP != code {
		return "", fmt.Errorf("invalid OTP: %w", domain.ErrBadRequest)
	}
	if u.OTPExpires < s.now().Unix() {
		return "", fmt.Errorf("OTP expired: %w", domain.ErrBadRequest)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	// Conditional on the stored code still matching, so a resend racing this
	// verify cannot hand out a session for a superseded code.
	if err := s.repo.ConsumeOTP(ctx, u.UserID, code, map[string]interface{}{
		fieldPasswordHash: string(hash),
		fieldVerified:     true,
	}); err != nil {
		return "", err
	}
	return s.jwtProvider.Sign(u.UserID, u.Email, u.Role)
}

func (s *service) SendResetOTP(ctx context.Context, email string) error {
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !u.Verified {
		return fmt.Errorf("user not verified: %w", domain.ErrNotFound)
	}

	code, err := otp.NewCode()
	if err != nil {
		return err
	}
	if err := s.repo.Update(ctx, u.UserID, map[string]interface{}{
		fieldOTP:        code,
		fieldOTPExpires: s.now().Add(otpTTL).Unix(),
	}); err != nil {
		return err
	}
	return s.mailer.SendEmail(email, smtp.ResetSubject(), smtp.ResetBody(code))
}

func (s *service) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !u.Verified {
		return fmt.Errorf("user not verified: %w", domain.ErrNotFound)
	}
	if u.OTP == "" || u.OTP != code {
		return fmt.Errorf("invalid OTP: %w", domain.ErrBadRequest)
	}
	if u.OTPExpires < s.now().Unix() {
		return fmt.Errorf("OTP expired: %w", domain.ErrBadRequest)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.repo.ConsumeOTP(ctx, u.UserID, code, map[string]interface{}{
		fieldPasswordHash: string(hash),
	})
}

func (s *service) Login(ctx context.Context, email, password string) (string, error) {
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if !u.Verified {
		return "", fmt.Errorf("user not verified: %w", domain.ErrNotFound)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", fmt.Errorf("wrong credentials: %w", domain.ErrUnauthorized)
	}
	return s.jwtProvider.Sign(u.UserID, u.Email, u.Role)
}
