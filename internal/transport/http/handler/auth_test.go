package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/whisperly-api/internal/domain"
)

// --- mock ---

type mockAuthSvc struct{ mock.Mock }

func (m *mockAuthSvc) SendOTP(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *mockAuthSvc) ResendOTP(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *mockAuthSvc) VerifyOTP(ctx context.Context, email, code, password string) (string, error) {
	args := m.Called(ctx, email, code, password)
	return args.String(0), args.Error(1)
}

func (m *mockAuthSvc) SendResetOTP(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *mockAuthSvc) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	return m.Called(ctx, email, code, newPassword).Error(0)
}

func (m *mockAuthSvc) Login(ctx context.Context, email, password string) (string, error) {
	args := m.Called(ctx, email, password)
	return args.String(0), args.Error(1)
}

func jsonReq(t *testing.T, method, target string, body interface{}) *http.Request {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	return httptest.NewRequest(method, target, bytes.NewReader(b))
}

// --- SendOTP / ResendOTP ---

func TestSendOTP_InvalidBody(t *testing.T) {
	h := NewAuthHandler(&mockAuthSvc{})
	r := httptest.NewRequest(http.MethodPost, "/auth/send-otp", bytes.NewBufferString("not-json"))
	rr := httptest.NewRecorder()
	h.SendOTP(rr, r)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSendOTP_InvalidEmail(t *testing.T) {
	svc := &mockAuthSvc{}
	h := NewAuthHandler(svc)
	r := jsonReq(t, http.MethodPost, "/auth/send-otp", map[string]string{"email": "not-an-email"})
	rr := httptest.NewRecorder()
	h.SendOTP(rr, r)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	svc.AssertNotCalled(t, "SendOTP", mock.Anything, mock.Anything)
}

func TestSendOTP_OK(t *testing.T) {
	svc := &mockAuthSvc{}
	svc.On("SendOTP", mock.Anything, "a@b.com").Return(nil)
	h := NewAuthHandler(svc)
	r := jsonReq(t, http.MethodPost, "/auth/send-otp", map[string]string{"email": "a@b.com"})
	rr := httptest.NewRecorder()
	h.SendOTP(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	var env MessageEnvelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	assert.Equal(t, "OTP sent", env.Message)
}

func TestResendOTP_Cooldown(t *testing.T) {
	svc := &mockAuthSvc{}
	svc.On("ResendOTP", mock.Anything, "a@b.com").
		Return(fmt.Errorf("please wait 42s before requesting a new OTP: %w", domain.ErrCooldown))
	h := NewAuthHandler(svc)
	r := jsonReq(t, http.MethodPost, "/auth/resend-otp", map[string]string{"email": "a@b.com"})
	rr := httptest.NewRecorder()
	h.ResendOTP(rr, r)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	var env MessageEnvelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	assert.Contains(t, env.Error, "wait 42s")
}

// --- VerifyOTP ---

func TestVerifyOTP_ShortPassword(t *testing.T) {
	svc := &mockAuthSvc{}
	h := NewAuthHandler(svc)
	r := jsonReq(t, http.MethodPost, "/auth/verify-otp", map[string]string{
		"email": "a@b.com", "otp": "123456", "password": "short",
	})
	rr := httptest.NewRecorder()
	h.VerifyOTP(rr, r)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	svc.AssertNotCalled(t, "VerifyOTP", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestVerifyOTP_OK_ReturnsToken(t *testing.T) {
	svc := &mockAuthSvc{}
	svc.On("VerifyOTP", mock.Anything, "a@b.com", "123456", "password1").Return("signed-token", nil)
	h := NewAuthHandler(svc)
	r := jsonReq(t, http.MethodPost, "/auth/verify-otp", map[string]string{
		"email": "a@b.com", "otp": "123456", "password": "password1",
	})
	rr := httptest.NewRecorder()
	h.VerifyOTP(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	var env TokenEnvelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	assert.Equal(t, "signed-token", env.Token)
}

func TestVerifyOTP_InvalidCode(t *testing.T) {
	svc := &mockAuthSvc{}
	svc.On("VerifyOTP", mock.Anything, "a@b.com", "000000", "password1").
		Return("", fmt.Errorf("invalid OTP: %w", domain.ErrBadRequest))
	h := NewAuthHandler(svc)
	r := jsonReq(t, http.MethodPost, "/auth/verify-otp", map[string]string{
		"email": "a@b.com", "otp": "000000", "password": "password1",
	})
	rr := httptest.NewRecorder()
	h.VerifyOTP(rr, r)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

// --- ResetPassword ---

func TestResetPassword_OK(t *testing.T) {
	svc := &mockAuthSvc{}
	svc.On("ResetPassword", mock.Anything, "a@b.com", "123456", "newpassword").Return(nil)
	h := NewAuthHandler(svc)
	r := jsonReq(t, http.MethodPost, "/auth/reset-password", map[string]string{
		"email": "a@b.com", "otp": "123456", "newPassword": "newpassword",
	})
	rr := httptest.NewRecorder()
	h.ResetPassword(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	var env MessageEnvelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	assert.Equal(t, "Password reset successful", env.Message)
}

// --- Login ---

func TestLogin_WrongCredentials(t *testing.T) {
	svc := &mockAuthSvc{}
	svc.On("Login", mock.Anything, "a@b.com", "wrong").
		Return("", fmt.Errorf("wrong credentials: %w", domain.ErrUnauthorized))
	h := NewAuthHandler(svc)
	r := jsonReq(t, http.MethodPost, "/auth/login", map[string]string{"email": "a@b.com", "password": "wrong"})
	rr := httptest.NewRecorder()
	h.Login(rr, r)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestLogin_UnverifiedIdentity(t *testing.T) {
	svc := &mockAuthSvc{}
	svc.On("Login", mock.Anything, "a@b.com", "password1").
		Return("", fmt.Errorf("user not found or not verified: %w", domain.ErrNotFound))
	h := NewAuthHandler(svc)
	r := jsonReq(t, http.MethodPost, "/auth/login", map[string]string{"email": "a@b.com", "password": "password1"})
	rr := httptest.NewRecorder()
	h.Login(rr, r)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestLogin_OK(t *testing.T) {
	svc := &mockAuthSvc{}
	svc.On("Login", mock.Anything, "a@b.com", "password1").Return("signed-token", nil)
	h := NewAuthHandler(svc)
	r := jsonReq(t, http.MethodPost, "/auth/login", map[string]string{"email": "a@b.com", "password": "password1"})
	rr := httptest.NewRecorder()
	h.Login(rr, r)

	assert.Equal(t, http.StatusOK, rr.Code)
	var env TokenEnvelope
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env))
	assert.Equal(t, "signed-token", env.Token)
}
