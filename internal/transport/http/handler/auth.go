package handler

import (
	"encoding/json"
	"net/http"

	"github.com/whisperly-api/internal/application/auth"
	"github.com/whisperly-api/internal/pkg/validate"
)

// AuthHandler handles the OTP identity lifecycle endpoints.
type AuthHandler struct {
	svc auth.Service
}

func NewAuthHandler(svc auth.Service) *AuthHandler { return &AuthHandler{svc: svc} }

type sendOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type verifyOTPRequest struct {
	Email    string `json:"email" validate:"required,email"`
	OTP      string `json:"otp" validate:"required"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type resetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	OTP         string `json:"otp" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8,max=72"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (h *AuthHandler) SendOTP(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeValid[sendOTPRequest](w, r)
	if !ok {
		return
	}
	if err := h.svc.SendOTP(r.Context(), req.Email); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "OTP sent"})
}

func (h *AuthHandler) ResendOTP(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeValid[sendOTPRequest](w, r)
	if !ok {
		return
	}
	if err := h.svc.ResendOTP(r.Context(), req.Email); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "New OTP sent successfully"})
}

func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeValid[verifyOTPRequest](w, r)
	if !ok {
		return
	}
	token, err := h.svc.VerifyOTP(r.Context(), req.Email, req.OTP, req.Password)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, TokenEnvelope{Token: token})
}

func (h *AuthHandler) SendResetOTP(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeValid[sendOTPRequest](w, r)
	if !ok {
		return
	}
	if err := h.svc.SendResetOTP(r.Context(), req.Email); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "Reset OTP sent successfully"})
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeValid[resetPasswordRequest](w, r)
	if !ok {
		return
	}
	if err := h.svc.ResetPassword(r.Context(), req.Email, req.OTP, req.NewPassword); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "Password reset successful"})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeValid[loginRequest](w, r)
	if !ok {
		return
	}
	token, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, TokenEnvelope{Token: token})
}

// decodeValid decodes the JSON body into T and runs struct validation,
// writing a 400 and returning ok=false on any failure.
func decodeValid[T any](w http.ResponseWriter, r *http.Request) (T, bool) {
	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return req, false
	}
	if err := validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return req, false
	}
	return req, true
}
