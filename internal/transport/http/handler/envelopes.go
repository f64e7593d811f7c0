package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/whisperly-api/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// TokenEnvelope wraps verify-otp and login responses.
type TokenEnvelope struct {
	Token string `json:"token"`
}

// ReactionEnvelope wraps reaction toggle responses.
type ReactionEnvelope struct {
	Message    string          `json:"message"`
	Confession *ConfessionView `json:"confession"`
}

// ReplyEnvelope wraps reply responses with the full updated reply list.
type ReplyEnvelope struct {
	Message string         `json:"message"`
	Replies []domain.Reply `json:"replies"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

// httpError maps wrapped sentinel errors to HTTP statuses. Unexpected errors
// are logged and surfaced as an opaque 500 so storage and mail failures never
// leak to callers.
func httpError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrBadRequest), errors.Is(err, domain.ErrCooldown):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	default:
		slog.Error("unexpected error", "err", err)
		writeError(w, http.StatusInternalServerError, "server error")
	}
}
