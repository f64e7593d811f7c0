package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	adminapp "github.com/whisperly-api/internal/application/admin"
)

// AdminHandler handles admin list/delete endpoints. Role enforcement lives in
// the router; by the time a request lands here the caller is a resolved admin.
type AdminHandler struct {
	svc adminapp.Service
}

func NewAdminHandler(svc adminapp.Service) *AdminHandler { return &AdminHandler{svc: svc} }

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.ListUsers(r.Context())
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *AdminHandler) ListConfessions(w http.ResponseWriter, r *http.Request) {
	confessions, err := h.svc.ListConfessions(r.Context())
	if err != nil {
		httpError(w, err)
		return
	}
	views := make([]*ConfessionView, len(confessions))
	for i := range confessions {
		views[i] = toConfessionView(&confessions[i])
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteUser(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "User deleted"})
}

func (h *AdminHandler) DeleteConfession(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteConfession(r.Context(), chi.URLParam(r, "id")); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "Confession deleted"})
}
