package handler

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/whisperly-api/internal/application/confession"
	"github.com/whisperly-api/internal/transport/http/middleware"
)

// ConfessionHandler handles the public feed and the authenticated
// post/react/reply endpoints.
type ConfessionHandler struct {
	svc confession.Service
}

func NewConfessionHandler(svc confession.Service) *ConfessionHandler {
	return &ConfessionHandler{svc: svc}
}

type createConfessionRequest struct {
	Text string `json:"text" validate:"required"`
}

type reactRequest struct {
	Type string `json:"type" validate:"required"`
}

type replyRequest struct {
	ConfessionID string `json:"confessionId" validate:"required"`
	Text         string `json:"text" validate:"required"`
}

func (h *ConfessionHandler) List(w http.ResponseWriter, r *http.Request) {
	confessions, err := h.svc.ListRecent(r.Context())
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

func (h *ConfessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	ident, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	req, ok := decodeValid[createConfessionRequest](w, r)
	if !ok {
		return
	}
	c, err := h.svc.Create(r.Context(), ident.UserID, req.Text)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toConfessionView(c))
}

func (h *ConfessionHandler) React(w http.ResponseWriter, r *http.Request) {
	ident, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	req, ok := decodeValid[reactRequest](w, r)
	if !ok {
		return
	}
	c, added, err := h.svc.React(r.Context(), chi.URLParam(r, "id"), req.Type, ident.UserID)
	if err != nil {
		httpError(w, err)
		return
	}
	verb := "Removed"
	if added {
		verb = "Added"
	}
	writeJSON(w, http.StatusOK, ReactionEnvelope{
		Message:    fmt.Sprintf("%s %s reaction", verb, req.Type),
		Confession: toConfessionView(c),
	})
}

func (h *ConfessionHandler) Reply(w http.ResponseWriter, r *http.Request) {
	ident, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	req, ok := decodeValid[replyRequest](w, r)
	if !ok {
		return
	}
	c, err := h.svc.Reply(r.Context(), req.ConfessionID, req.Text, ident.Email)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ReplyEnvelope{
		Message: "Reply added successfully!",
		Replies: toConfessionView(c).Replies,
	})
}
