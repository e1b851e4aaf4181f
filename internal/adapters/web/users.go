package web

import (
	"net/http"

	"library-api/internal/app"
)

// register handles POST /users. Anyone may create a reader account.
func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req app.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.svc.Register(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, res)
}

func (h *Handler) getMe(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.GetMe(r.Context(), actorFromContext(r.Context()))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, res)
}

func (h *Handler) updateMe(w http.ResponseWriter, r *http.Request) {
	var req app.UpdateMeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.svc.UpdateMe(r.Context(), actorFromContext(r.Context()), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, res)
}

func (h *Handler) deleteMe(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteMe(r.Context(), actorFromContext(r.Context())); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// listUsers handles GET /users. Admin only.
func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	p, ok := page(w, r)
	if !ok {
		return
	}
	res, err := h.svc.ListUsers(r.Context(), actorFromContext(r.Context()), p)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, res)
}
