package web

import (
	"net/http"

	"library-api/internal/app"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) listAuthors(w http.ResponseWriter, r *http.Request) {
	p, ok := page(w, r)
	if !ok {
		return
	}
	res, err := h.svc.ListAuthors(r.Context(), actorFromContext(r.Context()), p)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, res)
}

func (h *Handler) getAuthor(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.GetAuthor(r.Context(), actorFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, res)
}

func (h *Handler) createAuthor(w http.ResponseWriter, r *http.Request) {
	var req app.CreateAuthorRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.svc.CreateAuthor(r.Context(), actorFromContext(r.Context()), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, res)
}

func (h *Handler) updateAuthor(w http.ResponseWriter, r *http.Request) {
	var req app.UpdateAuthorRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.svc.UpdateAuthor(r.Context(), actorFromContext(r.Context()), chi.URLParam(r, "id"), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, res)
}

func (h *Handler) deleteAuthor(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteAuthor(r.Context(), actorFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
