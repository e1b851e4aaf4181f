package web

import (
	"net/http"

	"library-api/internal/app"

	"github.com/go-chi/chi/v5"
)

// listBooks handles GET /books?author_id=&genre=&limit=&offset=.
func (h *Handler) listBooks(w http.ResponseWriter, r *http.Request) {
	p, ok := page(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	req := app.ListBooksRequest{
		AuthorID: q.Get("author_id"),
		Genre:    q.Get("genre"),
		Page:     p,
	}
	res, err := h.svc.ListBooks(r.Context(), actorFromContext(r.Context()), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, res)
}

func (h *Handler) getBook(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.GetBook(r.Context(), actorFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, res)
}

func (h *Handler) createBook(w http.ResponseWriter, r *http.Request) {
	var req app.CreateBookRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.svc.CreateBook(r.Context(), actorFromContext(r.Context()), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, res)
}

func (h *Handler) updateBook(w http.ResponseWriter, r *http.Request) {
	var req app.UpdateBookRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.svc.UpdateBook(r.Context(), actorFromContext(r.Context()), chi.URLParam(r, "id"), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, res)
}

func (h *Handler) deleteBook(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteBook(r.Context(), actorFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
