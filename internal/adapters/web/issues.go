package web

import (
	"net/http"

	"library-api/internal/app"

	"github.com/go-chi/chi/v5"
)

// issueBook handles POST /issues/{book_id}?user_id=&days=.
// user_id defaults to the caller and days to the standard loan period.
func (h *Handler) issueBook(w http.ResponseWriter, r *http.Request) {
	days, ok := queryInt(w, r, "days")
	if !ok {
		return
	}
	if r.URL.Query().Has("days") && days == 0 {
		writeError(w, r, "days must be between 1 and 365", "VALIDATION", http.StatusBadRequest)
		return
	}
	req := app.IssueBookRequest{
		BookID: chi.URLParam(r, "book_id"),
		UserID: r.URL.Query().Get("user_id"),
		Days:   days,
	}
	res, err := h.svc.IssueBook(r.Context(), actorFromContext(r.Context()), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, res)
}

// returnBook handles POST /issues/return/{issue_id}.
func (h *Handler) returnBook(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.ReturnBook(r.Context(), actorFromContext(r.Context()), chi.URLParam(r, "issue_id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, res)
}

func (h *Handler) getIssue(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.GetIssue(r.Context(), actorFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, res)
}

// listIssues handles GET /issues?user_id=&returned=&limit=&offset=.
func (h *Handler) listIssues(w http.ResponseWriter, r *http.Request) {
	p, ok := page(w, r)
	if !ok {
		return
	}
	returned, ok := queryBool(w, r, "returned")
	if !ok {
		return
	}
	req := app.ListIssuesRequest{
		UserID:   r.URL.Query().Get("user_id"),
		Returned: returned,
		Page:     p,
	}
	res, err := h.svc.ListIssues(r.Context(), actorFromContext(r.Context()), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, res)
}
