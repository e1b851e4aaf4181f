package web

import (
	"net/http"

	"library-api/internal/app"
)

// listLogs handles GET /logs?event_type=&limit=&offset=. Admin only.
func (h *Handler) listLogs(w http.ResponseWriter, r *http.Request) {
	p, ok := page(w, r)
	if !ok {
		return
	}
	req := app.ListLogsRequest{EventType: r.URL.Query().Get("event_type"), Page: p}
	res, err := h.svc.ListLogs(r.Context(), actorFromContext(r.Context()), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, res)
}
