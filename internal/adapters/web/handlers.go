package web

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"library-api/internal/app"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

const maxBodyBytes = 1 << 20

// Handler holds the ApplicationService and the chi router.
type Handler struct {
	svc app.ApplicationService
	log logrus.FieldLogger
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, log logrus.FieldLogger, allowedOrigins string) http.Handler {
	h := &Handler{svc: svc, log: log}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger(log))
	r.Use(Recoverer(log))
	r.Use(CORS(allowedOrigins))
	r.Use(RequestBodyLimit(maxBodyBytes))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, "route not found", "NOT_FOUND", http.StatusNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, "method not allowed", "METHOD_NOT_ALLOWED", http.StatusMethodNotAllowed)
	})

	// Public
	r.Get("/health", h.health)
	r.Post("/auth/token", h.token)
	r.Get("/auth/verify", h.verify)
	r.Post("/users", h.register)

	r.Group(func(r chi.Router) {
		r.Use(h.RequireAuth)

		r.Get("/users", h.listUsers)
		r.Get("/users/me", h.getMe)
		r.Put("/users/me", h.updateMe)
		r.Patch("/users/me", h.updateMe)
		r.Delete("/users/me", h.deleteMe)

		r.Route("/authors", func(r chi.Router) {
			r.Get("/", h.listAuthors)
			r.Post("/", h.createAuthor)
			r.Get("/{id}", h.getAuthor)
			r.Patch("/{id}", h.updateAuthor)
			r.Delete("/{id}", h.deleteAuthor)
		})

		r.Route("/books", func(r chi.Router) {
			r.Get("/", h.listBooks)
			r.Post("/", h.createBook)
			r.Get("/{id}", h.getBook)
			r.Put("/{id}", h.updateBook)
			r.Delete("/{id}", h.deleteBook)
		})

		r.Route("/issues", func(r chi.Router) {
			r.Get("/", h.listIssues)
			r.Get("/{id}", h.getIssue)
			r.Post("/{book_id}", h.issueBook)
			r.Post("/return/{issue_id}", h.returnBook)
		})

		r.Get("/logs", h.listLogs)
	})

	return r
}

// health reports service status and store reachability.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	type response struct {
		Status string `json:"status"`
	}
	if err := h.svc.Health(r.Context()); err != nil {
		requestLogger(h.log, r).WithField("error", err.Error()).Warn("health check failed")
		writeJSONStatus(w, http.StatusServiceUnavailable, response{Status: "unavailable"})
		return
	}
	writeJSON(w, response{Status: "ok"})
}

// decodeJSON decodes the request body into v and returns false + writes an appropriate
// error response on failure. Returns HTTP 413 when the body exceeds the size limit set
// by RequestBodyLimit middleware; HTTP 400 for all other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "could not read request body", "VALIDATION", http.StatusBadRequest)
		return false
	}
	if err := json.Unmarshal(body, v); err != nil {
		writeError(w, r, "invalid JSON body", "VALIDATION", http.StatusBadRequest)
		return false
	}
	return true
}

// page reads limit and offset query parameters.
func page(w http.ResponseWriter, r *http.Request) (app.Page, bool) {
	limit, ok := queryInt(w, r, "limit")
	if !ok {
		return app.Page{}, false
	}
	offset, ok := queryInt(w, r, "offset")
	if !ok {
		return app.Page{}, false
	}
	return app.Page{Limit: limit, Offset: offset}, true
}

func queryInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, r, name+" must be an integer", "VALIDATION", http.StatusBadRequest)
		return 0, false
	}
	return n, true
}

func queryBool(w http.ResponseWriter, r *http.Request, name string) (*bool, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, true
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		writeError(w, r, name+" must be true or false", "VALIDATION", http.StatusBadRequest)
		return nil, false
	}
	return &b, true
}
