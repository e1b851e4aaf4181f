package web

import (
	"context"
	"net/http"
	"strings"

	"library-api/internal/core"
)

type actorKey struct{}

// actorFromContext returns the authenticated user stored in ctx, or nil.
func actorFromContext(ctx context.Context) *core.User {
	v, _ := ctx.Value(actorKey{}).(*core.User)
	return v
}

// bearerToken extracts the token from an "Authorization: Bearer <token>" header.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// RequireAuth is chi middleware that resolves the bearer token to a user and
// injects it into the request context. Returns 401 if the token is absent or invalid.
func (h *Handler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := h.svc.Authenticate(r.Context(), bearerToken(r))
		if err != nil {
			w.Header().Set("WWW-Authenticate", "Bearer")
			h.writeServiceError(w, r, err)
			return
		}
		ctx := context.WithValue(r.Context(), actorKey{}, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// token handles POST /auth/token. It accepts a JSON body {email, password} or
// a form body with username (the email) and password.
func (h *Handler) token(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			writeError(w, r, "invalid form body", "VALIDATION", http.StatusBadRequest)
			return
		}
		req.Email = r.PostForm.Get("username")
		req.Password = r.PostForm.Get("password")
	} else if !decodeJSON(w, r, &req) {
		return
	}

	tok, err := h.svc.IssueToken(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, tok)
}

// verify handles GET /auth/verify. The subject is returned in the X-User-Id header.
func (h *Handler) verify(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.VerifyToken(r.Context(), bearerToken(r))
	if err != nil {
		w.Header().Set("WWW-Authenticate", "Bearer")
		h.writeServiceError(w, r, err)
		return
	}
	w.Header().Set("X-User-Id", res.UserID.String())
	writeJSON(w, res)
}
