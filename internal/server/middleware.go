package server

import (
	"context"
	"net/http"
	"strings"

	"linecheck/internal/model"
)

type contextKey int

const userKey contextKey = iota

// requireUser resolves the bearer token to a user and stores it in the
// request context. Requests without a valid session get 401.
func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		user, err := s.identity.Authenticate(r.Context(), token)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		ctx := context.WithValue(r.Context(), userKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, prefix))
}

func userFrom(r *http.Request) *model.User {
	user, _ := r.Context().Value(userKey).(*model.User)
	return user
}
