package web

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// tokenMatches compares in constant time.
func tokenMatches(expected, got string) bool {
	return subtle.ConstantTimeCompare([]byte(expected), []byte(got)) == 1
}

// bearerAuth requires "Authorization: Bearer <refresh token>". A server
// without a configured token rejects every request.
func (s *Server) bearerAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.opts.RefreshToken == "" {
			s.writeError(w, http.StatusInternalServerError, "REFRESH_TOKEN not configured on server.")
			return
		}
		auth := r.Header.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			s.writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if !tokenMatches(s.opts.RefreshToken, strings.TrimPrefix(auth, "Bearer ")) {
			s.writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}
