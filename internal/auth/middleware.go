package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// Machine-readable tags so the client can tell "log in again" from a
// permanently bad credential.
const (
	TagAuthRequired = "auth_required"
	TagTokenExpired = "token_expired"
)

// SessionFromRequest resolves the caller's session from the bearer
// header or the session cookie.
func (s *Service) SessionFromRequest(r *http.Request) (*Session, error) {
	token := bearerToken(r)
	if token == "" {
		if cookie, err := r.Cookie(sessionCookie); err == nil {
			token = cookie.Value
		}
	}

	claims, err := s.VerifyToken(token)
	if err != nil {
		return nil, err
	}

	session, ok := s.store.getSession(claims.SessionID)
	if !ok {
		// Token outlived the process or an explicit logout.
		return nil, ErrTokenExpired
	}
	return session, nil
}

// RequireAuth rejects unauthenticated callers with a tagged 401.
func (s *Service) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := s.SessionFromRequest(r); err != nil {
			status, tag := classify(err)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			json.NewEncoder(w).Encode(map[string]string{
				"error": "Authentication required",
				"type":  tag,
			})
			return
		}
		next(w, r)
	}
}

func classify(err error) (int, string) {
	if errors.Is(err, ErrTokenExpired) {
		return http.StatusUnauthorized, TagTokenExpired
	}
	return http.StatusUnauthorized, TagAuthRequired
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
