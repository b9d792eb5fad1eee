// Package auth implements the Google OAuth login flow and the bearer
// session tokens protecting the download endpoints.
package auth

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"ytclip-server/internal/config"
)

const (
	userinfoEndpoint = "https://www.googleapis.com/oauth2/v2/userinfo"
	sessionCookie    = "session_token"
)

// Service wires the OAuth flow, the session store and token signing.
type Service struct {
	cfg   *config.Config
	oauth *oauth2.Config
	store sessionStore
}

func NewService(cfg *config.Config) *Service {
	return &Service{
		cfg: cfg,
		oauth: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURI,
			Scopes: []string{
				"https://www.googleapis.com/auth/youtube.readonly",
				"https://www.googleapis.com/auth/userinfo.profile",
				"https://www.googleapis.com/auth/userinfo.email",
			},
			Endpoint: google.Endpoint,
		},
	}
}

// HandleLogin starts the OAuth dance: GET /auth/google
func (s *Service) HandleLogin(w http.ResponseWriter, r *http.Request) {
	if !s.cfg.OAuthConfigured() {
		writeAuthError(w, http.StatusInternalServerError, "OAuth is not configured", "")
		return
	}

	s.store.pruneStates()
	state := uuid.New().String()
	s.store.putState(state)

	http.Redirect(w, r, s.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline), http.StatusFound)
}

type googleProfile struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// HandleCallback finishes the dance: GET /auth/google/callback
func (s *Service) HandleCallback(w http.ResponseWriter, r *http.Request) {
	if errMsg := r.URL.Query().Get("error"); errMsg != "" {
		writeAuthError(w, http.StatusUnauthorized, "Google login refused", errMsg)
		return
	}

	state := r.URL.Query().Get("state")
	if !s.store.consumeState(state) {
		writeAuthError(w, http.StatusBadRequest, "Invalid or expired login state", "")
		return
	}

	code := r.URL.Query().Get("code")
	token, err := s.oauth.Exchange(r.Context(), code)
	if err != nil {
		log.Printf("❌ OAuth exchange failed: %v", err)
		writeAuthError(w, http.StatusUnauthorized, "Code exchange failed", err.Error())
		return
	}

	profile, err := s.fetchProfile(r, token)
	if err != nil {
		log.Printf("❌ Userinfo fetch failed: %v", err)
		writeAuthError(w, http.StatusBadGateway, "Could not fetch user profile", err.Error())
		return
	}

	_, signed, err := s.CreateSession(profile.ID, profile.Email, profile.Name, profile.Picture, token.AccessToken)
	if err != nil {
		writeAuthError(w, http.StatusInternalServerError, "Could not issue session token", err.Error())
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    signed,
		Path:     "/",
		Domain:   s.cfg.CookieDomain,
		Secure:   s.cfg.CookieSecure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(s.cfg.SessionTTL),
	})

	log.Printf("🔐 Logged in %s", profile.Email)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"token":   signed,
		"user": map[string]string{
			"id":    profile.ID,
			"email": profile.Email,
			"name":  profile.Name,
		},
	})
}

// CreateSession registers a logged-in user and signs a session token
// for them.
func (s *Service) CreateSession(userID, email, name, picture, accessToken string) (*Session, string, error) {
	session := &Session{
		ID:          uuid.New().String(),
		UserID:      userID,
		Email:       email,
		Name:        name,
		Picture:     picture,
		AccessToken: accessToken,
		CreatedAt:   time.Now(),
	}
	s.store.putSession(session)

	signed, err := s.IssueToken(session)
	if err != nil {
		s.store.deleteSession(session.ID)
		return nil, "", err
	}
	return session, signed, nil
}

func (s *Service) fetchProfile(r *http.Request, token *oauth2.Token) (*googleProfile, error) {
	client := s.oauth.Client(r.Context(), token)
	resp, err := client.Get(userinfoEndpoint)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo returned %d", resp.StatusCode)
	}

	var profile googleProfile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// HandleStatus reports whether the caller is logged in: GET /auth/status
func (s *Service) HandleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	session, err := s.SessionFromRequest(r)
	if err != nil {
		json.NewEncoder(w).Encode(map[string]bool{"authenticated": false})
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"authenticated": true,
		"user": map[string]string{
			"id":          session.UserID,
			"displayName": session.Name,
			"email":       session.Email,
		},
	})
}

// HandleVerifyToken validates a bearer token: GET /auth/verify-token
func (s *Service) HandleVerifyToken(w http.ResponseWriter, r *http.Request) {
	session, err := s.SessionFromRequest(r)
	if err != nil {
		status, tag := classify(err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]string{
			"error": "Token verification failed",
			"type":  tag,
		})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"valid": true,
		"user": map[string]string{
			"id":    session.UserID,
			"email": session.Email,
			"name":  session.Name,
		},
	})
}

// HandleLogout drops the caller's session: GET /auth/logout
func (s *Service) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if session, err := s.SessionFromRequest(r); err == nil {
		s.store.deleteSession(session.ID)
		log.Printf("👋 Logged out %s", session.Email)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		Domain:   s.cfg.CookieDomain,
		Secure:   s.cfg.CookieSecure,
		HttpOnly: true,
		MaxAge:   -1,
	})
	http.Redirect(w, r, "/", http.StatusFound)
}

func writeAuthError(w http.ResponseWriter, status int, msg, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	body := map[string]string{"error": msg}
	if detail != "" {
		body["details"] = detail
	}
	json.NewEncoder(w).Encode(body)
}
