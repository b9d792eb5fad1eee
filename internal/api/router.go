package api

import (
	"net/http"

	"ytclip-server/internal/auth"
)

// NewRouter setup routes and apply global middleware
func NewRouter(h *Handler, authSvc *auth.Service) http.Handler {
	mux := http.NewServeMux()

	// Protected pipeline endpoints
	mux.HandleFunc("/api/download-oauth", authSvc.RequireAuth(h.Download))
	mux.HandleFunc("/api/info-oauth", authSvc.RequireAuth(h.VideoInfo))
	mux.HandleFunc("/api/formats-oauth", authSvc.RequireAuth(h.Formats))

	// Open endpoints
	mux.HandleFunc("/api/progress", h.Progress)
	mux.HandleFunc("/api/progress/", h.Progress)
	mux.HandleFunc("/api/health", h.Health)

	// Retired pre-OAuth routes, kept as fixed 401s
	mux.HandleFunc("/api/download", h.Retired)
	mux.HandleFunc("/api/info", h.Retired)

	// OAuth flow
	mux.HandleFunc("/auth/google", authSvc.HandleLogin)
	mux.HandleFunc("/auth/google/callback", authSvc.HandleCallback)
	mux.HandleFunc("/auth/logout", authSvc.HandleLogout)
	mux.HandleFunc("/auth/status", authSvc.HandleStatus)
	mux.HandleFunc("/auth/verify-token", authSvc.HandleVerifyToken)

	// Wrap everything with our robust CORS logic
	return CORSMiddleware(NoCacheMiddleware(mux))
}
