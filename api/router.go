// Package api exposes the HTTP surface: Google sign-in, Drive file
// proxying, the site registry and QR label generation.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/fieldops/siteqr/audit"
	"github.com/fieldops/siteqr/drive"
	"github.com/fieldops/siteqr/label"
	"github.com/fieldops/siteqr/store"
)

// Server holds the dependencies for all HTTP handlers.
type Server struct {
	Sites     *store.SiteStore
	Sessions  *store.SessionStore
	Drive     drive.Factory
	Auth      *drive.Authenticator
	Composer  *label.Composer
	Audit     *audit.Sender
	Log       *slog.Logger
	Version   string
	StartTime time.Time

	QRCodesDir        string
	PublicBaseURL     string
	FrontendOrigin    string
	TemplatesFolderID string
	SessionTTL        time.Duration
}

// NewRouter returns a fully configured chi router with all API routes.
func NewRouter(s *Server) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(corsMiddleware(s.FrontendOrigin))
	r.Use(requestLogger(s.Log))

	// Public surface
	r.Get("/", s.handleIndex)
	r.Get("/api/status", s.handleStatus)
	r.Get("/auth/google", s.handleAuthGoogle)
	r.Get("/auth/google/callback", s.handleAuthCallback)
	r.Get("/auth/status", s.handleAuthStatus)
	r.Get("/auth/logout", s.handleAuthLogout)
	r.Get("/qrcodes/{filename}", s.handleQRCodeFile)

	// Everything else under /api requires a session.
	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)

		// Drive proxy
		r.Get("/api/files", s.handleListFiles)
		r.Post("/api/files", s.handleCreateFile)
		r.Post("/api/files/upload", s.handleUploadFile)
		r.Get("/api/files/{fileID}", s.handleGetFile)
		r.Get("/api/files/{fileID}/content", s.handleFileContent)
		r.Put("/api/files/{fileID}", s.handleUpdateFile)
		r.Delete("/api/files/{fileID}", s.handleDeleteFile)
		r.Post("/api/folders", s.handleCreateFolder)
		r.Post("/api/share", s.handleShare)

		// QR labels
		r.Post("/api/generate_qr", s.handleGenerateQR)

		// Templates (JSON documents in the configured Drive folder)
		r.Get("/api/templates", s.handleListTemplates)
		r.Post("/api/templates", s.handleCreateTemplate)
		r.Get("/api/templates/{templateID}", s.handleGetTemplate)
		r.Put("/api/templates/{templateID}", s.handleUpdateTemplate)
		r.Delete("/api/templates/{templateID}", s.handleDeleteTemplate)

		// Site registry
		r.Get("/api/sites", s.handleListSites)
		r.Post("/api/sites", s.handleCreateSite)
		r.Get("/api/sites/{siteID}", s.handleGetSite)
		r.Put("/api/sites/{siteID}", s.handleUpdateSite)
		r.Delete("/api/sites/{siteID}", s.handleDeleteSite)
	})

	return r
}

// --- helpers ----------------------------------------------------------------

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// --- middleware --------------------------------------------------------------

func corsMiddleware(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Allow-Credentials", "true")

			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.Debug("http request", "method", r.Method, "path", r.URL.Path, "remote", r.RemoteAddr)
			next.ServeHTTP(w, r)
		})
	}
}

// --- session context ---------------------------------------------------------

type ctxKey int

const sessionKey ctxKey = 0

// requireAuth resolves the session cookie and rejects the request when no
// valid session exists.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(sessionCookieName)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Authentication required. Please sign in.")
			return
		}
		sess, err := s.Sessions.Get(cookie.Value)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Authentication required. Please sign in.")
			return
		}
		ctx := context.WithValue(r.Context(), sessionKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func sessionFromContext(ctx context.Context) *store.Session {
	sess, _ := ctx.Value(sessionKey).(*store.Session)
	return sess
}
