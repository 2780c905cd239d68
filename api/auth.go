package api

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/fieldops/siteqr/drive"
	"github.com/fieldops/siteqr/store"
)

const sessionCookieName = "sid"

// handleAuthGoogle starts the sign-in flow by redirecting the browser to
// the Google consent page.
func (s *Server) handleAuthGoogle(w http.ResponseWriter, r *http.Request) {
	url, err := s.Auth.AuthURL()
	if err != nil {
		s.Log.Error("auth url generation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to start sign-in")
		return
	}
	http.Redirect(w, r, url, http.StatusFound)
}

// handleAuthCallback completes the flow: validates state, exchanges the
// code, resolves the user's identity from Drive and creates a session.
func (s *Server) handleAuthCallback(w http.ResponseWriter, r *http.Request) {
	if errMsg := r.URL.Query().Get("error"); errMsg != "" {
		writeError(w, http.StatusBadRequest, "authorization denied: "+errMsg)
		return
	}
	state := r.URL.Query().Get("state")
	if !s.Auth.Consume(state) {
		writeError(w, http.StatusBadRequest, "invalid or expired state")
		return
	}
	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "missing authorization code")
		return
	}

	tok, err := s.Auth.Exchange(r.Context(), code)
	if err != nil {
		s.Log.Error("token exchange failed", "error", err)
		writeError(w, http.StatusBadGateway, "token exchange failed")
		return
	}

	svc, err := s.Drive.Service(r.Context(), tok)
	if err != nil {
		s.Log.Error("drive client build failed", "error", err)
		writeError(w, http.StatusBadGateway, "drive unavailable")
		return
	}
	user, err := svc.About(r.Context())
	if err != nil {
		s.Log.Error("drive about failed", "error", err)
		writeError(w, http.StatusBadGateway, "could not resolve user identity")
		return
	}

	tokJSON, err := json.Marshal(tok)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to persist session")
		return
	}
	sid, err := newSessionID()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}
	sess := &store.Session{
		ID:               sid,
		TokenJSON:        string(tokJSON),
		UserName:         user.Name,
		UserEmail:        user.Email,
		UserPermissionID: user.PermissionID,
	}
	if err := s.Sessions.Create(sess, s.SessionTTL); err != nil {
		s.Log.Error("session create failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    sid,
		Path:     "/",
		MaxAge:   int(s.SessionTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	s.Log.Info("user signed in", "email", user.Email)
	http.Redirect(w, r, s.FrontendOrigin, http.StatusFound)
}

// handleAuthStatus reports whether the caller holds a valid session.
func (s *Server) handleAuthStatus(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(sessionCookieName)
	if err == nil {
		if sess, err := s.Sessions.Get(cookie.Value); err == nil {
			writeJSON(w, http.StatusOK, map[string]any{
				"authenticated": true,
				"user": map[string]string{
					"name":  sess.UserName,
					"email": sess.UserEmail,
				},
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"authenticated": false})
}

// handleAuthLogout drops the session and clears the cookie.
func (s *Server) handleAuthLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookieName); err == nil {
		if err := s.Sessions.Delete(cookie.Value); err != nil {
			s.Log.Warn("session delete failed", "error", err)
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

// --- helpers ----------------------------------------------------------------

// driveService builds a Drive client acting as the request's session user.
func (s *Server) driveService(r *http.Request) (drive.Service, error) {
	sess := sessionFromContext(r.Context())
	if sess == nil {
		return nil, fmt.Errorf("no session in context")
	}
	var tok oauth2.Token
	if err := json.Unmarshal([]byte(sess.TokenJSON), &tok); err != nil {
		return nil, fmt.Errorf("decode session token: %w", err)
	}
	return s.Drive.Service(r.Context(), &tok)
}

func newSessionID() (string, error) {
	var b [32]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}
	return hex.EncodeToString(b[:]), nil
}
