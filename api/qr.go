package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/fieldops/siteqr/label"
)

type generateQRRequest struct {
	SiteName    string `json:"site_name"`
	Location    string `json:"location"`
	ResourceURL string `json:"resource_url"`
}

type generateQRResponse struct {
	QRID     string `json:"qr_id"`
	Filename string `json:"filename"`
	QRURL    string `json:"qr_url"`
}

// handleGenerateQR composes a standalone label for an arbitrary resource
// URL and stores it in the qrcodes directory.
func (s *Server) handleGenerateQR(w http.ResponseWriter, r *http.Request) {
	var req generateQRRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.SiteName == "" {
		writeError(w, http.StatusBadRequest, "site_name is required")
		return
	}
	if req.ResourceURL == "" {
		writeError(w, http.StatusBadRequest, "resource_url is required")
		return
	}

	rendered, err := s.Composer.Compose(req.ResourceURL, req.SiteName, req.Location)
	if err != nil {
		if errors.Is(err, label.ErrEncode) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.Log.Error("label composition failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to compose label")
		return
	}
	if _, err := rendered.Save(s.QRCodesDir); err != nil {
		s.Log.Error("label save failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to store label")
		return
	}

	writeJSON(w, http.StatusOK, generateQRResponse{
		QRID:     rendered.ID,
		Filename: rendered.Filename,
		QRURL:    s.PublicBaseURL + "/qrcodes/" + rendered.Filename,
	})
}

// handleQRCodeFile serves a stored label PNG. The filename is constrained
// to a bare {id}.png so the handler can never walk out of the directory.
func (s *Server) handleQRCodeFile(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	if filename != filepath.Base(filename) || !strings.HasSuffix(filename, ".png") {
		writeError(w, http.StatusBadRequest, "invalid filename")
		return
	}
	path := filepath.Join(s.QRCodesDir, filename)
	w.Header().Set("Content-Type", "image/png")
	http.ServeFile(w, r, path)
}
