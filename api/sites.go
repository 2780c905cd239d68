package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fieldops/siteqr/audit"
	"github.com/fieldops/siteqr/label"
	"github.com/fieldops/siteqr/store"
)

type createSiteRequest struct {
	Name        string `json:"name"`
	Location    string `json:"location"`
	FolderType  string `json:"folder_type"`
	FolderLink  string `json:"folder_link"`
	Description string `json:"description"`
}

func (s *Server) handleListSites(w http.ResponseWriter, r *http.Request) {
	sites, err := s.Sites.List()
	if err != nil {
		s.Log.Error("site list failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list sites")
		return
	}
	if sites == nil {
		sites = []store.Site{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"sites": sites})
}

// handleCreateSite registers a site and, when a folder link is provided,
// renders and stores its QR label.
func (s *Server) handleCreateSite(w http.ResponseWriter, r *http.Request) {
	var req createSiteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	sess := sessionFromContext(r.Context())
	site := &store.Site{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Location:    req.Location,
		FolderType:  req.FolderType,
		FolderLink:  req.FolderLink,
		Description: req.Description,
		CreatedBy:   sess.UserEmail,
	}

	if req.FolderLink != "" {
		rendered, err := s.composeSiteLabel(req.FolderLink, req.Name, req.Location)
		if err != nil {
			if errors.Is(err, label.ErrEncode) {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "failed to compose label")
			return
		}
		site.QRID = rendered.ID
		site.QRURL = s.PublicBaseURL + "/qrcodes/" + rendered.Filename
	}

	if err := s.Sites.Create(site); err != nil {
		s.Log.Error("site create failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create site")
		return
	}

	s.sendAudit("site_created", sess.UserEmail, site.ID, map[string]string{
		"name":     site.Name,
		"location": site.Location,
	})
	writeJSON(w, http.StatusCreated, site)
}

func (s *Server) handleGetSite(w http.ResponseWriter, r *http.Request) {
	site, err := s.Sites.Get(chi.URLParam(r, "siteID"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "site not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load site")
		return
	}
	writeJSON(w, http.StatusOK, site)
}

type updateSiteRequest struct {
	Name        *string `json:"name"`
	Location    *string `json:"location"`
	FolderType  *string `json:"folder_type"`
	FolderLink  *string `json:"folder_link"`
	Description *string `json:"description"`
}

// handleUpdateSite applies a partial update. When the folder link, name or
// location change, the site's label is re-rendered against the new values.
func (s *Server) handleUpdateSite(w http.ResponseWriter, r *http.Request) {
	siteID := chi.URLParam(r, "siteID")

	var req updateSiteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Name != nil && *req.Name == "" {
		writeError(w, http.StatusBadRequest, "name cannot be empty")
		return
	}

	upd := store.SiteUpdate{
		Name:        req.Name,
		Location:    req.Location,
		FolderType:  req.FolderType,
		FolderLink:  req.FolderLink,
		Description: req.Description,
	}
	if err := s.Sites.Update(siteID, upd); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "site not found")
			return
		}
		s.Log.Error("site update failed", "error", err, "site_id", siteID)
		writeError(w, http.StatusInternalServerError, "failed to update site")
		return
	}

	site, err := s.Sites.Get(siteID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load site")
		return
	}

	// Re-render the label when anything encoded on it changed.
	if (req.FolderLink != nil || req.Name != nil || req.Location != nil) && site.FolderLink != "" {
		rendered, err := s.composeSiteLabel(site.FolderLink, site.Name, site.Location)
		if err != nil {
			if errors.Is(err, label.ErrEncode) {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "failed to compose label")
			return
		}
		qrURL := s.PublicBaseURL + "/qrcodes/" + rendered.Filename
		if err := s.Sites.Update(siteID, store.SiteUpdate{QRID: &rendered.ID, QRURL: &qrURL}); err != nil {
			writeError(w, http.StatusInternalServerError, "failed to update site")
			return
		}
		site.QRID = rendered.ID
		site.QRURL = qrURL
	}

	sess := sessionFromContext(r.Context())
	s.sendAudit("site_updated", sess.UserEmail, siteID, nil)
	writeJSON(w, http.StatusOK, site)
}

func (s *Server) handleDeleteSite(w http.ResponseWriter, r *http.Request) {
	siteID := chi.URLParam(r, "siteID")
	if err := s.Sites.Delete(siteID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "site not found")
			return
		}
		s.Log.Error("site delete failed", "error", err, "site_id", siteID)
		writeError(w, http.StatusInternalServerError, "failed to delete site")
		return
	}

	sess := sessionFromContext(r.Context())
	s.sendAudit("site_deleted", sess.UserEmail, siteID, nil)
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// --- helpers ----------------------------------------------------------------

func (s *Server) composeSiteLabel(payload, name, location string) (*label.Rendered, error) {
	rendered, err := s.Composer.Compose(payload, name, location)
	if err != nil {
		if !errors.Is(err, label.ErrEncode) {
			s.Log.Error("label composition failed", "error", err)
		}
		return nil, err
	}
	if _, err := rendered.Save(s.QRCodesDir); err != nil {
		s.Log.Error("label save failed", "error", err)
		return nil, err
	}
	return rendered, nil
}

// sendAudit emits an audit event without letting delivery problems affect
// the request.
func (s *Server) sendAudit(action, actor, siteID string, details any) {
	if err := s.Audit.Send(audit.Event{
		Action:  action,
		Actor:   actor,
		SiteID:  siteID,
		Details: details,
	}); err != nil {
		s.Log.Warn("audit send failed", "error", err, "action", action)
	}
}
