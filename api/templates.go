package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/fieldops/siteqr/drive"
)

// Templates are JSON documents stored as files in a designated Drive
// folder. Each document carries a "version" field bumped on every update.

func (s *Server) templatesFolder(w http.ResponseWriter) (string, bool) {
	if s.TemplatesFolderID == "" {
		writeError(w, http.StatusServiceUnavailable, "templates folder not configured")
		return "", false
	}
	return s.TemplatesFolderID, true
}

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	folderID, ok := s.templatesFolder(w)
	if !ok {
		return
	}
	svc, err := s.driveService(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	query := fmt.Sprintf("'%s' in parents and mimeType = 'application/json' and trashed = false", folderID)
	files, err := svc.ListFiles(r.Context(), query, defaultPageSize)
	if err != nil {
		s.Log.Error("template list failed", "error", err)
		writeError(w, http.StatusBadGateway, "failed to list templates")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"templates": files})
}

type createTemplateRequest struct {
	Name    string         `json:"name"`
	Content map[string]any `json:"content"`
}

func (s *Server) handleCreateTemplate(w http.ResponseWriter, r *http.Request) {
	folderID, ok := s.templatesFolder(w)
	if !ok {
		return
	}

	var req createTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.Content == nil {
		req.Content = map[string]any{}
	}
	req.Content["version"] = "1.0"

	body, err := json.Marshal(req.Content)
	if err != nil {
		writeError(w, http.StatusBadRequest, "content is not serializable")
		return
	}

	svc, err := s.driveService(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	name := req.Name
	if !strings.HasSuffix(name, ".json") {
		name += ".json"
	}
	file, err := svc.CreateFile(r.Context(), name, "application/json", folderID, bytes.NewReader(body))
	if err != nil {
		s.Log.Error("template create failed", "error", err, "name", name)
		writeError(w, http.StatusBadGateway, "failed to create template")
		return
	}
	writeJSON(w, http.StatusCreated, file)
}

func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.templatesFolder(w); !ok {
		return
	}
	svc, err := s.driveService(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	content, err := s.readTemplate(r, svc, chi.URLParam(r, "templateID"))
	if err != nil {
		writeError(w, http.StatusNotFound, "template not found")
		return
	}
	writeJSON(w, http.StatusOK, content)
}

type updateTemplateRequest struct {
	Content map[string]any `json:"content"`
}

// handleUpdateTemplate replaces the document body, carrying the version
// forward with its minor component bumped.
func (s *Server) handleUpdateTemplate(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.templatesFolder(w); !ok {
		return
	}

	var req updateTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Content == nil {
		writeError(w, http.StatusBadRequest, "content is required")
		return
	}

	svc, err := s.driveService(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	templateID := chi.URLParam(r, "templateID")
	current, err := s.readTemplate(r, svc, templateID)
	if err != nil {
		writeError(w, http.StatusNotFound, "template not found")
		return
	}
	version, _ := current["version"].(string)
	req.Content["version"] = bumpVersion(version)

	body, err := json.Marshal(req.Content)
	if err != nil {
		writeError(w, http.StatusBadRequest, "content is not serializable")
		return
	}
	file, err := svc.UpdateFileContent(r.Context(), templateID, "application/json", bytes.NewReader(body))
	if err != nil {
		s.Log.Error("template update failed", "error", err, "template_id", templateID)
		writeError(w, http.StatusBadGateway, "failed to update template")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"file":    file,
		"version": req.Content["version"],
	})
}

func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.templatesFolder(w); !ok {
		return
	}
	svc, err := s.driveService(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	templateID := chi.URLParam(r, "templateID")
	if err := svc.DeleteFile(r.Context(), templateID); err != nil {
		s.Log.Error("template delete failed", "error", err, "template_id", templateID)
		writeError(w, http.StatusBadGateway, "failed to delete template")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// --- helpers ----------------------------------------------------------------

func (s *Server) readTemplate(r *http.Request, svc drive.Service, id string) (map[string]any, error) {
	body, err := svc.Download(r.Context(), id)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	var content map[string]any
	if err := json.Unmarshal(data, &content); err != nil {
		return nil, fmt.Errorf("template %s is not valid JSON: %w", id, err)
	}
	return content, nil
}

// bumpVersion increments the minor component of a "major.minor" version
// string. Unparseable versions restart at 1.1.
func bumpVersion(v string) string {
	major, minor := 1, 0
	if parts := strings.SplitN(v, ".", 2); len(parts) == 2 {
		if ma, err := strconv.Atoi(parts[0]); err == nil {
			if mi, err := strconv.Atoi(parts[1]); err == nil {
				major, minor = ma, mi
			}
		}
	}
	return fmt.Sprintf("%d.%d", major, minor+1)
}
