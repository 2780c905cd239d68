package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

const defaultPageSize = 100

// handleListFiles proxies a Drive file listing. Optional query params:
// q (Drive query expression) and page_size.
func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	svc, err := s.driveService(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	pageSize := int64(defaultPageSize)
	if v := r.URL.Query().Get("page_size"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			pageSize = n
		}
	}

	files, err := svc.ListFiles(r.Context(), r.URL.Query().Get("q"), pageSize)
	if err != nil {
		s.Log.Error("drive list failed", "error", err)
		writeError(w, http.StatusBadGateway, "failed to list files")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"files": files})
}

type createFileRequest struct {
	Name     string `json:"name"`
	MimeType string `json:"mime_type"`
	ParentID string `json:"parent_id"`
	Content  string `json:"content"`
}

func (s *Server) handleCreateFile(w http.ResponseWriter, r *http.Request) {
	var req createFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.MimeType == "" {
		req.MimeType = "text/plain"
	}

	svc, err := s.driveService(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var content io.Reader
	if req.Content != "" {
		content = strings.NewReader(req.Content)
	}
	file, err := svc.CreateFile(r.Context(), req.Name, req.MimeType, req.ParentID, content)
	if err != nil {
		s.Log.Error("drive create failed", "error", err, "name", req.Name)
		writeError(w, http.StatusBadGateway, "failed to create file")
		return
	}
	writeJSON(w, http.StatusCreated, file)
}

// handleUploadFile accepts a multipart form with a "file" part and an
// optional "parent_id" field.
func (s *Server) handleUploadFile(w http.ResponseWriter, r *http.Request) {
	// 32 MiB in memory; larger parts spill to temp files.
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	part, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file part is required")
		return
	}
	defer part.Close()

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	svc, err := s.driveService(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	file, err := svc.CreateFile(r.Context(), header.Filename, mimeType, r.FormValue("parent_id"), part)
	if err != nil {
		s.Log.Error("drive upload failed", "error", err, "name", header.Filename)
		writeError(w, http.StatusBadGateway, "failed to upload file")
		return
	}
	writeJSON(w, http.StatusCreated, file)
}

func (s *Server) handleGetFile(w http.ResponseWriter, r *http.Request) {
	svc, err := s.driveService(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	file, err := svc.GetFile(r.Context(), chi.URLParam(r, "fileID"))
	if err != nil {
		writeError(w, http.StatusNotFound, "file not found")
		return
	}
	writeJSON(w, http.StatusOK, file)
}

// handleFileContent streams the file bytes back to the caller with the
// file's own MIME type.
func (s *Server) handleFileContent(w http.ResponseWriter, r *http.Request) {
	fileID := chi.URLParam(r, "fileID")
	svc, err := s.driveService(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	file, err := svc.GetFile(r.Context(), fileID)
	if err != nil {
		writeError(w, http.StatusNotFound, "file not found")
		return
	}
	body, err := svc.Download(r.Context(), fileID)
	if err != nil {
		s.Log.Error("drive download failed", "error", err, "file_id", fileID)
		writeError(w, http.StatusBadGateway, "failed to download file")
		return
	}
	defer body.Close()

	if file.MimeType != "" {
		w.Header().Set("Content-Type", file.MimeType)
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		s.Log.Warn("file content stream interrupted", "error", err, "file_id", fileID)
	}
}

type updateFileRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleUpdateFile(w http.ResponseWriter, r *http.Request) {
	var req updateFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	svc, err := s.driveService(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	file, err := svc.UpdateFile(r.Context(), chi.URLParam(r, "fileID"), req.Name)
	if err != nil {
		s.Log.Error("drive update failed", "error", err)
		writeError(w, http.StatusBadGateway, "failed to update file")
		return
	}
	writeJSON(w, http.StatusOK, file)
}

func (s *Server) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	svc, err := s.driveService(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := svc.DeleteFile(r.Context(), chi.URLParam(r, "fileID")); err != nil {
		s.Log.Error("drive delete failed", "error", err)
		writeError(w, http.StatusBadGateway, "failed to delete file")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type createFolderRequest struct {
	Name     string `json:"name"`
	ParentID string `json:"parent_id"`
}

func (s *Server) handleCreateFolder(w http.ResponseWriter, r *http.Request) {
	var req createFolderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	svc, err := s.driveService(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	folder, err := svc.CreateFolder(r.Context(), req.Name, req.ParentID)
	if err != nil {
		s.Log.Error("drive folder create failed", "error", err, "name", req.Name)
		writeError(w, http.StatusBadGateway, "failed to create folder")
		return
	}
	writeJSON(w, http.StatusCreated, folder)
}

type shareRequest struct {
	FileID string `json:"file_id"`
	Role   string `json:"role"`
	Type   string `json:"type"`
	Email  string `json:"email"`
}

func (s *Server) handleShare(w http.ResponseWriter, r *http.Request) {
	var req shareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.FileID == "" {
		writeError(w, http.StatusBadRequest, "file_id is required")
		return
	}
	if req.Role == "" {
		req.Role = "reader"
	}
	if req.Type == "" {
		req.Type = "anyone"
	}
	if (req.Type == "user" || req.Type == "group") && req.Email == "" {
		writeError(w, http.StatusBadRequest, "email is required for user/group shares")
		return
	}

	svc, err := s.driveService(r)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	link, err := svc.Share(r.Context(), req.FileID, req.Role, req.Type, req.Email)
	if err != nil {
		s.Log.Error("drive share failed", "error", err, "file_id", req.FileID)
		writeError(w, http.StatusBadGateway, "failed to share file")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"link": link})
}
