// Package drive wraps the Google Drive v3 API behind a small interface so
// HTTP handlers can be exercised against a fake in tests.
package drive

import (
	"context"
	"io"

	"golang.org/x/oauth2"
)

// File is the subset of Drive file metadata this service reads and writes.
type File struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	MimeType     string   `json:"mimeType"`
	Size         int64    `json:"size,omitempty"`
	ModifiedTime string   `json:"modifiedTime,omitempty"`
	WebViewLink  string   `json:"webViewLink,omitempty"`
	Parents      []string `json:"parents,omitempty"`
}

// User identifies the authenticated Drive user.
type User struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	PermissionID string `json:"permission_id"`
}

// FolderMimeType is the Drive MIME type marking a file as a folder.
const FolderMimeType = "application/vnd.google-apps.folder"

// Service is the Drive surface the handlers depend on. Every call is
// request-scoped and acts as the signed-in user.
type Service interface {
	About(ctx context.Context) (*User, error)
	ListFiles(ctx context.Context, query string, pageSize int64) ([]File, error)
	GetFile(ctx context.Context, id string) (*File, error)
	Download(ctx context.Context, id string) (io.ReadCloser, error)
	CreateFile(ctx context.Context, name, mimeType, parentID string, content io.Reader) (*File, error)
	UpdateFile(ctx context.Context, id, name string) (*File, error)
	UpdateFileContent(ctx context.Context, id, mimeType string, content io.Reader) (*File, error)
	DeleteFile(ctx context.Context, id string) error
	CreateFolder(ctx context.Context, name, parentID string) (*File, error)
	Share(ctx context.Context, fileID, role, granteeType, email string) (string, error)
}

// Factory builds a Service bound to one user's OAuth token. The token is
// refreshed transparently through the config's TokenSource.
type Factory interface {
	Service(ctx context.Context, tok *oauth2.Token) (Service, error)
}
