package drive

import (
	"context"
	"fmt"
	"io"

	"golang.org/x/oauth2"
	gdrive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
)

const fileFields = "id, name, mimeType, size, modifiedTime, webViewLink, parents"

// client implements Service over the generated Drive v3 API.
type client struct {
	srv *gdrive.Service
}

// clientFactory builds per-request clients from the shared oauth2.Config.
type clientFactory struct {
	oauth *oauth2.Config
}

// NewFactory returns a Factory producing Drive clients that authenticate
// with tokens issued by cfg.
func NewFactory(cfg *oauth2.Config) Factory {
	return &clientFactory{oauth: cfg}
}

func (f *clientFactory) Service(ctx context.Context, tok *oauth2.Token) (Service, error) {
	srv, err := gdrive.NewService(ctx, option.WithTokenSource(f.oauth.TokenSource(ctx, tok)))
	if err != nil {
		return nil, fmt.Errorf("build drive client: %w", err)
	}
	return &client{srv: srv}, nil
}

func (c *client) About(ctx context.Context) (*User, error) {
	ab, err := c.srv.About.Get().Fields("user").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("drive about: %w", err)
	}
	return &User{
		Name:         ab.User.DisplayName,
		Email:        ab.User.EmailAddress,
		PermissionID: ab.User.PermissionId,
	}, nil
}

func (c *client) ListFiles(ctx context.Context, query string, pageSize int64) ([]File, error) {
	call := c.srv.Files.List().
		PageSize(pageSize).
		Fields("files(" + fileFields + ")").
		Context(ctx)
	if query != "" {
		call = call.Q(query)
	}
	res, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("drive list: %w", err)
	}
	files := make([]File, 0, len(res.Files))
	for _, f := range res.Files {
		files = append(files, fromAPI(f))
	}
	return files, nil
}

func (c *client) GetFile(ctx context.Context, id string) (*File, error) {
	f, err := c.srv.Files.Get(id).Fields(fileFields).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("drive get %s: %w", id, err)
	}
	file := fromAPI(f)
	return &file, nil
}

func (c *client) Download(ctx context.Context, id string) (io.ReadCloser, error) {
	res, err := c.srv.Files.Get(id).Context(ctx).Download()
	if err != nil {
		return nil, fmt.Errorf("drive download %s: %w", id, err)
	}
	return res.Body, nil
}

func (c *client) CreateFile(ctx context.Context, name, mimeType, parentID string, content io.Reader) (*File, error) {
	meta := &gdrive.File{Name: name, MimeType: mimeType}
	if parentID != "" {
		meta.Parents = []string{parentID}
	}
	call := c.srv.Files.Create(meta).Fields(fileFields).Context(ctx)
	if content != nil {
		call = call.Media(content)
	}
	f, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("drive create %q: %w", name, err)
	}
	file := fromAPI(f)
	return &file, nil
}

func (c *client) UpdateFile(ctx context.Context, id, name string) (*File, error) {
	f, err := c.srv.Files.Update(id, &gdrive.File{Name: name}).Fields(fileFields).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("drive update %s: %w", id, err)
	}
	file := fromAPI(f)
	return &file, nil
}

func (c *client) UpdateFileContent(ctx context.Context, id, mimeType string, content io.Reader) (*File, error) {
	f, err := c.srv.Files.Update(id, &gdrive.File{MimeType: mimeType}).
		Media(content).
		Fields(fileFields).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("drive update content %s: %w", id, err)
	}
	file := fromAPI(f)
	return &file, nil
}

func (c *client) DeleteFile(ctx context.Context, id string) error {
	if err := c.srv.Files.Delete(id).Context(ctx).Do(); err != nil {
		return fmt.Errorf("drive delete %s: %w", id, err)
	}
	return nil
}

func (c *client) CreateFolder(ctx context.Context, name, parentID string) (*File, error) {
	return c.CreateFile(ctx, name, FolderMimeType, parentID, nil)
}

// Share grants email the given role on fileID and returns the file's view
// link. granteeType is "user", "group", "domain" or "anyone".
func (c *client) Share(ctx context.Context, fileID, role, granteeType, email string) (string, error) {
	perm := &gdrive.Permission{Role: role, Type: granteeType}
	if granteeType == "user" || granteeType == "group" {
		perm.EmailAddress = email
	}
	if _, err := c.srv.Permissions.Create(fileID, perm).Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("drive share %s: %w", fileID, err)
	}
	f, err := c.srv.Files.Get(fileID).Fields("webViewLink").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("drive share link %s: %w", fileID, err)
	}
	return f.WebViewLink, nil
}

func fromAPI(f *gdrive.File) File {
	return File{
		ID:           f.Id,
		Name:         f.Name,
		MimeType:     f.MimeType,
		Size:         f.Size,
		ModifiedTime: f.ModifiedTime,
		WebViewLink:  f.WebViewLink,
		Parents:      f.Parents,
	}
}
