package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// Site represents one registered site and its generated QR metadata.
type Site struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Location    string `json:"location"`
	FolderType  string `json:"folder_type"`
	FolderLink  string `json:"folder_link"`
	Description string `json:"description"`
	QRURL       string `json:"qr_url"`
	QRID        string `json:"qr_id"`
	CreatedAt   int64  `json:"created_at"`
	UpdatedAt   int64  `json:"updated_at"`
	CreatedBy   string `json:"created_by"`
}

// SiteUpdate carries a partial update; nil fields are left unchanged.
type SiteUpdate struct {
	Name        *string
	Location    *string
	FolderType  *string
	FolderLink  *string
	Description *string
	QRURL       *string
	QRID        *string
}

// SiteStore manages rows in the sites table.
type SiteStore struct {
	db *sql.DB
}

// Create inserts a site. CreatedAt/UpdatedAt are set to now; FolderType
// defaults to GoogleDrive when empty.
func (s *SiteStore) Create(site *Site) error {
	if site.FolderType == "" {
		site.FolderType = "GoogleDrive"
	}
	now := time.Now().Unix()
	site.CreatedAt = now
	site.UpdatedAt = now

	const query = `
		INSERT INTO sites
			(id, name, location, folder_type, folder_link, description, qr_url, qr_id, created_at, updated_at, created_by)
		VALUES
			(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.Exec(query,
		site.ID,
		site.Name,
		site.Location,
		site.FolderType,
		site.FolderLink,
		site.Description,
		site.QRURL,
		site.QRID,
		site.CreatedAt,
		site.UpdatedAt,
		site.CreatedBy,
	)
	if err != nil {
		return fmt.Errorf("create site: %w", err)
	}
	return nil
}

// Get returns the site with the given id, or ErrNotFound.
func (s *SiteStore) Get(id string) (*Site, error) {
	const query = `
		SELECT id, name, location, folder_type, folder_link, description,
		       qr_url, qr_id, created_at, updated_at, created_by
		FROM sites
		WHERE id = ?
	`
	site, err := scanSite(s.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("site %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get site: %w", err)
	}
	return site, nil
}

// List returns all sites, newest first.
func (s *SiteStore) List() ([]Site, error) {
	const query = `
		SELECT id, name, location, folder_type, folder_link, description,
		       qr_url, qr_id, created_at, updated_at, created_by
		FROM sites
		ORDER BY created_at DESC
	`
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("list sites: %w", err)
	}
	defer rows.Close()

	var sites []Site
	for rows.Next() {
		site, err := scanSite(rows)
		if err != nil {
			return nil, fmt.Errorf("scan site row: %w", err)
		}
		sites = append(sites, *site)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate site rows: %w", err)
	}
	return sites, nil
}

// Update applies the non-nil fields of upd to the site with the given id
// and bumps updated_at. Returns ErrNotFound when no row matches.
func (s *SiteStore) Update(id string, upd SiteUpdate) error {
	var sets []string
	var args []any
	add := func(col string, v *string) {
		if v != nil {
			sets = append(sets, col+" = ?")
			args = append(args, *v)
		}
	}
	add("name", upd.Name)
	add("location", upd.Location)
	add("folder_type", upd.FolderType)
	add("folder_link", upd.FolderLink)
	add("description", upd.Description)
	add("qr_url", upd.QRURL)
	add("qr_id", upd.QRID)
	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().Unix(), id)

	query := "UPDATE sites SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	res, err := s.db.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("update site: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update site: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("site %s: %w", id, ErrNotFound)
	}
	return nil
}

// Delete removes the site with the given id. Returns ErrNotFound when no
// row matches.
func (s *SiteStore) Delete(id string) error {
	res, err := s.db.Exec(`DELETE FROM sites WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete site: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete site: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("site %s: %w", id, ErrNotFound)
	}
	return nil
}

// --- helpers ----------------------------------------------------------------

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSite(row rowScanner) (*Site, error) {
	var site Site
	err := row.Scan(
		&site.ID, &site.Name, &site.Location, &site.FolderType,
		&site.FolderLink, &site.Description, &site.QRURL, &site.QRID,
		&site.CreatedAt, &site.UpdatedAt, &site.CreatedBy,
	)
	if err != nil {
		return nil, err
	}
	return &site, nil
}
