package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSiteCreateGet(t *testing.T) {
	sites := openTestStore(t).Sites()

	site := &Site{
		ID:          "site-1",
		Name:        "Warehouse 7",
		Location:    "Springfield",
		FolderLink:  "https://drive.google.com/drive/folders/abc",
		Description: "primary storage",
		QRURL:       "http://localhost:5000/qrcodes/qr_abc123def456.png",
		QRID:        "qr_abc123def456",
		CreatedBy:   "ops@example.com",
	}
	require.NoError(t, sites.Create(site))
	assert.Equal(t, "GoogleDrive", site.FolderType, "folder type defaults when empty")
	assert.NotZero(t, site.CreatedAt)

	got, err := sites.Get("site-1")
	require.NoError(t, err)
	assert.Equal(t, site.Name, got.Name)
	assert.Equal(t, site.Location, got.Location)
	assert.Equal(t, "GoogleDrive", got.FolderType)
	assert.Equal(t, site.QRID, got.QRID)
	assert.Equal(t, site.CreatedBy, got.CreatedBy)
}

func TestSiteGetMissing(t *testing.T) {
	sites := openTestStore(t).Sites()

	_, err := sites.Get("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSiteListNewestFirst(t *testing.T) {
	sites := openTestStore(t).Sites()

	a := &Site{ID: "a", Name: "First"}
	require.NoError(t, sites.Create(a))
	b := &Site{ID: "b", Name: "Second"}
	require.NoError(t, sites.Create(b))
	// Same-second inserts; force distinct timestamps.
	_, err := sites.db.Exec(`UPDATE sites SET created_at = created_at + 10 WHERE id = 'b'`)
	require.NoError(t, err)

	list, err := sites.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b", list[0].ID)
	assert.Equal(t, "a", list[1].ID)
}

func TestSiteUpdatePartial(t *testing.T) {
	sites := openTestStore(t).Sites()

	require.NoError(t, sites.Create(&Site{ID: "s", Name: "Old", Location: "Here"}))

	newName := "New"
	require.NoError(t, sites.Update("s", SiteUpdate{Name: &newName}))

	got, err := sites.Get("s")
	require.NoError(t, err)
	assert.Equal(t, "New", got.Name)
	assert.Equal(t, "Here", got.Location, "untouched fields survive a partial update")
}

func TestSiteUpdateMissing(t *testing.T) {
	sites := openTestStore(t).Sites()

	name := "x"
	assert.ErrorIs(t, sites.Update("nope", SiteUpdate{Name: &name}), ErrNotFound)
}

func TestSiteDelete(t *testing.T) {
	sites := openTestStore(t).Sites()

	require.NoError(t, sites.Create(&Site{ID: "s", Name: "X"}))
	require.NoError(t, sites.Delete("s"))

	_, err := sites.Get("s")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, sites.Delete("s"), ErrNotFound)
}

func TestSessionLifecycle(t *testing.T) {
	sessions := openTestStore(t).Sessions()

	sess := &Session{
		ID:        "sess-1",
		TokenJSON: `{"access_token":"at"}`,
		UserName:  "Pat",
		UserEmail: "pat@example.com",
	}
	require.NoError(t, sessions.Create(sess, time.Hour))

	got, err := sessions.Get("sess-1")
	require.NoError(t, err)
	assert.Equal(t, "pat@example.com", got.UserEmail)
	assert.Equal(t, sess.TokenJSON, got.TokenJSON)

	require.NoError(t, sessions.Delete("sess-1"))
	_, err = sessions.Get("sess-1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSessionExpiry(t *testing.T) {
	sessions := openTestStore(t).Sessions()

	require.NoError(t, sessions.Create(&Session{ID: "old", TokenJSON: "{}"}, -time.Minute))
	require.NoError(t, sessions.Create(&Session{ID: "live", TokenJSON: "{}"}, time.Hour))

	_, err := sessions.Get("old")
	assert.ErrorIs(t, err, ErrNotFound, "expired sessions are treated as absent")

	n, err := sessions.PurgeExpired()
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	_, err = sessions.Get("live")
	assert.NoError(t, err)
}
