package drive

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAuthenticator() *Authenticator {
	return NewAuthenticator("client-id", "client-secret",
		"http://localhost:5000/auth/google/callback",
		[]string{"https://www.googleapis.com/auth/drive"})
}

func TestAuthURLIncludesStateAndOfflineAccess(t *testing.T) {
	a := newTestAuthenticator()

	url, err := a.AuthURL()
	require.NoError(t, err)

	assert.Contains(t, url, "state=")
	assert.Contains(t, url, "access_type=offline")
	assert.Contains(t, url, "client_id=client-id")
}

func TestConsumeStateOnce(t *testing.T) {
	a := newTestAuthenticator()

	url, err := a.AuthURL()
	require.NoError(t, err)

	state := extractParam(t, url, "state")
	assert.True(t, a.Consume(state))
	assert.False(t, a.Consume(state), "state tokens are single-use")
}

func TestConsumeUnknownState(t *testing.T) {
	a := newTestAuthenticator()
	assert.False(t, a.Consume("never-issued"))
}

func TestConsumeExpiredState(t *testing.T) {
	a := newTestAuthenticator()

	url, err := a.AuthURL()
	require.NoError(t, err)
	state := extractParam(t, url, "state")

	a.mu.Lock()
	a.states[state] = time.Now().Add(-stateTTL - time.Second)
	a.mu.Unlock()

	assert.False(t, a.Consume(state))
}

func TestStaleStatesSweptOnIssue(t *testing.T) {
	a := newTestAuthenticator()

	a.mu.Lock()
	a.states["stale"] = time.Now().Add(-time.Hour)
	a.mu.Unlock()

	_, err := a.AuthURL()
	require.NoError(t, err)

	a.mu.Lock()
	_, ok := a.states["stale"]
	a.mu.Unlock()
	assert.False(t, ok)
}

// --- helpers ----------------------------------------------------------------

func extractParam(t *testing.T, url, key string) string {
	t.Helper()
	idx := strings.Index(url, key+"=")
	require.GreaterOrEqual(t, idx, 0)
	v := url[idx+len(key)+1:]
	if amp := strings.IndexByte(v, '&'); amp >= 0 {
		v = v[:amp]
	}
	return v
}
