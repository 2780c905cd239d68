package audit

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSendNoopWhenUnconfigured(t *testing.T) {
	s := NewSender("", "token", discardLogger())
	assert.NoError(t, s.Send(Event{Action: "site_created"}))
}

func TestSendDeliversEnvelope(t *testing.T) {
	var got envelope
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewSender(srv.URL, "secret-token", discardLogger())
	err := s.Send(Event{
		Action: "site_created",
		Actor:  "pat@example.com",
		SiteID: "site-1",
	})
	require.NoError(t, err)

	assert.Equal(t, "Splunk secret-token", auth)
	assert.Equal(t, "siteqr", got.Source)
	assert.Equal(t, "drive_activity", got.Sourcetype)
	assert.Equal(t, "site_created", got.Event.Action)
	assert.Equal(t, "site-1", got.Event.SiteID)
}

func TestSendNon2xxIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	s := NewSender(srv.URL, "bad-token", discardLogger())
	assert.NoError(t, s.Send(Event{Action: "site_deleted"}))
}

func TestSendConnectionFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	s := NewSender(srv.URL, "token", discardLogger())
	assert.Error(t, s.Send(Event{Action: "site_updated"}))
}
