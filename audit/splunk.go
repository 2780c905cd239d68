// Package audit emits best-effort activity events to a Splunk HTTP Event
// Collector endpoint.
package audit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Event is one audit record. The payload is arbitrary JSON-marshalable
// data describing what happened.
type Event struct {
	Action  string `json:"action"`
	Actor   string `json:"actor,omitempty"`
	SiteID  string `json:"site_id,omitempty"`
	Details any    `json:"details,omitempty"`
}

// envelope is the HEC wire format.
type envelope struct {
	Event      Event  `json:"event"`
	Source     string `json:"source"`
	Sourcetype string `json:"sourcetype"`
}

// Sender delivers audit events to a Splunk HEC endpoint. An unconfigured
// sender (empty URL) is a no-op, so callers never need to branch.
type Sender struct {
	url    string
	token  string
	client *http.Client
	log    *slog.Logger
}

// NewSender creates a Sender posting to the given HEC url. If url is empty
// the sender silently drops every event.
func NewSender(url, token string, log *slog.Logger) *Sender {
	return &Sender{
		url:   url,
		token: token,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
	}
}

// Send delivers one event. Delivery failures are logged and returned but
// must never abort the operation being audited.
func (s *Sender) Send(ev Event) error {
	if s.url == "" {
		return nil
	}

	body, err := json.Marshal(envelope{
		Event:      ev,
		Source:     "siteqr",
		Sourcetype: "drive_activity",
	})
	if err != nil {
		return fmt.Errorf("audit marshal event: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("audit build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Splunk "+s.token)

	resp, err := s.client.Do(req)
	if err != nil {
		s.log.Error("audit delivery failed", "error", err, "action", ev.Action)
		return fmt.Errorf("audit POST: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		s.log.Debug("audit event delivered", "status", resp.StatusCode, "action", ev.Action)
	} else {
		s.log.Warn("audit non-2xx response", "status", resp.StatusCode, "action", ev.Action)
	}

	return nil
}
