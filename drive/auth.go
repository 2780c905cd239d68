package drive

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// stateTTL bounds how long an issued OAuth state token stays redeemable.
const stateTTL = 10 * time.Minute

// Authenticator runs the Google OAuth 2.0 authorization-code flow and
// tracks the anti-forgery state tokens it has issued.
type Authenticator struct {
	cfg *oauth2.Config

	mu     sync.Mutex
	states map[string]time.Time
}

// NewAuthenticator builds an Authenticator for the given client
// credentials, redirect URL and scopes.
func NewAuthenticator(clientID, clientSecret, redirectURL string, scopes []string) *Authenticator {
	return &Authenticator{
		cfg: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       scopes,
			Endpoint:     google.Endpoint,
		},
		states: make(map[string]time.Time),
	}
}

// OAuthConfig exposes the underlying oauth2.Config for building token
// sources.
func (a *Authenticator) OAuthConfig() *oauth2.Config {
	return a.cfg
}

// AuthURL issues a fresh state token and returns the Google consent URL to
// redirect the user to. Offline access and a forced consent prompt ensure a
// refresh token is granted.
func (a *Authenticator) AuthURL() (string, error) {
	state, err := a.newState()
	if err != nil {
		return "", err
	}
	url := a.cfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	return url, nil
}

// Consume redeems a state token from the callback. Each token is valid
// once, within its TTL.
func (a *Authenticator) Consume(state string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	issued, ok := a.states[state]
	if !ok {
		return false
	}
	delete(a.states, state)
	return time.Since(issued) < stateTTL
}

// Exchange swaps the authorization code for a token.
func (a *Authenticator) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	tok, err := a.cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}
	return tok, nil
}

// newState mints a random state token and records its issue time. Stale
// entries are swept on each issue so abandoned flows don't accumulate.
func (a *Authenticator) newState() (string, error) {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("generate oauth state: %w", err)
	}
	state := hex.EncodeToString(b[:])

	a.mu.Lock()
	defer a.mu.Unlock()
	now := time.Now()
	for s, issued := range a.states {
		if now.Sub(issued) >= stateTTL {
			delete(a.states, s)
		}
	}
	a.states[state] = now
	return state, nil
}
