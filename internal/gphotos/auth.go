package gphotos

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sync"

	"github.com/bitrise-io/go-utils/v2/log"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Scope needed to create albums and media items and to list the albums the
// app created.
const photosLibraryScope = "https://www.googleapis.com/auth/photoslibrary"

// Authenticator manages the OAuth2 credentials for the Photos Library API:
// the app's client secret and the user token cached on disk.
type Authenticator struct {
	clientSecretFile string
	tokenFile        string
	logger           log.Logger
}

// NewAuthenticator ...
func NewAuthenticator(clientSecretFile, tokenFile string, logger log.Logger) *Authenticator {
	return &Authenticator{
		clientSecretFile: clientSecretFile,
		tokenFile:        tokenFile,
		logger:           logger,
	}
}

// Authorize runs the installed-app consent flow and caches the token.
func (a *Authenticator) Authorize(ctx context.Context) error {
	config, err := a.oauthConfig()
	if err != nil {
		return err
	}

	authURL := config.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
	fmt.Printf("Open the following link in your browser, approve the access "+
		"and paste the authorization code here:\n%v\n\nCode: ", authURL)

	var code string
	if _, err := fmt.Scan(&code); err != nil {
		return fmt.Errorf("read authorization code: %w", err)
	}

	token, err := config.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("exchange authorization code: %w", err)
	}
	if err := a.saveToken(token); err != nil {
		return err
	}
	a.logger.Donef("Token saved to %s", a.tokenFile)
	return nil
}

// HTTPClient returns an HTTP client that attaches the cached credentials and
// transparently refreshes them, persisting refreshed tokens back to the token
// file so the next run doesn't need a refresh round-trip.
func (a *Authenticator) HTTPClient(ctx context.Context) (*http.Client, error) {
	config, err := a.oauthConfig()
	if err != nil {
		return nil, err
	}
	token, err := a.tokenFromFile()
	if err != nil {
		return nil, fmt.Errorf("no cached token, run the auth command first: %w", err)
	}

	source := &savingTokenSource{
		wrapped: config.TokenSource(ctx, token),
		auth:    a,
		last:    token,
	}
	return oauth2.NewClient(ctx, source), nil
}

func (a *Authenticator) oauthConfig() (*oauth2.Config, error) {
	content, err := os.ReadFile(a.clientSecretFile)
	if err != nil {
		return nil, fmt.Errorf("read client secret file: %w", err)
	}
	config, err := google.ConfigFromJSON(content, photosLibraryScope)
	if err != nil {
		return nil, fmt.Errorf("parse client secret file: %w", err)
	}
	return config, nil
}

func (a *Authenticator) tokenFromFile() (*oauth2.Token, error) {
	f, err := os.Open(a.tokenFile)
	if err != nil {
		return nil, err
	}
	defer f.Close() //nolint:errcheck

	token := new(oauth2.Token)
	if err := json.NewDecoder(f).Decode(token); err != nil {
		return nil, fmt.Errorf("parse token file: %w", err)
	}
	return token, nil
}

func (a *Authenticator) saveToken(token *oauth2.Token) error {
	f, err := os.OpenFile(a.tokenFile, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("create token file: %w", err)
	}
	defer f.Close() //nolint:errcheck

	if err := json.NewEncoder(f).Encode(token); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	return nil
}

// savingTokenSource persists the token whenever the wrapped source hands out
// a refreshed one.
type savingTokenSource struct {
	wrapped oauth2.TokenSource
	auth    *Authenticator
	mu      sync.Mutex
	last    *oauth2.Token
}

func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	token, err := s.wrapped.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil || token.AccessToken != s.last.AccessToken {
		if err := s.auth.saveToken(token); err != nil {
			s.auth.logger.Warnf("Failed to persist refreshed token: %s", err)
		} else {
			s.auth.logger.Debugf("Refreshed token saved")
		}
		s.last = token
	}
	return token, nil
}
