package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// ErrNotAuthenticated is returned when no valid Google session exists. The
// HTTP layer maps it to a distinct status so the frontend can prompt a
// re-login instead of reporting a generic failure.
var ErrNotAuthenticated = errors.New("not authenticated with Google")

// Manager handles the OAuth flow and token persistence. The obtained
// session grants read access to Gmail plus write access to Drive files the
// app creates and to Sheets.
type Manager struct {
	oauthConfig *oauth2.Config
	tokenFile   string
}

// NewManager reads the OAuth client configuration from credentialsFile and
// persists tokens to tokenFile.
func NewManager(credentialsFile, tokenFile, redirectURL string) (*Manager, error) {
	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %w", err)
	}

	cfg, err := google.ConfigFromJSON(b,
		gmail.GmailReadonlyScope,
		drive.DriveFileScope,
		sheets.SpreadsheetsScope,
	)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %w", err)
	}
	cfg.RedirectURL = redirectURL

	return &Manager{
		oauthConfig: cfg,
		tokenFile:   tokenFile,
	}, nil
}

// AuthURL returns the Google consent URL that starts the login flow.
func (m *Manager) AuthURL() string {
	return m.oauthConfig.AuthCodeURL("state-token",
		oauth2.AccessTypeOffline,
		oauth2.ApprovalForce,
	)
}

// Exchange trades the authorization code for tokens and persists them.
func (m *Manager) Exchange(ctx context.Context, code string) error {
	tok, err := m.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("unable to exchange authorization code: %w", err)
	}
	return m.saveToken(tok)
}

// Logout deletes the persisted token. A missing token is not an error.
func (m *Manager) Logout() error {
	if err := os.Remove(m.tokenFile); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("unable to remove token file: %w", err)
	}
	return nil
}

// Authenticated reports whether a usable session exists, refreshing an
// expired token if a refresh token is available.
func (m *Manager) Authenticated(ctx context.Context) bool {
	_, err := m.freshToken(ctx)
	return err == nil
}

// Session returns an authorized Google session, refreshing the stored
// token if needed. Returns ErrNotAuthenticated when no usable token exists.
func (m *Manager) Session(ctx context.Context) (*Session, error) {
	tok, err := m.freshToken(ctx)
	if err != nil {
		return nil, err
	}
	return &Session{client: m.oauthConfig.Client(ctx, tok)}, nil
}

func (m *Manager) freshToken(ctx context.Context) (*oauth2.Token, error) {
	tok, err := m.tokenFromFile()
	if err != nil {
		return nil, ErrNotAuthenticated
	}

	if tok.Valid() {
		return tok, nil
	}

	// Expired: the token source refreshes through the refresh token.
	fresh, err := m.oauthConfig.TokenSource(ctx, tok).Token()
	if err != nil {
		return nil, ErrNotAuthenticated
	}
	if fresh.AccessToken != tok.AccessToken {
		if err := m.saveToken(fresh); err != nil {
			return nil, err
		}
	}
	return fresh, nil
}

func (m *Manager) tokenFromFile() (*oauth2.Token, error) {
	f, err := os.Open(m.tokenFile)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, err
	}
	return tok, nil
}

func (m *Manager) saveToken(tok *oauth2.Token) error {
	f, err := os.OpenFile(m.tokenFile, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("unable to cache oauth token: %w", err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(tok)
}

// Session is an authorized Google session handed to the pipeline as an
// injected capability. It builds the per-service clients on demand.
type Session struct {
	client *http.Client
}

// Gmail returns a Gmail service bound to this session.
func (s *Session) Gmail(ctx context.Context) (*gmail.Service, error) {
	srv, err := gmail.NewService(ctx, option.WithHTTPClient(s.client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Gmail client: %w", err)
	}
	return srv, nil
}

// Drive returns a Drive service bound to this session.
func (s *Session) Drive(ctx context.Context) (*drive.Service, error) {
	srv, err := drive.NewService(ctx, option.WithHTTPClient(s.client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Drive client: %w", err)
	}
	return srv, nil
}

// Sheets returns a Sheets service bound to this session.
func (s *Session) Sheets(ctx context.Context) (*sheets.Service, error) {
	srv, err := sheets.NewService(ctx, option.WithHTTPClient(s.client))
	if err != nil {
		return nil, fmt.Errorf("unable to create Sheets client: %w", err)
	}
	return srv, nil
}
