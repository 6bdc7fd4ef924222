package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/fivetwenty-io/masto-client/internal/constants"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// OAuth2Config holds the instance's OAuth2 settings.
type OAuth2Config struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	RefreshToken string
	AccessToken  string
	Scopes       []string
	// HTTPClient is used for token requests. Nil uses a client with
	// constants.ShortHTTPTimeout.
	HTTPClient *http.Client
}

// OAuth2TokenManager obtains and refreshes tokens against the instance's
// token endpoint.
//
// Grant order: refresh_token when a refresh token is known, then
// client_credentials.
type OAuth2TokenManager struct {
	config *OAuth2Config
	store  *TokenStore
	mutex  sync.Mutex
}

// NewOAuth2TokenManager creates a manager seeded with config.AccessToken.
func NewOAuth2TokenManager(config *OAuth2Config) *OAuth2TokenManager {
	manager := &OAuth2TokenManager{
		config: config,
		store:  NewTokenStore(),
	}

	if config.AccessToken != "" {
		manager.store.Set(&Token{
			AccessToken:  config.AccessToken,
			RefreshToken: config.RefreshToken,
			TokenType:    constants.BearerTokenType,
		})
	}

	return manager
}

// NewInstanceTokenManager creates a client-credentials manager for an
// instance URL.
func NewInstanceTokenManager(instanceURL, clientID, clientSecret string, scopes ...string) *OAuth2TokenManager {
	if len(scopes) == 0 {
		scopes = []string{constants.DefaultScope}
	}

	return NewOAuth2TokenManager(&OAuth2Config{
		TokenURL:     strings.TrimSuffix(instanceURL, "/") + constants.TokenPath,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Scopes:       scopes,
	})
}

// GetToken returns a valid access token, fetching a new one if necessary.
func (m *OAuth2TokenManager) GetToken(ctx context.Context) (string, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	token := m.store.Get()
	if token.Valid() {
		return token.AccessToken, nil
	}

	err := m.fetchLocked(ctx)
	if err != nil {
		return "", err
	}

	return m.store.Get().AccessToken, nil
}

// RefreshToken forces a new token regardless of the current one.
func (m *OAuth2TokenManager) RefreshToken(ctx context.Context) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	return m.fetchLocked(ctx)
}

// SetToken manually sets the access token.
func (m *OAuth2TokenManager) SetToken(accessToken string, expiresAt time.Time) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	refreshToken := m.config.RefreshToken
	if current := m.store.Get(); current != nil && current.RefreshToken != "" {
		refreshToken = current.RefreshToken
	}

	m.store.Set(&Token{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    constants.BearerTokenType,
		ExpiresAt:    expiresAt,
	})
}

// CurrentToken returns the stored token, which may be nil or expired.
func (m *OAuth2TokenManager) CurrentToken() *Token {
	return m.store.Get()
}

func (m *OAuth2TokenManager) fetchLocked(ctx context.Context) error {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, m.httpClient())

	var (
		tok *oauth2.Token
		err error
	)

	refreshToken := m.config.RefreshToken
	if current := m.store.Get(); current != nil && current.RefreshToken != "" {
		refreshToken = current.RefreshToken
	}

	switch {
	case refreshToken != "":
		tok, err = m.oauth2Config().TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	case m.config.ClientID != "" && m.config.ClientSecret != "":
		creds := &clientcredentials.Config{
			ClientID:     m.config.ClientID,
			ClientSecret: m.config.ClientSecret,
			TokenURL:     m.config.TokenURL,
			Scopes:       m.config.Scopes,
		}
		tok, err = creds.Token(ctx)
	default:
		return ErrNoValidCredentials
	}

	if err != nil {
		return fmt.Errorf("requesting token from %s: %w", m.config.TokenURL, err)
	}

	if tok.AccessToken == "" {
		return ErrTokenResponseInvalid
	}

	m.store.Set(tokenFromOAuth2(tok))

	return nil
}

func (m *OAuth2TokenManager) oauth2Config() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     m.config.ClientID,
		ClientSecret: m.config.ClientSecret,
		Endpoint:     oauth2.Endpoint{TokenURL: m.config.TokenURL},
		Scopes:       m.config.Scopes,
	}
}

func (m *OAuth2TokenManager) httpClient() *http.Client {
	if m.config.HTTPClient != nil {
		return m.config.HTTPClient
	}

	return &http.Client{Timeout: constants.ShortHTTPTimeout}
}
