package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tokenEndpoint fakes an instance's /oauth/token and records the forms it
// receives.
type tokenEndpoint struct {
	mu     sync.Mutex
	forms  []url.Values
	status int
	reply  any
}

func newTokenEndpoint(t *testing.T, status int, reply any) (*tokenEndpoint, string) {
	t.Helper()

	endpoint := &tokenEndpoint{status: status, reply: reply}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/oauth/token", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, r.ParseForm())

		form := r.PostForm
		if id, secret, ok := r.BasicAuth(); ok {
			form.Set("basic_client_id", id)
			form.Set("basic_client_secret", secret)
		}

		endpoint.mu.Lock()
		endpoint.forms = append(endpoint.forms, form)
		endpoint.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(endpoint.status)
		_ = json.NewEncoder(w).Encode(endpoint.reply)
	}))
	t.Cleanup(server.Close)

	return endpoint, server.URL + "/oauth/token"
}

func (e *tokenEndpoint) requests() []url.Values {
	e.mu.Lock()
	defer e.mu.Unlock()

	return append([]url.Values(nil), e.forms...)
}

func TestOAuth2TokenManager_Grants(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		config    OAuth2Config
		seed      *Token
		reply     Token
		wantToken string
		check     func(t *testing.T, form url.Values)
	}{
		{
			name:      "expired user token is refreshed",
			config:    OAuth2Config{ClientID: "app", ClientSecret: "shh", RefreshToken: "refresh-1"},
			seed:      &Token{AccessToken: "stale", RefreshToken: "refresh-1", ExpiresAt: time.Now().Add(-time.Hour)},
			reply:     Token{AccessToken: "fresh", RefreshToken: "refresh-2", ExpiresIn: 3600, TokenType: "Bearer"},
			wantToken: "fresh",
			check: func(t *testing.T, form url.Values) {
				t.Helper()
				assert.Equal(t, "refresh_token", form.Get("grant_type"))
				assert.Equal(t, "refresh-1", form.Get("refresh_token"))
			},
		},
		{
			name:      "app token via client credentials",
			config:    OAuth2Config{ClientID: "app", ClientSecret: "shh", Scopes: []string{"read", "write:media"}},
			reply:     Token{AccessToken: "app-token", TokenType: "Bearer"},
			wantToken: "app-token",
			check: func(t *testing.T, form url.Values) {
				t.Helper()
				assert.Equal(t, "client_credentials", form.Get("grant_type"))
				assert.Equal(t, "read write:media", form.Get("scope"))
				assert.Equal(t, "app", form.Get("basic_client_id"))
				assert.Equal(t, "shh", form.Get("basic_client_secret"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			endpoint, tokenURL := newTokenEndpoint(t, http.StatusOK, tt.reply)

			config := tt.config
			config.TokenURL = tokenURL

			manager := NewOAuth2TokenManager(&config)
			if tt.seed != nil {
				manager.store.Set(tt.seed)
			}

			token, err := manager.GetToken(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.wantToken, token)

			requests := endpoint.requests()
			require.Len(t, requests, 1)
			tt.check(t, requests[0])

			// A valid token is served from the store.
			_, err = manager.GetToken(context.Background())
			require.NoError(t, err)
			assert.Len(t, endpoint.requests(), 1)
		})
	}
}

func TestOAuth2TokenManager_RefreshKeepsNewRefreshToken(t *testing.T) {
	t.Parallel()

	_, tokenURL := newTokenEndpoint(t, http.StatusOK, Token{
		AccessToken:  "fresh",
		RefreshToken: "refresh-2",
		ExpiresIn:    3600,
		TokenType:    "Bearer",
	})

	manager := NewOAuth2TokenManager(&OAuth2Config{
		TokenURL:     tokenURL,
		AccessToken:  "stale",
		RefreshToken: "refresh-1",
	})

	require.NoError(t, manager.RefreshToken(context.Background()))

	current := manager.CurrentToken()
	require.NotNil(t, current)
	assert.Equal(t, "fresh", current.AccessToken)
	assert.Equal(t, "refresh-2", current.RefreshToken)
	assert.WithinDuration(t, time.Now().Add(time.Hour), current.ExpiresAt, time.Minute)
}

func TestOAuth2TokenManager_ExistingTokenNeedsNoRequest(t *testing.T) {
	t.Parallel()

	manager := NewOAuth2TokenManager(&OAuth2Config{
		TokenURL:    "http://127.0.0.1:1/oauth/token",
		AccessToken: "user-token",
	})

	token, err := manager.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "user-token", token)
}

func TestOAuth2TokenManager_Failures(t *testing.T) {
	t.Parallel()

	t.Run("rejected client", func(t *testing.T) {
		t.Parallel()

		_, tokenURL := newTokenEndpoint(t, http.StatusUnauthorized, map[string]string{
			"error":             "invalid_client",
			"error_description": "Client authentication failed due to unknown client",
		})

		manager := NewOAuth2TokenManager(&OAuth2Config{TokenURL: tokenURL, ClientID: "bad", ClientSecret: "bad"})

		token, err := manager.GetToken(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid_client")
		assert.Contains(t, err.Error(), tokenURL)
		assert.Empty(t, token)
	})

	t.Run("no credentials", func(t *testing.T) {
		t.Parallel()

		manager := NewOAuth2TokenManager(&OAuth2Config{TokenURL: "http://127.0.0.1:1/oauth/token"})

		_, err := manager.GetToken(context.Background())
		require.ErrorIs(t, err, ErrNoValidCredentials)
	})
}

func TestOAuth2TokenManager_SetToken(t *testing.T) {
	t.Parallel()

	manager := NewOAuth2TokenManager(&OAuth2Config{RefreshToken: "refresh-1"})
	expiresAt := time.Now().Add(time.Hour)

	manager.SetToken("manual", expiresAt)

	token, err := manager.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "manual", token)

	stored := manager.CurrentToken()
	assert.Equal(t, "Bearer", stored.TokenType)
	assert.Equal(t, "refresh-1", stored.RefreshToken)
	assert.Equal(t, expiresAt.Unix(), stored.ExpiresAt.Unix())
}

func TestNewInstanceTokenManager(t *testing.T) {
	t.Parallel()

	tests := []struct {
		instance   string
		scopes     []string
		wantScopes []string
	}{
		{"https://mastodon.example", nil, []string{"read"}},
		{"https://mastodon.example/", []string{"read", "write:media"}, []string{"read", "write:media"}},
	}

	for _, tt := range tests {
		t.Run(tt.instance, func(t *testing.T) {
			t.Parallel()

			manager := NewInstanceTokenManager(tt.instance, "client-id", "client-secret", tt.scopes...)

			assert.Equal(t, "https://mastodon.example/oauth/token", manager.config.TokenURL)
			assert.Equal(t, "client-id", manager.config.ClientID)
			assert.Equal(t, "client-secret", manager.config.ClientSecret)
			assert.Equal(t, tt.wantScopes, manager.config.Scopes)
		})
	}
}
