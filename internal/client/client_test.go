package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/fivetwenty-io/masto-client/internal/auth"
	"github.com/fivetwenty-io/masto-client/pkg/masto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type logEntry struct {
	level  string
	msg    string
	fields map[string]interface{}
}

type MockLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *MockLogger) Debug(msg string, fields map[string]interface{}) {
	l.record("debug", msg, fields)
}

func (l *MockLogger) Info(msg string, fields map[string]interface{}) {
	l.record("info", msg, fields)
}

func (l *MockLogger) Warn(msg string, fields map[string]interface{}) {
	l.record("warn", msg, fields)
}

func (l *MockLogger) Error(msg string, fields map[string]interface{}) {
	l.record("error", msg, fields)
}

func (l *MockLogger) record(level, msg string, fields map[string]interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, logEntry{level: level, msg: msg, fields: fields})
}

func (l *MockLogger) messages(level string) []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []string

	for _, entry := range l.entries {
		if entry.level == level {
			out = append(out, entry.msg)
		}
	}

	return out
}

type eventSink struct {
	mu     sync.Mutex
	events []masto.ActionEvent
}

func (s *eventSink) ObserveAction(ctx context.Context, event masto.ActionEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = append(s.events, event)
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), nil)
	require.ErrorIs(t, err, masto.ErrConfigRequired)

	_, err = New(context.Background(), &masto.Config{})
	require.ErrorIs(t, err, masto.ErrInstanceURLRequired)
}

func TestCreateTokenManager(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		config *masto.Config
		check  func(t *testing.T, manager auth.TokenManager)
	}{
		{
			name:   "no credentials",
			config: &masto.Config{InstanceURL: "https://mastodon.example"},
			check: func(t *testing.T, manager auth.TokenManager) {
				t.Helper()
				assert.Nil(t, manager)
			},
		},
		{
			name:   "static token",
			config: &masto.Config{InstanceURL: "https://mastodon.example", AccessToken: "abc"},
			check: func(t *testing.T, manager auth.TokenManager) {
				t.Helper()
				assert.IsType(t, &auth.StaticTokenManager{}, manager)
			},
		},
		{
			name: "token with refresh",
			config: &masto.Config{
				InstanceURL:  "https://mastodon.example",
				AccessToken:  "abc",
				RefreshToken: "def",
			},
			check: func(t *testing.T, manager auth.TokenManager) {
				t.Helper()
				assert.IsType(t, &auth.OAuth2TokenManager{}, manager)

				token, err := manager.GetToken(context.Background())
				require.NoError(t, err)
				assert.Equal(t, "abc", token)
			},
		},
		{
			name: "client credentials",
			config: &masto.Config{
				InstanceURL:  "https://mastodon.example",
				ClientID:     "id",
				ClientSecret: "secret",
			},
			check: func(t *testing.T, manager auth.TokenManager) {
				t.Helper()
				assert.IsType(t, &auth.OAuth2TokenManager{}, manager)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tt.check(t, createTokenManager(tt.config))
		})
	}
}

func TestGetTokenURL(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "https://mastodon.example/oauth/token",
		getTokenURL(&masto.Config{InstanceURL: "https://mastodon.example"}))
	assert.Equal(t, "https://auth.example/token",
		getTokenURL(&masto.Config{InstanceURL: "https://mastodon.example", TokenURL: "https://auth.example/token"}))
}

func TestClient_Unauthenticated(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Request-Id"))
		writeJSON(w, http.StatusOK, `{"content":"about"}`)
	}))
	defer server.Close()

	client, err := New(context.Background(), &masto.Config{InstanceURL: server.URL})
	require.NoError(t, err)

	_, err = client.GetToken(context.Background())
	require.ErrorIs(t, err, ErrNoTokenManagerConfigured)

	description, err := client.Instance().ExtendedDescription(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "about", description.Content)
}

func TestClient_ClientCredentials(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.Form.Get("grant_type"))
		writeJSON(w, http.StatusOK, `{"access_token":"app-token","token_type":"Bearer","scope":"read","expires_in":3600}`)
	})
	mux.HandleFunc("/api/v1/instance/extended_description", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer app-token", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, `{"content":"about"}`)
	})

	server := httptest.NewServer(mux)
	defer server.Close()

	client, err := New(context.Background(), &masto.Config{
		InstanceURL:  server.URL,
		ClientID:     "id",
		ClientSecret: "secret",
	})
	require.NoError(t, err)

	_, err = client.Instance().ExtendedDescription(context.Background())
	require.NoError(t, err)

	token, err := client.GetToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "app-token", token)
}

func TestClient_ObserverMetricsAndRateLimit(t *testing.T) {
	t.Parallel()

	reset := time.Now().Add(5 * time.Minute).UTC().Format(time.RFC3339Nano)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Limit", "300")
		w.Header().Set("X-RateLimit-Remaining", "3")
		w.Header().Set("X-RateLimit-Reset", reset)
		writeJSON(w, http.StatusOK, `{"filter_not_following":true}`)
	}))
	defer server.Close()

	logger := &MockLogger{}
	sink := &eventSink{}

	client, err := New(context.Background(), &masto.Config{
		InstanceURL:            server.URL,
		AccessToken:            testToken,
		Logger:                 logger,
		Observer:               sink,
		RateLimitWarnThreshold: 10,
	})
	require.NoError(t, err)

	_, err = client.Notifications().Policy().Get(context.Background())
	require.NoError(t, err)

	assert.Contains(t, logger.messages("warn"), "Rate limit nearly exhausted")

	metrics, ok := client.Metrics("GET /api/v1/notifications/policy")
	require.True(t, ok)
	assert.Equal(t, int64(1), metrics.TotalRequests)
	assert.Equal(t, int64(0), metrics.TotalErrors)

	require.Len(t, sink.events, 1)
	assert.Equal(t, masto.OutcomeSucceeded, sink.events[0].Outcome)
	assert.Equal(t, "/api/v1/notifications/policy", sink.events[0].Path)
}

func TestClient_Dispatcher(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/v1/statuses/1", r.URL.Path)
		writeJSON(w, http.StatusOK, `{}`)
	})

	resp, err := client.Dispatcher().Dispatch(context.Background(),
		masto.NewAction(masto.ActionDelete, "/api/v1/statuses/1", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
