package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/fivetwenty-io/masto-client/pkg/masto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "test-token"

// newTestClient serves handler on an httptest server and returns a client
// pointed at it with a static token and a fast media poll.
func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New(context.Background(), &masto.Config{
		InstanceURL:       server.URL,
		AccessToken:       testToken,
		MediaPollInterval: time.Millisecond,
		MediaTimeout:      time.Second,
	})
	require.NoError(t, err)

	return client
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

// requestLog records requests seen by a test server.
type requestLog struct {
	mu      sync.Mutex
	entries []string
}

func (l *requestLog) add(entry string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, entry)
}

func (l *requestLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()

	return append([]string(nil), l.entries...)
}

// testGetOperation is a generic single-resource read case.
type testGetOperation[T any] struct {
	Name         string
	ID           string
	ExpectedPath string
	StatusCode   int
	Response     string
	WantErr      bool
	ErrMessage   string
	Check        func(t *testing.T, result *T)
}

// runGetTests runs read operations against a server that asserts the path
// and bearer token.
func runGetTests[T any](
	t *testing.T,
	tests []testGetOperation[T],
	getFunc func(*Client) func(context.Context, string) (*T, error),
) {
	t.Helper()

	for _, testCase := range tests {
		t.Run(testCase.Name, func(t *testing.T) {
			t.Parallel()

			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if testCase.ExpectedPath != "" {
					assert.Equal(t, testCase.ExpectedPath, r.URL.Path)
				}

				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, "Bearer "+testToken, r.Header.Get("Authorization"))
				writeJSON(w, testCase.StatusCode, testCase.Response)
			})

			result, err := getFunc(client)(context.Background(), testCase.ID)

			if testCase.WantErr {
				require.Error(t, err)

				if testCase.ErrMessage != "" {
					assert.Contains(t, err.Error(), testCase.ErrMessage)
				}

				assert.Nil(t, result)

				return
			}

			require.NoError(t, err)
			require.NotNil(t, result)

			if testCase.Check != nil {
				testCase.Check(t, result)
			}
		})
	}
}
