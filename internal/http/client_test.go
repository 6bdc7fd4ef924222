package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	mastohttp "github.com/fivetwenty-io/masto-client/internal/http"
	"github.com/fivetwenty-io/masto-client/pkg/masto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockTokenManager for testing.
type MockTokenManager struct {
	token string
	err   error
}

func (m *MockTokenManager) GetToken(ctx context.Context) (string, error) {
	return m.token, m.err
}

func (m *MockTokenManager) RefreshToken(ctx context.Context) error {
	return nil
}

// MockLogger for testing.
type MockLogger struct {
	logs []map[string]interface{}
}

func (l *MockLogger) Debug(msg string, fields map[string]interface{}) {
	l.logs = append(l.logs, map[string]interface{}{"level": "debug", "msg": msg, "fields": fields})
}

func (l *MockLogger) Info(msg string, fields map[string]interface{}) {
	l.logs = append(l.logs, map[string]interface{}{"level": "info", "msg": msg, "fields": fields})
}

func (l *MockLogger) Warn(msg string, fields map[string]interface{}) {
	l.logs = append(l.logs, map[string]interface{}{"level": "warn", "msg": msg, "fields": fields})
}

func (l *MockLogger) Error(msg string, fields map[string]interface{}) {
	l.logs = append(l.logs, map[string]interface{}{"level": "error", "msg": msg, "fields": fields})
}

var _ masto.Transport = (*mastohttp.Client)(nil)

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestClient_Do(t *testing.T) {
	t.Parallel()
	t.Run("successful request", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "/api/v1/media/1", request.URL.Path)
			assert.Equal(t, "GET", request.Method)
			assert.Equal(t, "Bearer test-token", request.Header.Get("Authorization"))
			assert.Equal(t, "application/json", request.Header.Get("Accept"))
			assert.NotEmpty(t, request.Header.Get("User-Agent"))

			_ = json.NewEncoder(writer).Encode(map[string]string{"id": "1", "type": "image"})
		}))
		defer server.Close()

		client := mastohttp.NewClient(server.URL, &MockTokenManager{token: "test-token"})

		resp, err := client.Do(context.Background(), &mastohttp.Request{
			Method: "GET",
			Path:   "/api/v1/media/1",
		})
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)

		var result map[string]string

		err = json.Unmarshal(resp.Body, &result)
		require.NoError(t, err)
		assert.Equal(t, "1", result["id"])
	})

	t.Run("no token manager sends no authorization", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Empty(t, request.Header.Get("Authorization"))
			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		_, err := mastohttp.NewClient(server.URL, nil).Get(context.Background(), "/api/v1/instance/extended_description", nil)
		require.NoError(t, err)
	})

	t.Run("token failure aborts the request", func(t *testing.T) {
		t.Parallel()

		var calls atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			calls.Add(1)
		}))
		defer server.Close()

		tokenErr := errors.New("refresh denied")
		client := mastohttp.NewClient(server.URL, &MockTokenManager{err: tokenErr})

		_, err := client.Get(context.Background(), "/api/v1/notifications", nil)
		require.ErrorIs(t, err, tokenErr)
		assert.Equal(t, int32(0), calls.Load())
	})

	t.Run("request with query parameters", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "/api/v1/notifications", request.URL.Path)
			assert.Equal(t, "limit=2", request.URL.RawQuery)
			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := mastohttp.NewClient(server.URL, nil)

		resp, err := client.Get(context.Background(), "/api/v1/notifications", url.Values{"limit": []string{"2"}})
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
	})

	t.Run("absolute URL is requested verbatim", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "/api/v1/notifications", request.URL.Path)
			assert.Equal(t, "max_id=7&types%5B%5D=mention", request.URL.RawQuery)
			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := mastohttp.NewClient("https://unused.example", nil)

		_, err := client.Get(context.Background(), server.URL+"/api/v1/notifications?max_id=7&types%5B%5D=mention", nil)
		require.NoError(t, err)
	})

	t.Run("request with json body", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "PATCH", request.Method)
			assert.Equal(t, "application/json", request.Header.Get("Content-Type"))

			var body map[string]bool

			_ = json.NewDecoder(request.Body).Decode(&body)
			assert.True(t, body["filter_new_accounts"])

			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := mastohttp.NewClient(server.URL, nil)

		resp, err := client.Patch(context.Background(), "/api/v1/notifications/policy", map[string]bool{"filter_new_accounts": true})
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
	})

	t.Run("request with multipart body", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.True(t, strings.HasPrefix(request.Header.Get("Content-Type"), "multipart/form-data"))

			err := request.ParseMultipartForm(1 << 20)
			assert.NoError(t, err)
			assert.Equal(t, "a cat", request.FormValue("description"))

			file, header, err := request.FormFile("file")
			assert.NoError(t, err)

			if err == nil {
				data, _ := io.ReadAll(file)
				assert.Equal(t, "png-bytes", string(data))
				assert.Equal(t, "cat.png", header.Filename)
				assert.Equal(t, "image/png", header.Header.Get("Content-Type"))
			}

			writer.WriteHeader(http.StatusAccepted)
		}))
		defer server.Close()

		client := mastohttp.NewClient(server.URL, nil)

		form := &masto.MultipartForm{
			Fields: url.Values{"description": {"a cat"}},
			Files:  []masto.MultipartFile{{FieldName: "file", FileName: "cat.png", Reader: strings.NewReader("png-bytes")}},
		}

		resp, err := client.Post(context.Background(), "/api/v2/media", form)
		require.NoError(t, err)
		assert.Equal(t, 202, resp.StatusCode)
	})

	t.Run("error response", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.Header().Set("Content-Type", "application/json")
			writer.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(writer).Encode(map[string]string{"error": "Record not found"})
		}))
		defer server.Close()

		client := mastohttp.NewClient(server.URL, nil)

		resp, err := client.Get(context.Background(), "/api/v1/media/missing", nil)
		require.Error(t, err)
		assert.Equal(t, 404, resp.StatusCode)

		httpErr := &masto.HTTPError{}
		require.ErrorAs(t, err, &httpErr)
		assert.Equal(t, 404, httpErr.StatusCode)
		assert.Equal(t, "Record not found", httpErr.Message)
		assert.Equal(t, "GET", httpErr.Method)
		assert.Equal(t, server.URL+"/api/v1/media/missing", httpErr.URL)
	})

	t.Run("custom headers", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "key-1", request.Header.Get("Idempotency-Key"))
			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := mastohttp.NewClient(server.URL, nil)

		_, err := client.Post(context.Background(), "/api/v1/notifications/clear", nil, masto.WithRequestHeader("Idempotency-Key", "key-1"))
		require.NoError(t, err)
	})

	t.Run("link header", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.Header().Set("Link", `<https://mastodon.example/api/v1/notifications?max_id=1>; rel="next", <https://mastodon.example/api/v1/notifications?min_id=9>; rel="prev"`)
			_, _ = writer.Write([]byte("[]"))
		}))
		defer server.Close()

		resp, err := mastohttp.NewClient(server.URL, nil).Get(context.Background(), "/api/v1/notifications", nil)
		require.NoError(t, err)
		assert.Equal(t, "https://mastodon.example/api/v1/notifications?max_id=1", resp.Links.Next)
		assert.Equal(t, "https://mastodon.example/api/v1/notifications?min_id=9", resp.Links.Previous)
	})

	t.Run("with debug logging", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.WriteHeader(http.StatusOK)
			_ = json.NewEncoder(writer).Encode(map[string]string{"result": "ok"})
		}))
		defer server.Close()

		logger := &MockLogger{}
		client := mastohttp.NewClient(server.URL, nil, mastohttp.WithLogger(logger), mastohttp.WithDebug(true))

		_, err := client.Get(context.Background(), "/api/v1/notifications", nil)
		require.NoError(t, err)

		assert.Len(t, logger.logs, 2)
		assert.Equal(t, "HTTP Request", logger.logs[0]["msg"])
		assert.Equal(t, "HTTP Response", logger.logs[1]["msg"])
	})

	t.Run("interceptors see request and response", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.NotEmpty(t, request.Header.Get(masto.RequestIDHeader))
			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		collector := masto.NewMetricsCollector()
		chain := masto.NewInterceptorChain()
		chain.AddRequestInterceptor(masto.RequestIDInterceptor())
		chain.AddRequestInterceptor(masto.MetricsRequestInterceptor(collector))
		chain.AddResponseInterceptor(masto.MetricsResponseInterceptor(collector))

		client := mastohttp.NewClient(server.URL, nil, mastohttp.WithInterceptors(chain))

		_, err := client.Get(context.Background(), "/api/v1/notifications", nil)
		require.NoError(t, err)

		metrics, ok := collector.GetMetrics("GET /api/v1/notifications")
		require.True(t, ok)
		assert.Equal(t, int64(1), metrics.TotalRequests)
	})
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestClient_Methods(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		method string
		fn     func(*mastohttp.Client, context.Context) (*masto.Response, error)
	}{
		{
			name:   "GET",
			method: "GET",
			fn: func(c *mastohttp.Client, ctx context.Context) (*masto.Response, error) {
				return c.Get(ctx, "/test", nil)
			},
		},
		{
			name:   "POST",
			method: "POST",
			fn: func(c *mastohttp.Client, ctx context.Context) (*masto.Response, error) {
				return c.Post(ctx, "/test", map[string]string{"key": "value"})
			},
		},
		{
			name:   "PUT",
			method: "PUT",
			fn: func(c *mastohttp.Client, ctx context.Context) (*masto.Response, error) {
				return c.Put(ctx, "/test", map[string]string{"key": "value"})
			},
		},
		{
			name:   "PATCH",
			method: "PATCH",
			fn: func(c *mastohttp.Client, ctx context.Context) (*masto.Response, error) {
				return c.Patch(ctx, "/test", map[string]string{"key": "value"})
			},
		},
		{
			name:   "DELETE",
			method: "DELETE",
			fn: func(c *mastohttp.Client, ctx context.Context) (*masto.Response, error) {
				return c.Delete(ctx, "/test", nil)
			},
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
				assert.Equal(t, testCase.method, request.Method)
				assert.Equal(t, "/test", request.URL.Path)
				writer.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			client := mastohttp.NewClient(server.URL, nil)
			resp, err := testCase.fn(client, context.Background())
			require.NoError(t, err)
			assert.Equal(t, 200, resp.StatusCode)
		})
	}
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestClient_RetryLogic(t *testing.T) {
	t.Parallel()
	t.Run("does not retry by default", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			attempts.Add(1)
			writer.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		resp, err := mastohttp.NewClient(server.URL, nil).Get(context.Background(), "/test", nil)
		require.Error(t, err)
		assert.Equal(t, 503, resp.StatusCode)
		assert.Equal(t, int32(1), attempts.Load())
	})

	t.Run("retries on 5xx errors when enabled", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			if attempts.Add(1) < 3 {
				writer.WriteHeader(http.StatusInternalServerError)
			} else {
				writer.WriteHeader(http.StatusOK)
			}
		}))
		defer server.Close()

		logger := &MockLogger{}
		client := mastohttp.NewClient(server.URL, nil,
			mastohttp.WithRetryConfig(3, 10*time.Millisecond, 100*time.Millisecond),
			mastohttp.WithLogger(logger))

		resp, err := client.Get(context.Background(), "/test", nil)
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
		assert.Equal(t, int32(3), attempts.Load())

		var retries int

		for _, entry := range logger.logs {
			if entry["msg"] == "Retrying HTTP request" {
				retries++
			}
		}

		assert.Equal(t, 2, retries)
	})

	t.Run("retries on rate limiting when enabled", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			if attempts.Add(1) < 2 {
				writer.WriteHeader(http.StatusTooManyRequests)
			} else {
				writer.WriteHeader(http.StatusOK)
			}
		}))
		defer server.Close()

		client := mastohttp.NewClient(server.URL, nil, mastohttp.WithRetryConfig(3, 10*time.Millisecond, 100*time.Millisecond))

		resp, err := client.Get(context.Background(), "/test", nil)
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
		assert.Equal(t, int32(2), attempts.Load())
	})

	t.Run("never retries not found", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			attempts.Add(1)
			writer.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		client := mastohttp.NewClient(server.URL, nil, mastohttp.WithRetryConfig(3, 10*time.Millisecond, 100*time.Millisecond))

		resp, err := client.Get(context.Background(), "/test", nil)
		require.Error(t, err)
		assert.True(t, masto.IsNotFound(err))
		assert.Equal(t, 404, resp.StatusCode)
		assert.Equal(t, int32(1), attempts.Load())
	})
}
