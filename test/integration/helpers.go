//go:build integration

package integration

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"testing"
	"time"

	"github.com/fivetwenty-io/masto-client/pkg/masto"
	"github.com/fivetwenty-io/masto-client/pkg/mastoclient"
	"github.com/stretchr/testify/require"
)

// TestConfig holds configuration for integration tests
type TestConfig struct {
	InstanceURL  string
	AccessToken  string
	MediaTimeout time.Duration
	Verbose      bool
}

// LoadTestConfig loads configuration from environment variables
func LoadTestConfig() *TestConfig {
	config := &TestConfig{
		InstanceURL:  os.Getenv("MASTO_INSTANCE_URL"),
		AccessToken:  os.Getenv("MASTO_ACCESS_TOKEN"),
		MediaTimeout: 2 * time.Minute,
		Verbose:      os.Getenv("MASTO_VERBOSE") == "true",
	}

	if raw := os.Getenv("MASTO_MEDIA_TIMEOUT"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil {
			config.MediaTimeout = d
		}
	}

	return config
}

// SkipIfMissingConfig skips test if required config is missing
func (config *TestConfig) SkipIfMissingConfig(t *testing.T) {
	t.Helper()

	if config.InstanceURL == "" || config.AccessToken == "" {
		t.Skip("MASTO_INSTANCE_URL or MASTO_ACCESS_TOKEN not set, skipping integration test")
	}
}

// NewClient creates a client for the configured instance.
func (config *TestConfig) NewClient(t *testing.T) masto.Client {
	t.Helper()

	client, err := mastoclient.New(context.Background(), &masto.Config{
		InstanceURL:  config.InstanceURL,
		AccessToken:  config.AccessToken,
		MediaTimeout: config.MediaTimeout,
		Logger:       &testLogger{t: t, verbose: config.Verbose},
		Debug:        config.Verbose,
		UserAgent:    "masto-client-integration",
	})
	require.NoError(t, err)

	return client
}

// testLogger forwards client logs to the test log.
type testLogger struct {
	t       *testing.T
	verbose bool
}

func (l *testLogger) Debug(msg string, fields map[string]interface{}) {
	if l.verbose {
		l.t.Logf("DEBUG %s %v", msg, fields)
	}
}

func (l *testLogger) Info(msg string, fields map[string]interface{}) {
	l.t.Logf("INFO %s %v", msg, fields)
}

func (l *testLogger) Warn(msg string, fields map[string]interface{}) {
	l.t.Logf("WARN %s %v", msg, fields)
}

func (l *testLogger) Error(msg string, fields map[string]interface{}) {
	l.t.Logf("ERROR %s %v", msg, fields)
}

// TestImage returns a small PNG suitable for upload.
func TestImage(t *testing.T) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for x := range 8 {
		for y := range 8 {
			img.Set(x, y, color.RGBA{R: uint8(x * 32), G: uint8(y * 32), B: 128, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	return buf.Bytes()
}
