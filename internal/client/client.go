package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/fivetwenty-io/masto-client/internal/auth"
	"github.com/fivetwenty-io/masto-client/internal/constants"
	"github.com/fivetwenty-io/masto-client/internal/dispatcher"
	"github.com/fivetwenty-io/masto-client/internal/http"
	"github.com/fivetwenty-io/masto-client/pkg/masto"
)

// Static errors for err113 compliance.
var (
	ErrNoTokenManagerConfigured = errors.New("no token manager configured")
)

// Client implements the masto.Client interface.
type Client struct {
	httpClient   *http.Client
	tokenManager auth.TokenManager
	dispatcher   *dispatcher.Dispatcher
	metrics      *masto.MetricsCollector
	baseURL      string
	logger       masto.Logger

	// Resource clients
	media         masto.MediaClient
	notifications masto.NotificationsClient
	instance      masto.InstanceClient
}

// createTokenManager picks a token manager based on the configured
// credentials. A nil result means requests go out unauthenticated.
func createTokenManager(config *masto.Config) auth.TokenManager {
	if config.AccessToken != "" && config.RefreshToken != "" {
		return auth.NewOAuth2TokenManager(oauthConfig(config))
	}

	if config.AccessToken != "" {
		return auth.NewStaticTokenManager(config.AccessToken)
	}

	if config.ClientID != "" && config.ClientSecret != "" {
		return auth.NewOAuth2TokenManager(oauthConfig(config))
	}

	return nil
}

func oauthConfig(config *masto.Config) *auth.OAuth2Config {
	scopes := config.Scopes
	if len(scopes) == 0 {
		scopes = []string{constants.DefaultScope}
	}

	return &auth.OAuth2Config{
		TokenURL:     getTokenURL(config),
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		AccessToken:  config.AccessToken,
		RefreshToken: config.RefreshToken,
		Scopes:       scopes,
	}
}

// getTokenURL returns token URL from config or the instance default.
func getTokenURL(config *masto.Config) string {
	if config.TokenURL != "" {
		return config.TokenURL
	}

	return config.InstanceURL + constants.TokenPath
}

// createHTTPClientOptions builds HTTP client options from config.
func createHTTPClientOptions(config *masto.Config, metrics *masto.MetricsCollector) []http.Option {
	var httpOpts []http.Option

	if config.Logger != nil {
		httpOpts = append(httpOpts, http.WithLogger(config.Logger))
	}

	if config.Debug {
		httpOpts = append(httpOpts, http.WithDebug(true))
	}

	if config.UserAgent != "" {
		httpOpts = append(httpOpts, http.WithUserAgent(config.UserAgent))
	}

	if config.HTTPTimeout > 0 {
		httpOpts = append(httpOpts, http.WithHTTPTimeout(config.HTTPTimeout))
	}

	if config.RetryMax > 0 {
		retryWaitMin := constants.DefaultRetryWaitMin
		retryWaitMax := constants.DefaultRetryWaitMax

		if config.RetryWaitMin > 0 {
			retryWaitMin = config.RetryWaitMin
		}

		if config.RetryWaitMax > 0 {
			retryWaitMax = config.RetryWaitMax
		}

		httpOpts = append(httpOpts, http.WithRetryConfig(config.RetryMax, retryWaitMin, retryWaitMax))
	}

	chain := masto.NewInterceptorChain()
	chain.AddRequestInterceptor(masto.RequestIDInterceptor())
	chain.AddRequestInterceptor(masto.MetricsRequestInterceptor(metrics))
	chain.AddResponseInterceptor(masto.MetricsResponseInterceptor(metrics))

	if config.Logger != nil && config.RateLimitWarnThreshold > 0 {
		chain.AddResponseInterceptor(masto.RateLimitWarningInterceptor(config.Logger, config.RateLimitWarnThreshold))
	}

	return append(httpOpts, http.WithInterceptors(chain))
}

// createDispatcherOptions builds dispatcher options from config. Media is
// created on the v2 endpoint and read back from v1.
func createDispatcherOptions(config *masto.Config) []dispatcher.Option {
	opts := []dispatcher.Option{
		dispatcher.WithCompletionRules(dispatcher.CompletionRule{
			CreatePath:  constants.MediaCreatePath,
			MarkerField: constants.MediaCompletionField,
			FetchBase:   constants.MediaFetchPath,
		}),
		dispatcher.WithLogger(config.Logger),
	}

	if config.MediaTimeout > 0 {
		opts = append(opts, dispatcher.WithMediaTimeout(config.MediaTimeout))
	}

	if config.MediaPollInterval > 0 || config.MediaPollMaxInterval > 0 {
		opts = append(opts, dispatcher.WithPollInterval(config.MediaPollInterval, config.MediaPollMaxInterval))
	}

	if config.Observer != nil {
		opts = append(opts, dispatcher.WithObserver(config.Observer))
	}

	return opts
}

// New creates a Mastodon client from config. InstanceURL must already be
// normalized.
func New(ctx context.Context, config *masto.Config) (*Client, error) {
	if config == nil {
		return nil, masto.ErrConfigRequired
	}

	return NewWithTokenManager(config, createTokenManager(config))
}

// NewWithTokenManager creates a Mastodon client with a custom token manager.
func NewWithTokenManager(config *masto.Config, tokenManager auth.TokenManager) (*Client, error) {
	if config == nil {
		return nil, masto.ErrConfigRequired
	}

	if config.InstanceURL == "" {
		return nil, masto.ErrInstanceURLRequired
	}

	metrics := masto.NewMetricsCollector()
	httpClient := http.NewClient(config.InstanceURL, tokenManager, createHTTPClientOptions(config, metrics)...)

	client := &Client{
		httpClient:   httpClient,
		tokenManager: tokenManager,
		dispatcher:   dispatcher.New(httpClient, createDispatcherOptions(config)...),
		metrics:      metrics,
		baseURL:      httpClient.BaseURL(),
		logger:       config.Logger,
	}

	client.initializeResourceClients()

	return client, nil
}

// Media implements masto.Client.Media.
func (c *Client) Media() masto.MediaClient {
	return c.media
}

// Notifications implements masto.Client.Notifications.
func (c *Client) Notifications() masto.NotificationsClient {
	return c.notifications
}

// Instance implements masto.Client.Instance.
func (c *Client) Instance() masto.InstanceClient {
	return c.instance
}

// Dispatcher implements masto.Client.Dispatcher.
func (c *Client) Dispatcher() masto.ActionDispatcher {
	return c.dispatcher
}

// BaseURL returns the instance URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Metrics returns request counters for endpoint ("METHOD path").
func (c *Client) Metrics(endpoint string) (masto.Metrics, bool) {
	return c.metrics.GetMetrics(endpoint)
}

// GetToken returns the current access token from the token manager.
func (c *Client) GetToken(ctx context.Context) (string, error) {
	if c.tokenManager == nil {
		return "", ErrNoTokenManagerConfigured
	}

	token, err := c.tokenManager.GetToken(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get token: %w", err)
	}

	return token, nil
}

// initializeResourceClients initializes all resource-specific clients.
func (c *Client) initializeResourceClients() {
	c.media = NewMediaClient(c.dispatcher)
	c.notifications = NewNotificationsClient(c.dispatcher, c.httpClient)
	c.instance = NewInstanceClient(c.dispatcher)
}
