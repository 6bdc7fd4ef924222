package mastoclient

import (
	"context"
	"fmt"
	"strings"

	"github.com/fivetwenty-io/masto-client/internal/client"
	"github.com/fivetwenty-io/masto-client/internal/constants"
	"github.com/fivetwenty-io/masto-client/pkg/masto"
)

// New creates a new Mastodon API client. config is not modified.
func New(ctx context.Context, config *masto.Config) (masto.Client, error) {
	if config == nil {
		return nil, masto.ErrConfigRequired
	}

	normalized := *config

	instanceURL, err := NormalizeInstanceURL(config.InstanceURL)
	if err != nil {
		return nil, err
	}

	normalized.InstanceURL = instanceURL

	if normalized.TokenURL == "" {
		normalized.TokenURL = instanceURL + constants.TokenPath
	}

	c, err := client.New(ctx, &normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to create new client: %w", err)
	}

	return c, nil
}

// NormalizeInstanceURL trims trailing slashes and defaults the scheme to
// https.
func NormalizeInstanceURL(instanceURL string) (string, error) {
	normalized := strings.TrimRight(strings.TrimSpace(instanceURL), "/")
	if normalized == "" {
		return "", masto.ErrInstanceURLRequired
	}

	if !strings.HasPrefix(normalized, "http://") && !strings.HasPrefix(normalized, "https://") {
		normalized = "https://" + normalized
	}

	return normalized, nil
}

// NewWithEndpoint creates an unauthenticated client.
func NewWithEndpoint(ctx context.Context, instanceURL string) (masto.Client, error) {
	return New(ctx, &masto.Config{
		InstanceURL: instanceURL,
	})
}

// NewWithToken creates a client using an existing access token.
func NewWithToken(ctx context.Context, instanceURL, accessToken string) (masto.Client, error) {
	return New(ctx, &masto.Config{
		InstanceURL: instanceURL,
		AccessToken: accessToken,
	})
}

// NewWithClientCredentials creates a client that obtains an app token with
// the client_credentials grant.
func NewWithClientCredentials(ctx context.Context, instanceURL, clientID, clientSecret string, scopes ...string) (masto.Client, error) {
	return New(ctx, &masto.Config{
		InstanceURL:  instanceURL,
		ClientID:     clientID,
		ClientSecret: clientSecret,
		Scopes:       scopes,
	})
}
