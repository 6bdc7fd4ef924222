package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/fivetwenty-io/masto-client/internal/auth"
	"github.com/fivetwenty-io/masto-client/internal/client"
	"github.com/fivetwenty-io/masto-client/internal/constants"
	"github.com/fivetwenty-io/masto-client/internal/events"
	"github.com/fivetwenty-io/masto-client/pkg/masto"
	"github.com/fivetwenty-io/masto-client/pkg/mastoclient"
	"github.com/spf13/viper"
)

const userAgent = "masto-cli"

// resolvedInstance is the instance a command talks to. name is empty when
// --instance carried a URL rather than a saved instance name.
type resolvedInstance struct {
	name   string
	config InstanceConfig
}

// resolveInstance picks the instance from --instance, the current instance,
// or fails. --token overrides any saved credentials.
func resolveInstance(config *Config) (*resolvedInstance, error) {
	resolved := &resolvedInstance{}

	flag := viper.GetString("instance")

	switch {
	case flag != "":
		if saved, exists := config.Instances[flag]; exists {
			resolved.name = flag
			resolved.config = *saved
		} else {
			resolved.config.URL = flag
		}
	case config.CurrentInstance != "":
		saved, exists := config.Instances[config.CurrentInstance]
		if !exists {
			return nil, fmt.Errorf("instance '%s': %w", config.CurrentInstance, constants.ErrInstanceNotFound)
		}

		resolved.name = config.CurrentInstance
		resolved.config = *saved
	case len(config.Instances) == 0:
		return nil, constants.ErrNoInstancesConfigured
	default:
		return nil, constants.ErrNoInstanceURL
	}

	if resolved.config.URL == "" {
		return nil, constants.ErrNoInstanceURL
	}

	if token := viper.GetString("token"); token != "" {
		resolved.config.Token = token
		resolved.config.RefreshToken = ""
		resolved.config.TokenExpiresAt = nil
	}

	return resolved, nil
}

// CreateClient builds an API client for the selected instance.
func CreateClient(ctx context.Context) (masto.Client, error) {
	config, err := loadConfig()
	if err != nil {
		return nil, err
	}

	instance, err := resolveInstance(config)
	if err != nil {
		return nil, err
	}

	logger := newZapLogger(currentLogger())

	clientConfig := &masto.Config{
		InstanceURL:            instance.config.URL,
		AccessToken:            instance.config.Token,
		RefreshToken:           instance.config.RefreshToken,
		ClientID:               instance.config.ClientID,
		ClientSecret:           instance.config.ClientSecret,
		Scopes:                 instance.config.Scopes,
		Logger:                 logger,
		Debug:                  viper.GetBool("verbose"),
		UserAgent:              userAgent,
		RateLimitWarnThreshold: constants.DefaultRateLimitWarnThreshold,
	}

	observer, err := eventsObserver(config, logger)
	if err != nil {
		return nil, err
	}

	if observer != nil {
		clientConfig.Observer = observer
	}

	// Saved instances with a refresh grant persist every new token.
	if instance.name != "" && instance.config.RefreshToken != "" && instance.config.ClientID != "" {
		return createPersistingClient(clientConfig, instance, logger)
	}

	return mastoclient.New(ctx, clientConfig)
}

func createPersistingClient(config *masto.Config, instance *resolvedInstance, logger masto.Logger) (masto.Client, error) {
	instanceURL, err := mastoclient.NormalizeInstanceURL(config.InstanceURL)
	if err != nil {
		return nil, err
	}

	config.InstanceURL = instanceURL

	var expiry time.Time
	if instance.config.TokenExpiresAt != nil {
		expiry = *instance.config.TokenExpiresAt
	}

	tokenManager := auth.NewConfigTokenManager(&auth.OAuth2Config{
		TokenURL:     instanceURL + constants.TokenPath,
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		RefreshToken: config.RefreshToken,
		AccessToken:  config.AccessToken,
		Scopes:       config.Scopes,
	}, NewConfigPersister(), instance.name, expiry, logger)

	c, err := client.NewWithTokenManager(config, tokenManager)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return c, nil
}

// eventsObserver connects to NATS when events.nats_url is configured. The
// connection is drained by Shutdown.
func eventsObserver(config *Config, logger masto.Logger) (masto.ActionObserver, error) {
	natsURL := viper.GetString("events.nats_url")
	if natsURL == "" {
		natsURL = config.Events.NATSURL
	}

	if natsURL == "" {
		return nil, nil //nolint:nilnil
	}

	prefix := viper.GetString("events.subject_prefix")
	if prefix == "" {
		prefix = config.Events.SubjectPrefix
	}

	observer, err := events.Connect(natsURL, prefix, logger)
	if err != nil {
		return nil, err
	}

	registerCleanup(func() {
		if err := observer.Close(); err != nil {
			logger.Warn("failed to close event publisher", map[string]interface{}{"error": err.Error()})
		}
	})

	return observer, nil
}
