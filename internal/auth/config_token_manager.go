package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fivetwenty-io/masto-client/pkg/masto"
)

// ConfigPersister saves refreshed credentials for a named instance.
type ConfigPersister interface {
	UpdateInstanceToken(instance, token string, expiresAt time.Time, refreshToken string) error
}

// ConfigTokenManager wraps OAuth2TokenManager and persists every new token
// through a ConfigPersister.
type ConfigTokenManager struct {
	oauth2Manager   *OAuth2TokenManager
	configPersister ConfigPersister
	instance        string
	logger          masto.Logger
	mutex           sync.Mutex
	lastToken       string
	lastExpiry      time.Time
}

// NewConfigTokenManager creates a new config-persisting token manager.
// logger may be nil.
func NewConfigTokenManager(config *OAuth2Config, configPersister ConfigPersister, instance string, initialExpiry time.Time, logger masto.Logger) *ConfigTokenManager {
	oauth2Manager := NewOAuth2TokenManager(config)

	if config.AccessToken != "" {
		oauth2Manager.SetToken(config.AccessToken, initialExpiry)
	}

	return &ConfigTokenManager{
		oauth2Manager:   oauth2Manager,
		configPersister: configPersister,
		instance:        instance,
		logger:          logger,
		lastToken:       config.AccessToken,
		lastExpiry:      initialExpiry,
	}
}

// GetToken returns a valid access token, refreshing if necessary.
func (m *ConfigTokenManager) GetToken(ctx context.Context) (string, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	token, err := m.oauth2Manager.GetToken(ctx)
	if err != nil {
		return "", err
	}

	current := m.oauth2Manager.CurrentToken()
	if current != nil && (current.AccessToken != m.lastToken || !current.ExpiresAt.Equal(m.lastExpiry)) {
		m.persist(current)
	}

	return token, nil
}

// RefreshToken forces a token refresh.
func (m *ConfigTokenManager) RefreshToken(ctx context.Context) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	err := m.oauth2Manager.RefreshToken(ctx)
	if err != nil {
		return err
	}

	if current := m.oauth2Manager.CurrentToken(); current != nil {
		m.persist(current)
	}

	return nil
}

// TokenExpiry returns the current token's expiration time.
func (m *ConfigTokenManager) TokenExpiry() time.Time {
	token := m.oauth2Manager.CurrentToken()
	if token == nil {
		return time.Time{}
	}

	return token.ExpiresAt
}

// persist never fails the request; a token that could not be saved is
// simply fetched again next run.
func (m *ConfigTokenManager) persist(token *Token) {
	m.lastToken = token.AccessToken
	m.lastExpiry = token.ExpiresAt

	err := m.save(token)
	if err != nil && m.logger != nil {
		m.logger.Warn("failed to persist refreshed token", map[string]interface{}{
			"instance": m.instance,
			"error":    err.Error(),
		})
	}
}

func (m *ConfigTokenManager) save(token *Token) error {
	if m.configPersister == nil {
		return ErrNoConfigPersister
	}

	err := m.configPersister.UpdateInstanceToken(m.instance, token.AccessToken, token.ExpiresAt, token.RefreshToken)
	if err != nil {
		return fmt.Errorf("failed to update instance token: %w", err)
	}

	return nil
}
