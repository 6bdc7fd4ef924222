package commands

import (
	"fmt"
	"sync"
	"time"

	"github.com/fivetwenty-io/masto-client/internal/auth"
	"github.com/fivetwenty-io/masto-client/internal/constants"
)

// ConfigPersister implements the auth.ConfigPersister interface.
type ConfigPersister struct {
	mutex sync.Mutex
}

var _ auth.ConfigPersister = (*ConfigPersister)(nil)

// NewConfigPersister creates a new config persister.
func NewConfigPersister() *ConfigPersister {
	return &ConfigPersister{}
}

// UpdateInstanceToken updates the instance token and related metadata in the config.
func (p *ConfigPersister) UpdateInstanceToken(instance, token string, expiresAt time.Time, refreshToken string) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	config, err := loadConfig()
	if err != nil {
		return err
	}

	instanceConfig, exists := config.Instances[instance]
	if !exists {
		return fmt.Errorf("instance '%s': %w", instance, constants.ErrInstanceNotFound)
	}

	instanceConfig.Token = token
	if !expiresAt.IsZero() {
		instanceConfig.TokenExpiresAt = &expiresAt
	}

	if refreshToken != "" {
		instanceConfig.RefreshToken = refreshToken
	}

	now := time.Now()
	instanceConfig.LastRefreshed = &now

	return saveConfig(config)
}
