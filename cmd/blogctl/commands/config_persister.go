package commands

import (
	"sync"

	"github.com/spf13/viper"

	"github.com/fivetwenty-io/blog-client/pkg/blog"
)

// ConfigPersister implements blog.SessionPersister on top of the config
// file.
type ConfigPersister struct {
	mutex sync.Mutex
}

// NewConfigPersister creates a new config persister.
func NewConfigPersister() *ConfigPersister {
	return &ConfigPersister{}
}

// SaveSession stores the credential and identity of a fresh login.
func (p *ConfigPersister) SaveSession(stored *blog.StoredSession) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	config := loadConfig()
	config.Token = stored.Token
	config.TokenExpiresAt = nil
	config.User = nil

	if !stored.ExpiresAt.IsZero() {
		expiresAt := stored.ExpiresAt
		config.TokenExpiresAt = &expiresAt
	}

	if stored.User != nil {
		user := *stored.User
		config.User = &user
	}

	err := saveConfigStruct(config)
	if err != nil {
		return err
	}

	viper.Set("token", config.Token)
	viper.Set("token_expires_at", stored.ExpiresAt)

	if config.User != nil {
		viper.Set("user.id", config.User.ID)
		viper.Set("user.username", config.User.Username)
	}

	return nil
}

// ClearSession removes the credential and identity.
func (p *ConfigPersister) ClearSession() error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	config := loadConfig()
	config.Token = ""
	config.TokenExpiresAt = nil
	config.User = nil

	err := saveConfigStruct(config)
	if err != nil {
		return err
	}

	viper.Set("token", "")
	viper.Set("token_expires_at", "")
	viper.Set("user.id", "")
	viper.Set("user.username", "")

	return nil
}

var _ blog.SessionPersister = (*ConfigPersister)(nil)
